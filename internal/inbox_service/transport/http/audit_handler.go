package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/aradsms/inbox_services/internal/inbox_service/app"
	"github.com/aradsms/inbox_services/internal/inbox_service/domain"
	"github.com/aradsms/inbox_services/internal/inbox_service/middleware"
	"github.com/go-chi/chi/v5"
	chi_middleware "github.com/go-chi/chi/v5/middleware"
)

type AuditLogLister interface {
	ListAuditLogs(ctx context.Context, user *domain.User, limit int) ([]domain.AuditLog, error)
}

type AuditHandler struct {
	audits AuditLogLister
	logger *slog.Logger
}

func NewAuditHandler(audits AuditLogLister, logger *slog.Logger) *AuditHandler {
	return &AuditHandler{audits: audits, logger: logger.With("handler", "audit")}
}

func (h *AuditHandler) RegisterRoutes(r chi.Router) {
	r.Get("/logs", h.handleListLogs)
}

func (h *AuditHandler) handleListLogs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.With("request_id", chi_middleware.GetReqID(ctx))

	user, ok := middleware.UserFromContext(ctx)
	if !ok {
		jsonError(ctx, w, logger, "User not authenticated", "unauthenticated", http.StatusUnauthorized)
		return
	}
	limit, ok := parseLimit(r, app.DefaultAuditListLimit)
	if !ok {
		jsonError(ctx, w, logger, "limit must be an integer", "bad_request", http.StatusBadRequest)
		return
	}

	entries, err := h.audits.ListAuditLogs(ctx, user, limit)
	if err != nil {
		writeDomainError(ctx, w, logger, err)
		return
	}
	resp := make([]AuditLogResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, toAuditLogResponse(e))
	}
	writeJSON(w, http.StatusOK, resp)
}
