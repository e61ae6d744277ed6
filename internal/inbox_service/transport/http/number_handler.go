package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/aradsms/inbox_services/internal/inbox_service/domain"
	"github.com/aradsms/inbox_services/internal/inbox_service/middleware"
	"github.com/go-chi/chi/v5"
	chi_middleware "github.com/go-chi/chi/v5/middleware"
)

type NumberLister interface {
	ListNumbers(ctx context.Context, user *domain.User) ([]domain.PhoneNumber, error)
}

type NumberHandler struct {
	numbers NumberLister
	logger  *slog.Logger
}

func NewNumberHandler(numbers NumberLister, logger *slog.Logger) *NumberHandler {
	return &NumberHandler{numbers: numbers, logger: logger.With("handler", "number")}
}

func (h *NumberHandler) RegisterRoutes(r chi.Router) {
	r.Get("/numbers", h.handleListNumbers)
}

func (h *NumberHandler) handleListNumbers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.With("request_id", chi_middleware.GetReqID(ctx))

	user, ok := middleware.UserFromContext(ctx)
	if !ok {
		jsonError(ctx, w, logger, "User not authenticated", "unauthenticated", http.StatusUnauthorized)
		return
	}

	numbers, err := h.numbers.ListNumbers(ctx, user)
	if err != nil {
		writeDomainError(ctx, w, logger, err)
		return
	}
	resp := make([]PhoneNumberResponse, 0, len(numbers))
	for _, n := range numbers {
		resp = append(resp, toPhoneNumberResponse(n))
	}
	writeJSON(w, http.StatusOK, resp)
}
