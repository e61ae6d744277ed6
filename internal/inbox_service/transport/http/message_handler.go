package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/aradsms/inbox_services/internal/inbox_service/app"
	"github.com/aradsms/inbox_services/internal/inbox_service/domain"
	"github.com/aradsms/inbox_services/internal/inbox_service/middleware"
	"github.com/go-chi/chi/v5"
	chi_middleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
)

// MessageReader is the read and mark-read side of the inbox.
type MessageReader interface {
	ListMessages(ctx context.Context, numberIdentifier string, user *domain.User, limit int) ([]domain.MessageView, error)
	MarkRead(ctx context.Context, messageID int64, isRead bool, user *domain.User) error
}

// Forwarder re-sends a message through the SMS provider.
type Forwarder interface {
	Forward(ctx context.Context, messageID int64, toNumber string, user *domain.User) (*app.ForwardResult, error)
}

type MessageHandler struct {
	reader    MessageReader
	forwarder Forwarder
	validate  *validator.Validate
	logger    *slog.Logger
}

func NewMessageHandler(reader MessageReader, forwarder Forwarder, validate *validator.Validate, logger *slog.Logger) *MessageHandler {
	return &MessageHandler{
		reader:    reader,
		forwarder: forwarder,
		validate:  validate,
		logger:    logger.With("handler", "message"),
	}
}

// RegisterRoutes registers message routes with the given router.
func (h *MessageHandler) RegisterRoutes(r chi.Router) {
	r.Get("/messages/{number}", h.handleListMessages)
	r.Patch("/messages/{messageID}/read", h.handleMarkRead)
	r.Post("/messages/{messageID}/forward", h.handleForward)
}

func (h *MessageHandler) requestLogger(r *http.Request) *slog.Logger {
	return h.logger.With("request_id", chi_middleware.GetReqID(r.Context()))
}

func (h *MessageHandler) handleListMessages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.requestLogger(r)

	user, ok := middleware.UserFromContext(ctx)
	if !ok {
		jsonError(ctx, w, logger, "User not authenticated", "unauthenticated", http.StatusUnauthorized)
		return
	}

	limit, ok := parseLimit(r, app.DefaultMessageListLimit)
	if !ok {
		jsonError(ctx, w, logger, "limit must be an integer", "bad_request", http.StatusBadRequest)
		return
	}

	views, err := h.reader.ListMessages(ctx, chi.URLParam(r, "number"), user, limit)
	if err != nil {
		writeDomainError(ctx, w, logger, err)
		return
	}

	resp := make([]MessageResponse, 0, len(views))
	for _, v := range views {
		resp = append(resp, toMessageResponse(v))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *MessageHandler) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.requestLogger(r)

	user, ok := middleware.UserFromContext(ctx)
	if !ok {
		jsonError(ctx, w, logger, "User not authenticated", "unauthenticated", http.StatusUnauthorized)
		return
	}

	messageID, ok := parseMessageID(r)
	if !ok {
		jsonError(ctx, w, logger, "Invalid message ID", "bad_request", http.StatusBadRequest)
		return
	}

	var req MarkReadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(ctx, w, logger, "Invalid request payload: "+err.Error(), "bad_request", http.StatusBadRequest)
		return
	}
	if err := h.validate.StructCtx(ctx, req); err != nil {
		jsonError(ctx, w, logger, "Validation failed: "+err.Error(), "bad_request", http.StatusBadRequest)
		return
	}

	if err := h.reader.MarkRead(ctx, messageID, *req.IsRead, user); err != nil {
		writeDomainError(ctx, w, logger, err)
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

func (h *MessageHandler) handleForward(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.requestLogger(r)

	user, ok := middleware.UserFromContext(ctx)
	if !ok {
		jsonError(ctx, w, logger, "User not authenticated", "unauthenticated", http.StatusUnauthorized)
		return
	}
	logger = logger.With("auth_user_id", user.ID)

	messageID, ok := parseMessageID(r)
	if !ok {
		jsonError(ctx, w, logger, "Invalid message ID", "bad_request", http.StatusBadRequest)
		return
	}

	var req ForwardMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(ctx, w, logger, "Invalid request payload: "+err.Error(), "bad_request", http.StatusBadRequest)
		return
	}
	if err := h.validate.StructCtx(ctx, req); err != nil {
		jsonError(ctx, w, logger, "Validation failed: "+err.Error(), "bad_request", http.StatusBadRequest)
		return
	}

	result, err := h.forwarder.Forward(ctx, messageID, req.ToNumber, user)
	if err != nil {
		writeDomainError(ctx, w, logger, err)
		return
	}
	logger.InfoContext(ctx, "Forward completed", "message_id", messageID, "provider_message_sid", result.ProviderMessageSID)
	writeJSON(w, http.StatusOK, ForwardMessageResponse{Status: result.Status, ProviderMessageSID: result.ProviderMessageSID})
}

func parseMessageID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "messageID"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// parseLimit reads ?limit=, falling back to def when absent. Range clamping
// is left to the services.
func parseLimit(r *http.Request, def int) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return limit, true
}
