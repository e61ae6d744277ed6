package http

import (
	"encoding/json"
	"log/slog"
	"mime"
	"net/http"
	"regexp"
	"time"

	"github.com/aradsms/inbox_services/internal/inbox_service/app"
	"github.com/aradsms/inbox_services/internal/inbox_service/domain"
	"github.com/go-chi/chi/v5"
	chi_middleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
)

const maxWebhookBodyBytes = 64 << 10

var providerNamePattern = regexp.MustCompile(`^[a-z0-9_-]{1,32}$`)

// WebhookHandler accepts inbound SMS callbacks from providers and queues
// them for the inbound processor.
type WebhookHandler struct {
	publisher app.EventPublisher
	validate  *validator.Validate
	logger    *slog.Logger
	now       func() time.Time
}

func NewWebhookHandler(publisher app.EventPublisher, validate *validator.Validate, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		publisher: publisher,
		validate:  validate,
		logger:    logger.With("handler", "webhook"),
		now:       time.Now,
	}
}

func (h *WebhookHandler) RegisterRoutes(r chi.Router) {
	r.Post("/webhook/sms/{provider}", h.HandleIncomingSMSCallback)
}

// HandleIncomingSMSCallback accepts Twilio-style form posts (From, To, Body,
// MessageSid) or a JSON IncomingSMSRequest.
func (h *WebhookHandler) HandleIncomingSMSCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.With("request_id", chi_middleware.GetReqID(ctx))

	providerName := chi.URLParam(r, "provider")
	if !providerNamePattern.MatchString(providerName) {
		jsonError(ctx, w, logger, "Unknown provider name", "bad_request", http.StatusBadRequest)
		return
	}
	logger = logger.With("provider_name", providerName)

	r.Body = http.MaxBytesReader(w, r.Body, maxWebhookBodyBytes)
	defer r.Body.Close()

	var req IncomingSMSRequest
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			jsonError(ctx, w, logger, "Invalid JSON format: "+err.Error(), "bad_request", http.StatusBadRequest)
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			jsonError(ctx, w, logger, "Invalid form payload", "bad_request", http.StatusBadRequest)
			return
		}
		req = IncomingSMSRequest{
			From:       r.PostForm.Get("From"),
			To:         r.PostForm.Get("To"),
			Body:       r.PostForm.Get("Body"),
			MessageSID: r.PostForm.Get("MessageSid"),
		}
	}

	if err := h.validate.StructCtx(ctx, req); err != nil {
		jsonError(ctx, w, logger, "Validation failed: "+err.Error(), "bad_request", http.StatusBadRequest)
		return
	}
	if _, err := domain.NormalizePhoneNumber(req.To); err != nil {
		writeDomainError(ctx, w, logger, err)
		return
	}

	event := domain.InboundSMS{
		From:       req.From,
		To:         req.To,
		Body:       req.Body,
		MessageSID: req.MessageSID,
		ReceivedAt: h.now().UTC(),
	}
	if req.ReceivedAt != nil {
		event.ReceivedAt = req.ReceivedAt.UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to marshal inbound SMS", "error", err)
		jsonError(ctx, w, logger, "Internal server error preparing data for queue", "internal_error", http.StatusInternalServerError)
		return
	}

	subject := app.SubjectInboundRawPrefix + providerName
	if err := h.publisher.Publish(ctx, subject, payload); err != nil {
		logger.ErrorContext(ctx, "Failed to publish incoming SMS to NATS", "error", err, "subject", subject)
		jsonError(ctx, w, logger, "Failed to queue incoming SMS for processing", "queue_unavailable", http.StatusServiceUnavailable)
		return
	}

	logger.InfoContext(ctx, "Incoming SMS queued", "subject", subject, "message_sid", req.MessageSID)
	writeJSON(w, http.StatusAccepted, StatusResponse{Status: "queued"})
}
