package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/aradsms/inbox_services/internal/inbox_service/domain"
)

type errorMapping struct {
	target  error
	status  int
	code    string
	message string
}

// Order matters: an audit failure also wraps a storage error and must win.
var errorMappings = []errorMapping{
	{domain.ErrAuditWriteFailed, http.StatusInternalServerError, "audit_write_failed", "Message was sent but the audit entry could not be saved"},
	{domain.ErrInvalidNumber, http.StatusUnprocessableEntity, "invalid_number", "Invalid phone number"},
	{domain.ErrNotFound, http.StatusNotFound, "not_found", "Message not found"},
	{domain.ErrForbidden, http.StatusForbidden, "forbidden", "Not authorized"},
	{domain.ErrUnauthenticated, http.StatusUnauthorized, "unauthenticated", "Authentication required"},
	{domain.ErrInvalidDestination, http.StatusUnprocessableEntity, "invalid_destination", "Invalid destination number"},
	{domain.ErrProviderNotConfigured, http.StatusInternalServerError, "provider_not_configured", "SMS sending is not configured"},
	{domain.ErrCannotDetermineSender, http.StatusInternalServerError, "cannot_determine_sender", "Cannot determine from_number for forwarding"},
	{domain.ErrProviderSendFailed, http.StatusBadGateway, "provider_send_failed", ""},
	{domain.ErrProviderUnreachable, http.StatusBadGateway, "provider_unreachable", "SMS provider unreachable"},
	{domain.ErrStorageUnavailable, http.StatusServiceUnavailable, "storage_unavailable", "Storage temporarily unavailable"},
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func jsonError(ctx context.Context, w http.ResponseWriter, logger *slog.Logger, message, code string, statusCode int) {
	logger.WarnContext(ctx, "API Error Response", "status_code", statusCode, "code", code, "message", message)
	writeJSON(w, statusCode, GenericErrorResponse{Error: message, Code: code})
}

// writeDomainError maps err onto the HTTP error contract. Unknown errors
// become a generic 500 with no internal detail.
func writeDomainError(ctx context.Context, w http.ResponseWriter, logger *slog.Logger, err error) {
	for _, m := range errorMappings {
		if !errors.Is(err, m.target) {
			continue
		}
		resp := GenericErrorResponse{Error: m.message, Code: m.code}
		switch {
		case m.target == domain.ErrProviderSendFailed:
			// Carries the provider's reason, e.g. an invalid destination.
			resp.Error = err.Error()
		case m.target == domain.ErrAuditWriteFailed:
			resp.Status = "sent"
			var auditErr *domain.AuditWriteError
			if errors.As(err, &auditErr) {
				resp.ProviderMessageSID = auditErr.ProviderMessageSID
			}
		}
		if m.status >= http.StatusInternalServerError {
			logger.ErrorContext(ctx, "Request failed", "status_code", m.status, "code", m.code, "error", err)
		} else {
			logger.WarnContext(ctx, "Request rejected", "status_code", m.status, "code", m.code, "error", err)
		}
		writeJSON(w, m.status, resp)
		return
	}

	logger.ErrorContext(ctx, "Unhandled error", "error", err)
	writeJSON(w, http.StatusInternalServerError, GenericErrorResponse{Error: "Internal server error", Code: "internal_error"})
}
