package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aradsms/inbox_services/internal/inbox_service/domain"
	"github.com/aradsms/inbox_services/internal/inbox_service/provider"
	"github.com/google/uuid"
)

const (
	ForwardStatusSent = "sent"

	// SubjectMessageForwarded carries a MessageForwardedEvent after each audited forward.
	SubjectMessageForwarded = "inbox.message.forwarded"

	emptyMessagePlaceholder = "(empty message)"
)

// EventPublisher is the outbound side of the message broker.
type EventPublisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// ForwardingConfig holds sender settings for forwarded messages.
type ForwardingConfig struct {
	// MessagingServiceSID, when set, is used instead of a from number.
	MessagingServiceSID string
}

type ForwardResult struct {
	Status             string
	ProviderMessageSID string
}

// MessageForwardedEvent is published on SubjectMessageForwarded.
type MessageForwardedEvent struct {
	MessageID          int64     `json:"message_id"`
	UserID             uuid.UUID `json:"user_id"`
	ToNumber           string    `json:"to_number"`
	FromNumber         string    `json:"from_number,omitempty"`
	ProviderMessageSID string    `json:"provider_message_sid"`
	ForwardedAt        time.Time `json:"forwarded_at"`
}

// ForwardingService re-sends an inbound message to another number through the
// SMS provider and records the action in the audit log.
type ForwardingService struct {
	messages  domain.MessageRepository
	numbers   domain.PhoneNumberRepository
	audits    domain.AuditLogRepository
	sender    provider.Sender
	cfg       ForwardingConfig
	publisher EventPublisher
	logger    *slog.Logger
}

// NewForwardingService wires the forward flow. publisher may be nil.
func NewForwardingService(
	messages domain.MessageRepository,
	numbers domain.PhoneNumberRepository,
	audits domain.AuditLogRepository,
	sender provider.Sender,
	cfg ForwardingConfig,
	publisher EventPublisher,
	logger *slog.Logger,
) *ForwardingService {
	return &ForwardingService{
		messages:  messages,
		numbers:   numbers,
		audits:    audits,
		sender:    sender,
		cfg:       cfg,
		publisher: publisher,
		logger:    logger.With("component", "forwarding_service"),
	}
}

// Forward sends message messageID to toNumber on behalf of user.
//
// The provider is called at most once. If the send succeeds but the audit
// entry cannot be written, the returned error is a *domain.AuditWriteError
// carrying the provider SID: the message has already left.
func (s *ForwardingService) Forward(ctx context.Context, messageID int64, toNumber string, user *domain.User) (*ForwardResult, error) {
	start := time.Now()
	result, err := s.forward(ctx, messageID, toNumber, user)
	forwardDurationHist.Observe(time.Since(start).Seconds())
	forwardsCounter.WithLabelValues(forwardOutcome(err)).Inc()
	return result, err
}

func (s *ForwardingService) forward(ctx context.Context, messageID int64, toNumber string, user *domain.User) (*ForwardResult, error) {
	if user == nil {
		return nil, domain.ErrUnauthenticated
	}

	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return nil, fmt.Errorf("get message: %w", err)
	}
	if msg == nil {
		return nil, domain.ErrNotFound
	}

	number, err := resolveMessageOwner(ctx, s.numbers, msg.ToNumber)
	if err != nil {
		return nil, err
	}
	if !CanView(user, number) {
		s.logger.WarnContext(ctx, "Denied forward", "user_id", user.ID, "message_id", messageID)
		return nil, domain.ErrForbidden
	}

	destination, err := domain.NormalizePhoneNumber(toNumber)
	if err != nil {
		return nil, domain.ErrInvalidDestination
	}

	if s.sender == nil || !s.sender.Configured() {
		s.logger.ErrorContext(ctx, "SMS provider credentials are missing; cannot forward", "message_id", messageID)
		return nil, domain.ErrProviderNotConfigured
	}

	req := provider.SendRequest{
		To:                  destination,
		Body:                ForwardBody(msg),
		MessagingServiceSID: strings.TrimSpace(s.cfg.MessagingServiceSID),
	}
	inboxNumber, normErr := domain.NormalizePhoneNumber(msg.ToNumber)
	if normErr == nil {
		req.From = inboxNumber
	}
	if req.MessagingServiceSID == "" && req.From == "" {
		return nil, domain.ErrCannotDetermineSender
	}

	sent, err := s.sender.Send(ctx, req)
	if err != nil {
		s.logger.ErrorContext(ctx, "Forward send failed", "message_id", messageID, "provider", s.sender.GetName(), "error", err)
		return nil, classifyProviderError(err)
	}

	s.logger.InfoContext(ctx, "Message forwarded",
		"message_id", messageID,
		"user_id", user.ID,
		"to_number", destination,
		"provider_message_sid", sent.SID,
	)

	entry := &domain.AuditLog{
		UserID: uuid.NullUUID{UUID: user.ID, Valid: true},
		Action: domain.AuditActionForwardMessage,
		Metadata: map[string]any{
			"message_id":           messageID,
			"to_number":            destination,
			"from_number":          req.From,
			"provider_message_sid": sent.SID,
		},
	}
	if err := s.audits.Append(ctx, entry); err != nil {
		s.logger.ErrorContext(ctx, "Forward sent but audit write failed",
			"message_id", messageID, "provider_message_sid", sent.SID, "error", err)
		return nil, &domain.AuditWriteError{ProviderMessageSID: sent.SID, Err: err}
	}

	s.publishForwarded(ctx, MessageForwardedEvent{
		MessageID:          messageID,
		UserID:             user.ID,
		ToNumber:           destination,
		FromNumber:         req.From,
		ProviderMessageSID: sent.SID,
		ForwardedAt:        entry.CreatedAt,
	})

	return &ForwardResult{Status: ForwardStatusSent, ProviderMessageSID: sent.SID}, nil
}

// ForwardBody builds the outbound text for a forwarded message.
func ForwardBody(msg *domain.Message) string {
	body := strings.TrimSpace(msg.Body)
	if body == "" {
		body = emptyMessagePlaceholder
	}
	if sender, err := domain.NormalizePhoneNumber(msg.FromNumber); err == nil {
		return "FWD from " + sender + ": " + body
	}
	return "FWD: " + body
}

// classifyProviderError keeps provider sentinels and treats anything else,
// including deadline errors, as the provider being unreachable.
func classifyProviderError(err error) error {
	switch {
	case errors.Is(err, domain.ErrProviderSendFailed),
		errors.Is(err, domain.ErrProviderUnreachable),
		errors.Is(err, domain.ErrProviderNotConfigured):
		return err
	default:
		return fmt.Errorf("%w: %w", domain.ErrProviderUnreachable, err)
	}
}

func (s *ForwardingService) publishForwarded(ctx context.Context, event MessageForwardedEvent) {
	if s.publisher == nil {
		return
	}
	if event.ForwardedAt.IsZero() {
		event.ForwardedAt = time.Now().UTC()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to marshal forwarded event", "message_id", event.MessageID, "error", err)
		return
	}
	if err := s.publisher.Publish(ctx, SubjectMessageForwarded, payload); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish forwarded event", "message_id", event.MessageID, "error", err)
	}
}

func forwardOutcome(err error) string {
	switch {
	case err == nil:
		return "sent"
	case errors.Is(err, domain.ErrAuditWriteFailed):
		return "audit_failed"
	case errors.Is(err, domain.ErrForbidden):
		return "forbidden"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrInvalidDestination):
		return "invalid_destination"
	case errors.Is(err, domain.ErrProviderSendFailed), errors.Is(err, domain.ErrProviderUnreachable):
		return "provider_error"
	default:
		return "error"
	}
}
