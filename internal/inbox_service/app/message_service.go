package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aradsms/inbox_services/internal/inbox_service/domain"
)

const (
	DefaultMessageListLimit = 200
	DefaultAuditListLimit   = 500
	MaxListLimit            = 1000
)

// ClampLimit bounds a caller-supplied page size to [1, MaxListLimit].
func ClampLimit(limit int) int {
	if limit < 1 {
		return 1
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}

// MessageService serves the inbox read path and the read-flag toggle.
type MessageService struct {
	messages domain.MessageRepository
	numbers  domain.PhoneNumberRepository
	policy   VisibilityPolicy
	logger   *slog.Logger
}

func NewMessageService(
	messages domain.MessageRepository,
	numbers domain.PhoneNumberRepository,
	policy VisibilityPolicy,
	logger *slog.Logger,
) *MessageService {
	return &MessageService{
		messages: messages,
		numbers:  numbers,
		policy:   policy,
		logger:   logger.With("component", "message_service"),
	}
}

// ListMessages returns the newest messages addressed to numberIdentifier with
// OTPs redacted once their window has passed.
func (s *MessageService) ListMessages(ctx context.Context, numberIdentifier string, user *domain.User, limit int) ([]domain.MessageView, error) {
	if user == nil {
		return nil, domain.ErrUnauthenticated
	}
	number, variants, err := resolveOwningNumber(ctx, s.numbers, numberIdentifier)
	if err != nil {
		return nil, err
	}
	if !CanView(user, number) {
		s.logger.WarnContext(ctx, "Denied message listing", "user_id", user.ID, "number", variants[0])
		return nil, domain.ErrForbidden
	}

	msgs, err := s.messages.ListByToNumbers(ctx, variants, ClampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	views := make([]domain.MessageView, 0, len(msgs))
	for _, m := range msgs {
		views = append(views, s.policy.Project(m))
	}
	return views, nil
}

// MarkRead sets the read flag of one message. It is the only writer of is_read.
func (s *MessageService) MarkRead(ctx context.Context, messageID int64, isRead bool, user *domain.User) error {
	if user == nil {
		return domain.ErrUnauthenticated
	}
	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return fmt.Errorf("get message: %w", err)
	}
	if msg == nil {
		return domain.ErrNotFound
	}

	number, err := resolveMessageOwner(ctx, s.numbers, msg.ToNumber)
	if err != nil {
		return err
	}
	if !CanView(user, number) {
		s.logger.WarnContext(ctx, "Denied mark-read", "user_id", user.ID, "message_id", messageID)
		return domain.ErrForbidden
	}

	if err := s.messages.SetRead(ctx, messageID, isRead); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Message read state updated", "message_id", messageID, "is_read", isRead, "user_id", user.ID)
	return nil
}
