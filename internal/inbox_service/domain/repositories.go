package domain

import (
	"context"

	"github.com/google/uuid"
)

// UserRepository reads operator identities.
// Lookups return (nil, nil) when no user matches.
type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByAPIKeyHash(ctx context.Context, hash string) (*User, error)
}

// PhoneNumberRepository reads provisioned numbers.
type PhoneNumberRepository interface {
	// FindByVariants returns the first number whose stored value is one of
	// variants, or (nil, nil) when none matches.
	FindByVariants(ctx context.Context, variants []string) (*PhoneNumber, error)
	ListAll(ctx context.Context) ([]PhoneNumber, error)
	ListByAssignedUser(ctx context.Context, userID uuid.UUID) ([]PhoneNumber, error)
}

// MessageRepository reads inbound messages and owns the is_read write path.
type MessageRepository interface {
	// GetByID returns (nil, nil) when the message does not exist.
	GetByID(ctx context.Context, id int64) (*Message, error)
	// ListByToNumbers returns messages addressed to any of numbers, newest first.
	ListByToNumbers(ctx context.Context, numbers []string, limit int) ([]Message, error)
	// SetRead updates is_read and returns ErrNotFound if no row changed.
	SetRead(ctx context.Context, id int64, isRead bool) error
	// CreateWithAudit stores msg and entry in one transaction and sets their IDs.
	CreateWithAudit(ctx context.Context, msg *Message, entry *AuditLog) error
}

// AuditLogRepository appends and lists audit entries.
type AuditLogRepository interface {
	// Append persists entry in its own transaction and sets its ID.
	Append(ctx context.Context, entry *AuditLog) error
	ListRecent(ctx context.Context, limit int) ([]AuditLog, error)
	ListRecentByUser(ctx context.Context, userID uuid.UUID, limit int) ([]AuditLog, error)
}
