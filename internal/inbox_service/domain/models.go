package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// RoleAdmin is the role that may see and act on every number.
const RoleAdmin = "admin"

// Audit actions written by the inbox services.
const (
	AuditActionForwardMessage = "forward_message"
	AuditActionInboundSMS     = "inbound_sms"
)

// User is an operator identity. It is read-only to the inbox services.
type User struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Role     string    `json:"role"`
	IsActive bool      `json:"is_active"`
}

// IsAdmin matches the admin role case-insensitively.
func (u *User) IsAdmin() bool {
	return u != nil && strings.EqualFold(strings.TrimSpace(u.Role), RoleAdmin)
}

// PhoneNumber is a provisioned number, optionally assigned to one user.
type PhoneNumber struct {
	ID             int64         `json:"id"`
	Number         string        `json:"number"`
	Label          string        `json:"label"`
	AssignedUserID uuid.NullUUID `json:"assigned_user_id"`
}

// Message is an inbound SMS. Only IsRead changes after it is stored.
type Message struct {
	ID                int64
	ToNumber          string
	FromNumber        string
	Body              string
	OTPCode           *string
	ProviderMessageID string
	IsRead            bool
	ReceivedAt        time.Time
}

// MessageView is a Message as shown to a viewer at a point in time.
type MessageView struct {
	ID         int64
	ToNumber   string
	FromNumber string
	Body       string
	OTP        OTP
	IsRead     bool
	ReceivedAt time.Time
}

// AuditLog is an append-only record of an action. UserID is null for
// system-initiated entries such as inbound messages.
type AuditLog struct {
	ID        int64          `json:"id"`
	UserID    uuid.NullUUID  `json:"user_id"`
	Action    string         `json:"action"`
	Metadata  map[string]any `json:"metadata"`
	CreatedAt time.Time      `json:"timestamp"`
}
