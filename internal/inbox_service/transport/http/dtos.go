package http

import (
	"time"

	"github.com/aradsms/inbox_services/internal/inbox_service/domain"
	"github.com/google/uuid"
)

// MessageResponse is one entry of GET /messages/{number}.
type MessageResponse struct {
	ID          int64     `json:"id"`
	ToNumber    string    `json:"to_number"`
	FromNumber  string    `json:"from_number"`
	MessageBody string    `json:"message_body"`
	OTPCode     *string   `json:"otp_code"`
	OTPExpired  bool      `json:"otp_expired"`
	IsRead      bool      `json:"is_read"`
	ReceivedAt  time.Time `json:"received_at"`
}

func toMessageResponse(v domain.MessageView) MessageResponse {
	return MessageResponse{
		ID:          v.ID,
		ToNumber:    v.ToNumber,
		FromNumber:  v.FromNumber,
		MessageBody: v.Body,
		OTPCode:     v.OTP.CodePtr(),
		OTPExpired:  v.OTP.Expired(),
		IsRead:      v.IsRead,
		ReceivedAt:  v.ReceivedAt,
	}
}

// MarkReadRequest DTO for PATCH /messages/{messageID}/read
type MarkReadRequest struct {
	IsRead *bool `json:"is_read" validate:"required"`
}

// ForwardMessageRequest DTO for POST /messages/{messageID}/forward.
// ToNumber is checked by the forwarding service after the message and
// ownership checks, so a blank value is a 422 like any other bad number.
type ForwardMessageRequest struct {
	ToNumber string `json:"to_number"`
}

type ForwardMessageResponse struct {
	Status             string `json:"status"`
	ProviderMessageSID string `json:"provider_message_sid"`
}

type StatusResponse struct {
	Status string `json:"status"`
}

type AuditLogResponse struct {
	ID        int64          `json:"id"`
	UserID    *uuid.UUID     `json:"user_id"`
	Action    string         `json:"action"`
	Metadata  map[string]any `json:"metadata"`
	Timestamp time.Time      `json:"timestamp"`
}

func toAuditLogResponse(e domain.AuditLog) AuditLogResponse {
	resp := AuditLogResponse{ID: e.ID, Action: e.Action, Metadata: e.Metadata, Timestamp: e.CreatedAt}
	if e.UserID.Valid {
		id := e.UserID.UUID
		resp.UserID = &id
	}
	if resp.Metadata == nil {
		resp.Metadata = map[string]any{}
	}
	return resp
}

type PhoneNumberResponse struct {
	ID             int64      `json:"id"`
	Number         string     `json:"number"`
	Label          string     `json:"label"`
	AssignedUserID *uuid.UUID `json:"assigned_user_id"`
}

func toPhoneNumberResponse(n domain.PhoneNumber) PhoneNumberResponse {
	resp := PhoneNumberResponse{ID: n.ID, Number: n.Number, Label: n.Label}
	if n.AssignedUserID.Valid {
		id := n.AssignedUserID.UUID
		resp.AssignedUserID = &id
	}
	return resp
}

// GenericErrorResponse for API errors. Status and ProviderMessageSID are set
// only when a forward was sent but could not be audited.
type GenericErrorResponse struct {
	Error              string `json:"error"`
	Code               string `json:"code"`
	Status             string `json:"status,omitempty"`
	ProviderMessageSID string `json:"provider_message_sid,omitempty"`
}

// IncomingSMSRequest DTO for POST /webhook/sms/{provider} with a JSON body.
type IncomingSMSRequest struct {
	From       string     `json:"from" validate:"required"`
	To         string     `json:"to" validate:"required"`
	Body       string     `json:"body"`
	MessageSID string     `json:"message_sid" validate:"required"`
	ReceivedAt *time.Time `json:"received_at,omitempty"`
}
