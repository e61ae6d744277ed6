package domain

import "time"

// InboundSMS is a provider-neutral inbound message as carried on the broker
// between the webhook and the inbound processor.
type InboundSMS struct {
	From       string    `json:"from" validate:"required"`
	To         string    `json:"to" validate:"required"`
	Body       string    `json:"body"`
	MessageSID string    `json:"message_sid" validate:"required"`
	ReceivedAt time.Time `json:"received_at"`
}
