package provider

import "context"

// SendRequest is one outbound SMS. Exactly one of From or MessagingServiceSID
// should be set; MessagingServiceSID wins when both are.
type SendRequest struct {
	To                  string
	Body                string
	From                string
	MessagingServiceSID string
}

// SendResult is the provider's acknowledgement of an accepted message.
type SendResult struct {
	SID    string
	Status string
}

// Sender sends SMS through an external provider.
//
// Send returns an error wrapping domain.ErrProviderSendFailed when the provider
// rejected the message and domain.ErrProviderUnreachable when it could not be
// reached at all.
type Sender interface {
	Send(ctx context.Context, req SendRequest) (*SendResult, error)
	// Configured reports whether credentials are present.
	Configured() bool
	GetName() string
}
