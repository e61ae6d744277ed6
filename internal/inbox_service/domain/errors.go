package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidNumber         = errors.New("invalid phone number")
	ErrNotFound              = errors.New("resource not found")
	ErrForbidden             = errors.New("not authorized")
	ErrUnauthenticated       = errors.New("unauthenticated")
	ErrInvalidDestination    = errors.New("invalid destination number")
	ErrProviderNotConfigured = errors.New("sms provider is not configured")
	ErrCannotDetermineSender = errors.New("cannot determine sender for forwarding")
	ErrProviderSendFailed    = errors.New("sms provider send failed")
	ErrProviderUnreachable   = errors.New("sms provider unreachable")
	ErrAuditWriteFailed      = errors.New("audit write failed after message was sent")
	ErrStorageUnavailable    = errors.New("storage unavailable")
)

// AuditWriteError reports that a forward reached the provider but its audit
// entry could not be persisted. The message was sent.
type AuditWriteError struct {
	ProviderMessageSID string
	Err                error
}

func (e *AuditWriteError) Error() string {
	return fmt.Sprintf("%s (provider_message_sid=%s): %v", ErrAuditWriteFailed, e.ProviderMessageSID, e.Err)
}

func (e *AuditWriteError) Is(target error) bool {
	return target == ErrAuditWriteFailed
}

func (e *AuditWriteError) Unwrap() error {
	return e.Err
}
