package app

import (
	"time"

	"github.com/aradsms/inbox_services/internal/inbox_service/domain"
)

const DefaultOTPVisibilityWindow = 5 * time.Minute

// VisibilityPolicy decides whether a message's OTP may still be shown.
// Now is injectable for tests and defaults to time.Now.
type VisibilityPolicy struct {
	Window time.Duration
	Now    func() time.Time
}

func NewVisibilityPolicy(window time.Duration) VisibilityPolicy {
	if window <= 0 {
		window = DefaultOTPVisibilityWindow
	}
	return VisibilityPolicy{Window: window, Now: time.Now}
}

// IsOTPVisible reports whether now falls within Window of receivedAt.
// A receivedAt in the future counts as visible.
func (p VisibilityPolicy) IsOTPVisible(receivedAt time.Time) bool {
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	return now().Sub(receivedAt) <= p.Window
}

// Project builds the viewer-facing copy of m. m itself is left untouched.
func (p VisibilityPolicy) Project(m domain.Message) domain.MessageView {
	return domain.MessageView{
		ID:         m.ID,
		ToNumber:   m.ToNumber,
		FromNumber: m.FromNumber,
		Body:       m.Body,
		OTP:        domain.ProjectOTP(m.OTPCode, p.IsOTPVisible(m.ReceivedAt)),
		IsRead:     m.IsRead,
		ReceivedAt: m.ReceivedAt,
	}
}
