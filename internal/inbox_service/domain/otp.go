package domain

// OTPState tags what a viewer may learn about a message's one-time passcode.
type OTPState int

const (
	// OTPNone means no code was extracted and the visibility window is still open.
	OTPNone OTPState = iota
	// OTPVisible means the code is exposed.
	OTPVisible
	// OTPRedacted means the visibility window has elapsed.
	OTPRedacted
)

func (s OTPState) String() string {
	switch s {
	case OTPVisible:
		return "visible"
	case OTPRedacted:
		return "redacted"
	default:
		return "none"
	}
}

// OTP is the read-time projection of Message.OTPCode. Code is set only when
// State is OTPVisible.
type OTP struct {
	State OTPState
	Code  string
}

// ProjectOTP applies a visibility decision to a stored code. Stored data is
// never modified; redaction happens only in the returned value.
func ProjectOTP(code *string, visible bool) OTP {
	if !visible {
		return OTP{State: OTPRedacted}
	}
	if code == nil || *code == "" {
		return OTP{State: OTPNone}
	}
	return OTP{State: OTPVisible, Code: *code}
}

// CodePtr returns the exposed code or nil.
func (o OTP) CodePtr() *string {
	if o.State != OTPVisible {
		return nil
	}
	c := o.Code
	return &c
}

// Expired reports whether the code was withheld because the window elapsed.
func (o OTP) Expired() bool {
	return o.State == OTPRedacted
}
