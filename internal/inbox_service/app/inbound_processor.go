package app

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/aradsms/inbox_services/internal/inbox_service/domain"
)

var (
	digitRunPattern   = regexp.MustCompile(`\d+`)
	otpKeywordPattern = regexp.MustCompile(`(?i)\b(code|otp|pin)\b`)
)

// InboundProcessor stores decoded inbound SMS together with their audit entry.
type InboundProcessor struct {
	messages domain.MessageRepository
	logger   *slog.Logger
	now      func() time.Time
}

func NewInboundProcessor(messages domain.MessageRepository, logger *slog.Logger) *InboundProcessor {
	return &InboundProcessor{
		messages: messages,
		logger:   logger.With("component", "inbound_processor"),
		now:      time.Now,
	}
}

// Run drains events until ctx is cancelled or events is closed. Failures
// are logged and counted; the loop keeps going.
func (p *InboundProcessor) Run(ctx context.Context, events <-chan InboundSMSEvent) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-events:
			if !ok {
				return nil
			}
			if err := p.ProcessMessage(ctx, event); err != nil {
				p.logger.ErrorContext(ctx, "Failed to process inbound SMS", "error", err, "message_sid", event.Data.MessageSID)
			}
		}
	}
}

// ProcessMessage normalizes the destination, extracts an OTP, and persists the
// message with an inbound_sms audit entry in one transaction.
func (p *InboundProcessor) ProcessMessage(ctx context.Context, event InboundSMSEvent) error {
	start := time.Now()
	defer func() {
		inboundSMSProcessingDurationHist.WithLabelValues(event.ProviderName).Observe(time.Since(start).Seconds())
	}()

	toNumber, err := domain.NormalizePhoneNumber(event.Data.To)
	if err != nil {
		inboundSMSProcessedCounter.WithLabelValues(event.ProviderName, "invalid_number").Inc()
		return err
	}
	// Keep the sender as received when it is alphanumeric.
	fromNumber := strings.TrimSpace(event.Data.From)
	if n, err := domain.NormalizePhoneNumber(fromNumber); err == nil && !containsLetter(fromNumber) {
		fromNumber = n
	}

	receivedAt := event.Data.ReceivedAt
	if receivedAt.IsZero() {
		receivedAt = p.now()
	}

	msg := &domain.Message{
		ToNumber:          toNumber,
		FromNumber:        fromNumber,
		Body:              event.Data.Body,
		OTPCode:           ExtractOTP(event.Data.Body),
		ProviderMessageID: event.Data.MessageSID,
		ReceivedAt:        receivedAt.UTC(),
	}
	entry := &domain.AuditLog{
		Action: domain.AuditActionInboundSMS,
		Metadata: map[string]any{
			"provider":            event.ProviderName,
			"provider_message_id": event.Data.MessageSID,
			"to_number":           toNumber,
			"from_number":         fromNumber,
			"has_otp":             msg.OTPCode != nil,
		},
	}

	if err := p.messages.CreateWithAudit(ctx, msg, entry); err != nil {
		inboundSMSProcessedCounter.WithLabelValues(event.ProviderName, "error_db_save").Inc()
		p.logger.ErrorContext(ctx, "Failed to save inbound message",
			"error", err,
			"provider_name", event.ProviderName,
			"provider_message_id", event.Data.MessageSID,
		)
		return err
	}

	inboundSMSProcessedCounter.WithLabelValues(event.ProviderName, "success").Inc()
	p.logger.InfoContext(ctx, "Stored inbound message",
		"message_id", msg.ID,
		"provider_name", event.ProviderName,
		"provider_message_id", event.Data.MessageSID,
		"to_number", toNumber,
	)
	return nil
}

// ExtractOTP returns the first standalone run of 4 to 8 digits in body,
// preferring one that follows the word "code", "otp" or "pin". Digit runs
// glued to letters are ignored.
func ExtractOTP(body string) *string {
	var candidates [][]int
	for _, loc := range digitRunPattern.FindAllStringIndex(body, -1) {
		n := loc[1] - loc[0]
		if n < 4 || n > 8 {
			continue
		}
		if loc[0] > 0 && isLetter(body[loc[0]-1]) {
			continue
		}
		if loc[1] < len(body) && isLetter(body[loc[1]]) {
			continue
		}
		candidates = append(candidates, loc)
	}
	if len(candidates) == 0 {
		return nil
	}

	chosen := candidates[0]
	if kw := otpKeywordPattern.FindStringIndex(body); kw != nil {
		for _, loc := range candidates {
			if loc[0] >= kw[1] {
				chosen = loc
				break
			}
		}
	}
	code := body[chosen[0]:chosen[1]]
	return &code
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func containsLetter(s string) bool {
	for i := 0; i < len(s); i++ {
		if isLetter(s[i]) {
			return true
		}
	}
	return false
}
