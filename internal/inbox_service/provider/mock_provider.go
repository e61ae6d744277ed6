package provider

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aradsms/inbox_services/internal/inbox_service/domain"
	"github.com/google/uuid"
)

// MockSMSProvider accepts every message without contacting anyone. It is used
// in local development when no Twilio credentials are configured.
type MockSMSProvider struct {
	logger         *slog.Logger
	FailSend       bool
	SimulatedDelay time.Duration
}

func NewMockSMSProvider(logger *slog.Logger, failSend bool, delay time.Duration) *MockSMSProvider {
	return &MockSMSProvider{
		logger:         logger.With("provider", "mock"),
		FailSend:       failSend,
		SimulatedDelay: delay,
	}
}

func (p *MockSMSProvider) Send(ctx context.Context, req SendRequest) (*SendResult, error) {
	p.logger.InfoContext(ctx, "MockSMSProvider: Send called", "to", req.To, "from", req.From, "body_length", len(req.Body))

	if p.SimulatedDelay > 0 {
		select {
		case <-time.After(p.SimulatedDelay):
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", domain.ErrProviderUnreachable, ctx.Err())
		}
	}

	if p.FailSend {
		return nil, fmt.Errorf("%w: mock provider simulated send failure", domain.ErrProviderSendFailed)
	}

	sid := "SM" + uuid.NewString()
	p.logger.InfoContext(ctx, "MockSMSProvider: message accepted (simulated)", "provider_message_sid", sid)
	return &SendResult{SID: sid, Status: "queued"}, nil
}

func (p *MockSMSProvider) Configured() bool { return true }

func (p *MockSMSProvider) GetName() string { return "mock" }
