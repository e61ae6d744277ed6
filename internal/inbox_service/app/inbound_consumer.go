package app

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/aradsms/inbox_services/internal/inbox_service/domain"
	"github.com/nats-io/nats.go"
)

const (
	// SubjectInboundRawPrefix is followed by the provider name, for example
	// "sms.incoming.raw.twilio".
	SubjectInboundRawPrefix = "sms.incoming.raw."
	SubjectInboundRawAll    = SubjectInboundRawPrefix + "*"

	channelSendTimeout = 5 * time.Second
)

// Subscriber is the inbound side of the message broker.
type Subscriber interface {
	Subscribe(ctx context.Context, subject, queueGroup string, handler nats.MsgHandler) (*nats.Subscription, error)
}

// InboundSMSEvent is a decoded inbound message and the provider that sent it.
type InboundSMSEvent struct {
	ProviderName string
	Data         domain.InboundSMS
}

// InboundConsumer decodes raw inbound SMS from the broker and hands them to
// the processing stage over outputChan.
type InboundConsumer struct {
	subscriber Subscriber
	logger     *slog.Logger
	outputChan chan<- InboundSMSEvent
}

func NewInboundConsumer(subscriber Subscriber, logger *slog.Logger, outputChan chan<- InboundSMSEvent) *InboundConsumer {
	return &InboundConsumer{
		subscriber: subscriber,
		logger:     logger.With("component", "inbound_consumer"),
		outputChan: outputChan,
	}
}

// StartConsuming subscribes to subject within queueGroup and blocks until ctx
// is cancelled.
func (c *InboundConsumer) StartConsuming(ctx context.Context, subject, queueGroup string) error {
	c.logger.InfoContext(ctx, "Starting NATS subscription", "subject", subject, "queue_group", queueGroup)
	_, err := c.subscriber.Subscribe(ctx, subject, queueGroup, func(msg *nats.Msg) {
		c.handleMessage(ctx, subject, msg)
	})
	if err != nil {
		c.logger.ErrorContext(ctx, "NATS subscription failed", "error", err, "subject", subject)
		return err
	}

	<-ctx.Done()
	c.logger.InfoContext(ctx, "NATS subscription ended", "subject", subject)
	return nil
}

func (c *InboundConsumer) handleMessage(ctx context.Context, subjectPattern string, msg *nats.Msg) {
	natsInboundSMSReceivedCounter.WithLabelValues(subjectPattern).Inc()

	providerName, ok := providerFromSubject(msg.Subject)
	if !ok {
		c.logger.ErrorContext(ctx, "Invalid NATS subject format for incoming SMS", "subject", msg.Subject)
		return
	}

	var data domain.InboundSMS
	if err := json.Unmarshal(msg.Data, &data); err != nil {
		c.logger.ErrorContext(ctx, "Failed to decode inbound SMS", "error", err, "subject", msg.Subject)
		return
	}

	sendCtx, cancel := context.WithTimeout(ctx, channelSendTimeout)
	defer cancel()

	select {
	case c.outputChan <- InboundSMSEvent{ProviderName: providerName, Data: data}:
		c.logger.DebugContext(ctx, "Queued inbound SMS", "provider_name", providerName, "message_sid", data.MessageSID)
	case <-sendCtx.Done():
		c.logger.ErrorContext(ctx, "Timed out queueing inbound SMS", "error", sendCtx.Err(), "provider_name", providerName, "message_sid", data.MessageSID)
	}
}

// providerFromSubject extracts "twilio" from "sms.incoming.raw.twilio".
func providerFromSubject(subject string) (string, bool) {
	name, found := strings.CutPrefix(subject, SubjectInboundRawPrefix)
	if !found || name == "" || name == "*" || name == ">" || strings.Contains(name, ".") {
		return "", false
	}
	return name, true
}
