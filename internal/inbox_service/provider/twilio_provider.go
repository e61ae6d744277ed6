package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aradsms/inbox_services/internal/inbox_service/domain"
)

const defaultTwilioBaseURL = "https://api.twilio.com"

// TwilioConfig carries the credentials and endpoint for the Twilio REST API.
type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	BaseURL    string
	Timeout    time.Duration
}

// TwilioSMSProvider sends SMS through Twilio's Messages resource.
type TwilioSMSProvider struct {
	logger     *slog.Logger
	httpClient *http.Client
	accountSID string
	authToken  string
	baseURL    string
}

func NewTwilioSMSProvider(logger *slog.Logger, cfg TwilioConfig, httpClient *http.Client) *TwilioSMSProvider {
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultTwilioBaseURL
	}
	return &TwilioSMSProvider{
		logger:     logger.With("provider", "twilio"),
		httpClient: httpClient,
		accountSID: strings.TrimSpace(cfg.AccountSID),
		authToken:  strings.TrimSpace(cfg.AuthToken),
		baseURL:    baseURL,
	}
}

// twilioMessageResponse is the subset of the Message resource we read.
type twilioMessageResponse struct {
	SID    string `json:"sid"`
	Status string `json:"status"`
}

// twilioErrorResponse is Twilio's error envelope.
type twilioErrorResponse struct {
	Code     int    `json:"code"`
	Message  string `json:"message"`
	MoreInfo string `json:"more_info"`
	Status   int    `json:"status"`
}

func (p *TwilioSMSProvider) Configured() bool {
	return p.accountSID != "" && p.authToken != ""
}

func (p *TwilioSMSProvider) GetName() string {
	return "twilio"
}

func (p *TwilioSMSProvider) Send(ctx context.Context, req SendRequest) (*SendResult, error) {
	if !p.Configured() {
		return nil, domain.ErrProviderNotConfigured
	}
	start := time.Now()
	outcome := "error"
	defer func() {
		providerRequestDurationHist.WithLabelValues(p.GetName(), outcome).Observe(time.Since(start).Seconds())
	}()

	form := url.Values{}
	form.Set("To", req.To)
	form.Set("Body", req.Body)
	if req.MessagingServiceSID != "" {
		form.Set("MessagingServiceSid", req.MessagingServiceSID)
	} else {
		form.Set("From", req.From)
	}

	endpoint := p.baseURL + "/2010-04-01/Accounts/" + url.PathEscape(p.accountSID) + "/Messages.json"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("%w: building request: %v", domain.ErrProviderUnreachable, err)
	}
	httpReq.SetBasicAuth(p.accountSID, p.authToken)
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Accept", "application/json")

	p.logger.DebugContext(ctx, "Sending message to Twilio", "to", req.To, "body_length", len(req.Body),
		"uses_messaging_service", req.MessagingServiceSID != "")

	httpResp, err := p.httpClient.Do(httpReq)
	if err != nil {
		p.logger.ErrorContext(ctx, "Twilio request failed", "error", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderUnreachable, err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, 1<<20))
	if err != nil {
		p.logger.ErrorContext(ctx, "Failed to read Twilio response body", "status_code", httpResp.StatusCode, "error", err)
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, fmt.Errorf("%w: %v", domain.ErrProviderUnreachable, err)
		}
		if httpResp.StatusCode >= 200 && httpResp.StatusCode < 300 {
			// Accepted, but the SID is unknown.
			outcome = "sent"
			return &SendResult{}, nil
		}
		return nil, fmt.Errorf("%w: status %d", domain.ErrProviderSendFailed, httpResp.StatusCode)
	}

	if httpResp.StatusCode >= 200 && httpResp.StatusCode < 300 {
		var msg twilioMessageResponse
		if err := json.Unmarshal(respBody, &msg); err != nil {
			p.logger.WarnContext(ctx, "Twilio accepted message but response was not parseable", "status_code", httpResp.StatusCode, "error", err)
		}
		outcome = "sent"
		p.logger.InfoContext(ctx, "Twilio accepted message", "status_code", httpResp.StatusCode, "provider_message_sid", msg.SID, "status", msg.Status)
		return &SendResult{SID: msg.SID, Status: msg.Status}, nil
	}

	outcome = "rejected"
	reason := fmt.Sprintf("status %d", httpResp.StatusCode)
	var apiErr twilioErrorResponse
	if err := json.Unmarshal(respBody, &apiErr); err == nil && apiErr.Message != "" {
		reason = strings.TrimSpace(apiErr.Message)
		if apiErr.Code != 0 {
			reason = fmt.Sprintf("%s (code %d)", reason, apiErr.Code)
		}
	} else if len(respBody) > 0 && len(respBody) < 200 {
		reason = fmt.Sprintf("status %d: %s", httpResp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	p.logger.WarnContext(ctx, "Twilio rejected message", "status_code", httpResp.StatusCode, "reason", reason)
	return nil, fmt.Errorf("%w: %s", domain.ErrProviderSendFailed, reason)
}
