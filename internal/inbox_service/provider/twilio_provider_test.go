package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aradsms/inbox_services/internal/inbox_service/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestTwilioSMSProvider_GetNameAndConfigured(t *testing.T) {
	p := NewTwilioSMSProvider(testLogger(), TwilioConfig{AccountSID: "AC1", AuthToken: "tok"}, nil)
	assert.Equal(t, "twilio", p.GetName())
	assert.True(t, p.Configured())

	assert.False(t, NewTwilioSMSProvider(testLogger(), TwilioConfig{AccountSID: "AC1"}, nil).Configured())
	assert.False(t, NewTwilioSMSProvider(testLogger(), TwilioConfig{AuthToken: "tok"}, nil).Configured())
}

func TestTwilioSMSProvider_Send_NotConfigured(t *testing.T) {
	p := NewTwilioSMSProvider(testLogger(), TwilioConfig{}, nil)
	_, err := p.Send(context.Background(), SendRequest{To: "+15550000001", Body: "hi", From: "+15550000002"})
	assert.ErrorIs(t, err, domain.ErrProviderNotConfigured)
}

func TestTwilioSMSProvider_Send_SuccessWithFrom(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/2010-04-01/Accounts/AC123/Messages.json", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "AC123", user)
		assert.Equal(t, "secret-token", pass)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "+15550000001", r.PostForm.Get("To"))
		assert.Equal(t, "FWD: hello", r.PostForm.Get("Body"))
		assert.Equal(t, "+15550000002", r.PostForm.Get("From"))
		assert.Empty(t, r.PostForm.Get("MessagingServiceSid"))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]string{"sid": "SM0001", "status": "queued"})
	}))
	defer server.Close()

	p := NewTwilioSMSProvider(testLogger(), TwilioConfig{AccountSID: "AC123", AuthToken: "secret-token", BaseURL: server.URL + "/"}, server.Client())
	res, err := p.Send(context.Background(), SendRequest{To: "+15550000001", Body: "FWD: hello", From: "+15550000002"})

	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, "SM0001", res.SID)
	assert.Equal(t, "queued", res.Status)
}

func TestTwilioSMSProvider_Send_PrefersMessagingService(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "MG999", r.PostForm.Get("MessagingServiceSid"))
		assert.Empty(t, r.PostForm.Get("From"))
		w.WriteHeader(http.StatusCreated)
		_, _ = fmt.Fprint(w, `{"sid":"SM0002","status":"accepted"}`)
	}))
	defer server.Close()

	p := NewTwilioSMSProvider(testLogger(), TwilioConfig{AccountSID: "AC123", AuthToken: "t", BaseURL: server.URL}, server.Client())
	res, err := p.Send(context.Background(), SendRequest{To: "+15550000001", Body: "x", From: "+15550000002", MessagingServiceSID: "MG999"})

	require.NoError(t, err)
	assert.Equal(t, "SM0002", res.SID)
}

func TestTwilioSMSProvider_Send_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(twilioErrorResponse{
			Code:    21211,
			Message: "The 'To' number +1555 is not a valid phone number.",
			Status:  400,
		})
	}))
	defer server.Close()

	p := NewTwilioSMSProvider(testLogger(), TwilioConfig{AccountSID: "AC123", AuthToken: "t", BaseURL: server.URL}, server.Client())
	res, err := p.Send(context.Background(), SendRequest{To: "+1555", Body: "x", From: "+15550000002"})

	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, domain.ErrProviderSendFailed)
	assert.Contains(t, err.Error(), "is not a valid phone number")
	assert.Contains(t, err.Error(), "21211")
}

func TestTwilioSMSProvider_Send_NonJSONError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = fmt.Fprint(w, "upstream overloaded")
	}))
	defer server.Close()

	p := NewTwilioSMSProvider(testLogger(), TwilioConfig{AccountSID: "AC123", AuthToken: "t", BaseURL: server.URL}, server.Client())
	_, err := p.Send(context.Background(), SendRequest{To: "+15550000001", Body: "x", From: "+15550000002"})

	assert.ErrorIs(t, err, domain.ErrProviderSendFailed)
	assert.Contains(t, err.Error(), "status 503: upstream overloaded")
}

func TestTwilioSMSProvider_Send_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	p := NewTwilioSMSProvider(testLogger(), TwilioConfig{AccountSID: "AC123", AuthToken: "t", BaseURL: server.URL}, nil)
	res, err := p.Send(context.Background(), SendRequest{To: "+15550000001", Body: "x", From: "+15550000002"})

	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, domain.ErrProviderUnreachable)
	assert.NotErrorIs(t, err, domain.ErrProviderSendFailed)
}

func TestTwilioSMSProvider_Send_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer server.Close()

	p := NewTwilioSMSProvider(testLogger(), TwilioConfig{AccountSID: "AC123", AuthToken: "t", BaseURL: server.URL, Timeout: 50 * time.Millisecond}, nil)
	_, err := p.Send(context.Background(), SendRequest{To: "+15550000001", Body: "x", From: "+15550000002"})

	assert.ErrorIs(t, err, domain.ErrProviderUnreachable)
}

func TestMockSMSProvider_Send(t *testing.T) {
	ok := NewMockSMSProvider(testLogger(), false, 0)
	res, err := ok.Send(context.Background(), SendRequest{To: "+1", Body: "x"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.SID)
	assert.True(t, ok.Configured())

	failing := NewMockSMSProvider(testLogger(), true, 0)
	_, err = failing.Send(context.Background(), SendRequest{To: "+1", Body: "x"})
	assert.ErrorIs(t, err, domain.ErrProviderSendFailed)
}
