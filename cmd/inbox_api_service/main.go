package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aradsms/inbox_services/internal/inbox_service/app"
	"github.com/aradsms/inbox_services/internal/inbox_service/provider"
	"github.com/aradsms/inbox_services/internal/inbox_service/repository/postgres"
	httptransport "github.com/aradsms/inbox_services/internal/inbox_service/transport/http"
	"github.com/aradsms/inbox_services/internal/platform/config"
	"github.com/aradsms/inbox_services/internal/platform/database"
	"github.com/aradsms/inbox_services/internal/platform/logger"
	"github.com/aradsms/inbox_services/internal/platform/messagebroker"
)

const (
	serviceName     = "inbox_api_service"
	shutdownTimeout = 30 * time.Second
)

func main() {
	cfg, err := config.Load(serviceName)
	if err != nil {
		slog.Error("Failed to load configuration", "service", serviceName, "error", err)
		os.Exit(1)
	}

	appLogger := logger.New(cfg.LogLevel).With("service", serviceName)
	appLogger.Info("Inbox API service starting...", "port", cfg.InboxAPIServicePort)

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	dbPool, err := database.NewDBPool(startupCtx, cfg.PostgresDSN)
	if err != nil {
		cancelStartup()
		appLogger.Error("Failed to connect to PostgreSQL", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()
	appLogger.Info("Connected to PostgreSQL database")

	if cfg.AutoMigrate {
		if err := database.ApplySchema(startupCtx, dbPool); err != nil {
			cancelStartup()
			appLogger.Error("Failed to apply database schema", "error", err)
			os.Exit(1)
		}
		appLogger.Info("Database schema applied")
	}
	cancelStartup()

	// The broker is optional for the API: without it the inbound webhook is
	// not mounted and forward events are not emitted.
	var publisher app.EventPublisher
	natsClient, err := messagebroker.NewNATSClient(cfg.NATSUrl, serviceName, appLogger)
	if err != nil {
		appLogger.Warn("NATS unavailable; inbound webhook disabled", "error", err)
	} else {
		defer natsClient.Close()
		publisher = natsClient
		appLogger.Info("Connected to NATS")
	}

	userRepo := postgres.NewPgUserRepository(dbPool, cfg.StorageTimeout, appLogger)
	numberRepo := postgres.NewPgPhoneNumberRepository(dbPool, cfg.StorageTimeout, appLogger)
	messageRepo := postgres.NewPgMessageRepository(dbPool, cfg.StorageTimeout, appLogger)
	auditRepo := postgres.NewPgAuditLogRepository(dbPool, cfg.StorageTimeout, appLogger)

	sender := newSender(cfg, appLogger)
	policy := app.NewVisibilityPolicy(cfg.OTPVisibilityWindow)
	messageService := app.NewMessageService(messageRepo, numberRepo, policy, appLogger)
	forwardingService := app.NewForwardingService(
		messageRepo,
		numberRepo,
		auditRepo,
		sender,
		app.ForwardingConfig{MessagingServiceSID: cfg.TwilioMessagingServiceSID},
		publisher,
		appLogger,
	)
	auditService := app.NewAuditService(auditRepo, appLogger)
	numberService := app.NewNumberService(numberRepo, appLogger)
	authenticator := app.NewAuthenticator(userRepo, cfg.JWTAccessSecret, appLogger)

	router := httptransport.NewRouter(httptransport.RouterDeps{
		Messages:         messageService,
		Forwarder:        forwardingService,
		Audits:           auditService,
		Numbers:          numberService,
		Identity:         authenticator,
		Publisher:        publisher,
		HealthCheck:      dbPool.Ping,
		RequestTimeout:   cfg.RequestTimeout,
		CORSOrigins:      cfg.CORSOrigins(),
		WebhookRateLimit: cfg.WebhookRateLimit,
		Logger:           appLogger,
	})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.InboxAPIServicePort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		appLogger.Info("Inbox API server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quitChan := make(chan os.Signal, 1)
	signal.Notify(quitChan, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quitChan:
		appLogger.Info("Shutdown signal received", "signal", sig.String())
	case err := <-serverErr:
		appLogger.Error("HTTP server failed to serve", "error", err)
	}

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if err := httpServer.Shutdown(ctxShutdown); err != nil {
		appLogger.Error("HTTP server shutdown failed", "error", err)
	} else {
		appLogger.Info("HTTP server shut down gracefully.")
	}
	appLogger.Info("Inbox API service shut down.")
}

func newSender(cfg *config.Config, appLogger *slog.Logger) provider.Sender {
	if strings.EqualFold(cfg.SMSProvider, "mock") {
		appLogger.Warn("Using mock SMS provider; nothing will be delivered")
		return provider.NewMockSMSProvider(appLogger, false, 0)
	}
	if !cfg.ProviderConfigured() {
		appLogger.Warn("Twilio credentials missing; forwarding will be rejected")
	}
	return provider.NewTwilioSMSProvider(appLogger, provider.TwilioConfig{
		AccountSID: cfg.TwilioAccountSID,
		AuthToken:  cfg.TwilioAuthToken,
		BaseURL:    cfg.TwilioAPIBaseURL,
		Timeout:    cfg.ProviderTimeout,
	}, nil)
}
