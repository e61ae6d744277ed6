package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/aradsms/inbox_services/internal/inbox_service/app"
	"github.com/aradsms/inbox_services/internal/inbox_service/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterDeps are the collaborators of the inbox HTTP API.
type RouterDeps struct {
	Messages  MessageReader
	Forwarder Forwarder
	Audits    AuditLogLister
	Numbers   NumberLister
	Identity  middleware.IdentityResolver

	// Publisher enables the inbound webhook when non-nil.
	Publisher app.EventPublisher

	// HealthCheck is probed by GET /health when non-nil.
	HealthCheck func(ctx context.Context) error

	RequestTimeout time.Duration

	// CORSOrigins enables CORS for the listed origins when non-empty.
	CORSOrigins []string

	// WebhookRateLimit caps webhook requests per minute per client IP.
	WebhookRateLimit int

	Logger *slog.Logger
}

// NewRouter assembles the chi router with the standard middleware stack.
func NewRouter(d RouterDeps) chi.Router {
	timeout := d.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(PrometheusMetricsMiddleware)
	r.Use(chimiddleware.Timeout(timeout))
	if len(d.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: d.CORSOrigins,
			AllowedMethods: []string{"GET", "POST", "PATCH", "OPTIONS"},
			AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-Id"},
			MaxAge:         300,
		}))
	}

	validate := validator.New()

	r.Get("/health", healthHandler(d.HealthCheck, d.Logger))
	r.Handle("/metrics", promhttp.Handler())

	if d.Publisher != nil {
		r.Group(func(webhooks chi.Router) {
			if d.WebhookRateLimit > 0 {
				webhooks.Use(httprate.LimitByIP(d.WebhookRateLimit, time.Minute))
			}
			NewWebhookHandler(d.Publisher, validate, d.Logger).RegisterRoutes(webhooks)
		})
	}

	r.Group(func(protected chi.Router) {
		protected.Use(middleware.AuthMiddleware(d.Identity, d.Logger))
		NewMessageHandler(d.Messages, d.Forwarder, validate, d.Logger).RegisterRoutes(protected)
		NewAuditHandler(d.Audits, d.Logger).RegisterRoutes(protected)
		NewNumberHandler(d.Numbers, d.Logger).RegisterRoutes(protected)
	})

	return r
}

func healthHandler(check func(ctx context.Context) error, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			if err := check(r.Context()); err != nil {
				logger.ErrorContext(r.Context(), "Health check failed", "error", err)
				writeJSON(w, http.StatusServiceUnavailable, StatusResponse{Status: "error"})
				return
			}
		}
		writeJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
	}
}
