package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aradsms/inbox_services/internal/inbox_service/domain"
)

// ContextKey is a custom type for context keys to avoid collisions.
type ContextKey string

const (
	AuthenticatedUserContextKey = ContextKey("authenticatedUser")
)

// IdentityResolver maps an Authorization scheme and credential to a user.
type IdentityResolver interface {
	Resolve(ctx context.Context, scheme, credential string) (*domain.User, error)
}

// WithUser returns a copy of ctx carrying user.
func WithUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, AuthenticatedUserContextKey, user)
}

// UserFromContext returns the user stored by AuthMiddleware.
func UserFromContext(ctx context.Context) (*domain.User, bool) {
	user, ok := ctx.Value(AuthenticatedUserContextKey).(*domain.User)
	return user, ok && user != nil
}

// AuthMiddleware authenticates requests using "Bearer <jwt>" or "ApiKey <key>".
func AuthMiddleware(resolver IdentityResolver, logger *slog.Logger) func(next http.Handler) http.Handler {
	logger = logger.With("component", "auth_middleware")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.WarnContext(r.Context(), "Authorization header missing")
				writeAuthError(w, http.StatusUnauthorized, "unauthenticated", "Authorization header required")
				return
			}

			scheme, credential, found := strings.Cut(strings.TrimSpace(authHeader), " ")
			if !found || strings.TrimSpace(credential) == "" {
				logger.WarnContext(r.Context(), "Invalid Authorization header format")
				writeAuthError(w, http.StatusUnauthorized, "unauthenticated", "Invalid Authorization header format")
				return
			}

			user, err := resolver.Resolve(r.Context(), scheme, credential)
			if err != nil {
				if errors.Is(err, domain.ErrStorageUnavailable) {
					logger.ErrorContext(r.Context(), "Identity lookup failed", "error", err)
					writeAuthError(w, http.StatusServiceUnavailable, "storage_unavailable", "Storage temporarily unavailable")
					return
				}
				logger.WarnContext(r.Context(), "Credential validation failed", "scheme", scheme, "error", err)
				writeAuthError(w, http.StatusUnauthorized, "unauthenticated", "Invalid or expired credentials")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

func writeAuthError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message, "code": code})
}
