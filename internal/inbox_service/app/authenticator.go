package app

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aradsms/inbox_services/internal/inbox_service/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/sha3"
)

// Authorization header schemes accepted by Authenticator.
const (
	SchemeBearer = "Bearer"
	SchemeAPIKey = "ApiKey"
)

// Authenticator turns request credentials into a User. The user is loaded
// from storage on every call so role changes apply immediately.
type Authenticator struct {
	users     domain.UserRepository
	jwtSecret []byte
	logger    *slog.Logger
}

func NewAuthenticator(users domain.UserRepository, jwtSecret string, logger *slog.Logger) *Authenticator {
	return &Authenticator{
		users:     users,
		jwtSecret: []byte(jwtSecret),
		logger:    logger.With("component", "authenticator"),
	}
}

// Resolve validates credential under scheme and returns the active user it
// identifies. Unknown schemes, bad credentials, and inactive users all yield
// domain.ErrUnauthenticated; storage failures are returned as-is.
func (a *Authenticator) Resolve(ctx context.Context, scheme, credential string) (*domain.User, error) {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return nil, domain.ErrUnauthenticated
	}

	var (
		user *domain.User
		err  error
	)
	switch {
	case strings.EqualFold(scheme, SchemeBearer):
		user, err = a.resolveBearer(ctx, credential)
	case strings.EqualFold(scheme, SchemeAPIKey):
		user, err = a.users.GetByAPIKeyHash(ctx, HashAPIKey(credential))
	default:
		return nil, domain.ErrUnauthenticated
	}
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive {
		return nil, domain.ErrUnauthenticated
	}
	return user, nil
}

func (a *Authenticator) resolveBearer(ctx context.Context, tokenString string) (*domain.User, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		a.logger.DebugContext(ctx, "Rejected bearer token", "error", err)
		return nil, domain.ErrUnauthenticated
	}

	sub, err := token.Claims.GetSubject()
	if err != nil {
		return nil, domain.ErrUnauthenticated
	}
	userID, err := uuid.Parse(sub)
	if err != nil {
		return nil, domain.ErrUnauthenticated
	}
	return a.users.GetByID(ctx, userID)
}

// HashAPIKey returns the stored form of an API key.
func HashAPIKey(plainTextKey string) string {
	hash := sha3.Sum256([]byte(plainTextKey))
	return base64.URLEncoding.EncodeToString(hash[:])
}
