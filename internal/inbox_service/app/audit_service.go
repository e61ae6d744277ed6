package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aradsms/inbox_services/internal/inbox_service/domain"
)

// AuditService lists audit entries. Admins see all of them, everyone else
// only entries they caused.
type AuditService struct {
	audits domain.AuditLogRepository
	logger *slog.Logger
}

func NewAuditService(audits domain.AuditLogRepository, logger *slog.Logger) *AuditService {
	return &AuditService{audits: audits, logger: logger.With("component", "audit_service")}
}

func (s *AuditService) ListAuditLogs(ctx context.Context, user *domain.User, limit int) ([]domain.AuditLog, error) {
	if user == nil {
		return nil, domain.ErrUnauthenticated
	}
	limit = ClampLimit(limit)

	var (
		entries []domain.AuditLog
		err     error
	)
	if user.IsAdmin() {
		entries, err = s.audits.ListRecent(ctx, limit)
	} else {
		entries, err = s.audits.ListRecentByUser(ctx, user.ID, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	return entries, nil
}
