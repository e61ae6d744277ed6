package postgres

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/aradsms/inbox_services/internal/inbox_service/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type PgAuditLogRepository struct {
	db      DBPool
	timeout time.Duration
	logger  *slog.Logger
}

func NewPgAuditLogRepository(db DBPool, timeout time.Duration, logger *slog.Logger) *PgAuditLogRepository {
	return &PgAuditLogRepository{db: db, timeout: timeout, logger: logger.With("component", "audit_log_repository_pg")}
}

// Append commits entry in its own transaction so the write is durable once
// it returns nil.
func (r *PgAuditLogRepository) Append(ctx context.Context, entry *domain.AuditLog) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	err := inTx(ctx, r.db, func(tx pgx.Tx) error {
		return insertAuditLog(ctx, tx, entry)
	})
	if err != nil {
		r.logger.ErrorContext(ctx, "Error appending audit log", "action", entry.Action, "error", err)
		return storageError("append audit log", err)
	}
	return nil
}

const selectAuditLogColumns = `SELECT id, user_id, action, metadata, created_at FROM audit_logs`

func (r *PgAuditLogRepository) ListRecent(ctx context.Context, limit int) ([]domain.AuditLog, error) {
	return r.list(ctx, selectAuditLogColumns+` ORDER BY created_at DESC, id DESC LIMIT $1`, limit)
}

func (r *PgAuditLogRepository) ListRecentByUser(ctx context.Context, userID uuid.UUID, limit int) ([]domain.AuditLog, error) {
	return r.list(ctx, selectAuditLogColumns+` WHERE user_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2`, userID, limit)
}

func (r *PgAuditLogRepository) list(ctx context.Context, query string, args ...any) ([]domain.AuditLog, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error listing audit logs", "error", err)
		return nil, storageError("list audit logs", err)
	}
	defer rows.Close()

	entries := []domain.AuditLog{}
	for rows.Next() {
		var (
			e        domain.AuditLog
			metadata []byte
		)
		if err := rows.Scan(&e.ID, &e.UserID, &e.Action, &metadata, &e.CreatedAt); err != nil {
			return nil, storageError("scan audit log", err)
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &e.Metadata); err != nil {
				r.logger.WarnContext(ctx, "Audit log metadata is not valid JSON", "audit_log_id", e.ID, "error", err)
			}
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("iterate audit logs", err)
	}
	return entries, nil
}
