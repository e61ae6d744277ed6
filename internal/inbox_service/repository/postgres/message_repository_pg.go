package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aradsms/inbox_services/internal/inbox_service/domain"
	"github.com/jackc/pgx/v5"
)

type PgMessageRepository struct {
	db      DBPool
	timeout time.Duration
	logger  *slog.Logger
}

func NewPgMessageRepository(db DBPool, timeout time.Duration, logger *slog.Logger) *PgMessageRepository {
	return &PgMessageRepository{db: db, timeout: timeout, logger: logger.With("component", "message_repository_pg")}
}

const selectMessageColumns = `SELECT id, to_number, from_number, message_body, otp_code, provider_message_id, is_read, received_at FROM messages`

func scanMessage(row pgx.Row) (*domain.Message, error) {
	var (
		m   domain.Message
		otp sql.NullString
	)
	if err := row.Scan(&m.ID, &m.ToNumber, &m.FromNumber, &m.Body, &otp, &m.ProviderMessageID, &m.IsRead, &m.ReceivedAt); err != nil {
		return nil, err
	}
	if otp.Valid {
		code := otp.String
		m.OTPCode = &code
	}
	return &m, nil
}

func (r *PgMessageRepository) GetByID(ctx context.Context, id int64) (*domain.Message, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	m, err := scanMessage(r.db.QueryRow(ctx, selectMessageColumns+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.ErrorContext(ctx, "Error getting message by ID", "message_id", id, "error", err)
		return nil, storageError("get message", err)
	}
	return m, nil
}

// ListByToNumbers returns the newest messages addressed to any of the given
// spellings of a number.
func (r *PgMessageRepository) ListByToNumbers(ctx context.Context, toNumbers []string, limit int) ([]domain.Message, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	query := selectMessageColumns + ` WHERE to_number = ANY($1) ORDER BY received_at DESC, id DESC LIMIT $2`
	rows, err := r.db.Query(ctx, query, toNumbers, limit)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error listing messages", "to_numbers", toNumbers, "error", err)
		return nil, storageError("list messages", err)
	}
	defer rows.Close()

	messages := []domain.Message{}
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, storageError("scan message", err)
		}
		messages = append(messages, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("iterate messages", err)
	}
	return messages, nil
}

func (r *PgMessageRepository) SetRead(ctx context.Context, id int64, isRead bool) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	tag, err := r.db.Exec(ctx, `UPDATE messages SET is_read = $1 WHERE id = $2`, isRead, id)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error updating message read state", "message_id", id, "error", err)
		return storageError("set read", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// CreateWithAudit stores an inbound message and its audit entry atomically.
// The audit metadata gains the new message_id.
func (r *PgMessageRepository) CreateWithAudit(ctx context.Context, msg *domain.Message, entry *domain.AuditLog) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	err := inTx(ctx, r.db, func(tx pgx.Tx) error {
		insertMsg := `INSERT INTO messages (to_number, from_number, message_body, otp_code, provider_message_id, is_read, received_at)
                      VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
		if err := tx.QueryRow(ctx, insertMsg,
			msg.ToNumber, msg.FromNumber, msg.Body, msg.OTPCode, msg.ProviderMessageID, msg.IsRead, msg.ReceivedAt,
		).Scan(&msg.ID); err != nil {
			return fmt.Errorf("insert message: %w", err)
		}

		if entry.Metadata == nil {
			entry.Metadata = map[string]any{}
		}
		entry.Metadata["message_id"] = msg.ID
		return insertAuditLog(ctx, tx, entry)
	})
	if err != nil {
		r.logger.ErrorContext(ctx, "Error storing inbound message", "to_number", msg.ToNumber, "error", err)
		return storageError("create message", err)
	}
	return nil
}

// insertAuditLog writes entry through q and fills its ID and CreatedAt.
func insertAuditLog(ctx context.Context, q interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}, entry *domain.AuditLog) error {
	metadata, err := json.Marshal(entry.Metadata)
	if err != nil {
		return fmt.Errorf("marshal audit metadata: %w", err)
	}
	query := `INSERT INTO audit_logs (user_id, action, metadata) VALUES ($1, $2, $3) RETURNING id, created_at`
	if err := q.QueryRow(ctx, query, entry.UserID, entry.Action, metadata).Scan(&entry.ID, &entry.CreatedAt); err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}
