package postgres

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aradsms/inbox_services/internal/inbox_service/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type PgUserRepository struct {
	db      DBPool
	timeout time.Duration
	logger  *slog.Logger
}

func NewPgUserRepository(db DBPool, timeout time.Duration, logger *slog.Logger) *PgUserRepository {
	return &PgUserRepository{db: db, timeout: timeout, logger: logger.With("component", "user_repository_pg")}
}

const selectUserColumns = `SELECT id, username, role, is_active FROM users`

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(&u.ID, &u.Username, &u.Role, &u.IsActive); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *PgUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	u, err := scanUser(r.db.QueryRow(ctx, selectUserColumns+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.ErrorContext(ctx, "Error getting user by ID", "user_id", id, "error", err)
		return nil, storageError("get user", err)
	}
	return u, nil
}

func (r *PgUserRepository) GetByAPIKeyHash(ctx context.Context, hash string) (*domain.User, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	u, err := scanUser(r.db.QueryRow(ctx, selectUserColumns+` WHERE api_key_hash = $1`, hash))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.ErrorContext(ctx, "Error getting user by API key hash", "error", err)
		return nil, storageError("get user by api key", err)
	}
	return u, nil
}
