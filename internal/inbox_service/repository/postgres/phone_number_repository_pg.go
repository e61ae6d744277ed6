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

type PgPhoneNumberRepository struct {
	db      DBPool
	timeout time.Duration
	logger  *slog.Logger
}

func NewPgPhoneNumberRepository(db DBPool, timeout time.Duration, logger *slog.Logger) *PgPhoneNumberRepository {
	return &PgPhoneNumberRepository{db: db, timeout: timeout, logger: logger.With("component", "phone_number_repository_pg")}
}

const selectPhoneNumberColumns = `SELECT id, number, label, assigned_user_id FROM phone_numbers`

func scanPhoneNumber(row pgx.Row) (*domain.PhoneNumber, error) {
	var pn domain.PhoneNumber
	if err := row.Scan(&pn.ID, &pn.Number, &pn.Label, &pn.AssignedUserID); err != nil {
		return nil, err
	}
	return &pn, nil
}

// FindByVariants picks the oldest matching row so that duplicate spellings of
// one number always resolve to the same record.
func (r *PgPhoneNumberRepository) FindByVariants(ctx context.Context, variants []string) (*domain.PhoneNumber, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	query := selectPhoneNumberColumns + ` WHERE number = ANY($1) ORDER BY id LIMIT 1`
	r.logger.DebugContext(ctx, "Querying phone number by variants", "variants", variants)

	pn, err := scanPhoneNumber(r.db.QueryRow(ctx, query, variants))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.ErrorContext(ctx, "Error querying phone number by variants", "variants", variants, "error", err)
		return nil, storageError("find phone number", err)
	}
	return pn, nil
}

func (r *PgPhoneNumberRepository) ListAll(ctx context.Context) ([]domain.PhoneNumber, error) {
	return r.list(ctx, selectPhoneNumberColumns+` ORDER BY number`)
}

func (r *PgPhoneNumberRepository) ListByAssignedUser(ctx context.Context, userID uuid.UUID) ([]domain.PhoneNumber, error) {
	return r.list(ctx, selectPhoneNumberColumns+` WHERE assigned_user_id = $1 ORDER BY number`, userID)
}

func (r *PgPhoneNumberRepository) list(ctx context.Context, query string, args ...any) ([]domain.PhoneNumber, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error listing phone numbers", "error", err)
		return nil, storageError("list phone numbers", err)
	}
	defer rows.Close()

	numbers := []domain.PhoneNumber{}
	for rows.Next() {
		pn, err := scanPhoneNumber(rows)
		if err != nil {
			return nil, storageError("scan phone number", err)
		}
		numbers = append(numbers, *pn)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("iterate phone numbers", err)
	}
	return numbers, nil
}
