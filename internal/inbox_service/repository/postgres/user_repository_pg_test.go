package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/aradsms/inbox_services/internal/inbox_service/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPgUserRepository_GetByID(t *testing.T) {
	mockPool := newMockPool(t)
	repo := NewPgUserRepository(mockPool, testTimeout, discardLogger())
	userID := uuid.New()
	query := `SELECT id, username, role, is_active FROM users WHERE id = \$1`

	t.Run("Found", func(t *testing.T) {
		rows := mockPool.NewRows([]string{"id", "username", "role", "is_active"}).
			AddRow(userID, "alice", "user", true)
		mockPool.ExpectQuery(query).WithArgs(userID).WillReturnRows(rows)

		user, err := repo.GetByID(context.Background(), userID)
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, userID, user.ID)
		assert.Equal(t, "alice", user.Username)
		assert.True(t, user.IsActive)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("NotFound", func(t *testing.T) {
		mockPool.ExpectQuery(query).WithArgs(userID).WillReturnError(pgx.ErrNoRows)

		user, err := repo.GetByID(context.Background(), userID)
		require.NoError(t, err)
		assert.Nil(t, user)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("DBError", func(t *testing.T) {
		dbErr := errors.New("connection reset")
		mockPool.ExpectQuery(query).WithArgs(userID).WillReturnError(dbErr)

		user, err := repo.GetByID(context.Background(), userID)
		require.Error(t, err)
		assert.Nil(t, user)
		assert.ErrorIs(t, err, domain.ErrStorageUnavailable)
		assert.ErrorIs(t, err, dbErr)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestPgUserRepository_GetByAPIKeyHash(t *testing.T) {
	mockPool := newMockPool(t)
	repo := NewPgUserRepository(mockPool, testTimeout, discardLogger())
	userID := uuid.New()

	rows := mockPool.NewRows([]string{"id", "username", "role", "is_active"}).
		AddRow(userID, "ops", "admin", true)
	mockPool.ExpectQuery(`FROM users WHERE api_key_hash = \$1`).WithArgs("hashvalue").WillReturnRows(rows)

	user, err := repo.GetByAPIKeyHash(context.Background(), "hashvalue")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.True(t, user.IsAdmin())
	assert.NoError(t, mockPool.ExpectationsWereMet())
}
