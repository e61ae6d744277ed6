package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aradsms/inbox_services/internal/inbox_service/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var variants15551230000 = []string{"+15551230000", "15551230000"}

func setupMessageServiceTest(now time.Time) (*MessageService, *MockMessageRepository, *MockPhoneNumberRepository) {
	messages := new(MockMessageRepository)
	numbers := new(MockPhoneNumberRepository)
	svc := NewMessageService(messages, numbers, fixedPolicy(now), testLogger())
	return svc, messages, numbers
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, 1, ClampLimit(0))
	assert.Equal(t, 1, ClampLimit(-5))
	assert.Equal(t, 200, ClampLimit(200))
	assert.Equal(t, 1000, ClampLimit(1000))
	assert.Equal(t, 1000, ClampLimit(5000))
}

func TestMessageService_ListMessages(t *testing.T) {
	ctx := context.Background()
	t0 := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	t.Run("OwnerWithBareStoredNumber", func(t *testing.T) {
		svc, messages, numbers := setupMessageServiceTest(t0.Add(4 * time.Minute))
		userA := newUser("user")
		numbers.On("FindByVariants", ctx, variants15551230000).Return(assignedTo(userA, "+15551230000"), nil).Once()
		stored := []domain.Message{
			{ID: 2, ToNumber: "15551230000", Body: "Your code is 482913", OTPCode: strPtr("482913"), ReceivedAt: t0},
			{ID: 1, ToNumber: "+15551230000", Body: "old", OTPCode: strPtr("111111"), ReceivedAt: t0.Add(-time.Hour)},
		}
		messages.On("ListByToNumbers", ctx, variants15551230000, 200).Return(stored, nil).Once()

		views, err := svc.ListMessages(ctx, "15551230000", userA, 200)
		require.NoError(t, err)
		require.Len(t, views, 2)
		assert.Equal(t, domain.OTPVisible, views[0].OTP.State)
		assert.Equal(t, "482913", views[0].OTP.Code)
		assert.Equal(t, domain.OTPRedacted, views[1].OTP.State)
		messages.AssertExpectations(t)
		numbers.AssertExpectations(t)
	})

	t.Run("RedactedAfterWindow", func(t *testing.T) {
		svc, messages, numbers := setupMessageServiceTest(t0.Add(6 * time.Minute))
		userA := newUser("user")
		numbers.On("FindByVariants", ctx, variants15551230000).Return(assignedTo(userA, "+15551230000"), nil).Once()
		messages.On("ListByToNumbers", ctx, variants15551230000, 200).
			Return([]domain.Message{{ID: 2, ToNumber: "+15551230000", OTPCode: strPtr("482913"), ReceivedAt: t0}}, nil).Once()

		views, err := svc.ListMessages(ctx, "+1 (555) 123-0000", userA, 200)
		require.NoError(t, err)
		require.Len(t, views, 1)
		assert.Nil(t, views[0].OTP.CodePtr())
		assert.True(t, views[0].OTP.Expired())
	})

	t.Run("OtherUserForbidden", func(t *testing.T) {
		svc, messages, numbers := setupMessageServiceTest(t0)
		owner, userB := newUser("user"), newUser("user")
		numbers.On("FindByVariants", ctx, variants15551230000).Return(assignedTo(owner, "+15551230000"), nil).Once()

		views, err := svc.ListMessages(ctx, "+15551230000", userB, 200)
		assert.ErrorIs(t, err, domain.ErrForbidden)
		assert.Nil(t, views)
		messages.AssertNotCalled(t, "ListByToNumbers", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("AdminSeesAnyNumber", func(t *testing.T) {
		svc, messages, numbers := setupMessageServiceTest(t0)
		numbers.On("FindByVariants", ctx, variants15551230000).Return(nil, nil).Once()
		messages.On("ListByToNumbers", ctx, variants15551230000, 1000).Return([]domain.Message{}, nil).Once()

		views, err := svc.ListMessages(ctx, "+15551230000", newUser("ADMIN"), 99999)
		require.NoError(t, err)
		assert.NotNil(t, views)
		assert.Empty(t, views)
		messages.AssertExpectations(t)
	})

	t.Run("UnknownNumberForbiddenForUser", func(t *testing.T) {
		svc, _, numbers := setupMessageServiceTest(t0)
		numbers.On("FindByVariants", ctx, variants15551230000).Return(nil, nil).Once()

		_, err := svc.ListMessages(ctx, "+15551230000", newUser("user"), 200)
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("InvalidNumber", func(t *testing.T) {
		svc, _, numbers := setupMessageServiceTest(t0)

		_, err := svc.ListMessages(ctx, "not-a-number", newUser("admin"), 200)
		assert.ErrorIs(t, err, domain.ErrInvalidNumber)
		numbers.AssertNotCalled(t, "FindByVariants", mock.Anything, mock.Anything)
	})

	t.Run("LimitClampedToOne", func(t *testing.T) {
		svc, messages, numbers := setupMessageServiceTest(t0)
		numbers.On("FindByVariants", ctx, variants15551230000).Return(nil, nil).Once()
		messages.On("ListByToNumbers", ctx, variants15551230000, 1).Return([]domain.Message{}, nil).Once()

		_, err := svc.ListMessages(ctx, "+15551230000", newUser("admin"), 0)
		require.NoError(t, err)
		messages.AssertExpectations(t)
	})

	t.Run("StorageError", func(t *testing.T) {
		svc, _, numbers := setupMessageServiceTest(t0)
		numbers.On("FindByVariants", ctx, variants15551230000).Return(nil, domain.ErrStorageUnavailable).Once()

		_, err := svc.ListMessages(ctx, "+15551230000", newUser("admin"), 10)
		assert.ErrorIs(t, err, domain.ErrStorageUnavailable)
	})

	t.Run("NoUser", func(t *testing.T) {
		svc, _, _ := setupMessageServiceTest(t0)
		_, err := svc.ListMessages(ctx, "+15551230000", nil, 10)
		assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	})
}

func TestMessageService_MarkRead(t *testing.T) {
	ctx := context.Background()
	msg := &domain.Message{ID: 42, ToNumber: "15551230000", Body: "hi"}

	t.Run("OwnerMarksRead", func(t *testing.T) {
		svc, messages, numbers := setupMessageServiceTest(time.Now())
		owner := newUser("user")
		messages.On("GetByID", ctx, int64(42)).Return(msg, nil).Once()
		numbers.On("FindByVariants", ctx, variants15551230000).Return(assignedTo(owner, "15551230000"), nil).Once()
		messages.On("SetRead", ctx, int64(42), true).Return(nil).Once()

		require.NoError(t, svc.MarkRead(ctx, 42, true, owner))
		messages.AssertExpectations(t)
	})

	t.Run("Idempotent", func(t *testing.T) {
		svc, messages, numbers := setupMessageServiceTest(time.Now())
		admin := newUser("admin")
		messages.On("GetByID", ctx, int64(42)).Return(msg, nil).Twice()
		numbers.On("FindByVariants", ctx, variants15551230000).Return(nil, nil).Twice()
		messages.On("SetRead", ctx, int64(42), false).Return(nil).Twice()

		require.NoError(t, svc.MarkRead(ctx, 42, false, admin))
		require.NoError(t, svc.MarkRead(ctx, 42, false, admin))
		messages.AssertExpectations(t)
	})

	t.Run("NotFound", func(t *testing.T) {
		svc, messages, _ := setupMessageServiceTest(time.Now())
		messages.On("GetByID", ctx, int64(999)).Return(nil, nil).Once()

		err := svc.MarkRead(ctx, 999, true, newUser("admin"))
		assert.ErrorIs(t, err, domain.ErrNotFound)
		messages.AssertNotCalled(t, "SetRead", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Forbidden", func(t *testing.T) {
		svc, messages, numbers := setupMessageServiceTest(time.Now())
		owner := newUser("user")
		messages.On("GetByID", ctx, int64(42)).Return(msg, nil).Once()
		numbers.On("FindByVariants", ctx, variants15551230000).Return(assignedTo(owner, "15551230000"), nil).Once()

		err := svc.MarkRead(ctx, 42, true, newUser("user"))
		assert.ErrorIs(t, err, domain.ErrForbidden)
		messages.AssertNotCalled(t, "SetRead", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("RowVanished", func(t *testing.T) {
		svc, messages, numbers := setupMessageServiceTest(time.Now())
		messages.On("GetByID", ctx, int64(42)).Return(msg, nil).Once()
		numbers.On("FindByVariants", ctx, variants15551230000).Return(nil, nil).Once()
		messages.On("SetRead", ctx, int64(42), true).Return(domain.ErrNotFound).Once()

		err := svc.MarkRead(ctx, 42, true, newUser("admin"))
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("StorageError", func(t *testing.T) {
		svc, messages, _ := setupMessageServiceTest(time.Now())
		dbErr := errors.Join(domain.ErrStorageUnavailable, errors.New("deadline exceeded"))
		messages.On("GetByID", ctx, int64(42)).Return(nil, dbErr).Once()

		err := svc.MarkRead(ctx, 42, true, newUser("admin"))
		assert.ErrorIs(t, err, domain.ErrStorageUnavailable)
	})
}
