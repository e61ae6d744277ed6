package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aradsms/inbox_services/internal/inbox_service/domain"
)

// NumberService lists the numbers a user may open.
type NumberService struct {
	numbers domain.PhoneNumberRepository
	logger  *slog.Logger
}

func NewNumberService(numbers domain.PhoneNumberRepository, logger *slog.Logger) *NumberService {
	return &NumberService{numbers: numbers, logger: logger.With("component", "number_service")}
}

func (s *NumberService) ListNumbers(ctx context.Context, user *domain.User) ([]domain.PhoneNumber, error) {
	if user == nil {
		return nil, domain.ErrUnauthenticated
	}

	var (
		numbers []domain.PhoneNumber
		err     error
	)
	if user.IsAdmin() {
		numbers, err = s.numbers.ListAll(ctx)
	} else {
		numbers, err = s.numbers.ListByAssignedUser(ctx, user.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("list numbers: %w", err)
	}
	return numbers, nil
}
