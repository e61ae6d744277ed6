package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/aradsms/inbox_services/internal/inbox_service/domain"
)

// resolveOwningNumber finds the PhoneNumber that owns identifier, whichever
// spelling storage holds, and returns the variant set it searched. An
// identifier that does not normalize yields domain.ErrInvalidNumber; a
// number with no record yields (nil, variants, nil).
func resolveOwningNumber(ctx context.Context, numbers domain.PhoneNumberRepository, identifier string) (*domain.PhoneNumber, []string, error) {
	variants, err := domain.PhoneNumberVariants(identifier)
	if err != nil {
		return nil, nil, err
	}
	number, err := numbers.FindByVariants(ctx, variants)
	if err != nil {
		return nil, variants, fmt.Errorf("resolve number: %w", err)
	}
	return number, variants, nil
}

// resolveMessageOwner is resolveOwningNumber for a stored to_number. A
// to_number that does not normalize has no owner.
func resolveMessageOwner(ctx context.Context, numbers domain.PhoneNumberRepository, toNumber string) (*domain.PhoneNumber, error) {
	number, _, err := resolveOwningNumber(ctx, numbers, toNumber)
	if errors.Is(err, domain.ErrInvalidNumber) {
		return nil, nil
	}
	return number, err
}
