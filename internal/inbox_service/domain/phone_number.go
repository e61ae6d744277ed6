package domain

import (
	"sort"
	"strings"
)

// NormalizePhoneNumber reduces raw to its canonical form: a leading "+"
// followed by digits only. Every other character is dropped, so the result
// is stable under repeated normalization.
func NormalizePhoneNumber(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrInvalidNumber
	}

	var b strings.Builder
	b.Grow(len(raw) + 1)
	b.WriteByte('+')
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 1 {
		return "", ErrInvalidNumber
	}
	return b.String(), nil
}

// PhoneNumberVariants returns the canonical form of raw and the same form
// without its leading "+", sorted. Storage may hold either spelling.
func PhoneNumberVariants(raw string) ([]string, error) {
	canonical, err := NormalizePhoneNumber(raw)
	if err != nil {
		return nil, err
	}
	variants := []string{canonical, TogglePlus(canonical)}
	sort.Strings(variants)
	return variants, nil
}

// TogglePlus adds a leading "+" when absent and strips it when present.
func TogglePlus(n string) string {
	if strings.HasPrefix(n, "+") {
		return n[1:]
	}
	return "+" + n
}
