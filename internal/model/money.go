package model

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseCents converts a decimal amount in major units to minor units.
// The GraphQL API reports prices as decimal strings ("10.00") or JSON numbers.
// Rounds half away from zero. Examples: "99.00" → 9900, "0.015" → 2, "" → 0.
// Anything else that is not a decimal number is an error.
func ParseCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return d.Shift(2).Round(0).IntPart(), nil
}

// FormatCents renders minor units as a major-unit string with two decimals.
// Examples: 2000 → "20.00", -150 → "-1.50".
func FormatCents(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}

// PercentOf returns basisPoints/10000 of amount, rounded half up.
// 1500 basis points = 15%.
func PercentOf(amount int64, basisPoints int) int64 {
	if amount <= 0 || basisPoints <= 0 {
		return 0
	}
	return decimal.NewFromInt(amount).
		Mul(decimal.NewFromInt(int64(basisPoints))).
		Div(decimal.NewFromInt(10000)).
		Round(0).
		IntPart()
}
