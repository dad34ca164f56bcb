package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Prices arrive from the outside world as text ("19.99"), JSON numbers, or
// junk. Parse converts at the boundary; business logic only ever sees
// decimal.Decimal.

func Parse(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "$"))
	if s == "" {
		return decimal.Zero, fmt.Errorf("empty price")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse price %q: %w", s, err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("negative price %q", s)
	}
	return d, nil
}

// Display is the display-layer fallback: unparsable input renders as "0.00"
// instead of propagating NaN-ish junk. Never use this before arithmetic.
func Display(s string) string {
	d, err := Parse(s)
	if err != nil {
		return "0.00"
	}
	return Format(d)
}

// Format renders with exactly two decimal places.
func Format(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// Round normalizes an amount to cent precision (half-up).
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
