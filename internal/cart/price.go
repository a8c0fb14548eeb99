package cart

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/example/sunik/internal/models"
)

var nonNumeric = regexp.MustCompile(`[^0-9.-]`)

// ErrNonPositivePrice is returned for a line price of zero or less.
var ErrNonPositivePrice = errors.New("price must be greater than 0")

// ParsePrice reads a display price such as "$10.00" by dropping every
// character that is not a digit, '.' or '-'. Prices are Rupiah unless they
// carry a '$', so a dot is a thousands separator when more than one is present
// or the only dot is followed by exactly three digits ("Rp 25.000"). In dollar
// prices a single dot is always the decimal point ("$1.234").
func ParsePrice(raw string) (decimal.Decimal, error) {
	cleaned := nonNumeric.ReplaceAllString(raw, "")
	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("price %q has no digits", raw)
	}
	cleaned = normalizeGrouping(cleaned, strings.Contains(raw, "$"))
	value, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse price %q: %w", raw, err)
	}
	return value, nil
}

// UnitPrice parses raw and requires it to be positive.
func UnitPrice(raw string) (decimal.Decimal, error) {
	price, err := ParsePrice(raw)
	if err != nil {
		return decimal.Zero, err
	}
	if !price.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrNonPositivePrice, raw)
	}
	return price, nil
}

func normalizeGrouping(s string, dollars bool) string {
	dots := 0
	last := -1
	for i, r := range s {
		if r == '.' {
			dots++
			last = i
		}
	}
	if dots > 1 || (dots == 1 && !dollars && len(s)-last-1 == 3) {
		out := make([]byte, 0, len(s))
		for i := 0; i < len(s); i++ {
			if s[i] != '.' {
				out = append(out, s[i])
			}
		}
		return string(out)
	}
	return s
}

// LineTotal is price × quantity for a single item. Prices of zero or less
// are rejected.
func LineTotal(item models.CartItem) (decimal.Decimal, error) {
	price, err := UnitPrice(item.Price)
	if err != nil {
		return decimal.Zero, err
	}
	return price.Mul(decimal.NewFromInt(int64(item.Quantity))), nil
}

// CalculateTotal sums price × quantity over items.
func CalculateTotal(items []models.CartItem) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, item := range items {
		line, err := LineTotal(item)
		if err != nil {
			return decimal.Zero, fmt.Errorf("item %s: %w", item.ID, err)
		}
		total = total.Add(line)
	}
	return total, nil
}
