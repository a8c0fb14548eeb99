package services

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatPrice renders an IDR amount with dot thousand separators, e.g.
// "Rp 125.000". Fractions are rounded to whole rupiah.
func FormatPrice(amount decimal.Decimal) string {
	str := amount.Round(0).Abs().StringFixed(0)

	var result strings.Builder
	if amount.Round(0).IsNegative() {
		result.WriteString("-")
	}
	result.WriteString("Rp ")
	length := len(str)
	for i, digit := range str {
		if i > 0 && (length-i)%3 == 0 {
			result.WriteString(".")
		}
		result.WriteRune(digit)
	}
	return result.String()
}
