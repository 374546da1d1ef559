// Package normalize converts locale-formatted statement values, dates and
// descriptions into canonical forms.
package normalize

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var nonNumeric = regexp.MustCompile(`[^0-9.,()\-]`)

// ParseValue converts a printed monetary value such as "R$ 1.234,56",
// "1234.56", "(1.234,56)" or "250,00-" to a decimal. The separator that occurs
// last is the decimal separator. Unparsable input yields zero.
func ParseValue(s string) decimal.Decimal {
	cleaned := nonNumeric.ReplaceAllString(s, "")
	if cleaned == "" {
		return decimal.Zero
	}

	negative := strings.HasPrefix(cleaned, "-") || strings.HasSuffix(cleaned, "-") ||
		(strings.HasPrefix(cleaned, "(") && strings.HasSuffix(cleaned, ")"))

	digits := strings.NewReplacer("(", "", ")", "", "-", "").Replace(cleaned)
	if digits == "" {
		return decimal.Zero
	}

	// The separator that appears last is the decimal one; every other
	// separator is grouping.
	cut := strings.LastIndexAny(digits, ".,")
	if cut >= 0 {
		intPart := strings.NewReplacer(".", "", ",", "").Replace(digits[:cut])
		fracPart := strings.NewReplacer(".", "", ",", "").Replace(digits[cut+1:])
		digits = intPart + "." + fracPart
		if intPart == "" {
			digits = "0" + digits
		}
		if fracPart == "" {
			digits = strings.TrimSuffix(digits, ".")
		}
	}

	d, err := decimal.NewFromString(digits)
	if err != nil {
		return decimal.Zero
	}
	if negative {
		return d.Neg()
	}
	return d
}

// FormatValue renders a decimal with two places and a decimal comma, as
// printed on Brazilian statements (no thousands grouping).
func FormatValue(d decimal.Decimal) string {
	return strings.Replace(d.StringFixed(2), ".", ",", 1)
}

// FormatOptionalValue is FormatValue for nil-able amounts.
func FormatOptionalValue(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return FormatValue(*d)
}
