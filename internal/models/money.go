package models

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ValueFormat identifies how a template writes decimal amounts.
type ValueFormat string

const (
	// ValueFormatBR treats comma as the decimal separator and dot as the
	// thousands separator (1.234,56).
	ValueFormatBR ValueFormat = "BR"
	// ValueFormatUS treats dot as the decimal separator and comma as the
	// thousands separator (1,234.56).
	ValueFormatUS ValueFormat = "US"
)

// IsKnownValueFormat reports whether format is a supported value format.
// An undeclared or unknown format is a template error, never a heuristic guess.
func IsKnownValueFormat(format ValueFormat) bool {
	return format == ValueFormatBR || format == ValueFormatUS
}

// ParseMinorUnits parses a statement amount string into an integer count of
// minor currency units (cents). The pipeline performs no floating-point
// arithmetic on money; parsing goes through decimal and the result is exact.
//
//	ParseMinorUnits("1.234,56", ValueFormatBR) // 123456
//	ParseMinorUnits("1234.56", ValueFormatUS)  // 123456
func ParseMinorUnits(amountStr string, format ValueFormat) (int64, error) {
	cleaned := strings.TrimSpace(amountStr)
	if cleaned == "" {
		return 0, fmt.Errorf("empty amount")
	}

	// Strip currency markers and embedded spaces
	for _, marker := range []string{"R$", "US$", "$", "€", "CHF", "EUR", "USD", "BRL"} {
		cleaned = strings.ReplaceAll(cleaned, marker, "")
	}
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	cleaned = strings.ReplaceAll(cleaned, " ", "")

	// Accounting notation: (123,45) means -123,45
	negative := false
	if strings.HasPrefix(cleaned, "(") && strings.HasSuffix(cleaned, ")") {
		negative = true
		cleaned = strings.TrimSuffix(strings.TrimPrefix(cleaned, "("), ")")
	}
	if strings.HasPrefix(cleaned, "-") {
		negative = true
		cleaned = strings.TrimPrefix(cleaned, "-")
	}
	cleaned = strings.TrimPrefix(cleaned, "+")

	switch format {
	case ValueFormatBR:
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	case ValueFormatUS:
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	default:
		return 0, fmt.Errorf("unknown value format '%s'", format)
	}

	dec, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0, fmt.Errorf("invalid amount '%s': %w", amountStr, err)
	}

	shifted := dec.Shift(2)
	if !shifted.IsInteger() {
		return 0, fmt.Errorf("amount '%s' has more than two decimal places", amountStr)
	}

	minor := shifted.IntPart()
	if negative {
		minor = -minor
	}
	return minor, nil
}

// FormatMinorUnits renders an integer amount of minor units as a display
// string with two decimal places, e.g. -123456 -> "-1234.56".
func FormatMinorUnits(minor int64) string {
	return decimal.New(minor, -2).StringFixed(2)
}
