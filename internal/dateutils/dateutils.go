// Package dateutils maps the date format tokens used in template descriptors
// to Go time layouts and parses statement dates with them.
package dateutils

import (
	"fmt"
	"strings"
	"time"
)

// Layouts for the date format tokens templates may declare.
// Vendors write patterns as DD/MM/YYYY style tokens, not Go reference times.
var tokenLayouts = map[string]string{
	"DD/MM/YYYY": "02/01/2006",
	"DD-MM-YYYY": "02-01-2006",
	"DD.MM.YYYY": "02.01.2006",
	"MM/DD/YYYY": "01/02/2006",
	"YYYY-MM-DD": "2006-01-02",
	"YYYY/MM/DD": "2006/01/02",
	"YYYYMMDD":   "20060102",
}

// LayoutFor resolves a template date format token to a Go time layout.
// Unknown tokens are a template validation failure, never a parse-time guess.
func LayoutFor(token string) (string, error) {
	layout, ok := tokenLayouts[strings.ToUpper(strings.TrimSpace(token))]
	if !ok {
		return "", fmt.Errorf("unrecognized date format '%s'", token)
	}
	return layout, nil
}

// IsKnownFormat reports whether token is a supported date format.
func IsKnownFormat(token string) bool {
	_, err := LayoutFor(token)
	return err == nil
}

// ParseDate parses a statement date using the template's declared format token.
// OFX DTPOSTED values may carry a time and timezone suffix after the 8-digit
// date (e.g. "20240801120000[-3:BRT]"); only the date part is read.
func ParseDate(value, token string) (time.Time, error) {
	layout, err := LayoutFor(token)
	if err != nil {
		return time.Time{}, err
	}

	cleaned := strings.TrimSpace(value)
	if layout == "20060102" && len(cleaned) > 8 {
		cleaned = cleaned[:8]
	}

	t, err := time.Parse(layout, cleaned)
	if err != nil {
		return time.Time{}, fmt.Errorf("unable to parse date '%s' as %s", value, token)
	}
	return t, nil
}

// ToISODate formats a time.Time value as an ISO date (YYYY-MM-DD).
// Canonical transactions always carry dates in this form.
func ToISODate(date time.Time) string {
	return date.Format("2006-01-02")
}
