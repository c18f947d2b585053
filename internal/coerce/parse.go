package coerce

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// dateFormats are tried in order. Day-first formats come first: the
// documents this tool receives use Argentine conventions, so 03/04/2024 is
// April 3rd, not March 4th. ISO formats are accepted as a fallback.
var dateFormats = []string{
	"2/1/2006",
	"2-1-2006",
	"2.1.2006",
	"2/1/06",
	"02/01/2006 15:04:05",
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

// ParseDate parses a cell as a day-first calendar date. Empty or
// unparseable cells yield nil; date parsing never fails a row.
func ParseDate(cell string) *time.Time {
	s := strings.TrimSpace(cell)
	if s == "" {
		return nil
	}

	for _, format := range dateFormats {
		if t, err := time.Parse(format, s); err == nil {
			// Keep the date only; times on statement rows are noise.
			d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			return &d
		}
	}

	return nil
}

// ParseAmount parses a cell as a decimal amount, tolerating the separator
// conventions seen in Argentine bank exports:
//
//   - thousands separators: regular space, non-breaking space, and "." when
//     a decimal comma is present ("1.234,56" -> 1234.56)
//   - decimal comma converted to a point
//   - a last-resort pass strips every character outside [0-9.-] ("$ 1000" ->
//     1000)
//
// A cell that survives none of this yields an invalid NullDecimal: null is
// distinguishable from a genuine zero amount.
func ParseAmount(cell string) decimal.NullDecimal {
	s := strings.TrimSpace(cell)
	if s == "" {
		return decimal.NullDecimal{}
	}

	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "\u00a0", "")
	s = strings.ReplaceAll(s, "\u202f", "")

	if strings.Contains(s, ",") {
		// Locale form: dots are thousands separators, comma is the decimal
		// mark.
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	}

	if d, err := decimal.NewFromString(s); err == nil {
		return decimal.NewNullDecimal(d)
	}

	// Retry with everything that is not a digit, point or sign removed.
	s = keepNumericRunes(s)
	if s == "" || s == "-" || s == "." {
		return decimal.NullDecimal{}
	}
	if d, err := decimal.NewFromString(s); err == nil {
		return decimal.NewNullDecimal(d)
	}

	return decimal.NullDecimal{}
}

func keepNumericRunes(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
