package tabular

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// amount strings arrive with thousands separators, currency symbols, and
// accounting-style parenthesized negatives.
var amountReplacer = strings.NewReplacer(",", "", "$", "", " ", "")

// ParseAmount parses amounts like "1,234.50", "$125.00", and "(125.00)"
// (which means -125.00). Empty strings are an error, not zero, so callers can
// distinguish blank cells from real zeros.
func ParseAmount(s string) (decimal.Decimal, error) {
	t := strings.TrimSpace(amountReplacer.Replace(s))
	if t == "" {
		return decimal.Decimal{}, fmt.Errorf("empty amount")
	}
	if strings.HasPrefix(t, "(") && strings.HasSuffix(t, ")") {
		t = "-" + t[1:len(t)-1]
	}
	d, err := decimal.NewFromString(t)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parsing amount %q: %w", s, err)
	}
	return d, nil
}

// dateLayouts are tried in order; the first successful parse wins. Time
// components are discarded.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"1/2/2006",
	"01/02/2006",
	"1/2/2006 15:04",
	"1/2/2006 15:04:05",
	"2006/01/02",
	"1-2-2006",
	"2-Jan-2006",
	"Jan 2, 2006",
}

// ParseDate parses a cell into a midnight-UTC date. Rows whose dates fail to
// parse are dropped by adapters, never defaulted.
func ParseDate(s string) (time.Time, error) {
	t := strings.TrimSpace(s)
	if t == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, t); err == nil {
			return time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format: %q", s)
}
