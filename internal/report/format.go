package report

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the single date rendering used by every view.
const DateLayout = "2006-01-02"

// Money renders an amount with two decimals.
func Money(amount float64) string {
	return decimal.NewFromFloat(amount).StringFixed(2)
}

// FormatDate renders t as YYYY-MM-DD, or "N/A" for nil.
func FormatDate(t *time.Time) string {
	if t == nil {
		return "N/A"
	}
	return t.Format(DateLayout)
}

// ParseDay parses a YYYY-MM-DD query bound. Empty input yields nil.
func ParseDay(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
