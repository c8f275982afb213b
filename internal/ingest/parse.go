package ingest

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/andresuchdata/salesreport/internal/domain"
)

var (
	floatPrefix = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)
	intPrefix   = regexp.MustCompile(`^[+-]?\d+`)
)

// dateLayouts are tried in order by ParseDate. The M/D/YYYY HH:mm form is
// what the published sheet feed emits.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"1/2/2006 15:04",
	"1/2/2006 15:04:05",
	"1/2/2006",
	"2006/01/02",
}

// ParseAmount reads the leading decimal number of s. Anything unparsable
// yields 0.
func ParseAmount(s string) float64 {
	match := floatPrefix.FindString(strings.TrimSpace(s))
	if match == "" {
		return 0
	}
	f, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0
	}
	return f
}

// ParseCount reads the leading integer of s, so "2.9" is 2. Anything
// unparsable yields 0.
func ParseCount(s string) int {
	match := intPrefix.FindString(strings.TrimSpace(s))
	if match == "" {
		return 0
	}
	n, err := strconv.Atoi(match)
	if err != nil {
		return 0
	}
	return n
}

// ParseDate parses a purchase date with the fixed set of accepted layouts.
// Dates without a zone are read as UTC.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s == domain.NotAvailable {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// DayKey renders a parseable date as YYYY-MM-DD.
func DayKey(s string) (string, bool) {
	t, ok := ParseDate(s)
	if !ok {
		return "", false
	}
	return t.Format("2006-01-02"), true
}

// cleanCell trims whitespace and one pair of surrounding double quotes.
func cleanCell(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, `"`)
	s = strings.TrimSuffix(s, `"`)
	return s
}
