package report

import (
	"strings"
	"time"

	"github.com/andresuchdata/salesreport/internal/ingest"
)

// Entry is a ranked list element the view filters can act on.
type Entry interface {
	// SearchKey is the field free-text search matches against: the branch
	// code for branch entries, the name for everything else.
	SearchKey() string
	// EntryDate is the raw date recorded on the entry.
	EntryDate() string
}

// FilterByDate keeps entries whose date falls within [start 00:00, end 23:59:59.999].
// A missing bound returns the list unchanged. Entries with unparsable dates
// are dropped.
func FilterByDate[E Entry](list []E, start, end *time.Time) []E {
	if start == nil || end == nil {
		return list
	}

	from := startOfDay(*start)
	to := startOfDay(*end).Add(24*time.Hour - time.Millisecond)

	out := make([]E, 0, len(list))
	for _, e := range list {
		t, ok := ingest.ParseDate(e.EntryDate())
		if !ok {
			continue
		}
		if t.Before(from) || t.After(to) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// FilterBySearch keeps entries whose search key contains query, ignoring case.
// An empty query returns the list unchanged.
func FilterBySearch[E Entry](list []E, query string) []E {
	if query == "" {
		return list
	}

	needle := strings.ToLower(query)
	out := make([]E, 0, len(list))
	for _, e := range list {
		if strings.Contains(strings.ToLower(e.SearchKey()), needle) {
			out = append(out, e)
		}
	}
	return out
}

// Top returns the first n entries without re-sorting. n <= 0 means all.
func Top[E any](list []E, n int) []E {
	if n <= 0 || n >= len(list) {
		return list
	}
	return list[:n]
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
