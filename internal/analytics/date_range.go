package analytics

import (
	"github.com/andresuchdata/salesreport/internal/domain"
	"github.com/andresuchdata/salesreport/internal/ingest"
)

// ExtractRange returns the earliest and latest parseable purchase dates.
// Rows with "N/A" or unparsable dates are ignored, eligible or not.
func ExtractRange(rows []domain.Transaction) domain.DateRange {
	var rng domain.DateRange
	for _, row := range rows {
		t, ok := ingest.ParseDate(row.PurchaseDate)
		if !ok {
			continue
		}
		if rng.Start == nil || t.Before(*rng.Start) {
			start := t
			rng.Start = &start
		}
		if rng.End == nil || t.After(*rng.End) {
			end := t
			rng.End = &end
		}
	}
	return rng
}
