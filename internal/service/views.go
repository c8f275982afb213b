package service

import (
	"time"

	"github.com/andresuchdata/salesreport/internal/domain"
	"github.com/andresuchdata/salesreport/internal/report"
)

// ViewQuery narrows a ranked list. Limit 0 uses the configured top N and a
// negative limit returns every entry.
type ViewQuery struct {
	Start  *time.Time
	End    *time.Time
	Search string
	Limit  int
}

// ListView is one filtered ranked list plus the dataset it came from.
type ListView[E any] struct {
	Source   string `json:"source"`
	FileName string `json:"fileName"`
	Total    int    `json:"total"`
	Items    []E    `json:"items"`
}

type DateRangeView struct {
	Source   string     `json:"source"`
	FileName string     `json:"fileName"`
	Start    *time.Time `json:"start"`
	End      *time.Time `json:"end"`
	Display  string     `json:"display"`
}

type SummaryView struct {
	Source      string        `json:"source"`
	FileName    string        `json:"fileName"`
	IngestionID string        `json:"ingestionId"`
	IngestedAt  time.Time     `json:"ingestedAt"`
	DateRange   DateRangeView `json:"dateRange"`
	report.Summary
}

type DailyView struct {
	Source   string                    `json:"source"`
	FileName string                    `json:"fileName"`
	Branches []string                  `json:"branches"`
	Days     []domain.DailyBranchSales `json:"days"`
}

func (s *ReportService) Summary() (*SummaryView, error) {
	ds, kind, err := s.dataset()
	if err != nil {
		return nil, err
	}
	return &SummaryView{
		Source:      kind.String(),
		FileName:    ds.FileName,
		IngestionID: ds.ID,
		IngestedAt:  ds.IngestedAt,
		DateRange:   dateRangeView(ds, kind),
		Summary:     report.Summarize(ds.Aggregates),
	}, nil
}

func (s *ReportService) DateRange() (*DateRangeView, error) {
	ds, kind, err := s.dataset()
	if err != nil {
		return nil, err
	}
	view := dateRangeView(ds, kind)
	return &view, nil
}

func (s *ReportService) Customers(q ViewQuery) (*ListView[domain.CustomerSales], error) {
	ds, kind, err := s.dataset()
	if err != nil {
		return nil, err
	}
	return listView(ds, kind, report.Customers(ds.Aggregates), q, s.limit(q)), nil
}

func (s *ReportService) Products(q ViewQuery) (*ListView[domain.ProductQuantity], error) {
	ds, kind, err := s.dataset()
	if err != nil {
		return nil, err
	}
	return listView(ds, kind, report.Products(ds.Aggregates), q, s.limit(q)), nil
}

func (s *ReportService) Promotions(q ViewQuery) (*ListView[domain.ProductQuantity], error) {
	ds, kind, err := s.dataset()
	if err != nil {
		return nil, err
	}
	return listView(ds, kind, report.Promotions(ds.Aggregates), q, s.limit(q)), nil
}

// Branches lists retail branches.
func (s *ReportService) Branches(q ViewQuery) (*ListView[domain.BranchSales], error) {
	ds, kind, err := s.dataset()
	if err != nil {
		return nil, err
	}
	return listView(ds, kind, report.Branches(ds.Aggregates, s.opts.RetailPrefixes...), q, s.limit(q)), nil
}

// StockiestBranches lists stockiest branches.
func (s *ReportService) StockiestBranches(q ViewQuery) (*ListView[domain.BranchSales], error) {
	ds, kind, err := s.dataset()
	if err != nil {
		return nil, err
	}
	return listView(ds, kind, report.Branches(ds.Aggregates, s.opts.StockiestPrefixes...), q, s.limit(q)), nil
}

func (s *ReportService) PurchaseTypes(q ViewQuery) (*ListView[domain.PurchaseTypeCount], error) {
	ds, kind, err := s.dataset()
	if err != nil {
		return nil, err
	}
	items := report.FilterBySearch(report.PurchaseTypes(ds.Aggregates), q.Search)
	return &ListView[domain.PurchaseTypeCount]{
		Source:   kind.String(),
		FileName: ds.FileName,
		Total:    len(items),
		Items:    report.Top(items, s.limit(q)),
	}, nil
}

// Daily returns the per-day series of retail branches, or of every branch
// when all is set, restricted to the query's date range.
func (s *ReportService) Daily(q ViewQuery, all bool) (*DailyView, error) {
	ds, kind, err := s.dataset()
	if err != nil {
		return nil, err
	}

	var series report.DailySeries
	if all {
		series = report.Daily(ds.Aggregates)
	} else {
		series = report.Daily(ds.Aggregates, s.opts.RetailPrefixes...)
	}

	return &DailyView{
		Source:   kind.String(),
		FileName: ds.FileName,
		Branches: series.Branches,
		Days:     report.FilterByDate(series.Days, q.Start, q.End),
	}, nil
}

func (s *ReportService) limit(q ViewQuery) int {
	if q.Limit == 0 {
		return s.opts.TopN
	}
	if q.Limit < 0 {
		return 0
	}
	return q.Limit
}

// listView applies search, then the date range, then truncation.
func listView[E report.Entry](ds *domain.Dataset, kind domain.SourceKind, ranked []E, q ViewQuery, n int) *ListView[E] {
	items := report.FilterBySearch(ranked, q.Search)
	items = report.FilterByDate(items, q.Start, q.End)
	return &ListView[E]{
		Source:   kind.String(),
		FileName: ds.FileName,
		Total:    len(items),
		Items:    report.Top(items, n),
	}
}

func dateRangeView(ds *domain.Dataset, kind domain.SourceKind) DateRangeView {
	return DateRangeView{
		Source:   kind.String(),
		FileName: ds.FileName,
		Start:    ds.DateRange.Start,
		End:      ds.DateRange.End,
		Display:  report.FormatDate(ds.DateRange.Start) + " - " + report.FormatDate(ds.DateRange.End),
	}
}
