package report

import (
	"testing"
	"time"

	"github.com/andresuchdata/salesreport/internal/domain"
	"github.com/stretchr/testify/require"
)

func day(s string) *time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return &t
}

func sampleAggregates() *domain.Aggregates {
	return &domain.Aggregates{
		Customers: []domain.CustomerSales{
			{Name: "Alice", Amount: 100, Date: "2025-05-01"},
			{Name: "bob", Amount: 250.255, Date: "2025-05-03"},
			{Name: "Carol", Amount: 100, Date: "N/A"},
		},
		Products: []domain.ProductQuantity{
			{Name: "Serum", Quantity: 3, Date: "2025-05-01"},
			{Name: "Toner", Quantity: 9, Date: "2025-05-02"},
		},
		Branches: []domain.BranchSales{
			{Branch: "PNH01A", Amount: 10, Date: "2025-05-01"},
			{Branch: "KS003", Amount: 40, Date: "2025-05-01"},
			{Branch: "KCM01B", Amount: 30, Date: "2025-05-02"},
			{Branch: "XYZ", Amount: 99, Date: "2025-05-02"},
		},
		DailyBranches: []string{"PNH01A", "KS003"},
		Daily: []domain.DailyBranchSales{
			{Date: "2025-05-01", Amounts: map[string]float64{"PNH01A": 10, "KS003": 40}},
			{Date: "2025-05-02", Amounts: map[string]float64{"PNH01A": 0, "KS003": 0}},
		},
		PurchaseTypes: []domain.PurchaseTypeCount{{Type: "Online", Count: 1}, {Type: "Walk-in", Count: 4}},
	}
}

func TestCustomersRankStable(t *testing.T) {
	ranked := Customers(sampleAggregates())
	require.Equal(t, []string{"bob", "Alice", "Carol"}, names(ranked))
}

func TestBranchPrefixViews(t *testing.T) {
	agg := sampleAggregates()

	retail := Branches(agg, RetailBranchPrefixes...)
	require.Len(t, retail, 2)
	require.Equal(t, "KCM01B", retail[0].Branch)
	require.Equal(t, "PNH01A", retail[1].Branch)

	stockiest := Branches(agg, StockiestBranchPrefixes...)
	require.Len(t, stockiest, 1)
	require.Equal(t, "KS003", stockiest[0].Branch)

	require.Len(t, Branches(agg), 4)
}

func TestDailyRestrictsBranches(t *testing.T) {
	series := Daily(sampleAggregates(), StockiestBranchPrefixes...)
	require.Equal(t, []string{"KS003"}, series.Branches)
	require.Len(t, series.Days, 2)
	require.Equal(t, map[string]float64{"KS003": 40}, series.Days[0].Amounts)
}

func TestPurchaseTypesRanked(t *testing.T) {
	ranked := PurchaseTypes(sampleAggregates())
	require.Equal(t, "Walk-in", ranked[0].Type)
}

func TestSummarize(t *testing.T) {
	agg := sampleAggregates()
	agg.PurchaseCount = 5
	agg.TotalPromotionQuantity = 2

	s := Summarize(agg)
	require.Equal(t, "450.26", s.TotalSalesDisplay)
	require.InDelta(t, 450.26, s.TotalSales, 1e-9)
	require.Equal(t, "Toner", s.TopProduct.Name)
	require.Equal(t, 9, s.TopProduct.Quantity)
	require.Equal(t, 5, s.PurchaseCount)
	require.Equal(t, 3, s.CustomerCount)
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(&domain.Aggregates{})
	require.Equal(t, "0.00", s.TotalSalesDisplay)
	require.Equal(t, domain.ProductQuantity{Name: "N/A"}, s.TopProduct)
}

func TestFilterIdentityOnAbsentFilters(t *testing.T) {
	list := Customers(sampleAggregates())
	require.Equal(t, list, FilterByDate(list, nil, nil))
	require.Equal(t, list, FilterByDate(list, day("2025-05-01"), nil))
	require.Equal(t, list, FilterBySearch(list, ""))
}

func TestFilterByDateInclusive(t *testing.T) {
	list := []domain.BranchSales{
		{Branch: "A", Date: "2025-05-01"},
		{Branch: "B", Date: "2025-05-03T23:59:59Z"},
		{Branch: "C", Date: "2025-05-04"},
		{Branch: "D", Date: "N/A"},
		{Branch: "E", Date: "4/30/2025 23:59"},
	}

	got := FilterByDate(list, day("2025-05-01"), day("2025-05-03"))
	require.Len(t, got, 2)
	require.Equal(t, "A", got[0].Branch)
	require.Equal(t, "B", got[1].Branch)
}

func TestFilterByDateIdempotent(t *testing.T) {
	list := Customers(sampleAggregates())
	once := FilterByDate(list, day("2025-05-01"), day("2025-05-02"))
	twice := FilterByDate(once, day("2025-05-01"), day("2025-05-02"))
	require.Equal(t, once, twice)
	require.Equal(t, []string{"Alice"}, names(once))
}

func TestFilterBySearch(t *testing.T) {
	customers := FilterBySearch(Customers(sampleAggregates()), "BO")
	require.Equal(t, []string{"bob"}, names(customers))

	branches := FilterBySearch(Branches(sampleAggregates()), "pnh")
	require.Len(t, branches, 1)
	require.Equal(t, "PNH01A", branches[0].Branch)
}

func TestTopDoesNotResort(t *testing.T) {
	list := []int{5, 1, 9, 3}
	require.Equal(t, []int{5, 1}, Top(list, 2))
	require.Equal(t, list, Top(list, 0))
	require.Equal(t, list, Top(list, 10))
}

func TestFormatting(t *testing.T) {
	require.Equal(t, "1234.50", Money(1234.5))
	require.Equal(t, "0.00", Money(0))
	require.Equal(t, "N/A", FormatDate(nil))
	require.Equal(t, "2025-05-01", FormatDate(day("2025-05-01")))

	d, err := ParseDay("")
	require.NoError(t, err)
	require.Nil(t, d)

	_, err = ParseDay("05/01/2025")
	require.Error(t, err)
}

func names(list []domain.CustomerSales) []string {
	out := make([]string, 0, len(list))
	for _, c := range list {
		out = append(out, c.Name)
	}
	return out
}
