package report

import (
	"sort"
	"strings"

	"github.com/andresuchdata/salesreport/internal/domain"
)

// Default branch code prefixes for the two branch views.
var (
	RetailBranchPrefixes    = []string{"PNH01", "KCM01"}
	StockiestBranchPrefixes = []string{"KS"}
)

// DailySeries is the per-day branch series restricted to a set of branches.
type DailySeries struct {
	Branches []string                  `json:"branches"`
	Days     []domain.DailyBranchSales `json:"days"`
}

// Customers ranks customers by amount, descending. Ties keep first-seen order.
func Customers(agg *domain.Aggregates) []domain.CustomerSales {
	out := append([]domain.CustomerSales(nil), agg.Customers...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Amount > out[j].Amount })
	return out
}

// Products ranks non-promotional products by quantity, descending.
func Products(agg *domain.Aggregates) []domain.ProductQuantity {
	return rankByQuantity(agg.Products)
}

// Promotions ranks promotional products by quantity, descending.
func Promotions(agg *domain.Aggregates) []domain.ProductQuantity {
	return rankByQuantity(agg.Promotions)
}

// Branches ranks branches by amount, keeping only codes that start with one
// of prefixes. No prefixes keeps every branch.
func Branches(agg *domain.Aggregates, prefixes ...string) []domain.BranchSales {
	out := make([]domain.BranchSales, 0, len(agg.Branches))
	for _, b := range agg.Branches {
		if hasAnyPrefix(b.Branch, prefixes) {
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Amount > out[j].Amount })
	return out
}

// Daily restricts the dense daily series to branches matching prefixes.
func Daily(agg *domain.Aggregates, prefixes ...string) DailySeries {
	var branches []string
	for _, b := range agg.DailyBranches {
		if hasAnyPrefix(b, prefixes) {
			branches = append(branches, b)
		}
	}

	days := make([]domain.DailyBranchSales, 0, len(agg.Daily))
	for _, d := range agg.Daily {
		amounts := make(map[string]float64, len(branches))
		for _, b := range branches {
			amounts[b] = d.Amounts[b]
		}
		days = append(days, domain.DailyBranchSales{Date: d.Date, Amounts: amounts})
	}
	return DailySeries{Branches: branches, Days: days}
}

// PurchaseTypes ranks purchase types by distinct purchase count.
func PurchaseTypes(agg *domain.Aggregates) []domain.PurchaseTypeCount {
	out := append([]domain.PurchaseTypeCount(nil), agg.PurchaseTypes...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

func rankByQuantity(list []domain.ProductQuantity) []domain.ProductQuantity {
	out := append([]domain.ProductQuantity(nil), list...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Quantity > out[j].Quantity })
	return out
}

func hasAnyPrefix(s string, prefixes []string) bool {
	if len(prefixes) == 0 {
		return true
	}
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
