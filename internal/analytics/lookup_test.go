package analytics

import (
	"sort"

	"github.com/andresuchdata/salesreport/internal/domain"
)

func findCustomer(agg *domain.Aggregates, name string) (domain.CustomerSales, bool) {
	for _, c := range agg.Customers {
		if c.Name == name {
			return c, true
		}
	}
	return domain.CustomerSales{}, false
}

func findProduct(agg *domain.Aggregates, name string) (domain.ProductQuantity, bool) {
	return findQuantity(agg.Products, name)
}

func findPromotion(agg *domain.Aggregates, name string) (domain.ProductQuantity, bool) {
	return findQuantity(agg.Promotions, name)
}

func findQuantity(list []domain.ProductQuantity, name string) (domain.ProductQuantity, bool) {
	for _, p := range list {
		if p.Name == name {
			return p, true
		}
	}
	return domain.ProductQuantity{}, false
}

func findBranch(agg *domain.Aggregates, code string) (domain.BranchSales, bool) {
	for _, b := range agg.Branches {
		if b.Branch == code {
			return b, true
		}
	}
	return domain.BranchSales{}, false
}

// dailyAmount reads one cell of the dense series, which is sorted by date.
func dailyAmount(agg *domain.Aggregates, branch, date string) float64 {
	i := sort.Search(len(agg.Daily), func(i int) bool { return agg.Daily[i].Date >= date })
	if i < len(agg.Daily) && agg.Daily[i].Date == date {
		return agg.Daily[i].Amounts[branch]
	}
	return 0
}
