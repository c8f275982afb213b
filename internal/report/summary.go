package report

import (
	"github.com/andresuchdata/salesreport/internal/domain"
	"github.com/shopspring/decimal"
)

// Summary carries the headline figures of a dataset.
type Summary struct {
	TotalSales                float64                `json:"totalSales"`
	TotalSalesDisplay         string                 `json:"totalSalesDisplay"`
	PurchaseCount             int                    `json:"purchaseCount"`
	NonStockiestPurchaseCount int                    `json:"nonStockiestPurchaseCount"`
	TotalPromotionQuantity    int                    `json:"totalPromotionQuantity"`
	TopProduct                domain.ProductQuantity `json:"topProduct"`
	CustomerCount             int                    `json:"customerCount"`
	ProductCount              int                    `json:"productCount"`
	BranchCount               int                    `json:"branchCount"`
}

// Summarize computes the summary. Total sales sums customer amounts, so
// stockiest sales counted on branches are not included.
func Summarize(agg *domain.Aggregates) Summary {
	total := decimal.Zero
	for _, c := range agg.Customers {
		total = total.Add(decimal.NewFromFloat(c.Amount))
	}
	total = total.Round(2)

	top := domain.ProductQuantity{Name: domain.NotAvailable, Quantity: 0}
	if ranked := Products(agg); len(ranked) > 0 {
		top = ranked[0]
	}

	return Summary{
		TotalSales:                total.InexactFloat64(),
		TotalSalesDisplay:         total.StringFixed(2),
		PurchaseCount:             agg.PurchaseCount,
		NonStockiestPurchaseCount: agg.NonStockiestPurchaseCount,
		TotalPromotionQuantity:    agg.TotalPromotionQuantity,
		TopProduct:                top,
		CustomerCount:             len(agg.Customers),
		ProductCount:              len(agg.Products),
		BranchCount:               len(agg.Branches),
	}
}
