// internal/domain/models.go
package domain

import "time"

// Canonical column names every tabular source must carry.
const (
	ColMemberLocalName       = "memberLocalName"
	ColMemberID              = "memberId"
	ColTotalAmount           = "totalAmount"
	ColOrderCount            = "orderCount"
	ColProductName           = "productName"
	ColProductCode           = "productCode"
	ColBranchTransactionCode = "branchTransactionCode"
	ColBranchReceiveCode     = "branchReceiveCode"
	ColPurchaseDate          = "purchaseDate"
	ColPurchaseCode          = "purchaseCode"
	ColPurchaseChannel       = "purchaseChannel"
	ColPurchaseType          = "purchaseType"
	ColTotalThisPrice        = "totalThisPrice"
)

// Field defaults applied during normalization.
const (
	NotAvailable = "N/A"
	Unknown      = "Unknown"
)

// RequiredColumns lists the headers a source must provide, in reporting order.
var RequiredColumns = []string{
	ColMemberLocalName,
	ColMemberID,
	ColTotalAmount,
	ColOrderCount,
	ColProductName,
	ColProductCode,
	ColBranchTransactionCode,
	ColBranchReceiveCode,
	ColPurchaseDate,
	ColPurchaseCode,
	ColPurchaseChannel,
	ColPurchaseType,
	ColTotalThisPrice,
}

// RawRow maps a header name to its raw cell value.
type RawRow map[string]string

// Transaction is one normalized sales line item.
type Transaction struct {
	CustomerName      string  `json:"customerName"`
	MemberID          string  `json:"customerMemberId"`
	ProductName       string  `json:"productName"`
	ProductCode       string  `json:"productCode"`
	BranchCode        string  `json:"branchCode"`
	BranchReceiveCode string  `json:"branchReceiveCode"`
	PurchaseDate      string  `json:"purchaseDate"`
	PurchaseCode      string  `json:"purchaseCode"`
	PurchaseChannel   string  `json:"purchaseChannel"`
	PurchaseType      string  `json:"purchaseType"`
	TotalAmount       float64 `json:"totalAmount"`
	OrderCount        int     `json:"orderCount"`
	TotalThisPrice    float64 `json:"totalThisPrice"`
}

// Eligible reports whether the row carries the keys aggregation depends on.
// Rows failing this check are skipped silently.
func (t Transaction) Eligible() bool {
	return t.CustomerName != "" && t.BranchCode != "" && t.PurchaseCode != ""
}

// DateRange holds the bounds of the parseable purchase dates of a dataset.
// Both bounds are nil when no row had a usable date.
type DateRange struct {
	Start *time.Time `json:"start"`
	End   *time.Time `json:"end"`
}

// IsZero reports whether either bound is missing.
func (r DateRange) IsZero() bool {
	return r.Start == nil || r.End == nil
}
