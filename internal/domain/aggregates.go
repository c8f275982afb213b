package domain

import (
	"encoding/json"
	"fmt"
)

// CustomerSales accumulates non-stockiest sales for one customer.
type CustomerSales struct {
	Name        string   `json:"name"`
	Amount      float64  `json:"amount"`
	Date        string   `json:"date"`
	MemberIDs   []string `json:"memberIds"`
	MemberID    string   `json:"memberId"`
	StockiestID string   `json:"stockiestId"`
}

func (c CustomerSales) SearchKey() string { return c.Name }
func (c CustomerSales) EntryDate() string { return c.Date }

// ProductQuantity accumulates sold quantity for one product name. The same
// shape is used for ordinary and promotional products.
type ProductQuantity struct {
	Name       string  `json:"name"`
	Quantity   int     `json:"quantity"`
	TotalPrice float64 `json:"totalPrice"`
	Date       string  `json:"date"`
	ProductID  string  `json:"productId"`
}

func (p ProductQuantity) SearchKey() string { return p.Name }
func (p ProductQuantity) EntryDate() string { return p.Date }

// BranchSales accumulates sales for one branch transaction code.
type BranchSales struct {
	Branch string  `json:"branch"`
	Amount float64 `json:"amount"`
	Date   string  `json:"date"`
}

func (b BranchSales) SearchKey() string { return b.Branch }
func (b BranchSales) EntryDate() string { return b.Date }

// DailyBranchSales is one date of the dense per-branch series. Amounts holds
// an entry for every branch of the series, zero when the branch had no sales
// on that date.
type DailyBranchSales struct {
	Date    string
	Amounts map[string]float64
}

func (d DailyBranchSales) SearchKey() string { return d.Date }
func (d DailyBranchSales) EntryDate() string { return d.Date }

// MarshalJSON flattens the record into {"date": ..., "<branch>": amount}.
func (d DailyBranchSales) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(d.Amounts)+1)
	for branch, amount := range d.Amounts {
		out[branch] = amount
	}
	out["date"] = d.Date
	return json.Marshal(out)
}

func (d *DailyBranchSales) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	date, ok := raw["date"]
	if !ok {
		return fmt.Errorf("daily branch sales: missing date")
	}
	if err := json.Unmarshal(date, &d.Date); err != nil {
		return fmt.Errorf("daily branch sales: decode date: %w", err)
	}
	d.Amounts = make(map[string]float64, len(raw)-1)
	for key, value := range raw {
		if key == "date" {
			continue
		}
		var amount float64
		if err := json.Unmarshal(value, &amount); err != nil {
			return fmt.Errorf("daily branch sales: decode %s: %w", key, err)
		}
		d.Amounts[key] = amount
	}
	return nil
}

// PurchaseTypeCount is the number of distinct non-stockiest purchase codes
// seen for a purchase type.
type PurchaseTypeCount struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

func (p PurchaseTypeCount) SearchKey() string { return p.Type }
func (p PurchaseTypeCount) EntryDate() string { return "" }

// Aggregates is the full result of one aggregation pass. Keyed collections
// keep the order in which their keys were first seen.
type Aggregates struct {
	Customers                 []CustomerSales     `json:"salesByCustomer"`
	Products                  []ProductQuantity   `json:"quantityByProduct"`
	Promotions                []ProductQuantity   `json:"quantityPromotionProducts"`
	Branches                  []BranchSales       `json:"salesByBranch"`
	DailyBranches             []string            `json:"dailyBranches"`
	Daily                     []DailyBranchSales  `json:"salesByBranchDaily"`
	PurchaseTypes             []PurchaseTypeCount `json:"purchaseTypes"`
	PurchaseCount             int                 `json:"purchaseCount"`
	NonStockiestPurchaseCount int                 `json:"nonStockiestPurchaseCount"`
	TotalPromotionQuantity    int                 `json:"totalPromotionQuantity"`
}
