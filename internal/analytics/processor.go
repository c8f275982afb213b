// internal/analytics/processor.go
package analytics

import (
	"sort"
	"strings"

	"github.com/andresuchdata/salesreport/internal/domain"
	"github.com/andresuchdata/salesreport/internal/ingest"
)

const (
	stockiestChannelPrefix = "STOCKIEST"
	promotionCodePrefix    = "P"
	stockiestBranchPrefix  = "KS"
)

// accumulator holds the keyed state of a single aggregation pass. Each index
// maps a key to its position in the matching ordered slice.
type accumulator struct {
	result *domain.Aggregates

	customerIdx  map[string]int
	memberSeen   []map[string]struct{}
	productIdx   map[string]int
	promotionIdx map[string]int
	branchIdx    map[string]int

	daily         map[string]map[string]float64
	dailyBranches []string

	purchaseCodes     map[string]struct{}
	nonStockiestCodes map[string]struct{}
	purchaseTypeIdx   map[string]int
	purchaseTypeCodes []map[string]struct{}
}

// Aggregate folds the rows into a fresh result in one forward pass. Sums do
// not depend on row order, but the date kept on each keyed entry is the date
// of the row that created the entry, so reordering input can change it.
func Aggregate(rows []domain.Transaction) *domain.Aggregates {
	acc := &accumulator{
		result:            &domain.Aggregates{},
		customerIdx:       make(map[string]int),
		productIdx:        make(map[string]int),
		promotionIdx:      make(map[string]int),
		branchIdx:         make(map[string]int),
		daily:             make(map[string]map[string]float64),
		purchaseCodes:     make(map[string]struct{}),
		nonStockiestCodes: make(map[string]struct{}),
		purchaseTypeIdx:   make(map[string]int),
	}

	for _, row := range rows {
		if !row.Eligible() {
			continue
		}
		acc.add(row)
	}

	return acc.finish()
}

func (a *accumulator) add(row domain.Transaction) {
	stockiest := strings.HasPrefix(row.PurchaseChannel, stockiestChannelPrefix)

	if row.TotalAmount > 0 && !stockiest {
		a.addCustomer(row)
	}

	if row.OrderCount > 0 &&
		row.ProductName != domain.Unknown &&
		!strings.HasPrefix(row.ProductCode, promotionCodePrefix) &&
		!strings.HasPrefix(row.BranchReceiveCode, stockiestBranchPrefix) {
		addProduct(&a.result.Products, a.productIdx, row)
	}

	if row.OrderCount > 0 && strings.HasPrefix(row.ProductCode, promotionCodePrefix) {
		addProduct(&a.result.Promotions, a.promotionIdx, row)
		a.result.TotalPromotionQuantity += row.OrderCount
	}

	if row.TotalAmount > 0 {
		a.addBranch(row)
	}

	if day, ok := ingest.DayKey(row.PurchaseDate); ok {
		a.addDaily(row.BranchCode, day, row.TotalAmount)
	}

	a.purchaseCodes[row.PurchaseCode] = struct{}{}

	if !stockiest {
		a.nonStockiestCodes[row.PurchaseCode] = struct{}{}
		a.addPurchaseType(row)
	}
}

func (a *accumulator) addCustomer(row domain.Transaction) {
	i, ok := a.customerIdx[row.CustomerName]
	if !ok {
		i = len(a.result.Customers)
		a.customerIdx[row.CustomerName] = i
		a.result.Customers = append(a.result.Customers, domain.CustomerSales{
			Name: row.CustomerName,
			Date: row.PurchaseDate,
		})
		a.memberSeen = append(a.memberSeen, make(map[string]struct{}))
	}

	c := &a.result.Customers[i]
	c.Amount += row.TotalAmount

	if row.MemberID != "" && row.MemberID != domain.NotAvailable {
		if _, seen := a.memberSeen[i][row.MemberID]; !seen {
			a.memberSeen[i][row.MemberID] = struct{}{}
			c.MemberIDs = append(c.MemberIDs, row.MemberID)
		}
	}
}

func addProduct(list *[]domain.ProductQuantity, idx map[string]int, row domain.Transaction) {
	i, ok := idx[row.ProductName]
	if !ok {
		i = len(*list)
		idx[row.ProductName] = i
		*list = append(*list, domain.ProductQuantity{
			Name:      row.ProductName,
			Date:      row.PurchaseDate,
			ProductID: row.ProductCode,
		})
	}

	p := &(*list)[i]
	p.Quantity += row.OrderCount
	p.TotalPrice += row.TotalThisPrice
}

func (a *accumulator) addBranch(row domain.Transaction) {
	i, ok := a.branchIdx[row.BranchCode]
	if !ok {
		i = len(a.result.Branches)
		a.branchIdx[row.BranchCode] = i
		a.result.Branches = append(a.result.Branches, domain.BranchSales{
			Branch: row.BranchCode,
			Date:   row.PurchaseDate,
		})
	}
	a.result.Branches[i].Amount += row.TotalAmount
}

func (a *accumulator) addDaily(branch, day string, amount float64) {
	days, ok := a.daily[branch]
	if !ok {
		days = make(map[string]float64)
		a.daily[branch] = days
		a.dailyBranches = append(a.dailyBranches, branch)
	}
	days[day] += amount
}

func (a *accumulator) addPurchaseType(row domain.Transaction) {
	i, ok := a.purchaseTypeIdx[row.PurchaseType]
	if !ok {
		i = len(a.result.PurchaseTypes)
		a.purchaseTypeIdx[row.PurchaseType] = i
		a.result.PurchaseTypes = append(a.result.PurchaseTypes, domain.PurchaseTypeCount{Type: row.PurchaseType})
		a.purchaseTypeCodes = append(a.purchaseTypeCodes, make(map[string]struct{}))
	}
	a.purchaseTypeCodes[i][row.PurchaseCode] = struct{}{}
}

func (a *accumulator) finish() *domain.Aggregates {
	res := a.result

	for i := range res.Customers {
		res.Customers[i].MemberID, res.Customers[i].StockiestID = SplitMemberIDs(res.Customers[i].MemberIDs)
	}

	for i := range res.PurchaseTypes {
		res.PurchaseTypes[i].Count = len(a.purchaseTypeCodes[i])
	}

	res.PurchaseCount = len(a.purchaseCodes)
	res.NonStockiestPurchaseCount = len(a.nonStockiestCodes)
	res.DailyBranches = a.dailyBranches
	res.Daily = reshapeDaily(a.daily, a.dailyBranches)

	return res
}

// reshapeDaily builds one record per distinct date, ascending, carrying an
// amount for every branch.
func reshapeDaily(daily map[string]map[string]float64, branches []string) []domain.DailyBranchSales {
	seen := make(map[string]struct{})
	var dates []string
	for _, days := range daily {
		for day := range days {
			if _, ok := seen[day]; !ok {
				seen[day] = struct{}{}
				dates = append(dates, day)
			}
		}
	}
	sort.Strings(dates)

	out := make([]domain.DailyBranchSales, 0, len(dates))
	for _, day := range dates {
		amounts := make(map[string]float64, len(branches))
		for _, branch := range branches {
			amounts[branch] = daily[branch][day]
		}
		out = append(out, domain.DailyBranchSales{Date: day, Amounts: amounts})
	}
	return out
}

// SplitMemberIDs classifies a customer's ids in insertion order. The first
// id containing an ASCII letter is the stockiest id, the first without one is the
// member id; later ids of an already filled class are ignored.
func SplitMemberIDs(ids []string) (memberID, stockiestID string) {
	memberID, stockiestID = domain.NotAvailable, domain.NotAvailable
	memberSet, stockiestSet := false, false

	for _, id := range ids {
		if hasLetter(id) {
			if !stockiestSet {
				stockiestID, stockiestSet = id, true
			}
		} else if !memberSet {
			memberID, memberSet = id, true
		}
	}
	return memberID, stockiestID
}

// hasLetter reports whether s holds an ASCII letter. Stockiest ids are
// Latin-coded (KS003); other scripts do not mark an id as stockiest.
func hasLetter(s string) bool {
	for i := 0; i < len(s); i++ {
		if c := s[i] | 0x20; c >= 'a' && c <= 'z' {
			return true
		}
	}
	return false
}
