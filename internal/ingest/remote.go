package ingest

import (
	"github.com/andresuchdata/salesreport/internal/domain"
)

// fieldMapping translates one canonical column from the published feed.
// The first source header present in a record wins.
type fieldMapping struct {
	canonical string
	sources   []string
	fallback  string
}

var remoteMappings = []fieldMapping{
	{domain.ColMemberLocalName, []string{"CustomerName"}, domain.Unknown},
	{domain.ColMemberID, []string{"MemberId", "Member ID"}, domain.NotAvailable},
	{domain.ColTotalAmount, []string{"Total Sales (All)"}, "0"},
	{domain.ColOrderCount, []string{"Total Sales (All)"}, "0"},
	{domain.ColProductName, []string{"ProductName", "Product Name"}, domain.Unknown},
	{domain.ColProductCode, []string{"SKU"}, domain.NotAvailable},
	{domain.ColBranchTransactionCode, []string{"Branch"}, domain.NotAvailable},
	{domain.ColBranchReceiveCode, []string{"BranchReceive"}, domain.NotAvailable},
	{domain.ColPurchaseDate, []string{"date"}, domain.NotAvailable},
	{domain.ColPurchaseCode, []string{"PurchaseCode", "Bill No"}, domain.NotAvailable},
	{domain.ColPurchaseChannel, []string{"Channel"}, domain.NotAvailable},
	{domain.ColPurchaseType, []string{"Type"}, domain.Unknown},
	{domain.ColTotalThisPrice, []string{"Total Price (All)"}, "0"},
}

// RemapRecord converts a feed record into the canonical row shape.
func RemapRecord(record map[string]string) domain.RawRow {
	row := make(domain.RawRow, len(remoteMappings))
	for _, m := range remoteMappings {
		value := ""
		for _, src := range m.sources {
			if v := cleanCell(record[src]); v != "" {
				value = v
				break
			}
		}
		if value == "" {
			value = m.fallback
		}
		row[m.canonical] = value
	}
	return row
}

// NormalizeRecords remaps feed records and validates them like a grid.
func NormalizeRecords(records []map[string]string, required []string) ([]domain.Transaction, error) {
	rows := make([]domain.RawRow, 0, len(records))
	for _, record := range records {
		rows = append(rows, RemapRecord(record))
	}

	headers := make([]string, 0, len(remoteMappings))
	for _, m := range remoteMappings {
		headers = append(headers, m.canonical)
	}
	if err := ValidateHeaders(headers, required); err != nil {
		return nil, err
	}

	return Transactions(rows), nil
}

// Records turns a header-row grid into named records, as the feed is parsed.
func Records(grid [][]string) []map[string]string {
	if len(grid) == 0 {
		return nil
	}
	zipped := make([]string, len(grid[0]))
	for i, h := range grid[0] {
		zipped[i] = cleanCell(h)
	}
	rows := Zip(zipped, grid[1:])
	out := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		out = append(out, map[string]string(row))
	}
	return out
}
