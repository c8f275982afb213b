package ingest

import (
	"github.com/andresuchdata/salesreport/internal/domain"
)

// Normalize validates the header row of grid against required and converts
// the remaining rows into transactions. Nothing is returned when a required
// column is missing.
func Normalize(grid [][]string, required []string) ([]domain.Transaction, error) {
	if len(grid) == 0 {
		return nil, &domain.SchemaError{Missing: append([]string(nil), required...)}
	}

	headers := make([]string, len(grid[0]))
	for i, h := range grid[0] {
		headers[i] = cleanCell(h)
	}

	if err := ValidateHeaders(headers, required); err != nil {
		return nil, err
	}

	return Transactions(Zip(headers, grid[1:])), nil
}

// ValidateHeaders returns a SchemaError naming every required column absent
// from headers, in the order of required.
func ValidateHeaders(headers, required []string) error {
	present := make(map[string]struct{}, len(headers))
	for _, h := range headers {
		present[h] = struct{}{}
	}

	var missing []string
	for _, col := range required {
		if _, ok := present[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return &domain.SchemaError{Missing: missing}
	}
	return nil
}

// Zip pairs each data row with the headers. Absent cells become "" and rows
// with no content at all are dropped. A repeated header keeps its last cell.
func Zip(headers []string, rows [][]string) []domain.RawRow {
	out := make([]domain.RawRow, 0, len(rows))
	for _, record := range rows {
		if blank(record) {
			continue
		}
		row := make(domain.RawRow, len(headers))
		for i, h := range headers {
			value := ""
			if i < len(record) {
				value = cleanCell(record[i])
			}
			row[h] = value
		}
		out = append(out, row)
	}
	return out
}

// Transactions converts zipped rows into typed transactions, applying the
// field defaults. Ineligible rows are kept; aggregation skips them.
func Transactions(rows []domain.RawRow) []domain.Transaction {
	out := make([]domain.Transaction, 0, len(rows))
	for _, row := range rows {
		out = append(out, toTransaction(row))
	}
	return out
}

func toTransaction(row domain.RawRow) domain.Transaction {
	getValue := func(col string) string {
		return row[col]
	}

	getOr := func(col, fallback string) string {
		if v := getValue(col); v != "" {
			return v
		}
		return fallback
	}

	return domain.Transaction{
		CustomerName:      getValue(domain.ColMemberLocalName),
		MemberID:          getOr(domain.ColMemberID, domain.NotAvailable),
		ProductName:       getOr(domain.ColProductName, domain.Unknown),
		ProductCode:       getOr(domain.ColProductCode, domain.NotAvailable),
		BranchCode:        getValue(domain.ColBranchTransactionCode),
		BranchReceiveCode: getOr(domain.ColBranchReceiveCode, domain.NotAvailable),
		PurchaseDate:      getOr(domain.ColPurchaseDate, domain.NotAvailable),
		PurchaseCode:      getValue(domain.ColPurchaseCode),
		PurchaseChannel:   getOr(domain.ColPurchaseChannel, domain.NotAvailable),
		PurchaseType:      getOr(domain.ColPurchaseType, domain.Unknown),
		TotalAmount:       ParseAmount(getValue(domain.ColTotalAmount)),
		OrderCount:        ParseCount(getValue(domain.ColOrderCount)),
		TotalThisPrice:    ParseAmount(getValue(domain.ColTotalThisPrice)),
	}
}

func blank(record []string) bool {
	for _, cell := range record {
		if cleanCell(cell) != "" {
			return false
		}
	}
	return true
}
