package ingest

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/andresuchdata/salesreport/internal/domain"
	"github.com/shakinm/xlsReader/xls"
	"github.com/xuri/excelize/v2"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Decode turns the bytes of a spreadsheet source into a grid of cells,
// choosing the decoder by file extension. Only the first sheet of workbook
// formats is read.
func Decode(fileName string, r io.Reader) ([][]string, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	switch ext {
	case ".csv":
		return DecodeCSV(r)
	case ".xlsx":
		return decodeXLSX(r)
	case ".xls":
		return decodeXLS(r)
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, ext)
	}
}

// SupportedFile reports whether Decode accepts the file name.
func SupportedFile(fileName string) bool {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".csv", ".xlsx", ".xls":
		return true
	}
	return false
}

// DecodeCSV reads comma separated text leniently: rows may vary in width
// and stray quotes are kept.
func DecodeCSV(r io.Reader) ([][]string, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	grid, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: parse csv: %w", domain.ErrReadFailure, err)
	}
	return grid, nil
}

func decodeXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: open xlsx: %w", domain.ErrReadFailure, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: xlsx has no sheets", domain.ErrReadFailure)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet %s: %w", domain.ErrReadFailure, sheets[0], err)
	}
	return rows, nil
}

// decodeXLS spools the workbook to a temp file since the reader only opens paths.
func decodeXLS(r io.Reader) ([][]string, error) {
	tempFile, err := os.CreateTemp("", "salesreport-*.xls")
	if err != nil {
		return nil, fmt.Errorf("%w: create temp file: %w", domain.ErrReadFailure, err)
	}
	defer os.Remove(tempFile.Name())
	defer tempFile.Close()

	if _, err := io.Copy(tempFile, r); err != nil {
		return nil, fmt.Errorf("%w: spool xls: %w", domain.ErrReadFailure, err)
	}
	tempFile.Close()

	workbook, err := xls.OpenFile(tempFile.Name())
	if err != nil {
		return nil, fmt.Errorf("%w: open xls: %w", domain.ErrReadFailure, err)
	}
	if workbook.GetNumberSheets() == 0 {
		return nil, fmt.Errorf("%w: xls has no sheets", domain.ErrReadFailure)
	}

	sheet, err := workbook.GetSheet(0)
	if err != nil || sheet == nil {
		return nil, fmt.Errorf("%w: read first sheet: %v", domain.ErrReadFailure, err)
	}

	var grid [][]string
	for i := 0; i <= int(sheet.GetNumberRows()); i++ {
		row, err := sheet.GetRow(i)
		if err != nil || row == nil {
			grid = append(grid, nil)
			continue
		}

		var cells []string
		for _, col := range row.GetCols() {
			if col != nil {
				cells = append(cells, col.GetString())
			} else {
				cells = append(cells, "")
			}
		}
		grid = append(grid, cells)
	}
	return grid, nil
}
