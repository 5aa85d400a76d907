/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package convert

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// Sheet names of the XLSX output.
const (
	DataSheetName    = "Data"
	SummarySheetName = "Summary"
)

// columnSeparator splits a text line into table cells.
var columnSeparator = regexp.MustCompile(`\s{2,}`)

// Table is a set of rows detected in the document text.
type Table struct {
	Rows       [][]interface{}
	MaxColumns int
	// NumericCells is the number of cells holding numbers.
	NumericCells int
}

// DetectTable treats every line having at least two cells separated by runs of 2+ spaces as a table row.
// Cells that look like numbers ("1,234", "-5", "3.75") are converted to int64 or float64.
func DetectTable(doc *Document) Table {
	var table Table
	for _, line := range doc.Lines() {
		var cols []string
		for _, col := range columnSeparator.Split(strings.TrimSpace(line), -1) {
			if col = strings.TrimSpace(col); col != "" {
				cols = append(cols, col)
			}
		}
		if len(cols) < 2 {
			continue
		}
		row := make([]interface{}, 0, len(cols))
		for _, col := range cols {
			val := parseCell(col)
			if _, isStr := val.(string); !isStr {
				table.NumericCells++
			}
			row = append(row, val)
		}
		table.Rows = append(table.Rows, row)
		table.MaxColumns = max(table.MaxColumns, len(row))
	}
	return table
}

func parseCell(s string) interface{} {
	num := strings.ReplaceAll(s, ",", "")
	if i, err := strconv.ParseInt(num, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(num, 64); err == nil && !strings.ContainsAny(num, "eEnN") {
		return f
	}
	return s
}

// WriteXLSX writes a workbook with the detected table on the Data sheet and
// processing statistics on the Summary sheet.
func WriteXLSX(w io.Writer, doc *Document) error {
	table := DetectTable(doc)

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", DataSheetName); err != nil {
		return fmt.Errorf("rename default sheet: %w", err)
	}
	for i, row := range table.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err = f.SetSheetRow(DataSheetName, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	if table.MaxColumns > 0 {
		lastCol, err := excelize.ColumnNumberToName(table.MaxColumns)
		if err != nil {
			return err
		}
		if err = f.SetColWidth(DataSheetName, "A", lastCol, 20); err != nil {
			return err
		}
	}

	if _, err := f.NewSheet(SummarySheetName); err != nil {
		return fmt.Errorf("create summary sheet: %w", err)
	}
	summary := [][]interface{}{
		{"Total pages", doc.Info.PageCount},
		{"Total rows", len(table.Rows)},
		{"Max columns", table.MaxColumns},
		{"Numeric cells", table.NumericCells},
		{"Processed at", time.Now().Format(time.DateTime)},
	}
	for i, row := range summary {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err = f.SetSheetRow(SummarySheetName, cell, &row); err != nil {
			return fmt.Errorf("write summary row %d: %w", i+1, err)
		}
	}
	if err := f.SetColWidth(SummarySheetName, "A", "A", 25); err != nil {
		return err
	}
	if err := f.SetColWidth(SummarySheetName, "B", "B", 20); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	return f.Write(w)
}
