// =============================================================================
// Position Grouper - XLSX Import Module
// =============================================================================
//
// This module reads the accounting export workbook and produces line-items.
//
// WORKBOOK STRUCTURE:
//   One sheet (the first, unless configured), one header row, then one row
//   per line-item in the column layout of config.ColumnMapping:
//
//   | A  | B          | C             | ... | R       | S        | ... | W              |
//   |----|------------|---------------|-----|---------|----------|-----|----------------|
//   | id | unique key | position name | ... | revenue | quantity | ... | income/expense |
//
// Cells are read raw so that dates arrive as Excel serials and numbers are
// not locale-formatted.
//
// =============================================================================

package xlsxparser

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/position-grouper/internal/config"
	"github.com/ginjaninja78/position-grouper/internal/types"
)

// =============================================================================
// IMPORT DATA STRUCTURE
// =============================================================================

// ImportData is the result of reading one import file.
type ImportData struct {
	// FilePath is the source file, empty for readers.
	FilePath string

	// SheetName is the sheet that was read.
	SheetName string

	// Items are the imported line-items in row order.
	Items []types.LineItem

	// RowNumbers holds the 1-based source row of each item.
	RowNumbers []int

	// TotalRows counts data rows after the header.
	TotalRows int

	// SkippedRows counts empty rows and rows without an id.
	SkippedRows int
}

// IDs returns the imported item ids in order.
func (d *ImportData) IDs() []string {
	ids := make([]string, len(d.Items))
	for i, item := range d.Items {
		ids[i] = item.ID
	}
	return ids
}

// Add maps and appends one row. It is exported for the CSV importer.
func (d *ImportData) Add(m *RowMapper, row []string, rowNumber int) {
	d.TotalRows++
	if isRowEmpty(row) {
		d.SkippedRows++
		return
	}

	item, ok := m.Map(row, rowNumber)
	if !ok {
		d.SkippedRows++
		return
	}

	d.Items = append(d.Items, item)
	d.RowNumbers = append(d.RowNumbers, rowNumber)
}

// =============================================================================
// PARSING FUNCTIONS
// =============================================================================

// Parse reads an XLSX import file.
//
// PARAMETERS:
//   - filePath: The path to the workbook.
//   - settings: Sheet, header rows, tokens and column layout.
//
// RETURNS:
//   - The imported items.
//   - An error if the file cannot be read or holds no usable rows.
func Parse(filePath string, settings config.ImportSettings) (*ImportData, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open import file: %w", err)
	}
	defer f.Close()

	data, err := parseFile(f, settings)
	if err != nil {
		return nil, err
	}
	data.FilePath = filePath

	return data, nil
}

// ParseReader reads an XLSX import from r.
func ParseReader(r io.Reader, settings config.ImportSettings) (*ImportData, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open import workbook: %w", err)
	}
	defer f.Close()

	return parseFile(f, settings)
}

// parseFile reads the configured sheet of an open workbook.
func parseFile(f *excelize.File, settings config.ImportSettings) (*ImportData, error) {
	mapper, err := NewRowMapper(settings)
	if err != nil {
		return nil, err
	}

	sheetName := settings.Sheet
	if sheetName == "" {
		sheetName = f.GetSheetName(0)
	}
	if sheetName == "" {
		return nil, fmt.Errorf("import file has no sheets")
	}

	rows, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	data := &ImportData{SheetName: sheetName}
	for i := settings.HeaderRows; i < len(rows); i++ {
		data.Add(mapper, rows[i], i+1)
	}

	if len(data.Items) == 0 {
		return nil, fmt.Errorf("import file has no data rows")
	}

	return data, nil
}
