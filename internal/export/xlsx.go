package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/position-grouper/internal/types"
)

// WriteXLSX writes positions as a single-sheet workbook. Amounts and
// counts are stored as numeric cells.
func WriteXLSX(w io.Writer, positions []types.Position, opts Options) error {
	if len(positions) == 0 {
		return ErrNothingToExport
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := opts.SheetName
	if sheet == "" {
		sheet = DefaultOptions().SheetName
	}
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]interface{}, len(Headers))
	for i, h := range Headers {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	lastCol, err := excelize.ColumnNumberToName(len(Headers))
	if err != nil {
		return fmt.Errorf("failed to resolve header range: %w", err)
	}
	if err := f.SetCellStyle(sheet, "A1", lastCol+"1", bold); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	for i, row := range Flatten(positions) {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("failed to address row %d: %w", i+2, err)
		}
		values := row.Values(opts)
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
