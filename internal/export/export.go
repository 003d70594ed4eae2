// =============================================================================
// Position Grouper - Export Module
// =============================================================================
//
// This module writes the positions of a session to a file. Every format uses
// the same flat row model: one row per line-item, in position order and then
// item order within the position.
//
// ROW LAYOUT:
//   | A..W (23 import columns) | salary/goods | service | position number |
//
// The first 24 columns match the default import layout, so an exported CSV
// can be imported again.
//
// FORMATS:
//   - csv:  every field quoted, comma decimal separator, UTF-8 BOM
//   - xlsx: one sheet, numeric cells typed as numbers
//   - xml:  <positions><position ...><item>...</item></position></positions>
//
// =============================================================================

package export

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ginjaninja78/position-grouper/internal/config"
	"github.com/ginjaninja78/position-grouper/internal/types"
)

// ErrNothingToExport is returned when there are no positions.
var ErrNothingToExport = errors.New("nothing to export")

// =============================================================================
// FORMAT
// =============================================================================

// Format is an output file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatXML  Format = "xml"
)

// ParseFormat maps a config or flag value to a Format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatXLSX, FormatXML:
		return f, nil
	case "":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("unsupported export format: %s", s)
	}
}

// Extension returns the file extension including the dot.
func (f Format) Extension() string {
	return "." + string(f)
}

// =============================================================================
// OPTIONS
// =============================================================================

// Options contains options for export.
type Options struct {
	// Delimiter separates CSV fields.
	// Default: ';'
	Delimiter rune

	// DecimalSeparator replaces the dot in CSV numbers.
	// Default: ","
	DecimalSeparator string

	// OmitBOM drops the UTF-8 byte order mark from CSV output.
	OmitBOM bool

	// IncomeToken and ExpenseToken are written in the income/expense column.
	IncomeToken  string
	ExpenseToken string

	// SheetName is the XLSX sheet name.
	// Default: "Позиции"
	SheetName string
}

// DefaultOptions returns the default export options.
func DefaultOptions() Options {
	return Options{
		Delimiter:        ';',
		DecimalSeparator: ",",
		IncomeToken:      "Доходы",
		ExpenseToken:     "Расходы",
		SheetName:        "Позиции",
	}
}

// OptionsFromConfig builds Options from the export and import settings.
// The kind tokens come from the import settings so that an exported file
// reads back with the same classification.
func OptionsFromConfig(exp config.ExportSettings, imp config.ImportSettings) Options {
	opts := DefaultOptions()
	for _, r := range exp.Delimiter {
		opts.Delimiter = r
		break
	}
	if exp.DecimalSeparator != "" {
		opts.DecimalSeparator = exp.DecimalSeparator
	}
	opts.OmitBOM = exp.OmitBOM
	if imp.IncomeToken != "" {
		opts.IncomeToken = imp.IncomeToken
	}
	if imp.ExpenseToken != "" {
		opts.ExpenseToken = imp.ExpenseToken
	}
	return opts
}

// kindToken returns the configured token for a kind.
func (o Options) kindToken(k types.Kind) string {
	if k.IsExpense() {
		return o.ExpenseToken
	}
	return o.IncomeToken
}

// =============================================================================
// WRITE FUNCTIONS
// =============================================================================

// Write exports positions to w in the given format.
//
// PARAMETERS:
//   - w: The destination.
//   - format: csv, xlsx or xml.
//   - positions: The positions in display order.
//   - opts: Formatting options.
//
// RETURNS:
//   - ErrNothingToExport if positions is empty.
//   - An error if writing fails.
func Write(w io.Writer, format Format, positions []types.Position, opts Options) error {
	if len(positions) == 0 {
		return ErrNothingToExport
	}

	switch format {
	case FormatCSV:
		return WriteCSV(w, positions, opts)
	case FormatXLSX:
		return WriteXLSX(w, positions, opts)
	case FormatXML:
		return WriteXML(w, positions, opts)
	default:
		return fmt.Errorf("unsupported export format: %s", format)
	}
}

// WriteFile exports positions to a new file at path.
func WriteFile(path string, format Format, positions []types.Position, opts Options) error {
	if len(positions) == 0 {
		return ErrNothingToExport
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	if err := Write(f, format, positions, opts); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}
	return nil
}
