// =============================================================================
// Position Grouper - CSV Import Module
// =============================================================================
//
// This module reads line-items from CSV files: accounting exports saved as
// CSV and files previously written by the CSV exporter. The column layout is
// the same as the XLSX import (config.ColumnMapping); extra trailing columns
// such as service and position number are ignored.
//
// PARSING PIPELINE:
//   1. Strip a UTF-8 byte order mark
//   2. Configure the CSV reader (delimiter, lazy quotes, ragged rows)
//   3. Skip the configured header rows
//   4. Map each remaining row to a line-item
//
// =============================================================================

package csvparser

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/ginjaninja78/position-grouper/internal/config"
	"github.com/ginjaninja78/position-grouper/internal/xlsxparser"
)

// utf8BOM is written by spreadsheet tools and by the CSV exporter.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Parse reads a CSV import file.
//
// PARAMETERS:
//   - filePath: The path to the CSV file.
//   - settings: Delimiter, header rows, tokens and column layout.
//
// RETURNS:
//   - The imported items, in the same structure as the XLSX importer.
//   - An error if the file cannot be read or holds no usable rows.
func Parse(filePath string, settings config.ImportSettings) (*xlsxparser.ImportData, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	data, err := ParseReader(file, settings)
	if err != nil {
		return nil, err
	}
	data.FilePath = filePath

	return data, nil
}

// ParseReader reads a CSV import from r.
func ParseReader(r io.Reader, settings config.ImportSettings) (*xlsxparser.ImportData, error) {
	mapper, err := xlsxparser.NewRowMapper(settings)
	if err != nil {
		return nil, err
	}

	reader := bufio.NewReader(r)
	if head, err := reader.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = reader.Discard(len(utf8BOM))
	}

	csvReader := csv.NewReader(reader)
	configureReader(csvReader, settings)

	allRows, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}

	if len(allRows) == 0 {
		return nil, fmt.Errorf("CSV file is empty")
	}

	data := &xlsxparser.ImportData{}
	for i := settings.HeaderRows; i < len(allRows); i++ {
		data.Add(mapper, allRows[i], i+1)
	}

	if len(data.Items) == 0 {
		return nil, fmt.Errorf("CSV file has no data rows")
	}

	return data, nil
}

// configureReader configures the CSV reader based on the settings.
func configureReader(reader *csv.Reader, settings config.ImportSettings) {
	switch settings.Delimiter {
	case "\\t", "tab", "TAB":
		reader.Comma = '\t'
	case "|", "pipe", "PIPE":
		reader.Comma = '|'
	case ",", "comma":
		reader.Comma = ','
	default:
		reader.Comma = ';'
		for _, r := range settings.Delimiter {
			reader.Comma = r
			break
		}
	}

	// Allow variable number of fields per row.
	reader.FieldsPerRecord = -1

	// Allow lazy quotes (quotes that don't follow strict CSV rules).
	reader.LazyQuotes = true

	reader.TrimLeadingSpace = true
}
