package export

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/ginjaninja78/position-grouper/internal/types"
)

// WriteCSV writes positions as CSV.
//
// Every field is quoted and embedded quotes are doubled; encoding/csv only
// quotes when needed, which some accounting imports reject. Numbers use
// opts.DecimalSeparator and the file starts with a UTF-8 BOM unless
// opts.OmitBOM is set.
func WriteCSV(w io.Writer, positions []types.Position, opts Options) error {
	if len(positions) == 0 {
		return ErrNothingToExport
	}
	if opts.Delimiter == 0 {
		opts.Delimiter = ';'
	}

	bw := bufio.NewWriter(w)

	if !opts.OmitBOM {
		bw.WriteString("\ufeff")
	}

	writeRecord(bw, Headers, opts.Delimiter)
	for _, row := range Flatten(positions) {
		writeRecord(bw, row.Strings(opts), opts.Delimiter)
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}
	return nil
}

// writeRecord writes one quoted record. Errors surface on Flush.
func writeRecord(bw *bufio.Writer, fields []string, delimiter rune) {
	for i, field := range fields {
		if i > 0 {
			bw.WriteRune(delimiter)
		}
		bw.WriteByte('"')
		bw.WriteString(strings.ReplaceAll(field, `"`, `""`))
		bw.WriteByte('"')
	}
	bw.WriteString("\r\n")
}
