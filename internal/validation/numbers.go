package validation

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ginjaninja78/position-grouper/internal/positions"
)

// ParseAmount parses an operator-typed amount. Spaces (including
// non-breaking) are thousands separators and a comma is accepted as the
// decimal separator. Empty, unparsable, non-finite or out-of-range input
// fails with positions.ErrInvalidNumericInput.
func ParseAmount(s string) (float64, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\u00a0', '\u202f', '\t':
			return -1
		case ',':
			return '.'
		}
		return r
	}, s)

	if cleaned == "" {
		return 0, fmt.Errorf("%w: empty amount", positions.ErrInvalidNumericInput)
	}

	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", positions.ErrInvalidNumericInput, s)
	}
	if err := positions.CheckAmount(v); err != nil {
		return 0, err
	}

	return v, nil
}

// ParseNumber leniently parses an imported cell: every character other than
// digits, '.', ',' and '-' is dropped and a comma becomes a decimal point.
// It reports false when nothing numeric is left.
func ParseNumber(s string) (float64, bool) {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r == '.', r == '-':
			b.WriteRune(r)
		case r == ',':
			b.WriteRune('.')
		}
	}

	v, err := strconv.ParseFloat(b.String(), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// ParseIntOrDefault parses an imported integer cell, truncating decimals,
// and returns def when the cell holds no number.
func ParseIntOrDefault(s string, def int) int {
	v, ok := ParseNumber(s)
	if !ok {
		return def
	}
	return int(v)
}
