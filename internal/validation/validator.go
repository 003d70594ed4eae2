// =============================================================================
// Position Grouper - Validation Engine
// =============================================================================
//
// This module validates imported line-items and the session state that the
// engine produces from them.
//
// VALIDATION STRATEGY:
//   Validation is performed at two levels:
//   1. Row-level: each imported line-item on its own (amounts, quantity,
//      month, VAT components) plus id uniqueness across the import.
//   2. State-level: the session after a plan is applied (no id in two
//      places, cached rollups equal to the fold of items, expense amounts
//      stored non-positive, nothing lost since import).
//
// ERROR HANDLING:
//   - Errors are collected, not returned on the first problem
//   - Each error carries the row, item id and field involved
//   - Errors are warnings (continue processing) or errors (stop processing)
//
// =============================================================================

package validation

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ginjaninja78/position-grouper/internal/positions"
	"github.com/ginjaninja78/position-grouper/internal/types"
)

// =============================================================================
// VALIDATION ERROR TYPES
// =============================================================================

// Severity levels.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// componentTolerance is the largest accepted gap between revenue and
// SumWithoutVAT + VATAmount.
const componentTolerance = 0.01

// ValidationError represents a single validation finding.
type ValidationError struct {
	// Severity is SeverityError or SeverityWarning.
	Severity string

	// Field is the name of the field that failed validation.
	Field string

	// Value is the offending value, formatted.
	Value string

	// Rule is the validation rule that was violated.
	Rule string

	// Message is a human-readable error message.
	Message string

	// ItemID is the line-item id, when known.
	ItemID string

	// RowNumber is the import row (1-based), 0 for state checks.
	RowNumber int

	// PositionNumber is set for state checks on a position.
	PositionNumber int
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	var where []string
	if e.RowNumber > 0 {
		where = append(where, fmt.Sprintf("Row %d", e.RowNumber))
	}
	if e.PositionNumber > 0 {
		where = append(where, fmt.Sprintf("Position %d", e.PositionNumber))
	}
	if e.ItemID != "" {
		where = append(where, fmt.Sprintf("Item %s", e.ItemID))
	}
	if e.Field != "" {
		where = append(where, fmt.Sprintf("Field '%s'", e.Field))
	}

	msg := fmt.Sprintf("[%s] %s: %s", strings.ToUpper(e.Severity), strings.Join(where, ", "), e.Message)
	if e.Value != "" {
		msg += fmt.Sprintf(" (value: '%s')", e.Value)
	}
	return msg
}

// =============================================================================
// VALIDATION RESULT
// =============================================================================

// ValidationResult contains the results of validation.
type ValidationResult struct {
	// IsValid is true if there are no fatal errors.
	IsValid bool

	// Errors contains all findings, warnings included.
	Errors []*ValidationError

	// ErrorCount is the number of fatal errors.
	ErrorCount int

	// WarningCount is the number of warnings.
	WarningCount int

	// ItemsValidated is the number of line-items checked.
	ItemsValidated int
}

func (r *ValidationResult) add(e *ValidationError) {
	r.Errors = append(r.Errors, e)
	if e.Severity == SeverityError {
		r.ErrorCount++
	} else {
		r.WarningCount++
	}
}

func (r *ValidationResult) finish() *ValidationResult {
	r.IsValid = r.ErrorCount == 0
	return r
}

// =============================================================================
// ROW-LEVEL VALIDATION
// =============================================================================

// ValidateItems checks imported line-items.
//
// PARAMETERS:
//   - items: The imported items.
//   - rows: The source row of each item, parallel to items. May be nil.
//
// RETURNS:
//   - The collected findings.
func ValidateItems(items []types.LineItem, rows []int) *ValidationResult {
	result := &ValidationResult{ItemsValidated: len(items)}
	firstRow := make(map[string]int, len(items))

	for i, item := range items {
		row := 0
		if i < len(rows) {
			row = rows[i]
		}

		if prev, seen := firstRow[item.ID]; seen {
			result.add(&ValidationError{
				Severity:  SeverityError,
				Field:     "id",
				Value:     item.ID,
				Rule:      "unique",
				Message:   fmt.Sprintf("duplicate id, first seen on row %d", prev),
				ItemID:    item.ID,
				RowNumber: row,
			})
		} else {
			firstRow[item.ID] = row
		}

		for _, e := range validateItem(item) {
			e.RowNumber = row
			result.add(e)
		}
	}

	return result.finish()
}

// validateItem runs the per-item rules.
func validateItem(item types.LineItem) []*ValidationError {
	var errs []*ValidationError
	add := func(severity, field, value, rule, message string) {
		errs = append(errs, &ValidationError{
			Severity: severity,
			Field:    field,
			Value:    value,
			Rule:     rule,
			Message:  message,
			ItemID:   item.ID,
		})
	}

	amounts := map[string]float64{
		"revenue":         item.Revenue,
		"sum_without_vat": item.SumWithoutVAT,
		"vat_amount":      item.VATAmount,
	}
	finite := true
	for _, field := range []string{"revenue", "sum_without_vat", "vat_amount"} {
		v := amounts[field]
		if math.IsNaN(v) || math.IsInf(v, 0) {
			add(SeverityError, field, fmt.Sprint(v), "finite", "amount is not a finite number")
			finite = false
		}
	}

	if strings.TrimSpace(item.PositionName) == "" {
		add(SeverityWarning, "position_name", "", "required", "position name is empty")
	}

	if item.Quantity < 1 {
		add(SeverityWarning, "quantity", fmt.Sprint(item.Quantity), "min", "quantity is below 1")
	}

	if item.Month < 1 || item.Month > 12 {
		add(SeverityWarning, "month", fmt.Sprint(item.Month), "range", "month is outside 1..12")
	}

	if item.Kind.IsExpense() && item.Revenue > 0 {
		add(SeverityError, "revenue", fmt.Sprint(item.Revenue), "sign", "expense revenue must not be positive")
	}

	if finite && (item.SumWithoutVAT != 0 || item.VATAmount != 0) {
		gap := math.Abs(item.SumWithoutVAT + item.VATAmount - item.Revenue)
		if gap > componentTolerance {
			add(SeverityWarning, "vat_amount", fmt.Sprintf("%.2f", gap), "components",
				"sum without VAT plus VAT differs from revenue")
		}
	}

	return errs
}

// =============================================================================
// STATE-LEVEL VALIDATION
// =============================================================================

// ValidateState checks the engine invariants of a session.
//
// PARAMETERS:
//   - s: The session state.
//   - imported: The ids the session started from. Every one must still be
//     present. Ids beyond these are template items.
//
// RETURNS:
//   - The collected findings. Any error means the state is corrupt.
func ValidateState(s positions.State, imported []string) *ValidationResult {
	result := &ValidationResult{ItemsValidated: s.ItemCount()}

	where := make(map[string]string, s.ItemCount())
	note := func(item types.LineItem, place string, positionNumber int) {
		if prev, dup := where[item.ID]; dup {
			result.add(&ValidationError{
				Severity:       SeverityError,
				Field:          "id",
				Rule:           "ownership",
				Message:        fmt.Sprintf("item is in both %s and %s", prev, place),
				ItemID:         item.ID,
				PositionNumber: positionNumber,
			})
			return
		}
		where[item.ID] = place

		if item.Kind.IsExpense() && item.Revenue > 0 {
			result.add(&ValidationError{
				Severity:       SeverityError,
				Field:          "revenue",
				Value:          fmt.Sprint(item.Revenue),
				Rule:           "sign",
				Message:        "expense revenue must not be positive",
				ItemID:         item.ID,
				PositionNumber: positionNumber,
			})
		}
	}

	for _, item := range s.Pool {
		note(item, "pool", 0)
	}

	numbers := make(map[int]bool, len(s.Positions))
	for _, p := range s.Positions {
		place := fmt.Sprintf("position %d", p.Number)
		for _, item := range p.Items {
			note(item, place, p.Number)
		}

		if numbers[p.Number] {
			result.add(&ValidationError{
				Severity:       SeverityError,
				Field:          "number",
				Rule:           "unique",
				Message:        "position number is used twice",
				PositionNumber: p.Number,
			})
		}
		numbers[p.Number] = true
		if p.Number >= s.NextPositionNumber {
			result.add(&ValidationError{
				Severity:       SeverityError,
				Field:          "number",
				Value:          fmt.Sprint(p.Number),
				Rule:           "monotonic",
				Message:        fmt.Sprintf("position number is not below next number %d", s.NextPositionNumber),
				PositionNumber: p.Number,
			})
		}

		price, income, expense := positions.Totals(p.Items)
		checks := []struct {
			field  string
			cached float64
			want   float64
		}{
			{"total_price", p.TotalPrice, price},
			{"total_income", p.TotalIncome, income},
			{"total_expense", p.TotalExpense, expense},
		}
		for _, c := range checks {
			if math.Abs(c.cached-c.want) > 1e-6 {
				result.add(&ValidationError{
					Severity:       SeverityError,
					Field:          c.field,
					Value:          fmt.Sprintf("%.2f", c.cached),
					Rule:           "rollup",
					Message:        fmt.Sprintf("cached total differs from items (%.2f)", c.want),
					PositionNumber: p.Number,
				})
			}
		}
	}

	var missing []string
	for _, id := range imported {
		if _, ok := where[id]; !ok {
			missing = append(missing, id)
		}
	}
	sort.Strings(missing)
	for _, id := range missing {
		result.add(&ValidationError{
			Severity: SeverityError,
			Field:    "id",
			Rule:     "conservation",
			Message:  "imported item is missing from the session",
			ItemID:   id,
		})
	}

	return result.finish()
}

// =============================================================================
// REPORTING
// =============================================================================

// FormatErrors formats validation errors for display or logging.
//
// PARAMETERS:
//   - errors: The validation errors to format.
//
// RETURNS:
//   - A formatted string containing all errors.
func FormatErrors(errors []*ValidationError) string {
	if len(errors) == 0 {
		return "No validation errors."
	}

	var builder strings.Builder

	builder.WriteString(fmt.Sprintf("Validation completed with %d finding(s):\n\n", len(errors)))

	for i, err := range errors {
		builder.WriteString(fmt.Sprintf("%d. %s\n", i+1, err.Error()))
	}

	return builder.String()
}
