// =============================================================================
// Position Grouper - Shared Types
// =============================================================================
//
// This package contains the data model shared across modules to avoid import
// cycles. Types defined here are used by:
//   - grouping
//   - positions
//   - xlsxparser / csvparser
//   - export
//   - validation
//
// SIGN CONVENTION:
//   Monetary fields are always signed. Expense rows carry Revenue,
//   SumWithoutVAT and VATAmount <= 0; income rows carry values >= 0.
//
// =============================================================================

package types

import "strings"

// =============================================================================
// KIND
// =============================================================================

// Kind is the income/expense classification of a line-item.
type Kind string

const (
	// KindIncome marks revenue billed to the customer.
	KindIncome Kind = "income"

	// KindExpense marks cost incurred (labour, materials).
	KindExpense Kind = "expense"
)

// IsExpense reports whether the kind is KindExpense.
func (k Kind) IsExpense() bool {
	return k == KindExpense
}

// ParseKind maps an import token onto a Kind. Exactly two tokens are
// recognized; anything else, including empty input, is KindIncome.
func ParseKind(token, incomeToken, expenseToken string) Kind {
	t := strings.TrimSpace(token)
	switch {
	case t == "":
		return KindIncome
	case strings.EqualFold(t, expenseToken), strings.EqualFold(t, string(KindExpense)):
		return KindExpense
	case strings.EqualFold(t, incomeToken), strings.EqualFold(t, string(KindIncome)):
		return KindIncome
	default:
		return KindIncome
	}
}

// =============================================================================
// SOURCE TEMPLATE
// =============================================================================

// SourceKind tells where a line-item was created from.
type SourceKind string

const (
	SourceImport   SourceKind = ""
	SourceEmployee SourceKind = "employee"
	SourceWire     SourceKind = "wire"
)

// SourceTemplate tags a line-item created from a catalog entry.
// The zero value means the item came from an import.
type SourceTemplate struct {
	Kind SourceKind

	// CatalogID is the id of the employee or wire row.
	CatalogID int64

	// Rate is the hourly rate or the price per meter at creation time.
	Rate float64

	// Unit is "h" for employees and "m" for wires.
	Unit string
}

// =============================================================================
// LINE ITEM
// =============================================================================

// LineItem is one atomic imported record. Its ID is unique across the
// whole session and never changes.
type LineItem struct {
	ID            string
	UniqueKey     string
	PositionName  string
	Year          int
	Month         int
	Quarter       string
	Date          string
	Analytics     [8]string
	DebitAccount  string
	CreditAccount string
	Revenue       float64
	Quantity      int
	SumWithoutVAT float64
	VATAmount     float64
	WorkType      string
	SalaryGoods   string
	Kind          Kind
	Source        SourceTemplate
}

// Analytics8 returns the eighth analytics dimension, the one used in the
// grouping key.
func (li LineItem) Analytics8() string {
	return li.Analytics[7]
}

// =============================================================================
// GROUPED LINE ITEM
// =============================================================================

// GroupedLineItem is a derived aggregate over one or more line-items.
// It is never stored; grouping recomputes it from the current items.
type GroupedLineItem struct {
	// LineItem holds the representative fields with summed Revenue,
	// Quantity, SumWithoutVAT and VATAmount.
	LineItem

	// GroupedIDs lists the constituent ids in encounter order.
	GroupedIDs []string
}

// IsGroup reports whether the aggregate covers more than one line-item.
func (g GroupedLineItem) IsGroup() bool {
	return len(g.GroupedIDs) > 1
}

// Single wraps a lone line-item as a trivial group.
func Single(item LineItem) GroupedLineItem {
	return GroupedLineItem{LineItem: item, GroupedIDs: []string{item.ID}}
}

// =============================================================================
// POSITION
// =============================================================================

// Position is an operator-defined container of line-items with a service
// label and derived totals.
type Position struct {
	ID           string
	Service      string
	Number       int
	Items        []LineItem
	TotalPrice   float64
	TotalIncome  float64
	TotalExpense float64
}
