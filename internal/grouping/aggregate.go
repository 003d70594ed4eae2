// =============================================================================
// Position Grouper - Group Aggregator
// =============================================================================
//
// This module folds line-items sharing a grouping key into display
// aggregates, and resolves aggregates back to their constituents.
//
// MODES:
//   Strict - key includes kind, so income and expense never mix.
//   Base   - key omits kind; the aggregate reports the kind of its first
//            row and callers re-derive the split from the constituents.
//
// ORDERING:
//   Buckets are emitted in the order their key was first encountered.
//   Constituent ids keep input order. Display code sorts separately.
//
// =============================================================================

package grouping

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/position-grouper/internal/types"
)

// Mode selects the grouping key.
type Mode int

const (
	// Strict groups by FullKey.
	Strict Mode = iota

	// Base groups by BaseKey.
	Base
)

// String returns the mode name used in config and CLI flags.
func (m Mode) String() string {
	switch m {
	case Strict:
		return "strict"
	case Base:
		return "base"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode parses "strict" or "base".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "strict":
		return Strict, nil
	case "base":
		return Base, nil
	default:
		return Strict, fmt.Errorf("unknown grouping mode: %s", s)
	}
}

// aggregateIDPrefix returns the id prefix of a multi-item aggregate.
func (m Mode) aggregateIDPrefix() string {
	if m == Base {
		return "base_grouped_"
	}
	return "grouped_"
}

func (m Mode) key(item types.LineItem) string {
	if m == Base {
		return BaseKey(item)
	}
	return FullKey(item)
}

// =============================================================================
// GROUP
// =============================================================================

// Group collapses items sharing the mode's key into GroupedLineItems.
//
// PARAMETERS:
//   - items: The pool or a position's items. Not modified.
//   - mode: Strict or Base.
//
// RETURNS:
//   - One aggregate per key, in first-encounter order. A bucket of one item
//     is passed through unchanged as a trivial group.
func Group(items []types.LineItem, mode Mode) []types.GroupedLineItem {
	buckets := make(map[string][]types.LineItem)
	order := []string{} // first occurrence

	for _, item := range items {
		k := mode.key(item)
		if _, exists := buckets[k]; !exists {
			order = append(order, k)
		}
		buckets[k] = append(buckets[k], item)
	}

	groups := make([]types.GroupedLineItem, 0, len(order))
	for _, k := range order {
		groups = append(groups, fold(buckets[k], mode))
	}

	return groups
}

// fold builds one aggregate from a non-empty bucket. Money is summed in
// decimal so a bucket total matches the sum an operator adds up by hand.
func fold(bucket []types.LineItem, mode Mode) types.GroupedLineItem {
	if len(bucket) == 1 {
		return types.Single(bucket[0])
	}

	rep := bucket[0]
	ids := make([]string, 0, len(bucket))

	var quantity int
	revenue, sumWithoutVAT, vatAmount := decimal.Zero, decimal.Zero, decimal.Zero
	for _, item := range bucket {
		ids = append(ids, item.ID)
		quantity += item.Quantity
		revenue = revenue.Add(decimal.NewFromFloat(item.Revenue))
		sumWithoutVAT = sumWithoutVAT.Add(decimal.NewFromFloat(item.SumWithoutVAT))
		vatAmount = vatAmount.Add(decimal.NewFromFloat(item.VATAmount))
	}

	rep.ID = mode.aggregateIDPrefix() + strings.Join(ids, "_")
	rep.PositionName = BaseName(rep.PositionName)
	rep.Quantity = quantity
	rep.Revenue = revenue.InexactFloat64()
	rep.SumWithoutVAT = sumWithoutVAT.InexactFloat64()
	rep.VATAmount = vatAmount.InexactFloat64()

	return types.GroupedLineItem{LineItem: rep, GroupedIDs: ids}
}

// =============================================================================
// UNGROUP
// =============================================================================

// Ungroup returns the items whose id is listed in g.GroupedIDs, in the
// order they appear in items. The result is empty when the aggregate is
// stale relative to items.
func Ungroup(g types.GroupedLineItem, items []types.LineItem) []types.LineItem {
	matched, _ := Partition(g.GroupedIDs, items)
	return matched
}

// Partition splits items into those whose id is in ids and the rest,
// preserving order in both. The input slice is not modified.
func Partition(ids []string, items []types.LineItem) (matched, rest []types.LineItem) {
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}

	rest = make([]types.LineItem, 0, len(items))
	for _, item := range items {
		if _, ok := want[item.ID]; ok {
			matched = append(matched, item)
			continue
		}
		rest = append(rest, item)
	}

	return matched, rest
}

// SplitByKind returns the constituents of each kind, preserving order.
func SplitByKind(items []types.LineItem) (income, expense []types.LineItem) {
	for _, item := range items {
		if item.Kind.IsExpense() {
			expense = append(expense, item)
		} else {
			income = append(income, item)
		}
	}
	return income, expense
}
