// =============================================================================
// Position Grouper - Price Edit
// =============================================================================
//
// Editing a group's displayed revenue fans out to its constituents:
//   - one item:  revenue is set, SumWithoutVAT and VATAmount are rescaled by
//                the item's prior ratios, or split 80/20 when the prior
//                revenue was zero.
//   - n items:   the new total is divided evenly; each share is applied with
//                the one-item rule.
//
// Amounts are stored signed: an expense item always receives the negated
// magnitude of its share, whatever sign the operator typed.
//
// The split and the rescale run in decimal; items keep float64 fields.
//
// =============================================================================

package positions

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/position-grouper/internal/grouping"
	"github.com/ginjaninja78/position-grouper/internal/types"
)

const (
	// MaxAmount bounds edited amounts.
	MaxAmount = 1e12

	// netShare and vatShare split a new amount when no prior ratio exists.
	netShare = 0.8
	vatShare = 0.2
)

// CheckAmount rejects NaN, infinities and magnitudes above MaxAmount.
func CheckAmount(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) > MaxAmount {
		return fmt.Errorf("%w: %v", ErrInvalidNumericInput, v)
	}
	return nil
}

// EditPrice sets the total revenue of g at loc.
func (e *Engine) EditPrice(s State, loc Location, g types.GroupedLineItem, total float64) (State, error) {
	if err := CheckAmount(total); err != nil {
		return s, err
	}

	items, err := s.Items(loc)
	if err != nil {
		return s, err
	}

	if len(grouping.Ungroup(g, items)) == 0 {
		return s, fmt.Errorf("%w: group %s", ErrEmptyResolution, g.ID)
	}

	// The even split counts every id of the group, as displayed.
	share := decimal.NewFromFloat(total).Div(decimal.NewFromInt(int64(len(g.GroupedIDs))))

	want := make(map[string]struct{}, len(g.GroupedIDs))
	for _, id := range g.GroupedIDs {
		want[id] = struct{}{}
	}

	edited := make([]types.LineItem, len(items))
	for i, item := range items {
		if _, ok := want[item.ID]; ok {
			item = reprice(item, share)
		}
		edited[i] = item
	}

	e.log.Debug().
		Str("op", "edit_price").
		Str("at", loc.String()).
		Float64("total", total).
		Int("count", len(g.GroupedIDs)).
		Msg("price edited")

	return s.withItems(loc, edited), nil
}

// EditItemPrice sets the revenue of one item at loc.
func (e *Engine) EditItemPrice(s State, loc Location, itemID string, revenue float64) (State, error) {
	return e.EditPrice(s, loc, types.GroupedLineItem{GroupedIDs: []string{itemID}}, revenue)
}

// reprice applies the one-item rule.
func reprice(item types.LineItem, amount decimal.Decimal) types.LineItem {
	if item.Kind.IsExpense() {
		amount = amount.Abs().Neg()
	}

	if item.Revenue != 0 {
		prior := decimal.NewFromFloat(item.Revenue)
		item.SumWithoutVAT = amount.Mul(decimal.NewFromFloat(item.SumWithoutVAT)).Div(prior).InexactFloat64()
		item.VATAmount = amount.Mul(decimal.NewFromFloat(item.VATAmount)).Div(prior).InexactFloat64()
	} else {
		item.SumWithoutVAT = amount.Mul(decimal.NewFromFloat(netShare)).InexactFloat64()
		item.VATAmount = amount.Mul(decimal.NewFromFloat(vatShare)).InexactFloat64()
	}
	item.Revenue = amount.InexactFloat64()

	return item
}
