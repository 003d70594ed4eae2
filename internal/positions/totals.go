package positions

import (
	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/position-grouper/internal/types"
)

// Totals folds items into the position rollups:
//
//	price   = Σ revenue
//	income  = Σ revenue over income items
//	expense = Σ |revenue| over expense items
//
// With signed expense storage, income - expense == price. The sums run in
// decimal and are converted once at the end.
func Totals(items []types.LineItem) (price, income, expense float64) {
	p, in, ex := decimal.Zero, decimal.Zero, decimal.Zero
	for _, item := range items {
		revenue := decimal.NewFromFloat(item.Revenue)
		p = p.Add(revenue)
		if item.Kind.IsExpense() {
			ex = ex.Add(revenue.Abs())
		} else {
			in = in.Add(revenue)
		}
	}
	return p.InexactFloat64(), in.InexactFloat64(), ex.InexactFloat64()
}

// withTotals returns p holding items with its rollups recomputed.
func withTotals(p types.Position, items []types.LineItem) types.Position {
	p.Items = items
	p.TotalPrice, p.TotalIncome, p.TotalExpense = Totals(items)
	return p
}
