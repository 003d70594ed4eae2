package positions

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/position-grouper/internal/types"
)

// TemplateSource is a resolved catalog entry: an employee with an hourly
// rate or a wire with a price per meter.
type TemplateSource struct {
	Kind      types.SourceKind
	CatalogID int64
	Name      string
	Rate      float64
}

// unit returns the quantity unit of the source kind.
func (t TemplateSource) unit() string {
	if t.Kind == types.SourceWire {
		return "m"
	}
	return "h"
}

// NewTemplateItem builds a brand-new line-item from a catalog entry and an
// existing item used as template. Revenue is rate × amount, signed by the
// template's kind and split 80/20. The amount is hours or meters; the
// stored Quantity is the amount rounded up to a whole unit, at least 1.
func (e *Engine) NewTemplateItem(src TemplateSource, template types.LineItem, amount float64) (types.LineItem, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return types.LineItem{}, fmt.Errorf("%w: amount %v", ErrInvalidNumericInput, amount)
	}
	if math.IsNaN(src.Rate) || math.IsInf(src.Rate, 0) || src.Rate < 0 {
		return types.LineItem{}, fmt.Errorf("%w: rate %v", ErrInvalidNumericInput, src.Rate)
	}

	revenue := decimal.NewFromFloat(src.Rate).Mul(decimal.NewFromFloat(amount))
	if err := CheckAmount(revenue.InexactFloat64()); err != nil {
		return types.LineItem{}, err
	}

	item := template
	item.ID = e.newID()
	item.UniqueKey = item.ID
	item.PositionName = strings.TrimSpace(src.Name)
	item.Quantity = int(math.Ceil(amount))
	item.Revenue = 0
	item.Source = types.SourceTemplate{
		Kind:      src.Kind,
		CatalogID: src.CatalogID,
		Rate:      src.Rate,
		Unit:      src.unit(),
	}

	return reprice(item, revenue), nil
}

// AddTemplateItem builds a template item and appends it to a position.
// This is the only operation that adds items to the session.
func (e *Engine) AddTemplateItem(s State, positionID string, src TemplateSource, template types.LineItem, amount float64) (State, types.LineItem, error) {
	loc := InPosition(positionID)
	items, err := s.Items(loc)
	if err != nil {
		return s, types.LineItem{}, err
	}

	item, err := e.NewTemplateItem(src, template, amount)
	if err != nil {
		return s, types.LineItem{}, err
	}

	out := s.withItems(loc, concat(items, []types.LineItem{item}))

	e.log.Info().
		Str("op", "add_template").
		Str("source", string(src.Kind)).
		Int64("catalog_id", src.CatalogID).
		Float64("revenue", item.Revenue).
		Msg("template item added")

	return out, item, nil
}
