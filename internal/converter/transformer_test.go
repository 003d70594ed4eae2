package converter

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/position-grouper/internal/catalog"
	"github.com/ginjaninja78/position-grouper/internal/config"
	"github.com/ginjaninja78/position-grouper/internal/positions"
	"github.com/ginjaninja78/position-grouper/internal/types"
)

func TestTransformer_InactiveCatalogEntries(t *testing.T) {
	cat := testCatalog()
	emp := cat.employees[1]
	emp.IsActive = false
	cat.employees[1] = emp
	wire := cat.wires[2]
	wire.IsActive = false
	cat.wires[2] = wire

	tr := NewTransformer(positions.NewEngine(zerolog.Nop()), cat, zerolog.Nop())

	s := positions.NewState([]types.LineItem{
		{ID: "1", PositionName: "Перемотка_ID_aa", Kind: types.KindIncome, Revenue: 100, Quantity: 1},
	})
	s, err := tr.ApplyAction(context.Background(), s, config.PlanAction{Op: "create_from_group", Name: "Перемотка"})
	require.NoError(t, err)

	tests := []struct {
		name   string
		action config.PlanAction
	}{
		{name: "employee", action: config.PlanAction{Op: "add_employee", Position: 1, CatalogID: 1, Hours: 2, Template: "Перемотка"}},
		{name: "wire", action: config.PlanAction{Op: "add_wire", Position: 1, CatalogID: 2, Meters: 10, Template: "Перемотка"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := tr.ApplyAction(context.Background(), s, tt.action)
			require.ErrorIs(t, err, catalog.ErrNotFound)
			assert.Contains(t, err.Error(), "inactive")
			assert.Equal(t, s, out)
		})
	}
}

func TestTransformer_ActiveCatalogEntry(t *testing.T) {
	tr := NewTransformer(positions.NewEngine(zerolog.Nop()), testCatalog(), zerolog.Nop())

	s := positions.NewState([]types.LineItem{
		{ID: "1", PositionName: "Перемотка_ID_aa", Kind: types.KindIncome, Revenue: 100, Quantity: 1},
	})
	s, err := tr.ApplyAction(context.Background(), s, config.PlanAction{Op: "create_from_group", Name: "Перемотка"})
	require.NoError(t, err)

	out, err := tr.ApplyAction(context.Background(), s,
		config.PlanAction{Op: "add_wire", Position: 1, CatalogID: 2, Meters: 10, Template: "Перемотка"})
	require.NoError(t, err)
	require.Len(t, out.Positions[0].Items, 2)
	assert.InDelta(t, 950.0, out.Positions[0].Items[1].Revenue, 1e-9)
}
