package catalog

import (
	"context"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/position-grouper/internal/positions"
	"github.com/ginjaninja78/position-grouper/internal/types"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), "data", "catalog.db"), time.Minute, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_MigratesTwice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")

	s, err := Open(path, time.Minute, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path, time.Minute, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, s.Close())
}

func TestEmployees(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	bob, err := s.AddEmployee(ctx, " Bob ", 1200, "electrician")
	require.NoError(t, err)
	assert.Equal(t, "Bob", bob.Name)
	assert.True(t, bob.IsActive)

	alice, err := s.AddEmployee(ctx, "Alice", 1500, "")
	require.NoError(t, err)

	list, err := s.ListEmployees(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Alice", list[0].Name, "ordered by name")
	assert.Equal(t, "Bob", list[1].Name)

	require.NoError(t, s.UpdateEmployeeRate(ctx, alice.ID, 1600))
	got, err := s.GetEmployee(ctx, alice.ID)
	require.NoError(t, err)
	assert.InDelta(t, 1600.0, got.HourlyRate, 1e-9)

	found, err := s.FindEmployee(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, bob.ID, found.ID)

	require.NoError(t, s.SetEmployeeActive(ctx, bob.ID, false))
	list, err = s.ListEmployees(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	hidden, err := s.GetEmployee(ctx, bob.ID)
	require.NoError(t, err)
	assert.False(t, hidden.IsActive)

	_, err = s.GetEmployee(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.UpdateEmployeeRate(ctx, 999, 10), ErrNotFound)
}

func TestAddEmployee_Invalid(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, err := s.AddEmployee(ctx, "  ", 10, "")
	assert.Error(t, err)

	for _, rate := range []float64{-1, math.NaN(), math.Inf(1), 2e12} {
		_, err = s.AddEmployee(ctx, "Alice", rate, "")
		assert.ErrorIs(t, err, positions.ErrInvalidNumericInput, rate)
	}
}

func TestWires(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, err := s.AddWire(ctx, Wire{Brand: "ВВГ", CrossSection: 2.5, InsulationType: "ПВХ", PricePerMeter: 95})
	require.NoError(t, err)
	small, err := s.AddWire(ctx, Wire{Brand: "ВВГ", CrossSection: 1.5, InsulationType: "ПВХ", PricePerMeter: 60})
	require.NoError(t, err)
	_, err = s.AddWire(ctx, Wire{Brand: "АВВГ", CrossSection: 4, PricePerMeter: 70})
	require.NoError(t, err)

	list, err := s.ListWires(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "АВВГ 4мм²", list[0].DisplayName())
	assert.Equal(t, "ВВГ 1.5мм² ПВХ", list[1].DisplayName())
	assert.Equal(t, "ВВГ 2.5мм² ПВХ", list[2].DisplayName())

	require.NoError(t, s.UpdateWirePrice(ctx, small.ID, 65))
	got, err := s.GetWire(ctx, small.ID)
	require.NoError(t, err)
	assert.InDelta(t, 65.0, got.PricePerMeter, 1e-9)

	require.NoError(t, s.SetWireActive(ctx, small.ID, false))
	list, err = s.ListWires(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	_, err = s.AddWire(ctx, Wire{Brand: "ВВГ", CrossSection: 0, PricePerMeter: 1})
	assert.ErrorIs(t, err, positions.ErrInvalidNumericInput)
	_, err = s.AddWire(ctx, Wire{CrossSection: 1, PricePerMeter: 1})
	assert.Error(t, err)
	_, err = s.GetWire(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_CacheInvalidation(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, err := s.AddEmployee(ctx, "Alice", 1500, "")
	require.NoError(t, err)

	list, err := s.ListEmployees(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	// A row written behind the store's back is not seen until a write
	// through the store flushes the cache.
	_, err = s.db.ExecContext(ctx, `INSERT INTO employees (name, hourly_rate) VALUES ('Carol', 900)`)
	require.NoError(t, err)

	list, err = s.ListEmployees(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = s.AddEmployee(ctx, "Bob", 1200, "")
	require.NoError(t, err)

	list, err = s.ListEmployees(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 3)
}

func TestSources(t *testing.T) {
	emp := Employee{ID: 3, Name: "Alice", HourlyRate: 1500}
	src := emp.Source()
	assert.Equal(t, types.SourceEmployee, src.Kind)
	assert.Equal(t, int64(3), src.CatalogID)
	assert.Equal(t, "Alice", src.Name)

	wire := Wire{ID: 7, Brand: "ВВГ", CrossSection: 2.5, PricePerMeter: 95}
	wsrc := wire.Source()
	assert.Equal(t, types.SourceWire, wsrc.Kind)
	assert.Equal(t, "ВВГ 2.5мм²", wsrc.Name)
	assert.InDelta(t, 95.0, wsrc.Rate, 1e-9)

	e := positions.NewEngine(zerolog.Nop(), positions.WithIDGenerator(func() string { return "new-1" }))
	item, err := e.NewTemplateItem(wsrc, types.LineItem{Kind: types.KindExpense, WorkType: "Материалы"}, 10)
	require.NoError(t, err)
	assert.Equal(t, "ВВГ 2.5мм²", item.PositionName)
	assert.InDelta(t, -950.0, item.Revenue, 1e-9)
	assert.Equal(t, "m", item.Source.Unit)
}
