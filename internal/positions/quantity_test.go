package positions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/position-grouper/internal/grouping"
	"github.com/ginjaninja78/position-grouper/internal/types"
)

// bearingState returns a position holding two income "Bearing" items and a
// pool holding exactly two more matching income items plus non-matching
// rows.
func bearingState(t *testing.T, e *Engine) (State, types.Position) {
	t.Helper()

	s := NewState([]types.LineItem{
		lineItem("b1", "Bearing_ID_01", types.KindIncome, 10),
		lineItem("b2", "Bearing_ID_02", types.KindIncome, 10),
		lineItem("x1", "Bearing_ID_03", types.KindExpense, -5),
		lineItem("b3", "Bearing_ID_04", types.KindIncome, 10),
		lineItem("s1", "Seal", types.KindIncome, 1),
		lineItem("b4", "Bearing", types.KindIncome, 10),
	})

	s, p := e.NewPosition(s, "Bearing")
	s, err := e.Move(s, types.GroupedLineItem{GroupedIDs: []string{"b1", "b2"}}, PoolLocation(), InPosition(p.ID))
	require.NoError(t, err)

	p, _ = s.Position(p.ID)
	return s, p
}

func TestSetQuantity_IncreaseWithinAvailable(t *testing.T) {
	e := newTestEngine()
	s, p := bearingState(t, e)

	g := grouping.Group(p.Items, grouping.Strict)[0]
	require.Len(t, g.GroupedIDs, 2)

	out, err := e.SetQuantity(s, p.ID, g, 4)
	require.NoError(t, err)

	got, _ := out.Position(p.ID)
	assert.Equal(t, []string{"b1", "b2", "b3", "b4"}, itemIDs(got.Items))
	assert.InDelta(t, 40.0, got.TotalPrice, 1e-9)
	assert.Equal(t, []string{"x1", "s1"}, itemIDs(out.Pool))

	regrouped := grouping.Group(got.Items, grouping.Strict)
	require.Len(t, regrouped, 1)
	assert.Len(t, regrouped[0].GroupedIDs, 4)
	assertTotalsConsistent(t, out)
}

func TestSetQuantity_IncreaseBeyondAvailable(t *testing.T) {
	e := newTestEngine()
	s, p := bearingState(t, e)
	snapshot := s

	g := grouping.Group(p.Items, grouping.Strict)[0]

	out, err := e.SetQuantity(s, p.ID, g, 5)
	assert.ErrorIs(t, err, ErrInsufficientAvailable)
	assert.Equal(t, snapshot, out)
	assert.Equal(t, snapshot, s)

	got, _ := out.Position(p.ID)
	assert.Len(t, got.Items, 2, "size stays at 2")
}

func TestSetQuantity_DecreaseMergedGroup(t *testing.T) {
	e := newTestEngine()
	s := NewState([]types.LineItem{
		lineItem("i1", "Rewind_ID_a1", types.KindIncome, 100),
		lineItem("e1", "Rewind_ID_b2", types.KindExpense, -50),
		lineItem("i2", "Rewind_ID_c3", types.KindIncome, 100),
		lineItem("i3", "Rewind_ID_d4", types.KindIncome, 100),
	})

	s, p, err := e.CreatePositionFromGroup(s, grouping.Group(s.Pool, grouping.Base)[0])
	require.NoError(t, err)

	g := grouping.Group(p.Items, grouping.Base)[0]
	require.Len(t, g.GroupedIDs, 4)

	out, err := e.SetQuantity(s, p.ID, g, 3)
	require.NoError(t, err)

	// One item of each kind leaves: the last income (i3) and the only
	// expense (e1). They re-enter the pool in position order.
	got, _ := out.Position(p.ID)
	assert.Equal(t, []string{"i1", "i2"}, itemIDs(got.Items))
	assert.Equal(t, []string{"e1", "i3"}, itemIDs(out.Pool))
	assert.InDelta(t, 200.0, got.TotalPrice, 1e-9)
	assert.InDelta(t, 200.0, got.TotalIncome, 1e-9)
	assert.Zero(t, got.TotalExpense)

	for _, li := range out.Pool {
		assert.NotEqual(t, "Rewind", li.PositionName, "returned items keep their own names")
	}
	assertTotalsConsistent(t, out)
}

func TestSetQuantity_DecreaseStrictGroupTakesSameNameExpense(t *testing.T) {
	e := newTestEngine()
	s := NewState([]types.LineItem{
		lineItem("i1", "Rewind_ID_a1", types.KindIncome, 100),
		lineItem("e1", "Rewind_ID_b2", types.KindExpense, -50),
		lineItem("i2", "Rewind_ID_c3", types.KindIncome, 100),
		lineItem("i3", "Rewind_ID_d4", types.KindIncome, 100),
	})

	s, p, err := e.CreatePositionFromGroup(s, grouping.Group(s.Pool, grouping.Base)[0])
	require.NoError(t, err)

	g := grouping.Group(p.Items, grouping.Strict)[0]
	require.Equal(t, types.KindIncome, g.Kind)
	require.Len(t, g.GroupedIDs, 3)

	out, err := e.SetQuantity(s, p.ID, g, 2)
	require.NoError(t, err)

	// The income-only group still decreases the whole "Rewind" cohort, so
	// the same-name expense leaves alongside the last income.
	got, _ := out.Position(p.ID)
	assert.Equal(t, []string{"i1", "i2"}, itemIDs(got.Items))
	assert.Equal(t, []string{"e1", "i3"}, itemIDs(out.Pool))
	assert.Zero(t, got.TotalExpense)
	assertTotalsConsistent(t, out)
}

func TestSetQuantity_DecreaseSingleKind(t *testing.T) {
	e := newTestEngine()
	s, p := bearingState(t, e)

	s, err := e.SetQuantity(s, p.ID, grouping.Group(p.Items, grouping.Strict)[0], 4)
	require.NoError(t, err)
	p, _ = s.Position(p.ID)

	out, err := e.SetQuantity(s, p.ID, grouping.Group(p.Items, grouping.Strict)[0], 1)
	require.NoError(t, err)

	got, _ := out.Position(p.ID)
	assert.Equal(t, []string{"b1"}, itemIDs(got.Items))
	assert.Equal(t, []string{"x1", "s1", "b2", "b3", "b4"}, itemIDs(out.Pool))
}

func TestSetQuantity_NoOpAndInvalid(t *testing.T) {
	e := newTestEngine()
	s, p := bearingState(t, e)
	g := grouping.Group(p.Items, grouping.Strict)[0]

	out, err := e.SetQuantity(s, p.ID, g, 2)
	require.NoError(t, err)
	assert.Equal(t, s, out)

	tests := []struct {
		name       string
		positionID string
		group      types.GroupedLineItem
		n          int
		wantErr    error
	}{
		{name: "zero", positionID: p.ID, group: g, n: 0, wantErr: ErrInvalidNumericInput},
		{name: "negative", positionID: p.ID, group: g, n: -3, wantErr: ErrInvalidNumericInput},
		{name: "unknown position", positionID: "missing", group: g, n: 3, wantErr: ErrPositionNotFound},
		{name: "stale group", positionID: p.ID, group: types.GroupedLineItem{GroupedIDs: []string{"gone"}}, n: 3, wantErr: ErrEmptyResolution},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := e.SetQuantity(s, tt.positionID, tt.group, tt.n)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, s, out)
		})
	}
}
