package positions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/position-grouper/internal/grouping"
	"github.com/ginjaninja78/position-grouper/internal/types"
)

func TestTransfer_StateMachine(t *testing.T) {
	var tr Transfer
	assert.False(t, tr.Armed())

	g := types.Single(lineItem("a", "A", types.KindIncome, 1))
	tr.Begin(g, PoolLocation())
	assert.True(t, tr.Armed())

	other := types.Single(lineItem("b", "B", types.KindIncome, 1))
	tr.Begin(other, InPosition("p"))
	got, from, armed := tr.Source()
	assert.True(t, armed)
	assert.Equal(t, []string{"b"}, got.GroupedIDs, "re-begin replaces the drag")
	assert.Equal(t, InPosition("p"), from)

	tr.Cancel()
	assert.False(t, tr.Armed())
}

func TestCompleteTransfer_NotArmed(t *testing.T) {
	e := newTestEngine()
	s := NewState(rewindPool())

	var tr Transfer
	out, err := e.CompleteTransfer(s, &tr, PoolLocation())
	assert.ErrorIs(t, err, ErrNotArmed)
	assert.Equal(t, s, out)
}

func TestCompleteTransfer_PoolToPosition(t *testing.T) {
	e := newTestEngine()
	s, p := e.NewPosition(NewState(rewindPool()), "Rewind")

	g := grouping.Group(s.Pool, grouping.Strict)[1] // expense e1, e2

	var tr Transfer
	tr.Begin(g, PoolLocation())
	out, err := e.CompleteTransfer(s, &tr, InPosition(p.ID))
	require.NoError(t, err)
	assert.False(t, tr.Armed())

	got, _ := out.Position(p.ID)
	assert.Equal(t, []string{"e1", "e2"}, itemIDs(got.Items))
	assert.InDelta(t, 100.0, got.TotalExpense, 1e-9)
	assert.InDelta(t, -100.0, got.TotalPrice, 1e-9)
	assert.Equal(t, []string{"i1", "i2", "i3"}, itemIDs(out.Pool))
	assertTotalsConsistent(t, out)
}

func TestCompleteTransfer_BetweenPositions(t *testing.T) {
	e := newTestEngine()
	s := NewState(rewindPool())
	s, a, err := e.CreatePositionFromGroup(s, grouping.Group(s.Pool, grouping.Base)[0])
	require.NoError(t, err)
	s, b := e.NewPosition(s, "Other")

	g := grouping.Group(a.Items, grouping.Strict)[0] // i1, i2, i3

	var tr Transfer
	tr.Begin(g, InPosition(a.ID))
	out, err := e.CompleteTransfer(s, &tr, InPosition(b.ID))
	require.NoError(t, err)

	gotA, _ := out.Position(a.ID)
	gotB, _ := out.Position(b.ID)
	assert.Equal(t, []string{"e1", "e2"}, itemIDs(gotA.Items))
	assert.Equal(t, []string{"i1", "i2", "i3"}, itemIDs(gotB.Items))
	assert.InDelta(t, 300.0, gotB.TotalIncome, 1e-9)
	assert.InDelta(t, -100.0, gotA.TotalPrice, 1e-9)
	assertTotalsConsistent(t, out)
}

func TestCompleteTransfer_SameLocationIsNoOp(t *testing.T) {
	e := newTestEngine()
	s := NewState(rewindPool())
	s, p, err := e.CreatePositionFromGroup(s, grouping.Group(s.Pool[:3], grouping.Base)[0])
	require.NoError(t, err)

	tests := []struct {
		name string
		loc  Location
		g    types.GroupedLineItem
	}{
		{name: "pool to pool", loc: PoolLocation(), g: types.Single(lineItem("i1", "", types.KindIncome, 0))},
		{name: "position to itself", loc: InPosition(p.ID), g: grouping.Group(p.Items, grouping.Base)[0]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var tr Transfer
			tr.Begin(tt.g, tt.loc)

			out, err := e.CompleteTransfer(s, &tr, tt.loc)
			require.NoError(t, err)
			assert.Equal(t, s, out)
			assert.False(t, tr.Armed())
		})
	}
}

func TestCompleteTransfer_StaleGroup(t *testing.T) {
	e := newTestEngine()
	s, p := e.NewPosition(NewState(rewindPool()), "Target")

	g := grouping.Group(s.Pool, grouping.Strict)[0]

	var tr Transfer
	tr.Begin(g, PoolLocation())

	// The items leave the pool before the drop.
	s, err := e.Move(s, g, PoolLocation(), InPosition(p.ID))
	require.NoError(t, err)

	out, err := e.CompleteTransfer(s, &tr, InPosition(p.ID))
	assert.ErrorIs(t, err, ErrEmptyResolution)
	assert.Equal(t, s, out)
	assert.False(t, tr.Armed())
}

func TestCompleteTransfer_MovesCapturedIDsOnly(t *testing.T) {
	e := newTestEngine()
	s, p := e.NewPosition(NewState(rewindPool()), "Target")

	g := grouping.Group(s.Pool, grouping.Strict)[0] // i1, i2, i3

	var tr Transfer
	tr.Begin(g, PoolLocation())

	// A new matching item appears after the drag started.
	s.Pool = append(append([]types.LineItem(nil), s.Pool...), lineItem("i4", "Rewind_ID_ff", types.KindIncome, 100))

	out, err := e.CompleteTransfer(s, &tr, InPosition(p.ID))
	require.NoError(t, err)

	got, _ := out.Position(p.ID)
	assert.Equal(t, []string{"i1", "i2", "i3"}, itemIDs(got.Items))
	assert.Contains(t, itemIDs(out.Pool), "i4")
}

func TestCompleteTransfer_UnknownTarget(t *testing.T) {
	e := newTestEngine()
	s := NewState(rewindPool())

	var tr Transfer
	tr.Begin(grouping.Group(s.Pool, grouping.Base)[0], PoolLocation())

	out, err := e.CompleteTransfer(s, &tr, InPosition("missing"))
	assert.ErrorIs(t, err, ErrPositionNotFound)
	assert.Equal(t, s, out)
}

func TestBegin_CopiesIDs(t *testing.T) {
	g := types.GroupedLineItem{GroupedIDs: []string{"a", "b"}}

	var tr Transfer
	tr.Begin(g, PoolLocation())
	g.GroupedIDs[0] = "z"

	got, _, _ := tr.Source()
	assert.Equal(t, []string{"a", "b"}, got.GroupedIDs)
}
