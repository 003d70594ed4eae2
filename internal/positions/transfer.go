// =============================================================================
// Position Grouper - Transfer Engine
// =============================================================================
//
// The transfer state machine models a drag:
//
//   Idle --Begin(group, from)--> Armed --Complete(to)--> Idle
//                                  |
//                                  +-----Cancel()------> Idle
//
// The group's id list is captured at Begin. Complete moves exactly those
// ids, as found in the source collection at drop time, never a re-derived
// group.
//
// =============================================================================

package positions

import (
	"fmt"

	"github.com/ginjaninja78/position-grouper/internal/grouping"
	"github.com/ginjaninja78/position-grouper/internal/types"
)

// Transfer holds an in-flight drag. The zero value is Idle.
type Transfer struct {
	armed bool
	group types.GroupedLineItem
	from  Location
}

// Begin arms the transfer. Beginning while armed replaces the previous
// drag.
func (t *Transfer) Begin(g types.GroupedLineItem, from Location) {
	ids := make([]string, len(g.GroupedIDs))
	copy(ids, g.GroupedIDs)
	g.GroupedIDs = ids

	t.armed = true
	t.group = g
	t.from = from
}

// Cancel returns to Idle without touching any data.
func (t *Transfer) Cancel() {
	*t = Transfer{}
}

// Armed reports whether a drag is in flight.
func (t *Transfer) Armed() bool {
	return t.armed
}

// Source returns the dragged group and its source location.
func (t *Transfer) Source() (types.GroupedLineItem, Location, bool) {
	return t.group, t.from, t.armed
}

// CompleteTransfer drops the armed group on to. The transfer is Idle
// afterwards whatever the outcome.
//
// RETURNS:
//   - s unchanged and a nil error when to equals the source location.
//   - s unchanged and ErrEmptyResolution when none of the captured ids are
//     in the source collection any more.
//   - The new state otherwise: resolved items removed from the source,
//     appended to the target, totals recomputed on both ends.
func (e *Engine) CompleteTransfer(s State, t *Transfer, to Location) (State, error) {
	if !t.Armed() {
		return s, ErrNotArmed
	}
	g, from, _ := t.Source()
	t.Cancel()

	return e.Move(s, g, from, to)
}

// Move relocates the items of g from one location to another. It is the
// data step of a transfer and is used directly by non-interactive callers.
func (e *Engine) Move(s State, g types.GroupedLineItem, from, to Location) (State, error) {
	if from == to {
		return s, nil
	}

	source, err := s.Items(from)
	if err != nil {
		return s, err
	}
	target, err := s.Items(to)
	if err != nil {
		return s, err
	}

	moved, rest := grouping.Partition(g.GroupedIDs, source)
	if len(moved) == 0 {
		e.log.Warn().
			Str("op", "transfer").
			Str("from", from.String()).
			Str("to", to.String()).
			Strs("ids", g.GroupedIDs).
			Msg("transfer resolved to no items, ignoring")
		return s, fmt.Errorf("%w: %d ids in %s", ErrEmptyResolution, len(g.GroupedIDs), from)
	}

	out := s.withItems(from, rest)
	out = out.withItems(to, concat(target, moved))

	e.log.Debug().
		Str("op", "transfer").
		Str("from", from.String()).
		Str("to", to.String()).
		Int("count", len(moved)).
		Msg("items moved")

	return out, nil
}
