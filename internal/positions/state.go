// =============================================================================
// Position Grouper - Session State
// =============================================================================
//
// State is the explicit application state: the unallocated pool, the
// positions, and the next position number. Every engine operation takes a
// State and returns a new one. Slices of the input are never written to, so
// callers may keep the previous State as an undo snapshot or compare the two.
//
// INVARIANT:
//   Pool plus every Position's Items is exactly the set of imported items
//   plus template items added explicitly. No id appears twice.
//
// =============================================================================

package positions

import (
	"fmt"

	"github.com/ginjaninja78/position-grouper/internal/types"
)

// State is the operator session.
type State struct {
	Pool               []types.LineItem
	Positions          []types.Position
	NextPositionNumber int
}

// NewState starts a session with every imported item in the pool.
func NewState(items []types.LineItem) State {
	return State{
		Pool:               cloneItems(items),
		NextPositionNumber: 1,
	}
}

// Location is either the pool (zero value) or one position.
type Location struct {
	PositionID string
}

// PoolLocation returns the pool location.
func PoolLocation() Location {
	return Location{}
}

// InPosition returns the location of a position.
func InPosition(id string) Location {
	return Location{PositionID: id}
}

// IsPool reports whether the location is the pool.
func (l Location) IsPool() bool {
	return l.PositionID == ""
}

// String returns "pool" or the position id.
func (l Location) String() string {
	if l.IsPool() {
		return "pool"
	}
	return l.PositionID
}

// =============================================================================
// LOOKUPS
// =============================================================================

// Position returns the position with the given id.
func (s State) Position(id string) (types.Position, bool) {
	i := s.positionIndex(id)
	if i < 0 {
		return types.Position{}, false
	}
	return s.Positions[i], true
}

// PositionByNumber returns the position with the given position number.
func (s State) PositionByNumber(n int) (types.Position, bool) {
	for _, p := range s.Positions {
		if p.Number == n {
			return p, true
		}
	}
	return types.Position{}, false
}

// Items returns the collection at a location.
func (s State) Items(loc Location) ([]types.LineItem, error) {
	if loc.IsPool() {
		return s.Pool, nil
	}
	p, ok := s.Position(loc.PositionID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPositionNotFound, loc.PositionID)
	}
	return p.Items, nil
}

// AllItems returns pool items followed by every position's items.
func (s State) AllItems() []types.LineItem {
	all := make([]types.LineItem, 0, s.ItemCount())
	all = append(all, s.Pool...)
	for _, p := range s.Positions {
		all = append(all, p.Items...)
	}
	return all
}

// ItemCount returns |Pool| + Σ|Position.Items|.
func (s State) ItemCount() int {
	n := len(s.Pool)
	for _, p := range s.Positions {
		n += len(p.Items)
	}
	return n
}

func (s State) positionIndex(id string) int {
	for i, p := range s.Positions {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// =============================================================================
// COPY-ON-WRITE HELPERS
// =============================================================================

// withItems returns a copy of s whose collection at loc is replaced by
// items. Position totals are recomputed in the same step.
func (s State) withItems(loc Location, items []types.LineItem) State {
	out := s
	if loc.IsPool() {
		out.Pool = items
		return out
	}

	out.Positions = clonePositions(s.Positions)
	i := out.positionIndex(loc.PositionID)
	out.Positions[i] = withTotals(out.Positions[i], items)
	return out
}

func cloneItems(items []types.LineItem) []types.LineItem {
	if items == nil {
		return nil
	}
	out := make([]types.LineItem, len(items))
	copy(out, items)
	return out
}

// clonePositions copies the position headers. Item slices are shared and
// must be replaced, not written to.
func clonePositions(ps []types.Position) []types.Position {
	if ps == nil {
		return nil
	}
	out := make([]types.Position, len(ps))
	copy(out, ps)
	return out
}

// concat returns a new slice holding a followed by b.
func concat(a, b []types.LineItem) []types.LineItem {
	out := make([]types.LineItem, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}
