// =============================================================================
// Position Grouper - Quantity Rebalancer
// =============================================================================
//
// SetQuantity changes how many line-items a group holds inside a position,
// moving items between the pool and the position.
//
// INCREASE (n > current):
//   Takes n-current pool items with the group's base name and kind, in pool
//   order. Fails with ErrInsufficientAvailable when there are fewer.
//
// DECREASE (n < current):
//   Removes r = current-n items from the base-name cohort: every item in the
//   position sharing the group's base name, whatever its kind. When the
//   cohort spans both kinds, min(r, count) items are removed from the tail
//   of each kind independently; otherwise the last r items are removed.
//   Removed items are appended to the pool tail as individual items.
//
// =============================================================================

package positions

import (
	"fmt"

	"github.com/ginjaninja78/position-grouper/internal/grouping"
	"github.com/ginjaninja78/position-grouper/internal/types"
)

// SetQuantity sets the member count of g inside a position to n.
//
// PARAMETERS:
//   - s: The current state.
//   - positionID: The position holding g.
//   - g: The group as displayed; its ids are resolved in the position.
//   - n: The target count, at least 1.
//
// RETURNS:
//   - The new state, or s with ErrInvalidNumericInput, ErrPositionNotFound,
//     ErrEmptyResolution or ErrInsufficientAvailable.
func (e *Engine) SetQuantity(s State, positionID string, g types.GroupedLineItem, n int) (State, error) {
	if n < 1 {
		return s, fmt.Errorf("%w: quantity %d is below 1", ErrInvalidNumericInput, n)
	}

	loc := InPosition(positionID)
	items, err := s.Items(loc)
	if err != nil {
		return s, err
	}

	members := grouping.Ungroup(g, items)
	current := len(members)
	if current == 0 {
		e.log.Warn().Str("op", "set_quantity").Strs("ids", g.GroupedIDs).Msg("group not found in position")
		return s, fmt.Errorf("%w: group %s", ErrEmptyResolution, g.ID)
	}

	switch {
	case n > current:
		return e.increase(s, loc, g, n-current)
	case n < current:
		return e.decrease(s, loc, g, current-n)
	default:
		return s, nil
	}
}

// increase moves need pool items matching g's base name and kind into the
// position.
func (e *Engine) increase(s State, loc Location, g types.GroupedLineItem, need int) (State, error) {
	base := grouping.BaseName(g.PositionName)

	var candidates []string
	for _, item := range s.Pool {
		if item.Kind == g.Kind && grouping.BaseName(item.PositionName) == base {
			candidates = append(candidates, item.ID)
		}
	}

	if len(candidates) < need {
		e.log.Info().
			Str("op", "set_quantity").
			Str("name", base).
			Int("available", len(candidates)).
			Int("required", need).
			Msg("not enough items in pool")
		return s, fmt.Errorf("%w: need %d more %q, pool has %d", ErrInsufficientAvailable, need, base, len(candidates))
	}

	picked, rest := grouping.Partition(candidates[:need], s.Pool)
	target, _ := s.Items(loc)

	out := s.withItems(PoolLocation(), rest)
	out = out.withItems(loc, concat(target, picked))
	return out, nil
}

// decrease returns remove items of g's base-name cohort to the pool, tail
// first, per kind when the cohort spans both kinds.
func (e *Engine) decrease(s State, loc Location, g types.GroupedLineItem, remove int) (State, error) {
	items, _ := s.Items(loc)
	base := grouping.BaseName(g.PositionName)

	var cohort []types.LineItem
	for _, item := range items {
		if grouping.BaseName(item.PositionName) == base {
			cohort = append(cohort, item)
		}
	}
	income, expense := grouping.SplitByKind(cohort)

	var evicted []types.LineItem
	if len(income) > 0 && len(expense) > 0 {
		evicted = append(evicted, tail(income, remove)...)
		evicted = append(evicted, tail(expense, remove)...)
	} else {
		evicted = tail(cohort, remove)
	}

	ids := make([]string, 0, len(evicted))
	for _, item := range evicted {
		ids = append(ids, item.ID)
	}

	returned, kept := grouping.Partition(ids, items)

	out := s.withItems(loc, kept)
	out = out.withItems(PoolLocation(), concat(s.Pool, returned))

	e.log.Debug().Str("op", "set_quantity").Int("count", len(returned)).Msg("items returned to pool")
	return out, nil
}

// tail returns the last min(n, len(items)) items.
func tail(items []types.LineItem, n int) []types.LineItem {
	if n > len(items) {
		n = len(items)
	}
	return items[len(items)-n:]
}
