// =============================================================================
// Position Grouper - Position Engine
// =============================================================================
//
// The engine applies operator actions to a State:
//   - position lifecycle (new, from group, individual, rename, delete, clear)
//   - transfers between the pool and positions
//   - quantity rebalancing
//   - price edits
//   - template items from the catalogs
//
// Each operation is atomic: it returns either a new State and a nil error,
// or the State it was given and an error.
//
// =============================================================================

package positions

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ginjaninja78/position-grouper/internal/grouping"
	"github.com/ginjaninja78/position-grouper/internal/types"
)

// Engine applies operations to State values. It holds no session data and
// is safe to share.
type Engine struct {
	log   zerolog.Logger
	newID func() string
}

// Option configures an Engine.
type Option func(*Engine)

// WithIDGenerator replaces the uuid generator used for new positions and
// template items.
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) {
		e.newID = fn
	}
}

// NewEngine creates an Engine logging to log.
func NewEngine(log zerolog.Logger, opts ...Option) *Engine {
	e := &Engine{
		log:   log.With().Str("component", "positions").Logger(),
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// =============================================================================
// POSITION LIFECYCLE
// =============================================================================

// NewPosition appends an empty position labelled service and returns it.
func (e *Engine) NewPosition(s State, service string) (State, types.Position) {
	p := types.Position{
		ID:      e.newID(),
		Service: strings.TrimSpace(service),
		Number:  s.NextPositionNumber,
	}

	out := s
	out.Positions = append(clonePositions(s.Positions), p)
	out.NextPositionNumber++

	e.log.Debug().Str("op", "new_position").Int("position", p.Number).Msg("position created")
	return out, p
}

// CreatePositionFromGroup moves every pool item sharing g's base name,
// of both kinds, into a new position whose service is the base name.
func (e *Engine) CreatePositionFromGroup(s State, g types.GroupedLineItem) (State, types.Position, error) {
	base := grouping.BaseName(g.PositionName)

	var matched, rest []types.LineItem
	for _, item := range s.Pool {
		if grouping.BaseName(item.PositionName) == base {
			matched = append(matched, item)
		} else {
			rest = append(rest, item)
		}
	}

	if len(matched) == 0 {
		return s, types.Position{}, fmt.Errorf("%w: no pool items named %q", ErrNoTargetSelected, base)
	}

	out, p := e.NewPosition(s, base)
	out = out.withItems(PoolLocation(), rest)
	out = out.withItems(InPosition(p.ID), matched)
	p, _ = out.Position(p.ID)

	e.log.Info().
		Str("op", "create_from_group").
		Int("position", p.Number).
		Int("count", len(matched)).
		Msg("position created from group")

	return out, p, nil
}

// CreateIndividualPositions creates one position per constituent of g that
// is still in the pool. Each position is labelled with the item's full
// position name.
func (e *Engine) CreateIndividualPositions(s State, g types.GroupedLineItem) (State, []types.Position, error) {
	matched, rest := grouping.Partition(g.GroupedIDs, s.Pool)
	if len(matched) == 0 {
		return s, nil, fmt.Errorf("%w: group %s is not in the pool", ErrNoTargetSelected, g.ID)
	}

	out := s.withItems(PoolLocation(), rest)
	created := make([]types.Position, 0, len(matched))

	for _, item := range matched {
		var p types.Position
		out, p = e.NewPosition(out, item.PositionName)
		out = out.withItems(InPosition(p.ID), []types.LineItem{item})
		p, _ = out.Position(p.ID)
		created = append(created, p)
	}

	e.log.Info().Str("op", "create_individual").Int("count", len(created)).Msg("positions created")
	return out, created, nil
}

// RenameService changes a position's service label.
func (e *Engine) RenameService(s State, positionID, service string) (State, error) {
	i := s.positionIndex(positionID)
	if i < 0 {
		return s, fmt.Errorf("%w: %s", ErrPositionNotFound, positionID)
	}

	out := s
	out.Positions = clonePositions(s.Positions)
	out.Positions[i].Service = strings.TrimSpace(service)
	return out, nil
}

// DeletePosition removes a position and returns its items to the pool
// tail. Position numbers are never reused.
func (e *Engine) DeletePosition(s State, positionID string) (State, error) {
	i := s.positionIndex(positionID)
	if i < 0 {
		return s, fmt.Errorf("%w: %s", ErrPositionNotFound, positionID)
	}

	deleted := s.Positions[i]

	out := s
	out.Pool = concat(s.Pool, deleted.Items)
	out.Positions = make([]types.Position, 0, len(s.Positions)-1)
	out.Positions = append(out.Positions, s.Positions[:i]...)
	out.Positions = append(out.Positions, s.Positions[i+1:]...)

	e.log.Info().
		Str("op", "delete").
		Int("position", deleted.Number).
		Int("count", len(deleted.Items)).
		Msg("position deleted")

	return out, nil
}

// ClearPositions returns every item to the pool and drops all positions.
func (e *Engine) ClearPositions(s State) State {
	out := s
	out.Pool = s.AllItems()
	out.Positions = nil
	return out
}
