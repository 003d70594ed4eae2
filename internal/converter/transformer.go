// =============================================================================
// Position Grouper - Plan Transformer
// =============================================================================
//
// This module applies plan actions to a session state. Each action names its
// targets the way an operator sees them: groups by base name (and optionally
// kind), positions by their number, amounts as typed text. The transformer
// resolves those references and calls the position engine.
//
// GROUP RESOLUTION:
//   - kind empty:  base grouping over the location's items; the first group
//                  whose base name matches (case-insensitive).
//   - kind set:    strict grouping; the first group with a matching base
//                  name and that kind.
//
// LOCATIONS:
//   Position number 0 is the pool.
//
// ERROR POLICY:
//   A failed action never changes the state. With continue_on_error the
//   remaining actions still run; otherwise the first failure stops the plan.
//
// =============================================================================

package converter

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ginjaninja78/position-grouper/internal/catalog"
	"github.com/ginjaninja78/position-grouper/internal/config"
	"github.com/ginjaninja78/position-grouper/internal/grouping"
	"github.com/ginjaninja78/position-grouper/internal/positions"
	"github.com/ginjaninja78/position-grouper/internal/types"
	"github.com/ginjaninja78/position-grouper/internal/validation"
)

// ErrGroupNotFound is returned when a plan names a group that does not
// exist at the given location.
var ErrGroupNotFound = errors.New("group not found")

// =============================================================================
// TRANSFORMER
// =============================================================================

// Transformer applies plan actions.
type Transformer struct {
	engine  *positions.Engine
	catalog Catalog
	logger  zerolog.Logger
}

// ApplyStats counts applied and failed actions.
type ApplyStats struct {
	Applied int
	Failed  int
}

// NewTransformer creates a new Transformer. cat may be nil when the plan
// has no template actions.
func NewTransformer(engine *positions.Engine, cat Catalog, logger zerolog.Logger) *Transformer {
	return &Transformer{
		engine:  engine,
		catalog: cat,
		logger:  logger,
	}
}

// =============================================================================
// TRANSFORMATION FUNCTIONS
// =============================================================================

// Apply runs every action of plan in order.
//
// PARAMETERS:
//   - ctx: Context for catalog lookups.
//   - s: The state after import.
//   - plan: The actions.
//
// RETURNS:
//   - The state after the last successful action.
//   - Action counts.
//   - The first action error, unless plan.ContinueOnError is set.
func (t *Transformer) Apply(ctx context.Context, s positions.State, plan *config.PlanConfig) (positions.State, ApplyStats, error) {
	var stats ApplyStats

	for i, action := range plan.Actions {
		if err := ctx.Err(); err != nil {
			return s, stats, err
		}

		next, err := t.ApplyAction(ctx, s, action)
		if err != nil {
			stats.Failed++
			t.logger.Warn().Err(err).Int("action", i+1).Str("op", action.Op).Msg("plan action failed")
			if !plan.ContinueOnError {
				return s, stats, fmt.Errorf("action %d (%s): %w", i+1, action.Describe(), err)
			}
			continue
		}

		s = next
		stats.Applied++
	}

	t.logger.Info().Int("applied", stats.Applied).Int("failed", stats.Failed).Msg("plan applied")
	return s, stats, nil
}

// ApplyAction applies a single action.
//
// SUPPORTED ACTIONS:
//   See config.PlanAction for the fields each op reads.
func (t *Transformer) ApplyAction(ctx context.Context, s positions.State, action config.PlanAction) (positions.State, error) {
	switch action.Op {
	case "create_from_group":
		g, err := t.resolveGroup(s.Pool, action.Name, action.Kind)
		if err != nil {
			return s, err
		}
		out, _, err := t.engine.CreatePositionFromGroup(s, g)
		return out, err

	case "create_individual":
		g, err := t.resolveGroup(s.Pool, action.Name, action.Kind)
		if err != nil {
			return s, err
		}
		out, _, err := t.engine.CreateIndividualPositions(s, g)
		return out, err

	case "new_position":
		out, _ := t.engine.NewPosition(s, action.Service)
		return out, nil

	case "move":
		from, err := location(s, action.From)
		if err != nil {
			return s, err
		}
		to, err := location(s, action.To)
		if err != nil {
			return s, err
		}
		items, err := s.Items(from)
		if err != nil {
			return s, err
		}
		g, err := t.resolveGroup(items, action.Name, action.Kind)
		if err != nil {
			return s, err
		}

		var transfer positions.Transfer
		transfer.Begin(g, from)
		return t.engine.CompleteTransfer(s, &transfer, to)

	case "set_quantity":
		p, err := position(s, action.Position)
		if err != nil {
			return s, err
		}
		g, err := t.resolveGroup(p.Items, action.Name, action.Kind)
		if err != nil {
			return s, err
		}
		return t.engine.SetQuantity(s, p.ID, g, action.Quantity)

	case "edit_price":
		amount, err := validation.ParseAmount(action.Amount)
		if err != nil {
			return s, err
		}
		loc, err := location(s, action.Position)
		if err != nil {
			return s, err
		}
		items, err := s.Items(loc)
		if err != nil {
			return s, err
		}
		g, err := t.resolveGroup(items, action.Name, action.Kind)
		if err != nil {
			return s, err
		}
		return t.engine.EditPrice(s, loc, g, amount)

	case "rename":
		p, err := position(s, action.Position)
		if err != nil {
			return s, err
		}
		return t.engine.RenameService(s, p.ID, action.Service)

	case "delete":
		p, err := position(s, action.Position)
		if err != nil {
			return s, err
		}
		return t.engine.DeletePosition(s, p.ID)

	case "clear":
		return t.engine.ClearPositions(s), nil

	case "add_employee", "add_wire":
		return t.addTemplateItem(ctx, s, action)

	default:
		return s, fmt.Errorf("unknown plan action: %s", action.Op)
	}
}

// addTemplateItem adds a catalog-based item to a position. The template is
// the first item in the position whose base name matches action.Template.
// Deactivated catalog entries resolve as not found.
func (t *Transformer) addTemplateItem(ctx context.Context, s positions.State, action config.PlanAction) (positions.State, error) {
	if t.catalog == nil {
		return s, fmt.Errorf("%s requires a catalog", action.Op)
	}

	p, err := position(s, action.Position)
	if err != nil {
		return s, err
	}

	template, err := findTemplate(p.Items, action.Template, action.Kind)
	if err != nil {
		return s, err
	}

	var src positions.TemplateSource
	var amount float64
	if action.Op == "add_employee" {
		emp, err := t.catalog.GetEmployee(ctx, action.CatalogID)
		if err != nil {
			return s, err
		}
		if !emp.IsActive {
			return s, fmt.Errorf("%w: employee %d is inactive", catalog.ErrNotFound, emp.ID)
		}
		src, amount = emp.Source(), action.Hours
	} else {
		wire, err := t.catalog.GetWire(ctx, action.CatalogID)
		if err != nil {
			return s, err
		}
		if !wire.IsActive {
			return s, fmt.Errorf("%w: wire %d is inactive", catalog.ErrNotFound, wire.ID)
		}
		src, amount = wire.Source(), action.Meters
	}

	out, _, err := t.engine.AddTemplateItem(s, p.ID, src, template, amount)
	return out, err
}

// =============================================================================
// RESOLUTION HELPERS
// =============================================================================

// resolveGroup finds the group named name among items.
func (t *Transformer) resolveGroup(items []types.LineItem, name, kind string) (types.GroupedLineItem, error) {
	want, narrow, err := parseKind(kind)
	if err != nil {
		return types.GroupedLineItem{}, err
	}

	mode := grouping.Base
	if narrow {
		mode = grouping.Strict
	}

	for _, g := range grouping.Group(items, mode) {
		if !nameMatches(g.PositionName, name) {
			continue
		}
		if narrow && g.Kind != want {
			continue
		}
		return g, nil
	}

	if kind != "" {
		return types.GroupedLineItem{}, fmt.Errorf("%w: %q (%s)", ErrGroupNotFound, name, kind)
	}
	return types.GroupedLineItem{}, fmt.Errorf("%w: %q", ErrGroupNotFound, name)
}

// findTemplate returns the first item matching name and, if set, kind.
func findTemplate(items []types.LineItem, name, kind string) (types.LineItem, error) {
	want, narrow, err := parseKind(kind)
	if err != nil {
		return types.LineItem{}, err
	}

	for _, item := range items {
		if narrow && item.Kind != want {
			continue
		}
		if nameMatches(item.PositionName, name) {
			return item, nil
		}
	}
	return types.LineItem{}, fmt.Errorf("%w: template %q", ErrGroupNotFound, name)
}

// nameMatches compares base names case-insensitively.
func nameMatches(positionName, name string) bool {
	return strings.EqualFold(grouping.BaseName(positionName), grouping.BaseName(name))
}

// parseKind accepts "", "income" and "expense". narrow is false for "".
func parseKind(kind string) (types.Kind, bool, error) {
	switch k := types.Kind(strings.ToLower(strings.TrimSpace(kind))); k {
	case "":
		return "", false, nil
	case types.KindIncome, types.KindExpense:
		return k, true, nil
	default:
		return "", false, fmt.Errorf("unknown kind: %s", kind)
	}
}

// location maps a position number to a location; 0 is the pool.
func location(s positions.State, number int) (positions.Location, error) {
	if number == 0 {
		return positions.PoolLocation(), nil
	}
	p, err := position(s, number)
	if err != nil {
		return positions.Location{}, err
	}
	return positions.InPosition(p.ID), nil
}

// position looks up a position by number.
func position(s positions.State, number int) (types.Position, error) {
	p, ok := s.PositionByNumber(number)
	if !ok {
		return types.Position{}, fmt.Errorf("%w: number %d", positions.ErrPositionNotFound, number)
	}
	return p, nil
}
