// =============================================================================
// Position Grouper - Plan Files
// =============================================================================
//
// A plan is the recorded list of operator actions applied to an import:
// which groups become positions, what moves where, which quantities and
// prices change. Plans replace interactive editing for batch runs.
//
// EXAMPLE:
//   continue_on_error: false
//   actions:
//     - op: create_from_group
//       name: Перемотка статора
//     - op: set_quantity
//       position: 1
//       name: Перемотка статора
//       kind: income
//       quantity: 2
//     - op: add_employee
//       position: 1
//       catalog_id: 3
//       hours: 4.5
//       template: Перемотка статора
//
// =============================================================================

package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// PlanConfig is a list of actions applied in order.
type PlanConfig struct {
	// ContinueOnError keeps going after a failed action. The failed action
	// never changes the state.
	ContinueOnError bool `yaml:"continue_on_error"`

	// Actions are applied in file order.
	Actions []PlanAction `yaml:"actions"`
}

// PlanAction is one operator action.
type PlanAction struct {
	// Op is the action type.
	// Supported types:
	//   - "create_from_group"  : name
	//   - "create_individual"  : name, kind
	//   - "new_position"       : service
	//   - "move"               : name, kind?, from, to (0 = pool)
	//   - "set_quantity"       : position, name, kind, quantity
	//   - "edit_price"         : position (0 = pool), name, kind, amount
	//   - "rename"             : position, service
	//   - "delete"             : position
	//   - "clear"              : (none)
	//   - "add_employee"       : position, catalog_id, hours, template
	//   - "add_wire"           : position, catalog_id, meters, template
	Op string `yaml:"op"`

	// Name is the base name of the group the action targets.
	Name string `yaml:"name,omitempty"`

	// Kind narrows the group to "income" or "expense". Empty selects the
	// base group spanning both kinds.
	Kind string `yaml:"kind,omitempty"`

	// Service is the position label for new_position and rename.
	Service string `yaml:"service,omitempty"`

	// Position, From and To are position numbers; 0 is the pool.
	Position int `yaml:"position,omitempty"`
	From     int `yaml:"from,omitempty"`
	To       int `yaml:"to,omitempty"`

	// Quantity is the target count for set_quantity.
	Quantity int `yaml:"quantity,omitempty"`

	// Amount is the new total for edit_price, as typed by an operator.
	// Comma decimals and spaces are accepted.
	Amount string `yaml:"amount,omitempty"`

	// CatalogID, Hours, Meters and Template drive add_employee/add_wire.
	CatalogID int64   `yaml:"catalog_id,omitempty"`
	Hours     float64 `yaml:"hours,omitempty"`
	Meters    float64 `yaml:"meters,omitempty"`
	Template  string  `yaml:"template,omitempty"`
}

// Describe returns a short label for logs.
func (a PlanAction) Describe() string {
	parts := []string{a.Op}
	if a.Name != "" {
		parts = append(parts, fmt.Sprintf("%q", a.Name))
	}
	if a.Kind != "" {
		parts = append(parts, a.Kind)
	}
	if a.Position != 0 {
		parts = append(parts, fmt.Sprintf("#%d", a.Position))
	}
	return strings.Join(parts, " ")
}

// LoadPlan loads a plan file.
//
// PARAMETERS:
//   - planPath: The path to the plan YAML file.
//
// RETURNS:
//   - The parsed plan.
//   - An error if the file cannot be read or parsed, or an action has no op.
func LoadPlan(planPath string) (*PlanConfig, error) {
	data, err := os.ReadFile(planPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan file: %w", err)
	}

	return ParsePlan(data)
}

// ParsePlan parses plan YAML.
func ParsePlan(data []byte) (*PlanConfig, error) {
	var plan PlanConfig
	if err := yaml.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("failed to parse plan file: %w", err)
	}

	for i := range plan.Actions {
		plan.Actions[i].Op = strings.ToLower(strings.TrimSpace(plan.Actions[i].Op))
		if plan.Actions[i].Op == "" {
			return nil, fmt.Errorf("action %d has no op", i+1)
		}
	}

	return &plan, nil
}

// NeedsCatalog reports whether any action reads the employee or wire
// catalog.
func (p *PlanConfig) NeedsCatalog() bool {
	if p == nil {
		return false
	}
	for _, a := range p.Actions {
		if a.Op == "add_employee" || a.Op == "add_wire" {
			return true
		}
	}
	return false
}
