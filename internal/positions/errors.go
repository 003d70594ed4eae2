package positions

import "errors"

// Engine errors. Every operation returning one of these leaves the state
// it was given unchanged.
var (
	// ErrInsufficientAvailable is returned when a quantity increase needs
	// more matching pool items than exist.
	ErrInsufficientAvailable = errors.New("insufficient matching items in pool")

	// ErrEmptyResolution is returned when a group resolves to zero items in
	// its source collection, e.g. after an out-of-band change.
	ErrEmptyResolution = errors.New("group resolved to no items")

	// ErrInvalidNumericInput is returned for NaN, infinite or out-of-range
	// price, hours or quantity edits.
	ErrInvalidNumericInput = errors.New("invalid numeric input")

	// ErrNoTargetSelected is returned when an action finds no source data.
	ErrNoTargetSelected = errors.New("no matching items selected")

	// ErrPositionNotFound is returned for an unknown position id or number.
	ErrPositionNotFound = errors.New("position not found")

	// ErrNotArmed is returned when a transfer is completed without being
	// begun.
	ErrNotArmed = errors.New("no transfer in progress")
)
