package engine

import "errors"

var (
	// ErrNoValidPacking means every beam state starved on some item.
	ErrNoValidPacking = errors.New("no valid packing")
	// ErrBudgetExhausted means the node budget ran out before the search finished.
	ErrBudgetExhausted = errors.New("search budget exhausted")
	// ErrInvalidVehicle means a vehicle body dimension is not positive.
	ErrInvalidVehicle = errors.New("invalid vehicle dimensions")
)
