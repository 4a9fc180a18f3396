package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrInvalidState indicates a state vector with invalid dimensions or values.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrUnstable indicates the simulation became numerically unstable.
	ErrUnstable = errors.New("dynamo: simulation unstable (state diverged)")

	// ErrParameterBounds indicates a parameter value is outside valid range.
	ErrParameterBounds = errors.New("dynamo: parameter out of valid bounds")

	// ErrDimensionMismatch indicates mismatched state/system dimensions.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch between state and system")

	// ErrDelayOutOfRange indicates a delayed lookup beyond the history buffer.
	ErrDelayOutOfRange = errors.New("dynamo: delay exceeds history capacity")

	// ErrHistorySealed indicates an attempt to seed a history that has
	// already committed an integration step.
	ErrHistorySealed = errors.New("dynamo: history already advanced")
)

// SimulationError wraps an error with simulation context.
type SimulationError struct {
	Tick    uint64
	Time    float64
	Agent   int
	Wrapped error
}

func (e *SimulationError) Error() string {
	if e.Agent >= 0 {
		return fmt.Sprintf("tick %d (t=%.4f) agent %d: %v", e.Tick, e.Time, e.Agent, e.Wrapped)
	}
	return fmt.Sprintf("tick %d (t=%.4f): %v", e.Tick, e.Time, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
