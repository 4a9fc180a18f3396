package field

import "errors"

var (
	// ErrInvalidGrid indicates a non-positive box count or bound.
	ErrInvalidGrid = errors.New("field: invalid grid")

	// ErrInvalidRate indicates a negative diffusivity or decay rate.
	ErrInvalidRate = errors.New("field: invalid rate")

	// ErrDecayTooLarge indicates decayRate*dt >= 1, which would flip the sign
	// of every quantity on decay.
	ErrDecayTooLarge = errors.New("field: decay rate times dt must be below 1")

	// ErrInvalidAxis indicates an axis outside 0..2.
	ErrInvalidAxis = errors.New("field: axis out of range")
)
