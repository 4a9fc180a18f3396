package dynamo

import (
	"fmt"
	"math"
)

// delayEps absorbs floating-point noise when a delay is an exact multiple of
// the step (0.3/0.1 evaluates to 2.9999999999999996).
const delayEps = 1e-9

// History is a fixed-capacity, most-recent-first record of committed states,
// spaced one integration step apart. Row 0 is the latest committed state.
//
// After seeding, Shift is the only mutator.
type History struct {
	h      float64
	numEq  int
	rows   []State
	sealed bool
}

// Capacity returns the number of rows needed to resolve delays up to maxDelay
// at step h: ceil(maxDelay/h)+1.
func Capacity(maxDelay, h float64) int {
	return int(math.Ceil(maxDelay/h-delayEps)) + 1
}

func NewHistory(numEq int, maxDelay, h float64) (*History, error) {
	if numEq <= 0 {
		return nil, fmt.Errorf("history: numEq must be positive, got %d: %w", numEq, ErrParameterBounds)
	}
	if h <= 0 || math.IsNaN(h) {
		return nil, fmt.Errorf("history: step must be positive, got %f: %w", h, ErrParameterBounds)
	}
	if maxDelay < 0 || math.IsNaN(maxDelay) || math.IsInf(maxDelay, 0) {
		return nil, fmt.Errorf("history: max delay must be finite and non-negative, got %f: %w", maxDelay, ErrParameterBounds)
	}

	n := Capacity(maxDelay, h)
	rows := make([]State, n)
	for i := range rows {
		rows[i] = make(State, numEq)
	}
	return &History{h: h, numEq: numEq, rows: rows}, nil
}

func (hs *History) Len() int      { return len(hs.rows) }
func (hs *History) Step() float64 { return hs.h }
func (hs *History) NumEq() int    { return hs.numEq }

// Latest returns the most recently committed state. The slice is owned by the
// history and is overwritten as the buffer rotates.
func (hs *History) Latest() State { return hs.rows[0] }

// At returns the state committed i steps ago.
func (hs *History) At(i int) State { return hs.rows[i] }

// Seed sets row i (i steps in the past). Only valid before the first Shift.
func (hs *History) Seed(i int, y State) error {
	if hs.sealed {
		return ErrHistorySealed
	}
	if i < 0 || i >= len(hs.rows) {
		return fmt.Errorf("history: seed index %d outside [0,%d): %w", i, len(hs.rows), ErrDelayOutOfRange)
	}
	if len(y) != hs.numEq {
		return fmt.Errorf("history: seed has %d values, want %d: %w", len(y), hs.numEq, ErrDimensionMismatch)
	}
	copy(hs.rows[i], y)
	return nil
}

// Fill seeds every row with the constant trajectory y.
func (hs *History) Fill(y State) error {
	for i := range hs.rows {
		if err := hs.Seed(i, y); err != nil {
			return err
		}
	}
	return nil
}

// DelayIndex returns floor(delay/h), the row holding the nearest sample at or
// before t-delay.
func (hs *History) DelayIndex(delay float64) int {
	return int(math.Floor(delay/hs.h + delayEps))
}

// CheckDelay reports whether delay can be resolved by this buffer.
func (hs *History) CheckDelay(delay float64) error {
	if delay < 0 || math.IsNaN(delay) {
		return fmt.Errorf("history: negative delay %f: %w", delay, ErrParameterBounds)
	}
	if idx := hs.DelayIndex(delay); idx >= len(hs.rows) {
		return fmt.Errorf("history: delay %f needs row %d, capacity %d: %w", delay, idx, len(hs.rows), ErrDelayOutOfRange)
	}
	return nil
}

// DelayedState returns the committed state floor(delay/h) steps back. It does
// not interpolate. A delay beyond the buffer is a programming error and panics;
// NewDDE rejects such configurations up front.
func (hs *History) DelayedState(delay float64) State {
	idx := hs.DelayIndex(delay)
	if idx < 0 || idx >= len(hs.rows) {
		panic(fmt.Sprintf("%v: delay %f -> row %d of %d", ErrDelayOutOfRange, delay, idx, len(hs.rows)))
	}
	return hs.rows[idx]
}

// Shift discards the oldest row, moves the remaining rows back one slot and
// returns the recycled row now at index 0 for the caller to fill with the
// newly computed state.
func (hs *History) Shift() State {
	hs.sealed = true
	last := len(hs.rows) - 1
	oldest := hs.rows[last]
	copy(hs.rows[1:], hs.rows[:last])
	hs.rows[0] = oldest
	return oldest
}
