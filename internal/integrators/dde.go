package integrators

import (
	"fmt"
	"math"

	"github.com/san-kum/biosim/internal/dynamo"
)

// PrecisionGap records a configured delay that is not an integer multiple of
// the step. Lookups resolve it to the nearest earlier sample, Effective.
type PrecisionGap struct {
	Delay     float64
	Effective float64
	Row       int
}

func (g PrecisionGap) String() string {
	return fmt.Sprintf("delay %.6g resolves to %.6g (row %d)", g.Delay, g.Effective, g.Row)
}

// DDE advances a delay system with a fixed-step integrator and owns its
// history buffer.
type DDE struct {
	sys   dynamo.DelaySystem
	integ dynamo.Integrator
	hist  *dynamo.History
	h     float64
	gaps  []PrecisionGap
}

// NewDDE sizes the history from sys.MaxDelay(), seeds it and validates any
// delays the system reports, so no lookup can fall outside the buffer.
func NewDDE(sys dynamo.DelaySystem, integ dynamo.Integrator, h float64) (*DDE, error) {
	if h <= 0 {
		return nil, fmt.Errorf("dde: step must be positive, got %f: %w", h, dynamo.ErrParameterBounds)
	}

	maxDelay := sys.MaxDelay()
	hist, err := dynamo.NewHistory(sys.NumEq(), maxDelay, h)
	if err != nil {
		return nil, fmt.Errorf("dde: %w", err)
	}
	sys.SeedInitialHistory(hist)

	d := &DDE{sys: sys, integ: integ, hist: hist, h: h}

	if lister, ok := sys.(dynamo.DelayLister); ok {
		for _, delay := range lister.Delays() {
			if delay > maxDelay {
				return nil, fmt.Errorf("dde: delay %f exceeds max delay %f: %w", delay, maxDelay, dynamo.ErrDelayOutOfRange)
			}
			if err := hist.CheckDelay(delay); err != nil {
				return nil, fmt.Errorf("dde: %w", err)
			}
			ratio := delay / h
			if math.Abs(ratio-math.Round(ratio)) > 1e-9 {
				row := hist.DelayIndex(delay)
				d.gaps = append(d.gaps, PrecisionGap{Delay: delay, Effective: float64(row) * h, Row: row})
			}
		}
	}

	return d, nil
}

// Step integrates from t to t+h. Every stage reads delayed terms from the
// committed history; the buffer is shifted once, after the stages combine.
func (d *DDE) Step(t float64) dynamo.State {
	f := func(tt float64, y dynamo.State) dynamo.State {
		return d.sys.Derivative(tt, y, d.hist)
	}
	next := d.integ.Advance(f, t, d.hist.Latest(), d.h)

	slot := d.hist.Shift()
	copy(slot, next)
	return next
}

// State returns a copy of the latest committed state.
func (d *DDE) State() dynamo.State { return d.hist.Latest().Clone() }

func (d *DDE) History() *dynamo.History { return d.hist }
func (d *DDE) H() float64               { return d.h }
func (d *DDE) Gaps() []PrecisionGap     { return d.gaps }
