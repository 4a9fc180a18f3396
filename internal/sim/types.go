package sim

import (
	"github.com/san-kum/biosim/internal/agent"
	"github.com/san-kum/biosim/internal/field"
)

// Snapshot is a read-only view of the simulation between ticks. It is only
// valid until the next tick.
type Snapshot struct {
	Tick   uint64
	Time   float64
	Domain field.Domain
	Fields []*field.Field
	Agents []agent.Agent
}

// Field returns the named field, or nil.
func (s *Snapshot) Field(name string) *field.Field {
	for _, f := range s.Fields {
		if f.Name() == name {
			return f
		}
	}
	return nil
}

type Metric interface {
	Name() string
	Observe(s *Snapshot)
	Value() float64
	Reset()
}

type Observer interface {
	OnTick(s *Snapshot) error
}

// ClampObserver is implemented by observers that want every clamp event.
type ClampObserver interface {
	OnClamp(ev field.ClampEvent)
}

type Result struct {
	Ticks  uint64
	Times  []float64
	Totals map[string][]float64
	Clamps map[string]int
	// Metrics holds the final value of every registered metric.
	Metrics map[string]float64
	Elapsed float64
}
