// Package metrics implements sim.Metric summaries of fields and agents.
package metrics

import (
	"math"

	"github.com/san-kum/biosim/internal/sim"
)

// TotalMass reports the total quantity of one field at the last observation.
type TotalMass struct {
	name  string
	field string
	total float64
}

func NewTotalMass(field string) *TotalMass {
	return &TotalMass{name: "mass:" + field, field: field}
}

func (m *TotalMass) Name() string { return m.name }

func (m *TotalMass) Observe(s *sim.Snapshot) {
	if f := s.Field(m.field); f != nil {
		m.total = f.TotalQuantity()
	}
}

func (m *TotalMass) Value() float64 { return m.total }
func (m *TotalMass) Reset()         { m.total = 0 }

// MassDrift reports the largest relative change of a field's total quantity
// from the first observation.
type MassDrift struct {
	name     string
	field    string
	initial  float64
	maxDrift float64
	samples  int
}

func NewMassDrift(field string) *MassDrift {
	return &MassDrift{name: "drift:" + field, field: field}
}

func (m *MassDrift) Name() string { return m.name }

func (m *MassDrift) Observe(s *sim.Snapshot) {
	f := s.Field(m.field)
	if f == nil {
		return
	}
	total := f.TotalQuantity()
	if m.samples == 0 {
		m.initial = total
	}
	m.samples++

	if m.initial != 0 {
		drift := math.Abs(total-m.initial) / math.Abs(m.initial)
		m.maxDrift = math.Max(m.maxDrift, drift)
	}
}

func (m *MassDrift) Value() float64 { return m.maxDrift }

func (m *MassDrift) Reset() {
	m.initial = 0
	m.maxDrift = 0
	m.samples = 0
}

// Clamps counts clamp events across every field.
type Clamps struct {
	count int
}

func NewClamps() *Clamps { return &Clamps{} }

func (c *Clamps) Name() string { return "clamps" }

func (c *Clamps) Observe(s *sim.Snapshot) {
	c.count = 0
	for _, f := range s.Fields {
		c.count += f.Clamps()
	}
}

func (c *Clamps) Value() float64 { return float64(c.count) }
func (c *Clamps) Reset()         { c.count = 0 }
