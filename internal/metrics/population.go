package metrics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/biosim/internal/agent"
	"github.com/san-kum/biosim/internal/sim"
)

// MeanState is the mean of one network state component across agents, at
// the last observation.
type MeanState struct {
	name      string
	component int
	buf       []float64
	mean      float64
}

func NewMeanState(component int) *MeanState {
	return &MeanState{name: fmt.Sprintf("mean_state:%d", component), component: component}
}

func (m *MeanState) Name() string { return m.name }

func (m *MeanState) Observe(s *sim.Snapshot) {
	m.buf = m.buf[:0]
	for _, a := range s.Agents {
		st, ok := a.(agent.Stateful)
		if !ok {
			continue
		}
		if y := st.State(); m.component < len(y) {
			m.buf = append(m.buf, y[m.component])
		}
	}
	m.mean = 0
	if len(m.buf) > 0 {
		m.mean = stat.Mean(m.buf, nil)
	}
}

func (m *MeanState) Value() float64 { return m.mean }
func (m *MeanState) Reset()         { m.mean = 0 }

// Spread is the mean distance of agents from the domain centre.
type Spread struct {
	buf    []float64
	spread float64
}

func NewSpread() *Spread { return &Spread{} }

func (s *Spread) Name() string { return "spread" }

func (s *Spread) Observe(snap *sim.Snapshot) {
	c := snap.Domain.Center()
	s.buf = s.buf[:0]
	for _, a := range snap.Agents {
		p, ok := a.(agent.Positioned)
		if !ok {
			continue
		}
		pos := p.Position()
		d := 0.0
		for axis := range pos {
			d += (pos[axis] - c[axis]) * (pos[axis] - c[axis])
		}
		s.buf = append(s.buf, d)
	}
	s.spread = 0
	if len(s.buf) > 0 {
		for i, d := range s.buf {
			s.buf[i] = math.Sqrt(d)
		}
		s.spread = stat.Mean(s.buf, nil)
	}
}

func (s *Spread) Value() float64 { return s.spread }
func (s *Spread) Reset()         { s.spread = 0 }

// Standard returns the default metric set for a run over the named fields.
func Standard(fields []string) []sim.Metric {
	out := []sim.Metric{NewClamps(), NewSpread(), NewMeanState(0), NewMeanState(1)}
	for _, f := range fields {
		out = append(out, NewTotalMass(f), NewMassDrift(f))
	}
	return out
}
