package dynamo

import (
	"math"
)

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

func (s State) Add(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] + other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

func (s State) Scale(factor float64) State {
	result := make(State, len(s))
	for i := range s {
		result[i] = s[i] * factor
	}
	return result
}

func (s State) Sub(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] - other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

// Vec3 is a point or extent in simulation space.
type Vec3 [3]float64

// System is an ODE system dy/dt = f(t, y).
type System interface {
	Derivative(t float64, y State) State
	NumEq() int
	InitialConditions() State
}

// DelaySystem is a DDE system. Delayed terms are read from hist, which holds
// committed states only.
type DelaySystem interface {
	Derivative(t float64, y State, hist *History) State
	NumEq() int
	MaxDelay() float64
	SeedInitialHistory(hist *History)
}

// DelayLister is implemented by delay systems that can report every delay
// they read, so the delays can be checked against the history at setup.
type DelayLister interface {
	Delays() []float64
}

type DerivFunc func(t float64, y State) State

type Integrator interface {
	Name() string
	Advance(f DerivFunc, t float64, y State, h float64) State
}

type Configurable interface {
	GetParams() map[string]float64
	SetParam(name string, value float64) error
}

// Clock is the global simulation clock.
type Clock struct {
	Dt   float64
	Time float64
	Tick uint64
}

func NewClock(dt float64) *Clock {
	return &Clock{Dt: dt}
}

func (c *Clock) Advance() {
	c.Tick++
	c.Time = float64(c.Tick) * c.Dt
}
