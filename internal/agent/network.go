package agent

import (
	"fmt"
	"math"

	"github.com/san-kum/biosim/internal/dynamo"
	"github.com/san-kum/biosim/internal/integrators"
)

// Network is the internal continuous state of an agent, advanced once per
// tick with the concentration the agent senses.
type Network interface {
	State() dynamo.State
	Advance(t, dt, ext float64) error
}

// ParamSystem is an ODE system driven by one external concentration.
type ParamSystem interface {
	dynamo.System
	SetExternal(c float64)
}

// DelayParamSystem is a DDE system driven by one external concentration.
type DelayParamSystem interface {
	dynamo.DelaySystem
	SetExternal(c float64)
}

// NetworkOptions map the simulation clock onto network time. The network
// runs in units of clock time multiplied by TimeScale, in steps of H.
type NetworkOptions struct {
	H         float64
	TimeScale float64
	Dt        float64
}

func (o NetworkOptions) substeps() (int, error) {
	if o.H <= 0 {
		return 0, fmt.Errorf("network step must be positive, got %f: %w", o.H, dynamo.ErrParameterBounds)
	}
	if o.TimeScale <= 0 {
		return 0, fmt.Errorf("time scale must be positive, got %f: %w", o.TimeScale, dynamo.ErrParameterBounds)
	}
	span := o.Dt * o.TimeScale
	n := int(math.Round(span / o.H))
	if n < 1 || math.Abs(float64(n)*o.H-span) > 1e-9*span {
		return 0, fmt.Errorf("tick span %g is not a whole number of steps of %g: %w", span, o.H, dynamo.ErrParameterBounds)
	}
	return n, nil
}

type ODENetwork struct {
	sys   ParamSystem
	integ dynamo.Integrator
	y     dynamo.State
	opts  NetworkOptions
	steps int
}

func NewODENetwork(sys ParamSystem, integ dynamo.Integrator, opts NetworkOptions) (*ODENetwork, error) {
	steps, err := opts.substeps()
	if err != nil {
		return nil, err
	}
	y := sys.InitialConditions()
	if len(y) != sys.NumEq() {
		return nil, fmt.Errorf("initial conditions have %d values, want %d: %w", len(y), sys.NumEq(), dynamo.ErrDimensionMismatch)
	}
	return &ODENetwork{sys: sys, integ: integ, y: y.Clone(), opts: opts, steps: steps}, nil
}

func (n *ODENetwork) State() dynamo.State { return n.y.Clone() }

func (n *ODENetwork) Advance(t, dt, ext float64) error {
	n.sys.SetExternal(ext)
	tn := t * n.opts.TimeScale
	for i := 0; i < n.steps; i++ {
		n.y = integrators.Step(n.integ, n.sys, tn+float64(i)*n.opts.H, n.y, n.opts.H)
	}
	if !n.y.IsValid() {
		return dynamo.ErrInvalidState
	}
	return nil
}

type DDENetwork struct {
	sys   DelayParamSystem
	dde   *integrators.DDE
	opts  NetworkOptions
	steps int
}

func NewDDENetwork(sys DelayParamSystem, integ dynamo.Integrator, opts NetworkOptions) (*DDENetwork, error) {
	steps, err := opts.substeps()
	if err != nil {
		return nil, err
	}
	dde, err := integrators.NewDDE(sys, integ, opts.H)
	if err != nil {
		return nil, err
	}
	return &DDENetwork{sys: sys, dde: dde, opts: opts, steps: steps}, nil
}

func (n *DDENetwork) State() dynamo.State              { return n.dde.State() }
func (n *DDENetwork) Gaps() []integrators.PrecisionGap { return n.dde.Gaps() }

func (n *DDENetwork) Advance(t, dt, ext float64) error {
	n.sys.SetExternal(ext)
	tn := t * n.opts.TimeScale
	var y dynamo.State
	for i := 0; i < n.steps; i++ {
		y = n.dde.Step(tn + float64(i)*n.opts.H)
	}
	if !y.IsValid() {
		return dynamo.ErrInvalidState
	}
	return nil
}
