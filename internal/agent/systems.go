package agent

import (
	"fmt"
	"math"

	"github.com/san-kum/biosim/internal/dynamo"
)

// Uptake is a two-species nutrient-processing network.
// State: [n, p], internal nutrient and product.
// Equations:
//
//	dn/dt = vmax·c/(km + c) - kconv·n
//	dp/dt = kconv·n - kdeg·p
//
// where c is the sensed external concentration.
type Uptake struct {
	vmax  float64
	km    float64
	kconv float64
	kdeg  float64
	ext   float64
}

func NewUptake() *Uptake {
	return &Uptake{vmax: 1.0, km: 0.5, kconv: 0.2, kdeg: 0.1}
}

func (u *Uptake) NumEq() int                      { return 2 }
func (u *Uptake) InitialConditions() dynamo.State { return dynamo.State{0, 0} }
func (u *Uptake) SetExternal(c float64)           { u.ext = math.Max(c, 0) }

// Rate is the Michaelis-Menten import rate at concentration c.
func (u *Uptake) Rate(c float64) float64 {
	if c <= 0 {
		return 0
	}
	return u.vmax * c / (u.km + c)
}

func (u *Uptake) Derivative(_ float64, y dynamo.State) dynamo.State {
	n, p := y[0], y[1]
	dn := u.Rate(u.ext) - u.kconv*n
	dp := u.kconv*n - u.kdeg*p
	return dynamo.State{dn, dp}
}

func (u *Uptake) GetParams() map[string]float64 {
	return map[string]float64{
		"vmax":  u.vmax,
		"km":    u.km,
		"kconv": u.kconv,
		"kdeg":  u.kdeg,
	}
}

func (u *Uptake) SetParam(name string, value float64) error {
	if value < 0 || math.IsNaN(value) {
		return fmt.Errorf("uptake %s=%f: %w", name, value, dynamo.ErrParameterBounds)
	}
	switch name {
	case "vmax":
		u.vmax = value
	case "km":
		u.km = value
	case "kconv":
		u.kconv = value
	case "kdeg":
		u.kdeg = value
	default:
		return fmt.Errorf("uptake: unknown parameter %q", name)
	}
	return nil
}

// Autorepressor is a Hes1-style negative feedback loop where the protein
// represses transcription of its own mRNA after a delay tau.
// State: [m, p], mRNA and protein.
// Equations:
//
//	dm/dt = alpha·(1 + gain·c)/(1 + (p(t-tau)/p0)^hill) - mum·m
//	dp/dt = beta·m - mup·p
type Autorepressor struct {
	alpha float64
	beta  float64
	mum   float64
	mup   float64
	p0    float64
	hill  float64
	tau   float64
	gain  float64
	ext   float64

	initial dynamo.State
}

// NewAutorepressor returns the repressor with parameters in minutes.
func NewAutorepressor() *Autorepressor {
	return &Autorepressor{
		alpha:   1.0,
		beta:    1.0,
		mum:     0.03,
		mup:     0.03,
		p0:      100,
		hill:    5,
		tau:     18,
		initial: dynamo.State{3, 100},
	}
}

func (a *Autorepressor) NumEq() int            { return 2 }
func (a *Autorepressor) MaxDelay() float64     { return a.tau }
func (a *Autorepressor) Delays() []float64     { return []float64{a.tau} }
func (a *Autorepressor) SetExternal(c float64) { a.ext = math.Max(c, 0) }

// SeedInitialHistory fills the buffer with a constant pre-history. It panics
// if the buffer was not sized for this system.
func (a *Autorepressor) SeedInitialHistory(hist *dynamo.History) {
	if err := hist.Fill(a.initial); err != nil {
		panic(fmt.Sprintf("autorepressor: seed history: %v", err))
	}
}

func (a *Autorepressor) Derivative(_ float64, y dynamo.State, hist *dynamo.History) dynamo.State {
	m, p := y[0], y[1]
	pd := hist.DelayedState(a.tau)[1]

	drive := a.alpha * (1 + a.gain*a.ext)
	dm := drive/(1+math.Pow(math.Max(pd, 0)/a.p0, a.hill)) - a.mum*m
	dp := a.beta*m - a.mup*p
	return dynamo.State{dm, dp}
}

func (a *Autorepressor) GetParams() map[string]float64 {
	return map[string]float64{
		"alpha": a.alpha,
		"beta":  a.beta,
		"mum":   a.mum,
		"mup":   a.mup,
		"p0":    a.p0,
		"hill":  a.hill,
		"tau":   a.tau,
		"gain":  a.gain,
	}
}

// SetParam changes one parameter. tau sizes the history, so it must be set
// before the system is handed to a DDE stepper.
func (a *Autorepressor) SetParam(name string, value float64) error {
	if value < 0 || math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Errorf("autorepressor %s=%f: %w", name, value, dynamo.ErrParameterBounds)
	}
	switch name {
	case "alpha":
		a.alpha = value
	case "beta":
		a.beta = value
	case "mum":
		a.mum = value
	case "mup":
		a.mup = value
	case "p0":
		if value == 0 {
			return fmt.Errorf("autorepressor p0 must be positive: %w", dynamo.ErrParameterBounds)
		}
		a.p0 = value
	case "hill":
		a.hill = value
	case "tau":
		a.tau = value
	case "gain":
		a.gain = value
	default:
		return fmt.Errorf("autorepressor: unknown parameter %q", name)
	}
	return nil
}

// NewSystem returns a fresh network system by name.
func NewSystem(name string) (any, error) {
	switch name {
	case "uptake":
		return NewUptake(), nil
	case "autorepressor", "hes1":
		return NewAutorepressor(), nil
	default:
		return nil, fmt.Errorf("unknown network: %s", name)
	}
}

// NewNetwork builds a network by name with its own integrator instance.
// params override system defaults.
func NewNetwork(name string, integ dynamo.Integrator, opts NetworkOptions, params map[string]float64) (Network, error) {
	sys, err := NewSystem(name)
	if err != nil {
		return nil, err
	}
	if c, ok := sys.(dynamo.Configurable); ok {
		for k, v := range params {
			if err := c.SetParam(k, v); err != nil {
				return nil, err
			}
		}
	}
	switch s := sys.(type) {
	case DelayParamSystem:
		return NewDDENetwork(s, integ, opts)
	case ParamSystem:
		return NewODENetwork(s, integ, opts)
	default:
		return nil, fmt.Errorf("network %s has no driver", name)
	}
}
