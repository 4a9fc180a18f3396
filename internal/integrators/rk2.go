package integrators

import (
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/biosim/internal/dynamo"
)

// RK2 is the explicit midpoint method.
type RK2 struct {
	k1      dynamo.State
	scratch dynamo.State
}

func NewRK2() *RK2 {
	return &RK2{}
}

func (r *RK2) Name() string { return "rk2" }

func (r *RK2) ensureScratch(n int) {
	if len(r.k1) != n {
		r.k1 = make(dynamo.State, n)
		r.scratch = make(dynamo.State, n)
	}
}

func (r *RK2) Advance(f dynamo.DerivFunc, t float64, y dynamo.State, h float64) dynamo.State {
	r.ensureScratch(len(y))

	copy(r.k1, f(t, y))
	floats.AddScaledTo(r.scratch, y, h*0.5, r.k1)
	k2 := f(t+h*0.5, r.scratch)

	result := make(dynamo.State, len(y))
	floats.AddScaledTo(result, y, h, k2)
	return result
}
