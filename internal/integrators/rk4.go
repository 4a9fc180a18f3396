package integrators

import (
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/biosim/internal/dynamo"
)

type RK4 struct {
	k1, k2, k3, k4 dynamo.State
	scratch        dynamo.State
}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) Name() string { return "rk4" }

func (r *RK4) ensureScratch(n int) {
	if len(r.k1) != n {
		r.k1 = make(dynamo.State, n)
		r.k2 = make(dynamo.State, n)
		r.k3 = make(dynamo.State, n)
		r.k4 = make(dynamo.State, n)
		r.scratch = make(dynamo.State, n)
	}
}

func (r *RK4) Advance(f dynamo.DerivFunc, t float64, y dynamo.State, h float64) dynamo.State {
	n := len(y)
	r.ensureScratch(n)

	copy(r.k1, f(t, y))

	floats.AddScaledTo(r.scratch, y, h*0.5, r.k1)
	copy(r.k2, f(t+h*0.5, r.scratch))

	floats.AddScaledTo(r.scratch, y, h*0.5, r.k2)
	copy(r.k3, f(t+h*0.5, r.scratch))

	floats.AddScaledTo(r.scratch, y, h, r.k3)
	copy(r.k4, f(t+h, r.scratch))

	result := make(dynamo.State, n)
	h6 := h / 6.0
	for i := 0; i < n; i++ {
		result[i] = y[i] + h6*(r.k1[i]+2*r.k2[i]+2*r.k3[i]+r.k4[i])
	}

	return result
}
