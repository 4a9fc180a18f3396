package integrators

import (
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/biosim/internal/dynamo"
)

type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Name() string { return "euler" }

func (e *Euler) Advance(f dynamo.DerivFunc, t float64, y dynamo.State, h float64) dynamo.State {
	dy := f(t, y)
	result := make(dynamo.State, len(y))
	floats.AddScaledTo(result, y, h, dy)
	return result
}
