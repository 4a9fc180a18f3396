package integrators

import (
	"testing"

	"github.com/san-kum/biosim/internal/dynamo"
)

type benchDynamics struct{}

func (b *benchDynamics) NumEq() int                       { return 2 }
func (b *benchDynamics) InitialConditions() dynamo.State { return dynamo.State{1, 0} }
func (b *benchDynamics) Derivative(t float64, y dynamo.State) dynamo.State {
	return dynamo.State{y[1], -y[0]}
}

func BenchmarkEuler(b *testing.B) {
	integrator := NewEuler()
	dyn := &benchDynamics{}
	x := dynamo.State{1.0, 0.0}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x = Step(integrator, dyn, 0, x, 0.01)
	}
}

func BenchmarkRK2(b *testing.B) {
	integrator := NewRK2()
	dyn := &benchDynamics{}
	x := dynamo.State{1.0, 0.0}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x = Step(integrator, dyn, 0, x, 0.01)
	}
}

func BenchmarkRK4(b *testing.B) {
	integrator := NewRK4()
	dyn := &benchDynamics{}
	x := dynamo.State{1.0, 0.0}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x = Step(integrator, dyn, 0, x, 0.01)
	}
}

func BenchmarkDDE_RK4(b *testing.B) {
	d, err := NewDDE(&delayedDecay{tau: 1.0}, NewRK4(), 0.01)
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		d.Step(float64(i) * 0.01)
	}
}
