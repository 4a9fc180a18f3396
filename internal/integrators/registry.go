package integrators

import (
	"fmt"
	"sort"

	"github.com/san-kum/biosim/internal/dynamo"
)

var registry = map[string]func() dynamo.Integrator{
	"euler": func() dynamo.Integrator { return NewEuler() },
	"rk2":   func() dynamo.Integrator { return NewRK2() },
	"rk4":   func() dynamo.Integrator { return NewRK4() },
}

// New returns a fresh integrator by name. Integrators hold scratch buffers,
// so every agent gets its own instance.
func New(name string) (dynamo.Integrator, error) {
	fn, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
	return fn(), nil
}

func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Step advances an ODE system by one step of size h.
func Step(integ dynamo.Integrator, sys dynamo.System, t float64, y dynamo.State, h float64) dynamo.State {
	return integ.Advance(sys.Derivative, t, y, h)
}
