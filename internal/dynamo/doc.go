// Package dynamo provides the core numerical primitives shared by the
// simulation packages.
//
// The package defines the fundamental interfaces and types:
//
//   - [State]: flat state vector owned by one agent
//   - [System]: ODE system (dy/dt = f(t, y))
//   - [DelaySystem]: DDE system whose derivative reads a [History]
//   - [Integrator]: fixed-step integrator over a [DerivFunc]
//   - [History]: rolling most-recent-first record of committed states
//   - [Clock]: the global simulation clock
//
// # Example
//
//	sys := agent.NewUptake(agent.DefaultUptakeParams())
//	integ := integrators.NewRK4()
//	y := sys.InitialConditions()
//	y = integrators.Step(integ, sys, 0, y, 0.01)
//
// # Thread Safety
//
// Integrators keep stage scratch between calls and are NOT safe for
// concurrent use. Each agent owns its own integrator and history.
package dynamo
