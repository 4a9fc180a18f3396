// Package agent defines the discrete agents that couple to chemical fields
// and the capabilities they are assembled from.
//
// Agents are composed rather than subclassed: a [Cell] carries an optional
// [Network] (internal gene-regulatory state), an optional [Motility] and any
// number of [Coupling]s that exchange mass with named fields.
//
// During a tick an agent sees the world through an [Env]. Field reads come
// from the grid as it stood at the start of the tick; writes are buffered in
// the worker's exchange and land after every agent has acted.
package agent

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/san-kum/biosim/internal/dynamo"
	"github.com/san-kum/biosim/internal/field"
)

var ErrUnknownField = errors.New("agent: unknown field")

type Agent interface {
	ID() int
	Act(env *Env) error
	UpdatePosition(env *Env)
}

// Positioned is implemented by agents that occupy a point in the domain.
type Positioned interface {
	Position() dynamo.Vec3
}

// Stateful is implemented by agents that expose an internal state vector.
type Stateful interface {
	State() dynamo.State
}

// Env is one worker's view of the current tick.
type Env struct {
	Tick   uint64
	Time   float64
	Dt     float64
	Domain field.Domain

	fields   map[string]*field.Field
	exchange *field.Exchange
}

func NewEnv(domain field.Domain, fields map[string]*field.Field, exchange *field.Exchange) *Env {
	return &Env{
		Dt:       domain.Dt,
		Domain:   domain,
		fields:   fields,
		exchange: exchange,
	}
}

// SetClock copies the clock reading into the env before a tick.
func (e *Env) SetClock(c *dynamo.Clock) {
	e.Tick, e.Time, e.Dt = c.Tick, c.Time, c.Dt
}

func (e *Env) Exchange() *field.Exchange { return e.exchange }

func (e *Env) Field(name string) (*field.Field, error) {
	f, ok := e.fields[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownField, name)
	}
	return f, nil
}

// Conc reads the concentration of the named field at pos.
func (e *Env) Conc(name string, pos dynamo.Vec3) (float64, error) {
	f, err := e.Field(name)
	if err != nil {
		return 0, err
	}
	return f.Conc(pos), nil
}

// AddQuantity queues a mass exchange with the named field. It is applied
// after the parallel phase of the tick.
func (e *Env) AddQuantity(name string, pos dynamo.Vec3, q float64) error {
	f, err := e.Field(name)
	if err != nil {
		return err
	}
	e.exchange.Add(f, pos, q)
	return nil
}

// NewRand derives the random source of one agent from the run seed, so an
// agent draws the same numbers whichever worker runs it.
func NewRand(seed int64, id int) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), uint64(id)))
}
