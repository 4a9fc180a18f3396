package agent

import (
	"fmt"
	"math/rand/v2"

	"github.com/san-kum/biosim/internal/dynamo"
)

type CellOptions struct {
	// Sense names the field whose concentration drives the network. Empty
	// means the cell senses nothing.
	Sense     string
	Network   Network
	Motility  Motility
	Couplings []Coupling
}

// Cell is a point agent assembled from optional capabilities.
type Cell struct {
	id   int
	pos  dynamo.Vec3
	rng  *rand.Rand
	opts CellOptions

	sensed float64
}

func NewCell(id int, pos dynamo.Vec3, rng *rand.Rand, opts CellOptions) *Cell {
	if opts.Motility == nil {
		opts.Motility = Still{}
	}
	return &Cell{id: id, pos: pos, rng: rng, opts: opts}
}

func (c *Cell) ID() int               { return c.id }
func (c *Cell) Position() dynamo.Vec3 { return c.pos }
func (c *Cell) Sensed() float64       { return c.sensed }
func (c *Cell) Network() Network      { return c.opts.Network }

// State returns the network state, or nil for a cell without one.
func (c *Cell) State() dynamo.State {
	if c.opts.Network == nil {
		return nil
	}
	return c.opts.Network.State()
}

// Act senses, advances the internal network and queues exchanges with the
// coupled fields.
func (c *Cell) Act(env *Env) error {
	c.sensed = 0
	if c.opts.Sense != "" {
		conc, err := env.Conc(c.opts.Sense, c.pos)
		if err != nil {
			return err
		}
		c.sensed = conc
	}

	var y dynamo.State
	if c.opts.Network != nil {
		if err := c.opts.Network.Advance(env.Time, env.Dt, c.sensed); err != nil {
			return fmt.Errorf("cell %d network: %w", c.id, err)
		}
		y = c.opts.Network.State()
	}

	for _, cp := range c.opts.Couplings {
		conc := c.sensed
		if cp.Field() != c.opts.Sense {
			var err error
			if conc, err = env.Conc(cp.Field(), c.pos); err != nil {
				return err
			}
		}
		if err := env.AddQuantity(cp.Field(), c.pos, cp.Flux(y, conc)*env.Dt); err != nil {
			return err
		}
	}
	return nil
}

func (c *Cell) UpdatePosition(env *Env) {
	c.pos = env.Domain.Confine(c.opts.Motility.Move(env, c.pos, c.rng))
}
