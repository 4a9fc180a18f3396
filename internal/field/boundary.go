package field

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/biosim/internal/dynamo"
)

// Boundary is the per-axis edge policy of the simulation domain.
type Boundary int

const (
	// Solid edges have no neighbour outside the domain: no flux crosses them.
	Solid Boundary = iota
	// Wrap edges are periodic: the last box neighbours the first.
	Wrap
)

func (b Boundary) String() string {
	switch b {
	case Solid:
		return "solid"
	case Wrap:
		return "wrap"
	default:
		return fmt.Sprintf("boundary(%d)", int(b))
	}
}

func ParseBoundary(s string) (Boundary, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "solid", "":
		return Solid, nil
	case "wrap", "periodic":
		return Wrap, nil
	default:
		return Solid, fmt.Errorf("unknown boundary mode: %s", s)
	}
}

// Domain is the owning simulation's geometry and clock step, shared by every
// field and agent.
type Domain struct {
	Bound    dynamo.Vec3
	Boundary [3]Boundary
	Dt       float64
}

func (d Domain) Validate() error {
	for axis, b := range d.Bound {
		if !(b > 0) || math.IsInf(b, 0) {
			return fmt.Errorf("bound[%d] must be positive, got %f: %w", axis, b, ErrInvalidGrid)
		}
	}
	if !(d.Dt > 0) {
		return fmt.Errorf("dt must be positive, got %f: %w", d.Dt, ErrInvalidRate)
	}
	return nil
}

// Center returns the midpoint of the domain.
func (d Domain) Center() dynamo.Vec3 {
	return dynamo.Vec3{d.Bound[0] / 2, d.Bound[1] / 2, d.Bound[2] / 2}
}

// Confine maps a position back into the domain: wrap axes reduce modulo the
// bound, solid axes clamp to the edge.
func (d Domain) Confine(p dynamo.Vec3) dynamo.Vec3 {
	for axis := range p {
		b := d.Bound[axis]
		switch d.Boundary[axis] {
		case Wrap:
			p[axis] = math.Mod(p[axis], b)
			if p[axis] < 0 {
				p[axis] += b
			}
		default:
			if p[axis] < 0 {
				p[axis] = 0
			} else if p[axis] > b {
				p[axis] = b
			}
		}
	}
	return p
}
