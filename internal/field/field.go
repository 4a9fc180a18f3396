// Package field implements a uniform 3D grid of chemical quantity that
// diffuses and decays once per tick and exchanges mass with agents.
//
// The grid stores quantity, not concentration; concentration is quantity
// divided by the box volume. Quantity never goes below zero: a mutation that
// would make it negative floors it and reports a [ClampEvent].
package field

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/biosim/internal/dynamo"
)

// Index addresses one box of the grid.
type Index [3]int

type Options struct {
	Name        string
	Boxes       [3]int
	Diffusivity float64
	DecayRate   float64
}

// ClampEvent reports mass discarded because a box would have gone negative.
type ClampEvent struct {
	Field     string
	Box       Index
	Requested float64
	Discarded float64
}

type Field struct {
	name        string
	domain      Domain
	boxes       [3]int
	stride      [3]int
	boxSize     dynamo.Vec3
	boxVolume   float64
	diffusivity float64
	decayRate   float64

	q      []float64
	before []float64

	clamps int
	hook   func(ClampEvent)
}

// New builds a field over domain. Grid topology is fixed for the field's
// lifetime. Misconfiguration fails here rather than at update time.
func New(domain Domain, opts Options) (*Field, error) {
	if err := domain.Validate(); err != nil {
		return nil, fmt.Errorf("field %q: %w", opts.Name, err)
	}
	for axis, n := range opts.Boxes {
		if n <= 0 {
			return nil, fmt.Errorf("field %q: boxes[%d] must be positive, got %d: %w", opts.Name, axis, n, ErrInvalidGrid)
		}
	}
	if opts.Diffusivity < 0 || math.IsNaN(opts.Diffusivity) {
		return nil, fmt.Errorf("field %q: diffusivity %f: %w", opts.Name, opts.Diffusivity, ErrInvalidRate)
	}
	if opts.DecayRate < 0 || math.IsNaN(opts.DecayRate) {
		return nil, fmt.Errorf("field %q: decay rate %f: %w", opts.Name, opts.DecayRate, ErrInvalidRate)
	}
	if opts.DecayRate*domain.Dt >= 1 {
		return nil, fmt.Errorf("field %q: decay %f * dt %f: %w", opts.Name, opts.DecayRate, domain.Dt, ErrDecayTooLarge)
	}

	f := &Field{
		name:        opts.Name,
		domain:      domain,
		boxes:       opts.Boxes,
		diffusivity: opts.Diffusivity,
		decayRate:   opts.DecayRate,
	}
	f.boxVolume = 1
	for axis := range f.boxSize {
		f.boxSize[axis] = domain.Bound[axis] / float64(opts.Boxes[axis])
		f.boxVolume *= f.boxSize[axis]
	}
	f.stride = [3]int{opts.Boxes[1] * opts.Boxes[2], opts.Boxes[2], 1}

	n := opts.Boxes[0] * opts.Boxes[1] * opts.Boxes[2]
	f.q = make([]float64, n)
	f.before = make([]float64, n)
	return f, nil
}

func (f *Field) Name() string           { return f.name }
func (f *Field) Domain() Domain         { return f.domain }
func (f *Field) Boxes() [3]int          { return f.boxes }
func (f *Field) BoxSize() dynamo.Vec3   { return f.boxSize }
func (f *Field) BoxVolume() float64     { return f.boxVolume }
func (f *Field) Diffusivity() float64   { return f.diffusivity }
func (f *Field) DecayRate() float64     { return f.decayRate }
func (f *Field) Clamps() int            { return f.clamps }
func (f *Field) Len() int               { return len(f.q) }
func (f *Field) TotalQuantity() float64 { return floats.Sum(f.q) }

// SetClampHook installs a callback fired on every clamp. Pass nil to remove.
func (f *Field) SetClampHook(hook func(ClampEvent)) { f.hook = hook }

func (f *Field) offset(idx Index) int {
	return idx[0]*f.stride[0] + idx[1]*f.stride[1] + idx[2]
}

func (f *Field) index(off int) Index {
	return Index{off / f.stride[0], (off / f.stride[1]) % f.boxes[1], off % f.boxes[2]}
}

// Contains reports whether idx addresses a box of this grid.
func (f *Field) Contains(idx Index) bool {
	for axis, i := range idx {
		if i < 0 || i >= f.boxes[axis] {
			return false
		}
	}
	return true
}

// Locate maps a position to its box. Wrap axes reduce modulo the grid and
// solid axes clamp to the edge box.
func (f *Field) Locate(pos dynamo.Vec3) Index {
	var idx Index
	for axis := range idx {
		n := f.boxes[axis]
		i := int(math.Floor(pos[axis] / f.boxSize[axis]))
		if f.domain.Boundary[axis] == Wrap {
			i %= n
			if i < 0 {
				i += n
			}
		} else if i < 0 {
			i = 0
		} else if i >= n {
			i = n - 1
		}
		idx[axis] = i
	}
	return idx
}

// Center returns the centre point of box idx.
func (f *Field) Center(idx Index) dynamo.Vec3 {
	var c dynamo.Vec3
	for axis := range c {
		c[axis] = (float64(idx[axis]) + 0.5) * f.boxSize[axis]
	}
	return c
}

// store writes v into box off, flooring it at zero.
func (f *Field) store(off int, v, requested float64) bool {
	if v >= 0 {
		f.q[off] = v
		return false
	}
	f.q[off] = 0
	f.clamps++
	if f.hook != nil {
		f.hook(ClampEvent{Field: f.name, Box: f.index(off), Requested: requested, Discarded: -v})
	}
	return true
}

// AddQuantity adds q to the box containing pos. It reports whether the
// result was floored at zero, in which case the excess removal is lost.
func (f *Field) AddQuantity(pos dynamo.Vec3, q float64) bool {
	return f.AddQuantityAt(f.Locate(pos), q)
}

func (f *Field) AddQuantityAt(idx Index, q float64) bool {
	off := f.offset(idx)
	return f.store(off, f.q[off]+q, q)
}

func (f *Field) Quantity(idx Index) float64 {
	return f.q[f.offset(idx)]
}

func (f *Field) Conc(pos dynamo.Vec3) float64 {
	return f.ConcAt(f.Locate(pos))
}

func (f *Field) ConcAt(idx Index) float64 {
	return f.q[f.offset(idx)] / f.boxVolume
}

func (f *Field) SetConc(pos dynamo.Vec3, c float64) bool {
	return f.SetConcAt(f.Locate(pos), c)
}

func (f *Field) SetConcAt(idx Index, c float64) bool {
	q := c * f.boxVolume
	return f.store(f.offset(idx), q, q)
}

func (f *Field) SetUniformConc(c float64) {
	q := c * f.boxVolume
	for off := range f.q {
		f.store(off, q, q)
	}
}

// SetGradientConc sets a linear profile along axis, c0 at the low edge and
// c1 at the high edge, sampled at box centres.
func (f *Field) SetGradientConc(axis int, c0, c1 float64) error {
	if axis < 0 || axis > 2 {
		return fmt.Errorf("gradient axis %d: %w", axis, ErrInvalidAxis)
	}
	bound := f.domain.Bound[axis]
	for off := range f.q {
		x := f.Center(f.index(off))[axis]
		q := (c0 + (c1-c0)*x/bound) * f.boxVolume
		f.store(off, q, q)
	}
	return nil
}

// Quantities returns a copy of the grid in x-major order.
func (f *Field) Quantities() []float64 {
	out := make([]float64, len(f.q))
	copy(out, f.q)
	return out
}

// Restore replaces the grid with q, as written by Quantities.
func (f *Field) Restore(q []float64) error {
	if len(q) != len(f.q) {
		return fmt.Errorf("field %q: restore has %d boxes, want %d: %w", f.name, len(q), len(f.q), ErrInvalidGrid)
	}
	for off, v := range q {
		f.store(off, v, v)
	}
	return nil
}

// Update advances the field by one tick: diffusion, then decay.
func (f *Field) Update() {
	f.Diffuse()
	f.Decay()
}

// Diffuse applies one explicit forward-time step of Fick's law. Every
// transfer is computed from a snapshot taken before any box changes.
func (f *Field) Diffuse() {
	if f.diffusivity == 0 {
		return
	}
	copy(f.before, f.q)

	var k [3]float64
	for axis := range k {
		k[axis] = f.diffusivity * f.domain.Dt / (f.boxSize[axis] * f.boxSize[axis])
	}

	before := f.before
	var pos [3]int
	for pos[0] = 0; pos[0] < f.boxes[0]; pos[0]++ {
		for pos[1] = 0; pos[1] < f.boxes[1]; pos[1]++ {
			for pos[2] = 0; pos[2] < f.boxes[2]; pos[2]++ {
				off := f.offset(Index(pos))
				self := before[off]
				delta := 0.0

				for axis := 0; axis < 3; axis++ {
					n, s := f.boxes[axis], f.stride[axis]
					if n == 1 {
						continue
					}
					wrap := f.domain.Boundary[axis] == Wrap

					if pos[axis] > 0 {
						delta += k[axis] * (before[off-s] - self)
					} else if wrap {
						delta += k[axis] * (before[off+(n-1)*s] - self)
					}

					if pos[axis] < n-1 {
						delta += k[axis] * (before[off+s] - self)
					} else if wrap {
						delta += k[axis] * (before[off-(n-1)*s] - self)
					}
				}

				f.store(off, self+delta, delta)
			}
		}
	}
}

// Decay scales every box by (1 - decayRate*dt).
func (f *Field) Decay() {
	if f.decayRate == 0 {
		return
	}
	floats.Scale(1-f.decayRate*f.domain.Dt, f.q)
}

// Slice returns the concentration plane perpendicular to axis at the given
// box index. Rows follow the lower remaining axis, columns the higher one.
func (f *Field) Slice(axis, at int) ([][]float64, error) {
	if axis < 0 || axis > 2 {
		return nil, fmt.Errorf("slice axis %d: %w", axis, ErrInvalidAxis)
	}
	if at < 0 || at >= f.boxes[axis] {
		return nil, fmt.Errorf("slice index %d outside [0,%d): %w", at, f.boxes[axis], ErrInvalidGrid)
	}

	a, b := (axis+1)%3, (axis+2)%3
	if a > b {
		a, b = b, a
	}

	plane := make([][]float64, f.boxes[a])
	for i := range plane {
		plane[i] = make([]float64, f.boxes[b])
		for j := range plane[i] {
			var idx Index
			idx[axis], idx[a], idx[b] = at, i, j
			plane[i][j] = f.ConcAt(idx)
		}
	}
	return plane, nil
}
