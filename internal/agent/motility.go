package agent

import (
	"math"
	"math/rand/v2"

	"github.com/san-kum/biosim/internal/dynamo"
)

// Motility proposes the next position of an agent. The caller confines the
// result to the domain.
type Motility interface {
	Move(env *Env, pos dynamo.Vec3, rng *rand.Rand) dynamo.Vec3
}

type Still struct{}

func (Still) Move(_ *Env, pos dynamo.Vec3, _ *rand.Rand) dynamo.Vec3 { return pos }

// RandomWalk moves Speed·dt per tick in a uniformly random direction.
type RandomWalk struct {
	Speed float64
}

func (w RandomWalk) Move(env *Env, pos dynamo.Vec3, rng *rand.Rand) dynamo.Vec3 {
	dir := randomDirection(rng)
	step := w.Speed * env.Dt
	for axis := range pos {
		pos[axis] += step * dir[axis]
	}
	return pos
}

// Chemotaxis biases a random walk up the gradient of Field. Bias in [0,1]
// weights the gradient direction against the random one. The gradient is
// sampled one box either side of the agent.
type Chemotaxis struct {
	Field string
	Speed float64
	Bias  float64
}

func (c Chemotaxis) Move(env *Env, pos dynamo.Vec3, rng *rand.Rand) dynamo.Vec3 {
	dir := randomDirection(rng)

	f, err := env.Field(c.Field)
	if err == nil {
		size := f.BoxSize()
		var grad dynamo.Vec3
		for axis := range grad {
			if f.Boxes()[axis] == 1 {
				continue
			}
			hi, lo := pos, pos
			hi[axis] += size[axis]
			lo[axis] -= size[axis]
			hi, lo = env.Domain.Confine(hi), env.Domain.Confine(lo)
			grad[axis] = f.Conc(hi) - f.Conc(lo)
		}
		if g := norm(grad); g > 0 {
			for axis := range dir {
				dir[axis] = c.Bias*grad[axis]/g + (1-c.Bias)*dir[axis]
			}
			if n := norm(dir); n > 0 {
				for axis := range dir {
					dir[axis] /= n
				}
			}
		}
	}

	step := c.Speed * env.Dt
	for axis := range pos {
		pos[axis] += step * dir[axis]
	}
	return pos
}

func randomDirection(rng *rand.Rand) dynamo.Vec3 {
	for {
		v := dynamo.Vec3{rng.NormFloat64(), rng.NormFloat64(), rng.NormFloat64()}
		if n := norm(v); n > 1e-12 {
			return dynamo.Vec3{v[0] / n, v[1] / n, v[2] / n}
		}
	}
}

func norm(v dynamo.Vec3) float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}
