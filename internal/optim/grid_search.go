// Package optim searches run configurations for the settings that minimise
// a scalar objective.
package optim

import (
	"context"
	"log/slog"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/biosim/internal/config"
	"github.com/san-kum/biosim/internal/ctxlog"
	"github.com/san-kum/biosim/internal/sim"
)

// Objective scores a finished run. Lower is better.
type Objective func(*sim.Result) float64

// Metric scores a run by the final value of the named metric.
func Metric(name string) Objective {
	return func(r *sim.Result) float64 {
		v, ok := r.Metrics[name]
		if !ok {
			return math.Inf(1)
		}
		return v
	}
}

// Maximize turns an objective around.
func Maximize(o Objective) Objective {
	return func(r *sim.Result) float64 { return -o(r) }
}

// Trial is one evaluated point of the grid.
type Trial struct {
	Params map[string]float64
	Score  float64
	Err    error
}

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
	workers    int
}

// NewGridSearch builds a search over the cartesian product of ranges, one
// range per config parameter path (see config.Config.SetParam).
func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges, workers: 1}
}

// SetWorkers bounds the number of trials run at once.
func (g *GridSearch) SetWorkers(n int) { g.workers = max(n, 1) }

// Search runs base once per grid point for ticks ticks and returns the best
// trial and every trial in grid order. Grid points whose configuration fails
// to build or run score +Inf and are kept with their error. Search only fails
// when ctx is cancelled.
func (g *GridSearch) Search(
	ctx context.Context,
	base *config.Config,
	ticks int,
	newMetrics func() []sim.Metric,
	objective Objective,
) (Trial, []Trial, error) {
	var points []map[string]float64
	g.searchRecursive(0, make(map[string]float64), &points)

	trials := make([]Trial, len(points))
	log := ctxlog.FromContext(ctx)

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.workers)
	for i, params := range points {
		eg.Go(func() error {
			trials[i] = g.evaluate(ctx, base, params, ticks, newMetrics, objective)
			if trials[i].Err != nil {
				log.Debug("trial failed", slog.Any("params", params), slog.Any("err", trials[i].Err))
			}
			return ctx.Err()
		})
	}
	if err := eg.Wait(); err != nil {
		return Trial{}, trials, err
	}

	best := Trial{Score: math.Inf(1)}
	for _, t := range trials {
		if t.Err == nil && t.Score < best.Score {
			best = t
		}
	}
	return best, trials, nil
}

func (g *GridSearch) evaluate(
	ctx context.Context,
	base *config.Config,
	params map[string]float64,
	ticks int,
	newMetrics func() []sim.Metric,
	objective Objective,
) Trial {
	trial := Trial{Params: params, Score: math.Inf(1)}

	cfg := base.Clone()
	for k, v := range params {
		if err := cfg.SetParam(k, v); err != nil {
			trial.Err = err
			return trial
		}
	}

	s, err := sim.Build(ctx, cfg)
	if err != nil {
		trial.Err = err
		return trial
	}
	if newMetrics != nil {
		for _, m := range newMetrics() {
			s.AddMetric(m)
		}
	}

	result, err := s.Run(ctx, ticks)
	if err != nil {
		trial.Err = err
		return trial
	}
	trial.Score = objective(result)
	return trial
}

func (g *GridSearch) searchRecursive(depth int, current map[string]float64, out *[]map[string]float64) {
	if depth == len(g.paramNames) {
		*out = append(*out, current)
		return
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		g.searchRecursive(depth+1, newParams, out)
	}
}
