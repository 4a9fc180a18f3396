package sim

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/biosim/internal/config"
)

// Ensemble runs the same configuration under consecutive seeds. Each run
// builds its own simulation; metrics are created per run by newMetrics.
type Ensemble struct {
	cfg        *config.Config
	numRuns    int
	seedStart  int64
	newMetrics func() []Metric
}

func NewEnsemble(cfg *config.Config, numRuns int, seedStart int64, newMetrics func() []Metric) *Ensemble {
	return &Ensemble{cfg: cfg, numRuns: numRuns, seedStart: seedStart, newMetrics: newMetrics}
}

func (e *Ensemble) Run(ctx context.Context, ticks int) ([]*Result, error) {
	results := make([]*Result, e.numRuns)

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < e.numRuns; i++ {
		g.Go(func() error {
			cfgCopy := e.cfg.Clone()
			cfgCopy.Seed = e.seedStart + int64(i)

			s, err := Build(ctx, cfgCopy)
			if err != nil {
				return err
			}
			if e.newMetrics != nil {
				for _, m := range e.newMetrics() {
					s.AddMetric(m)
				}
			}
			results[i], err = s.Run(ctx, ticks)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
