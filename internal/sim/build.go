package sim

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/san-kum/biosim/internal/agent"
	"github.com/san-kum/biosim/internal/config"
	"github.com/san-kum/biosim/internal/ctxlog"
	"github.com/san-kum/biosim/internal/dynamo"
	"github.com/san-kum/biosim/internal/field"
	"github.com/san-kum/biosim/internal/integrators"
	"github.com/san-kum/biosim/internal/ticker"
)

// Build assembles fields, agents and the ticker described by cfg.
func Build(ctx context.Context, cfg *config.Config) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := ctxlog.FromContext(ctx)

	domain := field.Domain{Bound: dynamo.Vec3(cfg.Domain.Bound), Dt: cfg.Dt}
	for axis, s := range cfg.Domain.Boundary {
		b, err := field.ParseBoundary(s)
		if err != nil {
			return nil, err
		}
		domain.Boundary[axis] = b
	}

	s := &Simulation{
		cfg:    cfg,
		domain: domain,
		clock:  dynamo.NewClock(cfg.Dt),
		log:    log,
	}

	for _, fc := range cfg.Fields {
		f, err := buildField(domain, fc)
		if err != nil {
			return nil, err
		}
		f.SetClampHook(s.onClamp)
		s.fields = append(s.fields, f)
	}

	id := 0
	for _, pc := range cfg.Populations {
		gapsLogged := false
		for i := 0; i < pc.Count; i++ {
			a, gaps, err := buildCell(cfg, domain, pc, id)
			if err != nil {
				return nil, fmt.Errorf("population %q: %w", pc.Name, err)
			}
			if len(gaps) > 0 && !gapsLogged {
				for _, g := range gaps {
					log.Warn("delay is not a multiple of the network step", "population", pc.Name, "gap", g.String())
				}
				gapsLogged = true
			}
			s.agents = append(s.agents, a)
			id++
		}
	}

	tk, err := ticker.New(ticker.Options{Workers: cfg.Workers}, s.clock, domain, s.fields, s.agents)
	if err != nil {
		return nil, err
	}
	s.ticker = tk

	log.Info("simulation built",
		slog.String("name", cfg.Name),
		slog.Int("fields", len(s.fields)),
		slog.Int("agents", len(s.agents)),
		slog.Int("workers", max(cfg.Workers, 1)),
		slog.Float64("dt", cfg.Dt),
	)
	return s, nil
}

func buildField(domain field.Domain, fc config.FieldConfig) (*field.Field, error) {
	f, err := field.New(domain, field.Options{
		Name:        fc.Name,
		Boxes:       fc.Boxes,
		Diffusivity: fc.Diffusivity,
		DecayRate:   fc.DecayRate,
	})
	if err != nil {
		return nil, err
	}

	switch fc.Initial.Kind {
	case "uniform":
		f.SetUniformConc(fc.Initial.Conc)
	case "gradient":
		if err := f.SetGradientConc(fc.Initial.Axis, fc.Initial.From, fc.Initial.To); err != nil {
			return nil, err
		}
	case "point":
		f.AddQuantity(domain.Center(), fc.Initial.Amount)
	}
	return f, nil
}

func buildCell(cfg *config.Config, domain field.Domain, pc config.PopulationConfig, id int) (*agent.Cell, []integrators.PrecisionGap, error) {
	rng := agent.NewRand(cfg.Seed, id)

	var pos dynamo.Vec3
	switch pc.Placement {
	case "center":
		pos = domain.Center()
	default:
		for axis := range pos {
			pos[axis] = rng.Float64() * domain.Bound[axis]
		}
	}

	opts := agent.CellOptions{Sense: pc.Sense}
	var gaps []integrators.PrecisionGap

	if nc := pc.Network; nc != nil {
		integ, err := integrators.New(cfg.Integrator)
		if err != nil {
			return nil, nil, err
		}
		scale := nc.TimeScale
		if scale == 0 {
			scale = 1
		}
		net, err := agent.NewNetwork(nc.Model, integ, agent.NetworkOptions{H: nc.H, TimeScale: scale, Dt: cfg.Dt}, nc.Params)
		if err != nil {
			return nil, nil, err
		}
		if d, ok := net.(*agent.DDENetwork); ok {
			gaps = d.Gaps()
		}
		opts.Network = net
	}

	switch mc := pc.Motility; mc.Kind {
	case "random_walk":
		opts.Motility = agent.RandomWalk{Speed: mc.Speed}
	case "chemotaxis":
		opts.Motility = agent.Chemotaxis{Field: mc.Field, Speed: mc.Speed, Bias: mc.Bias}
	default:
		opts.Motility = agent.Still{}
	}

	for _, cc := range pc.Couplings {
		switch cc.Kind {
		case "consume":
			opts.Couplings = append(opts.Couplings, agent.Consume{Target: cc.Field, Vmax: cc.Vmax, Km: cc.Km})
		case "secrete":
			opts.Couplings = append(opts.Couplings, agent.Secrete{Target: cc.Field, Rate: cc.Rate, Component: cc.Component})
		default:
			return nil, nil, fmt.Errorf("unknown coupling: %s", cc.Kind)
		}
	}

	return agent.NewCell(id, pos, rng, opts), gaps, nil
}
