// Package sim assembles fields, agents and the ticker from a run
// configuration and drives them, feeding metrics and observers.
package sim

import (
	"context"
	"log/slog"
	"time"

	"github.com/san-kum/biosim/internal/agent"
	"github.com/san-kum/biosim/internal/config"
	"github.com/san-kum/biosim/internal/dynamo"
	"github.com/san-kum/biosim/internal/field"
	"github.com/san-kum/biosim/internal/ticker"
)

type Simulation struct {
	cfg    *config.Config
	domain field.Domain
	clock  *dynamo.Clock
	fields []*field.Field
	agents []agent.Agent
	ticker *ticker.Ticker
	log    *slog.Logger

	metrics   []Metric
	observers []Observer
}

func (s *Simulation) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulation) AddObserver(o Observer) { s.observers = append(s.observers, o) }

func (s *Simulation) Config() *config.Config { return s.cfg }
func (s *Simulation) Domain() field.Domain   { return s.domain }
func (s *Simulation) Clock() *dynamo.Clock   { return s.clock }
func (s *Simulation) Fields() []*field.Field { return s.fields }
func (s *Simulation) Agents() []agent.Agent  { return s.agents }
func (s *Simulation) Stats() ticker.Stats    { return s.ticker.Stats() }
func (s *Simulation) Metrics() []Metric      { return s.metrics }

func (s *Simulation) Field(name string) *field.Field {
	for _, f := range s.fields {
		if f.Name() == name {
			return f
		}
	}
	return nil
}

func (s *Simulation) Snapshot() *Snapshot {
	return &Snapshot{
		Tick:   s.clock.Tick,
		Time:   s.clock.Time,
		Domain: s.domain,
		Fields: s.fields,
		Agents: s.agents,
	}
}

func (s *Simulation) onClamp(ev field.ClampEvent) {
	s.log.Debug("quantity clamped at zero",
		slog.String("field", ev.Field),
		slog.Any("box", ev.Box),
		slog.Float64("discarded", ev.Discarded),
		slog.Uint64("tick", s.clock.Tick),
	)
	for _, o := range s.observers {
		if co, ok := o.(ClampObserver); ok {
			co.OnClamp(ev)
		}
	}
}

// Step advances one tick and notifies metrics and observers.
func (s *Simulation) Step(ctx context.Context) error {
	if err := s.ticker.Tick(ctx); err != nil {
		return err
	}
	snap := s.Snapshot()
	for _, m := range s.metrics {
		m.Observe(snap)
	}
	for _, o := range s.observers {
		if err := o.OnTick(snap); err != nil {
			return &dynamo.SimulationError{Tick: snap.Tick, Time: snap.Time, Agent: -1, Wrapped: err}
		}
	}
	return nil
}

// Run advances ticks times, sampling field totals every Output.Every ticks.
// On cancellation or error the partial result is returned with the error.
func (s *Simulation) Run(ctx context.Context, ticks int) (*Result, error) {
	every := max(s.cfg.Output.Every, 1)
	result := &Result{
		Times:   make([]float64, 0, ticks/every+1),
		Totals:  make(map[string][]float64, len(s.fields)),
		Clamps:  make(map[string]int, len(s.fields)),
		Metrics: make(map[string]float64, len(s.metrics)),
	}

	initial := s.Snapshot()
	for _, m := range s.metrics {
		m.Reset()
		m.Observe(initial)
	}

	start := time.Now()
	s.sample(result)

	var runErr error
	for i := 0; i < ticks; i++ {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		if err := s.Step(ctx); err != nil {
			runErr = err
			break
		}
		if (i+1)%every == 0 {
			s.sample(result)
		}
	}

	result.Ticks = s.clock.Tick
	result.Elapsed = time.Since(start).Seconds()
	for _, f := range s.fields {
		result.Clamps[f.Name()] = f.Clamps()
	}
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	if runErr != nil {
		s.log.Warn("run stopped", slog.Uint64("tick", s.clock.Tick), slog.Any("err", runErr))
		return result, runErr
	}
	s.log.Info("run complete",
		slog.Uint64("ticks", result.Ticks),
		slog.Uint64("clamps", s.ticker.Stats().Clamps),
		slog.Float64("elapsed_s", result.Elapsed),
	)
	return result, nil
}

func (s *Simulation) sample(r *Result) {
	r.Times = append(r.Times, s.clock.Time)
	for _, f := range s.fields {
		r.Totals[f.Name()] = append(r.Totals[f.Name()], f.TotalQuantity())
	}
}
