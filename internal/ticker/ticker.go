// Package ticker drives the simulation clock. Each tick every agent acts and
// moves, buffered mass exchanges are committed, the optional interaction
// hook runs, every field diffuses and decays once, and the clock advances.
//
// Agents are split into contiguous partitions, one per worker. The result of
// a tick does not depend on the number of workers.
package ticker

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/biosim/internal/agent"
	"github.com/san-kum/biosim/internal/dynamo"
	"github.com/san-kum/biosim/internal/field"
)

var ErrNoClock = errors.New("ticker: nil clock")

// Hook runs on the coordinating goroutine with exclusive access to agents
// and fields.
type Hook func(ctx context.Context, clock *dynamo.Clock) error

type Options struct {
	// Workers is the number of partitions. Zero or one runs sequentially on
	// the calling goroutine.
	Workers int
	// Before runs at the start of every tick.
	Before Hook
	// After runs once all exchanges are committed and before fields update.
	After Hook
}

// Range is the half-open interval [Start, End) of agent indices.
type Range struct {
	Start, End int
}

func (r Range) Len() int { return r.End - r.Start }

// Partition splits n agents into workers contiguous ranges of near-equal
// size. Trailing ranges may be empty when workers exceeds n.
func Partition(n, workers int) []Range {
	if workers < 1 {
		workers = 1
	}
	chunkSize := (n + workers - 1) / workers

	out := make([]Range, workers)
	for w := range out {
		start := min(w*chunkSize, n)
		end := min(start+chunkSize, n)
		out[w] = Range{Start: start, End: end}
	}
	return out
}

// Stats accumulate over the lifetime of a ticker.
type Stats struct {
	Ticks    uint64
	Actions  uint64
	Exchange uint64
	Clamps   uint64
}

type Ticker struct {
	clock  *dynamo.Clock
	fields []*field.Field
	agents []agent.Agent
	opts   Options

	parts []Range
	envs  []*agent.Env
	stats Stats
}

// New fixes the partitioning for the lifetime of the ticker. fields are
// updated in the order given.
func New(opts Options, clock *dynamo.Clock, domain field.Domain, fields []*field.Field, agents []agent.Agent) (*Ticker, error) {
	if clock == nil {
		return nil, ErrNoClock
	}
	if err := domain.Validate(); err != nil {
		return nil, fmt.Errorf("ticker: %w", err)
	}

	byName := make(map[string]*field.Field, len(fields))
	for _, f := range fields {
		if _, dup := byName[f.Name()]; dup {
			return nil, fmt.Errorf("ticker: duplicate field %q", f.Name())
		}
		byName[f.Name()] = f
	}

	workers := max(opts.Workers, 1)
	t := &Ticker{
		clock:  clock,
		fields: fields,
		agents: agents,
		opts:   opts,
		parts:  Partition(len(agents), workers),
		envs:   make([]*agent.Env, workers),
	}
	for w := range t.envs {
		t.envs[w] = agent.NewEnv(domain, byName, field.NewExchange())
	}
	return t, nil
}

func (t *Ticker) Clock() *dynamo.Clock   { return t.clock }
func (t *Ticker) Agents() []agent.Agent  { return t.agents }
func (t *Ticker) Fields() []*field.Field { return t.fields }
func (t *Ticker) Partitions() []Range    { return t.parts }
func (t *Ticker) Stats() Stats           { return t.stats }

// Tick advances the simulation by one clock step.
//
// When an agent fails, the tick's pending exchanges are discarded and neither
// the fields nor the clock move. Agents that already acted in that tick keep
// their advanced networks and positions, so calling Tick again steps them a
// second time. Callers should treat an agent error as terminal for the run.
func (t *Ticker) Tick(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if t.opts.Before != nil {
		if err := t.opts.Before(ctx, t.clock); err != nil {
			return t.fail(-1, err)
		}
	}

	for _, env := range t.envs {
		env.SetClock(t.clock)
	}

	var err error
	if len(t.parts) == 1 {
		err = t.runRange(t.envs[0], t.parts[0])
	} else {
		g, _ := errgroup.WithContext(ctx)
		for w, r := range t.parts {
			if r.Len() == 0 {
				continue
			}
			env := t.envs[w]
			g.Go(func() error {
				return t.runRange(env, r)
			})
		}
		err = g.Wait()
	}
	if err != nil {
		for _, env := range t.envs {
			env.Exchange().Reset()
		}
		return err
	}

	for _, env := range t.envs {
		t.stats.Exchange += uint64(env.Exchange().Len())
		t.stats.Clamps += uint64(env.Exchange().Commit())
	}
	t.stats.Actions += uint64(len(t.agents))

	if t.opts.After != nil {
		if err := t.opts.After(ctx, t.clock); err != nil {
			return t.fail(-1, err)
		}
	}

	for _, f := range t.fields {
		f.Update()
	}

	t.clock.Advance()
	t.stats.Ticks++
	return nil
}

// Run ticks n times or until ctx is cancelled.
func (t *Ticker) Run(ctx context.Context, n int) error {
	for i := 0; i < n; i++ {
		if err := t.Tick(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (t *Ticker) runRange(env *agent.Env, r Range) error {
	for _, a := range t.agents[r.Start:r.End] {
		if err := a.Act(env); err != nil {
			return t.fail(a.ID(), err)
		}
		a.UpdatePosition(env)
	}
	return nil
}

func (t *Ticker) fail(id int, err error) error {
	return &dynamo.SimulationError{Tick: t.clock.Tick, Time: t.clock.Time, Agent: id, Wrapped: err}
}
