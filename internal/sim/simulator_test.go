package sim

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/biosim/internal/config"
	"github.com/san-kum/biosim/internal/dynamo"
	"github.com/san-kum/biosim/internal/field"
)

type countingObserver struct {
	ticks  int
	clamps int
	err    error
}

func (o *countingObserver) OnTick(*Snapshot) error      { o.ticks++; return o.err }
func (o *countingObserver) OnClamp(ev field.ClampEvent) { o.clamps++ }

type tickMetric struct{ n int }

func (m *tickMetric) Name() string        { return "ticks" }
func (m *tickMetric) Observe(s *Snapshot) { m.n++ }
func (m *tickMetric) Value() float64      { return float64(m.n) }
func (m *tickMetric) Reset()              { m.n = 0 }

func starvedConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Domain.Bound = [3]float64{1, 1, 1}
	cfg.Fields = []config.FieldConfig{{
		Name:    "food",
		Boxes:   [3]int{1, 1, 1},
		Initial: config.InitialConfig{Kind: "uniform", Conc: 0.01},
	}}
	cfg.Populations = []config.PopulationConfig{{
		Name: "eaters", Count: 10, Placement: "center", Sense: "food",
		Couplings: []config.CouplingConfig{{Kind: "consume", Field: "food", Vmax: 100, Km: 0.001}},
	}}
	return cfg
}

func TestSimulationRun(t *testing.T) {
	s, err := Build(context.Background(), config.DefaultConfig())
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	m := &tickMetric{}
	s.AddMetric(m)

	result, err := s.Run(context.Background(), 10)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if len(result.Times) != 11 {
		t.Errorf("expected 11 samples, got %d", len(result.Times))
	}
	totals := result.Totals["morphogen"]
	if len(totals) != 11 || totals[0] != 1000 {
		t.Fatalf("unexpected totals %v", totals)
	}
	want := 1000 * math.Pow(1-0.01*0.1, 10)
	if got := totals[10]; math.Abs(got-want) > 1e-9*want {
		t.Errorf("final total %v, want %v", got, want)
	}
	// the starting state plus one snapshot per tick
	if result.Metrics["ticks"] != 11 {
		t.Errorf("metric observed %v snapshots, want 11", result.Metrics["ticks"])
	}
	if result.Ticks != 10 {
		t.Errorf("expected 10 ticks, got %d", result.Ticks)
	}
}

func TestSimulationRun_SampleEvery(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Output.Every = 4
	s, err := Build(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	result, err := s.Run(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	// ticks 0, 4, 8
	if len(result.Times) != 3 {
		t.Errorf("expected 3 samples, got %d", len(result.Times))
	}
}

func TestSimulation_WorkerCountDoesNotChangeResult(t *testing.T) {
	run := func(workers int) *Result {
		cfg := config.GetPreset("chemotaxis")
		cfg.Workers = workers
		cfg.Populations[0].Count = 50
		s, err := Build(context.Background(), cfg)
		if err != nil {
			t.Fatal(err)
		}
		r, err := s.Run(context.Background(), 20)
		if err != nil {
			t.Fatal(err)
		}
		return r
	}

	seq, par := run(1), run(5)
	for name, series := range seq.Totals {
		other := par.Totals[name]
		for i := range series {
			if series[i] != other[i] {
				t.Fatalf("field %s sample %d: %v vs %v", name, i, series[i], other[i])
			}
		}
		if seq.Clamps[name] != par.Clamps[name] {
			t.Errorf("field %s clamps differ: %d vs %d", name, seq.Clamps[name], par.Clamps[name])
		}
	}
}

func TestSimulation_ClampsObservable(t *testing.T) {
	s, err := Build(context.Background(), starvedConfig())
	if err != nil {
		t.Fatal(err)
	}
	obs := &countingObserver{}
	s.AddObserver(obs)

	result, err := s.Run(context.Background(), 3)
	if err != nil {
		t.Fatal(err)
	}
	if result.Clamps["food"] == 0 {
		t.Error("expected clamps to be counted")
	}
	if obs.clamps != result.Clamps["food"] {
		t.Errorf("observer saw %d clamps, field counted %d", obs.clamps, result.Clamps["food"])
	}
	if s.Field("food").TotalQuantity() != 0 {
		t.Errorf("expected the field to be exhausted, got %v", s.Field("food").TotalQuantity())
	}
	if obs.ticks != 3 {
		t.Errorf("observer saw %d ticks, want 3", obs.ticks)
	}
}

func TestSimulation_ObserverError(t *testing.T) {
	s, err := Build(context.Background(), config.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	boom := errors.New("disk full")
	s.AddObserver(&countingObserver{err: boom})

	_, err = s.Run(context.Background(), 5)
	if !errors.Is(err, boom) {
		t.Fatalf("expected observer error, got %v", err)
	}
	var simErr *dynamo.SimulationError
	if !errors.As(err, &simErr) || simErr.Tick != 1 {
		t.Errorf("expected SimulationError at tick 1, got %v", err)
	}
}

func TestSimulation_Cancelled(t *testing.T) {
	s, err := Build(context.Background(), config.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := s.Run(ctx, 5)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if result == nil || result.Ticks != 0 {
		t.Errorf("expected a partial result at tick 0, got %+v", result)
	}
}

func TestBuild_Invalid(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Dt = 0
	if _, err := Build(context.Background(), cfg); !errors.Is(err, config.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestBuild_Oscillator(t *testing.T) {
	s, err := Build(context.Background(), config.GetPreset("oscillator"))
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Agents()) != 16 {
		t.Errorf("expected 16 agents, got %d", len(s.Agents()))
	}
	if err := s.Step(context.Background()); err != nil {
		t.Fatal(err)
	}
	if s.Clock().Tick != 1 {
		t.Errorf("expected tick 1, got %d", s.Clock().Tick)
	}
}

func TestEnsemble(t *testing.T) {
	cfg := config.GetPreset("chemotaxis")
	cfg.Populations[0].Count = 10
	e := NewEnsemble(cfg, 3, 100, func() []Metric { return []Metric{&tickMetric{}} })

	results, err := e.Run(context.Background(), 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i, r := range results {
		if r.Metrics["ticks"] != 6 {
			t.Errorf("run %d: metric %v, want 6", i, r.Metrics["ticks"])
		}
	}
}
