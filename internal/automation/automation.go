// Package automation runs scripted protocols: a sequence of steps applied to
// one simulation, each optionally perturbing a field before ticking.
package automation

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/biosim/internal/config"
	"github.com/san-kum/biosim/internal/ctxlog"
	"github.com/san-kum/biosim/internal/dynamo"
	"github.com/san-kum/biosim/internal/sim"
)

// Scenario defines a scripted simulation sequence
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	// Preset or Config names the base run configuration; Config wins.
	Preset string             `yaml:"preset"`
	Config string             `yaml:"config"`
	Params map[string]float64 `yaml:"params"`
	Steps  []ScenarioStep     `yaml:"steps"`
}

// ScenarioStep perturbs fields, then advances Ticks ticks.
type ScenarioStep struct {
	Label string   `yaml:"label"`
	Ticks int      `yaml:"ticks"`
	Pulse *Pulse   `yaml:"pulse"`
	Set   *SetConc `yaml:"set"`
}

// Pulse adds Amount of quantity to the box containing At.
type Pulse struct {
	Field  string     `yaml:"field"`
	At     [3]float64 `yaml:"at"`
	Amount float64    `yaml:"amount"`
}

// SetConc sets a uniform concentration over a whole field.
type SetConc struct {
	Field string  `yaml:"field"`
	Conc  float64 `yaml:"conc"`
}

// StepResult is the outcome of one scenario step.
type StepResult struct {
	Label  string
	Result *sim.Result
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}

	return &scenario, nil
}

// BaseConfig resolves the scenario's run configuration with its parameter
// overrides applied.
func (sc *Scenario) BaseConfig() (*config.Config, error) {
	var cfg *config.Config
	switch {
	case sc.Config != "":
		c, err := config.Load(sc.Config)
		if err != nil {
			return nil, err
		}
		cfg = c
	case sc.Preset != "":
		cfg = config.GetPreset(sc.Preset)
		if cfg == nil {
			return nil, fmt.Errorf("scenario %s: unknown preset %q", sc.Name, sc.Preset)
		}
	default:
		cfg = config.DefaultConfig()
	}
	for k, v := range sc.Params {
		if err := cfg.SetParam(k, v); err != nil {
			return nil, fmt.Errorf("scenario %s: %w", sc.Name, err)
		}
	}
	return cfg, cfg.Validate()
}

// RunScenario executes all steps in a scenario against s.
func RunScenario(ctx context.Context, scenario *Scenario, s *sim.Simulation) ([]StepResult, error) {
	log := ctxlog.FromContext(ctx)
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		label := step.Label
		if label == "" {
			label = fmt.Sprintf("step %d", i+1)
		}
		log.Info("scenario step",
			slog.String("scenario", scenario.Name),
			slog.String("step", label),
			slog.Int("ticks", step.Ticks),
		)

		if err := applyStep(s, step); err != nil {
			return results, fmt.Errorf("%s: %w", label, err)
		}

		result, err := s.Run(ctx, step.Ticks)
		if err != nil {
			return results, fmt.Errorf("%s run: %w", label, err)
		}
		results = append(results, StepResult{Label: label, Result: result})
	}

	return results, nil
}

func applyStep(s *sim.Simulation, step ScenarioStep) error {
	if step.Ticks < 0 {
		return fmt.Errorf("negative ticks %d: %w", step.Ticks, dynamo.ErrParameterBounds)
	}
	if p := step.Pulse; p != nil {
		f := s.Field(p.Field)
		if f == nil {
			return fmt.Errorf("pulse: unknown field %q", p.Field)
		}
		f.AddQuantity(dynamo.Vec3(p.At), p.Amount)
	}
	if c := step.Set; c != nil {
		f := s.Field(c.Field)
		if f == nil {
			return fmt.Errorf("set: unknown field %q", c.Field)
		}
		f.SetUniformConc(c.Conc)
	}
	return nil
}
