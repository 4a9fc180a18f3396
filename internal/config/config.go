package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultDt         = 0.1
	DefaultTicks      = 200
	DefaultIntegrator = "rk4"
	DefaultBound      = 16.0
	DefaultBoxes      = 16
)

type Config struct {
	Name        string             `yaml:"name" json:"name"`
	Dt          float64            `yaml:"dt" json:"dt"`
	Ticks       int                `yaml:"ticks" json:"ticks"`
	Seed        int64              `yaml:"seed" json:"seed"`
	Workers     int                `yaml:"workers" json:"workers"`
	Integrator  string             `yaml:"integrator" json:"integrator"`
	Domain      DomainConfig       `yaml:"domain" json:"domain"`
	Fields      []FieldConfig      `yaml:"fields" json:"fields"`
	Populations []PopulationConfig `yaml:"populations" json:"populations"`
	Output      OutputConfig       `yaml:"output" json:"output"`
}

type DomainConfig struct {
	Bound    [3]float64 `yaml:"bound" json:"bound"`
	Boundary [3]string  `yaml:"boundary" json:"boundary"`
}

type FieldConfig struct {
	Name        string        `yaml:"name" json:"name"`
	Boxes       [3]int        `yaml:"boxes" json:"boxes"`
	Diffusivity float64       `yaml:"diffusivity" json:"diffusivity"`
	DecayRate   float64       `yaml:"decay_rate" json:"decay_rate"`
	Initial     InitialConfig `yaml:"initial" json:"initial"`
}

// InitialConfig sets a field's starting concentration. Kind is "uniform",
// "gradient" (From at the low edge of Axis to To at the high edge) or "point"
// (Amount of quantity placed at the domain centre).
type InitialConfig struct {
	Kind   string  `yaml:"kind" json:"kind"`
	Conc   float64 `yaml:"conc" json:"conc"`
	Axis   int     `yaml:"axis" json:"axis"`
	From   float64 `yaml:"from" json:"from"`
	To     float64 `yaml:"to" json:"to"`
	Amount float64 `yaml:"amount" json:"amount"`
}

type PopulationConfig struct {
	Name  string `yaml:"name" json:"name"`
	Count int    `yaml:"count" json:"count"`
	// Placement is "random" or "center".
	Placement string           `yaml:"placement" json:"placement"`
	Sense     string           `yaml:"sense" json:"sense"`
	Network   *NetworkConfig   `yaml:"network,omitempty" json:"network,omitempty"`
	Motility  MotilityConfig   `yaml:"motility" json:"motility"`
	Couplings []CouplingConfig `yaml:"couplings" json:"couplings"`
}

type NetworkConfig struct {
	Model     string             `yaml:"model" json:"model"`
	H         float64            `yaml:"h" json:"h"`
	TimeScale float64            `yaml:"time_scale" json:"time_scale"`
	Params    map[string]float64 `yaml:"params,omitempty" json:"params,omitempty"`
}

type MotilityConfig struct {
	Kind  string  `yaml:"kind" json:"kind"`
	Speed float64 `yaml:"speed" json:"speed"`
	Bias  float64 `yaml:"bias" json:"bias"`
	Field string  `yaml:"field" json:"field"`
}

type CouplingConfig struct {
	Kind      string  `yaml:"kind" json:"kind"`
	Field     string  `yaml:"field" json:"field"`
	Vmax      float64 `yaml:"vmax" json:"vmax"`
	Km        float64 `yaml:"km" json:"km"`
	Rate      float64 `yaml:"rate" json:"rate"`
	Component int     `yaml:"component" json:"component"`
}

type OutputConfig struct {
	// Every records a sample each N ticks.
	Every     int  `yaml:"every" json:"every"`
	Snapshot  bool `yaml:"snapshot" json:"snapshot"`
	TickLog   bool `yaml:"tick_log" json:"tick_log"`
	SliceAxis int  `yaml:"slice_axis" json:"slice_axis"`
}

func DefaultConfig() *Config {
	return &Config{
		Name:       "diffusion",
		Dt:         DefaultDt,
		Ticks:      DefaultTicks,
		Seed:       1,
		Workers:    1,
		Integrator: DefaultIntegrator,
		Domain: DomainConfig{
			Bound:    [3]float64{DefaultBound, DefaultBound, DefaultBound},
			Boundary: [3]string{"solid", "solid", "solid"},
		},
		Fields: []FieldConfig{{
			Name:        "morphogen",
			Boxes:       [3]int{DefaultBoxes, DefaultBoxes, DefaultBoxes},
			Diffusivity: 1,
			DecayRate:   0.01,
			Initial:     InitialConfig{Kind: "point", Amount: 1000},
		}},
		Output: OutputConfig{Every: 1, SliceAxis: 2},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Field returns the named field config.
func (c *Config) Field(name string) (FieldConfig, bool) {
	for _, f := range c.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldConfig{}, false
}

// Clone returns a deep copy, so presets can be modified safely.
func (c *Config) Clone() *Config {
	data, err := yaml.Marshal(c)
	if err != nil {
		panic(err)
	}
	out := &Config{}
	if err := yaml.Unmarshal(data, out); err != nil {
		panic(err)
	}
	return out
}
