package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Dt <= 0 {
		t.Error("dt should be positive")
	}
	if len(cfg.Fields) != 1 {
		t.Fatalf("expected one field, got %d", len(cfg.Fields))
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestPresetsValidate(t *testing.T) {
	for _, name := range ListPresets() {
		t.Run(name, func(t *testing.T) {
			cfg := GetPreset(name)
			if cfg == nil {
				t.Fatal("expected preset, got nil")
			}
			if err := cfg.Validate(); err != nil {
				t.Errorf("preset %s invalid: %v", name, err)
			}
		})
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if GetPreset("nonexistent") != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestGetPreset_ReturnsCopy(t *testing.T) {
	a := GetPreset("chemotaxis")
	a.Populations[0].Count = 1
	a.Populations[0].Network.H = 9

	b := GetPreset("chemotaxis")
	if b.Populations[0].Count != 200 || b.Populations[0].Network.H != 0.05 {
		t.Error("modifying a preset copy changed the preset")
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero dt", func(c *Config) { c.Dt = 0 }},
		{"negative bound", func(c *Config) { c.Domain.Bound[1] = -1 }},
		{"bad boundary", func(c *Config) { c.Domain.Boundary[0] = "mirror" }},
		{"zero boxes", func(c *Config) { c.Fields[0].Boxes[2] = 0 }},
		{"negative diffusivity", func(c *Config) { c.Fields[0].Diffusivity = -1 }},
		{"decay too large", func(c *Config) { c.Fields[0].DecayRate = 20 }},
		{"duplicate field", func(c *Config) { c.Fields = append(c.Fields, c.Fields[0]) }},
		{"unknown integrator", func(c *Config) { c.Integrator = "rk45" }},
		{"unknown sense", func(c *Config) {
			c.Populations = []PopulationConfig{{Name: "cells", Count: 1, Sense: "oxygen"}}
		}},
		{"unknown coupling field", func(c *Config) {
			c.Populations = []PopulationConfig{{
				Name: "cells", Count: 1,
				Couplings: []CouplingConfig{{Kind: "consume", Field: "oxygen"}},
			}}
		}},
		{"bad network model", func(c *Config) {
			c.Populations = []PopulationConfig{{
				Name: "cells", Count: 1,
				Network: &NetworkConfig{Model: "lorenz", H: 0.1},
			}}
		}},
		{"bias above one", func(c *Config) {
			c.Populations = []PopulationConfig{{
				Name: "cells", Count: 1,
				Motility: MotilityConfig{Kind: "chemotaxis", Bias: 2, Field: "morphogen"},
			}}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	want := GetPreset("oscillator")
	if err := Save(path, want); err != nil {
		t.Fatal(err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != want.Name || got.Ticks != want.Ticks || got.Domain != want.Domain {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if got.Populations[0].Network.Model != "hes1" {
		t.Errorf("network lost in round trip: %+v", got.Populations[0])
	}
}

func TestLoad_Partial(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	if err := os.WriteFile(path, []byte("ticks: 50\nseed: 9\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Ticks != 50 || cfg.Seed != 9 {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.Dt != DefaultDt || cfg.Integrator != DefaultIntegrator {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestLoad_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	if err := os.WriteFile(path, []byte("dt: -1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestSetParam(t *testing.T) {
	cfg := GetPreset("chemotaxis")

	tests := []struct {
		path  string
		value float64
		check func(*Config) bool
	}{
		{"dt", 0.05, func(c *Config) bool { return c.Dt == 0.05 }},
		{"field.waste.decay_rate", 0.2, func(c *Config) bool { f, _ := c.Field("waste"); return f.DecayRate == 0.2 }},
		{"field.attractant.diffusivity", 2, func(c *Config) bool { f, _ := c.Field("attractant"); return f.Diffusivity == 2 }},
		{"population.bacteria.count", 12, func(c *Config) bool { return c.Populations[0].Count == 12 }},
		{"population.bacteria.speed", 0.7, func(c *Config) bool { return c.Populations[0].Motility.Speed == 0.7 }},
		{"population.bacteria.network.vmax", 3, func(c *Config) bool { return c.Populations[0].Network.Params["vmax"] == 3 }},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if err := cfg.SetParam(tt.path, tt.value); err != nil {
				t.Fatal(err)
			}
			if !tt.check(cfg) {
				t.Errorf("%s not applied", tt.path)
			}
		})
	}
}

func TestSetParam_Unknown(t *testing.T) {
	cfg := GetPreset("chemotaxis")
	for _, path := range []string{"", "ticks", "field.nope.diffusivity", "field.waste.color", "population.bacteria.mood", "population.x.count"} {
		if err := cfg.SetParam(path, 1); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("SetParam(%q) = %v, want ErrInvalidConfig", path, err)
		}
	}
}
