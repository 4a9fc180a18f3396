package config

import "sort"

var Presets = map[string]*Config{
	"diffusion": DefaultConfig(),
	"chemotaxis": {
		Name: "chemotaxis", Dt: 0.1, Ticks: 500, Seed: 7, Workers: 4, Integrator: "rk4",
		Domain: DomainConfig{
			Bound:    [3]float64{32, 32, 1},
			Boundary: [3]string{"solid", "solid", "solid"},
		},
		Fields: []FieldConfig{
			{
				Name: "attractant", Boxes: [3]int{32, 32, 1}, Diffusivity: 0.5,
				Initial: InitialConfig{Kind: "gradient", Axis: 0, From: 0, To: 5},
			},
			{Name: "waste", Boxes: [3]int{16, 16, 1}, Diffusivity: 1, DecayRate: 0.05},
		},
		Populations: []PopulationConfig{{
			Name: "bacteria", Count: 200, Placement: "random", Sense: "attractant",
			Network:  &NetworkConfig{Model: "uptake", H: 0.05, TimeScale: 1},
			Motility: MotilityConfig{Kind: "chemotaxis", Speed: 1, Bias: 0.6, Field: "attractant"},
			Couplings: []CouplingConfig{
				{Kind: "consume", Field: "attractant", Vmax: 0.2, Km: 1},
				{Kind: "secrete", Field: "waste", Rate: 0.05, Component: 1},
			},
		}},
		Output: OutputConfig{Every: 5, Snapshot: true, TickLog: true, SliceAxis: 2},
	},
	"oscillator": {
		Name: "oscillator", Dt: 1, Ticks: 720, Seed: 3, Workers: 2, Integrator: "rk4",
		Domain: DomainConfig{
			Bound:    [3]float64{8, 8, 1},
			Boundary: [3]string{"wrap", "wrap", "solid"},
		},
		Fields: []FieldConfig{
			{Name: "signal", Boxes: [3]int{8, 8, 1}, Diffusivity: 0.2, DecayRate: 0.05},
		},
		Populations: []PopulationConfig{{
			Name: "cells", Count: 16, Placement: "random",
			Network:   &NetworkConfig{Model: "hes1", H: 0.1, TimeScale: 1},
			Motility:  MotilityConfig{Kind: "still"},
			Couplings: []CouplingConfig{{Kind: "secrete", Field: "signal", Rate: 0.001, Component: 1}},
		}},
		Output: OutputConfig{Every: 1, SliceAxis: 2},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
