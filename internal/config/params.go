package config

import (
	"fmt"
	"strings"
)

// SetParam sets one numeric setting addressed by a dotted path:
//
//	dt
//	field.<name>.diffusivity
//	field.<name>.decay_rate
//	population.<name>.count
//	population.<name>.speed
//	population.<name>.bias
//	population.<name>.network.<param>
//
// The result is not validated.
func (c *Config) SetParam(path string, v float64) error {
	parts := strings.Split(path, ".")
	switch {
	case len(parts) == 1 && parts[0] == "dt":
		c.Dt = v
		return nil

	case len(parts) == 3 && parts[0] == "field":
		for i := range c.Fields {
			f := &c.Fields[i]
			if f.Name != parts[1] {
				continue
			}
			switch parts[2] {
			case "diffusivity":
				f.Diffusivity = v
				return nil
			case "decay_rate":
				f.DecayRate = v
				return nil
			}
			return fmt.Errorf("%w: field setting %q", ErrInvalidConfig, parts[2])
		}
		return fmt.Errorf("%w: no field %q", ErrInvalidConfig, parts[1])

	case len(parts) >= 3 && parts[0] == "population":
		for i := range c.Populations {
			p := &c.Populations[i]
			if p.Name != parts[1] {
				continue
			}
			if len(parts) == 4 && parts[2] == "network" {
				if p.Network == nil {
					return fmt.Errorf("%w: population %q has no network", ErrInvalidConfig, p.Name)
				}
				if p.Network.Params == nil {
					p.Network.Params = make(map[string]float64)
				}
				p.Network.Params[parts[3]] = v
				return nil
			}
			if len(parts) != 3 {
				break
			}
			switch parts[2] {
			case "count":
				p.Count = int(v)
				return nil
			case "speed":
				p.Motility.Speed = v
				return nil
			case "bias":
				p.Motility.Bias = v
				return nil
			}
			return fmt.Errorf("%w: population setting %q", ErrInvalidConfig, parts[2])
		}
		return fmt.Errorf("%w: no population %q or bad path %q", ErrInvalidConfig, parts[1], path)
	}
	return fmt.Errorf("%w: unknown parameter %q", ErrInvalidConfig, path)
}
