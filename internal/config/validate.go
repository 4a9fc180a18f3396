package config

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/san-kum/biosim/internal/integrators"
)

var ErrInvalidConfig = errors.New("config: invalid")

//go:embed config.schema.json
var schemaSource string

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = jsonschema.CompileString("config.schema.json", schemaSource)
	})
	return schema, schemaErr
}

// Validate checks the config against the embedded schema, then checks the
// cross-references the schema cannot express.
func (c *Config) Validate() error {
	s, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("config schema: %w", err)
	}

	data, err := json.Marshal(c)
	if err != nil {
		return err
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	if err := s.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if _, err := integrators.New(c.Integrator); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	names := make(map[string]bool, len(c.Fields))
	for _, f := range c.Fields {
		if names[f.Name] {
			return fmt.Errorf("%w: duplicate field %q", ErrInvalidConfig, f.Name)
		}
		names[f.Name] = true
		if f.DecayRate*c.Dt >= 1 {
			return fmt.Errorf("%w: field %q decay_rate*dt must be below 1", ErrInvalidConfig, f.Name)
		}
	}

	for _, p := range c.Populations {
		refs := []string{p.Sense}
		if p.Motility.Kind == "chemotaxis" {
			refs = append(refs, p.Motility.Field)
		}
		for _, cp := range p.Couplings {
			refs = append(refs, cp.Field)
		}
		for _, r := range refs {
			if r != "" && !names[r] {
				return fmt.Errorf("%w: population %q references unknown field %q", ErrInvalidConfig, p.Name, r)
			}
		}
	}
	return nil
}
