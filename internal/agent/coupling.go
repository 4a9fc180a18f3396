package agent

import (
	"math"

	"github.com/san-kum/biosim/internal/dynamo"
)

// Coupling exchanges mass between an agent and one field. Flux is the
// quantity per unit time added to the field: negative for uptake.
type Coupling interface {
	Field() string
	Flux(y dynamo.State, conc float64) float64
}

// Consume removes mass at the saturating rate vmax·c/(km + c).
type Consume struct {
	Target string
	Vmax   float64
	Km     float64
}

func (c Consume) Field() string { return c.Target }

func (c Consume) Flux(_ dynamo.State, conc float64) float64 {
	if conc <= 0 {
		return 0
	}
	return -c.Vmax * conc / (c.Km + conc)
}

// Secrete releases Rate·y[Component] into the field, or a constant Rate
// when Component is negative.
type Secrete struct {
	Target    string
	Rate      float64
	Component int
}

func (s Secrete) Field() string { return s.Target }

func (s Secrete) Flux(y dynamo.State, _ float64) float64 {
	if s.Component < 0 {
		return s.Rate
	}
	if s.Component >= len(y) {
		return 0
	}
	return s.Rate * math.Max(y[s.Component], 0)
}
