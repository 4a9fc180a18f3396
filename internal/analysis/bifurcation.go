package analysis

import (
	"math"

	"github.com/san-kum/biosim/internal/agent"
)

// BifurcationPoint represents the values a network settles into for one
// parameter value.
type BifurcationPoint struct {
	Param  float64
	Values []float64 // peak values, or the final value when there are none
}

// NetworkFactory builds a fresh network with the given parameter overrides.
type NetworkFactory func(params map[string]float64) (agent.Network, error)

// BifurcationDiagram sweeps a parameter and records where a network settles.
// For an oscillating network Values holds the distinct peak heights of
// stateIndex over the record window; for a network at rest, its final value.
//
// Parameters:
// - build: returns a fresh network for each parameter value, ticking at dt
// - paramName: name of parameter to sweep
// - paramMin, paramMax: range to sweep
// - paramSteps: number of parameter values to test
// - stateIndex: which state variable to record
// - ext: constant external concentration
// - dt, transient, record: timing parameters
func BifurcationDiagram(
	build NetworkFactory,
	paramName string,
	paramMin, paramMax float64,
	paramSteps int,
	stateIndex int,
	ext float64,
	dt, transient, record float64,
) ([]BifurcationPoint, error) {
	if paramSteps <= 1 {
		paramSteps = 2
	}
	paramStep := (paramMax - paramMin) / float64(paramSteps-1)
	results := make([]BifurcationPoint, 0, paramSteps)

	for i := 0; i < paramSteps; i++ {
		param := paramMin + float64(i)*paramStep
		net, err := build(map[string]float64{paramName: param})
		if err != nil {
			return results, err
		}

		t := 0.0
		tick := 0
		advance := func() error {
			err := net.Advance(t, dt, ext)
			tick++
			t = float64(tick) * dt
			return err
		}

		for t < transient {
			if err := advance(); err != nil {
				return results, err
			}
		}

		series := make([]float64, 0, int(record/dt)+1)
		for t < transient+record {
			if err := advance(); err != nil {
				return results, err
			}
			if x := net.State(); stateIndex < len(x) {
				series = append(series, x[stateIndex])
			}
		}

		values := make([]float64, 0)
		seen := make(map[int64]bool)
		for _, idx := range Peaks(series) {
			// Quantize to find distinct values
			key := int64(math.Round(series[idx] * 1000))
			if !seen[key] {
				seen[key] = true
				values = append(values, series[idx])
			}
		}
		if len(values) == 0 && len(series) > 0 {
			values = append(values, series[len(series)-1])
		}

		results = append(results, BifurcationPoint{Param: param, Values: values})
	}

	return results, nil
}

// BifurcationToASCII converts bifurcation data to ASCII art
func BifurcationToASCII(data []BifurcationPoint, width, height int) string {
	if len(data) == 0 || width <= 0 || height <= 0 {
		return ""
	}

	// Find value range - need at least one valid value
	var minVal, maxVal float64
	foundFirst := false
	for _, p := range data {
		for _, v := range p.Values {
			if !foundFirst {
				minVal, maxVal = v, v
				foundFirst = true
			} else {
				if v < minVal {
					minVal = v
				}
				if v > maxVal {
					maxVal = v
				}
			}
		}
	}
	if !foundFirst {
		return "" // No values to plot
	}

	if maxVal == minVal {
		maxVal = minVal + 1
	}

	// Create canvas
	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = make([]rune, width)
		for j := range canvas[i] {
			canvas[i][j] = ' '
		}
	}

	// Plot points
	for i, p := range data {
		col := i * width / len(data)
		if col >= width {
			col = width - 1
		}

		for _, v := range p.Values {
			row := height - 1 - int((v-minVal)/(maxVal-minVal)*float64(height-1))
			if row >= 0 && row < height && col >= 0 && col < width {
				canvas[row][col] = '•'
			}
		}
	}

	// Convert to string
	result := ""
	for _, row := range canvas {
		result += string(row) + "\n"
	}
	return result
}
