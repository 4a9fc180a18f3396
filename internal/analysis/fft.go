package analysis

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/stat"
)

// PowerSpectrum returns |X_k|² for k in [0, n/2] of the mean-removed series.
func PowerSpectrum(data []float64) []float64 {
	if len(data) == 0 {
		return nil
	}
	mean := stat.Mean(data, nil)
	centered := make([]float64, len(data))
	for i, v := range data {
		centered[i] = v - mean
	}

	spec := fft.FFTReal(centered)
	ps := make([]float64, len(spec)/2+1)
	for i := range ps {
		a := cmplx.Abs(spec[i])
		ps[i] = a * a
	}
	return ps
}

// DominantPeriod returns the period, in units of dt, of the strongest
// non-constant frequency in data. It returns 0 for series too short or too
// flat to have one.
func DominantPeriod(data []float64, dt float64) float64 {
	if len(data) < 4 {
		return 0
	}
	ps := PowerSpectrum(data)

	best, bestPower := 0, 0.0
	for k := 1; k < len(ps); k++ {
		if ps[k] > bestPower {
			best, bestPower = k, ps[k]
		}
	}
	if best == 0 || bestPower < 1e-24 {
		return 0
	}
	return float64(len(data)) * dt / float64(best)
}

// Peaks returns the indices of local maxima of data. A flat top counts once,
// at its first sample, and only if the series falls after it.
func Peaks(data []float64) []int {
	var out []int
	for i := 1; i+1 < len(data); i++ {
		if data[i] <= data[i-1] {
			continue
		}
		j := i
		for j+1 < len(data) && data[j+1] == data[i] {
			j++
		}
		if j+1 < len(data) && data[j+1] < data[i] {
			out = append(out, i)
		}
		i = j
	}
	return out
}
