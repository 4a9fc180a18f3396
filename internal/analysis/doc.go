// Package analysis provides tools for characterising network dynamics and
// sampled run series.
//
//   - [PowerSpectrum] and [DominantPeriod]: spectral estimate of the period
//     of an oscillating series
//   - [Peaks]: local maxima of a series
//   - [GeneratePhasePortrait]: 2D state-space trajectory of one network
//   - [BifurcationDiagram]: parameter sweep recording the peaks a network
//     settles into
//
// # Oscillation Detection
//
// A delayed autorepressor oscillates once its delay is long enough:
//
//	period := analysis.DominantPeriod(proteinSeries, dt)
//	if period > 0 {
//	    // sustained oscillation
//	}
package analysis
