// Package viz renders simulations in the terminal.
//
// The package implements a live view using the Bubble Tea framework:
//
//   - [Model]: steps a simulation and shows one concentration plane as a
//     shaded heatmap, agent positions and the total-mass history
//   - [Canvas]: Braille-based pixel canvas for agent positions
//   - [ShadePlane] and [HeatPlane]: plain and coloured plane renderers
//   - Theme selection with 3 built-in colour schemes
//
// # Key Bindings
//
//	Space - Pause/Resume simulation
//	S     - Single step while paused
//	F     - Cycle displayed field
//	+/-   - Move the slice plane
//	A     - Toggle agent overlay
//	T     - Cycle colour themes
//	Q     - Quit
package viz
