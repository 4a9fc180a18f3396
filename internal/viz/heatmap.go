package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// shades runs from empty to full.
const shades = " .:-=+*#%@"

// PlaneMax returns the largest value in plane, or 0 for an empty plane.
func PlaneMax(plane [][]float64) float64 {
	hi := 0.0
	for _, row := range plane {
		for _, v := range row {
			hi = max(hi, v)
		}
	}
	return hi
}

func level(v, hi float64, n int) int {
	if hi <= 0 || v <= 0 {
		return 0
	}
	i := int(v / hi * float64(n-1))
	return max(0, min(n-1, i))
}

// ShadePlane renders plane as ASCII shades scaled against hi. Each box is two
// characters wide to keep cells roughly square.
func ShadePlane(plane [][]float64, hi float64) string {
	var b strings.Builder
	for _, row := range plane {
		for _, v := range row {
			c := shades[level(v, hi, len(shades))]
			b.WriteByte(c)
			b.WriteByte(c)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// HeatPlane renders plane as coloured blocks from the theme's heat ramp.
// Boxes flagged in mark are drawn with the agent colour instead.
func HeatPlane(plane [][]float64, hi float64, theme Theme, mark [][]bool) string {
	var b strings.Builder
	for i, row := range plane {
		for j, v := range row {
			if mark != nil && mark[i][j] {
				b.WriteString(lipgloss.NewStyle().Foreground(theme.Agent).Render("()"))
				continue
			}
			t := 0.0
			if hi > 0 {
				t = v / hi
			}
			b.WriteString(lipgloss.NewStyle().Background(theme.Heat(t)).Render("  "))
		}
		b.WriteByte('\n')
	}
	return b.String()
}
