package viz

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"gonum.org/v1/gonum/floats"
)

const borderColor = lipgloss.Color("#444466")

var (
	canvasStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(borderColor)

	statsStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(borderColor).
			Padding(0, 1).
			Width(36)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ff9f43")).
			MarginBottom(1)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#e0e0f0")).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(borderColor)

	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ff4757"))
	runningStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ff88"))
	pausedStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ffaa00"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#888899"))
	valueStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ccff"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#666688"))
	hintStyle    = mutedStyle.Italic(true)
)

var sparkBars = []rune("▁▂▃▄▅▆▇█")

// Sparkline draws at most width bars, sampling values evenly and scaling
// them between their own min and max. Bar colour follows the theme's ramp.
func Sparkline(values []float64, width int, theme Theme) string {
	if width <= 0 {
		return ""
	}
	if len(values) == 0 {
		return mutedStyle.Render(strings.Repeat("─", width))
	}
	lo, hi := floats.Min(values), floats.Max(values)
	n := min(width, len(values))
	var b strings.Builder
	for i := range n {
		t := 0.0
		if hi > lo {
			t = (values[i*len(values)/n] - lo) / (hi - lo)
		}
		bar := sparkBars[int(t*float64(len(sparkBars)-1))]
		// keep the lowest bars off the background
		b.WriteString(lipgloss.NewStyle().Foreground(theme.Heat(0.3 + 0.7*t)).Render(string(bar)))
	}
	return b.String()
}

func rule(width int) string {
	return mutedStyle.Render(strings.Repeat("─", max(width, 0)))
}

// parseHex reads a "#rrggbb" colour. Anything else reads as white.
func parseHex(hex string) (r, g, b int) {
	if len(hex) != 7 || hex[0] != '#' {
		return 255, 255, 255
	}
	v, err := strconv.ParseUint(hex[1:], 16, 24)
	if err != nil {
		return 255, 255, 255
	}
	return int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff)
}

func hexColor(r, g, b int) string {
	clamp := func(v int) int { return max(0, min(255, v)) }
	return fmt.Sprintf("#%02x%02x%02x", clamp(r), clamp(g), clamp(b))
}
