package viz

import "github.com/charmbracelet/lipgloss"

// Theme defines color scheme for the TUI
type Theme struct {
	Name     string
	Primary  lipgloss.Color
	Muted    lipgloss.Color
	Text     lipgloss.Color
	Agent    lipgloss.Color
	HeatLow  lipgloss.Color
	HeatMid  lipgloss.Color
	HeatHigh lipgloss.Color
}

// Available themes
var (
	ThemeMagma = Theme{
		Name:     "magma",
		Primary:  lipgloss.Color("#ff9f43"),
		Muted:    lipgloss.Color("#666688"),
		Text:     lipgloss.Color("#ffffff"),
		Agent:    lipgloss.Color("#00ffff"),
		HeatLow:  lipgloss.Color("#000004"),
		HeatMid:  lipgloss.Color("#b63679"),
		HeatHigh: lipgloss.Color("#fcfdbf"),
	}

	ThemeViridis = Theme{
		Name:     "viridis",
		Primary:  lipgloss.Color("#35b779"),
		Muted:    lipgloss.Color("#4488aa"),
		Text:     lipgloss.Color("#e0f0ff"),
		Agent:    lipgloss.Color("#ff4757"),
		HeatLow:  lipgloss.Color("#440154"),
		HeatMid:  lipgloss.Color("#21918c"),
		HeatHigh: lipgloss.Color("#fde725"),
	}

	ThemeMono = Theme{
		Name:     "mono",
		Primary:  lipgloss.Color("#ffffff"),
		Muted:    lipgloss.Color("#888888"),
		Text:     lipgloss.Color("#ffffff"),
		Agent:    lipgloss.Color("#ff0000"),
		HeatLow:  lipgloss.Color("#000000"),
		HeatMid:  lipgloss.Color("#808080"),
		HeatHigh: lipgloss.Color("#ffffff"),
	}

	Themes = []Theme{
		ThemeMagma,
		ThemeViridis,
		ThemeMono,
	}
)

// GetTheme returns a theme by name
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return ThemeMagma
}

// ThemeNames returns list of available theme names
func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}

// Heat maps v in [0,1] onto the theme's three-stop colour ramp.
func (t Theme) Heat(v float64) lipgloss.Color {
	v = max(0, min(1, v))
	if v < 0.5 {
		return blend(t.HeatLow, t.HeatMid, v*2)
	}
	return blend(t.HeatMid, t.HeatHigh, (v-0.5)*2)
}

func blend(a, b lipgloss.Color, f float64) lipgloss.Color {
	ar, ag, ab := parseHex(string(a))
	br, bg, bb := parseHex(string(b))
	return lipgloss.Color(hexColor(
		ar+int(f*float64(br-ar)),
		ag+int(f*float64(bg-ag)),
		ab+int(f*float64(bb-ab)),
	))
}
