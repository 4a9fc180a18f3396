package viz

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/biosim/internal/config"
	"github.com/san-kum/biosim/internal/dynamo"
	"github.com/san-kum/biosim/internal/sim"
)

func TestShadePlane(t *testing.T) {
	plane := [][]float64{{0, 1}, {0.5, 0}}
	got := ShadePlane(plane, PlaneMax(plane))
	want := "  @@\n==  \n"
	if got != want {
		t.Errorf("ShadePlane = %q, want %q", got, want)
	}
}

func TestShadePlane_Empty(t *testing.T) {
	plane := [][]float64{{0, 0}}
	if got := ShadePlane(plane, PlaneMax(plane)); got != "    \n" {
		t.Errorf("ShadePlane = %q", got)
	}
}

func TestHeatPlane_Rows(t *testing.T) {
	plane := [][]float64{{0, 1, 2}, {3, 4, 5}}
	out := HeatPlane(plane, 5, ThemeMono, nil)
	if n := strings.Count(out, "\n"); n != 2 {
		t.Errorf("expected 2 rows, got %d", n)
	}
}

func TestTheme_HeatEnds(t *testing.T) {
	th := ThemeMono
	if got := th.Heat(0); got != th.HeatLow {
		t.Errorf("Heat(0) = %s, want %s", got, th.HeatLow)
	}
	if got := th.Heat(1); got != th.HeatHigh {
		t.Errorf("Heat(1) = %s, want %s", got, th.HeatHigh)
	}
	if got := th.Heat(-3); got != th.HeatLow {
		t.Errorf("Heat(-3) = %s, want clamp to low", got)
	}
}

func TestGetTheme(t *testing.T) {
	if GetTheme("viridis").Name != "viridis" {
		t.Error("expected viridis")
	}
	if GetTheme("nope").Name != ThemeMagma.Name {
		t.Error("unknown theme should fall back to magma")
	}
	if len(ThemeNames()) != len(Themes) {
		t.Error("theme names out of sync")
	}
}

func TestCanvas_PlotPositions(t *testing.T) {
	c := NewCanvas(4, 2)
	bound := dynamo.Vec3{8, 8, 1}
	c.PlotPositions([]dynamo.Vec3{{0, 0, 0}, {7.9, 7.9, 0}, {8, 8, 0}}, bound, 0, 1)
	if got := c.Count(); got != 1+1 {
		t.Errorf("expected 2 distinct dots, got %d", got)
	}
	c.Clear()
	if c.Count() != 0 {
		t.Error("expected empty canvas after Clear")
	}
}

func newTestModel(t *testing.T) *Model {
	t.Helper()
	s, err := sim.Build(context.Background(), config.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	return NewModel(context.Background(), s, 30)
}

func key(s string) tea.KeyMsg {
	if s == " " {
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModel_PauseAndStep(t *testing.T) {
	m := newTestModel(t)

	m.Update(TickMsg{})
	if m.sim.Clock().Tick != 1 {
		t.Fatalf("expected tick 1, got %d", m.sim.Clock().Tick)
	}

	m.Update(key(" "))
	if !m.Paused() {
		t.Fatal("expected paused")
	}
	m.Update(TickMsg{})
	if m.sim.Clock().Tick != 1 {
		t.Errorf("paused model advanced to %d", m.sim.Clock().Tick)
	}

	m.Update(key("s"))
	if m.sim.Clock().Tick != 2 {
		t.Errorf("step should advance to 2, got %d", m.sim.Clock().Tick)
	}
	if len(m.history) != 3 {
		t.Errorf("expected 3 history points, got %d", len(m.history))
	}
}

func TestModel_Slice(t *testing.T) {
	m := newTestModel(t)
	if m.at != 8 {
		t.Fatalf("expected centred slice 8, got %d", m.at)
	}
	for i := 0; i < 20; i++ {
		m.Update(key("+"))
	}
	if m.at != 15 {
		t.Errorf("slice should stop at 15, got %d", m.at)
	}
	for i := 0; i < 20; i++ {
		m.Update(key("-"))
	}
	if m.at != 0 {
		t.Errorf("slice should stop at 0, got %d", m.at)
	}
}

func TestModel_QuitAndView(t *testing.T) {
	m := newTestModel(t)
	if v := m.View(); !strings.Contains(v, "morphogen") {
		t.Error("view should name the displayed field")
	}
	m.Update(key("t"))
	if m.theme != 1 {
		t.Errorf("expected theme 1, got %d", m.theme)
	}
	_, cmd := m.Update(key("q"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected QuitMsg")
	}
	if m.View() != "" {
		t.Error("expected empty view after quit")
	}
}

func TestParseHex(t *testing.T) {
	tests := []struct {
		in      string
		r, g, b int
	}{
		{"#0a0B0c", 10, 11, 12},
		{"#ffffff", 255, 255, 255},
		{"#000000", 0, 0, 0},
		{"#zz0000", 255, 255, 255},
		{"#12345", 255, 255, 255},
		{"0a0b0c0", 255, 255, 255},
		{"", 255, 255, 255},
	}
	for _, tt := range tests {
		r, g, b := parseHex(tt.in)
		if r != tt.r || g != tt.g || b != tt.b {
			t.Errorf("parseHex(%q) = %d,%d,%d, want %d,%d,%d", tt.in, r, g, b, tt.r, tt.g, tt.b)
		}
	}
}

func TestHexColorClamps(t *testing.T) {
	if got := hexColor(-4, 128, 300); got != "#0080ff" {
		t.Errorf("hexColor = %s, want #0080ff", got)
	}
}

func TestSparkline(t *testing.T) {
	bars := func(s string) int {
		n := 0
		for _, r := range s {
			if strings.ContainsRune(string(sparkBars), r) {
				n++
			}
		}
		return n
	}
	values := []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	if got := bars(Sparkline(values, 5, Themes[0])); got != 5 {
		t.Errorf("width 5 drew %d bars", got)
	}
	if got := bars(Sparkline(values[:3], 30, Themes[0])); got != 3 {
		t.Errorf("3 values drew %d bars", got)
	}
	if got := Sparkline(nil, 4, Themes[0]); !strings.Contains(got, "────") {
		t.Errorf("empty history rendered %q", got)
	}
	if got := Sparkline(values, 0, Themes[0]); got != "" {
		t.Errorf("zero width rendered %q", got)
	}
}
