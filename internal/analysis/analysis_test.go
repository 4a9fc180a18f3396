package analysis

import (
	"math"
	"slices"
	"strings"
	"testing"

	"github.com/san-kum/biosim/internal/agent"
	"github.com/san-kum/biosim/internal/integrators"
)

func TestDominantPeriod_Sine(t *testing.T) {
	const n = 256
	data := make([]float64, n)
	for i := range data {
		data[i] = 3 + math.Sin(2*math.Pi*float64(i)/32)
	}

	// 32 samples at dt 0.5
	if got := DominantPeriod(data, 0.5); math.Abs(got-16) > 1e-9 {
		t.Errorf("DominantPeriod = %v, want 16", got)
	}
}

func TestDominantPeriod_NonPowerOfTwo(t *testing.T) {
	const n = 300
	data := make([]float64, n)
	for i := range data {
		data[i] = math.Cos(2 * math.Pi * float64(i) / 25)
	}
	if got := DominantPeriod(data, 1); math.Abs(got-25) > 1e-9 {
		t.Errorf("DominantPeriod = %v, want 25", got)
	}
}

func TestDominantPeriod_Flat(t *testing.T) {
	if got := DominantPeriod([]float64{2, 2, 2, 2, 2, 2}, 1); got != 0 {
		t.Errorf("flat series period %v, want 0", got)
	}
	if got := DominantPeriod([]float64{1, 2}, 1); got != 0 {
		t.Errorf("short series period %v, want 0", got)
	}
}

func TestPowerSpectrum_Length(t *testing.T) {
	if got := len(PowerSpectrum(make([]float64, 10))); got != 6 {
		t.Errorf("expected 6 bins, got %d", got)
	}
	if PowerSpectrum(nil) != nil {
		t.Error("expected nil spectrum for empty input")
	}
}

func TestPeaks(t *testing.T) {
	tests := []struct {
		name string
		data []float64
		want []int
	}{
		{"mixed", []float64{0, 2, 1, 3, 3, 0, 5}, []int{1, 3}},
		{"plateau then rise", []float64{0, 2, 2, 3}, nil},
		{"plateau to the end", []float64{0, 1, 1}, nil},
		{"flat", []float64{1, 1, 1, 1}, nil},
		{"wide top", []float64{0, 4, 4, 4, 1, 2, 0}, []int{1, 5}},
		{"short", []float64{3, 1}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Peaks(tt.data)
			if !slices.Equal(got, tt.want) {
				t.Errorf("Peaks(%v) = %v, want %v", tt.data, got, tt.want)
			}
		})
	}
}

func uptakeFactory(params map[string]float64) (agent.Network, error) {
	return agent.NewNetwork("uptake", integrators.NewRK4(), agent.NetworkOptions{H: 0.1, TimeScale: 1, Dt: 1}, params)
}

func TestPhasePortrait(t *testing.T) {
	net, err := uptakeFactory(nil)
	if err != nil {
		t.Fatal(err)
	}
	portrait, err := GeneratePhasePortrait(net, 1, 0, 1, 1, 50)
	if err != nil {
		t.Fatal(err)
	}
	if len(portrait.Points) != 50 {
		t.Fatalf("expected 50 points, got %d", len(portrait.Points))
	}
	if portrait.Points[49].X <= portrait.Points[0].X {
		t.Error("expected internal nutrient to rise from rest")
	}
	if s := PhasePortraitToASCII(portrait, 40, 10); strings.Count(s, "\n") != 10 {
		t.Errorf("expected 10 rows of ASCII, got %q", s)
	}

	if _, err := GeneratePhasePortrait(net, 1, 0, 7, 1, 5); err == nil {
		t.Error("expected error for out-of-range axis")
	}
}

func TestBifurcationDiagram_SteadyState(t *testing.T) {
	// n* = vmax·c/(km+c)/kconv with c=0.5, km=0.5, kconv=0.2
	points, err := BifurcationDiagram(uptakeFactory, "vmax", 1, 2, 3, 0, 0.5, 1, 150, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(points) != 3 {
		t.Fatalf("expected 3 points, got %d", len(points))
	}
	for _, p := range points {
		want := p.Param * 0.5 / 0.2
		if len(p.Values) != 1 || math.Abs(p.Values[0]-want) > 1e-3 {
			t.Errorf("vmax=%v: values %v, want [%v]", p.Param, p.Values, want)
		}
	}
	if s := BifurcationToASCII(points, 30, 8); s == "" {
		t.Error("expected ASCII rendering")
	}
}
