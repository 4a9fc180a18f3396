package viz

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/biosim/internal/agent"
	"github.com/san-kum/biosim/internal/dynamo"
	"github.com/san-kum/biosim/internal/field"
	"github.com/san-kum/biosim/internal/sim"
)

const historyLen = 120

type TickMsg time.Time

// Model steps a simulation and renders one plane of one field.
type Model struct {
	ctx   context.Context
	sim   *sim.Simulation
	fps   int
	theme int

	fieldIdx int
	axis     int
	at       int
	agents   bool

	paused   bool
	quitting bool
	err      error

	history []float64
}

// NewModel builds a live view over s. The slice axis comes from the run's
// output config and starts in the middle of the grid.
func NewModel(ctx context.Context, s *sim.Simulation, fps int) *Model {
	if fps <= 0 {
		fps = 30
	}
	m := &Model{
		ctx:    ctx,
		sim:    s,
		fps:    fps,
		axis:   s.Config().Output.SliceAxis,
		agents: true,
	}
	m.centerSlice()
	m.record()
	return m
}

func (m *Model) Init() tea.Cmd {
	return m.tick()
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.fps), func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func (m *Model) field() *field.Field {
	fs := m.sim.Fields()
	if len(fs) == 0 {
		return nil
	}
	return fs[m.fieldIdx%len(fs)]
}

func (m *Model) centerSlice() {
	if f := m.field(); f != nil {
		m.at = f.Boxes()[m.axis] / 2
	}
}

func (m *Model) record() {
	f := m.field()
	if f == nil {
		return
	}
	m.history = append(m.history, f.TotalQuantity())
	if len(m.history) > historyLen {
		m.history = m.history[1:]
	}
}

func (m *Model) step() {
	if m.err != nil {
		return
	}
	if err := m.sim.Step(m.ctx); err != nil {
		m.err = err
		m.paused = true
		return
	}
	m.record()
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case " ":
			m.paused = !m.paused
		case "s":
			if m.paused {
				m.step()
			}
		case "f":
			if n := len(m.sim.Fields()); n > 0 {
				m.fieldIdx = (m.fieldIdx + 1) % n
				m.history = m.history[:0]
				m.centerSlice()
				m.record()
			}
		case "+", "=":
			if f := m.field(); f != nil && m.at < f.Boxes()[m.axis]-1 {
				m.at++
			}
		case "-":
			if m.at > 0 {
				m.at--
			}
		case "a":
			m.agents = !m.agents
		case "t":
			m.theme = (m.theme + 1) % len(Themes)
		}

	case TickMsg:
		if m.quitting {
			return m, nil
		}
		if !m.paused {
			m.step()
		}
		return m, m.tick()
	}

	return m, nil
}

// Paused reports whether the view is holding the simulation.
func (m *Model) Paused() bool { return m.paused }

// Err returns the error that stopped stepping, if any.
func (m *Model) Err() error { return m.err }

// agentMask flags every box of the current plane that holds at least one
// positioned agent.
func (m *Model) agentMask(f *field.Field, rows, cols int) [][]bool {
	a, b := planeAxes(m.axis)
	mask := make([][]bool, rows)
	for i := range mask {
		mask[i] = make([]bool, cols)
	}
	for _, ag := range m.sim.Agents() {
		p, ok := ag.(agent.Positioned)
		if !ok {
			continue
		}
		idx := f.Locate(p.Position())
		if idx[m.axis] != m.at {
			continue
		}
		mask[idx[a]][idx[b]] = true
	}
	return mask
}

func planeAxes(axis int) (int, int) {
	a, b := (axis+1)%3, (axis+2)%3
	if a > b {
		a, b = b, a
	}
	return a, b
}

func (m *Model) positions() []dynamo.Vec3 {
	var out []dynamo.Vec3
	for _, ag := range m.sim.Agents() {
		if p, ok := ag.(agent.Positioned); ok {
			out = append(out, p.Position())
		}
	}
	return out
}

func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	theme := Themes[m.theme]

	f := m.field()
	if f == nil {
		return errorStyle.Render("no fields") + "\n"
	}

	plane, err := f.Slice(m.axis, m.at)
	if err != nil {
		return errorStyle.Render(err.Error()) + "\n"
	}
	hi := PlaneMax(plane)

	var mask [][]bool
	if m.agents && len(plane) > 0 {
		mask = m.agentMask(f, len(plane), len(plane[0]))
	}
	heat := canvasStyle.Render(HeatPlane(plane, hi, theme, mask))

	clock := m.sim.Clock()
	stats := m.sim.Stats()

	var s strings.Builder
	s.WriteString(sectionStyle.Render("STATUS") + "\n")
	if m.err != nil {
		s.WriteString(errorStyle.Render("STOPPED") + "\n")
	} else if m.paused {
		s.WriteString(pausedStyle.Render("PAUSED") + "\n")
	} else {
		s.WriteString(runningStyle.Render("RUNNING") + "\n")
	}
	row := func(label, value string) {
		s.WriteString(labelStyle.Render(fmt.Sprintf("%-9s", label)) + valueStyle.Render(value) + "\n")
	}
	row("field", f.Name())
	row("tick", fmt.Sprintf("%d", clock.Tick))
	row("time", fmt.Sprintf("%.2f", clock.Time))
	row("slice", fmt.Sprintf("axis %d @ %d/%d", m.axis, m.at, f.Boxes()[m.axis]))
	row("peak", fmt.Sprintf("%.4g", hi))
	row("total", fmt.Sprintf("%.4g", f.TotalQuantity()))
	row("clamps", fmt.Sprintf("%d", f.Clamps()))
	row("agents", fmt.Sprintf("%d", len(m.sim.Agents())))
	row("actions", fmt.Sprintf("%d", stats.Actions))
	row("theme", theme.Name)
	s.WriteString("\n" + Sparkline(m.history, 30, theme) + "\n")

	if len(m.history) > 1 {
		s.WriteString("\n" + asciigraph.Plot(m.history,
			asciigraph.Height(4),
			asciigraph.Width(30),
			asciigraph.Caption("total quantity"),
		))
	}

	if pos := m.positions(); len(pos) > 0 && m.agents {
		a, b := planeAxes(m.axis)
		c := NewCanvas(16, 4)
		c.PlotPositions(pos, m.sim.Domain().Bound, a, b)
		s.WriteString("\n\n" + mutedStyle.Render("agents") + "\n" + c.String())
	}
	if m.err != nil {
		s.WriteString("\n" + errorStyle.Render(m.err.Error()))
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top, heat, " ", statsStyle.Render(s.String()))

	var b strings.Builder
	b.WriteString(titleStyle.Render("biosim // "+m.sim.Config().Name) + "\n")
	b.WriteString(body + "\n")
	b.WriteString(rule(60) + "\n")
	b.WriteString(hintStyle.Render("space pause  s step  f field  +/- slice  a agents  t theme  q quit"))
	return b.String()
}

// RunLive opens the live view on the alternate screen and blocks until the
// user quits or ctx is cancelled.
func RunLive(ctx context.Context, s *sim.Simulation, fps int) error {
	m := NewModel(ctx, s, fps)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return err
	}
	return m.Err()
}
