// Package viz renders a running Monte Carlo integration in the terminal.
package viz

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/discmc/internal/ensemble"
	"github.com/san-kum/discmc/internal/mc"
)

const (
	canvasWidth     = 64
	canvasHeight    = 24
	historyCapacity = 200
)

var (
	canvasStyle = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(0, 1)
	statsStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(0, 2).Width(38)
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).MarginTop(1)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

type tickMsg time.Time

// atom glyphs per atom type, cycled.
var glyphs = []rune{'o', '*', '+', 'x'}

// Model steps the integrator in batches between frames and draws the box.
type Model struct {
	cfg       *ensemble.Configuration
	initial   *ensemble.Configuration
	integ     *mc.Integrator
	beta      float64
	pressure  float64
	batch     int
	frameRate int

	step    int
	energy  float64
	history []float64
	running bool
	err     error
}

// NewModel wires a live view around a configuration and integrator. batch
// is the number of Metropolis steps taken per frame.
func NewModel(cfg *ensemble.Configuration, integ *mc.Integrator, beta, pressure float64, batch, frameRate int) Model {
	if batch < 1 {
		batch = 1
	}
	if frameRate < 1 {
		frameRate = 30
	}
	return Model{
		cfg:       cfg,
		initial:   cfg.Clone(),
		integ:     integ,
		beta:      beta,
		pressure:  pressure,
		batch:     batch,
		frameRate: frameRate,
		history:   make([]float64, 0, historyCapacity),
		running:   true,
	}
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.frameRate), func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			m.cfg = m.initial.Clone()
			m.step = 0
			m.history = m.history[:0]
			m.integ.NGood, m.integ.NBad = 0, 0
		}
	case tickMsg:
		if m.running && m.err == nil {
			res, err := m.integ.Run(context.Background(), m.cfg, m.beta, m.pressure, m.batch)
			if err != nil {
				m.err = err
			} else {
				m.step += res.Steps
				m.energy = res.Energy
				m.history = append(m.history, res.Energy)
				if len(m.history) > historyCapacity {
					m.history = m.history[1:]
				}
			}
		}
		return m, m.tick()
	}
	return m, nil
}

func (m Model) View() string {
	canvas := canvasStyle.Render(m.drawBox())
	stats := statsStyle.Render(m.drawStats())
	body := lipgloss.JoinHorizontal(lipgloss.Top, canvas, stats)
	help := helpStyle.Render("space pause · r reset · q quit")
	return lipgloss.JoinVertical(lipgloss.Left, body, help)
}

// drawBox projects every atom center onto a character grid.
func (m Model) drawBox() string {
	grid := make([][]rune, canvasHeight)
	for y := range grid {
		grid[y] = make([]rune, canvasWidth)
		for x := range grid[y] {
			grid[y][x] = ' '
		}
	}

	topo := m.cfg.Topology()
	for i := 0; i < m.cfg.NObjects(); i++ {
		obj := m.cfg.Object(i)
		for j := 0; j < topo.NAtoms(obj.Type); j++ {
			ax, ay := obj.AtomPosition(topo, j)
			px := int(ax / m.cfg.XSize * float64(canvasWidth))
			py := canvasHeight - 1 - int(ay/m.cfg.YSize*float64(canvasHeight))
			if px >= 0 && px < canvasWidth && py >= 0 && py < canvasHeight {
				t := topo.Atom(obj.Type, j).Type
				grid[py][px] = glyphs[t%len(glyphs)]
			}
		}
	}

	rows := make([]string, canvasHeight)
	for y := range grid {
		rows[y] = string(grid[y])
	}
	return strings.Join(rows, "\n")
}

func (m Model) drawStats() string {
	var sb strings.Builder
	sb.WriteString(headerStyle.Render("discmc · NVT"))
	sb.WriteString("\n\n")

	row := func(label, value string) {
		sb.WriteString(labelStyle.Render(label))
		sb.WriteString(valueStyle.Render(value))
		sb.WriteString("\n")
	}

	n := m.cfg.NObjects()
	row("step", fmt.Sprintf("%d", m.step))
	row("objects", fmt.Sprintf("%d", n))
	row("beta", fmt.Sprintf("%g", m.beta))
	row("area", fmt.Sprintf("%g", m.cfg.Area()))
	row("density", fmt.Sprintf("%.4f", float64(n)/m.cfg.Area()))
	row("energy", fmt.Sprintf("%.4f", m.energy))
	row("accept", fmt.Sprintf("%.1f%%", 100*m.integ.Acceptance()))
	row("dl_max", fmt.Sprintf("%.4f", m.integ.DlMax))
	row("rms", fmt.Sprintf("%.4f", m.cfg.RMS(m.initial)))

	if m.err != nil {
		sb.WriteString("\n")
		sb.WriteString(valueStyle.Render("error: " + m.err.Error()))
	}

	if len(m.history) >= 2 && !degenerate(m.history) {
		graph := asciigraph.Plot(m.history,
			asciigraph.Height(6),
			asciigraph.Width(30),
			asciigraph.Caption("energy"),
		)
		sb.WriteString(graphStyle.Render(graph))
	}

	return sb.String()
}

// degenerate reports whether the trace has no visible spread, which would
// make the plot axis labels meaningless.
func degenerate(data []float64) bool {
	min, max := data[0], data[0]
	for _, v := range data {
		min = math.Min(min, v)
		max = math.Max(max, v)
	}
	return max-min < 1e-12
}
