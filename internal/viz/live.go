package viz

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/guptarohit/asciigraph"

	"spheretree/internal/config"
	"spheretree/internal/physics"
	"spheretree/internal/scene"
)

const (
	canvasWidth     = 60
	canvasHeight    = 22
	historyCapacity = 600
)

var (
	canvasStyle = lipgloss.NewStyle().Padding(1, 2)
	statsStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(1, 2).Width(42)
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(2)
)

type TickMsg time.Time

// Model is the live terminal view: a self-contained scene stepped
// inline at the configured tick rate.
type Model struct {
	cfg      *config.Config
	reg      *scene.Registry
	count    int
	seed     int64
	canvas   *Canvas
	running  bool
	frame    int
	zoom     float64 // sub-pixels per world unit
	pan      mgl64.Vec2
	kinetic  []float64
	showHelp bool
}

// NewModel seeds count demo spheres into a tree and gives each a
// reproducible random shove.
func NewModel(cfg *config.Config, count int, seed int64) Model {
	m := Model{
		cfg:     cfg,
		count:   count,
		seed:    seed,
		canvas:  NewCanvas(canvasWidth, canvasHeight),
		running: true,
		zoom:    4,
		kinetic: make([]float64, 0, historyCapacity),
	}
	m.reg = scene.DemoRegistry(cfg.SceneLayout(), count, seed)
	return m
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

func (m Model) tick() tea.Cmd {
	tps := m.cfg.TPS
	if tps <= 0 {
		tps = config.DefaultTPS
	}
	return tea.Tick(time.Second/time.Duration(tps), func(t time.Time) tea.Msg { return TickMsg(t) })
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
			m.reg = scene.DemoRegistry(m.cfg.SceneLayout(), m.count, m.seed)
			m.frame = 0
			m.kinetic = m.kinetic[:0]
		case "+", "=":
			m.zoom = math.Min(16, m.zoom*1.25)
		case "-", "_":
			m.zoom = math.Max(1, m.zoom/1.25)
		case "up":
			m.pan[1] += 2
		case "down":
			m.pan[1] -= 2
		case "left":
			m.pan[0] -= 2
		case "right":
			m.pan[0] += 2
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running {
			physics.Step(m.reg.All(), m.cfg.Physics)
			m.frame++
			m.kinetic = append(m.kinetic, physics.KineticEnergy(m.reg.All()))
			if len(m.kinetic) > historyCapacity {
				m.kinetic = m.kinetic[1:]
			}
		}
		return m, m.tick()
	}
	return m, nil
}

// project maps a world position to canvas sub-pixels.
func (m *Model) project(p mgl64.Vec3) (int, int) {
	cx := canvasWidth * 2 / 2
	cy := canvasHeight * 4 / 2
	x := cx + int(math.Round((p.X()-m.pan.X())*m.zoom))
	y := cy - int(math.Round((p.Y()-m.pan.Y())*m.zoom))
	return x, y
}

func (m *Model) draw() {
	m.canvas.Clear()

	// Boundary box on the sphere plane.
	b := m.cfg.Physics.Bounds
	x0, y0 := m.project(mgl64.Vec3{b.Min.X(), b.Max.Y(), 0})
	x1, y1 := m.project(mgl64.Vec3{b.Max.X(), b.Min.Y(), 0})
	m.canvas.DrawLine(x0, y0, x1, y0)
	m.canvas.DrawLine(x0, y1, x1, y1)
	m.canvas.DrawLine(x0, y0, x0, y1)
	m.canvas.DrawLine(x1, y0, x1, y1)

	r := int(math.Round(m.cfg.Physics.Radius * m.zoom))
	for _, s := range m.reg.All() {
		x, y := m.project(s.Position)
		if s.Failed {
			m.canvas.DrawCircle(x, y, r)
		} else {
			m.canvas.FillCircle(x, y, r)
		}
	}
}

func (m Model) View() string {
	m.draw()
	canvasView := canvasStyle.Render(m.canvas.String())

	var s strings.Builder
	s.WriteString(headerStyle.Render("SPHERE TREE") + "\n")
	status := "RUNNING"
	if !m.running {
		status = "PAUSED"
	}
	s.WriteString(status + "\n\n")

	if len(m.kinetic) > 1 {
		chart := asciigraph.Plot(m.kinetic, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Kinetic energy"))
		s.WriteString(graphStyle.Render(chart) + "\n\n")
	}

	kinetic := 0.0
	if len(m.kinetic) > 0 {
		kinetic = m.kinetic[len(m.kinetic)-1]
	}
	s.WriteString(labelStyle.Render("Frame") + valueStyle.Render(fmt.Sprintf("%d", m.frame)) + "\n")
	s.WriteString(labelStyle.Render("Spheres") + valueStyle.Render(fmt.Sprintf("%d", m.reg.Len())) + "\n")
	s.WriteString(labelStyle.Render("Kinetic") + valueStyle.Render(fmt.Sprintf("%.4f", kinetic)) + "\n")
	settled := "no"
	if physics.Settled(m.reg.All(), 1e-4) {
		settled = "yes"
	}
	s.WriteString(labelStyle.Render("Settled") + valueStyle.Render(settled) + "\n")
	s.WriteString(labelStyle.Render("Zoom") + valueStyle.Render(fmt.Sprintf("%.1fx", m.zoom)) + "\n")

	s.WriteString(helpStyle.Render("\n─────────────────────\nSP:Pause R:Reset Q:Quit\n+/-:Zoom Arrows:Pan ?:Help"))

	statsView := statsStyle.Render(s.String())
	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsView)

	if m.showHelp {
		return `
╔══════════════════════════════════════╗
║          KEYBOARD SHORTCUTS          ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume simulation  ║
║  R        - Reset to initial layout  ║
║  Q        - Quit                     ║
║  +/-      - Zoom in/out              ║
║  Arrows   - Pan the view             ║
║  ?        - Toggle this help         ║
╚══════════════════════════════════════╝
` + "\n\n" + mainView
	}
	return mainView
}
