package viz

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/fieldsim/internal/config"
	"github.com/san-kum/fieldsim/internal/dynamo"
	"github.com/san-kum/fieldsim/internal/experiment"
	"github.com/san-kum/fieldsim/internal/logging"
	"github.com/san-kum/fieldsim/internal/sim"
)

const (
	canvasWidth  = 72
	canvasHeight = 24
	panelWidth   = 46
	chartPoints  = 240
)

// TickMsg asks the model to let the session catch up to the wall clock.
type TickMsg time.Time

type Options struct {
	FPS     int
	Theme   string
	GIFPath string
	Logger  *slog.Logger
}

// Model is the terminal host for one session. Each tick hands the current
// time to the session, which decides how many fixed steps to run.
type Model struct {
	exp    *experiment.Experiment
	runner sim.Runner
	scene  Scene

	canvas *Canvas
	camera *Camera
	wire   *Wireframe
	theme  Theme
	st     styles

	specs    []dynamo.ParamSpec
	selected int

	status     string
	refused    bool
	showHelp   bool
	blurPaused bool

	fps     int
	capture *capture
	gifPath string
	log     *slog.Logger
}

// Build assembles a session for cfg with the matching scene attached as
// its view.
func Build(reg *experiment.Registry, cfg *config.Config, base experiment.Options, opts Options) (Model, error) {
	var scene Scene
	switch cfg.Model {
	case "particle":
		ps := NewParticleScene()
		base.Views.Particle = append([]sim.View[dynamo.Vec3]{ps}, base.Views.Particle...)
		scene = ps
	case "pendulum":
		ps := NewPendulumScene()
		base.Views.Pendulum = append([]sim.View[dynamo.Scalar]{ps}, base.Views.Pendulum...)
		scene = ps
	default:
		return Model{}, fmt.Errorf("no scene for model: %s", cfg.Model)
	}
	if base.History == 0 {
		base.History = chartPoints
	}
	if opts.Logger == nil {
		opts.Logger = base.Logger
	}
	exp, err := reg.Build(cfg, base)
	if err != nil {
		return Model{}, err
	}
	if opts.FPS <= 0 {
		opts.FPS = cfg.FPS
	}
	return NewModel(exp, scene, opts), nil
}

func NewModel(exp *experiment.Experiment, scene Scene, opts Options) Model {
	if opts.FPS <= 0 {
		opts.FPS = config.DefaultFPS
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if opts.GIFPath == "" {
		opts.GIFPath = "fieldsim.gif"
	}
	theme := ThemeByName(opts.Theme)
	return Model{
		exp:     exp,
		runner:  exp.Runner,
		scene:   scene,
		canvas:  NewCanvas(canvasWidth, canvasHeight),
		camera:  NewCamera(scene.Extent()),
		wire:    &Wireframe{},
		theme:   theme,
		st:      newStyles(theme),
		specs:   exp.Runner.Specs(),
		fps:     opts.FPS,
		gifPath: opts.GIFPath,
		log:     opts.Logger,
	}
}

func (m Model) Runner() sim.Runner { return m.runner }
func (m Model) Theme() Theme       { return m.theme }
func (m Model) Status() string     { return m.status }

// Selected returns the name of the parameter the arrow keys adjust.
func (m Model) Selected() string {
	if len(m.specs) == 0 {
		return ""
	}
	return m.specs[m.selected].Name
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.fps), func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.canvas.Resize(max(msg.Width-panelWidth-6, 20), max(msg.Height-4, 8))
	case tea.BlurMsg:
		if m.runner.Running() {
			m.runner.SetRunning(false)
			m.blurPaused = true
		}
	case tea.FocusMsg:
		if m.blurPaused {
			m.runner.SetRunning(true)
			m.blurPaused = false
		}
	case TickMsg:
		n := m.runner.OnFrame(m.runner.Now())
		if m.capture != nil && n > 0 {
			m.render()
			m.capture.add(m.canvas)
		}
		return m, m.tick()
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.stopCapture()
		return m, tea.Quit
	case " ":
		m.blurPaused = false
		if m.runner.ToggleRunning() {
			m.setStatus("running", false)
		} else {
			m.setStatus("paused", false)
		}
	case "r":
		m.blurPaused = false
		m.runner.Reset()
		m.setStatus("reset", false)
	case "tab":
		if len(m.specs) > 0 {
			m.selected = (m.selected + 1) % len(m.specs)
		}
	case "shift+tab":
		if len(m.specs) > 0 {
			m.selected = (m.selected + len(m.specs) - 1) % len(m.specs)
		}
	case "up", "k":
		m.adjust(1)
	case "down", "j":
		m.adjust(-1)
	case "right", "l":
		m.adjust(10)
	case "left", "h":
		m.adjust(-10)
	case "x":
		m.camera.RotateX(0.1)
	case "X":
		m.camera.RotateX(-0.1)
	case "y":
		m.camera.RotateY(0.1)
	case "Y":
		m.camera.RotateY(-0.1)
	case "z":
		m.camera.RotateZ(0.1)
	case "Z":
		m.camera.RotateZ(-0.1)
	case "+", "=":
		m.camera.ZoomIn()
	case "-", "_":
		m.camera.ZoomOut()
	case "t":
		m.theme = m.theme.Next()
		m.st = newStyles(m.theme)
	case "g":
		if m.capture != nil {
			m.stopCapture()
		} else {
			m.capture = &capture{}
			m.setStatus("recording", false)
		}
	case "?":
		m.showHelp = !m.showHelp
	}
	return m, nil
}

// adjust moves the selected parameter by n steps of its spec, clamped to
// its bounds. The session still validates the result.
func (m *Model) adjust(n float64) {
	if len(m.specs) == 0 {
		return
	}
	spec := m.specs[m.selected]
	next := nudge(spec, m.runner.Params()[spec.Name], n)
	if err := m.runner.SetParameter(spec.Name, next); err != nil {
		m.setStatus(err.Error(), true)
		return
	}
	m.setStatus(fmt.Sprintf("%s = %.2f", spec.Name, next), false)
}

func nudge(spec dynamo.ParamSpec, cur, n float64) float64 {
	next := cur + n*spec.Step
	if spec.Step > 0 {
		next = math.Round(next/spec.Step) * spec.Step
	}
	return math.Max(spec.Min, math.Min(spec.Max, next))
}

func (m *Model) setStatus(s string, refused bool) {
	m.status, m.refused = s, refused
}

func (m *Model) stopCapture() {
	if m.capture == nil {
		return
	}
	c := m.capture
	m.capture = nil
	if err := c.save(m.gifPath); err != nil {
		m.log.Warn("gif capture failed", "path", m.gifPath, "err", err)
		m.setStatus("capture: "+err.Error(), true)
		return
	}
	m.log.Info("gif captured", "path", m.gifPath, "frames", c.len())
	m.setStatus(fmt.Sprintf("saved %d frames to %s", c.len(), m.gifPath), false)
}

func (m *Model) render() {
	m.canvas.Clear()
	m.wire.Reset()
	m.scene.Build(m.wire)
	Render(m.canvas, m.wire, m.camera)
}

func (m Model) View() string {
	m.render()
	left := m.st.panel.Render(m.st.title.Render(m.scene.Title()) + "\n" + m.canvas.String())
	main := lipgloss.JoinHorizontal(lipgloss.Top, left, m.panel())
	if m.showHelp {
		return m.st.panel.Render(helpText) + "\n" + main
	}
	return main
}

func (m Model) panel() string {
	var b strings.Builder
	snap := m.runner.Snapshot()

	state := m.st.paused.Render("PAUSED")
	if snap.Running {
		state = m.st.running.Render("RUNNING")
	}
	if m.capture != nil {
		state += " " + m.st.refused.Render("REC")
	}
	b.WriteString(m.st.title.Render(strings.ToUpper(m.runner.Name())) + "  " + state + "\n\n")

	m.row(&b, "time", fmt.Sprintf("%.2fs", snap.Time))
	m.row(&b, "steps", fmt.Sprintf("%d", snap.Steps))
	m.row(&b, "x", formatVec(snap.Position))
	m.row(&b, "v", formatVec(snap.Velocity))
	if snap.Energy != nil {
		m.row(&b, "energy", fmt.Sprintf("%.4f", *snap.Energy))
	}
	for _, kv := range sortedPairs(m.exp.Derived()) {
		m.row(&b, kv.name, fmt.Sprintf("%.3f", kv.value))
	}
	for _, kv := range sortedPairs(m.exp.Metrics()) {
		m.row(&b, kv.name, fmt.Sprintf("%.2e", kv.value))
	}

	if m.exp.Drift != nil {
		if hist := m.exp.Drift.History(); len(hist) > 1 {
			b.WriteString("\n" + asciigraph.Plot(hist,
				asciigraph.Height(4),
				asciigraph.Width(panelWidth-12),
				asciigraph.Caption("energy")) + "\n")
		}
	}

	b.WriteString("\n")
	params := snap.Params
	for i, spec := range m.specs {
		v := params[spec.Name]
		line := fmt.Sprintf("%-8s %s %7.2f", spec.Name, m.st.bar(v, spec.Min, spec.Max, 12), v)
		if i == m.selected {
			b.WriteString(m.st.selected.Render("> ") + line + "\n")
		} else {
			b.WriteString("  " + line + "\n")
		}
	}

	if m.status != "" {
		style := m.st.label
		if m.refused {
			style = m.st.refused
		}
		b.WriteString("\n" + style.Render(m.status) + "\n")
	}
	b.WriteString("\n" + m.st.hint.Render("space run  r reset  tab param  ↑↓ tune  ? help  q quit"))
	return m.st.panel.Width(panelWidth).Render(b.String())
}

func (m Model) row(b *strings.Builder, label, value string) {
	b.WriteString(m.st.label.Render(fmt.Sprintf("%-17s", label)) + m.st.value.Render(value) + "\n")
}

const helpText = `space      run / pause
r          reset to initial conditions
tab        next parameter (shift+tab back)
up/down    adjust by one step
left/right adjust by ten steps
x y z      rotate view (shift reverses)
+ -        zoom
t          cycle theme
g          start/stop gif capture
q          quit`

type pair struct {
	name  string
	value float64
}

func sortedPairs(m map[string]float64) []pair {
	out := make([]pair, 0, len(m))
	for k, v := range m {
		out = append(out, pair{k, v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

func formatVec(c []float64) string {
	parts := make([]string, len(c))
	for i, v := range c {
		parts[i] = fmt.Sprintf("%.2f", v)
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
