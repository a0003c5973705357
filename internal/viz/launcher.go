package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/fieldsim/internal/config"
	"github.com/san-kum/fieldsim/internal/experiment"
)

var presetInfo = map[string]string{
	"default":     "reference initial conditions",
	"cyclotron":   "circular orbit in a uniform B",
	"exb-drift":   "crossed fields, guiding centre drifts",
	"helix":       "velocity along B makes a helix",
	"accelerate":  "pure electric field",
	"hoop-stable": "slow hoop, bead settles at the bottom",
	"hoop-spin":   "fast hoop, off-axis equilibrium",
}

type entry struct {
	model, preset string
}

// Launcher is a preset picker that opens a live session for the chosen
// entry. Esc inside a session returns to the picker.
type Launcher struct {
	reg     *experiment.Registry
	base    *config.Config
	expOpts experiment.Options
	uiOpts  Options

	entries []entry
	cursor  int
	live    *Model
	err     error
	w, h    int
}

// NewLauncher lists the default and every preset of each model. Fields of
// base that are not model parameters (integrator, dt, fps, trail) carry
// over to whichever entry is launched.
func NewLauncher(reg *experiment.Registry, base *config.Config, expOpts experiment.Options, uiOpts Options) *Launcher {
	l := &Launcher{reg: reg, base: base, expOpts: expOpts, uiOpts: uiOpts}
	for _, model := range reg.ListModels() {
		l.entries = append(l.entries, entry{model, "default"})
		for _, p := range config.ListPresets(model) {
			l.entries = append(l.entries, entry{model, p})
		}
	}
	return l
}

func (l *Launcher) Init() tea.Cmd { return nil }

func (l *Launcher) config(e entry) *config.Config {
	var cfg *config.Config
	if e.preset == "default" {
		cfg = config.DefaultConfig()
		cfg.Model = e.model
	} else {
		cfg = config.GetPreset(e.model, e.preset)
	}
	if l.base != nil {
		cfg.Integrator = l.base.Integrator
		cfg.Dt = l.base.Dt
		cfg.FPS = l.base.FPS
		if e.model == "particle" {
			cfg.TrailLength = l.base.TrailLength
		}
	}
	return cfg
}

func (l *Launcher) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if ws, ok := msg.(tea.WindowSizeMsg); ok {
		l.w, l.h = ws.Width, ws.Height
	}
	if l.live != nil {
		if k, ok := msg.(tea.KeyMsg); ok && k.String() == "esc" {
			l.live.stopCapture()
			l.live = nil
			return l, nil
		}
		next, cmd := l.live.Update(msg)
		live := next.(Model)
		l.live = &live
		return l, cmd
	}

	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return l, nil
	}
	switch k.String() {
	case "q", "ctrl+c", "esc":
		return l, tea.Quit
	case "up", "k":
		if l.cursor > 0 {
			l.cursor--
		}
	case "down", "j":
		if l.cursor < len(l.entries)-1 {
			l.cursor++
		}
	case "enter", " ":
		return l, l.launch()
	}
	return l, nil
}

func (l *Launcher) launch() tea.Cmd {
	e := l.entries[l.cursor]
	live, err := Build(l.reg, l.config(e), l.expOpts, l.uiOpts)
	if err != nil {
		l.err = err
		return nil
	}
	l.err = nil
	if l.w > 0 {
		next, _ := live.Update(tea.WindowSizeMsg{Width: l.w, Height: l.h})
		live = next.(Model)
	}
	live.runner.SetRunning(true)
	l.live = &live
	return live.Init()
}

func (l *Launcher) View() string {
	if l.live != nil {
		return l.live.View()
	}
	st := newStyles(ThemeByName(l.uiOpts.Theme))
	var b strings.Builder
	b.WriteString(st.title.Render("fieldsim") + "  " + st.label.Render("pick a scenario") + "\n\n")
	last := ""
	for i, e := range l.entries {
		if e.model != last {
			b.WriteString(st.value.Render(strings.ToUpper(e.model)) + "\n")
			last = e.model
		}
		line := fmt.Sprintf("%-12s %s", e.preset, st.label.Render(presetInfo[e.preset]))
		if i == l.cursor {
			b.WriteString(st.selected.Render("> ") + line + "\n")
		} else {
			b.WriteString("  " + line + "\n")
		}
	}
	if l.err != nil {
		b.WriteString("\n" + st.refused.Render(l.err.Error()) + "\n")
	}
	b.WriteString("\n" + st.hint.Render("↑↓ select  enter launch  esc back  q quit"))
	return st.panel.Render(b.String())
}

// Run starts a full-screen program with focus reporting on, so the
// session pauses while the terminal is in the background.
func Run(m tea.Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithReportFocus()).Run()
	return err
}
