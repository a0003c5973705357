package automation

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/fieldsim/internal/config"
	"github.com/san-kum/fieldsim/internal/experiment"
	"github.com/san-kum/fieldsim/internal/logging"
	"github.com/san-kum/fieldsim/internal/sim"
	"github.com/san-kum/fieldsim/internal/store"
)

// Scenario is a scripted timeline of actions and parameter changes replayed
// against one session with irregular frames.
type Scenario struct {
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	Preset      string  `yaml:"preset"`
	Model       string  `yaml:"model"`
	Integrator  string  `yaml:"integrator"`
	Dt          float64 `yaml:"dt"`
	Duration    float64 `yaml:"duration"`
	FPS         int     `yaml:"fps"`
	Jitter      float64 `yaml:"jitter"`
	Seed        int64   `yaml:"seed"`
	Events      []Event `yaml:"events"`
}

// Event fires once, on the first frame at or after At seconds of wall time.
type Event struct {
	At     float64            `yaml:"at"`
	Action string             `yaml:"action"`
	Set    map[string]float64 `yaml:"set"`
}

const (
	ActionStart  = "start"
	ActionStop   = "stop"
	ActionToggle = "toggle"
	ActionReset  = "reset"
)

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := scenario.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &scenario, nil
}

func (s *Scenario) Validate() error {
	if s.Duration <= 0 {
		return fmt.Errorf("scenario duration must be positive, got %g", s.Duration)
	}
	for i, ev := range s.Events {
		if ev.At < 0 || ev.At > s.Duration {
			return fmt.Errorf("event %d: at=%g outside [0, %g]", i+1, ev.At, s.Duration)
		}
		switch ev.Action {
		case "", ActionStart, ActionStop, ActionToggle, ActionReset:
		default:
			return fmt.Errorf("event %d: unknown action %q", i+1, ev.Action)
		}
		if ev.Action == "" && len(ev.Set) == 0 {
			return fmt.Errorf("event %d: needs an action or parameters to set", i+1)
		}
	}
	return nil
}

// Config resolves the scenario's base configuration.
func (s *Scenario) Config() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if s.Preset != "" {
		if cfg = config.FindPreset(s.Preset); cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s", s.Preset)
		}
	}
	if s.Model != "" {
		cfg.Model = s.Model
	}
	if s.Integrator != "" {
		cfg.Integrator = s.Integrator
	}
	if s.Dt > 0 {
		cfg.Dt = s.Dt
	}
	if s.FPS > 0 {
		cfg.FPS = s.FPS
	}
	cfg.Duration = s.Duration
	cfg.Jitter = s.Jitter
	cfg.Seed = s.Seed
	return cfg, cfg.Validate()
}

type ScenarioResult struct {
	Recording *store.Recording
	Frames    int
	Fired     int
	Refused   []error
}

// RunScenario replays s on a manual clock. Refused parameter changes are
// collected rather than aborting the run.
func RunScenario(ctx context.Context, s *Scenario, registry *experiment.Registry, log *slog.Logger) (*ScenarioResult, error) {
	if log == nil {
		log = logging.Discard()
	}
	cfg, err := s.Config()
	if err != nil {
		return nil, err
	}

	clock := sim.NewManualClock(time.Unix(0, 0))
	exp, err := registry.Build(cfg, experiment.Options{Clock: clock, Logger: log})
	if err != nil {
		return nil, err
	}

	events := make([]Event, len(s.Events))
	copy(events, s.Events)
	sort.SliceStable(events, func(i, j int) bool { return events[i].At < events[j].At })

	res := &ScenarioResult{}
	rec := store.NewRecorder(exp.Runner, 1)
	next := 0
	fire := func(elapsed time.Duration) {
		for next < len(events) && sim.Step(events[next].At) <= elapsed {
			ev := events[next]
			next++
			res.Fired++
			res.Refused = append(res.Refused, apply(exp.Runner, ev, log)...)
		}
	}

	fire(0)
	pacing := Pacing{FPS: cfg.FPS, Jitter: cfg.Jitter, Rand: rand.New(rand.NewSource(cfg.Seed))}
	frames, err := Drive(ctx, exp.Runner, clock, sim.Step(s.Duration), pacing, func(elapsed time.Duration) {
		rec.Observe()
		fire(elapsed)
	})
	if err != nil {
		return nil, err
	}
	res.Frames = frames

	res.Recording = rec.Finish(integratorName(cfg), cfg.Dt, s.Duration, cfg.Seed)
	res.Recording.Metrics = exp.Metrics()
	res.Recording.Derived = exp.Derived()

	log.Info("scenario complete", "name", s.Name, "frames", frames, "events", res.Fired,
		"refused", len(res.Refused), "steps", res.Recording.Steps)
	return res, nil
}

func apply(r sim.Runner, ev Event, log *slog.Logger) []error {
	var refused []error

	names := make([]string, 0, len(ev.Set))
	for name := range ev.Set {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := r.SetParameter(name, ev.Set[name]); err != nil {
			refused = append(refused, fmt.Errorf("at %gs: %w", ev.At, err))
		}
	}

	switch ev.Action {
	case ActionStart:
		r.SetRunning(true)
	case ActionStop:
		r.SetRunning(false)
	case ActionToggle:
		r.ToggleRunning()
	case ActionReset:
		r.Reset()
	}
	log.Debug("event fired", "at", ev.At, "action", ev.Action, "set", len(ev.Set))
	return refused
}

func integratorName(cfg *config.Config) string {
	if cfg.Integrator == "" {
		return "rk4"
	}
	return cfg.Integrator
}
