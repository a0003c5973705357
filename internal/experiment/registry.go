package experiment

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/san-kum/fieldsim/internal/config"
	"github.com/san-kum/fieldsim/internal/dynamo"
	"github.com/san-kum/fieldsim/internal/integrators"
	"github.com/san-kum/fieldsim/internal/logging"
	"github.com/san-kum/fieldsim/internal/metrics"
	"github.com/san-kum/fieldsim/internal/physics"
	"github.com/san-kum/fieldsim/internal/sim"
)

// EscapeRadius bounds the box the stability metric watches. It is five
// times the half-width of the rendered axes.
const EscapeRadius = 50.0

// Views carries the renderers a host wants attached, per state shape.
type Views struct {
	Particle []sim.View[dynamo.Vec3]
	Pendulum []sim.View[dynamo.Scalar]
}

type Options struct {
	Clock  sim.Clock
	Logger *slog.Logger
	Views  Views
	// History is how many energy samples the drift metric keeps for plots.
	History int
}

type factory func(cfg *config.Config, opts Options) (*Experiment, error)

type Registry struct {
	models map[string]factory
	specs  map[string]func() []dynamo.ParamSpec
}

func NewRegistry() *Registry {
	r := &Registry{
		models: make(map[string]factory),
		specs:  make(map[string]func() []dynamo.ParamSpec),
	}

	r.models["particle"] = buildParticle
	r.models["pendulum"] = buildPendulum

	r.specs["particle"] = func() []dynamo.ParamSpec { return physics.NewChargedParticle().Specs() }
	r.specs["pendulum"] = func() []dynamo.ParamSpec { return physics.NewHoopPendulum().Specs() }

	return r
}

// Build validates cfg and assembles a ready, idle session for cfg.Model.
func (r *Registry) Build(cfg *config.Config, opts Options) (*Experiment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	fn, ok := r.models[cfg.Model]
	if !ok {
		return nil, fmt.Errorf("unknown model: %s", cfg.Model)
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if opts.Clock == nil {
		opts.Clock = sim.SystemClock{}
	}
	return fn(cfg, opts)
}

func (r *Registry) Specs(model string) ([]dynamo.ParamSpec, error) {
	fn, ok := r.specs[model]
	if !ok {
		return nil, fmt.Errorf("unknown model: %s", model)
	}
	return fn(), nil
}

func (r *Registry) ListModels() []string {
	names := make([]string, 0, len(r.models))
	for name := range r.models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func buildParticle(cfg *config.Config, opts Options) (*Experiment, error) {
	p := physics.NewChargedParticle()
	integ, err := integrators.New[dynamo.Vec3](cfg.Integrator, cfg.Dt)
	if err != nil {
		return nil, err
	}

	drift := metrics.NewEnergyDrift[dynamo.Vec3](p, opts.History)
	escape := metrics.NewStability[dynamo.Vec3](EscapeRadius)
	log := opts.Logger.With("model", "particle", "integrator", integratorName(cfg))

	ctrl, err := sim.NewController[dynamo.Vec3](p, integ, sim.ControllerOptions[dynamo.Vec3]{
		TrailLength: cfg.TrailLength,
		View:        sim.MultiView[dynamo.Vec3](opts.Views.Particle),
		Observers:   []sim.Observer[dynamo.Vec3]{drift, escape},
		Overrides:   cfg.ParticleParams(),
		Logger:      log,
	})
	if err != nil {
		return nil, fmt.Errorf("particle: %w", err)
	}

	log.Debug("session built", "dt", cfg.Dt, "trail", cfg.TrailLength)
	return &Experiment{
		Name:     "particle",
		Runner:   sim.NewSession("particle", ctrl, opts.Clock),
		Particle: p,
		Drift:    drift,
		Escape:   escape,
		metrics:  []metric{drift, escape},
	}, nil
}

func buildPendulum(cfg *config.Config, opts Options) (*Experiment, error) {
	p := physics.NewHoopPendulum()
	p.Theta0 = cfg.Pendulum.Theta0
	integ, err := integrators.New[dynamo.Scalar](cfg.Integrator, cfg.Dt)
	if err != nil {
		return nil, err
	}

	log := opts.Logger.With("model", "pendulum", "integrator", integratorName(cfg))
	ctrl, err := sim.NewController[dynamo.Scalar](p, integ, sim.ControllerOptions[dynamo.Scalar]{
		TrailLength: cfg.TrailLength,
		View:        sim.MultiView[dynamo.Scalar](opts.Views.Pendulum),
		Overrides:   cfg.PendulumParams(),
		Logger:      log,
	})
	if err != nil {
		return nil, fmt.Errorf("pendulum: %w", err)
	}

	log.Debug("session built", "dt", cfg.Dt, "theta0", p.Theta0)
	return &Experiment{
		Name:     "pendulum",
		Runner:   sim.NewSession("pendulum", ctrl, opts.Clock),
		Pendulum: p,
	}, nil
}

func integratorName(cfg *config.Config) string {
	if cfg.Integrator == "" {
		return "rk4"
	}
	return cfg.Integrator
}
