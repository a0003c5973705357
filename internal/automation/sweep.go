package automation

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/fieldsim/internal/config"
	"github.com/san-kum/fieldsim/internal/dynamo"
	"github.com/san-kum/fieldsim/internal/experiment"
	"github.com/san-kum/fieldsim/internal/logging"
	"github.com/san-kum/fieldsim/internal/sim"
)

// ParameterSweep runs one independent session per value of ParamName,
// evenly spaced over [ParamMin, ParamMax].
type ParameterSweep struct {
	Base      *config.Config
	ParamName string
	ParamMin  float64
	ParamMax  float64
	NumSteps  int
	Duration  float64
	Workers   int
}

// SweepResult compares the orbit a run produced against the gyroradius
// predicted from its parameters.
type SweepResult struct {
	ParamValue  float64
	Steps       uint64
	Theoretical float64
	Measured    float64
	EnergyDrift float64
	Stable      bool
}

func (s *ParameterSweep) values() []float64 {
	if s.NumSteps == 1 {
		return []float64{s.ParamMin}
	}
	step := (s.ParamMax - s.ParamMin) / float64(s.NumSteps-1)
	vals := make([]float64, s.NumSteps)
	for i := range vals {
		vals[i] = s.ParamMin + float64(i)*step
	}
	return vals
}

// RunSweep executes the sweep in parallel. Results are ordered by value.
func RunSweep(ctx context.Context, sweep *ParameterSweep, registry *experiment.Registry, log *slog.Logger) ([]SweepResult, error) {
	if sweep.NumSteps < 1 {
		return nil, fmt.Errorf("sweep needs at least one step, got %d", sweep.NumSteps)
	}
	if sweep.Base == nil {
		sweep.Base = config.DefaultConfig()
	}
	if sweep.Base.Model != "particle" {
		return nil, fmt.Errorf("sweep measures gyroradius and needs the particle model, got %s", sweep.Base.Model)
	}
	if log == nil {
		log = logging.Discard()
	}

	vals := sweep.values()
	results := make([]SweepResult, len(vals))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers(sweep.Workers))
	for i, v := range vals {
		g.Go(func() error {
			res, err := runPoint(ctx, sweep, registry, v, log)
			if err != nil {
				return fmt.Errorf("%s=%g: %w", sweep.ParamName, v, err)
			}
			results[i] = res
			log.Info("sweep point done", "param", sweep.ParamName, "value", v,
				"measured", res.Measured, "theoretical", res.Theoretical)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func runPoint(ctx context.Context, sweep *ParameterSweep, registry *experiment.Registry, value float64, log *slog.Logger) (SweepResult, error) {
	cfg := *sweep.Base
	cfg.TrailLength = 0
	clock := sim.NewManualClock(time.Unix(0, 0))

	exp, err := registry.Build(&cfg, experiment.Options{Clock: clock, Logger: log})
	if err != nil {
		return SweepResult{}, err
	}
	if err := exp.Runner.SetParameter(sweep.ParamName, value); err != nil {
		return SweepResult{}, err
	}

	res := SweepResult{ParamValue: value, Theoretical: math.Inf(1)}
	if r, ok := exp.Derived()["gyroradius"]; ok {
		res.Theoretical = r
	}

	orbit := newOrbitExtent(exp.Particle.B)
	orbit.add(exp.Particle.Position())
	exp.Runner.SetRunning(true)
	_, err = Drive(ctx, exp.Runner, clock, sim.Step(sweep.Duration), Pacing{FPS: cfg.FPS}, func(time.Duration) {
		orbit.add(exp.Particle.Position())
	})
	if err != nil {
		return SweepResult{}, err
	}

	snap := exp.Runner.Snapshot()
	m := exp.Metrics()
	res.Steps = snap.Steps
	res.Measured = orbit.radius()
	res.EnergyDrift = m["energy_drift"]
	res.Stable = m["stability"] == 1
	return res, nil
}

// orbitExtent estimates a gyroradius from the spread of positions in the
// plane perpendicular to B.
type orbitExtent struct {
	u, w                   dynamo.Vec3
	minU, maxU, minW, maxW float64
	n                      int
}

func newOrbitExtent(b dynamo.Vec3) *orbitExtent {
	n := dynamo.Vec3{Z: 1}
	if bn := b.Norm(); bn > 0 {
		n = b.Scale(1 / bn)
	}
	ref := dynamo.Vec3{X: 1}
	if math.Abs(n.X) > 0.9 {
		ref = dynamo.Vec3{Y: 1}
	}
	u := ref.Sub(n.Scale(ref.Dot(n)))
	u = u.Scale(1 / u.Norm())
	return &orbitExtent{u: u, w: n.Cross(u)}
}

func (o *orbitExtent) add(p dynamo.Vec3) {
	pu, pw := p.Dot(o.u), p.Dot(o.w)
	if o.n == 0 {
		o.minU, o.maxU, o.minW, o.maxW = pu, pu, pw, pw
	}
	o.minU = min(o.minU, pu)
	o.maxU = max(o.maxU, pu)
	o.minW = min(o.minW, pw)
	o.maxW = max(o.maxW, pw)
	o.n++
}

func (o *orbitExtent) radius() float64 {
	return ((o.maxU - o.minU) + (o.maxW - o.minW)) / 4
}

func workers(n int) int {
	if n > 0 {
		return n
	}
	return runtime.NumCPU()
}

// MonteCarloConfig perturbs the initial velocity of the base configuration
// and checks whether each trial stays inside the stability box.
type MonteCarloConfig struct {
	Base         *config.Config
	Perturbation float64
	NumTrials    int
	Duration     float64
	Seed         int64
	Workers      int
}

type MonteCarloResult struct {
	TrialID   int
	Velocity  dynamo.Vec3
	Final     dynamo.Vec3
	FirstExit float64
	Stable    bool
}

// RunMonteCarlo seeds trial i with Seed+i, so results do not depend on
// scheduling across workers.
func RunMonteCarlo(ctx context.Context, mc *MonteCarloConfig, registry *experiment.Registry, log *slog.Logger) ([]MonteCarloResult, error) {
	if mc.Base == nil {
		mc.Base = config.DefaultConfig()
	}
	if mc.Base.Model != "particle" {
		return nil, fmt.Errorf("monte carlo perturbs particle velocity, got model %s", mc.Base.Model)
	}
	if log == nil {
		log = logging.Discard()
	}

	results := make([]MonteCarloResult, mc.NumTrials)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers(mc.Workers))
	for trial := 0; trial < mc.NumTrials; trial++ {
		g.Go(func() error {
			res, err := runTrial(ctx, mc, registry, trial)
			if err != nil {
				return fmt.Errorf("trial %d: %w", trial, err)
			}
			results[trial] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stable, unstable := MonteCarloStats(results)
	log.Info("monte carlo complete", "trials", mc.NumTrials, "stable", stable, "unstable", unstable)
	return results, nil
}

func runTrial(ctx context.Context, mc *MonteCarloConfig, registry *experiment.Registry, trial int) (MonteCarloResult, error) {
	rng := rand.New(rand.NewSource(mc.Seed + int64(trial)))
	cfg := *mc.Base
	cfg.TrailLength = 0
	clock := sim.NewManualClock(time.Unix(0, 0))

	exp, err := registry.Build(&cfg, experiment.Options{Clock: clock})
	if err != nil {
		return MonteCarloResult{}, err
	}

	v := cfg.Particle.V
	specs := exp.Runner.Specs()
	perturbed := dynamo.Vec3{
		X: clampTo(specs, "vx", v.X+(rng.Float64()-0.5)*2*mc.Perturbation),
		Y: clampTo(specs, "vy", v.Y+(rng.Float64()-0.5)*2*mc.Perturbation),
		Z: clampTo(specs, "vz", v.Z+(rng.Float64()-0.5)*2*mc.Perturbation),
	}
	for name, val := range map[string]float64{"vx": perturbed.X, "vy": perturbed.Y, "vz": perturbed.Z} {
		if err := exp.Runner.SetParameter(name, val); err != nil {
			return MonteCarloResult{}, err
		}
	}

	exp.Runner.SetRunning(true)
	if _, err := Drive(ctx, exp.Runner, clock, sim.Step(mc.Duration), Pacing{FPS: cfg.FPS}, nil); err != nil {
		return MonteCarloResult{}, err
	}

	return MonteCarloResult{
		TrialID:   trial,
		Velocity:  perturbed,
		Final:     exp.Particle.Position(),
		FirstExit: exp.Escape.FirstExit(),
		Stable:    exp.Metrics()["stability"] == 1,
	}, nil
}

func clampTo(specs []dynamo.ParamSpec, name string, v float64) float64 {
	for _, s := range specs {
		if s.Name == name {
			return math.Min(math.Max(v, s.Min), s.Max)
		}
	}
	return v
}

func MonteCarloStats(results []MonteCarloResult) (stableCount int, unstableCount int) {
	for _, r := range results {
		if r.Stable {
			stableCount++
		} else {
			unstableCount++
		}
	}
	return
}
