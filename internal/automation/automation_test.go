package automation

import (
	"context"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/fieldsim/internal/config"
	"github.com/san-kum/fieldsim/internal/dynamo"
	"github.com/san-kum/fieldsim/internal/experiment"
	"github.com/san-kum/fieldsim/internal/sim"
)

func TestDrive_StepCountIndependentOfJitter(t *testing.T) {
	for _, jitter := range []float64{0, 0.3, 0.9} {
		clock := sim.NewManualClock(time.Unix(0, 0))
		exp, err := experiment.NewRegistry().Build(config.DefaultConfig(), experiment.Options{Clock: clock})
		require.NoError(t, err)
		exp.Runner.SetRunning(true)

		pacing := Pacing{FPS: 60, Jitter: jitter, Rand: rand.New(rand.NewSource(1))}
		frames, err := Drive(context.Background(), exp.Runner, clock, 1500*time.Millisecond, pacing, nil)
		require.NoError(t, err)

		assert.Greater(t, frames, 0)
		assert.Equal(t, uint64(150), exp.Runner.Snapshot().Steps, "jitter=%v", jitter)
		assert.Equal(t, time.Unix(0, 0).Add(1500*time.Millisecond), clock.Now())
	}
}

func TestDrive_Cancelled(t *testing.T) {
	clock := sim.NewManualClock(time.Unix(0, 0))
	exp, err := experiment.NewRegistry().Build(config.DefaultConfig(), experiment.Options{Clock: clock})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	frames, err := Drive(ctx, exp.Runner, clock, time.Second, Pacing{}, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, frames)
}

const scenarioYAML = `
name: refuse-mass
preset: cyclotron
duration: 3
fps: 50
jitter: 0.4
seed: 3
events:
  - at: 2
    action: stop
  - at: 0
    action: start
  - at: 1
    set: {m: 0}
  - at: 1.5
    set: {Bz: 1}
`

func writeScenario(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadScenario(t *testing.T) {
	s, err := LoadScenario(writeScenario(t, scenarioYAML))
	require.NoError(t, err)

	assert.Equal(t, "refuse-mass", s.Name)
	assert.Len(t, s.Events, 4)
	assert.Equal(t, map[string]float64{"m": 0}, s.Events[2].Set)

	cfg, err := s.Config()
	require.NoError(t, err)
	assert.Equal(t, 0.5, cfg.Particle.B.Z)
	assert.Equal(t, 50, cfg.FPS)
}

func TestScenario_Validate(t *testing.T) {
	tests := []struct {
		name string
		s    Scenario
	}{
		{"no duration", Scenario{}},
		{"event after end", Scenario{Duration: 1, Events: []Event{{At: 2, Action: ActionStart}}}},
		{"unknown action", Scenario{Duration: 1, Events: []Event{{Action: "jump"}}}},
		{"empty event", Scenario{Duration: 1, Events: []Event{{At: 0.5}}}},
	}
	for _, tt := range tests {
		assert.Error(t, tt.s.Validate(), tt.name)
	}
}

func TestScenario_UnknownPreset(t *testing.T) {
	s := &Scenario{Preset: "warp", Duration: 1}
	_, err := s.Config()
	assert.Error(t, err)
}

func TestRunScenario(t *testing.T) {
	s, err := LoadScenario(writeScenario(t, scenarioYAML))
	require.NoError(t, err)

	res, err := RunScenario(context.Background(), s, experiment.NewRegistry(), nil)
	require.NoError(t, err)

	assert.Equal(t, 4, res.Fired)
	require.Len(t, res.Refused, 1)
	assert.ErrorIs(t, res.Refused[0], dynamo.ErrZeroDivisor)

	rec := res.Recording
	assert.GreaterOrEqual(t, rec.Steps, uint64(200))
	assert.LessOrEqual(t, rec.Steps, uint64(203))
	assert.Equal(t, 1.0, rec.Params["Bz"])
	assert.Equal(t, 1.0, rec.Params["m"], "refused mass keeps the preset value")
	assert.Contains(t, rec.Derived, "gyroradius")
}

func TestRunScenario_Reset(t *testing.T) {
	s := &Scenario{
		Duration: 1,
		Events: []Event{
			{At: 0, Action: ActionStart, Set: map[string]float64{"vx": 1}},
			{At: 0.5, Action: ActionReset},
		},
	}

	res, err := RunScenario(context.Background(), s, experiment.NewRegistry(), nil)
	require.NoError(t, err)

	snapSteps := res.Recording.Steps
	assert.Zero(t, snapSteps)
	last := res.Recording.Samples[len(res.Recording.Samples)-1]
	assert.Equal(t, []float64{-10, 0, 0}, last.X)
}

func TestRunSweep(t *testing.T) {
	sweep := &ParameterSweep{
		Base:      config.GetPreset("particle", "cyclotron"),
		ParamName: "Bz",
		ParamMin:  0.5,
		ParamMax:  1.0,
		NumSteps:  3,
		Duration:  13,
		Workers:   2,
	}

	results, err := RunSweep(context.Background(), sweep, experiment.NewRegistry(), nil)
	require.NoError(t, err)
	require.Len(t, results, 3)

	for i, want := range []float64{0.5, 0.75, 1.0} {
		r := results[i]
		assert.InDelta(t, want, r.ParamValue, 1e-12)
		assert.InDelta(t, 2/want, r.Theoretical, 1e-9)
		assert.InEpsilon(t, r.Theoretical, r.Measured, 0.01)
		assert.Equal(t, uint64(1300), r.Steps)
		assert.Less(t, r.EnergyDrift, 1e-6)
		assert.True(t, r.Stable)
	}
}

func TestRunSweep_Errors(t *testing.T) {
	reg := experiment.NewRegistry()

	_, err := RunSweep(context.Background(), &ParameterSweep{NumSteps: 0}, reg, nil)
	assert.Error(t, err)

	_, err = RunSweep(context.Background(), &ParameterSweep{
		Base: config.GetPreset("pendulum", "hoop-spin"), ParamName: "omega", NumSteps: 2, Duration: 1,
	}, reg, nil)
	assert.Error(t, err)

	_, err = RunSweep(context.Background(), &ParameterSweep{
		Base: config.DefaultConfig(), ParamName: "m", ParamMin: 0, ParamMax: 1, NumSteps: 2, Duration: 1,
	}, reg, nil)
	assert.ErrorIs(t, err, dynamo.ErrZeroDivisor)
}

func TestRunMonteCarlo_Deterministic(t *testing.T) {
	mc := &MonteCarloConfig{
		Perturbation: 3,
		NumTrials:    6,
		Duration:     2,
		Seed:         42,
		Workers:      3,
	}

	a, err := RunMonteCarlo(context.Background(), mc, experiment.NewRegistry(), nil)
	require.NoError(t, err)
	b, err := RunMonteCarlo(context.Background(), mc, experiment.NewRegistry(), nil)
	require.NoError(t, err)

	require.Len(t, a, 6)
	for i := range a {
		assert.Equal(t, i, a[i].TrialID)
		assert.Equal(t, a[i].Velocity, b[i].Velocity)
		assert.Equal(t, a[i].Final, b[i].Final)
		assert.True(t, a[i].Stable)
		assert.GreaterOrEqual(t, a[i].Velocity.X, 0.0)
	}

	stable, unstable := MonteCarloStats(a)
	assert.Equal(t, 6, stable)
	assert.Zero(t, unstable)
}
