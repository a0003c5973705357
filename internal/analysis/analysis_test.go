package analysis

import (
	"context"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/fieldsim/internal/automation"
	"github.com/san-kum/fieldsim/internal/config"
	"github.com/san-kum/fieldsim/internal/experiment"
	"github.com/san-kum/fieldsim/internal/sim"
	"github.com/san-kum/fieldsim/internal/store"
)

func TestDominantFrequency_Sine(t *testing.T) {
	dt := 1.0 / 128
	series := make([]float64, 1024)
	for i := range series {
		series[i] = math.Sin(2 * math.Pi * float64(i) * dt)
	}
	assert.InDelta(t, 1.0, DominantFrequency(series, dt), 1e-2)
}

func TestDominantFrequency_Degenerate(t *testing.T) {
	assert.Zero(t, DominantFrequency(nil, 0.1))
	assert.Zero(t, DominantFrequency([]float64{1, 1, 1, 1, 1, 1}, 0.1))
	assert.Zero(t, DominantFrequency([]float64{1, 2, 3, 4}, 0))
}

func TestResample(t *testing.T) {
	got := Resample([]float64{0, 1, 3}, []float64{0, 10, 30}, 0.5)
	want := []float64{0, 5, 10, 15, 20, 25, 30}
	require.Len(t, got, len(want))
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-12, "index %d", i)
	}

	assert.Nil(t, Resample([]float64{0, 1}, []float64{0}, 0.5))
	assert.Equal(t, []float64{7}, Resample([]float64{2}, []float64{7}, 0.5))
}

func TestCyclotronFrequencyFromRecording(t *testing.T) {
	cfg := config.GetPreset("particle", "cyclotron")
	cfg.TrailLength = 0
	clock := sim.NewManualClock(time.Unix(0, 0))
	exp, err := experiment.NewRegistry().Build(cfg, experiment.Options{Clock: clock})
	require.NoError(t, err)

	rec := store.NewRecorder(exp.Runner, 1)
	exp.Runner.SetRunning(true)
	_, err = automation.Drive(context.Background(), exp.Runner, clock, 100*time.Second,
		automation.Pacing{FPS: 60}, func(time.Duration) { rec.Observe() })
	require.NoError(t, err)

	samples := rec.Samples()
	ts := make([]float64, len(samples))
	vx := make([]float64, len(samples))
	for i, s := range samples {
		ts[i], vx[i] = s.T, s.V[0]
	}
	const sampleDt = 0.05
	got := DominantFrequency(Resample(ts, vx, sampleDt), sampleDt)

	// qB/(2πm) with q=1, m=1, B=0.5
	want := 0.5 / (2 * math.Pi)
	assert.InEpsilon(t, want, got, 0.05)
}

func samples(xs ...[]float64) []store.Sample {
	out := make([]store.Sample, len(xs))
	for i, x := range xs {
		out[i] = store.Sample{T: float64(i), X: x, V: []float64{-x[0]}}
	}
	return out
}

func TestPhasePortrait(t *testing.T) {
	p := PhasePortrait(samples([]float64{1, 0}, []float64{2, 0}), 0, 0)
	assert.Equal(t, []Point{{X: 1, Y: -1}, {X: 2, Y: -2}}, p.Points)

	assert.Empty(t, PhasePortrait(samples([]float64{1, 0}), 0, 3).Points)
}

func TestPoincareSection(t *testing.T) {
	s := samples(
		[]float64{-1, 0},
		[]float64{1, 4},
		[]float64{2, 6},
		[]float64{-2, 0},
		[]float64{0, 2},
	)
	p := PoincareSection(s, 0, 0, 0, 1)
	require.Len(t, p.Points, 2)
	assert.InDelta(t, 2.0, p.Points[0].Y, 1e-12)
	assert.InDelta(t, 2.0, p.Points[1].Y, 1e-12)
}

func TestPortraitToASCII(t *testing.T) {
	p := &Portrait{Points: []Point{{X: -1, Y: -1}, {X: 1, Y: 1}}}
	art := p.ToASCII(21, 11)
	lines := strings.Split(strings.TrimRight(art, "\n"), "\n")
	require.Len(t, lines, 11)
	assert.Equal(t, 2, strings.Count(art, "•"))
	assert.Contains(t, art, "┼")

	assert.Empty(t, (&Portrait{}).ToASCII(10, 10))
}

func hoopSweep(t *testing.T, theta0 float64) []BifurcationPoint {
	t.Helper()
	base := config.DefaultConfig()
	base.Model = "pendulum"
	base.Pendulum.Gamma = 1
	base.Pendulum.Theta0 = theta0

	b := &Bifurcation{
		Base:      base,
		ParamName: "omega",
		Min:       1,
		Max:       5,
		Steps:     2,
		Component: 0,
		Settle:    30,
		Record:    2,
		Fold:      true,
	}
	points, err := b.Run(context.Background(), experiment.NewRegistry())
	require.NoError(t, err)
	require.Len(t, points, 2)
	for _, p := range points {
		require.NotEmpty(t, p.Values, "omega=%g", p.Param)
	}
	return points
}

func mean(vals []float64) float64 {
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

func TestBifurcation_HoopPitchfork(t *testing.T) {
	points := hoopSweep(t, 0.5)

	// Below the critical speed the bead sits at the bottom of the hoop.
	for _, v := range points[0].Values {
		assert.InDelta(t, math.Pi, v, 0.02, "omega=%g", points[0].Param)
	}

	// Above it the bead settles on one of two mirror-image branches.
	offAxis := math.Acos(-config.DefaultGOverR / 25)
	for _, v := range points[1].Values {
		assert.InDelta(t, offAxis, min(v, 2*math.Pi-v), 0.02, "omega=%g", points[1].Param)
	}

	assert.Len(t, BifurcationPortrait(points).Points, len(points[0].Values)+len(points[1].Values))
}

func TestBifurcation_BranchesMirrorAboutPi(t *testing.T) {
	up := hoopSweep(t, 0.5)
	down := hoopSweep(t, -0.5)

	for i := range up {
		assert.InDelta(t, 2*math.Pi-mean(up[i].Values), mean(down[i].Values), 0.02, "omega=%g", up[i].Param)
	}
	assert.Greater(t, math.Abs(mean(up[1].Values)-mean(down[1].Values)), 1.0)
}

func TestBifurcation_Errors(t *testing.T) {
	_, err := (&Bifurcation{Steps: 0}).Run(context.Background(), experiment.NewRegistry())
	assert.Error(t, err)

	_, err = (&Bifurcation{ParamName: "nope", Steps: 1, Settle: 0.1}).Run(context.Background(), experiment.NewRegistry())
	assert.Error(t, err)
}
