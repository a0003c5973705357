package analysis

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/fieldsim/internal/automation"
	"github.com/san-kum/fieldsim/internal/config"
	"github.com/san-kum/fieldsim/internal/experiment"
	"github.com/san-kum/fieldsim/internal/sim"
)

// BifurcationPoint holds the distinct settled values seen for one
// parameter value.
type BifurcationPoint struct {
	Param  float64
	Values []float64
}

// Bifurcation sweeps ParamName over [Min, Max], lets each run settle, then
// records position component Component. For the hoop pendulum sweeping
// omega shows the bead leaving the bottom of the hoop once omega^2 > g/R.
type Bifurcation struct {
	Base      *config.Config
	ParamName string
	Min, Max  float64
	Steps     int
	Component int
	Settle    float64
	Record    float64
	// Fold wraps recorded values into [0, 2π).
	Fold    bool
	Workers int
}

func (b *Bifurcation) Run(ctx context.Context, registry *experiment.Registry) ([]BifurcationPoint, error) {
	if b.Steps < 1 {
		return nil, fmt.Errorf("bifurcation needs at least one step, got %d", b.Steps)
	}
	if b.Base == nil {
		b.Base = config.DefaultConfig()
	}
	workers := b.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	out := make([]BifurcationPoint, b.Steps)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < b.Steps; i++ {
		v := b.Min
		if b.Steps > 1 {
			v += float64(i) * (b.Max - b.Min) / float64(b.Steps-1)
		}
		g.Go(func() error {
			vals, err := b.point(ctx, registry, v)
			if err != nil {
				return fmt.Errorf("%s=%g: %w", b.ParamName, v, err)
			}
			out[i] = BifurcationPoint{Param: v, Values: vals}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (b *Bifurcation) point(ctx context.Context, registry *experiment.Registry, v float64) ([]float64, error) {
	cfg := *b.Base
	cfg.TrailLength = 0
	clock := sim.NewManualClock(time.Unix(0, 0))
	exp, err := registry.Build(&cfg, experiment.Options{Clock: clock})
	if err != nil {
		return nil, err
	}
	if err := exp.Runner.SetParameter(b.ParamName, v); err != nil {
		return nil, err
	}

	settle := sim.Step(b.Settle)
	seen := make(map[int64]bool)
	var vals []float64
	exp.Runner.SetRunning(true)
	_, err = automation.Drive(ctx, exp.Runner, clock, settle+sim.Step(b.Record), automation.Pacing{FPS: cfg.FPS},
		func(elapsed time.Duration) {
			if elapsed <= settle {
				return
			}
			x := exp.Runner.Snapshot().Position
			if b.Component >= len(x) {
				return
			}
			val := x[b.Component]
			if b.Fold {
				val = math.Mod(val, 2*math.Pi)
				if val < 0 {
					val += 2 * math.Pi
				}
			}
			key := int64(math.Round(val * 1000))
			if !seen[key] {
				seen[key] = true
				vals = append(vals, val)
			}
		})
	if err != nil {
		return nil, err
	}
	sort.Float64s(vals)
	return vals, nil
}

// BifurcationPortrait flattens points for plotting with the parameter on
// the horizontal axis.
func BifurcationPortrait(points []BifurcationPoint) *Portrait {
	p := &Portrait{}
	for _, bp := range points {
		for _, v := range bp.Values {
			p.Points = append(p.Points, Point{X: bp.Param, Y: v})
		}
	}
	return p
}
