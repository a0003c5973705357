package automation

import (
	"context"
	"math/rand"
	"time"

	"github.com/san-kum/fieldsim/internal/sim"
)

// Pacing describes the synthetic frame cadence of a headless run.
type Pacing struct {
	FPS int
	// Jitter in [0,1) varies each frame interval by up to that fraction.
	Jitter float64
	Rand   *rand.Rand
}

func (p Pacing) interval() time.Duration {
	fps := p.FPS
	if fps <= 0 {
		fps = 60
	}
	base := time.Second / time.Duration(fps)
	if p.Jitter <= 0 || p.Rand == nil {
		return base
	}
	f := 1 + p.Jitter*(2*p.Rand.Float64()-1)
	d := time.Duration(float64(base) * f)
	if d <= 0 {
		d = 1
	}
	return d
}

// Drive plays frames against r until duration of clock time has passed.
// The final frame is shortened so the frames sum to duration exactly, which
// makes the step count floor(duration/dt) for a session left running.
// each, if set, runs after every frame with the elapsed clock time.
func Drive(ctx context.Context, r sim.Runner, clock *sim.ManualClock, duration time.Duration, p Pacing, each func(elapsed time.Duration)) (int, error) {
	var elapsed time.Duration
	frames := 0
	for elapsed < duration {
		select {
		case <-ctx.Done():
			return frames, ctx.Err()
		default:
		}

		d := min(p.interval(), duration-elapsed)
		elapsed += d
		r.OnFrame(clock.Advance(d))
		frames++
		if each != nil {
			each(elapsed)
		}
	}
	return frames, nil
}
