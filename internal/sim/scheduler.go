package sim

import (
	"math"
	"time"
)

// Stepper is what a Scheduler drives: one Tick per whole dt while running.
type Stepper interface {
	Running() bool
	Tick()
}

// Scheduler reconciles irregular frame timestamps with a fixed timestep.
// Elapsed time is accumulated in integer nanoseconds and drained in dt
// decrements, so a run of frames spanning k*dt always yields exactly k ticks.
type Scheduler struct {
	dt   time.Duration
	last time.Time
	acc  time.Duration
}

func NewScheduler(dt time.Duration, start time.Time) *Scheduler {
	if dt <= 0 {
		panic("sim: scheduler dt must be positive")
	}
	return &Scheduler{dt: dt, last: start}
}

// Step converts a timestep in seconds to the scheduler's resolution.
func Step(seconds float64) time.Duration {
	return time.Duration(math.Round(seconds * float64(time.Second)))
}

func (s *Scheduler) Dt() time.Duration      { return s.dt }
func (s *Scheduler) Pending() time.Duration { return s.acc }

// OnFrame accounts for the time since the previous frame and returns how
// many ticks it ran. A timestamp older than the previous one adds nothing.
// While the stepper is paused the accumulator still drains, so resuming
// never replays the paused interval.
func (s *Scheduler) OnFrame(now time.Time, st Stepper) int {
	delta := now.Sub(s.last)
	if delta < 0 {
		return 0
	}
	s.last = now
	s.acc += delta

	if !st.Running() {
		s.acc %= s.dt
		return 0
	}

	n := 0
	for s.acc >= s.dt {
		st.Tick()
		s.acc -= s.dt
		n++
	}
	return n
}

// Restart discards accumulated time and rebases on now.
func (s *Scheduler) Restart(now time.Time) {
	s.last = now
	s.acc = 0
}
