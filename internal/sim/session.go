package sim

import (
	"time"

	"github.com/san-kum/fieldsim/internal/dynamo"
)

// Runner is the shape-independent handle hosts use to drive a session:
// the terminal UI, the websocket server and headless runs all hold one.
// A Runner is not safe for concurrent use; hosts call it from one goroutine.
type Runner interface {
	Name() string
	Now() time.Time
	OnFrame(now time.Time) int
	ToggleRunning() bool
	SetRunning(bool)
	Running() bool
	Reset()
	SetParameter(name string, value float64) error
	Params() map[string]float64
	Specs() []dynamo.ParamSpec
	Snapshot() Snapshot
	TrailComponents() [][]float64
}

// Snapshot is a flat, serialisable copy of a session's current state.
type Snapshot struct {
	Model    string             `json:"model"`
	Time     float64            `json:"t"`
	Steps    uint64             `json:"steps"`
	Running  bool               `json:"running"`
	Position []float64          `json:"x"`
	Velocity []float64          `json:"v"`
	Energy   *float64           `json:"energy,omitempty"`
	Params   map[string]float64 `json:"params"`
}

// Session pairs a controller with the scheduler and clock that pace it.
type Session[T dynamo.Vector[T]] struct {
	name  string
	ctrl  *Controller[T]
	sched *Scheduler
	clock Clock
}

func NewSession[T dynamo.Vector[T]](name string, ctrl *Controller[T], clock Clock) *Session[T] {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Session[T]{
		name:  name,
		ctrl:  ctrl,
		sched: NewScheduler(Step(ctrl.Dt()), clock.Now()),
		clock: clock,
	}
}

func (s *Session[T]) Name() string               { return s.name }
func (s *Session[T]) Now() time.Time             { return s.clock.Now() }
func (s *Session[T]) Controller() *Controller[T] { return s.ctrl }
func (s *Session[T]) Scheduler() *Scheduler      { return s.sched }

// OnFrame drains whole timesteps from the elapsed time and, if any ran,
// redraws the view once with the latest state.
func (s *Session[T]) OnFrame(now time.Time) int {
	n := s.sched.OnFrame(now, s.ctrl)
	if n > 0 {
		s.ctrl.Render()
	}
	return n
}

func (s *Session[T]) ToggleRunning() bool {
	running := s.ctrl.ToggleRunning()
	s.ctrl.Render()
	return running
}

func (s *Session[T]) SetRunning(on bool) {
	if on == s.ctrl.Running() {
		return
	}
	s.ToggleRunning()
}

func (s *Session[T]) Running() bool { return s.ctrl.Running() }

// Reset also drops any sub-step time still pending in the scheduler.
func (s *Session[T]) Reset() {
	s.ctrl.Reset()
	s.sched.Restart(s.clock.Now())
}

func (s *Session[T]) SetParameter(name string, value float64) error {
	return s.ctrl.SetParameter(name, value)
}

func (s *Session[T]) Params() map[string]float64 { return s.ctrl.Params() }
func (s *Session[T]) Specs() []dynamo.ParamSpec  { return s.ctrl.Specs() }

func (s *Session[T]) Snapshot() Snapshot {
	st := s.ctrl.Model().State()
	snap := Snapshot{
		Model:    s.name,
		Time:     s.ctrl.SimTime(),
		Steps:    s.ctrl.Steps(),
		Running:  s.ctrl.Running(),
		Position: st.X.Components(),
		Velocity: st.V.Components(),
		Params:   s.ctrl.Params(),
	}
	if h, ok := s.ctrl.Model().(dynamo.Hamiltonian); ok {
		e := h.Energy()
		snap.Energy = &e
	}
	return snap
}

func (s *Session[T]) TrailComponents() [][]float64 {
	if s.ctrl.trail == nil {
		return nil
	}
	trail := s.ctrl.trail.Slice()
	out := make([][]float64, len(trail))
	for i, p := range trail {
		out[i] = p.Components()
	}
	return out
}
