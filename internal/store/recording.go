package store

import (
	"github.com/san-kum/fieldsim/internal/sim"
)

// Sample is one recorded frame.
type Sample struct {
	T      float64   `json:"t"`
	Steps  uint64    `json:"steps"`
	X      []float64 `json:"x"`
	V      []float64 `json:"v"`
	Energy *float64  `json:"energy,omitempty"`
}

// Recording is a finished run: its settings, samples and summary numbers.
type Recording struct {
	Model      string             `json:"model"`
	Integrator string             `json:"integrator"`
	Dt         float64            `json:"dt"`
	Duration   float64            `json:"duration"`
	Seed       int64              `json:"seed"`
	Steps      uint64             `json:"steps"`
	Params     map[string]float64 `json:"params"`
	Samples    []Sample           `json:"samples"`
	Trail      [][]float64        `json:"trail,omitempty"`
	Metrics    map[string]float64 `json:"metrics,omitempty"`
	Derived    map[string]float64 `json:"derived,omitempty"`
}

// Recorder samples a runner after frames that advanced the simulation.
type Recorder struct {
	runner    sim.Runner
	every     int
	frames    int
	lastSteps uint64
	samples   []Sample
}

// NewRecorder keeps one sample per every advancing frames; every < 1 keeps all.
func NewRecorder(r sim.Runner, every int) *Recorder {
	if every < 1 {
		every = 1
	}
	rec := &Recorder{runner: r, every: every}
	rec.take(r.Snapshot())
	return rec
}

// Observe records the runner's state if it advanced since the last call.
func (r *Recorder) Observe() {
	snap := r.runner.Snapshot()
	if snap.Steps == r.lastSteps {
		return
	}
	r.frames++
	if r.frames%r.every != 0 {
		return
	}
	r.take(snap)
}

func (r *Recorder) take(snap sim.Snapshot) {
	r.lastSteps = snap.Steps
	r.samples = append(r.samples, Sample{
		T:      snap.Time,
		Steps:  snap.Steps,
		X:      snap.Position,
		V:      snap.Velocity,
		Energy: snap.Energy,
	})
}

func (r *Recorder) Samples() []Sample { return r.samples }

// Finish builds a Recording from the samples and the runner's final state.
func (r *Recorder) Finish(integrator string, dt, duration float64, seed int64) *Recording {
	snap := r.runner.Snapshot()
	if snap.Steps != r.samples[len(r.samples)-1].Steps {
		r.take(snap)
	}
	return &Recording{
		Model:      snap.Model,
		Integrator: integrator,
		Dt:         dt,
		Duration:   duration,
		Seed:       seed,
		Steps:      snap.Steps,
		Params:     snap.Params,
		Samples:    r.samples,
		Trail:      r.runner.TrailComponents(),
	}
}

// Points projects sample positions onto two component axes.
func (rec *Recording) Points(a, b int) []Point {
	pts := make([]Point, 0, len(rec.Samples))
	for _, s := range rec.Samples {
		if a >= len(s.X) || b >= len(s.X) {
			continue
		}
		pts = append(pts, Point{X: s.X[a], Y: s.X[b]})
	}
	return pts
}
