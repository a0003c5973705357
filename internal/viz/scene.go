package viz

import (
	"math"

	"github.com/san-kum/fieldsim/internal/dynamo"
	"github.com/san-kum/fieldsim/internal/sim"
)

// Scene renders the latest frame of one model into a wireframe.
type Scene interface {
	Title() string
	Extent() float64
	Build(w *Wireframe)
}

const (
	axisHalf   = 10.0
	arrowScale = 8.0
	hoopRadius = 8.0
	hoopSegs   = 48
)

func axes(w *Wireframe, half float64) {
	w.Line(dynamo.Vec3{X: -half}, dynamo.Vec3{X: half})
	w.Line(dynamo.Vec3{Y: -half}, dynamo.Vec3{Y: half})
	w.Line(dynamo.Vec3{Z: -half}, dynamo.Vec3{Z: half})
}

func blob(w *Wireframe, p dynamo.Vec3, r float64) {
	w.Line(p.Sub(dynamo.Vec3{X: r}), p.Add(dynamo.Vec3{X: r}))
	w.Line(p.Sub(dynamo.Vec3{Y: r}), p.Add(dynamo.Vec3{Y: r}))
	w.Line(p.Sub(dynamo.Vec3{Z: r}), p.Add(dynamo.Vec3{Z: r}))
}

// ParticleScene draws the charged particle, its trail and the field
// directions. It is a sim.View so the session feeds it directly.
type ParticleScene struct {
	frame sim.Frame[dynamo.Vec3]
	e, b  dynamo.Vec3
}

func NewParticleScene() *ParticleScene { return &ParticleScene{} }

func (s *ParticleScene) Draw(f sim.Frame[dynamo.Vec3]) { s.frame = f }

func (s *ParticleScene) ParamsChanged(p map[string]float64) {
	s.e = dynamo.Vec3{X: p["Ex"], Y: p["Ey"], Z: p["Ez"]}
	s.b = dynamo.Vec3{X: p["Bx"], Y: p["By"], Z: p["Bz"]}
}

func (s *ParticleScene) Title() string   { return "charged particle" }
func (s *ParticleScene) Extent() float64 { return axisHalf * 1.2 }

func (s *ParticleScene) Fields() (e, b dynamo.Vec3) { return s.e, s.b }
func (s *ParticleScene) Frame() sim.Frame[dynamo.Vec3] { return s.frame }

func (s *ParticleScene) Build(w *Wireframe) {
	axes(w, axisHalf)
	// Field arrows are drawn at a fixed length; only direction is shown.
	if n := s.e.Norm(); n > 0 {
		w.Arrow(dynamo.Vec3{}, s.e.Scale(arrowScale/n))
	}
	if n := s.b.Norm(); n > 0 {
		w.Arrow(dynamo.Vec3{}, s.b.Scale(arrowScale/n))
	}
	w.Polyline(s.frame.Trail)
	if s.frame.State.X.IsFinite() {
		blob(w, s.frame.State.X, 0.4)
	}
}

// PendulumScene draws a hoop spinning about the vertical axis with the
// bead at its current angle from the top.
type PendulumScene struct {
	frame sim.Frame[dynamo.Scalar]
	omega float64
	phase float64
	lastT float64
}

func NewPendulumScene() *PendulumScene { return &PendulumScene{} }

func (s *PendulumScene) Draw(f sim.Frame[dynamo.Scalar]) {
	if f.Time < s.lastT {
		s.phase = 0
	} else {
		s.phase = math.Mod(s.phase+s.omega*(f.Time-s.lastT), 2*math.Pi)
	}
	s.lastT = f.Time
	s.frame = f
}

func (s *PendulumScene) ParamsChanged(p map[string]float64) { s.omega = p["omega"] }

func (s *PendulumScene) Title() string   { return "bead on a rotating hoop" }
func (s *PendulumScene) Extent() float64 { return hoopRadius * 1.4 }
func (s *PendulumScene) Phase() float64  { return s.phase }

// Bead returns the bead position for the current angle and hoop phase.
func (s *PendulumScene) Bead() dynamo.Vec3 {
	return hoopPoint(float64(s.frame.State.X), s.phase)
}

func hoopPoint(theta, phi float64) dynamo.Vec3 {
	return dynamo.Vec3{
		X: hoopRadius * math.Sin(theta) * math.Cos(phi),
		Y: hoopRadius * math.Cos(theta),
		Z: hoopRadius * math.Sin(theta) * math.Sin(phi),
	}
}

func (s *PendulumScene) Build(w *Wireframe) {
	w.Line(dynamo.Vec3{Y: -hoopRadius * 1.25}, dynamo.Vec3{Y: hoopRadius * 1.25})
	prev := hoopPoint(0, s.phase)
	for i := 1; i <= hoopSegs; i++ {
		next := hoopPoint(2*math.Pi*float64(i)/hoopSegs, s.phase)
		w.Line(prev, next)
		prev = next
	}
	if b := s.Bead(); b.IsFinite() {
		w.Line(dynamo.Vec3{}, b)
		blob(w, b, 0.6)
	}
}
