package viz

import (
	"math"
	"testing"

	"github.com/san-kum/fieldsim/internal/dynamo"
	"github.com/san-kum/fieldsim/internal/sim"
)

func TestParticleSceneFields(t *testing.T) {
	s := NewParticleScene()
	s.ParamsChanged(map[string]float64{"Ex": 0.5, "Bz": -1})

	e, b := s.Fields()
	if e != (dynamo.Vec3{X: 0.5}) || b != (dynamo.Vec3{Z: -1}) {
		t.Fatalf("fields = %v %v", e, b)
	}

	s.Draw(sim.Frame[dynamo.Vec3]{
		State: dynamo.State[dynamo.Vec3]{X: dynamo.Vec3{X: 3}},
		Trail: []dynamo.Vec3{{X: 1}, {X: 2}, {X: 3}},
	})
	w := &Wireframe{}
	s.Build(w)
	// axes 3, two arrows 3 each, trail 2, particle 3
	if len(w.Edges) != 14 {
		t.Errorf("edges = %d, want 14", len(w.Edges))
	}

	s.ParamsChanged(map[string]float64{})
	w.Reset()
	s.Build(w)
	if len(w.Edges) != 8 {
		t.Errorf("edges without fields = %d, want 8", len(w.Edges))
	}
}

func TestPendulumScenePhase(t *testing.T) {
	s := NewPendulumScene()
	s.ParamsChanged(map[string]float64{"omega": 2})

	s.Draw(sim.Frame[dynamo.Scalar]{Time: 0})
	s.Draw(sim.Frame[dynamo.Scalar]{Time: 0.5})
	if math.Abs(s.Phase()-1) > 1e-12 {
		t.Errorf("phase = %v, want 1", s.Phase())
	}

	b := s.Bead()
	if math.Abs(b.Y-hoopRadius) > 1e-12 || math.Abs(b.X) > 1e-12 {
		t.Errorf("bead at top = %v", b)
	}

	s.Draw(sim.Frame[dynamo.Scalar]{Time: 0, State: dynamo.State[dynamo.Scalar]{X: math.Pi / 2}})
	if s.Phase() != 0 {
		t.Errorf("phase after rewind = %v, want 0", s.Phase())
	}
	b = s.Bead()
	if math.Abs(b.X-hoopRadius) > 1e-12 || math.Abs(b.Y) > 1e-12 {
		t.Errorf("bead at equator = %v", b)
	}

	w := &Wireframe{}
	s.Build(w)
	if len(w.Edges) != 1+hoopSegs+1+3 {
		t.Errorf("edges = %d", len(w.Edges))
	}
}
