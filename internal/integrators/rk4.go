package integrators

import (
	"math"

	"github.com/san-kum/fieldsim/internal/dynamo"
)

// RK4 is the classical fourth-order Runge-Kutta scheme for second-order
// systems, generic over any state shape that supports the dynamo algebra.
type RK4[T dynamo.Vector[T]] struct {
	dt float64
}

func NewRK4[T dynamo.Vector[T]](dt float64) *RK4[T] {
	if dt <= 0 || math.IsNaN(dt) || math.IsInf(dt, 0) {
		panic("integrators: RK4 dt must be positive and finite")
	}
	return &RK4[T]{dt: dt}
}

func (r *RK4[T]) Dt() float64 { return r.dt }

// Step advances the model's current state by one dt. The model is not mutated.
func (r *RK4[T]) Step(m dynamo.Model[T]) dynamo.State[T] {
	return r.Advance(m, m.State())
}

func (r *RK4[T]) Advance(m dynamo.Model[T], s dynamo.State[T]) dynamo.State[T] {
	dt := r.dt
	half := 0.5 * dt

	x1, v1 := s.X, s.V
	a1 := m.Accelerate(x1, v1)

	x2 := x1.Add(v1.Scale(half))
	v2 := v1.Add(a1.Scale(half))
	a2 := m.Accelerate(x2, v2)

	x3 := x1.Add(v2.Scale(half))
	v3 := v1.Add(a2.Scale(half))
	a3 := m.Accelerate(x3, v3)

	x4 := x1.Add(v3.Scale(dt))
	v4 := v1.Add(a3.Scale(dt))
	a4 := m.Accelerate(x4, v4)

	dt6 := dt / 6.0
	return dynamo.State[T]{
		X: x1.Add(v1.Add(v2.Scale(2)).Add(v3.Scale(2)).Add(v4).Scale(dt6)),
		V: v1.Add(a1.Add(a2.Scale(2)).Add(a3.Scale(2)).Add(a4).Scale(dt6)),
	}
}
