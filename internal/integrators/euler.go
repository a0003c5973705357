package integrators

import (
	"math"

	"github.com/san-kum/fieldsim/internal/dynamo"
)

type Euler[T dynamo.Vector[T]] struct {
	dt float64
}

func NewEuler[T dynamo.Vector[T]](dt float64) *Euler[T] {
	if dt <= 0 || math.IsNaN(dt) || math.IsInf(dt, 0) {
		panic("integrators: Euler dt must be positive and finite")
	}
	return &Euler[T]{dt: dt}
}

func (e *Euler[T]) Dt() float64 { return e.dt }

func (e *Euler[T]) Step(m dynamo.Model[T]) dynamo.State[T] {
	return e.Advance(m, m.State())
}

func (e *Euler[T]) Advance(m dynamo.Model[T], s dynamo.State[T]) dynamo.State[T] {
	a := m.Accelerate(s.X, s.V)
	return dynamo.State[T]{
		X: s.X.Add(s.V.Scale(e.dt)),
		V: s.V.Add(a.Scale(e.dt)),
	}
}
