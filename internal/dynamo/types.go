package dynamo

import "math"

// Vector is the state algebra every integrable quantity supports.
type Vector[T any] interface {
	Add(T) T
	Scale(float64) T
	Components() []float64
}

type Vec3 struct {
	X, Y, Z float64
}

func (v Vec3) Add(o Vec3) Vec3      { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3      { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }
func (v Vec3) Dot(o Vec3) float64   { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }
func (v Vec3) Norm() float64        { return math.Sqrt(v.Dot(v)) }
func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{v.Y*o.Z - v.Z*o.Y, v.Z*o.X - v.X*o.Z, v.X*o.Y - v.Y*o.X}
}
func (v Vec3) Components() []float64 { return []float64{v.X, v.Y, v.Z} }

func (v Vec3) IsFinite() bool {
	return isFinite(v.X) && isFinite(v.Y) && isFinite(v.Z)
}

// Scalar is the one-dimensional state used by angle/angular-velocity models.
type Scalar float64

func (s Scalar) Add(o Scalar) Scalar    { return s + o }
func (s Scalar) Scale(f float64) Scalar { return Scalar(float64(s) * f) }
func (s Scalar) Components() []float64  { return []float64{float64(s)} }

// State pairs a generalized position with its time derivative.
type State[T Vector[T]] struct {
	X T
	V T
}

func (s State[T]) IsFinite() bool {
	for _, c := range s.X.Components() {
		if !isFinite(c) {
			return false
		}
	}
	for _, c := range s.V.Components() {
		if !isFinite(c) {
			return false
		}
	}
	return true
}

// Model owns a state and the acceleration law acting on it.
// Accelerate must be pure: it reads parameters, never writes them.
type Model[T Vector[T]] interface {
	State() State[T]
	SetState(State[T])
	Accelerate(x, v T) T
}

type Integrator[T Vector[T]] interface {
	Advance(m Model[T], s State[T]) State[T]
	Dt() float64
}

type Resettable interface {
	Reset()
}

type Hamiltonian interface {
	Energy() float64
}

// ParamSpec describes a tunable parameter and the bounds a UI offers for it.
type ParamSpec struct {
	Name    string
	Min     float64
	Max     float64
	Step    float64
	NonZero bool
}

func (p ParamSpec) Contains(v float64) bool {
	return v >= p.Min && v <= p.Max
}

type Configurable interface {
	Params() map[string]float64
	SetParam(name string, value float64) error
	Specs() []ParamSpec
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// IsFinite reports whether v is neither NaN nor infinite.
func IsFinite(v float64) bool { return isFinite(v) }
