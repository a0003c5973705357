package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/fieldsim/internal/dynamo"
)

const (
	DefaultCharge = 1.0
	DefaultMass   = 0.1
)

// DefaultPosition is where a charged particle starts after Reset.
var DefaultPosition = dynamo.Vec3{X: -10}

var particleSpecs = []dynamo.ParamSpec{
	{Name: "q", Min: 0, Max: 10, Step: 0.01},
	{Name: "m", Min: 0, Max: 10, Step: 0.01, NonZero: true},
	{Name: "vx", Min: 0, Max: 10, Step: 0.01},
	{Name: "vy", Min: 0, Max: 10, Step: 0.01},
	{Name: "vz", Min: 0, Max: 10, Step: 0.01},
	{Name: "Ex", Min: -1, Max: 1, Step: 0.01},
	{Name: "Ey", Min: -1, Max: 1, Step: 0.01},
	{Name: "Ez", Min: -1, Max: 1, Step: 0.01},
	{Name: "Bx", Min: -1, Max: 1, Step: 0.01},
	{Name: "By", Min: -1, Max: 1, Step: 0.01},
	{Name: "Bz", Min: -1, Max: 1, Step: 0.01},
}

// ChargedParticle is a point charge moving through uniform electric and
// magnetic fields under the Lorentz force.
type ChargedParticle struct {
	Q, M float64
	E, B dynamo.Vec3

	state dynamo.State[dynamo.Vec3]
}

func NewChargedParticle() *ChargedParticle {
	p := &ChargedParticle{}
	p.Reset()
	return p
}

func (p *ChargedParticle) State() dynamo.State[dynamo.Vec3]     { return p.state }
func (p *ChargedParticle) SetState(s dynamo.State[dynamo.Vec3]) { p.state = s }
func (p *ChargedParticle) Position() dynamo.Vec3                { return p.state.X }
func (p *ChargedParticle) Velocity() dynamo.Vec3                { return p.state.V }

// Accelerate returns a = (q/m)(E + v x B). Position does not enter the law
// because the fields are uniform.
func (p *ChargedParticle) Accelerate(_, v dynamo.Vec3) dynamo.Vec3 {
	return p.E.Add(v.Cross(p.B)).Scale(p.Q / p.M)
}

// Reset restores the default charge, mass, fields and state in place.
func (p *ChargedParticle) Reset() {
	p.Q = DefaultCharge
	p.M = DefaultMass
	p.E = dynamo.Vec3{}
	p.B = dynamo.Vec3{}
	p.state = dynamo.State[dynamo.Vec3]{X: DefaultPosition}
}

// Energy is the kinetic energy; the magnetic force does no work, so it only
// changes through E or integration error.
func (p *ChargedParticle) Energy() float64 {
	v := p.state.V
	return 0.5 * p.M * v.Dot(v)
}

// Gyroradius is m|v_perp|/(|q||B|), or +Inf without a magnetic field.
func (p *ChargedParticle) Gyroradius() float64 {
	b := p.B.Norm()
	if b == 0 || p.Q == 0 {
		return math.Inf(1)
	}
	v := p.state.V
	vPar := p.B.Scale(v.Dot(p.B) / (b * b))
	return p.M * v.Sub(vPar).Norm() / (math.Abs(p.Q) * b)
}

// CyclotronPeriod is 2πm/(|q||B|).
func (p *ChargedParticle) CyclotronPeriod() float64 {
	b := p.B.Norm()
	if b == 0 || p.Q == 0 {
		return math.Inf(1)
	}
	return 2 * math.Pi * p.M / (math.Abs(p.Q) * b)
}

func (p *ChargedParticle) Specs() []dynamo.ParamSpec {
	out := make([]dynamo.ParamSpec, len(particleSpecs))
	copy(out, particleSpecs)
	return out
}

func (p *ChargedParticle) Params() map[string]float64 {
	v := p.state.V
	return map[string]float64{
		"q":  p.Q,
		"m":  p.M,
		"vx": v.X,
		"vy": v.Y,
		"vz": v.Z,
		"Ex": p.E.X,
		"Ey": p.E.Y,
		"Ez": p.E.Z,
		"Bx": p.B.X,
		"By": p.B.Y,
		"Bz": p.B.Z,
	}
}

// SetParam accepts any finite value; bounds belong to the caller.
// Velocity components overwrite the current velocity.
func (p *ChargedParticle) SetParam(name string, value float64) error {
	if !dynamo.IsFinite(value) {
		return &dynamo.ParamError{Name: name, Value: value, Err: dynamo.ErrNonFinite}
	}
	switch name {
	case "q":
		p.Q = value
	case "m":
		p.M = value
	case "vx":
		p.state.V.X = value
	case "vy":
		p.state.V.Y = value
	case "vz":
		p.state.V.Z = value
	case "Ex":
		p.E.X = value
	case "Ey":
		p.E.Y = value
	case "Ez":
		p.E.Z = value
	case "Bx":
		p.B.X = value
	case "By":
		p.B.Y = value
	case "Bz":
		p.B.Z = value
	default:
		return fmt.Errorf("%w: %s", dynamo.ErrUnknownParam, name)
	}
	return nil
}
