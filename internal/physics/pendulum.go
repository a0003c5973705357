package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/fieldsim/internal/dynamo"
)

var hoopSpecs = []dynamo.ParamSpec{
	{Name: "omega", Min: 0, Max: 10, Step: 0.01},
	{Name: "g_over_r", Min: 0, Max: 50, Step: 0.01},
	{Name: "gamma", Min: 0, Max: 5, Step: 0.01},
	{Name: "m", Min: 0, Max: 10, Step: 0.01, NonZero: true},
	{Name: "theta0", Min: -math.Pi, Max: math.Pi, Step: 0.01},
}

// HoopPendulum is a bead on a hoop spun at angular rate Omega, with linear
// damping Gamma. Its state is the angle and angular velocity.
type HoopPendulum struct {
	Omega  float64
	GOverR float64
	Gamma  float64
	Mass   float64
	Theta0 float64

	state dynamo.State[dynamo.Scalar]
}

func NewHoopPendulum() *HoopPendulum {
	p := &HoopPendulum{Theta0: 0.5}
	p.Reset()
	return p
}

func (p *HoopPendulum) State() dynamo.State[dynamo.Scalar]     { return p.state }
func (p *HoopPendulum) SetState(s dynamo.State[dynamo.Scalar]) { p.state = s }
func (p *HoopPendulum) Angle() float64                         { return float64(p.state.X) }

// Accelerate returns sin θ (ω² cos θ + g/R) − (γ/m) θ̇.
func (p *HoopPendulum) Accelerate(theta, thetaDot dynamo.Scalar) dynamo.Scalar {
	th := float64(theta)
	sin, cos := math.Sincos(th)
	return dynamo.Scalar(sin*(p.Omega*p.Omega*cos+p.GOverR) - p.Gamma/p.Mass*float64(thetaDot))
}

// Reset restores default constants and puts the bead at rest at Theta0.
// Theta0 itself survives a reset so a chosen start angle sticks.
func (p *HoopPendulum) Reset() {
	p.Omega = 2.0
	p.GOverR = 9.81
	p.Gamma = 0.1
	p.Mass = 1.0
	p.state = dynamo.State[dynamo.Scalar]{X: dynamo.Scalar(p.Theta0)}
}

func (p *HoopPendulum) Specs() []dynamo.ParamSpec {
	out := make([]dynamo.ParamSpec, len(hoopSpecs))
	copy(out, hoopSpecs)
	return out
}

func (p *HoopPendulum) Params() map[string]float64 {
	return map[string]float64{
		"omega":    p.Omega,
		"g_over_r": p.GOverR,
		"gamma":    p.Gamma,
		"m":        p.Mass,
		"theta0":   p.Theta0,
	}
}

func (p *HoopPendulum) SetParam(name string, value float64) error {
	if !dynamo.IsFinite(value) {
		return &dynamo.ParamError{Name: name, Value: value, Err: dynamo.ErrNonFinite}
	}
	switch name {
	case "omega":
		p.Omega = value
	case "g_over_r":
		p.GOverR = value
	case "gamma":
		p.Gamma = value
	case "m":
		p.Mass = value
	case "theta0":
		p.Theta0 = value
	default:
		return fmt.Errorf("%w: %s", dynamo.ErrUnknownParam, name)
	}
	return nil
}
