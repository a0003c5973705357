package integrators

import (
	"fmt"

	"github.com/san-kum/fieldsim/internal/dynamo"
)

// Names lists the integrators New understands.
var Names = []string{"rk4", "euler"}

// New builds the named fixed-step integrator. dt is validated here so the
// constructors' panics are never reached from user input.
func New[T dynamo.Vector[T]](name string, dt float64) (dynamo.Integrator[T], error) {
	if !dynamo.IsFinite(dt) || dt <= 0 {
		return nil, fmt.Errorf("integrator %s: %w (got %g)", name, dynamo.ErrInvalidTimestep, dt)
	}
	switch name {
	case "", "rk4":
		return NewRK4[T](dt), nil
	case "euler":
		return NewEuler[T](dt), nil
	default:
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
}
