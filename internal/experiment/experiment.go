package experiment

import (
	"github.com/san-kum/fieldsim/internal/dynamo"
	"github.com/san-kum/fieldsim/internal/metrics"
	"github.com/san-kum/fieldsim/internal/physics"
	"github.com/san-kum/fieldsim/internal/sim"
)

type metric interface {
	Name() string
	Value() float64
}

// Experiment is a built session plus typed access to its model for
// read-only reporting. Exactly one of Particle and Pendulum is set.
type Experiment struct {
	Name   string
	Runner sim.Runner

	Particle *physics.ChargedParticle
	Pendulum *physics.HoopPendulum
	Drift    *metrics.EnergyDrift[dynamo.Vec3]
	Escape   *metrics.Stability[dynamo.Vec3]

	metrics []metric
}

// Metrics returns the current value of every attached metric.
func (e *Experiment) Metrics() map[string]float64 {
	out := make(map[string]float64, len(e.metrics))
	for _, m := range e.metrics {
		out[m.Name()] = m.Value()
	}
	return out
}

// Derived returns quantities computed from the model's current parameters
// and state, such as the particle's gyroradius. Quantities that are
// undefined for the current parameters, like the gyroradius without a
// magnetic field, are left out.
func (e *Experiment) Derived() map[string]float64 {
	out := make(map[string]float64)
	switch {
	case e.Particle != nil:
		out["gyroradius"] = e.Particle.Gyroradius()
		out["cyclotron_period"] = e.Particle.CyclotronPeriod()
		out["kinetic_energy"] = e.Particle.Energy()
	case e.Pendulum != nil:
		out["angle"] = e.Pendulum.Angle()
	}
	for k, v := range out {
		if !dynamo.IsFinite(v) {
			delete(out, k)
		}
	}
	return out
}
