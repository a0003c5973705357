// Package physics provides the models the stepping engine integrates.
//
// Each model implements [dynamo.Model] for its state shape and
// [dynamo.Configurable] for runtime parameter changes:
//
//   - [ChargedParticle]: a point charge in uniform E and B fields, on [dynamo.Vec3]
//   - [HoopPendulum]: a damped bead on a spinning hoop, on [dynamo.Scalar]
//
// Accelerate never mutates the model. Parameter bounds are published by
// Specs and enforced by the caller; SetParam only rejects unknown names and
// non-finite values.
//
//	p := physics.NewChargedParticle()
//	p.SetParam("Bz", 1)
//	rk4 := integrators.NewRK4[dynamo.Vec3](0.01)
//	p.SetState(rk4.Step(p))
package physics
