// Package dynamo provides the core primitives shared by models, integrators
// and the stepping engine.
//
//   - [Vector]: state algebra (addition, scalar multiplication)
//   - [Vec3], [Scalar]: the two concrete state shapes
//   - [State]: position/velocity pair advanced by an integrator
//   - [Model]: owns a state and a pure acceleration law
//   - [Integrator]: fixed-step integrator generic over the state shape
//   - [Configurable]: named, bounded parameters for runtime mutation
//
// # Example
//
//	p := physics.NewChargedParticle()
//	rk4 := integrators.NewRK4[dynamo.Vec3](0.01)
//	p.SetState(rk4.Step(p))
package dynamo
