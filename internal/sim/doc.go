// Package sim runs a model at a fixed timestep independent of the rate at
// which a host renders frames.
//
// A [Scheduler] accumulates the wall-clock time between frames and drains
// it in whole timesteps, calling [Controller.Tick] once per step while the
// controller is running. Time spent paused is drained without stepping, so
// resuming never produces a burst of catch-up steps.
//
// A [Session] bundles a controller with its scheduler and clock and
// implements [Runner], the handle hosts drive:
//
//	session := sim.NewSession("particle", ctrl, sim.SystemClock{})
//	for range ticker.C {
//	    session.OnFrame(session.Now())
//	}
//
// Nothing in this package is safe for concurrent use. Hosts serialise
// parameter changes and frames onto one goroutine.
package sim
