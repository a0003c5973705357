// Package viz is the terminal host for a simulation session.
//
// [Model] drives a [sim.Runner] from bubbletea ticks and draws its scene
// with a braille [Canvas] through a perspective [Camera]. [ParticleScene]
// and [PendulumScene] are sim views, so the session pushes frames into
// them and the model only renders the latest one.
//
// # Key Bindings
//
//	space     run / pause
//	r         reset
//	tab       select parameter
//	up/down   adjust by one step
//	x y z     rotate the camera
//	t         cycle themes
//	g         toggle GIF capture
//	?         help
//
// Losing terminal focus pauses a running session; regaining it resumes
// only if the pause came from the focus change.
package viz
