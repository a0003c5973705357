// Package analysis post-processes recorded runs.
//
//   - [DominantFrequency]: strongest frequency of a uniformly sampled series,
//     used to check the measured cyclotron frequency against qB/(2πm)
//   - [PhasePortrait] and [PoincareSection]: slices of phase space from
//     recorded samples, rendered with [Portrait.ToASCII]
//   - [Bifurcation]: settled values across a parameter sweep
//
// Recorded samples are spaced by frames, not steps; [Resample] puts them on
// a uniform grid before any spectral analysis.
package analysis
