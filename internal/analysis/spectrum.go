package analysis

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
)

// PowerSpectrum returns the magnitudes of the non-negative frequency bins of
// a Hann-windowed copy of data.
func PowerSpectrum(data []float64) []float64 {
	if len(data) < 2 {
		return nil
	}
	x := make([]float64, len(data))
	copy(x, data)

	mean := 0.0
	for _, v := range x {
		mean += v
	}
	mean /= float64(len(x))
	for i := range x {
		x[i] -= mean
	}
	window.Apply(x, window.Hann)

	spec := fft.FFTReal(x)
	ps := make([]float64, len(spec)/2+1)
	for i := range ps {
		ps[i] = cmplx.Abs(spec[i])
	}
	return ps
}

// DominantFrequency returns the strongest non-DC frequency, in Hz, of a
// series sampled every dt seconds. The peak is refined by fitting a
// parabola through the neighbouring bins. It returns 0 for a flat series.
func DominantFrequency(series []float64, dt float64) float64 {
	ps := PowerSpectrum(series)
	if len(ps) < 3 || dt <= 0 {
		return 0
	}
	k := 1
	for i := 2; i < len(ps); i++ {
		if ps[i] > ps[k] {
			k = i
		}
	}
	if ps[k] == 0 {
		return 0
	}

	offset := 0.0
	if k+1 < len(ps) {
		a, b, c := ps[k-1], ps[k], ps[k+1]
		if d := a - 2*b + c; d != 0 {
			offset = 0.5 * (a - c) / d
		}
	}
	return (float64(k) + offset) / (float64(len(series)) * dt)
}

// Resample linearly interpolates the samples (t[i], v[i]) onto a uniform
// grid of step dt from t[0] to the last sample time. t must be increasing.
func Resample(t, v []float64, dt float64) []float64 {
	if len(t) == 0 || len(t) != len(v) || dt <= 0 {
		return nil
	}
	n := int(math.Floor((t[len(t)-1]-t[0])/dt+1e-9)) + 1
	out := make([]float64, n)
	j := 0
	for i := range out {
		at := t[0] + float64(i)*dt
		for j+1 < len(t)-1 && t[j+1] < at {
			j++
		}
		if j+1 >= len(t) || t[j+1] == t[j] {
			out[i] = v[j]
			continue
		}
		f := (at - t[j]) / (t[j+1] - t[j])
		out[i] = v[j] + math.Max(0, math.Min(1, f))*(v[j+1]-v[j])
	}
	return out
}
