package analysis

import (
	"math"
	"math/cmplx"
)

// Magnitude returns |z| for every sample.
func Magnitude(series []complex128) []float64 {
	out := make([]float64, len(series))
	for i, z := range series {
		out[i] = cmplx.Abs(z)
	}
	return out
}

// Phase returns arg(z) in radians, with arg(0) = 0.
func Phase(series []complex128) []float64 {
	out := make([]float64, len(series))
	for i, z := range series {
		out[i] = phaseOf(z)
	}
	return out
}

func PhaseDegrees(series []complex128) []float64 {
	out := Phase(series)
	for i := range out {
		out[i] *= 180.0 / math.Pi
	}
	return out
}

// Decibels returns 20*log10|z|. A zero sample maps to -Inf.
func Decibels(series []complex128) []float64 {
	out := Magnitude(series)
	for i, m := range out {
		out[i] = 20 * math.Log10(m)
	}
	return out
}

func phaseOf(z complex128) float64 {
	if z == 0 {
		return 0
	}
	return cmplx.Phase(z)
}
