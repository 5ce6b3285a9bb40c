package util

import (
	"fmt"
	"math"
	"strings"
)

var prefixes = []struct {
	scale  float64
	symbol string
}{
	{1e9, "G"},
	{1e6, "M"},
	{1e3, "k"},
	{1, ""},
	{1e-3, "m"},
	{1e-6, "u"},
	{1e-9, "n"},
	{1e-12, "p"},
}

// FormatValueFactor prints value with an engineering prefix: 0.0025 A -> "2.500 mA".
// Zero and values outside the prefix range fall back to %e.
func FormatValueFactor(value float64, unit string) string {
	absValue := math.Abs(value)
	if absValue >= 1e12 || absValue < 1e-12 || math.IsNaN(value) {
		return strings.TrimSpace(fmt.Sprintf("%.3e %s", value, unit))
	}

	for _, p := range prefixes {
		if absValue >= p.scale {
			return strings.TrimSpace(fmt.Sprintf("%.3f %s%s", value/p.scale, p.symbol, unit))
		}
	}
	return strings.TrimSpace(fmt.Sprintf("%.3e %s", value, unit))
}

func FormatFrequency(freq float64) string {
	switch {
	case freq >= 1e9:
		return fmt.Sprintf("%7.3f GHz", freq/1e9)
	case freq >= 1e6:
		return fmt.Sprintf("%7.3f MHz", freq/1e6)
	case freq >= 1e3:
		return fmt.Sprintf("%7.3f kHz", freq/1e3)
	default:
		return fmt.Sprintf("%7.3f Hz ", freq)
	}
}

// FormatMagnitudePhase prints a phasor as name=mag<phasedeg.
func FormatMagnitudePhase(name string, mag, phase float64) string {
	return fmt.Sprintf("%s=%s<%sdeg", name, FormatMagnitude(mag), FormatPhase(phase))
}

func FormatMagnitude(value float64) string {
	if value >= 1000 || (value < 0.001 && value != 0) {
		return fmt.Sprintf("%8.2e", value) // "1.00e+03" or "5.43e-05"
	}
	return fmt.Sprintf("%8.3g", value) // "   0.707"
}

func FormatPhase(value float64) string {
	return fmt.Sprintf("%6.1f", value) // "  90.0"
}
