package device

import (
	"math"
	"math/cmplx"
)

type VoltageSource struct {
	BaseDevice
	// DC params
	dcValue float64
	// AC params
	acMag   float64
	acPhase float64 // degrees
}

func NewDCVoltageSource(name string, p, n int, value float64) *VoltageSource {
	return &VoltageSource{
		BaseDevice: newBaseDevice(name, value, p, n),
		dcValue:    value,
	}
}

func NewACVoltageSource(name string, p, n int, dcValue, acMag, acPhase float64) *VoltageSource {
	return &VoltageSource{
		BaseDevice: newBaseDevice(name, dcValue, p, n),
		dcValue:    dcValue,
		acMag:      acMag,
		acPhase:    acPhase,
	}
}

func (v *VoltageSource) GetType() string { return "V" }

// Phasor is the DC value outside AC analysis and acMag∠acPhase inside it.
func (v *VoltageSource) Phasor(status *CircuitStatus) complex128 {
	if status != nil && status.Mode == ACAnalysis {
		return phasor(v.acMag, v.acPhase)
	}
	return complex(v.dcValue, 0)
}

func (v *VoltageSource) AC() (mag, phase float64) { return v.acMag, v.acPhase }

func (v *VoltageSource) SetValue(value float64) {
	v.Value = value
	v.dcValue = value
}

// Set complex value: magnitude * (cos(θ) + j*sin(θ))
func phasor(mag, phaseDeg float64) complex128 {
	return cmplx.Rect(mag, phaseDeg*math.Pi/180.0)
}
