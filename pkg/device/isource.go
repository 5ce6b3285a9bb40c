package device

type CurrentSource struct {
	BaseDevice
	// DC params
	dcValue float64
	// AC params
	acMag   float64
	acPhase float64 // degrees
}

// Positive current flows from p through the source into n.
func NewDCCurrentSource(name string, p, n int, value float64) *CurrentSource {
	return &CurrentSource{
		BaseDevice: newBaseDevice(name, value, p, n),
		dcValue:    value,
	}
}

func NewACCurrentSource(name string, p, n int, dcValue, acMag, acPhase float64) *CurrentSource {
	return &CurrentSource{
		BaseDevice: newBaseDevice(name, dcValue, p, n),
		dcValue:    dcValue,
		acMag:      acMag,
		acPhase:    acPhase,
	}
}

func (i *CurrentSource) GetType() string { return "I" }

func (i *CurrentSource) Phasor(status *CircuitStatus) complex128 {
	if status != nil && status.Mode == ACAnalysis {
		return phasor(i.acMag, i.acPhase)
	}
	return complex(i.dcValue, 0)
}

func (i *CurrentSource) AC() (mag, phase float64) { return i.acMag, i.acPhase }

func (i *CurrentSource) SetValue(value float64) {
	i.Value = value
	i.dcValue = value
}
