package device

type Resistor struct {
	BaseDevice
}

func NewResistor(name string, n1, n2 int, value float64) *Resistor {
	return &Resistor{BaseDevice: newBaseDevice(name, value, n1, n2)}
}

func (r *Resistor) GetType() string { return "R" }

func (r *Resistor) Immittance(status *CircuitStatus) Immittance {
	return Immittance{Z: complex(r.Value, 0), Y: complex(1/r.Value, 0), Short: r.Value == 0}
}
