package device

type Inductor struct {
	BaseDevice
}

func NewInductor(name string, n1, n2 int, value float64) *Inductor {
	return &Inductor{BaseDevice: newBaseDevice(name, value, n1, n2)}
}

func (l *Inductor) GetType() string { return "L" }

// Immittance is jωL. At DC the inductor is a short circuit.
func (l *Inductor) Immittance(status *CircuitStatus) Immittance {
	omega := status.Omega()
	if omega == 0 || l.Value == 0 {
		return Immittance{Short: true}
	}

	z := complex(0, omega*l.Value) // jωL
	return Immittance{Z: z, Y: 1 / z}
}
