package device

type Capacitor struct {
	BaseDevice
}

func NewCapacitor(name string, n1, n2 int, value float64) *Capacitor {
	return &Capacitor{BaseDevice: newBaseDevice(name, value, n1, n2)}
}

func (c *Capacitor) GetType() string { return "C" }

// Immittance is 1/(jωC). At DC the capacitor is an open circuit.
func (c *Capacitor) Immittance(status *CircuitStatus) Immittance {
	omega := status.Omega()
	if omega == 0 || c.Value == 0 {
		return Immittance{Open: true}
	}

	y := complex(0, omega*c.Value) // jωC
	return Immittance{Z: 1 / y, Y: y}
}
