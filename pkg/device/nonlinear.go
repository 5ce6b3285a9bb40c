package device

// Nonlinear devices are recognised so a netlist can name them, but they are
// never stamped: stamping one fails with ErrNonlinear.
type Nonlinear struct {
	BaseDevice
	kind   string
	Model  string
	Params map[string]float64
}

func (d *Nonlinear) GetType() string { return d.kind }

func (d *Nonlinear) SetModelParameters(params map[string]float64) {
	for k, v := range params {
		d.Params[k] = v
	}
}

type Diode struct{ Nonlinear }
type Bjt struct{ Nonlinear }
type Mosfet struct{ Nonlinear }

// Nodes: anode, cathode.
func NewDiode(name string, a, k int, model string) *Diode {
	return &Diode{Nonlinear{
		BaseDevice: newBaseDevice(name, 0, a, k),
		kind:       "D",
		Model:      model,
		Params: map[string]float64{
			"is": 1e-14, // Saturation current
			"n":  1.0,   // Emission coefficient
		},
	}}
}

// Nodes: collector, base, emitter.
func NewBJT(name string, c, b, e int, model string) *Bjt {
	return &Bjt{Nonlinear{
		BaseDevice: newBaseDevice(name, 0, c, b, e),
		kind:       "Q",
		Model:      model,
		Params: map[string]float64{
			"is": 1e-16, // Transport saturation current
			"bf": 100.0, // Forward beta
			"br": 1.0,   // Reverse beta
		},
	}}
}

// Nodes: drain, gate, source, bulk.
func NewMosfet(name string, d, g, s, b int, model string) *Mosfet {
	return &Mosfet{Nonlinear{
		BaseDevice: newBaseDevice(name, 0, d, g, s, b),
		kind:       "M",
		Model:      model,
		Params: map[string]float64{
			"vto": 0.7,   // Threshold voltage
			"kp":  2e-5,  // Transconductance
			"l":   1e-6,  // Channel length
			"w":   10e-6, // Channel width
		},
	}}
}

// ModelParam is a parsed .model card.
type ModelParam struct {
	Type   string
	Name   string
	Params map[string]float64
}
