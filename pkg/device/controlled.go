package device

import "github.com/edp1096/toy-acdc/internal/consts"

// VCVS (E): v(p,n) = gain * v(cp,cn). Always owns a branch.
type VCVS struct {
	BaseDevice
}

func NewVCVS(name string, p, n, cp, cn int, gain float64) *VCVS {
	return &VCVS{BaseDevice: newBaseDevice(name, gain, p, n, cp, cn)}
}

func (e *VCVS) GetType() string { return "E" }

// VCCS (G): i(p->n) = gm * v(cp,cn).
type VCCS struct {
	BaseDevice
}

func NewVCCS(name string, p, n, cp, cn int, gm float64) *VCCS {
	return &VCCS{BaseDevice: newBaseDevice(name, gm, p, n, cp, cn)}
}

func (g *VCCS) GetType() string { return "G" }

// CurrentControlled is shared by F and H, which sense the current of another
// element's branch.
type CurrentControlled struct {
	BaseDevice
	Control       string // controlling element name
	ControlBranch int
}

func newCurrentControlled(name string, p, n int, control string, gain float64) CurrentControlled {
	return CurrentControlled{
		BaseDevice:    newBaseDevice(name, gain, p, n),
		Control:       control,
		ControlBranch: consts.NO_BRANCH,
	}
}

func (c *CurrentControlled) SetControlBranch(idx int) { c.ControlBranch = idx }

// CCCS (F): i(p->n) = gain * i(control).
type CCCS struct {
	CurrentControlled
}

func NewCCCS(name string, p, n int, control string, gain float64) *CCCS {
	return &CCCS{CurrentControlled: newCurrentControlled(name, p, n, control, gain)}
}

func (f *CCCS) GetType() string { return "F" }

// CCVS (H): v(p,n) = gain * i(control). Always owns a branch.
type CCVS struct {
	CurrentControlled
}

func NewCCVS(name string, p, n int, control string, gain float64) *CCVS {
	return &CCVS{CurrentControlled: newCurrentControlled(name, p, n, control, gain)}
}

func (h *CCVS) GetType() string { return "H" }
