package device

import (
	"errors"

	"github.com/edp1096/toy-acdc/internal/consts"
)

var (
	ErrNonlinear   = errors.New("nonlinear device cannot be stamped into a linear system")
	ErrNeedsBranch = errors.New("element requires a branch index")
)

// Device is the closed set of circuit elements. Only types in this package
// implement it.
type Device interface {
	GetName() string
	GetType() string
	GetNodes() []int
	GetValue() float64
	BranchIndex() (int, bool)
	device()
}

type BaseDevice struct {
	Name   string
	Nodes  []int
	Value  float64
	Branch int
}

func newBaseDevice(name string, value float64, nodes ...int) BaseDevice {
	return BaseDevice{
		Name:   name,
		Nodes:  nodes,
		Value:  value,
		Branch: consts.NO_BRANCH,
	}
}

func (d *BaseDevice) GetName() string   { return d.Name }
func (d *BaseDevice) GetNodes() []int   { return d.Nodes }
func (d *BaseDevice) GetValue() float64 { return d.Value }
func (d *BaseDevice) device()           {}

func (d *BaseDevice) SetValue(value float64) { d.Value = value }

// BranchIndex reports the group 2 edge owned by the element, if any.
func (d *BaseDevice) BranchIndex() (int, bool) {
	return d.Branch, d.Branch != consts.NO_BRANCH
}

func (d *BaseDevice) SetBranchIndex(idx int) { d.Branch = idx }

type AnalysisMode int

const (
	OperatingPointAnalysis AnalysisMode = iota
	ACAnalysis
	DCSweep
)

func (m AnalysisMode) String() string {
	switch m {
	case OperatingPointAnalysis:
		return "op"
	case ACAnalysis:
		return "ac"
	case DCSweep:
		return "dc"
	default:
		return "unknown"
	}
}

type CircuitStatus struct {
	Mode      AnalysisMode
	Frequency float64 // AC frequency in Hz
}

// Omega is the angular frequency of an AC status and 0 otherwise.
func (s *CircuitStatus) Omega() float64 {
	if s == nil || s.Mode != ACAnalysis {
		return 0
	}
	return consts.TWO_PI * s.Frequency
}

// IsAC reports whether reactive elements see a nonzero frequency.
func (s *CircuitStatus) IsAC() bool { return s.Omega() != 0 }
