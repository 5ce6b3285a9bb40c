package device

import (
	"fmt"

	"github.com/edp1096/toy-acdc/pkg/matrix"
	"github.com/edp1096/toy-acdc/pkg/mna"
)

// Immittance of a two-terminal passive at one frequency. Open and Short mark
// the limits where Z or Y is unbounded.
type Immittance struct {
	Z, Y  complex128
	Open  bool
	Short bool
}

type passive interface {
	Device
	Immittance(status *CircuitStatus) Immittance
}

var (
	_ passive = (*Resistor)(nil)
	_ passive = (*Capacitor)(nil)
	_ passive = (*Inductor)(nil)
)

// Stamp writes the contribution of dev onto s. T is float64 for DC and
// complex128 for AC; a real stamp keeps only the real part of each value.
func Stamp[T matrix.Scalar](s mna.Stamper[T], dev Device, status *CircuitStatus) error {
	var err error

	switch d := dev.(type) {
	case *Resistor:
		err = stampPassive(s, d, status)
	case *Capacitor:
		err = stampPassive(s, d, status)
	case *Inductor:
		err = stampPassive(s, d, status)
	case *VoltageSource:
		err = stampVoltageSource(s, d, status)
	case *CurrentSource:
		err = stampCurrentSource(s, d, status)
	case *VCVS:
		err = stampVCVS(s, d)
	case *VCCS:
		p, n, cp, cn := d.Nodes[0], d.Nodes[1], d.Nodes[2], d.Nodes[3]
		err = s.AddTransconductance(p, n, cp, cn, scalar[T](complex(d.Value, 0)))
	case *CCCS:
		err = stampCCCS(s, d)
	case *CCVS:
		err = stampCCVS(s, d)
	case *Mutual:
		err = stampMutual(s, d, status)
	case *Diode, *Bjt, *Mosfet:
		err = ErrNonlinear
	default:
		err = fmt.Errorf("unsupported device type %T", dev)
	}

	if err != nil {
		return fmt.Errorf("%s %s: %w", dev.GetType(), dev.GetName(), err)
	}
	return nil
}

func stampPassive[T matrix.Scalar](s mna.Stamper[T], d passive, status *CircuitStatus) error {
	nodes := d.GetNodes()
	n1, n2 := nodes[0], nodes[1]
	im := d.Immittance(status)
	e, group2 := d.BranchIndex()

	if !group2 {
		switch {
		case im.Open:
			// Nothing flows, but both nodes still own a row.
			if err := checkTerminals(n1, n2); err != nil {
				return err
			}
			s.Reserve(n1, -1)
			s.Reserve(n2, -1)
			return nil
		case im.Short:
			return ErrNeedsBranch
		}
		y := scalar[T](im.Y)
		return s.AddSymmetricGroup1(n1, n2, y, -y)
	}

	switch {
	case im.Open:
		// Branch current forced to zero.
		return s.AddSymmetricGroup2(n1, n2, e, 0, 0, 1)
	case im.Short:
		return s.AddSymmetricGroup2(n1, n2, e, 1, -1, 0)
	}
	return s.AddSymmetricGroup2(n1, n2, e, 1, -1, -scalar[T](im.Z))
}

func stampVoltageSource[T matrix.Scalar](s mna.Stamper[T], v *VoltageSource, status *CircuitStatus) error {
	e, ok := v.BranchIndex()
	if !ok {
		return ErrNeedsBranch
	}

	p, n := v.Nodes[0], v.Nodes[1]
	if err := s.AddSymmetricGroup2(p, n, e, 1, -1, 0); err != nil {
		return err
	}
	return s.AddRHSGroup2(e, scalar[T](v.Phasor(status)))
}

func stampCurrentSource[T matrix.Scalar](s mna.Stamper[T], i *CurrentSource, status *CircuitStatus) error {
	p, n := i.Nodes[0], i.Nodes[1]
	if err := checkTerminals(p, n); err != nil {
		return err
	}
	value := scalar[T](i.Phasor(status))

	e, group2 := i.BranchIndex()
	if !group2 {
		if err := s.AddRHSGroup1(p, -value); err != nil {
			return err
		}
		return s.AddRHSGroup1(n, value)
	}

	if err := s.AddUnsymmetricRightGroup2(p, n, e, 1, -1, 1); err != nil {
		return err
	}
	return s.AddRHSGroup2(e, value)
}

func stampVCVS[T matrix.Scalar](s mna.Stamper[T], d *VCVS) error {
	e, ok := d.BranchIndex()
	if !ok {
		return ErrNeedsBranch
	}

	p, n, cp, cn := d.Nodes[0], d.Nodes[1], d.Nodes[2], d.Nodes[3]
	if err := checkTerminals(p, n); err != nil {
		return fmt.Errorf("output: %w", err)
	}
	if err := checkTerminals(cp, cn); err != nil {
		return fmt.Errorf("control: %w", err)
	}

	k := scalar[T](complex(d.Value, 0))
	if err := s.AddSymmetricGroup2(p, n, e, 1, -1, 0); err != nil {
		return err
	}
	return s.AddUnsymmetricBottomGroup2(cp, cn, e, -k, k, 0)
}

func stampCCCS[T matrix.Scalar](s mna.Stamper[T], d *CCCS) error {
	if d.ControlBranch < 0 {
		return fmt.Errorf("control %q: %w", d.Control, ErrNeedsBranch)
	}

	p, n := d.Nodes[0], d.Nodes[1]
	k := scalar[T](complex(d.Value, 0))
	return s.AddUnsymmetricRightGroup2(p, n, d.ControlBranch, k, -k, 0)
}

func stampCCVS[T matrix.Scalar](s mna.Stamper[T], d *CCVS) error {
	e, ok := d.BranchIndex()
	if !ok {
		return ErrNeedsBranch
	}
	if d.ControlBranch < 0 {
		return fmt.Errorf("control %q: %w", d.Control, ErrNeedsBranch)
	}

	p, n := d.Nodes[0], d.Nodes[1]
	if err := s.AddSymmetricGroup2(p, n, e, 1, -1, 0); err != nil {
		return err
	}
	return s.AddGroup2Value(e, d.ControlBranch, -scalar[T](complex(d.Value, 0)))
}

func stampMutual[T matrix.Scalar](s mna.Stamper[T], m *Mutual, status *CircuitStatus) error {
	l1, l2 := m.inductors[0], m.inductors[1]
	if l1 == nil || l2 == nil {
		return fmt.Errorf("coupling %v: inductor not resolved", m.names)
	}
	e1, ok1 := l1.BranchIndex()
	e2, ok2 := l2.BranchIndex()
	if !ok1 || !ok2 {
		return fmt.Errorf("coupled inductors %v: %w", m.names, ErrNeedsBranch)
	}

	omega := status.Omega()
	if omega == 0 {
		return nil
	}

	zm := -scalar[T](complex(0, omega*m.Mutance())) // -jωM
	if err := s.AddGroup2Value(e1, e2, zm); err != nil {
		return err
	}
	return s.AddGroup2Value(e2, e1, zm)
}

// checkTerminals rejects a pair before a stamp that spans several
// primitives writes its first entry.
func checkTerminals(p, n int) error {
	if p < 0 || n < 0 {
		return fmt.Errorf("(%d, %d): %w", p, n, mna.ErrInvalidIndex)
	}
	if p == n {
		return fmt.Errorf("(%d, %d): %w", p, n, mna.ErrSameNode)
	}
	return nil
}

// scalar narrows c to T. float64 keeps the real part.
func scalar[T matrix.Scalar](c complex128) T {
	var t T
	switch p := any(&t).(type) {
	case *float64:
		*p = real(c)
	case *complex128:
		*p = c
	}
	return t
}
