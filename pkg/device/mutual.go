package device

import (
	"fmt"
	"math"
)

// Mutual couples two inductors with coefficient k. Both inductors must own a
// branch so the coupling can land in the group 2 block.
type Mutual struct {
	BaseDevice
	inductors [2]*Inductor
	names     [2]string
}

func NewMutual(name string, indNames []string, k float64) *Mutual {
	m := &Mutual{BaseDevice: newBaseDevice(name, k)}
	copy(m.names[:], indNames)
	return m
}

func (m *Mutual) GetType() string { return "K" }

func (m *Mutual) SetInductor(index int, ind *Inductor) error {
	if index < 0 || index >= len(m.inductors) {
		return fmt.Errorf("invalid inductor index: %d", index)
	}
	m.inductors[index] = ind
	return nil
}

func (m *Mutual) GetInductors() [2]*Inductor  { return m.inductors }
func (m *Mutual) GetInductorNames() [2]string { return m.names }
func (m *Mutual) GetCoefficient() float64     { return m.Value }

// Mutance is M = k * sqrt(L1 * L2).
func (m *Mutual) Mutance() float64 {
	l1, l2 := m.inductors[0], m.inductors[1]
	if l1 == nil || l2 == nil {
		return 0
	}
	return m.Value * math.Sqrt(l1.Value*l2.Value)
}
