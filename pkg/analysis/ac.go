package analysis

import (
	"fmt"

	"github.com/edp1096/toy-acdc/pkg/circuit"
	"github.com/edp1096/toy-acdc/pkg/device"
)

// ACAnalysis is DCAnalysis over complex128 at one frequency.
type ACAnalysis struct {
	*stamped[complex128]
	frequency float64
}

func NewAC(frequency float64, opts ...Option) *ACAnalysis {
	o := newOptions(opts)
	status := &device.CircuitStatus{Mode: device.ACAnalysis, Frequency: frequency}
	return &ACAnalysis{
		stamped:   newStamped[complex128](status, o),
		frequency: frequency,
	}
}

func (ac *ACAnalysis) Frequency() float64 { return ac.frequency }

// AddIndependentVoltageSource adds a source of mag∠phase (degrees) on edge e.
func (ac *ACAnalysis) AddIndependentVoltageSource(p, n, e int, mag, phase float64, opts ...ElementOption) error {
	cfg := ac.config("V", opts)
	return ac.addWithBranch(device.NewACVoltageSource(cfg.name, p, n, 0, mag, phase), e)
}

func (ac *ACAnalysis) AddIndependentCurrentSource(p, n int, mag, phase float64, opts ...ElementOption) error {
	cfg := ac.config("I", opts)
	return ac.addWithBranch(device.NewACCurrentSource(cfg.name, p, n, 0, mag, phase), cfg.branch)
}

func (ac *ACAnalysis) Solve() (voltages, currents []complex128, err error) {
	return ac.solve()
}

// FrequencyResponse runs a .ac sweep over a named circuit.
type FrequencyResponse struct {
	BaseAnalysis
	startFreq   float64
	stopFreq    float64
	numPoints   int
	frequencies []float64
	sweep       *SweepResult
}

func NewFrequencyResponse(fStart, fStop float64, nPoints int, opts ...Option) *FrequencyResponse {
	return &FrequencyResponse{
		BaseAnalysis: *NewBaseAnalysis(opts...),
		startFreq:    fStart,
		stopFreq:     fStop,
		numPoints:    nPoints,
	}
}

func (ac *FrequencyResponse) Setup(ckt *circuit.Circuit) error {
	ac.Circuit = ckt

	freqs, err := Frequencies(ac.opts.spacing, ac.startFreq, ac.stopFreq, ac.numPoints)
	if err != nil {
		return err
	}
	ac.frequencies = freqs

	return nil
}

func (ac *FrequencyResponse) Execute() error {
	if ac.Circuit == nil {
		return fmt.Errorf("circuit not set")
	}
	if err := ac.begin(); err != nil {
		return err
	}

	res, err := sweep(ac.Circuit.GetDevices(), ac.frequencies, ac.opts)
	if err != nil {
		return fmt.Errorf("ac sweep: %w", err)
	}
	ac.sweep = res

	voltages := make([]complex128, len(res.Voltages))
	currents := make([]complex128, len(res.Currents))
	for k, freq := range res.Frequencies {
		for i := range res.Voltages {
			voltages[i] = res.Voltages[i][k]
		}
		for e := range res.Currents {
			currents[e] = res.Currents[e][k]
		}
		ac.StoreACResult(freq, circuit.Solution(ac.Circuit, voltages, currents))
	}

	return nil
}

// Sweep returns the raw complex series of the last Execute.
func (ac *FrequencyResponse) Sweep() *SweepResult { return ac.sweep }

func (ac *FrequencyResponse) Spacing() Spacing { return ac.opts.spacing }
