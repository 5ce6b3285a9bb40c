package analysis

import (
	"fmt"
	"math"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"

	"github.com/edp1096/toy-acdc/pkg/circuit"
	"github.com/edp1096/toy-acdc/pkg/device"
)

// SweepValues lists start, start+step, ... up to stop inclusive.
func SweepValues(start, stop, step float64) ([]float64, error) {
	if step == 0 || math.IsNaN(step) {
		return nil, fmt.Errorf("invalid sweep increment %g", step)
	}
	if (stop-start)/step < 0 {
		return nil, fmt.Errorf("increment %g never reaches %g from %g", step, stop, start)
	}

	n := int(math.Floor((stop-start)/step+1e-9)) + 1
	if n == 1 {
		return []float64{start}, nil
	}
	last := start + float64(n-1)*step
	return floats.Span(make([]float64, n), start, last), nil
}

// sweepable is a source whose DC value can be swept.
type sweepable interface {
	device.Device
	SetValue(float64)
}

func findSource(devices []device.Device, name string) (sweepable, error) {
	for _, dev := range devices {
		if dev.GetName() != name {
			continue
		}
		switch src := dev.(type) {
		case *device.VoltageSource:
			return src, nil
		case *device.CurrentSource:
			return src, nil
		}
		return nil, fmt.Errorf("%s is not an independent source", name)
	}
	return nil, fmt.Errorf("source %s not found", name)
}

// DCSweepResult holds one series per node and per branch, indexed like Values.
type DCSweepResult struct {
	Values   []float64
	Voltages [][]float64
	Currents [][]float64
}

// DCSweep re-solves the DC system once per value of one named source.
type DCSweep struct {
	*recorded
	sourceName string
	start      float64
	stop       float64
	increment  float64
	opts       options
}

func NewDCSweep(source string, start, stop, increment float64, opts ...Option) *DCSweep {
	return &DCSweep{
		recorded:   newRecorded(),
		sourceName: source,
		start:      start,
		stop:       stop,
		increment:  increment,
		opts:       newOptions(opts),
	}
}

func (dc *DCSweep) AddIndependentVoltageSource(p, n, e int, value float64, opts ...ElementOption) error {
	cfg := dc.config("V", opts)
	return dc.addWithBranch(device.NewDCVoltageSource(cfg.name, p, n, value), e)
}

func (dc *DCSweep) AddIndependentCurrentSource(p, n int, value float64, opts ...ElementOption) error {
	cfg := dc.config("I", opts)
	return dc.addWithBranch(device.NewDCCurrentSource(cfg.name, p, n, value), cfg.branch)
}

func (dc *DCSweep) Solve() (*DCSweepResult, error) {
	if err := dc.consume(); err != nil {
		return nil, err
	}
	return sweepSource(dc.devices, dc.sourceName, dc.start, dc.stop, dc.increment, dc.opts.logger)
}

// sweepSource solves sequentially, since every point mutates the shared
// source. The original value is restored afterwards.
func sweepSource(devices []device.Device, name string, start, stop, step float64, logger *zap.Logger) (*DCSweepResult, error) {
	source, err := findSource(devices, name)
	if err != nil {
		return nil, err
	}
	values, err := SweepValues(start, stop, step)
	if err != nil {
		return nil, err
	}

	orig := source.GetValue()
	defer source.SetValue(orig)

	logger.Debug("starting DC sweep", zap.String("source", name), zap.Int("points", len(values)))

	voltages := make([][]float64, len(values))
	currents := make([][]float64, len(values))
	status := &device.CircuitStatus{Mode: device.DCSweep}
	for k, val := range values {
		source.SetValue(val)

		sol, err := solveOnce[float64](devices, status, logger)
		if err != nil {
			return nil, fmt.Errorf("%s=%g: %w", name, val, err)
		}
		voltages[k], currents[k] = sol.Voltages, sol.Currents
	}

	return &DCSweepResult{
		Values:   values,
		Voltages: transpose(voltages),
		Currents: transpose(currents),
	}, nil
}

// DCTransfer runs a .dc sweep over a named circuit.
type DCTransfer struct {
	BaseAnalysis
	sourceName string
	start      float64
	stop       float64
	increment  float64
}

func NewDCTransfer(source string, start, stop, increment float64, opts ...Option) *DCTransfer {
	return &DCTransfer{
		BaseAnalysis: *NewBaseAnalysis(opts...),
		sourceName:   source,
		start:        start,
		stop:         stop,
		increment:    increment,
	}
}

func (dc *DCTransfer) Setup(ckt *circuit.Circuit) error {
	dc.Circuit = ckt
	_, err := findSource(ckt.GetDevices(), dc.sourceName)
	return err
}

func (dc *DCTransfer) Execute() error {
	if dc.Circuit == nil {
		return fmt.Errorf("circuit not set")
	}
	if err := dc.begin(); err != nil {
		return err
	}

	res, err := sweepSource(dc.Circuit.GetDevices(), dc.sourceName, dc.start, dc.stop, dc.increment, dc.opts.logger)
	if err != nil {
		return fmt.Errorf("dc sweep: %w", err)
	}

	voltages := make([]float64, len(res.Voltages))
	currents := make([]float64, len(res.Currents))
	for k, val := range res.Values {
		for i := range res.Voltages {
			voltages[i] = res.Voltages[i][k]
		}
		for e := range res.Currents {
			currents[e] = res.Currents[e][k]
		}
		dc.StoreResult("SWEEP1", val, circuit.Solution(dc.Circuit, voltages, currents))
	}

	return nil
}

func (dc *DCTransfer) SourceName() string { return dc.sourceName }
