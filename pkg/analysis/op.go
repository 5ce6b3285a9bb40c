package analysis

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/edp1096/toy-acdc/pkg/circuit"
	"github.com/edp1096/toy-acdc/pkg/device"
)

// DCAnalysis stamps each element on arrival and solves the real system once.
type DCAnalysis struct {
	*stamped[float64]
}

func NewDC(opts ...Option) *DCAnalysis {
	o := newOptions(opts)
	status := &device.CircuitStatus{Mode: device.OperatingPointAnalysis}
	return &DCAnalysis{stamped: newStamped[float64](status, o)}
}

// AddIndependentVoltageSource adds v(p) - v(n) = value with its current on edge e.
func (dc *DCAnalysis) AddIndependentVoltageSource(p, n, e int, value float64, opts ...ElementOption) error {
	cfg := dc.config("V", opts)
	return dc.addWithBranch(device.NewDCVoltageSource(cfg.name, p, n, value), e)
}

// AddIndependentCurrentSource drives value from p through the source into n.
func (dc *DCAnalysis) AddIndependentCurrentSource(p, n int, value float64, opts ...ElementOption) error {
	cfg := dc.config("I", opts)
	return dc.addWithBranch(device.NewDCCurrentSource(cfg.name, p, n, value), cfg.branch)
}

// Solve returns node voltages (node n at index n-1) and branch currents
// (edge e at index e). A second call fails with ErrAlreadySolved.
func (dc *DCAnalysis) Solve() (voltages, currents []float64, err error) {
	return dc.solve()
}

// OperatingPoint solves the DC operating point of a named circuit.
type OperatingPoint struct{ BaseAnalysis }

func NewOP(opts ...Option) *OperatingPoint {
	return &OperatingPoint{
		BaseAnalysis: *NewBaseAnalysis(opts...),
	}
}

func (op *OperatingPoint) Setup(ckt *circuit.Circuit) error {
	op.Circuit = ckt
	return nil
}

func (op *OperatingPoint) Execute() error {
	if op.Circuit == nil {
		return fmt.Errorf("circuit not set")
	}
	if err := op.begin(); err != nil {
		return err
	}

	status := &device.CircuitStatus{Mode: device.OperatingPointAnalysis}
	sol, err := solveOnce[float64](op.Circuit.GetDevices(), status, op.opts.logger)
	if err != nil {
		return fmt.Errorf("operating point: %w", err)
	}

	op.storeResults(sol.Voltages, sol.Currents)
	op.opts.logger.Debug("operating point solved", zap.Int("unknowns", len(sol.Voltages)+len(sol.Currents)))

	return nil
}

func (op *OperatingPoint) storeResults(voltages, currents []float64) {
	for name, value := range circuit.Solution(op.Circuit, voltages, currents) {
		op.results[name] = []float64{value}
	}
}
