package analysis

import (
	"fmt"
	"io"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/edp1096/toy-acdc/internal/consts"
	"github.com/edp1096/toy-acdc/pkg/circuit"
	"github.com/edp1096/toy-acdc/pkg/device"
	"github.com/edp1096/toy-acdc/pkg/matrix"
	"github.com/edp1096/toy-acdc/pkg/mna"
)

type ElementOption func(*elementConfig)

type elementConfig struct {
	name   string
	branch int
}

// WithBranch gives the element an explicit group 2 current on edge e.
func WithBranch(e int) ElementOption {
	return func(c *elementConfig) { c.branch = e }
}

func WithName(name string) ElementOption {
	return func(c *elementConfig) { c.name = name }
}

// elements builds devices from plain node and edge indices and hands each
// one to add.
type elements struct {
	add   func(device.Device) error
	count map[string]int
}

func newElements(add func(device.Device) error) elements {
	return elements{add: add, count: make(map[string]int)}
}

func (e *elements) config(kind string, opts []ElementOption) elementConfig {
	e.count[kind]++
	cfg := elementConfig{
		name:   fmt.Sprintf("%s%d", kind, e.count[kind]),
		branch: consts.NO_BRANCH,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

type branchSetter interface {
	SetBranchIndex(int)
}

func (e *elements) addWithBranch(dev device.Device, branch int) error {
	if branch != consts.NO_BRANCH {
		dev.(branchSetter).SetBranchIndex(branch)
	}
	return e.add(dev)
}

func (e *elements) AddDevice(dev device.Device) error {
	return e.add(dev)
}

func (e *elements) AddResistor(n1, n2 int, r float64, opts ...ElementOption) error {
	cfg := e.config("R", opts)
	return e.addWithBranch(device.NewResistor(cfg.name, n1, n2, r), cfg.branch)
}

func (e *elements) AddCapacitor(n1, n2 int, c float64, opts ...ElementOption) error {
	cfg := e.config("C", opts)
	return e.addWithBranch(device.NewCapacitor(cfg.name, n1, n2, c), cfg.branch)
}

// AddInductor needs WithBranch for any analysis that includes DC.
func (e *elements) AddInductor(n1, n2 int, l float64, opts ...ElementOption) error {
	cfg := e.config("L", opts)
	return e.addWithBranch(device.NewInductor(cfg.name, n1, n2, l), cfg.branch)
}

// AddVCVS adds v(p,n) = gain * v(cp,cn) on edge e.
func (e *elements) AddVCVS(p, n, cp, cn, edge int, gain float64, opts ...ElementOption) error {
	cfg := e.config("E", opts)
	return e.addWithBranch(device.NewVCVS(cfg.name, p, n, cp, cn, gain), edge)
}

// AddCCCS adds i(p->n) = gain * i(ctrl), ctrl being an edge index.
func (e *elements) AddCCCS(p, n, ctrl int, gain float64, opts ...ElementOption) error {
	cfg := e.config("F", opts)
	f := device.NewCCCS(cfg.name, p, n, fmt.Sprintf("edge %d", ctrl), gain)
	f.SetControlBranch(ctrl)
	return e.add(f)
}

func (e *elements) AddVCCS(p, n, cp, cn int, gm float64, opts ...ElementOption) error {
	cfg := e.config("G", opts)
	return e.add(device.NewVCCS(cfg.name, p, n, cp, cn, gm))
}

// AddCCVS adds v(p,n) = gain * i(ctrl) on edge e.
func (e *elements) AddCCVS(p, n, edge, ctrl int, gain float64, opts ...ElementOption) error {
	cfg := e.config("H", opts)
	h := device.NewCCVS(cfg.name, p, n, fmt.Sprintf("edge %d", ctrl), gain)
	h.SetControlBranch(ctrl)
	return e.addWithBranch(h, edge)
}

// stamped writes every element into one builder as soon as it is added.
type stamped[T matrix.Scalar] struct {
	elements
	builder *mna.Builder[T]
	status  *device.CircuitStatus
	solved  bool
	err     error // first rejected element
	logger  *zap.Logger
}

func newStamped[T matrix.Scalar](status *device.CircuitStatus, o options) *stamped[T] {
	s := &stamped[T]{
		builder: mna.NewBuilder[T](o.logger),
		status:  status,
		logger:  o.logger,
	}
	s.elements = newElements(s.stamp)
	return s
}

func (s *stamped[T]) stamp(dev device.Device) error {
	if s.solved {
		return ErrAlreadySolved
	}
	if err := device.Stamp[T](s.builder, dev, s.status); err != nil {
		if s.err == nil {
			s.err = err
		}
		return err
	}
	return nil
}

func (s *stamped[T]) solve() ([]T, []T, error) {
	if s.solved {
		return nil, nil, ErrAlreadySolved
	}
	s.solved = true
	if s.err != nil {
		return nil, nil, fmt.Errorf("rejected element: %w", s.err)
	}

	sys, err := s.builder.Assemble()
	if err != nil {
		return nil, nil, err
	}
	sol, err := sys.Solve()
	if err != nil {
		return nil, nil, err
	}

	s.logger.Debug("solved",
		zap.Stringer("mode", s.status.Mode),
		zap.Float64("frequency", s.status.Frequency),
		zap.Int("nodes", len(sol.Voltages)),
		zap.Int("edges", len(sol.Currents)))

	return sol.Voltages, sol.Currents, nil
}

// recorded keeps elements for repeated assembly.
type recorded struct {
	elements
	devices []device.Device
	solved  bool
}

func newRecorded() *recorded {
	r := &recorded{}
	r.elements = newElements(r.record)
	return r
}

func (r *recorded) record(dev device.Device) error {
	if r.solved {
		return ErrAlreadySolved
	}
	r.devices = append(r.devices, dev)
	return nil
}

func (r *recorded) consume() error {
	if r.solved {
		return ErrAlreadySolved
	}
	r.solved = true
	return nil
}

// topology returns the highest node index and the highest edge index the
// devices reference.
func topology(devices []device.Device) (maxNode, maxEdge int) {
	maxEdge = consts.NO_BRANCH
	for _, dev := range devices {
		for _, n := range dev.GetNodes() {
			maxNode = max(maxNode, n)
		}
		if e, ok := dev.BranchIndex(); ok {
			maxEdge = max(maxEdge, e)
		}
		switch d := dev.(type) {
		case *device.CCCS:
			maxEdge = max(maxEdge, d.ControlBranch)
		case *device.CCVS:
			maxEdge = max(maxEdge, d.ControlBranch)
		}
	}
	return maxNode, maxEdge
}

// Assemble stamps devices into a fresh system. Every call with the same
// devices yields a system of the same order.
func Assemble[T matrix.Scalar](devices []device.Device, status *device.CircuitStatus, logger *zap.Logger) (*mna.System[T], error) {
	b := mna.NewBuilder[T](logger)
	b.Reserve(topology(devices))

	var errs error
	for _, dev := range devices {
		errs = multierr.Append(errs, device.Stamp[T](b, dev, status))
	}
	if errs != nil {
		return nil, errs
	}

	return b.Assemble()
}

func solveOnce[T matrix.Scalar](devices []device.Device, status *device.CircuitStatus, logger *zap.Logger) (*mna.Solution[T], error) {
	sys, err := Assemble[T](devices, status, logger)
	if err != nil {
		return nil, err
	}
	return sys.Solve()
}

// PrintSystem writes the equations of ckt as the given analysis would first
// assemble them. AC systems are printed at the status frequency.
func PrintSystem(w io.Writer, ckt *circuit.Circuit, status *device.CircuitStatus, logger *zap.Logger) error {
	if status.IsAC() {
		sys, err := Assemble[complex128](ckt.GetDevices(), status, logger)
		if err != nil {
			return err
		}
		sys.Print(w)
		return nil
	}

	sys, err := Assemble[float64](ckt.GetDevices(), status, logger)
	if err != nil {
		return err
	}
	sys.Print(w)
	return nil
}
