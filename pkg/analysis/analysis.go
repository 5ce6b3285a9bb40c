package analysis

import (
	"errors"
	"math"
	"math/cmplx"

	"go.uber.org/zap"

	"github.com/edp1096/toy-acdc/pkg/circuit"
)

var ErrAlreadySolved = errors.New("analysis already solved")

// Analysis runs one directive against a circuit and reports named series.
type Analysis interface {
	Setup(ckt *circuit.Circuit) error
	Execute() error
	GetResults() map[string][]float64
}

type Option func(*options)

type options struct {
	logger  *zap.Logger
	workers int
	spacing Spacing
}

func newOptions(opts []Option) options {
	o := options{
		logger:  zap.NewNop(),
		workers: 1,
		spacing: Linear,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithWorkers bounds how many sweep samples are solved at once.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.workers = n
		}
	}
}

func WithSpacing(s Spacing) Option {
	return func(o *options) { o.spacing = s }
}

type BaseAnalysis struct {
	Circuit *circuit.Circuit
	results  map[string][]float64 // key: variable name, value: result by sweep point
	opts     options
	executed bool
}

func NewBaseAnalysis(opts ...Option) *BaseAnalysis {
	return &BaseAnalysis{
		results: make(map[string][]float64),
		opts:    newOptions(opts),
	}
}

// begin marks the analysis as run. Results are stored by a single Execute.
func (a *BaseAnalysis) begin() error {
	if a.executed {
		return ErrAlreadySolved
	}
	a.executed = true
	return nil
}

func (a *BaseAnalysis) StoreResult(key string, sweepVal float64, solution map[string]float64) {
	a.results[key] = append(a.results[key], sweepVal)
	for name, value := range solution {
		a.results[name] = append(a.results[name], value)
	}
}

func (a *BaseAnalysis) StoreACResult(freq float64, solution map[string]complex128) {
	a.results["FREQ"] = append(a.results["FREQ"], freq)

	for name, value := range solution {
		magName := name + "_MAG"
		a.results[magName] = append(a.results[magName], cmplx.Abs(value))

		// Phase - degree
		phaseName := name + "_PHASE"
		a.results[phaseName] = append(a.results[phaseName], phaseOf(value)*180.0/math.Pi)
	}
}

func (a *BaseAnalysis) GetResults() map[string][]float64 {
	return a.results
}
