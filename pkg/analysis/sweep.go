package analysis

import (
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"

	"github.com/edp1096/toy-acdc/pkg/device"
)

type Spacing int

const (
	Linear Spacing = iota // numSteps points over [fStart, fEnd)
	Decade                // numSteps points per decade, fStart..fEnd inclusive
	Octave                // numSteps points per octave, fStart..fEnd inclusive
)

func (s Spacing) String() string {
	switch s {
	case Linear:
		return "LIN"
	case Decade:
		return "DEC"
	case Octave:
		return "OCT"
	default:
		return fmt.Sprintf("Spacing(%d)", int(s))
	}
}

func ParseSpacing(s string) (Spacing, error) {
	switch strings.ToUpper(s) {
	case "LIN":
		return Linear, nil
	case "DEC":
		return Decade, nil
	case "OCT":
		return Octave, nil
	}
	return 0, fmt.Errorf("invalid sweep type: %s", s)
}

// Frequencies generates the sample frequencies of a sweep.
func Frequencies(spacing Spacing, fStart, fEnd float64, numSteps int) ([]float64, error) {
	if numSteps < 1 {
		return nil, fmt.Errorf("sweep needs at least one point, got %d", numSteps)
	}
	if fEnd < fStart {
		return nil, fmt.Errorf("sweep end %g is below start %g", fEnd, fStart)
	}

	switch spacing {
	case Linear:
		// Span includes fEnd, so take one extra point and drop it.
		freqs := floats.Span(make([]float64, numSteps+1), fStart, fEnd)
		return freqs[:numSteps], nil

	case Decade, Octave:
		if fStart <= 0 {
			return nil, fmt.Errorf("%s sweep needs a positive start frequency, got %g", spacing, fStart)
		}
		base := 10.0
		if spacing == Octave {
			base = 2.0
		}

		span := math.Log(fEnd/fStart) / math.Log(base)
		n := int(math.Floor(span*float64(numSteps)+1e-9)) + 1
		exps := floats.Span(make([]float64, max(n, 2)), 0, float64(max(n, 2)-1)/float64(numSteps))[:n]

		freqs := make([]float64, n)
		for i, e := range exps {
			freqs[i] = fStart * math.Pow(base, e)
		}
		return freqs, nil
	}

	return nil, fmt.Errorf("unknown spacing %v", spacing)
}

// SweepResult holds one series per node and per branch, each indexed like
// Frequencies.
type SweepResult struct {
	Frequencies []float64
	Voltages    [][]complex128 // Voltages[n-1][k] is node n at Frequencies[k]
	Currents    [][]complex128 // Currents[e][k] is edge e at Frequencies[k]
}

// ACSweep records a fixed topology and solves it independently at every
// sample frequency.
type ACSweep struct {
	*recorded
	fStart, fEnd float64
	numSteps     int
	opts         options
}

func NewACSweep(fStart, fEnd float64, numSteps int, opts ...Option) *ACSweep {
	return &ACSweep{
		recorded: newRecorded(),
		fStart:   fStart,
		fEnd:     fEnd,
		numSteps: numSteps,
		opts:     newOptions(opts),
	}
}

func (s *ACSweep) AddIndependentVoltageSource(p, n, e int, mag, phase float64, opts ...ElementOption) error {
	cfg := s.config("V", opts)
	return s.addWithBranch(device.NewACVoltageSource(cfg.name, p, n, 0, mag, phase), e)
}

func (s *ACSweep) AddIndependentCurrentSource(p, n int, mag, phase float64, opts ...ElementOption) error {
	cfg := s.config("I", opts)
	return s.addWithBranch(device.NewACCurrentSource(cfg.name, p, n, 0, mag, phase), cfg.branch)
}

// Solve runs every sample and transposes the per-frequency solutions into
// per-signal series. A second call fails with ErrAlreadySolved.
func (s *ACSweep) Solve() (*SweepResult, error) {
	if err := s.consume(); err != nil {
		return nil, err
	}

	freqs, err := Frequencies(s.opts.spacing, s.fStart, s.fEnd, s.numSteps)
	if err != nil {
		return nil, err
	}
	return sweep(s.devices, freqs, s.opts)
}

func sweep(devices []device.Device, freqs []float64, o options) (*SweepResult, error) {
	o.logger.Debug("starting AC sweep",
		zap.Int("points", len(freqs)),
		zap.Int("workers", o.workers))

	voltages := make([][]complex128, len(freqs))
	currents := make([][]complex128, len(freqs))

	var g errgroup.Group
	g.SetLimit(o.workers)
	for k, freq := range freqs {
		g.Go(func() error {
			status := &device.CircuitStatus{Mode: device.ACAnalysis, Frequency: freq}
			sol, err := solveOnce[complex128](devices, status, o.logger)
			if err != nil {
				return fmt.Errorf("f=%g: %w", freq, err)
			}
			voltages[k], currents[k] = sol.Voltages, sol.Currents
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &SweepResult{
		Frequencies: freqs,
		Voltages:    transpose(voltages),
		Currents:    transpose(currents),
	}, nil
}

// transpose turns rows[k][i] into out[i][k]. Every row has the same length.
func transpose[T any](rows [][]T) [][]T {
	if len(rows) == 0 {
		return [][]T{}
	}

	out := make([][]T, len(rows[0]))
	for i := range out {
		out[i] = make([]T, len(rows))
		for k := range rows {
			out[i][k] = rows[k][i]
		}
	}
	return out
}
