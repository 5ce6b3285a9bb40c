package mna

import (
	"fmt"
	"io"
	"math/cmplx"

	"go.uber.org/zap"

	"github.com/edp1096/toy-acdc/pkg/matrix"
)

// Stamper is the write surface elements stamp onto.
type Stamper[T matrix.Scalar] interface {
	AddSymmetricGroup1(n1, n2 int, x1, x2 T) error
	AddSymmetricGroup2(n1, n2, e int, x1, x2, y T) error
	AddUnsymmetricRightGroup2(n1, n2, e int, x1, x2, y T) error
	AddUnsymmetricBottomGroup2(n1, n2, e int, x1, x2, y T) error
	AddGroup2Value(e1, e2 int, y T) error
	AddTransconductance(p, n, cp, cn int, g T) error
	AddRHSGroup1(n int, x T) error
	AddRHSGroup2(e int, x T) error
	Reserve(node, edge int)
}

var _ Stamper[float64] = (*Builder[float64])(nil)
var _ Stamper[complex128] = (*Builder[complex128])(nil)

// Builder accumulates stamps until Assemble hands the system over.
type Builder[T matrix.Scalar] struct {
	m        *Matrix[T]
	rhs      *RHS[T]
	consumed bool
	logger   *zap.Logger
}

func NewBuilder[T matrix.Scalar](logger *zap.Logger) *Builder[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder[T]{
		m:      NewMatrix[T](),
		rhs:    NewRHS[T](),
		logger: logger,
	}
}

func (b *Builder[T]) NumVoltageNodes() int { return b.m.NumVoltageNodes() }
func (b *Builder[T]) NumCurrentEdges() int { return b.m.NumCurrentEdges() }
func (b *Builder[T]) Get(row, col int) T   { return b.m.Get(row, col) }

// Reserve is ignored once the builder is consumed.
func (b *Builder[T]) Reserve(node, edge int) {
	if b.consumed {
		return
	}
	b.m.Reserve(node, edge)
}

func (b *Builder[T]) check() error {
	if b.consumed {
		return ErrConsumed
	}
	return nil
}

func (b *Builder[T]) AddSymmetricGroup1(n1, n2 int, x1, x2 T) error {
	if err := b.check(); err != nil {
		return err
	}
	return b.m.AddSymmetricGroup1(n1, n2, x1, x2)
}

func (b *Builder[T]) AddSymmetricGroup2(n1, n2, e int, x1, x2, y T) error {
	if err := b.check(); err != nil {
		return err
	}
	return b.m.AddSymmetricGroup2(n1, n2, e, x1, x2, y)
}

func (b *Builder[T]) AddUnsymmetricRightGroup2(n1, n2, e int, x1, x2, y T) error {
	if err := b.check(); err != nil {
		return err
	}
	return b.m.AddUnsymmetricRightGroup2(n1, n2, e, x1, x2, y)
}

func (b *Builder[T]) AddUnsymmetricBottomGroup2(n1, n2, e int, x1, x2, y T) error {
	if err := b.check(); err != nil {
		return err
	}
	return b.m.AddUnsymmetricBottomGroup2(n1, n2, e, x1, x2, y)
}

func (b *Builder[T]) AddGroup2Value(e1, e2 int, y T) error {
	if err := b.check(); err != nil {
		return err
	}
	return b.m.AddGroup2Value(e1, e2, y)
}

func (b *Builder[T]) AddTransconductance(p, n, cp, cn int, g T) error {
	if err := b.check(); err != nil {
		return err
	}
	return b.m.AddTransconductance(p, n, cp, cn, g)
}

func (b *Builder[T]) AddRHSGroup1(n int, x T) error {
	if err := b.check(); err != nil {
		return err
	}
	if err := b.rhs.AddGroup1(n, x); err != nil {
		return err
	}
	b.m.Reserve(n, -1)
	return nil
}

func (b *Builder[T]) AddRHSGroup2(e int, x T) error {
	if err := b.check(); err != nil {
		return err
	}
	if err := b.rhs.AddGroup2(e, x); err != nil {
		return err
	}
	b.m.Reserve(0, e)
	return nil
}

// Assemble builds the square system and consumes the builder.
func (b *Builder[T]) Assemble() (*System[T], error) {
	if err := b.check(); err != nil {
		return nil, err
	}
	b.consumed = true

	nv, ne := b.m.NumVoltageNodes(), b.m.NumCurrentEdges()
	a, err := b.m.Build()
	if err != nil {
		return nil, fmt.Errorf("assembling matrix: %w", err)
	}
	rhs, err := b.rhs.Vector(nv, ne)
	if err != nil {
		return nil, fmt.Errorf("assembling rhs: %w", err)
	}

	b.logger.Debug("assembled MNA system",
		zap.Int("nodes", nv),
		zap.Int("edges", ne),
		zap.Int("nnz", a.Nnz()))

	return &System[T]{
		NumVoltageNodes: nv,
		NumCurrentEdges: ne,
		a:               a,
		rhs:             rhs,
		logger:          b.logger,
	}, nil
}

// System is an assembled MNA system awaiting its single solve.
type System[T matrix.Scalar] struct {
	NumVoltageNodes int
	NumCurrentEdges int
	a               *matrix.Matrix[T]
	rhs             []T
	solved          bool
	logger          *zap.Logger
}

func (s *System[T]) Matrix() *matrix.Matrix[T] { return s.a }
func (s *System[T]) RHS() []T                  { return s.rhs }

type Solution[T matrix.Scalar] struct {
	Voltages []T // node n at index n-1
	Currents []T // edge e at index e
}

// Solve factors and solves the system once, splitting the result into node
// voltages and branch currents. A second call fails with ErrConsumed.
func (s *System[T]) Solve(opts ...matrix.SolveOption) (*Solution[T], error) {
	if s.solved {
		return nil, ErrConsumed
	}
	s.solved = true

	opts = append([]matrix.SolveOption{matrix.WithLogger(s.logger)}, opts...)
	x, err := matrix.Solve(s.a, s.rhs, opts...)
	if err != nil {
		return nil, err
	}

	return &Solution[T]{
		Voltages: x[:s.NumVoltageNodes:s.NumVoltageNodes],
		Currents: x[s.NumVoltageNodes:],
	}, nil
}

// Print writes the system as one equation per row, node rows first.
func (s *System[T]) Print(w io.Writer) {
	n := s.NumVoltageNodes + s.NumCurrentEdges
	fmt.Fprintf(w, "\nCircuit Equations (%dx%d):\n", n, n)
	fmt.Fprintln(w, "Node equations 1..n, followed by branch equations")

	dense := s.a.Dense()
	for i := range n {
		fmt.Fprintf(w, "Equation %d:", i+1)
		for j := range n {
			if term := formatTerm(dense[i][j], j+1); term != "" {
				fmt.Fprintf(w, "  %s", term)
			}
		}
		fmt.Fprintf(w, " = %s\n", formatValue(s.rhs[i]))
	}
}

func formatTerm[T matrix.Scalar](v T, col int) string {
	var zero T
	if v == zero {
		return ""
	}
	switch x := any(v).(type) {
	case complex128:
		if imag(x) == 0 {
			return fmt.Sprintf("%+g*x%d", real(x), col)
		}
		return fmt.Sprintf("(%g + j%g)*x%d", real(x), imag(x), col)
	default:
		return fmt.Sprintf("%+g*x%d", x, col)
	}
}

func formatValue[T matrix.Scalar](v T) string {
	if x, ok := any(v).(complex128); ok {
		if cmplx.IsNaN(x) {
			return "NaN"
		}
		return fmt.Sprintf("%g + j%g", real(x), imag(x))
	}
	return fmt.Sprintf("%g", v)
}
