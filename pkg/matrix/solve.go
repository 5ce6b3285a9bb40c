package matrix

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/edp1096/sparse"
	"go.uber.org/zap"
)

type SolveOption func(*solveOptions)

type solveOptions struct {
	logger   *zap.Logger
	annotate int
}

func WithLogger(logger *zap.Logger) SolveOption {
	return func(o *solveOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithAnnotate forwards the sparse package annotation level (0: none, 2: full).
func WithAnnotate(level int) SolveOption {
	return func(o *solveOptions) { o.annotate = level }
}

// luMatrix holds one factorization of a circuit system, 1-based as sparse expects.
type luMatrix struct {
	size      int
	matrix    *sparse.Matrix
	isComplex bool
}

func newLUMatrix(size int, isComplex bool, annotate int) (*luMatrix, error) {
	config := &sparse.Configuration{
		Real:                    true,
		Complex:                 isComplex,
		SeparatedComplexVectors: false,
		Expandable:              true,
		Translate:               false,
		ModifiedNodal:           true,
		TiesMultiplier:          5,
		PrinterWidth:            140,
		Annotate:                annotate,
	}

	mat, err := sparse.Create(int64(size), config)
	if err != nil {
		return nil, fmt.Errorf("creating sparse matrix: %w", err)
	}

	return &luMatrix{size: size, matrix: mat, isComplex: isComplex}, nil
}

func (m *luMatrix) addElement(i, j int, value float64) {
	m.matrix.GetElement(int64(i), int64(j)).Real += value
}

func (m *luMatrix) addComplexElement(i, j int, real, imag float64) {
	element := m.matrix.GetElement(int64(i), int64(j))
	element.Real += real
	element.Imag += imag
}

func (m *luMatrix) factor() error {
	err := m.matrix.Factor()
	if err == nil {
		return nil
	}

	equation := -1
	if col := m.matrix.SingularCol; col > 0 && int(col) < len(m.matrix.IntToExtColMap) {
		equation = int(m.matrix.IntToExtColMap[col]) - 1
	}
	return &SingularError{Equation: equation, Reason: "factorization failed", Err: err}
}

func (m *luMatrix) destroy() {
	if m.matrix != nil {
		m.matrix.Destroy()
	}
}

// Solve factors a with a Markowitz-ordered sparse LU and solves a·x = rhs.
// The matrix is consumed by the factorization; callers must not reuse it.
func Solve[T Scalar](a *Matrix[T], rhs []T, opts ...SolveOption) ([]T, error) {
	o := solveOptions{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	if a.Rows() != a.Cols() {
		return nil, &DimensionError{Op: "solve (square matrix)", Want: a.Rows(), Got: a.Cols()}
	}
	if a.Rows() != len(rhs) {
		return nil, &DimensionError{Op: "solve (rhs length)", Want: a.Rows(), Got: len(rhs)}
	}
	if len(rhs) == 0 {
		return []T{}, nil
	}

	switch am := any(a).(type) {
	case *Matrix[float64]:
		x, err := solveReal(am.ToCSC(), any(rhs).([]float64), o)
		if err != nil {
			return nil, err
		}
		return any(x).([]T), nil

	case *Matrix[complex128]:
		x, err := solveComplex(am.ToCSC(), any(rhs).([]complex128), o)
		if err != nil {
			return nil, err
		}
		return any(x).([]T), nil
	}

	return nil, fmt.Errorf("unsupported scalar type %T", a)
}

func solveReal(c *CSC[float64], b []float64, o solveOptions) ([]float64, error) {
	if serr := c.StructuralCheck(); serr != nil {
		return nil, serr
	}

	mat, err := newLUMatrix(c.Cols, false, o.annotate)
	if err != nil {
		return nil, err
	}
	defer mat.destroy()

	for j := range c.Cols {
		c.Column(j, func(row int, value float64) {
			mat.addElement(row+1, j+1, value)
		})
	}

	rhs := make([]float64, c.Rows+1) // 1-based indexing
	copy(rhs[1:], b)

	o.logger.Debug("factoring real system", zap.Int("size", c.Cols), zap.Int("nnz", c.Nnz()))
	if err := mat.factor(); err != nil {
		return nil, err
	}

	solution, err := mat.matrix.Solve(rhs)
	if err != nil {
		return nil, fmt.Errorf("matrix solve failed: %w", err)
	}

	x := make([]float64, c.Cols)
	for i := range x {
		x[i] = solution[i+1]
		if math.IsNaN(x[i]) || math.IsInf(x[i], 0) {
			return nil, &SingularError{Equation: i, Reason: "non-finite solution"}
		}
	}

	return x, nil
}

func solveComplex(c *CSC[complex128], b []complex128, o solveOptions) ([]complex128, error) {
	if serr := c.StructuralCheck(); serr != nil {
		return nil, serr
	}

	mat, err := newLUMatrix(c.Cols, true, o.annotate)
	if err != nil {
		return nil, err
	}
	defer mat.destroy()

	for j := range c.Cols {
		c.Column(j, func(row int, value complex128) {
			mat.addComplexElement(row+1, j+1, real(value), imag(value))
		})
	}

	// Interleaved real/imag pairs, 1-based
	rhs := make([]float64, 2*(c.Rows+1))
	for i, v := range b {
		rhs[2*(i+1)] = real(v)
		rhs[2*(i+1)+1] = imag(v)
	}

	o.logger.Debug("factoring complex system", zap.Int("size", c.Cols), zap.Int("nnz", c.Nnz()))
	if err := mat.factor(); err != nil {
		return nil, err
	}

	solution, _, err := mat.matrix.SolveComplex(rhs, nil)
	if err != nil {
		return nil, fmt.Errorf("matrix solve failed: %w", err)
	}

	x := make([]complex128, c.Cols)
	for i := range x {
		x[i] = complex(solution[2*(i+1)], solution[2*(i+1)+1])
		if cmplx.IsNaN(x[i]) || cmplx.IsInf(x[i]) {
			return nil, &SingularError{Equation: i, Reason: "non-finite solution"}
		}
	}

	return x, nil
}
