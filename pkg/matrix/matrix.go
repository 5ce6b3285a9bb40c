package matrix

import (
	"cmp"
	"slices"
)

// Scalar is the coefficient type of a circuit system: real for DC, complex for AC.
type Scalar interface {
	float64 | complex128
}

type Coord struct {
	Row int
	Col int
}

type Entry[T Scalar] struct {
	Row   int
	Col   int
	Value T
}

// Matrix is a coordinate-keyed sparse matrix. Dimensions only ever grow.
type Matrix[T Scalar] struct {
	rows    int
	cols    int
	entries map[Coord]T
}

func New[T Scalar](rows, cols int) *Matrix[T] {
	return &Matrix[T]{
		rows:    max(rows, 0),
		cols:    max(cols, 0),
		entries: make(map[Coord]T),
	}
}

func Empty[T Scalar]() *Matrix[T] {
	return New[T](0, 0)
}

func (m *Matrix[T]) Rows() int { return m.rows }
func (m *Matrix[T]) Cols() int { return m.cols }

// Get returns the stored value, or zero when the coordinate was never written.
func (m *Matrix[T]) Get(row, col int) T {
	return m.entries[Coord{row, col}]
}

// Set stores a value, growing the dimensions to include the coordinate.
func (m *Matrix[T]) Set(row, col int, value T) {
	if row < 0 || col < 0 {
		panic("matrix: negative index")
	}
	m.entries[Coord{row, col}] = value
	m.rows = max(m.rows, row+1)
	m.cols = max(m.cols, col+1)
}

// Accumulate adds delta to the value at (row, col).
func (m *Matrix[T]) Accumulate(row, col int, delta T) {
	m.Set(row, col, m.Get(row, col)+delta)
}

// ResizeRows grows the row count. Smaller requests leave the matrix unchanged.
func (m *Matrix[T]) ResizeRows(rows int) {
	m.rows = max(m.rows, rows)
}

func (m *Matrix[T]) ResizeCols(cols int) {
	m.cols = max(m.cols, cols)
}

func (m *Matrix[T]) Resize(rows, cols int) {
	m.ResizeRows(rows)
	m.ResizeCols(cols)
}

// NonZeros lists the entries with a nonzero value in row-major order.
func (m *Matrix[T]) NonZeros() []Entry[T] {
	var zero T

	out := make([]Entry[T], 0, len(m.entries))
	for c, v := range m.entries {
		if v != zero {
			out = append(out, Entry[T]{Row: c.Row, Col: c.Col, Value: v})
		}
	}
	slices.SortFunc(out, func(a, b Entry[T]) int {
		if n := cmp.Compare(a.Row, b.Row); n != 0 {
			return n
		}
		return cmp.Compare(a.Col, b.Col)
	})

	return out
}

func (m *Matrix[T]) Nnz() int {
	return len(m.NonZeros())
}

// Clone returns a deep copy.
func (m *Matrix[T]) Clone() *Matrix[T] {
	out := New[T](m.rows, m.cols)
	for c, v := range m.entries {
		out.entries[c] = v
	}
	return out
}

// Dense expands the matrix, row by row. Intended for small systems and reports.
func (m *Matrix[T]) Dense() [][]T {
	out := make([][]T, m.rows)
	for i := range out {
		out[i] = make([]T, m.cols)
	}
	for c, v := range m.entries {
		out[c.Row][c.Col] = v
	}
	return out
}
