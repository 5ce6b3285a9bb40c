package mna

import (
	"errors"
	"fmt"

	"github.com/edp1096/toy-acdc/pkg/matrix"
)

var (
	ErrSameNode     = errors.New("terminals must be different nodes")
	ErrInvalidIndex = errors.New("negative node or edge index")
	ErrConsumed     = errors.New("system already consumed")
)

// Matrix is the block-structured MNA matrix
//
//	| A1·Y11·A1ᵗ   A2  |
//	|   -A2ᵗ       Z22 |
//
// Node n maps to row/column n-1 of the top blocks; ground (0) is never written.
// Edge e maps to row/column e of the bottom blocks.
type Matrix[T matrix.Scalar] struct {
	numVoltageNodes int
	numCurrentEdges int
	topLeft         *matrix.Matrix[T]
	topRight        *matrix.Matrix[T]
	bottomLeft      *matrix.Matrix[T]
	bottomRight     *matrix.Matrix[T]
}

func NewMatrix[T matrix.Scalar]() *Matrix[T] {
	return &Matrix[T]{
		topLeft:     matrix.Empty[T](),
		topRight:    matrix.Empty[T](),
		bottomLeft:  matrix.Empty[T](),
		bottomRight: matrix.Empty[T](),
	}
}

func (m *Matrix[T]) NumVoltageNodes() int { return m.numVoltageNodes }
func (m *Matrix[T]) NumCurrentEdges() int { return m.numCurrentEdges }

// Uses the netlist node number, so node n occupies n rows.
func (m *Matrix[T]) updateNumVoltageNodes(n int) {
	m.numVoltageNodes = max(m.numVoltageNodes, n)
}

// e is a matrix index, so edge e needs e+1 rows.
func (m *Matrix[T]) updateNumCurrentEdges(e int) {
	m.numCurrentEdges = max(m.numCurrentEdges, e+1)
}

func checkPair(op string, n1, n2 int) error {
	if n1 < 0 || n2 < 0 {
		return fmt.Errorf("%s (%d, %d): %w", op, n1, n2, ErrInvalidIndex)
	}
	if n1 == n2 {
		return fmt.Errorf("%s (%d, %d): %w", op, n1, n2, ErrSameNode)
	}
	return nil
}

// AddSymmetricGroup1 accumulates x1 at (n1,n1), (n2,n2) and x2 at (n1,n2), (n2,n1)
// of the top-left block. Entries on a ground row or column are dropped.
func (m *Matrix[T]) AddSymmetricGroup1(n1, n2 int, x1, x2 T) error {
	if err := checkPair("symmetric group 1", n1, n2); err != nil {
		return err
	}

	m.updateNumVoltageNodes(n1)
	m.updateNumVoltageNodes(n2)

	if n1 != 0 {
		m.topLeft.Accumulate(n1-1, n1-1, x1)
	}
	if n2 != 0 {
		m.topLeft.Accumulate(n2-1, n2-1, x1)
	}
	if n1 != 0 && n2 != 0 {
		m.topLeft.Accumulate(n1-1, n2-1, x2)
		m.topLeft.Accumulate(n2-1, n1-1, x2)
	}

	return nil
}

// AddSymmetricGroup2 accumulates y at (e,e) of the bottom-right block, x1 at
// (n1,e)/(e,n1) and x2 at (n2,e)/(e,n2) of the off-diagonal blocks.
func (m *Matrix[T]) AddSymmetricGroup2(n1, n2, e int, x1, x2, y T) error {
	if err := m.checkGroup2("symmetric group 2", n1, n2, e); err != nil {
		return err
	}

	m.bottomRight.Accumulate(e, e, y)
	if n1 != 0 {
		m.topRight.Accumulate(n1-1, e, x1)
		m.bottomLeft.Accumulate(e, n1-1, x1)
	}
	if n2 != 0 {
		m.topRight.Accumulate(n2-1, e, x2)
		m.bottomLeft.Accumulate(e, n2-1, x2)
	}

	return nil
}

// AddUnsymmetricRightGroup2 is AddSymmetricGroup2 restricted to the top-right block.
func (m *Matrix[T]) AddUnsymmetricRightGroup2(n1, n2, e int, x1, x2, y T) error {
	if err := m.checkGroup2("unsymmetric right group 2", n1, n2, e); err != nil {
		return err
	}

	m.bottomRight.Accumulate(e, e, y)
	if n1 != 0 {
		m.topRight.Accumulate(n1-1, e, x1)
	}
	if n2 != 0 {
		m.topRight.Accumulate(n2-1, e, x2)
	}

	return nil
}

// AddUnsymmetricBottomGroup2 is AddSymmetricGroup2 restricted to the bottom-left block.
func (m *Matrix[T]) AddUnsymmetricBottomGroup2(n1, n2, e int, x1, x2, y T) error {
	if err := m.checkGroup2("unsymmetric bottom group 2", n1, n2, e); err != nil {
		return err
	}

	m.bottomRight.Accumulate(e, e, y)
	if n1 != 0 {
		m.bottomLeft.Accumulate(e, n1-1, x1)
	}
	if n2 != 0 {
		m.bottomLeft.Accumulate(e, n2-1, x2)
	}

	return nil
}

func (m *Matrix[T]) checkGroup2(op string, n1, n2, e int) error {
	if err := checkPair(op, n1, n2); err != nil {
		return err
	}
	if e < 0 {
		return fmt.Errorf("%s edge %d: %w", op, e, ErrInvalidIndex)
	}

	m.updateNumVoltageNodes(n1)
	m.updateNumVoltageNodes(n2)
	m.updateNumCurrentEdges(e)

	return nil
}

// AddGroup2Value accumulates y at (e1,e2) of the bottom-right block.
func (m *Matrix[T]) AddGroup2Value(e1, e2 int, y T) error {
	if e1 < 0 || e2 < 0 {
		return fmt.Errorf("group 2 value (%d, %d): %w", e1, e2, ErrInvalidIndex)
	}

	m.updateNumCurrentEdges(e1)
	m.updateNumCurrentEdges(e2)
	m.bottomRight.Accumulate(e1, e2, y)

	return nil
}

// AddTransconductance couples the current leaving p (entering n) to the
// voltage across (cp, cn): g at (p,cp), (n,cn) and -g at (p,cn), (n,cp).
func (m *Matrix[T]) AddTransconductance(p, n, cp, cn int, g T) error {
	if err := checkPair("transconductance output", p, n); err != nil {
		return err
	}
	if err := checkPair("transconductance control", cp, cn); err != nil {
		return err
	}

	for _, node := range []int{p, n, cp, cn} {
		m.updateNumVoltageNodes(node)
	}

	add := func(row, col int, value T) {
		if row != 0 && col != 0 {
			m.topLeft.Accumulate(row-1, col-1, value)
		}
	}
	add(p, cp, g)
	add(p, cn, -g)
	add(n, cp, -g)
	add(n, cn, g)

	return nil
}

// Reserve grows the tracked dimensions without writing, so an allocated node
// or edge still owns a row and column. Pass a negative value to skip either.
func (m *Matrix[T]) Reserve(node, edge int) {
	if node > 0 {
		m.updateNumVoltageNodes(node)
	}
	if edge >= 0 {
		m.updateNumCurrentEdges(edge)
	}
}

// Get reads the assembled coordinate (row, col) without assembling.
func (m *Matrix[T]) Get(row, col int) T {
	nv := m.numVoltageNodes
	switch {
	case row < nv && col < nv:
		return m.topLeft.Get(row, col)
	case row < nv:
		return m.topRight.Get(row, col-nv)
	case col < nv:
		return m.bottomLeft.Get(row-nv, col)
	default:
		return m.bottomRight.Get(row-nv, col-nv)
	}
}

// Build resizes every block to the tracked dimensions and concatenates them
// into one square matrix of order NumVoltageNodes+NumCurrentEdges.
func (m *Matrix[T]) Build() (*matrix.Matrix[T], error) {
	nv, ne := m.numVoltageNodes, m.numCurrentEdges

	m.topLeft.Resize(nv, nv)
	m.topRight.Resize(nv, ne)
	m.bottomLeft.Resize(ne, nv)
	m.bottomRight.Resize(ne, ne)

	top, err := matrix.ConcatHorizontal(m.topLeft, m.topRight)
	if err != nil {
		return nil, fmt.Errorf("top blocks: %w", err)
	}
	bottom, err := matrix.ConcatHorizontal(m.bottomLeft, m.bottomRight)
	if err != nil {
		return nil, fmt.Errorf("bottom blocks: %w", err)
	}

	return matrix.ConcatVertical(top, bottom)
}
