package mna

import (
	"fmt"

	"github.com/edp1096/toy-acdc/pkg/matrix"
)

// RHS is the MNA right-hand side
//
//	| -A1·s1 |
//	|   s2   |
type RHS[T matrix.Scalar] struct {
	top    *matrix.Matrix[T]
	bottom *matrix.Matrix[T]
}

func NewRHS[T matrix.Scalar]() *RHS[T] {
	return &RHS[T]{
		top:    matrix.Empty[T](),
		bottom: matrix.Empty[T](),
	}
}

// AddGroup1 accumulates a node current injection. Ground injections are dropped.
func (r *RHS[T]) AddGroup1(n int, x T) error {
	if n < 0 {
		return fmt.Errorf("rhs node %d: %w", n, ErrInvalidIndex)
	}
	if n != 0 {
		r.top.Accumulate(n-1, 0, x)
	}
	return nil
}

// AddGroup2 accumulates a branch constraint value.
func (r *RHS[T]) AddGroup2(e int, x T) error {
	if e < 0 {
		return fmt.Errorf("rhs edge %d: %w", e, ErrInvalidIndex)
	}
	r.bottom.Accumulate(e, 0, x)
	return nil
}

// Vector concatenates both segments into a dense vector of length nodes+edges.
func (r *RHS[T]) Vector(numVoltageNodes, numCurrentEdges int) ([]T, error) {
	if r.top.Rows() > numVoltageNodes {
		return nil, &matrix.DimensionError{Op: "rhs top segment", Want: numVoltageNodes, Got: r.top.Rows()}
	}
	if r.bottom.Rows() > numCurrentEdges {
		return nil, &matrix.DimensionError{Op: "rhs bottom segment", Want: numCurrentEdges, Got: r.bottom.Rows()}
	}

	out := make([]T, numVoltageNodes+numCurrentEdges)
	for _, e := range r.top.NonZeros() {
		out[e.Row] = e.Value
	}
	for _, e := range r.bottom.NonZeros() {
		out[numVoltageNodes+e.Row] = e.Value
	}

	return out, nil
}
