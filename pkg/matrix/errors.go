package matrix

import (
	"errors"
	"fmt"
)

var (
	ErrDimension = errors.New("dimension mismatch")
	ErrSingular  = errors.New("singular system")
)

type DimensionError struct {
	Op   string
	Want int
	Got  int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("%s: dimension mismatch (want %d, got %d)", e.Op, e.Want, e.Got)
}

func (e *DimensionError) Is(target error) bool { return target == ErrDimension }

// SingularError identifies the equation (0-based row/column of the system)
// at which factorization could not find a pivot. Equation is -1 when unknown.
type SingularError struct {
	Equation int
	Reason   string
	Err      error
}

func (e *SingularError) Error() string {
	msg := fmt.Sprintf("singular system at equation %d", e.Equation)
	if e.Equation < 0 {
		msg = "singular system"
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *SingularError) Is(target error) bool { return target == ErrSingular }

func (e *SingularError) Unwrap() error { return e.Err }
