package rsp

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrOracleFailure is returned when a relaxation or exact oracle does not
	// reach optimality or returns a malformed solution.
	ErrOracleFailure = errors.New("oracle failure")

	// ErrNumericalInfeasibility aborts the primal-dual algorithm when a dual
	// slack falls below the feasibility tolerance.
	ErrNumericalInfeasibility = errors.New("numerical infeasibility")

	// ErrInputInvariant is returned before any algorithm step runs.
	ErrInputInvariant = errors.New("input invariant violation")

	// ErrPoolExhausted means the last max-min block cannot be filled to size p.
	ErrPoolExhausted = errors.New("block fill pool exhausted")
)

// OracleError carries the failing backend and the underlying solver error or
// status.
type OracleError struct {
	Backend string
	Err     error
}

func NewOracleError(backend string, err error) error {
	return errors.WithStack(&OracleError{Backend: backend, Err: err})
}

func (e *OracleError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrOracleFailure, e.Backend, e.Err)
}

func (e *OracleError) Unwrap() error { return e.Err }

func (e *OracleError) Is(target error) bool { return target == ErrOracleFailure }

// NumericalError reports the slack that broke dual feasibility.
type NumericalError struct {
	Iteration int
	Item      int
	Slack     float64
	Tolerance float64
}

func (e *NumericalError) Error() string {
	return fmt.Sprintf("%s: iteration %d, item %d has slack %g below -%g",
		ErrNumericalInfeasibility, e.Iteration, e.Item+1, e.Slack, e.Tolerance)
}

func (e *NumericalError) Is(target error) bool { return target == ErrNumericalInfeasibility }

func invariantf(format string, args ...any) error {
	return errors.Wrapf(ErrInputInvariant, format, args...)
}
