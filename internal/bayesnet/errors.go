package bayesnet

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by this package is an *Error whose Kind
// is one of these, so callers match with errors.Is.
var (
	ErrDuplicateVariable          = errors.New("duplicate variable")
	ErrInvalidDomain              = errors.New("invalid state domain")
	ErrUnknownVariable            = errors.New("unknown variable")
	ErrDuplicateArc               = errors.New("duplicate arc")
	ErrCyclicGraph                = errors.New("arc would create a cycle")
	ErrTableTooLarge              = errors.New("probability table too large")
	ErrInvalidDistribution        = errors.New("invalid distribution")
	ErrInvalidParentAssignment    = errors.New("invalid parent assignment")
	ErrMissingParentConfiguration = errors.New("missing parent configuration")
	ErrIncompleteNetwork          = errors.New("incomplete network")
	ErrNetworkAlreadyCompiled     = errors.New("network already compiled")
	ErrNetworkNotCompiled         = errors.New("network not compiled")
	ErrInvalidState               = errors.New("invalid state")
	ErrZeroProbabilityEvidence    = errors.New("evidence has zero probability")
	ErrNumerical                  = errors.New("numerical error")
)

// Error is a failed network operation.
type Error struct {
	Op       string // operation that failed, e.g. "add arc"
	Kind     error  // one of the Err* kinds above
	Variable string // variable involved, if any
	Detail   string
	Err      error // underlying cause, if any
}

func (e *Error) Error() string {
	msg := e.Op + ": " + e.Kind.Error()
	if e.Variable != "" {
		msg += fmt.Sprintf(" %q", e.Variable)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is reports whether target is this error's kind.
func (e *Error) Is(target error) bool {
	return e.Kind == target
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(op string, kind error, variable string, format string, args ...any) *Error {
	e := &Error{Op: op, Kind: kind, Variable: variable}
	if format != "" {
		e.Detail = fmt.Sprintf(format, args...)
	}
	return e
}
