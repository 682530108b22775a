// Package failure classifies pipeline errors so operators can tell bad input
// data apart from numerical trouble.
package failure

import (
	"errors"
	"fmt"
)

// Kind is the operator-facing category of a pipeline error.
type Kind string

const (
	KindUnknown   Kind = "unknown"
	KindInput     Kind = "input"     // missing columns, unparseable rows, empty tables
	KindNumerical Kind = "numerical" // degenerate normalisation, non-convergence
	KindConfig    Kind = "config"    // invalid limits or options
)

// Error wraps an underlying error with its Kind and the operation that failed.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s error: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Input marks err as a bad-input failure.
func Input(op string, err error) error {
	return wrap(KindInput, op, err)
}

// Numerical marks err as a numerical failure.
func Numerical(op string, err error) error {
	return wrap(KindNumerical, op, err)
}

// Config marks err as a configuration failure.
func Config(op string, err error) error {
	return wrap(KindConfig, op, err)
}

func wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the Kind of the outermost classified error in err's chain.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindUnknown
}

// ExitCode maps an error to the CLI process exit status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	switch KindOf(err) {
	case KindInput:
		return 2
	case KindNumerical:
		return 3
	case KindConfig:
		return 4
	default:
		return 1
	}
}
