package errors

import (
	"github.com/cockroachdb/errors"
)

// Exit codes returned by the CLI.
const (
	ExitCodeGeneric           = 1
	ExitCodeAllSourcesFailed  = 2
	ExitCodeMergeConflict     = 3
	ExitCodeFieldGroup        = 4
	ExitCodeMissingRequired   = 5
	ExitCodeInvalidInvocation = 64
)

// exitCoder wraps an error and specifies an exit code.
type exitCoder struct {
	cause error
	code  int
}

func (e *exitCoder) Error() string {
	return e.cause.Error()
}

func (e *exitCoder) Cause() error {
	return e.cause
}

func (e *exitCoder) Unwrap() error {
	return e.cause
}

// ExitCode returns the exit code.
func (e *exitCoder) ExitCode() int {
	return e.code
}

// WithExitCode attaches an exit code to an error.
// The exit code can be retrieved later using GetExitCode.
func WithExitCode(err error, code int) error {
	if err == nil {
		return nil
	}
	return &exitCoder{
		cause: err,
		code:  code,
	}
}

// GetExitCode extracts the exit code from an error chain.
// Returns 0 if err is nil, the attached code when present, otherwise a code
// derived from the sentinel the error is marked with, and 1 by default.
func GetExitCode(err error) int {
	if err == nil {
		return 0
	}

	var ec *exitCoder
	if errors.As(err, &ec) {
		return ec.ExitCode()
	}

	switch {
	case errors.Is(err, ErrAllSourcesFailed):
		return ExitCodeAllSourcesFailed
	case errors.Is(err, ErrMergeConflict):
		return ExitCodeMergeConflict
	case errors.Is(err, ErrFieldGroup):
		return ExitCodeFieldGroup
	case errors.Is(err, ErrMissingRequiredField):
		return ExitCodeMissingRequired
	}

	return ExitCodeGeneric
}
