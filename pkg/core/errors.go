package core

import (
	"fmt"
)

// ErrorCategory classifies stitch errors for callers.
type ErrorCategory string

// Error categories. Only precondition errors abort a capture run;
// transport errors are retried and degraded inside the loop.
const (
	ErrCategoryPrecondition ErrorCategory = "precondition"
	ErrCategoryTransport    ErrorCategory = "transport"
	ErrCategoryTimeout      ErrorCategory = "timeout"
)

// StitchError is a structured error with category and machine-readable code.
type StitchError struct {
	Category ErrorCategory
	Code     string // first_capture_failed, width_mismatch, etc.
	Message  string
	Cause    error
}

// Error implements the error interface.
func (e *StitchError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *StitchError) Unwrap() error {
	return e.Cause
}

// WithCause returns a copy of the error with the given cause.
func (e *StitchError) WithCause(cause error) *StitchError {
	return &StitchError{
		Category: e.Category,
		Code:     e.Code,
		Message:  e.Message,
		Cause:    cause,
	}
}

// Predefined fatal errors. Everything else in the pipeline resolves
// through fallback chains instead of failing.
var (
	ErrFirstCapture = &StitchError{
		Category: ErrCategoryPrecondition,
		Code:     "first_capture_failed",
		Message:  "could not obtain initial screenshot",
	}
	ErrWidthMismatch = &StitchError{
		Category: ErrCategoryPrecondition,
		Code:     "width_mismatch",
		Message:  "capture widths differ",
	}
	ErrNoCaptures = &StitchError{
		Category: ErrCategoryPrecondition,
		Code:     "no_captures",
		Message:  "nothing to stitch",
	}
	ErrDeviceUnavailable = &StitchError{
		Category: ErrCategoryTransport,
		Code:     "device_unavailable",
		Message:  "device not reachable",
	}
	ErrStepTimeout = &StitchError{
		Category: ErrCategoryTimeout,
		Code:     "step_timeout",
		Message:  "device call timed out",
	}
)
