package imagegen

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures so callers can choose exit codes and
// messaging without string matching.
type ErrorKind string

const (
	// ErrValidation indicates bad or missing user input. No network call
	// is made once validation has failed.
	ErrValidation ErrorKind = "validation"

	// ErrConfig indicates a missing credential or unusable configuration,
	// detected before any request is issued.
	ErrConfig ErrorKind = "config"

	// ErrBackend indicates the remote API rejected a request or the
	// transport failed. Backend calls are never retried.
	ErrBackend ErrorKind = "backend"

	// ErrIO indicates a local file could not be read or written.
	ErrIO ErrorKind = "io"
)

// Process exit codes, one per error kind.
const (
	ExitSuccess    = 0
	ExitError      = 1
	ExitValidation = 2
	ExitConfig     = 3
	ExitBackend    = 4
	ExitIO         = 5
)

// Error is the error type returned for user-caused failures. Programming
// errors use plain fmt.Errorf and map to ExitError.
type Error struct {
	Kind    ErrorKind
	Message string
	Backend string // backend name, set for ErrBackend
	Status  int    // HTTP status when known, 0 otherwise
	Cause   error
}

func (e *Error) Error() string {
	if e.Kind == ErrBackend && e.Backend != "" {
		if e.Status != 0 {
			return fmt.Sprintf("%s: %s (status %d)", e.Backend, e.Message, e.Status)
		}
		return fmt.Sprintf("%s: %s", e.Backend, e.Message)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// NewValidationError creates an ErrValidation error.
func NewValidationError(format string, args ...any) *Error {
	return &Error{Kind: ErrValidation, Message: fmt.Sprintf(format, args...)}
}

// NewConfigError creates an ErrConfig error.
func NewConfigError(format string, args ...any) *Error {
	return &Error{Kind: ErrConfig, Message: fmt.Sprintf(format, args...)}
}

// NewBackendError creates an ErrBackend error for the named backend. The
// status may be zero when the failure happened below the HTTP layer.
func NewBackendError(backend string, status int, cause error) *Error {
	message := "request failed"
	if cause != nil {
		message = cause.Error()
	}
	return &Error{
		Kind:    ErrBackend,
		Message: message,
		Backend: backend,
		Status:  status,
		Cause:   cause,
	}
}

// NewIOError creates an ErrIO error for the given path.
func NewIOError(path string, cause error) *Error {
	return &Error{
		Kind:    ErrIO,
		Message: fmt.Sprintf("%s: %v", path, cause),
		Cause:   cause,
	}
}

// IsValidation checks if an error is an ErrValidation error.
func IsValidation(err error) bool {
	return hasKind(err, ErrValidation)
}

// IsConfig checks if an error is an ErrConfig error.
func IsConfig(err error) bool {
	return hasKind(err, ErrConfig)
}

// IsBackend checks if an error is an ErrBackend error.
func IsBackend(err error) bool {
	return hasKind(err, ErrBackend)
}

// IsIO checks if an error is an ErrIO error.
func IsIO(err error) bool {
	return hasKind(err, ErrIO)
}

func hasKind(err error, kind ErrorKind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// ExitCode maps an error to the process exit code for its failure class.
// A nil error maps to ExitSuccess and unclassified errors to ExitError.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var e *Error
	if !errors.As(err, &e) {
		return ExitError
	}
	switch e.Kind {
	case ErrValidation:
		return ExitValidation
	case ErrConfig:
		return ExitConfig
	case ErrBackend:
		return ExitBackend
	case ErrIO:
		return ExitIO
	default:
		return ExitError
	}
}
