package apperrors

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Application exit codes define the standard exit statuses for the process.
const (
	ExitSuccess       = 0   // Indicates successful execution.
	ExitErrorGeneric  = 1   // Indicates a generic error.
	ExitErrorTimeout  = 2   // Indicates an operation timed out (e.g. graceful shutdown).
	ExitErrorConfig   = 4   // Indicates a configuration error.
	ExitErrorCanceled = 130 // Indicates the run was canceled (e.g., SIGINT).
)

// ConfigError represents a user configuration error, such as an invalid flag,
// environment variable or config file entry. The process cannot start.
type ConfigError struct {
	// Message explains the specific configuration error.
	Message string
}

// Error returns the error message for a ConfigError.
func (e ConfigError) Error() string { return e.Message }

// NewConfigError creates a new ConfigError with a formatted message.
//
// Parameters:
//   - format: A format string (see fmt.Sprintf).
//   - a: Arguments to be formatted into the string.
//
// Returns:
//   - error: A new ConfigError instance containing the formatted message.
func NewConfigError(format string, a ...any) error {
	return ConfigError{Message: fmt.Sprintf(format, a...)}
}

// SamplingError wraps a failed read of the CPU counters. It is transient: the
// sampler logs it, skips the tick and retries on the next one.
type SamplingError struct {
	// Streak is the number of consecutive failed ticks, this one included.
	Streak int
	// Cause is the underlying error reported by the OS source.
	Cause error
}

// Error returns a message carrying the failure streak and the cause.
func (e SamplingError) Error() string {
	return fmt.Sprintf("sampling failed (%d consecutive): %v", e.Streak, e.Cause)
}

// Unwrap returns the original cause, allowing inspection with errors.Is and
// errors.As.
func (e SamplingError) Unwrap() error { return e.Cause }

// TimeoutError represents an operation that exceeded its time budget, such as
// a graceful shutdown.
type TimeoutError struct {
	// Operation is the name of the operation that timed out.
	Operation string
	// Limit is the duration after which the operation was abandoned.
	Limit time.Duration
}

// Error returns a formatted message describing the timeout.
func (e TimeoutError) Error() string {
	return fmt.Sprintf("operation %q timed out after %s", e.Operation, e.Limit)
}

// ValidationError represents an input validation failure. It identifies which
// field failed validation and provides a human-readable explanation.
type ValidationError struct {
	// Field is the name of the field that failed validation.
	Field string
	// Message explains the validation failure.
	Message string
}

// Error returns a formatted message describing the validation failure.
func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error for %q: %s", e.Field, e.Message)
}

// WrapError wraps an error with additional context using fmt.Errorf and %w.
//
// Parameters:
//   - err: The error to wrap.
//   - format: A format string for the context message.
//   - args: Arguments for the format string.
//
// Returns:
//   - error: The wrapped error, or nil if err is nil.
func WrapError(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// IsContextError checks if the error is a context cancellation or deadline
// exceeded error.
func IsContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// ExitCode maps an error returned by a run to the process exit status.
//
// Parameters:
//   - err: The error returned by the run, possibly nil.
//
// Returns:
//   - int: One of the Exit* constants.
func ExitCode(err error) int {
	var (
		configErr     ConfigError
		validationErr ValidationError
		timeoutErr    TimeoutError
	)
	switch {
	case err == nil:
		return ExitSuccess
	case errors.As(err, &configErr), errors.As(err, &validationErr):
		return ExitErrorConfig
	case errors.As(err, &timeoutErr), errors.Is(err, context.DeadlineExceeded):
		return ExitErrorTimeout
	case errors.Is(err, context.Canceled):
		return ExitErrorCanceled
	default:
		return ExitErrorGeneric
	}
}
