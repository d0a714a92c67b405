// Package apperrors defines structured application error types,
// allowing for a clear distinction between error classes (configuration,
// sampling, shutdown timeouts) and for carrying the underlying cause.
//
// Error Wrapping Guidelines:
// This package follows Go's error wrapping conventions using fmt.Errorf with %w.
// Error types that carry a cause implement Unwrap() to support errors.Is() and
// errors.As().
package apperrors
