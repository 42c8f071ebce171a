// Package apperrors defines structured application error types,
// allowing for a clear distinction between error classes (configuration,
// dataset, fitting, etc.) and for carrying the underlying cause.
//
// Error Wrapping Guidelines:
// This package follows Go's error wrapping conventions using fmt.Errorf with %w.
// All wrapping types implement the Unwrap() method to support errors.Is() and errors.As().
//
// Numeric degeneracies (non-finite ratios, empty scales, non-positive scan
// windows) are not errors: the fitting packages return sentinel results for
// them. The types below cover conditions that stop a run.
package apperrors

import (
	"context"
	"errors"
	"fmt"
)

// Application exit codes define the standard exit statuses for the application.
const (
	ExitSuccess       = 0   // Indicates successful execution.
	ExitErrorGeneric  = 1   // Indicates a generic error.
	ExitErrorTimeout  = 2   // Indicates the run exceeded its timeout.
	ExitErrorConfig   = 4   // Indicates a configuration error.
	ExitErrorDataset  = 5   // Indicates the dataset could not be loaded.
	ExitErrorCanceled = 130 // Indicates the run was canceled (e.g., SIGINT).
)

// ConfigError represents a user configuration error, such as invalid flags or
// values. It indicates that the application cannot proceed due to incorrect user input.
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

// ValidationError represents a rejected input value. The dataset loader uses
// it to record why a quantity was excluded from fitting, and the ladder
// fitter returns it for unusable reference magnitudes.
type ValidationError struct {
	// Field is the name of the quantity or parameter that failed validation.
	Field string
	// Message describes why validation failed.
	Message string
	// Value is the invalid value (optional, may be nil).
	Value any
}

// Error returns the error message for a ValidationError.
func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error for '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, message string, value any) error {
	return ValidationError{Field: field, Message: message, Value: value}
}

// DatasetError reports a dataset that could not be read or decoded.
type DatasetError struct {
	// Path is the dataset source ("<embedded>" for the built-in table).
	Path string
	// Cause is the underlying read or decode error.
	Cause error
}

// Error returns the error message for a DatasetError.
func (e DatasetError) Error() string {
	return fmt.Sprintf("dataset %s: %v", e.Path, e.Cause)
}

// Unwrap returns the underlying cause.
func (e DatasetError) Unwrap() error { return e.Cause }

// NewDatasetError creates a new DatasetError.
func NewDatasetError(path string, cause error) error {
	return DatasetError{Path: path, Cause: cause}
}

// FitError encapsulates a failure of one pipeline stage ("ladder",
// "fields", ...) while preserving the original cause.
type FitError struct {
	// Stage names the pipeline stage that failed.
	Stage string
	// Cause is the underlying error that triggered this fit error.
	Cause error
}

// Error returns the stage-qualified message of the underlying cause.
func (e FitError) Error() string { return e.Stage + ": " + e.Cause.Error() }

// Unwrap returns the original wrapped error.
func (e FitError) Unwrap() error { return e.Cause }

// ServerError represents errors that occur in the HTTP server component.
type ServerError struct {
	// Message is a descriptive message about the server error.
	Message string
	// Cause is the underlying error, if any.
	Cause error
}

// Error returns the error message for a ServerError.
// It combines the descriptive message and the underlying cause if present.
func (e ServerError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e ServerError) Unwrap() error { return e.Cause }

// NewServerError creates a new ServerError with a message and optional cause.
func NewServerError(message string, cause error) error {
	return ServerError{Message: message, Cause: cause}
}

// WrapError wraps an error with additional context using fmt.Errorf and %w.
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

// IsContextError checks if the error is a context cancellation or deadline exceeded error.
func IsContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
