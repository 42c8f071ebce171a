package apperrors

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// ColorProvider defines the interface for obtaining terminal color codes.
// This abstraction breaks the import cycle with cli.
type ColorProvider interface {
	Yellow() string
	Reset() string
}

// DefaultColorProvider provides no color codes (for non-terminal output).
type DefaultColorProvider struct{}

func (d DefaultColorProvider) Yellow() string { return "" }
func (d DefaultColorProvider) Reset() string  { return "" }

// HandleRunError formats and prints the status line of a failed run and
// returns the matching exit code.
//
// Parameters:
//   - err: The error that occurred.
//   - duration: How long the run took before it failed (0 to omit).
//   - out: The io.Writer to which the status line will be written.
//   - colors: Provider for terminal color codes (can be nil for no colors).
//
// Returns:
//   - int: The appropriate exit code for the error type.
func HandleRunError(err error, duration time.Duration, out io.Writer, colors ColorProvider) int {
	if err == nil {
		return ExitSuccess
	}
	if colors == nil {
		colors = DefaultColorProvider{}
	}

	msgSuffix := ""
	if duration > 0 {
		msgSuffix = fmt.Sprintf(" after %s%s%s", colors.Yellow(), duration, colors.Reset())
	}

	var dsErr DatasetError
	var cfgErr ConfigError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		fmt.Fprintf(out, "Status: Failure (Timeout). The execution limit was reached%s.\n", msgSuffix)
		return ExitErrorTimeout
	case errors.Is(err, context.Canceled):
		fmt.Fprintf(out, "%sStatus: Canceled%s.%s\n", colors.Yellow(), msgSuffix, colors.Reset())
		return ExitErrorCanceled
	case errors.As(err, &dsErr):
		fmt.Fprintf(out, "Status: Failure. Could not load the dataset: %v\n", err)
		return ExitErrorDataset
	case errors.As(err, &cfgErr):
		fmt.Fprintf(out, "Status: Failure. Invalid configuration: %v\n", err)
		return ExitErrorConfig
	}
	fmt.Fprintf(out, "Status: Failure. An unexpected error occurred%s: %v\n", msgSuffix, err)
	return ExitErrorGeneric
}
