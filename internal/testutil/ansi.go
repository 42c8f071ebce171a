// Package testutil provides shared testing utilities used across the project.
package testutil

import "github.com/agbru/ertscan/internal/ui"

// StripAnsiCodes removes ANSI escape codes from a string.
// This is useful for testing CLI output without color codes interfering
// with assertions.
//
// Parameters:
//   - s: The string potentially containing ANSI escape codes.
//
// Returns:
//   - string: The input string with all ANSI escape codes removed.
func StripAnsiCodes(s string) string {
	return ui.StripANSI(s)
}
