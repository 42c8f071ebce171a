// Package ui provides the color themes used by the text reports. Colors are
// chosen by meaning (heading, good fit, poor fit, ...) so that report code
// never deals with raw escape codes.
package ui

import (
	"os"
	"sync"

	"golang.org/x/term"
)

// Theme maps report roles to ANSI escape codes.
type Theme struct {
	Name string
	// Heading marks section titles.
	Heading string
	// Label marks quantity and scale names.
	Label string
	// Value marks fitted numbers.
	Value string
	// Good, Fair and Poor grade relative errors.
	Good string
	Fair string
	Poor string
	// Muted is used for secondary text and skipped entries.
	Muted     string
	Bold      string
	Underline string
	Reset     string
}

var (
	// DarkTheme suits dark terminal backgrounds.
	DarkTheme = Theme{
		Name:      "dark",
		Heading:   "\033[38;5;39m",
		Label:     "\033[38;5;141m",
		Value:     "\033[38;5;51m",
		Good:      "\033[38;5;82m",
		Fair:      "\033[38;5;220m",
		Poor:      "\033[38;5;196m",
		Muted:     "\033[38;5;245m",
		Bold:      "\033[1m",
		Underline: "\033[4m",
		Reset:     "\033[0m",
	}

	// LightTheme suits light terminal backgrounds.
	LightTheme = Theme{
		Name:      "light",
		Heading:   "\033[38;5;27m",
		Label:     "\033[38;5;54m",
		Value:     "\033[38;5;30m",
		Good:      "\033[38;5;28m",
		Fair:      "\033[38;5;130m",
		Poor:      "\033[38;5;124m",
		Muted:     "\033[38;5;240m",
		Bold:      "\033[1m",
		Underline: "\033[4m",
		Reset:     "\033[0m",
	}

	// NoColorTheme disables all escape codes.
	NoColorTheme = Theme{Name: "none"}

	currentTheme = DarkTheme
	themeMutex   sync.RWMutex
)

// GetCurrentTheme returns the active theme.
func GetCurrentTheme() Theme {
	themeMutex.RLock()
	defer themeMutex.RUnlock()
	return currentTheme
}

// SetCurrentTheme replaces the active theme; tests use it to restore state.
func SetCurrentTheme(t Theme) {
	themeMutex.Lock()
	defer themeMutex.Unlock()
	currentTheme = t
}

// SetTheme activates a theme by name ("dark", "light" or "none"). Unknown
// names select the dark theme.
func SetTheme(name string) {
	t := DarkTheme
	switch name {
	case "light":
		t = LightTheme
	case "none":
		t = NoColorTheme
	}
	SetCurrentTheme(t)
}

// stdoutIsTerminal is replaced in tests.
var stdoutIsTerminal = func() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// InitTheme picks the theme for this run. Colors are disabled by the
// noColor flag, by a NO_COLOR environment variable (https://no-color.org/)
// and when stdout is not a terminal. ERTSCAN_THEME selects "light".
func InitTheme(noColor bool) {
	if _, set := os.LookupEnv("NO_COLOR"); noColor || set || !stdoutIsTerminal() {
		SetCurrentTheme(NoColorTheme)
		return
	}
	SetTheme(os.Getenv("ERTSCAN_THEME"))
}
