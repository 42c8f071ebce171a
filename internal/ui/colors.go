package ui

import "regexp"

// Thresholds used by ErrorColor, as relative errors.
const (
	GoodThreshold = 0.005
	FairThreshold = 0.02
)

// ColorReset returns the reset escape code from the current theme.
func ColorReset() string { return GetCurrentTheme().Reset }

// ColorHeading returns the heading color.
func ColorHeading() string { return GetCurrentTheme().Heading }

// ColorLabel returns the label color.
func ColorLabel() string { return GetCurrentTheme().Label }

// ColorValue returns the value color.
func ColorValue() string { return GetCurrentTheme().Value }

// ColorGood returns the color of a good fit.
func ColorGood() string { return GetCurrentTheme().Good }

// ColorFair returns the color of a fair fit.
func ColorFair() string { return GetCurrentTheme().Fair }

// ColorPoor returns the color of a poor fit or a failure.
func ColorPoor() string { return GetCurrentTheme().Poor }

// ColorMuted returns the color for secondary text.
func ColorMuted() string { return GetCurrentTheme().Muted }

// ColorBold returns the bold escape code.
func ColorBold() string { return GetCurrentTheme().Bold }

// ColorUnderline returns the underline escape code.
func ColorUnderline() string { return GetCurrentTheme().Underline }

// ErrorColor grades a relative error: good below 0.5 %, fair below 2 %,
// poor otherwise (including +Inf and NaN).
func ErrorColor(relErr float64) string {
	switch {
	case relErr < GoodThreshold:
		return ColorGood()
	case relErr < FairThreshold:
		return ColorFair()
	default:
		return ColorPoor()
	}
}

var ansiRegex = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// StripANSI removes ANSI escape sequences, for writing colored output to
// files.
func StripANSI(s string) string {
	return ansiRegex.ReplaceAllString(s, "")
}
