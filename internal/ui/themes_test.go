package ui

import (
	"math"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Theme state is global, so these tests do not run in parallel.

func withTerminal(t *testing.T, tty bool) {
	t.Helper()
	prevTheme, prevTTY := GetCurrentTheme(), stdoutIsTerminal
	stdoutIsTerminal = func() bool { return tty }
	t.Cleanup(func() {
		SetCurrentTheme(prevTheme)
		stdoutIsTerminal = prevTTY
	})
}

func TestInitTheme(t *testing.T) {
	tests := []struct {
		name    string
		noColor bool
		tty     bool
		env     map[string]string
		want    string
	}{
		{"terminal", false, true, nil, "dark"},
		{"flag", true, true, nil, "none"},
		{"pipe", false, false, nil, "none"},
		{"NO_COLOR", false, true, map[string]string{"NO_COLOR": ""}, "none"},
		{"light", false, true, map[string]string{"ERTSCAN_THEME": "light"}, "light"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := os.LookupEnv("NO_COLOR"); ok && tt.want != "none" {
				t.Skip("NO_COLOR is set in the environment")
			}
			withTerminal(t, tt.tty)
			t.Setenv("ERTSCAN_THEME", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			InitTheme(tt.noColor)
			assert.Equal(t, tt.want, GetCurrentTheme().Name)
		})
	}
}

func TestSetThemeUnknownFallsBackToDark(t *testing.T) {
	withTerminal(t, true)
	SetTheme("neon")
	assert.Equal(t, DarkTheme, GetCurrentTheme())
	SetTheme("none")
	assert.Empty(t, ColorHeading()+ColorReset())
}

func TestErrorColor(t *testing.T) {
	withTerminal(t, true)
	SetCurrentTheme(DarkTheme)
	assert.Equal(t, DarkTheme.Good, ErrorColor(0))
	assert.Equal(t, DarkTheme.Fair, ErrorColor(0.01))
	assert.Equal(t, DarkTheme.Poor, ErrorColor(0.5))
	assert.Equal(t, DarkTheme.Poor, ErrorColor(math.Inf(1)))
	assert.Equal(t, DarkTheme.Poor, ErrorColor(math.NaN()))
}
