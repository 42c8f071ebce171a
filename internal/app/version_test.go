package app

import (
	"bytes"
	"runtime"
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasVersionFlag(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name     string
		args     []string
		expected bool
	}{
		{"Empty args", []string{}, false},
		{"No version flag", []string{"-mode", "scan"}, false},
		{"Long version flag", []string{"--version"}, true},
		{"Short version flag", []string{"-V"}, true},
		{"Version flag with dash", []string{"-version"}, true},
		{"Version flag in middle", []string{"-mode", "ladder", "--version", "-nmax", "32"}, true},
		{"Version flag at end", []string{"-server", "--version"}, true},
		{"Similar but not version", []string{"--verbose"}, false},
		{"Flag value is not a flag", []string{"-data", "version"}, false},
		{"After terminator", []string{"--", "--version"}, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, HasVersionFlag(tc.args), "args %v", tc.args)
		})
	}
}

func TestPrintVersion(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	PrintVersion(&buf)

	out := buf.String()
	for _, want := range []string{"ertscan ", "Commit:", "Built:", "Go version: " + runtime.Version(), "OS/Arch:    " + runtime.GOOS + "/" + runtime.GOARCH} {
		assert.Contains(t, out, want)
	}
}

func TestVersionFrom(t *testing.T) {
	t.Parallel()

	t.Run("No build info", func(t *testing.T) {
		t.Parallel()
		v := versionFrom(nil)
		assert.Equal(t, Version, v.Version)
		assert.Equal(t, Commit, v.Commit)
		assert.Equal(t, runtime.GOARCH, v.Arch)
	})

	t.Run("Module build info fills defaults", func(t *testing.T) {
		t.Parallel()
		info := &debug.BuildInfo{
			Main: debug.Module{Path: "github.com/agbru/ertscan", Version: "v0.3.1"},
			Settings: []debug.BuildSetting{
				{Key: "vcs.revision", Value: "0123456789abcdef"},
				{Key: "vcs.time", Value: "2025-01-01T00:00:00Z"},
			},
		}
		v := versionFrom(info)
		if Version == "dev" {
			assert.Equal(t, "v0.3.1", v.Version)
		}
		if Commit == "unknown" {
			assert.Equal(t, "0123456", v.Commit)
		}
		if BuildDate == "unknown" {
			assert.Equal(t, "2025-01-01T00:00:00Z", v.BuildDate)
		}
	})

	t.Run("Devel build keeps dev", func(t *testing.T) {
		t.Parallel()
		v := versionFrom(&debug.BuildInfo{Main: debug.Module{Version: "(devel)"}})
		assert.Equal(t, Version, v.Version)
	})
}
