// Package app wires the ertscan command: it loads the configuration and the
// dataset, dispatches to the report, field, history or server mode, and
// carries the build version.
package app

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"
)

// Build-time variables set via -ldflags:
//
//	go build -ldflags="-X github.com/agbru/ertscan/internal/app.Version=v0.3.0 -X github.com/agbru/ertscan/internal/app.Commit=abc123" ./cmd/ertscan
//
// Left unset, they are filled from the module build information when the
// binary was installed with go install.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// versionFlags are the spellings accepted by HasVersionFlag.
var versionFlags = map[string]bool{"--version": true, "-version": true, "-V": true}

// HasVersionFlag reports whether args ask for the version. It is checked
// before flag parsing so --version works next to any other flag (e.g.
// "ertscan -server --version"). Arguments after a bare "--" are not flags.
func HasVersionFlag(args []string) bool {
	for _, arg := range args {
		if arg == "--" {
			return false
		}
		if versionFlags[arg] {
			return true
		}
	}
	return false
}

// VersionData is the build information printed by PrintVersion.
type VersionData struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetVersionInfo returns the build information. Fields not set through
// -ldflags are completed from info when it is available.
func GetVersionInfo() VersionData {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		info = nil
	}
	return versionFrom(info)
}

func versionFrom(info *debug.BuildInfo) VersionData {
	v := VersionData{
		Version:   Version,
		Commit:    Commit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
	if info == nil {
		return v
	}
	if v.Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		v.Version = info.Main.Version
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			if v.Commit == "unknown" && len(s.Value) >= 7 {
				v.Commit = s.Value[:7]
			}
		case "vcs.time":
			if v.BuildDate == "unknown" {
				v.BuildDate = s.Value
			}
		}
	}
	return v
}

// PrintVersion writes the build information to out.
func PrintVersion(out io.Writer) {
	v := GetVersionInfo()
	fmt.Fprintf(out, "ertscan %s\n", v.Version)
	fmt.Fprintf(out, "  Commit:     %s\n", v.Commit)
	fmt.Fprintf(out, "  Built:      %s\n", v.BuildDate)
	fmt.Fprintf(out, "  Go version: %s\n", v.GoVersion)
	fmt.Fprintf(out, "  OS/Arch:    %s/%s\n", v.OS, v.Arch)
}
