package config

import (
	"flag"
	"fmt"
)

// flagGroups orders the usage output by concern.
var flagGroups = []struct {
	title string
	flags []string
}{
	{"Run", []string{"mode", "data", "timeout", "log-level"}},
	{"Scan", []string{"nmax", "denoms", "divisor", "exclude"}},
	{"Ladder", []string{"ladder-base", "ladder-rounds", "kmax", "ladder-from-scan", "dyadic-nmax", "dyadic-maxexp"}},
	{"Residual search", []string{"res-kmin", "res-kmax", "widen", "ngrid"}},
	{"Fields", []string{"fields", "grid", "out-dir", "vti-format", "noise", "noise-freq", "seed"}},
	{"Output", []string{"json", "output", "o", "quiet", "q", "no-color"}},
	{"Server and history", []string{"server", "port", "history", "history-limit"}},
}

// setCustomUsage replaces the flag set's usage with a grouped listing that
// also names the environment variable of each flag.
func setCustomUsage(fs *flag.FlagSet) {
	fs.Usage = func() {
		out := fs.Output()
		fmt.Fprintf(out, "Usage: %s [options]\n\n", fs.Name())
		fmt.Fprintln(out, "Fits physical magnitudes onto rational and base-8 lattices.")
		for _, g := range flagGroups {
			fmt.Fprintf(out, "\n%s:\n", g.title)
			for _, name := range g.flags {
				f := fs.Lookup(name)
				if f == nil {
					continue
				}
				def := ""
				if f.DefValue != "" && f.DefValue != "false" {
					def = fmt.Sprintf(" (default %s)", f.DefValue)
				}
				fmt.Fprintf(out, "  -%-18s %s%s\n", f.Name, f.Usage, def)
			}
		}
		fmt.Fprintf(out, "\nEvery long flag can also be set as %s<FLAG>, e.g. %sLADDER_BASE=8.\n", EnvPrefix, EnvPrefix)
		fmt.Fprintf(out, "Use --version to print build information.\n")
	}
}
