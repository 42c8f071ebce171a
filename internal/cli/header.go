package cli

import (
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/agbru/ertscan/internal/config"
	"github.com/agbru/ertscan/internal/ui"
)

// PrintExecutionConfig displays the run configuration relevant to the mode.
//
// Parameters:
//   - cfg: The application configuration.
//   - source: The dataset source.
//   - out: The writer for standard output.
func PrintExecutionConfig(cfg config.AppConfig, source string, out io.Writer) {
	writeOut(out, "--- Execution Configuration ---\n")
	writeOut(out, "Mode %s%s%s on dataset %s%s%s with a timeout of %s%s%s.\n",
		ui.ColorLabel(), cfg.Mode, ui.ColorReset(),
		ui.ColorValue(), source, ui.ColorReset(),
		ui.ColorFair(), cfg.Timeout, ui.ColorReset())
	writeOut(out, "Environment: %s%d%s logical processors, Go %s%s%s.\n",
		ui.ColorValue(), runtime.NumCPU(), ui.ColorReset(), ui.ColorValue(), runtime.Version(), ui.ColorReset())

	switch cfg.Mode {
	case config.ModeField:
		writeOut(out, "Fields: %s on a %d³ grid (%s VTI", strings.Join(cfg.Fields, ", "), cfg.GridN, cfg.VTIFormat)
		if cfg.Noise > 0 {
			writeOut(out, ", noise %g at frequency %g, seed %d", cfg.Noise, cfg.NoiseFreq, cfg.Seed)
		}
		writeOut(out, ").\n")
	default:
		writeOut(out, "Lattice: n ≤ %d, d ∈ %v. Ladder: base %g, at most %d rounds.\n",
			cfg.NMax, cfg.Denominators, cfg.LadderBase, cfg.LadderRounds)
		writeOut(out, "Residual grid: k ∈ [%d, %d], ±%d windows × %d points.\n",
			cfg.ResKMin, cfg.ResKMax, cfg.Widen, cfg.NGrid)
	}
}

// writeOut writes a formatted string to the output writer.
func writeOut(out io.Writer, format string, a ...any) {
	fmt.Fprintf(out, format, a...)
}
