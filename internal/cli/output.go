package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/agbru/ertscan/internal/ui"
	"github.com/agbru/ertscan/pkg/models"
)

// OutputConfig holds configuration for report output.
type OutputConfig struct {
	// OutputFile is the path to save the report (empty for no file output).
	OutputFile string
	// JSON prints the report as JSON instead of text.
	JSON bool
	// Quiet mode prints one line per result for scripts.
	Quiet bool
}

// WriteJSON encodes v as indented JSON.
func WriteJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteReportToFile writes the report to config.OutputFile: JSON when
// config.JSON is set or the file name ends in .json, plain text otherwise.
//
// Returns:
//   - error: An error if the file cannot be written.
func WriteReportToFile(report models.Report, config OutputConfig) error {
	if config.OutputFile == "" {
		return nil
	}

	dir := filepath.Dir(config.OutputFile)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	file, err := os.Create(config.OutputFile)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	if config.JSON || strings.EqualFold(filepath.Ext(config.OutputFile), ".json") {
		return WriteJSON(file, report)
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# ertscan report\n")
	fmt.Fprintf(&buf, "# Generated: %s\n", report.GeneratedAt.Format(time.RFC3339))
	if report.ID != "" {
		fmt.Fprintf(&buf, "# Run: %s\n", report.ID)
	}
	DisplayReport(report, &buf)
	_, err = io.WriteString(file, ui.StripANSI(buf.String()))
	return err
}

// FormatQuietReport renders the report as "key value" lines: one per scale
// reference, then alpha* and the ladder exponents, then eps.
func FormatQuietReport(report models.Report) string {
	var sb strings.Builder
	for _, s := range report.Scales {
		fmt.Fprintf(&sb, "%s %s\n", s.Scale, formatOptional(s.Alpha, "%.10g"))
	}
	if report.Ladder != nil {
		fmt.Fprintf(&sb, "alpha* %.10g\n", report.Ladder.Alpha)
		for _, r := range report.Ladder.Rungs {
			fmt.Fprintf(&sb, "k.%s %d\n", r.Scale, r.Exponent)
		}
	}
	if report.Residual != nil {
		fmt.Fprintf(&sb, "eps %.10g\n", report.Residual.Eps)
	}
	for _, f := range report.Fields {
		fmt.Fprintf(&sb, "%s %s\n", f.Name, f.Path)
	}
	return sb.String()
}

// DisplayReportWithConfig displays a report according to the output
// configuration and saves it when a file is requested.
//
// Returns:
//   - error: An error if encoding or file output fails.
func DisplayReportWithConfig(out io.Writer, report models.Report, config OutputConfig) error {
	switch {
	case config.JSON:
		if err := WriteJSON(out, report); err != nil {
			return err
		}
	case config.Quiet:
		fmt.Fprint(out, FormatQuietReport(report))
	default:
		DisplayReport(report, out)
	}

	if config.OutputFile != "" {
		if err := WriteReportToFile(report, config); err != nil {
			return err
		}
		if !config.Quiet && !config.JSON {
			fmt.Fprintf(out, "\n%s✓ Report saved to: %s%s\n", ui.ColorGood(), config.OutputFile, ui.ColorReset())
		}
	}
	return nil
}
