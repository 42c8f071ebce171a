package cli

import (
	"fmt"
	"io"
	"math"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/agbru/ertscan/internal/ui"
	"github.com/agbru/ertscan/pkg/models"
)

func newTable(out io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
}

func flush(tw *tabwriter.Writer, out io.Writer) {
	if err := tw.Flush(); err != nil {
		fmt.Fprintf(out, "Warning: failed to flush tabwriter: %v\n", err)
	}
}

func heading(out io.Writer, title string) {
	fmt.Fprintf(out, "\n%s=== %s ===%s\n", ui.ColorHeading()+ui.ColorBold(), title, ui.ColorReset())
}

func header(tw *tabwriter.Writer, cols ...string) {
	for i, c := range cols {
		sep := "\t"
		if i == len(cols)-1 {
			sep = "\n"
		}
		fmt.Fprintf(tw, "%s%s%s%s", ui.ColorUnderline(), c, ui.ColorReset(), sep)
	}
}

// formatPercent prints a relative error as a percentage; non-finite errors
// print as "inf".
func formatPercent(relErr float64) string {
	if math.IsInf(relErr, 0) || math.IsNaN(relErr) {
		return "inf"
	}
	return fmt.Sprintf("%.4f%%", relErr*100)
}

func formatOptional(p *float64, format string) string {
	if p == nil {
		return "-"
	}
	return fmt.Sprintf(format, *p)
}

func coloredError(relErr float64) string {
	return ui.ErrorColor(relErr) + formatPercent(relErr) + ui.ColorReset()
}

// PrintScanReport prints the reference selection of each scale with its rows
// sorted by ascending relative error.
func PrintScanReport(results []models.ScaleResult, out io.Writer) {
	heading(out, "Scale references")
	for _, r := range results {
		fmt.Fprintf(out, "\n%s[%s]%s ", ui.ColorBold(), r.Scale, ui.ColorReset())
		if r.Alpha == nil {
			fmt.Fprintf(out, "%sskipped: no usable reference candidate%s\n", ui.ColorMuted(), ui.ColorReset())
			printRejected(r.Rejected, out)
			continue
		}
		fmt.Fprintf(out, "tag=%s%s%s key=%s alpha=%s%.10g%s mean error=%s\n",
			ui.ColorLabel(), r.Tag, ui.ColorReset(), r.Key,
			ui.ColorValue(), *r.Alpha, ui.ColorReset(),
			coloredError(models.Value(r.Score)))

		tw := newTable(out)
		header(tw, "Label", "Value", "Ratio", "n/d", "Approx", "Error")
		for _, row := range r.Rows {
			fmt.Fprintf(tw, "%s\t%.8g\t%.8g\t%d/%d\t%.8g\t%s\n",
				row.Label, row.Value, row.Ratio, row.Fraction.N, row.Fraction.D,
				row.Fraction.Approx, coloredError(models.Value(row.Fraction.RelErr)))
		}
		flush(tw, out)

		if len(r.Candidates) > 1 {
			fmt.Fprintf(out, "%scandidates:", ui.ColorMuted())
			for _, c := range r.Candidates {
				fmt.Fprintf(out, " %s=%s", c.Tag, formatOptional(c.Score, "%.4g"))
			}
			fmt.Fprintf(out, "%s\n", ui.ColorReset())
		}
		printRejected(r.Rejected, out)
	}
}

func printRejected(rejected []models.Rejection, out io.Writer) {
	for _, rj := range rejected {
		fmt.Fprintf(out, "%srejected %s: %s%s\n", ui.ColorMuted(), rj.Label, rj.Reason, ui.ColorReset())
	}
}

// PrintLadderReport prints alpha*, the rung of each scale, and the
// evaluation tables with fractions written as n/2^m.
func PrintLadderReport(l *models.Ladder, out io.Writer) {
	if l == nil {
		return
	}
	heading(out, "Ladder")
	fmt.Fprintf(out, "alpha* = %s%.10g%s (base %g, references from %s, %d rounds",
		ui.ColorValue(), l.Alpha, ui.ColorReset(), l.Base, l.Source, l.Rounds)
	if l.Converged {
		fmt.Fprintf(out, ", converged)\n")
	} else {
		fmt.Fprintf(out, ", %snot converged%s)\n", ui.ColorPoor(), ui.ColorReset())
	}

	tw := newTable(out)
	header(tw, "Scale", "k", "alpha*·8^k", "Reference", "Error")
	for _, r := range l.Rungs {
		fmt.Fprintf(tw, "%s\t%d\t%.8g\t%.8g\t%s\n",
			r.Scale, r.Exponent, r.Value, r.Reference, coloredError(r.RelErr))
	}
	flush(tw, out)

	for _, ev := range l.Evaluations {
		fmt.Fprintf(out, "\n%s%s%s (rung %.8g)\n", ui.ColorBold(), ev.Scale, ui.ColorReset(), ev.RungValue)
		tw := newTable(out)
		header(tw, "Label", "Energy", "E/rung", "Fraction", "Approx", "Error")
		for _, p := range ev.Points {
			fmt.Fprintf(tw, "%s\t%.8g\t%.8g\t%s\t%.8g\t%s\n",
				p.Label, p.Energy, p.Ratio, formatDyadic(p), p.Fraction.Approx,
				coloredError(models.Value(p.Fraction.RelErr)))
		}
		flush(tw, out)
	}
}

func formatDyadic(p models.EvalPoint) string {
	if p.Power != nil {
		return fmt.Sprintf("%d/2^%d", p.Fraction.N, *p.Power)
	}
	return fmt.Sprintf("%d/%d", p.Fraction.N, p.Fraction.D)
}

// PrintResidualReport prints the fitted eps, the objective and each
// corrected residual.
func PrintResidualReport(r *models.Residual, out io.Writer) {
	if r == nil {
		return
	}
	heading(out, "Residual search")
	fmt.Fprintf(out, "E_SW = %s%.10g%s  L2 = %s  seed = %.6g\n",
		ui.ColorValue(), r.Eps, ui.ColorReset(), formatOptional(r.Objective, "%.10g"), r.Seed)

	tw := newTable(out)
	header(tw, "Label", "Residual", "m", "k", "Correction", "After")
	for _, row := range r.Rows {
		k := "-"
		if row.Exponent != nil {
			k = fmt.Sprintf("%d", *row.Exponent)
		}
		fmt.Fprintf(tw, "%s\t%.8g\t%g\t%s\t%.8g\t%.8g\n",
			row.Label, row.Residual, row.Multiple, k, row.Correction, row.After)
	}
	flush(tw, out)
}

// PrintFieldSummary lists the generated files with human-readable sizes.
func PrintFieldSummary(outputs []models.FieldOutput, out io.Writer) {
	if len(outputs) == 0 {
		return
	}
	heading(out, "Fields")
	tw := newTable(out)
	header(tw, "Field", "File", "Size", "Time")
	var total uint64
	for _, o := range outputs {
		total += uint64(o.Bytes)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", o.Name, o.Path, humanize.Bytes(uint64(o.Bytes)),
			FormatExecutionDuration(time.Duration(o.DurationMS)*time.Millisecond))
	}
	flush(tw, out)
	fmt.Fprintf(out, "%s%d files, %s written%s\n", ui.ColorMuted(), len(outputs), humanize.Bytes(total), ui.ColorReset())
}

// PrintHistory lists recorded runs, most recent first.
func PrintHistory(runs []models.RunSummary, out io.Writer) {
	heading(out, "Run history")
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded.")
		return
	}
	tw := newTable(out)
	header(tw, "ID", "Mode", "When", "alpha*")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.ID, r.Mode, humanize.Time(r.CreatedAt),
			formatOptional(r.AlphaStar, "%.10g"))
	}
	flush(tw, out)
}

// DisplayReport prints every section present in the report.
func DisplayReport(report models.Report, out io.Writer) {
	fmt.Fprintf(out, "%sertscan %s report%s (dataset %s)\n", ui.ColorBold(), report.Mode, ui.ColorReset(), report.Source)
	if len(report.Scales) > 0 {
		PrintScanReport(report.Scales, out)
	}
	PrintLadderReport(report.Ladder, out)
	PrintResidualReport(report.Residual, out)
	PrintFieldSummary(report.Fields, out)
}
