package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agbru/ertscan/internal/testutil"
	"github.com/agbru/ertscan/internal/ui"
	"github.com/agbru/ertscan/pkg/models"
)

func ptr[T any](v T) *T { return &v }

func sampleReport() models.Report {
	return models.Report{
		ID:          "run-1",
		Mode:        "all",
		Source:      "<embedded>",
		GeneratedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Scales: []models.ScaleResult{
			{
				Scale: "atomic", Tag: "EXPLICIT", Key: "alpha_atomic_eV",
				Alpha: ptr(1.70071163), Score: ptr(0.0123),
				Rows: []models.ScaleRow{
					{Label: "H_ionization", Value: 13.6057, Ratio: 8.0, Fraction: models.Fraction{N: 8, D: 1, Approx: 8, RelErr: ptr(0.0)}},
					{Label: "odd", Value: 1, Ratio: 0.5, Fraction: models.Fraction{N: 0, D: 1, RelErr: nil}},
				},
				Candidates: []models.Candidate{
					{Tag: "EXPLICIT", Key: "alpha_atomic_eV", Alpha: 1.7, Score: ptr(0.0123)},
					{Tag: "H_ionization", Key: "H_ionization", Alpha: 1.7, Score: nil},
				},
				Rejected: []models.Rejection{{Label: "bad", Reason: "not numeric"}},
			},
			{Scale: "material", Tag: "NONE", Key: "-"},
		},
		Ladder: &models.Ladder{
			Alpha: 9.430340980881654, Base: 8, Source: "dataset", Rounds: 2, Converged: true,
			Rungs: []models.Rung{{Scale: "nuclear", Exponent: 8, Value: 1.58e8, Reference: 1.17e8, RelErr: 0.35}},
			Evaluations: []models.Evaluation{{
				Scale: "atomic", RungValue: 1.1787,
				Points: []models.EvalPoint{{Label: "H_ionization", Energy: 13.6, Ratio: 11.54, Power: ptr(4),
					Fraction: models.Fraction{N: 185, D: 16, Approx: 11.5625, RelErr: ptr(0.002)}}},
			}},
		},
		Residual: &models.Residual{
			Eps: 0.4708, Objective: ptr(19.68), Seed: 0.47,
			Rows: []models.ResidualRow{
				{Label: "a", Residual: 11.5, Multiple: 8, Exponent: ptr(1), Correction: 3.76, After: 7.7},
				{Label: "z", Residual: 0},
			},
		},
		Fields: []models.FieldOutput{{Name: "vacuum", Path: "out/vacuum.vti", Bytes: 2048, DurationMS: 12}},
	}
}

func TestDisplayReport(t *testing.T) {
	prev := ui.GetCurrentTheme()
	defer ui.SetCurrentTheme(prev)
	ui.SetCurrentTheme(ui.DarkTheme)

	var buf bytes.Buffer
	DisplayReport(sampleReport(), &buf)
	raw := buf.String()
	assert.Contains(t, raw, "\x1b[", "expected colored output with the dark theme")

	out := testutil.StripAnsiCodes(raw)
	for _, want := range []string{
		"=== Scale references ===",
		"[atomic] tag=EXPLICIT key=alpha_atomic_eV alpha=1.70071163 mean error=1.2300%",
		"8/1",
		"inf",
		"candidates: EXPLICIT=0.0123 H_ionization=-",
		"rejected bad: not numeric",
		"[material] skipped",
		"alpha* = 9.430340981 (base 8, references from dataset, 2 rounds, converged)",
		"185/2^4",
		"E_SW = 0.4708",
		"L2 = 19.68",
		"2.0 kB",
		"1 files",
	} {
		assert.Contains(t, out, want)
	}
}

func TestPrintLadderReportNotConverged(t *testing.T) {
	prev := ui.GetCurrentTheme()
	defer ui.SetCurrentTheme(prev)
	ui.SetCurrentTheme(ui.NoColorTheme)

	var buf bytes.Buffer
	PrintLadderReport(&models.Ladder{Alpha: 1, Base: 8, Source: "scan", Rounds: 8}, &buf)
	assert.Contains(t, buf.String(), "not converged")

	buf.Reset()
	PrintLadderReport(nil, &buf)
	PrintResidualReport(nil, &buf)
	assert.Empty(t, buf.String())
}

func TestPrintHistory(t *testing.T) {
	prev := ui.GetCurrentTheme()
	defer ui.SetCurrentTheme(prev)
	ui.SetCurrentTheme(ui.NoColorTheme)

	var buf bytes.Buffer
	PrintHistory(nil, &buf)
	assert.Contains(t, buf.String(), "No runs recorded.")

	buf.Reset()
	PrintHistory([]models.RunSummary{
		{ID: "abc", Mode: "ladder", CreatedAt: time.Now().Add(-time.Hour), AlphaStar: ptr(9.43)},
		{ID: "def", Mode: "scan", CreatedAt: time.Now()},
	}, &buf)
	out := buf.String()
	assert.Contains(t, out, "abc")
	assert.Contains(t, out, "1 hour ago")
	assert.Contains(t, out, "9.43")
}

func TestFormatQuietReport(t *testing.T) {
	t.Parallel()
	got := FormatQuietReport(sampleReport())
	want := "atomic 1.70071163\nmaterial -\nalpha* 9.430340981\nk.nuclear 8\neps 0.4708\nvacuum out/vacuum.vti\n"
	assert.Equal(t, want, got)
}

func TestDisplayReportWithConfig(t *testing.T) {
	prev := ui.GetCurrentTheme()
	defer ui.SetCurrentTheme(prev)
	ui.SetCurrentTheme(ui.DarkTheme)

	dir := t.TempDir()

	t.Run("JSON", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, DisplayReportWithConfig(&buf, sampleReport(), OutputConfig{JSON: true}))
		var decoded models.Report
		require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
		assert.Equal(t, "run-1", decoded.ID)
		assert.Nil(t, decoded.Scales[0].Rows[1].Fraction.RelErr)
		assert.Equal(t, 185, decoded.Ladder.Evaluations[0].Points[0].Fraction.N)
	})

	t.Run("TextFile", func(t *testing.T) {
		path := filepath.Join(dir, "nested", "report.txt")
		var buf bytes.Buffer
		require.NoError(t, DisplayReportWithConfig(&buf, sampleReport(), OutputConfig{OutputFile: path}))
		assert.Contains(t, buf.String(), "Report saved to")

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		content := string(data)
		assert.True(t, strings.HasPrefix(content, "# ertscan report\n# Generated: 2024-01-02T03:04:05Z\n# Run: run-1\n"))
		assert.NotContains(t, content, "\x1b[", "file output must not contain escape codes")
		assert.Contains(t, content, "=== Ladder ===")
	})

	t.Run("JSONFileByExtension", func(t *testing.T) {
		path := filepath.Join(dir, "report.json")
		var buf bytes.Buffer
		require.NoError(t, DisplayReportWithConfig(&buf, sampleReport(), OutputConfig{OutputFile: path, Quiet: true}))
		assert.NotContains(t, buf.String(), "Report saved to")

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		var decoded models.Report
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Equal(t, "dataset", decoded.Ladder.Source)
	})

	t.Run("UnwritablePath", func(t *testing.T) {
		blocker := filepath.Join(dir, "file")
		require.NoError(t, os.WriteFile(blocker, nil, 0o644))
		err := DisplayReportWithConfig(&bytes.Buffer{}, sampleReport(), OutputConfig{OutputFile: filepath.Join(blocker, "x.txt")})
		assert.Error(t, err)
	})
}

func TestFormatPercent(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "0.5000%", formatPercent(0.005))
	assert.Equal(t, "inf", formatPercent(ptrValue(nil)))
	assert.Equal(t, "-", formatOptional(nil, "%g"))
}

func ptrValue(p *float64) float64 { return models.Value(p) }
