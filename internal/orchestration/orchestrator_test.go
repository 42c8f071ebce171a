package orchestration

import (
	"bytes"
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agbru/ertscan/internal/config"
	"github.com/agbru/ertscan/internal/dataset"
	apperrors "github.com/agbru/ertscan/internal/errors"
	"github.com/agbru/ertscan/internal/lattice"
	"github.com/agbru/ertscan/internal/residual"
)

func testConfig(t *testing.T, args ...string) config.AppConfig {
	t.Helper()
	cfg, err := config.ParseConfig("ertscan", args, &bytes.Buffer{})
	require.NoError(t, err)
	return cfg
}

func defaultDataset(t *testing.T) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.Default()
	require.NoError(t, err)
	return ds
}

func TestStagesFor(t *testing.T) {
	t.Parallel()
	tests := []struct {
		mode string
		want Stages
	}{
		{config.ModeScan, Stages{Scan: true}},
		{config.ModeLadder, Stages{Ladder: true}},
		{config.ModeResidual, Stages{Residual: true}},
		{config.ModeAll, Stages{Scan: true, Ladder: true, Residual: true}},
		{config.ModeField, Stages{}},
		{config.ModeHistory, Stages{}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StagesFor(tt.mode), tt.mode)
	}
}

func TestBuildReportAll(t *testing.T) {
	t.Parallel()
	ds := defaultDataset(t)
	report, err := BuildReport(context.Background(), ds, testConfig(t))
	require.NoError(t, err)

	assert.Equal(t, config.ModeAll, report.Mode)
	assert.Equal(t, dataset.EmbeddedPath, report.Source)
	assert.False(t, report.GeneratedAt.IsZero())

	require.Len(t, report.Scales, 4)
	assert.Equal(t, "atomic", report.Scales[0].Scale)
	assert.Equal(t, "EXPLICIT", report.Scales[0].Tag)
	assert.Nil(t, report.Scales[2].Score, "cosmo keeps an infinite score")
	assert.Nil(t, report.Scales[3].Alpha, "material_diamond has no candidate")

	require.NotNil(t, report.Ladder)
	assert.Equal(t, LadderSourceDataset, report.Ladder.Source)
	assert.InEpsilon(t, 9.430340980881654, report.Ladder.Alpha, 1e-12)
	exps := map[string]int{}
	for _, r := range report.Ladder.Rungs {
		exps[r.Scale] = r.Exponent
	}
	assert.Equal(t, map[string]int{"atomic": -1, "nuclear": 8, "cosmo": -6}, exps)
	require.Len(t, report.Ladder.Evaluations, 3)
	first := report.Ladder.Evaluations[0].Points[0]
	assert.Equal(t, "H_ionization_eV", first.Label)
	assert.Equal(t, 185, first.Fraction.N)
	require.NotNil(t, first.Power)
	assert.Equal(t, 4, *first.Power)

	require.NotNil(t, report.Residual)
	assert.InEpsilon(t, 19.680042135758857, *report.Residual.Objective, 1e-9)
	assert.Len(t, report.Residual.Rows, 8)
}

func TestBuildReportModes(t *testing.T) {
	t.Parallel()
	ds := defaultDataset(t)

	scan, err := BuildReport(context.Background(), ds, testConfig(t, "-mode", "scan"))
	require.NoError(t, err)
	assert.NotEmpty(t, scan.Scales)
	assert.Nil(t, scan.Ladder)
	assert.Nil(t, scan.Residual)

	lad, err := BuildReport(context.Background(), ds, testConfig(t, "-mode", "ladder"))
	require.NoError(t, err)
	assert.Empty(t, lad.Scales)
	assert.NotNil(t, lad.Ladder)

	res, err := BuildReport(context.Background(), ds, testConfig(t, "-mode", "residual", "-ngrid", "50"))
	require.NoError(t, err)
	assert.Nil(t, res.Ladder)
	assert.NotNil(t, res.Residual)
}

func TestBuildReportLadderFromScan(t *testing.T) {
	t.Parallel()
	ds := defaultDataset(t)
	report, err := BuildReport(context.Background(), ds, testConfig(t, "-mode", "ladder", "-ladder-from-scan"))
	require.NoError(t, err)

	require.NotNil(t, report.Ladder)
	assert.Equal(t, LadderSourceScan, report.Ladder.Source)
	// material_diamond is skipped, the three remaining scan alphas match the
	// fixed references closely.
	require.Len(t, report.Ladder.Rungs, 3)
	assert.InEpsilon(t, 9.430340980881654, report.Ladder.Alpha, 1e-6)
	assert.Empty(t, report.Scales)
}

func TestBuildReportLadderWithoutReferencesUsesScan(t *testing.T) {
	t.Parallel()
	ds := *defaultDataset(t)
	ds.LadderReferences = nil
	report, err := BuildReport(context.Background(), &ds, testConfig(t, "-mode", "ladder"))
	require.NoError(t, err)
	assert.Equal(t, LadderSourceScan, report.Ladder.Source)
}

func TestBuildReportLadderError(t *testing.T) {
	t.Parallel()
	ds := &dataset.Dataset{Source: "empty"}
	_, err := BuildReport(context.Background(), ds, testConfig(t, "-mode", "ladder"))
	require.Error(t, err)

	var fitErr apperrors.FitError
	require.True(t, errors.As(err, &fitErr))
	assert.Equal(t, "ladder", fitErr.Stage)
	var valErr apperrors.ValidationError
	assert.True(t, errors.As(err, &valErr))
}

func TestBuildReportCanceled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := BuildReport(ctx, defaultDataset(t), testConfig(t))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuildReportLogsStages(t *testing.T) {
	t.Parallel()
	var logs bytes.Buffer
	logger := zerolog.New(&logs).Level(zerolog.DebugLevel)
	ctx := logger.WithContext(context.Background())

	_, err := BuildReport(ctx, defaultDataset(t), testConfig(t, "-ngrid", "10"))
	require.NoError(t, err)
	for _, msg := range []string{"scale selected", "scan done", "ladder fitted", "residual search done"} {
		assert.Contains(t, logs.String(), msg)
	}
}

func TestConversions(t *testing.T) {
	t.Parallel()
	assert.Nil(t, FractionModel(lattice.Sentinel).RelErr)
	f := FractionModel(lattice.Best(0.125, 64, []int{1, 2, 4, 8}))
	require.NotNil(t, f.RelErr)
	assert.Equal(t, 0.0, *f.RelErr)

	res := ResidualModel(residual.Result{
		Eps: 0.25, Objective: math.Inf(1), Seed: 0.25,
		Rows: []residual.Row{{Label: "a", Residual: 2, Multiple: 8, Correction: 2}},
	})
	assert.Nil(t, res.Objective)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, 8.0, res.Rows[0].Multiple)
}

func TestRunFields(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	cfg := testConfig(t, "-mode", "field", "-fields", "vacuum,proton", "-grid", "6", "-out-dir", dir)

	var out bytes.Buffer
	outputs, err := RunFields(context.Background(), cfg, zerolog.Nop(), &out)
	require.NoError(t, err)
	require.Len(t, outputs, 2)
	assert.Equal(t, "vacuum", outputs[0].Name)
	assert.Equal(t, filepath.Join(dir, "proton.vti"), outputs[1].Path)
	for _, o := range outputs {
		info, err := os.Stat(o.Path)
		require.NoError(t, err)
		assert.Equal(t, info.Size(), o.Bytes)
	}
	assert.Contains(t, out.String(), "100.00%")
}

func TestRunFieldsQuietAndCanceled(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t, "-mode", "field", "-fields", "H2O", "-grid", "8", "-out-dir", t.TempDir(), "-q")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	outputs, err := RunFields(ctx, cfg, zerolog.Nop(), &out)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, outputs)
	assert.Empty(t, out.String(), "quiet mode shows no progress")
}
