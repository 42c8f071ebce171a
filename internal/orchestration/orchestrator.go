// Package orchestration chains the fitting stages of a run (scale scan,
// ladder fit and evaluation, residual search) into a report, and drives field
// generation with its progress display.
package orchestration

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/agbru/ertscan/internal/cli"
	"github.com/agbru/ertscan/internal/config"
	"github.com/agbru/ertscan/internal/dataset"
	apperrors "github.com/agbru/ertscan/internal/errors"
	"github.com/agbru/ertscan/internal/field"
	"github.com/agbru/ertscan/internal/ladder"
	"github.com/agbru/ertscan/internal/residual"
	"github.com/agbru/ertscan/internal/selector"
	"github.com/agbru/ertscan/pkg/models"
)

// Ladder reference sources.
const (
	LadderSourceDataset = "dataset"
	LadderSourceScan    = "scan"
)

// ProgressBufferMultiplier sizes the progress channel relative to the number
// of fields so slow terminals rarely cause dropped updates.
const ProgressBufferMultiplier = 16

// Stages selects the report stages of a mode.
type Stages struct {
	Scan     bool
	Ladder   bool
	Residual bool
}

// StagesFor returns the report stages run by mode. Field and history modes
// have no report stages.
func StagesFor(mode string) Stages {
	switch mode {
	case config.ModeScan:
		return Stages{Scan: true}
	case config.ModeLadder:
		return Stages{Ladder: true}
	case config.ModeResidual:
		return Stages{Residual: true}
	case config.ModeAll:
		return Stages{Scan: true, Ladder: true, Residual: true}
	}
	return Stages{}
}

// LadderReferences returns the references the ladder is fitted on: the
// dataset's fixed references unless fromScan is set or there are none, in
// which case they are derived from the scan results.
func LadderReferences(ds *dataset.Dataset, results []selector.Result, fromScan bool) ([]dataset.Quantity, string) {
	if !fromScan && len(ds.LadderReferences) > 0 {
		return ds.LadderReferences, LadderSourceDataset
	}
	return ladder.ReferencesFrom(results), LadderSourceScan
}

// FitLadder runs the ladder fit and the dyadic evaluation of the dataset's
// example energies.
func FitLadder(ds *dataset.Dataset, results []selector.Result, cfg config.AppConfig) (*models.Ladder, error) {
	refs, source := LadderReferences(ds, results, cfg.LadderFromScan)
	l, err := ladder.Fit(refs, cfg.ToLadderOptions())
	if err != nil {
		return nil, apperrors.FitError{Stage: "ladder", Cause: err}
	}
	evals := ladder.Evaluate(l, ds.Evaluate, cfg.ToDyadicOptions())
	return LadderModel(l, source, evals), nil
}

// BuildReport runs the report stages of cfg.Mode on ds. The ladder stage
// runs the scan as well when it needs scan-derived references, but the scan
// section is only reported when the mode includes it. The context is checked
// between stages; the logger attached to it with zerolog receives one debug
// line per stage.
//
// Returns:
//   - models.Report: The report, without ID.
//   - error: A context error or a FitError.
func BuildReport(ctx context.Context, ds *dataset.Dataset, cfg config.AppConfig) (models.Report, error) {
	logger := zerolog.Ctx(ctx)
	stages := StagesFor(cfg.Mode)
	report := models.Report{Mode: cfg.Mode, Source: ds.Source, GeneratedAt: time.Now().UTC()}

	var results []selector.Result
	needScan := stages.Scan || stages.Ladder && (cfg.LadderFromScan || len(ds.LadderReferences) == 0)
	if needScan {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		start := time.Now()
		results = selector.SelectAll(ds, cfg.ToSelectorOptions())
		for _, r := range results {
			logger.Debug().
				Str("scale", r.Scale).
				Str("tag", r.Tag).
				Float64("score", r.Score).
				Int("candidates", len(r.Evaluated)).
				Msg("scale selected")
		}
		logger.Debug().Dur("duration", time.Since(start)).Msg("scan done")
		if stages.Scan {
			report.Scales = ScaleResults(ds, results)
		}
	}

	if stages.Ladder {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		l, err := FitLadder(ds, results, cfg)
		if err != nil {
			return report, err
		}
		logger.Debug().
			Float64("alpha", l.Alpha).
			Int("rounds", l.Rounds).
			Bool("converged", l.Converged).
			Str("source", l.Source).
			Msg("ladder fitted")
		report.Ladder = l
	}

	if stages.Residual {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		res := residual.Search(ds.Residuals, 0, cfg.ToResidualOptions())
		logger.Debug().
			Float64("eps", res.Eps).
			Float64("objective", res.Objective).
			Float64("seed", res.Seed).
			Msg("residual search done")
		report.Residual = ResidualModel(res)
	}
	return report, nil
}

// RunFields generates the configured fields while displaying progress on
// out. Progress display is skipped when quiet is set.
//
// Parameters:
//   - ctx: The context for cancellation and deadlines.
//   - cfg: The application configuration.
//   - logger: Receives per-field log lines.
//   - out: The io.Writer for progress display.
//
// Returns:
//   - []models.FieldOutput: The files written, including those written before
//     a failure.
//   - error: A context error or a FitError for the "fields" stage.
func RunFields(ctx context.Context, cfg config.AppConfig, logger zerolog.Logger, out io.Writer) ([]models.FieldOutput, error) {
	fc := cfg.ToFieldConfig()
	fc.Logger = logger

	var observer field.ProgressObserver
	var displayWg sync.WaitGroup
	var progressChan chan field.ProgressUpdate
	if !cfg.Quiet {
		progressChan = make(chan field.ProgressUpdate, len(cfg.Fields)*ProgressBufferMultiplier)
		observer = field.NewChannelObserver(progressChan)
		displayWg.Add(1)
		go cli.DisplayProgress(&displayWg, progressChan, len(cfg.Fields), out)
	}

	outputs, err := field.Generate(ctx, cfg.Fields, fc, observer)

	if progressChan != nil {
		close(progressChan)
		displayWg.Wait()
	}
	if err != nil && !apperrors.IsContextError(err) {
		err = apperrors.FitError{Stage: "fields", Cause: err}
	}
	return FieldOutputs(outputs), err
}
