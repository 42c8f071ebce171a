package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/agbru/ertscan/internal/cli"
	"github.com/agbru/ertscan/internal/config"
	"github.com/agbru/ertscan/internal/dataset"
	apperrors "github.com/agbru/ertscan/internal/errors"
	"github.com/agbru/ertscan/internal/history"
	"github.com/agbru/ertscan/internal/logging"
	"github.com/agbru/ertscan/internal/orchestration"
	"github.com/agbru/ertscan/internal/server"
	"github.com/agbru/ertscan/internal/ui"
	"github.com/agbru/ertscan/pkg/models"
)

// Application represents one ertscan invocation: its configuration, the
// dataset it works on and where diagnostics go.
type Application struct {
	// Config holds the parsed application configuration.
	Config config.AppConfig
	// Dataset is the loaded dataset, embedded or read from Config.DataPath.
	Dataset *dataset.Dataset
	// ErrWriter is the writer for error output and logs (typically os.Stderr).
	ErrWriter io.Writer
	// Logger is the structured logger of the run, writing to ErrWriter.
	Logger zerolog.Logger

	level zerolog.Level
}

// New creates an Application by parsing the command-line arguments and
// loading the dataset.
//
// Parameters:
//   - args: The command-line arguments (typically os.Args).
//   - errWriter: The writer for error output.
//
// Returns:
//   - *Application: A new application instance.
//   - error: flag.ErrHelp, a ConfigError, a flag parse error, or a
//     DatasetError when the dataset cannot be loaded.
func New(args []string, errWriter io.Writer) (*Application, error) {
	// args[0] is program name, args[1:] are the actual arguments
	programName := "ertscan"
	var cmdArgs []string
	if len(args) > 0 {
		programName = args[0]
		cmdArgs = args[1:]
	}

	cfg, err := config.ParseConfig(programName, cmdArgs, errWriter)
	if err != nil {
		return nil, err
	}
	// Validate has already accepted the level.
	level, _ := logging.ParseLevel(cfg.LogLevel)

	ds, err := dataset.Load(cfg.DataPath)
	if err != nil {
		return nil, err
	}

	return &Application{
		Config:    cfg,
		Dataset:   ds,
		ErrWriter: errWriter,
		Logger:    logging.New(errWriter, "app", level),
		level:     level,
	}, nil
}

// componentLogger returns a logger tagged with component at the run level.
func (a *Application) componentLogger(component string) zerolog.Logger {
	return logging.New(a.ErrWriter, component, a.level)
}

// Run executes the application in the configured mode.
//
// Parameters:
//   - ctx: The context for managing cancellation and timeouts.
//   - out: The writer for standard output.
//
// Returns:
//   - int: An exit code (0 for success, non-zero for errors).
func (a *Application) Run(ctx context.Context, out io.Writer) int {
	// Initialize CLI theme (respects --no-color flag and NO_COLOR env var)
	ui.InitTheme(a.Config.NoColor)

	if a.Config.ServerMode {
		return a.runServer(ctx)
	}

	switch a.Config.Mode {
	case config.ModeHistory:
		return a.runHistory(ctx, out)
	case config.ModeField:
		return a.runFields(ctx, out)
	}
	return a.runReport(ctx, out)
}

// openHistory opens the run history when a path is configured; it returns a
// nil store otherwise.
func (a *Application) openHistory() (*history.Store, error) {
	if a.Config.HistoryPath == "" {
		return nil, nil
	}
	return history.Open(a.Config.HistoryPath, a.componentLogger("history"))
}

// runServer starts the HTTP server mode.
func (a *Application) runServer(ctx context.Context) int {
	store, err := a.openHistory()
	if err != nil {
		fmt.Fprintf(a.ErrWriter, "Server error: %v\n", err)
		return apperrors.ExitErrorGeneric
	}
	if store != nil {
		defer store.Close()
	}

	srv := server.NewServer(a.Dataset, a.Config,
		server.WithLogger(logging.NewZerologAdapter(a.componentLogger("server"))),
		server.WithHistory(store),
	)
	if err := srv.Start(ctx); err != nil {
		fmt.Fprintf(a.ErrWriter, "Server error: %v\n", err)
		return apperrors.ExitErrorGeneric
	}
	return apperrors.ExitSuccess
}

// runHistory lists the recorded runs.
func (a *Application) runHistory(ctx context.Context, out io.Writer) int {
	store, err := a.openHistory()
	if err != nil {
		fmt.Fprintf(a.ErrWriter, "Error opening run history: %v\n", err)
		return apperrors.ExitErrorGeneric
	}
	if store == nil {
		return apperrors.HandleRunError(apperrors.NewConfigError("mode 'history' requires -history"), 0, out, cli.CLIColorProvider{})
	}
	defer store.Close()

	runs, err := store.List(ctx, a.Config.HistoryLimit)
	if err != nil {
		fmt.Fprintf(a.ErrWriter, "Error reading run history: %v\n", err)
		return apperrors.ExitErrorGeneric
	}
	if a.Config.JSONOutput {
		if err := cli.WriteJSON(out, runs); err != nil {
			return apperrors.ExitErrorGeneric
		}
		return apperrors.ExitSuccess
	}
	cli.PrintHistory(runs, out)
	return apperrors.ExitSuccess
}

// runReport runs the fitting stages of the mode and displays the report.
func (a *Application) runReport(ctx context.Context, out io.Writer) int {
	ctx, cancel := SetupLifecycle(ctx, a.Config.Timeout, a.Logger)
	defer cancel.Cleanup()

	a.printHeader(out)
	start := time.Now()
	report, err := orchestration.BuildReport(ctx, a.Dataset, a.Config)
	if err != nil {
		return apperrors.HandleRunError(err, time.Since(start), out, cli.CLIColorProvider{})
	}
	a.Logger.Info().Str("mode", a.Config.Mode).Dur("duration", time.Since(start)).Msg("report built")
	return a.finish(ctx, report, out)
}

// runFields generates the configured fields and displays what was written.
func (a *Application) runFields(ctx context.Context, out io.Writer) int {
	ctx, cancel := SetupLifecycle(ctx, a.Config.Timeout, a.Logger)
	defer cancel.Cleanup()

	a.printHeader(out)
	// In quiet mode, use a discard writer for progress display
	progressOut := out
	if a.Config.Quiet || a.Config.JSONOutput {
		progressOut = io.Discard
	}

	start := time.Now()
	outputs, err := orchestration.RunFields(ctx, a.Config, a.componentLogger("field"), progressOut)
	if err != nil {
		if len(outputs) > 0 && !a.Config.Quiet {
			cli.PrintFieldSummary(outputs, out)
		}
		return apperrors.HandleRunError(err, time.Since(start), out, cli.CLIColorProvider{})
	}

	report := models.Report{
		Mode:        a.Config.Mode,
		Source:      a.Dataset.Source,
		GeneratedAt: time.Now().UTC(),
		Fields:      outputs,
	}
	return a.finish(ctx, report, out)
}

// printHeader prints the execution configuration unless the output is meant
// for scripts.
func (a *Application) printHeader(out io.Writer) {
	if !a.Config.JSONOutput && !a.Config.Quiet {
		cli.PrintExecutionConfig(a.Config, a.Dataset.Source, out)
	}
}

// finish records the report in the run history, when enabled, and displays
// it with the output options.
func (a *Application) finish(ctx context.Context, report models.Report, out io.Writer) int {
	if err := a.record(ctx, &report); err != nil {
		fmt.Fprintf(a.ErrWriter, "Error recording run: %v\n", err)
		return apperrors.ExitErrorGeneric
	}

	outputCfg := cli.OutputConfig{
		OutputFile: a.Config.OutputFile,
		JSON:       a.Config.JSONOutput,
		Quiet:      a.Config.Quiet,
	}
	if err := cli.DisplayReportWithConfig(out, report, outputCfg); err != nil {
		fmt.Fprintf(a.ErrWriter, "Error writing report: %v\n", err)
		return apperrors.ExitErrorGeneric
	}
	return apperrors.ExitSuccess
}

// record stores report in the run history and sets its ID. It is a no-op
// without a history path.
func (a *Application) record(ctx context.Context, report *models.Report) error {
	store, err := a.openHistory()
	if err != nil || store == nil {
		return err
	}
	defer store.Close()

	id, err := store.Record(context.WithoutCancel(ctx), *report)
	if err != nil {
		return err
	}
	report.ID = id
	return nil
}

// IsHelpError checks if the error is a help flag error (--help was used).
// This is useful for determining if the application should exit with success
// after displaying help text.
//
// Parameters:
//   - err: The error to check.
//
// Returns:
//   - bool: True if the error indicates help was requested.
func IsHelpError(err error) bool {
	return errors.Is(err, flag.ErrHelp)
}
