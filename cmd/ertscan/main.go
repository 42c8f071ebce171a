// Command ertscan fits magnitudes onto small rational lattices: it selects a
// reference per energy scale, fits a geometric ladder across scales, searches
// a residual unit, and writes VTI fields for visualization.
package main

import (
	"context"
	"os"

	"github.com/agbru/ertscan/internal/app"
	apperrors "github.com/agbru/ertscan/internal/errors"
)

func main() {
	if app.HasVersionFlag(os.Args[1:]) {
		app.PrintVersion(os.Stdout)
		return
	}

	application, err := app.New(os.Args, os.Stderr)
	if err != nil {
		if app.IsHelpError(err) {
			os.Exit(apperrors.ExitSuccess)
		}
		os.Exit(apperrors.HandleRunError(err, 0, os.Stderr, nil))
	}

	os.Exit(application.Run(context.Background(), os.Stdout))
}

