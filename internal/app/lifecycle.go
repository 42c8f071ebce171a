package app

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
)

// CancelFuncs holds the cancel functions of a run context. Cleanup must be
// called, typically via defer.
type CancelFuncs struct {
	// CancelTimeout cancels the timeout context.
	CancelTimeout context.CancelFunc
	// StopSignals stops listening for OS signals.
	StopSignals context.CancelFunc
}

// Cleanup calls both cancel functions.
func (c *CancelFuncs) Cleanup() {
	if c.StopSignals != nil {
		c.StopSignals()
	}
	if c.CancelTimeout != nil {
		c.CancelTimeout()
	}
}

// SetupLifecycle derives the context of one run: it expires after timeout,
// is canceled on SIGINT or SIGTERM, and carries logger so the fitting stages
// can retrieve it with zerolog.Ctx.
//
// Parameters:
//   - ctx: The parent context.
//   - timeout: The maximum duration of the run.
//   - logger: The run logger.
//
// Returns:
//   - context.Context: The run context.
//   - *CancelFuncs: The cleanup functions.
func SetupLifecycle(ctx context.Context, timeout time.Duration, logger zerolog.Logger) (context.Context, *CancelFuncs) {
	ctx, cancelTimeout := context.WithTimeout(ctx, timeout)
	ctx, stopSignals := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	ctx = logger.WithContext(ctx)

	return ctx, &CancelFuncs{
		CancelTimeout: cancelTimeout,
		StopSignals:   stopSignals,
	}
}
