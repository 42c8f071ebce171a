package server

import (
	"log"
	"time"

	"github.com/agbru/ertscan/internal/history"
	"github.com/agbru/ertscan/internal/logging"
)

// Option defines a functional option for configuring a Server.
type Option func(*Server)

// WithLogger sets a custom logger for the server using the unified logging
// interface. A nil logger keeps the default.
func WithLogger(logger logging.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithStdLogger sets a standard library log.Logger for the server.
func WithStdLogger(logger *log.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logging.NewStdLoggerAdapter(logger)
		}
	}
}

// WithHistory exposes the run history under /runs.
func WithHistory(store *history.Store) Option {
	return func(s *Server) {
		s.history = store
	}
}

// WithTimeouts sets custom timeout configuration for the server.
func WithTimeouts(timeouts Timeouts) Option {
	return func(s *Server) {
		s.timeouts = timeouts
	}
}

// WithLimits sets the request size limits.
func WithLimits(limits Limits) Option {
	return func(s *Server) {
		s.limits = limits
	}
}

// Timeouts holds timeout configuration for the HTTP server.
type Timeouts struct {
	// RequestTimeout is the maximum duration for a single request.
	RequestTimeout time.Duration
	// ShutdownTimeout is the maximum duration allowed for graceful shutdown.
	ShutdownTimeout time.Duration
	// ReadTimeout is the maximum duration for reading the entire request, including the body.
	ReadTimeout time.Duration
	// WriteTimeout is the maximum duration before timing out writes of the response.
	WriteTimeout time.Duration
	// IdleTimeout is the maximum amount of time to wait for the next request when keep-alives are enabled.
	IdleTimeout time.Duration
}

// DefaultServerTimeouts returns the production timeouts.
func DefaultServerTimeouts() Timeouts {
	return Timeouts{
		RequestTimeout:  30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    time.Minute,
		IdleTimeout:     2 * time.Minute,
	}
}

// Limits bounds the work a single request may ask for.
type Limits struct {
	// MaxNumerator bounds the nmax query parameter.
	MaxNumerator int
	// MaxDenominators bounds the number of denominators.
	MaxDenominators int
	// MaxGrid bounds the ngrid query parameter of /residual.
	MaxGrid int
	// MaxReferences bounds the references of POST /ladder.
	MaxReferences int
	// MaxBodyBytes bounds request bodies.
	MaxBodyBytes int64
	// FractionCacheSize is the number of /fraction answers kept in memory;
	// 0 disables the cache.
	FractionCacheSize int
}

// DefaultLimits returns limits that keep every request well under a second.
func DefaultLimits() Limits {
	return Limits{
		MaxNumerator:    1 << 20,
		MaxDenominators: 64,
		MaxGrid:         100_000,
		MaxReferences:   256,
		MaxBodyBytes:    1 << 20,

		FractionCacheSize: 4096,
	}
}
