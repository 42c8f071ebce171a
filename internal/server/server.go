// Package server exposes the ertscan fits over a small JSON HTTP API.
package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/agbru/ertscan/internal/config"
	"github.com/agbru/ertscan/internal/dataset"
	apperrors "github.com/agbru/ertscan/internal/errors"
	"github.com/agbru/ertscan/internal/history"
	"github.com/agbru/ertscan/internal/logging"
)

// Server serves the fitting API for one dataset. It wraps http.Server with
// a chi router, metrics and graceful shutdown.
type Server struct {
	ds             *dataset.Dataset
	cfg            config.AppConfig
	router         chi.Router
	httpServer     *http.Server
	logger         logging.Logger
	shutdownSignal chan os.Signal
	metrics        *Metrics
	timeouts       Timeouts
	limits         Limits
	history        *history.Store
	fractions      *lru.Cache[fractionKey, FractionResponse]
}

// NewServer creates a server for ds. cfg supplies the port and the default
// fit options; opts customize logging, timeouts, limits and history.
func NewServer(ds *dataset.Dataset, cfg config.AppConfig, opts ...Option) *Server {
	s := &Server{
		ds:             ds,
		cfg:            cfg,
		logger:         logging.NewLogger(os.Stdout, "server"),
		shutdownSignal: make(chan os.Signal, 1),
		metrics:        NewMetrics(),
		timeouts:       DefaultServerTimeouts(),
		limits:         DefaultLimits(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.limits.FractionCacheSize > 0 {
		// New only fails for a non-positive size.
		s.fractions, _ = lru.New[fractionKey, FractionResponse](s.limits.FractionCacheSize)
	}

	r := chi.NewRouter()
	// Middleware chain: RequestID -> Recoverer -> Logging -> Metrics -> Handler
	r.Use(middleware.RequestID, middleware.Recoverer, s.loggingMiddleware, s.metricsMiddleware)
	if s.timeouts.RequestTimeout > 0 {
		r.Use(middleware.Timeout(s.timeouts.RequestTimeout))
	}

	r.Get("/health", s.handleHealth)
	r.Get("/scales", s.handleScales)
	r.Get("/ladder", s.handleLadder)
	r.Post("/ladder", s.handleLadderFit)
	r.Get("/fraction", s.handleFraction)
	r.Get("/residual", s.handleResidual)
	r.Route("/runs", func(rr chi.Router) {
		rr.Get("/", s.handleRuns)
		rr.Get("/{id}", s.handleRun)
	})
	r.Get("/metrics", s.handleMetrics)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.writeErrorResponse(w, http.StatusNotFound, "Unknown endpoint")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		s.writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
	})
	s.router = r

	s.httpServer = &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  s.timeouts.ReadTimeout,
		WriteTimeout: s.timeouts.WriteTimeout,
		IdleTimeout:  s.timeouts.IdleTimeout,
	}
	return s
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// loggingMiddleware logs one line per request with its status and duration.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Printf("%s %s %d %s", r.Method, r.URL.RequestURI(), ww.Status(), time.Since(start))
	})
}

// Start listens on the configured port until ctx is done or SIGINT/SIGTERM
// is received, then shuts down gracefully.
//
// Returns:
//   - error: A ServerError if the server fails to start or to shut down.
func (s *Server) Start(ctx context.Context) error {
	signal.Notify(s.shutdownSignal, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(s.shutdownSignal)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Printf("Starting server on %s for dataset %s", s.httpServer.Addr, s.ds.Source)
		s.logger.Println("Available endpoints: GET /health /scales /ladder /fraction /residual /runs /metrics, POST /ladder")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-s.shutdownSignal:
		s.logger.Println("Shutdown signal received, initiating graceful shutdown...")
	case <-ctx.Done():
		s.logger.Println("Context done, initiating graceful shutdown...")
	case err := <-errCh:
		return apperrors.NewServerError("server failed to start", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.timeouts.ShutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return apperrors.NewServerError("failed to gracefully shutdown server", err)
	}

	s.logger.Println("Server stopped gracefully")
	return nil
}
