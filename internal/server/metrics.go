package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exposes the server metrics in Prometheus format:
//   - active requests (gauge)
//   - requests by route and status code (counter)
//   - duration of each fitting stage (histogram)
type Metrics struct {
	handler http.Handler
}

var (
	activeRequests = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ertscan_active_requests",
		Help: "Current number of active requests",
	})
	totalRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ertscan_requests_total",
		Help: "Total number of requests by route and status code",
	}, []string{"route", "code"})
	fitDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ertscan_fit_duration_seconds",
		Help:    "Duration of fitting stages served over HTTP",
		Buckets: prometheus.ExponentialBuckets(1e-5, 4, 10),
	}, []string{"stage"})
)

// NewMetrics creates a new Metrics instance.
func NewMetrics() *Metrics {
	return &Metrics{handler: promhttp.Handler()}
}

// ObserveFit records the duration of a fitting stage started at start.
func (m *Metrics) ObserveFit(stage string, start time.Time) {
	fitDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

// handleMetrics serves /metrics.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	s.metrics.handler.ServeHTTP(w, r)
}

// metricsMiddleware tracks active requests and counts finished ones by
// route pattern and status code.
func (s *Server) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		activeRequests.Inc()
		defer activeRequests.Dec()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		totalRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	})
}
