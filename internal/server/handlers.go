package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/agbru/ertscan/internal/config"
	"github.com/agbru/ertscan/internal/dataset"
	"github.com/agbru/ertscan/internal/history"
	"github.com/agbru/ertscan/internal/ladder"
	"github.com/agbru/ertscan/internal/lattice"
	"github.com/agbru/ertscan/internal/orchestration"
	"github.com/agbru/ertscan/internal/residual"
	"github.com/agbru/ertscan/internal/selector"
	"github.com/agbru/ertscan/pkg/models"
)

// LadderRequest is the body of POST /ladder.
type LadderRequest struct {
	References []dataset.Quantity `json:"references"`
	// Base overrides the ladder base when non-zero.
	Base float64 `json:"base,omitempty"`
}

// FractionResponse is the body of GET /fraction.
type FractionResponse struct {
	Ratio    float64         `json:"ratio"`
	Fraction models.Fraction `json:"fraction"`
	// Power is m when the denominator is a power of two, 2^m.
	Power *int `json:"power,omitempty"`
}

// fractionKey identifies a /fraction answer: the ratio bits and the lattice.
type fractionKey struct {
	ratio  uint64
	nmax   int
	denoms string
}

func newFractionKey(r float64, lat lattice.Options) fractionKey {
	return fractionKey{ratio: math.Float64bits(r), nmax: lat.NMax, denoms: fmt.Sprint(lat.Denominators)}
}

// requestError is a client error with its HTTP status.
type requestError struct {
	status  int
	message string
}

func (e requestError) Error() string { return e.message }

func badRequest(format string, a ...any) error {
	return requestError{status: http.StatusBadRequest, message: fmt.Sprintf(format, a...)}
}

// queryInt parses an optional integer query parameter within [lo, hi].
func queryInt(r *http.Request, name string, def, lo, hi int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < lo || v > hi {
		return 0, badRequest("Invalid '%s' parameter: must be an integer in [%d, %d]", name, lo, hi)
	}
	return v, nil
}

// queryLattice reads nmax, denoms and dyadic; the configured scan lattice is
// the default.
func (s *Server) queryLattice(r *http.Request) (lattice.Options, error) {
	opts := s.cfg.ToLatticeOptions()
	if r.URL.Query().Get("dyadic") == "true" {
		opts = s.cfg.ToDyadicOptions()
	}
	nmax, err := queryInt(r, "nmax", opts.NMax, 1, s.limits.MaxNumerator)
	if err != nil {
		return opts, err
	}
	opts.NMax = nmax
	if raw := r.URL.Query().Get("denoms"); raw != "" {
		denoms, err := config.ParseIntList(raw)
		if err != nil {
			return opts, badRequest("Invalid 'denoms' parameter: %v", err)
		}
		if len(denoms) == 0 || len(denoms) > s.limits.MaxDenominators {
			return opts, badRequest("Invalid 'denoms' parameter: between 1 and %d denominators are required", s.limits.MaxDenominators)
		}
		for _, d := range denoms {
			if d <= 0 {
				return opts, badRequest("Invalid 'denoms' parameter: denominators must be positive")
			}
		}
		opts.Denominators = denoms
	}
	return opts, nil
}

// handleHealth responds to health check requests.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"status":    "healthy",
		"dataset":   s.ds.Source,
		"scales":    len(s.ds.Scales),
		"timestamp": time.Now().Unix(),
	}
	s.writeJSONResponse(w, http.StatusOK, response)
}

// handleScales runs the reference selection on every scale. The lattice can
// be overridden with the nmax and denoms query parameters.
func (s *Server) handleScales(w http.ResponseWriter, r *http.Request) {
	lat, err := s.queryLattice(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	opts := s.cfg.ToSelectorOptions()
	opts.Lattice = lat

	start := time.Now()
	results := selector.SelectAll(s.ds, opts)
	s.metrics.ObserveFit("scan", start)
	s.writeJSONResponse(w, http.StatusOK, orchestration.ScaleResults(s.ds, results))
}

// handleLadder fits the ladder on the dataset references, or on the scan
// results with from_scan=true.
func (s *Server) handleLadder(w http.ResponseWriter, r *http.Request) {
	cfg := s.cfg
	if r.URL.Query().Get("from_scan") == "true" {
		cfg.LadderFromScan = true
	}
	var results []selector.Result
	if cfg.LadderFromScan || len(s.ds.LadderReferences) == 0 {
		results = selector.SelectAll(s.ds, cfg.ToSelectorOptions())
	}

	start := time.Now()
	l, err := orchestration.FitLadder(s.ds, results, cfg)
	s.metrics.ObserveFit("ladder", start)
	if err != nil {
		s.writeErrorResponse(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	s.writeJSONResponse(w, http.StatusOK, l)
}

// handleLadderFit fits a ladder on the posted references and evaluates the
// dataset energies of the scales it names.
func (s *Server) handleLadderFit(w http.ResponseWriter, r *http.Request) {
	var req LadderRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.limits.MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON body: "+err.Error())
		return
	}
	if len(req.References) > s.limits.MaxReferences {
		s.writeErrorResponse(w, http.StatusBadRequest,
			fmt.Sprintf("Too many references: at most %d are accepted", s.limits.MaxReferences))
		return
	}

	opts := s.cfg.ToLadderOptions()
	if req.Base != 0 {
		opts.Base = req.Base
	}
	start := time.Now()
	l, err := ladder.Fit(req.References, opts)
	if err != nil {
		s.metrics.ObserveFit("ladder", start)
		s.writeErrorResponse(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	evals := ladder.Evaluate(l, s.ds.Evaluate, s.cfg.ToDyadicOptions())
	s.metrics.ObserveFit("ladder", start)
	s.writeJSONResponse(w, http.StatusOK, orchestration.LadderModel(l, "request", evals))
}

// handleFraction fits one ratio r onto the lattice.
func (s *Server) handleFraction(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("r")
	if raw == "" {
		s.writeErrorResponse(w, http.StatusBadRequest, "Missing 'r' parameter")
		return
	}
	ratio, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "Invalid 'r' parameter: must be a number")
		return
	}
	lat, err := s.queryLattice(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	key := newFractionKey(ratio, lat)
	if s.fractions != nil {
		if resp, ok := s.fractions.Get(key); ok {
			s.writeJSONResponse(w, http.StatusOK, resp)
			return
		}
	}

	f := lattice.BestWith(ratio, lat)
	resp := FractionResponse{Fraction: orchestration.FractionModel(f)}
	if !math.IsNaN(ratio) && !math.IsInf(ratio, 0) {
		resp.Ratio = ratio
	}
	if f.Valid() {
		if m, ok := f.Exponent(2); ok {
			resp.Power = &m
		}
	}
	if s.fractions != nil {
		s.fractions.Add(key, resp)
	}
	s.writeJSONResponse(w, http.StatusOK, resp)
}

// handleResidual runs the residual search on the dataset residuals. ngrid
// and widen can be overridden.
func (s *Server) handleResidual(w http.ResponseWriter, r *http.Request) {
	opts := s.cfg.ToResidualOptions()
	var err error
	if opts.NGrid, err = queryInt(r, "ngrid", opts.NGrid, 1, s.limits.MaxGrid); err != nil {
		s.writeError(w, err)
		return
	}
	if opts.Widen, err = queryInt(r, "widen", opts.Widen, 0, 32); err != nil {
		s.writeError(w, err)
		return
	}

	start := time.Now()
	res := residual.Search(s.ds.Residuals, 0, opts)
	s.metrics.ObserveFit("residual", start)
	s.writeJSONResponse(w, http.StatusOK, orchestration.ResidualModel(res))
}

// handleRuns lists the most recent recorded runs.
func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.writeErrorResponse(w, http.StatusNotFound, "Run history is disabled")
		return
	}
	limit, err := queryInt(r, "limit", s.cfg.HistoryLimit, 1, 1000)
	if err != nil {
		s.writeError(w, err)
		return
	}
	runs, err := s.history.List(r.Context(), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSONResponse(w, http.StatusOK, runs)
}

// handleRun returns the full report of one recorded run.
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.writeErrorResponse(w, http.StatusNotFound, "Run history is disabled")
		return
	}
	report, err := s.history.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, history.ErrNotFound) {
		s.writeErrorResponse(w, http.StatusNotFound, "Run not found")
		return
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSONResponse(w, http.StatusOK, report)
}

// writeJSONResponse writes data as JSON with the given status code.
func (s *Server) writeJSONResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Printf("Error encoding JSON response: %v", err)
	}
}

// writeErrorResponse writes a standardized error response.
func (s *Server) writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	s.writeJSONResponse(w, statusCode, models.ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	})
}

// writeError maps request errors to their status and anything else to 500.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var reqErr requestError
	if errors.As(err, &reqErr) {
		s.writeErrorResponse(w, reqErr.status, reqErr.message)
		return
	}
	s.logger.Printf("Internal error: %v", err)
	s.writeErrorResponse(w, http.StatusInternalServerError, "Internal server error")
}
