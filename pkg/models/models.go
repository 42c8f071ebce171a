/*
Package models defines the public JSON shapes of an ertscan run.

They are used for:
- **Report output**: the `-json` flag prints a Report.
- **HTTP API**: the server handlers encode these types.
- **Run history**: every recorded run stores its Report as JSON.

encoding/json rejects NaN and ±Inf, so every value that may be non-finite
(an unscored alpha, a sentinel error) is a *float64 that is null when the
number is not finite.
*/
package models

import (
	"math"
	"time"
)

// Report is the complete outcome of a run.
type Report struct {
	ID          string        `json:"id,omitempty"`
	Mode        string        `json:"mode"`
	Source      string        `json:"source"`
	GeneratedAt time.Time     `json:"generated_at"`
	Scales      []ScaleResult `json:"scales,omitempty"`
	Ladder      *Ladder       `json:"ladder,omitempty"`
	Residual    *Residual     `json:"residual,omitempty"`
	Fields      []FieldOutput `json:"fields,omitempty"`
}

// Fraction is a lattice fit n/d of a ratio.
type Fraction struct {
	N      int      `json:"n"`
	D      int      `json:"d"`
	Approx float64  `json:"approx"`
	RelErr *float64 `json:"rel_err"` // null for the sentinel
}

// ScaleRow is one scored quantity.
type ScaleRow struct {
	Label    string   `json:"label"`
	Value    float64  `json:"value"`
	Ratio    float64  `json:"ratio"`
	Fraction Fraction `json:"fraction"`
}

// Candidate is a reference candidate and the score it obtained.
type Candidate struct {
	Tag   string   `json:"tag"`
	Key   string   `json:"key"`
	Alpha float64  `json:"alpha"`
	Score *float64 `json:"score"`
}

// Rejection is a dataset entry excluded at ingestion.
type Rejection struct {
	Label  string `json:"label"`
	Reason string `json:"reason"`
}

// ScaleResult is the reference selection of one scale.
type ScaleResult struct {
	Scale      string      `json:"scale"`
	Tag        string      `json:"tag"`
	Key        string      `json:"key"`
	Alpha      *float64    `json:"alpha"`
	Score      *float64    `json:"score"`
	Rows       []ScaleRow  `json:"rows"`
	Candidates []Candidate `json:"candidates,omitempty"`
	Rejected   []Rejection `json:"rejected,omitempty"`
}

// Rung is the fitted position of a scale on the ladder.
type Rung struct {
	Scale     string  `json:"scale"`
	Exponent  int     `json:"exponent"`
	Value     float64 `json:"value"`
	Reference float64 `json:"reference"`
	RelErr    float64 `json:"rel_err"`
}

// EvalPoint is one energy expressed against its rung.
type EvalPoint struct {
	Label    string   `json:"label"`
	Energy   float64  `json:"energy"`
	Ratio    float64  `json:"ratio"`
	Fraction Fraction `json:"fraction"`
	// Power is m when the denominator is 2^m.
	Power *int `json:"power,omitempty"`
}

// Evaluation groups the points of one scale.
type Evaluation struct {
	Scale     string      `json:"scale"`
	RungValue float64     `json:"rung_value"`
	Points    []EvalPoint `json:"points"`
}

// Ladder is the global ladder fit.
type Ladder struct {
	Alpha float64 `json:"alpha"`
	Base  float64 `json:"base"`
	// Source is "dataset" when the references came from the dataset, "scan"
	// when they were derived from the scale selection.
	Source      string       `json:"source"`
	Rounds      int          `json:"rounds"`
	Converged   bool         `json:"converged"`
	Rungs       []Rung       `json:"rungs"`
	Evaluations []Evaluation `json:"evaluations,omitempty"`
}

// ResidualRow is one corrected residual.
type ResidualRow struct {
	Label      string  `json:"label"`
	Residual   float64 `json:"residual"`
	Multiple   float64 `json:"multiple"`
	Exponent   *int    `json:"exponent"`
	Correction float64 `json:"correction"`
	After      float64 `json:"after"`
}

// Residual is the outcome of the residual grid search.
type Residual struct {
	Eps       float64       `json:"eps"`
	Objective *float64      `json:"objective"`
	Seed      float64       `json:"seed"`
	Rows      []ResidualRow `json:"rows"`
}

// FieldOutput describes one generated VTI file.
type FieldOutput struct {
	Name       string `json:"name"`
	Path       string `json:"path"`
	Bytes      int64  `json:"bytes"`
	DurationMS int64  `json:"duration_ms"`
}

// RunSummary is a row of the run history.
type RunSummary struct {
	ID        string    `json:"id"`
	Mode      string    `json:"mode"`
	CreatedAt time.Time `json:"created_at"`
	AlphaStar *float64  `json:"alpha_star"`
}

// ErrorResponse is the body of every failed API request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Finite returns a pointer to x, or nil when x is NaN or infinite.
func Finite(x float64) *float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return nil
	}
	return &x
}

// Value dereferences p, mapping nil to +Inf.
func Value(p *float64) float64 {
	if p == nil {
		return math.Inf(1)
	}
	return *p
}
