// Package ladder fits a single global reference value alpha* and one integer
// exponent per scale so that every scale reference r satisfies
// r ≈ alpha* · base^k.
//
// The fit alternates two steps: exponents are rounded in log space against the
// current alpha*, then alpha* is refit as the mean of r / base^k. The loop
// stops as soon as an exponent assignment repeats, or after MaxRounds rounds.
package ladder

import (
	"math"

	"github.com/agbru/ertscan/internal/dataset"
	apperrors "github.com/agbru/ertscan/internal/errors"
	"github.com/agbru/ertscan/internal/selector"
)

// Options configures the ladder fit.
type Options struct {
	// Base is the ratio between neighbouring rungs.
	Base float64
	// MaxRounds bounds the number of refinement rounds.
	MaxRounds int
	// MaxExponent clamps |k|.
	MaxExponent int
}

// DefaultOptions returns base 8 with 8 refinement rounds.
func DefaultOptions() Options {
	return Options{Base: 8, MaxRounds: 8, MaxExponent: 64}
}

// Rung is the fitted position of one scale on the ladder.
type Rung struct {
	Scale     string
	Exponent  int
	Value     float64 // Alpha · Base^Exponent
	Reference float64
}

// RelErr is the relative deviation of the rung from the scale reference.
func (r Rung) RelErr() float64 {
	return math.Abs(r.Reference-r.Value) / math.Abs(r.Reference)
}

// Ladder is the result of a fit.
type Ladder struct {
	Alpha float64
	Base  float64
	Rungs []Rung
	// Rounds counts the rounds that computed an exponent assignment.
	Rounds int
	// Converged is false when MaxRounds was reached with exponents still
	// changing.
	Converged bool
}

// Exponents returns the exponent of each scale.
func (l Ladder) Exponents() map[string]int {
	out := make(map[string]int, len(l.Rungs))
	for _, r := range l.Rungs {
		out[r.Scale] = r.Exponent
	}
	return out
}

// Rung returns the rung of a scale.
func (l Ladder) Rung(scale string) (Rung, bool) {
	for _, r := range l.Rungs {
		if r.Scale == scale {
			return r, true
		}
	}
	return Rung{}, false
}

func logBase(x, base float64) float64 {
	return math.Log(x) / math.Log(base)
}

func clamp(k, bound int) int {
	if k > bound {
		return bound
	}
	if k < -bound {
		return -bound
	}
	return k
}

func exponents(refs []dataset.Quantity, alpha float64, opts Options) []int {
	ks := make([]int, len(refs))
	for i, r := range refs {
		ks[i] = clamp(int(math.RoundToEven(logBase(r.Value/alpha, opts.Base))), opts.MaxExponent)
	}
	return ks
}

func refit(refs []dataset.Quantity, ks []int, base float64) float64 {
	sum := 0.0
	for i, r := range refs {
		sum += r.Value / math.Pow(base, float64(ks[i]))
	}
	return sum / float64(len(refs))
}

func sameExponents(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Fit computes the ladder for the given per-scale references. Each reference
// must be finite and strictly positive; otherwise a ValidationError naming the
// scale is returned. The computation is deterministic: the references are
// processed in slice order.
func Fit(refs []dataset.Quantity, opts Options) (Ladder, error) {
	if len(refs) == 0 {
		return Ladder{}, apperrors.NewValidationError("references", "no ladder references", nil)
	}
	if opts.Base <= 1 || math.IsInf(opts.Base, 0) || math.IsNaN(opts.Base) {
		return Ladder{}, apperrors.NewValidationError("base", "ladder base must be finite and greater than 1", opts.Base)
	}
	for _, r := range refs {
		if !(r.Value > 0) || math.IsInf(r.Value, 0) {
			return Ladder{}, apperrors.NewValidationError(r.Label, "reference must be finite and positive", r.Value)
		}
	}

	sumLog := 0.0
	for _, r := range refs {
		sumLog += logBase(r.Value, opts.Base)
	}
	alpha := math.Pow(opts.Base, sumLog/float64(len(refs)))

	var ks []int
	rounds := 0
	converged := false
	for rounds < opts.MaxRounds {
		next := exponents(refs, alpha, opts)
		rounds++
		if ks != nil && sameExponents(ks, next) {
			converged = true
			break
		}
		ks = next
		alpha = refit(refs, ks, opts.Base)
	}
	if ks == nil {
		ks = exponents(refs, alpha, opts)
	}

	l := Ladder{Alpha: alpha, Base: opts.Base, Rounds: rounds, Converged: converged}
	for i, r := range refs {
		l.Rungs = append(l.Rungs, Rung{
			Scale:     r.Label,
			Exponent:  ks[i],
			Value:     alpha * math.Pow(opts.Base, float64(ks[i])),
			Reference: r.Value,
		})
	}
	return l, nil
}

// ReferencesFrom turns selector results into ladder references, skipping
// scales without a finite positive reference.
func ReferencesFrom(results []selector.Result) []dataset.Quantity {
	out := make([]dataset.Quantity, 0, len(results))
	for _, r := range results {
		if r.Skipped() || !(r.Alpha > 0) || math.IsInf(r.Alpha, 0) {
			continue
		}
		out = append(out, dataset.Quantity{Label: r.Scale, Value: r.Alpha})
	}
	return out
}
