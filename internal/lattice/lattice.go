// Package lattice finds the fraction n/d closest to a real ratio when the
// denominator is restricted to a small fixed set, typically the powers of 2
// or 8, and the numerator to [1, nMax].
//
// The search is a bounded local one: for every denominator d it probes the
// naive numerator round(r·d) and its two neighbours. It is not a general
// rational-approximation algorithm; optima whose numerator lies further from
// the naive round for every denominator are not found.
package lattice

import (
	"fmt"
	"math"
)

// Epsilon guards the relative error against division by a near-zero ratio.
const Epsilon = 1e-15

// Fraction is a scored lattice candidate n/d for a ratio.
type Fraction struct {
	N      int     `json:"n"`
	D      int     `json:"d"`
	Approx float64 `json:"approx"`
	RelErr float64 `json:"rel_err"`
}

// Sentinel is returned when no fraction can be produced: the ratio is NaN or
// infinite, or no numerator satisfies the bound for any denominator.
var Sentinel = Fraction{N: 0, D: 1, Approx: 0, RelErr: math.Inf(1)}

// Valid reports whether f is a real candidate rather than the sentinel.
func (f Fraction) Valid() bool {
	return f.N > 0 && !math.IsInf(f.RelErr, 1)
}

// String formats the fraction as "n/d".
func (f Fraction) String() string {
	return fmt.Sprintf("%d/%d", f.N, f.D)
}

// Exponent returns m such that D == base^m, and false if D is not a power of
// base.
func (f Fraction) Exponent(base int) (int, bool) {
	if base < 2 || f.D < 1 {
		return 0, false
	}
	m, d := 0, f.D
	for d%base == 0 {
		d /= base
		m++
	}
	return m, d == 1
}

// Options bounds the search.
type Options struct {
	// NMax is the largest numerator considered.
	NMax int
	// Denominators is the ordered set of allowed denominators. Order matters
	// only for ties: the first candidate found keeps its place.
	Denominators []int
}

// Default returns the bounds used to score magnitudes against a reference:
// numerators up to 64 over the powers of two up to 64.
func Default() Options {
	return Options{NMax: 64, Denominators: Powers(2, 6)}
}

// Dyadic returns the wider bounds used for ladder evaluation: numerators up to
// 256 over 2^0 … 2^12.
func Dyadic() Options {
	return Options{NMax: 256, Denominators: Powers(2, 12)}
}

// Powers returns base^0, base^1, …, base^maxExp.
func Powers(base, maxExp int) []int {
	if maxExp < 0 {
		return nil
	}
	out := make([]int, 0, maxExp+1)
	d := 1
	for m := 0; m <= maxExp; m++ {
		out = append(out, d)
		d *= base
	}
	return out
}

// Best returns the fraction n/d minimizing |r - n/d| / max(|r|, Epsilon) over
// 1 <= n <= nMax and d in denoms, probing round(r·d)-1, round(r·d) and
// round(r·d)+1 for each d. Rounding is half-to-even. Ties keep the earlier
// candidate.
func Best(r float64, nMax int, denoms []int) Fraction {
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return Sentinel
	}
	scale := math.Max(math.Abs(r), Epsilon)
	limit := float64(nMax)

	best := Sentinel
	found := false
	for _, d := range denoms {
		if d <= 0 {
			continue
		}
		df := float64(d)
		guess := math.RoundToEven(r * df)
		for _, nf := range [3]float64{guess - 1, guess, guess + 1} {
			if nf < 1 || nf > limit {
				continue
			}
			approx := nf / df
			rel := math.Abs(r-approx) / scale
			if !found || rel < best.RelErr {
				best = Fraction{N: int(nf), D: d, Approx: approx, RelErr: rel}
				found = true
			}
		}
	}
	return best
}

// BestWith is Best with the bounds taken from opts.
func BestWith(r float64, opts Options) Fraction {
	return Best(r, opts.NMax, opts.Denominators)
}

// BestDyadic approximates r by n/2^m with the Dyadic bounds.
func BestDyadic(r float64) Fraction {
	return BestWith(r, Dyadic())
}
