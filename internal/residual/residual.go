// Package residual searches for the scale parameter eps that best explains a
// set of residuals as signed powers of eight times eps.
//
// The objective is piecewise constant in the exponent assignment and not
// differentiable, so the search is an exhaustive log-uniform grid over a
// window of octaves around a robust seed.
package residual

import (
	"math"
	"slices"

	"github.com/agbru/ertscan/internal/dataset"
)

// Options bounds the exponent range and the grid.
type Options struct {
	KMin, KMax int
	// Widen is the number of octaves scanned on each side of the seed.
	Widen int
	// NGrid is the number of log-uniform points per octave window.
	NGrid int
}

// DefaultOptions returns exponents in [-20, 20], ±6 windows of 3000 points.
func DefaultOptions() Options {
	return Options{KMin: -20, KMax: 20, Widen: 6, NGrid: 3000}
}

// Row is one residual corrected by the fitted eps.
type Row struct {
	Label    string
	Residual float64
	// Multiple is the signed power of eight assigned to the residual.
	Multiple float64
	// Exponent is log8 |Multiple|; nil when Multiple is zero.
	Exponent   *int
	Correction float64
	After      float64
}

// Result is the outcome of Search.
type Result struct {
	Eps       float64
	Objective float64
	Seed      float64
	Rows      []Row
}

// NearestPower rounds x to the closest signed power of base, with the
// exponent clamped to [kmin, kmax]. Zero maps to zero.
func NearestPower(x, base float64, kmin, kmax int) float64 {
	m, _ := nearest(x, base, kmin, kmax)
	return m
}

// NearestPowerOf8 is NearestPower with base 8.
func NearestPowerOf8(x float64, kmin, kmax int) float64 {
	return NearestPower(x, 8, kmin, kmax)
}

func nearest(x, base float64, kmin, kmax int) (float64, int) {
	if x == 0 {
		return 0, 0
	}
	s := 1.0
	if x < 0 {
		s = -1
	}
	k := clamp(int(math.RoundToEven(math.Log(math.Abs(x))/math.Log(base))), kmin, kmax)
	return s * math.Pow(base, float64(k)), k
}

func clamp(k, lo, hi int) int {
	return max(lo, min(hi, k))
}

// Objective is the sum of squared differences between each residual and its
// nearest power-of-eight multiple of eps. It is +Inf for eps <= 0.
func Objective(res []dataset.Quantity, eps float64, opts Options) float64 {
	if !(eps > 0) {
		return math.Inf(1)
	}
	total := 0.0
	for _, r := range res {
		m := NearestPowerOf8(r.Value/eps, opts.KMin, opts.KMax)
		d := r.Value - m*eps
		total += d * d
	}
	return total
}

// floorDiv rounds toward negative infinity.
func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// RobustSeed estimates the order of magnitude of eps: the median absolute
// non-zero residual divided by its nearest power of eight. It returns 1e-12
// when every residual is zero.
func RobustSeed(res []dataset.Quantity, opts Options) float64 {
	mags := make([]float64, 0, len(res))
	for _, r := range res {
		if r.Value != 0 {
			mags = append(mags, math.Abs(r.Value))
		}
	}
	if len(mags) == 0 {
		return 1e-12
	}
	slices.Sort(mags)
	n := len(mags)
	m := mags[n/2]
	if n%2 == 0 {
		m = (mags[n/2-1] + mags[n/2]) / 2
	}
	k := int(math.RoundToEven(math.Log(m) / math.Log(8)))
	k = clamp(k, floorDiv(opts.KMin, 2), floorDiv(opts.KMax, 2))
	if k == 0 {
		return m
	}
	return m / math.Pow(8, float64(k))
}

// Search scans NGrid log-uniform points in [eps0/8, eps0·8] for every
// eps0 = seed·8^dk, dk in [-Widen, Widen], and keeps the first global
// minimum. A seed <= 0 is replaced by RobustSeed. Windows whose lower bound
// is not positive are skipped.
func Search(res []dataset.Quantity, seed float64, opts Options) Result {
	if !(seed > 0) {
		seed = RobustSeed(res, opts)
	}
	best := Result{Eps: math.NaN(), Objective: math.Inf(1), Seed: seed}
	steps := max(opts.NGrid-1, 1)
	for dk := -opts.Widen; dk <= opts.Widen; dk++ {
		eps0 := seed * math.Pow(8, float64(dk))
		lo, hi := eps0/8, eps0*8
		if !(lo > 0) || math.IsInf(hi, 0) {
			continue
		}
		ratio := hi / lo
		for j := 0; j < opts.NGrid; j++ {
			eps := lo * math.Pow(ratio, float64(j)/float64(steps))
			if v := Objective(res, eps, opts); v < best.Objective {
				best.Objective, best.Eps = v, eps
			}
		}
	}
	best.Rows = Correct(res, best.Eps, opts)
	return best
}

// Correct applies eps to every residual. Rows are empty when eps is not a
// usable positive value.
func Correct(res []dataset.Quantity, eps float64, opts Options) []Row {
	if !(eps > 0) {
		return nil
	}
	rows := make([]Row, 0, len(res))
	for _, r := range res {
		m, k := nearest(r.Value/eps, 8, opts.KMin, opts.KMax)
		row := Row{Label: r.Label, Residual: r.Value, Multiple: m, Correction: m * eps}
		row.After = r.Value - row.Correction
		if m != 0 {
			row.Exponent = &k
		}
		rows = append(rows, row)
	}
	return rows
}
