// Package selector picks, for each scale, the reference magnitude against
// which the other magnitudes of the scale express best as lattice fractions.
package selector

import (
	"math"
	"sort"

	"github.com/agbru/ertscan/internal/dataset"
	"github.com/agbru/ertscan/internal/lattice"
)

// TagExplicit marks a candidate taken from the scale's explicit reference key.
const TagExplicit = "EXPLICIT"

// TagNone marks a scale for which no candidate was available.
const TagNone = "NONE"

// DefaultDivisor derives a candidate reference from a preferred quantity: the
// smallest sub-unit that forms a full group of eight.
const DefaultDivisor = 8.0

// DefaultExclude lists quantities that are not energies and are never scored.
var DefaultExclude = []string{"CMB_T_K", "Rydberg_m_inv", "Proton_radius_fm"}

// Options configures candidate derivation and scoring.
type Options struct {
	Lattice lattice.Options
	// Divisor turns a preferred quantity into a candidate reference.
	Divisor float64
	// Exclude holds labels that are skipped when scoring.
	Exclude map[string]bool
}

// DefaultOptions returns the default scan configuration.
func DefaultOptions() Options {
	return Options{
		Lattice: lattice.Default(),
		Divisor: DefaultDivisor,
		Exclude: ExcludeSet(DefaultExclude),
	}
}

// ExcludeSet builds an exclusion set from a list of labels.
func ExcludeSet(labels []string) map[string]bool {
	set := make(map[string]bool, len(labels))
	for _, l := range labels {
		set[l] = true
	}
	return set
}

// Candidate is a proposed reference magnitude for a scale.
type Candidate struct {
	// Tag is TagExplicit or the label of the preferred quantity.
	Tag string
	// Key is the quantity the candidate was derived from.
	Key   string
	Alpha float64
}

// Row is one scored quantity of a scale.
type Row struct {
	Label    string
	Value    float64
	Ratio    float64
	Fraction lattice.Fraction
}

// Result is the outcome of the selection for one scale.
type Result struct {
	Scale string
	Tag   string
	Key   string
	Alpha float64
	// Score is the mean relative error of Rows, +Inf when nothing was scored.
	Score float64
	// Rows are sorted by ascending relative error.
	Rows []Row
	// Evaluated lists every candidate tried, in enumeration order.
	Evaluated []Scored
}

// Scored pairs a candidate with the score it obtained.
type Scored struct {
	Candidate
	Score float64
}

// Skipped reports whether the scale had no usable reference.
func (r Result) Skipped() bool {
	return r.Tag == TagNone
}

// Candidates enumerates the reference candidates of a scale: the explicit key
// first, then each preferred quantity divided by opts.Divisor. Keys that are
// absent or were rejected at load time contribute nothing.
func Candidates(s dataset.Scale, opts Options) []Candidate {
	var out []Candidate
	if v, ok := s.Lookup(s.Explicit); ok {
		out = append(out, Candidate{Tag: TagExplicit, Key: s.Explicit, Alpha: v})
	}
	for _, label := range s.Prefer {
		if v, ok := s.Lookup(label); ok {
			out = append(out, Candidate{Tag: label, Key: label, Alpha: v / opts.Divisor})
		}
	}
	return out
}

// Score expresses every non-excluded quantity of s as a ratio to alpha, fits
// it on the lattice and returns the mean relative error together with the
// rows in scale order. The score is +Inf when no quantity qualifies.
func Score(s dataset.Scale, alpha float64, opts Options) (float64, []Row) {
	rows := make([]Row, 0, len(s.Quantities))
	total := 0.0
	for _, q := range s.Quantities {
		if opts.Exclude[q.Label] {
			continue
		}
		r := q.Value / alpha
		f := lattice.BestWith(r, opts.Lattice)
		rows = append(rows, Row{Label: q.Label, Value: q.Value, Ratio: r, Fraction: f})
		total += f.RelErr
	}
	if len(rows) == 0 {
		return math.Inf(1), rows
	}
	return total / float64(len(rows)), rows
}

// Select evaluates every candidate of s and keeps the one with the lowest
// score; the earlier candidate wins ties. A scale without candidates yields a
// TagNone result rather than an error.
func Select(s dataset.Scale, opts Options) Result {
	cands := Candidates(s, opts)
	if len(cands) == 0 {
		return Result{Scale: s.Name, Tag: TagNone, Key: "-", Alpha: math.NaN(), Score: math.Inf(1)}
	}

	var best Result
	evaluated := make([]Scored, 0, len(cands))
	for i, c := range cands {
		score, rows := Score(s, c.Alpha, opts)
		evaluated = append(evaluated, Scored{Candidate: c, Score: score})
		if i == 0 || score < best.Score {
			best = Result{Scale: s.Name, Tag: c.Tag, Key: c.Key, Alpha: c.Alpha, Score: score, Rows: rows}
		}
	}
	sort.SliceStable(best.Rows, func(i, j int) bool {
		return best.Rows[i].Fraction.RelErr < best.Rows[j].Fraction.RelErr
	})
	best.Evaluated = evaluated
	return best
}

// SelectAll runs Select on every scale of ds, in dataset order.
func SelectAll(ds *dataset.Dataset, opts Options) []Result {
	out := make([]Result, 0, len(ds.Scales))
	for _, s := range ds.Scales {
		out = append(out, Select(s, opts))
	}
	return out
}
