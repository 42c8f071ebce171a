package ladder

import (
	"github.com/agbru/ertscan/internal/dataset"
	"github.com/agbru/ertscan/internal/lattice"
)

// Point is one energy expressed as a fraction of its rung value.
type Point struct {
	Label    string
	Energy   float64
	Ratio    float64
	Fraction lattice.Fraction
}

// Evaluation groups the points of one scale.
type Evaluation struct {
	Scale     string
	RungValue float64
	Points    []Point
}

// Evaluate expresses each energy set against the rung of its scale using the
// given lattice bounds (lattice.Dyadic for n/2^m output). Sets whose scale is
// not on the ladder are skipped.
func Evaluate(l Ladder, sets []dataset.EnergySet, opts lattice.Options) []Evaluation {
	out := make([]Evaluation, 0, len(sets))
	for _, set := range sets {
		rung, ok := l.Rung(set.Scale)
		if !ok {
			continue
		}
		ev := Evaluation{Scale: set.Scale, RungValue: rung.Value}
		for _, e := range set.Energies {
			r := e.Value / rung.Value
			ev.Points = append(ev.Points, Point{
				Label:    e.Label,
				Energy:   e.Value,
				Ratio:    r,
				Fraction: lattice.BestWith(r, opts),
			})
		}
		out = append(out, ev)
	}
	return out
}
