package orchestration

import (
	"github.com/agbru/ertscan/internal/dataset"
	"github.com/agbru/ertscan/internal/field"
	"github.com/agbru/ertscan/internal/ladder"
	"github.com/agbru/ertscan/internal/lattice"
	"github.com/agbru/ertscan/internal/residual"
	"github.com/agbru/ertscan/internal/selector"
	"github.com/agbru/ertscan/pkg/models"
)

// FractionModel converts a lattice fraction; the sentinel error becomes null.
func FractionModel(f lattice.Fraction) models.Fraction {
	return models.Fraction{N: f.N, D: f.D, Approx: f.Approx, RelErr: models.Finite(f.RelErr)}
}

// ScaleResults converts selector results, attaching the rejected entries of
// each scale from ds when ds is not nil.
func ScaleResults(ds *dataset.Dataset, results []selector.Result) []models.ScaleResult {
	out := make([]models.ScaleResult, 0, len(results))
	for _, r := range results {
		m := models.ScaleResult{
			Scale: r.Scale,
			Tag:   r.Tag,
			Key:   r.Key,
			Alpha: models.Finite(r.Alpha),
			Score: models.Finite(r.Score),
			Rows:  make([]models.ScaleRow, 0, len(r.Rows)),
		}
		for _, row := range r.Rows {
			m.Rows = append(m.Rows, models.ScaleRow{
				Label: row.Label, Value: row.Value, Ratio: row.Ratio, Fraction: FractionModel(row.Fraction),
			})
		}
		for _, c := range r.Evaluated {
			m.Candidates = append(m.Candidates, models.Candidate{
				Tag: c.Tag, Key: c.Key, Alpha: c.Alpha, Score: models.Finite(c.Score),
			})
		}
		if ds != nil {
			if s, ok := ds.Scale(r.Scale); ok {
				for _, rj := range s.Rejected {
					m.Rejected = append(m.Rejected, models.Rejection{Label: rj.Label, Reason: rj.Reason})
				}
			}
		}
		out = append(out, m)
	}
	return out
}

// LadderModel converts a fitted ladder and its evaluations.
func LadderModel(l ladder.Ladder, source string, evals []ladder.Evaluation) *models.Ladder {
	m := &models.Ladder{
		Alpha:     l.Alpha,
		Base:      l.Base,
		Source:    source,
		Rounds:    l.Rounds,
		Converged: l.Converged,
		Rungs:     make([]models.Rung, 0, len(l.Rungs)),
	}
	for _, r := range l.Rungs {
		m.Rungs = append(m.Rungs, models.Rung{
			Scale: r.Scale, Exponent: r.Exponent, Value: r.Value, Reference: r.Reference, RelErr: r.RelErr(),
		})
	}
	for _, ev := range evals {
		e := models.Evaluation{Scale: ev.Scale, RungValue: ev.RungValue}
		for _, p := range ev.Points {
			pt := models.EvalPoint{Label: p.Label, Energy: p.Energy, Ratio: p.Ratio, Fraction: FractionModel(p.Fraction)}
			if p.Fraction.Valid() {
				if pow, ok := p.Fraction.Exponent(2); ok {
					pt.Power = &pow
				}
			}
			e.Points = append(e.Points, pt)
		}
		m.Evaluations = append(m.Evaluations, e)
	}
	return m
}

// ResidualModel converts a residual search result.
func ResidualModel(r residual.Result) *models.Residual {
	m := &models.Residual{
		Eps:       r.Eps,
		Objective: models.Finite(r.Objective),
		Seed:      r.Seed,
		Rows:      make([]models.ResidualRow, 0, len(r.Rows)),
	}
	for _, row := range r.Rows {
		m.Rows = append(m.Rows, models.ResidualRow{
			Label:      row.Label,
			Residual:   row.Residual,
			Multiple:   row.Multiple,
			Exponent:   row.Exponent,
			Correction: row.Correction,
			After:      row.After,
		})
	}
	return m
}

// FieldOutputs converts the files written by the field generator.
func FieldOutputs(outputs []field.Output) []models.FieldOutput {
	out := make([]models.FieldOutput, 0, len(outputs))
	for _, o := range outputs {
		out = append(out, models.FieldOutput{
			Name: o.Name, Path: o.Path, Bytes: o.Bytes, DurationMS: o.Duration.Milliseconds(),
		})
	}
	return out
}
