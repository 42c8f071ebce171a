package residual

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agbru/ertscan/internal/dataset"
)

func defaultResiduals(t *testing.T) []dataset.Quantity {
	t.Helper()
	ds, err := dataset.Default()
	require.NoError(t, err)
	require.Len(t, ds.Residuals, 8)
	return ds.Residuals
}

func TestNearestPowerOf8(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		x    float64
		want float64
	}{
		{"zero", 0, 0},
		{"exact", 64, 64},
		{"negative", -3, -8},
		{"rounds up", 5, 8},
		{"rounds in log space", 4, 8},
		{"fraction", 0.2, 0.125},
		{"clamped high", 1e30, math.Pow(8, 20)},
		{"clamped low", 1e-30, math.Pow(8, -20)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, NearestPowerOf8(tt.x, -20, 20))
		})
	}
}

func TestNearestPowerGeneralBase(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 4.0, NearestPower(3, 2, -10, 10))
	assert.Equal(t, 0.5, NearestPower(0.6, 2, -10, 10))
	assert.Equal(t, 2.0, NearestPower(1000, 2, -1, 1))
}

func TestObjective(t *testing.T) {
	t.Parallel()
	opts := DefaultOptions()
	res := []dataset.Quantity{{Label: "a", Value: 2}, {Label: "b", Value: 16}}

	assert.True(t, math.IsInf(Objective(res, 0, opts), 1))
	assert.True(t, math.IsInf(Objective(res, -1, opts), 1))
	assert.Zero(t, Objective(res, 0.25, opts))
	// 2/1 -> 1, 16/1 -> 8: errors 1 and 8.
	assert.Equal(t, 65.0, Objective(res, 1, opts))
}

func TestRobustSeed(t *testing.T) {
	t.Parallel()
	opts := DefaultOptions()

	assert.InEpsilon(t, 0.4708033125, RobustSeed(defaultResiduals(t), opts), 1e-12)
	assert.Equal(t, 1e-12, RobustSeed([]dataset.Quantity{{Label: "z", Value: 0}}, opts))
	assert.Equal(t, 1e-12, RobustSeed(nil, opts))
	// Median 2 rounds to 8^0, so the median is returned as is.
	assert.Equal(t, 2.0, RobustSeed([]dataset.Quantity{{Label: "a", Value: 1}, {Label: "b", Value: -3}}, opts))
}

func TestRobustSeedClampsToHalfRange(t *testing.T) {
	t.Parallel()
	opts := Options{KMin: -3, KMax: 3, Widen: 0, NGrid: 1}
	// log8(8^5) = 5 is clamped to floor(3/2) = 1.
	got := RobustSeed([]dataset.Quantity{{Label: "a", Value: math.Pow(8, 5)}}, opts)
	assert.Equal(t, math.Pow(8, 4), got)
	// floor(-3/2) = -2.
	got = RobustSeed([]dataset.Quantity{{Label: "a", Value: math.Pow(8, -5)}}, opts)
	assert.InEpsilon(t, math.Pow(8, -3), got, 1e-12)
}

func TestSearchSmallGrid(t *testing.T) {
	t.Parallel()
	res := []dataset.Quantity{{Label: "a", Value: 2}, {Label: "b", Value: 16}}
	got := Search(res, 2, Options{KMin: -20, KMax: 20, Widen: 0, NGrid: 5})

	assert.Equal(t, 0.25, got.Eps)
	assert.Zero(t, got.Objective)
	assert.Equal(t, 2.0, got.Seed)
	require.Len(t, got.Rows, 2)
	assert.Equal(t, 8.0, got.Rows[0].Multiple)
	require.NotNil(t, got.Rows[0].Exponent)
	assert.Equal(t, 1, *got.Rows[0].Exponent)
	assert.Equal(t, 2, *got.Rows[1].Exponent)
	assert.Zero(t, got.Rows[1].After)
}

func TestSearchDefaultResiduals(t *testing.T) {
	t.Parallel()
	res := defaultResiduals(t)
	got := Search(res, 0, DefaultOptions())

	assert.InEpsilon(t, 0.4708033125, got.Seed, 1e-12)
	assert.InEpsilon(t, 19.680042135758857, got.Objective, 1e-9)

	// The objective repeats every octave of eps, so only eps modulo a power
	// of eight is pinned down.
	shift := math.Log(got.Eps/3.9017952405668854e-06) / math.Log(8)
	assert.InDelta(t, math.Round(shift), shift, 1e-9)

	wantCorrection := map[string]float64{
		"H_ionization_eV":     8.182657692345325,
		"H_Ly_alpha_eV":       8.182657692345325,
		"H_Halpha_eV":         1.0228322115431656,
		"CMB_kBT_eV":          8.182657692345325,
		"CMB_delta_T_eV":      0.1278540264428957,
		"Deuteron_binding_eV": 0.015981753305361963,
		"He4_binding_eV":      0.1278540264428957,
		"Proton_rest_eV":      8.182657692345325,
	}
	require.Len(t, got.Rows, len(wantCorrection))
	for _, row := range got.Rows {
		assert.InEpsilon(t, wantCorrection[row.Label], row.Correction, 1e-9, row.Label)
		assert.InDelta(t, row.Residual-row.Correction, row.After, 1e-15)
		require.NotNil(t, row.Exponent)
		assert.Equal(t, math.Pow(8, float64(*row.Exponent)), row.Multiple)
	}
	assert.Equal(t, got.Objective, Objective(res, got.Eps, DefaultOptions()))
}

func TestSearchIsNeverWorseThanSeed(t *testing.T) {
	t.Parallel()
	res := defaultResiduals(t)
	opts := DefaultOptions()
	opts.NGrid = 200
	got := Search(res, 0, opts)
	assert.LessOrEqual(t, got.Objective, Objective(res, got.Seed/8, opts))
}

func TestCorrectZeroResidual(t *testing.T) {
	t.Parallel()
	rows := Correct([]dataset.Quantity{{Label: "z", Value: 0}, {Label: "n", Value: -3}}, 1, DefaultOptions())
	require.Len(t, rows, 2)
	assert.Nil(t, rows[0].Exponent)
	assert.Zero(t, rows[0].Multiple)
	assert.Equal(t, -8.0, rows[1].Multiple)
	assert.Equal(t, 1, *rows[1].Exponent)
	assert.Equal(t, 5.0, rows[1].After)

	assert.Nil(t, Correct([]dataset.Quantity{{Label: "a", Value: 1}}, 0, DefaultOptions()))
}

func quantities(values ...float64) []dataset.Quantity {
	out := make([]dataset.Quantity, len(values))
	for i, v := range values {
		out[i] = dataset.Quantity{Label: string(rune('a' + i)), Value: v}
	}
	return out
}
