package lattice

import (
	"math"
	"testing"
)

func TestBestExactRepresentation(t *testing.T) {
	t.Parallel()
	got := Best(0.125, 64, []int{1, 2, 4, 8, 16, 32, 64})
	want := Fraction{N: 1, D: 8, Approx: 0.125, RelErr: 0}
	if got != want {
		t.Fatalf("Best(0.125) = %+v, want %+v", got, want)
	}
}

func TestBest(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		r      float64
		nMax   int
		denoms []int
		wantN  int
		wantD  int
	}{
		// 8 is exact at d=1 and every later denominator only ties.
		{"integer ratio", 8, 64, Powers(2, 6), 8, 1},
		{"half", 0.5, 64, Powers(2, 6), 1, 2},
		{"finest denominator wins", 1.1113, 64, Powers(2, 6), 71, 64},
		{"neighbour below the numerator bound", 64.6, 64, Powers(2, 6), 64, 1},
		{"numerator bound forces small denominator", 40.3, 64, Powers(2, 6), 40, 1},
		{"powers of eight", 0.3, 64, Powers(8, 2), 19, 64},
		{"negative ratio clamps to smallest numerator", -0.5, 64, Powers(2, 6), 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Best(tt.r, tt.nMax, tt.denoms)
			if got.N != tt.wantN || got.D != tt.wantD {
				t.Errorf("Best(%v) = %d/%d, want %d/%d", tt.r, got.N, got.D, tt.wantN, tt.wantD)
			}
			if got.Approx != float64(got.N)/float64(got.D) {
				t.Errorf("Approx %v does not match %d/%d", got.Approx, got.N, got.D)
			}
		})
	}
}

func TestBestSentinel(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		r      float64
		nMax   int
		denoms []int
	}{
		{"NaN", math.NaN(), 64, Powers(2, 6)},
		{"+Inf", math.Inf(1), 64, Powers(2, 6)},
		{"-Inf", math.Inf(-1), 64, Powers(2, 6)},
		{"numerator above bound", 1000, 64, []int{1, 2}},
		{"no denominators", 1, 64, nil},
		{"non-positive denominators", 1, 64, []int{0, -4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Best(tt.r, tt.nMax, tt.denoms)
			if got.N != 0 || got.D != 1 || got.Approx != 0 || !math.IsInf(got.RelErr, 1) {
				t.Errorf("expected sentinel, got %+v", got)
			}
			if got.Valid() {
				t.Error("sentinel must not be Valid")
			}
		})
	}
}

func TestBestTinyRatioUsesEpsilon(t *testing.T) {
	t.Parallel()
	got := Best(1e-20, 64, Powers(2, 6))
	if got.N != 1 || got.D != 64 {
		t.Fatalf("got %v, want 1/64", got)
	}
	if math.IsInf(got.RelErr, 0) || math.IsNaN(got.RelErr) {
		t.Fatalf("relative error should be finite, got %v", got.RelErr)
	}
}

func TestPowers(t *testing.T) {
	t.Parallel()
	got := Powers(2, 6)
	want := []int{1, 2, 4, 8, 16, 32, 64}
	if len(got) != len(want) {
		t.Fatalf("Powers(2, 6) = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Powers(2, 6) = %v, want %v", got, want)
		}
	}
	if Powers(8, -1) != nil {
		t.Error("negative exponent should yield no denominators")
	}
	if d := Dyadic().Denominators; d[len(d)-1] != 4096 {
		t.Errorf("dyadic set should end at 2^12, got %d", d[len(d)-1])
	}
}

func TestFractionExponent(t *testing.T) {
	t.Parallel()
	tests := []struct {
		f      Fraction
		base   int
		wantM  int
		wantOK bool
	}{
		{Fraction{N: 3, D: 1}, 2, 0, true},
		{Fraction{N: 3, D: 64}, 2, 6, true},
		{Fraction{N: 3, D: 64}, 8, 2, true},
		{Fraction{N: 3, D: 48}, 2, 4, false},
		{Sentinel, 1, 0, false},
	}
	for _, tt := range tests {
		m, ok := tt.f.Exponent(tt.base)
		if ok != tt.wantOK || (ok && m != tt.wantM) {
			t.Errorf("%v.Exponent(%d) = %d, %v; want %d, %v", tt.f, tt.base, m, ok, tt.wantM, tt.wantOK)
		}
	}
	if s := (Fraction{N: 5, D: 16}).String(); s != "5/16" {
		t.Errorf("String() = %q", s)
	}
}
