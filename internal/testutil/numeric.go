package testutil

import (
	"math"
	"testing"
)

// RelErr returns |got-want| / |want|, or |got| when want is zero.
func RelErr(got, want float64) float64 {
	if want == 0 {
		return math.Abs(got)
	}
	return math.Abs(got-want) / math.Abs(want)
}

// AssertClose fails the test when got deviates from want by more than the
// relative tolerance tol.
func AssertClose(t testing.TB, name string, got, want, tol float64) {
	t.Helper()
	if e := RelErr(got, want); !(e <= tol) {
		t.Errorf("%s = %.12g, want %.12g (relative error %.3g > %.3g)", name, got, want, e, tol)
	}
}
