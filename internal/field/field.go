// Package field renders the hierarchical spiralis patterns (vacuum, proton,
// hydrogen, oxygen and the H2 / H2O couplings) on a cubic grid and writes
// them as VTK XML ImageData.
//
// Fields are point functions composed with Scaled and Shifted. Operations
// that need the range of a whole volume (normalization, geometric coupling,
// envelopes) work on sampled Volumes.
package field

import (
	"math"
)

// Beta is the spiralis phase load per grid unit: alpha* read in degrees,
// converted to radians.
const Beta = 9.43034098 * math.Pi / 180

// Func is a scalar field evaluated at grid coordinates.
type Func func(x, y, z float64) float64

// Spiralis returns sin(beta·(|x|+|y|+|z|)), the octant-folded base wave.
func Spiralis(beta float64) Func {
	return func(x, y, z float64) float64 {
		return math.Sin(beta * (math.Abs(x) + math.Abs(y) + math.Abs(z)))
	}
}

// Scaled stretches f by s: the result at p is f(p/s).
func Scaled(f Func, s float64) Func {
	return func(x, y, z float64) float64 {
		return f(x/s, y/s, z/s)
	}
}

// Shifted translates f: the result at p is f(p+d).
func Shifted(f Func, dx, dy, dz float64) Func {
	return func(x, y, z float64) float64 {
		return f(x+dx, y+dy, z+dz)
	}
}

// Grid describes an N×N×N lattice of sample points.
type Grid struct {
	N int
	// Centered puts the origin at the middle of the cube.
	Centered bool
}

// Half is (N-1)/2, the distance from the first sample to the centre.
func (g Grid) Half() float64 {
	return float64(g.N-1) / 2
}

// Axis returns the coordinate of sample i along any axis.
func (g Grid) Axis(i int) float64 {
	if g.Centered {
		return float64(i) - g.Half()
	}
	return float64(i)
}

// Len is the number of samples.
func (g Grid) Len() int {
	return g.N * g.N * g.N
}

// Index returns the offset of (i, j, k) with x varying fastest.
func (g Grid) Index(i, j, k int) int {
	return i + g.N*(j+g.N*k)
}

// Envelope is a radial damping exp(-(r/R)^p) on coordinates normalized by
// the grid half width.
func Envelope(g Grid, r, p float64) Func {
	c := g.Half()
	if c == 0 {
		c = 1
	}
	r = math.Max(r, 1e-6)
	return func(x, y, z float64) float64 {
		xn, yn, zn := x/c, y/c, z/c
		d := math.Sqrt(xn*xn + yn*yn + zn*zn)
		return math.Exp(-math.Pow(d/r, p))
	}
}
