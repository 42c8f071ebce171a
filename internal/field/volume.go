package field

import (
	"context"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// clipFloor keeps geometric coupling away from log(0).
const clipFloor = 1e-9

// Volume holds one sampled field, x varying fastest.
type Volume struct {
	N    int
	Data []float64
}

// NewVolume allocates a zeroed volume for g.
func NewVolume(g Grid) *Volume {
	return &Volume{N: g.N, Data: make([]float64, g.Len())}
}

// Sample evaluates f on every grid point. Each z slab is an independent
// task; at most runtime.NumCPU() run at once. onSlab, if non-nil, is called
// after every completed slab and must be safe for concurrent use.
func Sample(ctx context.Context, g Grid, f Func, onSlab func()) (*Volume, error) {
	v := NewVolume(g)
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.NumCPU())
	for k := 0; k < g.N; k++ {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			z := g.Axis(k)
			for j := 0; j < g.N; j++ {
				y := g.Axis(j)
				row := g.Index(0, j, k)
				for i := 0; i < g.N; i++ {
					v.Data[row+i] = f(g.Axis(i), y, z)
				}
			}
			if onSlab != nil {
				onSlab()
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return v, nil
}

// Range returns the minimum and maximum sample.
func (v *Volume) Range() (lo, hi float64) {
	if len(v.Data) == 0 {
		return 0, 0
	}
	lo, hi = v.Data[0], v.Data[0]
	for _, x := range v.Data[1:] {
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}
	return lo, hi
}

// Normalize rescales v in place to [0, 1]. A constant volume becomes zero.
func (v *Volume) Normalize() *Volume {
	lo, hi := v.Range()
	if hi == lo {
		clear(v.Data)
		return v
	}
	span := hi - lo
	for i, x := range v.Data {
		v.Data[i] = (x - lo) / span
	}
	return v
}

// Mul multiplies v by o element-wise, in place.
func (v *Volume) Mul(o *Volume) *Volume {
	for i := range v.Data {
		v.Data[i] *= o.Data[i]
	}
	return v
}

// Add adds o scaled by amp to v, in place.
func (v *Volume) Add(o *Volume, amp float64) *Volume {
	for i := range v.Data {
		v.Data[i] += amp * o.Data[i]
	}
	return v
}

// Float32 converts the samples for export.
func (v *Volume) Float32() []float32 {
	out := make([]float32, len(v.Data))
	for i, x := range v.Data {
		out[i] = float32(x)
	}
	return out
}

// CombineGeometric couples fields softly: each is clipped to [1e-9, 1] and
// the product is raised to power/len(vols). The result is a new volume.
func CombineGeometric(power float64, vols ...*Volume) *Volume {
	if len(vols) == 0 {
		return &Volume{}
	}
	out := &Volume{N: vols[0].N, Data: make([]float64, len(vols[0].Data))}
	for i := range out.Data {
		acc := 1.0
		for _, v := range vols {
			acc *= math.Min(math.Max(v.Data[i], clipFloor), 1)
		}
		out.Data[i] = math.Pow(acc, power/float64(len(vols)))
	}
	return out
}
