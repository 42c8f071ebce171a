package field

import (
	"context"
	"math"
	"sort"
	"sync"
)

// Coupling exponents of the hierarchy.
const (
	PowerH   = 0.60
	PowerO   = 0.50
	PowerH2  = 0.70
	PowerH2O = 0.55
)

// Geometry of the default hierarchy, in grid units.
const (
	HydrogenOffset    = 18.0 // proton corner offset inside H
	HydrogenScale     = 2.0  // proton stretch inside H
	OxygenOffset      = 34.0 // H centre offset inside O
	OxygenInnerOffset = 12.0
	OxygenInnerScale  = 2.6
	H2Separation      = 56.0
	H2OSeparation     = 38.0
	H2OBendDegrees    = 104.5
)

// builder samples the fields of one preset and reports progress as a
// fraction of the passes the preset declared up front.
type builder struct {
	ctx      context.Context
	grid     Grid
	beta     float64
	index    int
	observer ProgressObserver

	mu    sync.Mutex
	total int // slabs over all passes
	done  int
}

func (b *builder) slab() {
	if b.observer == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.done++
	b.observer.Update(b.index, float64(b.done)/float64(b.total))
}

func (b *builder) sample(f Func) (*Volume, error) {
	return Sample(b.ctx, b.grid, f, b.slab)
}

// corners yields the eight sign triples of a cube.
func corners(yield func(sx, sy, sz float64) error) error {
	for _, sx := range []float64{-1, 1} {
		for _, sy := range []float64{-1, 1} {
			for _, sz := range []float64{-1, 1} {
				if err := yield(sx, sy, sz); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// hydrogen couples eight stretched protons on the corners of a cube of half
// edge d centred at -(ox, oy, oz). The result is not normalized.
func (b *builder) hydrogen(ox, oy, oz, d, scale float64) (*Volume, error) {
	base := Scaled(Spiralis(b.beta), scale)
	var parts []*Volume
	err := corners(func(sx, sy, sz float64) error {
		v, err := b.sample(Shifted(base, ox+sx*d, oy+sy*d, oz+sz*d))
		if err != nil {
			return err
		}
		parts = append(parts, v.Normalize())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return CombineGeometric(PowerH, parts...), nil
}

func (b *builder) envelope(v *Volume, r, p float64) (*Volume, error) {
	e, err := b.sample(Envelope(b.grid, r, p))
	if err != nil {
		return nil, err
	}
	return v.Mul(e), nil
}

func (b *builder) oxygen(withEnvelope bool) (*Volume, error) {
	var parts []*Volume
	err := corners(func(sx, sy, sz float64) error {
		h, err := b.hydrogen(sx*OxygenOffset, sy*OxygenOffset, sz*OxygenOffset, OxygenInnerOffset, OxygenInnerScale)
		if err != nil {
			return err
		}
		parts = append(parts, h)
		return nil
	})
	if err != nil {
		return nil, err
	}
	o := CombineGeometric(PowerO, parts...)
	if withEnvelope {
		if o, err = b.envelope(o, 0.80, 2.3); err != nil {
			return nil, err
		}
	}
	return o.Normalize(), nil
}

// Preset is a named member of the hierarchy. Passes is the number of full
// grid samplings the preset performs, used for progress reporting.
type Preset struct {
	Name        string
	Description string
	Passes      int
	build       func(b *builder) (*Volume, error)
}

var presets = map[string]Preset{
	"vacuum": {
		Name: "vacuum", Description: "pure spiralis, the ground oscillation", Passes: 1,
		build: func(b *builder) (*Volume, error) {
			v, err := b.sample(Spiralis(b.beta))
			if err != nil {
				return nil, err
			}
			return v.Normalize(), nil
		},
	},
	"proton": {
		Name: "proton", Description: "first complete eightfold symmetry", Passes: 2,
		build: func(b *builder) (*Volume, error) {
			v, err := b.sample(Spiralis(b.beta))
			if err != nil {
				return nil, err
			}
			if v, err = b.envelope(v, 0.95, 2.0); err != nil {
				return nil, err
			}
			return v.Normalize(), nil
		},
	},
	"H": {
		Name: "H", Description: "eight protons on the corners of a cube", Passes: 9,
		build: func(b *builder) (*Volume, error) {
			v, err := b.hydrogen(0, 0, 0, HydrogenOffset, HydrogenScale)
			if err != nil {
				return nil, err
			}
			if v, err = b.envelope(v, 0.85, 2.1); err != nil {
				return nil, err
			}
			return v.Normalize(), nil
		},
	},
	"oxygen": {
		Name: "oxygen", Description: "eight hydrogens, one order higher", Passes: 65,
		build: func(b *builder) (*Volume, error) {
			return b.oxygen(true)
		},
	},
	"H2": {
		Name: "H2", Description: "two hydrogens coupled along x", Passes: 17,
		build: func(b *builder) (*Volume, error) {
			half := H2Separation / 2
			h1, err := b.hydrogen(-half, 0, 0, HydrogenOffset, HydrogenScale)
			if err != nil {
				return nil, err
			}
			h2, err := b.hydrogen(half, 0, 0, HydrogenOffset, HydrogenScale)
			if err != nil {
				return nil, err
			}
			v := CombineGeometric(PowerH2, h1, h2)
			if v, err = b.envelope(v, 0.9, 2.0); err != nil {
				return nil, err
			}
			return v.Normalize(), nil
		},
	},
	"H2O": {
		Name: "H2O", Description: "oxygen bridge with two hydrogens at 104.5°", Passes: 81,
		build: func(b *builder) (*Volume, error) {
			o, err := b.oxygen(false)
			if err != nil {
				return nil, err
			}
			theta := H2OBendDegrees / 2 * math.Pi / 180
			hx, hz := math.Sin(theta)*H2OSeparation, math.Cos(theta)*H2OSeparation
			h1, err := b.hydrogen(-hx, 0, -hz, HydrogenOffset, HydrogenScale)
			if err != nil {
				return nil, err
			}
			h2, err := b.hydrogen(hx, 0, -hz, HydrogenOffset, HydrogenScale)
			if err != nil {
				return nil, err
			}
			v := CombineGeometric(PowerH2O, o, h1, h2)
			if v, err = b.envelope(v, 0.85, 2.2); err != nil {
				return nil, err
			}
			return v.Normalize(), nil
		},
	},
}

// Presets returns the hierarchy in generation order.
func Presets() []Preset {
	order := []string{"vacuum", "proton", "H", "oxygen", "H2", "H2O"}
	out := make([]Preset, 0, len(order))
	for _, name := range order {
		out = append(out, presets[name])
	}
	return out
}

// Lookup returns the preset with the given name.
func Lookup(name string) (Preset, bool) {
	p, ok := presets[name]
	return p, ok
}

// Names lists the preset names, sorted.
func Names() []string {
	names := make([]string, 0, len(presets))
	for n := range presets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
