package field

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	opensimplex "github.com/ojrac/opensimplex-go"
	"github.com/rs/zerolog"
)

// Config controls field generation.
type Config struct {
	Grid   Grid
	Beta   float64
	OutDir string
	Format string
	// Noise is the amplitude of the OpenSimplex vacuum fluctuation added
	// before the final normalization; zero disables it.
	Noise     float64
	NoiseFreq float64
	Seed      int64
	Logger    zerolog.Logger
}

// DefaultConfig returns a centered 192³ grid written as binary VTI files in
// the working directory, without noise.
func DefaultConfig() Config {
	return Config{
		Grid:      Grid{N: 192, Centered: true},
		Beta:      Beta,
		OutDir:    ".",
		Format:    FormatBinary,
		NoiseFreq: 0.05,
		Seed:      1,
		Logger:    zerolog.Nop(),
	}
}

// Output describes one written file.
type Output struct {
	Name     string
	Path     string
	Bytes    int64
	Duration time.Duration
}

// Noise returns the OpenSimplex fluctuation field in [-1, 1].
func Noise(seed int64, freq float64) Func {
	n := opensimplex.New(seed)
	return func(x, y, z float64) float64 {
		return n.Eval3(x*freq, y*freq, z*freq)
	}
}

// Render computes one preset without writing it.
func Render(ctx context.Context, p Preset, cfg Config, index int, observer ProgressObserver) (*Volume, error) {
	passes := p.Passes
	if cfg.Noise != 0 {
		passes++
	}
	b := &builder{
		ctx: ctx, grid: cfg.Grid, beta: cfg.Beta, index: index, observer: observer,
		total: passes * cfg.Grid.N,
	}
	v, err := p.build(b)
	if err != nil {
		return nil, err
	}
	if cfg.Noise != 0 {
		n, err := b.sample(Noise(cfg.Seed, cfg.NoiseFreq))
		if err != nil {
			return nil, err
		}
		v = v.Add(n, cfg.Noise).Normalize()
	}
	return v, nil
}

// Generate renders the named presets in order into <OutDir>/<name>.vti.
// Unknown names are rejected before any work starts.
func Generate(ctx context.Context, names []string, cfg Config, observer ProgressObserver) ([]Output, error) {
	if cfg.Grid.N < 2 {
		return nil, fmt.Errorf("grid size %d is too small", cfg.Grid.N)
	}
	selected := make([]Preset, 0, len(names))
	for _, name := range names {
		p, ok := Lookup(name)
		if !ok {
			return nil, fmt.Errorf("unknown field %q (known: %v)", name, Names())
		}
		selected = append(selected, p)
	}
	if err := os.MkdirAll(cfg.OutDir, 0o755); err != nil {
		return nil, err
	}

	obs := observers{observer, NewLoggingObserver(cfg.Logger, 0.25)}
	outputs := make([]Output, 0, len(selected))
	for i, p := range selected {
		start := time.Now()
		v, err := Render(ctx, p, cfg, i, obs)
		if err != nil {
			return outputs, err
		}
		path := filepath.Join(cfg.OutDir, p.Name+".vti")
		size, err := writeFile(path, v, cfg.Format)
		if err != nil {
			return outputs, err
		}
		out := Output{Name: p.Name, Path: path, Bytes: size, Duration: time.Since(start)}
		cfg.Logger.Info().
			Str("field", p.Name).
			Str("path", path).
			Int64("bytes", size).
			Dur("duration", out.Duration).
			Msg("field written")
		obs.Update(i, 1)
		outputs = append(outputs, out)
	}
	return outputs, nil
}

func writeFile(path string, v *Volume, format string) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	if err := WriteVTI(f, v, format); err != nil {
		f.Close()
		return 0, err
	}
	if err := f.Close(); err != nil {
		return 0, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}
