// Package config provides the configuration management for the ertscan
// application. It defines the configuration structure, parses command-line
// flags with environment overrides, validates the result, and converts it into
// the immutable option structs consumed by the fitting packages.
package config

import (
	"flag"
	"fmt"
	"io"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/agbru/ertscan/internal/errors"
	"github.com/agbru/ertscan/internal/field"
	"github.com/agbru/ertscan/internal/ladder"
	"github.com/agbru/ertscan/internal/lattice"
	"github.com/agbru/ertscan/internal/logging"
	"github.com/agbru/ertscan/internal/residual"
	"github.com/agbru/ertscan/internal/selector"
)

const (
	// EnvPrefix is the prefix for all environment variables used by ertscan.
	EnvPrefix = "ERTSCAN_"
)

// Run modes.
const (
	ModeScan     = "scan"
	ModeLadder   = "ladder"
	ModeResidual = "residual"
	ModeField    = "field"
	ModeAll      = "all"
	ModeHistory  = "history"
)

// Modes lists the accepted -mode values.
var Modes = []string{ModeScan, ModeLadder, ModeResidual, ModeField, ModeAll, ModeHistory}

// Default configuration values.
const (
	DefaultMode         = ModeAll
	DefaultNMax         = 64
	DefaultDenoms       = "1,2,4,8,16,32,64"
	DefaultLadderBase   = 8.0
	DefaultLadderRounds = 8
	DefaultMaxExponent  = 64
	DefaultDyadicNMax   = 256
	DefaultDyadicMaxExp = 12
	DefaultGridN        = 192
	DefaultVTIFormat    = field.FormatBinary
	DefaultNoiseFreq    = 0.05
	DefaultTimeout      = 5 * time.Minute
	DefaultPort         = "8080"
	DefaultHistoryLimit = 20
	DefaultFields       = "all"
)

// AppConfig aggregates every run parameter.
type AppConfig struct {
	// Mode selects what the run does (see Modes).
	Mode string
	// DataPath is the dataset YAML file; empty uses the embedded dataset.
	DataPath string

	// Scan.
	NMax         int
	Denominators []int
	Divisor      float64
	Exclude      []string

	// Ladder.
	LadderBase     float64
	LadderRounds   int
	MaxExponent    int
	LadderFromScan bool
	DyadicNMax     int
	DyadicMaxExp   int

	// Residual search.
	ResKMin int
	ResKMax int
	Widen   int
	NGrid   int

	// Field generation.
	Fields    []string
	GridN     int
	OutDir    string
	VTIFormat string
	Noise     float64
	NoiseFreq float64
	Seed      int64

	// Output.
	JSONOutput bool
	OutputFile string
	Quiet      bool
	NoColor    bool
	LogLevel   string

	// Server.
	ServerMode bool
	Port       string

	// History.
	HistoryPath  string
	HistoryLimit int

	Timeout time.Duration
}

// ToLatticeOptions returns the lattice bounds used by the scan.
func (c AppConfig) ToLatticeOptions() lattice.Options {
	return lattice.Options{NMax: c.NMax, Denominators: slices.Clone(c.Denominators)}
}

// ToSelectorOptions returns the scan configuration.
func (c AppConfig) ToSelectorOptions() selector.Options {
	return selector.Options{
		Lattice: c.ToLatticeOptions(),
		Divisor: c.Divisor,
		Exclude: selector.ExcludeSet(c.Exclude),
	}
}

// ToLadderOptions returns the ladder fit configuration.
func (c AppConfig) ToLadderOptions() ladder.Options {
	return ladder.Options{Base: c.LadderBase, MaxRounds: c.LadderRounds, MaxExponent: c.MaxExponent}
}

// ToDyadicOptions returns the lattice bounds used for ladder evaluation.
func (c AppConfig) ToDyadicOptions() lattice.Options {
	return lattice.Options{NMax: c.DyadicNMax, Denominators: lattice.Powers(2, c.DyadicMaxExp)}
}

// ToResidualOptions returns the residual search configuration.
func (c AppConfig) ToResidualOptions() residual.Options {
	return residual.Options{KMin: c.ResKMin, KMax: c.ResKMax, Widen: c.Widen, NGrid: c.NGrid}
}

// ToFieldConfig returns the field generation configuration without a logger.
func (c AppConfig) ToFieldConfig() field.Config {
	cfg := field.DefaultConfig()
	cfg.Grid = field.Grid{N: c.GridN, Centered: true}
	cfg.OutDir = c.OutDir
	cfg.Format = c.VTIFormat
	cfg.Noise = c.Noise
	cfg.NoiseFreq = c.NoiseFreq
	cfg.Seed = c.Seed
	return cfg
}

// Validate checks the semantic consistency of the configuration.
//
// Returns:
//   - error: A ConfigError describing the first problem found, nil otherwise.
func (c AppConfig) Validate() error {
	if !slices.Contains(Modes, c.Mode) {
		return apperrors.NewConfigError("unrecognized mode: '%s'. Valid modes are: [%s]", c.Mode, strings.Join(Modes, ", "))
	}
	if c.Timeout <= 0 {
		return apperrors.NewConfigError("timeout value must be strictly positive")
	}
	if c.NMax < 1 {
		return apperrors.NewConfigError("numerator bound must be at least 1: %d", c.NMax)
	}
	if len(c.Denominators) == 0 {
		return apperrors.NewConfigError("at least one denominator is required")
	}
	for _, d := range c.Denominators {
		if d <= 0 {
			return apperrors.NewConfigError("denominators must be positive: %d", d)
		}
	}
	if !(c.Divisor > 0) || math.IsInf(c.Divisor, 0) {
		return apperrors.NewConfigError("divisor must be finite and positive: %v", c.Divisor)
	}
	if !(c.LadderBase > 1) || math.IsInf(c.LadderBase, 0) {
		return apperrors.NewConfigError("ladder base must be finite and greater than 1: %v", c.LadderBase)
	}
	if c.LadderRounds < 1 {
		return apperrors.NewConfigError("ladder rounds must be at least 1: %d", c.LadderRounds)
	}
	if c.MaxExponent < 0 {
		return apperrors.NewConfigError("exponent bound cannot be negative: %d", c.MaxExponent)
	}
	if c.DyadicNMax < 1 {
		return apperrors.NewConfigError("dyadic numerator bound must be at least 1: %d", c.DyadicNMax)
	}
	if c.DyadicMaxExp < 0 || c.DyadicMaxExp > 30 {
		return apperrors.NewConfigError("dyadic exponent must be within [0, 30]: %d", c.DyadicMaxExp)
	}
	if c.ResKMin > c.ResKMax {
		return apperrors.NewConfigError("residual exponent range is empty: [%d, %d]", c.ResKMin, c.ResKMax)
	}
	if c.Widen < 0 {
		return apperrors.NewConfigError("widen cannot be negative: %d", c.Widen)
	}
	if c.NGrid < 1 {
		return apperrors.NewConfigError("grid points must be at least 1: %d", c.NGrid)
	}
	if c.GridN < 2 {
		return apperrors.NewConfigError("field grid must be at least 2: %d", c.GridN)
	}
	if c.VTIFormat != field.FormatBinary && c.VTIFormat != field.FormatASCII {
		return apperrors.NewConfigError("unrecognized VTI format: '%s'", c.VTIFormat)
	}
	for _, name := range c.Fields {
		if _, ok := field.Lookup(name); !ok {
			return apperrors.NewConfigError("unrecognized field: '%s'. Valid fields are: [%s]", name, strings.Join(field.Names(), ", "))
		}
	}
	if c.Noise < 0 {
		return apperrors.NewConfigError("noise amplitude cannot be negative: %v", c.Noise)
	}
	if !(c.NoiseFreq > 0) {
		return apperrors.NewConfigError("noise frequency must be positive: %v", c.NoiseFreq)
	}
	if c.HistoryLimit < 1 {
		return apperrors.NewConfigError("history limit must be at least 1: %d", c.HistoryLimit)
	}
	if c.Mode == ModeHistory && c.HistoryPath == "" {
		return apperrors.NewConfigError("mode 'history' requires -history")
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return apperrors.NewConfigError("%v", err)
	}
	return nil
}

// ParseIntList parses a comma separated list of integers, ignoring blanks.
func ParseIntList(s string) ([]int, error) {
	var out []int
	for _, part := range splitList(s) {
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, apperrors.NewConfigError("invalid integer %q in list", part)
		}
		out = append(out, n)
	}
	return out, nil
}

// splitList splits a comma separated list, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// fieldList expands "all" to every preset in generation order.
func fieldList(s string) []string {
	names := splitList(s)
	if len(names) == 1 && strings.EqualFold(names[0], "all") {
		names = names[:0]
		for _, p := range field.Presets() {
			names = append(names, p.Name)
		}
	}
	return names
}

// rawConfig holds the list-valued flags before they are split.
type rawConfig struct {
	denoms  string
	exclude string
	fields  string
}

// ParseConfig parses the command-line arguments, applies ERTSCAN_*
// environment overrides for flags that were not set explicitly, and
// validates the result.
//
// Parameters:
//   - programName: The name of the program, used in the usage message.
//   - args: The command-line arguments (typically os.Args[1:]).
//   - errorWriter: Where parsing errors and usage information are printed.
//
// Returns:
//   - AppConfig: The populated configuration.
//   - error: flag.ErrHelp for -h, a ConfigError for invalid values, or the
//     flag package's parse error.
func ParseConfig(programName string, args []string, errorWriter io.Writer) (AppConfig, error) {
	fs := flag.NewFlagSet(programName, flag.ContinueOnError)
	fs.SetOutput(errorWriter)

	config := AppConfig{}
	raw := rawConfig{}
	fs.StringVar(&config.Mode, "mode", DefaultMode, fmt.Sprintf("Run mode: one of [%s].", strings.Join(Modes, ", ")))
	fs.StringVar(&config.DataPath, "data", "", "Dataset YAML file (default: embedded dataset).")

	fs.IntVar(&config.NMax, "nmax", DefaultNMax, "Numerator bound of the scan lattice.")
	fs.StringVar(&raw.denoms, "denoms", DefaultDenoms, "Comma separated denominators of the scan lattice.")
	fs.Float64Var(&config.Divisor, "divisor", selector.DefaultDivisor, "Divisor turning a preferred quantity into a reference candidate.")
	fs.StringVar(&raw.exclude, "exclude", strings.Join(selector.DefaultExclude, ","), "Comma separated labels never scored.")

	fs.Float64Var(&config.LadderBase, "ladder-base", DefaultLadderBase, "Ratio between neighbouring ladder rungs.")
	fs.IntVar(&config.LadderRounds, "ladder-rounds", DefaultLadderRounds, "Maximum ladder refinement rounds.")
	fs.IntVar(&config.MaxExponent, "kmax", DefaultMaxExponent, "Bound on |k| for ladder exponents.")
	fs.BoolVar(&config.LadderFromScan, "ladder-from-scan", false, "Fit the ladder on scan results even when the dataset lists references.")
	fs.IntVar(&config.DyadicNMax, "dyadic-nmax", DefaultDyadicNMax, "Numerator bound for ladder evaluation.")
	fs.IntVar(&config.DyadicMaxExp, "dyadic-maxexp", DefaultDyadicMaxExp, "Largest m in the 2^m evaluation denominators.")

	ro := residual.DefaultOptions()
	fs.IntVar(&config.ResKMin, "res-kmin", ro.KMin, "Smallest power of 8 in the residual search.")
	fs.IntVar(&config.ResKMax, "res-kmax", ro.KMax, "Largest power of 8 in the residual search.")
	fs.IntVar(&config.Widen, "widen", ro.Widen, "Octave windows scanned on each side of the seed.")
	fs.IntVar(&config.NGrid, "ngrid", ro.NGrid, "Log-uniform points per octave window.")

	fs.StringVar(&raw.fields, "fields", DefaultFields, fmt.Sprintf("Comma separated fields to generate, or 'all' [%s].", strings.Join(field.Names(), ", ")))
	fs.IntVar(&config.GridN, "grid", DefaultGridN, "Samples per axis of the field grid.")
	fs.StringVar(&config.OutDir, "out-dir", ".", "Directory receiving the .vti files.")
	fs.StringVar(&config.VTIFormat, "vti-format", DefaultVTIFormat, "VTI array encoding: binary or ascii.")
	fs.Float64Var(&config.Noise, "noise", 0, "Amplitude of the OpenSimplex vacuum fluctuation (0 disables).")
	fs.Float64Var(&config.NoiseFreq, "noise-freq", DefaultNoiseFreq, "Spatial frequency of the fluctuation.")
	fs.Int64Var(&config.Seed, "seed", 1, "Seed of the fluctuation.")

	fs.BoolVar(&config.JSONOutput, "json", false, "Output the report as JSON.")
	fs.StringVar(&config.OutputFile, "output", "", "Also write the report to this file.")
	fs.StringVar(&config.OutputFile, "o", "", "Output file path (shorthand).")
	fs.BoolVar(&config.Quiet, "quiet", false, "Quiet mode - minimal output for scripts.")
	fs.BoolVar(&config.Quiet, "q", false, "Quiet mode (shorthand).")
	fs.BoolVar(&config.NoColor, "no-color", false, "Disable colored output (also respects NO_COLOR env var).")
	fs.StringVar(&config.LogLevel, "log-level", "warn", "Log level: debug, info, warn, error.")

	fs.BoolVar(&config.ServerMode, "server", false, "Start in HTTP server mode.")
	fs.StringVar(&config.Port, "port", DefaultPort, "Port to listen on in server mode.")

	fs.StringVar(&config.HistoryPath, "history", "", "SQLite file recording every run (disabled when empty).")
	fs.IntVar(&config.HistoryLimit, "history-limit", DefaultHistoryLimit, "Number of runs listed by -mode history.")

	fs.DurationVar(&config.Timeout, "timeout", DefaultTimeout, "Maximum execution time.")

	setCustomUsage(fs)

	if err := fs.Parse(args); err != nil {
		return AppConfig{}, err
	}

	applyEnvOverrides(&config, &raw, fs)

	config.Mode = strings.ToLower(config.Mode)
	config.VTIFormat = strings.ToLower(config.VTIFormat)
	config.Exclude = splitList(raw.exclude)
	config.Fields = fieldList(raw.fields)
	denoms, err := ParseIntList(raw.denoms)
	if err == nil {
		config.Denominators = denoms
		err = config.Validate()
	}
	if err != nil {
		fmt.Fprintln(errorWriter, "Configuration error:", err)
		fs.Usage()
		return AppConfig{}, err
	}
	return config, nil
}
