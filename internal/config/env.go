package config

import (
	"flag"
	"os"
	"strconv"
	"strings"
	"time"
)

// getEnvString returns the value of EnvPrefix+key, or defaultVal when unset.
func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		return val
	}
	return defaultVal
}

// getEnvInt returns EnvPrefix+key parsed as int, or defaultVal when unset or
// invalid.
func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}

// getEnvInt64 is getEnvInt for int64 values.
func getEnvInt64(key string, defaultVal int64) int64 {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if parsed, err := strconv.ParseInt(val, 10, 64); err == nil {
			return parsed
		}
	}
	return defaultVal
}

// getEnvFloat returns EnvPrefix+key parsed as float64, or defaultVal when
// unset or invalid.
func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			return parsed
		}
	}
	return defaultVal
}

// getEnvBool accepts "true", "1", "yes" and "false", "0", "no"
// (case-insensitive); anything else keeps defaultVal.
func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		switch strings.ToLower(val) {
		case "true", "1", "yes":
			return true
		case "false", "0", "no":
			return false
		}
	}
	return defaultVal
}

// getEnvDuration accepts time.ParseDuration formats such as "5m" or "30s".
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}

// isFlagSet reports whether any of names was set on the command line.
func isFlagSet(fs *flag.FlagSet, names ...string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		for _, n := range names {
			if f.Name == n {
				found = true
			}
		}
	})
	return found
}

// applyEnvOverrides applies ERTSCAN_* variables to every flag that was not
// set explicitly, giving the priority CLI flags > environment > defaults.
// The variable name is the flag name upper-cased with '-' replaced by '_'
// (ERTSCAN_LADDER_BASE for -ladder-base); shorthand aliases share the long
// form's variable.
func applyEnvOverrides(config *AppConfig, raw *rawConfig, fs *flag.FlagSet) {
	strs := []struct {
		flags []string
		dst   *string
	}{
		{[]string{"mode"}, &config.Mode},
		{[]string{"data"}, &config.DataPath},
		{[]string{"denoms"}, &raw.denoms},
		{[]string{"exclude"}, &raw.exclude},
		{[]string{"fields"}, &raw.fields},
		{[]string{"out-dir"}, &config.OutDir},
		{[]string{"vti-format"}, &config.VTIFormat},
		{[]string{"output", "o"}, &config.OutputFile},
		{[]string{"log-level"}, &config.LogLevel},
		{[]string{"port"}, &config.Port},
		{[]string{"history"}, &config.HistoryPath},
	}
	for _, s := range strs {
		if !isFlagSet(fs, s.flags...) {
			*s.dst = getEnvString(envKey(s.flags[0]), *s.dst)
		}
	}

	ints := []struct {
		flag string
		dst  *int
	}{
		{"nmax", &config.NMax},
		{"ladder-rounds", &config.LadderRounds},
		{"kmax", &config.MaxExponent},
		{"dyadic-nmax", &config.DyadicNMax},
		{"dyadic-maxexp", &config.DyadicMaxExp},
		{"res-kmin", &config.ResKMin},
		{"res-kmax", &config.ResKMax},
		{"widen", &config.Widen},
		{"ngrid", &config.NGrid},
		{"grid", &config.GridN},
		{"history-limit", &config.HistoryLimit},
	}
	for _, i := range ints {
		if !isFlagSet(fs, i.flag) {
			*i.dst = getEnvInt(envKey(i.flag), *i.dst)
		}
	}

	floats := []struct {
		flag string
		dst  *float64
	}{
		{"divisor", &config.Divisor},
		{"ladder-base", &config.LadderBase},
		{"noise", &config.Noise},
		{"noise-freq", &config.NoiseFreq},
	}
	for _, f := range floats {
		if !isFlagSet(fs, f.flag) {
			*f.dst = getEnvFloat(envKey(f.flag), *f.dst)
		}
	}

	bools := []struct {
		flags []string
		dst   *bool
	}{
		{[]string{"ladder-from-scan"}, &config.LadderFromScan},
		{[]string{"json"}, &config.JSONOutput},
		{[]string{"quiet", "q"}, &config.Quiet},
		{[]string{"no-color"}, &config.NoColor},
		{[]string{"server"}, &config.ServerMode},
	}
	for _, b := range bools {
		if !isFlagSet(fs, b.flags...) {
			*b.dst = getEnvBool(envKey(b.flags[0]), *b.dst)
		}
	}

	if !isFlagSet(fs, "seed") {
		config.Seed = getEnvInt64("SEED", config.Seed)
	}
	if !isFlagSet(fs, "timeout") {
		config.Timeout = getEnvDuration("TIMEOUT", config.Timeout)
	}
}

// envKey maps a flag name to its environment variable suffix.
func envKey(flagName string) string {
	return strings.ToUpper(strings.ReplaceAll(flagName, "-", "_"))
}
