// Package dataset holds the tables of physical magnitudes the fitters work on.
//
// A dataset is an ordered list of scales (atomic, nuclear, cosmological,
// material), each an ordered mapping from quantity label to magnitude, plus
// optional ladder references, ladder evaluation energies and residuals. It is
// read from YAML; entries are validated once at load time, so the fitters only
// ever see finite, non-zero magnitudes.
package dataset

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v2"

	apperrors "github.com/agbru/ertscan/internal/errors"
)

// EmbeddedPath is the name reported for the built-in dataset.
const EmbeddedPath = "<embedded>"

//go:embed default.yaml
var defaultYAML []byte

// Scale is a named, ordered group of related magnitudes.
type Scale struct {
	// Name identifies the scale ("atomic", "nuclear", ...).
	Name string
	// Quantities are the validated entries in declaration order.
	Quantities []Quantity
	// Rejected are the entries excluded at ingestion.
	Rejected []Rejection
	// Prefer lists quantity labels that may define the reference, in order.
	Prefer []string
	// Explicit names the key holding an explicitly tagged reference value.
	Explicit string
}

// Lookup returns the validated magnitude stored under label.
func (s Scale) Lookup(label string) (float64, bool) {
	for _, q := range s.Quantities {
		if q.Label == label {
			return q.Value, true
		}
	}
	return 0, false
}

// EnergySet is a list of example energies evaluated against one ladder rung.
type EnergySet struct {
	Scale    string
	Energies []Quantity
}

// Dataset is the complete, read-only input of a run.
type Dataset struct {
	// Source is the file the dataset was read from, or EmbeddedPath.
	Source string
	Scales []Scale
	// LadderReferences, when present, fix the per-scale reference magnitudes
	// used by the ladder fit instead of deriving them from the scan.
	LadderReferences []Quantity
	// Evaluate holds example energies expressed against each ladder rung.
	Evaluate []EnergySet
	// Residuals feed the residual grid search.
	Residuals []Quantity
}

// Scale returns the scale with the given name.
func (d *Dataset) Scale(name string) (Scale, bool) {
	for _, s := range d.Scales {
		if s.Name == name {
			return s, true
		}
	}
	return Scale{}, false
}

type rawScale struct {
	Name       string        `yaml:"name"`
	Explicit   string        `yaml:"explicit"`
	Prefer     []string      `yaml:"prefer"`
	Quantities yaml.MapSlice `yaml:"quantities"`
}

type rawDataset struct {
	Scales []rawScale `yaml:"scales"`
	Ladder struct {
		References yaml.MapSlice `yaml:"references"`
		Evaluate   yaml.MapSlice `yaml:"evaluate"`
	} `yaml:"ladder"`
	Residuals yaml.MapSlice `yaml:"residuals"`
}

// Default returns the built-in dataset.
func Default() (*Dataset, error) {
	return Parse(defaultYAML, EmbeddedPath)
}

// Load reads a dataset from a YAML file. An empty path selects the built-in
// dataset.
func Load(path string) (*Dataset, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.NewDatasetError(path, err)
	}
	return Parse(data, path)
}

// Parse decodes and validates a YAML dataset. Structural problems (bad YAML,
// unnamed or duplicate scales, non-numeric ladder references) are returned as
// a DatasetError. Invalid scale entries are not errors; they are recorded in
// Scale.Rejected.
func Parse(data []byte, source string) (*Dataset, error) {
	var raw rawDataset
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, apperrors.NewDatasetError(source, err)
	}

	ds := &Dataset{Source: source}
	seen := make(map[string]bool, len(raw.Scales))
	for i, rs := range raw.Scales {
		if rs.Name == "" {
			return nil, apperrors.NewDatasetError(source, fmt.Errorf("scale #%d has no name", i+1))
		}
		if seen[rs.Name] {
			return nil, apperrors.NewDatasetError(source, fmt.Errorf("duplicate scale %q", rs.Name))
		}
		seen[rs.Name] = true

		s := Scale{Name: rs.Name, Prefer: rs.Prefer, Explicit: rs.Explicit}
		if s.Explicit == "" {
			s.Explicit = fmt.Sprintf("alpha_%s_eV", rs.Name)
		}
		for _, item := range rs.Quantities {
			label := fmt.Sprint(item.Key)
			q, err := Validate(label, item.Value)
			if err != nil {
				s.Rejected = append(s.Rejected, Rejection{Label: label, Reason: reason(err)})
				continue
			}
			s.Quantities = append(s.Quantities, q)
		}
		ds.Scales = append(ds.Scales, s)
	}

	for _, item := range raw.Ladder.References {
		q, err := Validate(fmt.Sprint(item.Key), item.Value)
		if err != nil {
			return nil, apperrors.NewDatasetError(source, err)
		}
		ds.LadderReferences = append(ds.LadderReferences, q)
	}

	for _, item := range raw.Ladder.Evaluate {
		set := EnergySet{Scale: fmt.Sprint(item.Key)}
		for _, e := range entries(item.Value) {
			q, err := Validate(fmt.Sprint(e.Key), e.Value)
			if err != nil {
				continue
			}
			set.Energies = append(set.Energies, q)
		}
		ds.Evaluate = append(ds.Evaluate, set)
	}

	for _, item := range raw.Residuals {
		q, err := ValidateFinite(fmt.Sprint(item.Key), item.Value)
		if err != nil {
			return nil, apperrors.NewDatasetError(source, err)
		}
		ds.Residuals = append(ds.Residuals, q)
	}
	return ds, nil
}

// entries normalizes a nested YAML mapping. yaml.v2 decodes mappings nested
// in a MapSlice as MapSlice; a plain map (sorted by key) is accepted as well.
func entries(v any) yaml.MapSlice {
	switch m := v.(type) {
	case yaml.MapSlice:
		return m
	case map[any]any:
		out := make(yaml.MapSlice, 0, len(m))
		for k, val := range m {
			out = append(out, yaml.MapItem{Key: k, Value: val})
		}
		sort.Slice(out, func(i, j int) bool { return fmt.Sprint(out[i].Key) < fmt.Sprint(out[j].Key) })
		return out
	}
	return nil
}
