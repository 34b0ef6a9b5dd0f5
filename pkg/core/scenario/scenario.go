// Package scenario loads valuation runs from human-edited files.
//
// Analysts keep their assumption sets in small text files next to their
// notes. The loader accepts three formats: Hjson (the friendliest for
// hand editing: comments, unquoted keys, optional commas), YAML, and
// plain JSON. Whatever the format, the data ends up in the same
// json-tagged structs the calculators consume.
package scenario

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	hjson "github.com/hjson/hjson-go/v4"
	"gopkg.in/yaml.v2"

	"dcflab/pkg/core/simulation"
	"dcflab/pkg/core/valuation"
)

// Format identifies the on-disk encoding of a scenario file
type Format string

const (
	FormatJSON  Format = "json"
	FormatHJSON Format = "hjson"
	FormatYAML  Format = "yaml"
)

// Scenario is one runnable case: a full set of valuation parameters plus
// optional simulation settings. Simulation may be nil, meaning the host's
// defaults apply.
type Scenario struct {
	Name       string               `json:"name"`
	Notes      string               `json:"notes,omitempty"`
	Valuation  valuation.Parameters `json:"valuation"`
	Simulation *simulation.Settings `json:"simulation,omitempty"`
}

// DetectFormat maps a file extension to its Format. Unknown extensions
// fall back to Hjson, the most lenient parser.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatHJSON
	}
}

// Load reads and parses a scenario file. A scenario without an explicit
// name inherits the file's base name.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("SCENARIO_READ_ERROR: %v", err)
	}

	sc, err := Parse(data, DetectFormat(path))
	if err != nil {
		return nil, err
	}

	if sc.Name == "" {
		base := filepath.Base(path)
		sc.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return sc, nil
}

// Parse decodes raw scenario bytes in the given format.
//
// JSON input gets one retry through the Hjson parser, so files with
// trailing commas or comments still load even when named .json. YAML is
// normalized into JSON-compatible values first so a single set of struct
// tags serves all three formats.
func Parse(data []byte, format Format) (*Scenario, error) {
	var sc Scenario

	switch format {
	case FormatYAML:
		var raw interface{}
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("SCENARIO_YAML_ERROR: %v", err)
		}
		normalized, err := json.Marshal(jsonify(raw))
		if err != nil {
			return nil, fmt.Errorf("SCENARIO_YAML_ERROR: %v", err)
		}
		if err := json.Unmarshal(normalized, &sc); err != nil {
			return nil, fmt.Errorf("SCENARIO_YAML_ERROR: %v", err)
		}

	case FormatJSON:
		if err := json.Unmarshal(data, &sc); err != nil {
			// Retry leniently before giving up
			if herr := hjson.Unmarshal(data, &sc); herr != nil {
				return nil, fmt.Errorf("SCENARIO_JSON_ERROR: %v", err)
			}
		}

	default:
		if err := hjson.Unmarshal(data, &sc); err != nil {
			return nil, fmt.Errorf("SCENARIO_HJSON_ERROR: %v", err)
		}
	}

	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Validate checks the fields no downstream clamp can repair. Everything
// else (horizon, stage bounds, trial counts) is clamped where it is used.
func (s *Scenario) Validate() error {
	var problems []string

	if s.Valuation.BaseRevenue <= 0 {
		problems = append(problems, "valuation.base_revenue must be positive")
	}
	if s.Valuation.WACC <= 0 {
		problems = append(problems, "valuation.wacc must be positive")
	}
	if s.Valuation.TaxRate < 0 || s.Valuation.TaxRate >= 1 {
		problems = append(problems, "valuation.tax_rate must be in [0, 1)")
	}
	switch s.Valuation.TerminalValueMethod {
	case "", valuation.TerminalPerpetuity:
		// perpetuity is the default
	case valuation.TerminalExitMultiple:
		if s.Valuation.ExitMultiple <= 0 {
			problems = append(problems, "valuation.exit_multiple must be positive for the exit_multiple method")
		}
	default:
		problems = append(problems, fmt.Sprintf("valuation.terminal_value_method %q is not recognized", s.Valuation.TerminalValueMethod))
	}

	if s.Simulation != nil {
		if verr := s.normalizedSettings().Config().Validate(); verr != nil {
			problems = append(problems, verr.Messages...)
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("SCENARIO_INVALID: %s", strings.Join(problems, "; "))
	}
	return nil
}

// SimulationConfig returns the runnable simulation config for this
// scenario, falling back to the package defaults when the file omitted
// the simulation section.
func (s *Scenario) SimulationConfig() simulation.Config {
	if s.Simulation == nil {
		return simulation.DefaultSettings().Config()
	}
	return s.normalizedSettings().Config()
}

// normalizedSettings fills the one field a file may omit but a run cannot
// do without. Zero volatilities stay zero: an explicit simulation section
// means the analyst chose each shock, and omitting one disables it.
func (s *Scenario) normalizedSettings() simulation.Settings {
	settings := *s.Simulation
	if settings.Trials == 0 {
		settings.Trials = simulation.DefaultSettings().Trials
	}
	return settings
}

// jsonify rewrites the map types yaml.v2 produces into the string-keyed
// maps encoding/json requires.
func jsonify(v interface{}) interface{} {
	switch val := v.(type) {
	case map[interface{}]interface{}:
		m := make(map[string]interface{}, len(val))
		for k, item := range val {
			m[fmt.Sprintf("%v", k)] = jsonify(item)
		}
		return m
	case []interface{}:
		for i, item := range val {
			val[i] = jsonify(item)
		}
		return val
	default:
		return v
	}
}
