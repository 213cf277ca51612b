package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/taxflow/internal/engine"
)

// Scenario defines one pipeline execution and its expected outcome.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Pipeline is the path of a .json or .cue pipeline document,
	// relative to the scenario file.
	Pipeline string `yaml:"pipeline"`

	// Resources supplies resource payloads by path. Paths not listed here
	// are read from files relative to the scenario.
	Resources map[string]any `yaml:"resources,omitempty"`

	// Inputs seeds the record.
	Inputs map[string]any `yaml:"inputs"`

	// Expect describes the outcome.
	Expect Expect `yaml:"expect"`

	// Dir is the directory the scenario was loaded from. Relative pipeline
	// and resource paths resolve against it.
	Dir string `yaml:"-"`
}

// Expect lists the expectations checked after a run.
type Expect struct {
	// Outputs maps output references to expected values.
	Outputs map[string]any `yaml:"outputs,omitempty"`

	// Record maps arbitrary record keys to expected values, for checking
	// intermediate results.
	Record map[string]any `yaml:"record,omitempty"`

	// Error is the expected engine error code. When set the run must fail.
	Error string `yaml:"error,omitempty"`

	// ErrorKey is the expected key carried by the error.
	ErrorKey string `yaml:"error_key,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields, or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	scenario.Dir = filepath.Dir(path)

	if err := validatePipelinePath(scenario); err != nil {
		return nil, fmt.Errorf("%s: invalid scenario: %w", path, err)
	}
	return scenario, nil
}

// ParseScenario decodes scenario YAML with strict field checking. The
// returned scenario resolves relative paths against the working directory
// until Dir is set.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	scenario.Inputs = normalizeMap(scenario.Inputs)
	scenario.Resources = normalizeMap(scenario.Resources)
	scenario.Expect.Outputs = normalizeMap(scenario.Expect.Outputs)
	scenario.Expect.Record = normalizeMap(scenario.Expect.Record)

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// LoadScenarios loads every .yaml and .yml file directly under dir, sorted
// by file name.
func LoadScenarios(dir string) ([]*Scenario, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenarios directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if !e.IsDir() && (ext == ".yaml" || ext == ".yml") {
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)

	scenarios := make([]*Scenario, 0, len(names))
	seen := make(map[string]string)
	for _, name := range names {
		s, err := LoadScenario(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		if prev, dup := seen[s.Name]; dup {
			return nil, fmt.Errorf("scenario name %q used by both %s and %s", s.Name, prev, name)
		}
		seen[s.Name] = name
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// PipelinePath returns the pipeline path resolved against Dir.
func (s *Scenario) PipelinePath() string {
	return s.resolve(s.Pipeline)
}

func (s *Scenario) resolve(path string) string {
	if filepath.IsAbs(path) || s.Dir == "" {
		return path
	}
	return filepath.Join(s.Dir, path)
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Pipeline == "" {
		return fmt.Errorf("pipeline is required")
	}
	if s.Inputs == nil {
		return fmt.Errorf("inputs is required (use {} if the pipeline takes none)")
	}

	hasOutcome := len(s.Expect.Outputs) > 0 || len(s.Expect.Record) > 0
	switch {
	case s.Expect.Error != "" && len(s.Expect.Outputs) > 0:
		return fmt.Errorf("expect: outputs and error are mutually exclusive")
	case s.Expect.Error == "" && !hasOutcome:
		return fmt.Errorf("expect: one of outputs, record or error is required")
	case s.Expect.ErrorKey != "" && s.Expect.Error == "":
		return fmt.Errorf("expect: error_key requires error")
	}
	return nil
}

func validatePipelinePath(s *Scenario) error {
	if _, err := os.Stat(s.PipelinePath()); os.IsNotExist(err) {
		return fmt.Errorf("pipeline file not found: %s", s.PipelinePath())
	}
	return nil
}

// normalizeMap converts YAML-decoded values to the shapes JSON decoding
// produces: integers become float64 and nested maps become map[string]any.
func normalizeMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = normalize(v)
	}
	return out
}

func normalize(v any) any {
	switch x := v.(type) {
	case int:
		return float64(x)
	case int64:
		return float64(x)
	case uint64:
		return float64(x)
	case float64:
		return x
	case map[string]any:
		return normalizeMap(x)
	case map[any]any:
		out := make(map[string]any, len(x))
		for k, val := range x {
			out[fmt.Sprint(k)] = normalize(val)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, val := range x {
			out[i] = normalize(val)
		}
		return out
	}
	return v
}

// errorCode is a convenience for comparing against Expect.Error.
func errorCode(err error) string {
	return string(engine.CodeOf(err))
}
