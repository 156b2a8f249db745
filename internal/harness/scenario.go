package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Scene is the path of the CUE scene file. LoadScenario resolves it
	// relative to the scenario file.
	Scene string `yaml:"scene"`

	// Frames are evaluated in order. Empty means the scene's frame range.
	Frames []float64 `yaml:"frames,omitempty"`

	// Step is the increment over the scene's frame range when Frames is
	// empty. Non-positive means 1.
	Step float64 `yaml:"step,omitempty"`

	// Entities limits the sampled objects. Empty means all of them.
	Entities []string `yaml:"entities,omitempty"`

	// Assertions are checked after their frame is evaluated.
	Assertions []Assertion `yaml:"assertions"`
}

// Assertion checks one property element at one frame.
type Assertion struct {
	// Type is one of value, driver_invalid or driver_valid.
	Type string `yaml:"type"`

	Frame  float64 `yaml:"frame"`
	Entity string  `yaml:"entity"`
	Path   string  `yaml:"path"`
	Index  int     `yaml:"index,omitempty"`

	// Expect is the expected value (value only).
	Expect *float64 `yaml:"expect,omitempty"`

	// Tolerance is the allowed absolute difference (value only).
	Tolerance float64 `yaml:"tolerance,omitempty"`
}

// Assertion type constants.
const (
	AssertValue         = "value"
	AssertDriverInvalid = "driver_invalid"
	AssertDriverValid   = "driver_valid"
)

// LoadScenario reads and parses a scenario YAML file. The scene path is
// resolved relative to the scenario file. Unknown fields are rejected.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Scene != "" && !filepath.IsAbs(scenario.Scene) {
		scenario.Scene = filepath.Join(filepath.Dir(path), scenario.Scene)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Scene == "" {
		return fmt.Errorf("scene is required")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	if _, err := os.Stat(s.Scene); os.IsNotExist(err) {
		return &SceneNotFoundError{Scenario: s.Name, Path: s.Scene}
	}

	for i := 1; i < len(s.Frames); i++ {
		if s.Frames[i] == s.Frames[i-1] {
			return fmt.Errorf("frames[%d]: frame %g repeated", i, s.Frames[i])
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}
	if a.Entity == "" {
		return fmt.Errorf("assertions[%d]: entity is required", index)
	}
	if a.Path == "" {
		return fmt.Errorf("assertions[%d]: path is required", index)
	}
	if a.Index < 0 {
		return fmt.Errorf("assertions[%d]: index must be non-negative", index)
	}

	switch a.Type {
	case AssertValue:
		if a.Expect == nil {
			return fmt.Errorf("assertions[%d]: expect is required for value", index)
		}
		if a.Tolerance < 0 {
			return fmt.Errorf("assertions[%d]: tolerance must be non-negative", index)
		}
	case AssertDriverInvalid, AssertDriverValid:
		if a.Expect != nil {
			return fmt.Errorf("assertions[%d]: expect is not allowed for %s", index, a.Type)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

// SceneNotFoundError is returned when a scenario's scene file does not
// exist.
type SceneNotFoundError struct {
	Scenario string
	Path     string
}

func (e *SceneNotFoundError) Error() string {
	return fmt.Sprintf("scenario %q references scene file %s which does not exist", e.Scenario, e.Path)
}
