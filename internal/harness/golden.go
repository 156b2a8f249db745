package harness

import (
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/animeval/internal/canon"
)

// DefaultGoldenDir is where golden snapshots live by default.
const DefaultGoldenDir = "testdata/golden"

// Snapshot is the golden record of a scenario run.
type Snapshot struct {
	Scenario    string   `json:"scenario"`
	Pass        bool     `json:"pass"`
	Evaluations int64    `json:"evaluations"`
	Samples     []Sample `json:"samples"`
}

// NewSnapshot builds the snapshot of result.
func NewSnapshot(name string, result *Result) Snapshot {
	samples := result.Samples
	if samples == nil {
		samples = []Sample{}
	}
	return Snapshot{
		Scenario:    name,
		Pass:        result.Pass,
		Evaluations: result.Evaluations,
		Samples:     samples,
	}
}

// Marshal returns the snapshot as canonical JSON.
func (s Snapshot) Marshal() ([]byte, error) {
	return canon.Marshal(s)
}

func newGoldie(t *testing.T, dir string) *goldie.Goldie {
	if dir == "" {
		dir = DefaultGoldenDir
	}
	return goldie.New(t,
		goldie.WithFixtureDir(dir),
		goldie.WithNameSuffix(".golden"),
	)
}

// RunWithGolden runs scenario and compares its snapshot with
// <dir>/<scenario.Name>.golden. dir defaults to DefaultGoldenDir.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, dir string, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(context.Background(), scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, dir, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares the snapshot of an existing result with the golden
// file <dir>/<name>.golden.
func AssertGolden(t *testing.T, dir, name string, result *Result) error {
	t.Helper()

	data, err := NewSnapshot(name, result).Marshal()
	if err != nil {
		return err
	}
	newGoldie(t, dir).Assert(t, name, data)
	return nil
}

// UpdateGolden writes the snapshot of result as the golden file
// <dir>/<name>.golden.
func UpdateGolden(t *testing.T, dir, name string, result *Result) error {
	t.Helper()

	data, err := NewSnapshot(name, result).Marshal()
	if err != nil {
		return err
	}
	return newGoldie(t, dir).Update(t, name, data)
}
