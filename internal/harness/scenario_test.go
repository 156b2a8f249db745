package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeScenario writes a scenario file next to a copy of the wave scene and
// returns its path.
func writeScenario(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	scene, err := os.ReadFile(filepath.Join("testdata", "scenes", "wave.cue"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "wave.cue"), scene, 0o644))
	path := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadScenario_Valid(t *testing.T) {
	path := writeScenario(t, `
name: ok
description: "loads"
scene: wave.cue
frames: [1, 2]
entities: [Cube]
assertions:
  - type: value
    frame: 2
    entity: Cube
    path: location
    index: 2
    expect: 0.1
    tolerance: 0.01
  - type: driver_valid
    frame: 1
    entity: Lamp
    path: location
`)
	s, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "ok", s.Name)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "wave.cue"), s.Scene)
	assert.Equal(t, []float64{1, 2}, s.Frames)
	assert.Equal(t, []string{"Cube"}, s.Entities)
	require.Len(t, s.Assertions, 2)
	require.NotNil(t, s.Assertions[0].Expect)
	assert.Equal(t, 0.1, *s.Assertions[0].Expect)
	assert.Equal(t, 2, s.Assertions[0].Index)
	assert.Nil(t, s.Assertions[1].Expect)
}

func TestLoadScenario_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "unknown field",
			content: "name: x\ndescription: d\nscene: wave.cue\nassertion: []\n",
			wantErr: "field assertion not found",
		},
		{
			name:    "missing name",
			content: "description: d\nscene: wave.cue\nassertions: [{type: driver_valid, entity: L, path: p}]\n",
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			content: "name: x\nscene: wave.cue\nassertions: [{type: driver_valid, entity: L, path: p}]\n",
			wantErr: "description is required",
		},
		{
			name:    "missing scene",
			content: "name: x\ndescription: d\nassertions: [{type: driver_valid, entity: L, path: p}]\n",
			wantErr: "scene is required",
		},
		{
			name:    "no assertions",
			content: "name: x\ndescription: d\nscene: wave.cue\n",
			wantErr: "assertions list is required",
		},
		{
			name:    "scene not found",
			content: "name: x\ndescription: d\nscene: nope.cue\nassertions: [{type: driver_valid, entity: L, path: p}]\n",
			wantErr: "which does not exist",
		},
		{
			name:    "repeated frame",
			content: "name: x\ndescription: d\nscene: wave.cue\nframes: [1, 1]\nassertions: [{type: driver_valid, entity: L, path: p}]\n",
			wantErr: "frames[1]: frame 1 repeated",
		},
		{
			name:    "unknown type",
			content: "name: x\ndescription: d\nscene: wave.cue\nassertions: [{type: equals, entity: L, path: p}]\n",
			wantErr: `unknown assertion type "equals"`,
		},
		{
			name:    "missing entity",
			content: "name: x\ndescription: d\nscene: wave.cue\nassertions: [{type: driver_valid, path: p}]\n",
			wantErr: "assertions[0]: entity is required",
		},
		{
			name:    "missing path",
			content: "name: x\ndescription: d\nscene: wave.cue\nassertions: [{type: driver_valid, entity: L}]\n",
			wantErr: "assertions[0]: path is required",
		},
		{
			name:    "value without expect",
			content: "name: x\ndescription: d\nscene: wave.cue\nassertions: [{type: value, entity: L, path: p}]\n",
			wantErr: "expect is required for value",
		},
		{
			name:    "negative tolerance",
			content: "name: x\ndescription: d\nscene: wave.cue\nassertions: [{type: value, entity: L, path: p, expect: 1, tolerance: -1}]\n",
			wantErr: "tolerance must be non-negative",
		},
		{
			name:    "driver with expect",
			content: "name: x\ndescription: d\nscene: wave.cue\nassertions: [{type: driver_invalid, entity: L, path: p, expect: 1}]\n",
			wantErr: "expect is not allowed for driver_invalid",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScenario(writeScenario(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadScenario_SceneNotFoundError(t *testing.T) {
	path := writeScenario(t, "name: lost\ndescription: d\nscene: missing.cue\nassertions: [{type: driver_valid, entity: L, path: p}]\n")
	_, err := LoadScenario(path)

	var nf *SceneNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "lost", nf.Scenario)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "missing.cue"), nf.Path)
}

func TestLoadScenario_FileNotFound(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestFindScenarios(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0o755))
	for _, name := range []string{"b.yaml", "a.yml", "notes.txt", "nested/c.YAML"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}

	files, err := FindScenarios(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.yml"),
		filepath.Join(dir, "b.yaml"),
		filepath.Join(dir, "nested", "c.YAML"),
	}, files)

	single, err := FindScenarios(filepath.Join(dir, "notes.txt"))
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "notes.txt")}, single)

	_, err = FindScenarios(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}
