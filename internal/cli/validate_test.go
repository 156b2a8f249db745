package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runValidateCmd(t *testing.T, opts *RootOptions, path string) (stdout, stderr string, err error) {
	t.Helper()
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd := NewValidateCommand(opts)
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs([]string{path})
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestValidateValidScene(t *testing.T) {
	out, _, err := runValidateCmd(t, &RootOptions{Format: "text"}, writeScene(t, waveScene))
	require.NoError(t, err)
	assert.Contains(t, out, `✓ Scene "wave" valid (3 entities, 1 clips)`)
}

func TestValidateValidSceneJSON(t *testing.T) {
	out, _, err := runValidateCmd(t, &RootOptions{Format: "json"}, writeScene(t, waveScene))
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
	assert.Equal(t, "wave", resp.Data.Scene)
	assert.Equal(t, 3, resp.Data.Entities)
	assert.Equal(t, 1, resp.Data.Clips)
}

func TestValidateNonExistentPath(t *testing.T) {
	out, _, err := runValidateCmd(t, &RootOptions{Format: "text"}, "/nonexistent/scene.cue")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeNotFound)
	assert.Contains(t, out, "scene not found")
}

func TestValidateEmptyDirectory(t *testing.T) {
	out, _, err := runValidateCmd(t, &RootOptions{Format: "text"}, t.TempDir())
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeNoFiles)
	assert.Contains(t, out, "no CUE files found")
}

func TestValidateDirectoryUnifiesFiles(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"scene.cue": `package rig
scene: {name: "split", frame_start: 1, frame_end: 10}`,
		"clips.cue": `package rig
clip: Wave: channels: [{path: "location", index: 2, keys: [[1, 0], [10, 1]]}]`,
		"entities.cue": `package rig
entity: Cube: action: "Wave"`,
	}
	for name, src := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(src), 0o644))
	}

	out, stderr, err := runValidateCmd(t, &RootOptions{Format: "text", Verbose: true}, dir)
	require.NoError(t, err)
	assert.Contains(t, out, `✓ Scene "split" valid (1 entities, 1 clips)`)
	assert.Contains(t, stderr, "Compiled 3 file(s)")
}

func TestValidateStructuralIssues(t *testing.T) {
	src := `
clip: A: channels: [{path: "location", keys: [[1, 0], [11, 1]]}]
entity: X: tracks: [{name: "Base", strips: [{clip: "A", start: 1}, {clip: "A", start: 5}]}]
entity: Y: action: "Missing"
`
	out, _, err := runValidateCmd(t, &RootOptions{Format: "text"}, writeScene(t, src))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "validation failed with 2 error(s)")
	assert.Contains(t, out, "✗ Validation failed")
	assert.Contains(t, out, "E110")
	assert.Contains(t, out, "E112")
}

func TestValidateStructuralIssuesJSON(t *testing.T) {
	src := `entity: X: tracks: [{strips: [{kind: "meta", tracks: [{name: "inner"}]}]}]`
	out, _, err := runValidateCmd(t, &RootOptions{Format: "json"}, writeScene(t, src))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E116", resp.Error.Code)
}

func TestValidateCompileErrorIsValidationFailure(t *testing.T) {
	src := `scene: {name: "bad", fps: 0}
entity: X: {}
`
	out, _, err := runValidateCmd(t, &RootOptions{Format: "text"}, writeScene(t, src))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "line 1")
	assert.Contains(t, out, ErrCodeSceneSettings)
	assert.Contains(t, out, "fps must be positive")
}

func TestMapFieldToErrorCode(t *testing.T) {
	tests := []struct {
		field    string
		expected string
	}{
		{"cue", ErrCodeBuildFailed},
		{"scene.fps", ErrCodeSceneSettings},
		{"scene.frame_end", ErrCodeSceneSettings},
		{"keys", ErrCodeClip},
		{"extrapolation", ErrCodeClip},
		{"entity", ErrCodeEntity},
		{"entity.Cube", ErrCodeEntity},
		{"rotation_mode", ErrCodeEntity},
		{"space", ErrCodeDriver},
		{"blend", ErrCodeStrip},
		{"modifiers.kind", ErrCodeStrip},
		{"unknown", ErrCodeGeneric},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			assert.Equal(t, tt.expected, MapFieldToErrorCode(tt.field))
		})
	}
}

func TestFindCUEFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.cue", "a.cue", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(""), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nested", "c.cue"), []byte(""), 0o644))

	files, err := FindCUEFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.cue"), filepath.Join(dir, "b.cue")}, files)
}
