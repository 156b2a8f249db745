package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/animeval/internal/scene"
)

func runEvalCmd(t *testing.T, opts *RootOptions, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd := NewEvalCommand(opts)
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

func decodeEval(t *testing.T, out string) EvalResult {
	t.Helper()
	var resp struct {
		Status string     `json:"status"`
		Data   EvalResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Equal(t, "ok", resp.Status)
	return resp.Data
}

func sampleValue(t *testing.T, samples []scene.Sample, entity, path string, index int) float64 {
	t.Helper()
	for _, s := range samples {
		if s.Entity == entity && s.Path == path && s.Index == index {
			return s.Value
		}
	}
	t.Fatalf("no sample %s.%s[%d]", entity, path, index)
	return 0
}

func TestEvalFramesInOrder(t *testing.T) {
	path := writeScene(t, waveScene)

	out, _, err := runEvalCmd(t, &RootOptions{Format: "json"}, path, "--frame", "5", "--frame", "2", "--entity", "Cube")
	require.NoError(t, err)

	result := decodeEval(t, out)
	assert.Equal(t, "wave", result.Scene)
	require.Len(t, result.Frames, 2)
	assert.Equal(t, 5.0, result.Frames[0].Frame)
	assert.Equal(t, 2.0, result.Frames[1].Frame)
	assert.InDelta(t, 4.0, sampleValue(t, result.Frames[0].Samples, "Cube", "location", 2), 1e-9)
	assert.InDelta(t, 1.0, sampleValue(t, result.Frames[1].Samples, "Cube", "location", 2), 1e-9)
	for _, s := range result.Frames[0].Samples {
		assert.Equal(t, "Cube", s.Entity)
	}
}

func TestEvalDefaultsToFirstFrame(t *testing.T) {
	out, _, err := runEvalCmd(t, &RootOptions{Format: "json"}, writeScene(t, waveScene), "--entity", "Lamp")
	require.NoError(t, err)

	result := decodeEval(t, out)
	require.Len(t, result.Frames, 1)
	assert.Equal(t, 1.0, result.Frames[0].Frame)
	assert.Equal(t, 4.0, sampleValue(t, result.Frames[0].Samples, "Lamp", "location", 0))
}

func TestEvalTextOutput(t *testing.T) {
	out, _, err := runEvalCmd(t, &RootOptions{Format: "text"}, writeScene(t, waveScene), "--frame", "3", "--entity", "Cube")
	require.NoError(t, err)
	assert.Contains(t, out, "frame 3\n")
	assert.Contains(t, out, "  Cube.location[2] = 2\n")
	assert.NotContains(t, out, "Lamp")
}

func TestEvalMetrics(t *testing.T) {
	out, _, err := runEvalCmd(t, &RootOptions{Format: "json"}, writeScene(t, waveScene), "--frame", "1", "--frame", "2", "--metrics")
	require.NoError(t, err)

	result := decodeEval(t, out)
	require.NotNil(t, result.Metrics)
	// Only Cube and Lamp carry animation data.
	assert.Equal(t, 4.0, result.Metrics["animeval_entity_evaluations_total"])
}

func TestEvalDebugLogsDriverErrors(t *testing.T) {
	src := `entity: Lamp: drivers: [{path: "location", type: "expression", expression: "1 / (frame - 1)"}]`
	path := writeScene(t, src)

	_, stderr, err := runEvalCmd(t, &RootOptions{Format: "text", Verbose: true}, path, "--frame", "1", "--debug", "drivers")
	require.NoError(t, err)
	assert.Contains(t, stderr, "evaluation error")
	assert.Contains(t, stderr, "EXPRESSION_ERROR")
	assert.Contains(t, stderr, "Evaluated frame 1")

	// Without the flag the error is counted but not logged.
	_, stderr, err = runEvalCmd(t, &RootOptions{Format: "text", Verbose: true}, path, "--frame", "1")
	require.NoError(t, err)
	assert.NotContains(t, stderr, "evaluation error")
}

func TestEvalUnknownDebugFlag(t *testing.T) {
	_, _, err := runEvalCmd(t, &RootOptions{Format: "text"}, writeScene(t, waveScene), "--debug", "curves")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestEvalUnknownEntity(t *testing.T) {
	_, _, err := runEvalCmd(t, &RootOptions{Format: "text"}, writeScene(t, waveScene), "--entity", "Ghost")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), `unknown entity "Ghost"`)
}

func TestEvalMissingScene(t *testing.T) {
	_, _, err := runEvalCmd(t, &RootOptions{Format: "text"}, "/nonexistent/scene.cue")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeNotFound)
}
