package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// createTestStore opens a store in a temp directory, closed on cleanup.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRun returns a three-frame run of one entity.
func createTestRun(id string) Run {
	return Run{
		ID:            id,
		SceneName:     "demo",
		SceneHash:     "scene-hash",
		FPS:           24,
		FrameStart:    1,
		FrameEnd:      3,
		FrameStep:     1,
		Entities:      []string{"Cube"},
		SamplesHash:   "samples-hash",
		EngineVersion: "test",
	}
}
