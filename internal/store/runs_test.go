package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteRun_AssignsSeq(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	seq1, err := s.WriteRun(ctx, createTestRun("run-a"))
	require.NoError(t, err)
	seq2, err := s.WriteRun(ctx, createTestRun("run-b"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), seq1)
	assert.Equal(t, int64(2), seq2)

	again, err := s.WriteRun(ctx, createTestRun("run-a"))
	require.NoError(t, err)
	assert.Equal(t, seq1, again, "rewriting a run keeps its seq")

	runs, err := s.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-a", runs[0].ID)
	assert.Equal(t, "run-b", runs[1].ID)
}

func TestReadRun_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	run := createTestRun("run-a")
	run.Entities = []string{"Cube", "Lamp"}
	seq, err := s.WriteRun(ctx, run)
	require.NoError(t, err)

	got, err := s.ReadRun(ctx, "run-a")
	require.NoError(t, err)
	run.Seq = seq
	assert.Equal(t, run, got)
}

func TestReadRun_NotFound(t *testing.T) {
	s := createTestStore(t)
	_, err := s.ReadRun(context.Background(), "nope")
	assert.True(t, errors.Is(err, ErrRunNotFound))
}

func TestLatestRun(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, err := s.LatestRun(ctx)
	assert.ErrorIs(t, err, ErrRunNotFound)

	_, err = s.WriteRun(ctx, createTestRun("first"))
	require.NoError(t, err)
	_, err = s.WriteRun(ctx, createTestRun("second"))
	require.NoError(t, err)

	latest, err := s.LatestRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, "second", latest.ID)
}

func TestListRuns_EmptyNotNil(t *testing.T) {
	s := createTestStore(t)
	runs, err := s.ListRuns(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, runs)
	assert.Empty(t, runs)
}

func TestSamples_DeterministicOrder(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	_, err := s.WriteRun(ctx, createTestRun("run"))
	require.NoError(t, err)

	err = s.WriteSamples(ctx, "run", []Sample{
		{Frame: 2, Entity: "Cube", Path: "location", Index: 1, Value: 4},
		{Frame: 1, Entity: "b", Path: "x", Index: 0, Value: 2},
		{Frame: 1, Entity: "B", Path: "x", Index: 0, Value: 1},
		{Frame: 2, Entity: "Cube", Path: "location", Index: 0, Value: 3},
	})
	require.NoError(t, err)

	got, err := s.ReadSamples(ctx, "run", "")
	require.NoError(t, err)
	assert.Equal(t, []Sample{
		{Frame: 1, Entity: "B", Path: "x", Index: 0, Value: 1},
		{Frame: 1, Entity: "b", Path: "x", Index: 0, Value: 2},
		{Frame: 2, Entity: "Cube", Path: "location", Index: 0, Value: 3},
		{Frame: 2, Entity: "Cube", Path: "location", Index: 1, Value: 4},
	}, got)

	cube, err := s.ReadSamples(ctx, "run", "Cube")
	require.NoError(t, err)
	assert.Len(t, cube, 2)
}

func TestWriteSamples_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	_, err := s.WriteRun(ctx, createTestRun("run"))
	require.NoError(t, err)

	smp := []Sample{{Frame: 1, Entity: "Cube", Path: "location", Value: 1}}
	require.NoError(t, s.WriteSamples(ctx, "run", smp))
	smp[0].Value = 99
	require.NoError(t, s.WriteSamples(ctx, "run", smp))

	got, err := s.ReadSamples(ctx, "run", "")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 1.0, got[0].Value, "first write wins")
}

func TestWriteSamples_UnknownRun(t *testing.T) {
	s := createTestStore(t)
	err := s.WriteSamples(context.Background(), "missing", []Sample{{Frame: 1, Entity: "e", Path: "p"}})
	assert.Error(t, err)
}

func TestReadSamples_EmptyNotNil(t *testing.T) {
	s := createTestStore(t)
	got, err := s.ReadSamples(context.Background(), "missing", "")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestDeleteRun_Cascades(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	_, err := s.WriteRun(ctx, createTestRun("run"))
	require.NoError(t, err)
	require.NoError(t, s.WriteSamples(ctx, "run", []Sample{{Frame: 1, Entity: "e", Path: "p"}}))

	require.NoError(t, s.DeleteRun(ctx, "run"))
	got, err := s.ReadSamples(ctx, "run", "")
	require.NoError(t, err)
	assert.Empty(t, got)

	assert.ErrorIs(t, s.DeleteRun(ctx, "run"), ErrRunNotFound)
}
