package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const runColumns = `id, seq, scene_name, scene_hash, fps, frame_start, frame_end, frame_step, entities, samples_hash, engine_version`

// ReadRun returns the run with the given id, or ErrRunNotFound.
func (s *Store) ReadRun(ctx context.Context, runID string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM bake_runs WHERE id = ?`, runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("read run %s: %w", runID, ErrRunNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("read run %s: %w", runID, err)
	}
	return run, nil
}

// LatestRun returns the run with the highest seq, or ErrRunNotFound when the
// store is empty.
func (s *Store) LatestRun(ctx context.Context) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM bake_runs ORDER BY seq DESC LIMIT 1`)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("latest run: %w", ErrRunNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("latest run: %w", err)
	}
	return run, nil
}

// ListRuns returns all runs ordered by seq.
// Returns an empty slice (not nil) when there are none.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+runColumns+` FROM bake_runs ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadSamples returns the samples of a run ordered by frame, entity, path
// and index. A non-empty entity restricts the result to that entity.
// Returns an empty slice (not nil) if the run has no samples.
func (s *Store) ReadSamples(ctx context.Context, runID, entity string) ([]Sample, error) {
	query := `
		SELECT frame, entity, path, idx, value
		FROM samples
		WHERE run_id = ?`
	args := []any{runID}
	if entity != "" {
		query += ` AND entity = ?`
		args = append(args, entity)
	}
	query += `
		ORDER BY frame ASC, entity COLLATE BINARY ASC, path COLLATE BINARY ASC, idx ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query samples: %w", err)
	}
	defer rows.Close()

	samples := []Sample{}
	for rows.Next() {
		var smp Sample
		if err := rows.Scan(&smp.Frame, &smp.Entity, &smp.Path, &smp.Index, &smp.Value); err != nil {
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		samples = append(samples, smp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate samples: %w", err)
	}
	return samples, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var run Run
	var entities string
	err := row.Scan(
		&run.ID,
		&run.Seq,
		&run.SceneName,
		&run.SceneHash,
		&run.FPS,
		&run.FrameStart,
		&run.FrameEnd,
		&run.FrameStep,
		&entities,
		&run.SamplesHash,
		&run.EngineVersion,
	)
	if err != nil {
		return Run{}, err
	}
	if run.Entities, err = unmarshalEntities(entities); err != nil {
		return Run{}, err
	}
	return run, nil
}
