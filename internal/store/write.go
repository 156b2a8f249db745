package store

import (
	"context"
	"errors"
	"fmt"
)

// ErrRunNotFound is returned when a run id is not in the store.
var ErrRunNotFound = errors.New("bake run not found")

// Run is one bake of a scene over a frame range.
type Run struct {
	ID            string   `json:"id"`
	Seq           int64    `json:"seq"`
	SceneName     string   `json:"scene_name"`
	SceneHash     string   `json:"scene_hash"`
	FPS           float64  `json:"fps"`
	FrameStart    float64  `json:"frame_start"`
	FrameEnd      float64  `json:"frame_end"`
	FrameStep     float64  `json:"frame_step"`
	Entities      []string `json:"entities"`
	SamplesHash   string   `json:"samples_hash"`
	EngineVersion string   `json:"engine_version"`
}

// Sample is one evaluated property element at one frame.
type Sample struct {
	Frame  float64 `json:"frame"`
	Entity string  `json:"entity"`
	Path   string  `json:"path"`
	Index  int     `json:"index"`
	Value  float64 `json:"value"`
}

// WriteRun inserts a run and assigns its seq. The run's Seq field is
// ignored; seq is one past the highest stored seq.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - writing the same run id
// twice keeps the first row and returns its seq.
func (s *Store) WriteRun(ctx context.Context, run Run) (int64, error) {
	entities, err := marshalEntities(run.Entities)
	if err != nil {
		return 0, fmt.Errorf("write run: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO bake_runs
		(id, seq, scene_name, scene_hash, fps, frame_start, frame_end, frame_step, entities, samples_hash, engine_version)
		VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM bake_runs), ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.SceneName,
		run.SceneHash,
		run.FPS,
		run.FrameStart,
		run.FrameEnd,
		run.FrameStep,
		entities,
		run.SamplesHash,
		run.EngineVersion,
	)
	if err != nil {
		return 0, fmt.Errorf("write run: %w", err)
	}

	var seq int64
	if err := s.db.QueryRowContext(ctx, `SELECT seq FROM bake_runs WHERE id = ?`, run.ID).Scan(&seq); err != nil {
		return 0, fmt.Errorf("write run: read seq: %w", err)
	}
	return seq, nil
}

// WriteSamples inserts samples for runID in one transaction. Duplicate keys
// (frame, entity, path, index) are ignored.
//
// Note: the run must exist (foreign key constraint).
func (s *Store) WriteSamples(ctx context.Context, runID string, samples []Sample) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write samples: begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO samples (run_id, frame, entity, path, idx, value)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("write samples: prepare: %w", err)
	}
	defer stmt.Close()

	for _, smp := range samples {
		if _, err := stmt.ExecContext(ctx, runID, smp.Frame, smp.Entity, smp.Path, smp.Index, smp.Value); err != nil {
			return fmt.Errorf("write samples: %s %s[%d] at %g: %w", smp.Entity, smp.Path, smp.Index, smp.Frame, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write samples: commit: %w", err)
	}
	return nil
}

// DeleteRun removes a run and its samples.
func (s *Store) DeleteRun(ctx context.Context, runID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM bake_runs WHERE id = ?`, runID)
	if err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("delete run %s: %w", runID, ErrRunNotFound)
	}
	return nil
}
