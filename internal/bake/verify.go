package bake

import (
	"context"
	"fmt"

	"github.com/roach88/animeval/internal/compiler"
	"github.com/roach88/animeval/internal/store"
)

// Mismatch is a stored sample whose value differs from the fresh one.
type Mismatch struct {
	Frame  float64 `json:"frame"`
	Entity string  `json:"entity"`
	Path   string  `json:"path"`
	Index  int     `json:"index"`
	Want   float64 `json:"want"`
	Got    float64 `json:"got"`
}

// Report is the outcome of Verify.
type Report struct {
	RunID      string     `json:"run_id"`
	Samples    int        `json:"samples"`
	Mismatches []Mismatch `json:"mismatches"`
	// Missing counts stored samples the fresh evaluation did not produce;
	// Extra counts the reverse.
	Missing     int    `json:"missing"`
	Extra       int    `json:"extra"`
	SamplesHash string `json:"samples_hash"`
	Match       bool   `json:"match"`
}

type sampleKey struct {
	frame  float64
	entity string
	path   string
	index  int
}

func keyOf(s store.Sample) sampleKey {
	return sampleKey{frame: s.Frame, entity: s.Entity, path: s.Path, index: s.Index}
}

// Verify evaluates doc again over the frames of run runID and compares the
// result with the stored samples. doc must be freshly compiled: evaluation
// writes into doc.Scene. Returns ErrSceneChanged when doc was compiled from
// different source than the run.
func (b *Baker) Verify(ctx context.Context, runID string, doc *compiler.Document) (*Report, error) {
	run, err := b.store.ReadRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("verify: %w", err)
	}
	if doc.Hash != "" && doc.Hash != run.SceneHash {
		return nil, fmt.Errorf("verify %s: %w", runID, ErrSceneChanged)
	}

	stored, err := b.store.ReadSamples(ctx, runID, "")
	if err != nil {
		return nil, fmt.Errorf("verify: %w", err)
	}

	info := compiler.Info{FrameStart: run.FrameStart, FrameEnd: run.FrameEnd}
	fresh, err := Sample(ctx, doc, info.Frames(run.FrameStep), run.Entities, b.engineOpts...)
	if err != nil {
		return nil, fmt.Errorf("verify: %w", err)
	}
	hash, err := SamplesHash(fresh)
	if err != nil {
		return nil, fmt.Errorf("verify: %w", err)
	}

	got := make(map[sampleKey]float64, len(fresh))
	for _, s := range fresh {
		got[keyOf(s)] = s.Value
	}

	rep := &Report{
		RunID:       runID,
		Samples:     len(stored),
		Mismatches:  []Mismatch{},
		SamplesHash: hash,
	}
	seen := 0
	for _, s := range stored {
		v, ok := got[keyOf(s)]
		if !ok {
			rep.Missing++
			continue
		}
		seen++
		if v != s.Value {
			rep.Mismatches = append(rep.Mismatches, Mismatch{
				Frame:  s.Frame,
				Entity: s.Entity,
				Path:   s.Path,
				Index:  s.Index,
				Want:   s.Value,
				Got:    v,
			})
		}
	}
	rep.Extra = len(got) - seen
	rep.Match = len(rep.Mismatches) == 0 && rep.Missing == 0 && rep.Extra == 0 &&
		hash == run.SamplesHash

	b.logger.Info("verify complete",
		"run_id", runID,
		"samples", rep.Samples,
		"mismatches", len(rep.Mismatches),
		"match", rep.Match,
	)
	return rep, nil
}
