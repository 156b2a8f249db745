// Package bake evaluates a compiled scene over its frame range, stores the
// sampled property values, and verifies stored runs by evaluating the scene
// again and comparing sample for sample.
package bake

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/roach88/animeval/internal/canon"
	"github.com/roach88/animeval/internal/compiler"
	"github.com/roach88/animeval/internal/cuexpr"
	"github.com/roach88/animeval/internal/curve"
	"github.com/roach88/animeval/internal/engine"
	"github.com/roach88/animeval/internal/host"
	"github.com/roach88/animeval/internal/store"
)

// EngineVersion is recorded on every run.
const EngineVersion = "0.1.0"

var (
	// ErrSceneChanged is returned by Verify when the scene source hash
	// differs from the one recorded on the run.
	ErrSceneChanged = errors.New("scene source differs from the baked run")
	// ErrUnknownEntity is returned when a request names an entity the scene
	// does not have.
	ErrUnknownEntity = errors.New("unknown entity")
)

// Baker writes bake runs to a store.
type Baker struct {
	store      *store.Store
	ids        IDGenerator
	logger     *slog.Logger
	engineOpts []engine.Option
}

// Option configures a Baker.
type Option func(*Baker)

// WithIDGenerator sets the run id source. Defaults to UUIDv7Generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(b *Baker) {
		b.ids = g
	}
}

// WithLogger sets the logger for run progress.
func WithLogger(l *slog.Logger) Option {
	return func(b *Baker) {
		b.logger = l
	}
}

// WithEngineOptions passes options to every engine the Baker creates.
func WithEngineOptions(opts ...engine.Option) Option {
	return func(b *Baker) {
		b.engineOpts = append(b.engineOpts, opts...)
	}
}

// New creates a Baker writing to st.
func New(st *store.Store, opts ...Option) *Baker {
	b := &Baker{
		store:  st,
		ids:    UUIDv7Generator{},
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Request selects what a bake samples.
type Request struct {
	// Step is the frame increment; non-positive means 1.
	Step float64
	// Entities limits the stored samples; empty means every scene object.
	Entities []string
}

// Capabilities returns the reference host capabilities for doc.
func Capabilities(doc *compiler.Document) host.Capabilities {
	return host.Capabilities{
		Sampler:     curve.Sampler{},
		Resolver:    doc.Scene,
		Transforms:  doc.Scene,
		Expressions: cuexpr.New(),
	}
}

// Sample evaluates doc at each frame in order and snapshots the properties
// of ids (every object when empty) after each frame. Evaluation state such
// as invalidated drivers carries from frame to frame, so the result depends
// on the frame sequence, not only on each frame.
func Sample(ctx context.Context, doc *compiler.Document, frames []float64, ids []string, opts ...engine.Option) ([]store.Sample, error) {
	eng := engine.New(Capabilities(doc), opts...)
	var out []store.Sample
	player := eng.NewPlayer(doc.World, func(p engine.Pass) {
		for _, s := range doc.Scene.Snapshot(ids...) {
			out = append(out, store.Sample{
				Frame:  p.Update.Time,
				Entity: s.Entity,
				Path:   s.Path,
				Index:  s.Index,
				Value:  s.Value,
			})
		}
	})
	for _, f := range frames {
		player.Enqueue(engine.Update{Time: f})
	}
	player.Stop()
	if err := player.Run(ctx); err != nil {
		return nil, err
	}
	return out, nil
}

// SamplesHash hashes samples in store order (frame, entity, path, index),
// so it does not depend on the order they were produced in.
func SamplesHash(samples []store.Sample) (string, error) {
	sorted := slices.Clone(samples)
	slices.SortFunc(sorted, compareSamples)
	if sorted == nil {
		sorted = []store.Sample{}
	}
	return canon.Hash(canon.DomainSamples, sorted)
}

func compareSamples(a, b store.Sample) int {
	return cmp.Or(
		cmp.Compare(a.Frame, b.Frame),
		cmp.Compare(a.Entity, b.Entity),
		cmp.Compare(a.Path, b.Path),
		cmp.Compare(a.Index, b.Index),
	)
}

// Bake evaluates doc over its frame range and stores the samples as a new
// run.
func (b *Baker) Bake(ctx context.Context, doc *compiler.Document, req Request) (store.Run, error) {
	ids := req.Entities
	if len(ids) == 0 {
		ids = doc.Scene.Objects()
	}
	for _, id := range ids {
		if doc.Scene.Object(id) == nil {
			return store.Run{}, fmt.Errorf("bake: %q: %w", id, ErrUnknownEntity)
		}
	}
	step := req.Step
	if step <= 0 {
		step = 1
	}
	frames := doc.Info.Frames(step)

	samples, err := Sample(ctx, doc, frames, ids, b.engineOpts...)
	if err != nil {
		return store.Run{}, fmt.Errorf("bake: %w", err)
	}
	hash, err := SamplesHash(samples)
	if err != nil {
		return store.Run{}, fmt.Errorf("bake: %w", err)
	}

	run := store.Run{
		ID:            b.ids.Generate(),
		SceneName:     doc.Info.Name,
		SceneHash:     doc.Hash,
		FPS:           doc.Info.FPS,
		FrameStart:    doc.Info.FrameStart,
		FrameEnd:      doc.Info.FrameEnd,
		FrameStep:     step,
		Entities:      slices.Clone(ids),
		SamplesHash:   hash,
		EngineVersion: EngineVersion,
	}
	seq, err := b.store.WriteRun(ctx, run)
	if err != nil {
		return store.Run{}, fmt.Errorf("bake: %w", err)
	}
	run.Seq = seq
	if err := b.store.WriteSamples(ctx, run.ID, samples); err != nil {
		if derr := b.store.DeleteRun(ctx, run.ID); derr != nil {
			b.logger.Warn("failed to remove incomplete run", "run_id", run.ID, "error", derr)
		}
		return store.Run{}, fmt.Errorf("bake: %w", err)
	}

	b.logger.Info("bake complete",
		"run_id", run.ID,
		"scene", run.SceneName,
		"frames", len(frames),
		"samples", len(samples),
	)
	return run, nil
}
