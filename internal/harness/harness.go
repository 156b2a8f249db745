package harness

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/animeval/internal/bake"
	"github.com/roach88/animeval/internal/compiler"
	"github.com/roach88/animeval/internal/engine"
)

// Harness evaluates one scenario.
type Harness struct {
	doc    *compiler.Document
	engine *engine.Engine
	clock  *engine.Clock
}

// Run executes a scenario and returns the result.
//
// Execution flow:
//  1. Compile the scene file afresh
//  2. Record structural validation issues as failures
//  3. Evaluate each frame in order, checking the assertions for that frame
//     and sampling the scenario's entities
//  4. Report assertions whose frame was never evaluated
//
// An error is returned only when the scenario cannot run at all.
func Run(ctx context.Context, scenario *Scenario, opts ...engine.Option) (*Result, error) {
	doc, err := compiler.CompileFile(scenario.Scene)
	if err != nil {
		return nil, fmt.Errorf("failed to compile scene: %w", err)
	}
	for _, id := range scenario.Entities {
		if doc.Scene.Object(id) == nil {
			return nil, fmt.Errorf("scenario %q: unknown entity %q", scenario.Name, id)
		}
	}

	clock := engine.NewClock()
	opts = append([]engine.Option{
		engine.WithLogger(slog.New(slog.DiscardHandler)),
		engine.WithClock(clock),
	}, opts...)
	h := &Harness{
		doc:    doc,
		engine: engine.New(bake.Capabilities(doc), opts...),
		clock:  clock,
	}

	result := NewResult()
	for _, issue := range compiler.Validate(doc) {
		result.AddError(issue.Error())
	}

	frames := scenario.Frames
	if len(frames) == 0 {
		frames = doc.Info.Frames(scenario.Step)
	}

	byFrame := make(map[float64][]Assertion)
	for _, a := range scenario.Assertions {
		byFrame[a.Frame] = append(byFrame[a.Frame], a)
	}

	for _, f := range frames {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		h.evaluate(f, byFrame[f], scenario.Entities, result)
		delete(byFrame, f)
	}

	// Report never-evaluated frames in declaration order.
	for _, a := range scenario.Assertions {
		if _, pending := byFrame[a.Frame]; pending {
			result.AddError(fmt.Sprintf("assertion %s on %s: frame %g was not evaluated", a.Type, target(a), a.Frame))
		}
	}

	result.Evaluations = h.clock.Current()
	return result, nil
}

func (h *Harness) evaluate(frame float64, assertions []Assertion, entities []string, result *Result) {
	h.engine.EvaluateAll(h.doc.World, frame)

	for _, a := range assertions {
		if err := checkAssertion(h.doc, a); err != nil {
			result.AddError(err.Error())
		}
	}

	for _, s := range h.doc.Scene.Snapshot(entities...) {
		result.Samples = append(result.Samples, Sample{
			Frame:  frame,
			Entity: s.Entity,
			Path:   s.Path,
			Index:  s.Index,
			Value:  s.Value,
		})
	}
}

// RunFile loads and runs the scenario at path.
func RunFile(ctx context.Context, path string, opts ...engine.Option) (*Scenario, *Result, error) {
	scenario, err := LoadScenario(path)
	if err != nil {
		return nil, nil, err
	}
	result, err := Run(ctx, scenario, opts...)
	if err != nil {
		return scenario, nil, err
	}
	return scenario, result, nil
}
