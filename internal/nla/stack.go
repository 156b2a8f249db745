// Package nla evaluates the non-linear animation stack of an entity into a
// buffer of per-property channels.
//
// Tracks are evaluated bottom to top. Each track contributes at most one
// strip, chosen by SelectStrip. Clip strips sample their clip at the mapped
// local time; transitions cross-fade their two neighbours in a temporary
// buffer; meta strips evaluate their nested tracks in a temporary buffer.
// Temporary buffers are merged into the parent with the owning strip's
// influence and blend mode.
package nla

import (
	"github.com/roach88/animeval/internal/anim"
	"github.com/roach88/animeval/internal/evalctx"
	"github.com/roach88/animeval/internal/host"
)

// Evaluator evaluates NLA stacks against host capabilities.
type Evaluator struct {
	Sampler  host.CurveSampler
	Resolver host.PropertyResolver
}

// NewEvaluator creates an Evaluator using the sampler and resolver of caps.
func NewEvaluator(caps host.Capabilities) *Evaluator {
	return &Evaluator{Sampler: caps.Sampler, Resolver: caps.Resolver}
}

// EvaluateStack evaluates every track of ad at time t into a new buffer.
func (e *Evaluator) EvaluateStack(ec *evalctx.Context, entity string, ad *anim.AnimData, t float64) *Buffer {
	buf := NewBuffer()
	e.EvaluateTracks(ec, entity, ad.Tracks, ad.SoloMode, t, buf)
	return buf
}

// EvaluateTracks accumulates tracks into buf from the lowest track up.
// Muted and disabled tracks are skipped; in solo mode only solo tracks play
// and outside it solo tracks are skipped.
func (e *Evaluator) EvaluateTracks(ec *evalctx.Context, entity string, tracks []*anim.Track, solo bool, t float64, buf *Buffer) {
	for _, track := range tracks {
		if track.Muted || track.Disabled || track.Solo != solo {
			continue
		}
		es := e.SelectStrip(track, t)
		if es == nil {
			continue
		}
		ec.Trace(evalctx.DebugNLA, "strip selected",
			"entity", entity,
			"track", track.Name,
			"strip", es.Strip.Name,
			"state", es.State.String(),
			"time", es.Time,
			"influence", es.Influence,
		)
		e.evaluateStrip(ec, entity, es, nil, buf)
	}
}

// EvaluateClip samples every live channel of clip at clip time t and
// accumulates it into buf with the given influence and blend mode.
func (e *Evaluator) EvaluateClip(ec *evalctx.Context, entity string, clip *anim.Clip, t, influence float64, mode anim.BlendMode, buf *Buffer) {
	e.sampleClip(ec, entity, clip, t, influence, mode, buf)
}

func (e *Evaluator) evaluateStrip(ec *evalctx.Context, entity string, es *EvalStrip, mods []anim.StripModifier, buf *Buffer) {
	s := es.Strip
	switch s.Kind {
	case anim.StripClip:
		e.evaluateClipStrip(ec, entity, es, mods, buf)
	case anim.StripTransition:
		e.evaluateTransition(ec, entity, es, mods, buf)
	case anim.StripMeta:
		e.evaluateMeta(ec, entity, es, mods, buf)
	}
}

func (e *Evaluator) evaluateClipStrip(ec *evalctx.Context, entity string, es *EvalStrip, mods []anim.StripModifier, buf *Buffer) {
	s := es.Strip
	if s.Clip == nil {
		ec.Report(evalctx.NewMissingClipOrStrip(entity, s.Name, "clip strip has no clip"))
		return
	}
	ec.Recorder().StripEvaluated(s.Kind.String())

	// Own modifiers run before those inherited from enclosing meta strips.
	stack := make([]anim.StripModifier, 0, len(s.Modifiers)+len(mods))
	stack = append(stack, s.Modifiers...)
	stack = append(stack, mods...)
	t := remapTime(s, stack, es.Time)

	e.sampleClip(ec, entity, s.Clip, t, es.Influence, s.BlendMode, buf)
}

func (e *Evaluator) sampleClip(ec *evalctx.Context, entity string, clip *anim.Clip, t, influence float64, mode anim.BlendMode, buf *Buffer) {
	if e.Sampler == nil {
		return
	}
	for _, ch := range clip.Channels {
		if ch.Muted || ch.Disabled || ch.IsEmpty() {
			continue
		}
		if ch.Group != nil && ch.Group.Muted {
			continue
		}
		v := e.Sampler.Sample(ch, t)
		buf.Accumulate(ec, e.Resolver, Key{Entity: entity, Path: ch.Path, Index: ch.Index}, v, influence, mode)
	}
}

// evaluateTransition cross-fades the strips on either side of a transition.
// The start flank is written first at full weight and the end flank blends
// over it weighted by the transition's progress. Reversing a transition
// swaps its flanks.
func (e *Evaluator) evaluateTransition(ec *evalctx.Context, entity string, es *EvalStrip, mods []anim.StripModifier, buf *Buffer) {
	s := es.Strip
	prev, next := es.Track.Siblings(es.Index)
	if prev == nil || next == nil {
		ec.Report(evalctx.NewMissingClipOrStrip(entity, s.Name, "transition needs strips on both sides"))
		return
	}
	// A transition never fades into another transition.
	if prev.Kind == anim.StripTransition || next.Kind == anim.StripTransition {
		ec.Report(evalctx.NewMissingClipOrStrip(entity, s.Name, "transition is adjacent to another transition"))
		return
	}
	ec.Recorder().StripEvaluated(s.Kind.String())

	// Flanks are evaluated at the boundary facing the transition.
	prevTime, prevInf := e.flankControls(prev, prev.End)
	nextTime, nextInf := e.flankControls(next, next.Start)

	first := &EvalStrip{Strip: prev, Track: es.Track, Index: es.Index - 1, State: StateTransitionStart, Time: prevTime, Influence: prevInf}
	second := &EvalStrip{Strip: next, Track: es.Track, Index: es.Index + 1, State: StateTransitionEnd, Time: nextTime, Influence: nextInf}
	if s.Reverse {
		first, second = second, first
		first.State, second.State = StateTransitionStart, StateTransitionEnd
	}
	second.Influence *= es.Time

	tmp := NewBuffer()
	tmp.missed = buf.missed
	e.evaluateStrip(ec, entity, first, mods, tmp)
	e.evaluateStrip(ec, entity, second, mods, tmp)
	buf.merge(tmp, es.Influence, s.BlendMode)
}

// flankControls computes a transition flank's time and influence. A flank
// plays at full influence unless it drives influence explicitly.
func (e *Evaluator) flankControls(s *anim.Strip, t float64) (time, influence float64) {
	time, influence = e.controls(s, t)
	if !s.UseInfluenceCurve {
		influence = 1
	}
	return time, influence
}

// evaluateMeta evaluates the nested tracks at the time corresponding to the
// meta strip's progress through its window.
func (e *Evaluator) evaluateMeta(ec *evalctx.Context, entity string, es *EvalStrip, mods []anim.StripModifier, buf *Buffer) {
	s := es.Strip
	if len(s.Tracks) == 0 {
		ec.Report(evalctx.NewMissingClipOrStrip(entity, s.Name, "meta strip has no tracks"))
		return
	}

	inner := s.ClipStart + es.Time*(s.ClipEnd-s.ClipStart)
	stack := make([]anim.StripModifier, 0, len(s.Modifiers)+len(mods))
	stack = append(stack, s.Modifiers...)
	stack = append(stack, mods...)

	solo := false
	for _, tr := range s.Tracks {
		solo = solo || tr.Solo
	}

	tmp := NewBuffer()
	tmp.missed = buf.missed
	active := 0
	for _, track := range s.Tracks {
		if track.Muted || track.Disabled || track.Solo != solo {
			continue
		}
		nested := e.SelectStrip(track, inner)
		if nested == nil {
			continue
		}
		active++
		e.evaluateStrip(ec, entity, nested, stack, tmp)
	}
	if active == 0 {
		ec.Report(evalctx.NewMissingClipOrStrip(entity, s.Name, "meta strip has no active nested strip"))
		return
	}
	ec.Recorder().StripEvaluated(s.Kind.String())
	buf.merge(tmp, es.Influence, s.BlendMode)
}
