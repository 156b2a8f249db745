package engine

import (
	"log/slog"

	"github.com/roach88/animeval/internal/anim"
	"github.com/roach88/animeval/internal/driver"
	"github.com/roach88/animeval/internal/evalctx"
	"github.com/roach88/animeval/internal/host"
	"github.com/roach88/animeval/internal/metrics"
	"github.com/roach88/animeval/internal/nla"
)

// Engine evaluates entities against a set of host capabilities.
type Engine struct {
	caps    host.Capabilities
	nla     *nla.Evaluator
	drivers *driver.Evaluator
	clock   *Clock

	logger  *slog.Logger
	metrics *metrics.Recorder
	debug   evalctx.Debug
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for trace events.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithMetrics records evaluation metrics on r.
func WithMetrics(r *metrics.Recorder) Option {
	return func(e *Engine) {
		e.metrics = r
	}
}

// WithDebug enables trace events for the given flags.
func WithDebug(flags evalctx.Debug) Option {
	return func(e *Engine) {
		e.debug = flags
	}
}

// WithExpressionHost sets the host for driver expressions outside the
// restricted grammar, replacing any host in the capabilities.
func WithExpressionHost(h host.ExpressionHost) Option {
	return func(e *Engine) {
		e.caps.Expressions = h
	}
}

// WithClock sets the clock that counts entity evaluations.
func WithClock(c *Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// New creates an Engine using caps.
func New(caps host.Capabilities, opts ...Option) *Engine {
	e := &Engine{
		caps:  caps,
		clock: NewClock(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.nla = nla.NewEvaluator(e.caps)
	e.drivers = driver.NewEvaluator(e.caps)
	return e
}

// Clock returns the clock counting entity evaluations.
func (e *Engine) Clock() *Clock {
	return e.clock
}

// Context returns the evaluation context handed to every stage.
func (e *Engine) Context() *evalctx.Context {
	return &evalctx.Context{Logger: e.logger, Debug: e.debug, Metrics: e.metrics}
}

// EvaluateEntity runs one evaluation pass for ent at time t. mask selects the
// stages to run in addition to those the entity is tagged with. Overrides
// apply on every pass.
func (e *Engine) EvaluateEntity(ent *anim.Entity, t float64, mask anim.RecalcFlags) {
	if ent == nil || ent.Anim == nil {
		return
	}
	ec := e.Context()
	rec := ec.Recorder()
	defer rec.TimeEntity()()
	rec.EntityEvaluated()
	e.clock.Next()

	ad := ent.Anim
	flags := mask | ad.Recalc
	if flags&anim.RecalcAnim != 0 {
		e.evaluateAnimation(ec, ent.ID, ad, t)
	}
	if flags&anim.RecalcDrivers != 0 {
		e.evaluateDrivers(ec, ent.ID, ad, t)
	}
	for _, o := range ad.Overrides {
		e.write(ec, ent.ID, o.Path, o.Index, o.Value)
	}
	ad.Recalc = 0
}

// EvaluateAll evaluates every entity of w in kind order.
func (e *Engine) EvaluateAll(w *anim.World, t float64) {
	e.evaluateWorld(w, t, anim.RecalcAll)
}

func (e *Engine) evaluateWorld(w *anim.World, t float64, mask anim.RecalcFlags) {
	for _, ent := range w.EvalOrder() {
		e.EvaluateEntity(ent, t, mask)
	}
}

// evaluateAnimation accumulates the NLA stack and the active clip into one
// buffer and flushes it.
func (e *Engine) evaluateAnimation(ec *evalctx.Context, entity string, ad *anim.AnimData, t float64) {
	buf := nla.NewBuffer()

	stack := !ad.NLAOff && hasLiveTracks(ad.Tracks)
	if stack {
		e.nla.EvaluateTracks(ec, entity, ad.Tracks, ad.SoloMode, t, buf)
	}

	// In solo mode only the solo track plays, unless the active clip is the
	// one being tweaked.
	if ad.Action != nil && (!stack || !ad.SoloMode || ad.TweakMode) {
		ct := t
		if ad.TweakMode && ad.ActStrip != nil {
			ct = nla.LocalTime(ad.ActStrip, t)
		}
		e.nla.EvaluateClip(ec, entity, ad.Action, ct, 1, anim.BlendReplace, buf)
	}

	nla.Flush(buf)
}

func hasLiveTracks(tracks []*anim.Track) bool {
	for _, t := range tracks {
		if !t.Disabled {
			return true
		}
	}
	return false
}

// evaluateDrivers evaluates every live driver channel and writes its value.
// A channel with keyframes maps the driver value through its curve.
func (e *Engine) evaluateDrivers(ec *evalctx.Context, entity string, ad *anim.AnimData, t float64) {
	for _, ch := range ad.Drivers {
		if ch.Driver == nil || ch.Muted || ch.Disabled {
			continue
		}
		call := driver.Call{Owner: entity, Path: ch.Path, Index: ch.Index}
		v := e.drivers.EvaluateDriver(ec, call, ch.Driver, t)
		if !ch.IsEmpty() && e.caps.Sampler != nil {
			v = e.caps.Sampler.Sample(ch, v)
		}
		e.write(ec, entity, ch.Path, ch.Index, v)
	}
}

func (e *Engine) write(ec *evalctx.Context, entity, path string, index int, v float64) {
	var (
		slot host.PropertySlot
		ok   bool
	)
	if e.caps.Resolver != nil {
		slot, ok = e.caps.Resolver.Resolve(entity, path, index)
	}
	if !ok {
		ec.Report(evalctx.NewBindingMiss(entity, path, index))
		return
	}
	nla.Write(slot, v)
}
