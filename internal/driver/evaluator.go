// Package driver evaluates drivers: values computed from scene relationships
// and expressions rather than keyframes.
//
// Expressions are evaluated in two tiers. The restricted grammar of package
// expr is tried first; its compiled program is cached on the driver and
// installed with compare-and-swap, so concurrent first evaluations may both
// compile but only one result is kept. Expressions outside that grammar are
// handed to the host.ExpressionHost, one call at a time process-wide.
//
// Evaluation never returns an error. Failures mark the driver (and the
// failing target) invalid, are reported through the evalctx.Context and
// contribute zero.
package driver

import (
	"math"
	"strings"
	"sync"

	"github.com/roach88/animeval/internal/anim"
	"github.com/roach88/animeval/internal/evalctx"
	"github.com/roach88/animeval/internal/expr"
	"github.com/roach88/animeval/internal/host"
)

// FrameParam is the name of the current time inside driver expressions.
const FrameParam = "frame"

// fullExprMu serializes every call into the full expression host.
var fullExprMu sync.Mutex

// Evaluator evaluates drivers against host capabilities. A nil capability
// makes every read through it fail.
type Evaluator struct {
	Resolver    host.PropertyResolver
	Transforms  host.TransformSource
	Expressions host.ExpressionHost
}

// NewEvaluator creates an evaluator from host capabilities.
func NewEvaluator(caps host.Capabilities) *Evaluator {
	return &Evaluator{
		Resolver:    caps.Resolver,
		Transforms:  caps.Transforms,
		Expressions: caps.Expressions,
	}
}

// Call identifies the driver being evaluated for error reporting and target
// defaults. Targets with no entity read from Owner.
type Call struct {
	Owner string
	Path  string
	Index int
}

// EvaluateDriver computes the driver's value at time. An invalid driver
// returns 0 without evaluating anything.
func (e *Evaluator) EvaluateDriver(ec *evalctx.Context, call Call, d *anim.Driver, time float64) float64 {
	if d == nil || d.Invalid() {
		return 0
	}

	var v float64
	switch d.Kind {
	case anim.DriverSum, anim.DriverAverage:
		for _, dv := range d.Variables {
			v += e.EvaluateVariable(ec, call, d, dv)
		}
		if d.Kind == anim.DriverAverage {
			if n := len(d.Variables); n > 0 {
				v /= float64(n)
			} else {
				v = 0
			}
		}
	case anim.DriverMin, anim.DriverMax:
		for i, dv := range d.Variables {
			x := e.EvaluateVariable(ec, call, d, dv)
			switch {
			case i == 0:
				v = x
			case d.Kind == anim.DriverMin && x < v:
				v = x
			case d.Kind == anim.DriverMax && x > v:
				v = x
			}
		}
	case anim.DriverExpression:
		v = e.evaluateExpression(ec, call, d, time)
	}

	d.Value = v
	return v
}

func paramNames(d *anim.Driver) []string {
	names := make([]string, 0, len(d.Variables)+1)
	names = append(names, FrameParam)
	for _, dv := range d.Variables {
		names = append(names, dv.Name)
	}
	return names
}

// compiled returns the cached compile result for the driver's current
// parameter list, compiling and installing one if needed.
func compiled(d *anim.Driver, params []string) *anim.CompiledExpression {
	sig := strings.Join(params, ",")
	cur := d.Compiled()
	if cur != nil && cur.Params == sig {
		return cur
	}
	prog, err := expr.Compile(d.Expression, params)
	next := &anim.CompiledExpression{Params: sig, Program: prog, Err: err}
	if d.InstallCompiled(cur, next) {
		return next
	}
	// Lost the race; use the winner when it matches.
	if won := d.Compiled(); won != nil && won.Params == sig {
		return won
	}
	return next
}

func (e *Evaluator) evaluateExpression(ec *evalctx.Context, call Call, d *anim.Driver, time float64) float64 {
	if strings.TrimSpace(d.Expression) == "" {
		return e.invalidate(ec, call, d, errEmptyExpression)
	}
	for _, dv := range d.Variables {
		if !ValidateVariableName(dv) {
			return e.invalidate(ec, call, d, &nameError{name: dv.Name, flags: dv.NameFlags})
		}
	}

	params := paramNames(d)
	args := make([]float64, 0, len(params))
	args = append(args, time)
	for _, dv := range d.Variables {
		args = append(args, e.EvaluateVariable(ec, call, d, dv))
	}

	c := compiled(d, params)
	if c.Program != nil {
		v, err := c.Program.Eval(args)
		if err != nil {
			return e.invalidate(ec, call, d, err)
		}
		return v
	}
	return e.evaluateFull(ec, call, d, params, args)
}

func (e *Evaluator) evaluateFull(ec *evalctx.Context, call Call, d *anim.Driver, params []string, args []float64) float64 {
	if e.Expressions == nil {
		return e.invalidate(ec, call, d, errNoExpressionHost)
	}
	fullExprMu.Lock()
	v, err := e.Expressions.Eval(d.Expression, params, args)
	fullExprMu.Unlock()
	ec.Recorder().FullExpression()

	if err != nil {
		return e.invalidate(ec, call, d, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return e.invalidate(ec, call, d, expr.ErrDomain)
	}
	return v
}

func (e *Evaluator) invalidate(ec *evalctx.Context, call Call, d *anim.Driver, cause error) float64 {
	d.MarkInvalid()
	ec.Report(evalctx.NewExpressionError(call.Owner, call.Path, call.Index, cause))
	return 0
}
