// Package evalctx carries the per-evaluation context shared by the driver,
// NLA and orchestrator layers: a logger, debug trace flags and a metrics
// recorder, plus the taxonomy of recoverable evaluation errors.
//
// No evaluation error ever escapes an evaluation call. Errors are reported
// through Context.Report, which counts them and, when the matching debug
// flag is set, logs them at debug level.
package evalctx

import (
	"log/slog"

	"github.com/roach88/animeval/internal/metrics"
)

// Debug selects which trace events are logged.
type Debug uint8

const (
	// DebugDrivers traces driver invalidation and target failures.
	DebugDrivers Debug = 1 << iota
	// DebugBindings traces unresolved property bindings.
	DebugBindings
	// DebugNLA traces strip selection and skipped strips.
	DebugNLA

	DebugAll = DebugDrivers | DebugBindings | DebugNLA
)

// Context is passed to every evaluation call. The zero value logs nothing
// and records no metrics.
type Context struct {
	Logger  *slog.Logger
	Debug   Debug
	Metrics *metrics.Recorder
}

var discard = slog.New(slog.DiscardHandler)

// Log returns the context logger, never nil.
func (c *Context) Log() *slog.Logger {
	if c == nil || c.Logger == nil {
		return discard
	}
	return c.Logger
}

// Recorder returns the metrics recorder, possibly nil.
func (c *Context) Recorder() *metrics.Recorder {
	if c == nil {
		return nil
	}
	return c.Metrics
}

// Enabled reports whether trace events for flag are logged.
func (c *Context) Enabled(flag Debug) bool {
	return c != nil && c.Debug&flag != 0
}

// Trace logs msg at debug level when flag is enabled.
func (c *Context) Trace(flag Debug, msg string, args ...any) {
	if !c.Enabled(flag) {
		return
	}
	c.Log().Debug(msg, args...)
}

// Report records a recoverable evaluation error.
func (c *Context) Report(err *EvalError) {
	if err == nil {
		return
	}
	rec := c.Recorder()
	rec.Error(string(err.Code))
	switch err.Code {
	case ErrCodeBindingMiss:
		rec.BindingMiss()
	case ErrCodeExpression, ErrCodeInvalidTarget, ErrCodeInsufficientTargets:
		if err.Invalidated {
			rec.DriverInvalidated()
		}
	}
	c.Trace(err.Code.debugFlag(), "evaluation error",
		"code", string(err.Code),
		"entity", err.Entity,
		"path", err.Path,
		"index", err.Index,
		"error", err.Message,
	)
}
