// Package host declares the capabilities the evaluation engine consumes from
// its embedding application. The engine never samples curves, resolves
// property paths, walks the scene graph or runs full expressions itself; it
// asks these interfaces.
//
// Implementations used concurrently by the engine must be safe for
// concurrent use on distinct entities. ExpressionHost is the exception: the
// engine serializes every call to it.
package host

import (
	"github.com/roach88/animeval/internal/anim"
	"github.com/roach88/animeval/internal/mathx"
)

// SlotKind is the storage kind of a resolved property.
type SlotKind int

const (
	SlotFloat SlotKind = iota
	SlotInt
	SlotBool
	SlotEnum
)

var slotKindNames = [...]string{"float", "int", "bool", "enum"}

func (k SlotKind) String() string {
	if k < 0 || int(k) >= len(slotKindNames) {
		return "unknown"
	}
	return slotKindNames[k]
}

// CurveSampler evaluates a channel's keyframes and modifiers at a time.
type CurveSampler interface {
	Sample(ch *anim.CurveChannel, time float64) float64
}

// PropertySlot is a resolved, writable property element.
type PropertySlot interface {
	Kind() SlotKind
	// Get returns the current value converted to float64.
	Get() float64
	SetFloat(v float64)
	SetInt(v int64)
	SetBool(v bool)
}

// PropertyResolver binds an entity's property path and array index to a
// slot. The bool result is false when the path does not resolve.
type PropertyResolver interface {
	Resolve(entity, path string, index int) (PropertySlot, bool)
}

// TransformSource returns the transform matrix of an entity or one of its
// sub-parts (bones) in the requested space.
type TransformSource interface {
	Transform(entity, subPart string, space anim.Space) (mathx.Mat4, bool)
}

// ExpressionHost evaluates expressions outside the restricted grammar. names
// and values are matched by position.
type ExpressionHost interface {
	Eval(expression string, names []string, values []float64) (float64, error)
}

// Capabilities bundles the host interfaces handed to the engine.
type Capabilities struct {
	Sampler     CurveSampler
	Resolver    PropertyResolver
	Transforms  TransformSource
	Expressions ExpressionHost
}
