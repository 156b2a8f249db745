package evalctx

import (
	"errors"
	"fmt"
)

// EvalError is a recoverable error detected during evaluation.
//
// Evaluation errors include:
//   - Invalid target: a driver variable target failed to resolve
//   - Insufficient targets: a variable has fewer targets than its kind needs
//   - Expression error: a driver expression failed to compile or evaluate
//   - Missing clip or strip: an NLA strip lacks its clip, siblings or tracks
//   - Binding miss: a channel's property path did not resolve
type EvalError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Entity, Path and Index locate the affected property, when known.
	Entity string
	Path   string
	Index  int

	// Invalidated is true when the error marked a driver invalid.
	Invalidated bool
}

// ErrorCode categorizes evaluation errors.
type ErrorCode string

const (
	// ErrCodeInvalidTarget indicates a driver target did not resolve.
	ErrCodeInvalidTarget ErrorCode = "INVALID_TARGET"

	// ErrCodeInsufficientTargets indicates a variable is missing targets.
	ErrCodeInsufficientTargets ErrorCode = "INSUFFICIENT_TARGETS"

	// ErrCodeExpression indicates a driver expression failed.
	ErrCodeExpression ErrorCode = "EXPRESSION_ERROR"

	// ErrCodeMissingClipOrStrip indicates a strip cannot be evaluated.
	ErrCodeMissingClipOrStrip ErrorCode = "MISSING_CLIP_OR_STRIP"

	// ErrCodeBindingMiss indicates a property binding did not resolve.
	ErrCodeBindingMiss ErrorCode = "BINDING_MISS"
)

func (c ErrorCode) debugFlag() Debug {
	switch c {
	case ErrCodeBindingMiss:
		return DebugBindings
	case ErrCodeMissingClipOrStrip:
		return DebugNLA
	}
	return DebugDrivers
}

// Error implements the error interface.
func (e *EvalError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s (entity=%s, path=%s[%d])", e.Code, e.Message, e.Entity, e.Path, e.Index)
	}
	if e.Entity != "" {
		return fmt.Sprintf("%s: %s (entity=%s)", e.Code, e.Message, e.Entity)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsCode reports whether err is an EvalError with the given code.
// Uses errors.As to handle wrapped errors.
func IsCode(err error, code ErrorCode) bool {
	var ee *EvalError
	if errors.As(err, &ee) {
		return ee.Code == code
	}
	return false
}

// NewBindingMiss creates an EvalError for an unresolved property.
func NewBindingMiss(entity, path string, index int) *EvalError {
	return &EvalError{
		Code:    ErrCodeBindingMiss,
		Message: "property did not resolve",
		Entity:  entity,
		Path:    path,
		Index:   index,
	}
}

// NewExpressionError creates an EvalError for a failed driver expression.
func NewExpressionError(entity, path string, index int, cause error) *EvalError {
	return &EvalError{
		Code:        ErrCodeExpression,
		Message:     cause.Error(),
		Entity:      entity,
		Path:        path,
		Index:       index,
		Invalidated: true,
	}
}

// NewInvalidTarget creates an EvalError for a target that did not resolve.
func NewInvalidTarget(entity, variable, target string) *EvalError {
	return &EvalError{
		Code:        ErrCodeInvalidTarget,
		Message:     fmt.Sprintf("variable %q: target %q did not resolve", variable, target),
		Entity:      entity,
		Invalidated: true,
	}
}

// NewInsufficientTargets creates an EvalError for a variable with missing
// targets.
func NewInsufficientTargets(entity, variable string, have, want int) *EvalError {
	return &EvalError{
		Code:        ErrCodeInsufficientTargets,
		Message:     fmt.Sprintf("variable %q has %d valid targets, needs %d", variable, have, want),
		Entity:      entity,
		Invalidated: true,
	}
}

// NewMissingClipOrStrip creates an EvalError for a strip that cannot be
// evaluated.
func NewMissingClipOrStrip(entity, strip, reason string) *EvalError {
	return &EvalError{
		Code:    ErrCodeMissingClipOrStrip,
		Message: fmt.Sprintf("strip %q: %s", strip, reason),
		Entity:  entity,
	}
}
