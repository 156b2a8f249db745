package compiler

import (
	"fmt"

	"github.com/roach88/animeval/internal/anim"
	"github.com/roach88/animeval/internal/driver"
)

// Validation error codes (E100-E199)
const (
	// General validation errors (E100)
	ErrUnsupportedType = "E100" // unsupported value for validation

	// Scene errors (E110-E119)
	ErrStripOverlap       = "E110" // strips overlap or are out of order
	ErrTransitionSiblings = "E111" // transition without a clip strip on both sides
	ErrUnknownClip        = "E112" // action or strip names an unknown clip
	ErrVariableArity      = "E113" // target count does not match variable kind
	ErrVariableName       = "E114" // variable name unusable in expressions
	ErrGroupContiguity    = "E115" // group channels not contiguous
	ErrEmptyMeta          = "E116" // meta strip without strips
)

// ValidationError represents a scene validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a compiled scene for structural problems.
// Returns all errors found (does not fail-fast).
// Accepts a *Document, an *anim.World or an *anim.Clip.
func Validate(v any) []ValidationError {
	switch x := v.(type) {
	case *Document:
		errs := append([]ValidationError(nil), x.issues...)
		for _, name := range x.ClipNames {
			errs = append(errs, validateClip(x.Clips[name])...)
		}
		return append(errs, validateWorld(x.World)...)
	case *anim.World:
		return validateWorld(x)
	case *anim.Clip:
		return validateClip(x)
	default:
		return []ValidationError{{
			Field:   "type",
			Message: fmt.Sprintf("unsupported type: %T", v),
			Code:    ErrUnsupportedType,
		}}
	}
}

// validateClip checks group contiguity.
func validateClip(c *anim.Clip) []ValidationError {
	if c == nil || c.Contiguous() {
		return nil
	}
	return []ValidationError{{
		Field:   fmt.Sprintf("clip.%s", c.Name),
		Message: "group channels are not contiguous",
		Code:    ErrGroupContiguity,
	}}
}

func validateWorld(w *anim.World) []ValidationError {
	if w == nil {
		return nil
	}
	var errs []ValidationError
	for _, ent := range w.Entities {
		ad := ent.Anim
		if ad == nil {
			continue
		}
		at := "entity." + ent.ID
		errs = append(errs, validateTracks(at+".tracks", ad.Tracks)...)
		for i, ch := range ad.Drivers {
			if ch.Driver == nil {
				continue
			}
			for j, dv := range ch.Driver.Variables {
				// E114: only expression drivers refer to variables by name
				if ch.Driver.Kind != anim.DriverExpression {
					continue
				}
				if !driver.ValidateVariableName(dv) {
					errs = append(errs, ValidationError{
						Field:   fmt.Sprintf("%s.drivers[%d].variables[%d].name", at, i, j),
						Message: fmt.Sprintf("variable name %q cannot be used in an expression", dv.Name),
						Code:    ErrVariableName,
					})
				}
			}
		}
	}
	return errs
}

func validateTracks(at string, tracks []*anim.Track) []ValidationError {
	var errs []ValidationError
	for i, t := range tracks {
		tat := fmt.Sprintf("%s[%d]", at, i)
		for j, s := range t.Strips {
			sat := fmt.Sprintf("%s.strips[%d]", tat, j)

			// E110: strips sorted and not overlapping
			if j > 0 {
				prev := t.Strips[j-1]
				if s.Start < prev.End {
					errs = append(errs, ValidationError{
						Field:   sat,
						Message: fmt.Sprintf("%s overlaps %s on track %q", s, prev, t.Name),
						Code:    ErrStripOverlap,
					})
				}
			}
			if s.End < s.Start {
				errs = append(errs, ValidationError{
					Field:   sat,
					Message: fmt.Sprintf("%s ends before it starts", s),
					Code:    ErrStripOverlap,
				})
			}

			switch s.Kind {
			case anim.StripTransition:
				// E111
				prev, next := t.Siblings(j)
				if prev == nil || next == nil || prev.Kind == anim.StripTransition || next.Kind == anim.StripTransition {
					errs = append(errs, ValidationError{
						Field:   sat,
						Message: "transition needs a non-transition strip on both sides",
						Code:    ErrTransitionSiblings,
					})
				}
			case anim.StripMeta:
				// E116
				if !hasStrips(s.Tracks) {
					errs = append(errs, ValidationError{
						Field:   sat,
						Message: fmt.Sprintf("meta strip %q has no strips", s.Name),
						Code:    ErrEmptyMeta,
					})
				}
				errs = append(errs, validateTracks(sat+".tracks", s.Tracks)...)
			}
		}
	}
	return errs
}

func hasStrips(tracks []*anim.Track) bool {
	for _, t := range tracks {
		if len(t.Strips) > 0 {
			return true
		}
	}
	return false
}
