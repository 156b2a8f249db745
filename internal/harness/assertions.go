package harness

import (
	"fmt"
	"math"
	"strings"

	"github.com/roach88/animeval/internal/anim"
	"github.com/roach88/animeval/internal/compiler"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Frame    float64
	Target   string // entity.path[index]
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s at frame %g on %s\n", e.Type, e.Frame, e.Target)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

func target(a Assertion) string {
	return fmt.Sprintf("%s.%s[%d]", a.Entity, a.Path, a.Index)
}

// checkAssertion evaluates a against the current state of doc.
func checkAssertion(doc *compiler.Document, a Assertion) error {
	switch a.Type {
	case AssertValue:
		return assertValue(doc, a)
	case AssertDriverInvalid:
		return assertDriver(doc, a, true)
	case AssertDriverValid:
		return assertDriver(doc, a, false)
	default:
		return fmt.Errorf("unknown assertion type: %s", a.Type)
	}
}

func assertValue(doc *compiler.Document, a Assertion) error {
	want := *a.Expect
	slot, ok := doc.Scene.Resolve(a.Entity, a.Path, a.Index)
	if !ok {
		return &AssertionError{
			Type:     a.Type,
			Frame:    a.Frame,
			Target:   target(a),
			Expected: fmt.Sprintf("%g", want),
			Actual:   "property not found",
		}
	}
	got := slot.Get()
	if math.Abs(got-want) > a.Tolerance || math.IsNaN(got) {
		return &AssertionError{
			Type:     a.Type,
			Frame:    a.Frame,
			Target:   target(a),
			Expected: fmt.Sprintf("%g (tolerance %g)", want, a.Tolerance),
			Actual:   fmt.Sprintf("%g", got),
		}
	}
	return nil
}

func assertDriver(doc *compiler.Document, a Assertion, wantInvalid bool) error {
	want := "valid driver"
	if wantInvalid {
		want = "invalid driver"
	}
	d := findDriver(doc.World.Find(a.Entity), a.Path, a.Index)
	if d == nil {
		return &AssertionError{
			Type:     a.Type,
			Frame:    a.Frame,
			Target:   target(a),
			Expected: want,
			Actual:   "no driver on property",
		}
	}
	if d.Invalid() != wantInvalid {
		actual := "valid driver"
		if d.Invalid() {
			actual = "invalid driver"
		}
		return &AssertionError{
			Type:     a.Type,
			Frame:    a.Frame,
			Target:   target(a),
			Expected: want,
			Actual:   actual,
		}
	}
	return nil
}

func findDriver(ent *anim.Entity, path string, index int) *anim.Driver {
	if ent == nil || ent.Anim == nil {
		return nil
	}
	for _, ch := range ent.Anim.Drivers {
		if ch.Path == path && ch.Index == index && ch.Driver != nil {
			return ch.Driver
		}
	}
	return nil
}
