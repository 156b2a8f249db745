package driver

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/roach88/animeval/internal/anim"
	"github.com/roach88/animeval/internal/expr"
)

var (
	errEmptyExpression  = errors.New("empty expression")
	errNoExpressionHost = errors.New("expression outside the restricted grammar and no expression host")
)

type nameError struct {
	name  string
	flags anim.NameFlags
}

func (e *nameError) Error() string {
	return fmt.Sprintf("invalid variable name %q (flags %#x)", e.name, uint16(e.flags))
}

// specialChars are rejected anywhere in a variable name.
const specialChars = "~`!@#$%^&*+=-/\\?:;<>{}[]|\"'(),"

// ValidateVariableName recomputes dv.NameFlags and reports whether the name
// is usable in an expression. Validation clears previous flags first, so it
// is idempotent.
func ValidateVariableName(dv *anim.DriverVariable) bool {
	var f anim.NameFlags
	name := dv.Name
	if name == "" {
		f |= anim.NameEmpty
	} else {
		switch c := name[0]; {
		case c >= '0' && c <= '9':
			f |= anim.NameStartsWithNumber
		case c == '_':
			f |= anim.NameStartsWithUnderscore
		}
	}
	for _, r := range name {
		switch {
		case unicode.IsSpace(r):
			f |= anim.NameHasSpace
		case r == '.':
			f |= anim.NameHasDot
		case strings.ContainsRune(specialChars, r):
			f |= anim.NameHasSpecial
		}
	}
	// frame is bound to the evaluation time ahead of every variable.
	if expr.IsReserved(name) || name == FrameParam {
		f |= anim.NameReservedKeyword
	}
	if f != 0 {
		f |= anim.NameInvalid
	}
	dv.NameFlags = f
	return f == 0
}

// ValidateNames validates every variable of d and reports whether all names
// are usable.
func ValidateNames(d *anim.Driver) bool {
	ok := true
	for _, dv := range d.Variables {
		if !ValidateVariableName(dv) {
			ok = false
		}
	}
	return ok
}
