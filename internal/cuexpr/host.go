// Package cuexpr is the full expression host used when a driver expression
// falls outside the restricted grammar. Expressions are evaluated as CUE
// with the driver parameters bound as top-level fields, so the CUE standard
// library (math, list) is available:
//
//	math.Pow(a, 2) + list.Max([a, b])
//
// Python-style lower-case math calls (math.pow, math.sqrt, math.pi, ...)
// are rewritten to their CUE names before evaluation.
package cuexpr

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/parser"

	"github.com/roach88/animeval/internal/host"
)

// resultLabel is quoted so no expression identifier can refer to it.
const resultLabel = `"=result"`

var (
	// ErrNotFinite is returned for NaN or infinite inputs and results.
	ErrNotFinite = errors.New("cuexpr: value is not finite")
	// ErrNotConcrete is returned when the expression does not reduce to a
	// single number.
	ErrNotConcrete = errors.New("cuexpr: expression is not a concrete number")
	// ErrNotExpression is returned when the text is not exactly one CUE
	// expression, such as text that declares extra fields.
	ErrNotExpression = errors.New("cuexpr: not a single expression")
)

var pyMath = map[string]string{
	"pi": "Pi", "e": "E",
	"sin": "Sin", "cos": "Cos", "tan": "Tan",
	"asin": "Asin", "acos": "Acos", "atan": "Atan", "atan2": "Atan2",
	"sinh": "Sinh", "cosh": "Cosh", "tanh": "Tanh",
	"sqrt": "Sqrt", "pow": "Pow", "exp": "Exp", "log": "Log",
	"log2": "Log2", "log10": "Log10", "fabs": "Abs", "floor": "Floor",
	"ceil": "Ceil", "trunc": "Trunc", "copysign": "Copysign",
}

var mathRef = regexp.MustCompile(`\bmath\.([a-z][a-z0-9]*)\b`)

// Host evaluates expressions with CUE. A cue.Context is not safe for
// concurrent use, so calls are serialized.
type Host struct {
	mu  sync.Mutex
	ctx *cue.Context
}

// New creates a host with its own CUE context.
func New() *Host {
	return &Host{ctx: cuecontext.New()}
}

// Eval implements host.ExpressionHost.
func (h *Host) Eval(expression string, names []string, values []float64) (float64, error) {
	if len(names) != len(values) {
		return 0, fmt.Errorf("cuexpr: %d names for %d values", len(names), len(values))
	}
	src, err := Source(expression, names, values)
	if err != nil {
		return 0, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	v := h.ctx.CompileString(src, cue.Filename("driver.cue"))
	if err := v.Err(); err != nil {
		return 0, fmt.Errorf("cuexpr: %s", cueerrors.Details(err, nil))
	}
	res := v.LookupPath(cue.ParsePath(resultLabel))
	if err := res.Err(); err != nil {
		return 0, fmt.Errorf("cuexpr: %s", cueerrors.Details(err, nil))
	}
	if !res.IsConcrete() {
		return 0, ErrNotConcrete
	}
	f, err := res.Float64()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrNotConcrete, err)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, ErrNotFinite
	}
	return f, nil
}

// Source builds the CUE document evaluated for expression. The expression
// is embedded only after it parses as a single CUE expression.
func Source(expression string, names []string, values []float64) (string, error) {
	expression = mathRef.ReplaceAllStringFunc(expression, func(ref string) string {
		name := ref[len("math."):]
		if cueName, ok := pyMath[name]; ok {
			return "math." + cueName
		}
		return ref
	})
	if _, err := parser.ParseExpr("driver", expression); err != nil {
		return "", fmt.Errorf("%w: %s", ErrNotExpression, cueerrors.Details(err, nil))
	}

	var b strings.Builder
	for _, pkg := range []string{"math", "list"} {
		if strings.Contains(expression, pkg+".") {
			fmt.Fprintf(&b, "import %q\n", pkg)
		}
	}
	for i, name := range names {
		v := values[i]
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return "", fmt.Errorf("%w: %s", ErrNotFinite, name)
		}
		fmt.Fprintf(&b, "%s: %s\n", name, number(v))
	}
	fmt.Fprintf(&b, "%s: %s\n", resultLabel, expression)
	return b.String(), nil
}

// number formats v as a CUE float literal.
func number(v float64) string {
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

var _ host.ExpressionHost = (*Host)(nil)
