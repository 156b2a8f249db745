package expr

import (
	"errors"
	"math"
)

var (
	// ErrDivideByZero is returned for x/0, x//0, x%0 and 0**-n.
	ErrDivideByZero = errors.New("expr: division by zero")
	// ErrDomain is returned when a function is called outside its domain or
	// a result is not finite.
	ErrDomain = errors.New("expr: math domain error")
)

type node interface {
	eval(args []float64) (float64, error)
}

type numNode float64

func (n numNode) eval([]float64) (float64, error) { return float64(n), nil }

type paramNode int

func (n paramNode) eval(args []float64) (float64, error) { return args[n], nil }

type negNode struct{ x node }

func (n *negNode) eval(args []float64) (float64, error) {
	v, err := n.x.eval(args)
	return -v, err
}

type notNode struct{ x node }

func (n *notNode) eval(args []float64) (float64, error) {
	v, err := n.x.eval(args)
	if err != nil {
		return 0, err
	}
	return boolValue(v == 0), nil
}

// logicNode follows value semantics: "a or b" yields a when a is truthy,
// otherwise b.
type logicNode struct {
	or          bool
	left, right node
}

func (n *logicNode) eval(args []float64) (float64, error) {
	l, err := n.left.eval(args)
	if err != nil {
		return 0, err
	}
	if (l != 0) == n.or {
		return l, nil
	}
	return n.right.eval(args)
}

type condNode struct {
	cond, then, other node
}

func (n *condNode) eval(args []float64) (float64, error) {
	c, err := n.cond.eval(args)
	if err != nil {
		return 0, err
	}
	if c != 0 {
		return n.then.eval(args)
	}
	return n.other.eval(args)
}

type compareNode struct {
	ops      []string
	operands []node
}

func (n *compareNode) eval(args []float64) (float64, error) {
	l, err := n.operands[0].eval(args)
	if err != nil {
		return 0, err
	}
	for i, op := range n.ops {
		r, err := n.operands[i+1].eval(args)
		if err != nil {
			return 0, err
		}
		var ok bool
		switch op {
		case "<":
			ok = l < r
		case "<=":
			ok = l <= r
		case ">":
			ok = l > r
		case ">=":
			ok = l >= r
		case "==":
			ok = l == r
		case "!=":
			ok = l != r
		}
		if !ok {
			return 0, nil
		}
		l = r
	}
	return 1, nil
}

type binaryNode struct {
	op          string
	left, right node
}

func (n *binaryNode) eval(args []float64) (float64, error) {
	l, err := n.left.eval(args)
	if err != nil {
		return 0, err
	}
	r, err := n.right.eval(args)
	if err != nil {
		return 0, err
	}
	switch n.op {
	case "+":
		return l + r, nil
	case "-":
		return l - r, nil
	case "*":
		return l * r, nil
	case "/":
		if r == 0 {
			return 0, ErrDivideByZero
		}
		return l / r, nil
	case "//":
		if r == 0 {
			return 0, ErrDivideByZero
		}
		return math.Floor(l / r), nil
	case "%":
		if r == 0 {
			return 0, ErrDivideByZero
		}
		return floorMod(l, r), nil
	case "**":
		return pow(l, r)
	}
	return 0, ErrDomain
}

// floorMod gives the result the sign of the divisor.
func floorMod(a, b float64) float64 {
	m := math.Mod(a, b)
	if m != 0 && (m < 0) != (b < 0) {
		m += b
	}
	return m
}

func pow(x, y float64) (float64, error) {
	if x == 0 && y < 0 {
		return 0, ErrDivideByZero
	}
	if x < 0 && y != math.Trunc(y) {
		return 0, ErrDomain
	}
	return math.Pow(x, y), nil
}

type callNode struct {
	name string
	fn   func([]float64) (float64, error)
	args []node
}

func (n *callNode) eval(args []float64) (float64, error) {
	vals := make([]float64, len(n.args))
	for i, a := range n.args {
		v, err := a.eval(args)
		if err != nil {
			return 0, err
		}
		vals[i] = v
	}
	return n.fn(vals)
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
