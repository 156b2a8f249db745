package expr

import (
	"fmt"
	"math"
)

// Program is a compiled restricted expression.
type Program struct {
	src    string
	params []string
	root   node
}

// Compile parses src against the given parameter names. Identifiers that are
// neither parameters, constants nor known functions are compile errors.
func Compile(src string, params []string) (*Program, error) {
	toks, err := tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks, params: make(map[string]int, len(params))}
	for i, name := range params {
		if _, dup := p.params[name]; !dup {
			p.params[name] = i
		}
	}
	if toks[0].kind == tokEOF {
		return nil, &SyntaxError{Pos: 0, Message: "empty expression"}
	}
	root, err := p.ternary()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, &SyntaxError{Pos: t.pos, Message: fmt.Sprintf("unexpected %q", t.text)}
	}
	return &Program{src: src, params: append([]string(nil), params...), root: root}, nil
}

// Source returns the expression text.
func (p *Program) Source() string { return p.src }

// Params returns the parameter names the program was compiled against.
func (p *Program) Params() []string { return append([]string(nil), p.params...) }

// Eval evaluates the program. args are matched to the compile-time
// parameters by position. Division by zero returns ErrDivideByZero; a domain
// error or a non-finite result returns ErrDomain.
func (p *Program) Eval(args []float64) (float64, error) {
	if len(args) != len(p.params) {
		return 0, fmt.Errorf("expr: got %d arguments, want %d", len(args), len(p.params))
	}
	v, err := p.root.eval(args)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrDomain
	}
	return v, nil
}

var constants = map[string]float64{
	"pi":    math.Pi,
	"e":     math.E,
	"tau":   2 * math.Pi,
	"True":  1,
	"False": 0,
}

type parser struct {
	toks   []token
	i      int
	params map[string]int
}

func (p *parser) peek() token { return p.toks[p.i] }

func (p *parser) next() token {
	t := p.toks[p.i]
	if t.kind != tokEOF {
		p.i++
	}
	return t
}

func (p *parser) isOp(op string) bool {
	t := p.peek()
	return t.kind == tokOp && t.text == op
}

func (p *parser) isKeyword(kw string) bool {
	t := p.peek()
	return t.kind == tokIdent && t.text == kw
}

// ternary: or_expr ["if" or_expr "else" ternary]
func (p *parser) ternary() (node, error) {
	body, err := p.or()
	if err != nil {
		return nil, err
	}
	if !p.isKeyword("if") {
		return body, nil
	}
	p.next()
	cond, err := p.or()
	if err != nil {
		return nil, err
	}
	if !p.isKeyword("else") {
		return nil, &SyntaxError{Pos: p.peek().pos, Message: "expected else"}
	}
	p.next()
	other, err := p.ternary()
	if err != nil {
		return nil, err
	}
	return &condNode{cond: cond, then: body, other: other}, nil
}

func (p *parser) or() (node, error) {
	left, err := p.and()
	if err != nil {
		return nil, err
	}
	for p.isKeyword("or") {
		p.next()
		right, err := p.and()
		if err != nil {
			return nil, err
		}
		left = &logicNode{or: true, left: left, right: right}
	}
	return left, nil
}

func (p *parser) and() (node, error) {
	left, err := p.not()
	if err != nil {
		return nil, err
	}
	for p.isKeyword("and") {
		p.next()
		right, err := p.not()
		if err != nil {
			return nil, err
		}
		left = &logicNode{left: left, right: right}
	}
	return left, nil
}

func (p *parser) not() (node, error) {
	if p.isKeyword("not") {
		p.next()
		x, err := p.not()
		if err != nil {
			return nil, err
		}
		return &notNode{x: x}, nil
	}
	return p.comparison()
}

var comparisonOps = map[string]bool{"<": true, "<=": true, ">": true, ">=": true, "==": true, "!=": true}

// comparison supports chaining: a < b < c means a < b and b < c.
func (p *parser) comparison() (node, error) {
	first, err := p.sum()
	if err != nil {
		return nil, err
	}
	t := p.peek()
	if t.kind != tokOp || !comparisonOps[t.text] {
		return first, nil
	}
	c := &compareNode{operands: []node{first}}
	for {
		t := p.peek()
		if t.kind != tokOp || !comparisonOps[t.text] {
			break
		}
		p.next()
		rhs, err := p.sum()
		if err != nil {
			return nil, err
		}
		c.ops = append(c.ops, t.text)
		c.operands = append(c.operands, rhs)
	}
	return c, nil
}

func (p *parser) sum() (node, error) {
	left, err := p.term()
	if err != nil {
		return nil, err
	}
	for p.isOp("+") || p.isOp("-") {
		op := p.next().text
		right, err := p.term()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: op, left: left, right: right}
	}
	return left, nil
}

func (p *parser) term() (node, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for p.isOp("*") || p.isOp("/") || p.isOp("//") || p.isOp("%") {
		op := p.next().text
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: op, left: left, right: right}
	}
	return left, nil
}

func (p *parser) unary() (node, error) {
	if p.isOp("-") || p.isOp("+") {
		op := p.next().text
		x, err := p.unary()
		if err != nil {
			return nil, err
		}
		if op == "-" {
			return &negNode{x: x}, nil
		}
		return x, nil
	}
	return p.power()
}

// power binds tighter than a unary operator on its left and looser than one
// on its right: -2**2 is -4 and 2**-1 is 0.5.
func (p *parser) power() (node, error) {
	base, err := p.primary()
	if err != nil {
		return nil, err
	}
	if !p.isOp("**") {
		return base, nil
	}
	p.next()
	exp, err := p.unary()
	if err != nil {
		return nil, err
	}
	return &binaryNode{op: "**", left: base, right: exp}, nil
}

func (p *parser) primary() (node, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		return numNode(t.num), nil
	case tokLParen:
		x, err := p.ternary()
		if err != nil {
			return nil, err
		}
		if p.peek().kind != tokRParen {
			return nil, &SyntaxError{Pos: p.peek().pos, Message: "expected )"}
		}
		p.next()
		return x, nil
	case tokIdent:
		if p.peek().kind == tokLParen {
			return p.call(t)
		}
		if i, ok := p.params[t.text]; ok {
			return paramNode(i), nil
		}
		if v, ok := constants[t.text]; ok {
			return numNode(v), nil
		}
		return nil, &SyntaxError{Pos: t.pos, Message: fmt.Sprintf("unknown name %q", t.text)}
	case tokEOF:
		return nil, &SyntaxError{Pos: t.pos, Message: "unexpected end of expression"}
	}
	return nil, &SyntaxError{Pos: t.pos, Message: fmt.Sprintf("unexpected %q", t.text)}
}

func (p *parser) call(name token) (node, error) {
	fn, ok := functions[name.text]
	if !ok {
		return nil, &SyntaxError{Pos: name.pos, Message: fmt.Sprintf("unknown function %q", name.text)}
	}
	p.next() // (
	var args []node
	if p.peek().kind != tokRParen {
		for {
			a, err := p.ternary()
			if err != nil {
				return nil, err
			}
			args = append(args, a)
			if p.peek().kind != tokComma {
				break
			}
			p.next()
		}
	}
	if p.peek().kind != tokRParen {
		return nil, &SyntaxError{Pos: p.peek().pos, Message: "expected )"}
	}
	p.next()
	if !fn.accepts(len(args)) {
		return nil, &SyntaxError{Pos: name.pos, Message: fmt.Sprintf("%s: wrong number of arguments (%d)", name.text, len(args))}
	}
	return &callNode{name: name.text, fn: fn.impl, args: args}, nil
}
