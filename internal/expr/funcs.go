package expr

import "math"

type function struct {
	// minArgs and maxArgs bound the argument count; maxArgs < 0 is variadic.
	minArgs, maxArgs int
	// arities, when set, lists the only accepted counts.
	arities []int
	impl    func([]float64) (float64, error)
}

func (f function) accepts(n int) bool {
	if f.arities != nil {
		for _, a := range f.arities {
			if a == n {
				return true
			}
		}
		return false
	}
	return n >= f.minArgs && (f.maxArgs < 0 || n <= f.maxArgs)
}

func unary(fn func(float64) float64) function {
	return function{minArgs: 1, maxArgs: 1, impl: func(a []float64) (float64, error) {
		return fn(a[0]), nil
	}}
}

func guarded(fn func(float64) float64, ok func(float64) bool) function {
	return function{minArgs: 1, maxArgs: 1, impl: func(a []float64) (float64, error) {
		if !ok(a[0]) {
			return 0, ErrDomain
		}
		return fn(a[0]), nil
	}}
}

func binary(fn func(a, b float64) (float64, error)) function {
	return function{minArgs: 2, maxArgs: 2, impl: func(a []float64) (float64, error) {
		return fn(a[0], a[1])
	}}
}

func unitRange(x float64) bool { return x >= -1 && x <= 1 }

var functions = map[string]function{
	"sin":   unary(math.Sin),
	"cos":   unary(math.Cos),
	"tan":   unary(math.Tan),
	"asin":  guarded(math.Asin, unitRange),
	"acos":  guarded(math.Acos, unitRange),
	"atan":  unary(math.Atan),
	"sinh":  unary(math.Sinh),
	"cosh":  unary(math.Cosh),
	"tanh":  unary(math.Tanh),
	"floor": unary(math.Floor),
	"ceil":  unary(math.Ceil),
	"trunc": unary(math.Trunc),
	"int":   unary(math.Trunc),
	"float": unary(func(x float64) float64 { return x }),
	"bool":  unary(func(x float64) float64 { return boolValue(x != 0) }),
	"abs":   unary(math.Abs),
	"fabs":  unary(math.Abs),
	"sqrt":  guarded(math.Sqrt, func(x float64) bool { return x >= 0 }),
	"exp":   unary(math.Exp),
	"log10": guarded(math.Log10, func(x float64) bool { return x > 0 }),
	"log2":  guarded(math.Log2, func(x float64) bool { return x > 0 }),
	"radians": unary(func(x float64) float64 {
		return x * math.Pi / 180
	}),
	"degrees": unary(func(x float64) float64 {
		return x * 180 / math.Pi
	}),
	"signum": unary(func(x float64) float64 {
		switch {
		case x > 0:
			return 1
		case x < 0:
			return -1
		}
		return 0
	}),
	"atan2": binary(func(y, x float64) (float64, error) { return math.Atan2(y, x), nil }),
	"pow":   binary(pow),
	"hypot": binary(func(a, b float64) (float64, error) { return math.Hypot(a, b), nil }),
	"fmod": binary(func(a, b float64) (float64, error) {
		if b == 0 {
			return 0, ErrDomain
		}
		return math.Mod(a, b), nil
	}),
	"log": {minArgs: 1, maxArgs: 2, impl: func(a []float64) (float64, error) {
		if a[0] <= 0 {
			return 0, ErrDomain
		}
		if len(a) == 1 {
			return math.Log(a[0]), nil
		}
		if a[1] <= 0 || a[1] == 1 {
			return 0, ErrDomain
		}
		return math.Log(a[0]) / math.Log(a[1]), nil
	}},
	"round": {minArgs: 1, maxArgs: 2, impl: func(a []float64) (float64, error) {
		if len(a) == 1 {
			return math.RoundToEven(a[0]), nil
		}
		p := math.Pow(10, math.Trunc(a[1]))
		return math.RoundToEven(a[0]*p) / p, nil
	}},
	"min": {minArgs: 1, maxArgs: -1, impl: func(a []float64) (float64, error) {
		m := a[0]
		for _, v := range a[1:] {
			if v < m {
				m = v
			}
		}
		return m, nil
	}},
	"max": {minArgs: 1, maxArgs: -1, impl: func(a []float64) (float64, error) {
		m := a[0]
		for _, v := range a[1:] {
			if v > m {
				m = v
			}
		}
		return m, nil
	}},
	"clamp": {arities: []int{1, 3}, impl: func(a []float64) (float64, error) {
		lo, hi := 0.0, 1.0
		if len(a) == 3 {
			lo, hi = a[1], a[2]
		}
		return math.Max(lo, math.Min(hi, a[0])), nil
	}},
	"lerp": {minArgs: 3, maxArgs: 3, impl: func(a []float64) (float64, error) {
		return a[0] + (a[1]-a[0])*a[2], nil
	}},
	"smoothstep": {minArgs: 3, maxArgs: 3, impl: func(a []float64) (float64, error) {
		e0, e1, x := a[0], a[1], a[2]
		if e0 == e1 {
			return boolValue(x >= e1), nil
		}
		t := math.Max(0, math.Min(1, (x-e0)/(e1-e0)))
		return t * t * (3 - 2*t), nil
	}},
}

// IsFunction reports whether name is a built-in function.
func IsFunction(name string) bool {
	_, ok := functions[name]
	return ok
}
