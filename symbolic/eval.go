package symbolic

import (
	"fmt"
	"math"
	"strings"

	"physlab/domain/uncertain"
	"physlab/internal/errors"
)

var realFuncs = map[string]func(float64) float64{
	"sin": math.Sin, "cos": math.Cos, "tan": math.Tan,
	"asin": math.Asin, "acos": math.Acos, "atan": math.Atan,
	"sinh": math.Sinh, "cosh": math.Cosh, "tanh": math.Tanh,
	"exp": math.Exp, "log": math.Log, "abs": math.Abs,
}

var uncertainFuncs = map[string]func(uncertain.Value) uncertain.Value{
	"sin": uncertain.Value.Sin, "cos": uncertain.Value.Cos, "tan": uncertain.Value.Tan,
	"asin": uncertain.Value.Asin, "acos": uncertain.Value.Acos, "atan": uncertain.Value.Atan,
	"sinh": uncertain.Value.Sinh, "cosh": uncertain.Value.Cosh, "tanh": uncertain.Value.Tanh,
	"exp": uncertain.Value.Exp, "log": uncertain.Value.Log, "abs": uncertain.Value.Abs,
}

func unbound(name string) error {
	return errors.InvalidInput(fmt.Sprintf("no value for variable %q", name))
}

// Eval evaluates e with the given variable bindings
func Eval(e Expr, env map[string]float64) (float64, error) {
	switch t := e.(type) {
	case *Num:
		return t.V, nil
	case *Const:
		return t.V, nil
	case *Sym:
		v, ok := env[t.Name]
		if !ok {
			return 0, unbound(t.Name)
		}
		return v, nil
	case *Add:
		sum := 0.0
		for _, term := range t.Terms {
			v, err := Eval(term, env)
			if err != nil {
				return 0, err
			}
			sum += v
		}
		return sum, nil
	case *Mul:
		prod := 1.0
		for _, f := range t.Factors {
			v, err := Eval(f, env)
			if err != nil {
				return 0, err
			}
			prod *= v
		}
		return prod, nil
	case *Pow:
		b, err := Eval(t.Base, env)
		if err != nil {
			return 0, err
		}
		x, err := Eval(t.Exp, env)
		if err != nil {
			return 0, err
		}
		return math.Pow(b, x), nil
	case *Func:
		a, err := Eval(t.Arg, env)
		if err != nil {
			return 0, err
		}
		return realFuncs[t.Name](a), nil
	}
	return 0, errors.InternalError(fmt.Sprintf("unknown expression node %T", e))
}

// EvalUncertain evaluates e over uncertain values, propagating standard
// deviations linearly and keeping correlations between shared inputs
func EvalUncertain(e Expr, env map[string]uncertain.Value) (uncertain.Value, error) {
	switch t := e.(type) {
	case *Num:
		return uncertain.Exact(t.V), nil
	case *Const:
		return uncertain.Exact(t.V), nil
	case *Sym:
		v, ok := env[t.Name]
		if !ok {
			return uncertain.Value{}, unbound(t.Name)
		}
		return v, nil
	case *Add:
		sum := uncertain.Exact(0)
		for _, term := range t.Terms {
			v, err := EvalUncertain(term, env)
			if err != nil {
				return uncertain.Value{}, err
			}
			sum = sum.Add(v)
		}
		return sum, nil
	case *Mul:
		prod := uncertain.Exact(1)
		for _, f := range t.Factors {
			v, err := EvalUncertain(f, env)
			if err != nil {
				return uncertain.Value{}, err
			}
			prod = prod.Mul(v)
		}
		return prod, nil
	case *Pow:
		b, err := EvalUncertain(t.Base, env)
		if err != nil {
			return uncertain.Value{}, err
		}
		if n, ok := t.Exp.(*Num); ok {
			return b.Pow(n.V), nil
		}
		x, err := EvalUncertain(t.Exp, env)
		if err != nil {
			return uncertain.Value{}, err
		}
		return b.PowValue(x), nil
	case *Func:
		a, err := EvalUncertain(t.Arg, env)
		if err != nil {
			return uncertain.Value{}, err
		}
		return uncertainFuncs[t.Name](a), nil
	}
	return uncertain.Value{}, errors.InternalError(fmt.Sprintf("unknown expression node %T", e))
}

// Compiled is an expression lowered to a closure over positional slots
type Compiled func(slots []float64) float64

// CompileSlots lowers e so that variable names[i] reads slots[i]
func CompileSlots(e Expr, names []string) (Compiled, error) {
	index := make(map[string]int, len(names))
	for i, n := range names {
		index[n] = i
	}
	for _, v := range Vars(e) {
		if _, ok := index[v]; !ok {
			return nil, errors.InvalidInput(fmt.Sprintf("unknown variable %q (expected one of %s)", v, strings.Join(names, ", ")))
		}
	}
	return lower(e, index), nil
}

func lower(e Expr, index map[string]int) Compiled {
	switch t := e.(type) {
	case *Num:
		v := t.V
		return func([]float64) float64 { return v }
	case *Const:
		v := t.V
		return func([]float64) float64 { return v }
	case *Sym:
		i := index[t.Name]
		return func(s []float64) float64 { return s[i] }
	case *Add:
		parts := lowerAll(t.Terms, index)
		return func(s []float64) float64 {
			sum := 0.0
			for _, p := range parts {
				sum += p(s)
			}
			return sum
		}
	case *Mul:
		parts := lowerAll(t.Factors, index)
		return func(s []float64) float64 {
			prod := 1.0
			for _, p := range parts {
				prod *= p(s)
			}
			return prod
		}
	case *Pow:
		base, exp := lower(t.Base, index), lower(t.Exp, index)
		if n, ok := t.Exp.(*Num); ok {
			switch n.V {
			case 2:
				return func(s []float64) float64 { b := base(s); return b * b }
			case 0.5:
				return func(s []float64) float64 { return math.Sqrt(base(s)) }
			}
		}
		return func(s []float64) float64 { return math.Pow(base(s), exp(s)) }
	case *Func:
		arg, fn := lower(t.Arg, index), realFuncs[t.Name]
		return func(s []float64) float64 { return fn(arg(s)) }
	}
	return func([]float64) float64 { return math.NaN() }
}

func lowerAll(es []Expr, index map[string]int) []Compiled {
	out := make([]Compiled, len(es))
	for i, e := range es {
		out[i] = lower(e, index)
	}
	return out
}

// Compile parses text into a fit model f(x, params). Free variables other
// than x must appear in params; the returned function is safe for
// concurrent use.
func Compile(text, x string, params []string) (func(x float64, p []float64) float64, error) {
	e, err := Parse(text)
	if err != nil {
		return nil, err
	}
	names := append([]string{x}, params...)
	fn, err := CompileSlots(e, names)
	if err != nil {
		return nil, err
	}
	return func(xv float64, p []float64) float64 {
		slots := make([]float64, len(names))
		slots[0] = xv
		copy(slots[1:], p)
		return fn(slots)
	}, nil
}
