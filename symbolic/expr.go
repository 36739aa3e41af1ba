// Package symbolic is a small computer-algebra kernel for scalar
// expressions: parsing, simplification, differentiation, LaTeX output and
// numeric evaluation, including evaluation over uncertain values.
//
// Constructors (AddOf, MulOf, PowOf, FuncOf) simplify as they build, so
// every Expr produced by this package is already in simplified form.
package symbolic

import (
	"math"
	"sort"
)

// Expr is a node of an expression tree
type Expr interface {
	// Diff differentiates with respect to the named variable
	Diff(name string) Expr
	// Simplify rebuilds the tree through the simplifying constructors
	Simplify() Expr
	// String renders with ** for powers, e.g. "2*m*r"
	String() string
	// LaTeX renders typeset math without surrounding $ delimiters
	LaTeX() string
	precedence() int
}

const (
	precAdd = iota + 1
	precMul
	precNeg
	precPow
	precAtom
)

// Num is a numeric constant
type Num struct{ V float64 }

// Sym is a free variable
type Sym struct{ Name string }

// Const is a named mathematical constant such as pi
type Const struct {
	Name string
	V    float64
}

// Add is a sum of terms
type Add struct{ Terms []Expr }

// Mul is a product of factors; a numeric coefficient, when present, is first
type Mul struct{ Factors []Expr }

// Pow is Base raised to Exp
type Pow struct{ Base, Exp Expr }

// Func is a unary function application
type Func struct {
	Name string
	Arg  Expr
}

// N builds a numeric constant
func N(v float64) *Num { return &Num{V: v} }

// S builds a variable
func S(name string) *Sym { return &Sym{Name: name} }

var (
	Pi = &Const{Name: "pi", V: math.Pi}
	E  = &Const{Name: "e", V: math.E}
)

var constants = map[string]*Const{"pi": Pi, "e": E}

func (n *Num) precedence() int {
	if n.V < 0 {
		return precNeg
	}
	if _, q, ok := rational(n.V); ok && q != 1 {
		return precMul
	}
	return precAtom
}
func (s *Sym) precedence() int   { return precAtom }
func (c *Const) precedence() int { return precAtom }
func (a *Add) precedence() int   { return precAdd }
func (m *Mul) precedence() int {
	if c, _ := splitCoeff(m); c < 0 {
		return precNeg
	}
	return precMul
}
func (p *Pow) precedence() int  { return precPow }
func (f *Func) precedence() int { return precAtom }

func (n *Num) Simplify() Expr   { return n }
func (s *Sym) Simplify() Expr   { return s }
func (c *Const) Simplify() Expr { return c }
func (a *Add) Simplify() Expr {
	terms := make([]Expr, len(a.Terms))
	for i, t := range a.Terms {
		terms[i] = t.Simplify()
	}
	return AddOf(terms...)
}
func (m *Mul) Simplify() Expr {
	factors := make([]Expr, len(m.Factors))
	for i, f := range m.Factors {
		factors[i] = f.Simplify()
	}
	return MulOf(factors...)
}
func (p *Pow) Simplify() Expr  { return PowOf(p.Base.Simplify(), p.Exp.Simplify()) }
func (f *Func) Simplify() Expr { return FuncOf(f.Name, f.Arg.Simplify()) }

func isNum(e Expr, v float64) bool {
	n, ok := e.(*Num)
	return ok && n.V == v
}

func isInteger(v float64) bool {
	return v == math.Trunc(v) && !math.IsInf(v, 0)
}

// splitCoeff separates the numeric coefficient from the rest of a term;
// rest is nil for a pure number
func splitCoeff(e Expr) (float64, Expr) {
	switch t := e.(type) {
	case *Num:
		return t.V, nil
	case *Mul:
		if c, ok := t.Factors[0].(*Num); ok {
			rest := t.Factors[1:]
			if len(rest) == 1 {
				return c.V, rest[0]
			}
			return c.V, &Mul{Factors: append([]Expr(nil), rest...)}
		}
	}
	return 1, e
}

// splitPow returns base and exponent, treating a non-power as exponent 1
func splitPow(e Expr) (Expr, Expr) {
	if p, ok := e.(*Pow); ok {
		return p.Base, p.Exp
	}
	return e, N(1)
}

// AddOf builds a simplified sum: nested sums flatten, constants fold and
// like terms combine
func AddOf(terms ...Expr) Expr {
	var flat []Expr
	for _, t := range terms {
		if a, ok := t.(*Add); ok {
			flat = append(flat, a.Terms...)
		} else {
			flat = append(flat, t)
		}
	}

	constant := 0.0
	type group struct {
		coeff float64
		rest  Expr
	}
	var groups []*group
	index := map[string]*group{}
	for _, t := range flat {
		c, rest := splitCoeff(t)
		if rest == nil {
			constant += c
			continue
		}
		key := rest.String()
		if g, ok := index[key]; ok {
			g.coeff += c
			continue
		}
		g := &group{coeff: c, rest: rest}
		index[key] = g
		groups = append(groups, g)
	}

	var out []Expr
	for _, g := range groups {
		switch g.coeff {
		case 0:
		case 1:
			out = append(out, g.rest)
		default:
			out = append(out, MulOf(N(g.coeff), g.rest))
		}
	}
	if constant != 0 {
		out = append(out, N(constant))
	}

	switch len(out) {
	case 0:
		return N(0)
	case 1:
		return out[0]
	}
	return &Add{Terms: out}
}

// SubOf returns a - b
func SubOf(a, b Expr) Expr {
	return AddOf(a, NegOf(b))
}

// NegOf returns -e
func NegOf(e Expr) Expr {
	return MulOf(N(-1), e)
}

// MulOf builds a simplified product: nested products flatten, constants
// fold, and repeated bases merge their exponents
func MulOf(factors ...Expr) Expr {
	var flat []Expr
	for _, f := range factors {
		if m, ok := f.(*Mul); ok {
			flat = append(flat, m.Factors...)
		} else {
			flat = append(flat, f)
		}
	}

	coeff := 1.0
	type group struct {
		base Expr
		exps []Expr
	}
	var groups []*group
	index := map[string]*group{}
	for _, f := range flat {
		if n, ok := f.(*Num); ok {
			coeff *= n.V
			continue
		}
		base, exp := splitPow(f)
		key := base.String()
		if g, ok := index[key]; ok {
			g.exps = append(g.exps, exp)
			continue
		}
		g := &group{base: base, exps: []Expr{exp}}
		index[key] = g
		groups = append(groups, g)
	}
	if coeff == 0 {
		return N(0)
	}

	var out []Expr
	for _, g := range groups {
		f := PowOf(g.base, AddOf(g.exps...))
		if n, ok := f.(*Num); ok {
			coeff *= n.V
			continue
		}
		out = append(out, f)
	}

	sort.SliceStable(out, func(i, j int) bool {
		ri, ki := factorOrder(out[i])
		rj, kj := factorOrder(out[j])
		if ri != rj {
			return ri < rj
		}
		return ki < kj
	})

	if coeff != 1 || len(out) == 0 {
		out = append([]Expr{N(coeff)}, out...)
	}
	if len(out) == 1 {
		return out[0]
	}
	return &Mul{Factors: out}
}

// factorOrder ranks product factors: constants, then variables by name,
// then numeric-base powers, sums and function applications
func factorOrder(f Expr) (int, string) {
	base, _ := splitPow(f)
	switch base.(type) {
	case *Const:
		return 0, base.String()
	case *Sym:
		return 1, base.String()
	case *Num:
		return 2, base.String()
	case *Func:
		return 4, base.String()
	}
	return 3, base.String()
}

// DivOf returns a / b
func DivOf(a, b Expr) Expr {
	return MulOf(a, PowOf(b, N(-1)))
}

// PowOf builds a simplified power
func PowOf(base, exp Expr) Expr {
	switch {
	case isNum(exp, 0):
		return N(1)
	case isNum(exp, 1):
		return base
	case isNum(base, 1):
		return N(1)
	case isNum(base, 0):
		if e, ok := exp.(*Num); ok && e.V > 0 {
			return N(0)
		}
	}

	if b, ok := base.(*Num); ok {
		if e, ok := exp.(*Num); ok && isInteger(e.V) {
			if v := math.Pow(b.V, e.V); !math.IsInf(v, 0) && !math.IsNaN(v) {
				return N(v)
			}
		}
	}

	// (a^m)^n = a^(m·n) for integer n
	if inner, ok := base.(*Pow); ok {
		if e, ok := exp.(*Num); ok && isInteger(e.V) {
			return PowOf(inner.Base, MulOf(inner.Exp, e))
		}
	}

	// (a·b)^n = a^n·b^n for integer n
	if m, ok := base.(*Mul); ok {
		if e, ok := exp.(*Num); ok && isInteger(e.V) {
			factors := make([]Expr, len(m.Factors))
			for i, f := range m.Factors {
				factors[i] = PowOf(f, e)
			}
			return MulOf(factors...)
		}
	}

	return &Pow{Base: base, Exp: exp}
}

// SqrtOf returns e^(1/2)
func SqrtOf(e Expr) Expr {
	return PowOf(e, N(0.5))
}

// Known function names
var functions = map[string]bool{
	"sin": true, "cos": true, "tan": true,
	"asin": true, "acos": true, "atan": true,
	"sinh": true, "cosh": true, "tanh": true,
	"exp": true, "log": true, "ln": true, "sqrt": true, "abs": true,
}

// IsFunction reports whether name is a supported function
func IsFunction(name string) bool {
	return functions[name]
}

// FuncOf builds a function application, folding trivial constant cases.
// sqrt becomes a power and ln an alias of log.
func FuncOf(name string, arg Expr) Expr {
	switch name {
	case "sqrt":
		return SqrtOf(arg)
	case "ln":
		name = "log"
	}
	if n, ok := arg.(*Num); ok {
		switch {
		case n.V == 0 && (name == "sin" || name == "tan" || name == "asin" || name == "atan" || name == "sinh" || name == "tanh"):
			return N(0)
		case n.V == 0 && (name == "cos" || name == "cosh" || name == "exp"):
			return N(1)
		case n.V == 1 && name == "log":
			return N(0)
		case name == "abs":
			return N(math.Abs(n.V))
		}
	}
	if name == "log" {
		if c, ok := arg.(*Const); ok && c == E {
			return N(1)
		}
	}
	return &Func{Name: name, Arg: arg}
}

// Vars returns the sorted free variable names of e
func Vars(e Expr) []string {
	set := map[string]struct{}{}
	collectVars(e, set)
	out := make([]string, 0, len(set))
	for name := range set {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func collectVars(e Expr, set map[string]struct{}) {
	switch t := e.(type) {
	case *Sym:
		set[t.Name] = struct{}{}
	case *Add:
		for _, term := range t.Terms {
			collectVars(term, set)
		}
	case *Mul:
		for _, f := range t.Factors {
			collectVars(f, set)
		}
	case *Pow:
		collectVars(t.Base, set)
		collectVars(t.Exp, set)
	case *Func:
		collectVars(t.Arg, set)
	}
}

// DependsOn reports whether e contains the named variable
func DependsOn(e Expr, name string) bool {
	for _, v := range Vars(e) {
		if v == name {
			return true
		}
	}
	return false
}

// Equal compares two expressions structurally
func Equal(a, b Expr) bool {
	return a.String() == b.String()
}
