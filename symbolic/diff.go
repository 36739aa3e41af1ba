package symbolic

func (n *Num) Diff(string) Expr   { return N(0) }
func (c *Const) Diff(string) Expr { return N(0) }

func (s *Sym) Diff(name string) Expr {
	if s.Name == name {
		return N(1)
	}
	return N(0)
}

func (a *Add) Diff(name string) Expr {
	terms := make([]Expr, len(a.Terms))
	for i, t := range a.Terms {
		terms[i] = t.Diff(name)
	}
	return AddOf(terms...)
}

// product rule over every factor
func (m *Mul) Diff(name string) Expr {
	terms := make([]Expr, 0, len(m.Factors))
	for i, f := range m.Factors {
		df := f.Diff(name)
		if isNum(df, 0) {
			continue
		}
		factors := make([]Expr, 0, len(m.Factors))
		factors = append(factors, df)
		for j, g := range m.Factors {
			if j != i {
				factors = append(factors, g)
			}
		}
		terms = append(terms, MulOf(factors...))
	}
	return AddOf(terms...)
}

func (p *Pow) Diff(name string) Expr {
	baseVar := DependsOn(p.Base, name)
	expVar := DependsOn(p.Exp, name)
	switch {
	case !baseVar && !expVar:
		return N(0)
	case !expVar:
		// d(u^n) = n·u^(n-1)·u'
		return MulOf(p.Exp, PowOf(p.Base, AddOf(p.Exp, N(-1))), p.Base.Diff(name))
	case !baseVar:
		// d(a^v) = a^v·ln(a)·v'
		return MulOf(p, FuncOf("log", p.Base), p.Exp.Diff(name))
	}
	// d(u^v) = u^v·(v'·ln(u) + v·u'/u)
	return MulOf(p, AddOf(
		MulOf(p.Exp.Diff(name), FuncOf("log", p.Base)),
		MulOf(p.Exp, p.Base.Diff(name), PowOf(p.Base, N(-1))),
	))
}

// chain rule
func (f *Func) Diff(name string) Expr {
	du := f.Arg.Diff(name)
	if isNum(du, 0) {
		return N(0)
	}
	u := f.Arg
	var outer Expr
	switch f.Name {
	case "sin":
		outer = FuncOf("cos", u)
	case "cos":
		outer = NegOf(FuncOf("sin", u))
	case "tan":
		outer = PowOf(FuncOf("cos", u), N(-2))
	case "asin":
		outer = PowOf(SubOf(N(1), PowOf(u, N(2))), N(-0.5))
	case "acos":
		outer = NegOf(PowOf(SubOf(N(1), PowOf(u, N(2))), N(-0.5)))
	case "atan":
		outer = PowOf(AddOf(N(1), PowOf(u, N(2))), N(-1))
	case "sinh":
		outer = FuncOf("cosh", u)
	case "cosh":
		outer = FuncOf("sinh", u)
	case "tanh":
		outer = PowOf(FuncOf("cosh", u), N(-2))
	case "exp":
		outer = f
	case "log":
		outer = PowOf(u, N(-1))
	case "abs":
		outer = MulOf(u, PowOf(f, N(-1)))
	default:
		// unknown functions cannot be constructed through FuncOf
		outer = N(0)
	}
	return MulOf(outer, du)
}

// Gradient returns the partial derivative of e for each name, in order
func Gradient(e Expr, names []string) []Expr {
	out := make([]Expr, len(names))
	for i, name := range names {
		out[i] = e.Diff(name)
	}
	return out
}
