package symbolic

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// maxDenominator bounds the rationals recognised when printing numbers
const maxDenominator = 100

// rational returns p/q when v is exactly a small fraction
func rational(v float64) (p, q int64, ok bool) {
	for d := int64(1); d <= maxDenominator; d++ {
		n := v * float64(d)
		if math.Abs(n-math.Round(n)) < 1e-9 {
			return int64(math.Round(n)), d, true
		}
	}
	return 0, 0, false
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func (n *Num) String() string {
	if p, q, ok := rational(n.V); ok {
		if q == 1 {
			return strconv.FormatInt(p, 10)
		}
		return fmt.Sprintf("%d/%d", p, q)
	}
	return formatFloat(n.V)
}

func (n *Num) LaTeX() string {
	if p, q, ok := rational(n.V); ok {
		switch {
		case q == 1:
			return strconv.FormatInt(p, 10)
		case p < 0:
			return fmt.Sprintf("- \\frac{%d}{%d}", -p, q)
		default:
			return fmt.Sprintf("\\frac{%d}{%d}", p, q)
		}
	}
	return formatFloat(n.V)
}

func (s *Sym) String() string { return s.Name }

var greek = map[string]bool{
	"alpha": true, "beta": true, "gamma": true, "delta": true, "epsilon": true,
	"zeta": true, "eta": true, "theta": true, "iota": true, "kappa": true,
	"lambda": true, "mu": true, "nu": true, "xi": true, "rho": true,
	"sigma": true, "tau": true, "phi": true, "chi": true, "psi": true, "omega": true,
	"Gamma": true, "Delta": true, "Theta": true, "Lambda": true, "Xi": true,
	"Sigma": true, "Phi": true, "Psi": true, "Omega": true,
}

// SymbolLaTeX typesets a variable name: greek names become commands and
// the part after the first underscore becomes a subscript
func SymbolLaTeX(name string) string {
	head, sub, hasSub := strings.Cut(name, "_")
	if greek[head] {
		head = `\` + head
	}
	if hasSub && sub != "" {
		return head + "_{" + sub + "}"
	}
	return head
}

func (s *Sym) LaTeX() string { return SymbolLaTeX(s.Name) }

func (c *Const) String() string { return c.Name }

func (c *Const) LaTeX() string {
	if c == Pi {
		return `\pi`
	}
	return c.Name
}

func wrap(e Expr, min int, render func(Expr) string, open, close string) string {
	s := render(e)
	if e.precedence() < min {
		return open + s + close
	}
	return s
}

func plain(e Expr) string { return e.String() }
func tex(e Expr) string   { return e.LaTeX() }

// negated strips a leading negative coefficient, reporting whether it did
func negated(e Expr) (Expr, bool) {
	c, rest := splitCoeff(e)
	if c >= 0 {
		return e, false
	}
	if rest == nil {
		return N(-c), true
	}
	return MulOf(N(-c), rest), true
}

func joinSum(terms []Expr, render func(Expr) string, open, close string) string {
	var b strings.Builder
	for i, t := range terms {
		pos, neg := negated(t)
		switch {
		case i == 0 && neg:
			b.WriteString("-")
		case neg:
			b.WriteString(" - ")
		case i > 0:
			b.WriteString(" + ")
		}
		b.WriteString(wrap(pos, precMul, render, open, close))
	}
	return b.String()
}

func (a *Add) String() string { return joinSum(a.Terms, plain, "(", ")") }

func (a *Add) LaTeX() string { return joinSum(a.Terms, tex, `\left(`, `\right)`) }

// fraction splits a product into numerator and denominator factors, moving
// negative numeric powers below the line
func fraction(m *Mul) (coeff float64, num, den []Expr) {
	coeff = 1
	for _, f := range m.Factors {
		if n, ok := f.(*Num); ok {
			coeff *= n.V
			continue
		}
		if p, ok := f.(*Pow); ok {
			if e, ok := p.Exp.(*Num); ok && e.V < 0 {
				den = append(den, PowOf(p.Base, N(-e.V)))
				continue
			}
		}
		num = append(num, f)
	}
	return coeff, num, den
}

func (m *Mul) String() string {
	coeff, num, den := fraction(m)
	var parts []string
	if coeff != 1 && coeff != -1 {
		parts = append(parts, wrap(N(math.Abs(coeff)), precMul+1, plain, "(", ")"))
	}
	for _, f := range num {
		parts = append(parts, wrap(f, precMul+1, plain, "(", ")"))
	}
	if len(parts) == 0 {
		parts = append(parts, "1")
	}
	s := strings.Join(parts, "*")
	if len(den) > 0 {
		var dp []string
		for _, f := range den {
			dp = append(dp, wrap(f, precMul+1, plain, "(", ")"))
		}
		d := strings.Join(dp, "*")
		if len(dp) > 1 {
			d = "(" + d + ")"
		}
		s += "/" + d
	}
	if coeff < 0 {
		s = "-" + s
	}
	return s
}

func texProduct(factors []Expr) string {
	parts := make([]string, len(factors))
	for i, f := range factors {
		parts[i] = wrap(f, precMul+1, tex, `\left(`, `\right)`)
	}
	return strings.Join(parts, " ")
}

func (m *Mul) LaTeX() string {
	coeff, num, den := fraction(m)
	sign := ""
	if coeff < 0 {
		sign = "-"
		coeff = -coeff
	}

	numCoeff, denCoeff := "", ""
	if p, q, ok := rational(coeff); ok {
		if p != 1 {
			numCoeff = strconv.FormatInt(p, 10)
		}
		if q != 1 {
			denCoeff = strconv.FormatInt(q, 10)
		}
	} else if coeff != 1 {
		numCoeff = formatFloat(coeff)
	}

	top := texProduct(num)
	if numCoeff != "" {
		top = strings.TrimSpace(numCoeff + " " + top)
	}
	if len(den) == 0 && denCoeff == "" {
		if top == "" {
			top = "1"
		}
		return sign + top
	}
	if top == "" {
		top = "1"
	}
	bottom := texProduct(den)
	if denCoeff != "" {
		bottom = strings.TrimSpace(denCoeff + " " + bottom)
	}
	return sign + `\frac{` + top + `}{` + bottom + `}`
}

func (p *Pow) String() string {
	if e, ok := p.Exp.(*Num); ok && e.V < 0 {
		return (&Mul{Factors: []Expr{p}}).String()
	}
	return wrap(p.Base, precPow+1, plain, "(", ")") + "**" + wrap(p.Exp, precPow+1, plain, "(", ")")
}

func (p *Pow) LaTeX() string {
	if e, ok := p.Exp.(*Num); ok {
		switch {
		case e.V == 0.5:
			return `\sqrt{` + p.Base.LaTeX() + `}`
		case e.V < 0:
			return (&Mul{Factors: []Expr{p}}).LaTeX()
		}
	}
	base := wrap(p.Base, precPow+1, tex, `\left(`, `\right)`)
	if _, ok := p.Base.(*Func); ok {
		base = `\left(` + base + `\right)`
	}
	return base + "^{" + p.Exp.LaTeX() + "}"
}

func (f *Func) String() string {
	return f.Name + "(" + f.Arg.String() + ")"
}

func (f *Func) LaTeX() string {
	arg := f.Arg.LaTeX()
	switch f.Name {
	case "abs":
		return `\left|` + arg + `\right|`
	case "log":
		return `\log{\left(` + arg + ` \right)}`
	case "asin", "acos", "atan":
		return `\operatorname{` + f.Name + `}{\left(` + arg + ` \right)}`
	case "exp":
		return `e^{` + arg + `}`
	}
	return `\` + f.Name + `{\left(` + arg + ` \right)}`
}
