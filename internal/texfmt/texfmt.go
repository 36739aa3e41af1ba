// Package texfmt converts the small LaTeX subset used in chart labels and
// report strings into readable Unicode text for raster charts and terminals.
package texfmt

import (
	"strings"
)

var symbols = map[string]string{
	"alpha": "α", "beta": "β", "gamma": "γ", "delta": "δ", "epsilon": "ε",
	"zeta": "ζ", "eta": "η", "theta": "θ", "iota": "ι", "kappa": "κ",
	"lambda": "λ", "mu": "μ", "nu": "ν", "xi": "ξ", "pi": "π", "rho": "ρ",
	"sigma": "σ", "tau": "τ", "phi": "φ", "chi": "χ", "psi": "ψ", "omega": "ω",
	"Gamma": "Γ", "Delta": "Δ", "Theta": "Θ", "Lambda": "Λ", "Xi": "Ξ",
	"Pi": "Π", "Sigma": "Σ", "Phi": "Φ", "Psi": "Ψ", "Omega": "Ω",
	"pm": "±", "times": "×", "cdot": "·", "infty": "∞", "approx": "≈",
	"leq": "≤", "geq": "≥", "neq": "≠", "partial": "∂",
	"sin": "sin", "cos": "cos", "tan": "tan", "sinh": "sinh", "cosh": "cosh",
	"tanh": "tanh", "log": "log", "ln": "ln", "exp": "exp",
	"left": "", "right": "", ",": " ", ";": " ", " ": " ", "quad": "  ",
}

var superscripts = map[rune]rune{
	'0': '⁰', '1': '¹', '2': '²', '3': '³', '4': '⁴', '5': '⁵',
	'6': '⁶', '7': '⁷', '8': '⁸', '9': '⁹', '-': '⁻', '+': '⁺',
}

var subscripts = map[rune]rune{
	'0': '₀', '1': '₁', '2': '₂', '3': '₃', '4': '₄', '5': '₅',
	'6': '₆', '7': '₇', '8': '₈', '9': '₉', '-': '₋', '+': '₊',
}

// Plain renders LaTeX markup as Unicode text. Text outside $…$ is kept,
// math inside is converted; unknown commands lose their backslash.
func Plain(s string) string {
	if !strings.Contains(s, "$") {
		if strings.Contains(s, `\`) {
			return convert(s)
		}
		return s
	}
	var b strings.Builder
	parts := strings.Split(s, "$")
	for i, part := range parts {
		if i%2 == 1 {
			b.WriteString(convert(part))
		} else {
			b.WriteString(part)
		}
	}
	return b.String()
}

// Lines splits a multi-line label and converts each line
func Lines(s string) []string {
	raw := strings.Split(s, "\n")
	out := make([]string, 0, len(raw))
	for _, line := range raw {
		if line = strings.TrimSpace(Plain(line)); line != "" {
			out = append(out, line)
		}
	}
	return out
}

func convert(s string) string {
	c := &converter{src: []rune(s)}
	return strings.TrimSpace(c.run(false))
}

type converter struct {
	src []rune
	pos int
}

func (c *converter) eof() bool { return c.pos >= len(c.src) }

// run converts until the end of input, or until the closing brace of the
// current group when inGroup is set
func (c *converter) run(inGroup bool) string {
	var b strings.Builder
	for !c.eof() {
		r := c.src[c.pos]
		switch r {
		case '}':
			c.pos++
			if inGroup {
				return b.String()
			}
		case '{':
			c.pos++
			b.WriteString(c.run(true))
		case '\\':
			c.pos++
			b.WriteString(c.command())
		case '^':
			c.pos++
			b.WriteString(script(c.argument(), superscripts, "^"))
		case '_':
			c.pos++
			b.WriteString(script(c.argument(), subscripts, "_"))
		default:
			c.pos++
			b.WriteRune(r)
		}
	}
	return b.String()
}

// argument reads a braced group or a single character
func (c *converter) argument() string {
	if c.eof() {
		return ""
	}
	if c.src[c.pos] == '{' {
		c.pos++
		return c.run(true)
	}
	if c.src[c.pos] == '\\' {
		c.pos++
		return c.command()
	}
	r := c.src[c.pos]
	c.pos++
	return string(r)
}

func (c *converter) command() string {
	if c.eof() {
		return ""
	}
	start := c.pos
	for !c.eof() && isLetter(c.src[c.pos]) {
		c.pos++
	}
	if c.pos == start {
		// single-character command such as \, or \\
		r := c.src[c.pos]
		c.pos++
		if r == '\\' {
			return "\n"
		}
		return symbols[string(r)]
	}
	name := string(c.src[start:c.pos])

	switch name {
	case "frac":
		num, den := c.argument(), c.argument()
		return group(num) + "/" + group(den)
	case "sqrt":
		return "√" + group(c.argument())
	case "operatorname", "mathrm", "text", "mathbf", "textbf":
		return c.argument()
	}
	if sym, ok := symbols[name]; ok {
		return sym
	}
	return name
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// group parenthesises compound operands
func group(s string) string {
	s = strings.TrimSpace(s)
	if len([]rune(s)) <= 1 || !strings.ContainsAny(s, " +-*/") {
		return s
	}
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") && strings.Count(s, "(") == 1 {
		return s
	}
	return "(" + s + ")"
}

func script(arg string, table map[rune]rune, marker string) string {
	arg = strings.TrimSpace(arg)
	out := make([]rune, 0, len(arg))
	for _, r := range arg {
		m, ok := table[r]
		if !ok {
			return marker + group(arg)
		}
		out = append(out, m)
	}
	return string(out)
}
