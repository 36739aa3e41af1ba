package symbolic

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"physlab/internal/errors"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNum
	tokIdent
	tokOp
	tokLParen
	tokRParen
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

func tokenize(src string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(src) {
		c := rune(src[i])
		switch {
		case unicode.IsSpace(c):
			i++
		case unicode.IsDigit(c) || (c == '.' && i+1 < len(src) && unicode.IsDigit(rune(src[i+1]))):
			start := i
			for i < len(src) && (unicode.IsDigit(rune(src[i])) || src[i] == '.') {
				i++
			}
			// exponent part: 1e-3, 2.5E+4
			if i < len(src) && (src[i] == 'e' || src[i] == 'E') {
				j := i + 1
				if j < len(src) && (src[j] == '+' || src[j] == '-') {
					j++
				}
				if j < len(src) && unicode.IsDigit(rune(src[j])) {
					i = j
					for i < len(src) && unicode.IsDigit(rune(src[i])) {
						i++
					}
				}
			}
			toks = append(toks, token{kind: tokNum, text: src[start:i], pos: start})
		case unicode.IsLetter(c) || c == '_':
			start := i
			for i < len(src) && (unicode.IsLetter(rune(src[i])) || unicode.IsDigit(rune(src[i])) || src[i] == '_') {
				i++
			}
			toks = append(toks, token{kind: tokIdent, text: src[start:i], pos: start})
		case c == '*' && i+1 < len(src) && src[i+1] == '*':
			toks = append(toks, token{kind: tokOp, text: "^", pos: i})
			i += 2
		case strings.ContainsRune("+-*/^", c):
			toks = append(toks, token{kind: tokOp, text: string(c), pos: i})
			i++
		case c == '(':
			toks = append(toks, token{kind: tokLParen, text: "(", pos: i})
			i++
		case c == ')':
			toks = append(toks, token{kind: tokRParen, text: ")", pos: i})
			i++
		default:
			return nil, errors.InvalidInput(fmt.Sprintf("unexpected character %q at position %d", c, i))
		}
	}
	return append(toks, token{kind: tokEOF, pos: len(src)}), nil
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) isOp(op string) bool {
	t := p.peek()
	return t.kind == tokOp && t.text == op
}

// Parse reads an infix expression. Both ** and ^ denote powers, a number
// or parenthesis directly followed by an operand multiplies ("2x", "2(x+1)"),
// and pi and e are constants.
func Parse(src string) (Expr, error) {
	if strings.TrimSpace(src) == "" {
		return nil, errors.InvalidInput("empty expression")
	}
	toks, err := tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	e, err := p.sum()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, errors.InvalidInput(fmt.Sprintf("unexpected %q at position %d", t.text, t.pos))
	}
	return e, nil
}

// MustParse is Parse for expressions known to be valid
func MustParse(src string) Expr {
	e, err := Parse(src)
	if err != nil {
		panic(err)
	}
	return e
}

func (p *parser) sum() (Expr, error) {
	left, err := p.product()
	if err != nil {
		return nil, err
	}
	for p.isOp("+") || p.isOp("-") {
		op := p.next().text
		right, err := p.product()
		if err != nil {
			return nil, err
		}
		if op == "+" {
			left = AddOf(left, right)
		} else {
			left = SubOf(left, right)
		}
	}
	return left, nil
}

func (p *parser) startsOperand() bool {
	switch p.peek().kind {
	case tokNum, tokIdent, tokLParen:
		return true
	}
	return false
}

func (p *parser) product() (Expr, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.isOp("*"):
			p.next()
			right, err := p.unary()
			if err != nil {
				return nil, err
			}
			left = MulOf(left, right)
		case p.isOp("/"):
			p.next()
			right, err := p.unary()
			if err != nil {
				return nil, err
			}
			left = DivOf(left, right)
		case p.startsOperand():
			right, err := p.power()
			if err != nil {
				return nil, err
			}
			left = MulOf(left, right)
		default:
			return left, nil
		}
	}
}

func (p *parser) unary() (Expr, error) {
	switch {
	case p.isOp("-"):
		p.next()
		e, err := p.unary()
		if err != nil {
			return nil, err
		}
		return NegOf(e), nil
	case p.isOp("+"):
		p.next()
		return p.unary()
	}
	return p.power()
}

// power is right-associative and binds tighter than unary minus on its
// left, so -x**2 is -(x**2) and 2**-1 is 1/2
func (p *parser) power() (Expr, error) {
	base, err := p.primary()
	if err != nil {
		return nil, err
	}
	if p.isOp("^") {
		p.next()
		exp, err := p.unary()
		if err != nil {
			return nil, err
		}
		return PowOf(base, exp), nil
	}
	return base, nil
}

func (p *parser) primary() (Expr, error) {
	t := p.next()
	switch t.kind {
	case tokNum:
		v, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return nil, errors.InvalidInput(fmt.Sprintf("bad number %q at position %d", t.text, t.pos))
		}
		return N(v), nil

	case tokIdent:
		if IsFunction(t.text) && p.peek().kind == tokLParen {
			p.next()
			arg, err := p.sum()
			if err != nil {
				return nil, err
			}
			if err := p.expect(tokRParen); err != nil {
				return nil, err
			}
			return FuncOf(t.text, arg), nil
		}
		if c, ok := constants[t.text]; ok {
			return c, nil
		}
		return S(t.text), nil

	case tokLParen:
		e, err := p.sum()
		if err != nil {
			return nil, err
		}
		if err := p.expect(tokRParen); err != nil {
			return nil, err
		}
		return e, nil

	case tokEOF:
		return nil, errors.InvalidInput("unexpected end of expression")
	}
	return nil, errors.InvalidInput(fmt.Sprintf("unexpected %q at position %d", t.text, t.pos))
}

func (p *parser) expect(kind tokenKind) error {
	t := p.next()
	if t.kind != kind {
		if t.kind == tokEOF {
			return errors.InvalidInput("missing closing parenthesis")
		}
		return errors.InvalidInput(fmt.Sprintf("unexpected %q at position %d", t.text, t.pos))
	}
	return nil
}
