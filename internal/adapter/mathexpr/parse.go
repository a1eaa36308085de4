package mathexpr

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Parse turns an expression string into an AST. Both ^ and ** denote powers;
// function calls are parsed generically so the operation layer can recognize
// integrate/diff/limit/solve wrappers.
func Parse(input string) (Expr, error) {
	p := &parser{input: input, src: []rune(strings.TrimSpace(input))}
	e, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos < len(p.src) {
		return nil, p.errf("unexpected %q", string(p.src[p.pos]))
	}
	return e, nil
}

type parser struct {
	input string
	src   []rune
	pos   int
}

func (p *parser) errf(format string, args ...any) error {
	return &ParseError{Input: p.input, Pos: p.pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) && unicode.IsSpace(p.src[p.pos]) {
		p.pos++
	}
}

func (p *parser) peek() rune {
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

// parseExpr handles + and - (lowest precedence, left associative).
func (p *parser) parseExpr() (Expr, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for {
		p.skipSpace()
		c := p.peek()
		if c != '+' && c != '-' {
			return left, nil
		}
		p.pos++
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = Bin{Op: byte(c), L: left, R: right}
	}
}

// parseTerm handles * and /.
func (p *parser) parseTerm() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		p.skipSpace()
		c := p.peek()
		if c != '*' && c != '/' {
			return left, nil
		}
		// '**' is power, handled below unary.
		if c == '*' && p.pos+1 < len(p.src) && p.src[p.pos+1] == '*' {
			return left, nil
		}
		p.pos++
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = Bin{Op: byte(c), L: left, R: right}
	}
}

// parseUnary handles leading sign.
func (p *parser) parseUnary() (Expr, error) {
	p.skipSpace()
	switch p.peek() {
	case '-':
		p.pos++
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return Neg{X: x}, nil
	case '+':
		p.pos++
		return p.parseUnary()
	}
	return p.parsePower()
}

// parsePower handles ^ and ** (right associative, binds tighter than unary
// minus on the right: x**-2 parses).
func (p *parser) parsePower() (Expr, error) {
	base, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.peek() == '^' {
		p.pos++
	} else if p.peek() == '*' && p.pos+1 < len(p.src) && p.src[p.pos+1] == '*' {
		p.pos += 2
	} else {
		return base, nil
	}
	exp, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return Bin{Op: '^', L: base, R: exp}, nil
}

func (p *parser) parseAtom() (Expr, error) {
	p.skipSpace()
	c := p.peek()
	switch {
	case c == 0:
		return nil, p.errf("unexpected end of expression")
	case c == '(':
		p.pos++
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		p.skipSpace()
		if p.peek() != ')' {
			return nil, p.errf("missing closing parenthesis")
		}
		p.pos++
		return e, nil
	case unicode.IsDigit(c) || c == '.':
		return p.parseNumber()
	case unicode.IsLetter(c) || c == '_':
		return p.parseIdent()
	default:
		return nil, p.errf("unexpected %q", string(c))
	}
}

func (p *parser) parseNumber() (Expr, error) {
	start := p.pos
	for p.pos < len(p.src) && (unicode.IsDigit(p.src[p.pos]) || p.src[p.pos] == '.') {
		p.pos++
	}
	// Scientific notation.
	if p.pos < len(p.src) && (p.src[p.pos] == 'e' || p.src[p.pos] == 'E') {
		save := p.pos
		p.pos++
		if p.pos < len(p.src) && (p.src[p.pos] == '+' || p.src[p.pos] == '-') {
			p.pos++
		}
		if p.pos < len(p.src) && unicode.IsDigit(p.src[p.pos]) {
			for p.pos < len(p.src) && unicode.IsDigit(p.src[p.pos]) {
				p.pos++
			}
		} else {
			p.pos = save
		}
	}
	text := string(p.src[start:p.pos])
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, p.errf("bad number %q", text)
	}
	return Num{Val: v}, nil
}

func (p *parser) parseIdent() (Expr, error) {
	start := p.pos
	for p.pos < len(p.src) && (unicode.IsLetter(p.src[p.pos]) || unicode.IsDigit(p.src[p.pos]) || p.src[p.pos] == '_') {
		p.pos++
	}
	name := string(p.src[start:p.pos])
	p.skipSpace()
	if p.peek() != '(' {
		if v, ok := constants[name]; ok {
			return Num{Val: v}, nil
		}
		return Sym{Name: name}, nil
	}
	// Function call.
	p.pos++
	var args []Expr
	p.skipSpace()
	if p.peek() == ')' {
		p.pos++
		return Call{Fn: name, Args: args}, nil
	}
	for {
		arg, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
		case ')':
			p.pos++
			return Call{Fn: name, Args: args}, nil
		default:
			return nil, p.errf("expected ',' or ')' in call to %s", name)
		}
	}
}

var constants = map[string]float64{
	"pi": 3.141592653589793,
	"e":  2.718281828459045,
}
