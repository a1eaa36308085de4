// Package mathexpr is the symbolic-math adapter: a compact expression engine
// covering the operations ERIK needs (simplify, differentiate, integrate,
// limit, solve). It is deliberately small; anything outside its rule set
// fails with a descriptive error instead of guessing.
package mathexpr

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Expr is a parsed expression node.
type Expr interface {
	isExpr()
	String() string
}

// Num is a numeric literal.
type Num struct{ Val float64 }

// Sym is a variable reference.
type Sym struct{ Name string }

// Neg is unary negation.
type Neg struct{ X Expr }

// Bin is a binary operation; Op is one of + - * / ^.
type Bin struct {
	Op   byte
	L, R Expr
}

// Call is a function application, e.g. sin(x).
type Call struct {
	Fn   string
	Args []Expr
}

func (Num) isExpr()  {}
func (Sym) isExpr()  {}
func (Neg) isExpr()  {}
func (Bin) isExpr()  {}
func (Call) isExpr() {}

// precedence for printing; higher binds tighter.
func prec(e Expr) int {
	switch v := e.(type) {
	case Bin:
		switch v.Op {
		case '+', '-':
			return 1
		case '*', '/':
			return 2
		case '^':
			return 3
		}
	case Neg:
		return 1
	}
	return 4
}

func (n Num) String() string { return fmtNum(n.Val) }

func (s Sym) String() string { return s.Name }

func (n Neg) String() string {
	if prec(n.X) <= 1 {
		return "-(" + n.X.String() + ")"
	}
	return "-" + n.X.String()
}

func (b Bin) String() string {
	op := string(b.Op)
	if b.Op == '^' {
		op = "**"
	}
	l := b.L.String()
	r := b.R.String()
	if prec(b.L) < prec(b) {
		l = "(" + l + ")"
	}
	// Right operand needs parens at equal precedence for - / ^.
	rp := prec(b.R)
	if rp < prec(b) || (rp == prec(b) && (b.Op == '-' || b.Op == '/' || b.Op == '^')) {
		r = "(" + r + ")"
	}
	if b.Op == '+' || b.Op == '-' {
		return l + " " + op + " " + r
	}
	return l + op + r
}

func (c Call) String() string {
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = a.String()
	}
	return c.Fn + "(" + strings.Join(args, ", ") + ")"
}

// fmtNum prints integers without a decimal point and everything else with
// minimal digits.
func fmtNum(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'g', 10, 64)
}

// num and sym are construction shorthands used by the rewrite rules.
func num(v float64) Expr           { return Num{Val: v} }
func sym(name string) Expr         { return Sym{Name: name} }
func add(l, r Expr) Expr           { return Bin{Op: '+', L: l, R: r} }
func sub(l, r Expr) Expr           { return Bin{Op: '-', L: l, R: r} }
func mul(l, r Expr) Expr           { return Bin{Op: '*', L: l, R: r} }
func div(l, r Expr) Expr           { return Bin{Op: '/', L: l, R: r} }
func pow(l, r Expr) Expr           { return Bin{Op: '^', L: l, R: r} }
func call1(fn string, a Expr) Expr { return Call{Fn: fn, Args: []Expr{a}} }

// isNum reports whether e is the literal v.
func isNum(e Expr, v float64) bool {
	n, ok := e.(Num)
	return ok && n.Val == v
}

// ParseError marks an unparseable expression.
type ParseError struct {
	Input string
	Pos   int
	Msg   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse %q at position %d: %s", e.Input, e.Pos, e.Msg)
}
