package mathexpr

import (
	"fmt"
)

// Derivative differentiates e with respect to v and simplifies the result.
func Derivative(e Expr, v string) (Expr, error) {
	d, err := derive(e, v)
	if err != nil {
		return nil, err
	}
	return Simplify(d), nil
}

func derive(e Expr, v string) (Expr, error) {
	switch n := e.(type) {
	case Num:
		return num(0), nil
	case Sym:
		if n.Name == v {
			return num(1), nil
		}
		return num(0), nil
	case Neg:
		d, err := derive(n.X, v)
		if err != nil {
			return nil, err
		}
		return Neg{X: d}, nil
	case Bin:
		dl, err := derive(n.L, v)
		if err != nil {
			return nil, err
		}
		dr, err := derive(n.R, v)
		if err != nil {
			return nil, err
		}
		switch n.Op {
		case '+':
			return add(dl, dr), nil
		case '-':
			return sub(dl, dr), nil
		case '*':
			// Product rule.
			return add(mul(dl, n.R), mul(n.L, dr)), nil
		case '/':
			// Quotient rule.
			numr := sub(mul(dl, n.R), mul(n.L, dr))
			return div(numr, pow(n.R, num(2))), nil
		case '^':
			// Only constant exponents: d/dx u^c = c*u^(c-1)*u'.
			c, ok := n.R.(Num)
			if !ok {
				return nil, fmt.Errorf("cannot differentiate %s: non-constant exponent", e)
			}
			du, err := derive(n.L, v)
			if err != nil {
				return nil, err
			}
			return mul(mul(num(c.Val), pow(n.L, num(c.Val-1))), du), nil
		}
		return nil, fmt.Errorf("cannot differentiate operator %q", n.Op)
	case Call:
		if len(n.Args) != 1 {
			return nil, fmt.Errorf("cannot differentiate %s: expected one argument", e)
		}
		u := n.Args[0]
		du, err := derive(u, v)
		if err != nil {
			return nil, err
		}
		var outer Expr
		switch n.Fn {
		case "sin":
			outer = call1("cos", u)
		case "cos":
			outer = Neg{X: call1("sin", u)}
		case "tan":
			outer = div(num(1), pow(call1("cos", u), num(2)))
		case "exp":
			outer = call1("exp", u)
		case "log", "ln":
			outer = div(num(1), u)
		case "sqrt":
			outer = div(num(1), mul(num(2), call1("sqrt", u)))
		default:
			return nil, fmt.Errorf("no derivative rule for %s", n.Fn)
		}
		return mul(outer, du), nil
	}
	return nil, fmt.Errorf("cannot differentiate %s", e)
}

// Integrate returns an antiderivative of e with respect to v, simplified.
// The constant of integration is omitted. The rule table covers sums,
// constant multiples, powers of v, and the elementary functions of v; it
// reports a clear error for anything outside that.
func Integrate(e Expr, v string) (Expr, error) {
	in, err := integrate(Simplify(e), v)
	if err != nil {
		return nil, err
	}
	return Simplify(in), nil
}

func integrate(e Expr, v string) (Expr, error) {
	if !dependsOn(e, v) {
		// Constant: c -> c*x.
		return mul(e, sym(v)), nil
	}
	switch n := e.(type) {
	case Sym:
		// x -> x^2/2
		return div(pow(sym(v), num(2)), num(2)), nil
	case Neg:
		in, err := integrate(n.X, v)
		if err != nil {
			return nil, err
		}
		return Neg{X: in}, nil
	case Bin:
		switch n.Op {
		case '+', '-':
			il, err := integrate(n.L, v)
			if err != nil {
				return nil, err
			}
			ir, err := integrate(n.R, v)
			if err != nil {
				return nil, err
			}
			return Bin{Op: n.Op, L: il, R: ir}, nil
		case '*':
			// Constant multiple on either side.
			if !dependsOn(n.L, v) {
				ir, err := integrate(n.R, v)
				if err != nil {
					return nil, err
				}
				return mul(n.L, ir), nil
			}
			if !dependsOn(n.R, v) {
				il, err := integrate(n.L, v)
				if err != nil {
					return nil, err
				}
				return mul(il, n.R), nil
			}
		case '/':
			// 1/x -> log(x); c/x likewise. f/c is a constant multiple.
			if !dependsOn(n.R, v) {
				il, err := integrate(n.L, v)
				if err != nil {
					return nil, err
				}
				return div(il, n.R), nil
			}
			if !dependsOn(n.L, v) {
				if s, ok := n.R.(Sym); ok && s.Name == v {
					return mul(n.L, call1("log", sym(v))), nil
				}
			}
		case '^':
			// x^n -> x^(n+1)/(n+1), n != -1.
			s, isVar := n.L.(Sym)
			c, isConst := n.R.(Num)
			if isVar && s.Name == v && isConst {
				if c.Val == -1 {
					return call1("log", sym(v)), nil
				}
				return div(pow(sym(v), num(c.Val+1)), num(c.Val+1)), nil
			}
		}
	case Call:
		if len(n.Args) == 1 {
			if s, ok := n.Args[0].(Sym); ok && s.Name == v {
				switch n.Fn {
				case "sin":
					return Neg{X: call1("cos", sym(v))}, nil
				case "cos":
					return call1("sin", sym(v)), nil
				case "exp":
					return call1("exp", sym(v)), nil
				case "sqrt":
					return div(mul(num(2), pow(sym(v), div(num(3), num(2)))), num(3)), nil
				}
			}
		}
	}
	return nil, fmt.Errorf("no integration rule for %s", e)
}

// dependsOn reports whether e mentions the variable v.
func dependsOn(e Expr, v string) bool {
	switch n := e.(type) {
	case Num:
		return false
	case Sym:
		return n.Name == v
	case Neg:
		return dependsOn(n.X, v)
	case Bin:
		return dependsOn(n.L, v) || dependsOn(n.R, v)
	case Call:
		for _, a := range n.Args {
			if dependsOn(a, v) {
				return true
			}
		}
		return false
	}
	return false
}
