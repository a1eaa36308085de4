package mathexpr

import "math"

// Simplify applies constant folding and the basic algebraic identities until
// the expression stops changing. It is not a full canonicalizer; its job is
// to clean up rewrite-rule output (x*1, x+0, double negation and friends).
func Simplify(e Expr) Expr {
	for i := 0; i < 16; i++ {
		next := simplifyOnce(e)
		if next.String() == e.String() {
			return next
		}
		e = next
	}
	return e
}

func simplifyOnce(e Expr) Expr {
	switch v := e.(type) {
	case Num, Sym:
		return e
	case Neg:
		x := simplifyOnce(v.X)
		if n, ok := x.(Num); ok {
			return Num{Val: -n.Val}
		}
		if inner, ok := x.(Neg); ok {
			return inner.X
		}
		return Neg{X: x}
	case Call:
		args := make([]Expr, len(v.Args))
		allNum := true
		for i, a := range v.Args {
			args[i] = simplifyOnce(a)
			if _, ok := args[i].(Num); !ok {
				allNum = false
			}
		}
		if allNum && len(args) == 1 {
			if f, ok := unaryFuncs[v.Fn]; ok {
				val := f(args[0].(Num).Val)
				if !math.IsNaN(val) && !math.IsInf(val, 0) {
					return Num{Val: roundNear(val)}
				}
			}
		}
		return Call{Fn: v.Fn, Args: args}
	case Bin:
		l := simplifyOnce(v.L)
		r := simplifyOnce(v.R)
		ln, lNum := l.(Num)
		rn, rNum := r.(Num)

		if lNum && rNum {
			if val, ok := foldConst(v.Op, ln.Val, rn.Val); ok {
				return Num{Val: val}
			}
		}

		switch v.Op {
		case '+':
			if isNum(l, 0) {
				return r
			}
			if isNum(r, 0) {
				return l
			}
			if n, ok := r.(Neg); ok {
				return Bin{Op: '-', L: l, R: n.X}
			}
		case '-':
			if isNum(r, 0) {
				return l
			}
			if isNum(l, 0) {
				return Neg{X: r}
			}
			if l.String() == r.String() {
				return Num{Val: 0}
			}
		case '*':
			if isNum(l, 0) || isNum(r, 0) {
				return Num{Val: 0}
			}
			if isNum(l, 1) {
				return r
			}
			if isNum(r, 1) {
				return l
			}
			if isNum(l, -1) {
				return Neg{X: r}
			}
			if isNum(r, -1) {
				return Neg{X: l}
			}
			if n, ok := l.(Neg); ok {
				return Neg{X: Bin{Op: '*', L: n.X, R: r}}
			}
			if n, ok := r.(Neg); ok {
				return Neg{X: Bin{Op: '*', L: l, R: n.X}}
			}
			// c1 * (f/c2) -> (c1/c2) * f, so 2*(x**2/2) collapses to x**2.
			if lNum {
				if rb, ok := r.(Bin); ok && rb.Op == '/' {
					if d, ok := rb.R.(Num); ok && d.Val != 0 {
						return Bin{Op: '*', L: Num{Val: ln.Val / d.Val}, R: rb.L}
					}
				}
			}
			if rNum {
				if lb, ok := l.(Bin); ok && lb.Op == '/' {
					if d, ok := lb.R.(Num); ok && d.Val != 0 {
						return Bin{Op: '*', L: Num{Val: rn.Val / d.Val}, R: lb.L}
					}
				}
			}
		case '/':
			if isNum(r, 1) {
				return l
			}
			if isNum(l, 0) && !isNum(r, 0) {
				return Num{Val: 0}
			}
			if l.String() == r.String() && !isNum(r, 0) {
				return Num{Val: 1}
			}
		case '^':
			if isNum(r, 0) {
				return Num{Val: 1}
			}
			if isNum(r, 1) {
				return l
			}
			if isNum(l, 1) {
				return Num{Val: 1}
			}
		}
		return Bin{Op: v.Op, L: l, R: r}
	}
	return e
}

// foldConst evaluates a constant binary node. Division by zero and fractional
// powers of negatives are left unfolded so they surface as evaluation errors
// with context instead of NaN literals.
func foldConst(op byte, a, b float64) (float64, bool) {
	switch op {
	case '+':
		return a + b, true
	case '-':
		return a - b, true
	case '*':
		return a * b, true
	case '/':
		if b == 0 {
			return 0, false
		}
		return a / b, true
	case '^':
		v := math.Pow(a, b)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return v, true
	}
	return 0, false
}

// roundNear snaps values like sin(pi) ≈ 1.2e-16 to zero.
func roundNear(v float64) float64 {
	r := math.Round(v)
	if math.Abs(v-r) < 1e-12 {
		return r
	}
	return v
}

var unaryFuncs = map[string]func(float64) float64{
	"sin":  math.Sin,
	"cos":  math.Cos,
	"tan":  math.Tan,
	"asin": math.Asin,
	"acos": math.Acos,
	"atan": math.Atan,
	"exp":  math.Exp,
	"log":  math.Log,
	"ln":   math.Log,
	"sqrt": math.Sqrt,
	"abs":  math.Abs,
}
