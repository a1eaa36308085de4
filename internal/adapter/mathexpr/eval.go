package mathexpr

import (
	"fmt"
	"math"
)

// Eval computes the numeric value of e with the given variable bindings.
// Unbound symbols, division by zero and domain errors all fail explicitly.
func Eval(e Expr, vars map[string]float64) (float64, error) {
	switch n := e.(type) {
	case Num:
		return n.Val, nil
	case Sym:
		v, ok := vars[n.Name]
		if !ok {
			return 0, fmt.Errorf("unbound variable %q", n.Name)
		}
		return v, nil
	case Neg:
		v, err := Eval(n.X, vars)
		if err != nil {
			return 0, err
		}
		return -v, nil
	case Bin:
		l, err := Eval(n.L, vars)
		if err != nil {
			return 0, err
		}
		r, err := Eval(n.R, vars)
		if err != nil {
			return 0, err
		}
		switch n.Op {
		case '+':
			return l + r, nil
		case '-':
			return l - r, nil
		case '*':
			return l * r, nil
		case '/':
			if r == 0 {
				return 0, fmt.Errorf("division by zero in %s", e)
			}
			return l / r, nil
		case '^':
			return math.Pow(l, r), nil
		}
		return 0, fmt.Errorf("unknown operator %q", n.Op)
	case Call:
		if len(n.Args) != 1 {
			return 0, fmt.Errorf("%s expects one argument", n.Fn)
		}
		f, ok := unaryFuncs[n.Fn]
		if !ok {
			return 0, fmt.Errorf("unknown function %q", n.Fn)
		}
		a, err := Eval(n.Args[0], vars)
		if err != nil {
			return 0, err
		}
		return f(a), nil
	}
	return 0, fmt.Errorf("cannot evaluate %s", e)
}

// Limit evaluates lim_{v -> at} e. Direct substitution is tried first; when
// it is undefined the limit is approached numerically from both sides and
// accepted only if the sides agree.
func Limit(e Expr, v string, at float64) (float64, error) {
	if val, err := Eval(e, map[string]float64{v: at}); err == nil && isFinite(val) {
		return roundNear(val), nil
	}

	steps := []float64{1e-3, 1e-5, 1e-7}
	var lo, hi float64
	var ok bool
	for i, h := range steps {
		l, errL := Eval(e, map[string]float64{v: at - h})
		r, errR := Eval(e, map[string]float64{v: at + h})
		if errL != nil || errR != nil || !isFinite(l) || !isFinite(r) {
			ok = false
			break
		}
		if i == len(steps)-1 {
			lo, hi, ok = l, r, true
		}
	}
	if !ok {
		return 0, fmt.Errorf("limit of %s as %s -> %s is undefined", e, v, fmtNum(at))
	}
	if math.Abs(lo-hi) > 1e-4*(1+math.Abs(lo)) {
		return 0, fmt.Errorf("limit of %s as %s -> %s does not exist (one-sided limits differ)", e, v, fmtNum(at))
	}
	return roundNear((lo + hi) / 2), nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// SolvePoly finds the real roots of e == 0 treated as a polynomial in v.
// Degrees above two are out of scope and reported as such.
func SolvePoly(e Expr, v string) ([]float64, error) {
	coeffs, err := polyCoeffs(Simplify(e), v)
	if err != nil {
		return nil, err
	}
	// Trim trailing zero coefficients.
	for len(coeffs) > 0 && coeffs[len(coeffs)-1] == 0 {
		coeffs = coeffs[:len(coeffs)-1]
	}
	switch len(coeffs) {
	case 0:
		return nil, fmt.Errorf("equation is identically zero; every %s is a solution", v)
	case 1:
		return nil, fmt.Errorf("equation %s = 0 has no solution", fmtNum(coeffs[0]))
	case 2:
		return []float64{roundNear(-coeffs[0] / coeffs[1])}, nil
	case 3:
		a, b, c := coeffs[2], coeffs[1], coeffs[0]
		disc := b*b - 4*a*c
		if disc < 0 {
			return nil, fmt.Errorf("no real solutions (discriminant %s < 0)", fmtNum(disc))
		}
		if disc == 0 {
			return []float64{roundNear(-b / (2 * a))}, nil
		}
		sq := math.Sqrt(disc)
		r1 := roundNear((-b - sq) / (2 * a))
		r2 := roundNear((-b + sq) / (2 * a))
		if r1 > r2 {
			r1, r2 = r2, r1
		}
		return []float64{r1, r2}, nil
	default:
		return nil, fmt.Errorf("can only solve linear and quadratic equations (degree %d given)", len(coeffs)-1)
	}
}

// polyCoeffs extracts polynomial coefficients (index = degree) of e in v.
func polyCoeffs(e Expr, v string) ([]float64, error) {
	switch n := e.(type) {
	case Num:
		return []float64{n.Val}, nil
	case Sym:
		if n.Name == v {
			return []float64{0, 1}, nil
		}
		return nil, fmt.Errorf("cannot solve: free symbol %q", n.Name)
	case Neg:
		c, err := polyCoeffs(n.X, v)
		if err != nil {
			return nil, err
		}
		for i := range c {
			c[i] = -c[i]
		}
		return c, nil
	case Bin:
		switch n.Op {
		case '+', '-':
			l, err := polyCoeffs(n.L, v)
			if err != nil {
				return nil, err
			}
			r, err := polyCoeffs(n.R, v)
			if err != nil {
				return nil, err
			}
			sign := 1.0
			if n.Op == '-' {
				sign = -1
			}
			out := make([]float64, max(len(l), len(r)))
			copy(out, l)
			for i, c := range r {
				out[i] += sign * c
			}
			return out, nil
		case '*':
			l, err := polyCoeffs(n.L, v)
			if err != nil {
				return nil, err
			}
			r, err := polyCoeffs(n.R, v)
			if err != nil {
				return nil, err
			}
			out := make([]float64, len(l)+len(r)-1)
			for i, a := range l {
				for j, b := range r {
					out[i+j] += a * b
				}
			}
			return out, nil
		case '/':
			r, err := polyCoeffs(n.R, v)
			if err != nil || len(r) != 1 || r[0] == 0 {
				return nil, fmt.Errorf("cannot solve: non-constant or zero divisor in %s", e)
			}
			l, err := polyCoeffs(n.L, v)
			if err != nil {
				return nil, err
			}
			for i := range l {
				l[i] /= r[0]
			}
			return l, nil
		case '^':
			c, isConst := n.R.(Num)
			if !isConst || c.Val != math.Trunc(c.Val) || c.Val < 0 {
				return nil, fmt.Errorf("cannot solve: non-integer power in %s", e)
			}
			base, err := polyCoeffs(n.L, v)
			if err != nil {
				return nil, err
			}
			out := []float64{1}
			for k := 0; k < int(c.Val); k++ {
				next := make([]float64, len(out)+len(base)-1)
				for i, a := range out {
					for j, b := range base {
						next[i+j] += a * b
					}
				}
				out = next
			}
			return out, nil
		}
		return nil, fmt.Errorf("cannot solve: operator %q", n.Op)
	case Call:
		return nil, fmt.Errorf("cannot solve: %s is not polynomial", e)
	}
	return nil, fmt.Errorf("cannot solve %s", e)
}
