package mathexpr

import (
	"context"
	"fmt"
	"strings"
)

// Operation is the math operation requested by the user.
type Operation int

const (
	OpSimplify Operation = iota
	OpDifferentiate
	OpIntegrate
	OpLimit
	OpSolve
)

func (o Operation) String() string {
	switch o {
	case OpDifferentiate:
		return "derivative"
	case OpIntegrate:
		return "antiderivative"
	case OpLimit:
		return "limit"
	case OpSolve:
		return "solutions"
	default:
		return "simplified"
	}
}

// DetectOperation picks the operation from fixed keyword substrings in the
// raw input; anything without a keyword is simplified.
func DetectOperation(raw string) Operation {
	low := strings.ToLower(raw)
	switch {
	case strings.Contains(low, "integrate"):
		return OpIntegrate
	case strings.Contains(low, "diff") || strings.Contains(low, "derivative"):
		return OpDifferentiate
	case strings.Contains(low, "limit"):
		return OpLimit
	case strings.Contains(low, "solve"):
		return OpSolve
	default:
		return OpSimplify
	}
}

// Result is one solved math request.
type Result struct {
	Operation Operation
	Input     string
	Rendered  string
}

// Solver is the symbolic-math adapter handed to the dispatch shell.
type Solver struct{}

// NewSolver returns the in-process math adapter.
func NewSolver() *Solver { return &Solver{} }

// Solve parses the raw input, picks the operation by keyword, runs it, and
// renders the result as math text. All failures come back as errors with a
// human-readable reason; nothing panics on malformed input.
func (s *Solver) Solve(ctx context.Context, raw string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("empty expression")
	}

	op := DetectOperation(raw)

	// Equations route to solve regardless of keywords.
	if l, r, found := strings.Cut(raw, "="); found && op == OpSimplify {
		return s.solveEquation(l, r)
	}

	expr, err := Parse(raw)
	if err != nil {
		return nil, err
	}

	switch op {
	case OpSimplify:
		return &Result{Operation: op, Input: raw, Rendered: Simplify(expr).String()}, nil
	case OpDifferentiate:
		f, v, err := opArgs(expr, "diff", "derivative")
		if err != nil {
			return nil, err
		}
		d, err := Derivative(f, v)
		if err != nil {
			return nil, err
		}
		return &Result{Operation: op, Input: raw, Rendered: d.String()}, nil
	case OpIntegrate:
		f, v, err := opArgs(expr, "integrate")
		if err != nil {
			return nil, err
		}
		in, err := Integrate(f, v)
		if err != nil {
			return nil, err
		}
		return &Result{Operation: op, Input: raw, Rendered: in.String()}, nil
	case OpLimit:
		call, ok := expr.(Call)
		if !ok || !strings.EqualFold(call.Fn, "limit") || len(call.Args) != 3 {
			return nil, fmt.Errorf("limit expects the form limit(expr, var, point)")
		}
		v, ok := call.Args[1].(Sym)
		if !ok {
			return nil, fmt.Errorf("limit expects a variable as its second argument")
		}
		at, err := Eval(call.Args[2], nil)
		if err != nil {
			return nil, fmt.Errorf("limit point must be constant: %w", err)
		}
		val, err := Limit(call.Args[0], v.Name, at)
		if err != nil {
			return nil, err
		}
		return &Result{Operation: op, Input: raw, Rendered: fmtNum(val)}, nil
	case OpSolve:
		f, v, err := opArgs(expr, "solve")
		if err != nil {
			return nil, err
		}
		return s.renderRoots(raw, f, v)
	}
	return nil, fmt.Errorf("unsupported operation")
}

func (s *Solver) solveEquation(lhs, rhs string) (*Result, error) {
	l, err := Parse(lhs)
	if err != nil {
		return nil, err
	}
	r, err := Parse(rhs)
	if err != nil {
		return nil, err
	}
	f := sub(l, r)
	v := freeVar(f)
	return s.renderRoots(lhs+" = "+rhs, f, v)
}

func (s *Solver) renderRoots(raw string, f Expr, v string) (*Result, error) {
	roots, err := SolvePoly(f, v)
	if err != nil {
		return nil, err
	}
	parts := make([]string, len(roots))
	for i, r := range roots {
		parts[i] = fmt.Sprintf("%s = %s", v, fmtNum(r))
	}
	return &Result{Operation: OpSolve, Input: raw, Rendered: strings.Join(parts, ", ")}, nil
}

// opArgs unwraps op(f, v) calls, defaulting the variable to the expression's
// single free symbol. A keyword with no matching call form is an input error.
func opArgs(expr Expr, names ...string) (Expr, string, error) {
	call, ok := expr.(Call)
	if ok {
		for _, n := range names {
			if strings.EqualFold(call.Fn, n) {
				switch len(call.Args) {
				case 1:
					return call.Args[0], freeVar(call.Args[0]), nil
				case 2:
					v, ok := call.Args[1].(Sym)
					if !ok {
						return nil, "", fmt.Errorf("%s expects a variable as its second argument", n)
					}
					return call.Args[0], v.Name, nil
				default:
					return nil, "", fmt.Errorf("%s expects one or two arguments", n)
				}
			}
		}
	}
	return nil, "", fmt.Errorf("write the request as %s(expr, var)", names[0])
}

// freeVar returns the expression's free symbol, defaulting to x when there
// are none or several.
func freeVar(e Expr) string {
	seen := map[string]struct{}{}
	collectSyms(e, seen)
	if len(seen) == 1 {
		for name := range seen {
			return name
		}
	}
	return "x"
}

func collectSyms(e Expr, out map[string]struct{}) {
	switch n := e.(type) {
	case Sym:
		out[n.Name] = struct{}{}
	case Neg:
		collectSyms(n.X, out)
	case Bin:
		collectSyms(n.L, out)
		collectSyms(n.R, out)
	case Call:
		for _, a := range n.Args {
			collectSyms(a, out)
		}
	}
}
