package mathexpr

import (
	"context"
	"math"
	"testing"
)

func solveOK(t *testing.T, input string) *Result {
	t.Helper()
	res, err := NewSolver().Solve(context.Background(), input)
	if err != nil {
		t.Fatalf("Solve(%q): %v", input, err)
	}
	return res
}

func TestSimplify_ConstantFixedPoint(t *testing.T) {
	// simplify(5) must return 5 unchanged.
	res := solveOK(t, "5")
	if res.Rendered != "5" {
		t.Fatalf("simplify(5) = %q, want \"5\"", res.Rendered)
	}
	if res.Operation != OpSimplify {
		t.Fatalf("operation = %v, want simplify", res.Operation)
	}
}

func TestSimplify_Arithmetic(t *testing.T) {
	tests := []struct{ in, want string }{
		{"2+3*4", "14"},
		{"x + 0", "x"},
		{"1*x", "x"},
		{"x - x", "0"},
		{"x**1", "x"},
		{"x**0", "1"},
		{"2**3", "8"},
		{"(x + x) / 2", "(x + x)/2"},
	}
	for _, tt := range tests {
		if got := solveOK(t, tt.in).Rendered; got != tt.want {
			t.Errorf("simplify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIntegrate_SinX(t *testing.T) {
	res := solveOK(t, "integrate(sin(x), x)")
	if res.Operation != OpIntegrate {
		t.Fatalf("operation = %v, want integrate", res.Operation)
	}
	if res.Rendered != "-cos(x)" {
		t.Fatalf("integrate(sin(x), x) = %q, want \"-cos(x)\"", res.Rendered)
	}
}

func TestIntegrate_Rules(t *testing.T) {
	tests := []struct{ in, want string }{
		{"integrate(x**2, x)", "x**3/3"},
		{"integrate(cos(x), x)", "sin(x)"},
		{"integrate(exp(x), x)", "exp(x)"},
		{"integrate(3, x)", "3*x"},
		{"integrate(2*x, x)", "x**2"},
		{"integrate(1/x, x)", "log(x)"},
	}
	for _, tt := range tests {
		if got := solveOK(t, tt.in).Rendered; got != tt.want {
			t.Errorf("%q = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIntegrate_NoRule(t *testing.T) {
	_, err := NewSolver().Solve(context.Background(), "integrate(sin(x)*cos(x), x)")
	if err == nil {
		t.Fatal("expected an error for a product with no rule")
	}
}

func TestDerivative(t *testing.T) {
	tests := []struct{ in, want string }{
		{"diff(x**2, x)", "2*x"},
		{"diff(sin(x), x)", "cos(x)"},
		{"diff(cos(x), x)", "-sin(x)"},
		{"diff(exp(x), x)", "exp(x)"},
		{"diff(log(x), x)", "1/x"},
		{"derivative(x**3, x)", "3*x**2"},
	}
	for _, tt := range tests {
		if got := solveOK(t, tt.in).Rendered; got != tt.want {
			t.Errorf("%q = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLimit(t *testing.T) {
	res := solveOK(t, "limit(sin(x)/x, x, 0)")
	if res.Rendered != "1" {
		t.Fatalf("limit(sin(x)/x, x, 0) = %q, want \"1\"", res.Rendered)
	}

	res = solveOK(t, "limit(x**2, x, 3)")
	if res.Rendered != "9" {
		t.Fatalf("limit(x**2, x, 3) = %q, want \"9\"", res.Rendered)
	}
}

func TestLimit_Undefined(t *testing.T) {
	// 1/x at 0 diverges with different signs on each side.
	_, err := NewSolver().Solve(context.Background(), "limit(1/x, x, 0)")
	if err == nil {
		t.Fatal("expected divide-by-zero limit to fail, not crash or hang")
	}
}

func TestSolve(t *testing.T) {
	tests := []struct{ in, want string }{
		{"solve(x**2 - 4, x)", "x = -2, x = 2"},
		{"solve(2*x - 6, x)", "x = 3"},
		{"x + 2 = 5", "x = 3"},
	}
	for _, tt := range tests {
		if got := solveOK(t, tt.in).Rendered; got != tt.want {
			t.Errorf("%q = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSolve_NoRealRoots(t *testing.T) {
	_, err := NewSolver().Solve(context.Background(), "solve(x**2 + 1, x)")
	if err == nil {
		t.Fatal("expected no-real-solutions error")
	}
}

func TestParseErrors(t *testing.T) {
	for _, in := range []string{"", "2 +", "sin(x", "1 $ 2", "x..2"} {
		if _, err := NewSolver().Solve(context.Background(), in); err == nil {
			t.Errorf("Solve(%q) succeeded, expected parse error", in)
		}
	}
}

func TestDetectOperation(t *testing.T) {
	tests := []struct {
		in   string
		want Operation
	}{
		{"integrate(x, x)", OpIntegrate},
		{"diff(x, x)", OpDifferentiate},
		{"derivative of things", OpDifferentiate},
		{"limit(x, x, 0)", OpLimit},
		{"solve(x-1, x)", OpSolve},
		{"x**2 + 1", OpSimplify},
	}
	for _, tt := range tests {
		if got := DetectOperation(tt.in); got != tt.want {
			t.Errorf("DetectOperation(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestEval(t *testing.T) {
	e, err := Parse("x**2 + 1")
	if err != nil {
		t.Fatal(err)
	}
	v, err := Eval(e, map[string]float64{"x": 3})
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(v-10) > 1e-12 {
		t.Fatalf("Eval = %v, want 10", v)
	}

	if _, err := Eval(e, nil); err == nil {
		t.Fatal("expected unbound-variable error")
	}
}
