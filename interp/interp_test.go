package interp

import (
	"math"
	"testing"
)

func TestChebyshevKnownPolynomials(t *testing.T) {
	var w Workspace

	// T_2(s) = 2s^2 - 1: coefficients select the pure polynomial.
	coeffs := []float64{0, 0, 1}
	for _, s := range []float64{-1, -0.5, 0, 0.3, 1} {
		val, deriv, err := w.Chebyshev(coeffs, s)
		if err != nil {
			t.Fatalf("chebyshev: %v", err)
		}
		if want := 2*s*s - 1; math.Abs(val-want) > 1e-14 {
			t.Errorf("T_2(%v) = %v, want %v", s, val, want)
		}
		if want := 4 * s; math.Abs(deriv-want) > 1e-14 {
			t.Errorf("T_2'(%v) = %v, want %v", s, deriv, want)
		}
	}
}

func TestChebyshevSeriesMatchesHorner(t *testing.T) {
	var w Workspace
	// f(s) = 1 + 2*T_1 + 0.5*T_3. T_3 = 4s^3 - 3s.
	coeffs := []float64{1, 2, 0, 0.5}
	for s := -1.0; s <= 1.0; s += 0.125 {
		val, deriv, err := w.Chebyshev(coeffs, s)
		if err != nil {
			t.Fatalf("chebyshev: %v", err)
		}
		want := 1 + 2*s + 0.5*(4*s*s*s-3*s)
		wantD := 2 + 0.5*(12*s*s-3)
		if math.Abs(val-want) > 1e-13 {
			t.Errorf("f(%v) = %v, want %v", s, val, want)
		}
		if math.Abs(deriv-wantD) > 1e-13 {
			t.Errorf("f'(%v) = %v, want %v", s, deriv, wantD)
		}
	}
}

func TestChebyshevBounds(t *testing.T) {
	var w Workspace
	if _, _, err := w.Chebyshev(nil, 0); err == nil {
		t.Error("expected error for empty coefficients")
	}
	if _, _, err := w.Chebyshev(make([]float64, MaxChebyshevOrder+1), 0); err == nil {
		t.Error("expected error for oversized coefficient set")
	}
	if _, _, err := w.Chebyshev([]float64{1}, 1.5); err == nil {
		t.Error("expected error for s outside [-1,1]")
	}
}

func TestLagrangeReproducesPolynomial(t *testing.T) {
	// Samples of f(x) = x^3 - 2x + 1 at 5 points determine it exactly.
	f := func(x float64) float64 { return x*x*x - 2*x + 1 }
	df := func(x float64) float64 { return 3*x*x - 2 }
	xs := []float64{-2, -1, 0.5, 1, 3}
	ys := make([]float64, len(xs))
	for i, x := range xs {
		ys[i] = f(x)
	}

	for _, x := range []float64{-1.5, 0, 0.25, 2, 2.9} {
		val, deriv, err := Lagrange(xs, ys, x)
		if err != nil {
			t.Fatalf("lagrange: %v", err)
		}
		if math.Abs(val-f(x)) > 1e-11 {
			t.Errorf("f(%v) = %v, want %v", x, val, f(x))
		}
		if math.Abs(deriv-df(x)) > 1e-10 {
			t.Errorf("f'(%v) = %v, want %v", x, deriv, df(x))
		}
	}
}

func TestLagrangeDuplicateAbscissa(t *testing.T) {
	if _, _, err := Lagrange([]float64{1, 1}, []float64{2, 3}, 1); err == nil {
		t.Error("expected duplicate abscissa error")
	}
}

func TestWindowEqualClamping(t *testing.T) {
	// 10 records at t0=0, step=10. Window of 4.
	cases := []struct {
		t     float64
		first int
	}{
		{0, 0},    // left edge clamps
		{5, 0},    // still near the left edge
		{45, 3},   // interior, centered
		{95, 6},   // right edge clamps
		{99.9, 6}, // right edge clamps
	}
	for _, c := range cases {
		if got := WindowEqual(0, 10, 10, 4, c.t); got != c.first {
			t.Errorf("WindowEqual(t=%v) = %d, want %d", c.t, got, c.first)
		}
	}
}

func TestWindowUnequalCentering(t *testing.T) {
	epochs := []float64{0, 1, 4, 9, 16, 25, 36}
	if got := WindowUnequal(epochs, 4, 10); got < 1 || got > 3 {
		t.Errorf("WindowUnequal interior = %d, want near-centered", got)
	}
	if got := WindowUnequal(epochs, 4, -5); got != 0 {
		t.Errorf("WindowUnequal left clamp = %d, want 0", got)
	}
	if got := WindowUnequal(epochs, 4, 100); got != 3 {
		t.Errorf("WindowUnequal right clamp = %d, want 3", got)
	}
}
