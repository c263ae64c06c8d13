package interp

import (
	"fmt"
	"sort"
)

// MaxLagrangeWindow bounds the sample window for Lagrange interpolation.
// SPK producers rarely exceed degree 15 (window 16).
const MaxLagrangeWindow = 32

// Lagrange interpolates the samples (xs, ys) at x, returning the value and
// the derivative dy/dx. The window must be small (see MaxLagrangeWindow) and
// xs strictly increasing; both are the caller's responsibility — this is the
// inner loop of the type 9/13 evaluators.
//
// Value and derivative come from the barycentric-free classic form: the
// derivative term differentiates each Lagrange basis polynomial directly,
// which is stable for the short windows kernels use.
func Lagrange(xs, ys []float64, x float64) (val, deriv float64, err error) {
	n := len(xs)
	if n == 0 || n != len(ys) {
		return 0, 0, fmt.Errorf("lagrange: mismatched sample arrays (%d, %d)", len(xs), len(ys))
	}
	if n > MaxLagrangeWindow {
		return 0, 0, fmt.Errorf("lagrange: window %d exceeds bound %d", n, MaxLagrangeWindow)
	}

	for i := 0; i < n; i++ {
		// Basis value L_i(x) and derivative L'_i(x).
		li := 1.0
		var dli float64
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			dx := xs[i] - xs[j]
			if dx == 0 {
				return 0, 0, fmt.Errorf("lagrange: duplicate abscissa %v", xs[i])
			}
			// L'_i accumulates the product rule: for each factor k, the
			// product of the remaining factors.
			term := 1.0
			for k := 0; k < n; k++ {
				if k == i || k == j {
					continue
				}
				term *= (x - xs[k]) / (xs[i] - xs[k])
			}
			dli += term / dx
			li *= (x - xs[j]) / dx
		}
		val += ys[i] * li
		deriv += ys[i] * dli
	}
	return val, deriv, nil
}

// WindowEqual selects a centered window of size winSize over n uniformly
// spaced records with spacing step starting at t0, clamped to the record
// range. Returns the first index of the window.
func WindowEqual(t0, step float64, n, winSize int, t float64) (first int) {
	if winSize > n {
		winSize = n
	}
	// Index of the nearest record at or before t.
	idx := int((t - t0) / step)
	first = idx - (winSize-1)/2
	if first < 0 {
		first = 0
	}
	if first+winSize > n {
		first = n - winSize
	}
	return first
}

// WindowUnequal selects a centered window of size winSize over the sorted
// epochs, clamped to the ends. Binary search locates the insertion point.
func WindowUnequal(epochs []float64, winSize int, t float64) (first int) {
	n := len(epochs)
	if winSize > n {
		winSize = n
	}
	idx := sort.SearchFloat64s(epochs, t)
	first = idx - winSize/2
	if first < 0 {
		first = 0
	}
	if first+winSize > n {
		first = n - winSize
	}
	return first
}
