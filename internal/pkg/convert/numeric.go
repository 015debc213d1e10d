// Package convert provides numeric sanitizing helpers shared by the
// analysis packages. Every value read from a snapshot or an external
// analysis passes through Finite before it participates in a decision.
package convert

import "math"

// Finite returns v unless it is NaN or infinite, in which case fallback
// is returned.
func Finite(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}

// IsFinite reports whether v is a usable number.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Clamp bounds v into [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// SafeDiv divides a by b with an epsilon floor on the denominator so a
// degenerate input can never produce Inf.
func SafeDiv(a, b float64) float64 {
	const eps = 1e-9
	if math.Abs(b) < eps {
		if b < 0 {
			b = -eps
		} else {
			b = eps
		}
	}
	return a / b
}

