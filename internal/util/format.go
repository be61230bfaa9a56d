package util //nolint:revive // package name util hosts shared numeric helpers used across layers

import "math"

// Round1 rounds to one decimal place. Used for aggregate percentages and
// confidences at the presentation boundary.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// Round2 rounds to two decimal places. Used for per-item probabilities at the
// presentation boundary; intermediate math is never rounded to avoid
// compounding error across aggregation.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
