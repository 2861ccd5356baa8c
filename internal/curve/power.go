package curve

import "math"

// pow is the single place the engine evaluates the bonding-curve exponential.
// It operates in double precision like the reference formula; every caller
// returns to integer arithmetic through truncation toward zero. Keeping the
// call isolated here centralizes the numeric edge cases (weight exactly 1,
// very small deposits, near-zero supply) behind one pure function.
func pow(base, exp float64) float64 {
	return math.Pow(base, exp)
}
