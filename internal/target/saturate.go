package target

import "math"

// Default nominal/hard saturation thresholds, per spec.md Phase 2.5.1.
const (
	nominalDb = 12.0
	hardDb    = 18.0
)

// saturate applies the symmetric gain-saturation curve to g: linear
// (identity) below nominalDb, a smooth exponential knee between
// nominalDb and hardDb, and strictly bounded by hardDb beyond it. The
// curve is monotonic, C1-continuous and odd-symmetric.
func saturate(g float64) float64 {
	mag := math.Abs(g)

	if mag <= nominalDb {
		return g
	}

	knee := nominalDb + (hardDb-nominalDb)*(1-math.Exp(-(mag-nominalDb)/(hardDb-nominalDb)))

	return math.Copysign(knee, g)
}
