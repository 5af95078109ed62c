// Package clip implements the Soft Clipper stage: a sample-wise,
// odd-symmetric tanh saturator with a smooth knee below the configured
// threshold.
package clip

import (
	"math"

	"github.com/farcloser/auralis/internal/types"
)

// Stage is the soft-clipper DSP stage. It is stateless between samples.
type Stage struct {
	thresholdLinear float64
}

// NewStage builds a clipper for the given threshold in dBFS.
func NewStage(thresholdDb float64) *Stage {
	return &Stage{thresholdLinear: math.Pow(10, thresholdDb/20)}
}

// Process saturates buf in place. For |x| <= threshold - 0.05 the curve is
// the identity to within 1e-4; for |x| -> infinity, |output| asymptotes to
// threshold; the function is C1 continuous and odd-symmetric, so phase is
// preserved exactly (no all-pass behaviour).
func (s *Stage) Process(buf *types.PCMBuffer) {
	t := s.thresholdLinear
	if t <= 0 {
		return
	}

	for i, x := range buf.Samples {
		buf.Samples[i] = shape(x, t)
	}
}

// shape applies a tanh saturator scaled so that it is linear (identity) up
// to t*(1-margin) and asymptotes to t beyond it.
func shape(x, t float64) float64 {
	const margin = 0.05

	linearRegion := t * (1 - margin)

	sign := 1.0
	ax := x

	if x < 0 {
		sign = -1.0
		ax = -x
	}

	if ax <= linearRegion {
		return x
	}

	// Above the linear region, blend into tanh so the curve and its first
	// derivative match the identity line at ax == linearRegion, and the
	// output asymptotes to t.
	headroom := t - linearRegion
	excess := ax - linearRegion

	shaped := linearRegion + headroom*math.Tanh(excess/headroom)

	return sign * shaped
}
