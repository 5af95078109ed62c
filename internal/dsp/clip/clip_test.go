package clip

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/farcloser/auralis/internal/types"
)

func TestShapeIdentityBelowLinearRegion(t *testing.T) {
	const thresholdLinear = 1.0

	assert.InDelta(t, 0.5, shape(0.5, thresholdLinear), 1e-9)
	assert.InDelta(t, -0.5, shape(-0.5, thresholdLinear), 1e-9)
}

func TestShapeOddSymmetricAndBounded(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		threshold := rapid.Float64Range(0.01, 10).Draw(t, "threshold")
		x := rapid.Float64Range(-1000, 1000).Draw(t, "x")

		out := shape(x, threshold)

		assert.InDelta(t, -shape(-x, threshold), out, 1e-9)
		assert.LessOrEqual(t, math.Abs(out), threshold+1e-9)
	})
}

func TestStageProcessLeavesQuietSignalUnchanged(t *testing.T) {
	stage := NewStage(-1.0) // ~0.89 linear threshold

	buf := types.NewPCMBuffer(types.Rate48000, 2, 4)
	buf.Samples = []float64{0.01, -0.01, 0.02, -0.02}

	stage.Process(buf)

	assert.InDelta(t, 0.01, buf.Samples[0], 1e-6)
	assert.InDelta(t, -0.01, buf.Samples[1], 1e-6)
}

func TestStageProcessZeroThresholdNoOp(t *testing.T) {
	stage := NewStage(math.Inf(-1)) // thresholdLinear == 0

	buf := types.NewPCMBuffer(types.Rate48000, 2, 2)
	buf.Samples = []float64{0.5, -0.5}

	stage.Process(buf)

	assert.Equal(t, []float64{0.5, -0.5}, buf.Samples)
}
