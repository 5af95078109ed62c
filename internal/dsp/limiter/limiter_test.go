package limiter

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/farcloser/auralis/internal/types"
)

func TestProcessKeepsTruePeakUnderCeiling(t *testing.T) {
	const ceilingDb = -1.0

	stage := NewStage(ceilingDb)
	ceilingLinear := math.Pow(10, ceilingDb/20)

	buf := types.NewPCMBuffer(types.Rate48000, 2, 2000)
	for i := range buf.Samples {
		buf.Samples[i] = 0.99
	}

	stage.Process(buf)

	for _, s := range buf.Samples {
		assert.LessOrEqual(t, math.Abs(s), ceilingLinear+1e-3)
	}
}

func TestProcessGuaranteesNearZeroDCOffset(t *testing.T) {
	stage := NewStage(-1.0)

	buf := types.NewPCMBuffer(types.Rate48000, 2, 4000)
	for frame := 0; frame < buf.Frames; frame++ {
		v := 0.3 + 0.2*math.Sin(float64(frame)*0.01)
		buf.Samples[frame*2] = v
		buf.Samples[frame*2+1] = v
	}

	stage.Process(buf)

	for ch := 0; ch < 2; ch++ {
		var sum float64
		for frame := 0; frame < buf.Frames; frame++ {
			sum += buf.Samples[frame*2+ch]
		}

		mean := sum / float64(buf.Frames)
		assert.LessOrEqual(t, math.Abs(mean), 1e-4+1e-9)
	}
}

func TestProcessUnsatisfiableCeilingPassesThrough(t *testing.T) {
	stage := NewStage(6.0) // > 0 dBTP, ceilingLinear > 1

	buf := types.NewPCMBuffer(types.Rate48000, 2, 4)
	buf.Samples = []float64{0.1, 0.2, 0.3, 0.4}

	stage.Process(buf)

	assert.Equal(t, []float64{0.1, 0.2, 0.3, 0.4}, buf.Samples)
}
