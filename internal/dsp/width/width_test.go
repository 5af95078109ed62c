package width

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/farcloser/auralis/internal/types"
)

func TestProcessNoOpOnMonoSum(t *testing.T) {
	stage := NewStage(1.5)

	buf := types.NewPCMBuffer(types.Rate48000, 2, 8)
	for i := 0; i < buf.Frames; i++ {
		buf.Samples[i*2] = 0.3
		buf.Samples[i*2+1] = 0.3
	}

	before := append([]float64(nil), buf.Samples...)
	stage.Process(buf)

	assert.Equal(t, before, buf.Samples)
}

func TestProcessWideningIncreasesSideEnergy(t *testing.T) {
	stage := NewStage(1.5)

	buf := types.NewPCMBuffer(types.Rate48000, 2, 8)
	for i := 0; i < buf.Frames; i++ {
		buf.Samples[i*2] = 0.3
		buf.Samples[i*2+1] = -0.3
	}

	stage.Process(buf)

	for i := 0; i < buf.Frames; i++ {
		left := buf.Samples[i*2]
		right := buf.Samples[i*2+1]
		assert.InDelta(t, 0.45, left, 1e-9)
		assert.InDelta(t, -0.45, right, 1e-9)
	}
}

func TestProcessZeroWidthCollapsesToMono(t *testing.T) {
	stage := NewStage(0.0)

	buf := types.NewPCMBuffer(types.Rate48000, 2, 4)
	buf.Samples = []float64{0.5, -0.1, 0.2, 0.0, -0.3, 0.3, 0.1, 0.1}

	stage.Process(buf)

	for i := 0; i < buf.Frames; i++ {
		assert.InDelta(t, buf.Samples[i*2], buf.Samples[i*2+1], 1e-9)
	}
}
