// Package width implements the Stereo Width Adjust stage: mid/side
// decomposition with a side-channel gain scalar.
package width

import (
	"math"

	"github.com/farcloser/auralis/internal/types"
)

const monoSumFloorDb = -60.0

// Stage is the stereo-width DSP stage. It is stateless between frames.
type Stage struct {
	widthScalar float64
}

// NewStage builds a width stage. widthScalar is expected to already be
// clamped to [0, 1.5] by the Target Profile invariant.
func NewStage(widthScalar float64) *Stage {
	return &Stage{widthScalar: widthScalar}
}

// Process decomposes buf into mid/side, scales side by widthScalar, and
// recomposes, in place. When the input is already mono-summed (side
// energy below monoSumFloorDb), the stage is a no-op regardless of the
// configured width, per the stage's contract.
func (s *Stage) Process(buf *types.PCMBuffer) {
	if buf.Channels != 2 {
		return
	}

	var sideEnergy, totalEnergy float64

	for frame := 0; frame < buf.Frames; frame++ {
		left := buf.Samples[frame*2]
		right := buf.Samples[frame*2+1]
		side := (left - right) / 2

		sideEnergy += side * side
		totalEnergy += (left*left + right*right) / 2
	}

	if totalEnergy > 0 {
		sideDb := -120.0
		if sideEnergy > 0 {
			sideDb = 10 * math.Log10(sideEnergy/float64(buf.Frames))
		}

		if sideDb < monoSumFloorDb {
			return
		}
	}

	for frame := 0; frame < buf.Frames; frame++ {
		idx := frame * 2
		left := buf.Samples[idx]
		right := buf.Samples[idx+1]

		mid := (left + right) / 2
		side := (left - right) / 2 * s.widthScalar

		buf.Samples[idx] = mid + side
		buf.Samples[idx+1] = mid - side
	}
}
