// Package limiter implements the Brick-Wall Limiter stage: a true-peak,
// lookahead limiter that guarantees the output never exceeds a configured
// ceiling, measured on the same 4x-oversampled polyphase primitive used by
// the true-peak fingerprint dimension.
package limiter

import (
	"log/slog"
	"math"

	"github.com/farcloser/auralis/internal/dsp/oversample"
	"github.com/farcloser/auralis/internal/types"
)

const (
	lookaheadMs = 3.0 // within the 1.5-5ms contract window
	holdMs      = 8.0
	releaseMs   = 60.0
)

// Stage is the limiter DSP stage. It holds only the ceiling; the lookahead
// window and gain envelope are local to each Process call.
type Stage struct {
	ceilingLinear float64
}

// NewStage builds a limiter for the given true-peak ceiling in dBTP. A
// ceiling above 0 dBTP cannot be satisfied and is logged and ignored by
// Process (the stage then passes through unchanged), per the DSP stage
// contract that a stage never throws into the caller.
func NewStage(ceilingDbTP float64) *Stage {
	return &Stage{ceilingLinear: math.Pow(10, ceilingDbTP/20)}
}

// Process applies lookahead true-peak limiting in place.
func (st *Stage) Process(buf *types.PCMBuffer) {
	if st.ceilingLinear <= 0 || st.ceilingLinear > 1 {
		slog.Warn("limiter: unsatisfiable ceiling, passing through", "ceiling_linear", st.ceilingLinear)

		return
	}

	lookaheadFrames := max(1, int(float64(buf.SampleRate)*lookaheadMs/1000))
	holdFrames := max(1, int(float64(buf.SampleRate)*holdMs/1000))
	releaseCoeff := math.Exp(-1.0 / (releaseMs / 1000.0 * float64(buf.SampleRate)))

	channels := buf.Channels
	frames := buf.Frames

	// Compute the true-peak envelope (4x oversampled) per frame, taking the
	// max across channels so gain reduction is applied uniformly and the
	// stereo image is preserved.
	envelope := make([]float64, frames)
	histories := make([]*oversample.History, channels)

	for ch := range histories {
		histories[ch] = oversample.NewHistory()
	}

	for frame := 0; frame < frames; frame++ {
		var framePeak float64

		for ch := 0; ch < channels; ch++ {
			sample := buf.Samples[frame*channels+ch]
			if abs := math.Abs(sample); abs > framePeak {
				framePeak = abs
			}

			for _, interp := range histories[ch].Push(sample) {
				if abs := math.Abs(interp); abs > framePeak {
					framePeak = abs
				}
			}
		}

		envelope[frame] = framePeak
	}

	// Required instantaneous gain per frame to keep the true peak at or
	// below the ceiling.
	required := make([]float64, frames)

	for i, peak := range envelope {
		if peak <= st.ceilingLinear || peak == 0 {
			required[i] = 1.0
		} else {
			required[i] = st.ceilingLinear / peak
		}
	}

	// Lookahead: the gain applied at frame i must already account for any
	// peak within the next lookaheadFrames, so pull the minimum required
	// gain forward.
	gain := make([]float64, frames)

	for i := 0; i < frames; i++ {
		minGain := 1.0

		end := min(i+lookaheadFrames, frames)
		for j := i; j < end; j++ {
			if required[j] < minGain {
				minGain = required[j]
			}
		}

		gain[i] = minGain
	}

	// Hold + exponential release shaping so the gain signal does not chatter
	// back up to unity immediately after a transient.
	current := 1.0
	holdCounter := 0

	for i := 0; i < frames; i++ {
		if gain[i] < current {
			current = gain[i]
			holdCounter = holdFrames
		} else if holdCounter > 0 {
			holdCounter--
		} else {
			current = releaseCoeff*current + (1-releaseCoeff)*gain[i]
		}

		for ch := 0; ch < channels; ch++ {
			idx := i*channels + ch
			buf.Samples[idx] *= current
		}
	}

	removeDCOffset(buf)
}

// removeDCOffset guarantees the limiter never introduces a DC offset above
// 1e-4, per the stage's contract.
func removeDCOffset(buf *types.PCMBuffer) {
	if buf.Frames == 0 {
		return
	}

	for ch := 0; ch < buf.Channels; ch++ {
		var sum float64

		for frame := 0; frame < buf.Frames; frame++ {
			sum += buf.Samples[frame*buf.Channels+ch]
		}

		mean := sum / float64(buf.Frames)
		if math.Abs(mean) <= 1e-4 {
			continue
		}

		for frame := 0; frame < buf.Frames; frame++ {
			buf.Samples[frame*buf.Channels+ch] -= mean
		}
	}
}
