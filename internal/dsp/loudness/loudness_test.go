package loudness

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/farcloser/auralis/internal/types"
)

func TestMeasureSilenceIsFloor(t *testing.T) {
	buf := types.NewPCMBuffer(types.Rate48000, 2, 48000*2)

	result := Measure(buf)

	assert.Equal(t, -70.0, result.IntegratedLUFS)
	assert.Equal(t, 0.0, result.PeakLinear)
}

func TestMeasureLouderSignalHasHigherIntegratedLoudness(t *testing.T) {
	quiet := tone(0.05, 5)
	loud := tone(0.5, 5)

	quietResult := Measure(quiet)
	loudResult := Measure(loud)

	assert.Greater(t, loudResult.IntegratedLUFS, quietResult.IntegratedLUFS)
}

func TestMeasurePeakLinearTracksAmplitude(t *testing.T) {
	buf := tone(0.5, 2)

	result := Measure(buf)
	assert.InDelta(t, 0.5, result.PeakLinear, 0.01)
}

func tone(amplitude float64, seconds int) *types.PCMBuffer {
	rate := 48000
	frames := rate * seconds

	buf := types.NewPCMBuffer(types.Rate48000, 2, frames)
	for i := 0; i < frames; i++ {
		v := amplitude * math.Sin(2*math.Pi*440*float64(i)/float64(rate))
		buf.Samples[i*2] = v
		buf.Samples[i*2+1] = v
	}

	return buf
}
