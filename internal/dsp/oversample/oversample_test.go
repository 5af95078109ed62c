package oversample

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPeakLinearOfSilenceIsZero(t *testing.T) {
	samples := make([]float64, 256)

	truePeak, samplePeak := PeakLinear(samples)
	assert.Zero(t, truePeak)
	assert.Zero(t, samplePeak)
}

func TestPeakLinearIsAtLeastSamplePeak(t *testing.T) {
	samples := make([]float64, 480)
	for i := range samples {
		samples[i] = 0.7 * math.Sin(2*math.Pi*1000*float64(i)/48000)
	}

	truePeak, samplePeak := PeakLinear(samples)
	assert.GreaterOrEqual(t, truePeak, samplePeak-1e-9)
}

func TestHistoryPushReturnsFourPhases(t *testing.T) {
	h := NewHistory()

	out := h.Push(1.0)
	assert.Len(t, out, Factor)
}
