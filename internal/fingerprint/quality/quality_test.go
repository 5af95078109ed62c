package quality

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnalyzeCleanSignalHasNoPenalty(t *testing.T) {
	// A 440 Hz tone, sine on L and cosine on R, with a one-second linear
	// fade-out so the ending is not flagged as truncated.
	const rate = 48000

	frames := rate * 2
	fadeFrames := rate
	samples := make([]float64, frames*2)

	for i := 0; i < frames; i++ {
		gain := 1.0
		if rem := frames - i; rem < fadeFrames {
			gain = float64(rem-1) / float64(fadeFrames)
		}

		phase := 2 * math.Pi * 440 * float64(i) / rate
		samples[i*2] = 0.3 * gain * math.Sin(phase)
		samples[i*2+1] = 0.3 * gain * math.Cos(phase)
	}

	report := Analyze(samples, 2, rate)
	assert.Zero(t, report.ClippedFraction)
	assert.False(t, report.Truncated)
}

func TestAnalyzeDetectsClipping(t *testing.T) {
	samples := make([]float64, 1000)
	for i := range samples {
		samples[i] = 1.0
	}

	report := Analyze(samples, 1, 48000)
	assert.Equal(t, 1.0, report.ClippedFraction)
	assert.Greater(t, report.TotalPenalty, 0.0)
}

func TestAnalyzeDetectsDCOffset(t *testing.T) {
	samples := make([]float64, 1000)
	for i := range samples {
		samples[i] = 0.5
	}

	report := Analyze(samples, 1, 48000)
	assert.InDelta(t, 0.5, report.DCOffsetLinear, 1e-9)
}

func TestAnalyzeDetectsFakeStereo(t *testing.T) {
	samples := make([]float64, 2000)
	for i := 0; i < len(samples); i += 2 {
		samples[i] = 0.4
		samples[i+1] = 0.4
	}

	report := Analyze(samples, 2, 48000)
	assert.True(t, report.FakeStereo)
}

func TestAnalyzeEmptyBufferHasZeroPenalty(t *testing.T) {
	report := Analyze(nil, 2, 48000)
	assert.Zero(t, report.TotalPenalty)
}
