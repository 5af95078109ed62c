package spectral

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnalyzeShortBufferReturnsUniformBands(t *testing.T) {
	result := Analyze(make([]float64, 100), 48000)

	var sum float64
	for _, v := range result.BandPct {
		assert.InDelta(t, 1.0/7, v, 1e-12)
		sum += v
	}

	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestAnalyzeHighFrequencyToneHasHighCentroid(t *testing.T) {
	mono := make([]float64, 48000)
	for i := range mono {
		mono[i] = math.Sin(2 * math.Pi * 8000 * float64(i) / 48000)
	}

	result := Analyze(mono, 48000)
	assert.Greater(t, result.CentroidHz, 3000.0)
}

func TestAnalyzeLowFrequencyToneHasLowCentroid(t *testing.T) {
	mono := make([]float64, 48000)
	for i := range mono {
		mono[i] = math.Sin(2 * math.Pi * 100 * float64(i) / 48000)
	}

	result := Analyze(mono, 48000)
	assert.Less(t, result.CentroidHz, 1000.0)
}

func TestAnalyzeBandPercentagesSumToOne(t *testing.T) {
	mono := make([]float64, 48000)
	for i := range mono {
		mono[i] = math.Sin(2*math.Pi*440*float64(i)/48000) + 0.5*math.Sin(2*math.Pi*5000*float64(i)/48000)
	}

	result := Analyze(mono, 48000)

	var sum float64
	for _, v := range result.BandPct {
		sum += v
	}

	assert.InDelta(t, 1.0, sum, 1e-6)
}
