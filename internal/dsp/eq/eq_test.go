package eq

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/farcloser/auralis/internal/types"
)

func TestRegionBandsCoverKnownRegions(t *testing.T) {
	for _, region := range Regions {
		bands := RegionBands(region)
		assert.NotEmpty(t, bands)
	}
}

func TestRegionBandsUnknownRegionIsNil(t *testing.T) {
	assert.Nil(t, RegionBands("nonexistent"))
}

func TestProcessZeroGainIsNearIdentity(t *testing.T) {
	var gains [types.EQBandCount]float64

	stage := NewStage(48000, 1, gains)

	buf := types.NewPCMBuffer(types.Rate48000, 1, 256)
	for i := range buf.Samples {
		buf.Samples[i] = 0.2
	}

	before := append([]float64(nil), buf.Samples...)
	stage.Process(buf)

	for i := range buf.Samples {
		assert.InDelta(t, before[i], buf.Samples[i], 1e-6)
	}
}

func TestProcessPositiveGainIncreasesEnergyAtCenterBand(t *testing.T) {
	var gains [types.EQBandCount]float64
	gains[15] = 12 // boost the 1 kHz band heavily

	stage := NewStage(48000, 1, gains)

	buf := types.NewPCMBuffer(types.Rate48000, 1, 4800)

	freq := CenterFrequenciesHz[15]
	for i := 0; i < buf.Frames; i++ {
		buf.Samples[i] = 0.1 * math.Sin(2*math.Pi*freq*float64(i)/48000)
	}

	var energyBefore float64
	for _, s := range buf.Samples {
		energyBefore += s * s
	}

	stage.Process(buf)

	var energyAfter float64
	for _, s := range buf.Samples {
		energyAfter += s * s
	}

	assert.Greater(t, energyAfter, energyBefore)
}
