// Package eq implements the Psychoacoustic EQ stage: a cascade of 32
// peaking biquads on a fixed, sample-rate-independent table of centre
// frequencies spanning ~20 Hz to ~20 kHz, with denser spacing in the vocal
// presence range.
package eq

import "github.com/farcloser/auralis/internal/types"

// CenterFrequenciesHz is the fixed band index -> centre frequency table.
// It is a build-time constant, never derived from the sample rate: only
// the biquad coefficients (which depend on sample rate) are recomputed per
// engine instance.
var CenterFrequenciesHz = [types.EQBandCount]float64{
	20, 32, 45, 63, 80, 100, 125, 160,
	200, 250, 315, 400, 500, 630, 800, 1000,
	1250, 1600, 2000, 2500, 3150, 4000, 5000, 6300,
	8000, 9500, 11000, 13000, 15000, 17000, 19000, 20000,
}

// regionBounds maps the seven fingerprint/target frequency regions onto
// inclusive band-index ranges within CenterFrequenciesHz.
var regionBounds = map[string][2]int{
	"sub_bass":  {0, 3},
	"bass":      {4, 8},
	"low_mid":   {9, 13},
	"mid":       {14, 18},
	"upper_mid": {19, 23},
	"presence":  {24, 28},
	"air":       {29, 31},
}

// RegionBands returns the band indices belonging to a named frequency
// region, per the data-driven region->band table.
func RegionBands(region string) []int {
	bounds, ok := regionBounds[region]
	if !ok {
		return nil
	}

	out := make([]int, 0, bounds[1]-bounds[0]+1)
	for i := bounds[0]; i <= bounds[1]; i++ {
		out = append(out, i)
	}

	return out
}

// Regions lists the seven region names in the documented order.
var Regions = []string{"sub_bass", "bass", "low_mid", "mid", "upper_mid", "presence", "air"}
