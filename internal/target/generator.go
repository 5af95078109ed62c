package target

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/farcloser/auralis/internal/dsp/eq"
	"github.com/farcloser/auralis/internal/types"
)

const (
	defaultTruePeakCeilingDBTP = -0.3
	defaultAttackMs            = 15.0
	defaultReleaseMs           = 120.0
	punchyAttackFactor         = 0.6

	maxLoudnessDeltaDb = 3.0
	maxRatioDeltaPts   = 1.5
	regionPctSwingPct  = 0.15
)

// Generate maps a Fingerprint plus a preset bias and intensity to a
// concrete Target Profile, per spec.md §4.2. intensity is clamped to
// [0, 1] before use.
func Generate(fp *types.Fingerprint, preset types.PresetBias, intensity float64) types.TargetProfile {
	intensity = clamp(intensity, 0, 1)
	row := referenceFor(fp.ContentClass)

	lufsTarget := loudnessTarget(fp, row, preset)
	ceiling := defaultTruePeakCeilingDBTP

	profile := types.TargetProfile{
		IntegratedLUFSTarget: lufsTarget,
		TruePeakCeilingDBTP:  ceiling,
		EQBandGainsDb:        eqCurve(fp, row, preset, intensity),
		Compressor:           compressorParams(fp, row, preset, intensity),
		SoftClipThresholdDb:  ceiling - 0.3,
		StereoWidth:          stereoWidth(fp),
		PresetBias:           preset,
	}

	return profile
}

// loudnessTarget mixes the content class's baseline LUFS with the
// fingerprint's measured loudness, bounded to a +-3 dB delta, then
// applies the preset's loudness bias. Intensity never touches loudness.
func loudnessTarget(fp *types.Fingerprint, row referenceRow, preset types.PresetBias) float64 {
	delta := clamp(fp.IntegratedLUFS-row.baselineLUFS, -maxLoudnessDeltaDb, maxLoudnessDeltaDb)
	target := row.baselineLUFS + delta

	switch preset {
	case types.PresetGentle:
		target -= 1.5
	case types.PresetPunchy:
		target += 1.5
	}

	return target
}

// compressorParams derives the threshold/ratio/attack/release/makeup-mode
// set, scaling compression depth by intensity so intensity 0 returns
// unity compression (ratio 1, fixed 0 dB makeup).
func compressorParams(fp *types.Fingerprint, row referenceRow, preset types.PresetBias, intensity float64) types.CompressorParams {
	crestDelta := clamp((row.baselineCrestFactor-fp.CrestFactor)*0.12, -maxRatioDeltaPts, maxRatioDeltaPts)
	ratio := row.baselineRatio + crestDelta

	attackMs := defaultAttackMs

	switch preset {
	case types.PresetGentle:
		ratio += (1.5 - ratio) * 0.5
	case types.PresetPunchy:
		attackMs *= punchyAttackFactor
	}

	ratio = 1 + (ratio-1)*intensity

	params := types.CompressorParams{
		ThresholdDb: row.baselineLUFS - 6,
		Ratio:       ratio,
		AttackMs:    attackMs,
		ReleaseMs:   defaultReleaseMs,
		MakeupMode:  types.MakeupAuto,
	}

	if intensity <= 0 {
		params.MakeupMode = types.MakeupFixed
		params.MakeupFixedDb = saturate(0)
	}

	return params
}

// eqCurve produces the 32-band gain curve: one region gain per of the
// seven frequency regions, interpolated between the region's documented
// (min_db, max_db) bounds from the fingerprint-vs-reference band delta,
// offset by the preset's fixed EQ bias, scaled by intensity, then
// saturated.
func eqCurve(fp *types.Fingerprint, row referenceRow, preset types.PresetBias, intensity float64) [types.EQBandCount]float64 {
	var curve [types.EQBandCount]float64

	var offsets map[string]float64

	switch preset {
	case types.PresetWarm:
		offsets = warmOffsetDb
	case types.PresetBright:
		offsets = brightOffsetDb
	}

	measured := make([]float64, len(eq.Regions))
	target := make([]float64, len(eq.Regions))

	for i, region := range eq.Regions {
		measured[i] = regionPctOf(fp, region)
		target[i] = row.regionTargetPct[region]
	}

	delta := append([]float64(nil), measured...)
	floats.Sub(delta, target) // delta[i] = measured[i] - target[i]

	for i, region := range eq.Regions {
		t := clamp(-delta[i]/regionPctSwingPct, -1, 1)

		bounds := regionGainRange[region]
		gain := bounds[0] + (bounds[1]-bounds[0])*((t+1)/2)
		gain += offsets[region]
		gain *= intensity
		gain = saturate(gain)

		for _, band := range eq.RegionBands(region) {
			curve[band] = gain
		}
	}

	return curve
}

// stereoWidth nudges the pass-through width toward the fingerprint's
// measured stereo width, clamped to the documented [0, 1.5] range.
// Intensity does not scale stereo width (spec.md §4.2: "intensity does
// NOT change loudness or ceiling targets" and width is not a gain stage).
func stereoWidth(fp *types.Fingerprint) float64 {
	width := 1.0 + clamp((fp.StereoWidth-1.0)*0.3, -0.3, 0.3)

	return clamp(width, 0, 1.5)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
