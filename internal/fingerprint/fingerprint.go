// Package fingerprint builds the 25-dimension content Fingerprint from a
// decoded PCM buffer: loudness and dynamics from internal/dsp/loudness,
// true peak from internal/dsp/oversample, spectral shape from
// internal/fingerprint/spectral, temporal features from
// internal/fingerprint/temporal, and a quality-gated confidence from
// internal/fingerprint/quality.
package fingerprint

import (
	"math"

	"github.com/farcloser/auralis/internal/dsp/loudness"
	"github.com/farcloser/auralis/internal/dsp/oversample"
	"github.com/farcloser/auralis/internal/fingerprint/quality"
	"github.com/farcloser/auralis/internal/fingerprint/spectral"
	"github.com/farcloser/auralis/internal/fingerprint/temporal"
	"github.com/farcloser/auralis/internal/types"
)

// confidenceFloor is the confidence (1 minus the quality penalty) below
// which the fingerprint's content_class is forced to unknown rather than
// trusted.
const confidenceFloor = 0.35

// Generate computes a Fingerprint for buf. It never fails: a buffer too
// degraded to classify confidently still yields a Fingerprint, just with
// content_class forced to unknown and a low confidence.
func Generate(buf *types.PCMBuffer) *types.Fingerprint {
	mono := mixMono(buf)

	loud := loudness.Measure(buf)
	truePeakLinear, _ := truePeak(buf)

	truePeakDb := -120.0
	if truePeakLinear > 0 {
		truePeakDb = 20 * math.Log10(truePeakLinear)
	}

	crest := 0.0
	if loud.RMSDb > -120 {
		linearPeak := math.Max(truePeakLinear, 1e-9)
		crest = 20*math.Log10(linearPeak) - loud.RMSDb
	}

	spec := spectral.Analyze(mono, int(buf.SampleRate))
	temp := temporal.Analyze(mono, int(buf.SampleRate))
	stereo := stereoDimensions(buf)

	q := quality.Analyze(buf.Samples, buf.Channels, int(buf.SampleRate))
	confidence := math.Max(0, 1-q.TotalPenalty)

	class := classify(loud, spec, temp)
	if confidence < confidenceFloor {
		class = types.ClassUnknown
	}

	fp := &types.Fingerprint{
		IntegratedLUFS:  loud.IntegratedLUFS,
		LoudnessRangeLU: loud.LoudnessRangeLU,
		TruePeakDBTP:    truePeakDb,
		CrestFactor:     crest,
		RMSDb:           loud.RMSDb,

		SpectralCentroidHz: spec.CentroidHz,
		SpectralRolloffHz:  spec.RolloffHz,
		SpectralFlux:       spec.Flux,
		SubBassPct:         spec.BandPct[0],
		BassPct:            spec.BandPct[1],
		LowMidPct:          spec.BandPct[2],
		MidPct:             spec.BandPct[3],
		UpperMidPct:        spec.BandPct[4],
		PresencePct:        spec.BandPct[5],
		AirPct:             spec.BandPct[6],

		DREbuDb:          loud.DREbuDb,
		TransientDensity: temp.OnsetRate / 10, // onsets per second divided by 10, a rough normalized proxy
		AttackSharpness:  attackSharpness(mono),

		StereoWidth:      stereo.width,
		PhaseCorrelation: stereo.correlation,
		SideEnergyDb:     stereo.sideEnergyDb,

		TempoBPM:        temp.TempoBPM,
		RhythmStability: temp.RhythmStability,
		OnsetRate:       temp.OnsetRate,

		DurationSeconds: float64(buf.Frames) / float64(buf.SampleRate),
		ContentClassID:  int(class),
		ContentClass:    class,
		Confidence:      confidence,
	}

	return fp
}

func mixMono(buf *types.PCMBuffer) []float64 {
	mono := make([]float64, buf.Frames)

	for frame := 0; frame < buf.Frames; frame++ {
		var sum float64

		for ch := 0; ch < buf.Channels; ch++ {
			sum += buf.Samples[frame*buf.Channels+ch]
		}

		mono[frame] = sum / float64(buf.Channels)
	}

	return mono
}

func truePeak(buf *types.PCMBuffer) (peak, samplePeak float64) {
	for ch := 0; ch < buf.Channels; ch++ {
		channelSamples := make([]float64, buf.Frames)

		for frame := 0; frame < buf.Frames; frame++ {
			channelSamples[frame] = buf.Samples[frame*buf.Channels+ch]
		}

		tp, sp := oversample.PeakLinear(channelSamples)
		if tp > peak {
			peak = tp
		}

		if sp > samplePeak {
			samplePeak = sp
		}
	}

	return peak, samplePeak
}

type stereoDims struct {
	width        float64
	correlation  float64
	sideEnergyDb float64
}

func stereoDimensions(buf *types.PCMBuffer) stereoDims {
	if buf.Channels != 2 || buf.Frames == 0 {
		return stereoDims{width: 0, correlation: 1, sideEnergyDb: -120}
	}

	var sumL, sumR, sumLL, sumRR, sumLR, sumSideSq float64

	for frame := 0; frame < buf.Frames; frame++ {
		left := buf.Samples[frame*2]
		right := buf.Samples[frame*2+1]

		sumL += left
		sumR += right
		sumLL += left * left
		sumRR += right * right
		sumLR += left * right
		sumSideSq += ((left - right) / 2) * ((left - right) / 2)
	}

	n := float64(buf.Frames)
	numerator := n*sumLR - sumL*sumR
	denominator := math.Sqrt((n*sumLL - sumL*sumL) * (n*sumRR - sumR*sumR))

	correlation := 1.0
	if denominator > 0 {
		correlation = numerator / denominator
	}

	sideRms := math.Sqrt(sumSideSq / n)

	sideDb := -120.0
	if sideRms > 0 {
		sideDb = 20 * math.Log10(sideRms)
	}

	// width in [0, 1.5]-ish scale: derived from how much side energy exists
	// relative to total, with 1.0 representing typical stereo material.
	totalRms := math.Sqrt((sumLL + sumRR) / (2 * n))

	width := 1.0
	if totalRms > 0 {
		width = math.Min(1.5, (sideRms/totalRms)*2)
	}

	return stereoDims{width: width, correlation: correlation, sideEnergyDb: sideDb}
}

func attackSharpness(mono []float64) float64 {
	if len(mono) < 2 {
		return 0
	}

	var maxDelta float64

	for i := 1; i < len(mono); i++ {
		d := math.Abs(mono[i] - mono[i-1])
		if d > maxDelta {
			maxDelta = d
		}
	}

	return math.Min(1, maxDelta*10)
}

// classify assigns a content_class from the measured dimensions using the
// same style of threshold table the reference profile rows are keyed by.
func classify(loud loudness.Result, spec spectral.Result, temp temporal.Result) types.ContentClass {
	switch {
	case loud.IntegratedLUFS > -9 && loud.DREbuDb < 8:
		return types.ClassCompressedLoud
	case loud.DREbuDb > 14 && spec.Flux < 50:
		return types.ClassQuietDynamic
	case spec.CentroidHz > 3000 && temp.RhythmStability > 0.6:
		return types.ClassElectronic
	case loud.DREbuDb > 10 && spec.CentroidHz < 2000:
		return types.ClassAcoustic
	case temp.RhythmStability < 0.3 && loud.LoudnessRangeLU > 10:
		return types.ClassLive
	default:
		return types.ClassStudio
	}
}
