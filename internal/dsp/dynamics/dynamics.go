// Package dynamics implements the Advanced Dynamics stage: a single-band
// feed-forward RMS compressor with a soft knee and automatic or fixed
// makeup gain.
package dynamics

import (
	"log/slog"
	"math"

	"github.com/farcloser/auralis/internal/dsp/loudness"
	"github.com/farcloser/auralis/internal/types"
)

const (
	kneeWidthDb    = 6.0
	makeupMinDb    = -6.0
	makeupMaxDb    = 12.0
	silenceFloorDb = -90.0
)

// Stage is the compressor DSP stage. It holds its own envelope state; a
// fresh Stage must be built per Hybrid Processor invocation.
type Stage struct {
	params types.CompressorParams

	rmsEnvelope float64 // running mean-square, linear
	gainState   float64 // one-pole smoothed gain reduction, dB
	initialized bool
}

// NewStage builds a compressor stage from the profile's parameters.
func NewStage(params types.CompressorParams) *Stage {
	return &Stage{params: params}
}

// Process runs the feed-forward compressor in place, then applies makeup
// gain. integratedLUFSTarget is used only when params.MakeupMode is
// MakeupAuto.
func (s *Stage) Process(buf *types.PCMBuffer, integratedLUFSTarget float64) {
	sampleRate := float64(buf.SampleRate)

	attackCoeff := timeConstant(s.params.AttackMs, sampleRate)
	releaseCoeff := timeConstant(s.params.ReleaseMs, sampleRate)
	gainSmoothCoeff := attackCoeff

	thresholdDb := s.params.ThresholdDb
	ratio := s.params.Ratio

	if ratio <= 0 {
		slog.Warn("dynamics: non-positive ratio, passing through", "ratio", ratio)

		return
	}

	allSilent := true

	for frame := 0; frame < buf.Frames; frame++ {
		var frameMS float64

		for ch := 0; ch < buf.Channels; ch++ {
			sample := buf.Samples[frame*buf.Channels+ch]
			frameMS += sample * sample
		}

		frameMS /= float64(buf.Channels)

		if frameMS > 1e-12 {
			allSilent = false
		}

		if !s.initialized {
			s.rmsEnvelope = frameMS
			s.initialized = true
		} else if frameMS > s.rmsEnvelope {
			s.rmsEnvelope = attackCoeff*s.rmsEnvelope + (1-attackCoeff)*frameMS
		} else {
			s.rmsEnvelope = releaseCoeff*s.rmsEnvelope + (1-releaseCoeff)*frameMS
		}

		envelopeDb := silenceFloorDb
		if s.rmsEnvelope > 0 {
			envelopeDb = 10 * math.Log10(s.rmsEnvelope)
		}

		targetReductionDb := softKneeReduction(envelopeDb, thresholdDb, ratio, kneeWidthDb)

		s.gainState = gainSmoothCoeff*s.gainState + (1-gainSmoothCoeff)*targetReductionDb

		gainLinear := math.Pow(10, s.gainState/20)

		for ch := 0; ch < buf.Channels; ch++ {
			idx := frame*buf.Channels + ch
			buf.Samples[idx] *= gainLinear
		}
	}

	if allSilent {
		slog.Warn("dynamics: all-silence chunk, compressor passed through unchanged")

		return
	}

	makeupDb := s.makeupGainDb(buf, integratedLUFSTarget)
	makeupLinear := math.Pow(10, makeupDb/20)

	for i := range buf.Samples {
		buf.Samples[i] *= makeupLinear
	}
}

// softKneeReduction returns the (negative) gain reduction in dB for a
// signal at envelopeDb against thresholdDb, with a kneeWidthDb-wide soft
// knee centered on the threshold.
func softKneeReduction(envelopeDb, thresholdDb, ratio, kneeWidthDb float64) float64 {
	overshoot := envelopeDb - thresholdDb

	switch {
	case overshoot < -kneeWidthDb/2:
		return 0
	case overshoot > kneeWidthDb/2:
		return -(overshoot - overshoot/ratio)
	default:
		// Quadratic interpolation through the knee, per common feed-forward
		// compressor designs: the reduction grows quadratically from 0 at
		// -kw/2 up to the full-ratio line at +kw/2.
		x := overshoot + kneeWidthDb/2
		reducedOvershoot := (x * x) / (2 * kneeWidthDb) * (1 - 1/ratio)

		return -reducedOvershoot
	}
}

func timeConstant(ms, sampleRate float64) float64 {
	if ms <= 0 {
		return 0
	}

	return math.Exp(-1.0 / (ms / 1000.0 * sampleRate))
}

// makeupGainDb resolves the configured makeup-gain mode, clamping auto
// makeup to [-6, +12] dB to guard against runaway gain on near-silent
// chunks.
func (s *Stage) makeupGainDb(buf *types.PCMBuffer, integratedLUFSTarget float64) float64 {
	if s.params.MakeupMode == types.MakeupFixed {
		return s.params.MakeupFixedDb
	}

	measured := loudness.Measure(buf).IntegratedLUFS
	if measured <= -69 {
		return 0
	}

	needed := integratedLUFSTarget - measured

	return math.Max(makeupMinDb, math.Min(makeupMaxDb, needed))
}
