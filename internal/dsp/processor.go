// Package dsp hosts the Hybrid Processor: the fixed, non-negotiable DSP
// chain (EQ, Dynamics, Soft Clipper, Brick-Wall Limiter, Stereo Width)
// that turns a PCM buffer plus a Target Profile into a new, equally-sized
// PCM buffer.
package dsp

import (
	"fmt"
	"math"

	"github.com/farcloser/auralis/internal/dsp/clip"
	"github.com/farcloser/auralis/internal/dsp/dynamics"
	"github.com/farcloser/auralis/internal/dsp/eq"
	"github.com/farcloser/auralis/internal/dsp/limiter"
	"github.com/farcloser/auralis/internal/dsp/width"
	"github.com/farcloser/auralis/internal/types"
)

// Processor is the Hybrid Processor. It owns no state beyond its
// configuration: every call to Process consumes an input buffer and
// produces a new one.
type Processor struct {
	sampleRate types.SampleRate
}

// NewProcessor builds a Hybrid Processor fixed to sampleRate. The
// processor rejects input at any other rate with ErrInvalidInput.
func NewProcessor(sampleRate types.SampleRate) (*Processor, error) {
	if !sampleRate.Supported() {
		return nil, fmt.Errorf("%w: unsupported sample rate %d", types.ErrInvalidInput, sampleRate)
	}

	return &Processor{sampleRate: sampleRate}, nil
}

// Process runs the fixed DSP chain over input using profile, returning a
// new PCM buffer of identical frame count, channel count and sample rate.
func (p *Processor) Process(input *types.PCMBuffer, profile *types.TargetProfile) (*types.PCMBuffer, error) {
	if input.Channels != 2 || input.SampleRate != p.sampleRate {
		return nil, fmt.Errorf("%w: expected stereo at %d Hz, got %d channel(s) at %d Hz",
			types.ErrInvalidInput, p.sampleRate, input.Channels, input.SampleRate)
	}

	for _, s := range input.Samples {
		if math.IsNaN(s) || math.IsInf(s, 0) {
			return nil, fmt.Errorf("%w: non-finite sample in input", types.ErrInvalidInput)
		}
	}

	if err := profile.Validate(); err != nil {
		return nil, fmt.Errorf("%w: invalid target profile: %w", types.ErrInternal, err)
	}

	out := input.Clone()

	eq.NewStage(int(p.sampleRate), out.Channels, profile.EQBandGainsDb).Process(out)
	dynamics.NewStage(profile.Compressor).Process(out, profile.IntegratedLUFSTarget)
	clip.NewStage(profile.SoftClipThresholdDb).Process(out)
	limiter.NewStage(profile.TruePeakCeilingDBTP).Process(out)
	width.NewStage(profile.StereoWidth).Process(out)

	return out, nil
}
