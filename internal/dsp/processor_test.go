package dsp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farcloser/auralis/internal/types"
)

func neutralProfile() types.TargetProfile {
	return types.TargetProfile{
		IntegratedLUFSTarget: -14,
		TruePeakCeilingDBTP:  -0.3,
		SoftClipThresholdDb:  -1.0,
		StereoWidth:          1.0,
		Compressor: types.CompressorParams{
			ThresholdDb: -8,
			Ratio:       1.0,
			AttackMs:    10,
			ReleaseMs:   100,
			MakeupMode:  types.MakeupFixed,
		},
	}
}

func TestNewProcessorRejectsUnsupportedRate(t *testing.T) {
	_, err := NewProcessor(types.SampleRate(22050))
	assert.ErrorIs(t, err, types.ErrInvalidInput)
}

func TestProcessPreservesShapeAndStaysFinite(t *testing.T) {
	proc, err := NewProcessor(types.Rate48000)
	require.NoError(t, err)

	buf := types.NewPCMBuffer(types.Rate48000, 2, 2000)
	for i := 0; i < buf.Frames; i++ {
		v := 0.2 * math.Sin(float64(i)*0.05)
		buf.Samples[i*2] = v
		buf.Samples[i*2+1] = v * 0.9
	}

	profile := neutralProfile()

	out, err := proc.Process(buf, &profile)
	require.NoError(t, err)

	assert.Equal(t, buf.Frames, out.Frames)
	assert.Equal(t, buf.Channels, out.Channels)
	assert.Equal(t, buf.SampleRate, out.SampleRate)

	for _, s := range out.Samples {
		assert.False(t, math.IsNaN(s) || math.IsInf(s, 0))
	}
}

func TestProcessRejectsMismatchedRate(t *testing.T) {
	proc, err := NewProcessor(types.Rate48000)
	require.NoError(t, err)

	buf := types.NewPCMBuffer(types.Rate44100, 2, 100)
	profile := neutralProfile()

	_, err = proc.Process(buf, &profile)
	assert.ErrorIs(t, err, types.ErrInvalidInput)
}

func TestProcessDoesNotMutateInput(t *testing.T) {
	proc, err := NewProcessor(types.Rate48000)
	require.NoError(t, err)

	buf := types.NewPCMBuffer(types.Rate48000, 2, 500)
	for i := range buf.Samples {
		buf.Samples[i] = 0.1
	}

	before := append([]float64(nil), buf.Samples...)
	profile := neutralProfile()

	_, err = proc.Process(buf, &profile)
	require.NoError(t, err)

	assert.Equal(t, before, buf.Samples)
}
