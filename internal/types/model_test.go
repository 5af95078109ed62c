package types_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farcloser/auralis/internal/types"
)

func TestPCMBufferValidate(t *testing.T) {
	buf := types.NewPCMBuffer(types.Rate48000, 2, 4)
	require.NoError(t, buf.Validate())

	mono := types.NewPCMBuffer(types.Rate48000, 1, 4)
	assert.ErrorIs(t, mono.Validate(), types.ErrInvalidInput)
}

func TestPCMBufferValidateRejectsNonFinite(t *testing.T) {
	buf := types.NewPCMBuffer(types.Rate48000, 2, 2)
	buf.Samples[1] = negInfinity()

	assert.ErrorIs(t, buf.Validate(), types.ErrInvalidInput)
}

func negInfinity() float64 {
	var zero float64

	return -1 / zero
}

func TestPCMBufferClone(t *testing.T) {
	buf := types.NewPCMBuffer(types.Rate44100, 2, 3)
	buf.Samples[0] = 0.5

	clone := buf.Clone()
	clone.Samples[0] = 0.25

	assert.Equal(t, 0.5, buf.Samples[0])
	assert.Equal(t, 0.25, clone.Samples[0])
}

func TestContentClassRoundTrip(t *testing.T) {
	for _, c := range []types.ContentClass{
		types.ClassStudio, types.ClassLive, types.ClassAcoustic,
		types.ClassElectronic, types.ClassCompressedLoud, types.ClassQuietDynamic,
	} {
		assert.Equal(t, c, types.ParseContentClass(c.String()))
	}

	assert.Equal(t, types.ClassUnknown, types.ParseContentClass("not-a-class"))
}

func TestFingerprintValidateBandPercentages(t *testing.T) {
	fp := types.NeutralFingerprint(180)
	require.NoError(t, fp.Validate())

	fp.SubBassPct = 0.9
	assert.ErrorIs(t, fp.Validate(), types.ErrInvalidInput)
}

func TestTargetProfileValidateCeilingOrdering(t *testing.T) {
	profile := types.TargetProfile{
		IntegratedLUFSTarget: -14,
		TruePeakCeilingDBTP:  -0.3,
		SoftClipThresholdDb:  -1.0,
	}
	require.NoError(t, profile.Validate())

	profile.SoftClipThresholdDb = 1.0
	assert.ErrorIs(t, profile.Validate(), types.ErrInvalidInput)
}

func TestTargetProfileValidateHardCeiling(t *testing.T) {
	profile := types.TargetProfile{TruePeakCeilingDBTP: -0.3, SoftClipThresholdDb: -1.0}
	profile.EQBandGainsDb[5] = 18.0

	assert.ErrorIs(t, profile.Validate(), types.ErrInvalidInput)
}

func TestTrackCacheEntryApproxSizeBytes(t *testing.T) {
	entry := types.NewTrackCacheEntry(1, "hash", 120, 12, types.Rate48000, 2)
	key := types.ChunkKey{ChunkIndex: 0, Preset: types.PresetAdaptive, Intensity: 1, Origin: types.OriginProcessed}
	entry.Chunks[key] = &types.ProcessedChunk{Data: make([]byte, 100)}

	assert.Equal(t, 100, entry.ApproxSizeBytes())
}
