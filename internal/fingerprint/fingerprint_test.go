package fingerprint

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farcloser/auralis/internal/types"
)

func TestGenerateOnCleanToneProducesValidFingerprint(t *testing.T) {
	buf := types.NewPCMBuffer(types.Rate48000, 2, 48000*3)
	for i := 0; i < buf.Frames; i++ {
		v := 0.3 * math.Sin(2*math.Pi*440*float64(i)/48000)
		buf.Samples[i*2] = v
		buf.Samples[i*2+1] = v
	}

	fp := Generate(buf)
	require.NotNil(t, fp)
	require.NoError(t, fp.Validate())

	assert.InDelta(t, 3.0, fp.DurationSeconds, 0.01)
	assert.Greater(t, fp.Confidence, 0.0)
}

func TestGenerateOnHeavilyClippedBufferForcesUnknownClass(t *testing.T) {
	buf := types.NewPCMBuffer(types.Rate48000, 2, 48000)
	for i := range buf.Samples {
		buf.Samples[i] = 1.0
	}

	fp := Generate(buf)
	assert.Equal(t, types.ClassUnknown, fp.ContentClass)
	assert.Less(t, fp.Confidence, confidenceFloor)
}

func TestGenerateNeverReturnsNonFiniteDimensions(t *testing.T) {
	buf := types.NewPCMBuffer(types.Rate48000, 1, 2000)

	fp := Generate(buf)
	require.NoError(t, fp.Validate())
}
