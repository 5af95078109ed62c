package ffmpeg

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/farcloser/auralis/internal/types"
)

func TestMonoToStereoDuplicatesChannel(t *testing.T) {
	mono := types.NewPCMBuffer(types.Rate48000, 1, 4)
	mono.Samples = []float64{0.1, 0.2, 0.3, 0.4}

	stereo := monoToStereo(mono)

	assert.Equal(t, 2, stereo.Channels)
	assert.Equal(t, mono.Frames, stereo.Frames)

	for i := 0; i < stereo.Frames; i++ {
		assert.Equal(t, mono.Samples[i], stereo.Samples[i*2])
		assert.Equal(t, mono.Samples[i], stereo.Samples[i*2+1])
	}
}

// Decode itself shells out to real ffmpeg/ffprobe binaries and is not
// exercised here; see DESIGN.md for the rationale.
