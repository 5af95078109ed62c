package ffprobe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFirstAudioStreamReturnsRateAndChannels(t *testing.T) {
	result := &Result{
		Streams: []Stream{
			{CodecType: "video"},
			{CodecType: "audio", SampleRate: "44100", Channels: 2},
		},
	}

	rate, channels, err := result.FirstAudioStream()
	require.NoError(t, err)
	assert.Equal(t, 44100, rate)
	assert.Equal(t, 2, channels)
}

func TestFirstAudioStreamErrorsWithNoAudio(t *testing.T) {
	result := &Result{Streams: []Stream{{CodecType: "video"}}}

	_, _, err := result.FirstAudioStream()
	assert.Error(t, err)
}

func TestFirstAudioStreamErrorsOnUnparsableRate(t *testing.T) {
	result := &Result{Streams: []Stream{{CodecType: "audio", SampleRate: "not-a-rate"}}}

	_, _, err := result.FirstAudioStream()
	assert.Error(t, err)
}
