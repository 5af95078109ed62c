package engine

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farcloser/auralis/internal/cache"
	"github.com/farcloser/auralis/internal/config"
	"github.com/farcloser/auralis/internal/types"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()

	opts := config.Options{
		DataRoot:         t.TempDir(),
		ChunkDurationSec: 2,
		SampleRate:       types.Rate48000,
	}

	eng, err := New(opts)
	require.NoError(t, err)

	return eng
}

func tone(seconds float64) *types.PCMBuffer {
	rate := 48000
	frames := int(float64(rate) * seconds)

	buf := types.NewPCMBuffer(types.Rate48000, 2, frames)
	for i := 0; i < frames; i++ {
		v := 0.2 * math.Sin(2*math.Pi*440*float64(i)/float64(rate))
		buf.Samples[i*2] = v
		buf.Samples[i*2+1] = v
	}

	return buf
}

func TestRegisterTrackAssignsSequentialIDs(t *testing.T) {
	eng := newTestEngine(t)

	first, err := eng.RegisterTrack("/music/a.flac", tone(6))
	require.NoError(t, err)

	second, err := eng.RegisterTrack("/music/b.flac", tone(6))
	require.NoError(t, err)

	assert.Equal(t, int64(1), first.TrackID)
	assert.Equal(t, int64(2), second.TrackID)
	assert.Equal(t, 3, first.ChunkCount)
}

func TestMetaReturnsErrNotFoundForUnknownTrack(t *testing.T) {
	eng := newTestEngine(t)

	_, err := eng.Meta(999)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestProduceEncodesProcessedChunk(t *testing.T) {
	eng := newTestEngine(t)

	meta, err := eng.RegisterTrack("/music/a.flac", tone(6))
	require.NoError(t, err)

	chunk, err := eng.Produce(context.Background(), cache.Request{
		TrackID:     meta.TrackID,
		ChunkIndex:  0,
		Preset:      types.PresetAdaptive,
		Intensity:   1,
		Origin:      types.OriginProcessed,
		ChunkCount:  meta.ChunkCount,
		ContentHash: meta.ContentHash,
		SampleRate:  meta.SampleRate,
		Channels:    meta.Channels,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, chunk.Data)
	assert.Equal(t, "audio/webm; codecs=opus", chunk.MimeType)
}

func TestProduceOriginalOriginBypassesProcessing(t *testing.T) {
	eng := newTestEngine(t)

	meta, err := eng.RegisterTrack("/music/a.flac", tone(6))
	require.NoError(t, err)

	chunk, err := eng.Produce(context.Background(), cache.Request{
		TrackID:     meta.TrackID,
		ChunkIndex:  0,
		Origin:      types.OriginOriginal,
		ChunkCount:  meta.ChunkCount,
		ContentHash: meta.ContentHash,
		SampleRate:  meta.SampleRate,
		Channels:    meta.Channels,
	})
	require.NoError(t, err)
	assert.Equal(t, types.OriginOriginal, chunk.Origin)
}

func TestProduceUnknownTrackErrors(t *testing.T) {
	eng := newTestEngine(t)

	_, err := eng.Produce(context.Background(), cache.Request{TrackID: 42, ChunkCount: 1})
	assert.ErrorIs(t, err, types.ErrNotFound)
}
