// Package chunked implements the Chunked Processor: it slices a decoded
// track into fixed-duration, crossfade-padded windows and runs each one
// through the Hybrid Processor in fixed-target mode so every chunk of a
// track masters to the same Target Profile.
package chunked

import (
	"fmt"
	"sync"

	"github.com/farcloser/auralis/internal/dsp"
	"github.com/farcloser/auralis/internal/types"
)

const overlapSeconds = 0.25

// Track is a fully-decoded source recording: the PCM buffer plus the
// identifiers the cache layer keys on.
type Track struct {
	TrackID     int64
	ContentHash string
	PCM         *types.PCMBuffer

	fpOnce sync.Once
	fp     *types.Fingerprint
}

// Fingerprint returns the track's fingerprint, calling load at most once
// per track regardless of how many callers (metadata requests, chunk
// requests) ask for it concurrently: a Track is produced once by
// RegisterTrack and its content never changes, so the store lookup /
// generator call behind load only needs to happen the first time.
func (t *Track) Fingerprint(load func() *types.Fingerprint) *types.Fingerprint {
	t.fpOnce.Do(func() {
		t.fp = load()
	})

	return t.fp
}

// ChunkCount returns ceil(frames / (chunkDuration*rate)).
func ChunkCount(t *Track, chunkDurationSec float64) int {
	frames := t.PCM.Frames
	d := framesPerChunk(t.PCM.SampleRate, chunkDurationSec)

	if frames == 0 {
		return 0
	}

	return (frames + d - 1) / d
}

func framesPerChunk(rate types.SampleRate, chunkDurationSec float64) int {
	return max(1, int(float64(rate)*chunkDurationSec))
}

// Processor is the Chunked Processor.
type Processor struct {
	hybrid           *dsp.Processor
	chunkDurationSec float64
}

// NewProcessor builds a Chunked Processor around a Hybrid Processor fixed
// to chunkDurationSec-long windows.
func NewProcessor(hybrid *dsp.Processor, chunkDurationSec float64) *Processor {
	return &Processor{hybrid: hybrid, chunkDurationSec: chunkDurationSec}
}

// ProcessChunk produces the processed PCM for chunk index i of t using
// profile, always in fixed-target mode: per-chunk target derivation is
// forbidden since it would cause LUFS/EQ drift across chunks.
func (p *Processor) ProcessChunk(t *Track, index int, profile *types.TargetProfile) (*types.PCMBuffer, error) {
	d := framesPerChunk(t.PCM.SampleRate, p.chunkDurationSec)
	totalFrames := t.PCM.Frames
	chunkCount := ChunkCount(t, p.chunkDurationSec)

	if index < 0 || index >= chunkCount {
		return nil, fmt.Errorf("%w: chunk %d out of range (0..%d)", types.ErrNotFound, index, chunkCount-1)
	}

	start := index * d
	end := min(start+d, totalFrames)

	if start >= end {
		return types.NewPCMBuffer(t.PCM.SampleRate, t.PCM.Channels, 0), nil
	}

	overlapFrames := int(overlapSeconds * float64(t.PCM.SampleRate))

	padStart := max(0, start-overlapFrames)
	padEnd := min(totalFrames, end+overlapFrames)

	padded := sliceBuffer(t.PCM, padStart, padEnd)

	processed, err := p.hybrid.Process(padded, profile)
	if err != nil {
		return nil, fmt.Errorf("%w: chunk %d: %w", types.ErrInternal, index, err)
	}

	// Discard the padding: the emitted region is exactly [start, end),
	// offset into the processed buffer by how much lead-in padding was
	// prepended.
	leadIn := start - padStart
	emittedFrames := end - start

	emitted := types.NewPCMBuffer(processed.SampleRate, processed.Channels, emittedFrames)
	copy(emitted.Samples, processed.Samples[leadIn*processed.Channels:(leadIn+emittedFrames)*processed.Channels])

	return emitted, nil
}

// SliceOriginal returns the unprocessed PCM for chunk index i of t,
// with no crossfade padding and no DSP chain applied: the pass-through
// path for the "original" chunk origin.
func SliceOriginal(t *Track, index int, chunkDurationSec float64) (*types.PCMBuffer, error) {
	chunkCount := ChunkCount(t, chunkDurationSec)
	if index < 0 || index >= chunkCount {
		return nil, fmt.Errorf("%w: chunk %d out of range (0..%d)", types.ErrNotFound, index, chunkCount-1)
	}

	start, end := ChunkBounds(t, index, chunkDurationSec)

	return sliceBuffer(t.PCM, start, end), nil
}

func sliceBuffer(buf *types.PCMBuffer, start, end int) *types.PCMBuffer {
	frames := end - start
	out := types.NewPCMBuffer(buf.SampleRate, buf.Channels, frames)
	copy(out.Samples, buf.Samples[start*buf.Channels:end*buf.Channels])

	return out
}

// ChunkBounds returns the exact [startFrame, endFrame) an emitted chunk
// tiles, for callers that need start-time/duration metadata without
// running the DSP chain (e.g. the original/pass-through path).
func ChunkBounds(t *Track, index int, chunkDurationSec float64) (start, end int) {
	d := framesPerChunk(t.PCM.SampleRate, chunkDurationSec)
	start = index * d
	end = min(start+d, t.PCM.Frames)

	return start, end
}
