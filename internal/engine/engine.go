// Package engine wires the Fingerprint Store, Fingerprint Generator,
// Adaptive Target Generator, Chunked Processor and encoder boundary
// together behind the cache.Producer interface, so the Streaming Cache
// never needs to know how a chunk miss actually gets filled.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/farcloser/auralis/internal/cache"
	"github.com/farcloser/auralis/internal/chunked"
	"github.com/farcloser/auralis/internal/config"
	"github.com/farcloser/auralis/internal/dsp"
	"github.com/farcloser/auralis/internal/encode"
	"github.com/farcloser/auralis/internal/fingerprint"
	"github.com/farcloser/auralis/internal/fpstore"
	"github.com/farcloser/auralis/internal/target"
	"github.com/farcloser/auralis/internal/types"
)

// fingerprintTimeout bounds how long the Fingerprint Generator collaborator
// may run before the engine falls back to a neutral fingerprint, per the
// degraded-path contract.
const fingerprintTimeout = 8 * time.Second

// TrackMeta is the metadata the transport needs to answer a metadata
// request, independent of any one chunk.
type TrackMeta struct {
	TrackID          int64
	ContentHash      string
	TotalDurationSec float64
	ChunkCount       int
	SampleRate       types.SampleRate
	Channels         int
	Fingerprint      *types.Fingerprint
}

// Engine is the top-level collaborator that owns every decoded track and
// answers cache-miss production requests.
type Engine struct {
	hybrid   *dsp.Processor
	chunked  *chunked.Processor
	fpstore  *fpstore.Store
	chunkDur float64

	mu     sync.RWMutex
	tracks map[int64]*chunked.Track
	nextID int64
}

// New builds an Engine from opts: the Hybrid Processor, Chunked
// Processor and Fingerprint Store it wires are all sized from the same
// configuration so the chunk boundaries the cache serves always match
// the ones the transport advertises.
func New(opts config.Options) (*Engine, error) {
	hybrid, err := dsp.NewProcessor(opts.SampleRate)
	if err != nil {
		return nil, err
	}

	store, err := fpstore.New(opts.DataRoot)
	if err != nil {
		return nil, err
	}

	return &Engine{
		hybrid:   hybrid,
		chunked:  chunked.NewProcessor(hybrid, opts.ChunkDurationSec),
		fpstore:  store,
		chunkDur: opts.ChunkDurationSec,
		tracks:   make(map[int64]*chunked.Track),
	}, nil
}

// RegisterTrack adopts a fully-decoded PCM buffer as a new track and
// returns its metadata, computing its fingerprint synchronously (or
// reusing a cached one) so the first chunk request never pays for it.
func (e *Engine) RegisterTrack(absPath string, pcm *types.PCMBuffer) (TrackMeta, error) {
	if err := pcm.Validate(); err != nil {
		return TrackMeta{}, err
	}

	contentHash := fpstore.Key(absPath, prefixBytes(pcm))

	e.mu.Lock()
	e.nextID++
	trackID := e.nextID

	track := &chunked.Track{TrackID: trackID, ContentHash: contentHash, PCM: pcm}
	e.tracks[trackID] = track
	e.mu.Unlock()

	fp := track.Fingerprint(func() *types.Fingerprint {
		return e.fingerprintFor(context.Background(), contentHash, pcm)
	})

	return TrackMeta{
		TrackID:          trackID,
		ContentHash:      contentHash,
		TotalDurationSec: float64(pcm.Frames) / float64(pcm.SampleRate),
		ChunkCount:       chunked.ChunkCount(track, e.chunkDur),
		SampleRate:       pcm.SampleRate,
		Channels:         pcm.Channels,
		Fingerprint:      fp,
	}, nil
}

// Meta returns the registered metadata for trackID.
func (e *Engine) Meta(trackID int64) (TrackMeta, error) {
	e.mu.RLock()
	track, ok := e.tracks[trackID]
	e.mu.RUnlock()

	if !ok {
		return TrackMeta{}, fmt.Errorf("%w: track %d", types.ErrNotFound, trackID)
	}

	fp := track.Fingerprint(func() *types.Fingerprint {
		return e.fingerprintFor(context.Background(), track.ContentHash, track.PCM)
	})

	return TrackMeta{
		TrackID:          track.TrackID,
		ContentHash:      track.ContentHash,
		TotalDurationSec: float64(track.PCM.Frames) / float64(track.PCM.SampleRate),
		ChunkCount:       chunked.ChunkCount(track, e.chunkDur),
		SampleRate:       track.PCM.SampleRate,
		Channels:         track.PCM.Channels,
		Fingerprint:      fp,
	}, nil
}

// Produce implements cache.Producer: it resolves the track, derives (or
// reuses) its Target Profile for the requested preset/intensity, runs the
// Chunked Processor (or the pass-through path for an "original" request),
// and encodes the result.
func (e *Engine) Produce(ctx context.Context, req cache.Request) (*types.ProcessedChunk, error) {
	e.mu.RLock()
	track, ok := e.tracks[req.TrackID]
	e.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: track %d", types.ErrNotFound, req.TrackID)
	}

	start, end := chunked.ChunkBounds(track, req.ChunkIndex, e.chunkDur)
	durationSec := float64(end-start) / float64(track.PCM.SampleRate)

	var pcm *types.PCMBuffer

	var err error

	if req.Origin == types.OriginOriginal {
		pcm, err = chunked.SliceOriginal(track, req.ChunkIndex, e.chunkDur)
	} else {
		fp := track.Fingerprint(func() *types.Fingerprint {
			return e.fingerprintFor(ctx, track.ContentHash, track.PCM)
		})
		profile := target.Generate(fp, req.Preset, req.Intensity)
		pcm, err = e.chunked.ProcessChunk(track, req.ChunkIndex, &profile)
	}

	if err != nil {
		return nil, err
	}

	data, err := encode.Encode(pcm)
	if err != nil {
		return nil, err
	}

	return &types.ProcessedChunk{
		ChunkIndex:  req.ChunkIndex,
		StartSec:    float64(start) / float64(track.PCM.SampleRate),
		DurationSec: durationSec,
		Frames:      pcm.Frames,
		Data:        data,
		MimeType:    "audio/webm; codecs=opus",
		Origin:      req.Origin,
	}, nil
}

// fingerprintFor loads a stored fingerprint, computing and persisting one
// on a miss. Computation is bounded by fingerprintTimeout: if it does not
// finish in time the engine falls back to a neutral fingerprint rather
// than stalling the caller indefinitely.
func (e *Engine) fingerprintFor(ctx context.Context, contentHash string, pcm *types.PCMBuffer) *types.Fingerprint {
	if fp, ok := e.fpstore.Load(contentHash); ok {
		return fp
	}

	type result struct {
		fp *types.Fingerprint
	}

	done := make(chan result, 1)

	go func() {
		done <- result{fp: fingerprint.Generate(pcm)}
	}()

	select {
	case r := <-done:
		if err := e.fpstore.Store(contentHash, r.fp); err != nil {
			slog.Warn("engine: failed to persist fingerprint", "error", err)
		}

		return r.fp

	case <-time.After(fingerprintTimeout):
		slog.Warn("engine: fingerprint generation timed out, using neutral fingerprint")
		neutral := types.NeutralFingerprint(float64(pcm.Frames) / float64(pcm.SampleRate))

		return &neutral

	case <-ctx.Done():
		neutral := types.NeutralFingerprint(float64(pcm.Frames) / float64(pcm.SampleRate))

		return &neutral
	}
}

func prefixBytes(pcm *types.PCMBuffer) []byte {
	const prefixSamples = 1 << 17 // ~1MiB of float64 samples

	n := min(len(pcm.Samples), prefixSamples)
	out := make([]byte, n*8)

	for i := 0; i < n; i++ {
		bits := math.Float64bits(pcm.Samples[i])
		for b := 0; b < 8; b++ {
			out[i*8+b] = byte(bits >> (8 * b))
		}
	}

	return out
}
