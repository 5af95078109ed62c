// Package cache implements the Streaming Cache: the two-tier (hot/warm)
// store that serves (track, chunk, preset, intensity, enhanced) requests
// cheaply, de-duplicates concurrent work for the same key, and prefetches
// the next chunk at lower priority than on-demand requests.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/farcloser/auralis/internal/types"
)

// Tier identifies which layer served a response, surfaced to the
// transport as the X-Cache-Tier header.
type Tier string

const (
	TierL1       Tier = "L1"
	TierL2       Tier = "L2"
	TierMiss     Tier = "MISS"
	TierOriginal Tier = "ORIGINAL"
)

// Request identifies one cacheable rendering of a chunk.
type Request struct {
	TrackID     int64
	ChunkIndex  int
	Preset      types.PresetBias
	Intensity   float64
	Origin      types.ChunkOrigin
	ChunkCount  int // supplied by the caller so misses can validate range
	ContentHash string
	DurationSec float64
	SampleRate  types.SampleRate
	Channels    int
}

func (r Request) key() types.ChunkKey {
	return types.ChunkKey{ChunkIndex: r.ChunkIndex, Preset: r.Preset, Intensity: r.Intensity, Origin: r.Origin}
}

func (r Request) completeKey() string {
	return fmt.Sprintf("%s|%.3f|%s", r.Preset, r.Intensity, r.Origin)
}

// Producer produces a single Processed Chunk on a cache miss. Implemented
// by the engine: fingerprint lookup/compute, target generation, chunked
// processing, and encoding.
type Producer interface {
	Produce(ctx context.Context, req Request) (*types.ProcessedChunk, error)
}

const (
	hotTierMaxTracks  = 2 // current track + one adjacent
	warmTierMaxTracks = 2
	prefetchQueueSize = 64
)

type pendingEntry struct {
	done   chan struct{}
	result *types.ProcessedChunk
	err    error
}

type pendingKey struct {
	trackID int64
	chunk   types.ChunkKey
}

// Cache is the Streaming Cache. All mutation of its internal state goes
// through mu; the critical section is tiny (map operations), so lookups
// stay cheap even under concurrent load.
type Cache struct {
	mu sync.Mutex

	hot      map[int64]*types.TrackCacheEntry
	hotOrder []int64

	warm      map[int64]*types.TrackCacheEntry
	warmOrder []int64 // front = most recently used

	pending map[pendingKey]*pendingEntry

	producer Producer

	prefetch   chan prefetchTask
	workerSem  *semaphore.Weighted
	workerOnce sync.Once
}

type prefetchTask struct {
	req Request
}

// New builds a Cache around producer with a background prefetch pool of
// workerCount workers (size = CPU cores - 1, minimum 1, per the
// concurrency model).
func New(producer Producer, workerCount int) *Cache {
	if workerCount < 1 {
		workerCount = 1
	}

	c := &Cache{
		hot:       make(map[int64]*types.TrackCacheEntry),
		warm:      make(map[int64]*types.TrackCacheEntry),
		pending:   make(map[pendingKey]*pendingEntry),
		producer:  producer,
		prefetch:  make(chan prefetchTask, prefetchQueueSize),
		workerSem: semaphore.NewWeighted(int64(workerCount)),
	}

	c.startWorkers(workerCount)

	return c
}

func (c *Cache) startWorkers(workerCount int) {
	c.workerOnce.Do(func() {
		for i := 0; i < workerCount; i++ {
			go c.prefetchLoop()
		}
	})
}

func (c *Cache) prefetchLoop() {
	for task := range c.prefetch {
		if err := c.workerSem.Acquire(context.Background(), 1); err != nil {
			continue
		}

		func() {
			defer c.workerSem.Release(1)

			ctx := context.Background()

			if _, _, err := c.Get(ctx, task.req); err != nil {
				slog.Warn("cache: prefetch failed", "track_id", task.req.TrackID, "chunk", task.req.ChunkIndex, "error", err)
			}
		}()
	}
}

// Get serves req from L1, then L2, then falls through to a de-duplicated
// produce-and-store. It also schedules a lower-priority prefetch of the
// next chunk for the same (preset, intensity, enhanced) combination.
func (c *Cache) Get(ctx context.Context, req Request) (*types.ProcessedChunk, Tier, error) {
	if chunk, tier, ok := c.lookup(req); ok {
		c.schedulePrefetch(req)

		return chunk, tier, nil
	}

	chunk, err := c.produceOnce(ctx, req)
	if err != nil {
		return nil, TierMiss, err
	}

	tier := TierMiss
	if req.Origin == types.OriginOriginal {
		tier = TierOriginal
	}

	c.schedulePrefetch(req)

	return chunk, tier, nil
}

func (c *Cache) lookup(req Request) (*types.ProcessedChunk, Tier, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.hot[req.TrackID]; ok {
		if chunk, ok := entry.Chunks[req.key()]; ok {
			return chunk, TierL1, true
		}
	}

	if entry, ok := c.warm[req.TrackID]; ok {
		if chunk, ok := entry.Chunks[req.key()]; ok {
			c.touchWarm(req.TrackID)

			return chunk, TierL2, true
		}
	}

	return nil, "", false
}

// produceOnce runs producer.Produce for req, de-duplicating concurrent
// requests for the same key: a request that misses both tiers inserts a
// pending record and blocks; concurrent requests for the same key observe
// the pending record and wait rather than starting a second encode.
func (c *Cache) produceOnce(ctx context.Context, req Request) (*types.ProcessedChunk, error) {
	key := pendingKey{trackID: req.TrackID, chunk: req.key()}

	c.mu.Lock()

	if existing, ok := c.pending[key]; ok {
		c.mu.Unlock()

		select {
		case <-existing.done:
			return existing.result, existing.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	// The chunk may have been stored after this request's tier lookup.
	for _, tier := range []map[int64]*types.TrackCacheEntry{c.hot, c.warm} {
		if track, ok := tier[req.TrackID]; ok {
			if chunk, ok := track.Chunks[req.key()]; ok {
				c.mu.Unlock()

				return chunk, nil
			}
		}
	}

	entry := &pendingEntry{done: make(chan struct{})}
	c.pending[key] = entry
	c.mu.Unlock()

	chunk, err := c.producer.Produce(ctx, req)

	if err == nil {
		c.store(req, chunk)
	}

	c.mu.Lock()
	entry.result = chunk
	entry.err = err
	delete(c.pending, key)
	c.mu.Unlock()

	close(entry.done)

	return chunk, err
}

// store places a freshly produced chunk into the hot tier, creating the
// track entry if needed and evicting the oldest hot track when the hot
// tier would exceed its track budget.
func (c *Cache) store(req Request, chunk *types.ProcessedChunk) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.hot[req.TrackID]
	if !ok {
		entry = types.NewTrackCacheEntry(req.TrackID, req.ContentHash, req.DurationSec, req.ChunkCount, req.SampleRate, req.Channels)
		c.hot[req.TrackID] = entry
		c.hotOrder = append(c.hotOrder, req.TrackID)

		c.evictHotLocked()
	}

	entry.Chunks[req.key()] = chunk

	rk := req.key()
	produced := 0

	for k := range entry.Chunks {
		if k.Preset == rk.Preset && k.Intensity == rk.Intensity && k.Origin == rk.Origin {
			produced++
		}
	}

	if produced >= entry.ChunkCount {
		entry.Complete[req.completeKey()] = true
	}
}

// evictHotLocked drops the oldest hot-tier track (whole entry) once the
// hot tier holds more than hotTierMaxTracks tracks, demoting it to the
// warm tier first so its already-produced chunks are not wasted.
func (c *Cache) evictHotLocked() {
	for len(c.hotOrder) > hotTierMaxTracks {
		oldest := c.hotOrder[0]
		c.hotOrder = c.hotOrder[1:]

		if entry, ok := c.hot[oldest]; ok {
			delete(c.hot, oldest)
			c.promoteToWarmLocked(oldest, entry)
		}
	}
}

func (c *Cache) promoteToWarmLocked(trackID int64, entry *types.TrackCacheEntry) {
	c.warm[trackID] = entry
	c.warmOrder = append([]int64{trackID}, removeID(c.warmOrder, trackID)...)

	for len(c.warmOrder) > warmTierMaxTracks {
		evicted := c.warmOrder[len(c.warmOrder)-1]
		c.warmOrder = c.warmOrder[:len(c.warmOrder)-1]
		delete(c.warm, evicted)
	}
}

func (c *Cache) touchWarm(trackID int64) {
	c.warmOrder = append([]int64{trackID}, removeID(c.warmOrder, trackID)...)
}

func removeID(ids []int64, target int64) []int64 {
	out := make([]int64, 0, len(ids))

	for _, id := range ids {
		if id != target {
			out = append(out, id)
		}
	}

	return out
}

// schedulePrefetch enqueues production of the next chunk for the same
// (preset, intensity, origin) combination at lower priority than
// on-demand requests. On a full queue, the request is dropped rather than
// blocking the caller, per the documented backpressure policy.
func (c *Cache) schedulePrefetch(req Request) {
	next := req
	next.ChunkIndex = req.ChunkIndex + 1

	if next.ChunkIndex >= req.ChunkCount {
		return
	}

	select {
	case c.prefetch <- prefetchTask{req: next}:
	default:
		slog.Warn("cache: prefetch queue full, dropping task", "track_id", next.TrackID, "chunk", next.ChunkIndex)
	}
}
