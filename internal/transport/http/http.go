// Package http implements the HTTP boundary: GET /chunk and GET
// /metadata over the Streaming Cache and the Engine, per the documented
// external interface.
package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/farcloser/auralis/internal/cache"
	"github.com/farcloser/auralis/internal/engine"
	"github.com/farcloser/auralis/internal/types"
)

// Server binds the chunk and metadata handlers over an Engine/Cache pair.
type Server struct {
	eng            *engine.Engine
	cache          *cache.Cache
	chunkDuration  float64
	strictDegraded bool
}

// NewServer builds a Server. chunkDurationSec is advertised verbatim on
// every chunk response so clients never need to hardcode it.
func NewServer(eng *engine.Engine, c *cache.Cache, chunkDurationSec float64, strictDegraded bool) *Server {
	return &Server{eng: eng, cache: c, chunkDuration: chunkDurationSec, strictDegraded: strictDegraded}
}

// Routes registers the engine's handlers onto mux.
func (s *Server) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /chunk", s.handleChunk)
	mux.HandleFunc("GET /metadata", s.handleMetadata)
}

func (s *Server) handleMetadata(w http.ResponseWriter, r *http.Request) {
	trackID, err := parseInt64(r.URL.Query().Get("track_id"))
	if err != nil {
		http.Error(w, "invalid track_id", http.StatusBadRequest)

		return
	}

	meta, err := s.eng.Meta(trackID)
	if err != nil {
		writeError(w, err)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, metadataResponse{
		ChunkCount:           meta.ChunkCount,
		ChunkDurationSeconds: s.chunkDuration,
		SampleRate:           int(meta.SampleRate),
		Channels:             meta.Channels,
		TotalDurationSeconds: meta.TotalDurationSec,
	})
}

type metadataResponse struct {
	ChunkCount           int     `json:"chunk_count"`
	ChunkDurationSeconds float64 `json:"chunk_duration_seconds"`
	SampleRate           int     `json:"sample_rate"`
	Channels             int     `json:"channels"`
	TotalDurationSeconds float64 `json:"total_duration_seconds"`
}

func (s *Server) handleChunk(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	trackID, err := parseInt64(q.Get("track_id"))
	if err != nil {
		http.Error(w, "invalid track_id", http.StatusBadRequest)

		return
	}

	chunkIndex, err := strconv.Atoi(q.Get("chunk"))
	if err != nil {
		http.Error(w, "invalid chunk", http.StatusBadRequest)

		return
	}

	preset := types.ParsePresetBias(q.Get("preset"))

	intensity := 1.0
	if raw := q.Get("intensity"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			intensity = v
		}
	}

	enhanced := true
	if raw := q.Get("enhanced"); raw == "false" {
		enhanced = false
	}

	origin := types.OriginProcessed
	if !enhanced {
		origin = types.OriginOriginal
	}

	meta, err := s.eng.Meta(trackID)
	if err != nil {
		writeError(w, err)

		return
	}

	req := cache.Request{
		TrackID:     trackID,
		ChunkIndex:  chunkIndex,
		Preset:      preset,
		Intensity:   intensity,
		Origin:      origin,
		ChunkCount:  meta.ChunkCount,
		ContentHash: meta.ContentHash,
		DurationSec: meta.TotalDurationSec,
		SampleRate:  meta.SampleRate,
		Channels:    meta.Channels,
	}

	chunk, tier, err := s.cache.Get(r.Context(), req)
	if err != nil {
		if s.strictDegraded && errors.Is(err, types.ErrFingerprintUnavailable) {
			http.Error(w, "fingerprint unavailable", http.StatusServiceUnavailable)

			return
		}

		writeError(w, err)

		return
	}

	w.Header().Set("Content-Type", chunk.MimeType)
	w.Header().Set("X-Chunk-Index", strconv.Itoa(chunk.ChunkIndex))
	w.Header().Set("X-Chunk-Duration-Seconds", strconv.FormatFloat(s.chunkDuration, 'f', -1, 64))
	w.Header().Set("X-Cache-Tier", string(tier))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(chunk.Data)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, types.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, types.ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, types.ErrDecodeFailure):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, types.ErrEncodeFailure):
		http.Error(w, err.Error(), http.StatusInternalServerError)
	case errors.Is(err, types.ErrFingerprintUnavailable):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	default:
		slog.Error("http: internal error", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func parseInt64(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}

// writeJSON marshals v with the standard library encoder directly onto
// the response writer: these payloads are small and fixed-shape, so there
// is no benefit to buffering through a discrete Marshal call.
func writeJSON(w http.ResponseWriter, v any) {
	_ = json.NewEncoder(w).Encode(v)
}
