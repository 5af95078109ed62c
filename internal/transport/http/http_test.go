package http

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farcloser/auralis/internal/cache"
	"github.com/farcloser/auralis/internal/config"
	"github.com/farcloser/auralis/internal/engine"
	"github.com/farcloser/auralis/internal/types"
)

func testServer(t *testing.T) (*Server, *engine.Engine) {
	t.Helper()

	opts := config.Options{DataRoot: t.TempDir(), ChunkDurationSec: 2, SampleRate: types.Rate48000}

	eng, err := engine.New(opts)
	require.NoError(t, err)

	c := cache.New(eng, 1)

	return NewServer(eng, c, opts.ChunkDurationSec, false), eng
}

func registerTone(t *testing.T, eng *engine.Engine, seconds float64) engine.TrackMeta {
	t.Helper()

	rate := 48000
	frames := int(float64(rate) * seconds)

	buf := types.NewPCMBuffer(types.Rate48000, 2, frames)
	for i := 0; i < frames; i++ {
		v := 0.2 * math.Sin(2*math.Pi*440*float64(i)/float64(rate))
		buf.Samples[i*2] = v
		buf.Samples[i*2+1] = v
	}

	meta, err := eng.RegisterTrack("/music/a.flac", buf)
	require.NoError(t, err)

	return meta
}

func TestHandleMetadataReturnsTrackShape(t *testing.T) {
	server, eng := testServer(t)
	meta := registerTone(t, eng, 6)

	mux := http.NewServeMux()
	server.Routes(mux)

	req := httptest.NewRequest(http.MethodGet, "/metadata?track_id="+itoa(meta.TrackID), nil)
	rec := httptest.NewRecorder()

	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp metadataResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, meta.ChunkCount, resp.ChunkCount)
	assert.Equal(t, 2.0, resp.ChunkDurationSeconds)
}

func TestHandleMetadataUnknownTrackReturns404(t *testing.T) {
	server, _ := testServer(t)

	mux := http.NewServeMux()
	server.Routes(mux)

	req := httptest.NewRequest(http.MethodGet, "/metadata?track_id=9999", nil)
	rec := httptest.NewRecorder()

	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleMetadataInvalidTrackIDReturns400(t *testing.T) {
	server, _ := testServer(t)

	mux := http.NewServeMux()
	server.Routes(mux)

	req := httptest.NewRequest(http.MethodGet, "/metadata?track_id=not-a-number", nil)
	rec := httptest.NewRecorder()

	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleChunkServesEncodedAudioWithHeaders(t *testing.T) {
	server, eng := testServer(t)
	meta := registerTone(t, eng, 6)

	mux := http.NewServeMux()
	server.Routes(mux)

	req := httptest.NewRequest(http.MethodGet, "/chunk?track_id="+itoa(meta.TrackID)+"&chunk=0", nil)
	rec := httptest.NewRecorder()

	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-Chunk-Index"))
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache-Tier"))
	assert.NotEmpty(t, rec.Body.Bytes())
}

func TestHandleChunkEnhancedFalseUsesOriginalOrigin(t *testing.T) {
	server, eng := testServer(t)
	meta := registerTone(t, eng, 6)

	mux := http.NewServeMux()
	server.Routes(mux)

	req := httptest.NewRequest(http.MethodGet, "/chunk?track_id="+itoa(meta.TrackID)+"&chunk=0&enhanced=false", nil)
	rec := httptest.NewRecorder()

	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleChunkInvalidChunkIndexReturns400(t *testing.T) {
	server, eng := testServer(t)
	meta := registerTone(t, eng, 6)

	mux := http.NewServeMux()
	server.Routes(mux)

	req := httptest.NewRequest(http.MethodGet, "/chunk?track_id="+itoa(meta.TrackID)+"&chunk=not-a-number", nil)
	rec := httptest.NewRecorder()

	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
