// Package config resolves engine configuration from the environment,
// mirroring the existing Options/DefaultOptions pattern used elsewhere in
// this dependency family: a plain struct with a constructor that applies
// defaults and clamps environment-supplied values.
package config

import (
	"os"
	"strconv"

	"github.com/farcloser/auralis/internal/types"
)

const (
	envDataRoot         = "AURALIS_DATA_ROOT"
	envChunkDuration    = "AURALIS_CHUNK_DURATION_SECONDS"
	defaultChunkSeconds = 10.0
	minChunkSeconds     = 5.0
	maxChunkSeconds     = 30.0
)

// Options holds the engine's runtime configuration.
type Options struct {
	DataRoot         string
	ChunkDurationSec float64
	SampleRate       types.SampleRate
}

// DefaultOptions applies environment overrides on top of documented
// defaults: AURALIS_DATA_ROOT defaults to the platform user cache dir, and
// AURALIS_CHUNK_DURATION_SECONDS is clamped to [5, 30].
func DefaultOptions() Options {
	opts := Options{
		DataRoot:         defaultDataRoot(),
		ChunkDurationSec: defaultChunkSeconds,
		SampleRate:       types.Rate48000,
	}

	if raw := os.Getenv(envDataRoot); raw != "" {
		opts.DataRoot = raw
	}

	if raw := os.Getenv(envChunkDuration); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			opts.ChunkDurationSec = clamp(v, minChunkSeconds, maxChunkSeconds)
		}
	}

	return opts
}

func defaultDataRoot() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}

	return dir + "/auralis"
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}

	if v > hi {
		return hi
	}

	return v
}
