// Package ffmpeg implements the CLI-only decode boundary: shelling out to
// ffmpeg to turn an arbitrary audio file into the interleaved float64 PCM
// the engine consumes. The HTTP-served path never touches this package —
// it only exists for cmd/auralis-engine's "master" subcommand and for
// tests that need real decoded audio.
package ffmpeg

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os/exec"
	"time"

	"github.com/farcloser/primordium/fault"

	intbinary "github.com/farcloser/auralis/internal/integration/binary"
	"github.com/farcloser/auralis/internal/integration/ffprobe"
	"github.com/farcloser/auralis/internal/types"
)

const (
	name = "ffmpeg"
	// Slow hard-drives spinning up or network retrieved resources may cause timeouts if too aggressive.
	timeout = 60 * time.Second
)

// Decode probes path with ffprobe, extracts it to interleaved float64 PCM
// at its native sample rate via ffmpeg, and returns a PCM Buffer ready for
// the engine (upmixed to stereo if the source is mono). It never
// resamples: if the source is at a rate the engine does not support, the
// caller must reject it rather than have this boundary silently resample
// (the engine's filter bank is designed for a fixed rate table).
func Decode(ctx context.Context, path string) (*types.PCMBuffer, error) {
	probed, err := ffprobe.Probe(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("%w: probing %s: %w", types.ErrDecodeFailure, path, err)
	}

	sampleRate, channels, err := probed.FirstAudioStream()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", types.ErrDecodeFailure, path, err)
	}

	raw, err := extractFloat64LE(ctx, path)
	if err != nil {
		return nil, err
	}

	if len(raw)%8 != 0 {
		raw = raw[:len(raw)-len(raw)%8]
	}

	samples := make([]float64, len(raw)/8)
	for i := range samples {
		bits := binary.LittleEndian.Uint64(raw[i*8 : i*8+8])
		samples[i] = math.Float64frombits(bits)
	}

	if channels < 1 {
		channels = 1
	}

	frames := len(samples) / channels
	samples = samples[:frames*channels]

	buf := &types.PCMBuffer{
		SampleRate: types.SampleRate(sampleRate),
		Channels:   channels,
		Frames:     frames,
		Samples:    samples,
	}

	if buf.Channels == 1 {
		buf = monoToStereo(buf)
	}

	return buf, nil
}

func monoToStereo(mono *types.PCMBuffer) *types.PCMBuffer {
	out := types.NewPCMBuffer(mono.SampleRate, 2, mono.Frames)

	for i := 0; i < mono.Frames; i++ {
		out.Samples[i*2] = mono.Samples[i]
		out.Samples[i*2+1] = mono.Samples[i]
	}

	return out
}

// extractFloat64LE shells out to ffmpeg to decode path to raw interleaved
// 64-bit float PCM at its native sample rate and channel layout.
func extractFloat64LE(ctx context.Context, path string) ([]byte, error) {
	slog.Debug("ffmpeg.extractFloat64LE", "path", path, "stage", "start")

	ffmpegPath, found := intbinary.Available(name)
	if !found {
		return nil, fmt.Errorf("%w: %s", fault.ErrMissingRequirements, name)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	//nolint:gosec // path is intentionally user-provided input for decoding media files
	cmd := exec.CommandContext(ctx, ffmpegPath,
		"-v", "quiet",
		"-i", path,
		"-f", "f64le",
		"-acodec", "pcm_f64le",
		"-",
	)

	var stdout, stderr bytes.Buffer

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: after %v", fault.ErrTimeout, timeout)
		}

		return nil, fmt.Errorf("%w: %s: %w", fault.ErrCommandFailure, stderr.String(), err)
	}

	return stdout.Bytes(), nil
}
