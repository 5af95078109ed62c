// Package opus wraps the pure-Go Opus encoder used by the encoder
// boundary (spec.md §4.6): PCM in, Opus packets out, plus the fixed-format
// Opus ID header WebM muxing needs as CodecPrivate.
package opus

import (
	"encoding/binary"
	"fmt"

	"github.com/thesyncim/gopus"

	"github.com/farcloser/auralis/internal/types"
)

const (
	// FrameSizeMs is the Opus frame duration used for every encoded packet.
	// 20ms is the standard choice balancing latency and overhead.
	FrameSizeMs = 20

	targetBitrate = 192_000 // ~192 kbps VBR, per the encoder contract
)

// Encoder wraps one gopus encoder instance. No process-wide global state is
// held: every Encoder is independent, per the encoder boundary contract.
type Encoder struct {
	enc        *gopus.Encoder
	sampleRate int
	channels   int
	frameSize  int
}

// NewEncoder builds an Encoder at sampleRate (must be 48000; the engine's
// other supported rate, 44100, is resampled to 48000 by the caller before
// reaching here, per the encoder boundary's documented resampling
// behaviour).
func NewEncoder(sampleRate, channels int) (*Encoder, error) {
	enc, err := gopus.NewEncoder(sampleRate, channels, gopus.ApplicationAudio)
	if err != nil {
		return nil, fmt.Errorf("%w: opus encoder init: %w", types.ErrEncodeFailure, err)
	}

	enc.SetBitrate(targetBitrate)
	enc.SetVBR(true)

	return &Encoder{
		enc:        enc,
		sampleRate: sampleRate,
		channels:   channels,
		frameSize:  sampleRate * FrameSizeMs / 1000,
	}, nil
}

// FrameSize is the fixed number of frames (samples per channel) per Opus
// packet this encoder emits.
func (e *Encoder) FrameSize() int { return e.frameSize }

// EncodeFrame encodes exactly one frame (e.FrameSize() frames,
// interleaved) into an Opus packet.
func (e *Encoder) EncodeFrame(interleaved []float32) ([]byte, error) {
	out := make([]byte, 4000)

	n, err := e.enc.Encode(interleaved, out)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrEncodeFailure, err)
	}

	return out[:n], nil
}

// IDHeader builds the Opus ID header (RFC 7845 §5.1) used as WebM
// CodecPrivate: this is a fixed binary layout, not something the encoder
// library itself produces.
func IDHeader(channels int, preSkip uint16, inputSampleRate uint32) []byte {
	header := make([]byte, 19)
	copy(header[0:8], []byte("OpusHead"))
	header[8] = 1 // version
	header[9] = byte(channels)
	binary.LittleEndian.PutUint16(header[10:12], preSkip)
	binary.LittleEndian.PutUint32(header[12:16], inputSampleRate)
	binary.LittleEndian.PutUint16(header[16:18], 0) // output gain
	header[18] = 0                                  // channel mapping family 0 (mono/stereo)

	return header
}
