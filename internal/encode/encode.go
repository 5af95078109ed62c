// Package encode implements the encoder boundary (spec.md §4.6): a single
// Encode function taking a PCM buffer and returning a self-contained WebM
// segment carrying one Opus audio track, resampling to 48 kHz when the
// engine ran at 44.1 kHz.
package encode

import (
	"fmt"

	"github.com/farcloser/auralis/internal/encode/opus"
	"github.com/farcloser/auralis/internal/encode/webm"
	"github.com/farcloser/auralis/internal/types"
)

const outputSampleRate = 48000

// Encode turns buf into WebM/Opus bytes. Given the same PCM in, it
// produces byte-identical output, so repeated requests for the same chunk
// are idempotent and toggling caches cleanly.
func Encode(buf *types.PCMBuffer) ([]byte, error) {
	resampled := resampleTo48k(buf)

	enc, err := opus.NewEncoder(outputSampleRate, resampled.Channels)
	if err != nil {
		return nil, err
	}

	frameSize := enc.FrameSize()
	totalFrames := resampled.Frames
	channels := resampled.Channels

	var packets []webm.Packet

	timecodeMs := int64(0)
	frameDurationMs := int64(1000 * frameSize / outputSampleRate)

	for start := 0; start < totalFrames; start += frameSize {
		end := min(start+frameSize, totalFrames)

		frame := make([]float32, frameSize*channels)
		for i := start * channels; i < end*channels; i++ {
			frame[i-start*channels] = float32(resampled.Samples[i])
		}

		packet, err := enc.EncodeFrame(frame)
		if err != nil {
			return nil, fmt.Errorf("%w: frame at %dms: %w", types.ErrEncodeFailure, timecodeMs, err)
		}

		packets = append(packets, webm.Packet{TimecodeMs: timecodeMs, Data: packet})
		timecodeMs += frameDurationMs
	}

	header := opus.IDHeader(channels, 0, uint32(buf.SampleRate))

	return webm.Mux(outputSampleRate, channels, header, packets), nil
}

// resampleTo48k returns buf unchanged if it is already at 48 kHz;
// otherwise it linearly resamples from 44.1 kHz, the only other rate the
// engine accepts.
func resampleTo48k(buf *types.PCMBuffer) *types.PCMBuffer {
	if buf.SampleRate == outputSampleRate {
		return buf
	}

	ratio := float64(outputSampleRate) / float64(buf.SampleRate)
	outFrames := int(float64(buf.Frames) * ratio)

	out := types.NewPCMBuffer(types.SampleRate(outputSampleRate), buf.Channels, outFrames)

	for frame := 0; frame < outFrames; frame++ {
		srcPos := float64(frame) / ratio
		srcFrame := int(srcPos)
		frac := srcPos - float64(srcFrame)

		for ch := 0; ch < buf.Channels; ch++ {
			a := sampleAt(buf, srcFrame, ch)
			b := sampleAt(buf, srcFrame+1, ch)
			out.Samples[frame*buf.Channels+ch] = a + (b-a)*frac
		}
	}

	return out
}

func sampleAt(buf *types.PCMBuffer, frame, ch int) float64 {
	if frame < 0 || frame >= buf.Frames {
		return 0
	}

	return buf.Samples[frame*buf.Channels+ch]
}
