//nolint:tagliatelle
package ffprobe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"

	"github.com/farcloser/primordium/fault"

	"github.com/farcloser/auralis/internal/integration/binary"
)

// Result contains the marshalled output of ffprobe.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream represents one stream's probed properties; only the fields the
// decode boundary actually needs are kept.
type Stream struct {
	Index         int    `json:"index"`
	CodecType     string `json:"codec_type"` // "audio"
	CodecName     string `json:"codec_name"`
	SampleRate    string `json:"sample_rate,omitempty"`
	Channels      int    `json:"channels,omitempty"`
	ChannelLayout string `json:"channel_layout,omitempty"`
	Duration      string `json:"duration,omitempty"`
}

// Format represents container-level information.
type Format struct {
	Duration string `json:"duration,omitempty"`
}

// Probe runs ffprobe on the given file path and returns parsed metadata.
// It requires ffprobe to be available in the system PATH.
func Probe(ctx context.Context, filePath string) (*Result, error) {
	slog.Debug("ffprobe.Probe", "file path", filePath)

	ffprobePath, found := binary.Available(name)
	if !found {
		return nil, fmt.Errorf("%w: %s", fault.ErrMissingRequirements, name)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	//nolint:gosec // filePath is intentionally user-provided input for probing media files
	cmd := exec.CommandContext(ctx, ffprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		filePath,
	)

	var stderr bytes.Buffer

	cmd.Stderr = &stderr

	output, err := cmd.Output()
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: after %v", fault.ErrTimeout, timeout)
		}

		return nil, fmt.Errorf("%w: %s: %w", fault.ErrCommandFailure, stderr.String(), err)
	}

	var result Result
	if err = json.Unmarshal(output, &result); err != nil {
		return nil, fmt.Errorf("%w: %w", fault.ErrInvalidJSON, err)
	}

	return &result, nil
}

// FirstAudioStream returns the first audio stream's sample rate and
// channel count, or an error if the probe found none.
func (r *Result) FirstAudioStream() (sampleRate, channels int, err error) {
	for _, s := range r.Streams {
		if s.CodecType != "audio" {
			continue
		}

		rate, convErr := strconv.Atoi(s.SampleRate)
		if convErr != nil {
			return 0, 0, fmt.Errorf("%w: unparsable sample rate %q", fault.ErrInvalidJSON, s.SampleRate)
		}

		return rate, s.Channels, nil
	}

	return 0, 0, fmt.Errorf("%w: no audio stream found", fault.ErrInvalidJSON)
}
