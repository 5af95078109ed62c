// Package types holds the data model shared by every engine component:
// PCM buffers, fingerprints, target profiles, processed chunks, and the
// cache/store records built from them.
package types

import (
	"fmt"
	"math"
)

// SampleRate is a sample rate the engine is allowed to run at. The engine
// refuses any other rate rather than guessing at filter coefficients for it.
type SampleRate int

const (
	Rate44100 SampleRate = 44100
	Rate48000 SampleRate = 48000
)

// Supported reports whether r is one of the rates the engine accepts.
func (r SampleRate) Supported() bool {
	return r == Rate44100 || r == Rate48000
}

// PCMBuffer is an owned, contiguous block of interleaved float64 samples.
// Layout is interleaved stereo: Samples[2*i] is the left sample of frame i,
// Samples[2*i+1] the right sample.
type PCMBuffer struct {
	SampleRate SampleRate
	Channels   int
	Frames     int
	Samples    []float64
}

// NewPCMBuffer allocates a zeroed interleaved buffer with the given channel
// and frame count.
func NewPCMBuffer(rate SampleRate, channels, frames int) *PCMBuffer {
	return &PCMBuffer{
		SampleRate: rate,
		Channels:   channels,
		Frames:     frames,
		Samples:    make([]float64, frames*channels),
	}
}

// Validate checks the structural invariants of the buffer: frame count times
// channel count must equal the sample slice length, and no sample may be
// NaN or Inf.
func (b *PCMBuffer) Validate() error {
	if b.Channels != 2 {
		return fmt.Errorf("%w: channel count %d, expected 2", ErrInvalidInput, b.Channels)
	}

	if len(b.Samples) != b.Frames*b.Channels {
		return fmt.Errorf("%w: sample count %d does not match frames*channels (%d)",
			ErrInvalidInput, len(b.Samples), b.Frames*b.Channels)
	}

	for _, s := range b.Samples {
		if math.IsNaN(s) || math.IsInf(s, 0) {
			return fmt.Errorf("%w: non-finite sample", ErrInvalidInput)
		}
	}

	return nil
}

// Clone returns a deep copy of the buffer with an independent sample slice.
func (b *PCMBuffer) Clone() *PCMBuffer {
	out := &PCMBuffer{
		SampleRate: b.SampleRate,
		Channels:   b.Channels,
		Frames:     b.Frames,
		Samples:    make([]float64, len(b.Samples)),
	}
	copy(out.Samples, b.Samples)

	return out
}

// ContentClass is the closed set of recording-character tags a fingerprint
// may carry.
type ContentClass int

const (
	ClassUnknown ContentClass = iota
	ClassStudio
	ClassLive
	ClassAcoustic
	ClassElectronic
	ClassCompressedLoud
	ClassQuietDynamic
)

func (c ContentClass) String() string {
	switch c {
	case ClassStudio:
		return "studio"
	case ClassLive:
		return "live"
	case ClassAcoustic:
		return "acoustic"
	case ClassElectronic:
		return "electronic"
	case ClassCompressedLoud:
		return "compressed_loud"
	case ClassQuietDynamic:
		return "quiet_dynamic"
	default:
		return "unknown"
	}
}

// ParseContentClass parses the closed-set string form back into a ContentClass.
func ParseContentClass(s string) ContentClass {
	switch s {
	case "studio":
		return ClassStudio
	case "live":
		return ClassLive
	case "acoustic":
		return ClassAcoustic
	case "electronic":
		return ClassElectronic
	case "compressed_loud":
		return ClassCompressedLoud
	case "quiet_dynamic":
		return ClassQuietDynamic
	default:
		return ClassUnknown
	}
}

// PresetBias is the categorical modifier applied by the Adaptive Target Generator.
type PresetBias int

const (
	PresetAdaptive PresetBias = iota
	PresetGentle
	PresetWarm
	PresetBright
	PresetPunchy
)

func (p PresetBias) String() string {
	switch p {
	case PresetGentle:
		return "gentle"
	case PresetWarm:
		return "warm"
	case PresetBright:
		return "bright"
	case PresetPunchy:
		return "punchy"
	default:
		return "adaptive"
	}
}

// ParsePresetBias parses a preset tag, falling back to PresetAdaptive for
// anything unrecognised.
func ParsePresetBias(s string) PresetBias {
	switch s {
	case "gentle":
		return PresetGentle
	case "warm":
		return PresetWarm
	case "bright":
		return PresetBright
	case "punchy":
		return PresetPunchy
	default:
		return PresetAdaptive
	}
}

// EQBandCount is the fixed number of Psychoacoustic EQ bands.
const EQBandCount = 32

// Fingerprint is the immutable 25-dimension content summary of a track.
type Fingerprint struct {
	// Loudness
	IntegratedLUFS  float64
	LoudnessRangeLU float64
	TruePeakDBTP    float64
	CrestFactor     float64
	RMSDb           float64

	// Spectral
	SpectralCentroidHz float64
	SpectralRolloffHz  float64
	SpectralFlux       float64
	SubBassPct         float64
	BassPct            float64
	LowMidPct          float64
	MidPct             float64
	UpperMidPct        float64
	PresencePct        float64
	AirPct             float64

	// Dynamics
	DREbuDb          float64
	TransientDensity float64
	AttackSharpness  float64

	// Stereo
	StereoWidth      float64
	PhaseCorrelation float64
	SideEnergyDb     float64

	// Temporal
	TempoBPM        float64
	RhythmStability float64
	OnsetRate       float64

	// Meta
	DurationSeconds float64
	ContentClassID  int

	ContentClass ContentClass
	Confidence   float64
}

// bandPctTolerance is the allowed deviation of the 7 band percentages from 1.0.
const bandPctTolerance = 1e-3

// Validate checks the Fingerprint invariants: every field finite, and the
// seven band percentages summing to 1.0 within tolerance.
func (f *Fingerprint) Validate() error {
	fields := []float64{
		f.IntegratedLUFS, f.LoudnessRangeLU, f.TruePeakDBTP, f.CrestFactor, f.RMSDb,
		f.SpectralCentroidHz, f.SpectralRolloffHz, f.SpectralFlux,
		f.SubBassPct, f.BassPct, f.LowMidPct, f.MidPct, f.UpperMidPct, f.PresencePct, f.AirPct,
		f.DREbuDb, f.TransientDensity, f.AttackSharpness,
		f.StereoWidth, f.PhaseCorrelation, f.SideEnergyDb,
		f.TempoBPM, f.RhythmStability, f.OnsetRate,
		f.DurationSeconds, f.Confidence,
	}

	for _, v := range fields {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite fingerprint field", ErrInvalidInput)
		}
	}

	sum := f.SubBassPct + f.BassPct + f.LowMidPct + f.MidPct + f.UpperMidPct + f.PresencePct + f.AirPct
	if math.Abs(sum-1.0) > bandPctTolerance {
		return fmt.Errorf("%w: band percentages sum to %.6f, expected 1.0 +/- %.g", ErrInvalidInput, sum, bandPctTolerance)
	}

	return nil
}

// NeutralFingerprint is the degraded-path fallback used when the fingerprint
// generator collaborator times out: content_class = unknown, every measured
// value at a neutral midpoint.
func NeutralFingerprint(durationSeconds float64) Fingerprint {
	return Fingerprint{
		IntegratedLUFS:     -16,
		LoudnessRangeLU:    8,
		TruePeakDBTP:       -1,
		CrestFactor:        12,
		RMSDb:              -18,
		SpectralCentroidHz: 2000,
		SpectralRolloffHz:  8000,
		SpectralFlux:       0.1,
		SubBassPct:         1.0 / 7,
		BassPct:            1.0 / 7,
		LowMidPct:          1.0 / 7,
		MidPct:             1.0 / 7,
		UpperMidPct:        1.0 / 7,
		PresencePct:        1.0 / 7,
		AirPct:             1.0 / 7,
		DREbuDb:            10,
		TransientDensity:   0.3,
		AttackSharpness:    0.5,
		StereoWidth:        1.0,
		PhaseCorrelation:   0.5,
		SideEnergyDb:       -12,
		TempoBPM:           120,
		RhythmStability:    0.5,
		OnsetRate:          2.0,
		DurationSeconds:    durationSeconds,
		ContentClassID:     int(ClassUnknown),
		ContentClass:       ClassUnknown,
		Confidence:         0,
	}
}

// MakeupMode selects how the Advanced Dynamics stage applies makeup gain.
type MakeupMode int

const (
	MakeupAuto MakeupMode = iota
	MakeupFixed
)

// CompressorParams configures the Advanced Dynamics stage.
type CompressorParams struct {
	ThresholdDb   float64
	Ratio         float64
	AttackMs      float64
	ReleaseMs     float64
	MakeupMode    MakeupMode
	MakeupFixedDb float64
}

// TargetProfile is the concrete DSP plan the Hybrid Processor tries to hit.
type TargetProfile struct {
	IntegratedLUFSTarget  float64
	TruePeakCeilingDBTP   float64
	EQBandGainsDb         [EQBandCount]float64
	Compressor            CompressorParams
	SoftClipThresholdDb   float64
	StereoWidth           float64
	PresetBias            PresetBias
}

// Validate checks a subset of the Target Profile invariants: a finite
// loudness target, finite EQ gains bounded strictly under the hard
// saturation ceiling, and the ceiling ordering constraint. Compressor
// parameters and stereo width are not checked.
func (p *TargetProfile) Validate() error {
	const hardCeilingDb = 18.0

	if math.IsNaN(p.IntegratedLUFSTarget) || math.IsInf(p.IntegratedLUFSTarget, 0) {
		return fmt.Errorf("%w: non-finite loudness target", ErrInvalidInput)
	}

	for i, g := range p.EQBandGainsDb {
		if math.IsNaN(g) || math.IsInf(g, 0) {
			return fmt.Errorf("%w: non-finite EQ gain at band %d", ErrInvalidInput, i)
		}

		if math.Abs(g) >= hardCeilingDb {
			return fmt.Errorf("%w: EQ gain at band %d exceeds hard ceiling: %.2f dB", ErrInvalidInput, i, g)
		}
	}

	if p.SoftClipThresholdDb > p.TruePeakCeilingDBTP || p.TruePeakCeilingDBTP > 0 {
		return fmt.Errorf("%w: soft_clip_threshold_db <= true_peak_ceiling_dbtp <= 0 violated", ErrInvalidInput)
	}

	return nil
}

// ChunkOrigin distinguishes an Opus-encoded pass-through original from a
// mastered chunk.
type ChunkOrigin int

const (
	OriginProcessed ChunkOrigin = iota
	OriginOriginal
)

func (o ChunkOrigin) String() string {
	if o == OriginOriginal {
		return "original"
	}

	return "processed"
}

// ProcessedChunk is a finished, immutable audio fragment ready to serve.
type ProcessedChunk struct {
	ChunkIndex  int
	StartSec    float64
	DurationSec float64
	Frames      int
	Data        []byte
	MimeType    string
	Origin      ChunkOrigin
}

// ChunkKey identifies one cacheable rendering of a chunk.
type ChunkKey struct {
	ChunkIndex int
	Preset     PresetBias
	Intensity  float64
	Origin     ChunkOrigin
}

// TrackCacheEntry is the per-track record owned exclusively by the Streaming Cache.
type TrackCacheEntry struct {
	TrackID          int64
	ContentHash      string
	TotalDurationSec float64
	ChunkCount       int
	SampleRate       SampleRate
	Channels         int
	Fingerprint      *Fingerprint
	Chunks           map[ChunkKey]*ProcessedChunk
	Complete         map[string]bool // key: preset|intensity|origin, value: every chunk produced
}

// NewTrackCacheEntry allocates an empty entry ready to accept chunks.
func NewTrackCacheEntry(trackID int64, contentHash string, totalDurationSec float64, chunkCount int, rate SampleRate, channels int) *TrackCacheEntry {
	return &TrackCacheEntry{
		TrackID:          trackID,
		ContentHash:      contentHash,
		TotalDurationSec: totalDurationSec,
		ChunkCount:       chunkCount,
		SampleRate:       rate,
		Channels:         channels,
		Chunks:           make(map[ChunkKey]*ProcessedChunk),
		Complete:         make(map[string]bool),
	}
}

// ApproxSizeBytes sums the encoded byte size of every chunk held by the entry.
func (e *TrackCacheEntry) ApproxSizeBytes() int {
	total := 0
	for _, c := range e.Chunks {
		total += len(c.Data)
	}

	return total
}

// FingerprintRecord is the on-disk JSON representation of a stored Fingerprint.
type FingerprintRecord struct {
	SchemaVersion int         `json:"schema_version"`
	Key           string      `json:"key"`
	CreatedAt     string      `json:"created_at"`
	Fingerprint   Fingerprint `json:"fingerprint"`
	ContentClass  string      `json:"content_class"`
	Confidence    float64     `json:"confidence"`
}
