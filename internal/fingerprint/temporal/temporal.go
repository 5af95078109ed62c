// Package temporal derives the fingerprint's temporal dimensions
// (tempo_bpm, rhythm_stability, onset_rate) from an onset-strength
// envelope built over short-time energy differences.
package temporal

import "math"

const (
	hopSizeMs = 10.0

	minBPM = 60.0
	maxBPM = 200.0
)

// Result holds the computed temporal dimensions.
type Result struct {
	TempoBPM        float64
	RhythmStability float64
	OnsetRate       float64
}

// Analyze computes the temporal Result from mono samples at sampleRate.
func Analyze(mono []float64, sampleRate int) Result {
	hopSize := max(1, int(float64(sampleRate)*hopSizeMs/1000))

	envelope := onsetEnvelope(mono, hopSize)
	if len(envelope) < 4 {
		return Result{TempoBPM: 120, RhythmStability: 0, OnsetRate: 0}
	}

	peaks := pickPeaks(envelope)
	durationSec := float64(len(mono)) / float64(sampleRate)

	onsetRate := 0.0
	if durationSec > 0 {
		onsetRate = float64(len(peaks)) / durationSec
	}

	tempo, stability := estimateTempo(envelope, hopSize, sampleRate, peaks)

	return Result{
		TempoBPM:        tempo,
		RhythmStability: stability,
		OnsetRate:       onsetRate,
	}
}

// onsetEnvelope returns the positive-going frame-to-frame energy delta per
// hop, a cheap but effective onset-strength proxy.
func onsetEnvelope(mono []float64, hopSize int) []float64 {
	hops := len(mono) / hopSize
	if hops < 2 {
		return nil
	}

	energies := make([]float64, hops)

	for h := 0; h < hops; h++ {
		start := h * hopSize
		end := start + hopSize

		var sum float64

		for _, s := range mono[start:end] {
			sum += s * s
		}

		energies[h] = math.Sqrt(sum / float64(hopSize))
	}

	envelope := make([]float64, hops)

	for i := 1; i < hops; i++ {
		d := energies[i] - energies[i-1]
		if d > 0 {
			envelope[i] = d
		}
	}

	return envelope
}

// pickPeaks returns the hop indices of local maxima above a noise floor
// derived from the envelope's own mean.
func pickPeaks(envelope []float64) []int {
	var sum float64

	for _, v := range envelope {
		sum += v
	}

	mean := sum / float64(len(envelope))
	floor := mean * 1.5

	var peaks []int

	for i := 1; i < len(envelope)-1; i++ {
		if envelope[i] > floor && envelope[i] >= envelope[i-1] && envelope[i] >= envelope[i+1] {
			peaks = append(peaks, i)
		}
	}

	return peaks
}

// estimateTempo finds the lag (within the 60-200 BPM range) that maximizes
// the onset envelope's autocorrelation, and reports rhythm stability as
// the normalized strength of that peak against the envelope's total
// energy.
func estimateTempo(envelope []float64, hopSize, sampleRate int, peaks []int) (bpm, stability float64) {
	hopSec := float64(hopSize) / float64(sampleRate)

	minLag := max(1, int(60.0/maxBPM/hopSec))
	maxLag := max(minLag+1, int(60.0/minBPM/hopSec))

	if maxLag >= len(envelope) {
		maxLag = len(envelope) - 1
	}

	if minLag >= maxLag {
		return 120, 0
	}

	var energy float64

	for _, v := range envelope {
		energy += v * v
	}

	if energy == 0 {
		return 120, 0
	}

	bestLag := minLag
	bestScore := -1.0

	for lag := minLag; lag <= maxLag; lag++ {
		var score float64

		for i := lag; i < len(envelope); i++ {
			score += envelope[i] * envelope[i-lag]
		}

		if score > bestScore {
			bestScore = score
			bestLag = lag
		}
	}

	bpm = 60.0 / (float64(bestLag) * hopSec)
	stability = math.Min(1, bestScore/energy)

	_ = peaks

	return bpm, stability
}
