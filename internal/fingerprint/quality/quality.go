// Package quality screens decoded PCM for artifacts that should lower
// confidence in (or disqualify) a computed Fingerprint: clipping, DC
// offset, dropouts, trailing truncation and fake-stereo content. It is the
// concrete implementation behind Fingerprint.Confidence.
package quality

import "math"

// Report summarizes the artifacts found in one buffer's samples.
// TotalPenalty is the weighted sum of the individual penalties, clamped to
// at most 1; the caller turns it into a confidence value.
type Report struct {
	ClippedFraction float64
	DCOffsetLinear  float64
	DropoutCount    int
	Truncated       bool
	FakeStereo      bool
	TotalPenalty    float64
}

const (
	clipPenaltyWeight      = 0.5
	dcOffsetPenaltyWeight  = 4.0 // linear offset -> penalty, saturates fast
	dropoutPenaltyPerEvent = 0.05
	truncationPenalty      = 0.15
	fakeStereoPenalty      = 0.1

	dropoutSilenceThreshold = 1e-6
	dropoutMinRunSamples    = 64

	truncationWindowSec = 0.5
	truncationRmsFloor  = 0.05 // linear; above this at the tail with a sharp edge looks cut

	fakeStereoCorrelationFloor = 0.999
)

// Analyze inspects interleaved samples with the given channel count (in
// [-1, 1], sampleRate Hz) and returns a quality Report. The fake-stereo
// check runs only when channels is 2.
func Analyze(samples []float64, channels, sampleRate int) Report {
	r := Report{}

	r.ClippedFraction = clippedFraction(samples)
	r.DCOffsetLinear = dcOffset(samples, channels)
	r.DropoutCount = countDropouts(samples)
	r.Truncated = isTruncated(samples, channels, sampleRate)

	if channels == 2 {
		r.FakeStereo = isFakeStereo(samples)
	}

	penalty := r.ClippedFraction * clipPenaltyWeight
	penalty += math.Min(1, math.Abs(r.DCOffsetLinear)*dcOffsetPenaltyWeight)
	penalty += math.Min(1, float64(r.DropoutCount)*dropoutPenaltyPerEvent)

	if r.Truncated {
		penalty += truncationPenalty
	}

	if r.FakeStereo {
		penalty += fakeStereoPenalty
	}

	r.TotalPenalty = math.Min(1, penalty)

	return r
}

// clippedFraction is the fraction of samples pinned at +/-1.0 in runs of at
// least two consecutive values. Runs are counted over the interleaved
// sequence as a whole, not per channel.
func clippedFraction(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}

	const pinThreshold = 0.9999

	var run, clipped int

	for _, s := range samples {
		if math.Abs(s) >= pinThreshold {
			run++
		} else {
			if run >= 2 {
				clipped += run
			}

			run = 0
		}
	}

	if run >= 2 {
		clipped += run
	}

	return float64(clipped) / float64(len(samples))
}

func dcOffset(samples []float64, channels int) float64 {
	if len(samples) == 0 || channels == 0 {
		return 0
	}

	sums := make([]float64, channels)
	frames := len(samples) / channels

	for i, s := range samples {
		sums[i%channels] += s
	}

	var total float64

	for _, sum := range sums {
		total += math.Abs(sum / float64(frames))
	}

	return total / float64(channels)
}

// countDropouts counts runs of at least dropoutMinRunSamples near-exact
// silent values (over the interleaved sequence) that are surrounded by
// non-silent audio -- the
// signature of a buffer underrun rather than an intentional quiet
// passage.
func countDropouts(samples []float64) int {
	if len(samples) == 0 {
		return 0
	}

	var count, run int

	sawSignalBefore := false

	for _, s := range samples {
		if math.Abs(s) < dropoutSilenceThreshold {
			run++
		} else {
			if run >= dropoutMinRunSamples && sawSignalBefore {
				count++
			}

			run = 0
			sawSignalBefore = true
		}
	}

	return count
}

// isTruncated flags an abrupt, non-faded ending: the final window's RMS is
// still well above silence with no decay trend across it.
func isTruncated(samples []float64, channels, sampleRate int) bool {
	if channels == 0 || sampleRate == 0 {
		return false
	}

	windowFrames := int(truncationWindowSec * float64(sampleRate))
	windowSamples := windowFrames * channels

	if windowSamples <= 0 || windowSamples > len(samples) {
		return false
	}

	tail := samples[len(samples)-windowSamples:]

	firstHalf := tail[:len(tail)/2]
	secondHalf := tail[len(tail)/2:]

	firstRMS := rms(firstHalf)
	secondRMS := rms(secondHalf)

	// A faded ending decays well below the floor by the second half; an
	// abrupt cut stays loud right up to the last sample.
	return secondRMS > truncationRmsFloor && secondRMS > firstRMS*0.5
}

func rms(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}

	var sumSq float64

	for _, s := range samples {
		sumSq += s * s
	}

	return math.Sqrt(sumSq / float64(len(samples)))
}

// isFakeStereo flags L/R channels whose Pearson correlation is at least
// fakeStereoCorrelationFloor, so the recording carries no real stereo
// information. Levels are not compared, and a constant channel (zero
// variance) counts as fake stereo.
func isFakeStereo(samples []float64) bool {
	frames := len(samples) / 2
	if frames < 2 {
		return false
	}

	var sumL, sumR, sumLL, sumRR, sumLR float64

	for i := 0; i < frames; i++ {
		left := samples[i*2]
		right := samples[i*2+1]

		sumL += left
		sumR += right
		sumLL += left * left
		sumRR += right * right
		sumLR += left * right
	}

	n := float64(frames)
	numerator := n*sumLR - sumL*sumR
	denominator := math.Sqrt((n*sumLL - sumL*sumL) * (n*sumRR - sumR*sumR))

	if denominator <= 0 {
		return true
	}

	correlation := numerator / denominator

	return correlation >= fakeStereoCorrelationFloor
}
