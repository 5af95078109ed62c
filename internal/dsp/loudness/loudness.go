// Package loudness implements ITU-R BS.1770 K-weighted integrated loudness
// and loudness-range measurement directly over a PCM buffer. It backs both
// the Fingerprint's loudness dimensions and the Advanced Dynamics stage's
// auto makeup-gain target.
package loudness

import (
	"math"
	"sort"

	"github.com/farcloser/auralis/internal/types"
)

// biquad and biquadState mirror the K-weighting pre-filter / RLB highpass
// cascade defined by BS.1770-4.
type biquad struct {
	b0, b1, b2 float64
	a1, a2     float64
}

type biquadState struct {
	z1, z2 float64
}

func (s *biquadState) process(b *biquad, in float64) float64 {
	out := b.b0*in + s.z1
	s.z1 = b.b1*in - b.a1*out + s.z2
	s.z2 = b.b2*in - b.a2*out

	return out
}

func kWeightingFilters(sampleRate int) (pre, rlb biquad) {
	rate := float64(sampleRate)

	centerFreq := 1681.974450955533
	gain := 3.999843853973347
	q := 0.7071752369554196

	k := math.Tan(math.Pi * centerFreq / rate)
	vh := math.Pow(10, gain/20)
	vb := math.Pow(vh, 0.4996667741545416)

	denom := 1 + k/q + k*k
	pre.b0 = (vh + vb*k/q + k*k) / denom
	pre.b1 = 2 * (k*k - vh) / denom
	pre.b2 = (vh - vb*k/q + k*k) / denom
	pre.a1 = 2 * (k*k - 1) / denom
	pre.a2 = (1 - k/q + k*k) / denom

	centerFreq = 38.13547087602444
	q = 0.5003270373238773
	k = math.Tan(math.Pi * centerFreq / rate)

	denom = 1 + k/q + k*k
	rlb.b0 = 1 / denom
	rlb.b1 = -2 / denom
	rlb.b2 = 1 / denom
	rlb.a1 = 2 * (k*k - 1) / denom
	rlb.a2 = (1 - k/q + k*k) / denom

	return pre, rlb
}

// Result holds the loudness dimensions the caller needs.
type Result struct {
	IntegratedLUFS  float64
	LoudnessRangeLU float64
	RMSDb           float64
	PeakLinear      float64
	DREbuDb         float64
}

type drBlock struct {
	peak float64
	rms  float64
}

// Measure computes integrated loudness, loudness range and RMS over buf.
func Measure(buf *types.PCMBuffer) Result {
	pre, rlb := kWeightingFilters(int(buf.SampleRate))
	preState := make([]biquadState, buf.Channels)
	rlbState := make([]biquadState, buf.Channels)

	momentarySize := int(buf.SampleRate) * 400 / 1000
	shortTermSize := int(buf.SampleRate) * 3
	hopSize := int(buf.SampleRate) * 100 / 1000

	if momentarySize == 0 {
		momentarySize = 1
	}

	if shortTermSize == 0 {
		shortTermSize = 1
	}

	if hopSize == 0 {
		hopSize = 1
	}

	momentaryBuf := make([]float64, momentarySize)
	shortTermBuf := make([]float64, shortTermSize)

	var momentarySum, shortTermSum float64

	var momentaryPos, shortTermPos, momentaryFilled, shortTermFilled int

	var momentaryPowers, shortTermPowers []float64

	var sumSquares float64

	var peak float64

	blockSize := max(1, int(buf.SampleRate)*3)

	var drBlocks []drBlock

	var blockSum, blockPeak float64

	var blockSamples int

	for frame := 0; frame < buf.Frames; frame++ {
		var framePower, framePeak float64

		for ch := 0; ch < buf.Channels; ch++ {
			idx := frame*buf.Channels + ch
			sample := buf.Samples[idx]

			if abs := math.Abs(sample); abs > peak {
				peak = abs
			}

			if abs := math.Abs(sample); abs > framePeak {
				framePeak = abs
			}

			sumSquares += sample * sample

			filtered := preState[ch].process(&pre, sample)
			filtered = rlbState[ch].process(&rlb, filtered)
			framePower += filtered * filtered
		}

		framePower /= float64(buf.Channels)

		blockSum += framePower

		if framePeak > blockPeak {
			blockPeak = framePeak
		}

		blockSamples++

		if blockSamples >= blockSize {
			drBlocks = append(drBlocks, drBlock{peak: blockPeak, rms: math.Sqrt(blockSum / float64(blockSamples))})
			blockSum, blockPeak, blockSamples = 0, 0, 0
		}

		old := momentaryBuf[momentaryPos]
		momentaryBuf[momentaryPos] = framePower
		momentarySum = momentarySum - old + framePower
		momentaryPos = (momentaryPos + 1) % momentarySize

		if momentaryFilled < momentarySize {
			momentaryFilled++
		}

		old = shortTermBuf[shortTermPos]
		shortTermBuf[shortTermPos] = framePower
		shortTermSum = shortTermSum - old + framePower
		shortTermPos = (shortTermPos + 1) % shortTermSize

		if shortTermFilled < shortTermSize {
			shortTermFilled++
		}

		if frame%hopSize == 0 {
			if momentaryFilled == momentarySize {
				momentaryPowers = append(momentaryPowers, momentarySum/float64(momentarySize))
			}

			if shortTermFilled == shortTermSize {
				shortTermPowers = append(shortTermPowers, shortTermSum/float64(shortTermSize))
			}
		}
	}

	totalSamples := buf.Frames * buf.Channels

	rmsDb := -120.0

	if totalSamples > 0 {
		rms := math.Sqrt(sumSquares / float64(totalSamples))
		if rms > 0 {
			rmsDb = 20 * math.Log10(rms)
		}
	}

	if blockSamples >= int(buf.SampleRate) {
		drBlocks = append(drBlocks, drBlock{peak: blockPeak, rms: math.Sqrt(blockSum / float64(blockSamples))})
	}

	return Result{
		IntegratedLUFS:  integratedLoudness(momentaryPowers),
		LoudnessRangeLU: loudnessRange(shortTermPowers),
		RMSDb:           rmsDb,
		PeakLinear:      peak,
		DREbuDb:         dynamicRange(drBlocks),
	}
}

// dynamicRange computes the EBU R128-style DR value: 20*log10(peak / rms)
// using the second-highest block peak and the mean of the top 20% of
// block RMS values, avoiding outlier blocks at either extreme.
func dynamicRange(blocks []drBlock) float64 {
	if len(blocks) == 0 {
		return 0
	}

	peaks := make([]float64, len(blocks))
	for i, b := range blocks {
		peaks[i] = b.peak
	}

	sort.Sort(sort.Reverse(sort.Float64Slice(peaks)))

	peakIdx := 1
	if len(peaks) == 1 {
		peakIdx = 0
	}

	peak := peaks[peakIdx]

	rmss := make([]float64, len(blocks))
	for i, b := range blocks {
		rmss[i] = b.rms
	}

	sort.Sort(sort.Reverse(sort.Float64Slice(rmss)))

	top := max(len(rmss)/5, 1)

	var rmsSum float64

	for i := 0; i < top; i++ {
		rmsSum += rmss[i]
	}

	rmsAvg := rmsSum / float64(top)
	if rmsAvg == 0 || peak == 0 {
		return 0
	}

	return 20 * math.Log10(peak/rmsAvg)
}

func integratedLoudness(powers []float64) float64 {
	if len(powers) == 0 {
		return -70
	}

	var sum float64

	var count int

	for _, p := range powers {
		if lufs := -0.691 + 10*math.Log10(p); lufs > -70 {
			sum += p
			count++
		}
	}

	if count == 0 {
		return -70
	}

	ungatedMean := sum / float64(count)
	relativeThreshold := -0.691 + 10*math.Log10(ungatedMean) - 10

	sum = 0
	count = 0

	for _, p := range powers {
		if lufs := -0.691 + 10*math.Log10(p); lufs > relativeThreshold {
			sum += p
			count++
		}
	}

	if count == 0 {
		return -70
	}

	return -0.691 + 10*math.Log10(sum/float64(count))
}

func loudnessRange(powers []float64) float64 {
	if len(powers) < 2 {
		return 0
	}

	lufsValues := make([]float64, 0, len(powers))

	for _, p := range powers {
		if lufs := -0.691 + 10*math.Log10(p); lufs > -70 {
			lufsValues = append(lufsValues, lufs)
		}
	}

	if len(lufsValues) < 2 {
		return 0
	}

	var sum float64
	for _, l := range lufsValues {
		sum += l
	}

	mean := sum / float64(len(lufsValues))
	relativeThreshold := mean - 20

	gated := make([]float64, 0, len(lufsValues))

	for _, l := range lufsValues {
		if l > relativeThreshold {
			gated = append(gated, l)
		}
	}

	if len(gated) < 2 {
		return 0
	}

	sort.Float64s(gated)
	low := gated[int(float64(len(gated))*0.10)]
	high := gated[int(float64(len(gated))*0.95)]

	return high - low
}
