// Package spectral computes the spectral fingerprint dimensions
// (centroid, rolloff, flux and the seven band-energy percentages) from
// mono-mixed PCM via an averaged, windowed FFT magnitude spectrum.
package spectral

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

const (
	fftSize    = 8192
	windowsMax = 100

	rolloffFraction = 0.85
)

// bandEdgesHz are the edges of the seven fixed regions behind the
// fingerprint's *_pct values. They are used only here: the EQ region table
// groups its bands with its own boundaries, which do not coincide with
// these edges.
var bandEdgesHz = []float64{20, 60, 250, 500, 2000, 4000, 6000, 20000}

// Result holds the computed spectral dimensions.
type Result struct {
	CentroidHz float64
	RolloffHz  float64
	Flux       float64
	BandPct    [7]float64 // sub_bass, bass, low_mid, mid, upper_mid, presence, air
}

// Analyze computes the spectral Result from mono samples at sampleRate.
func Analyze(mono []float64, sampleRate int) Result {
	if len(mono) < fftSize {
		return Result{BandPct: [7]float64{1.0 / 7, 1.0 / 7, 1.0 / 7, 1.0 / 7, 1.0 / 7, 1.0 / 7, 1.0 / 7}}
	}

	window := hannWindow(fftSize)
	positions := windowPositions(len(mono), fftSize, windowsMax)

	fft := fourier.NewFFT(fftSize)
	binCount := fftSize/2 + 1

	magnitudeSum := make([]float64, binCount)
	prevMagnitude := make([]float64, binCount)

	var fluxSum float64

	var fluxWindows int

	fftIn := make([]float64, fftSize)

	for wi, pos := range positions {
		for i := range fftIn {
			fftIn[i] = mono[pos+i] * window[i]
		}

		coeffs := fft.Coefficients(nil, fftIn)

		magnitude := make([]float64, binCount)
		for i, c := range coeffs {
			magnitude[i] = math.Hypot(real(c), imag(c))
			magnitudeSum[i] += magnitude[i]
		}

		if wi > 0 {
			var diff float64

			for i := range magnitude {
				d := magnitude[i] - prevMagnitude[i]
				if d > 0 {
					diff += d
				}
			}

			fluxSum += diff
			fluxWindows++
		}

		copy(prevMagnitude, magnitude)
	}

	windowsProcessed := len(positions)

	avgMagnitude := make([]float64, binCount)
	for i := range avgMagnitude {
		avgMagnitude[i] = magnitudeSum[i] / float64(windowsProcessed)
	}

	binHz := float64(sampleRate) / float64(fftSize)

	centroid := spectralCentroid(avgMagnitude, binHz)
	rolloff := spectralRolloff(avgMagnitude, binHz, rolloffFraction)

	flux := 0.0
	if fluxWindows > 0 {
		flux = fluxSum / float64(fluxWindows)
	}

	bandPct := bandEnergyPercentages(avgMagnitude, binHz)

	return Result{
		CentroidHz: centroid,
		RolloffHz:  rolloff,
		Flux:       flux,
		BandPct:    bandPct,
	}
}

func spectralCentroid(magnitude []float64, binHz float64) float64 {
	var weighted, total float64

	for i, m := range magnitude {
		freq := float64(i) * binHz
		weighted += freq * m
		total += m
	}

	if total == 0 {
		return 0
	}

	return weighted / total
}

func spectralRolloff(magnitude []float64, binHz, fraction float64) float64 {
	var total float64
	for _, m := range magnitude {
		total += m
	}

	if total == 0 {
		return 0
	}

	threshold := total * fraction

	var cum float64

	for i, m := range magnitude {
		cum += m
		if cum >= threshold {
			return float64(i) * binHz
		}
	}

	return float64(len(magnitude)-1) * binHz
}

func bandEnergyPercentages(magnitude []float64, binHz float64) [7]float64 {
	var bandEnergy [7]float64

	var total float64

	for i, m := range magnitude {
		freq := float64(i) * binHz
		energy := m * m
		total += energy

		for b := 0; b < 7; b++ {
			if freq >= bandEdgesHz[b] && freq < bandEdgesHz[b+1] {
				bandEnergy[b] += energy

				break
			}
		}
	}

	var out [7]float64

	if total == 0 {
		for i := range out {
			out[i] = 1.0 / 7
		}

		return out
	}

	for i := range out {
		out[i] = bandEnergy[i] / total
	}

	// Renormalize so the seven percentages sum to exactly 1.0 within the
	// fingerprint's documented tolerance: FFT bin quantization at the band
	// edges otherwise leaves a small residual.
	var sum float64
	for _, v := range out {
		sum += v
	}

	if sum > 0 {
		for i := range out {
			out[i] /= sum
		}
	}

	return out
}

func hannWindow(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
	}

	return w
}

func windowPositions(total, size, maxWindows int) []int {
	usable := total - size
	if usable <= 0 {
		return []int{0}
	}

	count := usable/size + 1
	if count > maxWindows {
		count = maxWindows
	}

	if count < 1 {
		count = 1
	}

	positions := make([]int, count)

	if count == 1 {
		positions[0] = 0

		return positions
	}

	step := usable / (count - 1)
	for i := range positions {
		positions[i] = i * step
	}

	return positions
}
