// Package oversample provides the 4x polyphase interpolation filter shared
// by the Brick-Wall Limiter and the true-peak fingerprint measurement.
// Both need the same "what does the reconstructed analog waveform peak at
// between samples" answer; this package is the one place that answer is
// computed.
package oversample

import "math"

const (
	Factor       = 4  // 4x oversampling per ITU-R BS.1770
	tapsPerPhase = 12 // filter taps per phase
	totalTaps    = Factor * tapsPerPhase
)

var polyphaseCoeffs [Factor][tapsPerPhase]float64

func init() {
	const beta = 5.0 // Kaiser window parameter

	for phase := 0; phase < Factor; phase++ {
		for tap := 0; tap < tapsPerPhase; tap++ {
			n := tap*Factor + phase
			center := float64(totalTaps-1) / 2.0

			x := float64(n) - center

			var sinc float64
			if math.Abs(x) < 1e-10 {
				sinc = 1.0
			} else {
				sinc = math.Sin(math.Pi*x/float64(Factor)) / (math.Pi * x / float64(Factor))
			}

			alpha := (float64(n) - center) / center
			if math.Abs(alpha) <= 1.0 {
				window := bessel0(beta*math.Sqrt(1-alpha*alpha)) / bessel0(beta)
				polyphaseCoeffs[phase][tap] = sinc * window * float64(Factor)
			}
		}
	}

	for phase := 0; phase < Factor; phase++ {
		var sum float64
		for tap := 0; tap < tapsPerPhase; tap++ {
			sum += polyphaseCoeffs[phase][tap]
		}

		for tap := 0; tap < tapsPerPhase; tap++ {
			polyphaseCoeffs[phase][tap] /= sum
		}
	}
}

// bessel0 is the modified Bessel function of the first kind, order 0, used
// to build the Kaiser window.
func bessel0(x float64) float64 {
	sum := 1.0
	term := 1.0

	for k := 1; k <= 25; k++ {
		term *= (x * x) / (4.0 * float64(k) * float64(k))
		sum += term

		if term < 1e-12 {
			break
		}
	}

	return sum
}

// History is a per-channel ring of the last tapsPerPhase samples, used to
// interpolate Factor intermediate sample positions near its centre.
type History struct {
	buf []float64
}

// NewHistory returns a zeroed history ring.
func NewHistory() *History {
	return &History{buf: make([]float64, tapsPerPhase)}
}

// Push shifts in a new sample and returns the Factor interpolated values
// for the gap between the samples pushed five and six calls earlier (the
// filter's group delay), latest position first.
func (h *History) Push(sample float64) [Factor]float64 {
	copy(h.buf[0:], h.buf[1:])
	h.buf[tapsPerPhase-1] = sample

	var out [Factor]float64
	for phase := 0; phase < Factor; phase++ {
		var interp float64
		for tap := 0; tap < tapsPerPhase; tap++ {
			interp += h.buf[tap] * polyphaseCoeffs[phase][tap]
		}

		out[phase] = interp
	}

	return out
}

// PeakLinear measures the true (4x oversampled) peak amplitude of a
// sequence of samples for one channel, returning the linear peak and the
// sample-domain peak for comparison.
func PeakLinear(samples []float64) (truePeak, samplePeak float64) {
	hist := NewHistory()

	for _, s := range samples {
		if abs := math.Abs(s); abs > samplePeak {
			samplePeak = abs
		}

		for _, interp := range hist.Push(s) {
			if abs := math.Abs(interp); abs > truePeak {
				truePeak = abs
			}
		}
	}

	return truePeak, samplePeak
}
