package windowing

import (
	"math"
)

// Hann is a precomputed Hann (raised cosine) taper
type Hann struct {
	coefficients []float64
}

// NewHann creates a Hann window. Periodic windows (symmetric=false) are the
// usual choice for STFT analysis.
func NewHann(size int, symmetric bool) *Hann {
	coefficients := make([]float64, size)

	denominator := float64(size)
	if symmetric && size > 1 {
		denominator = float64(size - 1)
	}

	for i := range coefficients {
		coefficients[i] = 0.5 * (1.0 - math.Cos(2*math.Pi*float64(i)/denominator))
	}
	return &Hann{coefficients: coefficients}
}

// Apply returns a windowed copy of frame. Samples beyond the window length
// are dropped and a shorter frame is zero padded.
func (h *Hann) Apply(frame []float64) []float64 {
	windowed := make([]float64, len(h.coefficients))
	for i, c := range h.coefficients {
		if i < len(frame) {
			windowed[i] = frame[i] * c
		}
	}
	return windowed
}

// Size returns the window length
func (h *Hann) Size() int {
	return len(h.coefficients)
}
