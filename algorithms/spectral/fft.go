package spectral

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// FFT wraps mjibson/go-dsp for real-valued frames
type FFT struct{}

// NewFFT creates a new FFT calculator
func NewFFT() *FFT {
	return &FFT{}
}

// Compute returns the complex spectrum of x.
// go-dsp handles all sizes, including non-power-of-2.
func (f *FFT) Compute(x []float64) []complex128 {
	if len(x) == 0 {
		return []complex128{}
	}
	return fft.FFTReal(x)
}

// Magnitude returns |X[k]| for k in [0, len(x)/2], the non-redundant half
// of the spectrum of a real frame
func (f *FFT) Magnitude(x []float64) []float64 {
	if len(x) == 0 {
		return []float64{}
	}

	spectrum := f.Compute(x)
	bins := len(x)/2 + 1
	magnitudes := make([]float64, bins)
	for k := range bins {
		magnitudes[k] = cmplx.Abs(spectrum[k])
	}
	return magnitudes
}

// Power returns |X[k]|^2 over the non-redundant half of the spectrum
func (f *FFT) Power(x []float64) []float64 {
	power := f.Magnitude(x)
	for k, mag := range power {
		power[k] = mag * mag
	}
	return power
}
