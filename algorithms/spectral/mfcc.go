package spectral

import (
	"fmt"
	"math"

	"github.com/RyanBlaney/sonido-voz/algorithms/common"
	"github.com/RyanBlaney/sonido-voz/algorithms/windowing"
)

// MFCCParams contains parameters for MFCC computation
type MFCCParams struct {
	SampleRate      int     `json:"sample_rate"`
	FrameSize       int     `json:"frame_size"`       // samples per analysis frame (FFT size)
	HopSize         int     `json:"hop_size"`         // samples between frames
	NumCoefficients int     `json:"num_coefficients"` // default: 13
	NumMelFilters   int     `json:"num_mel_filters"`  // default: 26
	LowFreq         float64 `json:"low_freq"`         // default: 0
	HighFreq        float64 `json:"high_freq"`        // default: sampleRate/2
	LifterCoeff     float64 `json:"lifter_coeff"`     // 0 disables liftering
}

// MFCC computes Mel-Frequency Cepstral Coefficients frame by frame:
// Hann window, FFT power spectrum, mel filter bank, log, DCT-II.
type MFCC struct {
	params     MFCCParams
	window     *windowing.Hann
	fft        *FFT
	filterBank *MelFilterBank
	dctMatrix  [][]float64
}

// NewMFCC fills defaults, validates params and precomputes the filter bank
// and DCT matrix
func NewMFCC(params MFCCParams) (*MFCC, error) {
	if params.SampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate: %d", params.SampleRate)
	}
	if params.FrameSize <= 0 || params.HopSize <= 0 {
		return nil, fmt.Errorf("invalid framing: frame %d hop %d", params.FrameSize, params.HopSize)
	}
	if params.NumCoefficients <= 0 {
		params.NumCoefficients = 13
	}
	if params.NumMelFilters <= 0 {
		params.NumMelFilters = 26
	}
	if params.NumCoefficients > params.NumMelFilters {
		return nil, fmt.Errorf("%d coefficients need at least as many mel filters, got %d",
			params.NumCoefficients, params.NumMelFilters)
	}
	if params.HighFreq <= 0 {
		params.HighFreq = float64(params.SampleRate) / 2.0
	}

	m := &MFCC{
		params:     params,
		window:     windowing.NewHann(params.FrameSize, false),
		fft:        NewFFT(),
		filterBank: NewMelFilterBank(params.NumMelFilters, params.FrameSize, params.SampleRate, params.LowFreq, params.HighFreq),
	}
	m.createDCTMatrix()
	return m, nil
}

// NumCoefficients returns the number of coefficients per frame
func (m *MFCC) NumCoefficients() int {
	return m.params.NumCoefficients
}

// ComputeFrame returns the coefficients of a single frame
func (m *MFCC) ComputeFrame(frame []float64) []float64 {
	power := m.fft.Power(m.window.Apply(frame))
	coeffs := m.applyDCT(m.filterBank.LogMel(power))

	if m.params.LifterCoeff > 0 {
		coeffs = m.applyLiftering(coeffs)
	}
	return coeffs
}

// ComputeSeries frames signal and returns one sequence per coefficient:
// series[c][t] is coefficient c of frame t
func (m *MFCC) ComputeSeries(signal []float64) [][]float64 {
	numFrames := common.NumFrames(len(signal), m.params.FrameSize, m.params.HopSize)

	series := make([][]float64, m.params.NumCoefficients)
	for c := range series {
		series[c] = make([]float64, numFrames)
	}

	for t := range numFrames {
		start := t * m.params.HopSize
		coeffs := m.ComputeFrame(signal[start : start+m.params.FrameSize])
		for c, v := range coeffs {
			series[c][t] = v
		}
	}

	return series
}

// createDCTMatrix creates the orthonormal DCT-II matrix
func (m *MFCC) createDCTMatrix() {
	numFilters := m.params.NumMelFilters
	m.dctMatrix = make([][]float64, m.params.NumCoefficients)

	for k := range m.dctMatrix {
		m.dctMatrix[k] = make([]float64, numFilters)

		scale := math.Sqrt(2.0 / float64(numFilters))
		if k == 0 {
			scale = math.Sqrt(1.0 / float64(numFilters))
		}
		for n := range numFilters {
			m.dctMatrix[k][n] = scale * math.Cos(math.Pi*float64(k)*(float64(n)+0.5)/float64(numFilters))
		}
	}
}

// applyDCT applies the Discrete Cosine Transform
func (m *MFCC) applyDCT(logMelSpectrum []float64) []float64 {
	coeffs := make([]float64, len(m.dctMatrix))

	for k, row := range m.dctMatrix {
		sum := 0.0
		for n := 0; n < len(logMelSpectrum) && n < len(row); n++ {
			sum += logMelSpectrum[n] * row[n]
		}
		coeffs[k] = sum
	}

	return coeffs
}

// applyLiftering applies sinusoidal liftering, leaving C0 untouched
func (m *MFCC) applyLiftering(coeffs []float64) []float64 {
	liftered := make([]float64, len(coeffs))
	L := m.params.LifterCoeff

	for i, coeff := range coeffs {
		if i == 0 {
			liftered[i] = coeff
			continue
		}
		liftered[i] = coeff * (1.0 + (L/2.0)*math.Sin(math.Pi*float64(i)/L))
	}

	return liftered
}
