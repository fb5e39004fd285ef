package spectral

import (
	"math"
)

// HzToMel converts frequency in Hz to the mel scale (O'Shaughnessy formula)
func HzToMel(hz float64) float64 {
	return 2595.0 * math.Log10(1.0+hz/700.0)
}

// MelToHz converts a mel value back to Hz
func MelToHz(mel float64) float64 {
	return 700.0 * (math.Pow(10.0, mel/2595.0) - 1.0)
}

// MelFilterBank is a set of triangular filters over the bins of a
// fftSize-point power spectrum
type MelFilterBank struct {
	filters [][]float64
}

// NewMelFilterBank builds numFilters triangular filters equally spaced on
// the mel scale between lowFreq and highFreq
func NewMelFilterBank(numFilters, fftSize, sampleRate int, lowFreq, highFreq float64) *MelFilterBank {
	if numFilters <= 0 || fftSize <= 0 || sampleRate <= 0 {
		return &MelFilterBank{}
	}

	lowMel := HzToMel(lowFreq)
	highMel := HzToMel(highFreq)
	melStep := (highMel - lowMel) / float64(numFilters+1)

	// filter edges as FFT bin indices
	binPoints := make([]int, numFilters+2)
	for i := range binPoints {
		hz := MelToHz(lowMel + float64(i)*melStep)
		bin := int(math.Floor((float64(fftSize)+1.0)*hz/float64(sampleRate) + 0.5))
		binPoints[i] = min(bin, fftSize/2)
	}

	numBins := fftSize/2 + 1
	filters := make([][]float64, numFilters)
	for m := range filters {
		filters[m] = make([]float64, numBins)
		leftBin, centerBin, rightBin := binPoints[m], binPoints[m+1], binPoints[m+2]

		for k := leftBin; k < centerBin; k++ {
			filters[m][k] = float64(k-leftBin) / float64(centerBin-leftBin)
		}
		for k := centerBin; k < rightBin; k++ {
			filters[m][k] = float64(rightBin-k) / float64(rightBin-centerBin)
		}
	}

	return &MelFilterBank{filters: filters}
}

// NumFilters returns the number of mel bands
func (fb *MelFilterBank) NumFilters() int {
	return len(fb.filters)
}

// Apply projects a power spectrum onto the mel bands
func (fb *MelFilterBank) Apply(powerSpectrum []float64) []float64 {
	melSpectrum := make([]float64, len(fb.filters))

	for i, filter := range fb.filters {
		sum := 0.0
		for j := 0; j < len(filter) && j < len(powerSpectrum); j++ {
			sum += powerSpectrum[j] * filter[j]
		}
		melSpectrum[i] = sum
	}

	return melSpectrum
}

// LogMel applies the filter bank and a floored natural log
func (fb *MelFilterBank) LogMel(powerSpectrum []float64) []float64 {
	mel := fb.Apply(powerSpectrum)
	for i, v := range mel {
		mel[i] = math.Log(math.Max(v, 1e-10))
	}
	return mel
}
