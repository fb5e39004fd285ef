package filters

// DefaultPreEmphasis is the coefficient commonly used for speech
const DefaultPreEmphasis = 0.97

// PreEmphasis is a first-order high-pass filter:
//
//	y[n] = x[n] - α*x[n-1]
//
// It flattens the spectral tilt of voiced speech before cepstral analysis.
type PreEmphasis struct {
	coefficient float64
	lastSample  float64
}

// NewPreEmphasis creates a filter with coefficient α. Values outside
// (0, 1) fall back to DefaultPreEmphasis.
func NewPreEmphasis(coefficient float64) *PreEmphasis {
	if coefficient <= 0 || coefficient >= 1 {
		coefficient = DefaultPreEmphasis
	}
	return &PreEmphasis{coefficient: coefficient}
}

// Coefficient returns α
func (pe *PreEmphasis) Coefficient() float64 {
	return pe.coefficient
}

// Process filters a single sample
func (pe *PreEmphasis) Process(input float64) float64 {
	output := input - pe.coefficient*pe.lastSample
	pe.lastSample = input
	return output
}

// ProcessBuffer filters a whole buffer, carrying state across calls
func (pe *PreEmphasis) ProcessBuffer(input []float64) []float64 {
	output := make([]float64, len(input))
	for i, sample := range input {
		output[i] = pe.Process(sample)
	}
	return output
}

// Reset clears the filter state. Call it between discontinuous segments.
func (pe *PreEmphasis) Reset() {
	pe.lastSample = 0
}
