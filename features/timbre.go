package features

import (
	"fmt"

	"github.com/RyanBlaney/sonido-voz/algorithms/filters"
	"github.com/RyanBlaney/sonido-voz/algorithms/spectral"
)

// CoefficientExtractor produces N spectral-envelope sequences for a signal,
// one value per analysis frame
type CoefficientExtractor interface {
	Coefficients(samples []float64, sampleRate int) ([]CoefficientSeries, error)
}

// MFCCExtractor is the default CoefficientExtractor. Signals are
// pre-emphasized before framing.
type MFCCExtractor struct {
	params      spectral.MFCCParams
	preEmphasis float64
}

// NewMFCCExtractor creates an extractor framing signals at windowSize/hopSize
func NewMFCCExtractor(windowSize, hopSize, numCoefficients, numMelFilters int) *MFCCExtractor {
	return &MFCCExtractor{
		params: spectral.MFCCParams{
			FrameSize:       windowSize,
			HopSize:         hopSize,
			NumCoefficients: numCoefficients,
			NumMelFilters:   numMelFilters,
		},
		preEmphasis: filters.DefaultPreEmphasis,
	}
}

// Coefficients returns sequences named mfcc_0 .. mfcc_N-1
func (m *MFCCExtractor) Coefficients(samples []float64, sampleRate int) ([]CoefficientSeries, error) {
	params := m.params
	params.SampleRate = sampleRate

	mfcc, err := spectral.NewMFCC(params)
	if err != nil {
		return nil, fmt.Errorf("mfcc setup: %w", err)
	}

	raw := mfcc.ComputeSeries(filters.NewPreEmphasis(m.preEmphasis).ProcessBuffer(samples))
	series := make([]CoefficientSeries, len(raw))
	for i, values := range raw {
		series[i] = CoefficientSeries{
			Name:   fmt.Sprintf("mfcc_%d", i),
			Values: values,
		}
	}
	return series, nil
}
