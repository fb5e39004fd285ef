package temporal

import (
	"github.com/RyanBlaney/sonido-voz/algorithms/common"
)

// Energy computes frame-based energy contours
type Energy struct {
	frameSize int
	hopSize   int
}

// NewEnergy creates a new energy calculator
func NewEnergy(frameSize, hopSize int) *Energy {
	return &Energy{
		frameSize: frameSize,
		hopSize:   hopSize,
	}
}

// ComputeMeanSquare returns the mean squared amplitude of every full frame.
// Signals shorter than one frame produce an empty contour.
func (e *Energy) ComputeMeanSquare(signal []float64) []float64 {
	numFrames := common.NumFrames(len(signal), e.frameSize, e.hopSize)
	energies := make([]float64, numFrames)

	for i := range numFrames {
		startIdx := i * e.hopSize

		sumSquares := 0.0
		for _, s := range signal[startIdx : startIdx+e.frameSize] {
			sumSquares += s * s
		}
		energies[i] = sumSquares / float64(e.frameSize)
	}

	return energies
}
