package tonal

import (
	"fmt"

	"github.com/RyanBlaney/sonido-voz/algorithms/common"
)

// PitchTrackerParams contains parameters for frame-wise pitch tracking
type PitchTrackerParams struct {
	SampleRate int `json:"sample_rate"`
	WindowSize int `json:"window_size"`
	HopSize    int `json:"hop_size"`

	// Lag search range in samples, [MinLag, MaxLag)
	MinLag int `json:"min_lag"`
	MaxLag int `json:"max_lag"`
}

// PitchTracker estimates a fundamental frequency per frame with a raw
// (unnormalized) autocorrelation function.
//
// References:
// - Rabiner, L.R. (1977). "On the use of autocorrelation analysis for pitch detection"
type PitchTracker struct {
	params PitchTrackerParams
}

// NewPitchTracker validates params and creates a tracker
func NewPitchTracker(params PitchTrackerParams) (*PitchTracker, error) {
	if params.SampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate: %d", params.SampleRate)
	}
	if params.WindowSize <= 0 || params.HopSize <= 0 {
		return nil, fmt.Errorf("invalid framing: window %d hop %d", params.WindowSize, params.HopSize)
	}
	if params.MinLag <= 0 || params.MaxLag <= params.MinLag {
		return nil, fmt.Errorf("invalid lag range: [%d, %d)", params.MinLag, params.MaxLag)
	}
	// lags at or beyond the window have no overlapping terms
	params.MaxLag = min(params.MaxLag, params.WindowSize)

	return &PitchTracker{params: params}, nil
}

// FrequencyRange reports the lowest and highest detectable frequency in Hz
func (pt *PitchTracker) FrequencyRange() (low, high float64) {
	rate := float64(pt.params.SampleRate)
	return rate / float64(pt.params.MaxLag-1), rate / float64(pt.params.MinLag)
}

// BestLag returns the lag in [MinLag, MaxLag) whose autocorrelation
// sum_{j < len(frame)-lag} frame[j]*frame[j+lag] is largest.
// It returns 0 when no lag has a strictly positive correlation.
func (pt *PitchTracker) BestLag(frame []float64) int {
	maxCorrelation := 0.0
	bestLag := 0

	for lag := pt.params.MinLag; lag < pt.params.MaxLag && lag < len(frame); lag++ {
		correlation := 0.0
		for j := 0; j < len(frame)-lag; j++ {
			correlation += frame[j] * frame[j+lag]
		}

		if correlation > maxCorrelation {
			maxCorrelation = correlation
			bestLag = lag
		}
	}

	return bestLag
}

// DetectFrame returns the pitch of one frame in Hz, 0 when unvoiced
func (pt *PitchTracker) DetectFrame(frame []float64) float64 {
	lag := pt.BestLag(frame)
	if lag == 0 {
		return 0
	}
	return float64(pt.params.SampleRate) / float64(lag)
}

// Track slides the window over signal and returns one pitch value per frame
func (pt *PitchTracker) Track(signal []float64) []float64 {
	numFrames := common.NumFrames(len(signal), pt.params.WindowSize, pt.params.HopSize)
	contour := make([]float64, numFrames)

	for i := range numFrames {
		start := i * pt.params.HopSize
		contour[i] = pt.DetectFrame(signal[start : start+pt.params.WindowSize])
	}

	return contour
}

// GetParameters returns the tracker parameters
func (pt *PitchTracker) GetParameters() PitchTrackerParams {
	return pt.params
}
