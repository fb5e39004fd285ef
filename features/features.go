package features

import (
	"github.com/RyanBlaney/sonido-voz/backend"
)

// Emotions names the slots of every emotion vector, in order
var Emotions = []string{"neutral", "happy", "sad", "angry", "surprised"}

// EmotionIndex returns the slot of name, or -1
func EmotionIndex(name string) int {
	for i, e := range Emotions {
		if e == name {
			return i
		}
	}
	return -1
}

// FeatureSet holds everything extracted from one recording.
// A nil field means the feature could not be computed.
type FeatureSet struct {
	SampleRate int `json:"sample_rate"`

	// Mel spectrogram from the embedding backend, may be empty
	Mel backend.MelGrid `json:"-"`

	// Fundamental frequency per frame in Hz, 0 for unvoiced frames
	PitchContour []float64 `json:"pitch_contour,omitempty"`

	// Mean squared amplitude per frame
	EnergyContour []float64 `json:"energy_contour,omitempty"`

	// Spectral-envelope coefficient sequences (mfcc_0 ... mfcc_N-1)
	Timbre []CoefficientSeries `json:"timbre,omitempty"`

	// Probability per entry of Emotions, sums to 1
	Emotion []float64 `json:"emotion,omitempty"`
}

// CoefficientSeries is one named coefficient tracked over frames
type CoefficientSeries struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
}

// VoicedPitch returns the nonzero entries of the pitch contour
func (fs *FeatureSet) VoicedPitch() []float64 {
	voiced := make([]float64, 0, len(fs.PitchContour))
	for _, f := range fs.PitchContour {
		if f > 0 {
			voiced = append(voiced, f)
		}
	}
	return voiced
}
