// Package voicemodel defines the persisted voice model and the store that
// creates, loads, saves and deletes it.
package voicemodel

import (
	"maps"
	"time"

	"github.com/RyanBlaney/sonido-voz/algorithms/common"
	"github.com/RyanBlaney/sonido-voz/features"
)

// FormatVersion is written into every metadata file
const FormatVersion = "1.0.0"

// VoiceModel is the derived acoustic identity of one speaker
type VoiceModel struct {
	ID        string
	Embedding []float32

	// nil when the recording carried no pitch information
	Pitch *PitchStatistics

	// keyed by coefficient name (mfcc_0 ...), nil when absent
	Timbre TimbreStatistics

	// probability per entry of features.Emotions, nil when absent
	Emotion []float64

	Metadata Metadata
}

// PitchStatistics summarizes the voiced frames of a pitch contour.
// Range always equals Max - Min.
type PitchStatistics struct {
	Mean  float64 `json:"mean"`
	Std   float64 `json:"std"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Range float64 `json:"range"`
}

// CoefficientStats summarizes one coefficient sequence
type CoefficientStats struct {
	Mean         float64 `json:"mean"`
	Std          float64 `json:"std"`
	DynamicRange float64 `json:"dynamic_range"`
}

// TimbreStatistics maps coefficient names to their statistics
type TimbreStatistics map[string]CoefficientStats

// Metadata describes a stored model
type Metadata struct {
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Version       string
	Revision      int
	SampleRate    int
	EmbeddingSize int
}

// Clone returns a deep copy of m
func (m *VoiceModel) Clone() *VoiceModel {
	c := &VoiceModel{
		ID:       m.ID,
		Metadata: m.Metadata,
	}
	if m.Embedding != nil {
		c.Embedding = make([]float32, len(m.Embedding))
		copy(c.Embedding, m.Embedding)
	}
	if m.Pitch != nil {
		p := *m.Pitch
		c.Pitch = &p
	}
	if m.Timbre != nil {
		c.Timbre = maps.Clone(m.Timbre)
	}
	if m.Emotion != nil {
		c.Emotion = make([]float64, len(m.Emotion))
		copy(c.Emotion, m.Emotion)
	}
	return c
}

// VoiceType categorizes the model by its mean pitch. Models without pitch
// data are "unknown".
func (m *VoiceModel) VoiceType() string {
	if m.Pitch == nil {
		return "unknown"
	}
	return ClassifyVoiceType(m.Pitch.Mean)
}

// DominantEmotion returns the most probable emotion and its probability.
// Ties resolve to the earlier emotion; an absent profile gives "".
func (m *VoiceModel) DominantEmotion() (string, float64) {
	if len(m.Emotion) == 0 {
		return "", 0
	}
	best := 0
	for i, p := range m.Emotion {
		if p > m.Emotion[best] {
			best = i
		}
	}
	if best >= len(features.Emotions) {
		return "", 0
	}
	return features.Emotions[best], m.Emotion[best]
}

// ClassifyVoiceType maps a mean pitch in Hz to a vocal range name
func ClassifyVoiceType(pitchMean float64) string {
	switch {
	case pitchMean < 85:
		return "bass"
	case pitchMean < 155:
		return "baritone"
	case pitchMean < 240:
		return "tenor"
	case pitchMean < 300:
		return "alto"
	case pitchMean < 525:
		return "soprano"
	default:
		return "unknown"
	}
}

// NewPitchStatistics summarizes the voiced (nonzero) entries of contour with
// population statistics. No voiced frame gives all zeros.
func NewPitchStatistics(contour []float64) *PitchStatistics {
	voiced := make([]float64, 0, len(contour))
	for _, f := range contour {
		if f > 0 {
			voiced = append(voiced, f)
		}
	}
	if len(voiced) == 0 {
		return &PitchStatistics{}
	}

	mean, std := common.MeanStdDev(voiced)
	lo, hi := common.MinMax(voiced)
	return &PitchStatistics{
		Mean:  mean,
		Std:   std,
		Min:   lo,
		Max:   hi,
		Range: hi - lo,
	}
}

// NewTimbreStatistics summarizes every coefficient sequence
func NewTimbreStatistics(series []features.CoefficientSeries) TimbreStatistics {
	stats := make(TimbreStatistics, len(series))
	for _, s := range series {
		mean, std := common.MeanStdDev(s.Values)
		lo, hi := common.MinMax(s.Values)
		stats[s.Name] = CoefficientStats{
			Mean:         mean,
			Std:          std,
			DynamicRange: hi - lo,
		}
	}
	return stats
}
