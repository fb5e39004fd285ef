package features

import (
	"context"
	"math"

	"github.com/RyanBlaney/sonido-voz/algorithms/common"
	"github.com/RyanBlaney/sonido-voz/algorithms/speech"
)

// EmotionClassifier scores a feature set against Emotions. Scores are raw
// and need not sum to 1; negative scores are treated as 0.
type EmotionClassifier interface {
	Classify(ctx context.Context, fs *FeatureSet) ([]float64, error)
}

// UniformEmotion returns the distribution used when nothing is known
func UniformEmotion() []float64 {
	uniform := make([]float64, len(Emotions))
	for i := range uniform {
		uniform[i] = 1 / float64(len(Emotions))
	}
	return uniform
}

// NormalizeEmotion turns raw scores into a distribution over Emotions.
// Missing slots count as 0, negative scores are clamped to 0 and an
// all-zero input gives the uniform distribution.
func NormalizeEmotion(raw []float64) []float64 {
	scores := make([]float64, len(Emotions))
	for i := range scores {
		if i < len(raw) && raw[i] > 0 && !math.IsInf(raw[i], 1) {
			scores[i] = raw[i]
		}
	}

	normalized, ok := common.SumNormalize(scores)
	if !ok {
		return UniformEmotion()
	}
	return normalized
}

// ProsodyClassifier scores emotions from pitch and energy statistics:
// lively pitch with loud delivery reads as happy, flat and quiet as sad,
// loud with bursty or tense (jittery, shimmering) delivery as angry and a
// high, moving pitch as surprised.
type ProsodyClassifier struct{}

// Classify implements EmotionClassifier
func (ProsodyClassifier) Classify(ctx context.Context, fs *FeatureSet) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pitchMean, pitchStd := common.MeanStdDev(fs.VoicedPitch())
	energyMean, energyStd := common.MeanStdDev(fs.EnergyContour)

	variation := 0.0
	if pitchMean > 0 {
		variation = common.Clamp(3*pitchStd/pitchMean, 0, 1)
	}
	loudness := common.Clamp(2*math.Sqrt(energyMean), 0, 1)
	burstiness := 0.0
	if energyMean > 0 {
		burstiness = common.Clamp(energyStd/(2*energyMean), 0, 1)
	}
	height := common.Clamp((pitchMean-250)/200, 0, 1)

	quality := speech.AnalyzeVoiceQuality(fs.PitchContour, fs.EnergyContour)
	tension := common.Clamp(10*quality.Jitter+2*quality.Shimmer, 0, 1)

	return []float64{
		1 - 0.5*variation,                              // neutral
		variation * loudness,                           // happy
		0.8 * (1 - loudness) * (1 - variation),         // sad
		0.8 * loudness * math.Max(burstiness, tension), // angry
		height * variation,                             // surprised
	}, nil
}
