// Package adapt derives ephemeral per-utterance variants of a stored voice
// model. Adapted models are deep copies and are never persisted.
package adapt

import (
	"math"
	"strings"

	"github.com/RyanBlaney/sonido-voz/algorithms/common"
	"github.com/RyanBlaney/sonido-voz/backend"
	"github.com/RyanBlaney/sonido-voz/features"
	"github.com/RyanBlaney/sonido-voz/logging"
	"github.com/RyanBlaney/sonido-voz/voicemodel"
)

// Prosody factors applied by ApplyContext
const (
	QuestionMeanFactor     = 1.1
	ExclamationRangeFactor = 1.2
	PositiveMeanWeight     = 0.2
	NegativeMeanWeight     = 0.15
)

// Synthesis request derivation
const (
	// MaxSlowdown caps how much a wide pitch range slows speech
	MaxSlowdown = 0.2

	// EmotionThreshold is the probability a non-neutral emotion needs to be
	// sent to the synthesis backend
	EmotionThreshold = 0.4
)

// Adapter applies textual context and requested emotions to voice models
type Adapter struct {
	sentiment *sentimentScorer
	logger    logging.Logger
}

// Option customizes an Adapter
type Option func(*Adapter)

// WithLexicon replaces the sentiment word lists
func WithLexicon(lex Lexicon) Option {
	return func(a *Adapter) { a.sentiment = newSentimentScorer(lex) }
}

// New creates an Adapter using DefaultLexicon
func New(logger logging.Logger, opts ...Option) *Adapter {
	a := &Adapter{
		sentiment: newSentimentScorer(DefaultLexicon()),
		logger: logging.OrDefault(logger).WithFields(logging.Fields{
			"component": "voice_model_adapter",
		}),
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Sentiment scores text in [-1, 1]
func (a *Adapter) Sentiment(text string) float64 {
	return a.sentiment.Score(text)
}

// ApplyContext returns a copy of model with its pitch statistics adjusted for
// text: questions raise the mean, exclamations widen the range and the
// lexical sentiment moves the mean up or down.
func (a *Adapter) ApplyContext(model *voicemodel.VoiceModel, text string) *voicemodel.VoiceModel {
	adapted := model.Clone()
	if adapted.Pitch == nil {
		return adapted
	}

	question := strings.Contains(text, "?")
	exclamation := strings.Contains(text, "!")
	sentiment := a.sentiment.Score(text)

	if question {
		adapted.Pitch.Mean *= QuestionMeanFactor
	}
	if exclamation {
		scaleRange(adapted.Pitch, ExclamationRangeFactor)
	}
	switch {
	case sentiment > 0:
		adapted.Pitch.Mean *= 1 + sentiment*PositiveMeanWeight
	case sentiment < 0:
		adapted.Pitch.Mean *= 1 + sentiment*NegativeMeanWeight
	}

	a.logger.Debug("Applied text context", logging.Fields{
		"function":    "ApplyContext",
		"model_id":    model.ID,
		"question":    question,
		"exclamation": exclamation,
		"sentiment":   sentiment,
	})
	return adapted
}

// ApplyEmotion returns a copy of model whose emotion profile has the named
// slots overwritten with strengths clamped to [0, 1]. Unknown names and NaN
// strengths are ignored. The profile is renormalized unless it sums to 0,
// and the pitch mean and range follow the happy, sad and angry strengths.
func (a *Adapter) ApplyEmotion(model *voicemodel.VoiceModel, strengths map[string]float64) *voicemodel.VoiceModel {
	adapted := model.Clone()

	profile := make([]float64, len(features.Emotions))
	copy(profile, adapted.Emotion)

	var happy, sad, angry float64
	for name, strength := range strengths {
		i := features.EmotionIndex(name)
		if i < 0 || math.IsNaN(strength) {
			continue
		}
		strength = common.Clamp(strength, 0, 1)
		profile[i] = strength

		switch name {
		case "happy":
			happy = strength
		case "sad":
			sad = strength
		case "angry":
			angry = strength
		}
	}

	if sum := common.Sum(profile); sum > 0 {
		for i := range profile {
			profile[i] /= sum
		}
	}
	adapted.Emotion = profile

	if adapted.Pitch != nil {
		adapted.Pitch.Mean *= 1 + 0.2*happy - 0.1*sad
		scaleRange(adapted.Pitch, 1+0.3*happy+0.2*angry-0.1*sad)
	}

	a.logger.Debug("Applied emotion", logging.Fields{
		"function": "ApplyEmotion",
		"model_id": model.ID,
		"happy":    happy,
		"sad":      sad,
		"angry":    angry,
	})
	return adapted
}

// Adapt applies text context and then, when strengths is non-empty, emotion
func (a *Adapter) Adapt(model *voicemodel.VoiceModel, text string, strengths map[string]float64) *voicemodel.VoiceModel {
	adapted := a.ApplyContext(model, text)
	if len(strengths) > 0 {
		adapted = a.ApplyEmotion(adapted, strengths)
	}
	return adapted
}

// SynthesisRequest derives backend parameters from an adapted model. Wider
// pitch ranges speak slower, down to 1 - MaxSlowdown. The dominant emotion is
// attached only when it is not neutral and exceeds EmotionThreshold.
func SynthesisRequest(adapted *voicemodel.VoiceModel, text string) backend.SynthesisRequest {
	req := backend.SynthesisRequest{
		Text:    text,
		VoiceID: adapted.ID,
		Speed:   1,
	}
	if adapted.Pitch != nil {
		req.Speed = 1 - min(max(adapted.Pitch.Range, 0)/100, MaxSlowdown)
	}
	if name, p := adapted.DominantEmotion(); name != "" && name != "neutral" && p > EmotionThreshold {
		req.Emotion = name
		req.EmotionStrength = p
	}
	return req
}

// scaleRange multiplies the pitch range by factor, moving min and max
// symmetrically around their midpoint
func scaleRange(p *voicemodel.PitchStatistics, factor float64) {
	mid := (p.Min + p.Max) / 2
	half := (p.Max - p.Min) * factor / 2
	p.Min = mid - half
	p.Max = mid + half
	p.Range = p.Max - p.Min
}
