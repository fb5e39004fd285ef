// Package feedback folds listener feedback back into stored voice models by
// blending the stored parameters toward preferred values.
package feedback

import (
	"context"
	"fmt"
	"math"

	"github.com/RyanBlaney/sonido-voz/algorithms/common"
	"github.com/RyanBlaney/sonido-voz/logging"
	"github.com/RyanBlaney/sonido-voz/voiceerr"
	"github.com/RyanBlaney/sonido-voz/voicemodel"
)

// DefaultRelevance is the blend weight used when feedback carries no score
const DefaultRelevance = 0.5

// profileTolerance bounds how far a preferred emotion profile may sum from 1
const profileTolerance = 1e-6

// Feedback is one listener judgement about a voice model
type Feedback struct {
	// RelevanceScore in [0, 1] is the blend weight; nil means DefaultRelevance
	RelevanceScore *float64

	// Preferred holds the values the listener would rather hear; nil fields
	// are left alone
	Preferred *Preferred
}

// Preferred is a partial voice model
type Preferred struct {
	Embedding []float32
	Pitch     *PitchPatch
	Emotion   []float64
}

// PitchPatch names the pitch statistics to move
type PitchPatch struct {
	Mean  *float64
	Std   *float64
	Min   *float64
	Max   *float64
	Range *float64
}

func (p *PitchPatch) empty() bool {
	return p == nil || (p.Mean == nil && p.Std == nil && p.Min == nil && p.Max == nil && p.Range == nil)
}

// Store is the part of voicemodel.Store feedback needs
type Store interface {
	Update(ctx context.Context, id string, fn func(m *voicemodel.VoiceModel) (bool, error)) (bool, error)
}

// Adapter applies feedback through a store
type Adapter struct {
	store  Store
	logger logging.Logger
}

// New creates an Adapter writing through store
func New(store Store, logger logging.Logger) *Adapter {
	return &Adapter{
		store: store,
		logger: logging.OrDefault(logger).WithFields(logging.Fields{
			"component": "feedback_adapter",
		}),
	}
}

// ApplyFeedback blends the model stored under id toward fb.Preferred and
// persists the result. It reports false without writing when nothing
// overlaps. Load, blend and save run under the store's write lock for id.
func (a *Adapter) ApplyFeedback(ctx context.Context, id string, fb Feedback) (bool, error) {
	weight := DefaultRelevance
	if fb.RelevanceScore != nil {
		weight = *fb.RelevanceScore
	}
	if math.IsNaN(weight) || weight < 0 || weight > 1 {
		return false, voiceerr.Newf(voiceerr.ErrValidation, "feedback.apply", id,
			"relevance score %v outside [0, 1]", weight)
	}

	logger := a.logger.WithContext(ctx).WithFields(logging.Fields{
		"function": "ApplyFeedback",
		"model_id": id,
		"weight":   weight,
	})

	changed, err := a.store.Update(ctx, id, func(m *voicemodel.VoiceModel) (bool, error) {
		return Blend(m, fb.Preferred, weight)
	})
	if err != nil {
		logger.Warn("Feedback rejected", logging.Fields{"error": err.Error()})
		return false, err
	}
	if !changed {
		logger.Debug("Feedback did not overlap the stored model")
		return false, nil
	}

	logger.Info("Feedback applied")
	return true, nil
}

// Blend moves m toward pref by weight: new = cur*(1-weight) + pref*weight.
// Only fields present on both sides are touched. Weights of exactly 0 and 1
// copy the current or preferred values verbatim. A length mismatch or a
// preferred emotion profile that is not a distribution returns ErrValidation
// and leaves m unchanged.
func Blend(m *voicemodel.VoiceModel, pref *Preferred, weight float64) (bool, error) {
	if pref == nil {
		return false, nil
	}

	blendEmbedding := pref.Embedding != nil && m.Embedding != nil
	blendPitch := !pref.Pitch.empty() && m.Pitch != nil
	blendEmotion := pref.Emotion != nil && m.Emotion != nil

	if blendEmbedding && len(pref.Embedding) != len(m.Embedding) {
		return false, voiceerr.Newf(voiceerr.ErrValidation, "feedback.blend", m.ID,
			"preferred embedding has %d values, model has %d", len(pref.Embedding), len(m.Embedding))
	}
	if blendEmotion && len(pref.Emotion) != len(m.Emotion) {
		return false, voiceerr.Newf(voiceerr.ErrValidation, "feedback.blend", m.ID,
			"preferred emotion profile has %d values, model has %d", len(pref.Emotion), len(m.Emotion))
	}
	if blendEmotion {
		if err := validateProfile(pref.Emotion); err != nil {
			return false, voiceerr.New(voiceerr.ErrValidation, "feedback.blend", m.ID, err)
		}
	}
	if !blendEmbedding && !blendPitch && !blendEmotion {
		return false, nil
	}

	if blendEmbedding {
		m.Embedding = blendFloat32(m.Embedding, pref.Embedding, weight)
	}
	if blendPitch {
		blendPitchStatistics(m.Pitch, pref.Pitch, weight)
	}
	if blendEmotion {
		m.Emotion = blendProfile(m.Emotion, pref.Emotion, weight)
	}
	return true, nil
}

// validateProfile checks that p is a distribution: finite, non-negative
// entries summing to 1
func validateProfile(p []float64) error {
	sum := 0.0
	for i, v := range p {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return fmt.Errorf("preferred emotion %d is %v, want a finite non-negative value", i, v)
		}
		sum += v
	}
	if math.Abs(sum-1) > profileTolerance {
		return fmt.Errorf("preferred emotion profile sums to %v, want 1", sum)
	}
	return nil
}

func lerp(cur, pref, weight float64) float64 {
	switch weight {
	case 0:
		return cur
	case 1:
		return pref
	}
	return common.Lerp(cur, pref, weight)
}

func blendFloat32(cur, pref []float32, weight float64) []float32 {
	out := make([]float32, len(cur))
	for i := range cur {
		switch weight {
		case 0:
			out[i] = cur[i]
		case 1:
			out[i] = pref[i]
		default:
			out[i] = float32(common.Lerp(float64(cur[i]), float64(pref[i]), weight))
		}
	}
	return out
}

func blendProfile(cur, pref []float64, weight float64) []float64 {
	out := make([]float64, len(cur))
	for i := range cur {
		out[i] = lerp(cur[i], pref[i], weight)
	}
	if weight == 0 || weight == 1 {
		return out
	}
	if sum := common.Sum(out); sum > 0 {
		for i := range out {
			out[i] /= sum
		}
	}
	return out
}

// blendPitchStatistics blends each named statistic and then restores
// Range == Max - Min. A preferred range without min or max moves Max, so
// the resulting Range may differ from the blended value by rounding.
func blendPitchStatistics(p *voicemodel.PitchStatistics, patch *PitchPatch, weight float64) {
	if patch.Mean != nil {
		p.Mean = lerp(p.Mean, *patch.Mean, weight)
	}
	if patch.Std != nil {
		p.Std = lerp(p.Std, *patch.Std, weight)
	}
	if patch.Min != nil {
		p.Min = lerp(p.Min, *patch.Min, weight)
	}
	if patch.Max != nil {
		p.Max = lerp(p.Max, *patch.Max, weight)
	}

	if patch.Range != nil && patch.Min == nil && patch.Max == nil && weight != 0 {
		p.Max = p.Min + lerp(p.Range, *patch.Range, weight)
	}
	p.Range = p.Max - p.Min
}
