package voicemodel

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/RyanBlaney/sonido-voz/features"
)

// File names inside a model directory
const (
	metadataFile  = "metadata.json"
	embeddingFile = "voice_embedding.bin"
	paramsFile    = "model_params.json"
)

type metadataDoc struct {
	ModelID              string                  `json:"model_id"`
	CreatedAt            int64                   `json:"created_at"` // unix millis
	UpdatedAt            int64                   `json:"updated_at"`
	Version              string                  `json:"version"`
	Revision             int                     `json:"revision"`
	SampleRate           int                     `json:"sample_rate"`
	EmbeddingSize        int                     `json:"embedding_size"`
	Features             featureFlags            `json:"features"`
	VoiceCharacteristics voiceCharacteristicsDoc `json:"voice_characteristics"`
}

type featureFlags struct {
	HasPitchData      bool `json:"has_pitch_data"`
	HasTimbreData     bool `json:"has_timbre_data"`
	HasEmotionProfile bool `json:"has_emotion_profile"`
}

type voiceCharacteristicsDoc struct {
	VoiceType       string             `json:"voice_type,omitempty"`
	PitchMean       *float64           `json:"pitch_mean,omitempty"`
	DominantEmotion string             `json:"dominant_emotion,omitempty"`
	EmotionProfile  map[string]float64 `json:"emotion_profile,omitempty"`
}

type paramsDoc struct {
	PitchStatistics  *PitchStatistics `json:"pitch_statistics,omitempty"`
	TimbreStatistics TimbreStatistics `json:"timbre_statistics,omitempty"`
	EmotionProfile   []float64        `json:"emotion_profile,omitempty"`
}

func encodeMetadata(m *VoiceModel) ([]byte, error) {
	doc := metadataDoc{
		ModelID:       m.ID,
		CreatedAt:     m.Metadata.CreatedAt.UnixMilli(),
		UpdatedAt:     m.Metadata.UpdatedAt.UnixMilli(),
		Version:       m.Metadata.Version,
		Revision:      m.Metadata.Revision,
		SampleRate:    m.Metadata.SampleRate,
		EmbeddingSize: len(m.Embedding),
		Features: featureFlags{
			HasPitchData:      m.Pitch != nil,
			HasTimbreData:     m.Timbre != nil,
			HasEmotionProfile: m.Emotion != nil,
		},
	}

	if m.Pitch != nil {
		mean := m.Pitch.Mean
		doc.VoiceCharacteristics.VoiceType = m.VoiceType()
		doc.VoiceCharacteristics.PitchMean = &mean
	}
	if name, _ := m.DominantEmotion(); name != "" {
		doc.VoiceCharacteristics.DominantEmotion = name
		doc.VoiceCharacteristics.EmotionProfile = make(map[string]float64, len(m.Emotion))
		for i, p := range m.Emotion {
			if i < len(features.Emotions) {
				doc.VoiceCharacteristics.EmotionProfile[features.Emotions[i]] = p
			}
		}
	}

	return json.MarshalIndent(doc, "", "  ")
}

func encodeParams(m *VoiceModel) ([]byte, error) {
	return json.MarshalIndent(paramsDoc{
		PitchStatistics:  m.Pitch,
		TimbreStatistics: m.Timbre,
		EmotionProfile:   m.Emotion,
	}, "", "  ")
}

// encodeEmbedding writes little-endian float32 values
func encodeEmbedding(embedding []float32) []byte {
	out := make([]byte, 4*len(embedding))
	for i, v := range embedding {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(v))
	}
	return out
}

func decodeEmbedding(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("embedding file has %d bytes, not a multiple of 4", len(data))
	}
	embedding := make([]float32, len(data)/4)
	for i := range embedding {
		embedding[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return embedding, nil
}

// decodeModel assembles a model from the three files of its directory
func decodeModel(metadata, params, embedding []byte) (*VoiceModel, error) {
	var meta metadataDoc
	if err := json.Unmarshal(metadata, &meta); err != nil {
		return nil, fmt.Errorf("parse %s: %w", metadataFile, err)
	}
	var p paramsDoc
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("parse %s: %w", paramsFile, err)
	}
	vec, err := decodeEmbedding(embedding)
	if err != nil {
		return nil, err
	}
	if len(vec) != meta.EmbeddingSize {
		return nil, fmt.Errorf("embedding has %d values, metadata says %d", len(vec), meta.EmbeddingSize)
	}

	m := &VoiceModel{
		ID:        meta.ModelID,
		Embedding: vec,
		Pitch:     p.PitchStatistics,
		Timbre:    p.TimbreStatistics,
		Emotion:   p.EmotionProfile,
		Metadata: Metadata{
			CreatedAt:     time.UnixMilli(meta.CreatedAt).UTC(),
			UpdatedAt:     time.UnixMilli(meta.UpdatedAt).UTC(),
			Version:       meta.Version,
			Revision:      meta.Revision,
			SampleRate:    meta.SampleRate,
			EmbeddingSize: meta.EmbeddingSize,
		},
	}
	// flags win over omitted-but-empty values
	if meta.Features.HasTimbreData && m.Timbre == nil {
		m.Timbre = TimbreStatistics{}
	}
	if meta.Features.HasEmotionProfile && m.Emotion == nil {
		m.Emotion = []float64{}
	}
	if meta.Features.HasPitchData && m.Pitch == nil {
		m.Pitch = &PitchStatistics{}
	}
	return m, nil
}
