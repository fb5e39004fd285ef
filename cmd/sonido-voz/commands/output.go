package commands

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/RyanBlaney/sonido-voz/features"
	"github.com/RyanBlaney/sonido-voz/transcode"
	"github.com/RyanBlaney/sonido-voz/voicemodel"
)

// outputResult prints v to stdout as YAML, or JSON with --json
func outputResult(v any) error {
	return writeResult(os.Stdout, v, outputJSON)
}

func writeResult(w io.Writer, v any, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

type pitchSummary struct {
	Mean  float64 `json:"mean" yaml:"mean"`
	Std   float64 `json:"std" yaml:"std"`
	Min   float64 `json:"min" yaml:"min"`
	Max   float64 `json:"max" yaml:"max"`
	Range float64 `json:"range" yaml:"range"`
}

type modelSummary struct {
	ID              string             `json:"id" yaml:"id"`
	VoiceType       string             `json:"voice_type" yaml:"voice_type"`
	DominantEmotion string             `json:"dominant_emotion,omitempty" yaml:"dominant_emotion,omitempty"`
	Pitch           *pitchSummary      `json:"pitch,omitempty" yaml:"pitch,omitempty"`
	Emotion         map[string]float64 `json:"emotion,omitempty" yaml:"emotion,omitempty"`
	TimbreCount     int                `json:"timbre_coefficients" yaml:"timbre_coefficients"`
	EmbeddingSize   int                `json:"embedding_size" yaml:"embedding_size"`
	SampleRate      int                `json:"sample_rate" yaml:"sample_rate"`
	Revision        int                `json:"revision" yaml:"revision"`
	CreatedAt       time.Time          `json:"created_at" yaml:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at" yaml:"updated_at"`
}

func summarize(m *voicemodel.VoiceModel) modelSummary {
	s := modelSummary{
		ID:            m.ID,
		VoiceType:     m.VoiceType(),
		TimbreCount:   len(m.Timbre),
		EmbeddingSize: len(m.Embedding),
		SampleRate:    m.Metadata.SampleRate,
		Revision:      m.Metadata.Revision,
		CreatedAt:     m.Metadata.CreatedAt,
		UpdatedAt:     m.Metadata.UpdatedAt,
	}
	s.DominantEmotion, _ = m.DominantEmotion()
	if m.Pitch != nil {
		p := pitchSummary(*m.Pitch)
		s.Pitch = &p
	}
	if len(m.Emotion) > 0 {
		s.Emotion = make(map[string]float64, len(m.Emotion))
		for i, p := range m.Emotion {
			if i < len(features.Emotions) {
				s.Emotion[features.Emotions[i]] = p
			}
		}
	}
	return s
}

// writeAudio stores synthesized audio at path. WAV containers are written as
// received; anything else is taken as 16-bit little-endian mono PCM and
// wrapped in a WAV header.
func writeAudio(path string, data []byte, sampleRate int) error {
	if bytes.HasPrefix(data, []byte("RIFF")) {
		return os.WriteFile(path, data, 0o644)
	}
	if len(data)%2 != 0 {
		return fmt.Errorf("raw PCM has odd length %d", len(data))
	}

	samples := make([]float64, len(data)/2)
	for i := range samples {
		samples[i] = float64(int16(binary.LittleEndian.Uint16(data[i*2:]))) / 32768.0
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := transcode.WriteWAV(f, samples, sampleRate); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
