// Package backend defines the opaque numeric collaborators of the voice
// pipeline and their implementations.
//
// An [EmbeddingBackend] turns a recording into a mel-spectrogram grid and a
// grid into a fixed-length voice embedding. A [SynthesisBackend] renders text
// with a stored voice. Both may be slow or remote, so callers run them
// through a [Runner], which bounds concurrency and applies a timeout.
//
// # Implementations
//
//   - [Local]: log-mel analysis and a pooled-statistics projection, no network
//   - [Remote]: JSON over HTTP to an embedding service
//   - [MiniMax]: MiniMax t2a_v2 speech synthesis
package backend

import (
	"context"
)

// MelGrid is a mel spectrogram, one row of bins per frame. An empty grid is
// valid and means no frames could be analysed.
type MelGrid [][]float64

// Frames returns the number of frames
func (g MelGrid) Frames() int {
	return len(g)
}

// Bins returns the number of mel bins per frame, or 0 for an empty grid
func (g MelGrid) Bins() int {
	if len(g) == 0 {
		return 0
	}
	return len(g[0])
}

// EmbeddingBackend produces mel grids and voice embeddings.
type EmbeddingBackend interface {
	// Mel computes the mel spectrogram of mono samples at rate.
	Mel(ctx context.Context, samples []float64, rate int) (MelGrid, error)

	// Embed maps a mel grid to a vector of Dimension() values.
	Embed(ctx context.Context, mel MelGrid) ([]float32, error)

	// Dimension returns the length of every embedding.
	Dimension() int
}

// SynthesisRequest is what a synthesis backend needs to render text.
type SynthesisRequest struct {
	Text    string  `json:"text"`
	VoiceID string  `json:"voice_id"`
	Speed   float64 `json:"speed"`

	// Emotion is empty when the voice should stay neutral
	Emotion         string  `json:"emotion,omitempty"`
	EmotionStrength float64 `json:"emotion_strength,omitempty"`
}

// SynthesisBackend renders text to encoded audio.
type SynthesisBackend interface {
	Synthesize(ctx context.Context, req SynthesisRequest) ([]byte, error)
}
