package voicemodel

import (
	"math"
	"testing"

	"github.com/RyanBlaney/sonido-voz/features"
)

func TestClassifyVoiceType(t *testing.T) {
	tests := []struct {
		mean float64
		want string
	}{
		{50, "bass"},
		{84.9, "bass"},
		{85, "baritone"},
		{90, "baritone"},
		{200, "tenor"},
		{250, "alto"},
		{400, "soprano"},
		{525, "unknown"},
	}
	for _, tt := range tests {
		if got := ClassifyVoiceType(tt.mean); got != tt.want {
			t.Errorf("ClassifyVoiceType(%v) = %q, want %q", tt.mean, got, tt.want)
		}
	}
}

func TestNewPitchStatisticsVoicedOnly(t *testing.T) {
	stats := NewPitchStatistics([]float64{0, 100, 0, 200, 150, 0})
	if stats.Mean != 150 || stats.Min != 100 || stats.Max != 200 || stats.Range != 100 {
		t.Fatalf("stats = %+v", stats)
	}
	// population std of {100, 200, 150}
	if math.Abs(stats.Std-math.Sqrt(5000.0/3)) > 1e-9 {
		t.Fatalf("std = %v", stats.Std)
	}
}

func TestNewPitchStatisticsUnvoiced(t *testing.T) {
	stats := NewPitchStatistics([]float64{0, 0, 0})
	if *stats != (PitchStatistics{}) {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestNewTimbreStatistics(t *testing.T) {
	stats := NewTimbreStatistics([]features.CoefficientSeries{
		{Name: "mfcc_0", Values: []float64{1, 3}},
		{Name: "mfcc_1", Values: nil},
	})
	if got := stats["mfcc_0"]; got.Mean != 2 || got.Std != 1 || got.DynamicRange != 2 {
		t.Fatalf("mfcc_0 = %+v", got)
	}
	if got := stats["mfcc_1"]; got != (CoefficientStats{}) {
		t.Fatalf("mfcc_1 = %+v", got)
	}
}

func TestDominantEmotion(t *testing.T) {
	m := &VoiceModel{Emotion: []float64{0.1, 0.5, 0.1, 0.2, 0.1}}
	if name, p := m.DominantEmotion(); name != "happy" || p != 0.5 {
		t.Fatalf("dominant = %s %v", name, p)
	}

	tie := &VoiceModel{Emotion: []float64{0.2, 0.2, 0.2, 0.2, 0.2}}
	if name, _ := tie.DominantEmotion(); name != "neutral" {
		t.Fatalf("tie resolved to %s", name)
	}

	if name, _ := (&VoiceModel{}).DominantEmotion(); name != "" {
		t.Fatalf("absent profile gave %s", name)
	}
}

func TestCloneIsDeep(t *testing.T) {
	m := &VoiceModel{
		ID:        "a",
		Embedding: []float32{1, 2},
		Pitch:     &PitchStatistics{Mean: 100},
		Timbre:    TimbreStatistics{"mfcc_0": {Mean: 1}},
		Emotion:   []float64{1, 0, 0, 0, 0},
	}
	c := m.Clone()
	c.Embedding[0] = 9
	c.Pitch.Mean = 9
	c.Timbre["mfcc_0"] = CoefficientStats{Mean: 9}
	c.Emotion[0] = 9

	if m.Embedding[0] != 1 || m.Pitch.Mean != 100 || m.Timbre["mfcc_0"].Mean != 1 || m.Emotion[0] != 1 {
		t.Fatal("clone shares state with original")
	}
}

func TestEmbeddingCodec(t *testing.T) {
	in := []float32{0, -1.5, 3.25, float32(math.Inf(1))}
	out, err := decodeEmbedding(encodeEmbedding(in))
	if err != nil {
		t.Fatal(err)
	}
	for i := range in {
		if in[i] != out[i] {
			t.Fatalf("value %d = %v, want %v", i, out[i], in[i])
		}
	}
	if _, err := decodeEmbedding([]byte{1, 2, 3}); err == nil {
		t.Fatal("expected error for truncated file")
	}
}
