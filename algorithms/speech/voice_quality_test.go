package speech

import (
	"math"
	"testing"
)

func TestAnalyzeVoiceQualitySteadyVoice(t *testing.T) {
	pitch := []float64{100, 100, 100, 100}
	energy := []float64{0.25, 0.25, 0.25, 0.25}

	q := AnalyzeVoiceQuality(pitch, energy)
	if q.Jitter != 0 || q.Shimmer != 0 || q.VoicedFrames != 4 {
		t.Fatalf("quality = %+v", q)
	}
}

func TestAnalyzeVoiceQualityPerturbation(t *testing.T) {
	// periods 0.01, 0.02, 0.01: mean 0.04/3, mean change 0.01
	pitch := []float64{100, 50, 100}
	// amplitudes 0.5, 1, 0.5: mean 2/3, mean change 0.5
	energy := []float64{0.25, 1, 0.25}

	q := AnalyzeVoiceQuality(pitch, energy)
	if math.Abs(q.Jitter-0.75) > 1e-9 {
		t.Errorf("jitter = %v, want 0.75", q.Jitter)
	}
	if math.Abs(q.Shimmer-0.75) > 1e-9 {
		t.Errorf("shimmer = %v, want 0.75", q.Shimmer)
	}
}

func TestAnalyzeVoiceQualityUnvoicedGaps(t *testing.T) {
	// no two voiced frames are adjacent
	q := AnalyzeVoiceQuality([]float64{100, 0, 200, 0}, []float64{1, 0, 0.01, 0})
	if q.Jitter != 0 || q.Shimmer != 0 || q.VoicedFrames != 2 {
		t.Fatalf("quality = %+v", q)
	}

	if q := AnalyzeVoiceQuality(nil, nil); q.VoicedFrames != 0 {
		t.Fatalf("empty quality = %+v", q)
	}
}
