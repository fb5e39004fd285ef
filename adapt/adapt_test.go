package adapt

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/RyanBlaney/sonido-voz/logging"
	"github.com/RyanBlaney/sonido-voz/voicemodel"
)

func testModel() *voicemodel.VoiceModel {
	return &voicemodel.VoiceModel{
		ID:        "voice-1",
		Embedding: []float32{0.5, 0.5},
		Pitch:     &voicemodel.PitchStatistics{Mean: 100, Std: 10, Min: 100, Max: 200, Range: 100},
		Timbre:    voicemodel.TimbreStatistics{"mfcc_0": {Mean: 1}},
		Emotion:   []float64{0.2, 0.2, 0.2, 0.2, 0.2},
	}
}

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestSentiment(t *testing.T) {
	a := New(&logging.NoOpLogger{})
	tests := []struct {
		text string
		want float64
	}{
		{"", 0},
		{"I am happy", 1.0 / 3},
		{"estoy muy triste", -1.0 / 3},
		{"happy but sad", 0},
		{"¡Qué día tan feliz!", 0.25},
		{"GREAT, great... bad", 2.0 / 3},
	}
	for _, tt := range tests {
		if got := a.Sentiment(tt.text); !near(got, tt.want) {
			t.Errorf("Sentiment(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestSentimentNormalizesComposedForms(t *testing.T) {
	a := New(&logging.NoOpLogger{}, WithLexicon(Lexicon{Positive: []string{"qué"}}))
	// "que" followed by a combining acute accent
	if got := a.Sentiment("que\u0301"); got != 1 {
		t.Fatalf("decomposed form scored %v", got)
	}
}

func TestApplyContextQuestion(t *testing.T) {
	a := New(&logging.NoOpLogger{})
	m := testModel()
	got := a.ApplyContext(m, "Are you there?")

	if !near(got.Pitch.Mean, 110) {
		t.Fatalf("mean = %v", got.Pitch.Mean)
	}
	if got.Pitch.Range != 100 {
		t.Fatalf("range = %v", got.Pitch.Range)
	}
	if m.Pitch.Mean != 100 {
		t.Fatal("original model mutated")
	}
}

func TestApplyContextExclamation(t *testing.T) {
	a := New(&logging.NoOpLogger{})
	got := a.ApplyContext(testModel(), "Watch out!")

	p := got.Pitch
	if !near(p.Range, 120) || !near(p.Min, 90) || !near(p.Max, 210) {
		t.Fatalf("pitch = %+v", p)
	}
	if p.Range != p.Max-p.Min {
		t.Fatalf("range %v != max-min %v", p.Range, p.Max-p.Min)
	}
	if p.Mean != 100 {
		t.Fatalf("mean = %v", p.Mean)
	}
}

func TestApplyContextSentiment(t *testing.T) {
	a := New(&logging.NoOpLogger{})

	pos := a.ApplyContext(testModel(), "I am happy")
	if !near(pos.Pitch.Mean, 100*(1+0.2/3)) {
		t.Fatalf("positive mean = %v", pos.Pitch.Mean)
	}

	neg := a.ApplyContext(testModel(), "estoy muy triste")
	if !near(neg.Pitch.Mean, 100*(1-0.15/3)) {
		t.Fatalf("negative mean = %v", neg.Pitch.Mean)
	}
}

func TestApplyContextCopiesUntouchedFields(t *testing.T) {
	a := New(&logging.NoOpLogger{})
	m := testModel()
	got := a.ApplyContext(m, "plain text")

	if *got.Pitch != *m.Pitch || got.Embedding[0] != m.Embedding[0] || got.Timbre["mfcc_0"] != m.Timbre["mfcc_0"] {
		t.Fatalf("got %+v", got)
	}
	got.Embedding[0] = 9
	if m.Embedding[0] == 9 {
		t.Fatal("adapted model shares embedding")
	}
}

func TestApplyContextWithoutPitch(t *testing.T) {
	a := New(&logging.NoOpLogger{})
	m := testModel()
	m.Pitch = nil
	if got := a.ApplyContext(m, "Really?!"); got.Pitch != nil {
		t.Fatalf("pitch = %+v", got.Pitch)
	}
}

func TestApplyEmotion(t *testing.T) {
	a := New(&logging.NoOpLogger{})
	m := testModel()
	m.Emotion = nil

	got := a.ApplyEmotion(m, map[string]float64{"happy": 1, "bored": 1})

	want := []float64{0, 1, 0, 0, 0}
	for i := range want {
		if got.Emotion[i] != want[i] {
			t.Fatalf("emotion = %v", got.Emotion)
		}
	}
	if !near(got.Pitch.Mean, 120) || !near(got.Pitch.Range, 130) {
		t.Fatalf("pitch = %+v", got.Pitch)
	}
	if got.Pitch.Range != got.Pitch.Max-got.Pitch.Min {
		t.Fatal("range invariant broken")
	}
	if m.Emotion != nil {
		t.Fatal("original model mutated")
	}
}

func TestApplyEmotionClampsStrengths(t *testing.T) {
	a := New(&logging.NoOpLogger{})
	got := a.ApplyEmotion(testModel(), map[string]float64{"sad": 3, "angry": -1})

	// sad clamped to 1, angry to 0: [0.2, 0.2, 1, 0, 0.2] / 1.6
	if !near(got.Emotion[2], 1/1.6) || got.Emotion[3] != 0 {
		t.Fatalf("emotion = %v", got.Emotion)
	}
	if !near(got.Pitch.Mean, 90) || !near(got.Pitch.Range, 90) {
		t.Fatalf("pitch = %+v", got.Pitch)
	}
}

func TestApplyEmotionIgnoresNaN(t *testing.T) {
	a := New(&logging.NoOpLogger{})
	got := a.ApplyEmotion(testModel(), map[string]float64{"happy": math.NaN(), "sad": math.Inf(1)})

	// happy skipped, sad clamped to 1: [0.2, 0.2, 1, 0.2, 0.2] / 1.8
	for i, p := range got.Emotion {
		if math.IsNaN(p) {
			t.Fatalf("emotion %d is NaN: %v", i, got.Emotion)
		}
	}
	if !near(got.Emotion[1], 0.2/1.8) || !near(got.Emotion[2], 1/1.8) {
		t.Fatalf("emotion = %v", got.Emotion)
	}
	if math.IsNaN(got.Pitch.Mean) || math.IsNaN(got.Pitch.Range) {
		t.Fatalf("pitch = %+v", got.Pitch)
	}
	if got.Pitch.Range != got.Pitch.Max-got.Pitch.Min {
		t.Fatal("range invariant broken")
	}
}

func TestApplyEmotionZeroSumLeftUnchanged(t *testing.T) {
	a := New(&logging.NoOpLogger{})
	m := testModel()
	m.Emotion = []float64{0, 0, 0, 0, 0}

	got := a.ApplyEmotion(m, map[string]float64{"neutral": 0})
	for _, p := range got.Emotion {
		if p != 0 {
			t.Fatalf("emotion = %v", got.Emotion)
		}
	}
	if got.Pitch.Mean != 100 || got.Pitch.Range != 100 {
		t.Fatalf("pitch = %+v", got.Pitch)
	}
}

func TestApplyEmotionSumsToOne(t *testing.T) {
	a := New(&logging.NoOpLogger{})
	rng := rand.New(rand.NewPCG(7, 11))
	names := []string{"neutral", "happy", "sad", "angry", "surprised"}

	for range 200 {
		m := testModel()
		for i := range m.Emotion {
			m.Emotion[i] = rng.Float64()
		}
		strengths := map[string]float64{names[rng.IntN(len(names))]: 0.01 + rng.Float64()}

		got := a.ApplyEmotion(m, strengths)
		sum := 0.0
		for _, p := range got.Emotion {
			sum += p
		}
		if math.Abs(sum-1) > 1e-6 {
			t.Fatalf("sum = %v for %v", sum, strengths)
		}
	}
}

func TestAdaptComposes(t *testing.T) {
	a := New(&logging.NoOpLogger{})
	got := a.Adapt(testModel(), "Ready?", map[string]float64{"happy": 1})

	if !near(got.Pitch.Mean, 100*1.1*1.2) {
		t.Fatalf("mean = %v", got.Pitch.Mean)
	}

	plain := a.Adapt(testModel(), "Ready?", nil)
	if plain.Emotion[1] != 0.2 {
		t.Fatalf("emotion changed without strengths: %v", plain.Emotion)
	}
}

func TestSynthesisRequest(t *testing.T) {
	m := testModel()
	m.Pitch.Range = 10
	m.Emotion = []float64{0.1, 0.5, 0.1, 0.2, 0.1}

	req := SynthesisRequest(m, "hola")
	if req.Text != "hola" || req.VoiceID != "voice-1" {
		t.Fatalf("req = %+v", req)
	}
	if !near(req.Speed, 0.9) {
		t.Fatalf("speed = %v", req.Speed)
	}
	if req.Emotion != "happy" || req.EmotionStrength != 0.5 {
		t.Fatalf("emotion = %s %v", req.Emotion, req.EmotionStrength)
	}

	m.Pitch.Range = 300
	if req := SynthesisRequest(m, "x"); !near(req.Speed, 0.8) {
		t.Fatalf("speed for wide range = %v", req.Speed)
	}
}

func TestSynthesisRequestOmitsWeakOrNeutralEmotion(t *testing.T) {
	tests := [][]float64{
		{0.9, 0.1, 0, 0, 0},
		{0.3, 0.4, 0.3, 0, 0},
		nil,
	}
	for _, profile := range tests {
		m := testModel()
		m.Emotion = profile
		if req := SynthesisRequest(m, "x"); req.Emotion != "" || req.EmotionStrength != 0 {
			t.Errorf("profile %v sent %s", profile, req.Emotion)
		}
	}

	m := testModel()
	m.Pitch = nil
	if req := SynthesisRequest(m, "x"); req.Speed != 1 {
		t.Fatalf("speed = %v", req.Speed)
	}
}
