package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/RyanBlaney/sonido-voz/transcode"
	"github.com/RyanBlaney/sonido-voz/voicemodel"
)

func TestSummarize(t *testing.T) {
	m := &voicemodel.VoiceModel{
		ID:        "abc",
		Embedding: make([]float32, 4),
		Pitch:     &voicemodel.PitchStatistics{Mean: 200, Min: 150, Max: 250, Range: 100},
		Emotion:   []float64{0.1, 0.2, 0.5, 0.1, 0.1},
	}
	s := summarize(m)
	if s.VoiceType != "tenor" || s.DominantEmotion != "sad" || s.EmbeddingSize != 4 {
		t.Fatalf("summary = %+v", s)
	}
	if s.Emotion["sad"] != 0.5 || s.Pitch.Range != 100 {
		t.Fatalf("summary = %+v", s)
	}
}

func TestWriteResultFormats(t *testing.T) {
	v := map[string]any{"deleted": "abc"}

	var y bytes.Buffer
	if err := writeResult(&y, v, false); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(y.String()) != "deleted: abc" {
		t.Fatalf("yaml = %q", y.String())
	}

	var j bytes.Buffer
	if err := writeResult(&j, v, true); err != nil {
		t.Fatal(err)
	}
	var back map[string]string
	if err := json.Unmarshal(j.Bytes(), &back); err != nil || back["deleted"] != "abc" {
		t.Fatalf("json = %q (%v)", j.String(), err)
	}
}

func TestWriteAudioWrapsRawPCM(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")
	// 0, +half, -half as int16 little-endian
	raw := []byte{0x00, 0x00, 0x00, 0x40, 0x00, 0xc0}
	if err := writeAudio(path, raw, 16000); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	data, err := transcode.DecodeWAV(f)
	if err != nil {
		t.Fatal(err)
	}
	if data.SampleRate != 16000 || len(data.PCM) != 3 {
		t.Fatalf("decoded %d samples at %d Hz", len(data.PCM), data.SampleRate)
	}
	if d := data.PCM[1] - 0.5; d > 1e-3 || d < -1e-3 {
		t.Fatalf("sample = %v", data.PCM[1])
	}
}

func TestWriteAudioKeepsWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")
	content := []byte("RIFF....WAVEfmt ")
	if err := writeAudio(path, content, 16000); err != nil {
		t.Fatal(err)
	}
	got, _ := os.ReadFile(path)
	if !bytes.Equal(got, content) {
		t.Fatalf("content = %q", got)
	}
	if err := writeAudio(path, []byte{1, 2, 3}, 16000); err == nil {
		t.Fatal("expected error for odd PCM length")
	}
}
