package transcode

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/RyanBlaney/sonido-voz/logging"
)

func writeTestWAV(t *testing.T, samples []float64, rate int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "in.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := WriteWAV(f, samples, rate); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestWAVRoundTrip(t *testing.T) {
	samples := []float64{0, 0.5, -0.5, 0.25, 1, -1}
	path := writeTestWAV(t, samples, 16000)

	dec := NewDecoder(nil, &logging.NoOpLogger{})
	data, err := dec.DecodeFile(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}

	if data.SampleRate != 16000 || data.Channels != 1 {
		t.Fatalf("format = %d Hz, %d ch", data.SampleRate, data.Channels)
	}
	if len(data.PCM) != len(samples) {
		t.Fatalf("samples = %d, want %d", len(data.PCM), len(samples))
	}
	for i, want := range samples {
		if math.Abs(data.PCM[i]-want) > 1e-3 {
			t.Errorf("sample %d = %v, want %v", i, data.PCM[i], want)
		}
	}
}

func TestDecodeBytesDetectsWAV(t *testing.T) {
	path := writeTestWAV(t, make([]float64, 22050), 22050)
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	data, err := NewDecoder(nil, &logging.NoOpLogger{}).DecodeBytes(context.Background(), content, 0)
	if err != nil {
		t.Fatal(err)
	}
	if data.Duration != time.Second {
		t.Fatalf("duration = %v", data.Duration)
	}
}

func TestDecodeBytesEmpty(t *testing.T) {
	if _, err := NewDecoder(nil, &logging.NoOpLogger{}).DecodeBytes(context.Background(), nil, 22050); err == nil {
		t.Fatal("expected error")
	}
}

func TestDownmix(t *testing.T) {
	got := Downmix([]float64{1, 0, 0.5, 0.5, -1, 1}, 2)
	want := []float64{0.5, 0.5, 0}
	if len(got) != len(want) {
		t.Fatalf("len = %d", len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("frame %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestParseFFprobeOutput(t *testing.T) {
	out := []byte(`{"streams":[{"codec_type":"audio","codec_name":"mp3","sample_rate":"44100","channels":2,"duration":"3.5"}]}`)
	meta, err := parseFFprobeOutput(out)
	if err != nil {
		t.Fatal(err)
	}
	if meta.SampleRate != 44100 || meta.Channels != 2 || meta.Duration != 3.5 {
		t.Fatalf("meta = %+v", meta)
	}

	if _, err := parseFFprobeOutput([]byte(`{"streams":[]}`)); err == nil {
		t.Fatal("expected error for no streams")
	}
}

func TestBytesToFloat64DropsPartialSample(t *testing.T) {
	if got := bytesToFloat64(make([]byte, 20)); len(got) != 2 {
		t.Fatalf("samples = %d, want 2", len(got))
	}
}
