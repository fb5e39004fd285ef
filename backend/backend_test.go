package backend

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/RyanBlaney/sonido-voz/logging"
	"github.com/RyanBlaney/sonido-voz/voiceerr"
)

func tone(freq float64, rate, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Sin(2 * math.Pi * freq * float64(i) / float64(rate))
	}
	return out
}

func TestLocalMelShape(t *testing.T) {
	l := NewLocal(LocalConfig{Dimension: 64})
	grid, err := l.Mel(context.Background(), tone(220, 22050, 4096), 22050)
	if err != nil {
		t.Fatal(err)
	}
	if grid.Frames() != (4096-512)/128+1 {
		t.Fatalf("frames = %d", grid.Frames())
	}
	if grid.Bins() != DefaultMelBins {
		t.Fatalf("bins = %d", grid.Bins())
	}
}

func TestLocalMelShortIsEmpty(t *testing.T) {
	grid, err := NewLocal(LocalConfig{}).Mel(context.Background(), make([]float64, 100), 22050)
	if err != nil {
		t.Fatal(err)
	}
	if grid.Frames() != 0 {
		t.Fatalf("frames = %d", grid.Frames())
	}
}

func TestLocalEmbedNormalizedAndDeterministic(t *testing.T) {
	ctx := context.Background()
	a := NewLocal(LocalConfig{Dimension: 32, Seed: 7})
	b := NewLocal(LocalConfig{Dimension: 32, Seed: 7})

	grid, err := a.Mel(ctx, tone(300, 22050, 8192), 22050)
	if err != nil {
		t.Fatal(err)
	}
	ea, err := a.Embed(ctx, grid)
	if err != nil {
		t.Fatal(err)
	}
	eb, err := b.Embed(ctx, grid)
	if err != nil {
		t.Fatal(err)
	}

	if len(ea) != 32 {
		t.Fatalf("len = %d", len(ea))
	}
	norm := 0.0
	for i := range ea {
		if ea[i] != eb[i] {
			t.Fatalf("embedding differs at %d", i)
		}
		norm += float64(ea[i]) * float64(ea[i])
	}
	if math.Abs(norm-1) > 1e-4 {
		t.Fatalf("norm^2 = %v", norm)
	}
}

func TestLocalEmbedEmptyGridIsZero(t *testing.T) {
	e, err := NewLocal(LocalConfig{Dimension: 16}).Embed(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range e {
		if v != 0 {
			t.Fatalf("e[%d] = %v", i, v)
		}
	}
}

func TestRemoteEmbedding(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer k" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.URL.Path {
		case "/v1/mel":
			var req melRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			json.NewEncoder(w).Encode(melResponse{Mel: MelGrid{{1, 2}, {3, 4}}})
		case "/v1/embed":
			json.NewEncoder(w).Encode(embedResponse{Embedding: []float32{0.5, 0.5}})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	r := NewRemote(srv.URL, 2, WithAPIKey("k"), WithLogger(&logging.NoOpLogger{}))
	grid, err := r.Mel(context.Background(), []float64{0, 1}, 22050)
	if err != nil {
		t.Fatal(err)
	}
	if grid.Frames() != 2 || grid.Bins() != 2 {
		t.Fatalf("grid = %v", grid)
	}
	e, err := r.Embed(context.Background(), grid)
	if err != nil {
		t.Fatal(err)
	}
	if len(e) != 2 || e[0] != 0.5 {
		t.Fatalf("embedding = %v", e)
	}
}

func TestMiniMaxSynthesize(t *testing.T) {
	var got miniMaxRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/t2a_v2" {
			http.NotFound(w, r)
			return
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"data":{"audio":"` + hex.EncodeToString([]byte("RIFFdata")) + `","status":2},"trace_id":"t1","base_resp":{"status_code":0,"status_msg":"success"}}`))
	}))
	defer srv.Close()

	m := NewMiniMax(MiniMaxConfig{BaseURL: srv.URL}, WithLogger(&logging.NoOpLogger{}))
	audio, err := m.Synthesize(context.Background(), SynthesisRequest{
		Text: "hola", VoiceID: "v1", Speed: 0.9, Emotion: "happy", EmotionStrength: 0.6,
	})
	if err != nil {
		t.Fatal(err)
	}
	if string(audio) != "RIFFdata" {
		t.Fatalf("audio = %q", audio)
	}
	if got.VoiceSetting.VoiceID != "v1" || got.VoiceSetting.Speed != 0.9 || got.VoiceSetting.Emotion != "happy" {
		t.Fatalf("request = %+v", got.VoiceSetting)
	}
}

func TestMiniMaxRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"data":{"audio":"00ff"}}`))
	}))
	defer srv.Close()

	m := NewMiniMax(MiniMaxConfig{BaseURL: srv.URL}, WithBackoff(time.Millisecond), WithLogger(&logging.NoOpLogger{}))
	audio, err := m.Synthesize(context.Background(), SynthesisRequest{Text: "hi", VoiceID: "v"})
	if err != nil {
		t.Fatal(err)
	}
	if len(audio) != 2 || calls.Load() != 2 {
		t.Fatalf("audio = %v after %d calls", audio, calls.Load())
	}
}

func TestMiniMaxDoesNotRetryAuthErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"base_resp":{"status_code":1001,"status_msg":"invalid api key"}}`))
	}))
	defer srv.Close()

	m := NewMiniMax(MiniMaxConfig{BaseURL: srv.URL}, WithBackoff(time.Millisecond), WithLogger(&logging.NoOpLogger{}))
	_, err := m.Synthesize(context.Background(), SynthesisRequest{Text: "hi", VoiceID: "v"})

	apiErr, ok := AsAPIError(err)
	if !ok || !apiErr.IsInvalidAPIKey() {
		t.Fatalf("err = %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("calls = %d", calls.Load())
	}
}

type slowBackend struct {
	delay time.Duration
}

func (s slowBackend) Synthesize(ctx context.Context, req SynthesisRequest) ([]byte, error) {
	select {
	case <-time.After(s.delay):
		return []byte("late"), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestRunnerTimeout(t *testing.T) {
	r := NewRunner(1, 20*time.Millisecond, &logging.NoOpLogger{})
	_, err := r.Synthesis(slowBackend{delay: time.Second}).Synthesize(context.Background(), SynthesisRequest{})
	if !errors.Is(err, voiceerr.ErrBackendUnavailable) {
		t.Fatalf("err = %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("cause lost: %v", err)
	}
}

func TestRunnerCancellation(t *testing.T) {
	r := NewRunner(1, time.Minute, &logging.NoOpLogger{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Call(ctx, r, "test", func(ctx context.Context) (int, error) { return 1, nil })
	if !errors.Is(err, voiceerr.ErrBackendUnavailable) {
		t.Fatalf("err = %v", err)
	}
}

func TestRunnerBoundsConcurrency(t *testing.T) {
	r := NewRunner(2, time.Second, &logging.NoOpLogger{})

	var active, peak atomic.Int32
	done := make(chan struct{})
	for range 6 {
		go func() {
			Call(context.Background(), r, "test", func(ctx context.Context) (int, error) {
				n := active.Add(1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}
				time.Sleep(10 * time.Millisecond)
				active.Add(-1)
				return 0, nil
			})
			done <- struct{}{}
		}()
	}
	for range 6 {
		<-done
	}
	if peak.Load() > 2 {
		t.Fatalf("peak concurrency = %d", peak.Load())
	}
}

func TestRunnerWrapsBackendErrors(t *testing.T) {
	r := NewRunner(1, time.Second, &logging.NoOpLogger{})
	boom := errors.New("boom")
	_, err := Call(context.Background(), r, "test", func(ctx context.Context) (int, error) { return 0, boom })
	if !errors.Is(err, voiceerr.ErrBackendUnavailable) || !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if !voiceerr.Retryable(err) {
		t.Fatal("backend errors should be retryable")
	}
}
