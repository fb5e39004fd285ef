package backend

import (
	"context"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/RyanBlaney/sonido-voz/logging"
	"github.com/RyanBlaney/sonido-voz/voiceerr"
)

// Runner executes backend calls on a bounded number of workers with a
// per-call timeout. Every failure, cancellation or timeout is reported as
// voiceerr.ErrBackendUnavailable. A call abandoned by timeout keeps its
// worker slot until the backend returns; its result is discarded.
type Runner struct {
	sem     *semaphore.Weighted
	timeout time.Duration
	logger  logging.Logger
}

// NewRunner creates a Runner with workers concurrent slots
func NewRunner(workers int, timeout time.Duration, logger logging.Logger) *Runner {
	if workers <= 0 {
		workers = 1
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Runner{
		sem:     semaphore.NewWeighted(int64(workers)),
		timeout: timeout,
		logger: logging.OrDefault(logger).WithFields(logging.Fields{
			"component": "backend_runner",
		}),
	}
}

// Call runs fn on r. op names the call in errors and logs.
func Call[T any](ctx context.Context, r *Runner, op string, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if err := r.sem.Acquire(callCtx, 1); err != nil {
		return zero, r.unavailable(op, err)
	}

	type result struct {
		value T
		err   error
	}
	done := make(chan result, 1)
	go func() {
		defer r.sem.Release(1)
		v, err := fn(callCtx)
		done <- result{value: v, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return zero, r.unavailable(op, res.err)
		}
		return res.value, nil
	case <-callCtx.Done():
		return zero, r.unavailable(op, callCtx.Err())
	}
}

func (r *Runner) unavailable(op string, cause error) error {
	r.logger.Warn("Backend call failed", logging.Fields{
		"function": op,
		"error":    cause.Error(),
	})
	return voiceerr.New(voiceerr.ErrBackendUnavailable, "backend."+op, "", cause)
}

// Embedding returns b with every call routed through r
func (r *Runner) Embedding(b EmbeddingBackend) EmbeddingBackend {
	return &boundedEmbedding{runner: r, backend: b}
}

// Synthesis returns b with every call routed through r
func (r *Runner) Synthesis(b SynthesisBackend) SynthesisBackend {
	return &boundedSynthesis{runner: r, backend: b}
}

type boundedEmbedding struct {
	runner  *Runner
	backend EmbeddingBackend
}

func (b *boundedEmbedding) Mel(ctx context.Context, samples []float64, rate int) (MelGrid, error) {
	return Call(ctx, b.runner, "mel", func(ctx context.Context) (MelGrid, error) {
		return b.backend.Mel(ctx, samples, rate)
	})
}

func (b *boundedEmbedding) Embed(ctx context.Context, mel MelGrid) ([]float32, error) {
	return Call(ctx, b.runner, "embed", func(ctx context.Context) ([]float32, error) {
		return b.backend.Embed(ctx, mel)
	})
}

func (b *boundedEmbedding) Dimension() int {
	return b.backend.Dimension()
}

type boundedSynthesis struct {
	runner  *Runner
	backend SynthesisBackend
}

func (b *boundedSynthesis) Synthesize(ctx context.Context, req SynthesisRequest) ([]byte, error) {
	return Call(ctx, b.runner, "synthesize", func(ctx context.Context) ([]byte, error) {
		return b.backend.Synthesize(ctx, req)
	})
}
