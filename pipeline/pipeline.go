// Package pipeline wires decoding, feature extraction, the voice model store,
// adaptation, synthesis and feedback into the operations exposed by the CLI.
package pipeline

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/RyanBlaney/sonido-voz/adapt"
	"github.com/RyanBlaney/sonido-voz/backend"
	"github.com/RyanBlaney/sonido-voz/config"
	"github.com/RyanBlaney/sonido-voz/feedback"
	"github.com/RyanBlaney/sonido-voz/features"
	"github.com/RyanBlaney/sonido-voz/logging"
	"github.com/RyanBlaney/sonido-voz/transcode"
	"github.com/RyanBlaney/sonido-voz/voiceerr"
	"github.com/RyanBlaney/sonido-voz/voicemodel"
)

// Pipeline owns one instance of every component
type Pipeline struct {
	config    *config.Config
	runner    *backend.Runner
	decoder   *transcode.Decoder
	embedding backend.EmbeddingBackend
	synthesis backend.SynthesisBackend
	extractor *features.Extractor
	store     *voicemodel.Store
	adapter   *adapt.Adapter
	feedback  *feedback.Adapter
	logger    logging.Logger
}

// Option overrides a component New would otherwise build from config
type Option func(*Pipeline)

// WithEmbeddingBackend replaces the configured embedding backend
func WithEmbeddingBackend(b backend.EmbeddingBackend) Option {
	return func(p *Pipeline) { p.embedding = b }
}

// WithSynthesisBackend replaces the configured synthesis backend
func WithSynthesisBackend(b backend.SynthesisBackend) Option {
	return func(p *Pipeline) { p.synthesis = b }
}

// WithDecoder replaces the default decoder
func WithDecoder(d *transcode.Decoder) Option {
	return func(p *Pipeline) { p.decoder = d }
}

// New builds a pipeline from cfg. The embedding backend is remote when
// backend.embedding_url is set and local otherwise. Synthesis needs
// backend.synthesis_key; without it Synthesize reports the backend as
// unavailable.
func New(cfg *config.Config, logger logging.Logger, opts ...Option) (*Pipeline, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	logger = logging.OrDefault(logger)

	p := &Pipeline{
		config: cfg,
		runner: backend.NewRunner(cfg.Backend.Workers, cfg.Backend.Timeout, logger),
		logger: logger.WithFields(logging.Fields{
			"component": "voice_pipeline",
		}),
	}
	for _, o := range opts {
		o(p)
	}

	if p.decoder == nil {
		p.decoder = transcode.NewDecoder(nil, logger)
	}
	if p.embedding == nil {
		p.embedding = newEmbeddingBackend(cfg, logger)
	}
	if p.synthesis == nil {
		p.synthesis = newSynthesisBackend(cfg, logger)
	}

	if dim := p.embedding.Dimension(); dim != cfg.Store.EmbeddingSize {
		return nil, voiceerr.Newf(voiceerr.ErrValidation, "pipeline.new", "",
			"embedding backend produces %d values, store.embedding_size is %d", dim, cfg.Store.EmbeddingSize)
	}

	// every backend call from here on is bounded by the runner
	p.embedding = p.runner.Embedding(p.embedding)
	if p.synthesis != nil {
		p.synthesis = p.runner.Synthesis(p.synthesis)
	}

	extractor, err := features.NewExtractor(cfg.Audio, p.embedding, logger)
	if err != nil {
		return nil, fmt.Errorf("feature extractor: %w", err)
	}
	p.extractor = extractor

	store, err := voicemodel.Open(cfg.Store.Dir, p.embedding, cfg.Store.EmbeddingSize, logger)
	if err != nil {
		return nil, err
	}
	p.store = store
	p.adapter = adapt.New(logger)
	p.feedback = feedback.New(store, logger)

	return p, nil
}

func newEmbeddingBackend(cfg *config.Config, logger logging.Logger) backend.EmbeddingBackend {
	if cfg.Backend.EmbeddingURL == "" {
		return backend.NewLocal(backend.LocalConfig{Dimension: cfg.Store.EmbeddingSize})
	}
	return backend.NewRemote(cfg.Backend.EmbeddingURL, cfg.Store.EmbeddingSize,
		backend.WithMaxRetries(cfg.Backend.MaxRetries),
		backend.WithLogger(logger),
	)
}

func newSynthesisBackend(cfg *config.Config, logger logging.Logger) backend.SynthesisBackend {
	if cfg.Backend.SynthesisKey == "" {
		return nil
	}
	return backend.NewMiniMax(backend.MiniMaxConfig{
		BaseURL:    cfg.Backend.SynthesisURL,
		Model:      cfg.Backend.SynthesisModel,
		SampleRate: cfg.Audio.SampleRate,
	},
		backend.WithAPIKey(cfg.Backend.SynthesisKey),
		backend.WithMaxRetries(cfg.Backend.MaxRetries),
		backend.WithLogger(logger),
	)
}

// Store exposes the underlying voice model store
func (p *Pipeline) Store() *voicemodel.Store {
	return p.store
}

// Enroll extracts features from audio and persists a new voice model
func (p *Pipeline) Enroll(ctx context.Context, audio *transcode.AudioData) (*voicemodel.VoiceModel, error) {
	logger := p.logger.WithContext(ctx).WithFields(logging.Fields{
		"function": "Enroll",
	})
	if audio != nil {
		logger = logger.WithFields(logging.Fields{
			"sample_rate": audio.SampleRate,
			"samples":     len(audio.PCM),
			"source":      audio.Source,
		})
	}

	logger.Debug("Starting enrollment")

	set, err := p.extractor.Extract(ctx, audio)
	if err != nil {
		logger.Error(err, "Failed to extract features")
		return nil, err
	}

	model, err := p.store.Generate(ctx, set)
	if err != nil {
		return nil, err
	}

	logger.Info("Enrollment complete", logging.Fields{
		"model_id":   model.ID,
		"voice_type": model.VoiceType(),
	})
	return model, nil
}

// EnrollFile decodes path and enrolls it
func (p *Pipeline) EnrollFile(ctx context.Context, path string) (*voicemodel.VoiceModel, error) {
	audio, err := p.decoder.DecodeFile(ctx, path)
	if err != nil {
		return nil, voiceerr.New(voiceerr.ErrInput, "pipeline.enroll", "", fmt.Errorf("decode %s: %w", path, err))
	}
	return p.Enroll(ctx, audio)
}

// EnrollResult is the outcome for one file of EnrollBatch
type EnrollResult struct {
	Path  string
	Model *voicemodel.VoiceModel
	Err   error
}

// EnrollBatch enrolls independent recordings concurrently, at most
// backend.workers at a time. A failed file does not stop the others; results
// are returned in input order.
func (p *Pipeline) EnrollBatch(ctx context.Context, paths []string) ([]EnrollResult, error) {
	results := make([]EnrollResult, len(paths))

	var g errgroup.Group
	g.SetLimit(max(p.config.Backend.Workers, 1))

	for i, path := range paths {
		results[i].Path = path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}
			results[i].Model, results[i].Err = p.EnrollFile(ctx, path)
			return nil
		})
	}
	g.Wait()

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	p.logger.Info("Batch enrollment finished", logging.Fields{
		"function": "EnrollBatch",
		"files":    len(paths),
		"failed":   failed,
	})
	return results, ctx.Err()
}

// SynthesizeRequest asks for text spoken by a stored voice
type SynthesizeRequest struct {
	ModelID string
	Text    string

	// Emotions overrides emotion strengths in [0, 1]; nil keeps the profile
	Emotions map[string]float64
}

// SynthesisResult carries the generated audio and how it was produced
type SynthesisResult struct {
	Audio   []byte
	Request backend.SynthesisRequest
	Adapted *voicemodel.VoiceModel
}

// Synthesize adapts the stored model to the text and requested emotions and
// hands it to the synthesis backend. The stored model is never modified.
func (p *Pipeline) Synthesize(ctx context.Context, req SynthesizeRequest) (*SynthesisResult, error) {
	logger := p.logger.WithContext(ctx).WithFields(logging.Fields{
		"function": "Synthesize",
		"model_id": req.ModelID,
	})
	if req.Text == "" {
		return nil, voiceerr.Newf(voiceerr.ErrValidation, "pipeline.synthesize", req.ModelID, "empty text")
	}

	model, err := p.store.Load(ctx, req.ModelID)
	if err != nil {
		return nil, err
	}

	adapted := p.adapter.Adapt(model, req.Text, req.Emotions)
	synthReq := adapt.SynthesisRequest(adapted, req.Text)

	if p.synthesis == nil {
		return nil, voiceerr.Newf(voiceerr.ErrBackendUnavailable, "pipeline.synthesize", req.ModelID,
			"no synthesis backend configured")
	}

	logger.Debug("Requesting synthesis", logging.Fields{
		"speed":   synthReq.Speed,
		"emotion": synthReq.Emotion,
	})
	audio, err := p.synthesis.Synthesize(ctx, synthReq)
	if err != nil {
		return nil, err
	}

	logger.Info("Synthesis complete", logging.Fields{"bytes": len(audio)})
	return &SynthesisResult{
		Audio:   audio,
		Request: synthReq,
		Adapted: adapted,
	}, nil
}

// Feedback blends listener feedback into the stored model
func (p *Pipeline) Feedback(ctx context.Context, id string, fb feedback.Feedback) (bool, error) {
	return p.feedback.ApplyFeedback(ctx, id, fb)
}
