// Package features extracts the acoustic identity of a speaker from one
// recording: pitch and energy contours, spectral-envelope coefficients, an
// emotion distribution and the mel grid used for embedding.
package features

import (
	"context"
	"fmt"

	"github.com/RyanBlaney/sonido-voz/algorithms/temporal"
	"github.com/RyanBlaney/sonido-voz/algorithms/tonal"
	"github.com/RyanBlaney/sonido-voz/backend"
	"github.com/RyanBlaney/sonido-voz/config"
	"github.com/RyanBlaney/sonido-voz/logging"
	"github.com/RyanBlaney/sonido-voz/preprocess"
	"github.com/RyanBlaney/sonido-voz/transcode"
	"github.com/RyanBlaney/sonido-voz/voiceerr"
)

// Extractor turns a raw recording into a FeatureSet
type Extractor struct {
	preprocessor *preprocess.Preprocessor
	pitch        *tonal.PitchTracker
	energy       *temporal.Energy
	coefficients CoefficientExtractor
	classifier   EmotionClassifier
	embedding    backend.EmbeddingBackend
	logger       logging.Logger
}

// Option customizes an Extractor
type Option func(*Extractor)

// WithCoefficientExtractor replaces the MFCC timbre analysis
func WithCoefficientExtractor(c CoefficientExtractor) Option {
	return func(e *Extractor) { e.coefficients = c }
}

// WithEmotionClassifier replaces the prosody heuristic
func WithEmotionClassifier(c EmotionClassifier) Option {
	return func(e *Extractor) { e.classifier = c }
}

// NewExtractor creates an Extractor. embedding may be nil, in which case
// feature sets carry an empty mel grid.
func NewExtractor(cfg config.AudioConfig, embedding backend.EmbeddingBackend, logger logging.Logger, opts ...Option) (*Extractor, error) {
	logger = logging.OrDefault(logger)

	pitch, err := tonal.NewPitchTracker(tonal.PitchTrackerParams{
		SampleRate: cfg.SampleRate,
		WindowSize: cfg.WindowSize,
		HopSize:    cfg.HopSize,
		MinLag:     cfg.MinLag,
		MaxLag:     cfg.MaxLag,
	})
	if err != nil {
		return nil, fmt.Errorf("pitch tracker: %w", err)
	}

	e := &Extractor{
		preprocessor: preprocess.New(preprocess.Config{
			SampleRate:    cfg.SampleRate,
			TrimThreshold: cfg.TrimThreshold,
			TrimPadding:   cfg.TrimPadding,
		}, logger),
		pitch:        pitch,
		energy:       temporal.NewEnergy(cfg.WindowSize, cfg.HopSize),
		coefficients: NewMFCCExtractor(cfg.WindowSize, cfg.HopSize, cfg.TimbreCoefficients, cfg.MelFilters),
		classifier:   ProsodyClassifier{},
		embedding:    embedding,
		logger: logger.WithFields(logging.Fields{
			"component": "feature_extractor",
		}),
	}
	for _, o := range opts {
		o(e)
	}
	return e, nil
}

// Extract conditions audio and computes every feature. Only unusable input
// (voiceerr.ErrInput) or a cancelled ctx fails the call; a failing backend or
// classifier degrades that feature and logs a warning.
func (e *Extractor) Extract(ctx context.Context, audio *transcode.AudioData) (*FeatureSet, error) {
	conditioned, err := e.preprocessor.Process(audio)
	if err != nil {
		return nil, err
	}

	pcm := conditioned.PCM
	rate := conditioned.SampleRate

	logger := e.logger.WithContext(ctx).WithFields(logging.Fields{
		"function":    "Extract",
		"samples":     len(pcm),
		"sample_rate": rate,
	})
	logger.Debug("Extracting voice features...")

	fs := &FeatureSet{SampleRate: rate}

	// Step 1: mel grid from the embedding backend
	fs.Mel = backend.MelGrid{}
	if e.embedding != nil {
		mel, err := e.embedding.Mel(ctx, pcm, rate)
		switch {
		case ctx.Err() != nil:
			return nil, voiceerr.New(voiceerr.ErrBackendUnavailable, "features.extract", "", ctx.Err())
		case err != nil:
			logger.Warn("Mel analysis failed, continuing with empty grid", logging.Fields{"error": err.Error()})
		default:
			fs.Mel = mel
		}
	}

	// Step 2: prosody
	fs.PitchContour = e.pitch.Track(pcm)
	fs.EnergyContour = e.energy.ComputeMeanSquare(pcm)

	// Step 3: timbre
	timbre, err := e.coefficients.Coefficients(pcm, rate)
	if err != nil {
		logger.Warn("Timbre analysis failed, continuing without timbre", logging.Fields{"error": err.Error()})
	} else {
		fs.Timbre = timbre
	}

	// Step 4: emotion
	scores, err := e.classifier.Classify(ctx, fs)
	if err != nil {
		if ctx.Err() != nil {
			return nil, voiceerr.New(voiceerr.ErrBackendUnavailable, "features.extract", "", ctx.Err())
		}
		logger.Warn("Emotion classification failed, using uniform profile", logging.Fields{"error": err.Error()})
		fs.Emotion = UniformEmotion()
	} else {
		fs.Emotion = NormalizeEmotion(scores)
	}

	logger.Debug("Voice feature extraction completed", logging.Fields{
		"mel_frames":   fs.Mel.Frames(),
		"pitch_frames": len(fs.PitchContour),
		"voiced":       len(fs.VoicedPitch()),
		"timbre":       len(fs.Timbre),
	})
	return fs, nil
}
