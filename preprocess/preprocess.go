// Package preprocess conditions raw recordings for feature extraction:
// peak normalization, silence trimming and resampling to the canonical rate.
package preprocess

import (
	"github.com/RyanBlaney/sonido-voz/algorithms/common"
	"github.com/RyanBlaney/sonido-voz/algorithms/temporal"
	"github.com/RyanBlaney/sonido-voz/logging"
	"github.com/RyanBlaney/sonido-voz/transcode"
	"github.com/RyanBlaney/sonido-voz/voiceerr"
)

// Default conditioning parameters
const (
	DefaultSampleRate    = 22050
	DefaultTrimThreshold = 0.01
	DefaultTrimPadding   = 100
)

// Normalize scales samples so the largest absolute value becomes 1.
// Silent input (peak below 1e-10) is returned as an unchanged copy.
func Normalize(samples []float64) []float64 {
	return common.PeakNormalize(samples)
}

// TrimSilence drops leading and trailing samples with |x| <= threshold,
// keeping DefaultTrimPadding samples of context on each side. An all-silent
// input yields an empty slice.
func TrimSilence(samples []float64, threshold float64) []float64 {
	return temporal.NewSilenceTrimmer(threshold, DefaultTrimPadding).Trim(samples)
}

// Resample converts samples from one rate to another by linear
// interpolation. Equal rates return an identical copy.
func Resample(samples []float64, from, to int) []float64 {
	return common.ResampleLinear(samples, from, to)
}

// Config controls Process
type Config struct {
	SampleRate    int
	TrimThreshold float64
	TrimPadding   int
}

// DefaultConfig returns the canonical conditioning parameters
func DefaultConfig() Config {
	return Config{
		SampleRate:    DefaultSampleRate,
		TrimThreshold: DefaultTrimThreshold,
		TrimPadding:   DefaultTrimPadding,
	}
}

// Preprocessor runs normalize, trim and resample in that order
type Preprocessor struct {
	config  Config
	trimmer *temporal.SilenceTrimmer
	logger  logging.Logger
}

// New creates a Preprocessor. Zero fields in config fall back to defaults.
func New(config Config, logger logging.Logger) *Preprocessor {
	if config.SampleRate <= 0 {
		config.SampleRate = DefaultSampleRate
	}
	if config.TrimThreshold <= 0 {
		config.TrimThreshold = DefaultTrimThreshold
	}
	if config.TrimPadding < 0 {
		config.TrimPadding = DefaultTrimPadding
	}

	return &Preprocessor{
		config:  config,
		trimmer: temporal.NewSilenceTrimmer(config.TrimThreshold, config.TrimPadding),
		logger: logging.OrDefault(logger).WithFields(logging.Fields{
			"component": "preprocessor",
		}),
	}
}

// SampleRate returns the rate Process resamples to
func (p *Preprocessor) SampleRate() int {
	return p.config.SampleRate
}

// Process conditions a recording. The input buffer is not modified.
// Empty input, or input that is entirely silence, fails with voiceerr.ErrInput.
func (p *Preprocessor) Process(audio *transcode.AudioData) (*transcode.AudioData, error) {
	logger := p.logger.WithFields(logging.Fields{
		"function": "Process",
	})

	if audio == nil || len(audio.PCM) == 0 {
		return nil, voiceerr.Newf(voiceerr.ErrInput, "preprocess", "", "empty audio buffer")
	}
	if audio.SampleRate <= 0 {
		return nil, voiceerr.Newf(voiceerr.ErrInput, "preprocess", "", "invalid sample rate %d", audio.SampleRate)
	}

	normalized := Normalize(audio.PCM)

	trimmed := p.trimmer.Trim(normalized)
	if len(trimmed) == 0 {
		return nil, voiceerr.Newf(voiceerr.ErrInput, "preprocess", "",
			"no samples above threshold %v", p.config.TrimThreshold)
	}

	resampled := Resample(trimmed, audio.SampleRate, p.config.SampleRate)
	if len(resampled) == 0 {
		return nil, voiceerr.Newf(voiceerr.ErrInput, "preprocess", "", "recording too short to resample")
	}

	logger.Debug("Recording conditioned", logging.Fields{
		"input_samples":   len(audio.PCM),
		"trimmed_samples": len(trimmed),
		"output_samples":  len(resampled),
		"input_rate":      audio.SampleRate,
		"output_rate":     p.config.SampleRate,
	})

	return transcode.NewAudioData(resampled, p.config.SampleRate), nil
}
