package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full configuration of the voice pipeline.
type Config struct {
	Audio   AudioConfig   `yaml:"audio"`
	Store   StoreConfig   `yaml:"store"`
	Backend BackendConfig `yaml:"backend"`
	Logging LoggingConfig `yaml:"logging"`
}

// AudioConfig controls preprocessing and feature extraction.
type AudioConfig struct {
	// Canonical rate every recording is resampled to before analysis
	SampleRate int `yaml:"sample_rate"`

	// Framing shared by pitch, energy and timbre analysis
	WindowSize int `yaml:"window_size"`
	HopSize    int `yaml:"hop_size"`

	// Autocorrelation lag search range in samples, [MinLag, MaxLag)
	MinLag int `yaml:"min_lag"`
	MaxLag int `yaml:"max_lag"`

	TrimThreshold float64 `yaml:"trim_threshold"`
	TrimPadding   int     `yaml:"trim_padding"`

	TimbreCoefficients int `yaml:"timbre_coefficients"`
	MelFilters         int `yaml:"mel_filters"`
}

// StoreConfig controls the on-disk voice model store.
type StoreConfig struct {
	Dir           string `yaml:"dir"`
	EmbeddingSize int    `yaml:"embedding_size"`
}

// BackendConfig controls the embedding and synthesis collaborators.
type BackendConfig struct {
	Timeout time.Duration `yaml:"timeout"`
	Workers int           `yaml:"workers"`

	// Empty means the local DSP embedding backend is used
	EmbeddingURL string `yaml:"embedding_url"`

	SynthesisURL   string `yaml:"synthesis_url"`
	SynthesisKey   string `yaml:"synthesis_key"`
	SynthesisModel string `yaml:"synthesis_model"`
	MaxRetries     int    `yaml:"max_retries"`
}

// LoggingConfig controls the logger handed to every component.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Colors bool   `yaml:"colors"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Audio: AudioConfig{
			SampleRate:         22050,
			WindowSize:         1024,
			HopSize:            256,
			MinLag:             50,
			MaxLag:             500, // ~44-441 Hz at 22050
			TrimThreshold:      0.01,
			TrimPadding:        100,
			TimbreCoefficients: 13,
			MelFilters:         26,
		},
		Store: StoreConfig{
			Dir:           "voice_models",
			EmbeddingSize: 256,
		},
		Backend: BackendConfig{
			Timeout:        30 * time.Second,
			Workers:        4,
			SynthesisURL:   "https://api.minimaxi.chat",
			SynthesisModel: "speech-02-hd",
			MaxRetries:     2,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Colors: true,
		},
	}
}

// Load reads a YAML file on top of Default. A missing file is not an error.
// The environment variable SONIDO_SYNTHESIS_KEY overrides backend.synthesis_key.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		content, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(content, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if key := os.Getenv("SONIDO_SYNTHESIS_KEY"); key != "" {
		cfg.Backend.SynthesisKey = key
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the pipeline cannot run with.
func (c *Config) Validate() error {
	a := c.Audio
	if a.SampleRate <= 0 {
		return fmt.Errorf("audio.sample_rate must be positive: %d", a.SampleRate)
	}
	if a.WindowSize <= 0 || a.HopSize <= 0 {
		return fmt.Errorf("audio.window_size and audio.hop_size must be positive: %d/%d", a.WindowSize, a.HopSize)
	}
	if a.MinLag <= 0 || a.MaxLag <= a.MinLag {
		return fmt.Errorf("audio lag range invalid: [%d, %d)", a.MinLag, a.MaxLag)
	}
	if a.MaxLag > a.WindowSize {
		return fmt.Errorf("audio.max_lag %d exceeds window size %d", a.MaxLag, a.WindowSize)
	}
	if a.TrimThreshold < 0 || a.TrimPadding < 0 {
		return fmt.Errorf("audio trim settings must be non-negative")
	}
	if a.TimbreCoefficients <= 0 || a.MelFilters < a.TimbreCoefficients {
		return fmt.Errorf("audio.timbre_coefficients %d must be positive and <= mel_filters %d", a.TimbreCoefficients, a.MelFilters)
	}
	if c.Store.Dir == "" {
		return fmt.Errorf("store.dir is required")
	}
	if c.Store.EmbeddingSize <= 0 {
		return fmt.Errorf("store.embedding_size must be positive: %d", c.Store.EmbeddingSize)
	}
	if c.Backend.Timeout <= 0 {
		return fmt.Errorf("backend.timeout must be positive: %v", c.Backend.Timeout)
	}
	if c.Backend.Workers <= 0 {
		return fmt.Errorf("backend.workers must be positive: %d", c.Backend.Workers)
	}
	if c.Backend.MaxRetries < 0 {
		return fmt.Errorf("backend.max_retries must be non-negative: %d", c.Backend.MaxRetries)
	}
	return nil
}
