package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatal(err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Audio.SampleRate != 22050 || cfg.Audio.WindowSize != 1024 || cfg.Audio.HopSize != 256 {
		t.Fatalf("unexpected defaults: %+v", cfg.Audio)
	}
}

func TestLoadOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	content := `
audio:
  sample_rate: 16000
store:
  dir: /tmp/models
  embedding_size: 128
backend:
  timeout: 5s
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SONIDO_SYNTHESIS_KEY", "secret")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Audio.SampleRate != 16000 {
		t.Errorf("sample rate = %d", cfg.Audio.SampleRate)
	}
	if cfg.Audio.HopSize != 256 {
		t.Errorf("unset fields keep defaults, hop = %d", cfg.Audio.HopSize)
	}
	if cfg.Store.Dir != "/tmp/models" || cfg.Store.EmbeddingSize != 128 {
		t.Errorf("store = %+v", cfg.Store)
	}
	if cfg.Backend.Timeout != 5*time.Second {
		t.Errorf("timeout = %v", cfg.Backend.Timeout)
	}
	if cfg.Backend.SynthesisKey != "secret" {
		t.Errorf("env override not applied")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("level = %q", cfg.Logging.Level)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero rate", func(c *Config) { c.Audio.SampleRate = 0 }},
		{"lag past window", func(c *Config) { c.Audio.MaxLag = 4096 }},
		{"inverted lags", func(c *Config) { c.Audio.MinLag = 600 }},
		{"coefficients > filters", func(c *Config) { c.Audio.TimbreCoefficients = 40 }},
		{"empty dir", func(c *Config) { c.Store.Dir = "" }},
		{"no workers", func(c *Config) { c.Backend.Workers = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestLoadBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("audio: [1, 2"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}
