package logging

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", DebugLevel, false},
		{"INFO", InfoLevel, false},
		{"", InfoLevel, false},
		{"warning", WarnLevel, false},
		{"error", ErrorLevel, false},
		{"verbose", InfoLevel, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseLevel(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestWriterLoggerLevelsAndFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger(&buf, InfoLevel).WithFields(Fields{"component": "store"})

	logger.Debug("hidden")
	logger.Info("saved", Fields{"model_id": "abc"})
	logger.Error(errors.New("disk full"), "write failed")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug line should be filtered: %q", out)
	}
	if !strings.Contains(out, "[INFO] saved component=store model_id=abc") {
		t.Fatalf("missing info line: %q", out)
	}
	if !strings.Contains(out, "[ERROR] write failed: disk full component=store") {
		t.Fatalf("missing error line: %q", out)
	}
}

func TestWithContextMergesFields(t *testing.T) {
	var buf bytes.Buffer
	ctx := ContextWithFields(context.Background(), Fields{"request": 1})
	ctx = ContextWithFields(ctx, Fields{"model_id": "m1"})

	NewWriterLogger(&buf, DebugLevel).WithContext(ctx).Debug("hello")

	out := buf.String()
	if !strings.Contains(out, "model_id=m1") || !strings.Contains(out, "request=1") {
		t.Fatalf("context fields missing: %q", out)
	}
}

func TestOrDefault(t *testing.T) {
	if OrDefault(nil) == nil {
		t.Fatal("OrDefault(nil) returned nil")
	}
	noop := &NoOpLogger{}
	if OrDefault(noop) != Logger(noop) {
		t.Fatal("OrDefault should keep a non-nil logger")
	}
}
