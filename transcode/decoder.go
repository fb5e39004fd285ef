package transcode

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/RyanBlaney/sonido-voz/logging"
)

// AudioData is a finite mono recording handed to the voice pipeline.
// PCM is never mutated by downstream stages.
type AudioData struct {
	PCM        []float64     `json:"-"`
	SampleRate int           `json:"sample_rate"`
	Channels   int           `json:"channels"`
	Duration   time.Duration `json:"duration"`
	Source     string        `json:"source,omitempty"`
}

// NewAudioData wraps mono samples captured at sampleRate
func NewAudioData(pcm []float64, sampleRate int) *AudioData {
	return &AudioData{
		PCM:        pcm,
		SampleRate: sampleRate,
		Channels:   1,
		Duration:   durationOf(len(pcm), sampleRate),
	}
}

func durationOf(samples, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(samples) * time.Second / time.Duration(sampleRate)
}

// DecoderConfig holds decoder configuration
type DecoderConfig struct {
	FFmpegPath  string        `json:"ffmpeg_path"`
	FFprobePath string        `json:"ffprobe_path"`
	Timeout     time.Duration `json:"timeout"`      // per ffmpeg invocation
	MaxDuration time.Duration `json:"max_duration"` // 0 = no limit
}

// DefaultDecoderConfig returns default decoder configuration
func DefaultDecoderConfig() *DecoderConfig {
	return &DecoderConfig{
		FFmpegPath:  "ffmpeg",
		FFprobePath: "ffprobe",
		Timeout:     30 * time.Second,
	}
}

// Decoder turns audio files into mono AudioData at their native sample rate.
// WAV is decoded in-process; every other container goes through ffmpeg.
type Decoder struct {
	config *DecoderConfig
	logger logging.Logger
}

// AudioMetadata holds detected audio properties from ffprobe
type AudioMetadata struct {
	SampleRate int     `json:"sample_rate"`
	Channels   int     `json:"channels"`
	Codec      string  `json:"codec"`
	Duration   float64 `json:"duration"`
}

// NewDecoder creates a new audio decoder
func NewDecoder(config *DecoderConfig, logger logging.Logger) *Decoder {
	if config == nil {
		config = DefaultDecoderConfig()
	}
	return &Decoder{
		config: config,
		logger: logging.OrDefault(logger).WithFields(logging.Fields{
			"component": "audio_decoder",
		}),
	}
}

// DecodeFile decodes an audio file into mono PCM
func (d *Decoder) DecodeFile(ctx context.Context, filename string) (*AudioData, error) {
	logger := d.logger.WithFields(logging.Fields{
		"function": "DecodeFile",
		"filename": filename,
	})

	if strings.EqualFold(filepath.Ext(filename), ".wav") {
		f, err := os.Open(filename)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", filename, err)
		}
		defer f.Close()

		data, err := DecodeWAV(f)
		if err != nil {
			logger.Error(err, "Failed to decode WAV file")
			return nil, err
		}
		data.Source = filename
		d.logDecoded(logger, data)
		return data, nil
	}

	metadata, err := d.probe(ctx, filename)
	if err != nil {
		logger.Error(err, "Failed to probe audio file")
		return nil, err
	}

	logger.Debug("Audio metadata detected", logging.Fields{
		"input_sample_rate": metadata.SampleRate,
		"input_channels":    metadata.Channels,
		"input_codec":       metadata.Codec,
		"input_duration":    metadata.Duration,
	})

	data, err := d.decodeWithFFmpeg(ctx, filename, nil, metadata.SampleRate)
	if err != nil {
		logger.Error(err, "FFmpeg decode failed")
		return nil, err
	}
	data.Source = filename
	d.logDecoded(logger, data)
	return data, nil
}

// DecodeBytes decodes an in-memory recording. RIFF/WAVE input is decoded
// directly, anything else is piped through ffmpeg at sampleRate.
func (d *Decoder) DecodeBytes(ctx context.Context, content []byte, sampleRate int) (*AudioData, error) {
	logger := d.logger.WithFields(logging.Fields{
		"function":  "DecodeBytes",
		"data_size": len(content),
	})

	if len(content) == 0 {
		return nil, fmt.Errorf("empty audio data")
	}

	if isWAV(content) {
		data, err := DecodeWAV(bytes.NewReader(content))
		if err != nil {
			logger.Error(err, "Failed to decode WAV bytes")
			return nil, err
		}
		d.logDecoded(logger, data)
		return data, nil
	}

	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate required for non-WAV input")
	}
	data, err := d.decodeWithFFmpeg(ctx, "pipe:0", content, sampleRate)
	if err != nil {
		logger.Error(err, "FFmpeg decode failed")
		return nil, err
	}
	d.logDecoded(logger, data)
	return data, nil
}

func (d *Decoder) logDecoded(logger logging.Logger, data *AudioData) {
	logger.Debug("Audio decoded", logging.Fields{
		"samples":     len(data.PCM),
		"sample_rate": data.SampleRate,
		"duration":    data.Duration.Seconds(),
	})
}

func isWAV(content []byte) bool {
	return len(content) >= 12 && string(content[0:4]) == "RIFF" && string(content[8:12]) == "WAVE"
}

// probe uses ffprobe to read the native sample rate of the first audio stream
func (d *Decoder) probe(ctx context.Context, filename string) (*AudioMetadata, error) {
	probeCtx, cancel := context.WithTimeout(ctx, d.config.Timeout)
	defer cancel()

	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_streams",
		"-select_streams", "a:0",
		filename,
	}

	output, err := exec.CommandContext(probeCtx, d.config.FFprobePath, args...).Output()
	if err != nil {
		var exitError *exec.ExitError
		if errors.As(err, &exitError) {
			return nil, fmt.Errorf("ffprobe failed: %w, stderr: %s", err, string(exitError.Stderr))
		}
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}

	return parseFFprobeOutput(output)
}

func parseFFprobeOutput(jsonData []byte) (*AudioMetadata, error) {
	var probe struct {
		Streams []struct {
			CodecType  string `json:"codec_type"`
			CodecName  string `json:"codec_name"`
			SampleRate string `json:"sample_rate"`
			Channels   int    `json:"channels"`
			Duration   string `json:"duration"`
		} `json:"streams"`
	}

	if err := json.Unmarshal(jsonData, &probe); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}
	if len(probe.Streams) == 0 {
		return nil, fmt.Errorf("no audio streams found")
	}

	stream := probe.Streams[0]
	if stream.CodecType != "audio" {
		return nil, fmt.Errorf("stream is not audio type: %s", stream.CodecType)
	}

	sampleRate, err := strconv.Atoi(stream.SampleRate)
	if err != nil || sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %q", stream.SampleRate)
	}
	duration, err := strconv.ParseFloat(stream.Duration, 64)
	if err != nil {
		duration = 0
	}

	return &AudioMetadata{
		SampleRate: sampleRate,
		Channels:   stream.Channels,
		Codec:      stream.CodecName,
		Duration:   duration,
	}, nil
}

// decodeWithFFmpeg asks ffmpeg for mono float64 little-endian samples at
// sampleRate. input is either a path or "pipe:0" with stdin content.
func (d *Decoder) decodeWithFFmpeg(ctx context.Context, input string, stdin []byte, sampleRate int) (*AudioData, error) {
	decodeCtx, cancel := context.WithTimeout(ctx, d.config.Timeout)
	defer cancel()

	args := []string{"-v", "error", "-i", input}
	if d.config.MaxDuration > 0 {
		args = append(args, "-t", fmt.Sprintf("%.3f", d.config.MaxDuration.Seconds()))
	}
	args = append(args,
		"-map", "0:a:0?",
		"-vn",
		"-f", "f64le",
		"-ac", "1",
		"-ar", strconv.Itoa(sampleRate),
		"pipe:1",
	)

	cmd := exec.CommandContext(decodeCtx, d.config.FFmpegPath, args...)
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg decode failed: %w, stderr: %s", err, stderr.String())
	}

	samples := bytesToFloat64(output)
	if len(samples) == 0 {
		return nil, fmt.Errorf("no audio samples decoded")
	}
	return NewAudioData(samples, sampleRate), nil
}

// bytesToFloat64 converts raw little-endian float64 bytes, dropping a
// trailing partial sample
func bytesToFloat64(data []byte) []float64 {
	sampleCount := len(data) / 8
	samples := make([]float64, sampleCount)

	for i := range sampleCount {
		bits := binary.LittleEndian.Uint64(data[i*8 : i*8+8])
		samples[i] = math.Float64frombits(bits)
	}

	return samples
}

// Downmix averages interleaved frames of channels samples into mono
func Downmix(interleaved []float64, channels int) []float64 {
	if channels <= 1 {
		mono := make([]float64, len(interleaved))
		copy(mono, interleaved)
		return mono
	}

	frames := len(interleaved) / channels
	mono := make([]float64, frames)
	for i := range frames {
		sum := 0.0
		for c := range channels {
			sum += interleaved[i*channels+c]
		}
		mono[i] = sum / float64(channels)
	}
	return mono
}
