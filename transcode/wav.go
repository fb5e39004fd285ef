package transcode

import (
	"fmt"
	"io"
	"math"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// DecodeWAV reads a PCM WAV stream and returns it down-mixed to mono with
// samples scaled into [-1, 1]
func DecodeWAV(r io.ReadSeeker) (*AudioData, error) {
	decoder := wav.NewDecoder(r)
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("not a valid WAV file")
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("read WAV PCM: %w", err)
	}
	if buf == nil || buf.Format == nil || buf.Format.SampleRate <= 0 {
		return nil, fmt.Errorf("WAV file has no format information")
	}

	bitDepth := buf.SourceBitDepth
	if bitDepth <= 0 {
		bitDepth = int(decoder.BitDepth)
	}
	if bitDepth <= 0 || bitDepth > 32 {
		return nil, fmt.Errorf("unsupported WAV bit depth: %d", bitDepth)
	}

	// full scale for signed PCM; 8-bit WAV is unsigned around 128
	scale := math.Pow(2, float64(bitDepth-1))
	offset := 0.0
	if bitDepth == 8 {
		offset = 128
	}

	interleaved := make([]float64, len(buf.Data))
	for i, v := range buf.Data {
		interleaved[i] = (float64(v) - offset) / scale
	}

	channels := max(buf.Format.NumChannels, 1)
	return NewAudioData(Downmix(interleaved, channels), buf.Format.SampleRate), nil
}

// WriteWAV encodes mono samples in [-1, 1] as 16-bit PCM WAV. Out of range
// samples are clipped.
func WriteWAV(w io.WriteSeeker, samples []float64, sampleRate int) error {
	intData := make([]int, len(samples))
	for i, sample := range samples {
		clamped := math.Max(-1.0, math.Min(1.0, sample))
		intData[i] = int(clamped * 32767)
	}

	encoder := wav.NewEncoder(w, sampleRate, 16, 1, 1)
	buf := &audio.IntBuffer{
		Data:           intData,
		Format:         &audio.Format{SampleRate: sampleRate, NumChannels: 1},
		SourceBitDepth: 16,
	}

	if err := encoder.Write(buf); err != nil {
		return fmt.Errorf("write WAV: %w", err)
	}
	return encoder.Close()
}
