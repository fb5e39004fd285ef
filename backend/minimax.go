package backend

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/RyanBlaney/sonido-voz/logging"
)

// DefaultMiniMaxURL is the public MiniMax API host
const DefaultMiniMaxURL = "https://api.minimaxi.chat"

// MiniMaxConfig configures the synthesis client
type MiniMaxConfig struct {
	BaseURL    string
	Model      string // e.g. "speech-02-hd"
	SampleRate int
	Format     string // mp3, pcm, flac or wav
}

// MiniMax is a SynthesisBackend for the MiniMax t2a_v2 endpoint.
type MiniMax struct {
	http   *httpClient
	config MiniMaxConfig
}

var _ SynthesisBackend = (*MiniMax)(nil)

// NewMiniMax creates a MiniMax synthesis client.
func NewMiniMax(config MiniMaxConfig, opts ...HTTPOption) *MiniMax {
	if config.BaseURL == "" {
		config.BaseURL = DefaultMiniMaxURL
	}
	if config.Model == "" {
		config.Model = "speech-02-hd"
	}
	if config.SampleRate <= 0 {
		config.SampleRate = 22050
	}
	if config.Format == "" {
		config.Format = "wav"
	}
	return &MiniMax{
		http:   newHTTPClient("minimax", strings.TrimRight(config.BaseURL, "/"), opts...),
		config: config,
	}
}

type miniMaxVoiceSetting struct {
	VoiceID string  `json:"voice_id"`
	Speed   float64 `json:"speed,omitempty"`
	Vol     float64 `json:"vol,omitempty"`
	Emotion string  `json:"emotion,omitempty"`
}

type miniMaxAudioSetting struct {
	SampleRate int    `json:"sample_rate,omitempty"`
	Format     string `json:"format,omitempty"`
	Channel    int    `json:"channel,omitempty"`
}

type miniMaxRequest struct {
	Model        string               `json:"model"`
	Text         string               `json:"text"`
	VoiceSetting *miniMaxVoiceSetting `json:"voice_setting"`
	AudioSetting *miniMaxAudioSetting `json:"audio_setting"`
	OutputFormat string               `json:"output_format"`
}

type miniMaxResponse struct {
	Data struct {
		Audio  string `json:"audio"` // hex-encoded
		Status int    `json:"status"`
	} `json:"data"`
	TraceID string `json:"trace_id"`
}

// Synthesize renders req.Text with the voice req.VoiceID and returns the
// encoded audio. MiniMax has no strength control, so EmotionStrength only
// gates whether the emotion is sent at all.
func (m *MiniMax) Synthesize(ctx context.Context, req SynthesisRequest) ([]byte, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, fmt.Errorf("empty text")
	}

	body := miniMaxRequest{
		Model: m.config.Model,
		Text:  req.Text,
		VoiceSetting: &miniMaxVoiceSetting{
			VoiceID: req.VoiceID,
			Speed:   req.Speed,
			Vol:     1.0,
		},
		AudioSetting: &miniMaxAudioSetting{
			SampleRate: m.config.SampleRate,
			Format:     m.config.Format,
			Channel:    1,
		},
		OutputFormat: "hex",
	}
	if req.Emotion != "" && req.EmotionStrength > 0 {
		body.VoiceSetting.Emotion = req.Emotion
	}

	m.http.logger.Debug("Synthesizing speech", logging.Fields{
		"function": "Synthesize",
		"voice_id": req.VoiceID,
		"speed":    req.Speed,
		"emotion":  body.VoiceSetting.Emotion,
		"text_len": len(req.Text),
	})

	var resp miniMaxResponse
	if err := m.http.post(ctx, "/v1/t2a_v2", body, &resp); err != nil {
		return nil, err
	}

	audio, err := decodeHexAudio(resp.Data.Audio)
	if err != nil {
		return nil, fmt.Errorf("decode audio (trace=%s): %w", resp.TraceID, err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("empty audio in response (trace=%s)", resp.TraceID)
	}
	return audio, nil
}

func decodeHexAudio(hexData string) ([]byte, error) {
	hexData = strings.ReplaceAll(hexData, " ", "")
	hexData = strings.ReplaceAll(hexData, "\n", "")
	return hex.DecodeString(hexData)
}
