package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-voz/pipeline"
)

var (
	synthText     string
	synthEmotions map[string]string
	synthOutput   string
)

var synthesizeCmd = &cobra.Command{
	Use:   "synthesize <model-id>",
	Short: "Speak text with a stored voice",
	Long: `Adapt a stored voice to the text and requested emotions and send it to
the synthesis backend. The stored model is not changed.

Requires backend.synthesis_key in the config file or SONIDO_SYNTHESIS_KEY.

Examples:
  sonido-voz synthesize 3f2b6c1e-... --text "Are you ready?" -o out.wav
  sonido-voz synthesize 3f2b6c1e-... --text "We won!" --emotion happy=0.9 -o out.wav`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		emotions, err := parseStrengths(synthEmotions)
		if err != nil {
			return err
		}

		p, cfg, err := openPipeline()
		if err != nil {
			return err
		}

		res, err := p.Synthesize(cmd.Context(), pipeline.SynthesizeRequest{
			ModelID:  args[0],
			Text:     synthText,
			Emotions: emotions,
		})
		if err != nil {
			return err
		}

		if err := writeAudio(synthOutput, res.Audio, cfg.Audio.SampleRate); err != nil {
			return fmt.Errorf("write %s: %w", synthOutput, err)
		}

		result := map[string]any{
			"output":           synthOutput,
			"audio_bytes":      len(res.Audio),
			"speed":            res.Request.Speed,
			"emotion":          res.Request.Emotion,
			"emotion_strength": res.Request.EmotionStrength,
		}
		if res.Adapted.Pitch != nil {
			result["pitch_mean"] = res.Adapted.Pitch.Mean
		}
		return outputResult(result)
	},
}

func init() {
	synthesizeCmd.Flags().StringVarP(&synthText, "text", "t", "", "text to speak")
	synthesizeCmd.Flags().StringToStringVarP(&synthEmotions, "emotion", "e", nil, "emotion strengths, e.g. happy=0.8,sad=0.1")
	synthesizeCmd.Flags().StringVarP(&synthOutput, "output", "o", "output.wav", "output audio file")
	synthesizeCmd.MarkFlagRequired("text")
}

func parseStrengths(raw map[string]string) (map[string]float64, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make(map[string]float64, len(raw))
	for name, value := range raw {
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("emotion %s: %w", name, err)
		}
		out[name] = v
	}
	return out, nil
}
