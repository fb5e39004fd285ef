package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-voz/feedback"
)

var (
	fbScore   float64
	fbMean    float64
	fbStd     float64
	fbMin     float64
	fbMax     float64
	fbRange   float64
	fbEmotion []float64
)

var feedbackCmd = &cobra.Command{
	Use:   "feedback <model-id>",
	Short: "Blend listener preferences into a stored voice",
	Long: `Move the stored parameters toward preferred values:

  new = current*(1-score) + preferred*score

Only the flags given are blended. The emotion profile takes one
non-negative value per emotion in the order neutral, happy, sad, angry,
surprised, summing to 1.

Examples:
  sonido-voz feedback 3f2b6c1e-... --score 0.7 --mean 140
  sonido-voz feedback 3f2b6c1e-... --emotion-profile 0.1,0.6,0.1,0.1,0.1`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fb := feedback.Feedback{Preferred: &feedback.Preferred{}}
		flags := cmd.Flags()

		if flags.Changed("score") {
			fb.RelevanceScore = &fbScore
		}

		patch := &feedback.PitchPatch{}
		pitchFlags := map[string]struct {
			value *float64
			dst   **float64
		}{
			"mean":  {&fbMean, &patch.Mean},
			"std":   {&fbStd, &patch.Std},
			"min":   {&fbMin, &patch.Min},
			"max":   {&fbMax, &patch.Max},
			"range": {&fbRange, &patch.Range},
		}
		for name, f := range pitchFlags {
			if flags.Changed(name) {
				v := *f.value
				*f.dst = &v
			}
		}
		fb.Preferred.Pitch = patch

		if flags.Changed("emotion-profile") {
			fb.Preferred.Emotion = fbEmotion
		}

		p, _, err := openPipeline()
		if err != nil {
			return err
		}
		applied, err := p.Feedback(cmd.Context(), args[0], fb)
		if err != nil {
			return err
		}
		if !applied {
			return fmt.Errorf("nothing to blend: no preferred value matches the stored model")
		}

		m, err := p.Store().Load(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return outputResult(summarize(m))
	},
}

func init() {
	f := feedbackCmd.Flags()
	f.Float64Var(&fbScore, "score", feedback.DefaultRelevance, "relevance score in [0, 1] used as blend weight")
	f.Float64Var(&fbMean, "mean", 0, "preferred pitch mean (Hz)")
	f.Float64Var(&fbStd, "std", 0, "preferred pitch standard deviation (Hz)")
	f.Float64Var(&fbMin, "min", 0, "preferred pitch minimum (Hz)")
	f.Float64Var(&fbMax, "max", 0, "preferred pitch maximum (Hz)")
	f.Float64Var(&fbRange, "range", 0, "preferred pitch range (Hz)")
	f.Float64SliceVar(&fbEmotion, "emotion-profile", nil, "preferred emotion profile, five comma separated values")
}
