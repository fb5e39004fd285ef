package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var enrollCmd = &cobra.Command{
	Use:   "enroll <audio-file>...",
	Short: "Create voice models from recordings",
	Long: `Create one voice model per recording.

WAV files are decoded in-process; other formats need ffmpeg on PATH.
Several files are enrolled concurrently, bounded by backend.workers.

Examples:
  sonido-voz enroll speaker.wav
  sonido-voz enroll a.wav b.mp3 c.flac --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, _, err := openPipeline()
		if err != nil {
			return err
		}

		results, err := p.EnrollBatch(cmd.Context(), args)
		if err != nil {
			return err
		}

		type enrollOutput struct {
			File  string        `json:"file" yaml:"file"`
			Model *modelSummary `json:"model,omitempty" yaml:"model,omitempty"`
			Error string        `json:"error,omitempty" yaml:"error,omitempty"`
		}
		out := make([]enrollOutput, len(results))
		failed := 0
		for i, r := range results {
			out[i].File = r.Path
			if r.Err != nil {
				out[i].Error = r.Err.Error()
				failed++
				continue
			}
			s := summarize(r.Model)
			out[i].Model = &s
		}

		if err := outputResult(out); err != nil {
			return err
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d recordings failed", failed, len(results))
		}
		return nil
	},
}
