package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-voz/config"
	"github.com/RyanBlaney/sonido-voz/logging"
	"github.com/RyanBlaney/sonido-voz/pipeline"
)

var (
	// Global flags
	cfgFile    string
	storeDir   string
	outputJSON bool
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "sonido-voz",
	Short: "Voice model enrollment and adaptive synthesis",
	Long: `sonido-voz extracts the acoustic identity of a speaker from a recording,
stores it as a voice model and adapts it to text and emotion before handing it
to a speech synthesis backend.

Examples:
  # Enroll a speaker
  sonido-voz enroll speaker.wav

  # Speak with the stored voice
  sonido-voz synthesize 3f2b6c1e-... --text "Hello?" --emotion happy=0.8 -o out.wav

  # Nudge the stored pitch toward a preferred value
  sonido-voz feedback 3f2b6c1e-... --score 0.7 --mean 140`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "sonido-voz.yaml", "config file (YAML); missing file means defaults")
	rootCmd.PersistentFlags().StringVar(&storeDir, "store", "", "voice model directory (overrides store.dir)")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(enrollCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(synthesizeCmd)
	rootCmd.AddCommand(feedbackCmd)
	rootCmd.AddCommand(deleteCmd)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if storeDir != "" {
		cfg.Store.Dir = storeDir
	}
	return cfg, nil
}

// newLogger writes every level to stderr so stdout carries only results
func newLogger(cfg *config.Config) (logging.Logger, error) {
	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, err
	}
	if verbose {
		level = logging.DebugLevel
	}
	logger := logging.NewWriterLogger(os.Stderr, level)
	logger.SetColors(cfg.Logging.Colors)
	return logger, nil
}

// openPipeline builds the pipeline from the config file and global flags
func openPipeline() (*pipeline.Pipeline, *config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("logging.level: %w", err)
	}
	p, err := pipeline.New(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return p, cfg, nil
}
