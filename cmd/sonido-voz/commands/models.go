package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-voz/voicemodel"
)

// openStore opens the store without building backends
func openStore() (*voicemodel.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}
	return voicemodel.Open(cfg.Store.Dir, nil, cfg.Store.EmbeddingSize, logger)
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored voice models",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		ids, err := store.List(cmd.Context())
		if err != nil {
			return err
		}
		return outputResult(ids)
	},
}

var showCmd = &cobra.Command{
	Use:   "show <model-id>",
	Short: "Print a stored voice model",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		m, err := store.Load(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return outputResult(summarize(m))
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <model-id>",
	Short: "Remove a stored voice model",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		deleted, err := store.Delete(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if !deleted {
			return fmt.Errorf("no voice model %q", args[0])
		}
		return outputResult(map[string]any{"deleted": args[0]})
	},
}
