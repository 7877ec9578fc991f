package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/ghostbiz/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "ghostbiz",
	Short: "Find OpenStreetMap businesses and check them against Google Places",
	Long: "Extracts business features for a place from OpenStreetMap, normalizes them into a flat table, " +
		"and optionally verifies each business with the Google Places API, keeping a resumable checkpoint of results.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return eris.Wrap(err, "load config")
		}
		if err := c.Validate(); err != nil {
			return err
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return eris.Wrap(err, "init logger")
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
