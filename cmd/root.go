package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sbirscope/transition-cli/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "transition-cli",
	Short: "SBIR award-to-contract transition detection",
	Long: "Detects when a small-business research award's vendor later receives a related\n" +
		"follow-on procurement contract, evaluates detection quality against ground truth,\n" +
		"and aggregates transition rates by company, phase, agency, and technology area.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return eris.Wrap(err, "load config")
		}

		if err := config.InitLogger(c.Log); err != nil {
			return eris.Wrap(err, "init logger")
		}

		// Invalid weights or thresholds are fatal before any work starts.
		if err := c.Validate(); err != nil {
			return err
		}
		cfg = c

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
