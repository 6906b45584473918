package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Itecs-company/Alias/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "aliasfinder",
	Short: "Manufacturer resolution pipeline for electronic part numbers",
	Long:  "Resolves manufacturer names for part numbers through a staged pipeline: cached prior results, web search, curated search API, then LLM document analysis.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := cfg.Validate(cmd.Name()); err != nil {
			return fmt.Errorf("validate config: %w", err)
		}

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
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
