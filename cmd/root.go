package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fundament-io/fundament/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "fundament",
	Short: "Point-in-time financial state queries over SEC filings",
	Long:  "Maintains a local EDGAR company facts archive, normalizes filings into per-company series, and answers as-of metric, cost-of-capital, and index membership queries.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

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
