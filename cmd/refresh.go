package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var refreshForce bool

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Download EDGAR bulk datasets if stale",
	Long:  "Checks the cached company facts archive and ticker mapping against the staleness window and re-downloads whatever is too old. --force re-downloads unconditionally.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		e, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		if refreshForce {
			return e.Archive.Refresh(ctx)
		}
		if err := e.Archive.EnsureFresh(ctx); err != nil {
			return err
		}
		zap.L().Info("datasets up to date")
		return nil
	},
}

func init() {
	refreshCmd.Flags().BoolVar(&refreshForce, "force", false, "re-download even if fresh")
	rootCmd.AddCommand(refreshCmd)
}
