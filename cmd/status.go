package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/fundament-io/fundament/internal/archive"
	"github.com/fundament-io/fundament/internal/staleness"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show dataset freshness and stored series",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		e, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		now := time.Now().UTC()
		for _, dataset := range []string{archive.DatasetCompanyFacts, archive.DatasetTickerCIK} {
			meta, err := e.Archive.Meta(ctx, dataset)
			if err != nil {
				return err
			}
			if meta == nil {
				fmt.Printf("%-16s never downloaded\n", dataset)
				continue
			}
			state := "fresh"
			if staleness.NeedsRefresh(meta, cfg.EDGAR.MaxStaleDays, now) {
				state = "stale"
			}
			fmt.Printf("%-16s downloaded %s (%s, age %s)\n",
				dataset,
				meta.LastDownloadedAt.Format("2006-01-02 15:04"),
				state,
				staleness.Age(meta, now).Round(time.Hour),
			)
		}

		if n, err := e.Archive.CompanyCount(); err == nil {
			fmt.Printf("%-16s %d companies\n", "archive", n)
		}

		tickers, err := e.Store.ListTickers(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("%-16s %d companies\n", "series", len(tickers))
		fmt.Printf("%-16s %d snapshots\n", "index", e.Refdata.Snapshots())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
