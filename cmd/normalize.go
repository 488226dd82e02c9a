package main

import (
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/fundament-io/fundament/internal/normalize"
)

var (
	normalizeAll         bool
	normalizeConcurrency int
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize [tickers...]",
	Short: "Normalize raw company facts into filing series",
	Long:  "Parses each company's raw EDGAR facts out of the bulk archive, deduplicates restatements, and persists ordered filing series. With --all, normalizes every current index member.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		e, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		if err := e.Archive.EnsureFresh(ctx); err != nil {
			return err
		}

		tickers := args
		if normalizeAll {
			tickers, err = e.Refdata.MembersAsOf(time.Now().UTC())
			if err != nil {
				return err
			}
		}
		if len(tickers) == 0 {
			return eris.New("no tickers given (pass tickers or --all)")
		}

		concurrency := normalizeConcurrency
		if concurrency == 0 {
			concurrency = cfg.Normalize.Concurrency
		}

		runner := normalize.NewRunner(e.Archive, e.Store, concurrency)
		report, err := runner.Run(ctx, tickers)
		if err != nil {
			return err
		}

		fmt.Printf("normalized %d companies, %d failed\n", report.Succeeded(), report.Failed())
		for _, res := range report.Results {
			if res.Err != nil {
				fmt.Printf("  %s: %v\n", res.Ticker, res.Err)
			}
		}
		if report.Failed() > 0 && report.Succeeded() == 0 {
			return eris.New("all companies failed to normalize")
		}
		return nil
	},
}

func init() {
	normalizeCmd.Flags().BoolVar(&normalizeAll, "all", false, "normalize every current index member")
	normalizeCmd.Flags().IntVar(&normalizeConcurrency, "concurrency", 0, "parallel companies (default from config)")
	rootCmd.AddCommand(normalizeCmd)
}
