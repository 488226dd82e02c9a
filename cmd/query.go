package main

import (
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var (
	queryDate      string
	queryQuarterly bool
)

// parseQueryDate resolves the --date flag, defaulting to today.
func parseQueryDate() (time.Time, error) {
	if queryDate == "" {
		return time.Now().UTC(), nil
	}
	d, err := time.Parse("2006-01-02", queryDate)
	if err != nil {
		return time.Time{}, eris.Wrapf(err, "bad --date %q", queryDate)
	}
	return d, nil
}

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Point-in-time queries against normalized filings",
}

var queryMetricCmd = &cobra.Command{
	Use:   "metric TICKER METRIC",
	Short: "Resolve a metric as of a date",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		asOf, err := parseQueryDate()
		if err != nil {
			return err
		}

		e, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		st, err := e.Service.Load(ctx, args[0])
		if err != nil {
			return err
		}
		value, err := st.Metric(args[1], asOf, queryQuarterly)
		if err != nil {
			return err
		}

		fmt.Printf("%s %s as of %s: %g\n", args[0], args[1], asOf.Format("2006-01-02"), value)
		return nil
	},
}

var queryWACCCmd = &cobra.Command{
	Use:   "wacc TICKER",
	Short: "Resolve the industry cost of capital as of a date",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		asOf, err := parseQueryDate()
		if err != nil {
			return err
		}

		e, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		wacc, err := e.Refdata.CostOfCapital(args[0], asOf)
		if err != nil {
			return err
		}

		fmt.Printf("%s cost of capital for %d: %.4f\n", args[0], asOf.Year(), wacc)
		return nil
	},
}

var queryMembersCmd = &cobra.Command{
	Use:   "members",
	Short: "List index members as of a date",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		asOf, err := parseQueryDate()
		if err != nil {
			return err
		}

		e, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		members, err := e.Refdata.MembersAsOf(asOf)
		if err != nil {
			return err
		}

		fmt.Printf("%d members as of %s\n", len(members), asOf.Format("2006-01-02"))
		for _, m := range members {
			fmt.Println(m)
		}
		return nil
	},
}

var queryPriceCmd = &cobra.Command{
	Use:   "price TICKER",
	Short: "Fetch the daily close as of a date",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		asOf, err := parseQueryDate()
		if err != nil {
			return err
		}

		e, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		st, err := e.Service.Load(ctx, args[0])
		if err != nil {
			return err
		}
		price, err := st.Price(ctx, asOf)
		if err != nil {
			return err
		}

		fmt.Printf("%s close as of %s: %.2f\n", args[0], asOf.Format("2006-01-02"), price)
		return nil
	},
}

var queryRSICmd = &cobra.Command{
	Use:   "rsi TICKER",
	Short: "Fetch the 14-day RSI as of a date",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		asOf, err := parseQueryDate()
		if err != nil {
			return err
		}

		e, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		st, err := e.Service.Load(ctx, args[0])
		if err != nil {
			return err
		}
		rsi, err := st.RSI(ctx, asOf)
		if err != nil {
			return err
		}

		fmt.Printf("%s RSI as of %s: %.2f\n", args[0], asOf.Format("2006-01-02"), rsi)
		return nil
	},
}

func init() {
	queryCmd.PersistentFlags().StringVar(&queryDate, "date", "", "query date YYYY-MM-DD (default today)")
	queryCmd.PersistentFlags().BoolVar(&queryQuarterly, "quarterly", false, "include quarterly filings")
	queryCmd.AddCommand(queryMetricCmd, queryWACCCmd, queryMembersCmd, queryPriceCmd, queryRSICmd)
	rootCmd.AddCommand(queryCmd)
}
