package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/semgate-ai/semgate/pkg/config"
	"github.com/semgate-ai/semgate/pkg/tracker"
)

func newStatsCmd() *cobra.Command {
	var (
		configPath string
		since      string
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show per-tier query statistics and savings",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			tr, err := tracker.New(cfg.DBPath)
			if err != nil {
				return err
			}
			defer func() { _ = tr.Close() }()

			sinceTime := beginningOfMonth()
			if since != "" {
				t, err := time.Parse("2006-01-02", since)
				if err != nil {
					return fmt.Errorf("invalid --since date (use YYYY-MM-DD): %w", err)
				}
				sinceTime = t
			}

			ctx := context.Background()
			summaries, err := tr.Summary(ctx, sinceTime)
			if err != nil {
				return err
			}
			if len(summaries) == 0 {
				fmt.Println("No usage data found.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "TIER\tQUERIES\tTOKENS\tCOST\tSAVED\tAVG LATENCY")
			for _, s := range summaries {
				fmt.Fprintf(w, "%s\t%d\t%s\t$%.4f\t$%.4f\t%.0fms\n",
					s.Tier.Name(), s.QueryCount, humanize.Comma(s.TotalTokens),
					s.CostUSD, s.SavedUSD, s.AvgLatencyMs)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			totals, err := tr.Totals(ctx, sinceTime)
			if err != nil {
				return err
			}
			fmt.Printf("\nTotal spent: $%.4f  saved: $%.4f  since %s\n",
				totals.SpentUSD, totals.SavedUSD, humanize.Time(sinceTime))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "semgate.yaml", "path to config file")
	cmd.Flags().StringVar(&since, "since", "", "start date (YYYY-MM-DD), defaults to start of month")
	return cmd
}

func beginningOfMonth() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
}
