package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/semgate-ai/semgate/pkg/audit"
	"github.com/semgate-ai/semgate/pkg/config"
	"github.com/semgate-ai/semgate/pkg/models"
)

func newAuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Query and manage the routing audit log",
	}

	cmd.AddCommand(
		newAuditSearchCmd(),
		newAuditCleanupCmd(),
	)
	return cmd
}

func newAuditSearchCmd() *cobra.Command {
	var (
		configPath string
		event      string
		tier       string
		since      string
		requestID  string
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search audit events",
		RunE: func(cmd *cobra.Command, args []string) error {
			l, cleanup, err := openAuditLogger(configPath)
			if err != nil {
				return err
			}
			defer cleanup()

			opts := models.AuditQueryOpts{
				Event:     event,
				Tier:      models.Tier(tier),
				RequestID: requestID,
				Limit:     limit,
			}
			if since != "" {
				t, err := time.Parse("2006-01-02", since)
				if err != nil {
					return fmt.Errorf("invalid --since date (use YYYY-MM-DD): %w", err)
				}
				opts.Since = t
			}

			events, err := l.Query(context.Background(), opts)
			if err != nil {
				return err
			}
			if len(events) == 0 {
				fmt.Println("No audit events found.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "TIME\tEVENT\tTIER\tQUERY\tREASON\tTOKENS\tLATENCY")
			for _, ev := range events {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%dms\n",
					ev.CreatedAt.Format("2006-01-02T15:04:05"),
					ev.Event, ev.Tier, ev.QueryPrefix, ev.Reason, ev.TotalTokens, ev.LatencyMs)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "semgate.yaml", "path to config file")
	cmd.Flags().StringVar(&event, "event", "", "filter by event type (request, blocked)")
	cmd.Flags().StringVar(&tier, "tier", "", "filter by tier")
	cmd.Flags().StringVar(&since, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&requestID, "request-id", "", "filter by request ID")
	cmd.Flags().IntVar(&limit, "limit", 50, "max events to return")
	return cmd
}

func newAuditCleanupCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete audit events past the retention window",
		RunE: func(cmd *cobra.Command, args []string) error {
			l, cleanup, err := openAuditLogger(configPath)
			if err != nil {
				return err
			}
			defer cleanup()

			n, err := l.Cleanup(context.Background())
			if err != nil {
				return err
			}
			fmt.Printf("Deleted %d audit events.\n", n)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "semgate.yaml", "path to config file")
	return cmd
}

func openAuditLogger(configPath string) (*audit.Logger, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	if !cfg.Audit.Enabled {
		return nil, nil, fmt.Errorf("audit logging is disabled in config")
	}

	l, err := audit.New(cfg.Audit)
	if err != nil {
		return nil, nil, err
	}
	return l, func() { _ = l.Close() }, nil
}
