package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/semgate-ai/semgate/pkg/budget"
	"github.com/semgate-ai/semgate/pkg/config"
	"github.com/semgate-ai/semgate/pkg/tracker"
)

func newBudgetCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "budget",
		Short: "Manage cloud spend budgets",
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show spend against configured budget policies",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if !cfg.Budget.Enabled {
				fmt.Println("Budget enforcement is disabled.")
				return nil
			}

			tr, err := tracker.New(cfg.DBPath)
			if err != nil {
				return err
			}
			defer func() { _ = tr.Close() }()

			enforcer := budget.New(cfg.Budget.Policies, tr)
			statuses, err := enforcer.Status(context.Background())
			if err != nil {
				return err
			}
			if len(statuses) == 0 {
				fmt.Println("No budget policies configured.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "PERIOD\tMAX USD\tSPENT\tREMAINING")
			for _, s := range statuses {
				fmt.Fprintf(w, "%s\t$%.2f\t$%.4f\t$%.4f\n",
					s.Policy.Period, s.Policy.MaxUSD, s.SpentUSD, s.RemainingUSD)
			}
			return w.Flush()
		},
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "semgate.yaml", "path to config file")
	cmd.AddCommand(statusCmd)
	return cmd
}
