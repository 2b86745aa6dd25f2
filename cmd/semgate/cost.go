package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/semgate-ai/semgate/pkg/models"
)

func newCostCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cost",
		Short: "Show the per-tier pricing table",
		RunE: func(cmd *cobra.Command, args []string) error {
			tiers := []models.Tier{
				models.TierCache,
				models.TierLocal,
				models.TierCloud,
				models.TierHaiku,
				models.TierGPT4o,
				models.TierSonnet,
				models.TierOpus,
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "TIER\tINPUT $/1K\tOUTPUT $/1K\t1K+1K QUERY")
			for _, t := range tiers {
				fmt.Fprintf(w, "%s\t$%.5f\t$%.5f\t$%.5f\n",
					t.Name(), t.InputCostPer1K(), t.OutputCostPer1K(), t.Cost(1000, 1000))
			}
			return w.Flush()
		},
	}
}
