package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/goodmove/logistics-api/internal/core/domain"
)

func plansCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "plans",
		Short: "Print the subscription plan catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printPlans(cmd.OutOrStdout(), domain.DefaultPlanCatalog().List(), asJSON)
		},
	}

	cmd.Flags().BoolVarP(&asJSON, "json", "j", false, "Output as JSON")

	return cmd
}

func printPlans(w io.Writer, plans []domain.Plan, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(plans)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPRICE\tDAYS\tSTRIPE PRICE")
	for _, p := range plans {
		fmt.Fprintf(tw, "%s\t%s\t%.2f\t%d\t%s\n", p.ID, p.Name, p.Price, p.DurationDays, p.StripePriceID)
	}
	return tw.Flush()
}
