package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/angelmondragon/sitestock/internal/bootstrap"
	"github.com/angelmondragon/sitestock/internal/reconcile"
)

type reconcileOptions struct {
	projectID int64
	url       string
	threshold int
}

// NewReconcileCommand compares a project plan with a remote stock sheet.
func NewReconcileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &reconcileOptions{threshold: -1}

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Match a project plan against warehouse stock",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReconcile(cmd, rootOpts, opts)
		},
	}
	cmd.Flags().Int64Var(&opts.projectID, "project", 0, "project id")
	cmd.Flags().StringVar(&opts.url, "url", "", "stock sheet url (Google Sheets links are rewritten to xlsx export)")
	cmd.Flags().IntVar(&opts.threshold, "threshold", -1, "match score 0..100 (default from config)")
	_ = cmd.MarkFlagRequired("project")
	_ = cmd.MarkFlagRequired("url")
	return cmd
}

func runReconcile(cmd *cobra.Command, rootOpts *RootOptions, opts *reconcileOptions) error {
	return rootOpts.withApp(cmd.Context(), func(app *bootstrap.App) error {
		req := reconcile.Request{ProjectID: opts.projectID, Source: opts.url}
		if cmd.Flags().Changed("threshold") {
			req.Threshold = &opts.threshold
		}
		report, err := app.Reconcile.Run(cmd.Context(), req)
		if err != nil {
			return err
		}
		if rootOpts.Output == "json" {
			return writeJSON(cmd.OutOrStdout(), report)
		}
		return printReport(cmd, report)
	})
}

func printReport(cmd *cobra.Command, report *reconcile.Report) error {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PLAN\tUNIT\tSTOCK\tQTY\tSTORES\tSHELVES\tSCORE")
	for _, row := range report.Matched() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%d\n",
			row.PlanName, row.Unit, row.StockName, row.StockQty.String(), row.Stores, row.Shelves, row.MatchScore)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	unmatched := report.Unmatched()
	fmt.Fprintf(cmd.OutOrStdout(), "\n%d matched, %d not in stock (threshold %d)\n",
		len(report.Rows)-len(unmatched), len(unmatched), report.Threshold)
	for _, row := range unmatched {
		fmt.Fprintf(cmd.OutOrStdout(), "  - %s\n", row.PlanName)
	}
	return nil
}
