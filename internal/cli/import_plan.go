package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/angelmondragon/sitestock/internal/bootstrap"
	"github.com/angelmondragon/sitestock/internal/plans"
)

type importPlanOptions struct {
	projectID  int64
	headerRows int
}

// NewImportPlanCommand replaces a project's plan from an xlsx or csv file.
func NewImportPlanCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &importPlanOptions{headerRows: -1}

	cmd := &cobra.Command{
		Use:   "import-plan <file>",
		Short: "Replace a project plan from a spreadsheet",
		Long: `Replace the plan of a project with the rows of an xlsx workbook or csv file.

Columns are name, unit and planned quantity. Delivery history is kept.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImportPlan(cmd, rootOpts, opts, args[0])
		},
	}
	cmd.Flags().Int64Var(&opts.projectID, "project", 0, "project id")
	cmd.Flags().IntVar(&opts.headerRows, "header-rows", -1, "leading rows to skip (default from config)")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

func runImportPlan(cmd *cobra.Command, rootOpts *RootOptions, opts *importPlanOptions, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open plan: %w", err)
	}
	defer f.Close()

	return rootOpts.withApp(cmd.Context(), func(app *bootstrap.App) error {
		skip := opts.headerRows
		if skip < 0 {
			skip = app.Config.Plan.HeaderRows
		}
		rows, err := plans.Read(f, skip)
		if err != nil {
			return err
		}
		result, err := app.Plans.LoadPlan(cmd.Context(), opts.projectID, rows)
		if err != nil {
			return err
		}
		if rootOpts.Output == "json" {
			return writeJSON(cmd.OutOrStdout(), result)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "imported %d rows into project %d\n", result.Inserted, opts.projectID)
		for _, msg := range result.Errors {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", msg)
		}
		return nil
	})
}
