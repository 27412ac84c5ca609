package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/angelmondragon/sitestock/internal/bootstrap"
)

// NewProjectsCommand groups project listing and creation.
func NewProjectsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "List or create projects",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List projects ordered by name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withApp(cmd.Context(), func(app *bootstrap.App) error {
				list, err := app.Projects.List(cmd.Context())
				if err != nil {
					return err
				}
				if rootOpts.Output == "json" {
					return writeJSON(cmd.OutOrStdout(), list)
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tNAME")
				for _, p := range list {
					fmt.Fprintf(tw, "%d\t%s\n", p.ID, p.Name)
				}
				return tw.Flush()
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "create <name>",
		Short: "Create a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withApp(cmd.Context(), func(app *bootstrap.App) error {
				project, err := app.Projects.Create(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if rootOpts.Output == "json" {
					return writeJSON(cmd.OutOrStdout(), project)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created project %d %q\n", project.ID, project.Name)
				return nil
			})
		},
	})
	return cmd
}
