package cli

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/angelmondragon/sitestock/internal/bootstrap"
	"github.com/angelmondragon/sitestock/internal/ledger"
	"github.com/angelmondragon/sitestock/pkg/enums"
)

type exportHistoryOptions struct {
	projectID int64
	format    string
	out       string
}

// NewExportHistoryCommand writes a project's ledger to a file.
func NewExportHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &exportHistoryOptions{}

	cmd := &cobra.Command{
		Use:   "export-history",
		Short: "Export the delivery ledger of a project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExportHistory(cmd, rootOpts, opts)
		},
	}
	cmd.Flags().Int64Var(&opts.projectID, "project", 0, "project id")
	cmd.Flags().StringVar(&opts.format, "format", "xlsx", "export format (xlsx|csv)")
	cmd.Flags().StringVar(&opts.out, "out", "", "output file, - for stdout (default history_<id>.<format>)")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

func runExportHistory(cmd *cobra.Command, rootOpts *RootOptions, opts *exportHistoryOptions) error {
	format, err := enums.ParseExportFormat(opts.format)
	if err != nil {
		return err
	}
	return rootOpts.withApp(cmd.Context(), func(app *bootstrap.App) error {
		entries, err := app.Ledger.History(cmd.Context(), opts.projectID)
		if err != nil {
			return err
		}
		var buf bytes.Buffer
		if err := ledger.WriteHistory(&buf, format, entries); err != nil {
			return err
		}

		if opts.out == "-" {
			_, err := cmd.OutOrStdout().Write(buf.Bytes())
			return err
		}
		path := opts.out
		if path == "" {
			path = fmt.Sprintf("history_%d.%s", opts.projectID, format)
		}
		if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("write export: %w", err)
		}
		if rootOpts.Output == "json" {
			return writeJSON(cmd.OutOrStdout(), map[string]any{"path": path, "entries": len(entries)})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %d entries to %s\n", len(entries), path)
		return nil
	})
}
