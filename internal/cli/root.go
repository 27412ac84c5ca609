// Package cli implements the sitestock command line tool. Commands run the
// same services as the HTTP API against the configured storage backend.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/angelmondragon/sitestock/internal/bootstrap"
)

// AppLoader opens the wired services for one command invocation.
type AppLoader func(ctx context.Context) (*bootstrap.App, error)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Output string // "text" | "json"
	load   AppLoader
}

// ValidOutputs defines the allowed output encodings.
var ValidOutputs = []string{"text", "json"}

// NewRootCommand creates the root command. load is called lazily by the
// subcommands that need storage.
func NewRootCommand(load AppLoader) *cobra.Command {
	opts := &RootOptions{load: load}

	cmd := &cobra.Command{
		Use:   "sitestock",
		Short: "Construction site material tracking",
		Long:  "Import material plans, reconcile them with warehouse stock and export the delivery ledger.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidOutput(opts.Output) {
				return fmt.Errorf("invalid output %q: must be one of %v", opts.Output, ValidOutputs)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.Output, "output", "o", "text", "output encoding (text|json)")

	cmd.AddCommand(NewProjectsCommand(opts))
	cmd.AddCommand(NewImportPlanCommand(opts))
	cmd.AddCommand(NewReconcileCommand(opts))
	cmd.AddCommand(NewExportHistoryCommand(opts))

	return cmd
}

func isValidOutput(output string) bool {
	for _, o := range ValidOutputs {
		if o == output {
			return true
		}
	}
	return false
}

// withApp opens the services, runs fn and closes them again.
func (o *RootOptions) withApp(ctx context.Context, fn func(app *bootstrap.App) error) error {
	if o.load == nil {
		return fmt.Errorf("no application loader configured")
	}
	app, err := o.load(ctx)
	if err != nil {
		return err
	}
	defer app.Close()
	return fn(app)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
