package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/veriqa-inc/veriqa-engine/pkg/connector"
)

func newListObjectsCmd(app *app) *cobra.Command {
	var schemaFlag string

	cmd := &cobra.Command{
		Use:   "list-objects",
		Short: "List tables and views in the schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.setup(); err != nil {
				return err
			}
			defer app.shutdown()

			ctx := cmd.Context()
			if err := app.connect(ctx); err != nil {
				return err
			}
			schema := app.schema(schemaFlag)
			objects, err := app.resolver.Objects(ctx, schema)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tKIND")
			tables, views := 0, 0
			for _, obj := range objects {
				fmt.Fprintf(w, "%s\t%s\n", obj.Name, obj.Kind)
				if obj.Kind == connector.ObjectView {
					views++
				} else {
					tables++
				}
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(out, "\n%d tables, %d views in %s\n", tables, views, schema)
			return nil
		},
	}
	cmd.Flags().StringVar(&schemaFlag, "schema", "", "schema to inspect (default from config)")
	return cmd
}
