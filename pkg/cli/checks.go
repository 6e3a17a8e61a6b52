package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/veriqa-inc/veriqa-engine/pkg/dialect"
	"github.com/veriqa-inc/veriqa-engine/pkg/quality"
)

func newChecksCmd(app *app) *cobra.Command {
	var typeFlag string

	cmd := &cobra.Command{
		Use:   "checks",
		Short: "List the data-quality check catalog",
		Long: `Lists every check with the column type categories it applies to and the
parameters it takes. With --type, only checks applicable to a column of
that database type are shown, e.g. --type varchar or --type "numeric(10,2)".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			defs := quality.Catalog()
			if typeFlag != "" {
				cat := dialect.Classify(typeFlag)
				filtered := defs[:0]
				for _, d := range defs {
					if d.AppliesTo(cat) {
						filtered = append(filtered, d)
					}
				}
				defs = filtered
				fmt.Fprintf(cmd.OutOrStdout(), "Checks applicable to %s columns (%s):\n\n", typeFlag, cat)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tAPPLIES TO\tPARAMS\tDESCRIPTION")
			for _, d := range defs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					d.ID, categories(d), params(d.ID), d.Description)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&typeFlag, "type", "", "filter by column data type")
	return cmd
}

func categories(d quality.Definition) string {
	if d.ApplicableTo == nil {
		return "all"
	}
	parts := make([]string, len(d.ApplicableTo))
	for i, c := range d.ApplicableTo {
		parts[i] = string(c)
	}
	return strings.Join(parts, ", ")
}

func params(id dialect.CheckID) string {
	keys := quality.Keys(id)
	if len(keys) == 0 {
		return "-"
	}
	return strings.Join(keys, ", ")
}
