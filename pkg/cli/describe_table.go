package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/veriqa-inc/veriqa-engine/pkg/connector"
	"github.com/veriqa-inc/veriqa-engine/pkg/metadata"
)

func newDescribeTableCmd(app *app) *cobra.Command {
	var (
		schemaFlag string
		withStats  bool
		suggestFK  bool
	)

	cmd := &cobra.Command{
		Use:   "describe-table <table>",
		Short: "Show a table's columns, keys, and optionally statistics",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("%w: describe-table takes exactly one table name", errUsage)
			}
			return nil
		},
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
			table, err := app.resolver.ResolveTable(ctx, schema, args[0])
			if err != nil {
				return err
			}

			cols, err := app.resolver.Columns(ctx, schema, table)
			if err != nil {
				return err
			}
			pks, err := app.conn.PrimaryKeys(ctx, schema, table)
			if err != nil {
				return err
			}
			fks, err := app.conn.ForeignKeys(ctx, schema, table)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s.%s (%d columns)\n\n", schema, table, len(cols))
			if err := renderColumns(out, cols, pks, fks); err != nil {
				return err
			}

			if suggestFK {
				objects, err := app.resolver.Objects(ctx, schema)
				if err != nil {
					return err
				}
				renderFKSuggestions(out, metadata.SuggestForeignKeys(cols, objects), fks)
			}

			if withStats {
				if err := renderStats(cmd, app, schema, table, cols); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&schemaFlag, "schema", "", "schema to inspect (default from config)")
	cmd.Flags().BoolVar(&withStats, "stats", false, "include table analysis and per-column statistics")
	cmd.Flags().BoolVar(&suggestFK, "suggest-fk", false, "propose foreign keys inferred from column names")
	return cmd
}

func renderColumns(out io.Writer, cols []connector.ColumnDescriptor, pks []string, fks map[string]connector.ForeignKeyRef) error {
	pkSet := make(map[string]bool, len(pks))
	for _, pk := range pks {
		pkSet[pk] = true
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "COLUMN\tTYPE\tNULLABLE\tKEY")
	for _, col := range cols {
		var keys []string
		if pkSet[col.Name] {
			keys = append(keys, "PK")
		}
		if ref, ok := fks[col.Name]; ok {
			keys = append(keys, fmt.Sprintf("FK -> %s.%s", ref.Table, ref.Column))
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			col.Name, metadata.FormatType(col), yesNo(col.Nullable), strings.Join(keys, ", "))
	}
	return w.Flush()
}

func renderFKSuggestions(out io.Writer, suggestions []metadata.FKSuggestion, declared map[string]connector.ForeignKeyRef) {
	var undeclared []metadata.FKSuggestion
	for _, s := range suggestions {
		if _, ok := declared[s.Column]; !ok {
			undeclared = append(undeclared, s)
		}
	}
	if len(undeclared) == 0 {
		fmt.Fprintln(out, "\nNo undeclared foreign key candidates found.")
		return
	}
	fmt.Fprintln(out, "\nPossible foreign keys (from column naming):")
	for _, s := range undeclared {
		fmt.Fprintf(out, "  %s -> %s (%s confidence)\n", s.Column, s.Table, s.Confidence)
	}
}

func renderStats(cmd *cobra.Command, app *app, schema, table string, cols []connector.ColumnDescriptor) error {
	ctx := cmd.Context()
	analysis, err := app.resolver.Analysis(ctx, schema, table)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\nRows: %d  Total: %.2f MB  Data: %.2f MB  Indexes: %.2f MB\n",
		analysis.RowCount, analysis.TotalSizeMB, analysis.TableSizeMB, analysis.IndexSizeMB)
	if analysis.AvgRowBytes != nil {
		fmt.Fprintf(out, "Avg row: %.0f bytes\n", *analysis.AvgRowBytes)
	}
	if analysis.LastAnalyzed != nil {
		fmt.Fprintf(out, "Last analyzed: %s\n", analysis.LastAnalyzed.Format("2006-01-02 15:04:05"))
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "\nCOLUMN\tDISTINCT\tNULLS\tUNIQUE\tDETAIL")
	for _, col := range cols {
		details, err := app.conn.ColumnDetails(ctx, schema, table, col.Name)
		if err != nil {
			// One broken column must not hide the rest of the profile.
			app.logger.Warn("column details failed",
				zap.String("column", col.Name), zap.Error(err))
			fmt.Fprintf(w, "%s\t-\t-\t-\terror: %v\n", col.Name, err)
			continue
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%s\n",
			col.Name, details.DistinctCount, details.NullCount, details.UniqueCount,
			formatDetail(details))
	}
	return w.Flush()
}

// formatDetail renders the type-specific metric block on one line.
func formatDetail(d *connector.ColumnDetails) string {
	switch {
	case d.Numeric != nil:
		var parts []string
		if d.Numeric.Min != nil && d.Numeric.Max != nil {
			parts = append(parts, fmt.Sprintf("min %s max %s", trimFloat(*d.Numeric.Min), trimFloat(*d.Numeric.Max)))
		}
		if d.Numeric.Avg != nil {
			parts = append(parts, fmt.Sprintf("avg %s", trimFloat(*d.Numeric.Avg)))
		}
		if d.Numeric.StdDev != nil {
			parts = append(parts, fmt.Sprintf("stddev %s", trimFloat(*d.Numeric.StdDev)))
		}
		if d.Numeric.Median != nil {
			parts = append(parts, fmt.Sprintf("median %s", trimFloat(*d.Numeric.Median)))
		}
		return strings.Join(parts, ", ")
	case d.Text != nil:
		if d.Text.MinLength == nil || d.Text.MaxLength == nil {
			return ""
		}
		s := fmt.Sprintf("len %d..%d", *d.Text.MinLength, *d.Text.MaxLength)
		if d.Text.AvgLength != nil {
			s += fmt.Sprintf(" avg %.1f", *d.Text.AvgLength)
		}
		return s
	case d.Temporal != nil:
		if d.Temporal.MinDate == nil || d.Temporal.MaxDate == nil {
			return ""
		}
		return fmt.Sprintf("%s .. %s",
			d.Temporal.MinDate.Format("2006-01-02"), d.Temporal.MaxDate.Format("2006-01-02"))
	default:
		return ""
	}
}

func trimFloat(f float64) string {
	s := fmt.Sprintf("%.2f", f)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
