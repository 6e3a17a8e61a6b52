package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/veriqa-inc/veriqa-engine/pkg/export"
	"github.com/veriqa-inc/veriqa-engine/pkg/quality"
)

// consoleSampleRows caps the violating rows echoed to the terminal per
// failed check. Exports carry the full bounded sample.
const consoleSampleRows = 3

func newRunChecksCmd(app *app) *cobra.Command {
	var (
		schemaFlag string
		column     string
		checks     []string
		paramFlags []string
		suitePath  string
		exportPath string
	)

	cmd := &cobra.Command{
		Use:   "run-checks [table]",
		Short: "Run data-quality checks and print the report",
		Long: `Runs checks against one column:

  veriqa run-checks people --column email --check null_check --check must_contain_at
  veriqa run-checks people --column amount --check range_check --param min=0 --param max=100

or a whole suite file:

  veriqa run-checks --suite checks.yaml

Parameters given with --param are shared by all selected checks; each check
picks the keys it understands. The process exits 0 when the run completes,
even if checks failed; the report carries the verdicts.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.setup(); err != nil {
				return err
			}
			defer app.shutdown()

			if suitePath != "" {
				if len(args) > 0 || column != "" || len(checks) > 0 || len(paramFlags) > 0 {
					return fmt.Errorf("%w: --suite cannot be combined with a table argument, --column, --check, or --param", errUsage)
				}
				return runSuite(cmd, app, suitePath, exportPath)
			}

			if len(args) == 0 {
				return fmt.Errorf("%w: a table name (or --suite) is required", errUsage)
			}
			if column == "" {
				return fmt.Errorf("%w: --column is required", errUsage)
			}
			if len(checks) == 0 {
				return fmt.Errorf("%w: at least one --check is required", errUsage)
			}

			selections, err := buildSelections(column, checks, paramFlags)
			if err != nil {
				return err
			}
			return runDirect(cmd, app, app.schema(schemaFlag), args[0], selections, exportPath)
		},
	}
	cmd.Flags().StringVar(&schemaFlag, "schema", "", "schema to inspect (default from config)")
	cmd.Flags().StringVar(&column, "column", "", "column to check")
	cmd.Flags().StringArrayVar(&checks, "check", nil, "check id to run (repeatable)")
	cmd.Flags().StringArrayVar(&paramFlags, "param", nil, "check parameter as key=value (repeatable)")
	cmd.Flags().StringVar(&suitePath, "suite", "", "YAML suite file declaring checks for one or more tables")
	cmd.Flags().StringVar(&exportPath, "export", "", "write the report to a .csv or .json file")
	return cmd
}

// buildSelections parses the --param flags into a bag and expands it into
// one selection per check. Selection problems are invocation problems.
func buildSelections(column string, checks, paramFlags []string) ([]quality.Selection, error) {
	bag := make(map[string]string, len(paramFlags))
	for _, kv := range paramFlags {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("%w: --param needs key=value, got %q", errUsage, kv)
		}
		bag[k] = v
	}
	selections, err := quality.NewSelections(column, checks, bag)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errUsage, err)
	}
	return selections, nil
}

func runDirect(cmd *cobra.Command, app *app, schema, table string, selections []quality.Selection, exportPath string) error {
	ctx := cmd.Context()
	if err := app.connect(ctx); err != nil {
		return err
	}
	report, err := newExecutor(app).Run(ctx, schema, table, selections)
	if err != nil {
		return err
	}
	renderReport(cmd.OutOrStdout(), report)
	return exportReports(cmd, exportPath, []*quality.RunReport{report})
}

func runSuite(cmd *cobra.Command, app *app, suitePath, exportPath string) error {
	file, err := quality.LoadSuiteFile(suitePath)
	if err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	ctx := cmd.Context()
	if err := app.connect(ctx); err != nil {
		return err
	}
	executor := newExecutor(app)

	reports := make([]*quality.RunReport, 0, len(file.Suites))
	for _, suite := range file.Suites {
		schema := suite.Schema
		if schema == "" {
			schema = app.schema("")
		}
		report, err := executor.Run(ctx, schema, suite.Table, suite.Selections())
		if err != nil {
			return err
		}
		renderReport(cmd.OutOrStdout(), report)
		reports = append(reports, report)
	}
	return exportReports(cmd, exportPath, reports)
}

func newExecutor(app *app) *quality.Executor {
	return quality.NewExecutor(app.conn, app.resolver, quality.Options{
		SampleLimit:  app.cfg.Checks.SampleLimit,
		QueryTimeout: app.cfg.Checks.QueryTimeout(),
	}, app.logger)
}

func exportReports(cmd *cobra.Command, path string, reports []*quality.RunReport) error {
	if path == "" {
		return nil
	}
	if err := export.WriteFile(path, reports); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Report written to %s\n", path)
	return nil
}

func renderReport(out io.Writer, report *quality.RunReport) {
	fmt.Fprintf(out, "\nRun %s against %s.%s (%d rows, %s)\n\n",
		report.RunID, report.Schema, report.Table, report.TotalRows, report.Kind)

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "COLUMN\tCHECK\tSTATUS\tVIOLATIONS\tPCT\tNOTE")
	for _, res := range report.Results {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			res.Column, res.CheckID, res.Status,
			violations(res), pct(res), res.Err)
	}
	w.Flush()

	for _, res := range report.Results {
		if res.Status == quality.StatusFail && res.Sample != nil && len(res.Sample.Rows) > 0 {
			renderSample(out, res)
		}
	}

	passed, failed, indeterminate := report.Counts()
	fmt.Fprintf(out, "\n%d passed, %d failed, %d indeterminate in %s\n",
		passed, failed, indeterminate, report.Duration.Round(time.Millisecond))
}

func violations(res quality.CheckResult) string {
	if !res.Status.Terminal() || res.Status == quality.StatusIndeterminate {
		return "-"
	}
	return fmt.Sprintf("%d", res.ViolationCount)
}

func pct(res quality.CheckResult) string {
	if res.ViolationPercentage == nil || res.Status == quality.StatusIndeterminate {
		return "-"
	}
	return fmt.Sprintf("%.2f%%", *res.ViolationPercentage)
}

// renderSample echoes a few violating rows so the terminal report is
// actionable without opening an export.
func renderSample(out io.Writer, res quality.CheckResult) {
	fmt.Fprintf(out, "\nSample violations for %s / %s:\n", res.Column, res.CheckID)
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)

	header := make([]string, len(res.Sample.Columns))
	for i, col := range res.Sample.Columns {
		header[i] = strings.ToUpper(col.Name)
	}
	fmt.Fprintln(w, strings.Join(header, "\t"))

	shown := res.Sample.Rows
	if len(shown) > consoleSampleRows {
		shown = shown[:consoleSampleRows]
	}
	for _, row := range shown {
		cells := make([]string, len(res.Sample.Columns))
		for i, col := range res.Sample.Columns {
			cells[i] = cellValue(row[col.Name])
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
	w.Flush()
	if rest := res.Sample.RowCount - len(shown); rest > 0 {
		fmt.Fprintf(out, "... and %d more sampled rows (use --export for all)\n", rest)
	}
}

func cellValue(v any) string {
	if v == nil {
		return "NULL"
	}
	return fmt.Sprintf("%v", v)
}
