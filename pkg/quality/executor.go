package quality

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/veriqa-inc/veriqa-engine/pkg/apperrors"
	"github.com/veriqa-inc/veriqa-engine/pkg/connector"
	"github.com/veriqa-inc/veriqa-engine/pkg/dialect"
	"github.com/veriqa-inc/veriqa-engine/pkg/logging"
	"github.com/veriqa-inc/veriqa-engine/pkg/metadata"
)

const (
	defaultSampleLimit  = 100
	defaultQueryTimeout = 30 * time.Second
)

// Selection names one check to run against one column, with its raw
// parameters as the caller collected them (CLI flags, suite file, MCP
// arguments). Parsing and validation happen inside the run so a bad
// selection poisons only itself.
type Selection struct {
	Column string
	Check  dialect.CheckID
	Params map[string]string
}

// Options tunes a run. Zero values fall back to the package defaults.
type Options struct {
	// SampleLimit bounds the violating rows fetched for a failed check.
	SampleLimit int

	// QueryTimeout bounds each count and sample query individually.
	QueryTimeout time.Duration
}

// Executor runs check selections against one table and collects the
// verdicts. It serializes queries over a single connector session; one
// executor must not be shared across goroutines.
type Executor struct {
	conn     connector.Connector
	resolver *metadata.Resolver
	opts     Options
	logger   *zap.Logger
}

// NewExecutor builds an executor over an open session. A nil logger is
// replaced with a no-op logger.
func NewExecutor(conn connector.Connector, resolver *metadata.Resolver, opts Options, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.SampleLimit <= 0 {
		opts.SampleLimit = defaultSampleLimit
	}
	if opts.QueryTimeout <= 0 {
		opts.QueryTimeout = defaultQueryTimeout
	}
	return &Executor{conn: conn, resolver: resolver, opts: opts, logger: logger}
}

// Run executes the selections against the table and returns a fresh
// report.
//
// Failures split two ways. Structural failures, where no check could
// produce a meaningful verdict (dead session, unknown table, row count
// query broken), abort the run with an error. Per-check failures
// (inapplicable check, bad parameters, query error, timeout) mark that
// one check indeterminate and the run continues. When ctx is canceled
// mid-run the remaining checks stay not_run and the partial report is
// returned alongside the context error.
func (e *Executor) Run(ctx context.Context, schema, table string, selections []Selection) (*RunReport, error) {
	if err := e.conn.EnsureConnected(ctx); err != nil {
		return nil, err
	}
	resolved, err := e.resolver.ResolveTable(ctx, schema, table)
	if err != nil {
		return nil, err
	}
	analysis, err := e.resolver.Analysis(ctx, schema, resolved)
	if err != nil {
		return nil, err
	}

	report := &RunReport{
		RunID:     uuid.New(),
		Kind:      e.conn.Kind(),
		Schema:    schema,
		Table:     resolved,
		TotalRows: analysis.RowCount,
		StartedAt: time.Now().UTC(),
		Results:   make([]CheckResult, 0, len(selections)),
	}

	e.logger.Info("starting check run",
		zap.String("run_id", report.RunID.String()),
		zap.String("schema", schema),
		zap.String("table", resolved),
		zap.Int64("total_rows", report.TotalRows),
		zap.Int("selections", len(selections)))

	for i, sel := range selections {
		if ctx.Err() != nil {
			for _, rest := range selections[i:] {
				report.Results = append(report.Results, CheckResult{
					Column:  rest.Column,
					CheckID: rest.Check,
					Status:  StatusNotRun,
				})
			}
			report.Duration = time.Since(report.StartedAt)
			return report, ctx.Err()
		}
		report.Results = append(report.Results, e.runOne(ctx, schema, resolved, sel, report.TotalRows))
	}

	report.Duration = time.Since(report.StartedAt)
	passed, failed, indeterminate := report.Counts()
	e.logger.Info("check run finished",
		zap.String("run_id", report.RunID.String()),
		zap.Int("passed", passed),
		zap.Int("failed", failed),
		zap.Int("indeterminate", indeterminate),
		zap.Duration("duration", report.Duration))
	return report, nil
}

// runOne takes one selection through the full state machine and always
// returns a terminal result.
func (e *Executor) runOne(ctx context.Context, schema, table string, sel Selection, totalRows int64) CheckResult {
	result := CheckResult{
		Column:  sel.Column,
		CheckID: sel.Check,
		Status:  StatusRunning,
	}

	def, ok := ByID(sel.Check)
	if !ok {
		return e.indeterminate(result, fmt.Errorf("%w: unknown check %q", apperrors.ErrUnsupportedCheck, sel.Check))
	}
	result.CheckName = def.Name

	column, err := e.resolver.ResolveColumn(ctx, schema, table, sel.Column)
	if err != nil {
		return e.indeterminate(result, err)
	}
	result.Column = column

	desc, err := e.columnDescriptor(ctx, schema, table, column)
	if err != nil {
		return e.indeterminate(result, err)
	}
	cat := dialect.Classify(desc.DataType)
	if !def.AppliesTo(cat) {
		return e.indeterminate(result, fmt.Errorf("%w: %s does not apply to %s column %s",
			apperrors.ErrUnsupportedCheck, sel.Check, cat, column))
	}

	params, err := ParseParams(sel.Check, sel.Params)
	if err != nil {
		return e.indeterminate(result, err)
	}
	if params.OtherColumn != "" {
		other, err := e.resolver.ResolveColumn(ctx, schema, table, params.OtherColumn)
		if err != nil {
			return e.indeterminate(result, err)
		}
		params.OtherColumn = other
	}

	req := dialect.CheckRequest{
		Check:  sel.Check,
		Schema: schema,
		Table:  table,
		Column: column,
		Params: params,
	}

	qctx, cancel := context.WithTimeout(ctx, e.opts.QueryTimeout)
	count, err := e.conn.CountViolations(qctx, req)
	cancel()
	if err != nil {
		return e.indeterminate(result, err)
	}

	result.ViolationCount = count
	result.ViolationPercentage = percentage(count, totalRows)
	if count == 0 {
		result.Status = StatusPass
		return result
	}
	result.Status = StatusFail

	sctx, cancel := context.WithTimeout(ctx, e.opts.QueryTimeout)
	sample, err := e.conn.SampleViolations(sctx, req, e.opts.SampleLimit)
	cancel()
	if err != nil {
		// The count already settled the verdict; a broken sample fetch
		// loses the evidence rows, not the failure.
		result.Err = logging.SanitizeError(err)
		e.logger.Warn("violation sample fetch failed",
			zap.String("column", column),
			zap.String("check", string(sel.Check)),
			zap.Error(err))
		return result
	}
	result.Sample = trimSample(sample, e.opts.SampleLimit)
	return result
}

// indeterminate finalizes a result that could not produce a verdict.
func (e *Executor) indeterminate(result CheckResult, err error) CheckResult {
	result.Status = StatusIndeterminate
	result.Err = logging.SanitizeError(err)
	e.logger.Warn("check indeterminate",
		zap.String("column", result.Column),
		zap.String("check", string(result.CheckID)),
		zap.Error(err))
	return result
}

// columnDescriptor fetches the resolved column's descriptor from the
// cached catalog listing.
func (e *Executor) columnDescriptor(ctx context.Context, schema, table, column string) (connector.ColumnDescriptor, error) {
	cols, err := e.resolver.Columns(ctx, schema, table)
	if err != nil {
		return connector.ColumnDescriptor{}, err
	}
	for _, c := range cols {
		if c.Name == column {
			return c, nil
		}
	}
	return connector.ColumnDescriptor{}, fmt.Errorf("column %q not found in %s", column, table)
}
