package quality

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veriqa-inc/veriqa-engine/pkg/apperrors"
	"github.com/veriqa-inc/veriqa-engine/pkg/connector"
	"github.com/veriqa-inc/veriqa-engine/pkg/dialect"
	"github.com/veriqa-inc/veriqa-engine/pkg/metadata"
)

// scriptedConn returns canned counts and samples per (column, check) pair
// and records every request it sees. Methods the executor never calls
// panic through the embedded nil interface.
type scriptedConn struct {
	connector.Connector

	rows      int64
	objects   []connector.SchemaObject
	columns   []connector.ColumnDescriptor
	counts    map[string]int64
	countErrs map[string]error
	sample    *connector.ResultSet
	sampleErr error
	ensureErr error

	requests   []dialect.CheckRequest
	countCalls int
}

func key(req dialect.CheckRequest) string {
	return req.Column + "/" + string(req.Check)
}

func (s *scriptedConn) Kind() dialect.Kind { return dialect.Postgres }

func (s *scriptedConn) EnsureConnected(ctx context.Context) error { return s.ensureErr }

func (s *scriptedConn) ListObjects(ctx context.Context, schema string) ([]connector.SchemaObject, error) {
	return s.objects, nil
}

func (s *scriptedConn) Columns(ctx context.Context, schema, table string) ([]connector.ColumnDescriptor, error) {
	return s.columns, nil
}

func (s *scriptedConn) TableAnalysis(ctx context.Context, schema, table string) (*connector.TableAnalysis, error) {
	return &connector.TableAnalysis{RowCount: s.rows, ColumnCount: len(s.columns)}, nil
}

func (s *scriptedConn) CountViolations(ctx context.Context, req dialect.CheckRequest) (int64, error) {
	s.countCalls++
	s.requests = append(s.requests, req)
	if err := s.countErrs[key(req)]; err != nil {
		return 0, err
	}
	return s.counts[key(req)], nil
}

func (s *scriptedConn) SampleViolations(ctx context.Context, req dialect.CheckRequest, limit int) (*connector.ResultSet, error) {
	if s.sampleErr != nil {
		return nil, s.sampleErr
	}
	return s.sample, nil
}

func newScripted() *scriptedConn {
	return &scriptedConn{
		rows:    1000,
		objects: []connector.SchemaObject{{Name: "people", Kind: connector.ObjectTable}},
		columns: []connector.ColumnDescriptor{
			{Name: "id", DataType: "integer"},
			{Name: "email", DataType: "varchar"},
			{Name: "amount", DataType: "numeric"},
			{Name: "start_date", DataType: "date"},
			{Name: "end_date", DataType: "date"},
		},
		counts:    map[string]int64{},
		countErrs: map[string]error{},
	}
}

func newTestExecutor(conn *scriptedConn) *Executor {
	return NewExecutor(conn, metadata.NewResolver(conn, nil), Options{SampleLimit: 5}, nil)
}

func TestRunPassAndFailVerdicts(t *testing.T) {
	conn := newScripted()
	conn.counts["email/null_check"] = 0
	conn.counts["email/must_contain_at"] = 40
	conn.sample = &connector.ResultSet{
		Columns:  []connector.ColumnInfo{{Name: "email", Type: "varchar"}},
		Rows:     []map[string]any{{"email": "nope"}},
		RowCount: 1,
	}
	ex := newTestExecutor(conn)

	report, err := ex.Run(context.Background(), "public", "people", []Selection{
		{Column: "email", Check: dialect.CheckNull},
		{Column: "email", Check: dialect.CheckMustContainAt},
	})
	require.NoError(t, err)
	require.Len(t, report.Results, 2)

	pass := report.Results[0]
	assert.Equal(t, StatusPass, pass.Status)
	assert.Equal(t, int64(0), pass.ViolationCount)
	require.NotNil(t, pass.ViolationPercentage)
	assert.Equal(t, 0.0, *pass.ViolationPercentage)
	assert.Nil(t, pass.Sample)

	fail := report.Results[1]
	assert.Equal(t, StatusFail, fail.Status)
	assert.Equal(t, int64(40), fail.ViolationCount)
	require.NotNil(t, fail.ViolationPercentage)
	assert.InDelta(t, 4.0, *fail.ViolationPercentage, 1e-9)
	require.NotNil(t, fail.Sample)
	assert.Equal(t, "Must Contain @", fail.CheckName)

	assert.True(t, report.HasFailures())
	passed, failed, indeterminate := report.Counts()
	assert.Equal(t, 1, passed)
	assert.Equal(t, 1, failed)
	assert.Equal(t, 0, indeterminate)
}

func TestRunIsolatesPerCheckFailures(t *testing.T) {
	conn := newScripted()
	conn.counts["email/null_check"] = 0
	conn.countErrs["email/length_check"] = fmt.Errorf("%w: relation vanished", apperrors.ErrQueryFailed)
	conn.counts["amount/positive_value"] = 0
	ex := newTestExecutor(conn)

	report, err := ex.Run(context.Background(), "public", "people", []Selection{
		{Column: "email", Check: dialect.CheckNull},
		{Column: "email", Check: dialect.CheckLength, Params: map[string]string{"max_len": "64"}},
		{Column: "amount", Check: dialect.CheckPositiveValue},
	})
	require.NoError(t, err, "one broken check must not abort the run")
	require.Len(t, report.Results, 3)

	assert.Equal(t, StatusPass, report.Results[0].Status)
	assert.Equal(t, StatusIndeterminate, report.Results[1].Status)
	assert.Contains(t, report.Results[1].Err, "relation vanished")
	assert.Equal(t, StatusPass, report.Results[2].Status)
}

func TestRunEachReportIsFresh(t *testing.T) {
	conn := newScripted()
	conn.counts["email/null_check"] = 7
	conn.sample = &connector.ResultSet{RowCount: 0}
	ex := newTestExecutor(conn)
	sel := []Selection{{Column: "email", Check: dialect.CheckNull}}

	first, err := ex.Run(context.Background(), "public", "people", sel)
	require.NoError(t, err)
	conn.counts["email/null_check"] = 0
	second, err := ex.Run(context.Background(), "public", "people", sel)
	require.NoError(t, err)

	assert.NotEqual(t, first.RunID, second.RunID)
	assert.Equal(t, StatusFail, first.Results[0].Status)
	assert.Equal(t, StatusPass, second.Results[0].Status)
	assert.Equal(t, int64(7), first.Results[0].ViolationCount, "earlier report must stay untouched")
}

func TestRunEmptyTablePercentageNil(t *testing.T) {
	conn := newScripted()
	conn.rows = 0
	conn.counts["email/null_check"] = 0
	ex := newTestExecutor(conn)

	report, err := ex.Run(context.Background(), "public", "people", []Selection{
		{Column: "email", Check: dialect.CheckNull},
	})
	require.NoError(t, err)
	assert.Equal(t, StatusPass, report.Results[0].Status)
	assert.Nil(t, report.Results[0].ViolationPercentage)
}

func TestRunInapplicableCheckSkipsQuery(t *testing.T) {
	conn := newScripted()
	ex := newTestExecutor(conn)

	report, err := ex.Run(context.Background(), "public", "people", []Selection{
		{Column: "email", Check: dialect.CheckRange, Params: map[string]string{"min": "0", "max": "1"}},
	})
	require.NoError(t, err)
	res := report.Results[0]
	assert.Equal(t, StatusIndeterminate, res.Status)
	assert.Contains(t, res.Err, "does not apply")
	assert.Equal(t, 0, conn.countCalls, "inapplicable checks must not reach the backend")
}

func TestRunUnknownCheckIndeterminate(t *testing.T) {
	conn := newScripted()
	ex := newTestExecutor(conn)

	report, err := ex.Run(context.Background(), "public", "people", []Selection{
		{Column: "email", Check: dialect.CheckID("sparkle_check")},
	})
	require.NoError(t, err)
	assert.Equal(t, StatusIndeterminate, report.Results[0].Status)
	assert.Contains(t, report.Results[0].Err, "sparkle_check")
}

func TestRunBadParamsIndeterminate(t *testing.T) {
	conn := newScripted()
	ex := newTestExecutor(conn)

	report, err := ex.Run(context.Background(), "public", "people", []Selection{
		{Column: "amount", Check: dialect.CheckRange, Params: map[string]string{"min": "high"}},
	})
	require.NoError(t, err)
	assert.Equal(t, StatusIndeterminate, report.Results[0].Status)
	assert.Equal(t, 0, conn.countCalls)
}

func TestRunResolvesNamesCaseInsensitively(t *testing.T) {
	conn := newScripted()
	conn.counts["start_date/column_correlation"] = 0
	ex := newTestExecutor(conn)

	report, err := ex.Run(context.Background(), "public", "PEOPLE", []Selection{
		{Column: "Start_Date", Check: dialect.CheckCorrelation,
			Params: map[string]string{"other_column": "END_DATE", "operator": "<="}},
	})
	require.NoError(t, err)
	assert.Equal(t, "people", report.Table)
	assert.Equal(t, StatusPass, report.Results[0].Status)
	assert.Equal(t, "start_date", report.Results[0].Column)

	require.Len(t, conn.requests, 1)
	assert.Equal(t, "start_date", conn.requests[0].Column)
	assert.Equal(t, "end_date", conn.requests[0].Params.OtherColumn,
		"companion column must carry the catalog spelling")
}

func TestRunUnknownColumnIndeterminate(t *testing.T) {
	conn := newScripted()
	ex := newTestExecutor(conn)

	report, err := ex.Run(context.Background(), "public", "people", []Selection{
		{Column: "emial", Check: dialect.CheckNull},
	})
	require.NoError(t, err)
	assert.Equal(t, StatusIndeterminate, report.Results[0].Status)
	assert.Contains(t, report.Results[0].Err, "email", "suggestion should name the close match")
}

func TestRunUnknownTableAborts(t *testing.T) {
	conn := newScripted()
	ex := newTestExecutor(conn)

	report, err := ex.Run(context.Background(), "public", "persons", nil)
	require.Error(t, err)
	assert.Nil(t, report)
}

func TestRunDeadSessionAborts(t *testing.T) {
	conn := newScripted()
	conn.ensureErr = fmt.Errorf("%w: refused", apperrors.ErrConnectionFailed)
	ex := newTestExecutor(conn)

	_, err := ex.Run(context.Background(), "public", "people", nil)
	require.ErrorIs(t, err, apperrors.ErrConnectionFailed)
}

func TestRunSampleBounded(t *testing.T) {
	conn := newScripted()
	conn.counts["email/null_check"] = 500
	rows := make([]map[string]any, 12)
	for i := range rows {
		rows[i] = map[string]any{"email": nil}
	}
	conn.sample = &connector.ResultSet{
		Columns:  []connector.ColumnInfo{{Name: "email", Type: "varchar"}},
		Rows:     rows,
		RowCount: len(rows),
	}
	ex := newTestExecutor(conn)

	report, err := ex.Run(context.Background(), "public", "people", []Selection{
		{Column: "email", Check: dialect.CheckNull},
	})
	require.NoError(t, err)
	res := report.Results[0]
	assert.Equal(t, StatusFail, res.Status)
	assert.Equal(t, int64(500), res.ViolationCount, "count is exact even though the sample is bounded")
	require.NotNil(t, res.Sample)
	assert.Len(t, res.Sample.Rows, 5)
	assert.Equal(t, 5, res.Sample.RowCount)
}

func TestRunSampleFetchFailureKeepsFail(t *testing.T) {
	conn := newScripted()
	conn.counts["email/null_check"] = 3
	conn.sampleErr = errors.New("cursor lost")
	ex := newTestExecutor(conn)

	report, err := ex.Run(context.Background(), "public", "people", []Selection{
		{Column: "email", Check: dialect.CheckNull},
	})
	require.NoError(t, err)
	res := report.Results[0]
	assert.Equal(t, StatusFail, res.Status, "verdict was settled by the count")
	assert.Equal(t, int64(3), res.ViolationCount)
	assert.Nil(t, res.Sample)
	assert.Contains(t, res.Err, "cursor lost")
}

func TestRunCanceledContextMarksRemainingNotRun(t *testing.T) {
	conn := newScripted()
	ex := newTestExecutor(conn)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := ex.Run(ctx, "public", "people", []Selection{
		{Column: "email", Check: dialect.CheckNull},
		{Column: "amount", Check: dialect.CheckPositiveValue},
	})
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, report, "partial report still comes back")
	require.Len(t, report.Results, 2)
	for _, res := range report.Results {
		assert.Equal(t, StatusNotRun, res.Status)
	}
	assert.Equal(t, 0, conn.countCalls)
}
