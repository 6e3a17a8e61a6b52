package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veriqa-inc/veriqa-engine/pkg/connector"
	"github.com/veriqa-inc/veriqa-engine/pkg/dialect"
	"github.com/veriqa-inc/veriqa-engine/pkg/quality"
)

func sampleReports() []*quality.RunReport {
	pct := 4.5
	return []*quality.RunReport{
		{
			RunID:     uuid.New(),
			Kind:      dialect.Postgres,
			Schema:    "public",
			Table:     "dq_people",
			TotalRows: 1000,
			Results: []quality.CheckResult{
				{
					Column:  "email",
					CheckID: dialect.CheckMustContainAt,
					Status:  quality.StatusFail,
					ViolationCount: 45, ViolationPercentage: &pct,
					Sample: &connector.ResultSet{
						Columns:  []connector.ColumnInfo{{Name: "email", Type: "varchar"}},
						Rows:     []map[string]any{{"email": "broken"}},
						RowCount: 1,
					},
				},
				{
					Column:  "id",
					CheckID: dialect.CheckNull,
					Status:  quality.StatusPass,
				},
				{
					Column:  "id",
					CheckID: dialect.CheckRange,
					Status:  quality.StatusIndeterminate,
					Err:     "invalid check parameters: missing required parameter \"min\"",
				},
			},
		},
		{
			RunID:  uuid.New(),
			Kind:   dialect.Postgres,
			Schema: "sales",
			Table:  "orders",
			Results: []quality.CheckResult{
				{Column: "order_id", CheckID: dialect.CheckNull, Status: quality.StatusPass},
			},
		},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleReports()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 5, "header plus four results")

	assert.Equal(t, []string{"schema", "table", "column", "check", "status", "violations", "pct", "error"}, records[0])
	assert.Equal(t, []string{"public", "dq_people", "email", "must_contain_at", "fail", "45", "4.50", ""}, records[1])
	assert.Equal(t, "pass", records[2][4])
	assert.Equal(t, "", records[2][6], "empty-table pct stays blank")
	assert.Contains(t, records[3][7], "missing required parameter")
	assert.Equal(t, "orders", records[4][1], "second report's rows carry its own table")
}

func TestWriteJSONRoundTrip(t *testing.T) {
	reports := sampleReports()
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, reports))

	var decoded []*quality.RunReport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, reports[0].RunID, decoded[0].RunID)
	assert.Equal(t, quality.StatusFail, decoded[0].Results[0].Status)
	require.NotNil(t, decoded[0].Results[0].Sample, "JSON keeps the sample rows")
	assert.Equal(t, 1, decoded[0].Results[0].Sample.RowCount)
}

func TestWriteFileDispatch(t *testing.T) {
	dir := t.TempDir()
	reports := sampleReports()

	csvPath := filepath.Join(dir, "out.csv")
	require.NoError(t, WriteFile(csvPath, reports))
	data, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "schema,table,column")

	jsonPath := filepath.Join(dir, "out.JSON")
	require.NoError(t, WriteFile(jsonPath, reports), "extension match is case-insensitive")

	err = WriteFile(filepath.Join(dir, "out.xlsx"), reports)
	require.Error(t, err)
	assert.Contains(t, err.Error(), ".xlsx")
}
