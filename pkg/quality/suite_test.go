package quality

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veriqa-inc/veriqa-engine/pkg/apperrors"
	"github.com/veriqa-inc/veriqa-engine/pkg/dialect"
)

const sampleSuite = `
version: "1"
suites:
  - table: dq_people
    checks:
      - column: email
        check: must_contain_at
      - column: amount
        check: range_check
        params:
          min: 0
          max: 99.5
      - column: active
        check: value_equality
        params:
          expected: true
  - schema: sales
    table: orders
    checks:
      - column: order_id
        check: null_check
`

func TestParseSuite(t *testing.T) {
	file, err := ParseSuite([]byte(sampleSuite))
	require.NoError(t, err)
	require.Len(t, file.Suites, 2)

	people := file.Suites[0]
	assert.Empty(t, people.Schema)
	assert.Equal(t, "dq_people", people.Table)

	sels := people.Selections()
	require.Len(t, sels, 3)
	assert.Equal(t, dialect.CheckMustContainAt, sels[0].Check)
	assert.Nil(t, sels[0].Params)

	assert.Equal(t, dialect.CheckRange, sels[1].Check)
	assert.Equal(t, map[string]string{"min": "0", "max": "99.5"}, sels[1].Params,
		"YAML numbers must coerce to parameter strings")

	assert.Equal(t, map[string]string{"expected": "true"}, sels[2].Params)

	orders := file.Suites[1]
	assert.Equal(t, "sales", orders.Schema)
	require.Len(t, orders.Selections(), 1)
}

func TestParseSuiteRejectsUnknownField(t *testing.T) {
	_, err := ParseSuite([]byte(`
suites:
  - table: t
    colums: oops
    checks:
      - column: c
        check: null_check
`))
	require.Error(t, err)
}

func TestParseSuiteRejectsUnknownCheck(t *testing.T) {
	_, err := ParseSuite([]byte(`
suites:
  - table: t
    checks:
      - column: c
        check: sparkle_check
`))
	require.ErrorIs(t, err, apperrors.ErrUnsupportedCheck)
}

func TestParseSuiteValidation(t *testing.T) {
	cases := []struct {
		name string
		doc  string
	}{
		{"empty document", `version: "1"`},
		{"suite without table", "suites:\n  - checks:\n      - column: c\n        check: null_check"},
		{"suite without checks", "suites:\n  - table: t"},
		{"check without column", "suites:\n  - table: t\n    checks:\n      - check: null_check"},
		{"check without id", "suites:\n  - table: t\n    checks:\n      - column: c"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseSuite([]byte(tc.doc))
			require.Error(t, err)
		})
	}
}

func TestLoadSuiteFileMissing(t *testing.T) {
	_, err := LoadSuiteFile("/nonexistent/suite.yaml")
	require.Error(t, err)
}
