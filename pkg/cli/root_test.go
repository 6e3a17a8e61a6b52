package cli

import (
	"bytes"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veriqa-inc/veriqa-engine/pkg/config"
	"github.com/veriqa-inc/veriqa-engine/pkg/dialect"
)

// execute runs the CLI with the given arguments and captures its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd("test")
	buf := &bytes.Buffer{}
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestChecksCommand(t *testing.T) {
	out, err := execute(t, "checks")
	require.NoError(t, err)

	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "null_check")
	assert.Contains(t, out, "tckn_check")
	assert.Contains(t, out, "date_format")

	// Header plus one line per catalog entry.
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 27)
}

func TestChecksCommandTypeFilter(t *testing.T) {
	out, err := execute(t, "checks", "--type", "varchar")
	require.NoError(t, err)

	assert.Contains(t, out, "applicable to varchar")
	assert.Contains(t, out, "must_contain_at")
	assert.NotContains(t, out, "range_check")
	assert.NotContains(t, out, "zscore_outlier")
}

func TestUnknownFlagIsUsageError(t *testing.T) {
	_, err := execute(t, "checks", "--bogus")
	require.Error(t, err)
	assert.ErrorIs(t, err, errUsage)
}

func TestUnknownCommandIsUsageError(t *testing.T) {
	_, err := execute(t, "frobnicate")
	require.Error(t, err)
	assert.ErrorIs(t, err, errUsage)
	assert.Contains(t, err.Error(), "frobnicate")
}

func TestBareInvocationPrintsHelp(t *testing.T) {
	out, err := execute(t)
	require.NoError(t, err)
	assert.Contains(t, out, "Available Commands")
	assert.Contains(t, out, "run-checks")
}

func TestExecuteExitCodes(t *testing.T) {
	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"version", []string{"veriqa", "--version"}, ExitOK},
		{"missing column", []string{"veriqa", "run-checks", "people"}, ExitUsage},
		{"unknown flag", []string{"veriqa", "checks", "--bogus"}, ExitUsage},
		{"unknown command", []string{"veriqa", "frobnicate"}, ExitUsage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args
			assert.Equal(t, tt.want, Execute("test"))
		})
	}
}

func TestExecuteConfigErrorExitsOne(t *testing.T) {
	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()

	t.Setenv("VERIQA_SAMPLE_LIMIT", "0")
	os.Args = []string{"veriqa", "run-checks", "people", "--column", "email", "--check", "null_check"}
	assert.Equal(t, ExitError, Execute("test"))
}

func TestSchemaSelection(t *testing.T) {
	newApp := func(kind, user, database, schema string) *app {
		return &app{cfg: &config.Config{Source: config.SourceConfig{
			Kind:     kind,
			User:     user,
			Database: database,
			Schema:   schema,
		}}}
	}

	// Explicit flag wins over everything.
	a := newApp("postgres", "veriqa", "warehouse", "sales")
	assert.Equal(t, "reporting", a.schema("reporting"))

	// Configured schema beats the backend default.
	assert.Equal(t, "sales", a.schema(""))

	// Backend defaults.
	assert.Equal(t, "public", newApp("postgres", "veriqa", "warehouse", "").schema(""))
	assert.Equal(t, "dbo", newApp("sqlserver", "sa", "warehouse", "").schema(""))
	assert.Equal(t, "warehouse", newApp("mysql", "veriqa", "warehouse", "").schema(""))
	assert.Equal(t, "SCOTT", newApp("oracle", "scott", "XEPDB1", "").schema(""))
}

func TestProfileMapping(t *testing.T) {
	a := &app{cfg: &config.Config{Source: config.SourceConfig{
		Kind:                  "postgres",
		Host:                  "db.internal",
		Port:                  5433,
		User:                  "veriqa_ro",
		Password:              "secret",
		Database:              "warehouse",
		SSLMode:               "require",
		MaxOpenConns:          3,
		ConnectTimeoutSeconds: 7,
	}}}

	p := a.profile(dialect.Postgres)
	assert.Equal(t, "db.internal", p.Host)
	assert.Equal(t, 5433, p.Port)
	assert.Equal(t, "veriqa_ro", p.User)
	assert.Equal(t, "secret", p.Password)
	assert.Equal(t, "warehouse", p.Database)
	assert.Equal(t, "require", p.SSLMode)
	assert.Equal(t, 3, p.MaxOpenConns)
	assert.Equal(t, 7*time.Second, p.ConnectTimeout)
}
