// Package connector defines the backend-neutral access layer for the
// database under inspection. Each supported backend implements Connector;
// everything above this package (metadata resolver, quality executor, CLI,
// MCP tools) speaks only these interfaces and structs.
package connector

import (
	"context"
	"strings"
	"time"

	"github.com/veriqa-inc/veriqa-engine/pkg/dialect"
)

// Profile carries everything needed to open a session against one database.
// The password is treated as opaque credential material: it is interpolated
// into driver connection strings and nowhere else. Nothing in this module
// logs or persists it.
type Profile struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string

	// MaxOpenConns caps the connection pool. Runs are sequential, so the
	// default small pool is plenty.
	MaxOpenConns int

	// ConnectTimeout bounds the initial dial and liveness probes.
	ConnectTimeout time.Duration
}

// PortOrDefault returns the configured port, or the backend's default when
// the profile leaves it zero.
func (p Profile) PortOrDefault(k dialect.Kind) int {
	if p.Port > 0 {
		return p.Port
	}
	return k.DefaultPort()
}

// DefaultSchema returns the schema the backend lands in when the user never
// picks one: public on PostgreSQL, dbo on SQL Server, the database itself on
// MySQL, and the connecting user's own schema on Oracle.
func (p Profile) DefaultSchema(k dialect.Kind) string {
	switch k {
	case dialect.Postgres:
		return "public"
	case dialect.MSSQL:
		return "dbo"
	case dialect.MySQL:
		return p.Database
	case dialect.Oracle:
		return strings.ToUpper(p.User)
	default:
		return ""
	}
}

// Connector is one live session against a database backend. A Connector owns
// exactly one underlying handle or pool; it is opened by Connect, probed and
// transparently reopened by EnsureConnected, and released by Close.
// Connectors are not safe for concurrent use.
type Connector interface {
	// Kind identifies the backend dialect family.
	Kind() dialect.Kind

	// Connect opens the underlying handle. Auth and network failures wrap
	// apperrors.ErrConnectionFailed.
	Connect(ctx context.Context) error

	// EnsureConnected issues a liveness probe and reconnects with backoff
	// when the probe fails. Idempotent; callers invoke it before any
	// operation that may run after a long idle pause.
	EnsureConnected(ctx context.Context) error

	// Close releases the handle. Safe to call twice; driver close errors
	// are logged and swallowed.
	Close() error

	// ListObjects returns tables and views in the schema, kind normalized
	// regardless of backend-native labels. An empty listing triggers a
	// schema-existence probe so a mistyped schema surfaces as
	// apperrors.ErrSchemaNotFound rather than an empty result.
	ListObjects(ctx context.Context, schema string) ([]SchemaObject, error)

	// Columns returns the table's columns in ordinal order, each carrying
	// the fixed six-field descriptor every downstream consumer relies on.
	Columns(ctx context.Context, schema, table string) ([]ColumnDescriptor, error)

	// TableAnalysis returns row count, size breakdown, and staleness data.
	TableAnalysis(ctx context.Context, schema, table string) (*TableAnalysis, error)

	// ColumnDetails computes distinct/null/unique counts plus metrics for
	// the column's type category.
	ColumnDetails(ctx context.Context, schema, table, column string) (*ColumnDetails, error)

	// PrimaryKeys returns primary key column names in key order.
	PrimaryKeys(ctx context.Context, schema, table string) ([]string, error)

	// ForeignKeys maps constrained columns to their referenced table and
	// column.
	ForeignKeys(ctx context.Context, schema, table string) (map[string]ForeignKeyRef, error)

	// SampleRows returns up to limit arbitrary rows from the table.
	SampleRows(ctx context.Context, schema, table string, limit int) (*ResultSet, error)

	// ValueCounts returns the column's most frequent values with their
	// occurrence counts, descending.
	ValueCounts(ctx context.Context, schema, table, column string, limit int) (*ResultSet, error)

	// MinMaxRange returns the numeric min and max of the column, nil on an
	// empty table. Used to prefill range-check parameters.
	MinMaxRange(ctx context.Context, schema, table, column string) (*ValueRange, error)

	// CharLengthRange returns the shortest and longest character length in
	// the column, nil on an empty table. Used to prefill length-check
	// parameters.
	CharLengthRange(ctx context.Context, schema, table, column string) (*LengthRange, error)

	// CountViolations runs the check's count query and returns the number
	// of violating rows. Failures wrap apperrors.ErrQueryFailed.
	CountViolations(ctx context.Context, check dialect.CheckRequest) (int64, error)

	// SampleViolations returns up to limit violating rows for the check.
	SampleViolations(ctx context.Context, check dialect.CheckRequest, limit int) (*ResultSet, error)

	// TextDateFormats classifies up to limit non-null values of a text
	// column against the recognized date layouts, returning each value with
	// its detected format and parsed date.
	TextDateFormats(ctx context.Context, schema, table, column string, limit int) (*ResultSet, error)
}
