// Package postgres implements the PostgreSQL backend through a pgx
// connection pool. Catalog queries go through information_schema and the
// pg_catalog statistics views; data queries are built by pkg/dialect.
package postgres

import (
	"context"
	"fmt"
	"net/url"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/veriqa-inc/veriqa-engine/pkg/apperrors"
	"github.com/veriqa-inc/veriqa-engine/pkg/connector"
	"github.com/veriqa-inc/veriqa-engine/pkg/dialect"
	"github.com/veriqa-inc/veriqa-engine/pkg/logging"
	"github.com/veriqa-inc/veriqa-engine/pkg/retry"
)

// Connector is a PostgreSQL session backed by a pgxpool.Pool.
type Connector struct {
	profile connector.Profile
	logger  *zap.Logger
	pool    *pgxpool.Pool
}

// New builds an unconnected PostgreSQL connector. A nil logger is replaced
// with a no-op logger.
func New(profile connector.Profile, logger *zap.Logger) (connector.Connector, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Connector{profile: profile, logger: logger}, nil
}

// Kind identifies the backend dialect family.
func (c *Connector) Kind() dialect.Kind {
	return dialect.Postgres
}

// connString builds a postgresql:// URL. User-provided fields are
// URL-escaped so passwords containing @, /, # or ? survive URL parsing.
func (c *Connector) connString() string {
	sslMode := c.profile.SSLMode
	if sslMode == "" {
		sslMode = "prefer"
	}

	connStr := fmt.Sprintf(
		"postgresql://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(c.profile.User),
		url.QueryEscape(c.profile.Password),
		c.profile.Host,
		c.profile.PortOrDefault(dialect.Postgres),
		url.QueryEscape(c.profile.Database),
		sslMode,
	)
	if c.profile.ConnectTimeout > 0 {
		connStr += fmt.Sprintf("&connect_timeout=%d", int(c.profile.ConnectTimeout.Seconds()))
	}
	if c.profile.MaxOpenConns > 0 {
		connStr += fmt.Sprintf("&pool_max_conns=%d", c.profile.MaxOpenConns)
	}
	return connStr
}

// Connect opens the pool and verifies the session end to end: ping plus a
// probe query, so auth and database-access failures surface here rather
// than on the first catalog call.
func (c *Connector) Connect(ctx context.Context) error {
	if c.pool != nil {
		return nil
	}

	pool, err := pgxpool.New(ctx, c.connString())
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrConnectionFailed, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("%w: ping: %v", apperrors.ErrConnectionFailed, err)
	}

	var one int
	if err := pool.QueryRow(ctx, "SELECT 1").Scan(&one); err != nil {
		pool.Close()
		return fmt.Errorf("%w: probe query: %v", apperrors.ErrConnectionFailed, err)
	}

	c.pool = pool
	c.logger.Info("postgres connection established",
		zap.String("host", c.profile.Host),
		zap.String("database", c.profile.Database))
	return nil
}

// EnsureConnected probes the session and reconnects with backoff when the
// probe fails.
func (c *Connector) EnsureConnected(ctx context.Context) error {
	if c.pool == nil {
		return c.Connect(ctx)
	}

	var one int
	err := c.pool.QueryRow(ctx, dialect.Postgres.LivenessQuery()).Scan(&one)
	if err == nil {
		return nil
	}
	c.logger.Warn("postgres liveness probe failed, reconnecting",
		zap.String("error", logging.SanitizeError(err)))

	c.pool.Close()
	c.pool = nil
	return retry.DoIfRetryable(ctx, retry.DefaultConfig(), func() error {
		return c.Connect(ctx)
	})
}

// Close releases the pool. Safe to call twice.
func (c *Connector) Close() error {
	if c.pool != nil {
		c.pool.Close()
		c.pool = nil
	}
	return nil
}

// ready returns the pool or ErrConnectionFailed when Connect has not run.
func (c *Connector) ready() (*pgxpool.Pool, error) {
	if c.pool == nil {
		return nil, fmt.Errorf("%w: postgres session not opened", apperrors.ErrConnectionFailed)
	}
	return c.pool, nil
}

// collectRows drains a pgx result into a ResultSet. Closes rows.
func collectRows(rows pgx.Rows) (*connector.ResultSet, error) {
	defer rows.Close()

	fields := rows.FieldDescriptions()
	columns := make([]connector.ColumnInfo, len(fields))
	for i, fd := range fields {
		columns[i] = connector.ColumnInfo{Name: fd.Name, Type: typeNameFromOID(fd.DataTypeOID)}
	}

	result := &connector.ResultSet{Columns: columns, Rows: make([]map[string]any, 0)}
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("read row values: %w", err)
		}

		rowMap := make(map[string]any, len(columns))
		for i, col := range columns {
			rowMap[col.Name] = decodeValue(values[i])
		}
		result.Rows = append(result.Rows, rowMap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	result.RowCount = len(result.Rows)
	return result, nil
}

// decodeValue normalizes pgx-native values for display and JSON
// serialization. UUIDs come back as [16]byte and would otherwise marshal as
// a number array.
func decodeValue(v any) any {
	if b, ok := v.([16]byte); ok {
		return uuid.UUID(b).String()
	}
	return v
}

// typeNameFromOID maps common PostgreSQL type OIDs to readable names.
// Unknown OIDs report as UNKNOWN; only display output depends on this.
func typeNameFromOID(oid uint32) string {
	switch oid {
	case 16:
		return "BOOL"
	case 17:
		return "BYTEA"
	case 18:
		return "CHAR"
	case 20:
		return "INT8"
	case 21:
		return "INT2"
	case 23:
		return "INT4"
	case 25:
		return "TEXT"
	case 114:
		return "JSON"
	case 700:
		return "FLOAT4"
	case 701:
		return "FLOAT8"
	case 790:
		return "MONEY"
	case 1042:
		return "BPCHAR"
	case 1043:
		return "VARCHAR"
	case 1082:
		return "DATE"
	case 1083:
		return "TIME"
	case 1114:
		return "TIMESTAMP"
	case 1184:
		return "TIMESTAMPTZ"
	case 1186:
		return "INTERVAL"
	case 1700:
		return "NUMERIC"
	case 2950:
		return "UUID"
	case 3802:
		return "JSONB"
	default:
		return "UNKNOWN"
	}
}

// Compile-time interface check.
var _ connector.Connector = (*Connector)(nil)
