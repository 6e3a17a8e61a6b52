// Package mssql implements the SQL Server backend over database/sql with
// the go-mssqldb driver. Catalog queries go through INFORMATION_SCHEMA and
// the sys catalog views; data queries are built by pkg/dialect.
package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	_ "github.com/microsoft/go-mssqldb"
	"go.uber.org/zap"

	"github.com/veriqa-inc/veriqa-engine/pkg/apperrors"
	"github.com/veriqa-inc/veriqa-engine/pkg/connector"
	"github.com/veriqa-inc/veriqa-engine/pkg/dialect"
	"github.com/veriqa-inc/veriqa-engine/pkg/logging"
	"github.com/veriqa-inc/veriqa-engine/pkg/retry"
)

// Connector is a SQL Server session backed by a database/sql handle.
type Connector struct {
	profile connector.Profile
	logger  *zap.Logger
	db      *sql.DB
}

// New builds an unconnected SQL Server connector. A nil logger is replaced
// with a no-op logger.
func New(profile connector.Profile, logger *zap.Logger) (connector.Connector, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Connector{profile: profile, logger: logger}, nil
}

// Kind identifies the backend dialect family.
func (c *Connector) Kind() dialect.Kind {
	return dialect.MSSQL
}

// connString builds a sqlserver:// URL. User-provided fields are
// URL-escaped so passwords containing @, /, # or ? survive URL parsing.
func (c *Connector) connString() string {
	query := url.Values{}
	query.Add("database", c.profile.Database)

	// The profile speaks libpq sslmode vocabulary; map it onto the
	// driver's encrypt parameter. "require" means encrypted but without
	// certificate verification, which is TrustServerCertificate in
	// SQL Server terms.
	switch c.profile.SSLMode {
	case "disable":
		query.Add("encrypt", "disable")
	case "require":
		query.Add("encrypt", "true")
		query.Add("TrustServerCertificate", "true")
	case "verify-ca", "verify-full":
		query.Add("encrypt", "true")
	}

	if c.profile.ConnectTimeout > 0 {
		query.Add("connection timeout", fmt.Sprintf("%d", int(c.profile.ConnectTimeout.Seconds())))
	}

	return fmt.Sprintf("sqlserver://%s:%s@%s:%d?%s",
		url.QueryEscape(c.profile.User),
		url.QueryEscape(c.profile.Password),
		c.profile.Host,
		c.profile.PortOrDefault(dialect.MSSQL),
		query.Encode(),
	)
}

// Connect opens the handle and verifies the session with a ping and a
// probe query.
func (c *Connector) Connect(ctx context.Context) error {
	if c.db != nil {
		return nil
	}

	db, err := sql.Open("sqlserver", c.connString())
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrConnectionFailed, err)
	}
	if c.profile.MaxOpenConns > 0 {
		db.SetMaxOpenConns(c.profile.MaxOpenConns)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("%w: ping: %v", apperrors.ErrConnectionFailed, err)
	}
	var one int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		db.Close()
		return fmt.Errorf("%w: probe query: %v", apperrors.ErrConnectionFailed, err)
	}

	c.db = db
	c.logger.Info("mssql connection established",
		zap.String("host", c.profile.Host),
		zap.String("database", c.profile.Database))
	return nil
}

// EnsureConnected probes the session and reconnects with backoff when the
// probe fails.
func (c *Connector) EnsureConnected(ctx context.Context) error {
	if c.db == nil {
		return c.Connect(ctx)
	}

	var one int
	err := c.db.QueryRowContext(ctx, dialect.MSSQL.LivenessQuery()).Scan(&one)
	if err == nil {
		return nil
	}
	c.logger.Warn("mssql liveness probe failed, reconnecting",
		zap.String("error", logging.SanitizeError(err)))

	c.db.Close()
	c.db = nil
	return retry.DoIfRetryable(ctx, retry.DefaultConfig(), func() error {
		return c.Connect(ctx)
	})
}

// Close releases the handle. Safe to call twice; driver close errors are
// logged and swallowed.
func (c *Connector) Close() error {
	if c.db == nil {
		return nil
	}
	if err := c.db.Close(); err != nil {
		c.logger.Warn("close mssql connection", zap.Error(err))
	}
	c.db = nil
	return nil
}

// ready returns the handle or ErrConnectionFailed when Connect has not run.
func (c *Connector) ready() (*sql.DB, error) {
	if c.db == nil {
		return nil, fmt.Errorf("%w: mssql session not opened", apperrors.ErrConnectionFailed)
	}
	return c.db, nil
}

// collect runs a display query and drains it into a ResultSet.
func (c *Connector) collect(ctx context.Context, db *sql.DB, op, query string, args ...any) (*connector.ResultSet, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", apperrors.ErrQueryFailed, op, err)
	}
	defer rows.Close()

	result, err := connector.CollectRows(rows)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", apperrors.ErrQueryFailed, op, err)
	}
	return result, nil
}

// Compile-time interface check.
var _ connector.Connector = (*Connector)(nil)
