// Package mysql implements the MySQL backend over database/sql with the
// go-sql-driver driver. Catalog queries go through information_schema; data
// queries are built by pkg/dialect. MariaDB works through the same driver.
package mysql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"github.com/veriqa-inc/veriqa-engine/pkg/apperrors"
	"github.com/veriqa-inc/veriqa-engine/pkg/connector"
	"github.com/veriqa-inc/veriqa-engine/pkg/dialect"
	"github.com/veriqa-inc/veriqa-engine/pkg/logging"
	"github.com/veriqa-inc/veriqa-engine/pkg/retry"
)

// Connector is a MySQL session backed by a database/sql handle.
type Connector struct {
	profile connector.Profile
	logger  *zap.Logger
	db      *sql.DB
}

// New builds an unconnected MySQL connector. A nil logger is replaced with
// a no-op logger.
func New(profile connector.Profile, logger *zap.Logger) (connector.Connector, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Connector{profile: profile, logger: logger}, nil
}

// Kind identifies the backend dialect family.
func (c *Connector) Kind() dialect.Kind {
	return dialect.MySQL
}

// dsn builds the driver DSN through mysql.Config rather than string
// concatenation; FormatDSN emits the exact encoding the driver's parser
// expects, so unusual password characters survive the round trip.
// ParseTime makes the driver return DATE and DATETIME columns as time.Time.
func (c *Connector) dsn() string {
	cfg := mysql.NewConfig()
	cfg.User = c.profile.User
	cfg.Passwd = c.profile.Password
	cfg.Net = "tcp"
	cfg.Addr = fmt.Sprintf("%s:%d", c.profile.Host, c.profile.PortOrDefault(dialect.MySQL))
	cfg.DBName = c.profile.Database
	cfg.ParseTime = true
	if c.profile.ConnectTimeout > 0 {
		cfg.Timeout = c.profile.ConnectTimeout
	}

	// The profile speaks libpq sslmode vocabulary; map it onto the driver's
	// tls parameter. Empty and "disable" both leave TLS off.
	switch c.profile.SSLMode {
	case "prefer":
		cfg.TLSConfig = "preferred"
	case "require":
		cfg.TLSConfig = "skip-verify"
	case "verify-ca", "verify-full":
		cfg.TLSConfig = "true"
	}
	return cfg.FormatDSN()
}

// Connect opens the handle and verifies the session with a ping and a
// probe query.
func (c *Connector) Connect(ctx context.Context) error {
	if c.db != nil {
		return nil
	}

	db, err := sql.Open("mysql", c.dsn())
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
	c.logger.Info("mysql connection established",
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
	err := c.db.QueryRowContext(ctx, dialect.MySQL.LivenessQuery()).Scan(&one)
	if err == nil {
		return nil
	}
	c.logger.Warn("mysql liveness probe failed, reconnecting",
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
		c.logger.Warn("close mysql connection", zap.Error(err))
	}
	c.db = nil
	return nil
}

// ready returns the handle or ErrConnectionFailed when Connect has not run.
func (c *Connector) ready() (*sql.DB, error) {
	if c.db == nil {
		return nil, fmt.Errorf("%w: mysql session not opened", apperrors.ErrConnectionFailed)
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
