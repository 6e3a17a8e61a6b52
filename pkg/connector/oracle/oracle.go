// Package oracle implements the Oracle backend over database/sql with the
// go-ora driver. Catalog queries go through the ALL_* dictionary views and
// sizes through DBA_SEGMENTS; data queries are built by pkg/dialect.
package oracle

import (
	"context"
	"database/sql"
	"fmt"

	go_ora "github.com/sijms/go-ora/v2"
	"go.uber.org/zap"

	"github.com/veriqa-inc/veriqa-engine/pkg/apperrors"
	"github.com/veriqa-inc/veriqa-engine/pkg/connector"
	"github.com/veriqa-inc/veriqa-engine/pkg/dialect"
	"github.com/veriqa-inc/veriqa-engine/pkg/logging"
	"github.com/veriqa-inc/veriqa-engine/pkg/retry"
)

// Connector is an Oracle session backed by a database/sql handle.
type Connector struct {
	profile connector.Profile
	logger  *zap.Logger
	db      *sql.DB
}

// New builds an unconnected Oracle connector. A nil logger is replaced
// with a no-op logger.
func New(profile connector.Profile, logger *zap.Logger) (connector.Connector, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Connector{profile: profile, logger: logger}, nil
}

// Kind identifies the backend dialect family.
func (c *Connector) Kind() dialect.Kind {
	return dialect.Oracle
}

// connString builds an oracle:// URL through the driver's BuildUrl helper,
// which escapes the credentials itself. The profile's Database field names
// the service.
func (c *Connector) connString() string {
	options := map[string]string{}

	// The profile speaks libpq sslmode vocabulary. "require" encrypts
	// without certificate verification; the verify modes leave the
	// driver's certificate check on.
	switch c.profile.SSLMode {
	case "require":
		options["SSL"] = "true"
		options["SSL VERIFY"] = "false"
	case "verify-ca", "verify-full":
		options["SSL"] = "true"
	}

	if c.profile.ConnectTimeout > 0 {
		options["CONNECTION TIMEOUT"] = fmt.Sprintf("%d", int(c.profile.ConnectTimeout.Seconds()))
	}

	if len(options) == 0 {
		options = nil
	}
	return go_ora.BuildUrl(
		c.profile.Host,
		c.profile.PortOrDefault(dialect.Oracle),
		c.profile.Database,
		c.profile.User,
		c.profile.Password,
		options,
	)
}

// Connect opens the handle and verifies the session with a ping and a
// probe query.
func (c *Connector) Connect(ctx context.Context) error {
	if c.db != nil {
		return nil
	}

	db, err := sql.Open("oracle", c.connString())
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
	if err := db.QueryRowContext(ctx, "SELECT 1 FROM DUAL").Scan(&one); err != nil {
		db.Close()
		return fmt.Errorf("%w: probe query: %v", apperrors.ErrConnectionFailed, err)
	}

	c.db = db
	c.logger.Info("oracle connection established",
		zap.String("host", c.profile.Host),
		zap.String("service", c.profile.Database))
	return nil
}

// EnsureConnected probes the session and reconnects with backoff when the
// probe fails.
func (c *Connector) EnsureConnected(ctx context.Context) error {
	if c.db == nil {
		return c.Connect(ctx)
	}

	var one int
	err := c.db.QueryRowContext(ctx, dialect.Oracle.LivenessQuery()).Scan(&one)
	if err == nil {
		return nil
	}
	c.logger.Warn("oracle liveness probe failed, reconnecting",
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
		c.logger.Warn("close oracle connection", zap.Error(err))
	}
	c.db = nil
	return nil
}

func (c *Connector) ready() (*sql.DB, error) {
	if c.db == nil {
		return nil, fmt.Errorf("%w: oracle session not opened", apperrors.ErrConnectionFailed)
	}
	return c.db, nil
}

func (c *Connector) collect(ctx context.Context, db *sql.DB, op, query string, args ...any) (*connector.ResultSet, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", apperrors.ErrQueryFailed, op, err)
	}
	defer rows.Close()

	rs, err := connector.CollectRows(rows)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", apperrors.ErrQueryFailed, op, err)
	}
	return rs, nil
}

var _ connector.Connector = (*Connector)(nil)
