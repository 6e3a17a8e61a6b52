package mssql

import (
	"context"
	"fmt"

	"github.com/veriqa-inc/veriqa-engine/pkg/apperrors"
	"github.com/veriqa-inc/veriqa-engine/pkg/connector"
	"github.com/veriqa-inc/veriqa-engine/pkg/dialect"
)

// CountViolations runs the counting form of a quality check and returns
// the number of violating rows.
func (c *Connector) CountViolations(ctx context.Context, check dialect.CheckRequest) (int64, error) {
	db, err := c.ready()
	if err != nil {
		return 0, err
	}
	q, err := dialect.CountQuery(dialect.MSSQL, check)
	if err != nil {
		return 0, err
	}
	var count int64
	if err := db.QueryRowContext(ctx, q.SQL, q.Args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: %s: %v", apperrors.ErrQueryFailed, check.Check, err)
	}
	return count, nil
}

// SampleViolations returns example rows that violate the check.
func (c *Connector) SampleViolations(ctx context.Context, check dialect.CheckRequest, limit int) (*connector.ResultSet, error) {
	db, err := c.ready()
	if err != nil {
		return nil, err
	}
	q, err := dialect.SampleQuery(dialect.MSSQL, check, limit)
	if err != nil {
		return nil, err
	}
	return c.collect(ctx, db, fmt.Sprintf("%s sample", check.Check), q.SQL, q.Args...)
}

// TextDateFormats groups a text column's values by their inferred date
// shape so callers can see which formats are in use.
func (c *Connector) TextDateFormats(ctx context.Context, schema, table, column string, limit int) (*connector.ResultSet, error) {
	db, err := c.ready()
	if err != nil {
		return nil, err
	}
	q := dialect.TextFormatsQuery(dialect.MSSQL, schema, table, column, limit)
	return c.collect(ctx, db, "text date formats", q.SQL, q.Args...)
}
