package mysql

import (
	"context"
	"fmt"

	"github.com/veriqa-inc/veriqa-engine/pkg/apperrors"
	"github.com/veriqa-inc/veriqa-engine/pkg/connector"
	"github.com/veriqa-inc/veriqa-engine/pkg/dialect"
)

// CountViolations runs the check's count query and returns the number of
// violating rows.
func (c *Connector) CountViolations(ctx context.Context, check dialect.CheckRequest) (int64, error) {
	db, err := c.ready()
	if err != nil {
		return 0, err
	}

	q, err := dialect.CountQuery(dialect.MySQL, check)
	if err != nil {
		return 0, err
	}

	var count int64
	if err := db.QueryRowContext(ctx, q.SQL, q.Args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: %s: %v", apperrors.ErrQueryFailed, check.Check, err)
	}
	return count, nil
}

// SampleViolations returns up to limit violating rows for the check.
func (c *Connector) SampleViolations(ctx context.Context, check dialect.CheckRequest, limit int) (*connector.ResultSet, error) {
	db, err := c.ready()
	if err != nil {
		return nil, err
	}

	q, err := dialect.SampleQuery(dialect.MySQL, check, limit)
	if err != nil {
		return nil, err
	}
	return c.collect(ctx, db, fmt.Sprintf("%s sample", check.Check), q.SQL, q.Args...)
}

// TextDateFormats classifies up to limit non-null values of a text column
// against the recognized date layouts.
func (c *Connector) TextDateFormats(ctx context.Context, schema, table, column string, limit int) (*connector.ResultSet, error) {
	db, err := c.ready()
	if err != nil {
		return nil, err
	}

	q := dialect.TextFormatsQuery(dialect.MySQL, schema, table, column, limit)
	return c.collect(ctx, db, "text date formats", q.SQL, q.Args...)
}
