package postgres

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
	pool, err := c.ready()
	if err != nil {
		return 0, err
	}

	q, err := dialect.CountQuery(dialect.Postgres, check)
	if err != nil {
		return 0, err
	}

	var count int64
	if err := pool.QueryRow(ctx, q.SQL, q.Args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: %s: %v", apperrors.ErrQueryFailed, check.Check, err)
	}
	return count, nil
}

// SampleViolations returns up to limit violating rows for the check.
func (c *Connector) SampleViolations(ctx context.Context, check dialect.CheckRequest, limit int) (*connector.ResultSet, error) {
	pool, err := c.ready()
	if err != nil {
		return nil, err
	}

	q, err := dialect.SampleQuery(dialect.Postgres, check, limit)
	if err != nil {
		return nil, err
	}

	rows, err := pool.Query(ctx, q.SQL, q.Args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s sample: %v", apperrors.ErrQueryFailed, check.Check, err)
	}
	result, err := collectRows(rows)
	if err != nil {
		return nil, fmt.Errorf("%w: %s sample: %v", apperrors.ErrQueryFailed, check.Check, err)
	}
	return result, nil
}

// TextDateFormats classifies up to limit non-null values of a text column
// against the recognized date layouts.
func (c *Connector) TextDateFormats(ctx context.Context, schema, table, column string, limit int) (*connector.ResultSet, error) {
	pool, err := c.ready()
	if err != nil {
		return nil, err
	}

	q := dialect.TextFormatsQuery(dialect.Postgres, schema, table, column, limit)
	rows, err := pool.Query(ctx, q.SQL, q.Args...)
	if err != nil {
		return nil, fmt.Errorf("%w: text date formats: %v", apperrors.ErrQueryFailed, err)
	}
	result, err := collectRows(rows)
	if err != nil {
		return nil, fmt.Errorf("%w: text date formats: %v", apperrors.ErrQueryFailed, err)
	}
	return result, nil
}
