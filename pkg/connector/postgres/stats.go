package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/veriqa-inc/veriqa-engine/pkg/apperrors"
	"github.com/veriqa-inc/veriqa-engine/pkg/connector"
	"github.com/veriqa-inc/veriqa-engine/pkg/dialect"
)

// TableAnalysis profiles one table: exact row count, size breakdown from
// the pg_catalog size functions, and staleness from pg_stat_user_tables.
// TotalSizeMB includes TOAST, so it can exceed TableSizeMB plus IndexSizeMB.
func (c *Connector) TableAnalysis(ctx context.Context, schema, table string) (*connector.TableAnalysis, error) {
	pool, err := c.ready()
	if err != nil {
		return nil, err
	}
	qualified := dialect.QualifiedTable(dialect.Postgres, schema, table)

	analysis := &connector.TableAnalysis{}
	countSQL := fmt.Sprintf("SELECT COUNT(*) FROM %s", qualified)
	if err := pool.QueryRow(ctx, countSQL).Scan(&analysis.RowCount); err != nil {
		return nil, fmt.Errorf("%w: row count: %v", apperrors.ErrQueryFailed, err)
	}

	err = pool.QueryRow(ctx, `
		SELECT pg_total_relation_size($1::regclass) / 1048576.0,
		       pg_relation_size($1::regclass)       / 1048576.0,
		       pg_indexes_size($1::regclass)        / 1048576.0`,
		qualified).Scan(&analysis.TotalSizeMB, &analysis.TableSizeMB, &analysis.IndexSizeMB)
	if err != nil {
		return nil, fmt.Errorf("%w: table size: %v", apperrors.ErrQueryFailed, err)
	}
	if analysis.RowCount > 0 {
		avg := analysis.TableSizeMB * 1048576.0 / float64(analysis.RowCount)
		analysis.AvgRowBytes = &avg
	}

	var lastAnalyzed *time.Time
	err = pool.QueryRow(ctx, `
		SELECT GREATEST(last_analyze, last_autoanalyze)
		FROM pg_stat_user_tables
		WHERE schemaname = $1 AND relname = $2`, schema, table).Scan(&lastAnalyzed)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: last analyzed: %v", apperrors.ErrQueryFailed, err)
	}
	analysis.LastAnalyzed = lastAnalyzed

	err = pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2`, schema, table).Scan(&analysis.ColumnCount)
	if err != nil {
		return nil, fmt.Errorf("%w: column count: %v", apperrors.ErrQueryFailed, err)
	}

	return analysis, nil
}

// ColumnDetails computes distinct/null/unique counts plus metrics for the
// column's type category. All counting treats NULL as absence: DistinctCount
// and UniqueCount cover values only.
func (c *Connector) ColumnDetails(ctx context.Context, schema, table, column string) (*connector.ColumnDetails, error) {
	pool, err := c.ready()
	if err != nil {
		return nil, err
	}

	var dataType string
	err = pool.QueryRow(ctx, `
		SELECT data_type FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2 AND column_name = $3`,
		schema, table, column).Scan(&dataType)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("column %q not found in %s.%s", column, schema, table)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: column type: %v", apperrors.ErrQueryFailed, err)
	}

	qualified := dialect.QualifiedTable(dialect.Postgres, schema, table)
	quoted := dialect.QuoteIdentifier(dialect.Postgres, column)
	details := &connector.ColumnDetails{DataType: dataType}

	countSQL := fmt.Sprintf(`
		SELECT COUNT(DISTINCT %[1]s),
		       COALESCE(SUM(CASE WHEN %[1]s IS NULL THEN 1 ELSE 0 END), 0)
		FROM %[2]s`, quoted, qualified)
	if err := pool.QueryRow(ctx, countSQL).Scan(&details.DistinctCount, &details.NullCount); err != nil {
		return nil, fmt.Errorf("%w: distinct/null counts: %v", apperrors.ErrQueryFailed, err)
	}

	uniqueSQL := fmt.Sprintf(`
		SELECT COUNT(*) FROM (
			SELECT %[1]s FROM %[2]s
			WHERE %[1]s IS NOT NULL
			GROUP BY %[1]s
			HAVING COUNT(*) = 1
		) AS unique_values`, quoted, qualified)
	if err := pool.QueryRow(ctx, uniqueSQL).Scan(&details.UniqueCount); err != nil {
		return nil, fmt.Errorf("%w: unique count: %v", apperrors.ErrQueryFailed, err)
	}

	switch dialect.Classify(dataType) {
	case dialect.TypeNumeric:
		metricsSQL := fmt.Sprintf(`
			SELECT MIN(%[1]s), MAX(%[1]s), AVG(%[1]s), STDDEV(%[1]s),
			       PERCENTILE_CONT(0.5) WITHIN GROUP (ORDER BY %[1]s)
			FROM %[2]s WHERE %[1]s IS NOT NULL`, quoted, qualified)
		m := &connector.NumericMetrics{}
		if err := pool.QueryRow(ctx, metricsSQL).Scan(&m.Min, &m.Max, &m.Avg, &m.StdDev, &m.Median); err != nil {
			return nil, fmt.Errorf("%w: numeric metrics: %v", apperrors.ErrQueryFailed, err)
		}
		details.Numeric = m
	case dialect.TypeText:
		metricsSQL := fmt.Sprintf(`
			SELECT MIN(LENGTH(%[1]s)), MAX(LENGTH(%[1]s)), AVG(LENGTH(%[1]s))
			FROM %[2]s WHERE %[1]s IS NOT NULL`, quoted, qualified)
		m := &connector.TextMetrics{}
		if err := pool.QueryRow(ctx, metricsSQL).Scan(&m.MinLength, &m.MaxLength, &m.AvgLength); err != nil {
			return nil, fmt.Errorf("%w: text metrics: %v", apperrors.ErrQueryFailed, err)
		}
		details.Text = m
	case dialect.TypeTemporal:
		metricsSQL := fmt.Sprintf(`
			SELECT MIN(%[1]s), MAX(%[1]s)
			FROM %[2]s WHERE %[1]s IS NOT NULL`, quoted, qualified)
		m := &connector.TemporalMetrics{}
		if err := pool.QueryRow(ctx, metricsSQL).Scan(&m.MinDate, &m.MaxDate); err != nil {
			return nil, fmt.Errorf("%w: temporal metrics: %v", apperrors.ErrQueryFailed, err)
		}
		details.Temporal = m
	}

	return details, nil
}

// SampleRows returns up to limit arbitrary rows from the table.
func (c *Connector) SampleRows(ctx context.Context, schema, table string, limit int) (*connector.ResultSet, error) {
	pool, err := c.ready()
	if err != nil {
		return nil, err
	}

	prefix, suffix := dialect.LimitClause(dialect.Postgres, limit)
	query := fmt.Sprintf("SELECT %s* FROM %s%s",
		prefix, dialect.QualifiedTable(dialect.Postgres, schema, table), suffix)
	rows, err := pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: sample rows: %v", apperrors.ErrQueryFailed, err)
	}
	result, err := collectRows(rows)
	if err != nil {
		return nil, fmt.Errorf("%w: sample rows: %v", apperrors.ErrQueryFailed, err)
	}
	return result, nil
}

// ValueCounts returns the column's most frequent values, descending. NULLs
// are excluded; null frequency is already reported by ColumnDetails.
func (c *Connector) ValueCounts(ctx context.Context, schema, table, column string, limit int) (*connector.ResultSet, error) {
	pool, err := c.ready()
	if err != nil {
		return nil, err
	}

	quoted := dialect.QuoteIdentifier(dialect.Postgres, column)
	prefix, suffix := dialect.LimitClause(dialect.Postgres, limit)
	query := fmt.Sprintf(`SELECT %[1]s%[2]s, COUNT(*) AS "count" FROM %[3]s WHERE %[2]s IS NOT NULL GROUP BY %[2]s ORDER BY COUNT(*) DESC%[4]s`,
		prefix, quoted, dialect.QualifiedTable(dialect.Postgres, schema, table), suffix)
	rows, err := pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: value counts: %v", apperrors.ErrQueryFailed, err)
	}
	result, err := collectRows(rows)
	if err != nil {
		return nil, fmt.Errorf("%w: value counts: %v", apperrors.ErrQueryFailed, err)
	}
	return result, nil
}

// MinMaxRange returns the numeric span of the column, nil bounds on an
// empty or all-NULL column.
func (c *Connector) MinMaxRange(ctx context.Context, schema, table, column string) (*connector.ValueRange, error) {
	pool, err := c.ready()
	if err != nil {
		return nil, err
	}

	quoted := dialect.QuoteIdentifier(dialect.Postgres, column)
	query := fmt.Sprintf("SELECT MIN(%[1]s), MAX(%[1]s) FROM %[2]s",
		quoted, dialect.QualifiedTable(dialect.Postgres, schema, table))
	r := &connector.ValueRange{}
	if err := pool.QueryRow(ctx, query).Scan(&r.Min, &r.Max); err != nil {
		return nil, fmt.Errorf("%w: min/max range: %v", apperrors.ErrQueryFailed, err)
	}
	return r, nil
}

// CharLengthRange returns the character-length span of the column, nil
// bounds on an empty or all-NULL column.
func (c *Connector) CharLengthRange(ctx context.Context, schema, table, column string) (*connector.LengthRange, error) {
	pool, err := c.ready()
	if err != nil {
		return nil, err
	}

	quoted := dialect.QuoteIdentifier(dialect.Postgres, column)
	query := fmt.Sprintf("SELECT MIN(LENGTH(%[1]s)), MAX(LENGTH(%[1]s)) FROM %[2]s",
		quoted, dialect.QualifiedTable(dialect.Postgres, schema, table))
	r := &connector.LengthRange{}
	if err := pool.QueryRow(ctx, query).Scan(&r.Min, &r.Max); err != nil {
		return nil, fmt.Errorf("%w: length range: %v", apperrors.ErrQueryFailed, err)
	}
	return r, nil
}
