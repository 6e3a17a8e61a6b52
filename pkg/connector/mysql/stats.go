package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/veriqa-inc/veriqa-engine/pkg/apperrors"
	"github.com/veriqa-inc/veriqa-engine/pkg/connector"
	"github.com/veriqa-inc/veriqa-engine/pkg/dialect"
)

// TableAnalysis profiles one table. Sizes, average row width and the
// update timestamp come from information_schema.tables; the row count is an
// exact COUNT(*) because the information_schema figure is an InnoDB
// estimate and check percentages need a true denominator.
func (c *Connector) TableAnalysis(ctx context.Context, schema, table string) (*connector.TableAnalysis, error) {
	db, err := c.ready()
	if err != nil {
		return nil, err
	}

	var (
		dataMB, indexMB sql.NullFloat64
		avgRow          sql.NullFloat64
		updateTime      sql.NullTime
	)
	err = db.QueryRowContext(ctx, `
		SELECT data_length / 1048576.0,
		       index_length / 1048576.0,
		       avg_row_length,
		       update_time
		FROM information_schema.tables
		WHERE table_schema = ? AND table_name = ?`, schema, table).
		Scan(&dataMB, &indexMB, &avgRow, &updateTime)
	if errors.Is(err, sql.ErrNoRows) {
		return &connector.TableAnalysis{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: table size: %v", apperrors.ErrQueryFailed, err)
	}

	analysis := &connector.TableAnalysis{
		TableSizeMB:  dataMB.Float64,
		IndexSizeMB:  indexMB.Float64,
		TotalSizeMB:  dataMB.Float64 + indexMB.Float64,
		AvgRowBytes:  connector.Float64Ptr(avgRow),
		LastAnalyzed: connector.TimePtr(updateTime),
	}

	countSQL := fmt.Sprintf("SELECT COUNT(*) FROM %s",
		dialect.QualifiedTable(dialect.MySQL, schema, table))
	if err := db.QueryRowContext(ctx, countSQL).Scan(&analysis.RowCount); err != nil {
		return nil, fmt.Errorf("%w: row count: %v", apperrors.ErrQueryFailed, err)
	}

	err = db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM information_schema.columns
		WHERE table_schema = ? AND table_name = ?`, schema, table).Scan(&analysis.ColumnCount)
	if err != nil {
		return nil, fmt.Errorf("%w: column count: %v", apperrors.ErrQueryFailed, err)
	}

	return analysis, nil
}

// ColumnDetails computes distinct/null/unique counts plus metrics for the
// column's type category. Text lengths use CHAR_LENGTH so multi-byte
// content reports character counts, consistent with the other backends.
func (c *Connector) ColumnDetails(ctx context.Context, schema, table, column string) (*connector.ColumnDetails, error) {
	db, err := c.ready()
	if err != nil {
		return nil, err
	}

	var dataType string
	err = db.QueryRowContext(ctx, `
		SELECT data_type FROM information_schema.columns
		WHERE table_schema = ? AND table_name = ? AND column_name = ?`,
		schema, table, column).Scan(&dataType)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("column %q not found in %s.%s", column, schema, table)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: column type: %v", apperrors.ErrQueryFailed, err)
	}

	qualified := dialect.QualifiedTable(dialect.MySQL, schema, table)
	quoted := dialect.QuoteIdentifier(dialect.MySQL, column)
	details := &connector.ColumnDetails{DataType: dataType}

	countSQL := fmt.Sprintf(`
		SELECT COUNT(DISTINCT %[1]s),
		       COALESCE(SUM(CASE WHEN %[1]s IS NULL THEN 1 ELSE 0 END), 0)
		FROM %[2]s`, quoted, qualified)
	if err := db.QueryRowContext(ctx, countSQL).Scan(&details.DistinctCount, &details.NullCount); err != nil {
		return nil, fmt.Errorf("%w: distinct/null counts: %v", apperrors.ErrQueryFailed, err)
	}

	uniqueSQL := fmt.Sprintf(`
		SELECT COUNT(*) FROM (
			SELECT %[1]s FROM %[2]s
			WHERE %[1]s IS NOT NULL
			GROUP BY %[1]s
			HAVING COUNT(*) = 1
		) AS unique_values`, quoted, qualified)
	if err := db.QueryRowContext(ctx, uniqueSQL).Scan(&details.UniqueCount); err != nil {
		return nil, fmt.Errorf("%w: unique count: %v", apperrors.ErrQueryFailed, err)
	}

	switch dialect.Classify(dataType) {
	case dialect.TypeNumeric:
		metricsSQL := fmt.Sprintf(`
			SELECT MIN(%[1]s), MAX(%[1]s), AVG(%[1]s), STDDEV(%[1]s)
			FROM %[2]s WHERE %[1]s IS NOT NULL`, quoted, qualified)
		var minV, maxV, avgV, stddevV sql.NullFloat64
		if err := db.QueryRowContext(ctx, metricsSQL).Scan(&minV, &maxV, &avgV, &stddevV); err != nil {
			return nil, fmt.Errorf("%w: numeric metrics: %v", apperrors.ErrQueryFailed, err)
		}
		// MySQL has no built-in median; the field stays nil.
		details.Numeric = &connector.NumericMetrics{
			Min:    connector.Float64Ptr(minV),
			Max:    connector.Float64Ptr(maxV),
			Avg:    connector.Float64Ptr(avgV),
			StdDev: connector.Float64Ptr(stddevV),
		}
	case dialect.TypeText:
		metricsSQL := fmt.Sprintf(`
			SELECT MIN(CHAR_LENGTH(%[1]s)), MAX(CHAR_LENGTH(%[1]s)), AVG(CHAR_LENGTH(%[1]s))
			FROM %[2]s WHERE %[1]s IS NOT NULL`, quoted, qualified)
		var minL, maxL sql.NullInt64
		var avgL sql.NullFloat64
		if err := db.QueryRowContext(ctx, metricsSQL).Scan(&minL, &maxL, &avgL); err != nil {
			return nil, fmt.Errorf("%w: text metrics: %v", apperrors.ErrQueryFailed, err)
		}
		details.Text = &connector.TextMetrics{
			MinLength: connector.Int64Ptr(minL),
			MaxLength: connector.Int64Ptr(maxL),
			AvgLength: connector.Float64Ptr(avgL),
		}
	case dialect.TypeTemporal:
		metricsSQL := fmt.Sprintf(`
			SELECT MIN(%[1]s), MAX(%[1]s)
			FROM %[2]s WHERE %[1]s IS NOT NULL`, quoted, qualified)
		var minD, maxD sql.NullTime
		if err := db.QueryRowContext(ctx, metricsSQL).Scan(&minD, &maxD); err != nil {
			return nil, fmt.Errorf("%w: temporal metrics: %v", apperrors.ErrQueryFailed, err)
		}
		details.Temporal = &connector.TemporalMetrics{
			MinDate: connector.TimePtr(minD),
			MaxDate: connector.TimePtr(maxD),
		}
	}

	return details, nil
}

// SampleRows returns up to limit arbitrary rows from the table.
func (c *Connector) SampleRows(ctx context.Context, schema, table string, limit int) (*connector.ResultSet, error) {
	db, err := c.ready()
	if err != nil {
		return nil, err
	}

	prefix, suffix := dialect.LimitClause(dialect.MySQL, limit)
	query := fmt.Sprintf("SELECT %s* FROM %s%s",
		prefix, dialect.QualifiedTable(dialect.MySQL, schema, table), suffix)
	return c.collect(ctx, db, "sample rows", query)
}

// ValueCounts returns the column's most frequent values, descending. NULLs
// are excluded; null frequency is already reported by ColumnDetails.
func (c *Connector) ValueCounts(ctx context.Context, schema, table, column string, limit int) (*connector.ResultSet, error) {
	db, err := c.ready()
	if err != nil {
		return nil, err
	}

	quoted := dialect.QuoteIdentifier(dialect.MySQL, column)
	prefix, suffix := dialect.LimitClause(dialect.MySQL, limit)
	query := fmt.Sprintf("SELECT %[1]s%[2]s, COUNT(*) AS `count` FROM %[3]s WHERE %[2]s IS NOT NULL GROUP BY %[2]s ORDER BY COUNT(*) DESC%[4]s",
		prefix, quoted, dialect.QualifiedTable(dialect.MySQL, schema, table), suffix)
	return c.collect(ctx, db, "value counts", query)
}

// MinMaxRange returns the numeric span of the column, nil bounds on an
// empty or all-NULL column.
func (c *Connector) MinMaxRange(ctx context.Context, schema, table, column string) (*connector.ValueRange, error) {
	db, err := c.ready()
	if err != nil {
		return nil, err
	}

	quoted := dialect.QuoteIdentifier(dialect.MySQL, column)
	query := fmt.Sprintf("SELECT MIN(%[1]s), MAX(%[1]s) FROM %[2]s",
		quoted, dialect.QualifiedTable(dialect.MySQL, schema, table))
	var minV, maxV sql.NullFloat64
	if err := db.QueryRowContext(ctx, query).Scan(&minV, &maxV); err != nil {
		return nil, fmt.Errorf("%w: min/max range: %v", apperrors.ErrQueryFailed, err)
	}
	return &connector.ValueRange{
		Min: connector.Float64Ptr(minV),
		Max: connector.Float64Ptr(maxV),
	}, nil
}

// CharLengthRange returns the character-length span of the column, nil
// bounds on an empty or all-NULL column.
func (c *Connector) CharLengthRange(ctx context.Context, schema, table, column string) (*connector.LengthRange, error) {
	db, err := c.ready()
	if err != nil {
		return nil, err
	}

	quoted := dialect.QuoteIdentifier(dialect.MySQL, column)
	query := fmt.Sprintf("SELECT MIN(CHAR_LENGTH(%[1]s)), MAX(CHAR_LENGTH(%[1]s)) FROM %[2]s",
		quoted, dialect.QualifiedTable(dialect.MySQL, schema, table))
	var minL, maxL sql.NullInt64
	if err := db.QueryRowContext(ctx, query).Scan(&minL, &maxL); err != nil {
		return nil, fmt.Errorf("%w: length range: %v", apperrors.ErrQueryFailed, err)
	}
	return &connector.LengthRange{
		Min: connector.Int64Ptr(minL),
		Max: connector.Int64Ptr(maxL),
	}, nil
}
