package mssql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/veriqa-inc/veriqa-engine/pkg/apperrors"
	"github.com/veriqa-inc/veriqa-engine/pkg/connector"
	"github.com/veriqa-inc/veriqa-engine/pkg/dialect"
)

// TableAnalysis profiles a table: exact row count, allocated sizes from
// the sys catalog, and the freshest statistics date. Views have no
// allocation units, so their sizes report as zero.
func (c *Connector) TableAnalysis(ctx context.Context, schema, table string) (*connector.TableAnalysis, error) {
	db, err := c.ready()
	if err != nil {
		return nil, err
	}
	qualified := dialect.QualifiedTable(dialect.MSSQL, schema, table)
	analysis := &connector.TableAnalysis{}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s", qualified)
	if err := db.QueryRowContext(ctx, countQuery).Scan(&analysis.RowCount); err != nil {
		return nil, fmt.Errorf("%w: row count: %v", apperrors.ErrQueryFailed, err)
	}

	// Pages are 8 KB. Heap and clustered-index pages (index_id 0 or 1)
	// hold the row data itself; everything above that is nonclustered
	// index overhead.
	var totalMB, tableMB sql.NullFloat64
	err = db.QueryRowContext(ctx, `
		SELECT SUM(a.total_pages) * 8.0 / 1024,
		       SUM(CASE WHEN i.index_id IN (0, 1) THEN a.used_pages ELSE 0 END) * 8.0 / 1024
		FROM sys.tables t
		JOIN sys.schemas s ON s.schema_id = t.schema_id
		JOIN sys.indexes i ON i.object_id = t.object_id
		JOIN sys.partitions p ON p.object_id = i.object_id AND p.index_id = i.index_id
		JOIN sys.allocation_units a ON a.container_id = p.partition_id
		WHERE s.name = @p1 AND t.name = @p2`, schema, table).Scan(&totalMB, &tableMB)
	if err != nil {
		return nil, fmt.Errorf("%w: table sizes: %v", apperrors.ErrQueryFailed, err)
	}
	if totalMB.Valid {
		analysis.TotalSizeMB = totalMB.Float64
		analysis.TableSizeMB = tableMB.Float64
		analysis.IndexSizeMB = totalMB.Float64 - tableMB.Float64
	}

	if analysis.RowCount > 0 && analysis.TableSizeMB > 0 {
		avg := analysis.TableSizeMB * 1048576 / float64(analysis.RowCount)
		analysis.AvgRowBytes = &avg
	}

	var lastStats sql.NullTime
	err = db.QueryRowContext(ctx, `
		SELECT MAX(STATS_DATE(s.object_id, s.stats_id))
		FROM sys.stats s
		WHERE s.object_id = OBJECT_ID(@p1)`, qualified).Scan(&lastStats)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: last analyzed: %v", apperrors.ErrQueryFailed, err)
	}
	analysis.LastAnalyzed = connector.TimePtr(lastStats)

	err = db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM INFORMATION_SCHEMA.COLUMNS
		WHERE TABLE_SCHEMA = @p1 AND TABLE_NAME = @p2`, schema, table).Scan(&analysis.ColumnCount)
	if err != nil {
		return nil, fmt.Errorf("%w: column count: %v", apperrors.ErrQueryFailed, err)
	}

	return analysis, nil
}

// ColumnDetails profiles one column. Beyond the universal counts it adds
// numeric, text length, or date range metrics depending on the column's
// type category.
func (c *Connector) ColumnDetails(ctx context.Context, schema, table, column string) (*connector.ColumnDetails, error) {
	db, err := c.ready()
	if err != nil {
		return nil, err
	}

	var dataType string
	err = db.QueryRowContext(ctx, `
		SELECT DATA_TYPE
		FROM INFORMATION_SCHEMA.COLUMNS
		WHERE TABLE_SCHEMA = @p1 AND TABLE_NAME = @p2 AND COLUMN_NAME = @p3`,
		schema, table, column).Scan(&dataType)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("column %q not found in %s.%s", column, schema, table)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: column type: %v", apperrors.ErrQueryFailed, err)
	}

	details := &connector.ColumnDetails{DataType: dataType}
	col := dialect.QuoteIdentifier(dialect.MSSQL, column)
	qualified := dialect.QualifiedTable(dialect.MSSQL, schema, table)

	countsQuery := fmt.Sprintf(`
		SELECT COUNT(DISTINCT %[1]s),
		       COALESCE(SUM(CASE WHEN %[1]s IS NULL THEN 1 ELSE 0 END), 0)
		FROM %[2]s`, col, qualified)
	if err := db.QueryRowContext(ctx, countsQuery).Scan(&details.DistinctCount, &details.NullCount); err != nil {
		return nil, fmt.Errorf("%w: column counts: %v", apperrors.ErrQueryFailed, err)
	}

	uniqueQuery := fmt.Sprintf(`
		SELECT COUNT(*)
		FROM (
			SELECT %[1]s
			FROM %[2]s
			WHERE %[1]s IS NOT NULL
			GROUP BY %[1]s
			HAVING COUNT(*) = 1
		) AS unique_values`, col, qualified)
	if err := db.QueryRowContext(ctx, uniqueQuery).Scan(&details.UniqueCount); err != nil {
		return nil, fmt.Errorf("%w: unique count: %v", apperrors.ErrQueryFailed, err)
	}

	switch dialect.Classify(dataType) {
	case dialect.TypeNumeric:
		// AVG inherits integer arithmetic from integer columns, so the
		// input is cast to FLOAT first.
		var min, max, avg, stddev sql.NullFloat64
		numQuery := fmt.Sprintf(`
			SELECT MIN(%[1]s), MAX(%[1]s), AVG(CAST(%[1]s AS FLOAT)), STDEV(%[1]s)
			FROM %[2]s
			WHERE %[1]s IS NOT NULL`, col, qualified)
		if err := db.QueryRowContext(ctx, numQuery).Scan(&min, &max, &avg, &stddev); err != nil {
			return nil, fmt.Errorf("%w: numeric metrics: %v", apperrors.ErrQueryFailed, err)
		}
		details.Numeric = &connector.NumericMetrics{
			Min:    connector.Float64Ptr(min),
			Max:    connector.Float64Ptr(max),
			Avg:    connector.Float64Ptr(avg),
			StdDev: connector.Float64Ptr(stddev),
		}

		// PERCENTILE_CONT is window-only on SQL Server; TOP (1) turns
		// the per-row window result into a scalar. An empty column
		// returns no row and the median stays nil.
		var median sql.NullFloat64
		medianQuery := fmt.Sprintf(`
			SELECT TOP (1) PERCENTILE_CONT(0.5) WITHIN GROUP (ORDER BY %[1]s) OVER ()
			FROM %[2]s
			WHERE %[1]s IS NOT NULL`, col, qualified)
		err := db.QueryRowContext(ctx, medianQuery).Scan(&median)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: median: %v", apperrors.ErrQueryFailed, err)
		}
		details.Numeric.Median = connector.Float64Ptr(median)

	case dialect.TypeText:
		var minLen, maxLen sql.NullInt64
		var avgLen sql.NullFloat64
		textQuery := fmt.Sprintf(`
			SELECT MIN(LEN(%[1]s)), MAX(LEN(%[1]s)), AVG(CAST(LEN(%[1]s) AS FLOAT))
			FROM %[2]s
			WHERE %[1]s IS NOT NULL`, col, qualified)
		if err := db.QueryRowContext(ctx, textQuery).Scan(&minLen, &maxLen, &avgLen); err != nil {
			return nil, fmt.Errorf("%w: text metrics: %v", apperrors.ErrQueryFailed, err)
		}
		details.Text = &connector.TextMetrics{
			MinLength: connector.Int64Ptr(minLen),
			MaxLength: connector.Int64Ptr(maxLen),
			AvgLength: connector.Float64Ptr(avgLen),
		}

	case dialect.TypeTemporal:
		var minDate, maxDate sql.NullTime
		dateQuery := fmt.Sprintf(`
			SELECT MIN(%[1]s), MAX(%[1]s)
			FROM %[2]s
			WHERE %[1]s IS NOT NULL`, col, qualified)
		if err := db.QueryRowContext(ctx, dateQuery).Scan(&minDate, &maxDate); err != nil {
			return nil, fmt.Errorf("%w: temporal metrics: %v", apperrors.ErrQueryFailed, err)
		}
		details.Temporal = &connector.TemporalMetrics{
			MinDate: connector.TimePtr(minDate),
			MaxDate: connector.TimePtr(maxDate),
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
	prefix, suffix := dialect.LimitClause(dialect.MSSQL, limit)
	query := fmt.Sprintf("SELECT %s* FROM %s%s",
		prefix, dialect.QualifiedTable(dialect.MSSQL, schema, table), suffix)
	return c.collect(ctx, db, "sample rows", query)
}

// ValueCounts returns the most frequent values of a column with their
// occurrence counts. NULLs are excluded; ColumnDetails already reports
// the null frequency.
func (c *Connector) ValueCounts(ctx context.Context, schema, table, column string, limit int) (*connector.ResultSet, error) {
	db, err := c.ready()
	if err != nil {
		return nil, err
	}
	prefix, suffix := dialect.LimitClause(dialect.MSSQL, limit)
	col := dialect.QuoteIdentifier(dialect.MSSQL, column)
	query := fmt.Sprintf(
		"SELECT %[1]s%[2]s, COUNT(*) AS [count] FROM %[3]s WHERE %[2]s IS NOT NULL GROUP BY %[2]s ORDER BY COUNT(*) DESC%[4]s",
		prefix, col, dialect.QualifiedTable(dialect.MSSQL, schema, table), suffix)
	return c.collect(ctx, db, "value counts", query)
}

// MinMaxRange returns the numeric extremes of a column.
func (c *Connector) MinMaxRange(ctx context.Context, schema, table, column string) (*connector.ValueRange, error) {
	db, err := c.ready()
	if err != nil {
		return nil, err
	}
	col := dialect.QuoteIdentifier(dialect.MSSQL, column)
	query := fmt.Sprintf("SELECT MIN(%[1]s), MAX(%[1]s) FROM %[2]s",
		col, dialect.QualifiedTable(dialect.MSSQL, schema, table))

	var min, max sql.NullFloat64
	if err := db.QueryRowContext(ctx, query).Scan(&min, &max); err != nil {
		return nil, fmt.Errorf("%w: value range: %v", apperrors.ErrQueryFailed, err)
	}
	return &connector.ValueRange{
		Min: connector.Float64Ptr(min),
		Max: connector.Float64Ptr(max),
	}, nil
}

// CharLengthRange returns the shortest and longest value lengths of a
// text column.
func (c *Connector) CharLengthRange(ctx context.Context, schema, table, column string) (*connector.LengthRange, error) {
	db, err := c.ready()
	if err != nil {
		return nil, err
	}
	col := dialect.QuoteIdentifier(dialect.MSSQL, column)
	query := fmt.Sprintf("SELECT MIN(LEN(%[1]s)), MAX(LEN(%[1]s)) FROM %[2]s",
		col, dialect.QualifiedTable(dialect.MSSQL, schema, table))

	var min, max sql.NullInt64
	if err := db.QueryRowContext(ctx, query).Scan(&min, &max); err != nil {
		return nil, fmt.Errorf("%w: length range: %v", apperrors.ErrQueryFailed, err)
	}
	return &connector.LengthRange{
		Min: connector.Int64Ptr(min),
		Max: connector.Int64Ptr(max),
	}, nil
}
