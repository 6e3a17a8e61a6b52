package oracle

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/veriqa-inc/veriqa-engine/pkg/apperrors"
	"github.com/veriqa-inc/veriqa-engine/pkg/connector"
	"github.com/veriqa-inc/veriqa-engine/pkg/dialect"
	"github.com/veriqa-inc/veriqa-engine/pkg/logging"
)

// lobTypes are the column types Oracle refuses to aggregate or group by.
var lobTypes = map[string]bool{
	"CLOB": true, "NCLOB": true, "BLOB": true, "BFILE": true,
	"LONG": true, "LONG RAW": true,
}

// TableAnalysis profiles a table: exact row count, segment sizes, and
// optimizer statistics. DBA_SEGMENTS requires SELECT_CATALOG_ROLE or an
// equivalent grant; profiles without it still get counts and statistics,
// with sizes reported as zero.
func (c *Connector) TableAnalysis(ctx context.Context, schema, table string) (*connector.TableAnalysis, error) {
	db, err := c.ready()
	if err != nil {
		return nil, err
	}
	owner := strings.ToUpper(schema)
	qualified := dialect.QualifiedTable(dialect.Oracle, owner, table)
	analysis := &connector.TableAnalysis{}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s", qualified)
	if err := db.QueryRowContext(ctx, countQuery).Scan(&analysis.RowCount); err != nil {
		return nil, fmt.Errorf("%w: row count: %v", apperrors.ErrQueryFailed, err)
	}

	var tableMB, indexMB float64
	err = db.QueryRowContext(ctx, `
		SELECT NVL(SUM(bytes) / 1048576, 0)
		FROM dba_segments
		WHERE owner = :1 AND segment_name = :2 AND segment_type LIKE 'TABLE%'`,
		owner, table).Scan(&tableMB)
	if err == nil {
		// Index segments are named after the index, not the table, so
		// they are reached through DBA_INDEXES.
		err = db.QueryRowContext(ctx, `
			SELECT NVL(SUM(s.bytes) / 1048576, 0)
			FROM dba_indexes i
			JOIN dba_segments s
			  ON s.owner = i.owner
			 AND s.segment_name = i.index_name
			WHERE i.table_owner = :1 AND i.table_name = :2`,
			owner, table).Scan(&indexMB)
	}
	if err != nil {
		c.logger.Warn("segment size lookup failed, reporting zero sizes",
			zap.String("error", logging.SanitizeError(err)))
		tableMB, indexMB = 0, 0
	}
	analysis.TableSizeMB = tableMB
	analysis.IndexSizeMB = indexMB
	analysis.TotalSizeMB = tableMB + indexMB

	// Views have no row in ALL_TABLES; their statistics stay empty.
	var avgRow sql.NullFloat64
	var lastAnalyzed sql.NullTime
	err = db.QueryRowContext(ctx, `
		SELECT avg_row_len, last_analyzed
		FROM all_tables
		WHERE owner = :1 AND table_name = :2`, owner, table).Scan(&avgRow, &lastAnalyzed)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: table statistics: %v", apperrors.ErrQueryFailed, err)
	}
	// avg_row_len stays zero until statistics are gathered.
	if avgRow.Valid && avgRow.Float64 > 0 {
		v := avgRow.Float64
		analysis.AvgRowBytes = &v
	}
	analysis.LastAnalyzed = connector.TimePtr(lastAnalyzed)

	err = db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM all_tab_columns
		WHERE owner = :1 AND table_name = :2`, owner, table).Scan(&analysis.ColumnCount)
	if err != nil {
		return nil, fmt.Errorf("%w: column count: %v", apperrors.ErrQueryFailed, err)
	}

	return analysis, nil
}

// ColumnDetails profiles one column. LOB and LONG columns cannot be
// aggregated or grouped, so for those only the type is reported.
func (c *Connector) ColumnDetails(ctx context.Context, schema, table, column string) (*connector.ColumnDetails, error) {
	db, err := c.ready()
	if err != nil {
		return nil, err
	}
	owner := strings.ToUpper(schema)

	var dataType string
	err = db.QueryRowContext(ctx, `
		SELECT data_type
		FROM all_tab_columns
		WHERE owner = :1 AND table_name = :2 AND column_name = :3`,
		owner, table, column).Scan(&dataType)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("column %q not found in %s.%s", column, schema, table)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: column type: %v", apperrors.ErrQueryFailed, err)
	}

	details := &connector.ColumnDetails{DataType: dataType}
	if lobTypes[dataType] {
		return details, nil
	}

	col := dialect.QuoteIdentifier(dialect.Oracle, column)
	qualified := dialect.QualifiedTable(dialect.Oracle, owner, table)

	countsQuery := fmt.Sprintf(`
		SELECT COUNT(DISTINCT %[1]s),
		       COALESCE(SUM(CASE WHEN %[1]s IS NULL THEN 1 ELSE 0 END), 0)
		FROM %[2]s`, col, qualified)
	if err := db.QueryRowContext(ctx, countsQuery).Scan(&details.DistinctCount, &details.NullCount); err != nil {
		return nil, fmt.Errorf("%w: column counts: %v", apperrors.ErrQueryFailed, err)
	}

	// Oracle forbids AS before a table alias.
	uniqueQuery := fmt.Sprintf(`
		SELECT COUNT(*)
		FROM (
			SELECT %[1]s
			FROM %[2]s
			WHERE %[1]s IS NOT NULL
			GROUP BY %[1]s
			HAVING COUNT(*) = 1
		) unique_values`, col, qualified)
	if err := db.QueryRowContext(ctx, uniqueQuery).Scan(&details.UniqueCount); err != nil {
		return nil, fmt.Errorf("%w: unique count: %v", apperrors.ErrQueryFailed, err)
	}

	switch dialect.Classify(dataType) {
	case dialect.TypeNumeric:
		var min, max, avg, stddev, median sql.NullFloat64
		numQuery := fmt.Sprintf(`
			SELECT MIN(%[1]s), MAX(%[1]s), AVG(%[1]s), STDDEV(%[1]s), MEDIAN(%[1]s)
			FROM %[2]s
			WHERE %[1]s IS NOT NULL`, col, qualified)
		if err := db.QueryRowContext(ctx, numQuery).Scan(&min, &max, &avg, &stddev, &median); err != nil {
			return nil, fmt.Errorf("%w: numeric metrics: %v", apperrors.ErrQueryFailed, err)
		}
		details.Numeric = &connector.NumericMetrics{
			Min:    connector.Float64Ptr(min),
			Max:    connector.Float64Ptr(max),
			Avg:    connector.Float64Ptr(avg),
			StdDev: connector.Float64Ptr(stddev),
			Median: connector.Float64Ptr(median),
		}

	case dialect.TypeText:
		var minLen, maxLen sql.NullInt64
		var avgLen sql.NullFloat64
		textQuery := fmt.Sprintf(`
			SELECT MIN(LENGTH(%[1]s)), MAX(LENGTH(%[1]s)), AVG(LENGTH(%[1]s))
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
	owner := strings.ToUpper(schema)
	prefix, suffix := dialect.LimitClause(dialect.Oracle, limit)
	query := fmt.Sprintf("SELECT %s* FROM %s%s",
		prefix, dialect.QualifiedTable(dialect.Oracle, owner, table), suffix)
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
	owner := strings.ToUpper(schema)
	prefix, suffix := dialect.LimitClause(dialect.Oracle, limit)
	col := dialect.QuoteIdentifier(dialect.Oracle, column)
	query := fmt.Sprintf(
		`SELECT %[1]s%[2]s, COUNT(*) AS "count" FROM %[3]s WHERE %[2]s IS NOT NULL GROUP BY %[2]s ORDER BY COUNT(*) DESC%[4]s`,
		prefix, col, dialect.QualifiedTable(dialect.Oracle, owner, table), suffix)
	return c.collect(ctx, db, "value counts", query)
}

// MinMaxRange returns the numeric extremes of a column.
func (c *Connector) MinMaxRange(ctx context.Context, schema, table, column string) (*connector.ValueRange, error) {
	db, err := c.ready()
	if err != nil {
		return nil, err
	}
	owner := strings.ToUpper(schema)
	col := dialect.QuoteIdentifier(dialect.Oracle, column)
	query := fmt.Sprintf("SELECT MIN(%[1]s), MAX(%[1]s) FROM %[2]s",
		col, dialect.QualifiedTable(dialect.Oracle, owner, table))

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
	owner := strings.ToUpper(schema)
	col := dialect.QuoteIdentifier(dialect.Oracle, column)
	query := fmt.Sprintf("SELECT MIN(LENGTH(%[1]s)), MAX(LENGTH(%[1]s)) FROM %[2]s",
		col, dialect.QualifiedTable(dialect.Oracle, owner, table))

	var min, max sql.NullInt64
	if err := db.QueryRowContext(ctx, query).Scan(&min, &max); err != nil {
		return nil, fmt.Errorf("%w: length range: %v", apperrors.ErrQueryFailed, err)
	}
	return &connector.LengthRange{
		Min: connector.Int64Ptr(min),
		Max: connector.Int64Ptr(max),
	}, nil
}
