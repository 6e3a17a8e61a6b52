package connector

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// binaryTypes are database type names whose []byte values are genuinely
// binary. Everything else scanned as []byte is a text rendering and gets
// converted to string, which also covers the MySQL driver's habit of
// returning []byte for most column types.
var binaryTypes = map[string]struct{}{
	"BINARY":     {},
	"VARBINARY":  {},
	"BLOB":       {},
	"TINYBLOB":   {},
	"MEDIUMBLOB": {},
	"LONGBLOB":   {},
	"IMAGE":      {},
	"RAW":        {},
	"LONG RAW":   {},
	"BFILE":      {},
	"BYTEA":      {},
}

// DecodeValue normalizes a scanned driver value for display and JSON
// serialization. dbType is the driver's DatabaseTypeName for the column.
func DecodeValue(dbType string, v any) any {
	if b, ok := v.([]byte); ok {
		if _, binary := binaryTypes[strings.ToUpper(dbType)]; !binary {
			return string(b)
		}
	}
	return v
}

// Int64Ptr converts a nullable scan target into the pointer form the
// metadata structs use.
func Int64Ptr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	return &v.Int64
}

// Float64Ptr converts a nullable scan target into pointer form.
func Float64Ptr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return &v.Float64
}

// TimePtr converts a nullable scan target into pointer form.
func TimePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	return &v.Time
}

// CollectRows drains a database/sql result into a ResultSet. The caller
// still owns rows and must Close it.
func CollectRows(rows *sql.Rows) (*ResultSet, error) {
	columnTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("read column types: %w", err)
	}

	columns := make([]ColumnInfo, len(columnTypes))
	for i, ct := range columnTypes {
		columns[i] = ColumnInfo{Name: ct.Name(), Type: ct.DatabaseTypeName()}
	}

	result := &ResultSet{Columns: columns, Rows: make([]map[string]any, 0)}
	for rows.Next() {
		values := make([]any, len(columns))
		valuePtrs := make([]any, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		rowMap := make(map[string]any, len(columns))
		for i, col := range columns {
			rowMap[col.Name] = DecodeValue(col.Type, values[i])
		}
		result.Rows = append(result.Rows, rowMap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	result.RowCount = len(result.Rows)
	return result, nil
}
