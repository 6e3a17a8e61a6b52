package connector

import "time"

// ObjectKind is the normalized kind of a schema object.
type ObjectKind string

const (
	ObjectTable ObjectKind = "TABLE"
	ObjectView  ObjectKind = "VIEW"
)

// SchemaObject is one entry in a schema listing. Immutable snapshot; fetched
// per request.
type SchemaObject struct {
	Name string     `json:"name"`
	Kind ObjectKind `json:"kind"`
}

// ColumnDescriptor is the fixed six-field column shape shared by all four
// backends. Source of truth is the backend catalog; descriptors are
// re-fetched rather than persisted since schemas change between sessions.
// MaxLength applies to character types, Precision and Scale to numeric
// types; each is nil where the catalog reports no value.
type ColumnDescriptor struct {
	Name      string `json:"name"`
	DataType  string `json:"data_type"`
	Nullable  bool   `json:"nullable"`
	MaxLength *int64 `json:"max_length,omitempty"`
	Precision *int64 `json:"numeric_precision,omitempty"`
	Scale     *int64 `json:"numeric_scale,omitempty"`
}

// TableAnalysis summarizes one table's physical profile. Sizes are in MB.
// Backends without index-size separation report TableSizeMB close to
// TotalSizeMB and IndexSizeMB zero; LastAnalyzed is nil where the backend
// does not track it.
type TableAnalysis struct {
	RowCount     int64      `json:"row_count"`
	TotalSizeMB  float64    `json:"total_size_mb"`
	TableSizeMB  float64    `json:"table_size_mb"`
	IndexSizeMB  float64    `json:"index_size_mb"`
	AvgRowBytes  *float64   `json:"avg_row_bytes,omitempty"`
	LastAnalyzed *time.Time `json:"last_analyzed,omitempty"`
	ColumnCount  int        `json:"column_count"`
}

// NumericMetrics are computed for numeric columns. All fields are nil when
// the table is empty or the column all-NULL. StdDev is nil with fewer than
// two non-null values.
type NumericMetrics struct {
	Min    *float64 `json:"min,omitempty"`
	Max    *float64 `json:"max,omitempty"`
	Avg    *float64 `json:"avg,omitempty"`
	StdDev *float64 `json:"stddev,omitempty"`
	Median *float64 `json:"median,omitempty"`
}

// TextMetrics are computed for character columns.
type TextMetrics struct {
	MinLength *int64   `json:"min_length,omitempty"`
	MaxLength *int64   `json:"max_length,omitempty"`
	AvgLength *float64 `json:"avg_length,omitempty"`
}

// TemporalMetrics are computed for date and timestamp columns.
type TemporalMetrics struct {
	MinDate *time.Time `json:"min_date,omitempty"`
	MaxDate *time.Time `json:"max_date,omitempty"`
}

// ColumnDetails carries per-column statistics. DistinctCount excludes NULLs
// on every backend (the COUNT(DISTINCT x) convention). UniqueCount is the
// number of values appearing exactly once. Exactly one of the metrics
// pointers is set, matching the column's type category; all three are nil
// for categories with no metrics (json, binary, arrays).
type ColumnDetails struct {
	DataType      string           `json:"data_type"`
	DistinctCount int64            `json:"distinct_count"`
	NullCount     int64            `json:"null_count"`
	UniqueCount   int64            `json:"unique_count"`
	Numeric       *NumericMetrics  `json:"numeric,omitempty"`
	Text          *TextMetrics     `json:"text,omitempty"`
	Temporal      *TemporalMetrics `json:"temporal,omitempty"`
}

// ForeignKeyRef is the referenced side of a foreign key constraint.
type ForeignKeyRef struct {
	Table  string `json:"table"`
	Column string `json:"column"`
}

// ValueRange is the numeric span of a column; both nil on an empty table.
type ValueRange struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// LengthRange is the character-length span of a column; both nil on an
// empty table.
type LengthRange struct {
	Min *int64 `json:"min,omitempty"`
	Max *int64 `json:"max,omitempty"`
}

// ColumnInfo describes a result column with its backend type name.
type ColumnInfo struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// ResultSet holds bounded query results in a serializable shape.
type ResultSet struct {
	Columns  []ColumnInfo     `json:"columns"`
	Rows     []map[string]any `json:"rows"`
	RowCount int              `json:"row_count"`
}
