// Package quality holds the data-quality check catalog and the executor
// that runs selected checks against a table. The catalog is a static
// registry loaded at init and never mutated; the executor turns each
// (column, check, params) selection into connector calls and aggregates the
// verdicts into an immutable RunReport.
package quality

import (
	"github.com/veriqa-inc/veriqa-engine/pkg/connector"
	"github.com/veriqa-inc/veriqa-engine/pkg/dialect"
)

// Definition describes one check in the catalog: identity, display strings,
// and the column type categories it applies to. A nil ApplicableTo means
// the check applies to every column.
type Definition struct {
	ID           dialect.CheckID        `json:"id"`
	Name         string                 `json:"name"`
	Description  string                 `json:"description"`
	ApplicableTo []dialect.TypeCategory `json:"applicable_to,omitempty"`
}

// AppliesTo reports whether the check can run against a column of the
// given type category.
func (d Definition) AppliesTo(cat dialect.TypeCategory) bool {
	if d.ApplicableTo == nil {
		return true
	}
	for _, c := range d.ApplicableTo {
		if c == cat {
			return true
		}
	}
	return false
}

var (
	numeric  = []dialect.TypeCategory{dialect.TypeNumeric}
	text     = []dialect.TypeCategory{dialect.TypeText}
	temporal = []dialect.TypeCategory{dialect.TypeTemporal}

	// datetime_check also accepts text columns: dates parked in varchar
	// columns are the main thing the format checks exist for.
	textOrTemporal = []dialect.TypeCategory{dialect.TypeText, dialect.TypeTemporal}
)

// catalog lists every check in display order. IDs are stable; they appear
// verbatim in CLI arguments, suite files, and exported reports.
var catalog = []Definition{
	{dialect.CheckNull, "Null Value Check", "Flags rows where the column is NULL.", nil},
	{dialect.CheckDistinct, "Distinct Value Check", "Flags non-null values that occur more than once.", nil},
	{dialect.CheckValueEquality, "Value Equality Check", "Flags values different from an expected constant.", nil},
	{dialect.CheckCorrelation, "Column Correlation Check", "Flags rows where two columns break an ordering rule, e.g. start_date <= end_date.", nil},

	{dialect.CheckRange, "Range Check", "Flags numeric values outside a min/max range.", numeric},
	{dialect.CheckPositiveValue, "Positive Value Check", "Flags negative values, or non-positive values in strict mode.", numeric},
	{dialect.CheckIntegerType, "Integer Type Check", "Flags decimal values that are not whole numbers.", numeric},
	{dialect.CheckZScoreOutlier, "Z-Score Outlier Detection", "Flags values more than a threshold of standard deviations from the mean.", numeric},
	{dialect.CheckEngNumericFmt, "ENG Numeric Format", "Flags numeric renderings using a comma instead of a dot as decimal separator.", numeric},
	{dialect.CheckTrNumericFmt, "TR Numeric Format", "Flags numeric renderings using a dot instead of a comma as decimal separator.", numeric},

	{dialect.CheckLength, "Length Check", "Flags strings longer than a maximum character length.", text},
	{dialect.CheckLengthBetween, "Length Between Check", "Flags strings whose character length falls outside a min/max range.", text},
	{dialect.CheckMustContainAt, "Must Contain @", "Flags values that do not contain an @ character.", text},
	{dialect.CheckNoNumbers, "No Numbers Check", "Flags values containing digit characters.", text},
	{dialect.CheckNoLetters, "No Letters Check", "Flags values containing letter characters.", text},
	{dialect.CheckAllowedValues, "Allowed Values Check", "Flags values outside a fixed allow-list.", text},
	{dialect.CheckCaseConsistency, "Case Consistency Check", "Flags values that are not uniformly upper, lower, or title case.", text},
	{dialect.CheckCardinality, "Category Cardinality Check", "Fails when the number of distinct values exceeds a threshold.", text},
	{dialect.CheckNoSpecialChars, "No Special Characters", "Flags values containing characters outside an allowed set.", text},
	{dialect.CheckEmailFormat, "Email Format Check", "Flags values that are not valid email addresses.", text},
	{dialect.CheckRegexPattern, "Regex Pattern Match", "Flags values not matching a custom pattern.", text},
	{dialect.CheckTCKN, "TCKN Checksum", "Flags values failing the 11-digit Turkish national ID check-digit algorithm.", text},
	{dialect.CheckDateFormat, "Date Format Check", "Flags text values whose shape does not match a recognized date layout.", text},

	{dialect.CheckDatetime, "Datetime Format Check", "Flags values that do not parse as a date in the given layout.", textOrTemporal},
	{dialect.CheckFutureDate, "Future Date Check", "Flags dates in the future, or dates not in the future when inverted.", temporal},
	{dialect.CheckDateRange, "Date Range Check", "Flags dates outside a start/end window.", temporal},
}

var catalogByID = func() map[dialect.CheckID]Definition {
	m := make(map[dialect.CheckID]Definition, len(catalog))
	for _, d := range catalog {
		m[d.ID] = d
	}
	return m
}()

// Catalog returns every check definition in display order.
func Catalog() []Definition {
	out := make([]Definition, len(catalog))
	copy(out, catalog)
	return out
}

// ByID looks up a check definition.
func ByID(id dialect.CheckID) (Definition, bool) {
	d, ok := catalogByID[id]
	return d, ok
}

// IDs returns every check ID in display order.
func IDs() []string {
	out := make([]string, len(catalog))
	for i, d := range catalog {
		out[i] = string(d.ID)
	}
	return out
}

// AvailableChecks filters the catalog to checks applicable to the column's
// type category. Pure function over the static registry.
func AvailableChecks(col connector.ColumnDescriptor) []Definition {
	cat := dialect.Classify(col.DataType)
	var out []Definition
	for _, d := range catalog {
		if d.AppliesTo(cat) {
			out = append(out, d)
		}
	}
	return out
}
