package dialect

import (
	"fmt"
	"strings"
)

// DateFormat describes one recognized free-text date layout with the
// per-dialect expressions needed to match and parse it. The same table
// drives datetime_check, date_format, and the text-column format
// classification query, so the four backends always agree on what
// "DD.MM.YYYY" means.
type DateFormat struct {
	// Name doubles as the TO_DATE format string on PostgreSQL and Oracle.
	Name string

	// Regex is an anchored POSIX pattern for ~ / REGEXP / REGEXP_LIKE.
	Regex string

	// LikePattern is the SQL Server LIKE equivalent. LIKE matches the whole
	// string, so the digit classes are anchored by construction.
	LikePattern string

	// MSSQLStyle is the CONVERT/TRY_CONVERT style code for the layout.
	MSSQLStyle int

	// MySQLFormat is the STR_TO_DATE format string.
	MySQLFormat string
}

// dateFormats is ordered by classification priority: the first matching
// pattern wins. DD.MM.YYYY outranks the slash layouts because it is
// unambiguous, and MM/DD/YYYY is tried before DD/MM/YYYY to mirror the
// source system's preference.
var dateFormats = []DateFormat{
	{
		Name:        "DD.MM.YYYY",
		Regex:       `^[0-3][0-9]\.[0-1][0-9]\.[1-2][0-9]{3}$`,
		LikePattern: "[0-3][0-9].[0-1][0-9].[1-2][0-9][0-9][0-9]",
		MSSQLStyle:  104,
		MySQLFormat: "%d.%m.%Y",
	},
	{
		Name:        "YYYY-MM-DD",
		Regex:       `^[1-2][0-9]{3}-[0-1][0-9]-[0-3][0-9]$`,
		LikePattern: "[1-2][0-9][0-9][0-9]-[0-1][0-9]-[0-3][0-9]",
		MSSQLStyle:  120,
		MySQLFormat: "%Y-%m-%d",
	},
	{
		Name:        "MM/DD/YYYY",
		Regex:       `^[0-1][0-9]/[0-3][0-9]/[1-2][0-9]{3}$`,
		LikePattern: "[0-1][0-9]/[0-3][0-9]/[1-2][0-9][0-9][0-9]",
		MSSQLStyle:  101,
		MySQLFormat: "%m/%d/%Y",
	},
	{
		Name:        "DD/MM/YYYY",
		Regex:       `^[0-3][0-9]/[0-1][0-9]/[1-2][0-9]{3}$`,
		LikePattern: "[0-3][0-9]/[0-1][0-9]/[1-2][0-9][0-9][0-9]",
		MSSQLStyle:  103,
		MySQLFormat: "%d/%m/%Y",
	},
	{
		Name:        "YYYY.MM.DD",
		Regex:       `^[1-2][0-9]{3}\.[0-1][0-9]\.[0-3][0-9]$`,
		LikePattern: "[1-2][0-9][0-9][0-9].[0-1][0-9].[0-3][0-9]",
		MSSQLStyle:  102,
		MySQLFormat: "%Y.%m.%d",
	},
}

// DateFormats returns the recognized formats in classification order.
func DateFormats() []DateFormat {
	out := make([]DateFormat, len(dateFormats))
	copy(out, dateFormats)
	return out
}

// DateFormatNames returns the format names in classification order.
func DateFormatNames() []string {
	names := make([]string, len(dateFormats))
	for i, f := range dateFormats {
		names[i] = f.Name
	}
	return names
}

// FormatByName looks up a date format by its name.
func FormatByName(name string) (DateFormat, bool) {
	for _, f := range dateFormats {
		if f.Name == name {
			return f, true
		}
	}
	return DateFormat{}, false
}

// matchExpr renders the dialect expression that is true when expr conforms
// to the format's shape.
func (f DateFormat) matchExpr(k Kind, expr string) string {
	switch k {
	case MySQL:
		return fmt.Sprintf("%s REGEXP '%s'", expr, f.Regex)
	case MSSQL:
		return fmt.Sprintf("%s LIKE '%s'", expr, f.LikePattern)
	case Oracle:
		return fmt.Sprintf("REGEXP_LIKE(%s, '%s')", expr, f.Regex)
	default:
		return fmt.Sprintf("%s ~ '%s'", expr, f.Regex)
	}
}

// parseExpr renders the dialect expression converting expr to a date using
// this format. SQL Server and MySQL yield NULL for unparseable input;
// PostgreSQL and Oracle raise, which is why classification only attempts a
// parse behind a shape match.
func (f DateFormat) parseExpr(k Kind, expr string) string {
	switch k {
	case MySQL:
		return fmt.Sprintf("STR_TO_DATE(%s, '%s')", expr, f.MySQLFormat)
	case MSSQL:
		return fmt.Sprintf("TRY_CONVERT(DATE, %s, %d)", expr, f.MSSQLStyle)
	default:
		return fmt.Sprintf("TO_DATE(%s, '%s')", expr, f.Name)
	}
}

// TextFormatsQuery builds the free-text date-format classification query:
// each non-null value is returned alongside the first format whose shape it
// matches (or 'Unknown') and the parsed date under that format. The format
// and parse CASE chains walk the shared table in priority order.
func TextFormatsQuery(k Kind, schema, table, column string, limit int) *Query {
	qt := QualifiedTable(k, schema, table)
	qc := QuoteIdentifier(k, column)

	var detected strings.Builder
	detected.WriteString("CASE")
	for _, f := range dateFormats {
		fmt.Fprintf(&detected, " WHEN %s THEN '%s'", f.matchExpr(k, qc), f.Name)
	}
	detected.WriteString(" ELSE 'Unknown' END")

	parsed := make([]string, 0, len(dateFormats))
	for _, f := range dateFormats {
		parsed = append(parsed, fmt.Sprintf("CASE WHEN %s THEN %s END", f.matchExpr(k, qc), f.parseExpr(k, qc)))
	}

	prefix, suffix := LimitClause(k, limit)
	sql := fmt.Sprintf(
		"SELECT %s%s, %s AS detected_format, COALESCE(%s) AS parsed_date FROM %s WHERE %s IS NOT NULL%s",
		prefix, qc, detected.String(), strings.Join(parsed, ", "), qt, qc, suffix,
	)
	return &Query{SQL: sql}
}
