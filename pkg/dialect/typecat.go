package dialect

import "strings"

// TypeCategory is the normalized bucket a column's declared type falls into.
// Check applicability is decided on categories, never on raw type names, so
// the catalog does not need to know that Oracle spells text VARCHAR2 and
// PostgreSQL spells it "character varying".
type TypeCategory string

const (
	TypeNumeric  TypeCategory = "numeric"
	TypeText     TypeCategory = "text"
	TypeTemporal TypeCategory = "temporal"
	TypeOther    TypeCategory = "other"
)

var numericTypes = map[string]bool{
	"tinyint": true, "smallint": true, "mediumint": true, "int": true,
	"integer": true, "bigint": true, "decimal": true, "numeric": true,
	"float": true, "double": true, "double precision": true, "real": true,
	"number": true, "money": true, "smallmoney": true, "binary_float": true,
	"binary_double": true, "serial": true, "bigserial": true, "smallserial": true,
}

var textTypes = map[string]bool{
	"char": true, "nchar": true, "varchar": true, "nvarchar": true,
	"varchar2": true, "nvarchar2": true, "character": true,
	"character varying": true, "text": true, "ntext": true, "tinytext": true,
	"mediumtext": true, "longtext": true, "clob": true, "nclob": true,
	"citext": true, "enum": true, "set": true, "long": true,
}

var temporalTypes = map[string]bool{
	"date": true, "datetime": true, "datetime2": true, "smalldatetime": true,
	"timestamp": true, "timestamp without time zone": true,
	"timestamp with time zone": true, "timestamp with local time zone": true,
	"datetimeoffset": true,
}

// Classify maps a backend-reported data type name onto a TypeCategory.
// Precision suffixes are stripped first, so NUMBER(10,2), varchar(255) and
// Oracle's TIMESTAMP(6) WITH TIME ZONE all classify correctly. Unsigned
// markers from MySQL are dropped the same way.
func Classify(dataType string) TypeCategory {
	t := strings.ToLower(strings.TrimSpace(dataType))
	t = stripPrecision(t)
	t = strings.TrimSuffix(t, " unsigned")
	t = strings.TrimSuffix(t, " zerofill")

	switch {
	case numericTypes[t]:
		return TypeNumeric
	case textTypes[t]:
		return TypeText
	case temporalTypes[t]:
		return TypeTemporal
	default:
		return TypeOther
	}
}

// stripPrecision removes a single parenthesized precision/scale group while
// keeping any trailing qualifier: "timestamp(6) with time zone" becomes
// "timestamp with time zone".
func stripPrecision(t string) string {
	open := strings.IndexByte(t, '(')
	if open < 0 {
		return t
	}
	end := strings.IndexByte(t[open:], ')')
	if end < 0 {
		return strings.TrimSpace(t[:open])
	}
	return strings.TrimSpace(t[:open] + t[open+end+1:])
}
