package dialect

import "fmt"

// QuoteIdentifier wraps an identifier in the dialect's quoting characters,
// doubling any embedded quote character. Names are quoted exactly as given:
// callers are expected to pass identifiers in the casing the backend catalog
// reported them, which pkg/metadata resolves before any SQL is built.
func QuoteIdentifier(k Kind, name string) string {
	switch k {
	case MySQL:
		return "`" + doubleChar(name, '`') + "`"
	case MSSQL:
		return "[" + doubleChar(name, ']') + "]"
	default:
		// PostgreSQL and Oracle share double-quote quoting.
		return `"` + doubleChar(name, '"') + `"`
	}
}

// QualifiedTable renders schema.table with both parts quoted. An empty
// schema yields the bare table name, which MySQL uses when the connection
// already selected a database.
func QualifiedTable(k Kind, schema, table string) string {
	if schema == "" {
		return QuoteIdentifier(k, table)
	}
	return fmt.Sprintf("%s.%s", QuoteIdentifier(k, schema), QuoteIdentifier(k, table))
}

func doubleChar(s string, c byte) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == c {
			out = append(out, c, c)
			continue
		}
		out = append(out, s[i])
	}
	return string(out)
}
