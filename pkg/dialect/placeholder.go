package dialect

import (
	"fmt"
	"regexp"
	"strconv"
)

// placeholderRegex matches PostgreSQL-style positional parameters: $ followed
// by one or more digits.
var placeholderRegex = regexp.MustCompile(`\$(\d+)`)

// ConvertPlaceholders rewrites PostgreSQL-style positional parameters
// ($1, $2, ...) to the dialect's placeholder syntax: ? for MySQL, @p1 for
// SQL Server, :1 for Oracle. Query builders in this package always emit the
// canonical $N form; connectors convert once before execution and pass
// arguments positionally.
func ConvertPlaceholders(k Kind, query string) string {
	switch k {
	case Postgres:
		return query
	case MySQL:
		return placeholderRegex.ReplaceAllString(query, "?")
	case MSSQL:
		return placeholderRegex.ReplaceAllStringFunc(query, func(match string) string {
			num, err := strconv.Atoi(match[1:])
			if err != nil {
				return match
			}
			return fmt.Sprintf("@p%d", num)
		})
	case Oracle:
		return placeholderRegex.ReplaceAllStringFunc(query, func(match string) string {
			num, err := strconv.Atoi(match[1:])
			if err != nil {
				return match
			}
			return fmt.Sprintf(":%d", num)
		})
	default:
		return query
	}
}

// argList accumulates bind arguments while a builder writes canonical $N
// placeholders. MySQL's ? placeholders are purely positional, so builders
// must emit each parameter exactly once, in order.
type argList struct {
	vals []any
}

// next appends a value and returns the canonical placeholder for it.
func (a *argList) next(v any) string {
	a.vals = append(a.vals, v)
	return fmt.Sprintf("$%d", len(a.vals))
}

func (a *argList) args() []any {
	return a.vals
}
