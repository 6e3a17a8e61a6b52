package dialect

import "fmt"

// LimitClause returns the pieces needed to cap a SELECT at n rows: a prefix
// inserted directly after the SELECT keyword (SQL Server's TOP) and a suffix
// appended after the WHERE clause (LIMIT / FETCH FIRST). Exactly one of the
// two is non-empty. n is formatted as an integer literal; it never comes
// from user-supplied text.
func LimitClause(k Kind, n int) (prefix, suffix string) {
	switch k {
	case MSSQL:
		return fmt.Sprintf("TOP (%d) ", n), ""
	case Oracle:
		return "", fmt.Sprintf(" FETCH FIRST %d ROWS ONLY", n)
	default:
		return "", fmt.Sprintf(" LIMIT %d", n)
	}
}
