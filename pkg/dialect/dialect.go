// Package dialect captures the SQL surface differences between the four
// supported backend families: identifier quoting, placeholder syntax, row
// limiting, type classification, and the per-check violation predicates.
// Connectors hand query construction to this package so that the SQL for a
// given check differs between backends only where the syntax genuinely
// differs.
package dialect

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownKind = errors.New("unknown backend kind")
)

// Kind identifies a backend dialect family.
type Kind string

const (
	Postgres Kind = "postgres"
	MySQL    Kind = "mysql"
	MSSQL    Kind = "mssql"
	Oracle   Kind = "oracle"
)

// Kinds returns all supported dialect kinds in canonical order.
func Kinds() []Kind {
	return []Kind{Postgres, MySQL, MSSQL, Oracle}
}

// ParseKind normalizes a user-supplied backend name. Common aliases
// (postgresql, pg, sqlserver, mariadb) map onto the canonical kinds.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "postgres", "postgresql", "pg", "pgx":
		return Postgres, nil
	case "mysql", "mariadb":
		return MySQL, nil
	case "mssql", "sqlserver", "sql-server", "azuresql":
		return MSSQL, nil
	case "oracle", "ora", "oracledb":
		return Oracle, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

func (k Kind) String() string {
	return string(k)
}

// DefaultPort returns the conventional listen port for the backend.
func (k Kind) DefaultPort() int {
	switch k {
	case Postgres:
		return 5432
	case MySQL:
		return 3306
	case MSSQL:
		return 1433
	case Oracle:
		return 1521
	default:
		return 0
	}
}

// LivenessQuery returns the cheapest statement that proves the session is
// usable. Oracle has no FROM-less SELECT, so it probes via DUAL.
func (k Kind) LivenessQuery() string {
	if k == Oracle {
		return "SELECT 1 FROM DUAL"
	}
	return "SELECT 1"
}

// lengthFunc returns the character-length function for the dialect.
func lengthFunc(k Kind) string {
	switch k {
	case MSSQL:
		return "LEN"
	case MySQL:
		return "CHAR_LENGTH"
	default:
		return "LENGTH"
	}
}
