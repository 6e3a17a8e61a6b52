// Package sqlguard screens identifiers and parameter values before they
// reach a SQL builder. Identifiers are expected to come from catalog
// listings; the checks here reject anything that could not have.
package sqlguard

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// maxIdentifierLength is the longest identifier any supported backend
// accepts (Oracle and SQL Server allow 128; PostgreSQL 63; MySQL 64).
const maxIdentifierLength = 128

var (
	// ErrEmptyIdentifier indicates an empty schema, table, or column name.
	ErrEmptyIdentifier = errors.New("identifier is empty")

	// ErrIdentifierTooLong indicates an identifier longer than any backend allows.
	ErrIdentifierTooLong = errors.New("identifier exceeds maximum length")

	// ErrUnsafeIdentifier indicates an identifier containing characters that
	// never appear in catalog-listed names.
	ErrUnsafeIdentifier = errors.New("identifier contains unsafe characters")
)

// ValidateIdentifier checks a single schema, table, or column name before it
// is quoted into SQL text. Names may contain letters, digits, spaces, and
// punctuation that real catalogs produce; control characters, semicolons,
// and comment tokens are rejected.
func ValidateIdentifier(name string) error {
	if name == "" {
		return ErrEmptyIdentifier
	}
	if len(name) > maxIdentifierLength {
		return fmt.Errorf("%w: %d bytes", ErrIdentifierTooLong, len(name))
	}
	if strings.Contains(name, "--") || strings.Contains(name, "/*") || strings.Contains(name, "*/") {
		return fmt.Errorf("%w: comment token in %q", ErrUnsafeIdentifier, name)
	}
	for _, r := range name {
		if r == ';' || r == 0 || unicode.IsControl(r) {
			return fmt.Errorf("%w: %q", ErrUnsafeIdentifier, name)
		}
	}
	return nil
}

// ValidateIdentifiers checks every name in order and returns the first failure.
func ValidateIdentifiers(names ...string) error {
	for _, name := range names {
		if err := ValidateIdentifier(name); err != nil {
			return err
		}
	}
	return nil
}
