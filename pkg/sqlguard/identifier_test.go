package sqlguard

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateIdentifier(t *testing.T) {
	tests := []struct {
		name       string
		identifier string
		wantErr    error
	}{
		// Names real catalogs produce
		{"simple lowercase", "customers", nil},
		{"snake case", "order_items", nil},
		{"uppercase", "EMPLOYEES", nil},
		{"mixed case", "OrderDetails", nil},
		{"with digits", "stage2_load", nil},
		{"with space", "Sales Report", nil},
		{"with dollar", "v$session", nil},
		{"with hash", "#temp_load", nil},
		{"turkish letters", "musteri_adi", nil},
		{"unicode letters", "müşteri", nil},
		{"embedded quote", `weird"name`, nil},
		{"single comment dash", "pre-release", nil},

		// Rejected
		{"empty", "", ErrEmptyIdentifier},
		{"too long", strings.Repeat("a", 129), ErrIdentifierTooLong},
		{"semicolon", "users; DROP TABLE users", ErrUnsafeIdentifier},
		{"line comment", "users --", ErrUnsafeIdentifier},
		{"block comment open", "users /* hide", ErrUnsafeIdentifier},
		{"block comment close", "users */", ErrUnsafeIdentifier},
		{"newline", "users\nWHERE 1=1", ErrUnsafeIdentifier},
		{"tab", "users\tx", ErrUnsafeIdentifier},
		{"nul byte", "users\x00", ErrUnsafeIdentifier},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateIdentifier(tt.identifier)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateIdentifier(%q) = %v, want nil", tt.identifier, err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateIdentifier(%q) = %v, want %v", tt.identifier, err, tt.wantErr)
			}
		})
	}
}

func TestValidateIdentifier_MaxLengthBoundary(t *testing.T) {
	exact := strings.Repeat("a", 128)
	if err := ValidateIdentifier(exact); err != nil {
		t.Errorf("expected 128-byte identifier to pass, got %v", err)
	}
}

func TestValidateIdentifiers(t *testing.T) {
	if err := ValidateIdentifiers("public", "orders", "order_id"); err != nil {
		t.Errorf("expected all-valid set to pass, got %v", err)
	}

	err := ValidateIdentifiers("public", "orders; --", "order_id")
	if err == nil {
		t.Fatal("expected error for unsafe middle identifier")
	}
	if !errors.Is(err, ErrUnsafeIdentifier) {
		t.Errorf("expected ErrUnsafeIdentifier, got %v", err)
	}
}
