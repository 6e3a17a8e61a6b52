package dialect

import (
	"errors"
	"testing"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Kind
		wantErr bool
	}{
		{name: "canonical postgres", input: "postgres", want: Postgres},
		{name: "postgresql alias", input: "postgresql", want: Postgres},
		{name: "pg alias", input: "pg", want: Postgres},
		{name: "mysql", input: "mysql", want: MySQL},
		{name: "mariadb alias", input: "mariadb", want: MySQL},
		{name: "mssql", input: "mssql", want: MSSQL},
		{name: "sqlserver alias", input: "sqlserver", want: MSSQL},
		{name: "oracle", input: "oracle", want: Oracle},
		{name: "case insensitive", input: "PostgreSQL", want: Postgres},
		{name: "surrounding whitespace", input: "  mysql  ", want: MySQL},
		{name: "unknown backend", input: "mongodb", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseKind(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseKind(%q) expected error, got %q", tt.input, got)
				}
				if !errors.Is(err, ErrUnknownKind) {
					t.Errorf("ParseKind(%q) error = %v, want ErrUnknownKind", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseKind(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseKind(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestDefaultPort(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{Postgres, 5432},
		{MySQL, 3306},
		{MSSQL, 1433},
		{Oracle, 1521},
	}
	for _, tt := range tests {
		if got := tt.kind.DefaultPort(); got != tt.want {
			t.Errorf("%s.DefaultPort() = %d, want %d", tt.kind, got, tt.want)
		}
	}
}

func TestLivenessQuery(t *testing.T) {
	if got := Postgres.LivenessQuery(); got != "SELECT 1" {
		t.Errorf("Postgres.LivenessQuery() = %q", got)
	}
	if got := Oracle.LivenessQuery(); got != "SELECT 1 FROM DUAL" {
		t.Errorf("Oracle.LivenessQuery() = %q", got)
	}
}

func TestKindsOrder(t *testing.T) {
	kinds := Kinds()
	want := []Kind{Postgres, MySQL, MSSQL, Oracle}
	if len(kinds) != len(want) {
		t.Fatalf("Kinds() returned %d kinds, want %d", len(kinds), len(want))
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("Kinds()[%d] = %q, want %q", i, kinds[i], want[i])
		}
	}
}
