//go:build integration

package testhelpers

import (
	"context"
	"database/sql"
	"testing"
)

func TestSources_FixtureSeeded(t *testing.T) {
	sources := []struct {
		name string
		get  func(*testing.T) *Source
	}{
		{"postgres", PostgresSource},
		{"mysql", MySQLSource},
		{"mssql", MSSQLSource},
	}

	for _, tt := range sources {
		t.Run(tt.name, func(t *testing.T) {
			src := tt.get(t)

			db, err := sql.Open(src.Driver, src.ConnStr)
			if err != nil {
				t.Fatalf("failed to open %s: %v", tt.name, err)
			}
			defer db.Close()

			ctx := context.Background()

			var rows int
			err = db.QueryRowContext(ctx, "SELECT COUNT(*) FROM dq_people").Scan(&rows)
			if err != nil {
				t.Fatalf("failed to count fixture rows: %v", err)
			}
			if rows != 10 {
				t.Errorf("expected 10 fixture rows, got %d", rows)
			}

			var nullEmails int
			err = db.QueryRowContext(ctx, "SELECT COUNT(*) FROM dq_people WHERE email IS NULL").Scan(&nullEmails)
			if err != nil {
				t.Fatalf("failed to count NULL emails: %v", err)
			}
			if nullEmails != 2 {
				t.Errorf("expected 2 NULL emails, got %d", nullEmails)
			}
		})
	}
}
