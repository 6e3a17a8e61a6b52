package dialect

import (
	"strings"
	"testing"
)

func TestFormatByName(t *testing.T) {
	f, ok := FormatByName("DD.MM.YYYY")
	if !ok {
		t.Fatal("expected DD.MM.YYYY to be known")
	}
	if f.MSSQLStyle != 104 || f.MySQLFormat != "%d.%m.%Y" {
		t.Errorf("unexpected format: %+v", f)
	}

	if _, ok := FormatByName("YYYYMMDD"); ok {
		t.Error("expected YYYYMMDD to be unknown")
	}
}

func TestDateFormatNamesOrder(t *testing.T) {
	want := []string{"DD.MM.YYYY", "YYYY-MM-DD", "MM/DD/YYYY", "DD/MM/YYYY", "YYYY.MM.DD"}
	got := DateFormatNames()
	if len(got) != len(want) {
		t.Fatalf("got %d names, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: got %s, want %s", i, got[i], want[i])
		}
	}
}

func TestTextFormatsQuery(t *testing.T) {
	t.Run("postgres", func(t *testing.T) {
		q := TextFormatsQuery(Postgres, "public", "staging", "raw_date", 100)
		for _, fragment := range []string{
			`SELECT "raw_date", CASE WHEN "raw_date" ~ '^[0-3][0-9]\.[0-1][0-9]\.[1-2][0-9]{3}$' THEN 'DD.MM.YYYY'`,
			` ELSE 'Unknown' END AS detected_format`,
			`COALESCE(CASE WHEN`,
			`TO_DATE("raw_date", 'DD.MM.YYYY')`,
			`AS parsed_date`,
			`WHERE "raw_date" IS NOT NULL LIMIT 100`,
		} {
			if !strings.Contains(q.SQL, fragment) {
				t.Errorf("missing fragment %q in: %s", fragment, q.SQL)
			}
		}
	})

	t.Run("mssql", func(t *testing.T) {
		q := TextFormatsQuery(MSSQL, "dbo", "staging", "raw_date", 50)
		for _, fragment := range []string{
			"SELECT TOP (50) [raw_date]",
			"[raw_date] LIKE '[0-3][0-9].[0-1][0-9].[1-2][0-9][0-9][0-9]'",
			"TRY_CONVERT(DATE, [raw_date], 104)",
			"ELSE 'Unknown' END AS detected_format",
		} {
			if !strings.Contains(q.SQL, fragment) {
				t.Errorf("missing fragment %q in: %s", fragment, q.SQL)
			}
		}
	})

	t.Run("mysql", func(t *testing.T) {
		q := TextFormatsQuery(MySQL, "shop", "staging", "raw_date", 100)
		for _, fragment := range []string{
			"`raw_date` REGEXP '^[0-3][0-9]\\.[0-1][0-9]\\.[1-2][0-9]{3}$'",
			"STR_TO_DATE(`raw_date`, '%d.%m.%Y')",
			"WHERE `raw_date` IS NOT NULL LIMIT 100",
		} {
			if !strings.Contains(q.SQL, fragment) {
				t.Errorf("missing fragment %q in: %s", fragment, q.SQL)
			}
		}
	})

	t.Run("oracle", func(t *testing.T) {
		q := TextFormatsQuery(Oracle, "HR", "STAGING", "RAW_DATE", 25)
		for _, fragment := range []string{
			`REGEXP_LIKE("RAW_DATE", '^[1-2][0-9]{3}-[0-1][0-9]-[0-3][0-9]$')`,
			`TO_DATE("RAW_DATE", 'YYYY-MM-DD')`,
			` FETCH FIRST 25 ROWS ONLY`,
		} {
			if !strings.Contains(q.SQL, fragment) {
				t.Errorf("missing fragment %q in: %s", fragment, q.SQL)
			}
		}
	})
}
