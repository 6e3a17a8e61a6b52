package dialect

import "testing"

func TestConvertPlaceholders(t *testing.T) {
	query := "SELECT * FROM t WHERE a = $1 AND b > $2 AND c IN ($3, $4)"

	tests := []struct {
		name string
		kind Kind
		want string
	}{
		{
			name: "postgres unchanged",
			kind: Postgres,
			want: "SELECT * FROM t WHERE a = $1 AND b > $2 AND c IN ($3, $4)",
		},
		{
			name: "mysql question marks",
			kind: MySQL,
			want: "SELECT * FROM t WHERE a = ? AND b > ? AND c IN (?, ?)",
		},
		{
			name: "mssql named",
			kind: MSSQL,
			want: "SELECT * FROM t WHERE a = @p1 AND b > @p2 AND c IN (@p3, @p4)",
		},
		{
			name: "oracle colon positional",
			kind: Oracle,
			want: "SELECT * FROM t WHERE a = :1 AND b > :2 AND c IN (:3, :4)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ConvertPlaceholders(tt.kind, query); got != tt.want {
				t.Errorf("ConvertPlaceholders(%s)\n got: %s\nwant: %s", tt.kind, got, tt.want)
			}
		})
	}
}

func TestConvertPlaceholdersMultiDigit(t *testing.T) {
	query := "SELECT * FROM t WHERE a IN ($9, $10, $11)"
	if got := ConvertPlaceholders(MSSQL, query); got != "SELECT * FROM t WHERE a IN (@p9, @p10, @p11)" {
		t.Errorf("multi-digit conversion got %s", got)
	}
}

func TestConvertPlaceholdersNoParams(t *testing.T) {
	query := "SELECT COUNT(*) FROM t WHERE c IS NULL"
	for _, k := range Kinds() {
		if got := ConvertPlaceholders(k, query); got != query {
			t.Errorf("%s: query without placeholders changed: %s", k, got)
		}
	}
}

func TestArgListOrdering(t *testing.T) {
	args := &argList{}
	if ph := args.next("a"); ph != "$1" {
		t.Errorf("first placeholder = %s, want $1", ph)
	}
	if ph := args.next(42); ph != "$2" {
		t.Errorf("second placeholder = %s, want $2", ph)
	}
	got := args.args()
	if len(got) != 2 || got[0] != "a" || got[1] != 42 {
		t.Errorf("args() = %v", got)
	}
}
