package dialect

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		dataType string
		want     TypeCategory
	}{
		// PostgreSQL information_schema spellings.
		{"integer", TypeNumeric},
		{"bigint", TypeNumeric},
		{"numeric", TypeNumeric},
		{"double precision", TypeNumeric},
		{"character varying", TypeText},
		{"text", TypeText},
		{"timestamp without time zone", TypeTemporal},
		{"timestamp with time zone", TypeTemporal},
		{"date", TypeTemporal},
		{"uuid", TypeOther},
		{"boolean", TypeOther},
		{"jsonb", TypeOther},

		// MySQL.
		{"int", TypeNumeric},
		{"int unsigned", TypeNumeric},
		{"mediumint", TypeNumeric},
		{"decimal", TypeNumeric},
		{"varchar(255)", TypeText},
		{"longtext", TypeText},
		{"enum", TypeText},
		{"datetime", TypeTemporal},

		// SQL Server.
		{"nvarchar", TypeText},
		{"ntext", TypeText},
		{"datetime2", TypeTemporal},
		{"smalldatetime", TypeTemporal},
		{"money", TypeNumeric},
		{"bit", TypeOther},
		{"uniqueidentifier", TypeOther},

		// Oracle, including precision suffixes as reported by the catalog.
		{"NUMBER", TypeNumeric},
		{"NUMBER(10,2)", TypeNumeric},
		{"VARCHAR2", TypeText},
		{"VARCHAR2(255)", TypeText},
		{"NCLOB", TypeText},
		{"BINARY_DOUBLE", TypeNumeric},
		{"TIMESTAMP(6)", TypeTemporal},
		{"TIMESTAMP(6) WITH TIME ZONE", TypeTemporal},
		{"DATE", TypeTemporal},
		{"BLOB", TypeOther},

		// Whitespace tolerance.
		{"  varchar  ", TypeText},
		{"", TypeOther},
	}

	for _, tt := range tests {
		t.Run(tt.dataType, func(t *testing.T) {
			if got := Classify(tt.dataType); got != tt.want {
				t.Errorf("Classify(%q) = %s, want %s", tt.dataType, got, tt.want)
			}
		})
	}
}
