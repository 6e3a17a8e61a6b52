package quality

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veriqa-inc/veriqa-engine/pkg/connector"
	"github.com/veriqa-inc/veriqa-engine/pkg/dialect"
)

func TestCatalogIDsUniqueAndResolvable(t *testing.T) {
	defs := Catalog()
	require.Len(t, defs, 26)

	seen := make(map[dialect.CheckID]bool)
	for _, d := range defs {
		assert.False(t, seen[d.ID], "duplicate id %s", d.ID)
		seen[d.ID] = true
		assert.NotEmpty(t, d.Name)
		assert.NotEmpty(t, d.Description)

		got, ok := ByID(d.ID)
		require.True(t, ok)
		assert.Equal(t, d.Name, got.Name)
	}

	_, ok := ByID(dialect.CheckID("sparkle_check"))
	assert.False(t, ok)
}

func TestCatalogIsACopy(t *testing.T) {
	defs := Catalog()
	defs[0].Name = "mutated"
	assert.NotEqual(t, "mutated", Catalog()[0].Name)
}

func TestAppliesTo(t *testing.T) {
	null, _ := ByID(dialect.CheckNull)
	for _, cat := range []dialect.TypeCategory{dialect.TypeNumeric, dialect.TypeText, dialect.TypeTemporal, dialect.TypeOther} {
		assert.True(t, null.AppliesTo(cat), "universal check must apply to %s", cat)
	}

	rng, _ := ByID(dialect.CheckRange)
	assert.True(t, rng.AppliesTo(dialect.TypeNumeric))
	assert.False(t, rng.AppliesTo(dialect.TypeText))

	dt, _ := ByID(dialect.CheckDatetime)
	assert.True(t, dt.AppliesTo(dialect.TypeText))
	assert.True(t, dt.AppliesTo(dialect.TypeTemporal))
	assert.False(t, dt.AppliesTo(dialect.TypeNumeric))
}

func TestAvailableChecksByColumnType(t *testing.T) {
	ids := func(defs []Definition) map[dialect.CheckID]bool {
		m := make(map[dialect.CheckID]bool, len(defs))
		for _, d := range defs {
			m[d.ID] = true
		}
		return m
	}

	numeric := ids(AvailableChecks(connector.ColumnDescriptor{Name: "amount", DataType: "numeric(10,2)"}))
	assert.True(t, numeric[dialect.CheckNull])
	assert.True(t, numeric[dialect.CheckRange])
	assert.True(t, numeric[dialect.CheckZScoreOutlier])
	assert.False(t, numeric[dialect.CheckLength])
	assert.False(t, numeric[dialect.CheckFutureDate])

	text := ids(AvailableChecks(connector.ColumnDescriptor{Name: "email", DataType: "character varying"}))
	assert.True(t, text[dialect.CheckMustContainAt])
	assert.True(t, text[dialect.CheckTCKN])
	assert.True(t, text[dialect.CheckDatetime], "text columns can hold dates")
	assert.False(t, text[dialect.CheckRange])

	temporal := ids(AvailableChecks(connector.ColumnDescriptor{Name: "created_at", DataType: "timestamp with time zone"}))
	assert.True(t, temporal[dialect.CheckFutureDate])
	assert.True(t, temporal[dialect.CheckDateRange])
	assert.False(t, temporal[dialect.CheckDateFormat], "date_format reads text renderings")

	other := ids(AvailableChecks(connector.ColumnDescriptor{Name: "payload", DataType: "bytea"}))
	assert.True(t, other[dialect.CheckNull])
	assert.True(t, other[dialect.CheckDistinct])
	assert.False(t, other[dialect.CheckRange])
	assert.False(t, other[dialect.CheckLength])
}

func TestIDsInDisplayOrder(t *testing.T) {
	ids := IDs()
	require.Len(t, ids, 26)
	assert.Equal(t, string(dialect.CheckNull), ids[0])

	// Every ID the parameter table knows must be a catalog entry.
	for id := range paramKeys {
		_, ok := ByID(id)
		assert.True(t, ok, "param table references unknown check %s", id)
	}
}
