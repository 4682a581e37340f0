package grouper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"areagroup/internal/models"
)

// The window is [len-10, len-1), then its first three characters. These cases
// pin that exact slicing, including where it differs from "first three of the
// last ten digits".
func TestAreaCode(t *testing.T) {
	tests := []struct {
		phone string
		want  models.GroupKey
	}{
		{"(555) 123-4567", "AreaCode_555"},
		{"+1 (512) 555-0100", "AreaCode_512"},
		{"15125550100", "AreaCode_512"},
		{"+44 20 7946 0958 12", "AreaCode_794"},
		{"", models.NoAreaCode},
		{"123-4567", models.NoAreaCode},
		{"555-CALL-NOW1", models.NoAreaCode},
	}

	for _, tt := range tests {
		t.Run(tt.phone, func(t *testing.T) {
			assert.Equal(t, tt.want, AreaCode(tt.phone))
		})
	}
}

func record(id, phone string) models.NormalizedRecord {
	return models.NormalizedRecord{
		"FirstName":   "Joe",
		"LastName":    "Shmoe",
		"PhoneNumber": phone,
		"ID":          id,
	}
}

func TestGrouper_Insert(t *testing.T) {
	g := New()

	assert.Empty(t, g.Insert(record("1", "(555) 123-4567")))
	assert.Empty(t, g.Insert(record("2", "(555) 987-6543")))
	assert.Empty(t, g.Insert(record("3", "")))

	tree := g.Tree()
	require.Len(t, tree, 2)
	assert.Len(t, tree["AreaCode_555"], 2)
	assert.Contains(t, tree["AreaCode_555"], models.RecordKey("User_1"))
	assert.Contains(t, tree[models.NoAreaCode], models.RecordKey("User_3"))
	assert.Equal(t, 3, g.Inserted())
	assert.Equal(t, 3, tree.Len())
}

func TestGrouper_DuplicateKeepsFirst(t *testing.T) {
	g := New()

	first := record("7", "(555) 123-4567")
	second := record("7", "(555) 000-0000")
	second["FirstName"] = "Jane"

	require.Empty(t, g.Insert(first))

	warnings := g.Insert(second)
	require.Len(t, warnings, 1)
	assert.Equal(t, models.WarningDuplicateID, warnings[0].Kind)
	assert.Equal(t, "Duplicate ID found: 7. (Record will not be output.)", warnings[0].Message)

	stored := g.Tree()["AreaCode_555"]["User_7"]
	assert.Equal(t, "Joe", stored["FirstName"])
	assert.Equal(t, 1, g.Inserted())
	assert.Equal(t, 1, g.Duplicates())
}

func TestGrouper_SameIDDifferentGroups(t *testing.T) {
	g := New()

	assert.Empty(t, g.Insert(record("9", "(555) 123-4567")))
	assert.Empty(t, g.Insert(record("9", "(212) 123-4567")))
	assert.Equal(t, 0, g.Duplicates())
}

func TestGrouper_IDUsedVerbatim(t *testing.T) {
	g := New()

	g.Insert(record("a-1", ""))
	g.Insert(models.NormalizedRecord{"FirstName": "NoID"})

	group := g.Tree()[models.NoAreaCode]
	assert.Contains(t, group, models.RecordKey("User_a-1"))
	assert.Contains(t, group, models.RecordKey("User_"))
}

func TestGrouper_StoresCopy(t *testing.T) {
	g := New()

	rec := record("1", "")
	g.Insert(rec)
	rec["FirstName"] = "Changed"

	assert.Equal(t, "Joe", g.Tree()[models.NoAreaCode]["User_1"]["FirstName"])
}
