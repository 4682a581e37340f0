// Package grouper places accepted records into the area-code output tree.
package grouper

import (
	"fmt"

	"areagroup/internal/models"
	"areagroup/internal/normalizer"
)

const (
	// areaWindow is how far from the end of the formatted number the
	// area-code window starts.
	areaWindow = 10
	areaDigits = 3
)

// Grouper accumulates records into an OutputTree. It has a single writer and
// is not safe for concurrent use.
type Grouper struct {
	tree       models.OutputTree
	inserted   int
	duplicates int
}

// New creates an empty grouper.
func New() *Grouper {
	return &Grouper{tree: make(models.OutputTree)}
}

// AreaCode derives the group key from a phone value.
//
// The formatted number is cut to positions [len-10, len-1) and the first
// three characters of that window become the area code. The window ends one
// character short of the number; downstream consumers depend on this.
func AreaCode(phone string) models.GroupKey {
	if phone == "" || !normalizer.IsValidPhoneNumber(phone) {
		return models.NoAreaCode
	}

	formatted := normalizer.FormatPhoneNumber(phone)
	window := formatted[len(formatted)-areaWindow : len(formatted)-1]

	return models.AreaCodeKey(window[:areaDigits])
}

// KeysFor returns the group and record keys rec would be stored under.
func KeysFor(rec models.NormalizedRecord) (models.GroupKey, models.RecordKey) {
	phone, _ := rec.Get(models.FieldPhoneNumber)
	id, _ := rec.Get(models.FieldID)

	return AreaCode(phone), models.UserKey(id)
}

// Insert stores rec unless its slot is already taken. A collision keeps the
// earlier record and returns a duplicate warning.
func (g *Grouper) Insert(rec models.NormalizedRecord) []models.Warning {
	groupKey, recordKey := KeysFor(rec)

	group, ok := g.tree[groupKey]
	if !ok {
		group = make(map[models.RecordKey]models.NormalizedRecord)
		g.tree[groupKey] = group
	}

	if _, taken := group[recordKey]; taken {
		g.duplicates++
		id, _ := rec.Get(models.FieldID)

		return []models.Warning{{
			Kind:    models.WarningDuplicateID,
			Field:   models.FieldID,
			Message: fmt.Sprintf("Duplicate ID found: %s. (Record will not be output.)", id),
		}}
	}

	group[recordKey] = rec.Clone()
	g.inserted++

	return nil
}

// Tree returns the accumulated output tree.
func (g *Grouper) Tree() models.OutputTree {
	return g.tree
}

// Inserted returns how many records were stored.
func (g *Grouper) Inserted() int {
	return g.inserted
}

// Duplicates returns how many records were dropped as duplicates.
func (g *Grouper) Duplicates() int {
	return g.duplicates
}
