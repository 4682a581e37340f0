// Package models defines the record and grouping structures shared by the pipeline stages.
package models

import "strings"

// Canonical field names as they appear after normalization.
const (
	FieldFirstName   = "FirstName"
	FieldLastName    = "LastName"
	FieldGender      = "Gender"
	FieldPhoneNumber = "PhoneNumber"
	FieldID          = "ID"
	FieldEyeColor    = "EyeColor"
)

// Column labels as they appear in the source header.
const (
	ColumnFirstName   = "First Name"
	ColumnLastName    = "Last Name"
	ColumnGender      = "Gender"
	ColumnPhoneNumber = "Phone Number"
	ColumnID          = "ID"
	ColumnEyeColor    = "EyeColor"
)

const (
	// NoAreaCode is the group for records without a usable phone number.
	NoAreaCode = "NoAreaCode"

	areaCodePrefix = "AreaCode_"
	userPrefix     = "User_"
)

// CanonicalFields lists every field a search criterion may name.
var CanonicalFields = []string{
	FieldFirstName,
	FieldLastName,
	FieldGender,
	FieldPhoneNumber,
	FieldID,
	FieldEyeColor,
}

// ExpectedColumns lists the header labels a well-formed input carries.
var ExpectedColumns = []string{
	ColumnFirstName,
	ColumnLastName,
	ColumnGender,
	ColumnPhoneNumber,
	ColumnID,
	ColumnEyeColor,
}

// IsCanonicalField reports whether name is one of CanonicalFields.
func IsCanonicalField(name string) bool {
	for _, f := range CanonicalFields {
		if f == name {
			return true
		}
	}

	return false
}

// RawRecord maps a source column label to its cell value.
type RawRecord map[string]string

// NormalizedRecord maps a canonical field name to its cleaned value.
type NormalizedRecord map[string]string

// Get returns the value stored under field and whether it was present.
func (r NormalizedRecord) Get(field string) (string, bool) {
	v, ok := r[field]
	return v, ok
}

// Clone returns an independent copy of the record.
func (r NormalizedRecord) Clone() NormalizedRecord {
	out := make(NormalizedRecord, len(r))
	for k, v := range r {
		out[k] = v
	}

	return out
}

// GroupKey labels a bucket of records sharing an area code.
type GroupKey string

// AreaCodeKey builds the group key for a three-digit area code.
func AreaCodeKey(code string) GroupKey {
	return GroupKey(areaCodePrefix + code)
}

// IsAreaCode reports whether the key was derived from a phone number.
func (k GroupKey) IsAreaCode() bool {
	return strings.HasPrefix(string(k), areaCodePrefix)
}

// RecordKey is the per-group slot label derived from a record ID.
type RecordKey string

// UserKey builds the record key for id. The id is used verbatim.
func UserKey(id string) RecordKey {
	return RecordKey(userPrefix + id)
}

// OutputTree is the grouped result: group, then record slot, then fields.
type OutputTree map[GroupKey]map[RecordKey]NormalizedRecord

// Len returns the number of stored records across all groups.
func (t OutputTree) Len() int {
	n := 0
	for _, g := range t {
		n += len(g)
	}

	return n
}
