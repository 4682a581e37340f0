package normalizer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"areagroup/internal/models"
)

const (
	minPhoneDigits = 10
	maxPhoneDigits = 15
)

var (
	phoneNoisePattern = regexp.MustCompile(`[+().\-]|[\s\v\x{85}\p{Z}]+`)
	digitsPattern     = regexp.MustCompile(`^[0-9]+$`)
	namePattern       = regexp.MustCompile(`^[A-Za-z.\-]+$`)
)

// FormatPhoneNumber strips '+', '(', ')', '.', '-' and Unicode whitespace from s.
// Any other character is left in place.
func FormatPhoneNumber(s string) string {
	return phoneNoisePattern.ReplaceAllString(s, "")
}

// IsValidID reports whether s is a non-empty run of ASCII digits.
func IsValidID(s string) bool {
	return digitsPattern.MatchString(s)
}

// IsValidName reports whether s is non-empty and made of ASCII letters, '.' and '-'.
func IsValidName(s string) bool {
	return namePattern.MatchString(s)
}

// IsValidGender reports whether s is "male" or "female", ignoring case.
func IsValidGender(s string) bool {
	return strings.EqualFold(s, "male") || strings.EqualFold(s, "female")
}

// IsValidPhoneNumber reports whether s formats to 10-15 ASCII digits.
func IsValidPhoneNumber(s string) bool {
	formatted := FormatPhoneNumber(s)
	if len(formatted) < minPhoneDigits || len(formatted) > maxPhoneDigits {
		return false
	}

	return digitsPattern.MatchString(formatted)
}

// fieldCheck pairs a raw column label with its value predicate.
type fieldCheck struct {
	label string
	valid func(string) bool
}

// Validator checks raw records field by field and reports warnings.
type Validator struct {
	checks map[string]fieldCheck
}

// NewValidator creates a new validator instance.
func NewValidator() *Validator {
	checks := []fieldCheck{
		{label: models.ColumnID, valid: IsValidID},
		{label: models.ColumnFirstName, valid: IsValidName},
		{label: models.ColumnLastName, valid: IsValidName},
		{label: models.ColumnGender, valid: IsValidGender},
		{label: models.ColumnPhoneNumber, valid: IsValidPhoneNumber},
	}

	v := &Validator{checks: make(map[string]fieldCheck, len(checks))}
	for _, c := range checks {
		v.checks[c.label] = c
	}

	return v
}

// Validate returns one warning per missing or malformed field of raw.
// Checks are keyed on the raw column label, so a column spelled differently
// (for example "FirstName") is not validated. Expected columns absent from
// the row, under either spelling, count as empty.
func (v *Validator) Validate(raw models.RawRecord) []models.Warning {
	text := recordText(raw)

	keys := make([]string, 0, len(raw)+len(models.ExpectedColumns))
	present := make(map[string]bool, len(raw))

	for k := range raw {
		keys = append(keys, k)
		present[CanonicalKey(k)] = true
	}

	for _, col := range models.ExpectedColumns {
		if !present[CanonicalKey(col)] {
			keys = append(keys, col)
		}
	}

	sort.Strings(keys)

	var warnings []models.Warning

	for _, key := range keys {
		value := raw[key]
		if value == "" {
			warnings = append(warnings, models.Warning{
				Kind:    models.WarningMissingField,
				Field:   key,
				Message: fmt.Sprintf("%s not set: %s", key, text),
			})

			continue
		}

		check, ok := v.checks[key]
		if !ok || check.valid(value) {
			continue
		}

		warnings = append(warnings, models.Warning{
			Kind:    models.WarningInvalidField,
			Field:   key,
			Message: fmt.Sprintf("Unexpected %s: %s", check.label, text),
		})
	}

	return warnings
}

// recordText renders raw as a compact JSON object for warning messages.
func recordText(raw models.RawRecord) string {
	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(map[string]string(raw)); err != nil {
		return fmt.Sprintf("%v", map[string]string(raw))
	}

	return strings.TrimRight(buf.String(), "\n")
}
