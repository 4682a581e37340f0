package normalizer

import (
	"strings"

	"areagroup/internal/models"
)

// Transformer turns raw column labels and cell values into canonical form.
type Transformer struct{}

// NewTransformer creates a new transformer instance.
func NewTransformer() *Transformer {
	return &Transformer{}
}

// Transform derives a NormalizedRecord from raw. Only the first space of each
// key and the first newline of each value are removed; empty values are kept.
func (t *Transformer) Transform(raw models.RawRecord) models.NormalizedRecord {
	out := make(models.NormalizedRecord, len(raw))
	for key, value := range raw {
		out[CanonicalKey(key)] = CleanValue(value)
	}

	return out
}

// CanonicalKey removes the first space from a column label.
func CanonicalKey(label string) string {
	return strings.Replace(label, " ", "", 1)
}

// CleanValue removes the first newline from a cell value.
func CleanValue(value string) string {
	return strings.Replace(value, "\n", "", 1)
}
