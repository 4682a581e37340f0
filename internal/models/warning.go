package models

// WarningKind classifies a non-fatal row diagnostic.
type WarningKind string

// Warning kinds.
const (
	WarningMissingField WarningKind = "missing_field"
	WarningInvalidField WarningKind = "invalid_field"
	WarningDuplicateID  WarningKind = "duplicate_id"
)

// Warning describes a problem with a row that did not stop processing.
type Warning struct {
	Kind    WarningKind `json:"kind"`
	Field   string      `json:"field"`
	Message string      `json:"message"`
}

// String returns the warning message.
func (w Warning) String() string {
	return w.Message
}
