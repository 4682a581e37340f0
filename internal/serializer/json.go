package serializer

import (
	"encoding/json"

	"areagroup/internal/models"
)

// JSON renders the tree as an indented JSON object.
type JSON struct{}

// Format returns "json".
func (JSON) Format() string { return FormatJSON }

// Marshal renders tree with two-space indentation and sorted keys.
func (JSON) Marshal(tree models.OutputTree) ([]byte, error) {
	if tree == nil {
		tree = models.OutputTree{}
	}

	data, err := json.MarshalIndent(tree, "", "  ")
	if err != nil {
		return nil, err
	}

	return append(data, '\n'), nil
}
