// Package serializer renders the grouped output tree as JSON or XML and
// writes it to the output artifact.
package serializer

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"areagroup/internal/models"
	"areagroup/internal/writer"
)

// Supported output formats.
const (
	FormatJSON = "json"
	FormatXML  = "xml"
)

// ErrUnsupportedFormat is returned by New for anything but json or xml.
var ErrUnsupportedFormat = errors.New("unsupported output format")

// Serializer renders an OutputTree into a document.
type Serializer interface {
	Format() string
	Marshal(tree models.OutputTree) ([]byte, error)
}

// New returns the serializer for format. There is no default.
func New(format string) (Serializer, error) {
	switch format {
	case FormatJSON:
		return JSON{}, nil
	case FormatXML:
		return XML{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// DefaultPath returns the output path used when none is configured.
func DefaultPath(format string) string {
	return "./output." + format
}

// Write renders tree with s, replaces the file at path with the result and
// returns the rendered text.
func Write(ctx context.Context, s Serializer, tree models.OutputTree, path string) (string, error) {
	data, err := s.Marshal(tree)
	if err != nil {
		return "", fmt.Errorf("failed to render %s: %w", s.Format(), err)
	}

	if err := writer.WriteFile(ctx, path, data); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}

	return string(data), nil
}

func sortedGroups(tree models.OutputTree) []models.GroupKey {
	keys := make([]models.GroupKey, 0, len(tree))
	for k := range tree {
		keys = append(keys, k)
	}

	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	return keys
}

func sortedRecords(group map[models.RecordKey]models.NormalizedRecord) []models.RecordKey {
	keys := make([]models.RecordKey, 0, len(group))
	for k := range group {
		keys = append(keys, k)
	}

	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	return keys
}

func sortedFields(rec models.NormalizedRecord) []string {
	keys := make([]string, 0, len(rec))
	for k := range rec {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}
