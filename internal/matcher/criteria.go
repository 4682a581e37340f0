// Package matcher decides whether a normalized record satisfies the search criteria.
package matcher

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"areagroup/internal/models"
)

// ErrUnknownField is returned when a criterion names a non-canonical field.
var ErrUnknownField = errors.New("unknown search field")

// term is one required (field, substring) pair.
type term struct {
	field string
	value string
}

// Criteria is an immutable conjunction of substring requirements.
type Criteria struct {
	terms []term
}

// New builds Criteria from field to required substrings. Every key must be a
// canonical field name.
func New(fields map[string][]string) (*Criteria, error) {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}

	sort.Strings(names)

	c := &Criteria{}

	for _, name := range names {
		if !models.IsCanonicalField(name) {
			return nil, fmt.Errorf("%w: %q (allowed: %s)", ErrUnknownField, name, strings.Join(models.CanonicalFields, ", "))
		}

		for _, value := range fields[name] {
			c.terms = append(c.terms, term{field: name, value: value})
		}
	}

	return c, nil
}

// Empty reports whether there are no requirements.
func (c *Criteria) Empty() bool {
	return c == nil || len(c.terms) == 0
}

// Len returns the number of registered (field, value) pairs.
func (c *Criteria) Len() int {
	if c == nil {
		return 0
	}

	return len(c.terms)
}

// Match reports whether rec contains every required substring.
// A field missing from rec fails its requirement.
func (c *Criteria) Match(rec models.NormalizedRecord) bool {
	if c == nil {
		return true
	}

	for _, t := range c.terms {
		got, ok := rec.Get(t.field)
		if !ok || !strings.Contains(got, t.value) {
			return false
		}
	}

	return true
}

// String renders the criteria as field=value pairs.
func (c *Criteria) String() string {
	if c.Empty() {
		return "none"
	}

	parts := make([]string, 0, len(c.terms))
	for _, t := range c.terms {
		parts = append(parts, t.field+"="+t.value)
	}

	return strings.Join(parts, " ")
}
