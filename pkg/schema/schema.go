package schema

import (
	"maps"
	"strings"

	"github.com/goliatone/go-stacked-content/pkg/domain"
	"github.com/google/uuid"
)

// Field is a resolved field descriptor: the persisted property type plus the
// layered editor configuration.
type Field struct {
	Alias         string
	Name          string
	Description   string
	Kind          string
	Group         string
	Configuration map[string]any
	Mandatory     bool
	Pattern       string
	Variation     domain.Variation
}

// Invariant returns a copy that cannot vary by culture or segment.
func (f Field) Invariant() Field {
	out := f
	out.Configuration = maps.Clone(f.Configuration)
	out.Variation = domain.VariationInvariant
	return out
}

// Schema is the resolved view of an element type.
type Schema struct {
	ID          uuid.UUID
	Alias       string
	Name        string
	Description string
	Icon        string
	Tabs        []string

	fields []Field
	index  map[string]int
}

// New builds a schema from ordered fields. Later duplicates (case-insensitive)
// are ignored.
func New(id uuid.UUID, alias, name string, fields ...Field) *Schema {
	s := &Schema{
		ID:    id,
		Alias: alias,
		Name:  name,
		index: make(map[string]int, len(fields)),
	}
	for _, f := range fields {
		key := normalizeKey(f.Alias)
		if key == "" {
			continue
		}
		if _, exists := s.index[key]; exists {
			continue
		}
		s.index[key] = len(s.fields)
		s.fields = append(s.fields, f)
	}
	return s
}

// Fields returns the fields in schema order.
func (s *Schema) Fields() []Field {
	if s == nil {
		return nil
	}
	return append([]Field(nil), s.fields...)
}

// Field looks up a field by alias, ignoring case.
func (s *Schema) Field(alias string) (Field, bool) {
	if s == nil {
		return Field{}, false
	}
	idx, ok := s.index[normalizeKey(alias)]
	if !ok {
		return Field{}, false
	}
	return s.fields[idx], true
}

// FieldsInTabs filters fields to the named tabs. An empty filter keeps all.
func (s *Schema) FieldsInTabs(tabs ...string) []Field {
	if len(tabs) == 0 {
		return s.Fields()
	}
	var out []Field
	for _, f := range s.fields {
		for _, tab := range tabs {
			if strings.EqualFold(f.Group, tab) {
				out = append(out, f)
				break
			}
		}
	}
	return out
}

func (s *Schema) Len() int {
	if s == nil {
		return 0
	}
	return len(s.fields)
}

func normalizeKey(alias string) string {
	return strings.ToLower(strings.TrimSpace(alias))
}
