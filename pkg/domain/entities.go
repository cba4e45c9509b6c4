package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-stacked-content/pkg/content"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RecordMeta captures identifiers and audit fields shared across entities.
type RecordMeta struct {
	ID        uuid.UUID `bun:",pk,type:uuid" json:"id"`
	CreatedAt time.Time `bun:",nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time `bun:",nullzero,notnull,default:current_timestamp" json:"updated_at"`
	DeletedAt time.Time `bun:",soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// EnsureID assigns a UUID when the struct is about to be persisted.
func (m *RecordMeta) EnsureID() {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
}

// JSONMap persists arbitrary configuration fields as JSON.
type JSONMap map[string]any

// Value implements driver.Valuer.
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return []byte("null"), nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner.
func (m *JSONMap) Scan(value any) error {
	if m == nil {
		return errors.New("JSONMap: Scan on nil pointer")
	}
	switch v := value.(type) {
	case nil:
		*m = nil
		return nil
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("JSONMap: unsupported type %T", value)
	}
}

// Clone returns a shallow copy.
func (m JSONMap) Clone() JSONMap {
	if m == nil {
		return nil
	}
	out := make(JSONMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// StringList stores []string as JSON.
type StringList []string

func (s StringList) Value() (driver.Value, error) {
	return json.Marshal([]string(s))
}

func (s *StringList) Scan(value any) error {
	if s == nil {
		return errors.New("StringList: Scan on nil pointer")
	}
	switch v := value.(type) {
	case nil:
		*s = nil
		return nil
	case []byte:
		return json.Unmarshal(v, (*[]string)(s))
	case string:
		return json.Unmarshal([]byte(v), (*[]string)(s))
	default:
		return fmt.Errorf("StringList: unsupported type %T", value)
	}
}

// Variation describes which contexts a property value may vary by.
type Variation string

const (
	VariationInvariant         Variation = "nothing"
	VariationCulture           Variation = "culture"
	VariationSegment           Variation = "segment"
	VariationCultureAndSegment Variation = "culture_and_segment"
)

// PropertyType describes one field of an element type.
type PropertyType struct {
	Alias       string    `json:"alias" yaml:"alias"`
	Name        string    `json:"name" yaml:"name"`
	Description string    `json:"description,omitempty" yaml:"description"`
	EditorAlias string    `json:"editor" yaml:"editor"`
	DataTypeID  uuid.UUID `json:"data_type_id,omitempty" yaml:"data_type_id"`
	// Configuration overrides the data type configuration key by key.
	Configuration    JSONMap   `json:"configuration,omitempty" yaml:"configuration"`
	Mandatory        bool      `json:"mandatory,omitempty" yaml:"mandatory"`
	ValidationRegExp string    `json:"validation_regexp,omitempty" yaml:"validation_regexp"`
	Variations       Variation `json:"variations,omitempty" yaml:"variations"`
	Group            string    `json:"group,omitempty" yaml:"group"`
	SortOrder        int       `json:"sort_order,omitempty" yaml:"sort_order"`
}

// PropertyTypes stores the ordered field list as JSON.
type PropertyTypes []PropertyType

func (p PropertyTypes) Value() (driver.Value, error) {
	return json.Marshal([]PropertyType(p))
}

func (p *PropertyTypes) Scan(value any) error {
	if p == nil {
		return errors.New("PropertyTypes: Scan on nil pointer")
	}
	switch v := value.(type) {
	case nil:
		*p = nil
		return nil
	case []byte:
		return json.Unmarshal(v, (*[]PropertyType)(p))
	case string:
		return json.Unmarshal([]byte(v), (*[]PropertyType)(p))
	default:
		return fmt.Errorf("PropertyTypes: unsupported type %T", value)
	}
}

// ElementType is the schema of one kind of nested record.
type ElementType struct {
	bun.BaseModel `bun:"table:stacked_element_types"`
	RecordMeta

	Alias       string        `bun:",unique,nullzero,notnull" json:"alias"`
	Name        string        `bun:",nullzero,notnull" json:"name"`
	Description string        `bun:",nullzero" json:"description,omitempty"`
	Icon        string        `bun:",nullzero" json:"icon,omitempty"`
	SortOrder   int           `bun:",nullzero" json:"sort_order"`
	// Groups lists tab names in display order.
	Groups     StringList    `bun:"type:jsonb,nullzero" json:"groups,omitempty"`
	Properties PropertyTypes `bun:"type:jsonb,nullzero" json:"properties"`
}

// Property looks up a property by alias, ignoring case.
func (e *ElementType) Property(alias string) (PropertyType, bool) {
	if e == nil {
		return PropertyType{}, false
	}
	for _, prop := range e.Properties {
		if strings.EqualFold(prop.Alias, alias) {
			return prop, true
		}
	}
	return PropertyType{}, false
}

// DataType holds shared editor configuration referenced by properties.
type DataType struct {
	bun.BaseModel `bun:"table:stacked_data_types"`
	RecordMeta

	Name          string  `bun:",unique,nullzero,notnull" json:"name"`
	EditorAlias   string  `bun:",nullzero,notnull" json:"editor"`
	Configuration JSONMap `bun:"type:jsonb,nullzero" json:"configuration,omitempty"`
}

// Blueprint is a named, reusable record used as a starting point.
type Blueprint struct {
	bun.BaseModel `bun:"table:stacked_blueprints"`
	RecordMeta

	Name          string          `bun:",nullzero,notnull" json:"name"`
	ElementTypeID uuid.UUID       `bun:"type:uuid,notnull" json:"element_type_id"`
	CreatorID     int             `bun:",nullzero" json:"creator_id"`
	Values        *content.Record `bun:"type:jsonb,nullzero" json:"values"`
}
