package content

import (
	"strings"

	"github.com/google/uuid"
)

// Ref points at an element type either by stable id or by alias.
type Ref struct {
	ID    uuid.UUID
	Alias string
}

// ParseRef accepts "alias:<alias>", "id:<uuid>", a bare UUID or a bare alias.
func ParseRef(raw string) Ref {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Ref{}
	}
	prefix, rest, found := strings.Cut(raw, ":")
	if found {
		rest = strings.TrimSpace(rest)
		switch strings.ToLower(prefix) {
		case "alias":
			return Ref{Alias: rest}
		case "id", "guid":
			if id, err := uuid.Parse(rest); err == nil {
				return Ref{ID: id}
			}
			return Ref{}
		}
	}
	if id, err := uuid.Parse(raw); err == nil {
		return Ref{ID: id}
	}
	return Ref{Alias: raw}
}

// AliasRef builds an alias reference.
func AliasRef(alias string) Ref { return Ref{Alias: strings.TrimSpace(alias)} }

// IDRef builds an id reference.
func IDRef(id uuid.UUID) Ref { return Ref{ID: id} }

func (r Ref) IsZero() bool { return r.ID == uuid.Nil && r.Alias == "" }

func (r Ref) HasID() bool { return r.ID != uuid.Nil }

// String renders the form stored under elementTypeRef.
func (r Ref) String() string {
	switch {
	case r.ID != uuid.Nil:
		return r.ID.String()
	case r.Alias != "":
		return "alias:" + r.Alias
	default:
		return ""
	}
}
