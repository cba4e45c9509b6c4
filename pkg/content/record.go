package content

import (
	"bytes"
	"encoding/json"
	"iter"
	"strings"

	"github.com/google/uuid"
)

// Reserved record keys. Everything else is a schema-defined field.
const (
	KeyName        = "name"
	KeyKey         = "key"
	KeyElementType = "elementTypeRef"
	KeyIcon        = "icon"

	// Legacy reference keys still accepted on read.
	KeyLegacyTypeID    = "icContentTypeGuid"
	KeyLegacyTypeAlias = "icContentTypeAlias"
)

var reservedKeys = []string{KeyName, KeyKey, KeyElementType, KeyLegacyTypeID, KeyLegacyTypeAlias}

// IsReserved reports whether alias is a system key that survives schema
// reconciliation.
func IsReserved(alias string) bool {
	for _, key := range reservedKeys {
		if strings.EqualFold(alias, key) {
			return true
		}
	}
	return false
}

// Field is a single record member.
type Field struct {
	Alias string
	Value Value
}

// Record is an ordered mapping from alias to Value. Lookups are
// case-insensitive and aliases are unique under that comparison.
type Record struct {
	fields []Field
}

// NewRecord builds a record, later duplicates overwrite earlier ones in place.
func NewRecord(fields ...Field) *Record {
	r := &Record{fields: make([]Field, 0, len(fields))}
	for _, f := range fields {
		r.Set(f.Alias, f.Value)
	}
	return r
}

func (r *Record) Len() int {
	if r == nil {
		return 0
	}
	return len(r.fields)
}

func (r *Record) indexOf(alias string) int {
	if r == nil {
		return -1
	}
	for i, f := range r.fields {
		if strings.EqualFold(f.Alias, alias) {
			return i
		}
	}
	return -1
}

// Has reports whether alias is present.
func (r *Record) Has(alias string) bool { return r.indexOf(alias) >= 0 }

// Get returns the value stored under alias.
func (r *Record) Get(alias string) (Value, bool) {
	idx := r.indexOf(alias)
	if idx < 0 {
		return Null(), false
	}
	return r.fields[idx].Value, true
}

// Set replaces the value under alias keeping its position and original
// spelling, or appends a new member.
func (r *Record) Set(alias string, value Value) {
	if idx := r.indexOf(alias); idx >= 0 {
		r.fields[idx].Value = value
		return
	}
	r.fields = append(r.fields, Field{Alias: alias, Value: value})
}

// Delete removes alias and reports whether it was present.
func (r *Record) Delete(alias string) bool {
	idx := r.indexOf(alias)
	if idx < 0 {
		return false
	}
	r.fields = append(r.fields[:idx], r.fields[idx+1:]...)
	return true
}

// Keys returns the aliases in order.
func (r *Record) Keys() []string {
	if r == nil {
		return nil
	}
	keys := make([]string, len(r.fields))
	for i, f := range r.fields {
		keys[i] = f.Alias
	}
	return keys
}

// All iterates members in order.
func (r *Record) All() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		if r == nil {
			return
		}
		for _, f := range r.fields {
			if !yield(f.Alias, f.Value) {
				return
			}
		}
	}
}

// Fields returns a copy of the members.
func (r *Record) Fields() []Field {
	if r == nil {
		return nil
	}
	return append([]Field(nil), r.fields...)
}

// Clone returns a deep copy.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	out := &Record{fields: make([]Field, len(r.fields))}
	for i, f := range r.fields {
		out.fields[i] = Field{Alias: f.Alias, Value: f.Value.Clone()}
	}
	return out
}

// Equal compares member order, alias spelling and values.
func (r *Record) Equal(other *Record) bool {
	if r.Len() != other.Len() {
		return false
	}
	for i := range r.Len() {
		a, b := r.fields[i], other.fields[i]
		if a.Alias != b.Alias || !a.Value.Equal(b.Value) {
			return false
		}
	}
	return true
}

// Name returns the display label.
func (r *Record) Name() string {
	v, _ := r.Get(KeyName)
	s, _ := v.AsString()
	return s
}

// SetName sets the display label.
func (r *Record) SetName(name string) { r.Set(KeyName, String(name)) }

// Key returns the stable record key when present and well formed.
func (r *Record) Key() (uuid.UUID, bool) {
	v, ok := r.Get(KeyKey)
	if !ok {
		return uuid.Nil, false
	}
	s, ok := v.AsString()
	if !ok || strings.TrimSpace(s) == "" {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// SetKey stores the record key.
func (r *Record) SetKey(id uuid.UUID) { r.Set(KeyKey, String(id.String())) }

// EnsureKey assigns a fresh key when the key is absent or blank and returns
// it. A present key that is not a UUID is left alone and uuid.Nil returned.
func (r *Record) EnsureKey() uuid.UUID {
	if id, ok := r.Key(); ok {
		return id
	}
	if v, ok := r.Get(KeyKey); ok && !v.IsBlank() {
		return uuid.Nil
	}
	id := uuid.New()
	r.SetKey(id)
	return id
}

// TypeRef extracts the element type reference, looking at legacy keys when
// elementTypeRef is absent.
func (r *Record) TypeRef() Ref {
	if v, ok := r.Get(KeyElementType); ok {
		if s, ok := v.AsString(); ok {
			if ref := ParseRef(s); !ref.IsZero() {
				return ref
			}
		}
	}
	var ref Ref
	if v, ok := r.Get(KeyLegacyTypeID); ok {
		if s, ok := v.AsString(); ok {
			if id, err := uuid.Parse(strings.TrimSpace(s)); err == nil {
				ref.ID = id
			}
		}
	}
	if v, ok := r.Get(KeyLegacyTypeAlias); ok {
		if s, ok := v.AsString(); ok {
			ref.Alias = strings.TrimSpace(s)
		}
	}
	return ref
}

// SetTypeID writes the canonical reference and drops legacy keys.
func (r *Record) SetTypeID(id uuid.UUID) {
	r.Set(KeyElementType, String(id.String()))
	r.Delete(KeyLegacyTypeID)
	r.Delete(KeyLegacyTypeAlias)
}

// MarshalJSON implements json.Marshaler.
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := r.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *Record) UnmarshalJSON(data []byte) error {
	v, err := Parse(data)
	if err != nil {
		return err
	}
	obj, ok := v.AsObject()
	if !ok {
		return &ShapeError{Want: KindObject, Got: v.Kind()}
	}
	*r = *obj
	return nil
}

func (r *Record) encode(buf *bytes.Buffer) error {
	buf.WriteByte('{')
	for i, f := range r.Fields() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Alias)
		if err != nil {
			return err
		}
		buf.Write(key)
		buf.WriteByte(':')
		if err := f.Value.encode(buf); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}
