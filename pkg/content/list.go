package content

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// List is the compound value: an ordered sequence of records.
type List []*Record

// ParseList decodes text holding a JSON array of objects.
func ParseList(raw string) (List, error) {
	v, err := ParseString(raw)
	if err != nil {
		return nil, err
	}
	return ListFromValue(v)
}

// ListFromValue converts an array value into a List.
func ListFromValue(v Value) (List, error) {
	items, ok := v.AsArray()
	if !ok {
		return nil, &ShapeError{Want: KindArray, Got: v.Kind()}
	}
	out := make(List, 0, len(items))
	for i, item := range items {
		rec, ok := item.AsObject()
		if !ok {
			return nil, &ShapeError{Want: KindObject, Got: item.Kind(), Index: i + 1}
		}
		out = append(out, rec)
	}
	return out, nil
}

// Value wraps the list as an array of objects.
func (l List) Value() Value {
	items := make([]Value, len(l))
	for i, rec := range l {
		items[i] = Object(rec)
	}
	return Array(items...)
}

// Clone deep copies every record.
func (l List) Clone() List {
	if l == nil {
		return nil
	}
	out := make(List, len(l))
	for i, rec := range l {
		out[i] = rec.Clone()
	}
	return out
}

// IndexOfKey returns the position of the record with the given key.
func (l List) IndexOfKey(key string) int {
	for i, rec := range l {
		if id, ok := rec.Key(); ok && id.String() == key {
			return i
		}
	}
	return -1
}

// Encode renders the list as compact JSON text.
func (l List) Encode() (string, error) {
	var buf bytes.Buffer
	if err := l.Value().encode(&buf); err != nil {
		return "", fmt.Errorf("content: encode list: %w", err)
	}
	return buf.String(), nil
}

// MarshalJSON implements json.Marshaler.
func (l List) MarshalJSON() ([]byte, error) {
	raw, err := l.Encode()
	if err != nil {
		return nil, err
	}
	return []byte(raw), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (l *List) UnmarshalJSON(data []byte) error {
	v, err := Parse(data)
	if err != nil {
		return err
	}
	parsed, err := ListFromValue(v)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

var _ json.Marshaler = List(nil)
