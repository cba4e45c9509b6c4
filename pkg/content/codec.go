package content

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrSyntax wraps every decoding failure.
var ErrSyntax = errors.New("content: malformed json")

// ShapeError reports a structurally valid document of the wrong kind.
type ShapeError struct {
	Want  Kind
	Got   Kind
	Index int
}

func (e *ShapeError) Error() string {
	if e.Index > 0 {
		return fmt.Sprintf("content: item %d: expected %s, got %s", e.Index, e.Want, e.Got)
	}
	return fmt.Sprintf("content: expected %s, got %s", e.Want, e.Got)
}

// Parse decodes a single JSON document keeping object member order.
func Parse(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil {
		return Null(), fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return Null(), fmt.Errorf("%w: trailing data", ErrSyntax)
	}
	return v, nil
}

// ParseString is Parse for text input.
func ParseString(raw string) (Value, error) {
	return Parse([]byte(raw))
}

// MustParse panics on malformed input. Intended for fixtures.
func MustParse(raw string) Value {
	v, err := ParseString(raw)
	if err != nil {
		panic(err)
	}
	return v
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Null(), err
	}
	switch t := tok.(type) {
	case nil:
		return Null(), nil
	case string:
		return String(t), nil
	case json.Number:
		return Value{kind: KindNumber, num: t}, nil
	case bool:
		return Bool(t), nil
	case json.Delim:
		switch t {
		case '{':
			rec := NewRecord()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return Null(), err
				}
				key, ok := keyTok.(string)
				if !ok {
					return Null(), fmt.Errorf("unexpected object key %v", keyTok)
				}
				member, err := decodeValue(dec)
				if err != nil {
					return Null(), err
				}
				rec.Set(key, member)
			}
			if _, err := dec.Token(); err != nil {
				return Null(), err
			}
			return Object(rec), nil
		case '[':
			items := []Value{}
			for dec.More() {
				item, err := decodeValue(dec)
				if err != nil {
					return Null(), err
				}
				items = append(items, item)
			}
			if _, err := dec.Token(); err != nil {
				return Null(), err
			}
			return Array(items...), nil
		}
	}
	return Null(), fmt.Errorf("unexpected token %v", tok)
}

// IsBlankText reports input that should short-circuit conversion.
func IsBlankText(raw string) bool {
	return strings.TrimSpace(raw) == ""
}
