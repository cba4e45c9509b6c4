package content

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Kind tags the variant held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindObject
	KindArray
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "boolean"
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Value is a JSON value whose object members keep their insertion order.
// The zero Value is null.
type Value struct {
	kind    Kind
	str     string
	num     json.Number
	boolean bool
	obj     *Record
	arr     []Value
}

// Null returns the null value.
func Null() Value { return Value{} }

// String wraps s.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Number wraps a JSON number literal. Invalid literals produce null.
func Number(n json.Number) Value {
	if _, err := strconv.ParseFloat(n.String(), 64); err != nil {
		return Null()
	}
	return Value{kind: KindNumber, num: n}
}

// Int wraps an integer.
func Int(n int64) Value { return Value{kind: KindNumber, num: json.Number(strconv.FormatInt(n, 10))} }

// Float wraps a float.
func Float(f float64) Value {
	return Value{kind: KindNumber, num: json.Number(strconv.FormatFloat(f, 'f', -1, 64))}
}

// Bool wraps b.
func Bool(b bool) Value { return Value{kind: KindBool, boolean: b} }

// Object wraps r. A nil record produces an empty object.
func Object(r *Record) Value {
	if r == nil {
		r = NewRecord()
	}
	return Value{kind: KindObject, obj: r}
}

// Array wraps items.
func Array(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: KindArray, arr: items}
}

// Strings builds an array of string values.
func Strings(items ...string) Value {
	out := make([]Value, len(items))
	for i, item := range items {
		out[i] = String(item)
	}
	return Array(out...)
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool { return v.kind == KindNull }

// IsBlank reports null or a whitespace-only string.
func (v Value) IsBlank() bool {
	switch v.kind {
	case KindNull:
		return true
	case KindString:
		return strings.TrimSpace(v.str) == ""
	default:
		return false
	}
}

// IsEmpty reports a blank string, an empty array or an empty object.
// Null is not empty, it is absent.
func (v Value) IsEmpty() bool {
	switch v.kind {
	case KindString:
		return strings.TrimSpace(v.str) == ""
	case KindArray:
		return len(v.arr) == 0
	case KindObject:
		return v.obj == nil || v.obj.Len() == 0
	default:
		return false
	}
}

func (v Value) AsString() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.str, true
}

func (v Value) AsNumber() (json.Number, bool) {
	if v.kind != KindNumber {
		return "", false
	}
	return v.num, true
}

func (v Value) AsFloat() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	f, err := v.num.Float64()
	return f, err == nil
}

func (v Value) AsInt() (int64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	n, err := v.num.Int64()
	return n, err == nil
}

func (v Value) AsBool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.boolean, true
}

func (v Value) AsObject() (*Record, bool) {
	if v.kind != KindObject {
		return nil, false
	}
	return v.obj, true
}

func (v Value) AsArray() ([]Value, bool) {
	if v.kind != KindArray {
		return nil, false
	}
	return v.arr, true
}

// Text renders scalars as plain text and structures as compact JSON.
// Null renders as the empty string.
func (v Value) Text() string {
	switch v.kind {
	case KindNull:
		return ""
	case KindString:
		return v.str
	case KindNumber:
		return v.num.String()
	case KindBool:
		return strconv.FormatBool(v.boolean)
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(raw)
	}
}

// Clone returns a deep copy.
func (v Value) Clone() Value {
	switch v.kind {
	case KindObject:
		return Value{kind: KindObject, obj: v.obj.Clone()}
	case KindArray:
		items := make([]Value, len(v.arr))
		for i, item := range v.arr {
			items[i] = item.Clone()
		}
		return Value{kind: KindArray, arr: items}
	default:
		return v
	}
}

// Equal compares structurally. Object member order is significant and
// numbers compare by numeric value.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindString:
		return v.str == other.str
	case KindNumber:
		if v.num == other.num {
			return true
		}
		a, errA := v.num.Float64()
		b, errB := other.num.Float64()
		return errA == nil && errB == nil && a == b
	case KindBool:
		return v.boolean == other.boolean
	case KindObject:
		return v.obj.Equal(other.obj)
	case KindArray:
		if len(v.arr) != len(other.arr) {
			return false
		}
		for i := range v.arr {
			if !v.arr[i].Equal(other.arr[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// GoString supports fmt %#v and go-cmp reporters.
func (v Value) GoString() string {
	return fmt.Sprintf("content.Value(%s:%s)", v.kind, v.Text())
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

func (v Value) encode(buf *bytes.Buffer) error {
	switch v.kind {
	case KindNull:
		buf.WriteString("null")
	case KindString:
		raw, err := json.Marshal(v.str)
		if err != nil {
			return err
		}
		buf.Write(raw)
	case KindNumber:
		buf.WriteString(v.num.String())
	case KindBool:
		buf.WriteString(strconv.FormatBool(v.boolean))
	case KindObject:
		return v.obj.encode(buf)
	case KindArray:
		buf.WriteByte('[')
		for i, item := range v.arr {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := item.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	default:
		return fmt.Errorf("content: cannot encode %s", v.kind)
	}
	return nil
}
