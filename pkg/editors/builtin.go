package editors

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/goliatone/go-stacked-content/pkg/content"
	"github.com/goliatone/go-stacked-content/pkg/options"
	"github.com/goliatone/go-stacked-content/pkg/schema"
)

// Built-in editor kinds.
const (
	KindIdentity = "identity"
	KindTextbox  = "textbox"
	KindTextarea = "textarea"
	KindInteger  = "integer"
	KindDecimal  = "decimal"
	KindBoolean  = "boolean"
	KindTags     = "tags"
	KindDropdown = "dropdown"
	KindRichText = "richtext"
)

// Builtins returns one instance of every built-in editor.
func Builtins() []Editor {
	return []Editor{
		Identity{},
		NewText(KindTextbox),
		NewText(KindTextarea),
		NewNumber(KindInteger, true),
		NewNumber(KindDecimal, false),
		Boolean{},
		Tags{},
		Dropdown{},
		NewRichText(),
	}
}

// Identity passes values through untouched.
type Identity struct{}

func (Identity) Kind() string { return KindIdentity }

func (Identity) ToDisplayString(_ context.Context, value content.Value, _ schema.Field) (string, error) {
	return value.Text(), nil
}

func (Identity) ToEditorModel(_ context.Context, value content.Value, _ schema.Field) (content.Value, error) {
	return value.Clone(), nil
}

func (Identity) FromEditorModel(_ context.Context, data EditorData) (content.Value, error) {
	return data.Value.Clone(), nil
}

func (Identity) Validators() []Validator { return nil }

// Text handles single and multi line strings. Configuration keys: maxChars
// and trim.
type Text struct {
	kind string
}

func NewText(kind string) *Text {
	return &Text{kind: kind}
}

func (t *Text) Kind() string { return t.kind }

func (t *Text) ToDisplayString(_ context.Context, value content.Value, _ schema.Field) (string, error) {
	return scalarText(t.kind, value)
}

func (t *Text) ToEditorModel(_ context.Context, value content.Value, _ schema.Field) (content.Value, error) {
	text, err := scalarText(t.kind, value)
	if err != nil {
		return content.Null(), err
	}
	return content.String(text), nil
}

func (t *Text) FromEditorModel(_ context.Context, data EditorData) (content.Value, error) {
	if data.Value.IsNull() {
		return content.Null(), nil
	}
	text, err := scalarText(t.kind, data.Value)
	if err != nil {
		return content.Null(), err
	}
	if trim, _ := options.Bool(data.Configuration, "trim"); trim {
		text = strings.TrimSpace(text)
	}
	return content.String(text), nil
}

func (t *Text) Validators() []Validator {
	return []Validator{ValidatorFunc(maxChars)}
}

func maxChars(_ context.Context, value content.Value, field schema.Field) []string {
	limit, ok := options.Int(field.Configuration, "maxChars")
	if !ok || limit <= 0 {
		return nil
	}
	text, ok := value.AsString()
	if !ok {
		return nil
	}
	if utf8.RuneCountInString(text) > limit {
		return []string{fmt.Sprintf("exceeds the maximum length of %d characters", limit)}
	}
	return nil
}

// Number stores JSON numbers. Configuration keys: min and max.
type Number struct {
	kind    string
	integer bool
}

func NewNumber(kind string, integer bool) *Number {
	return &Number{kind: kind, integer: integer}
}

func (n *Number) Kind() string { return n.kind }

func (n *Number) ToDisplayString(_ context.Context, value content.Value, _ schema.Field) (string, error) {
	num, ok, err := n.parse(value)
	if err != nil || !ok {
		return "", err
	}
	return num.Text(), nil
}

func (n *Number) ToEditorModel(_ context.Context, value content.Value, _ schema.Field) (content.Value, error) {
	num, _, err := n.parse(value)
	return num, err
}

func (n *Number) FromEditorModel(_ context.Context, data EditorData) (content.Value, error) {
	num, _, err := n.parse(data.Value)
	return num, err
}

func (n *Number) Validators() []Validator {
	return []Validator{ValidatorFunc(n.validate)}
}

func (n *Number) validate(_ context.Context, value content.Value, field schema.Field) []string {
	num, ok, err := n.parse(value)
	if err != nil {
		if n.integer {
			return []string{"is not a valid integer"}
		}
		return []string{"is not a valid number"}
	}
	if !ok {
		return nil
	}
	f, _ := num.AsFloat()
	var out []string
	if lower, ok := options.Float(field.Configuration, "min"); ok && f < lower {
		out = append(out, fmt.Sprintf("must be at least %s", formatFloat(lower)))
	}
	if upper, ok := options.Float(field.Configuration, "max"); ok && f > upper {
		out = append(out, fmt.Sprintf("must be at most %s", formatFloat(upper)))
	}
	return out
}

// parse returns the number held by value. Null and blank strings are absent.
func (n *Number) parse(value content.Value) (content.Value, bool, error) {
	switch value.Kind() {
	case content.KindNull:
		return content.Null(), false, nil
	case content.KindNumber:
		if n.integer {
			if _, ok := value.AsInt(); !ok {
				return content.Null(), false, InvalidShape(n.kind, value)
			}
		}
		return value, true, nil
	case content.KindString:
		raw, _ := value.AsString()
		raw = strings.TrimSpace(raw)
		if raw == "" {
			return content.Null(), false, nil
		}
		if n.integer {
			i, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return content.Null(), false, InvalidShape(n.kind, value)
			}
			return content.Int(i), true, nil
		}
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return content.Null(), false, InvalidShape(n.kind, value)
		}
		return content.Float(f), true, nil
	default:
		return content.Null(), false, InvalidShape(n.kind, value)
	}
}

// Boolean stores toggles as 1 or 0. Configuration key: default.
type Boolean struct{}

func (Boolean) Kind() string { return KindBoolean }

func (b Boolean) ToDisplayString(_ context.Context, value content.Value, field schema.Field) (string, error) {
	on, err := b.parse(value, field.Configuration)
	if err != nil {
		return "", err
	}
	if on {
		return "1", nil
	}
	return "0", nil
}

func (b Boolean) ToEditorModel(_ context.Context, value content.Value, field schema.Field) (content.Value, error) {
	on, err := b.parse(value, field.Configuration)
	if err != nil {
		return content.Null(), err
	}
	return content.Bool(on), nil
}

func (b Boolean) FromEditorModel(_ context.Context, data EditorData) (content.Value, error) {
	on, err := b.parse(data.Value, data.Configuration)
	if err != nil {
		return content.Null(), err
	}
	if on {
		return content.Int(1), nil
	}
	return content.Int(0), nil
}

func (Boolean) Validators() []Validator { return nil }

func (Boolean) parse(value content.Value, cfg map[string]any) (bool, error) {
	switch value.Kind() {
	case content.KindNull:
		def, _ := options.Bool(cfg, "default")
		return def, nil
	case content.KindBool:
		on, _ := value.AsBool()
		return on, nil
	case content.KindNumber:
		f, _ := value.AsFloat()
		return f != 0, nil
	case content.KindString:
		raw, _ := value.AsString()
		switch strings.ToLower(strings.TrimSpace(raw)) {
		case "1", "true", "on":
			return true, nil
		case "0", "false", "off", "":
			return false, nil
		}
		return false, InvalidShape(KindBoolean, value)
	default:
		return false, InvalidShape(KindBoolean, value)
	}
}

// Tags stores a de-duplicated array of strings. Comma separated text is
// accepted on input.
type Tags struct{}

func (Tags) Kind() string { return KindTags }

func (t Tags) ToDisplayString(_ context.Context, value content.Value, _ schema.Field) (string, error) {
	tags, err := stringList(KindTags, value, true)
	if err != nil {
		return "", err
	}
	return strings.Join(tags, ","), nil
}

func (t Tags) ToEditorModel(_ context.Context, value content.Value, _ schema.Field) (content.Value, error) {
	tags, err := stringList(KindTags, value, true)
	if err != nil {
		return content.Null(), err
	}
	return content.Strings(tags...), nil
}

func (t Tags) FromEditorModel(_ context.Context, data EditorData) (content.Value, error) {
	tags, err := stringList(KindTags, data.Value, true)
	if err != nil {
		return content.Null(), err
	}
	if len(tags) == 0 {
		return content.Null(), nil
	}
	return content.Strings(tags...), nil
}

func (Tags) Validators() []Validator { return nil }

// Dropdown picks from the configured items. Configuration keys: items and
// multiple.
type Dropdown struct{}

func (Dropdown) Kind() string { return KindDropdown }

func (Dropdown) ToDisplayString(_ context.Context, value content.Value, _ schema.Field) (string, error) {
	picked, err := stringList(KindDropdown, value, false)
	if err != nil {
		return "", err
	}
	return strings.Join(picked, ", "), nil
}

func (d Dropdown) ToEditorModel(_ context.Context, value content.Value, field schema.Field) (content.Value, error) {
	picked, err := stringList(KindDropdown, value, false)
	if err != nil {
		return content.Null(), err
	}
	if multiple, _ := options.Bool(field.Configuration, "multiple"); multiple {
		return content.Strings(picked...), nil
	}
	if len(picked) == 0 {
		return content.String(""), nil
	}
	return content.String(picked[0]), nil
}

func (d Dropdown) FromEditorModel(_ context.Context, data EditorData) (content.Value, error) {
	picked, err := stringList(KindDropdown, data.Value, false)
	if err != nil {
		return content.Null(), err
	}
	if len(picked) == 0 {
		return content.Null(), nil
	}
	if multiple, _ := options.Bool(data.Configuration, "multiple"); multiple {
		return content.Strings(picked...), nil
	}
	return content.String(picked[0]), nil
}

func (Dropdown) Validators() []Validator {
	return []Validator{ValidatorFunc(allowedValues)}
}

func allowedValues(_ context.Context, value content.Value, field schema.Field) []string {
	picked, err := stringList(KindDropdown, value, false)
	if err != nil {
		return []string{"is not a valid selection"}
	}
	var out []string
	if multiple, _ := options.Bool(field.Configuration, "multiple"); !multiple && len(picked) > 1 {
		out = append(out, "only allows a single value")
	}
	items, ok := options.Strings(field.Configuration, "items")
	if !ok || len(items) == 0 {
		return out
	}
	for _, p := range picked {
		if !containsFold(items, p) {
			out = append(out, fmt.Sprintf("value '%s' is not a valid option", p))
		}
	}
	return out
}

// stringList reads a string or an array of strings. Blank entries are
// dropped. With split set, text is treated as a comma separated list and
// duplicates are removed.
func stringList(kind string, value content.Value, split bool) ([]string, error) {
	var raw []string
	switch value.Kind() {
	case content.KindNull:
		return nil, nil
	case content.KindString:
		text, _ := value.AsString()
		if split {
			raw = strings.Split(text, ",")
		} else {
			raw = []string{text}
		}
	case content.KindArray:
		items, _ := value.AsArray()
		for _, item := range items {
			text, ok := item.AsString()
			if !ok {
				return nil, InvalidShape(kind, value)
			}
			raw = append(raw, text)
		}
	default:
		return nil, InvalidShape(kind, value)
	}

	out := make([]string, 0, len(raw))
	for _, item := range raw {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if split && containsFold(out, item) {
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

func scalarText(kind string, value content.Value) (string, error) {
	switch value.Kind() {
	case content.KindNull, content.KindString, content.KindNumber, content.KindBool:
		return value.Text(), nil
	default:
		return "", InvalidShape(kind, value)
	}
}

func containsFold(items []string, needle string) bool {
	for _, item := range items {
		if strings.EqualFold(item, needle) {
			return true
		}
	}
	return false
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
