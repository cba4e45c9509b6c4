package pipeline

import (
	"context"
	"errors"
	"fmt"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-stacked-content/pkg/content"
	"github.com/goliatone/go-stacked-content/pkg/editors"
	"github.com/goliatone/go-stacked-content/pkg/interfaces/logger"
	"github.com/goliatone/go-stacked-content/pkg/schema"
)

var (
	// ErrMalformedValue is returned when stored or submitted text is not a
	// JSON array of objects.
	ErrMalformedValue = errors.New("pipeline: malformed value")
	// ErrCardinality is returned when a single item value holds more than one
	// record.
	ErrCardinality = errors.New("pipeline: single item value holds more than one record")
	// ErrResolverRequired is returned when no schema resolver is configured.
	ErrResolverRequired = errors.New("pipeline: schema resolver is required")
)

// Direction selects one of the three conversions.
type Direction int

const (
	ToDisplayString Direction = iota
	ToEditorModel
	FromEditorModel
)

func (d Direction) String() string {
	switch d {
	case ToDisplayString:
		return "display"
	case ToEditorModel:
		return "editor"
	case FromEditorModel:
		return "storage"
	default:
		return fmt.Sprintf("direction(%d)", int(d))
	}
}

// ParseDirection maps display, editor and storage to a Direction.
func ParseDirection(name string) (Direction, error) {
	switch name {
	case "display":
		return ToDisplayString, nil
	case "editor":
		return ToEditorModel, nil
	case "storage":
		return FromEditorModel, nil
	default:
		return 0, goerrors.New(fmt.Sprintf("pipeline: unknown direction %q", name), goerrors.CategoryBadInput)
	}
}

// SchemaResolver resolves the schema of a record.
type SchemaResolver interface {
	Resolve(ctx context.Context, rec *content.Record) (schema.Resolution, bool, error)
}

// Dependencies wires the converter collaborators.
type Dependencies struct {
	Resolver SchemaResolver
	Editors  *editors.Registry
	Logger   logger.Logger
}

// Option customises a Converter.
type Option func(*Converter)

// WithSingleItem restricts values to at most one record.
func WithSingleItem() Option {
	return func(c *Converter) {
		c.singleItem = true
	}
}

// Converter runs compound values through the field editors of each record's
// schema.
type Converter struct {
	resolver   SchemaResolver
	editors    *editors.Registry
	logger     logger.Logger
	singleItem bool
}

// New builds a converter. A nil registry behaves as an empty one, so every
// field passes through.
func New(deps Dependencies, opts ...Option) (*Converter, error) {
	if deps.Resolver == nil {
		return nil, ErrResolverRequired
	}
	if deps.Editors == nil {
		deps.Editors = editors.NewRegistry()
	}
	if deps.Logger == nil {
		deps.Logger = &logger.Nop{}
	}
	c := &Converter{
		resolver: deps.Resolver,
		editors:  deps.Editors,
		logger:   deps.Logger,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// SingleItem reports whether the converter enforces the single item rule.
func (c *Converter) SingleItem() bool { return c.singleItem }

// ToDisplayString converts stored text into its display form. Blank input
// yields an empty string.
func (c *Converter) ToDisplayString(ctx context.Context, raw string) (string, error) {
	if content.IsBlankText(raw) {
		return "", nil
	}
	list, err := c.Decode(raw)
	if err != nil {
		return "", err
	}
	out, err := c.ConvertList(ctx, ToDisplayString, list)
	if err != nil {
		return "", err
	}
	return out.Encode()
}

// ToEditorModel converts stored text into the structural editor model. Blank
// input yields an empty string value.
func (c *Converter) ToEditorModel(ctx context.Context, raw string) (content.Value, error) {
	if content.IsBlankText(raw) {
		return content.String(""), nil
	}
	list, err := c.Decode(raw)
	if err != nil {
		return content.Null(), err
	}
	out, err := c.ConvertList(ctx, ToEditorModel, list)
	if err != nil {
		return content.Null(), err
	}
	return out.Value(), nil
}

// FromEditorModel converts submitted text into stored text. The boolean is
// false when there is no value to store: blank input or an empty list.
func (c *Converter) FromEditorModel(ctx context.Context, raw string) (string, bool, error) {
	if content.IsBlankText(raw) {
		return "", false, nil
	}
	list, err := c.Decode(raw)
	if err != nil {
		return "", false, err
	}
	if len(list) == 0 {
		return "", false, nil
	}
	out, err := c.ConvertList(ctx, FromEditorModel, list)
	if err != nil {
		return "", false, err
	}
	stored, err := out.Encode()
	if err != nil {
		return "", false, err
	}
	return stored, true, nil
}

// Decode parses text into records, enforcing the single item rule when
// configured.
func (c *Converter) Decode(raw string) (content.List, error) {
	list, err := content.ParseList(raw)
	if err != nil {
		return nil, goerrors.Wrap(ErrMalformedValue, goerrors.CategoryBadInput, err.Error()).
			WithTextCode("MALFORMED_VALUE")
	}
	if c.singleItem {
		if err := checkSingle(len(list)); err != nil {
			return nil, err
		}
	}
	return list, nil
}

// ConvertList converts every record of list in order and returns a new list
// of the same length. The input is not modified.
func (c *Converter) ConvertList(ctx context.Context, dir Direction, list content.List) (content.List, error) {
	out := make(content.List, len(list))
	for i, rec := range list {
		converted, err := c.ConvertRecord(ctx, dir, rec)
		if err != nil {
			return nil, fmt.Errorf("pipeline: item %d: %w", i+1, err)
		}
		out[i] = converted
	}
	return out, nil
}

// ConvertRecord converts the fields of a single record. Records whose schema
// cannot be resolved are returned as an unmodified copy.
func (c *Converter) ConvertRecord(ctx context.Context, dir Direction, rec *content.Record) (*content.Record, error) {
	res, ok, err := c.resolver.Resolve(ctx, rec)
	if err != nil {
		return nil, err
	}
	if !ok {
		return rec.Clone(), nil
	}

	out := rec.Clone()
	if dir != ToDisplayString {
		if res.Normalized != nil {
			out = res.Normalized.Clone()
		}
		out.EnsureKey()
	}

	for _, alias := range out.Keys() {
		if content.IsReserved(alias) {
			continue
		}
		field, ok := res.Schema.Field(alias)
		if !ok {
			out.Delete(alias)
			continue
		}
		value, _ := out.Get(alias)
		converted, err := c.Dispatch(ctx, dir, value, field)
		if err != nil {
			if !editors.IsInvalidShape(err) {
				return nil, fmt.Errorf("pipeline: %s.%s: %w", res.Schema.Alias, field.Alias, err)
			}
			c.logger.Warn("field value has an unexpected shape",
				logger.Field{Key: "element_type", Value: res.Schema.Alias},
				logger.Field{Key: "field", Value: field.Alias},
				logger.Field{Key: "direction", Value: dir.String()},
				logger.Field{Key: "error", Value: err},
			)
			converted = content.Null()
		}
		out.Set(alias, converted)
	}
	return out, nil
}

// Dispatch converts one field value with the editor registered for the
// field kind. Unknown kinds pass the value through.
func (c *Converter) Dispatch(ctx context.Context, dir Direction, value content.Value, field schema.Field) (content.Value, error) {
	editor, ok := c.editors.Lookup(field.Kind)
	if !ok {
		c.logger.Debug("no editor registered for field kind",
			logger.Field{Key: "field", Value: field.Alias},
			logger.Field{Key: "kind", Value: field.Kind},
		)
		return value.Clone(), nil
	}

	switch dir {
	case ToDisplayString:
		text, err := editor.ToDisplayString(ctx, value, field)
		if err != nil {
			return content.Null(), err
		}
		return content.String(text), nil
	case ToEditorModel:
		return editor.ToEditorModel(ctx, value, field.Invariant())
	case FromEditorModel:
		return editor.FromEditorModel(ctx, editors.EditorData{
			Value:         value,
			Configuration: field.Configuration,
			Field:         field,
		})
	default:
		return content.Null(), fmt.Errorf("pipeline: unsupported direction %s", dir)
	}
}

// Editors exposes the registry used for dispatch.
func (c *Converter) Editors() *editors.Registry { return c.editors }

func checkSingle(count int) error {
	if count <= 1 {
		return nil
	}
	return goerrors.Wrap(ErrCardinality, goerrors.CategoryValidation, fmt.Sprintf("expected at most one record, got %d", count)).
		WithTextCode("TOO_MANY_ITEMS")
}
