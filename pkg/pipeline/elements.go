package pipeline

import (
	"context"

	"github.com/goliatone/go-stacked-content/pkg/content"
	"github.com/goliatone/go-stacked-content/pkg/interfaces/logger"
	"github.com/goliatone/go-stacked-content/pkg/schema"
	"github.com/google/uuid"
)

// Element is a record ready for rendering: its resolved schema plus field
// values in editor model form.
type Element struct {
	Index  int
	Key    uuid.UUID
	Name   string
	Schema *schema.Schema
	Record *content.Record
}

// Values returns the business fields keyed by alias.
func (e Element) Values() map[string]any {
	out := map[string]any{}
	for alias, value := range e.Record.All() {
		if content.IsReserved(alias) {
			continue
		}
		out[alias] = plain(value)
	}
	return out
}

// Elements decodes stored text into renderable elements. Records whose
// schema cannot be resolved have nothing to render and are skipped.
func (c *Converter) Elements(ctx context.Context, raw string) ([]Element, error) {
	if content.IsBlankText(raw) {
		return nil, nil
	}
	list, err := c.Decode(raw)
	if err != nil {
		return nil, err
	}
	return c.elements(ctx, list)
}

// ConvertSingle is Elements for a single item value: no records yield nil and
// more than one record fails with ErrCardinality.
func (c *Converter) ConvertSingle(ctx context.Context, raw string) (*Element, error) {
	if content.IsBlankText(raw) {
		return nil, nil
	}
	list, err := c.Decode(raw)
	if err != nil {
		return nil, err
	}
	if err := checkSingle(len(list)); err != nil {
		return nil, err
	}
	elements, err := c.elements(ctx, list)
	if err != nil || len(elements) == 0 {
		return nil, err
	}
	return &elements[0], nil
}

func (c *Converter) elements(ctx context.Context, list content.List) ([]Element, error) {
	out := make([]Element, 0, len(list))
	for i, rec := range list {
		res, ok, err := c.resolver.Resolve(ctx, rec)
		if err != nil {
			return nil, err
		}
		if !ok {
			c.logger.Debug("skipping element without a known element type",
				logger.Field{Key: "index", Value: i},
				logger.Field{Key: "ref", Value: rec.TypeRef().String()},
			)
			continue
		}
		converted, err := c.ConvertRecord(ctx, ToEditorModel, rec)
		if err != nil {
			return nil, err
		}
		key, _ := converted.Key()
		out = append(out, Element{
			Index:  i,
			Key:    key,
			Name:   converted.Name(),
			Schema: res.Schema,
			Record: converted,
		})
	}
	return out, nil
}

// plain converts a value into Go values for template contexts.
func plain(v content.Value) any {
	switch v.Kind() {
	case content.KindString:
		s, _ := v.AsString()
		return s
	case content.KindNumber:
		if n, ok := v.AsInt(); ok {
			return n
		}
		f, _ := v.AsFloat()
		return f
	case content.KindBool:
		b, _ := v.AsBool()
		return b
	case content.KindObject:
		rec, _ := v.AsObject()
		out := map[string]any{}
		for alias, item := range rec.All() {
			out[alias] = plain(item)
		}
		return out
	case content.KindArray:
		items, _ := v.AsArray()
		out := make([]any, len(items))
		for i, item := range items {
			out[i] = plain(item)
		}
		return out
	default:
		return nil
	}
}
