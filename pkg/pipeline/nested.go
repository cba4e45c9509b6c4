package pipeline

import (
	"context"
	"sync"

	"github.com/goliatone/go-stacked-content/pkg/content"
	"github.com/goliatone/go-stacked-content/pkg/editors"
	"github.com/goliatone/go-stacked-content/pkg/interfaces/logger"
	"github.com/goliatone/go-stacked-content/pkg/options"
	"github.com/goliatone/go-stacked-content/pkg/schema"
	"github.com/goliatone/go-stacked-content/pkg/validation"
)

// Messages reported for nested values that cannot be checked.
const (
	MessageNestedInvalid    = "is not a valid stacked content value"
	MessageNestedUnverified = "could not be validated"
)

// KindStackedContent is the editor kind of a nested compound value.
const KindStackedContent = "stackedcontent"

// StackedContent is the field editor for a compound value nested inside a
// record. It delegates back into the converter. The field configuration key
// singleItemMode applies the single item rule to the nested value.
type StackedContent struct {
	converter *Converter

	once      sync.Once
	validator *validation.Validator
	err       error
}

var _ editors.Editor = (*StackedContent)(nil)

// NewStackedContentEditor builds the nested editor for c.
func NewStackedContentEditor(c *Converter) *StackedContent {
	return &StackedContent{converter: c}
}

// RegisterNested adds the nested editor to the converter's own registry.
func (c *Converter) RegisterNested() *Converter {
	c.editors.MustRegister(NewStackedContentEditor(c))
	return c
}

func (s *StackedContent) Kind() string { return KindStackedContent }

func (s *StackedContent) ToDisplayString(ctx context.Context, value content.Value, field schema.Field) (string, error) {
	list, ok, err := s.list(value, field)
	if err != nil || !ok {
		return "", err
	}
	out, err := s.converter.ConvertList(ctx, ToDisplayString, list)
	if err != nil {
		return "", err
	}
	return out.Encode()
}

func (s *StackedContent) ToEditorModel(ctx context.Context, value content.Value, field schema.Field) (content.Value, error) {
	list, ok, err := s.list(value, field)
	if err != nil {
		return content.Null(), err
	}
	if !ok {
		return content.Array(), nil
	}
	out, err := s.converter.ConvertList(ctx, ToEditorModel, list)
	if err != nil {
		return content.Null(), err
	}
	return out.Value(), nil
}

func (s *StackedContent) FromEditorModel(ctx context.Context, data editors.EditorData) (content.Value, error) {
	list, ok, err := s.list(data.Value, data.Field)
	if err != nil || !ok || len(list) == 0 {
		return content.Null(), err
	}
	out, err := s.converter.ConvertList(ctx, FromEditorModel, list)
	if err != nil {
		return content.Null(), err
	}
	return out.Value(), nil
}

// Validators runs the validation pass over the nested records. Nested
// messages keep their own item prefix and are reported under the outer field.
func (s *StackedContent) Validators() []editors.Validator {
	return []editors.Validator{editors.ValidatorFunc(s.validateNested)}
}

func (s *StackedContent) validateNested(ctx context.Context, value content.Value, field schema.Field) []string {
	list, ok, err := s.list(value, field)
	if err != nil {
		if editors.IsInvalidShape(err) {
			return []string{MessageNestedInvalid}
		}
		return []string{err.Error()}
	}
	if !ok {
		return nil
	}

	v, err := s.nestedValidator()
	if err != nil {
		return []string{MessageNestedUnverified}
	}
	seq, err := v.ValidateList(ctx, list)
	if err != nil {
		s.converter.logger.Error("nested validation failed",
			logger.Field{Key: "field", Value: field.Alias},
			logger.Field{Key: "error", Value: err},
		)
		return []string{MessageNestedUnverified}
	}
	var out []string
	for r := range seq {
		out = append(out, r.Message)
	}
	return out
}

func (s *StackedContent) nestedValidator() (*validation.Validator, error) {
	s.once.Do(func() {
		s.validator, s.err = validation.New(validation.Dependencies{
			Resolver: s.converter.resolver,
			Editors:  s.converter.editors,
			Logger:   s.converter.logger,
		})
	})
	return s.validator, s.err
}

// list accepts the nested value either as an array or as JSON text.
func (s *StackedContent) list(value content.Value, field schema.Field) (content.List, bool, error) {
	var (
		list content.List
		err  error
	)
	switch value.Kind() {
	case content.KindNull:
		return nil, false, nil
	case content.KindString:
		raw, _ := value.AsString()
		if content.IsBlankText(raw) {
			return nil, false, nil
		}
		list, err = content.ParseList(raw)
	case content.KindArray:
		list, err = content.ListFromValue(value)
	default:
		return nil, false, editors.InvalidShape(KindStackedContent, value)
	}
	if err != nil {
		return nil, false, editors.InvalidShape(KindStackedContent, value)
	}
	if single, _ := options.Bool(field.Configuration, "singleItemMode"); single {
		if err := checkSingle(len(list)); err != nil {
			return nil, false, err
		}
	}
	return list, true, nil
}
