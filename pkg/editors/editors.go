package editors

import (
	"context"
	"errors"
	"fmt"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-stacked-content/pkg/content"
	"github.com/goliatone/go-stacked-content/pkg/schema"
)

var (
	// ErrInvalidShape marks a value the editor cannot interpret. Callers
	// converting nested records null the field instead of failing.
	ErrInvalidShape = errors.New("editors: invalid value shape")
	// ErrKindRequired is returned when registering an editor without a kind.
	ErrKindRequired = errors.New("editors: editor kind is required")
)

// Editor converts and validates the values of one field kind.
type Editor interface {
	Kind() string
	// ToDisplayString renders the stored value as text.
	ToDisplayString(ctx context.Context, value content.Value, field schema.Field) (string, error)
	// ToEditorModel projects the stored value into the shape the editing
	// surface works with.
	ToEditorModel(ctx context.Context, value content.Value, field schema.Field) (content.Value, error)
	// FromEditorModel converts a submitted value into its stored shape.
	FromEditorModel(ctx context.Context, data EditorData) (content.Value, error)
	Validators() []Validator
}

// EditorData carries a submitted value together with the field it belongs to.
type EditorData struct {
	Value         content.Value
	Configuration map[string]any
	Field         schema.Field
}

// Validator checks a stored value and returns unprefixed messages.
type Validator interface {
	Validate(ctx context.Context, value content.Value, field schema.Field) []string
}

// ValidatorFunc adapts a function into a Validator.
type ValidatorFunc func(ctx context.Context, value content.Value, field schema.Field) []string

func (f ValidatorFunc) Validate(ctx context.Context, value content.Value, field schema.Field) []string {
	return f(ctx, value, field)
}

// InvalidShape reports that kind cannot handle the given value.
func InvalidShape(kind string, value content.Value) error {
	return goerrors.Wrap(ErrInvalidShape, goerrors.CategoryBadInput, fmt.Sprintf("%s editor cannot handle a %s value", kind, value.Kind())).
		WithTextCode("INVALID_SHAPE").
		WithMetadata(map[string]any{"kind": kind, "value_kind": value.Kind().String()})
}

// IsInvalidShape reports whether err is a categorical input-shape failure.
func IsInvalidShape(err error) bool {
	return goerrors.IsCategory(err, goerrors.CategoryBadInput)
}
