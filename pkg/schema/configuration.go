package schema

import (
	"context"
	"errors"

	"github.com/goliatone/go-stacked-content/pkg/domain"
	"github.com/goliatone/go-stacked-content/pkg/interfaces/store"
	"github.com/goliatone/go-stacked-content/pkg/options"
	"github.com/google/uuid"
)

// Configuration is the editor setup for one property.
type Configuration struct {
	EditorAlias string
	Values      map[string]any
}

// ConfigurationSource resolves the editor configuration of a property.
type ConfigurationSource interface {
	Configuration(ctx context.Context, prop domain.PropertyType) (Configuration, error)
}

// InlineConfiguration uses the configuration stored on the property itself.
type InlineConfiguration struct{}

func (InlineConfiguration) Configuration(_ context.Context, prop domain.PropertyType) (Configuration, error) {
	values, err := options.MergeConfiguration(nil, nil, prop.Configuration)
	if err != nil {
		return Configuration{}, err
	}
	return Configuration{EditorAlias: prop.EditorAlias, Values: values}, nil
}

// DataTypeConfiguration layers editor defaults, the referenced data type and
// the property overrides.
type DataTypeConfiguration struct {
	DataTypes store.DataTypeRepository
	// Defaults holds per-editor default configuration keyed by editor alias.
	Defaults map[string]map[string]any
}

func (c DataTypeConfiguration) Configuration(ctx context.Context, prop domain.PropertyType) (Configuration, error) {
	editor := prop.EditorAlias
	var dataTypeValues map[string]any
	if prop.DataTypeID != uuid.Nil && c.DataTypes != nil {
		dt, err := c.DataTypes.GetByID(ctx, prop.DataTypeID)
		switch {
		case err == nil:
			dataTypeValues = dt.Configuration
			if editor == "" {
				editor = dt.EditorAlias
			}
		case errors.Is(err, store.ErrNotFound):
		default:
			return Configuration{}, err
		}
	}
	values, err := options.MergeConfiguration(c.Defaults[editor], dataTypeValues, prop.Configuration)
	if err != nil {
		return Configuration{}, err
	}
	return Configuration{EditorAlias: editor, Values: values}, nil
}
