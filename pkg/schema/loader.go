package schema

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/goliatone/go-stacked-content/pkg/domain"
	"github.com/goliatone/go-stacked-content/pkg/interfaces/store"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Definitions is the content of one or more schema definition files.
type Definitions struct {
	DataTypes    []DataTypeDefinition    `json:"data_types" yaml:"data_types"`
	ElementTypes []ElementTypeDefinition `json:"element_types" yaml:"element_types"`
}

type DataTypeDefinition struct {
	ID            string         `json:"id" yaml:"id"`
	Name          string         `json:"name" yaml:"name"`
	Editor        string         `json:"editor" yaml:"editor"`
	Configuration map[string]any `json:"configuration" yaml:"configuration"`
}

type ElementTypeDefinition struct {
	ID          string               `json:"id" yaml:"id"`
	Alias       string               `json:"alias" yaml:"alias"`
	Name        string               `json:"name" yaml:"name"`
	Description string               `json:"description" yaml:"description"`
	Icon        string               `json:"icon" yaml:"icon"`
	SortOrder   int                  `json:"sort_order" yaml:"sort_order"`
	Groups      []string             `json:"groups" yaml:"groups"`
	Properties  []PropertyDefinition `json:"properties" yaml:"properties"`
}

type PropertyDefinition struct {
	Alias         string         `json:"alias" yaml:"alias"`
	Name          string         `json:"name" yaml:"name"`
	Description   string         `json:"description" yaml:"description"`
	Editor        string         `json:"editor" yaml:"editor"`
	DataType      string         `json:"data_type" yaml:"data_type"`
	Configuration map[string]any `json:"configuration" yaml:"configuration"`
	Mandatory     bool           `json:"mandatory" yaml:"mandatory"`
	Pattern       string         `json:"pattern" yaml:"pattern"`
	Variations    string         `json:"variations" yaml:"variations"`
	Group         string         `json:"group" yaml:"group"`
}

// LoadFS walks fsys and merges every JSON/YAML definition file.
// A nil filesystem yields empty definitions.
func LoadFS(fsys fs.FS) (Definitions, error) {
	var defs Definitions
	if fsys == nil {
		return defs, nil
	}

	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isDefinitionFile(path) {
			return nil
		}
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("schema: read %s: %w", path, err)
		}
		doc, err := parseDefinitions(data, path)
		if err != nil {
			return err
		}
		defs.DataTypes = append(defs.DataTypes, doc.DataTypes...)
		defs.ElementTypes = append(defs.ElementTypes, doc.ElementTypes...)
		return nil
	})
	if err != nil {
		return Definitions{}, err
	}
	return defs, defs.validate()
}

func parseDefinitions(data []byte, source string) (Definitions, error) {
	var doc Definitions
	if strings.TrimSpace(string(data)) == "" {
		return doc, fmt.Errorf("schema: file %s is empty", source)
	}
	if strings.EqualFold(filepath.Ext(source), ".json") {
		if err := json.Unmarshal(data, &doc); err != nil {
			return Definitions{}, fmt.Errorf("schema: parse %s: %w", source, err)
		}
		return doc, nil
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Definitions{}, fmt.Errorf("schema: parse %s: %w", source, err)
	}
	return doc, nil
}

func isDefinitionFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}

func (d Definitions) validate() error {
	aliases := map[string]struct{}{}
	for _, et := range d.ElementTypes {
		key := normalizeKey(et.Alias)
		if key == "" {
			return fmt.Errorf("schema: element type %q has no alias", et.Name)
		}
		if _, dup := aliases[key]; dup {
			return fmt.Errorf("schema: duplicate element type alias %q", et.Alias)
		}
		aliases[key] = struct{}{}

		props := map[string]struct{}{}
		for _, prop := range et.Properties {
			pkey := normalizeKey(prop.Alias)
			if pkey == "" {
				return fmt.Errorf("schema: element type %q has a property without alias", et.Alias)
			}
			if _, dup := props[pkey]; dup {
				return fmt.Errorf("schema: element type %q defines %q twice", et.Alias, prop.Alias)
			}
			props[pkey] = struct{}{}
		}
	}
	return nil
}

// Seed creates the data types and element types described by defs. Items
// whose name or alias already exists are left untouched.
func Seed(ctx context.Context, defs Definitions, elementTypes store.ElementTypeRepository, dataTypes store.DataTypeRepository) error {
	dataTypeIDs := map[string]uuid.UUID{}
	for _, def := range defs.DataTypes {
		existing, err := dataTypes.GetByName(ctx, def.Name)
		if err == nil {
			dataTypeIDs[normalizeKey(def.Name)] = existing.ID
			continue
		}
		if !errors.Is(err, store.ErrNotFound) {
			return err
		}
		dt := &domain.DataType{
			Name:          def.Name,
			EditorAlias:   def.Editor,
			Configuration: domain.JSONMap(def.Configuration),
		}
		id, err := parseOptionalID(def.ID)
		if err != nil {
			return fmt.Errorf("schema: data type %q: %w", def.Name, err)
		}
		dt.ID = id
		if err := dataTypes.Create(ctx, dt); err != nil {
			return fmt.Errorf("schema: create data type %q: %w", def.Name, err)
		}
		dataTypeIDs[normalizeKey(def.Name)] = dt.ID
	}

	for _, def := range defs.ElementTypes {
		if _, err := elementTypes.GetByAlias(ctx, def.Alias); err == nil {
			continue
		} else if !errors.Is(err, store.ErrNotFound) {
			return err
		}
		et := &domain.ElementType{
			Alias:       def.Alias,
			Name:        def.Name,
			Description: def.Description,
			Icon:        def.Icon,
			SortOrder:   def.SortOrder,
			Groups:      domain.StringList(def.Groups),
		}
		id, err := parseOptionalID(def.ID)
		if err != nil {
			return fmt.Errorf("schema: element type %q: %w", def.Alias, err)
		}
		et.ID = id
		for i, prop := range def.Properties {
			pt := domain.PropertyType{
				Alias:            prop.Alias,
				Name:             prop.Name,
				Description:      prop.Description,
				EditorAlias:      prop.Editor,
				Configuration:    domain.JSONMap(prop.Configuration),
				Mandatory:        prop.Mandatory,
				ValidationRegExp: prop.Pattern,
				Variations:       domain.Variation(prop.Variations),
				Group:            prop.Group,
				SortOrder:        i,
			}
			if name := normalizeKey(prop.DataType); name != "" {
				dtID, ok := dataTypeIDs[name]
				if !ok {
					return fmt.Errorf("schema: element type %q property %q references unknown data type %q", def.Alias, prop.Alias, prop.DataType)
				}
				pt.DataTypeID = dtID
			}
			et.Properties = append(et.Properties, pt)
		}
		if err := elementTypes.Create(ctx, et); err != nil {
			return fmt.Errorf("schema: create element type %q: %w", def.Alias, err)
		}
	}
	return nil
}

func parseOptionalID(raw string) (uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return uuid.Nil, nil
	}
	return uuid.Parse(raw)
}
