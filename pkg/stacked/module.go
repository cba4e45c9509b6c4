package stacked

import (
	"context"
	"io/fs"

	i18n "github.com/goliatone/go-i18n"
	"github.com/goliatone/go-stacked-content/internal/di"
	"github.com/goliatone/go-stacked-content/pkg/blueprints"
	"github.com/goliatone/go-stacked-content/pkg/commands"
	"github.com/goliatone/go-stacked-content/pkg/config"
	"github.com/goliatone/go-stacked-content/pkg/content"
	"github.com/goliatone/go-stacked-content/pkg/editors"
	"github.com/goliatone/go-stacked-content/pkg/elementtypes"
	"github.com/goliatone/go-stacked-content/pkg/interfaces/cache"
	"github.com/goliatone/go-stacked-content/pkg/interfaces/logger"
	"github.com/goliatone/go-stacked-content/pkg/pipeline"
	"github.com/goliatone/go-stacked-content/pkg/render"
	"github.com/goliatone/go-stacked-content/pkg/schema"
	"github.com/goliatone/go-stacked-content/pkg/session"
	"github.com/goliatone/go-stacked-content/pkg/storage"
	"github.com/goliatone/go-stacked-content/pkg/validation"
)

// ModuleOptions configure the stacked content module facade.
type ModuleOptions struct {
	Config         config.Config
	Storage        storage.Providers
	Logger         logger.Logger
	Cache          cache.Cache
	Editors        *editors.Registry
	Translator     i18n.Translator
	Partials       fs.FS
	EditorDefaults map[string]map[string]any
}

// Module bundles the container and exposes high-level accessors.
type Module struct {
	container *di.Container
}

// NewModule assembles repositories, the value pipeline, services and commands.
func NewModule(opts ModuleOptions) (*Module, error) {
	container, err := di.New(di.Options{
		Config:         opts.Config,
		Storage:        opts.Storage,
		Logger:         opts.Logger,
		Cache:          opts.Cache,
		Editors:        opts.Editors,
		Translator:     opts.Translator,
		Partials:       opts.Partials,
		EditorDefaults: opts.EditorDefaults,
	})
	if err != nil {
		return nil, err
	}
	return &Module{container: container}, nil
}

// converter returns the converter matching the configured item mode.
func (m *Module) converter() *pipeline.Converter {
	if m.container.Config.Editor.SingleItemMode {
		return m.container.Single
	}
	return m.container.Converter
}

// ToDisplayString flattens a stored value into searchable text.
func (m *Module) ToDisplayString(ctx context.Context, raw string) (string, error) {
	return m.converter().ToDisplayString(ctx, raw)
}

// ToEditorModel prepares a stored value for the editor.
func (m *Module) ToEditorModel(ctx context.Context, raw string) (content.Value, error) {
	return m.converter().ToEditorModel(ctx, raw)
}

// FromEditorModel normalizes an editor value for storage. The boolean is
// false when the editor submitted nothing.
func (m *Module) FromEditorModel(ctx context.Context, raw string) (string, bool, error) {
	return m.converter().FromEditorModel(ctx, raw)
}

// Validate runs the validation pass and returns every result.
func (m *Module) Validate(ctx context.Context, raw string) ([]validation.Result, error) {
	seq, err := m.container.Validator.Validate(ctx, raw)
	if err != nil {
		return nil, err
	}
	return validation.Collect(seq), nil
}

// Render renders a stored value through its partials.
func (m *Module) Render(ctx context.Context, req render.Request) (string, error) {
	if m.container.Config.Editor.SingleItemMode {
		return m.container.Renderer.RenderSingle(ctx, req)
	}
	return m.container.Renderer.Render(ctx, req)
}

// NewSession opens an editing session over a stored value. Allowed limits
// the element types by alias; empty allows every type.
func (m *Module) NewSession(ctx context.Context, raw string, allowed []string, deps session.Dependencies) (*session.Session, error) {
	var list content.List
	if !content.IsBlankText(raw) {
		decoded, err := m.converter().Decode(raw)
		if err != nil {
			return nil, err
		}
		list = decoded
	}
	choices, err := m.container.ElementTypes.Choices(ctx, allowed)
	if err != nil {
		return nil, err
	}
	if deps.Scaffolder == nil {
		deps.Scaffolder = m.container.ElementTypes
	}
	if deps.Namer == nil {
		deps.Namer = m.container.Namer
	}
	if deps.Logger == nil {
		deps.Logger = m.container.Logger
	}
	return session.New(ctx, deps, m.container.SessionConfig(choices), list)
}

// Seed loads schema definition files from fsys into the repositories.
func (m *Module) Seed(ctx context.Context, fsys fs.FS) error {
	defs, err := schema.LoadFS(fsys)
	if err != nil {
		return err
	}
	return m.container.Commands.SeedSchemas.Execute(ctx, commands.SeedSchemas{Definitions: defs})
}

// ElementTypes returns the element type read service.
func (m *Module) ElementTypes() *elementtypes.Service {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.ElementTypes
}

// Blueprints returns the blueprint service.
func (m *Module) Blueprints() *blueprints.Service {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.Blueprints
}

// Converter returns the compound value converter.
func (m *Module) Converter() *pipeline.Converter {
	if m == nil || m.container == nil {
		return nil
	}
	return m.converter()
}

// Renderer returns the partial renderer.
func (m *Module) Renderer() *render.Renderer {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.Renderer
}

// Commands returns the go-command registry.
func (m *Module) Commands() *commands.Registry {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.Commands
}

// Config returns the effective module configuration.
func (m *Module) Config() config.Config {
	if m == nil || m.container == nil {
		return config.Config{}
	}
	return m.container.Config
}

// Container returns the internal DI container.
// This is exposed for advanced use cases like direct storage access.
func (m *Module) Container() *di.Container {
	if m == nil {
		return nil
	}
	return m.container
}
