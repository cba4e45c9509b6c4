package di

import (
	"errors"
	"io/fs"
	"os"
	"reflect"

	i18n "github.com/goliatone/go-i18n"
	"github.com/goliatone/go-stacked-content/pkg/blueprints"
	"github.com/goliatone/go-stacked-content/pkg/commands"
	"github.com/goliatone/go-stacked-content/pkg/config"
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

// Options configure the DI container.
type Options struct {
	Config  config.Config
	Storage storage.Providers
	Logger  logger.Logger
	Cache   cache.Cache
	// Editors replaces the built-in editor registry.
	Editors    *editors.Registry
	Translator i18n.Translator
	// Partials is the filesystem partial paths are resolved against.
	// Defaults to the working directory.
	Partials fs.FS
	// EditorDefaults holds per-editor default configuration keyed by editor alias.
	EditorDefaults map[string]map[string]any
}

// Container wires repositories, the schema resolver, the value pipeline and
// the services built on top of it.
type Container struct {
	Config       config.Config
	Storage      storage.Providers
	Resolver     *schema.Resolver
	Editors      *editors.Registry
	Converter    *pipeline.Converter
	Single       *pipeline.Converter
	Validator    *validation.Validator
	Renderer     *render.Renderer
	Namer        *session.Namer
	ElementTypes *elementtypes.Service
	Blueprints   *blueprints.Service
	Commands     *commands.Registry
	Logger       logger.Logger
}

func isZeroConfig(cfg config.Config) bool {
	return reflect.ValueOf(cfg).IsZero()
}

// New constructs the container using the supplied options.
func New(opts Options) (*Container, error) {
	cfg := opts.Config
	if isZeroConfig(cfg) {
		cfg = config.Defaults()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	providers := opts.Storage
	if providers.ElementTypes == nil {
		providers = storage.NewMemoryProviders()
	}
	if providers.DataTypes == nil || providers.Blueprints == nil {
		return nil, errors.New("di: storage providers are incomplete")
	}

	lgr := opts.Logger
	if lgr == nil {
		lgr = &logger.Nop{}
	}

	c := opts.Cache
	if c == nil {
		c = cache.NewMemory()
	}

	registry := opts.Editors
	if registry == nil {
		registry = editors.NewDefaultRegistry()
	}

	resolver, err := schema.NewResolver(schema.Dependencies{
		Source: providers.ElementTypes,
		Configurations: schema.DataTypeConfiguration{
			DataTypes: providers.DataTypes,
			Defaults:  opts.EditorDefaults,
		},
		Cache:    c,
		CacheTTL: cfg.Schemas.CacheTTL,
		Logger:   lgr,
	})
	if err != nil {
		return nil, err
	}

	converter, err := pipeline.New(pipeline.Dependencies{
		Resolver: resolver,
		Editors:  registry,
		Logger:   lgr,
	})
	if err != nil {
		return nil, err
	}
	converter.RegisterNested()

	single, err := pipeline.New(pipeline.Dependencies{
		Resolver: resolver,
		Editors:  registry,
		Logger:   lgr,
	}, pipeline.WithSingleItem())
	if err != nil {
		return nil, err
	}

	validator, err := validation.New(validation.Dependencies{
		Resolver: resolver,
		Editors:  registry,
		Logger:   lgr,
	})
	if err != nil {
		return nil, err
	}

	files := opts.Partials
	if files == nil {
		files = os.DirFS(".")
	}
	renderConverter := converter
	if cfg.Editor.SingleItemMode {
		renderConverter = single
	}
	renderer, err := render.New(render.Dependencies{
		Files:     files,
		Converter: renderConverter,
		Logger:    lgr,
	}, render.Config{
		PathToPartials:   cfg.Rendering.PathToPartials,
		ContainerPartial: cfg.Rendering.ContainerPartial,
		PartialExtension: cfg.Rendering.PartialExtension,
	})
	if err != nil {
		return nil, err
	}

	namer, err := session.NewNamer(cfg.Editor.NameTemplate)
	if err != nil {
		return nil, err
	}

	elementSvc, err := elementtypes.NewService(elementtypes.Dependencies{
		ElementTypes: providers.ElementTypes,
		Blueprints:   providers.Blueprints,
		Resolver:     resolver,
		Converter:    converter,
		Logger:       lgr,
	})
	if err != nil {
		return nil, err
	}

	blueprintSvc, err := blueprints.NewService(blueprints.Dependencies{
		Repository:    providers.Blueprints,
		Resolver:      resolver,
		Translator:    opts.Translator,
		DefaultLocale: cfg.Localization.DefaultLocale,
		Logger:        lgr,
	})
	if err != nil {
		return nil, err
	}

	cmdRegistry, err := commands.New(commands.Dependencies{
		ElementTypes: providers.ElementTypes,
		DataTypes:    providers.DataTypes,
		Blueprints:   providers.Blueprints,
		Service:      blueprintSvc,
		Schemas:      resolver,
		Logger:       lgr,
	})
	if err != nil {
		return nil, err
	}

	return &Container{
		Config:       cfg,
		Storage:      providers,
		Resolver:     resolver,
		Editors:      registry,
		Converter:    converter,
		Single:       single,
		Validator:    validator,
		Renderer:     renderer,
		Namer:        namer,
		ElementTypes: elementSvc,
		Blueprints:   blueprintSvc,
		Commands:     cmdRegistry,
		Logger:       lgr,
	}, nil
}

// SessionConfig projects the editor configuration onto a session config
// allowing the given element types.
func (c *Container) SessionConfig(allowed []session.Choice) session.Config {
	return session.Config{
		MinItems:       c.Config.Editor.MinItems,
		MaxItems:       c.Config.Editor.MaxItems,
		SingleItemMode: c.Config.Editor.SingleItemMode,
		EnableCopy:     c.Config.Editor.EnableCopy,
		Allowed:        allowed,
	}
}
