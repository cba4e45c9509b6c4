package commands

import (
	command "github.com/goliatone/go-command"
	internalcommands "github.com/goliatone/go-stacked-content/internal/commands"
	"github.com/goliatone/go-stacked-content/pkg/blueprints"
	"github.com/goliatone/go-stacked-content/pkg/interfaces/logger"
	"github.com/goliatone/go-stacked-content/pkg/interfaces/store"
	"github.com/goliatone/go-stacked-content/pkg/schema"
)

// Re-export request types so consumers need not import internal packages.
type (
	SeedSchemas       = internalcommands.SeedSchemas
	UpsertElementType = internalcommands.UpsertElementType
	DeleteElementType = internalcommands.DeleteElementType
	CreateBlueprint   = internalcommands.CreateBlueprint
	DeleteBlueprint   = internalcommands.DeleteBlueprint
)

// Registry exposes go-command compatible handlers backed by the module services.
type Registry struct {
	Catalog           *internalcommands.Catalog
	SeedSchemas       command.Commander[SeedSchemas]
	UpsertElementType command.Commander[UpsertElementType]
	DeleteElementType command.Commander[DeleteElementType]
	CreateBlueprint   command.Commander[CreateBlueprint]
	DeleteBlueprint   command.Commander[DeleteBlueprint]
}

// Dependencies mirror the internal command dependencies but keep them public.
type Dependencies struct {
	ElementTypes store.ElementTypeRepository
	DataTypes    store.DataTypeRepository
	Blueprints   store.BlueprintRepository
	Service      *blueprints.Service
	Schemas      *schema.Resolver
	Logger       logger.Logger
}

// New builds the registry using the provided dependencies.
func New(deps Dependencies) (*Registry, error) {
	catalogDeps := internalcommands.Dependencies{
		ElementTypes: deps.ElementTypes,
		DataTypes:    deps.DataTypes,
		Blueprints:   deps.Blueprints,
		Logger:       deps.Logger,
	}
	if deps.Service != nil {
		catalogDeps.Service = deps.Service
	}
	if deps.Schemas != nil {
		catalogDeps.Schemas = deps.Schemas
	}
	catalog, err := internalcommands.NewCatalog(catalogDeps)
	if err != nil {
		return nil, err
	}
	return &Registry{
		Catalog:           catalog,
		SeedSchemas:       catalog.SeedSchemas,
		UpsertElementType: catalog.UpsertElementType,
		DeleteElementType: catalog.DeleteElementType,
		CreateBlueprint:   catalog.CreateBlueprint,
		DeleteBlueprint:   catalog.DeleteBlueprint,
	}, nil
}

// Commanders returns every handler so callers can register them with go-command registries.
func (r *Registry) Commanders() []any {
	if r == nil {
		return nil
	}
	return []any{
		r.SeedSchemas,
		r.UpsertElementType,
		r.DeleteElementType,
		r.CreateBlueprint,
		r.DeleteBlueprint,
	}
}
