package commands

import (
	"context"
	"errors"
	"strings"

	command "github.com/goliatone/go-command"
	"github.com/goliatone/go-stacked-content/pkg/blueprints"
	"github.com/goliatone/go-stacked-content/pkg/content"
	"github.com/goliatone/go-stacked-content/pkg/domain"
	"github.com/goliatone/go-stacked-content/pkg/interfaces/logger"
	"github.com/goliatone/go-stacked-content/pkg/interfaces/store"
	"github.com/goliatone/go-stacked-content/pkg/schema"
	"github.com/google/uuid"
)

// Catalog exposes go-command compatible handlers for host transports.
type Catalog struct {
	SeedSchemas       command.Commander[SeedSchemas]
	UpsertElementType command.Commander[UpsertElementType]
	DeleteElementType command.Commander[DeleteElementType]
	CreateBlueprint   command.Commander[CreateBlueprint]
	DeleteBlueprint   command.Commander[DeleteBlueprint]
}

type blueprintService interface {
	Create(ctx context.Context, input blueprints.CreateInput) (blueprints.CreateResult, error)
}

// SchemaInvalidator drops cached schemas after an element type changes.
type SchemaInvalidator interface {
	Invalidate(ctx context.Context, et *domain.ElementType) error
}

type nopInvalidator struct{}

func (nopInvalidator) Invalidate(context.Context, *domain.ElementType) error { return nil }

// Dependencies wires repositories and services into the command catalog.
type Dependencies struct {
	ElementTypes store.ElementTypeRepository
	DataTypes    store.DataTypeRepository
	Blueprints   store.BlueprintRepository
	Service      blueprintService
	Schemas      SchemaInvalidator
	Logger       logger.Logger
}

// NewCatalog builds the command catalog using the supplied dependencies.
func NewCatalog(deps Dependencies) (*Catalog, error) {
	if deps.ElementTypes == nil {
		return nil, errors.New("commands: element type repository is required")
	}
	if deps.DataTypes == nil {
		return nil, errors.New("commands: data type repository is required")
	}
	if deps.Blueprints == nil {
		return nil, errors.New("commands: blueprint repository is required")
	}
	if deps.Service == nil {
		return nil, errors.New("commands: blueprint service is required")
	}
	if deps.Schemas == nil {
		deps.Schemas = nopInvalidator{}
	}
	if deps.Logger == nil {
		deps.Logger = &logger.Nop{}
	}

	return &Catalog{
		SeedSchemas:       seedSchemasCommand{elementTypes: deps.ElementTypes, dataTypes: deps.DataTypes, logger: deps.Logger},
		UpsertElementType: elementTypeUpsertCommand{repo: deps.ElementTypes, schemas: deps.Schemas},
		DeleteElementType: elementTypeDeleteCommand{repo: deps.ElementTypes, schemas: deps.Schemas},
		CreateBlueprint:   blueprintCreateCommand{svc: deps.Service},
		DeleteBlueprint:   blueprintDeleteCommand{repo: deps.Blueprints},
	}, nil
}

// SeedSchemas creates the data types and element types of parsed definition
// files. Existing aliases are left untouched.
type SeedSchemas struct {
	Definitions schema.Definitions `json:"definitions"`
}

type seedSchemasCommand struct {
	elementTypes store.ElementTypeRepository
	dataTypes    store.DataTypeRepository
	logger       logger.Logger
}

func (c seedSchemasCommand) Execute(ctx context.Context, msg SeedSchemas) error {
	if err := schema.Seed(ctx, msg.Definitions, c.elementTypes, c.dataTypes); err != nil {
		return err
	}
	c.logger.Info("schemas seeded",
		logger.Field{Key: "data_types", Value: len(msg.Definitions.DataTypes)},
		logger.Field{Key: "element_types", Value: len(msg.Definitions.ElementTypes)},
	)
	return nil
}

// UpsertElementType creates an element type, or replaces it when AllowUpdate
// is set and the alias exists.
type UpsertElementType struct {
	Alias       string                `json:"alias"`
	Name        string                `json:"name"`
	Description string                `json:"description"`
	Icon        string                `json:"icon"`
	SortOrder   int                   `json:"sort_order"`
	Groups      []string              `json:"groups"`
	Properties  []domain.PropertyType `json:"properties"`
	AllowUpdate bool                  `json:"allow_update"`
}

type elementTypeUpsertCommand struct {
	repo    store.ElementTypeRepository
	schemas SchemaInvalidator
}

func (c elementTypeUpsertCommand) Execute(ctx context.Context, msg UpsertElementType) error {
	msg.Alias = strings.TrimSpace(msg.Alias)
	if msg.Alias == "" {
		return errors.New("commands: element type alias is required")
	}
	et := &domain.ElementType{
		Alias:       msg.Alias,
		Name:        msg.Name,
		Description: msg.Description,
		Icon:        msg.Icon,
		SortOrder:   msg.SortOrder,
		Groups:      domain.StringList(msg.Groups),
		Properties:  domain.PropertyTypes(msg.Properties),
	}
	if existing, err := c.repo.GetByAlias(ctx, msg.Alias); err == nil {
		if !msg.AllowUpdate {
			return errors.New("commands: element type already exists")
		}
		existing.Name = et.Name
		existing.Description = et.Description
		existing.Icon = et.Icon
		existing.SortOrder = et.SortOrder
		existing.Groups = et.Groups
		existing.Properties = et.Properties
		if err := c.repo.Update(ctx, existing); err != nil {
			return err
		}
		return c.schemas.Invalidate(ctx, existing)
	} else if !errors.Is(err, store.ErrNotFound) {
		return err
	}
	if err := c.repo.Create(ctx, et); err != nil {
		return err
	}
	return c.schemas.Invalidate(ctx, et)
}

// DeleteElementType soft deletes an element type.
type DeleteElementType struct {
	ID uuid.UUID `json:"id"`
}

type elementTypeDeleteCommand struct {
	repo    store.ElementTypeRepository
	schemas SchemaInvalidator
}

func (c elementTypeDeleteCommand) Execute(ctx context.Context, msg DeleteElementType) error {
	et, err := c.repo.GetByID(ctx, msg.ID)
	if err != nil {
		return err
	}
	if err := c.repo.SoftDelete(ctx, msg.ID); err != nil {
		return err
	}
	return c.schemas.Invalidate(ctx, et)
}

// CreateBlueprint saves an editor record as a blueprint. Result, when set,
// receives the stored blueprint and the editor notification.
type CreateBlueprint struct {
	Item   *content.Record          `json:"item"`
	UserID int                      `json:"user_id"`
	Locale string                   `json:"locale"`
	Result *blueprints.CreateResult `json:"-"`
}

type blueprintCreateCommand struct {
	svc blueprintService
}

func (c blueprintCreateCommand) Execute(ctx context.Context, msg CreateBlueprint) error {
	res, err := c.svc.Create(ctx, blueprints.CreateInput{Item: msg.Item, UserID: msg.UserID, Locale: msg.Locale})
	if err != nil {
		return err
	}
	if msg.Result != nil {
		*msg.Result = res
	}
	return nil
}

// DeleteBlueprint soft deletes a blueprint.
type DeleteBlueprint struct {
	ID uuid.UUID `json:"id"`
}

type blueprintDeleteCommand struct {
	repo store.BlueprintRepository
}

func (c blueprintDeleteCommand) Execute(ctx context.Context, msg DeleteBlueprint) error {
	return c.repo.SoftDelete(ctx, msg.ID)
}
