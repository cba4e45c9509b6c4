package bunrepo

import (
	"context"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-stacked-content/pkg/domain"
	"github.com/goliatone/go-stacked-content/pkg/interfaces/store"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ElementTypeRepository stores element types. Aliases are unique ignoring
// case and lists are ordered by sort order, then name.
type ElementTypeRepository struct {
	base catalogRepository[domain.ElementType]
}

func NewElementTypeRepository(db *bun.DB) *ElementTypeRepository {
	return &ElementTypeRepository{
		base: newCatalogRepository(db, entitySpec[domain.ElementType]{
			name: "element type",
			handlers: repository.ModelHandlers[*domain.ElementType]{
				NewRecord:          func() *domain.ElementType { return &domain.ElementType{} },
				GetID:              func(e *domain.ElementType) uuid.UUID { return e.ID },
				SetID:              func(e *domain.ElementType, id uuid.UUID) { e.ID = id },
				GetIdentifier:      func() string { return "alias" },
				GetIdentifierValue: func(e *domain.ElementType) string { return e.Alias },
			},
			meta:    func(e *domain.ElementType) *domain.RecordMeta { return &e.RecordMeta },
			natural: "alias",
			order:   elementTypeOrder,
		}),
	}
}

func (r *ElementTypeRepository) Create(ctx context.Context, et *domain.ElementType) error {
	return r.base.create(ctx, et)
}

func (r *ElementTypeRepository) Update(ctx context.Context, et *domain.ElementType) error {
	return r.base.update(ctx, et)
}

func (r *ElementTypeRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.ElementType, error) {
	return r.base.getByID(ctx, id)
}

func (r *ElementTypeRepository) GetByAlias(ctx context.Context, alias string) (*domain.ElementType, error) {
	return r.base.getByNatural(ctx, alias)
}

func (r *ElementTypeRepository) List(ctx context.Context, opts store.ListOptions) (store.ListResult[domain.ElementType], error) {
	return r.base.list(ctx, opts)
}

func (r *ElementTypeRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return r.base.softDelete(ctx, id)
}
