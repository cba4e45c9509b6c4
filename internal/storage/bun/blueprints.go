package bunrepo

import (
	"context"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-stacked-content/pkg/domain"
	"github.com/goliatone/go-stacked-content/pkg/interfaces/store"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// BlueprintRepository stores blueprints in creation order.
type BlueprintRepository struct {
	base catalogRepository[domain.Blueprint]
}

func NewBlueprintRepository(db *bun.DB) *BlueprintRepository {
	return &BlueprintRepository{
		base: newCatalogRepository(db, entitySpec[domain.Blueprint]{
			name: "blueprint",
			handlers: repository.ModelHandlers[*domain.Blueprint]{
				NewRecord:          func() *domain.Blueprint { return &domain.Blueprint{} },
				GetID:              func(b *domain.Blueprint) uuid.UUID { return b.ID },
				SetID:              func(b *domain.Blueprint, id uuid.UUID) { b.ID = id },
				GetIdentifier:      func() string { return "id" },
				GetIdentifierValue: func(b *domain.Blueprint) string { return b.ID.String() },
			},
			meta:  func(b *domain.Blueprint) *domain.RecordMeta { return &b.RecordMeta },
			order: blueprintOrder,
		}),
	}
}

func (r *BlueprintRepository) Create(ctx context.Context, bp *domain.Blueprint) error {
	return r.base.create(ctx, bp)
}

func (r *BlueprintRepository) Update(ctx context.Context, bp *domain.Blueprint) error {
	return r.base.update(ctx, bp)
}

func (r *BlueprintRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Blueprint, error) {
	return r.base.getByID(ctx, id)
}

func (r *BlueprintRepository) List(ctx context.Context, opts store.ListOptions) (store.ListResult[domain.Blueprint], error) {
	return r.base.list(ctx, opts)
}

func (r *BlueprintRepository) ListByElementType(ctx context.Context, elementTypeID uuid.UUID) ([]domain.Blueprint, error) {
	return r.base.listWhere(ctx, withElementType(elementTypeID))
}

func (r *BlueprintRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return r.base.softDelete(ctx, id)
}
