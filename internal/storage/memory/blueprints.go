package memory

import (
	"context"

	"github.com/goliatone/go-stacked-content/pkg/domain"
	"github.com/goliatone/go-stacked-content/pkg/interfaces/store"
	"github.com/google/uuid"
)

type BlueprintRepository struct {
	base *baseMemoryRepo[domain.Blueprint]
}

func NewBlueprintRepository() *BlueprintRepository {
	return &BlueprintRepository{
		base: newBaseMemoryRepo("blueprint",
			func(b *domain.Blueprint) *domain.RecordMeta { return &b.RecordMeta },
			func(b domain.Blueprint) domain.Blueprint {
				b.Values = b.Values.Clone()
				return b
			},
		),
	}
}

func (r *BlueprintRepository) Create(ctx context.Context, bp *domain.Blueprint) error {
	if bp == nil {
		return store.ErrNotFound
	}
	return r.base.create(ctx, bp)
}

func (r *BlueprintRepository) Update(ctx context.Context, bp *domain.Blueprint) error {
	return r.base.update(ctx, bp)
}

func (r *BlueprintRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Blueprint, error) {
	return r.base.getByID(ctx, id, false)
}

func (r *BlueprintRepository) List(ctx context.Context, opts store.ListOptions) (store.ListResult[domain.Blueprint], error) {
	return r.base.list(ctx, opts)
}

func (r *BlueprintRepository) ListByElementType(ctx context.Context, elementTypeID uuid.UUID) ([]domain.Blueprint, error) {
	all, err := r.base.list(ctx, store.ListOptions{})
	if err != nil {
		return nil, err
	}
	filtered := make([]domain.Blueprint, 0, len(all.Items))
	for _, item := range all.Items {
		if item.ElementTypeID == elementTypeID {
			filtered = append(filtered, item)
		}
	}
	return filtered, nil
}

func (r *BlueprintRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return r.base.softDelete(ctx, id)
}
