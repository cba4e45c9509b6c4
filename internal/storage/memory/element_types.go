package memory

import (
	"cmp"
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-stacked-content/pkg/domain"
	"github.com/goliatone/go-stacked-content/pkg/interfaces/store"
	"github.com/google/uuid"
)

type ElementTypeRepository struct {
	base *baseMemoryRepo[domain.ElementType]
}

func NewElementTypeRepository() *ElementTypeRepository {
	return &ElementTypeRepository{
		base: newBaseMemoryRepo("element type",
			func(e *domain.ElementType) *domain.RecordMeta { return &e.RecordMeta },
			cloneElementType,
		).orderBy(compareElementTypes),
	}
}

// compareElementTypes orders by sort order, then name ignoring case.
func compareElementTypes(a, b *domain.ElementType) int {
	if c := cmp.Compare(a.SortOrder, b.SortOrder); c != 0 {
		return c
	}
	return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
}

func cloneElementType(e domain.ElementType) domain.ElementType {
	out := e
	out.Groups = append(domain.StringList(nil), e.Groups...)
	out.Properties = make(domain.PropertyTypes, len(e.Properties))
	for i, prop := range e.Properties {
		prop.Configuration = prop.Configuration.Clone()
		out.Properties[i] = prop
	}
	return out
}

func (r *ElementTypeRepository) Create(ctx context.Context, et *domain.ElementType) error {
	if et == nil {
		return store.ErrNotFound
	}
	if _, ok := r.base.find(func(existing *domain.ElementType) bool {
		return strings.EqualFold(existing.Alias, et.Alias)
	}); ok {
		return fmt.Errorf("%w: element type alias %s", store.ErrDuplicate, et.Alias)
	}
	return r.base.create(ctx, et)
}

func (r *ElementTypeRepository) Update(ctx context.Context, et *domain.ElementType) error {
	return r.base.update(ctx, et)
}

func (r *ElementTypeRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.ElementType, error) {
	return r.base.getByID(ctx, id, false)
}

func (r *ElementTypeRepository) GetByAlias(_ context.Context, alias string) (*domain.ElementType, error) {
	alias = strings.TrimSpace(alias)
	et, ok := r.base.find(func(existing *domain.ElementType) bool {
		return strings.EqualFold(existing.Alias, alias)
	})
	if !ok {
		return nil, fmt.Errorf("%w: element type %s", store.ErrNotFound, alias)
	}
	return et, nil
}

func (r *ElementTypeRepository) List(ctx context.Context, opts store.ListOptions) (store.ListResult[domain.ElementType], error) {
	return r.base.list(ctx, opts)
}

func (r *ElementTypeRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return r.base.softDelete(ctx, id)
}
