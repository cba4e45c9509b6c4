package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-stacked-content/pkg/domain"
	"github.com/goliatone/go-stacked-content/pkg/interfaces/store"
	"github.com/google/uuid"
)

type DataTypeRepository struct {
	base *baseMemoryRepo[domain.DataType]
}

func NewDataTypeRepository() *DataTypeRepository {
	return &DataTypeRepository{
		base: newBaseMemoryRepo("data type",
			func(d *domain.DataType) *domain.RecordMeta { return &d.RecordMeta },
			func(d domain.DataType) domain.DataType {
				d.Configuration = d.Configuration.Clone()
				return d
			},
		),
	}
}

func (r *DataTypeRepository) Create(ctx context.Context, dt *domain.DataType) error {
	if dt == nil {
		return store.ErrNotFound
	}
	if _, ok := r.base.find(func(existing *domain.DataType) bool {
		return strings.EqualFold(existing.Name, dt.Name)
	}); ok {
		return fmt.Errorf("%w: data type %s", store.ErrDuplicate, dt.Name)
	}
	return r.base.create(ctx, dt)
}

func (r *DataTypeRepository) Update(ctx context.Context, dt *domain.DataType) error {
	return r.base.update(ctx, dt)
}

func (r *DataTypeRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.DataType, error) {
	return r.base.getByID(ctx, id, false)
}

func (r *DataTypeRepository) GetByName(_ context.Context, name string) (*domain.DataType, error) {
	dt, ok := r.base.find(func(existing *domain.DataType) bool {
		return strings.EqualFold(existing.Name, strings.TrimSpace(name))
	})
	if !ok {
		return nil, fmt.Errorf("%w: data type %s", store.ErrNotFound, name)
	}
	return dt, nil
}

func (r *DataTypeRepository) List(ctx context.Context, opts store.ListOptions) (store.ListResult[domain.DataType], error) {
	return r.base.list(ctx, opts)
}

func (r *DataTypeRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return r.base.softDelete(ctx, id)
}
