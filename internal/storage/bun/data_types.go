package bunrepo

import (
	"context"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-stacked-content/pkg/domain"
	"github.com/goliatone/go-stacked-content/pkg/interfaces/store"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// DataTypeRepository stores data types keyed by a case-insensitive name,
// listed in creation order.
type DataTypeRepository struct {
	base catalogRepository[domain.DataType]
}

func NewDataTypeRepository(db *bun.DB) *DataTypeRepository {
	return &DataTypeRepository{
		base: newCatalogRepository(db, entitySpec[domain.DataType]{
			name: "data type",
			handlers: repository.ModelHandlers[*domain.DataType]{
				NewRecord:          func() *domain.DataType { return &domain.DataType{} },
				GetID:              func(d *domain.DataType) uuid.UUID { return d.ID },
				SetID:              func(d *domain.DataType, id uuid.UUID) { d.ID = id },
				GetIdentifier:      func() string { return "name" },
				GetIdentifierValue: func(d *domain.DataType) string { return d.Name },
			},
			meta:    func(d *domain.DataType) *domain.RecordMeta { return &d.RecordMeta },
			natural: "name",
			order:   dataTypeOrder,
		}),
	}
}

func (r *DataTypeRepository) Create(ctx context.Context, dt *domain.DataType) error {
	return r.base.create(ctx, dt)
}

func (r *DataTypeRepository) Update(ctx context.Context, dt *domain.DataType) error {
	return r.base.update(ctx, dt)
}

func (r *DataTypeRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.DataType, error) {
	return r.base.getByID(ctx, id)
}

func (r *DataTypeRepository) GetByName(ctx context.Context, name string) (*domain.DataType, error) {
	return r.base.getByNatural(ctx, name)
}

func (r *DataTypeRepository) List(ctx context.Context, opts store.ListOptions) (store.ListResult[domain.DataType], error) {
	return r.base.list(ctx, opts)
}

func (r *DataTypeRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return r.base.softDelete(ctx, id)
}
