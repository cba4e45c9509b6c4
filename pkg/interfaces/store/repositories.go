package store

import (
	"context"
	"errors"
	"time"

	"github.com/goliatone/go-stacked-content/pkg/domain"
	"github.com/google/uuid"
)

// ErrNotFound is returned when a record cannot be located.
var ErrNotFound = errors.New("store: not found")

// ErrDuplicate is returned when a unique field collides.
var ErrDuplicate = errors.New("store: duplicate")

// ListOptions capture pagination and filtering knobs common to repositories.
type ListOptions struct {
	Limit              int
	Offset             int
	Since              time.Time
	Until              time.Time
	IncludeSoftDeleted bool
}

// ListResult bundles records and totals.
type ListResult[T any] struct {
	Items []T
	Total int
}

// Repository defines base CRUD helpers reused by entity-specific interfaces.
type Repository[T any] interface {
	Create(ctx context.Context, record *T) error
	Update(ctx context.Context, record *T) error
	GetByID(ctx context.Context, id uuid.UUID) (*T, error)
	List(ctx context.Context, opts ListOptions) (ListResult[T], error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

type ElementTypeRepository interface {
	Repository[domain.ElementType]
	GetByAlias(ctx context.Context, alias string) (*domain.ElementType, error)
}

type DataTypeRepository interface {
	Repository[domain.DataType]
	GetByName(ctx context.Context, name string) (*domain.DataType, error)
}

type BlueprintRepository interface {
	Repository[domain.Blueprint]
	ListByElementType(ctx context.Context, elementTypeID uuid.UUID) ([]domain.Blueprint, error)
}
