package bunrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-stacked-content/pkg/domain"
	"github.com/goliatone/go-stacked-content/pkg/interfaces/store"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// entitySpec describes how one catalog entity is stored.
type entitySpec[T any] struct {
	name     string
	handlers repository.ModelHandlers[*T]
	meta     func(*T) *domain.RecordMeta
	// natural is the column holding the case-insensitive unique key, empty
	// when the entity is only addressed by id.
	natural string
	order   []string
}

// catalogRepository stores element types, data types and blueprints on top
// of go-repository-bun. Natural keys are matched ignoring case and must stay
// unique among live rows.
type catalogRepository[T any] struct {
	repo repository.Repository[*T]
	spec entitySpec[T]
}

func newCatalogRepository[T any](db *bun.DB, spec entitySpec[T]) catalogRepository[T] {
	if len(spec.order) == 0 {
		spec.order = []string{"created_at ASC"}
	}
	return catalogRepository[T]{
		repo: repository.MustNewRepository[*T](db, spec.handlers),
		spec: spec,
	}
}

func (r catalogRepository[T]) create(ctx context.Context, record *T) error {
	if record == nil {
		return fmt.Errorf("%s: record is nil", r.spec.name)
	}
	if err := r.ensureUnique(ctx, record); err != nil {
		return err
	}
	meta := r.spec.meta(record)
	meta.EnsureID()
	now := time.Now().UTC()
	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = now
	}
	meta.UpdatedAt = now
	_, err := r.repo.Create(ctx, record)
	return r.mapError(err)
}

func (r catalogRepository[T]) update(ctx context.Context, record *T) error {
	meta := r.spec.meta(record)
	if meta.ID == uuid.Nil {
		return fmt.Errorf("%w: %s without id", store.ErrNotFound, r.spec.name)
	}
	meta.UpdatedAt = time.Now().UTC()
	_, err := r.repo.Update(ctx, record)
	return r.mapError(err)
}

func (r catalogRepository[T]) getByID(ctx context.Context, id uuid.UUID) (*T, error) {
	record, err := r.repo.Get(ctx, withID(id), withoutDeleted())
	if err != nil {
		return nil, r.mapError(err)
	}
	return record, nil
}

// getByNatural looks a live row up by its natural key, ignoring case.
func (r catalogRepository[T]) getByNatural(ctx context.Context, value string) (*T, error) {
	if r.spec.natural == "" {
		return nil, fmt.Errorf("%s: no natural key", r.spec.name)
	}
	record, err := r.repo.Get(ctx, withFold(r.spec.natural, value), withoutDeleted())
	if err != nil {
		return nil, r.mapError(err)
	}
	return record, nil
}

func (r catalogRepository[T]) list(ctx context.Context, opts store.ListOptions) (store.ListResult[T], error) {
	records, total, err := r.repo.List(ctx, withListOptions(opts), withOrder(r.spec.order...))
	if err != nil {
		return store.ListResult[T]{}, r.mapError(err)
	}
	return store.ListResult[T]{Items: deref(records), Total: total}, nil
}

// listWhere returns every live row matching criteria in the entity order.
func (r catalogRepository[T]) listWhere(ctx context.Context, criteria ...repository.SelectCriteria) ([]T, error) {
	criteria = append(criteria, withoutDeleted(), withOrder(r.spec.order...))
	records, _, err := r.repo.List(ctx, criteria...)
	if err != nil {
		return nil, r.mapError(err)
	}
	return deref(records), nil
}

func (r catalogRepository[T]) softDelete(ctx context.Context, id uuid.UUID) error {
	record, err := r.getByID(ctx, id)
	if err != nil {
		return err
	}
	r.spec.meta(record).DeletedAt = time.Now().UTC()
	_, err = r.repo.Update(ctx, record)
	return r.mapError(err)
}

func (r catalogRepository[T]) ensureUnique(ctx context.Context, record *T) error {
	if r.spec.natural == "" || r.spec.handlers.GetIdentifierValue == nil {
		return nil
	}
	value := r.spec.handlers.GetIdentifierValue(record)
	_, err := r.getByNatural(ctx, value)
	switch {
	case err == nil:
		return fmt.Errorf("%w: %s %s %q", store.ErrDuplicate, r.spec.name, r.spec.natural, value)
	case errors.Is(err, store.ErrNotFound):
		return nil
	default:
		return err
	}
}

func (r catalogRepository[T]) mapError(err error) error {
	if err == nil {
		return nil
	}
	if repository.IsRecordNotFound(err) {
		return fmt.Errorf("%w: %s", store.ErrNotFound, r.spec.name)
	}
	return fmt.Errorf("%s: %w", r.spec.name, err)
}

func deref[T any](records []*T) []T {
	items := make([]T, len(records))
	for i, rec := range records {
		items[i] = *rec
	}
	return items
}
