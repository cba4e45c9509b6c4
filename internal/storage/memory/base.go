package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/goliatone/go-stacked-content/pkg/domain"
	"github.com/goliatone/go-stacked-content/pkg/interfaces/store"
	"github.com/google/uuid"
)

type baseMemoryRepo[T any] struct {
	mu        sync.RWMutex
	records   map[uuid.UUID]T
	seq       map[uuid.UUID]int
	next      int
	extract   func(*T) *domain.RecordMeta
	clone     func(T) T
	compare   func(a, b *T) int
	entityStr string
}

func newBaseMemoryRepo[T any](entity string, extract func(*T) *domain.RecordMeta, clone func(T) T) *baseMemoryRepo[T] {
	if clone == nil {
		clone = func(v T) T { return v }
	}
	return &baseMemoryRepo[T]{
		records:   make(map[uuid.UUID]T),
		seq:       make(map[uuid.UUID]int),
		extract:   extract,
		clone:     clone,
		entityStr: entity,
	}
}

// orderBy sets the list ordering. Ties fall back to creation order.
func (r *baseMemoryRepo[T]) orderBy(compare func(a, b *T) int) *baseMemoryRepo[T] {
	r.compare = compare
	return r
}

func (r *baseMemoryRepo[T]) notFound(id uuid.UUID) error {
	return fmt.Errorf("%w: %s %s", store.ErrNotFound, r.entityStr, id)
}

func (r *baseMemoryRepo[T]) create(_ context.Context, record *T) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	base := r.extract(record)
	base.EnsureID()
	if _, exists := r.records[base.ID]; exists {
		return fmt.Errorf("%w: %s %s", store.ErrDuplicate, r.entityStr, base.ID)
	}
	now := time.Now().UTC()
	if base.CreatedAt.IsZero() {
		base.CreatedAt = now
	}
	base.UpdatedAt = now
	r.records[base.ID] = r.clone(*record)
	r.seq[base.ID] = r.next
	r.next++
	return nil
}

func (r *baseMemoryRepo[T]) update(_ context.Context, record *T) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	base := r.extract(record)
	if base.ID == uuid.Nil {
		return r.notFound(base.ID)
	}
	if _, ok := r.records[base.ID]; !ok {
		return r.notFound(base.ID)
	}
	base.UpdatedAt = time.Now().UTC()
	r.records[base.ID] = r.clone(*record)
	return nil
}

func (r *baseMemoryRepo[T]) getByID(_ context.Context, id uuid.UUID, includeDeleted bool) (*T, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.records[id]
	if !ok {
		return nil, r.notFound(id)
	}
	base := r.extract(&record)
	if !includeDeleted && !base.DeletedAt.IsZero() {
		return nil, r.notFound(id)
	}
	out := r.clone(record)
	return &out, nil
}

// find returns the first live record matching fn in insertion order.
func (r *baseMemoryRepo[T]) find(fn func(*T) bool) (*T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var found *T
	bestSeq := -1
	for id, record := range r.records {
		rec := record
		if !r.extract(&rec).DeletedAt.IsZero() || !fn(&rec) {
			continue
		}
		if bestSeq == -1 || r.seq[id] < bestSeq {
			out := r.clone(rec)
			found = &out
			bestSeq = r.seq[id]
		}
	}
	return found, found != nil
}

func (r *baseMemoryRepo[T]) list(_ context.Context, opts store.ListOptions) (store.ListResult[T], error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	type entry struct {
		record T
		seq    int
	}
	var filtered []entry
	for id, record := range r.records {
		base := r.extract(&record)
		if !opts.IncludeSoftDeleted && !base.DeletedAt.IsZero() {
			continue
		}
		if !opts.Since.IsZero() && base.CreatedAt.Before(opts.Since) {
			continue
		}
		if !opts.Until.IsZero() && base.CreatedAt.After(opts.Until) {
			continue
		}
		filtered = append(filtered, entry{record: r.clone(record), seq: r.seq[id]})
	}

	sort.Slice(filtered, func(i, j int) bool {
		if r.compare != nil {
			if c := r.compare(&filtered[i].record, &filtered[j].record); c != 0 {
				return c < 0
			}
		}
		a, b := r.extract(&filtered[i].record), r.extract(&filtered[j].record)
		if a.CreatedAt.Equal(b.CreatedAt) {
			return filtered[i].seq < filtered[j].seq
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})

	total := len(filtered)
	start := opts.Offset
	if start > total {
		start = total
	}
	end := total
	if opts.Limit > 0 && start+opts.Limit < end {
		end = start + opts.Limit
	}

	items := make([]T, 0, end-start)
	for _, e := range filtered[start:end] {
		items = append(items, e.record)
	}
	return store.ListResult[T]{Items: items, Total: total}, nil
}

func (r *baseMemoryRepo[T]) softDelete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.records[id]
	if !ok {
		return r.notFound(id)
	}
	base := r.extract(&record)
	if base.DeletedAt.IsZero() {
		base.DeletedAt = time.Now().UTC()
	}
	r.records[id] = record
	return nil
}
