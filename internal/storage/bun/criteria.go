package bunrepo

import (
	"strings"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-stacked-content/pkg/interfaces/store"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Default list orderings.
var (
	elementTypeOrder = []string{"COALESCE(sort_order, 0) ASC", "LOWER(name) ASC", "created_at ASC"}
	dataTypeOrder    = []string{"created_at ASC"}
	blueprintOrder   = []string{"created_at ASC"}
)

func withID(id uuid.UUID) repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("id = ?", id)
	}
}

func withoutDeleted() repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("deleted_at IS NULL")
	}
}

// withFold matches column against value ignoring case and surrounding space.
func withFold(column, value string) repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("LOWER(?) = ?", bun.Ident(column), strings.ToLower(strings.TrimSpace(value)))
	}
}

func withElementType(id uuid.UUID) repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("element_type_id = ?", id)
	}
}

func withOrder(exprs ...string) repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		for _, expr := range exprs {
			q = q.OrderExpr(expr)
		}
		return q
	}
}

func withListOptions(opts store.ListOptions) repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		if opts.Limit > 0 {
			q = q.Limit(opts.Limit)
		}
		if opts.Offset > 0 {
			q = q.Offset(opts.Offset)
		}
		if !opts.IncludeSoftDeleted {
			q = q.Where("deleted_at IS NULL")
		}
		if !opts.Since.IsZero() {
			q = q.Where("created_at >= ?", opts.Since)
		}
		if !opts.Until.IsZero() {
			q = q.Where("created_at <= ?", opts.Until)
		}
		return q
	}
}
