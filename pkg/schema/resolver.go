package schema

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/goliatone/go-stacked-content/pkg/content"
	"github.com/goliatone/go-stacked-content/pkg/domain"
	"github.com/goliatone/go-stacked-content/pkg/interfaces/cache"
	"github.com/goliatone/go-stacked-content/pkg/interfaces/logger"
	"github.com/goliatone/go-stacked-content/pkg/interfaces/store"
	"github.com/google/uuid"
)

// ErrSourceRequired is returned when no element type source is configured.
var ErrSourceRequired = errors.New("schema: element type source is required")

// Source looks up element types by id or alias.
type Source interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.ElementType, error)
	GetByAlias(ctx context.Context, alias string) (*domain.ElementType, error)
}

// Resolution is the outcome of resolving a record's element type.
type Resolution struct {
	Schema *Schema
	// Normalized is set when the record did not carry the canonical id
	// reference. It is a copy with the id backfilled; the input record is
	// never modified.
	Normalized *content.Record
}

// Dependencies wires the resolver collaborators.
type Dependencies struct {
	Source         Source
	Configurations ConfigurationSource
	Cache          cache.Cache
	CacheTTL       time.Duration
	Logger         logger.Logger
}

// Resolver maps element type references to schemas.
type Resolver struct {
	source   Source
	configs  ConfigurationSource
	cache    cache.Cache
	cacheTTL time.Duration
	logger   logger.Logger
}

// NewResolver builds a resolver. Configuration defaults to the inline
// property configuration and the cache to a no-op.
func NewResolver(deps Dependencies) (*Resolver, error) {
	if deps.Source == nil {
		return nil, ErrSourceRequired
	}
	if deps.Configurations == nil {
		deps.Configurations = InlineConfiguration{}
	}
	if deps.Cache == nil {
		deps.Cache = &cache.Nop{}
	}
	if deps.Logger == nil {
		deps.Logger = &logger.Nop{}
	}
	return &Resolver{
		source:   deps.Source,
		configs:  deps.Configurations,
		cache:    deps.Cache,
		cacheTTL: deps.CacheTTL,
		logger:   deps.Logger,
	}, nil
}

// Resolve resolves the record's schema. A false result means the record is
// inert: it carries no usable reference or the reference is unknown. Only
// storage failures are returned as errors.
func (r *Resolver) Resolve(ctx context.Context, rec *content.Record) (Resolution, bool, error) {
	if rec == nil {
		return Resolution{}, false, nil
	}
	ref := rec.TypeRef()
	if ref.IsZero() {
		r.logger.Debug("record has no element type reference")
		return Resolution{}, false, nil
	}

	s, ok, err := r.ResolveRef(ctx, ref)
	if err != nil || !ok {
		return Resolution{}, false, err
	}

	res := Resolution{Schema: s}
	if !hasCanonicalRef(rec, s.ID) {
		normalized := rec.Clone()
		normalized.SetTypeID(s.ID)
		res.Normalized = normalized
	}
	return res, true, nil
}

// ResolveRef resolves by id when the reference carries one, otherwise by
// alias.
func (r *Resolver) ResolveRef(ctx context.Context, ref content.Ref) (*Schema, bool, error) {
	var (
		key    string
		lookup func() (*domain.ElementType, error)
	)
	switch {
	case ref.HasID():
		key = idCacheKey(ref.ID)
		lookup = func() (*domain.ElementType, error) { return r.source.GetByID(ctx, ref.ID) }
	case ref.Alias != "":
		key = aliasCacheKey(ref.Alias)
		lookup = func() (*domain.ElementType, error) { return r.source.GetByAlias(ctx, ref.Alias) }
	default:
		return nil, false, nil
	}

	if cached, ok := r.cached(ctx, key); ok {
		return cached, true, nil
	}

	et, err := lookup()
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			r.logger.Debug("element type not found", logger.Field{Key: "ref", Value: ref.String()})
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("schema: lookup %s: %w", ref.String(), err)
	}

	s, err := r.Build(ctx, et)
	if err != nil {
		return nil, false, err
	}
	if err := r.cache.Set(ctx, key, s, r.cacheTTL); err != nil {
		r.logger.Warn("schema cache set failed", logger.Field{Key: "error", Value: err})
	}
	return s, true, nil
}

// Invalidate drops the cached schema of et under both its id and alias so
// the next lookup reads the source again.
func (r *Resolver) Invalidate(ctx context.Context, et *domain.ElementType) error {
	if et == nil {
		return nil
	}
	var keys []string
	if et.ID != uuid.Nil {
		keys = append(keys, idCacheKey(et.ID))
	}
	if alias := strings.TrimSpace(et.Alias); alias != "" {
		keys = append(keys, aliasCacheKey(alias))
	}
	var errs []error
	for _, key := range keys {
		if err := r.cache.Delete(ctx, key); err != nil {
			errs = append(errs, fmt.Errorf("schema: invalidate %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}

func idCacheKey(id uuid.UUID) string { return "schema:id:" + id.String() }

func aliasCacheKey(alias string) string { return "schema:alias:" + strings.ToLower(alias) }

// Build converts an element type into a schema, resolving every property's
// editor configuration.
func (r *Resolver) Build(ctx context.Context, et *domain.ElementType) (*Schema, error) {
	if et == nil {
		return nil, fmt.Errorf("schema: element type is nil")
	}
	props := append(domain.PropertyTypes(nil), et.Properties...)
	sort.SliceStable(props, func(i, j int) bool { return props[i].SortOrder < props[j].SortOrder })

	fields := make([]Field, 0, len(props))
	for _, prop := range props {
		cfg, err := r.configs.Configuration(ctx, prop)
		if err != nil {
			return nil, fmt.Errorf("schema: configuration for %s.%s: %w", et.Alias, prop.Alias, err)
		}
		kind := strings.TrimSpace(prop.EditorAlias)
		if kind == "" {
			kind = cfg.EditorAlias
		}
		variation := prop.Variations
		if variation == "" {
			variation = domain.VariationInvariant
		}
		fields = append(fields, Field{
			Alias:         prop.Alias,
			Name:          firstNonEmpty(prop.Name, prop.Alias),
			Description:   prop.Description,
			Kind:          kind,
			Group:         prop.Group,
			Configuration: cfg.Values,
			Mandatory:     prop.Mandatory,
			Pattern:       prop.ValidationRegExp,
			Variation:     variation,
		})
	}

	s := New(et.ID, et.Alias, firstNonEmpty(et.Name, et.Alias), fields...)
	s.Description = et.Description
	s.Icon = et.Icon
	s.Tabs = tabs(et)
	return s, nil
}

func (r *Resolver) cached(ctx context.Context, key string) (*Schema, bool) {
	value, ok, err := r.cache.Get(ctx, key)
	if err != nil {
		r.logger.Warn("schema cache get failed", logger.Field{Key: "error", Value: err})
		return nil, false
	}
	if !ok {
		return nil, false
	}
	s, ok := value.(*Schema)
	return s, ok
}

func hasCanonicalRef(rec *content.Record, id uuid.UUID) bool {
	v, ok := rec.Get(content.KeyElementType)
	if !ok {
		return false
	}
	s, _ := v.AsString()
	return strings.EqualFold(strings.TrimSpace(s), id.String())
}

// tabs lists declared groups first, then groups only referenced by
// properties, without duplicates.
func tabs(et *domain.ElementType) []string {
	var out []string
	seen := map[string]struct{}{}
	add := func(name string) {
		name = strings.TrimSpace(name)
		if name == "" {
			return
		}
		key := strings.ToLower(name)
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		out = append(out, name)
	}
	for _, g := range et.Groups {
		add(g)
	}
	for _, prop := range et.Properties {
		add(prop.Group)
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
