package schema

import (
	"context"
	"testing"
	"testing/fstest"
	"time"

	"github.com/goliatone/go-stacked-content/internal/storage/memory"
	"github.com/goliatone/go-stacked-content/pkg/content"
	"github.com/goliatone/go-stacked-content/pkg/domain"
	"github.com/goliatone/go-stacked-content/pkg/interfaces/cache"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
)

func seedFoo(t *testing.T, repo *memory.ElementTypeRepository) *domain.ElementType {
	t.Helper()
	et := &domain.ElementType{
		Alias: "foo",
		Name:  "Foo",
		Icon:  "icon-foo",
		Properties: domain.PropertyTypes{
			{Alias: "body", Name: "Body", EditorAlias: "textarea", Group: "Content", SortOrder: 2},
			{Alias: "title", Name: "Title", EditorAlias: "textbox", Mandatory: true, Group: "Content", SortOrder: 1, Variations: domain.VariationCulture},
			{Alias: "theme", Name: "Theme", EditorAlias: "dropdown", Group: "Settings", SortOrder: 3},
		},
	}
	if err := repo.Create(context.Background(), et); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return et
}

func newTestResolver(t *testing.T, repo *memory.ElementTypeRepository, c cache.Cache) *Resolver {
	t.Helper()
	r, err := NewResolver(Dependencies{Source: repo, Cache: c, CacheTTL: time.Minute})
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	return r
}

func TestResolveByIDNeedsNoNormalization(t *testing.T) {
	repo := memory.NewElementTypeRepository()
	et := seedFoo(t, repo)
	r := newTestResolver(t, repo, nil)

	rec := content.NewRecord(content.Field{Alias: content.KeyElementType, Value: content.String(et.ID.String())})
	res, ok, err := r.Resolve(context.Background(), rec)
	if err != nil || !ok {
		t.Fatalf("expected resolution, ok=%v err=%v", ok, err)
	}
	if res.Normalized != nil {
		t.Fatalf("expected canonical reference to need no backfill")
	}
	if diff := cmp.Diff([]string{"title", "body", "theme"}, fieldAliases(res.Schema)); diff != "" {
		t.Fatalf("expected fields in sort order (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Content", "Settings"}, res.Schema.Tabs); diff != "" {
		t.Fatalf("unexpected tabs (-want +got):\n%s", diff)
	}
}

func TestResolveByAliasBackfillsWithoutMutatingInput(t *testing.T) {
	repo := memory.NewElementTypeRepository()
	et := seedFoo(t, repo)
	r := newTestResolver(t, repo, nil)

	rec := content.NewRecord(
		content.Field{Alias: content.KeyElementType, Value: content.String("alias:foo")},
		content.Field{Alias: "title", Value: content.String("Hi")},
	)
	before := rec.Clone()

	res, ok, err := r.Resolve(context.Background(), rec)
	if err != nil || !ok {
		t.Fatalf("expected resolution, ok=%v err=%v", ok, err)
	}
	if !rec.Equal(before) {
		t.Fatalf("resolver must not write into the caller's record")
	}
	if res.Normalized == nil {
		t.Fatalf("expected a normalized record")
	}
	if got := res.Normalized.TypeRef(); got.ID != et.ID {
		t.Fatalf("expected backfilled id %s, got %+v", et.ID, got)
	}
	if diff := cmp.Diff([]string{content.KeyElementType, "title"}, res.Normalized.Keys()); diff != "" {
		t.Fatalf("expected member order to be kept (-want +got):\n%s", diff)
	}
}

func TestResolveMissesAreNotErrors(t *testing.T) {
	repo := memory.NewElementTypeRepository()
	seedFoo(t, repo)
	r := newTestResolver(t, repo, nil)
	ctx := context.Background()

	cases := map[string]*content.Record{
		"unknown alias": content.NewRecord(content.Field{Alias: content.KeyElementType, Value: content.String("alias:nope")}),
		"unknown id":    content.NewRecord(content.Field{Alias: content.KeyElementType, Value: content.String(uuid.NewString())}),
		"no reference":  content.NewRecord(content.Field{Alias: "title", Value: content.String("x")}),
		"nil record":    nil,
	}
	for name, rec := range cases {
		res, ok, err := r.Resolve(ctx, rec)
		if err != nil {
			t.Fatalf("%s: unexpected error %v", name, err)
		}
		if ok || res.Schema != nil {
			t.Fatalf("%s: expected a miss", name)
		}
	}
}

func TestResolveUsesCache(t *testing.T) {
	repo := memory.NewElementTypeRepository()
	et := seedFoo(t, repo)
	r := newTestResolver(t, repo, cache.NewMemory())
	ctx := context.Background()

	if _, ok, _ := r.ResolveRef(ctx, content.IDRef(et.ID)); !ok {
		t.Fatalf("expected first resolution to hit the repository")
	}
	if err := repo.SoftDelete(ctx, et.ID); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	if _, ok, _ := r.ResolveRef(ctx, content.IDRef(et.ID)); !ok {
		t.Fatalf("expected cached schema to be served")
	}
}

func TestInvalidateDropsIDAndAliasEntries(t *testing.T) {
	repo := memory.NewElementTypeRepository()
	et := seedFoo(t, repo)
	r := newTestResolver(t, repo, cache.NewMemory())
	ctx := context.Background()

	if _, ok, _ := r.ResolveRef(ctx, content.IDRef(et.ID)); !ok {
		t.Fatalf("expected resolution by id")
	}
	if _, ok, _ := r.ResolveRef(ctx, content.AliasRef("FOO")); !ok {
		t.Fatalf("expected resolution by alias")
	}

	et.Properties = append(et.Properties, domain.PropertyType{Alias: "subtitle", Name: "Subtitle", EditorAlias: "textbox", SortOrder: 4})
	if err := repo.Update(ctx, et); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := r.Invalidate(ctx, et); err != nil {
		t.Fatalf("invalidate: %v", err)
	}

	for _, ref := range []content.Ref{content.IDRef(et.ID), content.AliasRef("foo")} {
		s, ok, err := r.ResolveRef(ctx, ref)
		if err != nil || !ok {
			t.Fatalf("%s: expected resolution, ok=%v err=%v", ref, ok, err)
		}
		if _, ok := s.Field("subtitle"); !ok {
			t.Fatalf("%s: expected the refreshed schema to include subtitle", ref)
		}
	}
	if err := r.Invalidate(ctx, nil); err != nil {
		t.Fatalf("invalidating nil should be a no-op, got %v", err)
	}
}

func TestFieldInvariantCopiesConfiguration(t *testing.T) {
	f := Field{Alias: "title", Variation: domain.VariationCulture, Configuration: map[string]any{"maxChars": 10}}
	inv := f.Invariant()
	inv.Configuration["maxChars"] = 20

	if inv.Variation != domain.VariationInvariant {
		t.Fatalf("expected invariant variation, got %s", inv.Variation)
	}
	if f.Configuration["maxChars"] != 10 {
		t.Fatalf("expected original configuration untouched")
	}
}

func TestDataTypeConfigurationLayers(t *testing.T) {
	ctx := context.Background()
	dataTypes := memory.NewDataTypeRepository()
	dt := &domain.DataType{Name: "Short text", EditorAlias: "textbox", Configuration: domain.JSONMap{"maxChars": 40, "placeholder": "Type"}}
	if err := dataTypes.Create(ctx, dt); err != nil {
		t.Fatalf("create data type: %v", err)
	}

	src := DataTypeConfiguration{
		DataTypes: dataTypes,
		Defaults:  map[string]map[string]any{"textbox": {"maxChars": 500, "trim": true}},
	}
	cfg, err := src.Configuration(ctx, domain.PropertyType{
		Alias:         "title",
		DataTypeID:    dt.ID,
		Configuration: domain.JSONMap{"placeholder": "Title"},
	})
	if err != nil {
		t.Fatalf("configuration: %v", err)
	}
	if cfg.EditorAlias != "textbox" {
		t.Fatalf("expected editor alias from data type, got %q", cfg.EditorAlias)
	}
	want := map[string]any{"maxChars": 40, "placeholder": "Title", "trim": true}
	if diff := cmp.Diff(want, cfg.Values); diff != "" {
		t.Fatalf("unexpected configuration (-want +got):\n%s", diff)
	}
}

func TestLoadFSAndSeed(t *testing.T) {
	fsys := fstest.MapFS{
		"types/data.yaml": {Data: []byte(`
data_types:
  - name: Short text
    editor: textbox
    configuration:
      maxChars: 40
`)},
		"types/hero.json": {Data: []byte(`{
  "element_types": [{
    "id": "6f1c7a52-2b7a-4a5e-9a53-7d0d3c2f9f10",
    "alias": "hero",
    "name": "Hero",
    "icon": "icon-picture",
    "groups": ["Content"],
    "properties": [
      {"alias": "title", "name": "Title", "data_type": "Short text", "mandatory": true, "group": "Content"},
      {"alias": "count", "name": "Count", "editor": "integer", "pattern": "^\\d+$"}
    ]
  }]
}`)},
		"README.md": {Data: []byte("ignored")},
	}

	defs, err := LoadFS(fsys)
	if err != nil {
		t.Fatalf("LoadFS: %v", err)
	}
	if len(defs.DataTypes) != 1 || len(defs.ElementTypes) != 1 {
		t.Fatalf("unexpected definitions: %+v", defs)
	}

	ctx := context.Background()
	elementTypes := memory.NewElementTypeRepository()
	dataTypes := memory.NewDataTypeRepository()
	if err := Seed(ctx, defs, elementTypes, dataTypes); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if err := Seed(ctx, defs, elementTypes, dataTypes); err != nil {
		t.Fatalf("second Seed should be a no-op: %v", err)
	}

	hero, err := elementTypes.GetByAlias(ctx, "hero")
	if err != nil {
		t.Fatalf("get hero: %v", err)
	}
	if hero.ID.String() != "6f1c7a52-2b7a-4a5e-9a53-7d0d3c2f9f10" {
		t.Fatalf("expected declared id to be kept, got %s", hero.ID)
	}

	r, err := NewResolver(Dependencies{Source: elementTypes, Configurations: DataTypeConfiguration{DataTypes: dataTypes}})
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	s, err := r.Build(ctx, hero)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	title, ok := s.Field("TITLE")
	if !ok {
		t.Fatalf("expected case-insensitive field lookup")
	}
	if title.Kind != "textbox" || title.Configuration["maxChars"] != 40 {
		t.Fatalf("expected data type editor and configuration, got %+v", title)
	}
	count, _ := s.Field("count")
	if count.Pattern != `^\d+$` {
		t.Fatalf("unexpected pattern %q", count.Pattern)
	}
}

func TestLoadFSRejectsDuplicateAliases(t *testing.T) {
	fsys := fstest.MapFS{
		"a.yaml": {Data: []byte("element_types:\n  - alias: hero\n")},
		"b.yml":  {Data: []byte("element_types:\n  - alias: HERO\n")},
	}
	if _, err := LoadFS(fsys); err == nil {
		t.Fatalf("expected duplicate alias error")
	}
}

func fieldAliases(s *Schema) []string {
	var out []string
	for _, f := range s.Fields() {
		out = append(out, f.Alias)
	}
	return out
}
