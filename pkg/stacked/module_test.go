package stacked

import (
	"context"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/goliatone/go-stacked-content/pkg/config"
	"github.com/goliatone/go-stacked-content/pkg/commands"
	"github.com/goliatone/go-stacked-content/pkg/content"
	"github.com/goliatone/go-stacked-content/pkg/domain"
	"github.com/goliatone/go-stacked-content/pkg/interfaces/logger"
	"github.com/goliatone/go-stacked-content/pkg/render"
	"github.com/goliatone/go-stacked-content/pkg/session"
	"github.com/goliatone/go-stacked-content/pkg/storage"
)

const definitions = `
data_types:
  - name: Heading
    editor: textbox
    configuration:
      maxChars: 60
element_types:
  - alias: hero
    name: Hero
    icon: icon-picture
    properties:
      - alias: title
        name: Title
        data_type: Heading
        mandatory: true
      - alias: subtitle
        name: Subtitle
        editor: textarea
`

func newModule(t *testing.T, cfg config.Config) *Module {
	t.Helper()
	partials := fstest.MapFS{
		"views/partials/stackedcontent/hero.html": {Data: []byte(`<h1>{{ item.values.title }}</h1>`)},
	}
	module, err := NewModule(ModuleOptions{
		Config:   cfg,
		Logger:   &logger.Nop{},
		Storage:  storage.NewMemoryProviders(),
		Partials: partials,
	})
	if err != nil {
		t.Fatalf("module: %v", err)
	}
	if err := module.Seed(context.Background(), fstest.MapFS{"schemas/hero.yaml": {Data: []byte(definitions)}}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return module
}

func TestModuleConstruction(t *testing.T) {
	module := newModule(t, config.Config{})
	if module.ElementTypes() == nil || module.Blueprints() == nil {
		t.Fatalf("expected element type and blueprint services")
	}
	if module.Commands() == nil {
		t.Fatalf("expected commands registry")
	}
	if module.Converter() == nil || module.Renderer() == nil {
		t.Fatalf("expected converter and renderer")
	}
	if module.Config().HTTP.Prefix != "/api/stackedcontent" {
		t.Fatalf("expected default config, got %+v", module.Config().HTTP)
	}
}

func TestModuleStoresValidatesAndRenders(t *testing.T) {
	ctx := context.Background()
	module := newModule(t, config.Config{})

	submitted := `[{"key":"0b8f3c43-3a0e-4f0c-9d61-2b1f7c6c1a09","elementTypeRef":"alias:hero","title":"Welcome","removed":"x"}]`
	stored, ok, err := module.FromEditorModel(ctx, submitted)
	if err != nil || !ok {
		t.Fatalf("FromEditorModel: %v (ok=%v)", err, ok)
	}
	if strings.Contains(stored, "removed") || strings.Contains(stored, "alias:hero") {
		t.Fatalf("expected stale alias dropped and canonical reference stored, got %s", stored)
	}

	html, err := module.Render(ctx, render.Request{Value: stored})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if html != "<h1>Welcome</h1>\n" {
		t.Fatalf("unexpected render output %q", html)
	}

	results, err := module.Validate(ctx, `[{"elementTypeRef":"alias:hero","title":""}]`)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if len(results) != 1 || results[0].Message != "Item 1 'Title' cannot be empty" {
		t.Fatalf("unexpected validation results %+v", results)
	}
}

func TestModuleKeepsFieldsAddedByUpsert(t *testing.T) {
	ctx := context.Background()
	module := newModule(t, config.Config{})
	upsert := module.Commands().UpsertElementType

	err := upsert.Execute(ctx, commands.UpsertElementType{
		Alias:      "foo",
		Name:       "Foo",
		Properties: []domain.PropertyType{{Alias: "title", Name: "Title", EditorAlias: "textbox"}},
	})
	if err != nil {
		t.Fatalf("create foo: %v", err)
	}
	if _, _, err := module.FromEditorModel(ctx, `[{"elementTypeRef":"alias:foo","title":"a"}]`); err != nil {
		t.Fatalf("first store: %v", err)
	}

	err = upsert.Execute(ctx, commands.UpsertElementType{
		Alias: "foo",
		Name:  "Foo",
		Properties: []domain.PropertyType{
			{Alias: "title", Name: "Title", EditorAlias: "textbox"},
			{Alias: "body", Name: "Body", EditorAlias: "textarea", SortOrder: 1},
		},
		AllowUpdate: true,
	})
	if err != nil {
		t.Fatalf("update foo: %v", err)
	}

	stored, ok, err := module.FromEditorModel(ctx, `[{"elementTypeRef":"alias:foo","title":"a","body":"new field"}]`)
	if err != nil || !ok {
		t.Fatalf("second store: %v (ok=%v)", err, ok)
	}
	if !strings.Contains(stored, `"body":"new field"`) {
		t.Fatalf("expected the added field to be stored, got %s", stored)
	}
}

func TestModuleSession(t *testing.T) {
	ctx := context.Background()
	module := newModule(t, config.Config{})

	s, err := module.NewSession(ctx, "", []string{"hero"}, session.Dependencies{})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	rec, err := s.Pick(ctx, -1)
	if err != nil {
		t.Fatalf("Pick: %v", err)
	}
	if rec == nil {
		t.Fatalf("expected the only allowed type to be added without a picker")
	}
	if err := s.Set("title", content.String("Hello")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	s.Close()

	value, err := s.Value()
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	html, err := module.Render(ctx, render.Request{Value: value})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if html != "<h1>Hello</h1>\n" {
		t.Fatalf("unexpected render output %q", html)
	}
}

func TestModuleSingleItemMode(t *testing.T) {
	ctx := context.Background()
	cfg := config.Defaults()
	cfg.Editor.SingleItemMode = true
	cfg.Editor.MinItems, cfg.Editor.MaxItems = 1, 1
	module := newModule(t, cfg)

	two := `[{"elementTypeRef":"alias:hero","title":"a"},{"elementTypeRef":"alias:hero","title":"b"}]`
	if _, err := module.ToDisplayString(ctx, two); err == nil {
		t.Fatalf("expected cardinality error in single item mode")
	}
	html, err := module.Render(ctx, render.Request{Value: `[{"elementTypeRef":"alias:hero","title":"only"}]`})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if html != "<h1>only</h1>\n" {
		t.Fatalf("unexpected render output %q", html)
	}
}
