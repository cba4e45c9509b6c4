package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-stacked-content/internal/storage/memory"
	"github.com/goliatone/go-stacked-content/pkg/content"
	"github.com/goliatone/go-stacked-content/pkg/domain"
	"github.com/goliatone/go-stacked-content/pkg/editors"
	"github.com/goliatone/go-stacked-content/pkg/schema"
	"github.com/google/uuid"
)

var (
	fooID     = uuid.MustParse("0b8f3c43-3a0e-4f0c-9d61-2b1f7c6c1a01")
	sectionID = uuid.MustParse("0b8f3c43-3a0e-4f0c-9d61-2b1f7c6c1a02")
)

type fixture struct {
	elementTypes *memory.ElementTypeRepository
	registry     *editors.Registry
	resolver     *schema.Resolver
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	repo := memory.NewElementTypeRepository()
	seeds := []*domain.ElementType{
		{
			RecordMeta: domain.RecordMeta{ID: fooID},
			Alias:      "foo",
			Name:       "Foo",
			Properties: domain.PropertyTypes{
				{Alias: "title", Name: "Title", EditorAlias: editors.KindIdentity, Mandatory: true},
				{Alias: "count", Name: "Count", EditorAlias: editors.KindInteger},
				{Alias: "visible", Name: "Visible", EditorAlias: editors.KindBoolean},
				{Alias: "tags", Name: "Tags", EditorAlias: editors.KindTags},
			},
		},
		{
			RecordMeta: domain.RecordMeta{ID: sectionID},
			Alias:      "section",
			Name:       "Section",
			Properties: domain.PropertyTypes{
				{Alias: "heading", Name: "Heading", EditorAlias: editors.KindTextbox},
				{Alias: "children", Name: "Children", EditorAlias: KindStackedContent},
			},
		},
	}
	for _, et := range seeds {
		if err := repo.Create(ctx, et); err != nil {
			t.Fatalf("seed %s: %v", et.Alias, err)
		}
	}
	resolver, err := schema.NewResolver(schema.Dependencies{Source: repo})
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	return &fixture{elementTypes: repo, registry: editors.NewDefaultRegistry(), resolver: resolver}
}

func (f *fixture) converter(t *testing.T, opts ...Option) *Converter {
	t.Helper()
	c, err := New(Dependencies{Resolver: f.resolver, Editors: f.registry}, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c.RegisterNested()
}

// recordingEditor captures what the converter hands to an editor.
type recordingEditor struct {
	kind       string
	fail       error
	editorSeen []schema.Field
	dataSeen   []editors.EditorData
}

func (r *recordingEditor) Kind() string { return r.kind }

func (r *recordingEditor) ToDisplayString(_ context.Context, value content.Value, _ schema.Field) (string, error) {
	if r.fail != nil {
		return "", r.fail
	}
	return "shown:" + value.Text(), nil
}

func (r *recordingEditor) ToEditorModel(_ context.Context, value content.Value, field schema.Field) (content.Value, error) {
	r.editorSeen = append(r.editorSeen, field)
	return value, r.fail
}

func (r *recordingEditor) FromEditorModel(_ context.Context, data editors.EditorData) (content.Value, error) {
	r.dataSeen = append(r.dataSeen, data)
	return data.Value, r.fail
}

func (r *recordingEditor) Validators() []editors.Validator { return nil }

var errExplode = errors.New("editor exploded")

func mustList(t *testing.T, raw string) content.List {
	t.Helper()
	list, err := content.ParseList(raw)
	if err != nil {
		t.Fatalf("parse %s: %v", raw, err)
	}
	return list
}
