package blueprints

import (
	"context"
	"errors"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-stacked-content/internal/storage/memory"
	"github.com/goliatone/go-stacked-content/pkg/content"
	"github.com/goliatone/go-stacked-content/pkg/domain"
	"github.com/goliatone/go-stacked-content/pkg/editors"
	"github.com/goliatone/go-stacked-content/pkg/schema"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
)

var heroID = uuid.MustParse("9d3c1e52-5a7b-4c11-8e0f-1b2a3c4d5e01")

func newService(t *testing.T) (*Service, *memory.BlueprintRepository) {
	t.Helper()
	elementTypes := memory.NewElementTypeRepository()
	err := elementTypes.Create(context.Background(), &domain.ElementType{
		RecordMeta: domain.RecordMeta{ID: heroID},
		Alias:      "hero",
		Name:       "Hero",
		Properties: domain.PropertyTypes{
			{Alias: "title", Name: "Title", EditorAlias: editors.KindTextbox},
			{Alias: "subtitle", Name: "Subtitle", EditorAlias: editors.KindTextbox},
		},
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	resolver, err := schema.NewResolver(schema.Dependencies{Source: elementTypes})
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	repo := memory.NewBlueprintRepository()
	svc, err := NewService(Dependencies{Repository: repo, Resolver: resolver})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, repo
}

func parseRecord(t *testing.T, raw string) *content.Record {
	t.Helper()
	rec := &content.Record{}
	if err := rec.UnmarshalJSON([]byte(raw)); err != nil {
		t.Fatalf("decode record: %v", err)
	}
	return rec
}

func TestCreateKeepsSchemaFieldsOnly(t *testing.T) {
	svc, repo := newService(t)
	ctx := context.Background()
	key := uuid.New()

	res, err := svc.Create(ctx, CreateInput{
		Item:   parseRecord(t, `{"name":"Landing hero","key":"`+key.String()+`","elementTypeRef":"alias:hero","TITLE":"Hi","stale":"x","icon":"icon-picture"}`),
		UserID: 42,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	want := Notification{Header: "Blueprint created", Message: `A blueprint was created from "Landing hero"`, Type: NotificationSuccess}
	if diff := cmp.Diff(want, res.Notification); diff != "" {
		t.Fatalf("unexpected notification (-want +got):\n%s", diff)
	}

	stored, err := repo.GetByID(ctx, key)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.ElementTypeID != heroID || stored.CreatorID != 42 || stored.Name != "Landing hero" {
		t.Fatalf("unexpected blueprint %+v", stored)
	}
	if diff := cmp.Diff([]string{"title"}, stored.Values.Keys()); diff != "" {
		t.Fatalf("unexpected stored fields (-want +got):\n%s", diff)
	}
}

func TestCreateLocalizedAndReplacing(t *testing.T) {
	svc, repo := newService(t)
	ctx := context.Background()
	key := uuid.New()
	item := `{"name":"Hero","key":"` + key.String() + `","elementTypeRef":"` + heroID.String() + `","title":"A"}`

	if _, err := svc.Create(ctx, CreateInput{Item: parseRecord(t, item)}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	res, err := svc.Create(ctx, CreateInput{Item: parseRecord(t, item), Locale: "es"})
	if err != nil {
		t.Fatalf("Create again: %v", err)
	}
	if res.Notification.Header != "Plantilla creada" {
		t.Fatalf("expected spanish header, got %q", res.Notification.Header)
	}
	all, _ := repo.ListByElementType(ctx, heroID)
	if len(all) != 1 {
		t.Fatalf("expected the blueprint to be replaced, got %d", len(all))
	}
}

func TestCreateWithoutKeyOrName(t *testing.T) {
	svc, _ := newService(t)

	res, err := svc.Create(context.Background(), CreateInput{Item: parseRecord(t, `{"elementTypeRef":"alias:hero","subtitle":"s"}`)})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if res.Blueprint.ID == uuid.Nil || res.Blueprint.Name != "Hero" {
		t.Fatalf("expected generated id and element type name, got %+v", res.Blueprint)
	}
}

func TestCreateRejectsBadInput(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, CreateInput{}); !errors.Is(err, ErrItemRequired) {
		t.Fatalf("expected ErrItemRequired, got %v", err)
	}
	_, err := svc.Create(ctx, CreateInput{Item: parseRecord(t, `{"elementTypeRef":"alias:nope"}`)})
	if !errors.Is(err, ErrUnknownElementType) || !goerrors.IsCategory(err, goerrors.CategoryBadInput) {
		t.Fatalf("expected unknown element type, got %v", err)
	}
	_, err = svc.Create(ctx, CreateInput{Item: parseRecord(t, `{"elementTypeRef":"alias:hero","key":"not-a-uuid"}`)})
	if !goerrors.IsValidation(err) {
		t.Fatalf("expected validation error for bad key, got %v", err)
	}
	fields, ok := goerrors.GetValidationErrors(err)
	if !ok || len(fields) != 1 || fields[0].Field != "key" {
		t.Fatalf("unexpected field errors %+v", fields)
	}
}

func TestMaskActor(t *testing.T) {
	if got := maskActor(12345); got == "12345" || len(got) != 5 {
		t.Fatalf("expected masked actor id, got %q", got)
	}
}
