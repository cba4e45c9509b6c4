package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-stacked-content/pkg/content"
	"github.com/goliatone/go-stacked-content/pkg/domain"
	"github.com/goliatone/go-stacked-content/pkg/validation"
	"github.com/google/go-cmp/cmp"
)

func TestToDisplayStringEndToEnd(t *testing.T) {
	c := newFixture(t).converter(t)

	out, err := c.ToDisplayString(context.Background(), `[{"key":"k1","elementTypeRef":"alias:foo","title":"Hi"}]`)
	if err != nil {
		t.Fatalf("ToDisplayString: %v", err)
	}
	got := content.MustParse(out)
	want := content.MustParse(`[{"key":"k1","elementTypeRef":"alias:foo","title":"Hi"}]`)
	if !got.Equal(want) {
		t.Fatalf("unexpected display value\nwant %s\ngot  %s", want.Text(), got.Text())
	}
}

func TestBlankInputShortCircuits(t *testing.T) {
	c := newFixture(t).converter(t)
	ctx := context.Background()

	for _, raw := range []string{"", "   ", "\n\t"} {
		display, err := c.ToDisplayString(ctx, raw)
		if err != nil || display != "" {
			t.Fatalf("display %q: got %q (%v)", raw, display, err)
		}
		model, err := c.ToEditorModel(ctx, raw)
		if err != nil || !model.Equal(content.String("")) {
			t.Fatalf("editor %q: got %#v (%v)", raw, model, err)
		}
		_, present, err := c.FromEditorModel(ctx, raw)
		if err != nil || present {
			t.Fatalf("storage %q: expected no value, present=%v err=%v", raw, present, err)
		}
	}
}

func TestMalformedInputIsFatal(t *testing.T) {
	c := newFixture(t).converter(t)
	ctx := context.Background()

	for _, raw := range []string{`[{"title":`, `{"title":"x"}`, `[1,2]`, `[{}] trailing`} {
		if _, err := c.ToDisplayString(ctx, raw); !errors.Is(err, ErrMalformedValue) {
			t.Fatalf("display %q: expected ErrMalformedValue, got %v", raw, err)
		}
		_, err := c.ToEditorModel(ctx, raw)
		if !goerrors.IsCategory(err, goerrors.CategoryBadInput) {
			t.Fatalf("editor %q: expected bad_input category, got %v", raw, err)
		}
		if _, _, err := c.FromEditorModel(ctx, raw); !errors.Is(err, ErrMalformedValue) {
			t.Fatalf("storage %q: expected ErrMalformedValue, got %v", raw, err)
		}
	}
}

func TestFromEditorModelEmptyListIsNoValue(t *testing.T) {
	c := newFixture(t).converter(t)

	stored, present, err := c.FromEditorModel(context.Background(), "[]")
	if err != nil {
		t.Fatalf("FromEditorModel: %v", err)
	}
	if present || stored != "" {
		t.Fatalf("expected no value, got %q present=%v", stored, present)
	}

	display, err := c.ToDisplayString(context.Background(), "[]")
	if err != nil || display != "[]" {
		t.Fatalf("expected display of an empty list to stay an empty array, got %q (%v)", display, err)
	}
}

func TestUnresolvedRecordsPassThrough(t *testing.T) {
	c := newFixture(t).converter(t)
	ctx := context.Background()
	raw := `[{"elementTypeRef":"alias:missing","stale":1,"title":"x"},{"name":"no ref","whatever":[1]}]`
	want := content.MustParse(raw)

	display, err := c.ToDisplayString(ctx, raw)
	if err != nil {
		t.Fatalf("ToDisplayString: %v", err)
	}
	if got := content.MustParse(display); !got.Equal(want) {
		t.Fatalf("display mutated unresolved records: %s", display)
	}

	model, err := c.ToEditorModel(ctx, raw)
	if err != nil {
		t.Fatalf("ToEditorModel: %v", err)
	}
	if !model.Equal(want) {
		t.Fatalf("editor model mutated unresolved records: %s", model.Text())
	}

	stored, present, err := c.FromEditorModel(ctx, raw)
	if err != nil || !present {
		t.Fatalf("FromEditorModel: present=%v err=%v", present, err)
	}
	if got := content.MustParse(stored); !got.Equal(want) {
		t.Fatalf("storage mutated unresolved records: %s", stored)
	}
}

func TestStaleAliasesAreRemovedInEveryDirection(t *testing.T) {
	c := newFixture(t).converter(t)
	ctx := context.Background()
	key := "8d2b1d36-6a55-4d6b-9a57-5f1d0a6c3e11"
	raw := `[{"name":"First","key":"` + key + `","elementTypeRef":"` + fooID.String() + `","title":"Hi","oldField":"gone","Removed":{"a":1}}]`

	check := func(dir string, rec *content.Record) {
		t.Helper()
		if diff := cmp.Diff([]string{"name", "key", "elementTypeRef", "title"}, rec.Keys()); diff != "" {
			t.Fatalf("%s: unexpected keys (-want +got):\n%s", dir, diff)
		}
	}

	display, err := c.ToDisplayString(ctx, raw)
	if err != nil {
		t.Fatalf("ToDisplayString: %v", err)
	}
	check("display", mustList(t, display)[0])

	model, err := c.ToEditorModel(ctx, raw)
	if err != nil {
		t.Fatalf("ToEditorModel: %v", err)
	}
	list, err := content.ListFromValue(model)
	if err != nil {
		t.Fatalf("editor model shape: %v", err)
	}
	check("editor", list[0])

	stored, _, err := c.FromEditorModel(ctx, raw)
	if err != nil {
		t.Fatalf("FromEditorModel: %v", err)
	}
	check("storage", mustList(t, stored)[0])
}

func TestFieldLookupIgnoresCase(t *testing.T) {
	c := newFixture(t).converter(t)

	model, err := c.ToEditorModel(context.Background(), `[{"elementTypeRef":"alias:foo","TITLE":"Hi","Count":"4"}]`)
	if err != nil {
		t.Fatalf("ToEditorModel: %v", err)
	}
	list, _ := content.ListFromValue(model)
	rec := list[0]
	if v, _ := rec.Get("TITLE"); !v.Equal(content.String("Hi")) {
		t.Fatalf("expected title to be kept under its original spelling, got %#v", v)
	}
	if v, _ := rec.Get("count"); !v.Equal(content.Int(4)) {
		t.Fatalf("expected count converted by the integer editor, got %#v", v)
	}
}

func TestRoundTripIsStable(t *testing.T) {
	c := newFixture(t).converter(t)
	ctx := context.Background()
	raw := `[
		{"name":"A","elementTypeRef":"alias:foo","title":"Hi","count":"5","visible":"1","tags":"a, b"},
		{"name":"Legacy","icContentTypeAlias":"foo","title":{"rich":true},"count":3},
		{"name":"Ghost","elementTypeRef":"alias:ghost","anything":"kept"},
		{"elementTypeRef":"alias:section","heading":"Top","children":[{"elementTypeRef":"alias:foo","title":"child","junk":1}]}
	]`

	first, err := c.ToEditorModel(ctx, raw)
	if err != nil {
		t.Fatalf("first ToEditorModel: %v", err)
	}
	firstText, _ := mustListValue(t, first).Encode()

	stored, present, err := c.FromEditorModel(ctx, firstText)
	if err != nil || !present {
		t.Fatalf("FromEditorModel: present=%v err=%v", present, err)
	}

	second, err := c.ToEditorModel(ctx, stored)
	if err != nil {
		t.Fatalf("second ToEditorModel: %v", err)
	}
	if !second.Equal(first) {
		t.Fatalf("round trip changed the editor model\nfirst  %s\nsecond %s", first.Text(), second.Text())
	}
}

func TestConversionPreservesLengthAndOrder(t *testing.T) {
	c := newFixture(t).converter(t)
	ctx := context.Background()
	raw := `[{"name":"1","elementTypeRef":"alias:foo"},{"name":"2","elementTypeRef":"alias:nope"},{"name":"3"},{"name":"4","elementTypeRef":"alias:section"}]`

	names := func(list content.List) []string {
		var out []string
		for _, rec := range list {
			out = append(out, rec.Name())
		}
		return out
	}
	want := []string{"1", "2", "3", "4"}

	display, err := c.ToDisplayString(ctx, raw)
	if err != nil {
		t.Fatalf("ToDisplayString: %v", err)
	}
	if diff := cmp.Diff(want, names(mustList(t, display))); diff != "" {
		t.Fatalf("display order (-want +got):\n%s", diff)
	}
	model, err := c.ToEditorModel(ctx, raw)
	if err != nil {
		t.Fatalf("ToEditorModel: %v", err)
	}
	if diff := cmp.Diff(want, names(mustListValue(t, model))); diff != "" {
		t.Fatalf("editor order (-want +got):\n%s", diff)
	}
	stored, _, err := c.FromEditorModel(ctx, raw)
	if err != nil {
		t.Fatalf("FromEditorModel: %v", err)
	}
	if diff := cmp.Diff(want, names(mustList(t, stored))); diff != "" {
		t.Fatalf("storage order (-want +got):\n%s", diff)
	}
}

func TestEditorDirectionsBackfillReferenceAndKey(t *testing.T) {
	c := newFixture(t).converter(t)
	ctx := context.Background()
	raw := `[{"icContentTypeAlias":"foo","title":"Hi"}]`

	model, err := c.ToEditorModel(ctx, raw)
	if err != nil {
		t.Fatalf("ToEditorModel: %v", err)
	}
	rec := mustListValue(t, model)[0]
	if ref := rec.TypeRef(); ref.ID != fooID {
		t.Fatalf("expected canonical id reference, got %+v", ref)
	}
	if rec.Has("icContentTypeAlias") {
		t.Fatalf("expected legacy key to be replaced")
	}
	if _, ok := rec.Key(); !ok {
		t.Fatalf("expected a key to be assigned")
	}

	display, err := c.ToDisplayString(ctx, raw)
	if err != nil {
		t.Fatalf("ToDisplayString: %v", err)
	}
	if strings.Contains(display, fooID.String()) || strings.Contains(display, `"key"`) {
		t.Fatalf("display must not rewrite the record reference, got %s", display)
	}
}

func TestShapeErrorsNullTheField(t *testing.T) {
	c := newFixture(t).converter(t)

	stored, _, err := c.FromEditorModel(context.Background(), `[{"elementTypeRef":"alias:foo","title":"ok","count":{"n":1},"visible":"maybe"}]`)
	if err != nil {
		t.Fatalf("FromEditorModel: %v", err)
	}
	rec := mustList(t, stored)[0]
	if v, _ := rec.Get("count"); !v.IsNull() {
		t.Fatalf("expected count nulled, got %#v", v)
	}
	if v, _ := rec.Get("visible"); !v.IsNull() {
		t.Fatalf("expected visible nulled, got %#v", v)
	}
	if v, _ := rec.Get("title"); !v.Equal(content.String("ok")) {
		t.Fatalf("expected remaining fields converted, got %#v", v)
	}
}

func TestOtherEditorErrorsAreFatal(t *testing.T) {
	f := newFixture(t)
	f.registry.MustRegister(&recordingEditor{kind: "explosive", fail: errExplode})
	addProperty(t, f, "foo", domain.PropertyType{Alias: "boom", Name: "Boom", EditorAlias: "explosive"})
	c := f.converter(t)

	_, err := c.ToDisplayString(context.Background(), `[{"elementTypeRef":"alias:foo","boom":"x"}]`)
	if !errors.Is(err, errExplode) {
		t.Fatalf("expected editor failure to surface, got %v", err)
	}
}

func TestDispatchForcesInvariantAndWrapsConfiguration(t *testing.T) {
	f := newFixture(t)
	rec := &recordingEditor{kind: "recorder"}
	f.registry.MustRegister(rec)
	addProperty(t, f, "foo", domain.PropertyType{
		Alias:         "recorder",
		Name:          "Recorder",
		EditorAlias:   "recorder",
		Variations:    domain.VariationCultureAndSegment,
		Configuration: domain.JSONMap{"rows": 4},
	})
	c := f.converter(t)
	ctx := context.Background()

	if _, err := c.ToEditorModel(ctx, `[{"elementTypeRef":"alias:foo","recorder":"v"}]`); err != nil {
		t.Fatalf("ToEditorModel: %v", err)
	}
	if len(rec.editorSeen) != 1 || rec.editorSeen[0].Variation != domain.VariationInvariant {
		t.Fatalf("expected invariant descriptor, got %+v", rec.editorSeen)
	}

	if _, _, err := c.FromEditorModel(ctx, `[{"elementTypeRef":"alias:foo","recorder":"v"}]`); err != nil {
		t.Fatalf("FromEditorModel: %v", err)
	}
	if len(rec.dataSeen) != 1 {
		t.Fatalf("expected one carrier, got %d", len(rec.dataSeen))
	}
	data := rec.dataSeen[0]
	if !data.Value.Equal(content.String("v")) || data.Configuration["rows"] != 4 || data.Field.Alias != "recorder" {
		t.Fatalf("unexpected carrier %+v", data)
	}
}

func TestUnknownEditorKindPassesThrough(t *testing.T) {
	f := newFixture(t)
	addProperty(t, f, "foo", domain.PropertyType{Alias: "custom", Name: "Custom", EditorAlias: "vendor.picker"})
	c := f.converter(t)

	out, err := c.ToDisplayString(context.Background(), `[{"elementTypeRef":"alias:foo","custom":{"id":7}}]`)
	if err != nil {
		t.Fatalf("ToDisplayString: %v", err)
	}
	rec := mustList(t, out)[0]
	if v, _ := rec.Get("custom"); !v.Equal(content.MustParse(`{"id":7}`)) {
		t.Fatalf("expected untouched value, got %#v", v)
	}
}

func TestNestedStackedContent(t *testing.T) {
	c := newFixture(t).converter(t)
	raw := `[{"elementTypeRef":"alias:section","heading":"Top","children":"[{\"elementTypeRef\":\"alias:foo\",\"title\":\"child\",\"count\":\"2\",\"junk\":true}]"}]`

	stored, _, err := c.FromEditorModel(context.Background(), raw)
	if err != nil {
		t.Fatalf("FromEditorModel: %v", err)
	}
	parent := mustList(t, stored)[0]
	children, _ := parent.Get("children")
	nested, err := content.ListFromValue(children)
	if err != nil {
		t.Fatalf("expected nested array, got %#v", children)
	}
	if nested[0].Has("junk") {
		t.Fatalf("expected nested stale alias to be removed")
	}
	if v, _ := nested[0].Get("count"); !v.Equal(content.Int(2)) {
		t.Fatalf("expected nested conversion, got %#v", v)
	}
}

func TestNestedRecordsAreValidated(t *testing.T) {
	f := newFixture(t)
	f.converter(t)
	v, err := validation.New(validation.Dependencies{Resolver: f.resolver, Editors: f.registry})
	if err != nil {
		t.Fatalf("validation.New: %v", err)
	}
	ctx := context.Background()

	collect := func(raw string) []string {
		t.Helper()
		seq, err := v.Validate(ctx, raw)
		if err != nil {
			t.Fatalf("Validate: %v", err)
		}
		var out []string
		for r := range seq {
			out = append(out, r.Message)
		}
		return out
	}

	top := collect(`[{"elementTypeRef":"alias:foo","title":""}]`)
	if diff := cmp.Diff([]string{"Item 1 'Title' cannot be empty"}, top); diff != "" {
		t.Fatalf("unexpected top level messages (-want +got):\n%s", diff)
	}

	nested := collect(`[{"elementTypeRef":"alias:section","heading":"Top","children":[{"elementTypeRef":"alias:foo","title":"ok"},{"elementTypeRef":"alias:foo","title":""}]}]`)
	if diff := cmp.Diff([]string{"Item 1 'Children' Item 2 'Title' cannot be empty"}, nested); diff != "" {
		t.Fatalf("unexpected nested messages (-want +got):\n%s", diff)
	}

	shape := collect(`[{"elementTypeRef":"alias:section","children":42}]`)
	if diff := cmp.Diff([]string{"Item 1 'Children' " + MessageNestedInvalid}, shape); diff != "" {
		t.Fatalf("unexpected shape messages (-want +got):\n%s", diff)
	}

	if got := collect(`[{"elementTypeRef":"alias:section","children":[]}]`); len(got) != 0 {
		t.Fatalf("expected an empty nested list to be valid, got %+v", got)
	}
}

func TestSingleItemCardinality(t *testing.T) {
	f := newFixture(t)
	c := f.converter(t, WithSingleItem())
	ctx := context.Background()
	two := `[{"elementTypeRef":"alias:foo","title":"a"},{"elementTypeRef":"alias:foo","title":"b"}]`

	if _, err := c.ToDisplayString(ctx, two); !errors.Is(err, ErrCardinality) {
		t.Fatalf("expected ErrCardinality, got %v", err)
	}
	if _, err := c.ToEditorModel(ctx, two); !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation category, got %v", err)
	}
	if _, _, err := c.FromEditorModel(ctx, two); !errors.Is(err, ErrCardinality) {
		t.Fatalf("expected ErrCardinality, got %v", err)
	}

	one, err := c.ToDisplayString(ctx, `[{"elementTypeRef":"alias:foo","title":"a"}]`)
	if err != nil || len(mustList(t, one)) != 1 {
		t.Fatalf("expected a single record to convert, got %q (%v)", one, err)
	}

	multi := f.converter(t)
	if el, err := multi.ConvertSingle(ctx, two); !errors.Is(err, ErrCardinality) || el != nil {
		t.Fatalf("expected ConvertSingle to refuse two records, got %+v (%v)", el, err)
	}
	if el, err := multi.ConvertSingle(ctx, "[]"); err != nil || el != nil {
		t.Fatalf("expected nil element for an empty list, got %+v (%v)", el, err)
	}
	el, err := multi.ConvertSingle(ctx, `[{"elementTypeRef":"alias:foo","title":"a"}]`)
	if err != nil || el == nil || el.Schema.Alias != "foo" {
		t.Fatalf("expected foo element, got %+v (%v)", el, err)
	}
}

func TestElementsSkipUnresolvedRecords(t *testing.T) {
	c := newFixture(t).converter(t)

	elements, err := c.Elements(context.Background(), `[{"name":"x","elementTypeRef":"alias:nope"},{"name":"Hero","elementTypeRef":"alias:foo","title":"Hi","count":"3","visible":1}]`)
	if err != nil {
		t.Fatalf("Elements: %v", err)
	}
	if len(elements) != 1 {
		t.Fatalf("expected one renderable element, got %d", len(elements))
	}
	el := elements[0]
	if el.Index != 1 || el.Name != "Hero" {
		t.Fatalf("unexpected element %+v", el)
	}
	want := map[string]any{"title": "Hi", "count": int64(3), "visible": true}
	if diff := cmp.Diff(want, el.Values()); diff != "" {
		t.Fatalf("unexpected values (-want +got):\n%s", diff)
	}
}

func TestParseDirection(t *testing.T) {
	for _, dir := range []Direction{ToDisplayString, ToEditorModel, FromEditorModel} {
		got, err := ParseDirection(dir.String())
		if err != nil || got != dir {
			t.Fatalf("ParseDirection(%s) = %v, %v", dir, got, err)
		}
	}
	if _, err := ParseDirection("sideways"); err == nil {
		t.Fatalf("expected unknown direction to fail")
	}
}

func TestNewRequiresResolver(t *testing.T) {
	if _, err := New(Dependencies{}); !errors.Is(err, ErrResolverRequired) {
		t.Fatalf("expected ErrResolverRequired, got %v", err)
	}
}

func addProperty(t *testing.T, f *fixture, alias string, prop domain.PropertyType) {
	t.Helper()
	ctx := context.Background()
	et, err := f.elementTypes.GetByAlias(ctx, alias)
	if err != nil {
		t.Fatalf("get %s: %v", alias, err)
	}
	et.Properties = append(et.Properties, prop)
	if err := f.elementTypes.Update(ctx, et); err != nil {
		t.Fatalf("update %s: %v", alias, err)
	}
}

func mustListValue(t *testing.T, v content.Value) content.List {
	t.Helper()
	list, err := content.ListFromValue(v)
	if err != nil {
		t.Fatalf("expected list value: %v", err)
	}
	return list
}
