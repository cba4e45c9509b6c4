package options

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	opts "github.com/goliatone/go-options"
)

func TestNewResolverMergesSnapshots(t *testing.T) {
	resolver, err := NewResolver(
		Snapshot{
			Scope: ScopeDefaults,
			Data: map[string]any{
				"maxItems":       0,
				"singleItemMode": "0",
				"contentTypes":   []any{"hero"},
			},
		},
		Snapshot{
			Scope: ScopeDataType,
			Data: map[string]any{
				"maxItems":       float64(3),
				"singleItemMode": "1",
				"contentTypes":   []string{"quote"},
			},
		},
	)
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}

	maxItems, trace, err := resolver.ResolveInt("maxItems")
	if err != nil {
		t.Fatalf("resolve int: %v", err)
	}
	if maxItems != 3 {
		t.Fatalf("expected data type override, got %d", maxItems)
	}
	if trace.Path != "maxItems" || len(trace.Layers) != 2 {
		t.Fatalf("unexpected trace contents: %+v", trace)
	}

	single, _, err := resolver.ResolveBool("singleItemMode")
	if err != nil {
		t.Fatalf("resolve bool: %v", err)
	}
	if !single {
		t.Fatalf("expected \"1\" to resolve as true")
	}

	types, _, err := resolver.ResolveStringSlice("contentTypes")
	if err != nil {
		t.Fatalf("resolve list: %v", err)
	}
	if diff := cmp.Diff([]string{"quote"}, types); diff != "" {
		t.Fatalf("unexpected list (-want +got):\n%s", diff)
	}
}

func TestMergeConfigurationPropertyWins(t *testing.T) {
	merged, err := MergeConfiguration(
		map[string]any{"maxChars": 500, "rows": 3},
		map[string]any{"maxChars": 100},
		map[string]any{"maxChars": 20, "placeholder": "Title"},
	)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	want := map[string]any{"maxChars": 20, "rows": 3, "placeholder": "Title"}
	if diff := cmp.Diff(want, merged); diff != "" {
		t.Fatalf("unexpected configuration (-want +got):\n%s", diff)
	}
}

func TestMergeConfigurationEmptyLayers(t *testing.T) {
	merged, err := MergeConfiguration(nil, nil, nil)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if len(merged) != 0 {
		t.Fatalf("expected empty configuration, got %+v", merged)
	}
}

func TestNewResolverValidation(t *testing.T) {
	_, err := NewResolver()
	if err != ErrNoSnapshots {
		t.Fatalf("expected ErrNoSnapshots, got %v", err)
	}

	_, err = NewResolver(Snapshot{
		Scope: opts.Scope{},
		Data:  map[string]any{},
	})
	if err == nil {
		t.Fatalf("expected error for missing scope name")
	}
}

func TestFlatReaders(t *testing.T) {
	values := map[string]any{
		"maxChars": json.Number("40"),
		"min":      "2",
		"ratio":    1.5,
		"enabled":  "1",
		"items":    []any{"a", "b"},
		"label":    "Pick",
	}

	if n, ok := Int(values, "maxChars"); !ok || n != 40 {
		t.Fatalf("expected 40, got %d (%v)", n, ok)
	}
	if n, ok := Int(values, "min"); !ok || n != 2 {
		t.Fatalf("expected numeric string to parse, got %d (%v)", n, ok)
	}
	if _, ok := Int(values, "ratio"); ok {
		t.Fatalf("expected fractional value to be rejected as int")
	}
	if f, ok := Float(values, "ratio"); !ok || f != 1.5 {
		t.Fatalf("expected 1.5, got %v", f)
	}
	if b, ok := Bool(values, "enabled"); !ok || !b {
		t.Fatalf("expected enabled toggle")
	}
	if _, ok := Bool(values, "missing"); ok {
		t.Fatalf("expected missing toggle to report not found")
	}
	if diff := cmp.Diff([]string{"a", "b"}, mustStrings(t, values, "items")); diff != "" {
		t.Fatalf("unexpected items (-want +got):\n%s", diff)
	}
	if s, _ := String(values, "label"); s != "Pick" {
		t.Fatalf("unexpected label %q", s)
	}
}

func mustStrings(t *testing.T, values map[string]any, key string) []string {
	t.Helper()
	out, ok := Strings(values, key)
	if !ok {
		t.Fatalf("expected %s to be a string list", key)
	}
	return out
}
