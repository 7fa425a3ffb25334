package cache

import (
	"reflect"
	"testing"
)

func TestMerge_Locality(t *testing.T) {
	base := map[string]any{"a": map[string]any{"x": 1}}
	update := map[string]any{"a": map[string]any{"y": 2}}

	got := Merge(base, update)

	want := map[string]any{"a": map[string]any{"x": 1, "y": 2}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Merge() = %v, want %v", got, want)
	}
}

func TestMerge_Idempotence(t *testing.T) {
	update := map[string]any{
		"summary": map[string]any{"status": "up", "name": "Front Door"},
		"events":  map[string]any{"device:sensor:button": map[string]any{"createdAt": "2026-01-01T00:00:00.000Z"}},
	}

	once := Merge(map[string]any{"token": "abc"}, DeepCopy(update))
	twice := Merge(DeepCopy(once), DeepCopy(update))

	if !reflect.DeepEqual(once, twice) {
		t.Errorf("merging twice changed the result: once=%v twice=%v", once, twice)
	}
}

func TestMerge_ScalarReplacesMap(t *testing.T) {
	base := map[string]any{"a": map[string]any{"x": 1}}
	got := Merge(base, map[string]any{"a": "flat"})

	if got["a"] != "flat" {
		t.Errorf("scalar update should replace map, got %v", got["a"])
	}
}

func TestMerge_MapReplacesScalar(t *testing.T) {
	base := map[string]any{"a": "flat"}
	got := Merge(base, map[string]any{"a": map[string]any{"x": 1}})

	want := map[string]any{"x": 1}
	if !reflect.DeepEqual(got["a"], want) {
		t.Errorf("map update should replace scalar, got %v", got["a"])
	}
}

func TestMerge_ListsReplaceWholesale(t *testing.T) {
	base := map[string]any{"activities": []any{"a", "b", "c"}}
	got := Merge(base, map[string]any{"activities": []any{"d"}})

	want := []any{"d"}
	if !reflect.DeepEqual(got["activities"], want) {
		t.Errorf("lists must be replaced, not merged: got %v", got["activities"])
	}
}

func TestMerge_PreservesUntouchedKeys(t *testing.T) {
	base := map[string]any{"keep": "me", "nested": map[string]any{"keep": "too", "change": 1}}
	got := Merge(base, map[string]any{"nested": map[string]any{"change": 2}})

	if got["keep"] != "me" {
		t.Error("top-level key outside the update was lost")
	}
	nested := got["nested"].(map[string]any)
	if nested["keep"] != "too" {
		t.Error("nested key outside the update was lost")
	}
	if nested["change"] != 2 {
		t.Errorf("nested key in the update not applied: %v", nested["change"])
	}
}

func TestMerge_NilBase(t *testing.T) {
	got := Merge(nil, map[string]any{"a": 1})
	if got["a"] != 1 {
		t.Errorf("Merge(nil, ...) = %v", got)
	}
}

func TestDeepCopy_Independence(t *testing.T) {
	original := map[string]any{
		"nested": map[string]any{"k": "v"},
		"list":   []any{1, 2, 3},
	}

	cpy := DeepCopy(original)
	cpy["nested"].(map[string]any)["k"] = "changed"
	cpy["list"].([]any)[0] = 99

	if original["nested"].(map[string]any)["k"] != "v" {
		t.Error("DeepCopy shares nested maps with the original")
	}
	if original["list"].([]any)[0] != 1 {
		t.Error("DeepCopy shares slices with the original")
	}
}
