package content

import (
	"encoding/json"
	"fmt"
	"reflect"
	"testing"

	"github.com/matzehuels/pagesmith/pkg/core/plan"
	"github.com/matzehuels/pagesmith/pkg/core/sections"
	"github.com/matzehuels/pagesmith/pkg/errors"
)

func secs(types ...string) []plan.Section {
	out := make([]plan.Section, len(types))
	for i, t := range types {
		out[i] = plan.Section{Type: t, Variant: "v1"}
	}
	return out
}

func TestSeedDefaults(t *testing.T) {
	store := SeedDefaults(secs("hero", "kpiTiles", "marquee", "pricingTable", "hero"))

	if len(store) != 4 {
		t.Fatalf("len(store) = %d, want 4", len(store))
	}

	hero, ok := store["hero"].(map[string]any)
	if !ok {
		t.Fatalf("hero = %T, want record", store["hero"])
	}
	if hero["heading"] != "Your AI Website" || hero["cta"] != "Get Started" {
		t.Errorf("hero = %v", hero)
	}

	kpi, ok := store["kpiTiles"].([]any)
	if !ok || len(kpi) != 3 {
		t.Fatalf("kpiTiles = %v, want 3-item list", store["kpiTiles"])
	}

	marquee := store["marquee"].(map[string]any)
	if items := marquee["items"].([]any); len(items) != 6 || items[0] != "INNOVATION" {
		t.Errorf("marquee items = %v", items)
	}

	if rec, ok := store["pricingTable"].(map[string]any); !ok || len(rec) != 0 {
		t.Errorf("pricingTable = %v, want empty record", store["pricingTable"])
	}
}

func TestSeedDefaultsFresh(t *testing.T) {
	a := SeedDefaults(secs("hero"))
	b := SeedDefaults(secs("hero"))
	a["hero"].(map[string]any)["heading"] = "changed"
	if b["hero"].(map[string]any)["heading"] != "Your AI Website" {
		t.Error("seeded payloads share state")
	}
}

func TestMergeHydration(t *testing.T) {
	tests := []struct {
		name    string
		current Store
		patch   Patch
		want    Store
	}{
		{
			name:    "record fields merge",
			current: Store{"hero": Record{"heading": "A", "cta": "Go"}},
			patch:   Patch{"hero": Record{"heading": "B", "subheading": "S"}},
			want:    Store{"hero": Record{"heading": "B", "cta": "Go", "subheading": "S"}},
		},
		{
			name:    "list replaces list",
			current: Store{"kpiTiles": List{Record{"label": "x"}}},
			patch:   Patch{"kpiTiles": List{Record{"label": "y"}, Record{"label": "z"}}},
			want:    Store{"kpiTiles": List{Record{"label": "y"}, Record{"label": "z"}}},
		},
		{
			name:    "shape change replaces",
			current: Store{"kpiTiles": List{Record{"label": "x"}}},
			patch:   Patch{"kpiTiles": Record{"label": "y"}},
			want:    Store{"kpiTiles": Record{"label": "y"}},
		},
		{
			name:    "new key added",
			current: Store{"hero": Record{"heading": "A"}},
			patch:   Patch{"footer": Record{"text": "F"}},
			want:    Store{"hero": Record{"heading": "A"}, "footer": Record{"text": "F"}},
		},
		{
			name:    "nil incoming skipped",
			current: Store{"hero": Record{"heading": "A"}},
			patch:   Patch{"hero": nil},
			want:    Store{"hero": Record{"heading": "A"}},
		},
		{
			name:    "empty patch",
			current: Store{"hero": Record{"heading": "A"}},
			patch:   Patch{},
			want:    Store{"hero": Record{"heading": "A"}},
		},
		{
			name:    "error marker ignores whole patch",
			current: Store{"hero": Record{"heading": "A"}},
			patch:   Patch{"error": "quota", "hero": Record{"heading": "B"}},
			want:    Store{"hero": Record{"heading": "A"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MergeHydration(tt.current, tt.patch)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("MergeHydration() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMergeHydrationPreservesEdits(t *testing.T) {
	store := SeedDefaults(secs("hero", "split"))
	store, err := ApplyEdit(store, "split", Field("title"), "My edit")
	if err != nil {
		t.Fatal(err)
	}

	got := MergeHydration(store, Patch{"hero": Record{"heading": "Generated"}})

	if got["split"].(map[string]any)["title"] != "My edit" {
		t.Errorf("edit lost: %v", got["split"])
	}
	if got["hero"].(map[string]any)["heading"] != "Generated" {
		t.Errorf("hero not hydrated: %v", got["hero"])
	}
	if got["hero"].(map[string]any)["cta"] != "Get Started" {
		t.Errorf("hero default field lost: %v", got["hero"])
	}
}

func TestMergeHydrationDoesNotMutate(t *testing.T) {
	current := Store{"hero": Record{"heading": "A"}}
	before := current.Clone()
	patch := Patch{"hero": Record{"heading": "B"}, "footer": Record{"text": "F"}}

	_ = MergeHydration(current, patch)

	if !reflect.DeepEqual(current, before) {
		t.Errorf("input mutated: %v", current)
	}
}

func TestShapeInvariant(t *testing.T) {
	store := SeedDefaults(secs("hero", "kpiTiles", "bento"))
	store = MergeHydration(store, Patch{
		"hero":     Record{"heading": "H"},
		"kpiTiles": List{Record{"label": "L", "value": "1"}},
		"bento":    Record{"title": "T"},
	})
	store, _ = ApplyEdit(store, "hero", Field("cta"), "Buy")
	store, _ = ApplyEdit(store, "kpiTiles", Item(2, "value"), "9")

	want := map[string]Shape{"hero": ShapeRecord, "kpiTiles": ShapeList, "bento": ShapeRecord}
	for typ, shape := range want {
		if got := ShapeOf(store[typ]); got != shape {
			t.Errorf("ShapeOf(%s) = %v, want %v", typ, got, shape)
		}
	}
}

func TestDecodePatch(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Patch
		failed  bool
		wantErr bool
	}{
		{"object", `{"hero":{"heading":"H"}}`, Patch{"hero": map[string]any{"heading": "H"}}, false, false},
		{"empty object", `{}`, Patch{}, false, false},
		{"null", `null`, Patch{}, false, false},
		{"blank", ``, Patch{}, false, false},
		{"error marker", `{"error":"boom"}`, Patch{"error": "boom"}, true, false},
		{"array", `[1,2]`, nil, false, true},
		{"garbage", `{nope`, nil, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodePatch([]byte(tt.input))
			if (err != nil) != tt.wantErr {
				t.Fatalf("DecodePatch() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("DecodePatch() = %v, want %v", got, tt.want)
			}
			if got.Failed() != tt.failed {
				t.Errorf("Failed() = %v, want %v", got.Failed(), tt.failed)
			}
		})
	}
}

func TestStoreGet(t *testing.T) {
	s := Store{"hero": Record{"heading": "H"}, "empty": nil}
	if _, ok := s.Get("missing").(map[string]any); !ok {
		t.Error("missing key should yield empty record")
	}
	if _, ok := s.Get("empty").(map[string]any); !ok {
		t.Error("nil payload should yield empty record")
	}
	data, err := json.Marshal(Store(nil))
	if err != nil || string(data) != "{}" {
		t.Errorf("Marshal(nil) = %s, %v", data, err)
	}
}

func TestDisplay(t *testing.T) {
	got := Display(sections.KindKpiTiles, "kpiTiles", List{Record{"label": "Custom"}})
	list := got.(List)
	if len(list) != 1 {
		t.Fatalf("len = %d", len(list))
	}
	item := list[0].(map[string]any)
	if item["label"] != "Custom" || item["growth"] != "+14.5%" {
		t.Errorf("item = %v", item)
	}

	if got := Display(sections.KindBentoGrid, "bento", Record{"title": "x"}).(List); len(got) != 5 {
		t.Errorf("bento fallback len = %d, want 5", len(got))
	}

	top := Display(sections.KindTopbar, "topbar", Record{}).(map[string]any)
	if top["appName"] == nil {
		t.Error("topbar fallback missing appName")
	}

	custom := Record{"items": List{"Home"}}
	if got := Display(sections.KindSidebar, "sidebar", custom); !reflect.DeepEqual(got, custom) {
		t.Errorf("sidebar = %v", got)
	}
}

func TestApplyEditErrorsCarryCode(t *testing.T) {
	_, err := ApplyEdit(Store{"hero": Record{}}, "hero", Item(0, "x"), "v")
	if !errors.Is(err, errors.ErrCodeInvalidEdit) {
		t.Errorf("code = %v, want %v", errors.GetCode(err), errors.ErrCodeInvalidEdit)
	}
}

func ExampleMergeHydration() {
	store := Store{"hero": Record{"heading": "Draft", "cta": "Go"}}
	store = MergeHydration(store, Patch{"hero": Record{"heading": "Launch faster"}})
	hero := store["hero"].(map[string]any)
	fmt.Println(hero["heading"], hero["cta"])
	// Output: Launch faster Go
}
