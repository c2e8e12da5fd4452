package pipeline

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pagesmith/pkg/cache"
	"github.com/matzehuels/pagesmith/pkg/core/compose"
	"github.com/matzehuels/pagesmith/pkg/core/content"
	"github.com/matzehuels/pagesmith/pkg/core/plan"
	"github.com/matzehuels/pagesmith/pkg/errors"
	"github.com/matzehuels/pagesmith/pkg/render"
)

func testPlan() *plan.Plan {
	return &plan.Plan{
		LayoutMode: plan.Landing,
		Sections: []plan.Section{
			{Type: "hero", Variant: "centered"},
			{Type: "kpiTiles", Variant: "grid"},
			{Type: "footer", Variant: "simple"},
		},
	}
}

func testRunner(t *testing.T) *Runner {
	t.Helper()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	return NewRunner(c, nil, log.New(io.Discard))
}

func TestNewRunnerDefaults(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	if r.Cache == nil || r.Keyer == nil || r.Logger == nil {
		t.Errorf("NewRunner(nil, nil, nil) = %+v, want defaults", r)
	}
}

func TestExecuteCaching(t *testing.T) {
	ctx := context.Background()
	r := testRunner(t)
	defer r.Close()

	opts := Options{Formats: []render.Format{render.FormatHTML, render.FormatExport, render.FormatText}}

	first, err := r.Execute(ctx, Input{Plan: testPlan()}, opts)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if first.CacheInfo.RenderHit {
		t.Error("first run should miss the cache")
	}
	if len(first.Artifacts) != 3 {
		t.Errorf("artifacts = %d, want 3", len(first.Artifacts))
	}
	if first.Stats.Sections != 3 || first.Stats.Instructions != 3 {
		t.Errorf("stats = %+v", first.Stats)
	}
	if first.Layout.Key != compose.SeedKey(compose.DefaultSeed) {
		t.Errorf("key = %q, want default seed key", first.Layout.Key)
	}

	second, err := r.Execute(ctx, Input{Plan: testPlan()}, opts)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !second.CacheInfo.RenderHit {
		t.Error("second run should hit the cache")
	}
	if second.LayoutHash != first.LayoutHash {
		t.Error("layout hash is not stable")
	}
	if string(second.Artifacts[render.FormatHTML]) != string(first.Artifacts[render.FormatHTML]) {
		t.Error("cached html differs")
	}

	opts.Refresh = true
	third, err := r.Execute(ctx, Input{Plan: testPlan()}, opts)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if third.CacheInfo.RenderHit {
		t.Error("refresh should bypass the cache")
	}
}

func TestExecutePartialCache(t *testing.T) {
	ctx := context.Background()
	r := testRunner(t)

	if _, err := r.Execute(ctx, Input{Plan: testPlan()}, Options{Formats: []render.Format{render.FormatJSON}}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	res, err := r.Execute(ctx, Input{Plan: testPlan()}, Options{Formats: []render.Format{render.FormatJSON, render.FormatJSX}})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.CacheInfo.RenderHit {
		t.Error("a new format should not report a full hit")
	}
	if len(res.Artifacts[render.FormatJSON]) == 0 || len(res.Artifacts[render.FormatJSX]) == 0 {
		t.Error("missing artifacts")
	}
}

func TestExecuteDefaultFormat(t *testing.T) {
	res, err := NewRunner(nil, nil, log.New(io.Discard)).Execute(context.Background(), Input{Plan: testPlan()}, Options{})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if _, ok := res.Artifacts[DefaultFormat]; !ok || len(res.Artifacts) != 1 {
		t.Errorf("artifacts = %v, want only %s", len(res.Artifacts), DefaultFormat)
	}
}

func TestExecuteErrors(t *testing.T) {
	r := NewRunner(nil, nil, log.New(io.Discard))
	ctx := context.Background()

	tests := []struct {
		name string
		in   Input
		opts Options
		code errors.Code
	}{
		{"nil plan", Input{}, Options{}, errors.ErrCodeInvalidPlan},
		{"section without type", Input{Plan: &plan.Plan{Sections: []plan.Section{{Variant: "x"}}}}, Options{}, errors.ErrCodeInvalidPlan},
		{"unknown format", Input{Plan: testPlan()}, Options{Formats: []render.Format{"pdf"}}, errors.ErrCodeInvalidFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Execute(ctx, tt.in, tt.opts)
			if !errors.Is(err, tt.code) {
				t.Errorf("Execute() error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestComposeOverlaysContent(t *testing.T) {
	in := Input{
		Plan:    testPlan(),
		Content: content.Store{"hero": map[string]any{"heading": "Custom"}},
		Seed:    7,
	}
	l, err := Compose(in)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	hero := l.Content["hero"].(map[string]any)
	if hero["heading"] != "Custom" {
		t.Errorf("heading = %v, want Custom", hero["heading"])
	}
	if hero["subheading"] == nil {
		t.Error("seeded subheading was dropped")
	}
	if l.Seed != 7 {
		t.Errorf("seed = %d, want 7", l.Seed)
	}
}

func TestInputFromDocument(t *testing.T) {
	doc, err := plan.Unmarshal([]byte(`{"layout_mode":"dashboard","sections":[{"type":"hero","variant":"a"}],"content":{"hero":{"heading":"Doc"}}}`), plan.FormatJSON)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	in := InputFromDocument(doc, 3)
	if in.Plan == nil || in.Plan.LayoutMode != plan.Dashboard {
		t.Fatalf("plan = %+v", in.Plan)
	}
	if in.Seed != 3 || !in.Content.Has("hero") {
		t.Errorf("input = %+v", in)
	}
	if got := InputFromDocument(nil, 1); got.Plan != nil {
		t.Error("nil document should yield no plan")
	}
}

func TestLayoutHash(t *testing.T) {
	base, err := Compose(Input{Plan: testPlan()})
	if err != nil {
		t.Fatal(err)
	}
	shuffled, _ := Compose(Input{Plan: testPlan(), Seed: 43})
	edited, _ := Compose(Input{Plan: testPlan(), Content: content.Store{"footer": map[string]any{"text": "x"}}})

	h1, _ := LayoutHash(base)
	h2, _ := LayoutHash(shuffled)
	h3, _ := LayoutHash(edited)
	if h1 == h2 || h1 == h3 {
		t.Error("hash should change with seed and content")
	}
	if _, err := LayoutHash(nil); err == nil {
		t.Error("nil layout should fail")
	}
}

func TestArtifactKeyOpts(t *testing.T) {
	k := cache.NewDefaultKeyer()
	a := Options{Standalone: true}
	b := Options{Standalone: false}
	if k.ArtifactKey("h", a.ArtifactKeyOpts(render.FormatHTML)) == k.ArtifactKey("h", b.ArtifactKeyOpts(render.FormatHTML)) {
		t.Error("standalone should distinguish html artifacts")
	}
	if k.ArtifactKey("h", a.ArtifactKeyOpts(render.FormatJSON)) != k.ArtifactKey("h", b.ArtifactKeyOpts(render.FormatJSON)) {
		t.Error("standalone should not affect json artifacts")
	}
}

func TestRenderUncached(t *testing.T) {
	l, err := Compose(Input{Plan: testPlan()})
	if err != nil {
		t.Fatal(err)
	}
	out, err := Render(l, Options{Formats: []render.Format{render.FormatDOT, render.FormatJSX}})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.HasPrefix(string(out[render.FormatDOT]), "digraph") {
		t.Error("dot artifact malformed")
	}
}
