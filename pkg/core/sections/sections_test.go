package sections

import (
	"fmt"
	"slices"
	"testing"
)

func TestResolveAliases(t *testing.T) {
	tests := []struct {
		typ  string
		want Kind
	}{
		{"hero", KindHero},
		{"fullscreenHero", KindFullscreenHero},
		{"features", KindFeatureRow},
		{"featuresRow", KindFeatureRow},
		{"kpiTiles", KindKpiTiles},
		{"kpiCards", KindKpiTiles},
		{"statsStrip", KindKpiTiles},
		{"chart", KindChartPanel},
		{"chartPanel", KindChartPanel},
		{"interactiveCardGrid", KindProjectsGrid},
		{"board", KindBoard},
		{"bento", KindBentoGrid},
		{"marquee", KindMarqueeBand},
		{"split", KindSplitReveal},
		{"gallery", KindHorizontalGallery},
	}

	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			r := Resolve(tt.typ)
			if r.Kind != tt.want {
				t.Errorf("Resolve(%q).Kind = %v, want %v", tt.typ, r.Kind, tt.want)
			}
			if r.IsFallback() {
				t.Errorf("Resolve(%q) is fallback", tt.typ)
			}
		})
	}
}

func TestResolveFallback(t *testing.T) {
	for _, typ := range []string{"", "pricingTable", "Hero", "teamList", "table"} {
		r := Resolve(typ)
		if !r.IsFallback() {
			t.Errorf("Resolve(%q) = %v, want fallback", typ, r.Kind)
		}
		if r.Type != typ {
			t.Errorf("Resolve(%q).Type = %q", typ, r.Type)
		}
	}
}

func TestPlaceholder(t *testing.T) {
	title, detail := Placeholder(Props{Type: "pricingTable", Variant: "v2"})
	if title != "[pricingTable] Placeholder" {
		t.Errorf("title = %q", title)
	}
	if detail != "Variant: v2" {
		t.Errorf("detail = %q", detail)
	}
}

func TestKindsCovered(t *testing.T) {
	for _, k := range Kinds() {
		if k == KindFallback {
			continue
		}
		if len(Aliases(k)) == 0 {
			t.Errorf("kind %v has no alias", k)
		}
	}
	if !slices.Contains(Aliases(KindKpiTiles), "statsStrip") {
		t.Error("statsStrip missing from KpiTiles aliases")
	}
	if got := Kind(99).String(); got != "Kind(99)" {
		t.Errorf("String() = %q", got)
	}
}

func ExampleResolve() {
	fmt.Println(Resolve("kpiCards").Name())
	fmt.Println(Resolve("pricingTable").Name())
	// Output:
	// KpiTiles
	// Fallback
}
