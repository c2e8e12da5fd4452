// Package sections maps section type identifiers to renderers.
//
// The set of renderable section kinds is closed: every known type alias maps
// to exactly one [Kind], and any other type resolves to [KindFallback], which
// renders a labelled placeholder naming the unresolved type and variant.
// Resolution never fails.
//
// Several aliases share a kind; for example "kpiTiles", "kpiCards" and
// "statsStrip" all select the KPI tile renderer:
//
//	r := sections.Resolve("kpiCards")
//	r.Kind   // KindKpiTiles
//	r.Name() // "KpiTiles"
//
// Output sinks dispatch on [Renderer.Kind] with a single exhaustive switch.
package sections

import "fmt"

// Kind identifies a renderer.
type Kind int

// Renderer kinds. KindFallback is the zero value so an unset Kind renders as
// a placeholder.
const (
	KindFallback Kind = iota
	KindHero
	KindFullscreenHero
	KindFeatureRow
	KindKpiTiles
	KindChartPanel
	KindProjectsGrid
	KindContactForm
	KindFooter
	KindTopbar
	KindSidebar
	KindBoard
	KindActivityFeed
	KindBentoGrid
	KindMarqueeBand
	KindSplitReveal
	KindHorizontalGallery

	kindCount
)

var kindNames = [kindCount]string{
	KindFallback:          "Fallback",
	KindHero:              "Hero",
	KindFullscreenHero:    "FullscreenHero",
	KindFeatureRow:        "FeatureRow",
	KindKpiTiles:          "KpiTiles",
	KindChartPanel:        "ChartPanel",
	KindProjectsGrid:      "ProjectsGrid",
	KindContactForm:       "ContactForm",
	KindFooter:            "Footer",
	KindTopbar:            "Topbar",
	KindSidebar:           "Sidebar",
	KindBoard:             "Board",
	KindActivityFeed:      "ActivityFeed",
	KindBentoGrid:         "BentoGrid",
	KindMarqueeBand:       "MarqueeBand",
	KindSplitReveal:       "SplitReveal",
	KindHorizontalGallery: "HorizontalGallery",
}

// String returns the renderer name for k.
func (k Kind) String() string {
	if k < 0 || k >= kindCount {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Kinds returns every kind, fallback first.
func Kinds() []Kind {
	ks := make([]Kind, kindCount)
	for i := range ks {
		ks[i] = Kind(i)
	}
	return ks
}

// aliases is fixed for the process lifetime.
var aliases = map[string]Kind{
	"hero":                KindHero,
	"fullscreenHero":      KindFullscreenHero,
	"features":            KindFeatureRow,
	"featuresRow":         KindFeatureRow,
	"kpiTiles":            KindKpiTiles,
	"kpiCards":            KindKpiTiles,
	"statsStrip":          KindKpiTiles,
	"chartPanel":          KindChartPanel,
	"chart":               KindChartPanel,
	"projectsGrid":        KindProjectsGrid,
	"interactiveCardGrid": KindProjectsGrid,
	"contactForm":         KindContactForm,
	"footer":              KindFooter,
	"topbar":              KindTopbar,
	"sidebar":             KindSidebar,
	"board":               KindBoard,
	"activityFeed":        KindActivityFeed,
	"bentoGrid":           KindBentoGrid,
	"bento":               KindBentoGrid,
	"marqueeBand":         KindMarqueeBand,
	"marquee":             KindMarqueeBand,
	"splitReveal":         KindSplitReveal,
	"split":               KindSplitReveal,
	"horizontalGallery":   KindHorizontalGallery,
	"gallery":             KindHorizontalGallery,
}

// Lookup returns the kind registered for typ, or KindFallback.
func Lookup(typ string) Kind {
	if k, ok := aliases[typ]; ok {
		return k
	}
	return KindFallback
}

// Known reports whether typ has a registered renderer.
func Known(typ string) bool {
	_, ok := aliases[typ]
	return ok
}

// Aliases returns the registered type aliases for k.
func Aliases(k Kind) []string {
	var out []string
	for name, kind := range aliases {
		if kind == k {
			out = append(out, name)
		}
	}
	return out
}

// Renderer is a resolved rendering capability for one section type.
type Renderer struct {
	Kind Kind   `json:"kind"`
	Type string `json:"type"`
}

// Resolve returns the renderer for typ. Unknown types yield a fallback
// renderer that still carries typ for display.
func Resolve(typ string) Renderer {
	return Renderer{Kind: Lookup(typ), Type: typ}
}

// Name returns the renderer's component name.
func (r Renderer) Name() string { return r.Kind.String() }

// IsFallback reports whether r is the placeholder renderer.
func (r Renderer) IsFallback() bool { return r.Kind == KindFallback }

// MarshalText encodes the kind as its component name.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// UnmarshalText decodes a component name. Unknown names decode to
// KindFallback.
func (k *Kind) UnmarshalText(b []byte) error {
	*k = KindFallback
	for i, name := range kindNames {
		if name == string(b) {
			*k = Kind(i)
			break
		}
	}
	return nil
}

// Props are the inputs a renderer receives.
type Props struct {
	Type       string `json:"type"`
	Variant    string `json:"variant"`
	LayoutMode string `json:"layout_mode"`
	Content    any    `json:"content"`
}

// Placeholder returns the fallback heading and detail lines for p.
func Placeholder(p Props) (title, detail string) {
	return fmt.Sprintf("[%s] Placeholder", p.Type), fmt.Sprintf("Variant: %s", p.Variant)
}
