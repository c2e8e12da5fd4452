package content

import (
	"github.com/matzehuels/pagesmith/pkg/core/plan"
	"github.com/matzehuels/pagesmith/pkg/core/sections"
)

// SeedDefaults builds the initial store for a plan: one entry per distinct
// section type, holding that type's placeholder content or an empty record.
func SeedDefaults(secs []plan.Section) Store {
	store := make(Store, len(secs))
	for _, s := range secs {
		if _, ok := store[s.Type]; ok {
			continue
		}
		store[s.Type] = seedFor(s.Type)
	}
	return store
}

func seedFor(typ string) any {
	switch typ {
	case "hero", "fullscreenHero":
		return Record{
			"heading":    "Your AI Website",
			"subheading": "Generated intelligently from intent",
			"cta":        "Get Started",
		}
	case "kpiTiles", "kpiCards":
		return List{
			Record{"label": "Revenue", "value": "$42K"},
			Record{"label": "Growth", "value": "+18%"},
			Record{"label": "Users", "value": "12K"},
		}
	case "splitReveal", "split":
		return Record{
			"title":       "Creative storytelling section",
			"description": "This section adapts to your prompt intent.",
		}
	case "bentoGrid", "bento":
		return Record{
			"title":       "Our Core Features",
			"description": "Discover the suite of tools that scales automatically.",
		}
	case "marqueeBand", "marquee":
		return Record{
			"items": List{"INNOVATION", "•", "SPEED", "•", "DESIGN", "•"},
		}
	case "horizontalGallery", "gallery":
		return Record{
			"title":       "Latest Initiatives",
			"description": "Swipe through our most experimental architectures.",
		}
	default:
		return Record{}
	}
}

// ItemDefaults returns the per-item defaults for list-shaped sections of
// typ. List edits that address an index past the end of the list extend it
// with these. The result is a fresh copy.
func ItemDefaults(typ string) List {
	var src []Record
	switch sections.Lookup(typ) {
	case sections.KindKpiTiles:
		src = kpiItems
	case sections.KindBentoGrid:
		src = bentoItems
	default:
		return nil
	}
	out := make(List, len(src))
	for i, r := range src {
		out[i] = cloneValue(r)
	}
	return out
}

func itemDefault(typ string, i int) any {
	defs := ItemDefaults(typ)
	if i < len(defs) {
		return defs[i]
	}
	return Record{}
}

var kpiItems = []Record{
	{"label": "Total Revenue", "value": "$84,293.00", "growth": "+14.5%", "isPositive": true, "trendSymbol": "↑"},
	{"label": "Active Users (MRR)", "value": "14,092", "growth": "+8.1%", "isPositive": true, "trendSymbol": "↑"},
	{"label": "Churn Rate", "value": "1.2%", "growth": "-0.4%", "isPositive": true, "trendSymbol": "↓"},
	{"label": "Avg. Session Time", "value": "4m 12s", "growth": "-2.3%", "isPositive": false, "trendSymbol": "↓"},
}

var bentoItems = []Record{
	{"title": "Performance First", "subtext": "Latency drops to near zero with edge rendering globally instantly."},
	{"title": "Dynamic Engines", "subtext": "Self-healing distributed systems out of the box running cleanly."},
	{"title": "Secure Design", "subtext": "Enterprise SSO baked securely into the framework natively without wrappers."},
	{"title": "Limitless Scale", "subtext": "Deploy anywhere. Handle millions of requests simultaneously."},
	{"title": "Deep Analytics", "subtext": "Real-time pipeline metrics tracking your user retention inherently."},
}

// Display returns the content a renderer of kind k shows for payload v:
// list items are laid over the kind's item defaults, and empty payloads of
// kinds with built-in sample data fall back to it. v is not modified.
func Display(k sections.Kind, typ string, v any) any {
	switch k {
	case sections.KindKpiTiles, sections.KindBentoGrid:
		list, ok := v.([]any)
		if !ok || len(list) == 0 {
			return ItemDefaults(typ)
		}
		defs := ItemDefaults(typ)
		out := make(List, len(list))
		for i, item := range list {
			rec, ok := item.(map[string]any)
			if !ok || i >= len(defs) {
				out[i] = cloneValue(item)
				continue
			}
			merged := defs[i].(map[string]any)
			for f, val := range rec {
				merged[f] = cloneValue(val)
			}
			out[i] = merged
		}
		return out
	case sections.KindTopbar:
		return withFallback(v, "appName", Record{"appName": "Workspace"})
	case sections.KindSidebar:
		return withFallback(v, "items", Record{"items": List{"Dashboard", "Tasks", "Team", "Settings"}})
	case sections.KindBoard:
		return withFallback(v, "columns", Record{"columns": List{
			Record{"title": "To Do", "tasks": List{"Design wireframes", "Research competitors", "Setup repository"}},
			Record{"title": "In Progress", "tasks": List{"Build topbar", "Configure copy backend", "Setup routing"}},
			Record{"title": "Done", "tasks": List{"Initialize project", "Create repository", "Write README"}},
		}})
	case sections.KindActivityFeed:
		return withFallback(v, "items", Record{"items": List{
			Record{"user": "Alice Chen", "action": "pushed a commit to", "target": "main", "time": "2h ago"},
			Record{"user": "Bob Smith", "action": "moved a task to", "target": "Done", "time": "4h ago"},
			Record{"user": "System", "action": "deployed release", "target": "v2.0.4", "time": "yesterday"},
		}})
	}
	if v == nil {
		return Record{}
	}
	return v
}

// withFallback returns v when it is a record carrying key, else fallback.
func withFallback(v any, key string, fallback Record) any {
	if rec, ok := v.(map[string]any); ok {
		if _, has := rec[key]; has {
			return rec
		}
	}
	return fallback
}
