// Package sink renders composed layouts to output formats.
//
// A "sink" transforms a [compose.Layout] into bytes. Every sink walks the
// layout's instructions in order and dispatches on each cell's
// [sections.Kind] with one exhaustive switch, so an unknown section type
// always reaches the placeholder arm instead of failing.
//
//   - HTML: [RenderHTML], a fragment or standalone page using the resolved
//     style classes; narrative fields are rendered as markdown
//   - JSON: [RenderJSON], the full composition
//   - Export: [RenderExport], the portable layout (mode, sections, content,
//     design DNA)
//   - JSX: [RenderJSX], a component-source outline of the page
//   - DOT/SVG: [ToDOT] and [RenderSVG], a Graphviz diagram of the grouping
//   - Text: [RenderText], a lipgloss terminal preview
//
// [Render] selects a sink by [render.Format]:
//
//	data, err := sink.Render(layout, render.FormatHTML, sink.Options{Standalone: true})
package sink

import (
	"fmt"
	"sort"
	"strings"

	"github.com/matzehuels/pagesmith/pkg/core/compose"
	"github.com/matzehuels/pagesmith/pkg/errors"
	"github.com/matzehuels/pagesmith/pkg/planner"
	"github.com/matzehuels/pagesmith/pkg/render"
)

// Options carries the settings of every sink. Each sink reads the fields it
// understands.
type Options struct {
	// Standalone wraps HTML output in a full document.
	Standalone bool
	// Title is the HTML document title.
	Title string
	// Detailed adds content fields to DOT/SVG node labels.
	Detailed bool
	// Width is the text preview width in columns.
	Width int
	// Prediction adds an inspector panel to the text preview.
	Prediction *planner.Prediction
}

// Render renders l in format f.
func Render(l *compose.Layout, f render.Format, opts Options) ([]byte, error) {
	if l == nil {
		return nil, errors.New(errors.ErrCodeInvalidPlan, "no layout to render")
	}
	switch f {
	case render.FormatHTML:
		return RenderHTML(l, HTMLOptions{Standalone: opts.Standalone, Title: opts.Title})
	case render.FormatJSON:
		return RenderJSON(l)
	case render.FormatExport:
		return RenderExport(l)
	case render.FormatJSX:
		return RenderJSX(l), nil
	case render.FormatDOT:
		return []byte(ToDOT(l, DOTOptions{Detailed: opts.Detailed})), nil
	case render.FormatSVG:
		return RenderSVG(ToDOT(l, DOTOptions{Detailed: opts.Detailed}))
	case render.FormatText:
		return []byte(RenderText(l, TextOptions{Width: opts.Width, Prediction: opts.Prediction})), nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported format %q", f)
	}
}

// =============================================================================
// Content accessors
// =============================================================================

// field returns a record field as a string, or "" when v is not a record or
// the field is missing.
func field(v any, key string) string {
	rec, ok := v.(map[string]any)
	if !ok {
		return ""
	}
	val, ok := rec[key]
	if !ok || val == nil {
		return ""
	}
	if s, ok := val.(string); ok {
		return s
	}
	return fmt.Sprint(val)
}

// fieldOr is field with a default for empty values.
func fieldOr(v any, key, def string) string {
	if s := field(v, key); s != "" {
		return s
	}
	return def
}

// list returns v as a list, or the list under key when v is a record.
// An empty key selects v itself.
func list(v any, key string) []any {
	if key != "" {
		rec, ok := v.(map[string]any)
		if !ok {
			return nil
		}
		v = rec[key]
	}
	l, _ := v.([]any)
	return l
}

// str formats a scalar item for display.
func str(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// summary is a one-line description of a payload: its first text field, or
// the item count of a list.
func summary(v any) string {
	switch t := v.(type) {
	case map[string]any:
		for _, k := range []string{"heading", "title", "appName", "label", "text"} {
			if s := field(t, k); s != "" {
				return s
			}
		}
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return strings.Join(keys, ", ")
	case []any:
		return fmt.Sprintf("%d items", len(t))
	default:
		return str(v)
	}
}
