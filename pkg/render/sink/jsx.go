package sink

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/matzehuels/pagesmith/pkg/core/compose"
	"github.com/matzehuels/pagesmith/pkg/core/sections"
)

// FallbackComponent names the component imported for unresolved types.
const FallbackComponent = "FallbackSection"

// RenderJSX renders a React component outline of the page: one import per
// distinct component, then the sections in plan order. Sections with
// non-empty content carry it as a content prop keyed by section type.
func RenderJSX(l *compose.Layout) []byte {
	var secs []jsxNode
	seen := map[string]bool{}
	var imports []string
	if l.Plan != nil {
		for _, s := range l.Plan.Sections {
			r := sections.Resolve(s.Type)
			comp := r.Name()
			if r.IsFallback() {
				comp = FallbackComponent
			}
			if !seen[comp] {
				seen[comp] = true
				imports = append(imports, comp)
			}
			secs = append(secs, jsxNode{comp: comp, typ: s.Type, variant: s.Variant, content: l.Content[s.Type]})
		}
	}

	var buf bytes.Buffer
	buf.WriteString("import React from \"react\";\n")
	for _, comp := range imports {
		fmt.Fprintf(&buf, "import %s from \"./%s\";\n", comp, comp)
	}
	buf.WriteString("\nexport default function GeneratedPage() {\n")
	buf.WriteString("  return (\n")
	buf.WriteString("    <main className=\"w-full flex flex-col\">\n")
	for _, n := range secs {
		fmt.Fprintf(&buf, "      <%s variant=%s layoutMode=%s%s />\n",
			n.comp, strconv.Quote(n.variant), strconv.Quote(string(l.Mode)), n.contentProp())
	}
	buf.WriteString("    </main>\n")
	buf.WriteString("  );\n")
	buf.WriteString("}\n")
	return buf.Bytes()
}

type jsxNode struct {
	comp    string
	typ     string
	variant string
	content any
}

func (n jsxNode) contentProp() string {
	switch t := n.content.(type) {
	case map[string]any:
		if len(t) == 0 {
			return ""
		}
	case []any:
		if len(t) == 0 {
			return ""
		}
	case nil:
		return ""
	}
	data, err := json.Marshal(n.content)
	if err != nil {
		return ""
	}
	return fmt.Sprintf(" content={{ %s: %s }}", strconv.Quote(n.typ), data)
}
