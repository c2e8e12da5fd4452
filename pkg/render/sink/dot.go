package sink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/pagesmith/pkg/core/compose"
)

// DOTOptions configures [ToDOT].
type DOTOptions struct {
	// Detailed adds the variant and a content summary to each node label.
	// When false, only the renderer name is shown.
	Detailed bool
}

// ToDOT converts a layout to a Graphviz diagram of its grouping. Each
// instruction is a cluster labelled with its wrapping; cells are nodes
// chained in render order. Fallback cells are drawn dashed.
func ToDOT(l *compose.Layout, opts DOTOptions) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  compound=true;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=18, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.4;\n")
	buf.WriteString("  nodesep=0.3;\n")
	fmt.Fprintf(&buf, "  label=%q;\n", fmt.Sprintf("%s (%s)", l.Mode, l.Key))
	buf.WriteString("\n")

	var order []string
	for i, in := range l.Instructions {
		fmt.Fprintf(&buf, "  subgraph \"cluster_%d\" {\n", i)
		fmt.Fprintf(&buf, "    label=%q;\n", clusterLabel(in))
		buf.WriteString("    style=\"rounded,dashed\";\n")
		if in.Wrapping == compose.WrapEmpty {
			id := in.Key
			fmt.Fprintf(&buf, "    %q [label=%q, shape=plaintext, style=\"\"];\n", id, compose.EmptyMessage)
			order = append(order, id)
		}
		for j, c := range in.Cells {
			id := fmt.Sprintf("%s/%d", in.Key, j)
			attrs := []string{fmt.Sprintf("label=%q", cellLabel(c, opts.Detailed))}
			if c.Renderer.IsFallback() {
				attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=lightgrey")
			}
			fmt.Fprintf(&buf, "    %q [%s];\n", id, strings.Join(attrs, ", "))
			order = append(order, id)
		}
		buf.WriteString("  }\n")
	}

	buf.WriteString("\n")
	for i := 1; i < len(order); i++ {
		fmt.Fprintf(&buf, "  %q -> %q;\n", order[i-1], order[i])
	}

	buf.WriteString("}\n")
	return buf.String()
}

func clusterLabel(in compose.Instruction) string {
	if in.Region != "" {
		return fmt.Sprintf("%s: %s", in.Wrapping, in.Region)
	}
	return string(in.Wrapping)
}

func cellLabel(c compose.Cell, detailed bool) string {
	name := c.Renderer.Name()
	if c.Renderer.IsFallback() {
		name = fmt.Sprintf("%s [%s]", name, c.Props.Type)
	}
	if !detailed {
		return name
	}
	parts := []string{name, "variant: " + c.Props.Variant}
	if s := summary(c.Props.Content); s != "" {
		parts = append(parts, s)
	}
	return strings.Join(parts, "\n")
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root element so the diagram scales from a
// zero origin.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}
