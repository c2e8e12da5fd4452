// Package render names the output formats a composed layout can be rendered
// to. The renderers themselves live in [sink].
//
// # Formats
//
//   - html: a page fragment or standalone document using the resolved style classes
//   - json: the full composition (instructions, props, style) for other tools
//   - export: the portable layout (mode, sections, content, design DNA)
//   - jsx: a component-source outline of the page
//   - dot, svg: a Graphviz diagram of how sections were grouped
//   - text: a terminal preview
//
// Formats are parsed case-insensitively:
//
//	f, err := render.ParseFormat("HTML")
//	if err != nil {
//	    return err
//	}
//	fmt.Println(f.Ext(), f.ContentType()) // ".html text/html; charset=utf-8"
//
// [sink]: github.com/matzehuels/pagesmith/pkg/render/sink
package render
