package sink

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/yuin/goldmark"

	"github.com/matzehuels/pagesmith/pkg/core/compose"
	"github.com/matzehuels/pagesmith/pkg/core/content"
	"github.com/matzehuels/pagesmith/pkg/core/sections"
)

// HTMLOptions configures [RenderHTML].
type HTMLOptions struct {
	// Standalone emits a complete document that loads the utility CSS.
	Standalone bool
	// Title is the document title. Defaults to "pagesmith".
	Title string
}

type htmlCell struct {
	Type    string
	Variant string
	Mode    string
	Name    string
	Content any
	Title   string
	Detail  string
}

type htmlBlock struct {
	Key        string
	Wrapping   compose.Wrapping
	Light      bool
	FullHeight bool
	Divider    bool
	Cells      []template.HTML
}

type htmlPage struct {
	Standalone  bool
	Title       string
	Classes     string
	Mode        string
	Key         string
	Application bool
	Topbar      template.HTML
	Sidebar     template.HTML
	Blocks      []htmlBlock
	Empty       string
}

var funcs = template.FuncMap{
	"f":    field,
	"fOr":  fieldOr,
	"list": list,
	"str":  str,
	"md":   markdown,
}

var tmpl = template.Must(template.New("sink").Funcs(funcs).Parse(pageTemplate + sectionTemplates))

// RenderHTML renders l as HTML. Without Standalone the output is a single
// root element suitable for embedding.
func RenderHTML(l *compose.Layout, opts HTMLOptions) ([]byte, error) {
	page := htmlPage{
		Standalone: opts.Standalone,
		Title:      opts.Title,
		Classes:    l.Style.Classes(),
		Mode:       string(l.Mode),
		Key:        l.Key,
	}
	if page.Title == "" {
		page.Title = "pagesmith"
	}

	for _, in := range l.Instructions {
		if in.Wrapping == compose.WrapEmpty {
			page.Empty = compose.EmptyMessage
			continue
		}
		cells := make([]template.HTML, 0, len(in.Cells))
		for _, c := range in.Cells {
			h, err := renderCell(c)
			if err != nil {
				return nil, err
			}
			cells = append(cells, h)
		}
		switch in.Region {
		case compose.RegionTopbar:
			page.Application = true
			page.Topbar = cells[0]
			continue
		case compose.RegionSidebar:
			page.Application = true
			page.Sidebar = cells[0]
			continue
		case compose.RegionContent:
			page.Application = true
		}
		page.Blocks = append(page.Blocks, htmlBlock{
			Key:        in.Key,
			Wrapping:   in.Wrapping,
			Light:      in.Light,
			FullHeight: in.FullHeight,
			Divider:    in.Divider,
			Cells:      cells,
		})
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "page", page); err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}
	return buf.Bytes(), nil
}

func renderCell(c compose.Cell) (template.HTML, error) {
	k := c.Renderer.Kind
	data := htmlCell{
		Type:    c.Props.Type,
		Variant: c.Props.Variant,
		Mode:    c.Props.LayoutMode,
		Name:    c.Renderer.Name(),
		Content: content.Display(k, c.Props.Type, c.Props.Content),
	}

	var name string
	switch k {
	case sections.KindHero:
		name = "hero"
	case sections.KindFullscreenHero:
		name = "fullscreenHero"
	case sections.KindFeatureRow:
		name = "featureRow"
	case sections.KindKpiTiles:
		name = "kpiTiles"
	case sections.KindChartPanel:
		name = "chartPanel"
	case sections.KindProjectsGrid:
		name = "projectsGrid"
	case sections.KindContactForm:
		name = "contactForm"
	case sections.KindFooter:
		name = "footer"
	case sections.KindTopbar:
		name = "topbar"
	case sections.KindSidebar:
		name = "sidebar"
	case sections.KindBoard:
		name = "board"
	case sections.KindActivityFeed:
		name = "activityFeed"
	case sections.KindBentoGrid:
		name = "bentoGrid"
	case sections.KindMarqueeBand:
		name = "marqueeBand"
	case sections.KindSplitReveal:
		name = "splitReveal"
	case sections.KindHorizontalGallery:
		name = "horizontalGallery"
	case sections.KindFallback:
		name = "fallback"
		data.Title, data.Detail = sections.Placeholder(c.Props)
	default:
		name = "fallback"
		data.Title, data.Detail = sections.Placeholder(c.Props)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", data.Name, err)
	}
	return template.HTML(buf.String()), nil
}

// markdown renders s as HTML. Raw HTML in s is not passed through.
func markdown(s string) template.HTML {
	if s == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(s), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(s))
	}
	return template.HTML(buf.String())
}

const pageTemplate = `{{define "page"}}{{if .Standalone}}<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<script src="https://cdn.tailwindcss.com"></script>
</head>
<body>
{{end}}<div class="{{.Classes}}" data-layout-mode="{{.Mode}}" data-key="{{.Key}}">
{{- if .Empty}}
<div class="p-12 text-center opacity-60" data-wrapping="empty">{{.Empty}}</div>
{{- else if .Application}}
<div class="flex h-screen overflow-hidden">
{{- if .Sidebar}}
<aside class="w-64 shrink-0" data-region="sidebar">{{.Sidebar}}</aside>
{{- end}}
<div class="flex flex-1 flex-col overflow-hidden">
{{- if .Topbar}}
<header data-region="topbar">{{.Topbar}}</header>
{{- end}}
<main class="flex-1 overflow-y-auto" data-region="content">
{{- range .Blocks}}
<div data-key="{{.Key}}" class="{{if .FullHeight}}h-full{{else}}p-6{{end}}">{{range .Cells}}{{.}}{{end}}</div>
{{- end}}
</main>
</div>
</div>
{{- else}}
{{- range .Blocks}}
{{- if eq (str .Wrapping) "paired-grid"}}
<div data-key="{{.Key}}" data-wrapping="paired-grid" class="grid grid-cols-1 gap-6 p-6 lg:grid-cols-2">
{{- range .Cells}}
<div class="rounded-xl border border-white/10 p-6">{{.}}</div>
{{- end}}
</div>
{{- else if eq (str .Wrapping) "dashboard-card"}}
<div data-key="{{.Key}}" data-wrapping="dashboard-card" class="p-6">
<div class="rounded-xl p-6 {{if .Light}}bg-white/5{{else}}border border-white/10{{end}}">{{range .Cells}}{{.}}{{end}}</div>
</div>
{{- else}}
<section data-key="{{.Key}}" data-wrapping="plain">{{range .Cells}}{{.}}{{end}}</section>
{{- if .Divider}}
<hr class="opacity-10">
{{- end}}
{{- end}}
{{- end}}
{{- end}}
</div>
{{if .Standalone}}</body>
</html>
{{end}}{{end}}`

const sectionTemplates = `
{{define "hero"}}<div data-section="{{.Name}}" data-variant="{{.Variant}}" class="px-8 py-24 text-center">
<h1 class="text-5xl">{{f .Content "heading"}}</h1>
<div class="mt-4 opacity-80">{{md (f .Content "subheading")}}</div>
{{with f .Content "cta"}}<a class="mt-8 inline-block rounded-md px-6 py-3" href="#">{{.}}</a>{{end}}
</div>{{end}}

{{define "fullscreenHero"}}<div data-section="{{.Name}}" data-variant="{{.Variant}}" class="flex min-h-screen flex-col items-center justify-center px-8 text-center">
<h1 class="text-7xl">{{f .Content "heading"}}</h1>
<div class="mt-6 text-xl opacity-80">{{md (f .Content "subheading")}}</div>
{{with f .Content "cta"}}<a class="mt-10 inline-block rounded-full px-8 py-4" href="#">{{.}}</a>{{end}}
</div>{{end}}

{{define "featureRow"}}<div data-section="{{.Name}}" data-variant="{{.Variant}}" class="grid grid-cols-1 gap-8 px-8 py-16 md:grid-cols-3">
{{- range list .Content ""}}
<div><h3 class="font-semibold">{{f . "title"}}</h3><div class="opacity-70">{{md (f . "description")}}</div></div>
{{- else}}
<div><h3 class="font-semibold">{{fOr .Content "title" "Features"}}</h3><div class="opacity-70">{{md (f .Content "description")}}</div></div>
{{- end}}
</div>{{end}}

{{define "kpiTiles"}}<div data-section="{{.Name}}" data-variant="{{.Variant}}" class="grid grid-cols-2 gap-4 md:grid-cols-4">
{{- range list .Content ""}}
{{- $item := .}}
<div class="rounded-lg p-4"><p class="text-sm opacity-60">{{f . "label"}}</p><p class="text-2xl font-semibold">{{f . "value"}}</p>{{with f . "growth"}}<p class="text-xs">{{f $item "trendSymbol"}} {{.}}</p>{{end}}</div>
{{- end}}
</div>{{end}}

{{define "chartPanel"}}<div data-section="{{.Name}}" data-variant="{{.Variant}}">
<h3 class="font-semibold">{{fOr .Content "title" "Performance"}}</h3>
<div class="mt-4 h-48 rounded-lg opacity-50" data-chart="{{.Variant}}"></div>
</div>{{end}}

{{define "projectsGrid"}}<div data-section="{{.Name}}" data-variant="{{.Variant}}" class="grid grid-cols-1 gap-6 px-8 py-16 md:grid-cols-3">
{{- range list .Content ""}}
<article class="rounded-xl p-6"><h3>{{f . "title"}}</h3><div class="opacity-70">{{md (f . "description")}}</div></article>
{{- else}}
<article class="rounded-xl p-6"><h3>{{fOr .Content "title" "Projects"}}</h3><div class="opacity-70">{{md (f .Content "description")}}</div></article>
{{- end}}
</div>{{end}}

{{define "contactForm"}}<div data-section="{{.Name}}" data-variant="{{.Variant}}" class="mx-auto max-w-xl px-8 py-16">
<h2 class="text-3xl">{{fOr .Content "heading" "Get in touch"}}</h2>
<form class="mt-6 flex flex-col gap-4"><input type="text" placeholder="Name"><input type="email" placeholder="Email"><textarea placeholder="Message"></textarea><button type="submit">{{fOr .Content "cta" "Send"}}</button></form>
</div>{{end}}

{{define "footer"}}<footer data-section="{{.Name}}" data-variant="{{.Variant}}" class="px-8 py-12 text-sm opacity-60">{{fOr .Content "text" "Built with pagesmith"}}</footer>{{end}}

{{define "topbar"}}<div data-section="{{.Name}}" data-variant="{{.Variant}}" class="flex items-center justify-between border-b px-6 py-3"><span class="font-semibold">{{f .Content "appName"}}</span></div>{{end}}

{{define "sidebar"}}<nav data-section="{{.Name}}" data-variant="{{.Variant}}" class="flex flex-col gap-1 p-4">
{{- range list .Content "items"}}
<a class="rounded-md px-3 py-2" href="#">{{str .}}</a>
{{- end}}
</nav>{{end}}

{{define "board"}}<div data-section="{{.Name}}" data-variant="{{.Variant}}" class="flex h-full gap-4 overflow-x-auto p-6">
{{- range list .Content "columns"}}
<div class="w-72 shrink-0 rounded-lg p-4"><h4 class="font-semibold">{{f . "title"}}</h4>
{{- range list . "tasks"}}
<div class="mt-2 rounded-md p-3 text-sm">{{str .}}</div>
{{- end}}
</div>
{{- end}}
</div>{{end}}

{{define "activityFeed"}}<ul data-section="{{.Name}}" data-variant="{{.Variant}}" class="divide-y">
{{- range list .Content "items"}}
<li class="py-3 text-sm"><strong>{{f . "user"}}</strong> {{f . "action"}} <em>{{f . "target"}}</em> <span class="opacity-50">{{f . "time"}}</span></li>
{{- end}}
</ul>{{end}}

{{define "bentoGrid"}}<div data-section="{{.Name}}" data-variant="{{.Variant}}" class="grid grid-cols-1 gap-4 px-8 py-16 md:grid-cols-3">
{{- range list .Content ""}}
<div class="rounded-2xl p-6"><h3 class="font-semibold">{{f . "title"}}</h3><div class="opacity-70">{{md (f . "subtext")}}</div></div>
{{- end}}
</div>{{end}}

{{define "marqueeBand"}}<div data-section="{{.Name}}" data-variant="{{.Variant}}" class="overflow-hidden whitespace-nowrap py-6 text-2xl">
{{- range list .Content "items"}}<span class="mx-4">{{str .}}</span>{{end -}}
</div>{{end}}

{{define "splitReveal"}}<div data-section="{{.Name}}" data-variant="{{.Variant}}" class="grid grid-cols-1 items-center gap-12 px-8 py-24 md:grid-cols-2">
<h2 class="text-4xl">{{f .Content "title"}}</h2>
<div class="opacity-80">{{md (f .Content "description")}}</div>
</div>{{end}}

{{define "horizontalGallery"}}<div data-section="{{.Name}}" data-variant="{{.Variant}}" class="px-8 py-16">
<h2 class="text-3xl">{{f .Content "title"}}</h2>
<div class="opacity-70">{{md (f .Content "description")}}</div>
<div class="mt-8 flex gap-6 overflow-x-auto">
{{- range list .Content "items"}}
<div class="h-64 w-80 shrink-0 rounded-xl p-6">{{str .}}</div>
{{- end}}
</div>
</div>{{end}}

{{define "fallback"}}<div data-section="Fallback" data-type="{{.Type}}" class="rounded-lg border border-dashed p-6 text-center">
<p class="font-mono">{{.Title}}</p>
<p class="text-sm opacity-60">{{.Detail}}</p>
</div>{{end}}
`
