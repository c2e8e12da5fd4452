// Package pkg provides the libraries behind pagesmith, a renderer for
// generated page layouts.
//
// # Overview
//
// pagesmith takes an abstract page plan (typed sections plus style tokens)
// from a planning service, composes it into render instructions, and keeps
// per-section copy in sync as background generation calls complete. The pkg
// directory is organized into these areas:
//
//  1. [core] - Domain logic (plan model, token resolution, section registry,
//     content store, composition)
//  2. [session] - Generation sessions: plan fetch, seeding, hydration, edits
//  3. [planner] - Clients for the planning, copy and prediction services
//  4. [pipeline] - Cached compose → render orchestration
//  5. [render/sink] - Output formats (HTML, JSON, DOT/SVG, terminal text)
//  6. [server] - HTTP API over sessions
//
// # Architecture
//
// The typical data flow through pagesmith:
//
//	prompt
//	   ↓
//	[planner] plan fetch ──────────────┐
//	   ↓                               ↓
//	[core/content] seed defaults   [core/compose] instructions
//	   ↑                               ↓
//	[planner] copy (async merge)   [render/sink] HTML/JSON/SVG/text
//
// # Quick Start
//
// Render a plan file without a planning service:
//
//	doc, _ := plan.Read(f, plan.FormatYAML)
//	store := content.MergeHydration(content.SeedDefaults(doc.Sections), doc.Content)
//	layout := compose.Build(&doc.Plan, store, compose.DefaultSeed)
//	html, _ := sink.RenderHTML(layout, sink.HTMLOptions{Standalone: true})
//
// # Infrastructure
//
// [cache] - Byte caches (file, Redis, null) with a shared key scheme.
//
// [config] - TOML configuration with environment overrides.
//
// [errors] - Coded errors shared by CLI and API.
//
// [observability] - Hook interfaces for metrics and tracing.
package pkg
