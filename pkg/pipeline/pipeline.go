// Package pipeline provides the compose → render pipeline shared by the CLI
// and the HTTP API.
//
// # Architecture
//
// The pipeline has two stages:
//
//  1. Compose: seed content for a plan, overlay any provided content, and
//     build the [compose.Layout]
//  2. Render: produce one artifact per requested [render.Format]
//
// Rendering is cached per layout hash and format, and formats are rendered
// concurrently. Live sessions skip the compose stage and hand their current
// layout straight to [Runner.Render].
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Input{Plan: p}, pipeline.Options{
//	    Formats: []render.Format{render.FormatHTML, render.FormatExport},
//	})
//	if err != nil {
//	    return err
//	}
//	page := result.Artifacts[render.FormatHTML]
package pipeline

import (
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pagesmith/pkg/cache"
	"github.com/matzehuels/pagesmith/pkg/core/compose"
	"github.com/matzehuels/pagesmith/pkg/core/content"
	"github.com/matzehuels/pagesmith/pkg/core/plan"
	"github.com/matzehuels/pagesmith/pkg/errors"
	"github.com/matzehuels/pagesmith/pkg/planner"
	"github.com/matzehuels/pagesmith/pkg/render"
	"github.com/matzehuels/pagesmith/pkg/render/sink"
)

// =============================================================================
// Default Values
// =============================================================================

// DefaultFormat is rendered when no format is requested.
const DefaultFormat = render.FormatHTML

// =============================================================================
// Input, Options, Result
// =============================================================================

// Input is what the compose stage consumes.
type Input struct {
	Plan *plan.Plan
	// Content overlays the seeded defaults, using the same merge rules as
	// copy hydration.
	Content content.Store
	// Seed is the variation seed. Zero means [compose.DefaultSeed].
	Seed int
}

// InputFromDocument builds an input from a plan document.
func InputFromDocument(doc *plan.Document, seed int) Input {
	in := Input{Seed: seed}
	if doc == nil {
		return in
	}
	p := doc.Plan
	in.Plan = &p
	in.Content = content.Store(doc.Content)
	return in
}

// Options configures the render stage.
type Options struct {
	Formats []render.Format `json:"formats,omitempty"`

	Standalone bool   `json:"standalone,omitempty"`
	Title      string `json:"title,omitempty"`
	Detailed   bool   `json:"detailed,omitempty"`
	Width      int    `json:"width,omitempty"`

	// Refresh bypasses cached artifacts.
	Refresh bool `json:"refresh,omitempty"`

	Prediction *planner.Prediction `json:"-"`
	Logger     *log.Logger         `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	Layout *compose.Layout

	// LayoutHash is the content hash the artifacts are cached under.
	LayoutHash string

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[render.Format][]byte

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Sections     int
	Instructions int
	ComposeTime  time.Duration
	RenderTime   time.Duration
}

// CacheInfo tracks cache hits.
type CacheInfo struct {
	RenderHit bool // every artifact came from cache
}

// =============================================================================
// Options Methods
// =============================================================================

// SetDefaults fills in unset options.
func (o *Options) SetDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []render.Format{DefaultFormat}
	}
	if o.Width == 0 {
		o.Width = sink.DefaultTextWidth
	}
}

// Validate checks every requested format.
func (o *Options) Validate() error {
	known := map[render.Format]bool{}
	for _, f := range render.Formats() {
		known[f] = true
	}
	for _, f := range o.Formats {
		if !known[f] {
			return errors.New(errors.ErrCodeInvalidFormat, "unsupported format %q", f)
		}
	}
	return nil
}

// SinkOptions converts o for the sink dispatcher.
func (o *Options) SinkOptions() sink.Options {
	return sink.Options{
		Standalone: o.Standalone,
		Title:      o.Title,
		Detailed:   o.Detailed,
		Width:      o.Width,
		Prediction: o.Prediction,
	}
}

// ArtifactKeyOpts returns cache key options for format. Only the settings
// the format's sink reads take part in the key.
func (o *Options) ArtifactKeyOpts(f render.Format) cache.ArtifactKeyOpts {
	opts := cache.ArtifactKeyOpts{Format: string(f)}
	switch f {
	case render.FormatHTML:
		opts.Options = map[string]string{
			"standalone": strconv.FormatBool(o.Standalone),
			"title":      o.Title,
		}
	case render.FormatDOT, render.FormatSVG:
		opts.Options = map[string]string{"detailed": strconv.FormatBool(o.Detailed)}
	case render.FormatText:
		opts.Options = map[string]string{"width": strconv.Itoa(o.Width)}
		if o.Prediction != nil {
			h, _ := cache.HashJSON(o.Prediction)
			opts.Options["prediction"] = h
		}
	}
	return opts
}

// LayoutHash returns the content hash of l: its key plus its export form.
func LayoutHash(l *compose.Layout) (string, error) {
	if l == nil {
		return "", errors.New(errors.ErrCodeInvalidPlan, "no layout")
	}
	h, err := cache.HashJSON(struct {
		Key    string         `json:"key"`
		Export compose.Export `json:"export"`
	}{l.Key, l.Export()})
	if err != nil {
		return "", fmt.Errorf("serialize layout for cache key: %w", err)
	}
	return h, nil
}
