package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pagesmith/pkg/cache"
	"github.com/matzehuels/pagesmith/pkg/core/compose"
	"github.com/matzehuels/pagesmith/pkg/observability"
	"github.com/matzehuels/pagesmith/pkg/render"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use it so artifact caching behaves the same everywhere.
//
// The Runner is stateless except for the cache and logger. Multiple
// goroutines can safely use the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete compose → render pipeline.
func (r *Runner) Execute(ctx context.Context, in Input, opts Options) (*Result, error) {
	opts.SetDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	logger := r.logger(opts)

	result := &Result{}

	composeStart := time.Now()
	l, err := r.Compose(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("compose: %w", err)
	}
	result.Layout = l
	result.Stats.ComposeTime = time.Since(composeStart)
	result.Stats.Sections = len(l.Plan.Sections)
	result.Stats.Instructions = len(l.Instructions)

	logger.Info("composed layout",
		"mode", l.Mode,
		"sections", result.Stats.Sections,
		"instructions", result.Stats.Instructions,
		"duration", result.Stats.ComposeTime)

	renderStart := time.Now()
	artifacts, hash, hit, err := r.render(ctx, l, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.LayoutHash = hash
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = hit

	logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", hit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// Compose builds the layout for in, firing the pipeline hooks.
func (r *Runner) Compose(ctx context.Context, in Input) (*compose.Layout, error) {
	hooks := observability.Pipeline()
	mode, sections := "", 0
	if in.Plan != nil {
		mode, sections = string(in.Plan.LayoutMode), len(in.Plan.Sections)
	}
	hooks.OnComposeStart(ctx, mode, sections)
	start := time.Now()
	l, err := Compose(in)
	instructions := 0
	if l != nil {
		instructions = len(l.Instructions)
	}
	hooks.OnComposeComplete(ctx, mode, instructions, time.Since(start), err)
	return l, err
}

// RenderWithCacheInfo renders l in every requested format and reports
// whether all artifacts came from the cache.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, l *compose.Layout, opts Options) (map[render.Format][]byte, bool, error) {
	opts.SetDefaults()
	if err := opts.Validate(); err != nil {
		return nil, false, err
	}
	artifacts, _, hit, err := r.render(ctx, l, opts)
	return artifacts, hit, err
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and
// discards the cache hit info.
func (r *Runner) Render(ctx context.Context, l *compose.Layout, opts Options) (map[render.Format][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, l, opts)
	return artifacts, err
}

func (r *Runner) render(ctx context.Context, l *compose.Layout, opts Options) (map[render.Format][]byte, string, bool, error) {
	hash, err := LayoutHash(l)
	if err != nil {
		return nil, "", false, err
	}

	artifacts := make(map[render.Format][]byte, len(opts.Formats))
	var missing []render.Format
	for _, f := range opts.Formats {
		if opts.Refresh {
			missing = append(missing, f)
			continue
		}
		key := r.Keyer.ArtifactKey(hash, opts.ArtifactKeyOpts(f))
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			observability.Cache().OnCacheHit(ctx, key)
			artifacts[f] = data
			continue
		}
		observability.Cache().OnCacheMiss(ctx, key)
		missing = append(missing, f)
	}
	if len(missing) == 0 {
		return artifacts, hash, true, nil
	}

	names := make([]string, len(missing))
	for i, f := range missing {
		names[i] = string(f)
	}
	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, names)
	start := time.Now()
	rendered, err := renderFormats(l, missing, opts.SinkOptions())
	hooks.OnRenderComplete(ctx, names, time.Since(start), err)
	if err != nil {
		return nil, "", false, err
	}

	for f, data := range rendered {
		key := r.Keyer.ArtifactKey(hash, opts.ArtifactKeyOpts(f))
		if err := r.Cache.Set(ctx, key, data, cache.TTLArtifact); err != nil {
			r.logger(opts).Debug("cache write failed", "format", f, "error", err)
		} else {
			observability.Cache().OnCacheSet(ctx, key, len(data))
		}
		artifacts[f] = data
	}
	return artifacts, hash, false, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) logger(opts Options) *log.Logger {
	if opts.Logger != nil {
		return opts.Logger
	}
	return r.Logger
}
