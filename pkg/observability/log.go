package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks writes every event as a debug line. The CLI registers it under
// --verbose so background fetches and cache traffic become visible.
type LogHooks struct {
	Logger *log.Logger
}

var (
	_ SessionHooks  = LogHooks{}
	_ PipelineHooks = LogHooks{}
	_ CacheHooks    = LogHooks{}
	_ HTTPHooks     = LogHooks{}
)

// RegisterLogHooks installs LogHooks for every event category.
func RegisterLogHooks(l *log.Logger) {
	h := LogHooks{Logger: l.WithPrefix("trace")}
	SetSessionHooks(h)
	SetPipelineHooks(h)
	SetCacheHooks(h)
	SetHTTPHooks(h)
}

func (h LogHooks) OnPlanStart(_ context.Context, generation uint64, seed int) {
	h.Logger.Debug("plan start", "gen", generation, "seed", seed)
}

func (h LogHooks) OnPlanComplete(_ context.Context, generation uint64, sections int, d time.Duration, err error) {
	h.done("plan", d, err, "gen", generation, "sections", sections)
}

func (h LogHooks) OnHydrate(_ context.Context, generation uint64, keys int, d time.Duration, err error) {
	h.done("copy", d, err, "gen", generation, "keys", keys)
}

func (h LogHooks) OnPredict(_ context.Context, generation uint64, d time.Duration, err error) {
	h.done("prediction", d, err, "gen", generation)
}

func (h LogHooks) OnStale(_ context.Context, fetch string, generation, current uint64) {
	h.Logger.Debug("stale result dropped", "fetch", fetch, "gen", generation, "current", current)
}

func (h LogHooks) OnComposeStart(_ context.Context, mode string, sections int) {
	h.Logger.Debug("compose start", "mode", mode, "sections", sections)
}

func (h LogHooks) OnComposeComplete(_ context.Context, mode string, instructions int, d time.Duration, err error) {
	h.done("compose", d, err, "mode", mode, "instructions", instructions)
}

func (h LogHooks) OnRenderStart(_ context.Context, formats []string) {
	h.Logger.Debug("render start", "formats", formats)
}

func (h LogHooks) OnRenderComplete(_ context.Context, formats []string, d time.Duration, err error) {
	h.done("render", d, err, "formats", formats)
}

func (h LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.Logger.Debug("cache hit", "key", keyType)
}

func (h LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.Logger.Debug("cache miss", "key", keyType)
}

func (h LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.Logger.Debug("cache set", "key", keyType, "bytes", size)
}

func (h LogHooks) OnRequest(_ context.Context, method, host, path string) {
	h.Logger.Debug("request", "method", method, "host", host, "path", path)
}

func (h LogHooks) OnResponse(_ context.Context, method, host, path string, status int, d time.Duration) {
	h.Logger.Debug("response", "method", method, "path", path, "status", status, "took", d.Round(time.Millisecond))
}

func (h LogHooks) OnError(_ context.Context, method, host, path string, err error) {
	h.Logger.Debug("request failed", "method", method, "host", host, "path", path, "error", err)
}

func (h LogHooks) done(what string, d time.Duration, err error, kv ...any) {
	kv = append(kv, "took", d.Round(time.Millisecond))
	if err != nil {
		h.Logger.Debug(what+" failed", append(kv, "error", err)...)
		return
	}
	h.Logger.Debug(what+" done", kv...)
}
