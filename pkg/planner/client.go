package planner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pagesmith/pkg/cache"
	"github.com/matzehuels/pagesmith/pkg/core/content"
	"github.com/matzehuels/pagesmith/pkg/core/plan"
	"github.com/matzehuels/pagesmith/pkg/errors"
	"github.com/matzehuels/pagesmith/pkg/httputil"
	"github.com/matzehuels/pagesmith/pkg/observability"
)

// Request defaults.
const (
	DefaultTimeout    = 30 * time.Second
	DefaultRetryDelay = time.Second
)

// Service endpoints, relative to the base URL.
const (
	PathPlan     = "/plan"
	PathCopy     = "/generate-copy"
	PathPredict  = "/predict"
	maxBodyBytes = 4 << 20
)

// Client talks to the planning service over HTTP.
// It handles caching, retry logic, and common request headers.
type Client struct {
	baseURL  string
	http     *http.Client
	cache    cache.Cache
	keyer    cache.Keyer
	refresh  bool
	headers  map[string]string
	logger   *log.Logger
	attempts int
	delay    time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithTimeout sets the per-request transport timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http = &http.Client{Timeout: d}
		}
	}
}

// WithCache enables response caching. A nil keyer uses the default keyer.
func WithCache(ch cache.Cache, keyer cache.Keyer) Option {
	return func(c *Client) {
		c.cache = ch
		if keyer != nil {
			c.keyer = keyer
		}
	}
}

// WithRefresh bypasses cache reads. Fresh responses are still written.
func WithRefresh(refresh bool) Option {
	return func(c *Client) { c.refresh = refresh }
}

// WithHeaders sets headers applied to every request.
func WithHeaders(h map[string]string) Option {
	return func(c *Client) { c.headers = h }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithRetry sets the retry policy for transient failures.
func WithRetry(attempts int, delay time.Duration) Option {
	return func(c *Client) {
		c.attempts = attempts
		c.delay = delay
	}
}

// NewClient creates a Client for the service at baseURL. Without options it
// uses no cache and retries transient failures three times starting at one
// second.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     &http.Client{Timeout: DefaultTimeout},
		cache:    cache.NewNullCache(),
		keyer:    cache.NewDefaultKeyer(),
		logger:   log.Default(),
		attempts: 3,
		delay:    DefaultRetryDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.cache == nil {
		c.cache = cache.NewNullCache()
	}
	if c.logger == nil {
		c.logger = log.Default()
	}
	return c
}

// BaseURL returns the service root.
func (c *Client) BaseURL() string { return c.baseURL }

// Plan requests a plan for prompt and seed.
func (c *Client) Plan(ctx context.Context, prompt string, seed int) (*plan.Plan, error) {
	var p plan.Plan
	key := c.keyer.PlanKey(prompt, seed)
	body := map[string]any{"prompt": prompt, "seed": seed}
	err := c.cached(ctx, "plan", key, cache.TTLPlan, &p, func() error {
		p = plan.Plan{}
		return c.post(ctx, PathPlan, body, &p)
	})
	if err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		_ = c.cache.Delete(ctx, key)
		return nil, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	c.logger.Debug("plan received", "mode", p.LayoutMode, "sections", len(p.Sections))
	return &p, nil
}

// GenerateCopy requests copy for the sections of a plan. Patches carrying
// the error marker or no keys are returned but not cached.
func (c *Client) GenerateCopy(ctx context.Context, req CopyRequest) (content.Patch, error) {
	key := c.keyer.CopyKey(req.Prompt, req.LayoutMode, req.Sections)
	if !c.refresh {
		var cached content.Patch
		if err := cache.GetJSON(ctx, c.cache, key, &cached); err == nil {
			observability.Cache().OnCacheHit(ctx, "copy")
			return cached, nil
		}
		observability.Cache().OnCacheMiss(ctx, "copy")
	}

	var patch content.Patch
	err := httputil.Retry(ctx, c.attempts, c.delay, func() error {
		raw, err := c.postRaw(ctx, PathCopy, req)
		if err != nil {
			return err
		}
		patch, err = content.DecodePatch(raw)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrBadResponse, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !patch.Applicable() {
		c.logger.Debug("copy not applicable", "error", patch.ErrorMessage(), "keys", len(patch))
		return patch, nil
	}
	c.store(ctx, "copy", key, cache.TTLCopy, patch)
	return patch, nil
}

// Predict requests the prompt classification.
func (c *Client) Predict(ctx context.Context, prompt string) (*Prediction, error) {
	var p Prediction
	err := c.cached(ctx, "predict", c.keyer.PredictionKey(prompt), cache.TTLPrediction, &p, func() error {
		return c.post(ctx, PathPredict, map[string]string{"prompt": prompt}, &p)
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// cached retrieves v from cache or executes fetch with retries and caches
// the result. keyType labels cache hooks.
func (c *Client) cached(ctx context.Context, keyType, key string, ttl time.Duration, v any, fetch func() error) error {
	if !c.refresh {
		if err := cache.GetJSON(ctx, c.cache, key, v); err == nil {
			observability.Cache().OnCacheHit(ctx, keyType)
			return nil
		}
		observability.Cache().OnCacheMiss(ctx, keyType)
	}
	if err := httputil.Retry(ctx, c.attempts, c.delay, fetch); err != nil {
		return err
	}
	c.store(ctx, keyType, key, ttl, v)
	return nil
}

func (c *Client) store(ctx context.Context, keyType, key string, ttl time.Duration, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, key, data, ttl); err != nil {
		c.logger.Warn("cache write failed", "type", keyType, "error", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, keyType, len(data))
}

func (c *Client) post(ctx context.Context, path string, body, v any) error {
	raw, err := c.postRaw(ctx, path, body)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrBadResponse, path, err)
	}
	return nil
}

func (c *Client) postRaw(ctx context.Context, path string, body any) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	host := hostOf(c.baseURL)
	hooks := observability.HTTP()
	hooks.OnRequest(ctx, http.MethodPost, host, path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, http.MethodPost, host, path, err)
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
		}
		return nil, &httputil.RetryableError{Err: fmt.Errorf("%w: %v", ErrNetwork, err)}
	}
	defer resp.Body.Close()
	hooks.OnResponse(ctx, http.MethodPost, host, path, resp.StatusCode, time.Since(start))

	if err := checkStatus(resp.StatusCode, resp.Header.Get("Retry-After")); err != nil {
		c.logger.Debug("planning service error", "path", path, "status", resp.StatusCode)
		return nil, err
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &httputil.RetryableError{Err: fmt.Errorf("%w: read body: %v", ErrNetwork, err)}
	}
	return data, nil
}

func checkStatus(code int, retryAfter string) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusTooManyRequests:
		after := httputil.RetryAfter(retryAfter, time.Now())
		return &httputil.RetryableError{
			Err:   fmt.Errorf("%w: %w", ErrNetwork, &errors.RateLimitedError{RetryAfter: int(after.Seconds())}),
			After: after,
		}
	case code >= 500:
		return &httputil.RetryableError{
			Err:   fmt.Errorf("%w: status %d", ErrNetwork, code),
			After: httputil.RetryAfter(retryAfter, time.Now()),
		}
	default:
		return fmt.Errorf("%w: status %d", ErrNetwork, code)
	}
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return u.Host
}

var _ Service = (*Client)(nil)
