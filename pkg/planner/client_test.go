package planner

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matzehuels/pagesmith/pkg/cache"
	"github.com/matzehuels/pagesmith/pkg/core/plan"
	pserrors "github.com/matzehuels/pagesmith/pkg/errors"
)

const planBody = `{
	"layout_mode": "dashboard",
	"sections": [{"type": "chart", "variant": "line"}, {"type": "table", "variant": "dense"}],
	"designDNA": {"palette": "blue", "theme": "light"},
	"section_budget": 2
}`

func newTestClient(t *testing.T, h http.HandlerFunc, opts ...Option) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	opts = append([]Option{WithHTTPClient(srv.Client()), WithRetry(2, time.Millisecond)}, opts...)
	return NewClient(srv.URL+"/", opts...), srv
}

func TestNewClientDefaults(t *testing.T) {
	c := NewClient("http://localhost:8000/")
	if c.BaseURL() != "http://localhost:8000" {
		t.Errorf("BaseURL() = %q", c.BaseURL())
	}
	if c.http == nil || c.cache == nil || c.keyer == nil || c.logger == nil {
		t.Error("NewClient() left a dependency nil")
	}
	if c.attempts != 3 || c.delay != time.Second {
		t.Errorf("retry = %d/%v", c.attempts, c.delay)
	}
}

func TestClientPlan(t *testing.T) {
	var got map[string]any
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != PathPlan {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(planBody))
	})

	p, err := c.Plan(context.Background(), "sales dashboard", 43)
	if err != nil {
		t.Fatalf("Plan() error: %v", err)
	}
	if got["prompt"] != "sales dashboard" || got["seed"] != float64(43) {
		t.Errorf("request body = %v", got)
	}
	if p.LayoutMode != plan.Dashboard || len(p.Sections) != 2 || p.Sections[1].Type != "table" {
		t.Errorf("plan = %+v", p)
	}
	if p.Tokens == nil || p.Tokens.Palette != "blue" {
		t.Errorf("tokens = %+v", p.Tokens)
	}
}

func TestClientPlanStatus(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantCalls int32
	}{
		{"bad request is not retried", http.StatusBadRequest, 1},
		{"server error is retried", http.StatusInternalServerError, 2},
		{"rate limit is retried", http.StatusTooManyRequests, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
			})
			_, err := c.Plan(context.Background(), "x", 42)
			if !errors.Is(err, ErrNetwork) {
				t.Errorf("Plan() error = %v, want ErrNetwork", err)
			}
			if n := calls.Load(); n != tt.wantCalls {
				t.Errorf("calls = %d, want %d", n, tt.wantCalls)
			}
		})
	}
}

func TestClientPlanRecoversAfterRetry(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(planBody))
	})
	if _, err := c.Plan(context.Background(), "x", 42); err != nil {
		t.Fatalf("Plan() error: %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
}

func TestClientPlanMalformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", "<html>oops</html>"},
		{"section without type", `{"layout_mode":"landing","sections":[{"variant":"a"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			})
			if _, err := c.Plan(context.Background(), "x", 42); !errors.Is(err, ErrBadResponse) {
				t.Errorf("Plan() error = %v, want ErrBadResponse", err)
			}
		})
	}
}

func TestClientPlanCached(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	var calls atomic.Int32
	handler := func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(planBody))
	}
	c, srv := newTestClient(t, handler, WithCache(fc, nil))
	ctx := context.Background()

	for range 3 {
		if _, err := c.Plan(ctx, "cached", 42); err != nil {
			t.Fatal(err)
		}
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1 (cache hit)", calls.Load())
	}

	if _, err := c.Plan(ctx, "cached", 43); err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2 (new seed misses)", calls.Load())
	}

	refresh := NewClient(srv.URL, WithHTTPClient(srv.Client()), WithCache(fc, nil), WithRefresh(true))
	if _, err := refresh.Plan(ctx, "cached", 42); err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3 (refresh bypasses cache)", calls.Load())
	}
}

func TestClientGenerateCopy(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantKeys   int
		wantFailed bool
		wantCached bool
	}{
		{"patch", `{"hero":{"heading":"Ship"}}`, 1, false, true},
		{"error marker", `{"error":"quota"}`, 1, true, false},
		{"empty object", `{}`, 0, false, false},
		{"null", `null`, 0, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fc, _ := cache.NewFileCache(t.TempDir())
			var req CopyRequest
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != PathCopy {
					t.Errorf("path = %s", r.URL.Path)
				}
				json.NewDecoder(r.Body).Decode(&req)
				w.Write([]byte(tt.body))
			}, WithCache(fc, nil))

			in := CopyRequest{Prompt: "p", LayoutMode: "landing", Sections: []string{"hero", "footer"}}
			patch, err := c.GenerateCopy(context.Background(), in)
			if err != nil {
				t.Fatalf("GenerateCopy() error: %v", err)
			}
			if req.LayoutMode != "landing" || strings.Join(req.Sections, ",") != "hero,footer" {
				t.Errorf("request = %+v", req)
			}
			if len(patch) != tt.wantKeys || patch.Failed() != tt.wantFailed {
				t.Errorf("patch = %v", patch)
			}
			key := cache.NewDefaultKeyer().CopyKey(in.Prompt, in.LayoutMode, in.Sections)
			_, hit, _ := fc.Get(context.Background(), key)
			if hit != tt.wantCached {
				t.Errorf("cached = %v, want %v", hit, tt.wantCached)
			}
		})
	}
}

func TestClientGenerateCopyNonObject(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`["hero"]`))
	})
	_, err := c.GenerateCopy(context.Background(), CopyRequest{Prompt: "p"})
	if !errors.Is(err, ErrBadResponse) {
		t.Errorf("GenerateCopy() error = %v, want ErrBadResponse", err)
	}
}

func TestClientPredict(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != PathPredict {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`{
			"category": {"label": "saas", "confidence": 0.81, "top_k": [{"label": "saas", "prob": 0.81}, {"label": "fintech", "prob": 0.12}]},
			"complexity": {"label": "medium", "confidence": 0.6}
		}`))
	})
	p, err := c.Predict(context.Background(), "crm")
	if err != nil {
		t.Fatalf("Predict() error: %v", err)
	}
	if p.Category.Label != "saas" || len(p.Category.TopK) != 2 || p.Category.TopK[1].Label != "fintech" {
		t.Errorf("category = %+v", p.Category)
	}
	if p.Complexity.Label != "medium" || p.Complexity.Confidence != 0.6 {
		t.Errorf("complexity = %+v", p.Complexity)
	}
}

func TestClientHeaders(t *testing.T) {
	var auth string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	}, WithHeaders(map[string]string{"Authorization": "Bearer t"}))
	if _, err := c.GenerateCopy(context.Background(), CopyRequest{}); err != nil {
		t.Fatal(err)
	}
	if auth != "Bearer t" {
		t.Errorf("Authorization = %q", auth)
	}
}

func TestClientCancelled(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(planBody))
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.Plan(ctx, "x", 42); err == nil {
		t.Error("Plan() with cancelled context should fail")
	}
}

func TestRateLimitedCode(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "0")
		w.WriteHeader(http.StatusTooManyRequests)
	})
	_, err := c.Plan(context.Background(), "x", 42)
	if got := pserrors.GetCode(err); got != pserrors.ErrCodeRateLimited {
		t.Errorf("GetCode() = %q, want RATE_LIMITED (err %v)", got, err)
	}
	var rl *pserrors.RateLimitedError
	if !errors.As(err, &rl) {
		t.Error("429 should carry a RateLimitedError")
	}
}
