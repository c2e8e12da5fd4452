package server

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pagesmith/pkg/core/content"
	"github.com/matzehuels/pagesmith/pkg/core/plan"
	"github.com/matzehuels/pagesmith/pkg/errors"
	"github.com/matzehuels/pagesmith/pkg/pipeline"
	"github.com/matzehuels/pagesmith/pkg/planner"
	"github.com/matzehuels/pagesmith/pkg/session"
)

type fakeService struct {
	mu      sync.Mutex
	planErr error
}

func (f *fakeService) Plan(_ context.Context, _ string, _ int) (*plan.Plan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.planErr != nil {
		return nil, f.planErr
	}
	return &plan.Plan{
		LayoutMode: plan.Landing,
		Sections: []plan.Section{
			{Type: "hero", Variant: "centered"},
			{Type: "kpiTiles", Variant: "grid"},
		},
	}, nil
}

func (f *fakeService) GenerateCopy(context.Context, planner.CopyRequest) (content.Patch, error) {
	return content.Patch{"hero": map[string]any{"heading": "Generated"}}, nil
}

func (f *fakeService) Predict(context.Context, string) (*planner.Prediction, error) {
	return &planner.Prediction{Category: planner.Category{Label: "portfolio", Confidence: 0.8}}, nil
}

type testEnv struct {
	srv   *Server
	ts    *httptest.Server
	svc   *fakeService
	store *session.MemoryStore
}

func newEnv(t *testing.T, store *session.MemoryStore) *testEnv {
	t.Helper()
	if store == nil {
		store = session.NewMemoryStore()
	}
	logger := log.New(io.Discard)
	svc := &fakeService{}
	srv := New(svc, store, WithLogger(logger), WithRunner(pipeline.NewRunner(nil, nil, logger)))
	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)
	return &testEnv{srv: srv, ts: ts, svc: svc, store: store}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, e.ts.URL+path, rd)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	var out map[string]any
	_ = json.Unmarshal(data, &out)
	return resp, out
}

// settle waits for background fetches so later reads are deterministic.
func (e *testEnv) settle(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.srv.Drain(ctx); err != nil {
		t.Fatalf("Drain: %v", err)
	}
}

func (e *testEnv) create(t *testing.T) string {
	t.Helper()
	resp, body := e.do(t, http.MethodPost, "/api/sessions", map[string]any{"prompt": "pottery studio"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d, body %v", resp.StatusCode, body)
	}
	id, _ := body["id"].(string)
	if id == "" {
		t.Fatalf("create returned no id: %v", body)
	}
	e.settle(t)
	return id
}

func heading(body map[string]any) any {
	c, _ := body["content"].(map[string]any)
	hero, _ := c["hero"].(map[string]any)
	return hero["heading"]
}

func TestHealth(t *testing.T) {
	e := newEnv(t, nil)
	resp, body := e.do(t, http.MethodGet, "/healthz", nil)
	if resp.StatusCode != http.StatusOK || body["status"] != "ok" {
		t.Errorf("healthz = %d %v", resp.StatusCode, body)
	}
	if v, _ := body["version"].(string); v == "" {
		t.Errorf("healthz should report the build version: %v", body)
	}
}

func TestCreateAndGet(t *testing.T) {
	e := newEnv(t, nil)
	id := e.create(t)

	resp, body := e.do(t, http.MethodGet, "/api/sessions/"+id, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get status = %d", resp.StatusCode)
	}
	if body["state"] != string(session.StateReady) {
		t.Errorf("state = %v, want ready", body["state"])
	}
	if heading(body) != "Generated" {
		t.Errorf("heading = %v, want hydrated copy", heading(body))
	}
	if _, ok := body["prediction"].(map[string]any); !ok {
		t.Error("prediction missing")
	}
	if e.store.Len() != 1 {
		t.Errorf("store holds %d records, want 1", e.store.Len())
	}
}

func TestCreateErrors(t *testing.T) {
	e := newEnv(t, nil)

	resp, body := e.do(t, http.MethodPost, "/api/sessions", map[string]any{"prompt": "  "})
	if resp.StatusCode != http.StatusBadRequest || body["code"] != string(errors.ErrCodeInvalidPrompt) {
		t.Errorf("empty prompt = %d %v", resp.StatusCode, body)
	}

	req, _ := http.NewRequest(http.MethodPost, e.ts.URL+"/api/sessions", strings.NewReader("{"))
	raw, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	raw.Body.Close()
	if raw.StatusCode != http.StatusBadRequest {
		t.Errorf("malformed body status = %d", raw.StatusCode)
	}

	e.svc.mu.Lock()
	e.svc.planErr = fmt.Errorf("connection refused")
	e.svc.mu.Unlock()
	resp, body = e.do(t, http.MethodPost, "/api/sessions", map[string]any{"prompt": "shop"})
	if resp.StatusCode != http.StatusBadGateway || body["code"] != string(errors.ErrCodePlanFailed) {
		t.Errorf("plan failure = %d %v", resp.StatusCode, body)
	}
	if body["session_id"] == "" || body["session_id"] == nil {
		t.Error("plan failure should name the errored session")
	}
}

func TestNotFound(t *testing.T) {
	e := newEnv(t, nil)
	for _, path := range []string{"/api/sessions/missing", "/api/sessions/missing/render/html"} {
		resp, body := e.do(t, http.MethodGet, path, nil)
		if resp.StatusCode != http.StatusNotFound || body["code"] != string(errors.ErrCodeSessionNotFound) {
			t.Errorf("%s = %d %v", path, resp.StatusCode, body)
		}
	}
}

func TestShuffleAndCopy(t *testing.T) {
	e := newEnv(t, nil)
	id := e.create(t)

	resp, body := e.do(t, http.MethodPost, "/api/sessions/"+id+"/shuffle", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("shuffle status = %d %v", resp.StatusCode, body)
	}
	if body["seed"] != float64(43) {
		t.Errorf("seed = %v, want 43", body["seed"])
	}
	e.settle(t)

	resp, _ = e.do(t, http.MethodPost, "/api/sessions/"+id+"/copy", nil)
	if resp.StatusCode != http.StatusAccepted {
		t.Errorf("copy status = %d, want 202", resp.StatusCode)
	}
	e.settle(t)
}

func TestEdit(t *testing.T) {
	e := newEnv(t, nil)
	id := e.create(t)

	resp, body := e.do(t, http.MethodPatch, "/api/sessions/"+id+"/content",
		map[string]any{"type": "hero", "field": "heading", "value": "Edited"})
	if resp.StatusCode != http.StatusOK || heading(body) != "Edited" {
		t.Errorf("edit = %d %v", resp.StatusCode, heading(body))
	}

	resp, body = e.do(t, http.MethodPatch, "/api/sessions/"+id+"/content",
		map[string]any{"type": "kpiTiles", "field": "label", "index": 5, "value": "Extra"})
	if resp.StatusCode != http.StatusOK {
		t.Errorf("item edit = %d %v", resp.StatusCode, body)
	}

	resp, body = e.do(t, http.MethodPatch, "/api/sessions/"+id+"/content",
		map[string]any{"type": "kpiTiles", "field": "heading", "value": "x"})
	if resp.StatusCode != http.StatusUnprocessableEntity || body["code"] != string(errors.ErrCodeInvalidEdit) {
		t.Errorf("shape mismatch = %d %v", resp.StatusCode, body)
	}
}

func TestRender(t *testing.T) {
	e := newEnv(t, nil)
	id := e.create(t)

	get := func(format string) *http.Response {
		resp, err := http.Get(e.ts.URL + "/api/sessions/" + id + "/render/" + format)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		return resp
	}

	resp := get("html")
	if resp.StatusCode != http.StatusOK || !strings.HasPrefix(resp.Header.Get("Content-Type"), "text/html") {
		t.Errorf("html = %d %s", resp.StatusCode, resp.Header.Get("Content-Type"))
	}
	if resp.Header.Get("X-Cache") != "MISS" {
		t.Errorf("X-Cache = %q, want MISS", resp.Header.Get("X-Cache"))
	}

	if resp := get("export"); resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != "application/json" {
		t.Errorf("export = %d %s", resp.StatusCode, resp.Header.Get("Content-Type"))
	}
	if resp := get("pdf"); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("unknown format status = %d, want 400", resp.StatusCode)
	}
}

func TestRestoreFromStore(t *testing.T) {
	store := session.NewMemoryStore()
	first := newEnv(t, store)
	id := first.create(t)

	second := newEnv(t, store)
	resp, body := second.do(t, http.MethodGet, "/api/sessions/"+id, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("restore status = %d %v", resp.StatusCode, body)
	}
	if body["state"] != string(session.StateReady) || heading(body) != "Generated" {
		t.Errorf("restored = %v %v", body["state"], heading(body))
	}
}

func TestDelete(t *testing.T) {
	e := newEnv(t, nil)
	id := e.create(t)

	resp, _ := e.do(t, http.MethodDelete, "/api/sessions/"+id, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("delete status = %d", resp.StatusCode)
	}
	resp, _ = e.do(t, http.MethodGet, "/api/sessions/"+id, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("get after delete = %d, want 404", resp.StatusCode)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{errors.New(errors.ErrCodeInvalidPrompt, "x"), http.StatusBadRequest},
		{errors.New(errors.ErrCodeInvalidEdit, "x"), http.StatusUnprocessableEntity},
		{errors.New(errors.ErrCodeInvalidPlan, "x"), http.StatusConflict},
		{errors.New(errors.ErrCodeSessionNotFound, "x"), http.StatusNotFound},
		{errors.New(errors.ErrCodePlanFailed, "x"), http.StatusBadGateway},
		{errors.New(errors.ErrCodeTimeout, "x"), http.StatusGatewayTimeout},
		{errors.New(errors.ErrCodeRateLimited, "x"), http.StatusTooManyRequests},
		{fmt.Errorf("wrapped: %w", session.ErrSuperseded), http.StatusConflict},
		{stderrors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
