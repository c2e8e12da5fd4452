package planner

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/matzehuels/pagesmith/pkg/core/content"
	"github.com/matzehuels/pagesmith/pkg/core/plan"
)

type stubPlanner struct{}

func (stubPlanner) Plan(context.Context, string, int) (*plan.Plan, error) {
	return &plan.Plan{LayoutMode: plan.Landing}, nil
}

type stubCopy struct{ heading string }

func (s stubCopy) GenerateCopy(context.Context, CopyRequest) (content.Patch, error) {
	return content.Patch{"hero": map[string]any{"heading": s.heading}}, nil
}

type stubPredictor struct{}

func (stubPredictor) Predict(context.Context, string) (*Prediction, error) {
	return &Prediction{Category: Category{Label: "portfolio"}}, nil
}

func TestCombine(t *testing.T) {
	ctx := context.Background()
	svc := Combine(stubPlanner{}, stubCopy{heading: "Hi"}, stubPredictor{})

	p, err := svc.Plan(ctx, "x", 42)
	if err != nil || p.LayoutMode != plan.Landing {
		t.Errorf("Plan() = %v, %v", p, err)
	}
	patch, _ := svc.GenerateCopy(ctx, CopyRequest{})
	if patch["hero"].(map[string]any)["heading"] != "Hi" {
		t.Errorf("GenerateCopy() = %v", patch)
	}
	pred, _ := svc.Predict(ctx, "x")
	if pred.Category.Label != "portfolio" {
		t.Errorf("Predict() = %+v", pred)
	}
}

func TestCopyPrompt(t *testing.T) {
	got := CopyPrompt(CopyRequest{Prompt: "coffee shop", LayoutMode: "landing", Sections: []string{"hero", "kpiTiles"}})
	for _, want := range []string{
		"Sections provided: hero, kpiTiles",
		`User intent: "coffee shop"`,
		"Layout mode: landing",
		"STRICT JSON",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestStripFence(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`{"a":1}`, `{"a":1}`},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{\"a\":1}```", `{"a":1}`},
		{"  {}  ", "{}"},
	}
	for _, tt := range tests {
		if got := stripFence(tt.in); got != tt.want {
			t.Errorf("stripFence(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestOpenAICopywriterDisabled(t *testing.T) {
	w := NewOpenAICopywriter(OpenAIConfig{})
	if w.Enabled() {
		t.Error("copywriter without key should be disabled")
	}
	patch, err := w.GenerateCopy(context.Background(), CopyRequest{Prompt: "x"})
	if err != nil {
		t.Fatalf("GenerateCopy() error: %v", err)
	}
	if len(patch) != 0 {
		t.Errorf("patch = %v, want empty", patch)
	}
}

func TestOpenAICopywriter(t *testing.T) {
	var model string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("path = %s", r.URL.Path)
		}
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		model, _ = body["model"].(string)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 0,
			"model":   model,
			"choices": []any{map[string]any{
				"index":         0,
				"finish_reason": "stop",
				"message": map[string]any{
					"role":    "assistant",
					"content": "```json\n{\"hero\":{\"heading\":\"Brew better\"}}\n```",
				},
			}},
		})
	}))
	defer srv.Close()

	w := NewOpenAICopywriter(OpenAIConfig{APIKey: "sk-test", BaseURL: srv.URL + "/v1/"})
	patch, err := w.GenerateCopy(context.Background(), CopyRequest{Prompt: "coffee", Sections: []string{"hero"}})
	if err != nil {
		t.Fatalf("GenerateCopy() error: %v", err)
	}
	if model != DefaultCopyModel {
		t.Errorf("model = %q, want %q", model, DefaultCopyModel)
	}
	hero, _ := patch["hero"].(map[string]any)
	if hero["heading"] != "Brew better" {
		t.Errorf("patch = %v", patch)
	}
}
