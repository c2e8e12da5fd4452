// Package planner is the boundary to the external planning service.
//
// The planning service answers three kinds of request:
//
//   - POST /plan: a prompt and seed produce a [plan.Plan]
//   - POST /generate-copy: a prompt, layout mode and section list produce a
//     [content.Patch] of generated microcopy
//   - POST /predict: a prompt produces a [Prediction] (intent category and
//     complexity estimate)
//
// Each capability is its own interface so that backends can be mixed. The
// usual setup talks to one service over HTTP:
//
//	svc := planner.NewClient("http://localhost:8000",
//	    planner.WithCache(c, cache.NewDefaultKeyer()),
//	    planner.WithLogger(logger),
//	)
//
// and [Combine] swaps in a different copy backend:
//
//	svc := planner.Combine(client, planner.NewOpenAICopywriter(cfg), client)
package planner

import (
	"context"
	"errors"

	"github.com/matzehuels/pagesmith/pkg/core/content"
	"github.com/matzehuels/pagesmith/pkg/core/plan"
)

var (
	// ErrNetwork is returned for transport failures and non-success statuses.
	ErrNetwork = errors.New("network error")

	// ErrBadResponse is returned when a response body cannot be decoded.
	ErrBadResponse = errors.New("malformed response")
)

// Planner fetches a plan for a prompt. The seed selects a layout variant.
type Planner interface {
	Plan(ctx context.Context, prompt string, seed int) (*plan.Plan, error)
}

// CopyRequest is the input of a copy-generation call.
type CopyRequest struct {
	Prompt     string   `json:"prompt"`
	LayoutMode string   `json:"layout_mode"`
	Sections   []string `json:"sections"`
}

// Copywriter generates section copy. A successful call may still return a
// patch that carries an error marker or no keys at all.
type Copywriter interface {
	GenerateCopy(ctx context.Context, req CopyRequest) (content.Patch, error)
}

// Predictor classifies a prompt.
type Predictor interface {
	Predict(ctx context.Context, prompt string) (*Prediction, error)
}

// Service is the full planning-service surface.
type Service interface {
	Planner
	Copywriter
	Predictor
}

// Prediction is the classifier output shown by inspectors.
type Prediction struct {
	Category   Category   `json:"category"`
	Complexity Complexity `json:"complexity"`
}

// Category is the predicted page category with ranked alternatives.
type Category struct {
	Label      string      `json:"label"`
	Confidence float64     `json:"confidence"`
	TopK       []Candidate `json:"top_k,omitempty"`
}

// Candidate is one ranked alternative label.
type Candidate struct {
	Label string  `json:"label"`
	Prob  float64 `json:"prob"`
}

// Complexity is the predicted build complexity.
type Complexity struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

type combined struct {
	Planner
	Copywriter
	Predictor
}

// Combine builds a Service from separate backends.
func Combine(p Planner, c Copywriter, pr Predictor) Service {
	return combined{Planner: p, Copywriter: c, Predictor: pr}
}
