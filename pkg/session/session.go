// Package session manages generation sessions.
//
// A session is one prompt's lifetime in pagesmith: the plan fetched for it,
// the content store seeded from that plan and hydrated with generated copy,
// the prompt classification, and the variation seed. The [Controller] drives
// a live session through its states:
//
//	idle → planning → seeded → hydrating → ready
//	                ↘ errored
//
// Copy and prediction fetches run in the background once a plan arrives.
// Every plan attempt gets a new generation number, and background results
// that belong to an older generation are dropped rather than applied.
//
// Sessions are persisted as [Record] values through a [Store]. Backends:
//   - [MemoryStore]: in-process, for tests and single-instance servers
//   - [FileStore]: JSON files, for the CLI
//   - [MongoStore]: MongoDB, for multi-instance deployments
//
// # Usage
//
//	ctrl := session.NewController(svc, session.WithLogger(logger))
//	snap, err := ctrl.Generate(ctx, "portfolio for a ceramic artist")
//	if err != nil {
//	    return err // PLAN_FAILED
//	}
//	ctrl.Wait(ctx) // copy and prediction settle
//	snap = ctrl.Snapshot()
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/pagesmith/pkg/core/content"
	"github.com/matzehuels/pagesmith/pkg/core/plan"
	"github.com/matzehuels/pagesmith/pkg/planner"
)

// Sentinel errors for session operations.
var (
	// ErrNotFound is returned when a session does not exist.
	ErrNotFound = errors.New("session not found")

	// ErrExpired is returned when a session has exceeded its TTL.
	ErrExpired = errors.New("session expired")

	// ErrSuperseded is returned by Generate when a newer generation started
	// before its plan arrived.
	ErrSuperseded = errors.New("generation superseded")
)

// DefaultTTL is how long a persisted session is kept after its last change.
const DefaultTTL = 24 * time.Hour

// State is a session lifecycle state.
type State string

// Session states.
const (
	StateIdle      State = "idle"
	StatePlanning  State = "planning"
	StateSeeded    State = "seeded"
	StateHydrating State = "hydrating"
	StateReady     State = "ready"
	StateErrored   State = "errored"
)

// Busy reports whether the state has a fetch in flight.
func (s State) Busy() bool {
	return s == StatePlanning || s == StateHydrating
}

// Record is the persisted form of a session.
type Record struct {
	ID         string              `json:"id"`
	Prompt     string              `json:"prompt"`
	Seed       int                 `json:"seed"`
	Generation uint64              `json:"generation"`
	State      State               `json:"state"`
	Plan       *plan.Plan          `json:"plan,omitempty"`
	Content    content.Store       `json:"content,omitempty"`
	Prediction *planner.Prediction `json:"prediction,omitempty"`
	Error      string              `json:"error,omitempty"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`
	ExpiresAt  time.Time           `json:"expires_at"`
}

// IsExpired returns true if the record has expired. A zero ExpiresAt never
// expires.
func (r *Record) IsExpired() bool {
	return !r.ExpiresAt.IsZero() && time.Now().After(r.ExpiresAt)
}

// Store is the interface for session storage backends.
type Store interface {
	// Get retrieves a session by ID. Missing and expired sessions return
	// ErrNotFound.
	Get(ctx context.Context, id string) (*Record, error)

	// Set stores a session, replacing any previous version.
	Set(ctx context.Context, rec *Record) error

	// Delete removes a session. Deleting a missing session is not an error.
	Delete(ctx context.Context, id string) error

	// Cleanup removes expired sessions.
	Cleanup(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}

// NewID returns a fresh session identifier.
func NewID() string {
	return uuid.NewString()
}
