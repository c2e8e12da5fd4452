package session

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pagesmith/pkg/core/compose"
	"github.com/matzehuels/pagesmith/pkg/core/content"
	"github.com/matzehuels/pagesmith/pkg/core/plan"
	"github.com/matzehuels/pagesmith/pkg/errors"
	"github.com/matzehuels/pagesmith/pkg/observability"
	"github.com/matzehuels/pagesmith/pkg/planner"
)

// Pending reports which background fetches are in flight.
type Pending struct {
	Copy       bool `json:"copy"`
	Prediction bool `json:"prediction"`
}

// Snapshot is a point-in-time view of a session. Its plan, content and
// layout are shared with the controller and must be treated as read-only.
type Snapshot struct {
	ID         string              `json:"id"`
	Prompt     string              `json:"prompt"`
	Seed       int                 `json:"seed"`
	Generation uint64              `json:"generation"`
	State      State               `json:"state"`
	Pending    Pending             `json:"pending"`
	Plan       *plan.Plan          `json:"plan,omitempty"`
	Content    content.Store       `json:"content,omitempty"`
	Layout     *compose.Layout     `json:"-"`
	Prediction *planner.Prediction `json:"prediction,omitempty"`
	Error      string              `json:"error,omitempty"`
	UpdatedAt  time.Time           `json:"updated_at"`
}

// Controller owns one live session. All methods are safe for concurrent use.
type Controller struct {
	svc      planner.Service
	logger   *log.Logger
	onChange func(Snapshot)
	ttl      time.Duration
	wg       sync.WaitGroup

	mu         sync.Mutex
	id         string
	prompt     string
	seed       int
	gen        uint64
	state      State
	plan       *plan.Plan
	store      content.Store
	layout     *compose.Layout
	prediction *planner.Prediction
	copies     int
	predicting bool
	err        string
	createdAt  time.Time
	updatedAt  time.Time
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithOnChange registers fn to receive a snapshot after every state change.
// fn runs outside the controller lock, possibly from a background goroutine.
func WithOnChange(fn func(Snapshot)) Option {
	return func(c *Controller) { c.onChange = fn }
}

// WithSeed sets the initial variation seed.
func WithSeed(seed int) Option {
	return func(c *Controller) { c.seed = seed }
}

// WithTTL sets how long a persisted record stays valid after its last
// change.
func WithTTL(d time.Duration) Option {
	return func(c *Controller) { c.ttl = d }
}

// WithID sets the session identifier instead of generating one.
func WithID(id string) Option {
	return func(c *Controller) { c.id = id }
}

// NewController creates an idle session backed by svc.
func NewController(svc planner.Service, opts ...Option) *Controller {
	now := time.Now()
	c := &Controller{
		svc:       svc,
		logger:    log.Default(),
		seed:      compose.DefaultSeed,
		ttl:       DefaultTTL,
		state:     StateIdle,
		createdAt: now,
		updatedAt: now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = log.Default()
	}
	if c.ttl <= 0 {
		c.ttl = DefaultTTL
	}
	if c.id == "" {
		c.id = NewID()
	}
	return c
}

// ID returns the session identifier.
func (c *Controller) ID() string { return c.id }

// Generate starts a new generation for prompt with the current seed. It
// blocks until the plan arrives, then returns while copy and prediction are
// fetched in the background. A failed plan request leaves the session
// errored with no plan and returns a PLAN_FAILED error.
func (c *Controller) Generate(ctx context.Context, prompt string) (Snapshot, error) {
	if err := errors.ValidatePrompt(prompt); err != nil {
		return c.Snapshot(), err
	}

	c.mu.Lock()
	c.gen++
	gen, seed := c.gen, c.seed
	c.prompt = prompt
	c.state = StatePlanning
	c.copies, c.predicting = 0, false
	c.err = ""
	c.touch()
	c.mu.Unlock()
	c.notify()

	hooks := observability.Session()
	hooks.OnPlanStart(ctx, gen, seed)
	c.logger.Info("requesting plan", "generation", gen, "seed", seed)
	start := time.Now()
	p, err := c.svc.Plan(ctx, prompt, seed)
	sections := 0
	if p != nil {
		sections = len(p.Sections)
	}
	hooks.OnPlanComplete(ctx, gen, sections, time.Since(start), err)

	c.mu.Lock()
	if gen != c.gen {
		current := c.gen
		c.mu.Unlock()
		hooks.OnStale(ctx, observability.FetchPlan, gen, current)
		c.logger.Debug("discarding stale plan", "generation", gen, "current", current)
		return c.Snapshot(), ErrSuperseded
	}
	if err != nil {
		perr := errors.Wrap(errors.ErrCodePlanFailed, err, "could not reach the planning service")
		c.state = StateErrored
		c.err = errors.UserMessage(perr)
		c.plan, c.store, c.layout, c.prediction = nil, nil, nil, nil
		c.touch()
		c.mu.Unlock()
		c.notify()
		c.logger.Error("plan failed", "generation", gen, "error", err)
		return c.Snapshot(), perr
	}

	c.plan = p
	c.store = content.SeedDefaults(p.Sections)
	c.layout = compose.Build(p, c.store, seed)
	c.prediction = nil
	c.state = StateSeeded
	c.touch()
	c.mu.Unlock()
	c.notify()
	c.logger.Info("plan ready", "mode", p.LayoutMode, "sections", len(p.Sections))

	bg := context.WithoutCancel(ctx)
	req := planner.CopyRequest{Prompt: prompt, LayoutMode: string(p.LayoutMode), Sections: p.Types()}

	c.mu.Lock()
	c.copies++
	c.predicting = true
	c.state = StateHydrating
	c.touch()
	c.mu.Unlock()
	c.notify()

	c.wg.Add(2)
	go c.hydrate(bg, gen, req)
	go c.predict(bg, gen, prompt)

	return c.Snapshot(), nil
}

// Shuffle advances the seed and regenerates the last prompt.
func (c *Controller) Shuffle(ctx context.Context) (Snapshot, error) {
	c.mu.Lock()
	prompt := c.prompt
	if prompt == "" {
		c.mu.Unlock()
		return c.Snapshot(), errors.New(errors.ErrCodeInvalidInput, "nothing to shuffle: no prompt yet")
	}
	c.seed++
	c.mu.Unlock()
	return c.Generate(ctx, prompt)
}

// RegenerateCopy fetches copy again for the current generation. The result
// merges over the current content like the first hydration did.
func (c *Controller) RegenerateCopy(ctx context.Context) (Snapshot, error) {
	c.mu.Lock()
	if c.plan == nil || c.state == StatePlanning {
		c.mu.Unlock()
		return c.Snapshot(), errors.New(errors.ErrCodeInvalidInput, "no plan to write copy for")
	}
	gen := c.gen
	req := planner.CopyRequest{Prompt: c.prompt, LayoutMode: string(c.plan.LayoutMode), Sections: c.plan.Types()}
	c.copies++
	c.state = StateHydrating
	c.touch()
	c.mu.Unlock()
	c.notify()

	c.wg.Add(1)
	go c.hydrate(context.WithoutCancel(ctx), gen, req)
	return c.Snapshot(), nil
}

// Edit writes value at path in the content of section type typ.
func (c *Controller) Edit(typ string, path content.Path, value any) (Snapshot, error) {
	c.mu.Lock()
	if c.plan == nil {
		c.mu.Unlock()
		return c.Snapshot(), errors.New(errors.ErrCodeInvalidEdit, "no plan to edit")
	}
	next, err := content.ApplyEdit(c.store, typ, path, value)
	if err != nil {
		c.mu.Unlock()
		return c.Snapshot(), err
	}
	c.store = next
	c.layout = compose.Build(c.plan, c.store, c.layout.Seed)
	c.touch()
	c.mu.Unlock()
	c.notify()
	return c.Snapshot(), nil
}

// Wait blocks until background fetches started so far have settled or ctx
// is done.
func (c *Controller) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot returns the current session view.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

// Layout returns the current composed layout, or nil without a plan.
func (c *Controller) Layout() *compose.Layout {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.layout
}

func (c *Controller) snapshot() Snapshot {
	return Snapshot{
		ID:         c.id,
		Prompt:     c.prompt,
		Seed:       c.seed,
		Generation: c.gen,
		State:      c.state,
		Pending:    Pending{Copy: c.copies > 0, Prediction: c.predicting},
		Plan:       c.plan,
		Content:    c.store,
		Layout:     c.layout,
		Prediction: c.prediction,
		Error:      c.err,
		UpdatedAt:  c.updatedAt,
	}
}

func (c *Controller) hydrate(ctx context.Context, gen uint64, req planner.CopyRequest) {
	defer c.wg.Done()
	start := time.Now()
	patch, err := c.svc.GenerateCopy(ctx, req)
	observability.Session().OnHydrate(ctx, gen, len(patch), time.Since(start), err)

	c.mu.Lock()
	if gen != c.gen {
		current := c.gen
		c.mu.Unlock()
		observability.Session().OnStale(ctx, observability.FetchCopy, gen, current)
		c.logger.Debug("discarding stale copy", "generation", gen, "current", current)
		return
	}
	c.copies--
	switch {
	case err != nil:
		c.logger.Warn("copy generation failed, keeping defaults", "error", err)
	case patch.Failed():
		c.logger.Warn("copy generation returned an error", "error", patch.ErrorMessage())
	case !patch.Applicable():
		c.logger.Debug("copy generation returned nothing")
	default:
		c.store = content.MergeHydration(c.store, patch)
		c.layout = compose.Build(c.plan, c.store, c.layout.Seed)
		c.logger.Info("copy applied", "sections", len(patch))
	}
	c.settle()
	c.mu.Unlock()
	c.notify()
}

func (c *Controller) predict(ctx context.Context, gen uint64, prompt string) {
	defer c.wg.Done()
	start := time.Now()
	p, err := c.svc.Predict(ctx, prompt)
	observability.Session().OnPredict(ctx, gen, time.Since(start), err)

	c.mu.Lock()
	if gen != c.gen {
		current := c.gen
		c.mu.Unlock()
		observability.Session().OnStale(ctx, observability.FetchPrediction, gen, current)
		c.logger.Debug("discarding stale prediction", "generation", gen, "current", current)
		return
	}
	c.predicting = false
	if err != nil {
		c.logger.Warn("prediction failed", "error", err)
	} else {
		c.prediction = p
	}
	c.settle()
	c.mu.Unlock()
	c.notify()
}

// settle moves a hydrating session to ready once nothing is in flight.
// Callers hold c.mu.
func (c *Controller) settle() {
	if c.state == StateHydrating && c.copies == 0 && !c.predicting {
		c.state = StateReady
	}
	c.touch()
}

func (c *Controller) touch() { c.updatedAt = time.Now() }

func (c *Controller) notify() {
	if c.onChange == nil {
		return
	}
	c.onChange(c.Snapshot())
}

// =============================================================================
// Persistence
// =============================================================================

// Record returns the persisted form of the session.
func (c *Controller) Record() *Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return &Record{
		ID:         c.id,
		Prompt:     c.prompt,
		Seed:       c.seed,
		Generation: c.gen,
		State:      c.state,
		Plan:       c.plan,
		Content:    c.store.Clone(),
		Prediction: c.prediction,
		Error:      c.err,
		CreatedAt:  c.createdAt,
		UpdatedAt:  c.updatedAt,
		ExpiresAt:  c.updatedAt.Add(c.ttl),
	}
}

// Restore rebuilds a controller from a record. Fetches that were in flight
// when the record was written are not resumed: a session with a plan comes
// back ready, one without comes back idle unless it had errored.
func Restore(svc planner.Service, rec *Record, opts ...Option) *Controller {
	c := NewController(svc, append([]Option{WithID(rec.ID), WithSeed(rec.Seed)}, opts...)...)
	c.prompt = rec.Prompt
	c.gen = rec.Generation
	c.plan = rec.Plan
	c.prediction = rec.Prediction
	c.err = rec.Error
	if !rec.CreatedAt.IsZero() {
		c.createdAt = rec.CreatedAt
	}
	if !rec.UpdatedAt.IsZero() {
		c.updatedAt = rec.UpdatedAt
	}
	switch {
	case rec.Plan != nil:
		c.store = rec.Content
		if c.store == nil {
			c.store = content.SeedDefaults(rec.Plan.Sections)
		}
		c.layout = compose.Build(rec.Plan, c.store, c.seed)
		c.state = StateReady
	case rec.State == StateErrored:
		c.state = StateErrored
	default:
		c.state = StateIdle
	}
	return c
}
