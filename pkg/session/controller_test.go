package session

import (
	"context"
	stderrors "errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pagesmith/pkg/core/content"
	"github.com/matzehuels/pagesmith/pkg/core/plan"
	"github.com/matzehuels/pagesmith/pkg/errors"
	"github.com/matzehuels/pagesmith/pkg/observability"
	"github.com/matzehuels/pagesmith/pkg/planner"
)

type copyCall struct {
	req   planner.CopyRequest
	reply chan content.Patch
}

type fakeService struct {
	mu    sync.Mutex
	seeds []int

	plan    *plan.Plan
	planErr error

	copyCalls chan copyCall
	copyPatch content.Patch
	copyErr   error

	prediction *planner.Prediction
	predictErr error
}

func (f *fakeService) Plan(_ context.Context, _ string, seed int) (*plan.Plan, error) {
	f.mu.Lock()
	f.seeds = append(f.seeds, seed)
	p, err := f.plan, f.planErr
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	cp := *p
	return &cp, nil
}

func (f *fakeService) GenerateCopy(_ context.Context, req planner.CopyRequest) (content.Patch, error) {
	if f.copyCalls != nil {
		call := copyCall{req: req, reply: make(chan content.Patch)}
		f.copyCalls <- call
		return <-call.reply, nil
	}
	return f.copyPatch, f.copyErr
}

func (f *fakeService) Predict(context.Context, string) (*planner.Prediction, error) {
	return f.prediction, f.predictErr
}

func (f *fakeService) setPlanErr(err error) {
	f.mu.Lock()
	f.planErr = err
	f.mu.Unlock()
}

func landingPlan() *plan.Plan {
	return &plan.Plan{
		LayoutMode: plan.Landing,
		Sections: []plan.Section{
			{Type: "hero", Variant: "centered"},
			{Type: "kpiTiles", Variant: "grid"},
			{Type: "footer", Variant: "simple"},
		},
	}
}

func quiet() Option {
	return WithLogger(log.New(io.Discard))
}

func waitSettled(t *testing.T, c *Controller) Snapshot {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.Wait(ctx); err != nil {
		t.Fatalf("Wait() error: %v", err)
	}
	return c.Snapshot()
}

func heading(s Snapshot) any {
	hero, _ := s.Content["hero"].(map[string]any)
	return hero["heading"]
}

func TestControllerGenerate(t *testing.T) {
	f := &fakeService{
		plan:       landingPlan(),
		copyPatch:  content.Patch{"hero": map[string]any{"heading": "Roast at home"}},
		prediction: &planner.Prediction{Category: planner.Category{Label: "ecommerce", Confidence: 0.7}},
	}
	c := NewController(f, quiet())
	if c.Snapshot().State != StateIdle {
		t.Fatalf("initial state = %s", c.Snapshot().State)
	}

	snap, err := c.Generate(context.Background(), "coffee subscription")
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if snap.Plan == nil || snap.Layout == nil {
		t.Fatal("Generate() returned without a plan")
	}
	if snap.Layout.Key != "seed-42" {
		t.Errorf("layout key = %q", snap.Layout.Key)
	}
	if f.seeds[0] != 42 {
		t.Errorf("plan requested with seed %d, want 42", f.seeds[0])
	}

	snap = waitSettled(t, c)
	if snap.State != StateReady {
		t.Errorf("state = %s, want ready", snap.State)
	}
	if snap.Pending.Copy || snap.Pending.Prediction {
		t.Errorf("pending = %+v", snap.Pending)
	}
	if got := heading(snap); got != "Roast at home" {
		t.Errorf("heading = %v", got)
	}
	hero := snap.Content["hero"].(map[string]any)
	if hero["cta"] != "Get Started" {
		t.Errorf("seeded cta lost: %v", hero)
	}
	if snap.Prediction == nil || snap.Prediction.Category.Label != "ecommerce" {
		t.Errorf("prediction = %+v", snap.Prediction)
	}
	if _, ok := snap.Content["footer"]; !ok {
		t.Error("every planned type should have content")
	}
}

func TestControllerInvalidPrompt(t *testing.T) {
	c := NewController(&fakeService{plan: landingPlan()}, quiet())
	_, err := c.Generate(context.Background(), "   ")
	if !errors.Is(err, errors.ErrCodeInvalidPrompt) {
		t.Errorf("Generate(blank) error = %v", err)
	}
	if c.Snapshot().State != StateIdle {
		t.Errorf("state = %s, want idle", c.Snapshot().State)
	}
}

func TestControllerPlanFailure(t *testing.T) {
	f := &fakeService{plan: landingPlan(), copyPatch: content.Patch{}}
	c := NewController(f, quiet())
	ctx := context.Background()

	if _, err := c.Generate(ctx, "first"); err != nil {
		t.Fatal(err)
	}
	waitSettled(t, c)

	f.setPlanErr(planner.ErrNetwork)
	snap, err := c.Generate(ctx, "second")
	if !errors.Is(err, errors.ErrCodePlanFailed) {
		t.Fatalf("Generate() error = %v, want PLAN_FAILED", err)
	}
	if !stderrors.Is(err, planner.ErrNetwork) {
		t.Errorf("cause not preserved: %v", err)
	}
	if snap.State != StateErrored || snap.Plan != nil || snap.Content != nil || snap.Error == "" {
		t.Errorf("snapshot = %+v", snap)
	}

	f.setPlanErr(nil)
	snap, err = c.Generate(ctx, "second")
	if err != nil {
		t.Fatalf("retry error: %v", err)
	}
	if snap.Error != "" || snap.Plan == nil {
		t.Errorf("retry snapshot = %+v", snap)
	}
	waitSettled(t, c)
}

func TestControllerHydrationFailureKeepsDefaults(t *testing.T) {
	tests := []struct {
		name  string
		patch content.Patch
		err   error
	}{
		{"transport error", nil, planner.ErrNetwork},
		{"error marker", content.Patch{"error": "quota", "hero": map[string]any{"heading": "X"}}, nil},
		{"empty patch", content.Patch{}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeService{plan: landingPlan(), copyPatch: tt.patch, copyErr: tt.err, predictErr: planner.ErrNetwork}
			c := NewController(f, quiet())
			if _, err := c.Generate(context.Background(), "p"); err != nil {
				t.Fatal(err)
			}
			snap := waitSettled(t, c)
			if snap.State != StateReady {
				t.Errorf("state = %s, want ready", snap.State)
			}
			if got := heading(snap); got != "Your AI Website" {
				t.Errorf("heading = %v, want seeded default", got)
			}
			if snap.Prediction != nil {
				t.Errorf("failed prediction should be omitted, got %+v", snap.Prediction)
			}
		})
	}
}

type staleRecorder struct {
	observability.NoopSessionHooks
	mu    sync.Mutex
	stale []string
}

func (r *staleRecorder) OnStale(_ context.Context, fetch string, _, _ uint64) {
	r.mu.Lock()
	r.stale = append(r.stale, fetch)
	r.mu.Unlock()
}

func TestControllerStaleCopyDiscarded(t *testing.T) {
	rec := &staleRecorder{}
	observability.SetSessionHooks(rec)
	defer observability.Reset()

	calls := make(chan copyCall, 4)
	f := &fakeService{plan: landingPlan(), copyCalls: calls}
	c := NewController(f, quiet())
	ctx := context.Background()

	if _, err := c.Generate(ctx, "p"); err != nil {
		t.Fatal(err)
	}
	first := <-calls
	if _, err := c.Shuffle(ctx); err != nil {
		t.Fatal(err)
	}
	second := <-calls

	second.reply <- content.Patch{"hero": map[string]any{"heading": "new"}}
	first.reply <- content.Patch{"hero": map[string]any{"heading": "old"}}
	snap := waitSettled(t, c)

	if got := heading(snap); got != "new" {
		t.Errorf("heading = %v, want new (stale response must not apply)", got)
	}
	if snap.Seed != 43 || snap.Layout.Key != "seed-43" {
		t.Errorf("seed = %d key = %s", snap.Seed, snap.Layout.Key)
	}
	if snap.State != StateReady {
		t.Errorf("state = %s, want ready", snap.State)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	copies := 0
	for _, fetch := range rec.stale {
		if fetch == observability.FetchCopy {
			copies++
		}
	}
	if copies != 1 {
		t.Errorf("stale events = %v, want one copy discard", rec.stale)
	}
}

func TestControllerEditSurvivesHydration(t *testing.T) {
	calls := make(chan copyCall, 1)
	f := &fakeService{plan: landingPlan(), copyCalls: calls}
	c := NewController(f, quiet())
	if _, err := c.Generate(context.Background(), "p"); err != nil {
		t.Fatal(err)
	}
	call := <-calls

	if _, err := c.Edit("hero", content.Field("subheading"), "Mine"); err != nil {
		t.Fatalf("Edit() error: %v", err)
	}
	if _, err := c.Edit("kpiTiles", content.Item(1, "value"), "+99%"); err != nil {
		t.Fatalf("Edit() error: %v", err)
	}
	call.reply <- content.Patch{"hero": map[string]any{"heading": "Generated"}}
	snap := waitSettled(t, c)

	hero := snap.Content["hero"].(map[string]any)
	if hero["heading"] != "Generated" || hero["subheading"] != "Mine" {
		t.Errorf("hero = %v", hero)
	}
	tiles := snap.Content["kpiTiles"].([]any)
	if tiles[1].(map[string]any)["value"] != "+99%" {
		t.Errorf("tiles = %v", tiles)
	}
}

func TestControllerEditErrors(t *testing.T) {
	c := NewController(&fakeService{plan: landingPlan(), copyPatch: content.Patch{}}, quiet())
	if _, err := c.Edit("hero", content.Field("heading"), "x"); !errors.Is(err, errors.ErrCodeInvalidEdit) {
		t.Errorf("Edit() without plan = %v", err)
	}
	if _, err := c.Generate(context.Background(), "p"); err != nil {
		t.Fatal(err)
	}
	waitSettled(t, c)
	before := c.Snapshot().Content
	if _, err := c.Edit("hero", content.Item(0, "x"), "y"); !errors.Is(err, errors.ErrCodeInvalidEdit) {
		t.Errorf("Edit() shape mismatch = %v", err)
	}
	if heading(c.Snapshot()) != before["hero"].(map[string]any)["heading"] {
		t.Error("failed edit changed the store")
	}
}

func TestControllerShuffleWithoutPrompt(t *testing.T) {
	c := NewController(&fakeService{plan: landingPlan()}, quiet())
	if _, err := c.Shuffle(context.Background()); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Shuffle() error = %v", err)
	}
	if c.Snapshot().Seed != 42 {
		t.Error("failed shuffle should not advance the seed")
	}
}

func TestControllerRegenerateCopy(t *testing.T) {
	f := &fakeService{plan: landingPlan(), copyPatch: content.Patch{"hero": map[string]any{"heading": "one"}}}
	c := NewController(f, quiet())
	ctx := context.Background()

	if _, err := c.RegenerateCopy(ctx); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("RegenerateCopy() without plan = %v", err)
	}
	if _, err := c.Generate(ctx, "p"); err != nil {
		t.Fatal(err)
	}
	waitSettled(t, c)

	f.copyPatch = content.Patch{"hero": map[string]any{"heading": "two"}}
	if _, err := c.RegenerateCopy(ctx); err != nil {
		t.Fatalf("RegenerateCopy() error: %v", err)
	}
	snap := waitSettled(t, c)
	if heading(snap) != "two" || snap.State != StateReady {
		t.Errorf("after regenerate: heading %v, state %s", heading(snap), snap.State)
	}
	if snap.Generation != 1 {
		t.Errorf("regenerate should not start a new generation, got %d", snap.Generation)
	}
}

func TestControllerOnChange(t *testing.T) {
	var mu sync.Mutex
	var states []State
	f := &fakeService{plan: landingPlan(), copyPatch: content.Patch{}}
	c := NewController(f, quiet(), WithOnChange(func(s Snapshot) {
		mu.Lock()
		states = append(states, s.State)
		mu.Unlock()
	}))
	if _, err := c.Generate(context.Background(), "p"); err != nil {
		t.Fatal(err)
	}
	waitSettled(t, c)

	mu.Lock()
	defer mu.Unlock()
	if len(states) < 4 {
		t.Fatalf("states = %v", states)
	}
	if states[0] != StatePlanning || states[len(states)-1] != StateReady {
		t.Errorf("states = %v", states)
	}
}

func TestRecordRestore(t *testing.T) {
	f := &fakeService{
		plan:       landingPlan(),
		copyPatch:  content.Patch{"hero": map[string]any{"heading": "Saved"}},
		prediction: &planner.Prediction{Complexity: planner.Complexity{Label: "low"}},
	}
	c := NewController(f, quiet(), WithSeed(7))
	if _, err := c.Generate(context.Background(), "p"); err != nil {
		t.Fatal(err)
	}
	waitSettled(t, c)

	rec := c.Record()
	if rec.ID != c.ID() || rec.Seed != 7 || rec.ExpiresAt.IsZero() {
		t.Errorf("record = %+v", rec)
	}

	store := NewMemoryStore()
	ctx := context.Background()
	if err := store.Set(ctx, rec); err != nil {
		t.Fatal(err)
	}
	got, err := store.Get(ctx, rec.ID)
	if err != nil {
		t.Fatal(err)
	}

	r := Restore(f, got, quiet())
	snap := r.Snapshot()
	if snap.ID != c.ID() || snap.State != StateReady || snap.Seed != 7 {
		t.Errorf("restored = %+v", snap)
	}
	if heading(snap) != "Saved" || snap.Layout == nil || snap.Layout.Key != "seed-7" {
		t.Errorf("restored content/layout = %v / %+v", snap.Content, snap.Layout)
	}
	if snap.Prediction == nil || snap.Prediction.Complexity.Label != "low" {
		t.Errorf("restored prediction = %+v", snap.Prediction)
	}

	if _, err := r.Edit("hero", content.Field("cta"), "Buy"); err != nil {
		t.Errorf("restored session should accept edits: %v", err)
	}
}

func TestRestoreWithoutPlan(t *testing.T) {
	tests := []struct {
		state State
		want  State
	}{
		{StatePlanning, StateIdle},
		{StateIdle, StateIdle},
		{StateErrored, StateErrored},
	}
	for _, tt := range tests {
		c := Restore(&fakeService{}, &Record{ID: "x", State: tt.state}, quiet())
		if got := c.Snapshot().State; got != tt.want {
			t.Errorf("Restore(%s) state = %s, want %s", tt.state, got, tt.want)
		}
	}
}
