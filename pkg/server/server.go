// Package server exposes generation sessions over an HTTP JSON API.
//
// Routes:
//
//	POST   /api/sessions                      start a session {prompt, seed?}
//	GET    /api/sessions/{id}                 current snapshot
//	DELETE /api/sessions/{id}                 drop a session
//	POST   /api/sessions/{id}/shuffle         next variation of the same prompt
//	POST   /api/sessions/{id}/copy            regenerate copy (202)
//	PATCH  /api/sessions/{id}/content         edit one content field
//	GET    /api/sessions/{id}/render/{format} render the current layout
//	GET    /healthz
//
// Live sessions are held as controllers in memory and written through a
// [session.Store] after every change, so a restarted or sibling instance
// can restore them on first access.
package server

import (
	"context"
	stderrors "errors"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/pagesmith/pkg/errors"
	"github.com/matzehuels/pagesmith/pkg/pipeline"
	"github.com/matzehuels/pagesmith/pkg/planner"
	"github.com/matzehuels/pagesmith/pkg/session"
)

// Server defaults.
const (
	DefaultAddr       = ":8080"
	DefaultPlanWait   = 60 * time.Second
	maxRequestBytes   = 1 << 20
	cleanupInterval   = time.Hour
	persistTimeout    = 5 * time.Second
	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 10 * time.Second
)

// Server serves the session API.
type Server struct {
	svc    planner.Service
	store  session.Store
	runner *pipeline.Runner
	logger *log.Logger
	ttl    time.Duration

	mu   sync.Mutex
	live map[string]*session.Controller
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithRunner sets the render pipeline runner.
func WithRunner(r *pipeline.Runner) Option {
	return func(s *Server) { s.runner = r }
}

// WithTTL sets the session record lifetime.
func WithTTL(d time.Duration) Option {
	return func(s *Server) { s.ttl = d }
}

// New creates a server backed by svc, persisting to store. A nil store
// keeps sessions in memory only.
func New(svc planner.Service, store session.Store, opts ...Option) *Server {
	s := &Server{
		svc:   svc,
		store: store,
		ttl:   session.DefaultTTL,
		live:  make(map[string]*session.Controller),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	if s.store == nil {
		s.store = session.NewMemoryStore()
	}
	if s.runner == nil {
		s.runner = pipeline.NewRunner(nil, nil, s.logger)
	}
	return s
}

// Routes returns the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api/sessions", func(r chi.Router) {
		r.Post("/", s.handleCreate)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGet)
			r.Delete("/", s.handleDelete)
			r.Post("/shuffle", s.handleShuffle)
			r.Post("/copy", s.handleCopy)
			r.Patch("/content", s.handleEdit)
			r.Get("/render/{format}", s.handleRender)
		})
	})
	return r
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully and waits for in-flight session fetches.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go s.cleanupLoop(ctx)

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return s.Drain(shutdownCtx)
}

// Drain waits for background fetches of every live session and persists
// the settled state.
func (s *Server) Drain(ctx context.Context) error {
	for _, c := range s.controllers() {
		if err := c.Wait(ctx); err != nil {
			return err
		}
		s.persist(c)
	}
	return nil
}

func (s *Server) cleanupLoop(ctx context.Context) {
	t := time.NewTicker(cleanupInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := s.store.Cleanup(ctx); err != nil {
				s.logger.Warn("session cleanup failed", "error", err)
			}
		}
	}
}

// =============================================================================
// Live sessions
// =============================================================================

func (s *Server) options(c **session.Controller) []session.Option {
	return []session.Option{
		session.WithLogger(s.logger),
		session.WithTTL(s.ttl),
		session.WithOnChange(func(session.Snapshot) { s.persist(*c) }),
	}
}

func (s *Server) create(seed int) *session.Controller {
	var c *session.Controller
	opts := s.options(&c)
	if seed != 0 {
		opts = append(opts, session.WithSeed(seed))
	}
	c = session.NewController(s.svc, opts...)
	s.mu.Lock()
	s.live[c.ID()] = c
	s.mu.Unlock()
	return c
}

// lookup returns the live controller for id, restoring it from the store
// when this instance has not seen it.
func (s *Server) lookup(ctx context.Context, id string) (*session.Controller, error) {
	s.mu.Lock()
	c, ok := s.live[id]
	s.mu.Unlock()
	if ok {
		return c, nil
	}

	rec, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, errors.ErrCodeInvalidPath) || stderrors.Is(err, session.ErrNotFound) {
			return nil, errors.New(errors.ErrCodeSessionNotFound, "session %q not found", id)
		}
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "load session")
	}

	var restored *session.Controller
	restored = session.Restore(s.svc, rec, s.options(&restored)...)

	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.live[id]; ok {
		return c, nil
	}
	s.live[id] = restored
	s.logger.Debug("restored session", "id", id, "state", rec.State)
	return restored, nil
}

func (s *Server) remove(ctx context.Context, id string) error {
	s.mu.Lock()
	delete(s.live, id)
	s.mu.Unlock()
	return s.store.Delete(ctx, id)
}

func (s *Server) controllers() []*session.Controller {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*session.Controller, 0, len(s.live))
	for _, c := range s.live {
		out = append(out, c)
	}
	return out
}

func (s *Server) persist(c *session.Controller) {
	if c == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := s.store.Set(ctx, c.Record()); err != nil {
		s.logger.Warn("persist session failed", "id", c.ID(), "error", err)
	}
}
