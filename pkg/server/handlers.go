package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/pagesmith/pkg/buildinfo"
	"github.com/matzehuels/pagesmith/pkg/core/content"
	"github.com/matzehuels/pagesmith/pkg/errors"
	"github.com/matzehuels/pagesmith/pkg/pipeline"
	"github.com/matzehuels/pagesmith/pkg/render"
	"github.com/matzehuels/pagesmith/pkg/session"
)

type createRequest struct {
	Prompt string `json:"prompt"`
	Seed   int    `json:"seed,omitempty"`
}

type editRequest struct {
	Type  string `json:"type"`
	Field string `json:"field"`
	Index *int   `json:"index,omitempty"`
	Value any    `json:"value"`
}

type errorResponse struct {
	Error     string            `json:"error"`
	Code      errors.Code       `json:"code,omitempty"`
	SessionID string            `json:"session_id,omitempty"`
	Session   *session.Snapshot `json:"session,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		Status string `json:"status"`
		buildinfo.Info
	}{"ok", buildinfo.Get()})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if !decode(w, r, &req) {
		return
	}
	if err := errors.ValidatePrompt(req.Prompt); err != nil {
		writeError(w, err, nil)
		return
	}

	c := s.create(req.Seed)
	ctx, cancel := context.WithTimeout(r.Context(), DefaultPlanWait)
	defer cancel()
	snap, err := c.Generate(ctx, req.Prompt)
	if err != nil {
		writeError(w, err, &snap)
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	c, ok := s.controller(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, c.Snapshot())
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := s.controller(w, r); !ok {
		return
	}
	if err := s.remove(r.Context(), id); err != nil {
		writeError(w, err, nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleShuffle(w http.ResponseWriter, r *http.Request) {
	c, ok := s.controller(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), DefaultPlanWait)
	defer cancel()
	snap, err := c.Shuffle(ctx)
	if err != nil {
		writeError(w, err, &snap)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleCopy(w http.ResponseWriter, r *http.Request) {
	c, ok := s.controller(w, r)
	if !ok {
		return
	}
	snap, err := c.RegenerateCopy(r.Context())
	if err != nil {
		writeError(w, err, &snap)
		return
	}
	writeJSON(w, http.StatusAccepted, snap)
}

func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request) {
	c, ok := s.controller(w, r)
	if !ok {
		return
	}
	var req editRequest
	if !decode(w, r, &req) {
		return
	}
	path := content.Field(req.Field)
	if req.Index != nil {
		path = content.Item(*req.Index, req.Field)
	}
	snap, err := c.Edit(req.Type, path, req.Value)
	if err != nil {
		writeError(w, err, &snap)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	c, ok := s.controller(w, r)
	if !ok {
		return
	}
	f, err := render.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		writeError(w, err, nil)
		return
	}
	snap := c.Snapshot()
	if snap.Layout == nil {
		writeError(w, errors.New(errors.ErrCodeInvalidPlan, "session has no layout yet"), &snap)
		return
	}

	q := r.URL.Query()
	opts := pipeline.Options{
		Formats:    []render.Format{f},
		Standalone: q.Get("standalone") != "false",
		Title:      q.Get("title"),
		Detailed:   q.Get("detailed") == "true",
		Prediction: snap.Prediction,
	}
	if width, err := strconv.Atoi(q.Get("width")); err == nil {
		opts.Width = width
	}
	artifacts, hit, err := s.runner.RenderWithCacheInfo(r.Context(), snap.Layout, opts)
	if err != nil {
		writeError(w, err, nil)
		return
	}
	w.Header().Set("Content-Type", f.ContentType())
	w.Header().Set("X-Cache", cacheHeader(hit))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(artifacts[f])
}

// controller resolves the {id} route parameter, writing a 404 on failure.
func (s *Server) controller(w http.ResponseWriter, r *http.Request) (*session.Controller, bool) {
	c, err := s.lookup(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err, nil)
		return nil, false
	}
	return c, true
}

// =============================================================================
// Helpers
// =============================================================================

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid request body"), nil)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error, snap *session.Snapshot) {
	resp := errorResponse{
		Error: errors.UserMessage(err),
		Code:  errors.GetCode(err),
	}
	if snap != nil && snap.ID != "" {
		resp.SessionID = snap.ID
		resp.Session = snap
	}
	writeJSON(w, statusFor(err), resp)
}

// statusFor maps an error to its HTTP status.
func statusFor(err error) int {
	if stderrors.Is(err, session.ErrSuperseded) {
		return http.StatusConflict
	}
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidPrompt, errors.ErrCodeInvalidFormat,
		errors.ErrCodeInvalidSection, errors.ErrCodeInvalidPath:
		return http.StatusBadRequest
	case errors.ErrCodeInvalidEdit:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeInvalidPlan:
		return http.StatusConflict
	case errors.ErrCodeNotFound, errors.ErrCodeSessionNotFound, errors.ErrCodeFileNotFound:
		return http.StatusNotFound
	case errors.ErrCodePlanFailed, errors.ErrCodeCopyFailed, errors.ErrCodePredictFailed, errors.ErrCodeNetwork:
		return http.StatusBadGateway
	case errors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case errors.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func cacheHeader(hit bool) string {
	if hit {
		return "HIT"
	}
	return "MISS"
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}
