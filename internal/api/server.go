// Package api exposes the content workflows, the stop switch and dispatcher
// state over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vietddude/scriptforge/internal/content"
	"github.com/vietddude/scriptforge/internal/core/domain"
	"github.com/vietddude/scriptforge/internal/engine/pool"
	"github.com/vietddude/scriptforge/internal/engine/routing"
	"github.com/vietddude/scriptforge/internal/engine/usage"
	"github.com/vietddude/scriptforge/internal/infra/storage"
)

// StatusClientClosedRequest is returned when an operation was stopped.
const StatusClientClosedRequest = 499

// Health statuses.
const (
	StatusHealthy  = "healthy"
	StatusDegraded = "degraded"
)

// ContentService is the subset of content.Service used by the API.
type ContentService interface {
	GenerateFullContent(ctx context.Context, inputs domain.ContentInputs, progress content.ProgressFunc) (domain.ContentOutputs, error)
	ProcessScript(ctx context.Context, script, style string, progress content.ProgressFunc) content.SceneRun
	ProcessSegments(ctx context.Context, segments []domain.Segment, style string, progress content.ProgressFunc) content.SceneRun
	RetryFailed(ctx context.Context, segments []domain.Segment, style string, progress content.ProgressFunc) content.SceneRun
	DetectLanguage(ctx context.Context, text string) (string, error)
	DetectBestProfile(ctx context.Context, topic string) (string, error)
	GenerateMagicTitle(ctx context.Context, topic, language string) (string, error)
	SuggestArtStyle(ctx context.Context, text string) (string, error)
	AddTashkeel(ctx context.Context, text string, progress content.ProgressFunc) (string, error)
	GenerateBatchScenePrompts(ctx context.Context, texts []string, style string, progress content.ProgressFunc) ([]domain.ScenePrompt, error)
}

// HealthCheck probes one dependency.
type HealthCheck func(ctx context.Context) error

// Deps are the collaborators served by the API.
type Deps struct {
	Content  ContentService
	Stop     *routing.StopSwitch
	Sessions storage.SessionRepository
	Usage    *usage.Tracker
	Settings *domain.Settings
	Checks   map[string]HealthCheck
	Log      *slog.Logger
}

// Server provides the HTTP endpoints.
type Server struct {
	deps   Deps
	server *http.Server
	mux    *http.ServeMux
}

// NewServer creates a new API server.
func NewServer(deps Deps, port int) *Server {
	if deps.Log == nil {
		deps.Log = slog.Default()
	}
	if deps.Stop == nil {
		deps.Stop = routing.NewStopSwitch()
	}

	mux := http.NewServeMux()
	s := &Server{
		deps: deps,
		mux:  mux,
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("POST /v1/content", s.handleContent)
	mux.HandleFunc("POST /v1/scenes", s.handleScenes)
	mux.HandleFunc("GET /v1/profiles", s.handleProfiles)
	mux.HandleFunc("POST /v1/profiles/detect", s.handleDetectProfile)
	mux.HandleFunc("POST /v1/language", s.handleDetectLanguage)
	mux.HandleFunc("POST /v1/title", s.handleMagicTitle)
	mux.HandleFunc("POST /v1/art-style", s.handleArtStyle)
	mux.HandleFunc("POST /v1/tashkeel", s.handleTashkeel)
	mux.HandleFunc("POST /v1/scene-prompts", s.handleScenePrompts)
	mux.HandleFunc("POST /v1/stop", s.handleStop)
	mux.HandleFunc("GET /v1/usage", s.handleUsage)
	mux.HandleFunc("GET /v1/pools", s.handlePools)
	mux.HandleFunc("GET /v1/sessions", s.handleListSessions)
	mux.HandleFunc("GET /v1/sessions/{id}", s.handleGetSession)
	mux.HandleFunc("DELETE /v1/sessions/{id}", s.handleDeleteSession)

	return s
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	err := s.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// progressLog collects progress messages for the response body.
type progressLog struct {
	mu      sync.Mutex
	entries []string
	log     *slog.Logger
}

func (p *progressLog) add(msg string) {
	p.mu.Lock()
	p.entries = append(p.entries, msg)
	p.mu.Unlock()
	p.log.Debug("Progress", "message", msg)
}

func (p *progressLog) list() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.entries...)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := StatusHealthy
	checks := make(map[string]string, len(s.deps.Checks))
	for name, check := range s.deps.Checks {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		err := check(ctx)
		cancel()
		if err != nil {
			status = StatusDegraded
			checks[name] = err.Error()
			continue
		}
		checks[name] = "ok"
	}

	code := http.StatusOK
	if status != StatusHealthy {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]any{
		"status":            status,
		"checks":            checks,
		"active_operations": s.deps.Stop.Active(),
	})
}

// ContentRequest is the body of POST /v1/content.
type ContentRequest struct {
	domain.ContentInputs
	// Profile overlays a smart profile onto the inputs.
	Profile string `json:"profile,omitempty"`
}

// ContentResponse is the body returned by POST /v1/content.
type ContentResponse struct {
	SessionID string                `json:"session_id,omitempty"`
	Outputs   domain.ContentOutputs `json:"outputs"`
	Log       []string              `json:"log"`
}

func (s *Server) handleContent(w http.ResponseWriter, r *http.Request) {
	var req ContentRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.InputValue) == "" {
		writeError(w, http.StatusBadRequest, errors.New("input_value is required"))
		return
	}
	inputs := req.ContentInputs
	if req.Profile != "" {
		var ok bool
		if inputs, ok = content.ApplyProfile(inputs, req.Profile); !ok {
			writeError(w, http.StatusBadRequest, fmt.Errorf("unknown profile %q", req.Profile))
			return
		}
	}

	ctx, done := s.deps.Stop.Begin(r.Context())
	defer done()

	progress := &progressLog{log: s.deps.Log}
	outputs, err := s.deps.Content.GenerateFullContent(ctx, inputs, progress.add)
	if err != nil {
		s.writeDispatchError(w, err, progress.list())
		return
	}

	resp := ContentResponse{Outputs: outputs, Log: progress.list()}
	if s.deps.Sessions != nil {
		session := content.NewSession(inputs, outputs)
		if err := s.deps.Sessions.Save(context.WithoutCancel(r.Context()), session); err != nil {
			s.deps.Log.Warn("Failed to save session", "error", err)
		} else {
			resp.SessionID = session.ID
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// ScenesRequest is the body of POST /v1/scenes. Either Script or Segments
// must be set.
type ScenesRequest struct {
	Script      string           `json:"script,omitempty"`
	Segments    []domain.Segment `json:"segments,omitempty"`
	Style       string           `json:"style"`
	RetryFailed bool             `json:"retry_failed,omitempty"`
}

// ScenesResponse is the body returned by POST /v1/scenes.
type ScenesResponse struct {
	content.SceneRun
	Log []string `json:"log"`
}

func (s *Server) handleScenes(w http.ResponseWriter, r *http.Request) {
	var req ScenesRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.Script) == "" && len(req.Segments) == 0 {
		writeError(w, http.StatusBadRequest, errors.New("script or segments is required"))
		return
	}
	style := req.Style
	if strings.TrimSpace(style) == "" {
		style = content.DefaultArtStyle
	}

	ctx, done := s.deps.Stop.Begin(r.Context())
	defer done()

	progress := &progressLog{log: s.deps.Log}
	var run content.SceneRun
	switch {
	case len(req.Segments) == 0:
		run = s.deps.Content.ProcessScript(ctx, req.Script, style, progress.add)
	case req.RetryFailed:
		run = s.deps.Content.RetryFailed(ctx, req.Segments, style, progress.add)
	default:
		run = s.deps.Content.ProcessSegments(ctx, req.Segments, style, progress.add)
	}

	writeJSON(w, http.StatusOK, ScenesResponse{SceneRun: run, Log: progress.list()})
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	n := s.deps.Stop.Stop()
	s.deps.Log.Info("Stop requested", "operations", n)
	writeJSON(w, http.StatusOK, map[string]int{"stopped": n})
}

func (s *Server) handleUsage(w http.ResponseWriter, r *http.Request) {
	if s.deps.Usage == nil {
		writeJSON(w, http.StatusOK, usage.Snapshot{})
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Usage.Snapshot())
}

// PoolsResponse describes the credential pools.
type PoolsResponse struct {
	ActivePool int                 `json:"active_pool"`
	PoolSize   int                 `json:"pool_size"`
	Pools      []pool.Info         `json:"pools"`
	Models     domain.ModelMapping `json:"models"`
}

func (s *Server) handlePools(w http.ResponseWriter, r *http.Request) {
	if s.deps.Settings == nil {
		writeJSON(w, http.StatusOK, PoolsResponse{PoolSize: pool.Size, Pools: []pool.Info{}})
		return
	}
	writeJSON(w, http.StatusOK, PoolsResponse{
		ActivePool: s.deps.Settings.ActivePool(),
		PoolSize:   pool.Size,
		Pools:      pool.Describe(s.deps.Settings.Credentials),
		Models:     s.deps.Settings.Models,
	})
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	if s.deps.Sessions == nil {
		writeJSON(w, http.StatusOK, []*domain.ContentSession{})
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid limit %q", v))
			return
		}
		limit = n
	}

	sessions, err := s.deps.Sessions.List(r.Context(), limit)
	if err != nil {
		s.deps.Log.Error("Failed to list sessions", "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	if s.deps.Sessions == nil {
		writeError(w, http.StatusNotFound, storage.ErrSessionNotFound)
		return
	}
	session, err := s.deps.Sessions.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if s.deps.Sessions == nil {
		writeError(w, http.StatusNotFound, storage.ErrSessionNotFound)
		return
	}
	if err := s.deps.Sessions.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeStorageError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeDispatchError maps dispatcher failure kinds to HTTP statuses.
func (s *Server) writeDispatchError(w http.ResponseWriter, err error, log []string) {
	var de *routing.DispatchError
	if !errors.As(err, &de) {
		s.deps.Log.Error("Request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error(), Log: log})
		return
	}

	code := http.StatusBadGateway
	switch de.Kind {
	case routing.KindCancelled:
		code = StatusClientClosedRequest
	case routing.KindExhausted:
		code = http.StatusServiceUnavailable
		if de.RetryAfter > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(de.RetryAfter.Seconds()))))
		}
	case routing.KindOverloaded:
		code = http.StatusServiceUnavailable
	case routing.KindQuotaExceeded:
		code = http.StatusTooManyRequests
	}
	writeJSON(w, code, errorBody{Error: err.Error(), Kind: de.Kind.String(), Log: log})
}

func writeStorageError(w http.ResponseWriter, err error) {
	if errors.Is(err, storage.ErrSessionNotFound) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeError(w, http.StatusInternalServerError, err)
}

type errorBody struct {
	Error string   `json:"error"`
	Kind  string   `json:"kind,omitempty"`
	Log   []string `json:"log,omitempty"`
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, errorBody{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

const maxBodyBytes = 4 << 20

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
