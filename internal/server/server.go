// Package server exposes the step runner over HTTP so that a remote CI
// controller can submit mozmill jobs to an agent.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"mozmill-ci/internal/core"
	"mozmill-ci/internal/logfields"
	"mozmill-ci/internal/metrics"
)

// Server is the agent HTTP server.
type Server struct {
	Addr string

	runner  *core.Runner
	metrics *metrics.PrometheusRecorder
	// baseWorkspace anchors relative job workspaces.
	baseWorkspace string
	logger        *slog.Logger

	router *chi.Mux
	server *http.Server

	mu        sync.Mutex
	builds    map[string]*core.BuildRecord
	order     []string // build IDs, oldest first
	maxBuilds int
}

const (
	// DefaultMaxBuilds is how many build records the agent keeps in memory.
	DefaultMaxBuilds = 256
	// maxJobBytes bounds the size of a submitted job document.
	maxJobBytes = 1 << 20
)

// Options configures New.
type Options struct {
	Addr          string
	Workspace     string
	Runner        *core.Runner
	Metrics       *metrics.PrometheusRecorder
	Logger        *slog.Logger
	ServerTimeout time.Duration
	// MaxBuilds caps retained build records; older ones are evicted.
	MaxBuilds int
}

// New creates an agent server. Runner and Metrics are required.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		Addr:          opts.Addr,
		runner:        opts.Runner,
		metrics:       opts.Metrics,
		baseWorkspace: opts.Workspace,
		logger:        logger,
		router:        chi.NewRouter(),
		builds:        make(map[string]*core.BuildRecord),
		maxBuilds:     opts.MaxBuilds,
	}
	if s.maxBuilds <= 0 {
		s.maxBuilds = DefaultMaxBuilds
	}
	s.setupRoutes()

	s.server = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      opts.ServerTimeout,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)

	s.router.Get("/health", s.handleHealth)

	// Step descriptor
	s.router.Get("/descriptor", s.handleDescriptor)
	s.router.Get("/descriptor/check/{field}", s.handleCheck)

	// Jobs and builds
	s.router.Post("/jobs", s.handleSubmitJob)
	s.router.Get("/builds/{id}", s.handleGetBuild)
	s.router.Get("/builds/{id}/log", s.handleGetBuildLog)

	s.router.Get("/history/verify", s.handleVerifyHistory)

	if s.metrics != nil {
		s.router.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens until Shutdown is called.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Response is the JSON envelope of every API reply.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *Server) fail(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, Response{Success: false, Error: msg})
}

func (s *Server) ok(w http.ResponseWriter, code int, data any) {
	writeJSON(w, code, Response{Success: true, Data: data})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.ok(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleDescriptor(w http.ResponseWriter, r *http.Request) {
	s.ok(w, http.StatusOK, map[string]any{
		"displayName": core.DisplayName(),
		"fields":      []string{"tests", "wrapper", "logfile", "port", "showall", "showerrors"},
	})
}

// GET /descriptor/check/{field}?value=
func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	field := chi.URLParam(r, "field")
	v := core.Check(field, r.URL.Query().Get("value"), s.baseWorkspace)
	s.ok(w, http.StatusOK, v)
}

// POST /jobs -> run a job (YAML or JSON body) and return its build record
func (s *Server) handleSubmitJob(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxJobBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.fail(w, http.StatusRequestEntityTooLarge, "job document too large")
			return
		}
		s.fail(w, http.StatusBadRequest, "cannot read body")
		return
	}
	job, err := core.ParseJob(data)
	if err != nil {
		s.fail(w, http.StatusBadRequest, err.Error())
		return
	}
	s.anchor(job)

	rec, runErr := s.runner.RunJob(r.Context(), job)
	if rec == nil {
		s.fail(w, http.StatusUnprocessableEntity, runErr.Error())
		return
	}

	s.remember(rec)

	if runErr != nil {
		s.logger.Warn("Job did not complete", logfields.BuildID(rec.ID), logfields.Error(runErr))
		writeJSON(w, http.StatusOK, Response{Success: false, Data: rec, Error: runErr.Error()})
		return
	}
	s.ok(w, http.StatusOK, rec)
}

// anchor keeps remote jobs inside the agent's workspace directory.
func (s *Server) anchor(job *core.Job) {
	if s.baseWorkspace == "" {
		return
	}
	job.Workspace = filepath.Join(s.baseWorkspace, filepath.Clean("/"+job.Workspace))
	if job.VariablesFile != "" {
		job.VariablesFile = filepath.Join(job.Workspace, filepath.Clean("/"+job.VariablesFile))
	}
}

// remember stores rec, evicting the oldest records beyond maxBuilds. Evicted
// builds remain in the log directory and the history ledger.
func (s *Server) remember(rec *core.BuildRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.builds[rec.ID]; !exists {
		s.order = append(s.order, rec.ID)
	}
	s.builds[rec.ID] = rec
	for len(s.order) > s.maxBuilds {
		delete(s.builds, s.order[0])
		s.order = s.order[1:]
	}
}

func (s *Server) lookup(id string) (*core.BuildRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.builds[id]
	return rec, ok
}

// GET /builds/{id}
func (s *Server) handleGetBuild(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.lookup(chi.URLParam(r, "id"))
	if !ok {
		s.fail(w, http.StatusNotFound, "build not found")
		return
	}
	s.ok(w, http.StatusOK, rec)
}

// GET /builds/{id}/log
func (s *Server) handleGetBuildLog(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.lookup(chi.URLParam(r, "id"))
	if !ok || rec.LogPath == "" || s.runner.LogStorage == nil {
		s.fail(w, http.StatusNotFound, "log not found")
		return
	}
	data, err := s.runner.LogStorage.Read(rec.LogPath)
	if err != nil {
		s.fail(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write(data)
}

// GET /history/verify
func (s *Server) handleVerifyHistory(w http.ResponseWriter, r *http.Request) {
	if s.runner.Ledger == nil {
		s.fail(w, http.StatusNotFound, "history is disabled")
		return
	}
	if err := s.runner.Ledger.Verify(); err != nil {
		s.fail(w, http.StatusInternalServerError, "history verification failed: "+err.Error())
		return
	}
	s.ok(w, http.StatusOK, map[string]int{"records": len(s.runner.Ledger.Records())})
}
