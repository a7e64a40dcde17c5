package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mozmill-ci/internal/core"
	"mozmill-ci/internal/metrics"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	dir := t.TempDir()
	ws := filepath.Join(dir, "workspace")
	require.NoError(t, os.MkdirAll(filepath.Join(ws, "suite"), 0o755))
	script := "#!/bin/sh\necho \"ran $*\"\ncase \"$*\" in *fail*) exit 1;; esac\n"
	require.NoError(t, os.WriteFile(filepath.Join(ws, "suite", "run.sh"), []byte(script), 0o755))

	recorder := metrics.NewPrometheusRecorder(prom.NewRegistry())
	runner := core.NewRunner(core.RunnerOptions{
		LogDir:     filepath.Join(dir, "logs"),
		LedgerPath: filepath.Join(dir, "history.jsonl"),
		Metrics:    recorder,
	})
	return New(Options{Addr: ":0", Workspace: ws, Runner: runner, Metrics: recorder}), ws
}

func do(t *testing.T, s *Server, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)

	var env envelope
	if strings.HasPrefix(rr.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	}
	return rr, env
}

func TestHealthAndDescriptor(t *testing.T) {
	s, _ := newTestServer(t)

	rr, env := do(t, s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, env.Success)

	_, env = do(t, s, http.MethodGet, "/descriptor", "")
	assert.Contains(t, string(env.Data), `"displayName":"Mozmill Test"`)
}

func TestCheckField(t *testing.T) {
	s, _ := newTestServer(t)

	_, env := do(t, s, http.MethodGet, "/descriptor/check/tests?value=", "")
	var v core.FormValidation
	require.NoError(t, json.Unmarshal(env.Data, &v))
	assert.Equal(t, core.ValidationError, v.Kind)

	_, env = do(t, s, http.MethodGet, "/descriptor/check/wrapper?value=suite/run.sh", "")
	require.NoError(t, json.Unmarshal(env.Data, &v))
	assert.Equal(t, core.ValidationOK, v.Kind)
}

func TestSubmitJob(t *testing.T) {
	s, _ := newTestServer(t)

	job := `
name: remote
workspace: suite
steps:
  - tests: pass.js
    wrapper: ./run.sh
  - tests: fail.js
    wrapper: ./run.sh
    showall: true
`
	rr, env := do(t, s, http.MethodPost, "/jobs", job)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.True(t, env.Success)

	var rec core.BuildRecord
	require.NoError(t, json.Unmarshal(env.Data, &rec))
	assert.Equal(t, core.Unstable, rec.Result)
	require.Len(t, rec.Steps, 2)
	assert.Equal(t, "./run.sh -t fail.js --showall", rec.Steps[1].Command)

	rr, env = do(t, s, http.MethodGet, "/builds/"+rec.ID, "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, env.Success)

	rr, _ = do(t, s, http.MethodGet, "/builds/"+rec.ID+"/log", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "ran -t pass.js")

	rr, env = do(t, s, http.MethodGet, "/history/verify", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"records":2}`, string(env.Data))

	rr, _ = do(t, s, http.MethodGet, "/metrics", "")
	assert.Contains(t, rr.Body.String(), `mozmill_builds_total{result="UNSTABLE"} 1`)
}

func TestSubmitJobErrors(t *testing.T) {
	s, _ := newTestServer(t)

	rr, env := do(t, s, http.MethodPost, "/jobs", "name: nothing\n")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.False(t, env.Success)

	rr, env = do(t, s, http.MethodPost, "/jobs", "steps:\n  - tests: a.js\n    wrapper: ./missing.sh\n")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.False(t, env.Success)
	assert.Contains(t, env.Error, "execution")

	rr, _ = do(t, s, http.MethodGet, "/builds/unknown", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestAnchorKeepsJobsInWorkspace(t *testing.T) {
	s, ws := newTestServer(t)

	job := &core.Job{Workspace: "../../etc", VariablesFile: "../vars.env"}
	s.anchor(job)
	assert.Equal(t, filepath.Join(ws, "etc"), job.Workspace)
	assert.Equal(t, filepath.Join(ws, "etc", "vars.env"), job.VariablesFile)
}

func TestSubmitJobTooLarge(t *testing.T) {
	s, _ := newTestServer(t)

	body := "name: big\nsteps:\n  - tests: a.js\n# " + strings.Repeat("x", maxJobBytes) + "\n"
	rr, env := do(t, s, http.MethodPost, "/jobs", body)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
	assert.False(t, env.Success)
}

func TestBuildRecordsAreCapped(t *testing.T) {
	s, _ := newTestServer(t)
	s.maxBuilds = 2

	for _, id := range []string{"b1", "b2", "b3"} {
		s.remember(&core.BuildRecord{ID: id, Job: "nightly"})
	}
	s.remember(&core.BuildRecord{ID: "b3", Job: "nightly"})

	_, ok := s.lookup("b1")
	assert.False(t, ok, "oldest build should be evicted")
	for _, id := range []string{"b2", "b3"} {
		_, ok := s.lookup(id)
		assert.True(t, ok, id)
	}
	assert.Len(t, s.order, 2)

	rr, _ := do(t, s, http.MethodGet, "/builds/b1", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
