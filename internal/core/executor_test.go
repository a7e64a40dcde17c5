package core

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	return path
}

func TestExecutorLaunch(t *testing.T) {
	dir := t.TempDir()
	script := writeScript(t, dir, "mozmill.sh", `echo "args: $*"
echo "var: $BUILD_VAR"
pwd
echo "to stderr" >&2
exit 3
`)

	var out bytes.Buffer
	code, err := NewExecutor().Launch(context.Background(),
		[]string{script, "-t", "a.js"},
		map[string]string{"BUILD_VAR": "hello", "PATH": os.Getenv("PATH")},
		dir, &out)
	require.NoError(t, err)
	assert.Equal(t, 3, code)

	resolved, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "args: -t a.js\n")
	assert.Contains(t, out.String(), "var: hello\n")
	assert.Contains(t, out.String(), resolved+"\n")
	assert.Contains(t, out.String(), "to stderr\n")
}

func TestExecutorOnlyPassesGivenEnvironment(t *testing.T) {
	t.Setenv("MOZMILL_CI_LEAK", "leaked")
	dir := t.TempDir()
	script := writeScript(t, dir, "env.sh", `echo "leak=$MOZMILL_CI_LEAK"`)

	var out bytes.Buffer
	code, err := NewExecutor().Launch(context.Background(), []string{script}, map[string]string{}, dir, &out)
	require.NoError(t, err)
	assert.Zero(t, code)
	assert.Equal(t, "leak=\n", out.String())
}

func TestExecutorStartFailure(t *testing.T) {
	_, err := NewExecutor().Launch(context.Background(), []string{"/nonexistent/mozmill"}, nil, t.TempDir(), &bytes.Buffer{})
	require.Error(t, err)
	assert.Equal(t, KindExecution, KindOf(err))

	_, err = NewExecutor().Launch(context.Background(), nil, nil, "", &bytes.Buffer{})
	assert.Equal(t, KindExecution, KindOf(err))
}

func TestExecutorInterrupted(t *testing.T) {
	dir := t.TempDir()
	script := writeScript(t, dir, "sleep.sh", "exec sleep 30\n")

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(200 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := NewExecutor().Launch(ctx, []string{script}, map[string]string{"PATH": os.Getenv("PATH")}, dir, &bytes.Buffer{})
	assert.True(t, IsInterrupted(err))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), 10*time.Second)
}

func TestExecutorTimeout(t *testing.T) {
	dir := t.TempDir()
	script := writeScript(t, dir, "sleep.sh", "exec sleep 30\n")

	ex := NewExecutor()
	ex.Timeout = 200 * time.Millisecond
	_, err := ex.Launch(context.Background(), []string{script}, map[string]string{"PATH": os.Getenv("PATH")}, dir, &bytes.Buffer{})
	assert.True(t, IsInterrupted(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

// endedContext reports an error without ever closing Done, the way a context
// looks when it expires right after the process has exited.
type endedContext struct{ context.Context }

func (endedContext) Err() error { return context.DeadlineExceeded }

func TestExecutorCleanExitKeepsExitCode(t *testing.T) {
	dir := t.TempDir()
	script := writeScript(t, dir, "ok.sh", "exit 0\n")

	ctx := endedContext{context.Background()}
	code, err := NewExecutor().Launch(ctx, []string{script}, nil, dir, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Zero(t, code)
}
