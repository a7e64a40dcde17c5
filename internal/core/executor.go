package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sort"
	"time"
)

// Launcher runs an external process to completion.
type Launcher interface {
	// Launch blocks until the process exits and returns its exit code.
	// It fails with an execution error if the process cannot be started and
	// with an interrupted error if ctx is done before the process exits.
	Launch(ctx context.Context, argv []string, env map[string]string, dir string, out io.Writer) (int, error)
}

// Executor is responsible for running step processes on the local host
type Executor struct {
	// Timeout bounds a single process. Zero means no limit.
	Timeout time.Duration
	// WaitDelay is how long to wait for output pipes after the process is killed.
	WaitDelay time.Duration
}

func NewExecutor() *Executor {
	return &Executor{WaitDelay: 5 * time.Second}
}

// Launch runs argv in dir with exactly env as its environment. Stdout and
// stderr are both streamed to out.
func (e *Executor) Launch(ctx context.Context, argv []string, env map[string]string, dir string, out io.Writer) (int, error) {
	if len(argv) == 0 {
		return -1, ExecutionError("empty command line", nil)
	}
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir
	cmd.Env = envList(env)
	cmd.Stdout = out
	cmd.Stderr = out
	cmd.WaitDelay = e.WaitDelay
	killProcessGroup(cmd)

	if err := cmd.Start(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return -1, InterruptedError(ctxErr)
		}
		return -1, ExecutionError(fmt.Sprintf("cannot start %q", argv[0]), err)
	}

	err := cmd.Wait()
	if err == nil {
		return 0, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return -1, InterruptedError(ctxErr)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return -1, ExecutionError(fmt.Sprintf("waiting for %q", argv[0]), err)
}

// envList renders env as sorted KEY=VALUE pairs.
func envList(env map[string]string) []string {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	list := make([]string, 0, len(keys))
	for _, k := range keys {
		list = append(list, k+"="+env[k])
	}
	return list
}
