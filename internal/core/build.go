package core

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Build is the context a step executes in: workspace, environment, log sink
// and the current build result.
type Build struct {
	ID        string
	Job       string
	Workspace string

	// Env is the inherited environment of the build.
	Env map[string]string
	// Variables are build-scoped and override Env on collision.
	Variables map[string]string

	Log io.Writer

	mu     sync.Mutex
	result Outcome
}

// NewBuild creates a build with a fresh ID and a SUCCESS result.
func NewBuild(job, workspace string, env, vars map[string]string, log io.Writer) *Build {
	if log == nil {
		log = io.Discard
	}
	return &Build{
		ID:        uuid.NewString(),
		Job:       job,
		Workspace: workspace,
		Env:       env,
		Variables: vars,
		Log:       log,
		result:    Success,
	}
}

// Environment returns the merged process environment.
func (b *Build) Environment() map[string]string {
	merged := make(map[string]string, len(b.Env)+len(b.Variables))
	for k, v := range b.Env {
		merged[k] = v
	}
	for k, v := range b.Variables {
		merged[k] = v
	}
	return merged
}

// Result returns the current build result.
func (b *Build) Result() Outcome {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.result
}

// SetResult records o unless the build already has a worse result.
func (b *Build) SetResult(o Outcome) {
	if !o.IsBuildResult() {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.result = Combine(b.result, o)
}

// Errorf writes an error line to the build log.
func (b *Build) Errorf(format string, args ...any) {
	fmt.Fprintf(b.Log, "ERROR: "+format+"\n", args...)
}

// Printf writes a line to the build log.
func (b *Build) Printf(format string, args ...any) {
	fmt.Fprintf(b.Log, format+"\n", args...)
}

// InheritedEnv returns the current process environment overlaid with extra.
func InheritedEnv(extra map[string]string) map[string]string {
	env := EnvFromList(os.Environ())
	for k, v := range extra {
		env[k] = v
	}
	return env
}

// EnvFromList parses KEY=VALUE pairs. Entries without '=' are skipped.
func EnvFromList(list []string) map[string]string {
	env := make(map[string]string, len(list))
	for _, kv := range list {
		k, v, found := strings.Cut(kv, "=")
		if !found || k == "" {
			continue
		}
		env[k] = v
	}
	return env
}
