package core

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"mozmill-ci/internal/history"
	"mozmill-ci/internal/logfields"
	"mozmill-ci/internal/metrics"
	"mozmill-ci/internal/storage"
	"mozmill-ci/pkg/utils"
)

// Runner ties together Job + Step + Executor + storage + history
type Runner struct {
	Launcher   Launcher
	LogStorage *storage.LogStorage
	Ledger     *history.Ledger  // optional
	Metrics    metrics.Recorder // optional
	Logger     *slog.Logger
	// Console receives a copy of the build log when set.
	Console io.Writer
}

// RunnerOptions configures NewRunner.
type RunnerOptions struct {
	LogDir     string
	LedgerPath string
	Metrics    metrics.Recorder
	Logger     *slog.Logger
}

// NewRunner builds a runner backed by the local executor.
func NewRunner(opts RunnerOptions) *Runner {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.LogDir == "" {
		opts.LogDir = "./logs"
	}

	var rec metrics.Recorder = metrics.NoopRecorder{}
	if opts.Metrics != nil {
		rec = opts.Metrics
	}

	r := &Runner{
		Launcher:   NewExecutor(),
		LogStorage: storage.NewLogStorage(opts.LogDir),
		Metrics:    rec,
		Logger:     logger,
	}
	if opts.LedgerPath != "" {
		ledger, err := history.Open(opts.LedgerPath)
		if err != nil {
			// fail-open: builds still run without history
			logger.Warn("Cannot open history ledger", logfields.Path(opts.LedgerPath), logfields.Error(err))
		} else {
			r.Ledger = ledger
		}
	}
	return r
}

// BuildRecord is the outcome of running one job.
type BuildRecord struct {
	ID       string       `json:"id"`
	Job      string       `json:"job"`
	Result   Outcome      `json:"result"`
	Steps    []StepReport `json:"steps"`
	LogPath  string       `json:"logPath,omitempty"`
	Started  time.Time    `json:"started"`
	Finished time.Time    `json:"finished"`
}

// RunJob executes the steps of job in order. It stops at the first step that
// could not be executed and returns that error along with the record.
func (r *Runner) RunJob(ctx context.Context, job *Job) (*BuildRecord, error) {
	logger := r.logger()
	rec := &BuildRecord{Job: job.Name, Started: time.Now()}

	timeout, err := job.StepTimeout()
	if err != nil {
		return nil, err
	}
	vars, err := job.BuildVariables()
	if err != nil {
		return nil, err
	}
	workspace := job.Workspace
	if workspace == "" {
		if workspace, err = os.Getwd(); err != nil {
			return nil, err
		}
	}

	build := NewBuild(job.Name, workspace, InheritedEnv(job.Env), vars, nil)
	rec.ID = build.ID
	logger = logger.With(logfields.Job(job.Name), logfields.BuildID(build.ID))

	var sinks []io.Writer
	if r.Console != nil {
		sinks = append(sinks, r.Console)
	}
	if r.LogStorage != nil {
		f, err := r.LogStorage.Create(job.Name, build.ID)
		if err != nil {
			logger.Warn("Failed to create build log", logfields.Error(err))
		} else {
			defer f.Close()
			rec.LogPath = f.Name()
			sinks = append(sinks, f)
		}
	}
	if len(sinks) > 0 {
		build.Log = io.MultiWriter(sinks...)
	}

	launcher := r.launcher(timeout)
	logger.Info("Starting build", "steps", len(job.Steps), "workspace", workspace)

	var runErr error
	for i, cfg := range job.Steps {
		step := NewStep(cfg, launcher)
		start := time.Now()
		cont, err := step.Perform(ctx, build)
		elapsed := time.Since(start)

		rep := step.Report()
		rec.Steps = append(rec.Steps, rep)
		r.recordStep(job.Name, build.ID, i, rep, elapsed, rec.LogPath)

		attrs := []any{logfields.Step(i), logfields.Outcome(string(rep.Outcome)),
			logfields.ExitCode(rep.ExitCode), logfields.DurationMS(elapsed.Milliseconds())}
		switch {
		case err != nil:
			logger.Error("Step failed", append(attrs, logfields.Error(err))...)
		case rep.Outcome == ConfigErrorOutcome:
			logger.Error("Step skipped: invalid configuration", append(attrs, slog.String(logfields.KeyError, rep.Error))...)
		default:
			logger.Info("Step completed", append(attrs, logfields.Command(rep.Command))...)
		}

		if !cont {
			runErr = err
			break
		}
	}

	rec.Result = build.Result()
	rec.Finished = time.Now()
	if r.Metrics != nil {
		r.Metrics.IncBuildResult(string(rec.Result))
	}
	logger.Info("Build finished", logfields.Outcome(string(rec.Result)))
	return rec, runErr
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.Default()
	}
	return r.Logger
}

func (r *Runner) launcher(timeout time.Duration) Launcher {
	l := r.Launcher
	if l == nil {
		l = NewExecutor()
	}
	if ex, ok := l.(*Executor); ok && timeout > 0 {
		c := *ex
		c.Timeout = timeout
		return &c
	}
	return l
}

// recordStep updates metrics and appends a history record (best-effort).
func (r *Runner) recordStep(job, buildID string, index int, rep StepReport, elapsed time.Duration, logPath string) {
	if r.Metrics != nil {
		r.Metrics.IncStepOutcome(string(rep.Outcome))
		if rep.Outcome != ConfigErrorOutcome {
			r.Metrics.ObserveStepDuration(elapsed)
		}
	}
	if r.Ledger == nil {
		return
	}

	var logHash string
	if logPath != "" {
		h, err := utils.HashFile(logPath)
		if err != nil {
			r.logger().Warn("Cannot hash build log", logfields.Path(logPath), logfields.Error(err))
		}
		logHash = h
	}
	_, err := r.Ledger.Append(history.Entry{
		Job:      job,
		BuildID:  buildID,
		Step:     index,
		Command:  rep.Command,
		Outcome:  string(rep.Outcome),
		ExitCode: rep.ExitCode,
		LogPath:  logPath,
		LogHash:  logHash,
	})
	if err != nil {
		r.logger().Warn("Cannot append history record", logfields.Error(err))
	}
}
