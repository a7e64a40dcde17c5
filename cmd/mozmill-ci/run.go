package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mozmill-ci/internal/core"
)

// RunCmd implements the 'run' command.
type RunCmd struct {
	Job string `short:"j" help:"Job file (YAML); step flags are ignored when set" type:"existingfile"`

	Tests      string `short:"t" help:"Tests to run (passed to mozmill -t)"`
	Wrapper    string `help:"Wrapper script to launch instead of mozmill"`
	Logfile    string `help:"Value for mozmill --logfile"`
	Port       string `help:"Value for mozmill --port"`
	ShowAll    bool   `name:"showall" help:"Pass --showall"`
	ShowErrors bool   `name:"showerrors" help:"Pass --show-errors"`

	Workspace string            `short:"w" help:"Working directory for the process" type:"path"`
	Env       map[string]string `short:"e" help:"Extra inherited environment (KEY=VALUE)"`
	Var       map[string]string `short:"D" help:"Build variables (KEY=VALUE), override environment"`
	VarsFile  string            `name:"vars-file" help:"dotenv file with build variables" type:"existingfile"`
	Timeout   time.Duration     `help:"Kill the process after this long (0 disables)"`
}

// job returns the job described by the flags, or the job file.
func (r *RunCmd) job() (*core.Job, error) {
	if r.Job != "" {
		return core.LoadJob(r.Job)
	}
	job := &core.Job{
		Name:          "mozmill",
		Workspace:     r.Workspace,
		Env:           r.Env,
		Variables:     r.Var,
		VariablesFile: r.VarsFile,
		Steps: []core.StepConfig{{
			Tests:      r.Tests,
			Wrapper:    r.Wrapper,
			Logfile:    r.Logfile,
			Port:       r.Port,
			ShowAll:    r.ShowAll,
			ShowErrors: r.ShowErrors,
		}},
	}
	if r.Timeout > 0 {
		job.Timeout = r.Timeout.String()
	}
	return job, nil
}

func (r *RunCmd) Run(root *CLI) error {
	job, err := r.job()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := core.NewRunner(core.RunnerOptions{LogDir: root.LogDir, LedgerPath: root.Ledger})
	runner.Console = os.Stdout
	rec, err := runner.RunJob(ctx, job)
	if rec == nil {
		return err
	}
	fmt.Printf("Build %s finished: %s\n", rec.ID, rec.Result)
	if rec.LogPath != "" {
		fmt.Printf("Log saved at: %s\n", rec.LogPath)
	}
	if err != nil {
		return &exitError{code: exitFailure, msg: err.Error()}
	}
	return resultExit(rec)
}

// resultExit maps a finished build record to the CLI exit code.
func resultExit(rec *core.BuildRecord) error {
	for _, s := range rec.Steps {
		if s.Outcome == core.ConfigErrorOutcome {
			return &exitError{code: exitConfigError}
		}
	}
	if rec.Result != core.Success {
		return &exitError{code: exitFailure}
	}
	return nil
}
