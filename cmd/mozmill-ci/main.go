package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"mozmill-ci/internal/core"
	"mozmill-ci/internal/history"
)

var version = "dev"

// Exit codes returned by the CLI.
const (
	exitSuccess     = 0
	exitFailure     = 1 // Unstable or failed build, runtime error
	exitConfigError = 2 // Step or job configuration rejected
)

// CLI definition & global flags.
type CLI struct {
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	LogDir  string           `name:"log-dir" help:"Directory for build logs" default:"./logs" env:"MOZMILL_CI_LOG_DIR"`
	Ledger  string           `help:"History ledger file (empty disables history)" default:"./history.jsonl" env:"MOZMILL_CI_LEDGER"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Run     RunCmd     `cmd:"" help:"Run a mozmill step from flags or a job file"`
	Check   CheckCmd   `cmd:"" help:"Validate a step configuration field"`
	Serve   ServeCmd   `cmd:"" help:"Start an agent that runs submitted jobs"`
	Submit  SubmitCmd  `cmd:"" help:"Submit a job file to an agent"`
	History HistoryCmd `cmd:"" help:"Inspect or verify the step history ledger"`
}

// AfterApply runs after flag parsing; setup logging once.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}

func (c *CLI) openLedger() (*history.Ledger, error) {
	if c.Ledger == "" {
		return nil, errors.New("history is disabled (--ledger is empty)")
	}
	return history.Open(c.Ledger)
}

// exitError carries a process exit code out of a command.
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string { return e.msg }

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("mozmill-ci"),
		kong.Description("Run mozmill test suites as CI build steps."),
		kong.UsageOnError(),
		kong.Vars{"version": version},
	)

	err := ctx.Run(&cli)
	if err == nil {
		os.Exit(exitSuccess)
	}
	var ee *exitError
	if errors.As(err, &ee) {
		if ee.msg != "" {
			fmt.Fprintln(os.Stderr, ee.msg)
		}
		os.Exit(ee.code)
	}
	slog.Error("Command failed", "error", err)
	if core.IsConfigError(err) {
		os.Exit(exitConfigError)
	}
	os.Exit(exitFailure)
}
