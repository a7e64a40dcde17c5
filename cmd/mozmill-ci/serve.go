package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"mozmill-ci/internal/core"
	"mozmill-ci/internal/metrics"
	"mozmill-ci/internal/server"
)

// ServeCmd implements the 'serve' command.
type ServeCmd struct {
	Addr      string `help:"Listen address" default:":9090" env:"MOZMILL_CI_ADDR"`
	Workspace string `short:"w" help:"Base directory for job workspaces" default:"./workspace" type:"path" env:"MOZMILL_CI_WORKSPACE"`
}

func (s *ServeCmd) Run(root *CLI) error {
	if err := os.MkdirAll(s.Workspace, 0o755); err != nil {
		return err
	}

	recorder := metrics.NewPrometheusRecorder(prom.NewRegistry())
	runner := core.NewRunner(core.RunnerOptions{
		LogDir:     root.LogDir,
		LedgerPath: root.Ledger,
		Metrics:    recorder,
	})
	srv := server.New(server.Options{
		Addr:      s.Addr,
		Workspace: s.Workspace,
		Runner:    runner,
		Metrics:   recorder,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Agent listening", "addr", s.Addr, "workspace", s.Workspace)
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down agent")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
