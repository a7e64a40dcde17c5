package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"mozmill-ci/internal/core"
	"mozmill-ci/internal/server"
)

// SubmitCmd implements the 'submit' command.
type SubmitCmd struct {
	Agent string `help:"Agent base URL" default:"http://localhost:9090" env:"MOZMILL_CI_AGENT"`
	Job   string `arg:"" help:"Job file (YAML)" type:"existingfile"`
}

func (s *SubmitCmd) Run() error {
	data, err := os.ReadFile(s.Job)
	if err != nil {
		return fmt.Errorf("read job file: %w", err)
	}
	// Fail locally instead of round-tripping an invalid job.
	if _, err := core.ParseJob(data); err != nil {
		return err
	}

	url := strings.TrimRight(s.Agent, "/") + "/jobs"
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-yaml")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("send job: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	return printSubmitResult(os.Stdout, resp.StatusCode, body)
}

func printSubmitResult(w io.Writer, status int, body []byte) error {
	var envelope struct {
		server.Response
		Data *core.BuildRecord `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("agent returned %d: %s", status, strings.TrimSpace(string(body)))
	}
	if envelope.Data == nil {
		if status == http.StatusBadRequest {
			return core.ConfigError("job", envelope.Error)
		}
		return fmt.Errorf("agent returned %d: %s", status, envelope.Error)
	}

	rec := envelope.Data
	fmt.Fprintf(w, "Build %s finished: %s\n", rec.ID, rec.Result)
	for i, step := range rec.Steps {
		fmt.Fprintf(w, "  step %d: %s (exit %d) %s\n", i, step.Outcome, step.ExitCode, step.Command)
	}
	if envelope.Error != "" {
		return &exitError{code: exitFailure, msg: envelope.Error}
	}
	return resultExit(rec)
}
