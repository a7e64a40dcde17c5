package core

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
)

// Job is a named list of mozmill steps that share one workspace.
type Job struct {
	Name          string            `yaml:"name" json:"name"`                     // Job name (e.g. "nightly")
	Workspace     string            `yaml:"workspace" json:"workspace"`           // Working directory for every step
	Env           map[string]string `yaml:"env" json:"env"`                       // Added to the inherited environment
	Variables     map[string]string `yaml:"variables" json:"variables"`           // Build-scoped, override env
	VariablesFile string            `yaml:"variables_file" json:"variables_file"` // dotenv file merged under variables
	Timeout       string            `yaml:"timeout" json:"timeout"`               // Per-step process limit, e.g. "30m"
	Steps         []StepConfig      `yaml:"steps" json:"steps"`                   // Run in order
}

// StepTimeout parses Timeout. An empty value means no limit.
func (j *Job) StepTimeout() (time.Duration, error) {
	if j.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(j.Timeout)
	if err != nil {
		return 0, ConfigError("timeout", fmt.Sprintf("invalid timeout %q", j.Timeout))
	}
	return d, nil
}

// BuildVariables returns the variables from VariablesFile overlaid with
// Variables.
func (j *Job) BuildVariables() (map[string]string, error) {
	vars := make(map[string]string)
	if j.VariablesFile != "" {
		fileVars, err := godotenv.Read(j.VariablesFile)
		if err != nil {
			return nil, fmt.Errorf("read variables file %s: %w", j.VariablesFile, err)
		}
		for k, v := range fileVars {
			vars[k] = v
		}
	}
	for k, v := range j.Variables {
		vars[k] = v
	}
	return vars, nil
}

// resolvePaths makes relative workspace and variables file paths relative to base.
func (j *Job) resolvePaths(base string) {
	if j.Workspace != "" && !filepath.IsAbs(j.Workspace) {
		j.Workspace = filepath.Join(base, j.Workspace)
	}
	if j.VariablesFile != "" && !filepath.IsAbs(j.VariablesFile) {
		j.VariablesFile = filepath.Join(base, j.VariablesFile)
	}
}
