package core

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ParseJob parses YAML (or JSON) content into a Job.
func ParseJob(data []byte) (*Job, error) {
	var job Job
	if err := yaml.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("parse job: %w", err)
	}
	if job.Name == "" {
		job.Name = "mozmill"
	}
	if len(job.Steps) == 0 {
		return nil, ConfigError("steps", "job has no steps")
	}
	return &job, nil
}

// LoadJob reads a job file. Relative paths inside it are resolved against the
// file's directory.
func LoadJob(path string) (*Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	job, err := ParseJob(data)
	if err != nil {
		return nil, err
	}
	job.resolvePaths(filepath.Dir(path))
	return job, nil
}
