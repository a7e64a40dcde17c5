package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// LogStorage manages build log files
type LogStorage struct {
	BaseDir string
}

// NewLogStorage creates a new log storage handler
func NewLogStorage(baseDir string) *LogStorage {
	return &LogStorage{BaseDir: baseDir}
}

// Create opens a new log file for a build. The caller closes it.
func (ls *LogStorage) Create(job, buildID string) (*os.File, error) {
	if err := os.MkdirAll(ls.BaseDir, 0o775); err != nil {
		return nil, err
	}

	// Filename with timestamp for uniqueness
	timestamp := time.Now().Format("20060102_150405")
	short := buildID
	if len(short) > 8 {
		short = short[:8]
	}
	filename := fmt.Sprintf("%s_%s_%s.log", sanitize(job), sanitize(short), timestamp)
	return os.OpenFile(filepath.Join(ls.BaseDir, filename), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
}

// Read returns the content of a log previously written under BaseDir.
func (ls *LogStorage) Read(path string) ([]byte, error) {
	rel, err := filepath.Rel(ls.BaseDir, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return nil, fmt.Errorf("log %s is outside %s", path, ls.BaseDir)
	}
	return os.ReadFile(path)
}

// sanitize removes special characters from names for filenames
func sanitize(name string) string {
	var clean strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '-' || r == '_' {
			clean.WriteRune(r)
		}
	}
	if clean.Len() == 0 {
		return "build"
	}
	return clean.String()
}
