package history

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// Record is a tamper-evident entry for one step run
type Record struct {
	Index     int    `json:"index"`
	Timestamp string `json:"timestamp"`
	Job       string `json:"job"`
	BuildID   string `json:"buildId"`
	Step      int    `json:"step"`
	Command   string `json:"command"`
	Outcome   string `json:"outcome"`
	ExitCode  int    `json:"exitCode"`
	LogPath   string `json:"logPath"`
	LogHash   string `json:"logHash"`
	PrevHash  string `json:"prevHash"`
	Hash      string `json:"hash"`
}

// canonicalData returns the JSON bytes used to compute the record hash.
// It excludes Hash.
func (r *Record) canonicalData() ([]byte, error) {
	view := *r
	view.Hash = ""
	return json.Marshal(view)
}

// ComputeHash calculates SHA256 over canonicalData
func (r *Record) ComputeHash() (string, error) {
	data, err := r.canonicalData()
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// Entry describes a step run before it is chained into the ledger.
type Entry struct {
	Job      string
	BuildID  string
	Step     int
	Command  string
	Outcome  string
	ExitCode int
	LogPath  string
	LogHash  string
}

// NewRecord constructs a record and computes its hash
func NewRecord(index int, e Entry, prevHash string) (*Record, error) {
	rec := &Record{
		Index:     index,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Job:       e.Job,
		BuildID:   e.BuildID,
		Step:      e.Step,
		Command:   e.Command,
		Outcome:   e.Outcome,
		ExitCode:  e.ExitCode,
		LogPath:   e.LogPath,
		LogHash:   e.LogHash,
		PrevHash:  prevHash,
	}

	h, err := rec.ComputeHash()
	if err != nil {
		return nil, fmt.Errorf("compute record hash: %w", err)
	}
	rec.Hash = h
	return rec, nil
}
