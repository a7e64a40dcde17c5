package history

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
)

// Ledger is an append-only, hash-chained history of step runs.
// File format: JSON lines (one record per line).
type Ledger struct {
	mu      sync.Mutex
	records []*Record
	path    string
}

// Open loads an existing ledger file or creates an empty one.
func Open(path string) (*Ledger, error) {
	l := &Ledger{path: path}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, err
		}
		_ = f.Close()
		return l, nil
	}
	if err != nil {
		return nil, err
	}
	if l.records, err = decode(data); err != nil {
		return nil, err
	}
	return l, nil
}

func decode(data []byte) ([]*Record, error) {
	var records []*Record
	dec := json.NewDecoder(bytes.NewReader(data))
	for dec.More() {
		var rec Record
		if err := dec.Decode(&rec); err != nil {
			return nil, fmt.Errorf("decode ledger entry %d: %w", len(records), err)
		}
		records = append(records, &rec)
	}
	return records, nil
}

// Append chains e onto the last record, persists it and returns it.
//
// The file is locked for the duration of the append and re-read first, so
// several processes sharing one ledger file extend the same chain.
func (l *Ledger) Append(e Entry) (*Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open ledger file: %w", err)
	}
	defer f.Close()

	if err := lockFile(f); err != nil {
		return nil, fmt.Errorf("lock ledger file: %w", err)
	}
	defer unlockFile(f)

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read ledger file: %w", err)
	}
	records, err := decode(data)
	if err != nil {
		return nil, err
	}
	l.records = records

	prev := ""
	if n := len(l.records); n > 0 {
		prev = l.records[n-1].Hash
	}
	rec, err := NewRecord(len(l.records), e, prev)
	if err != nil {
		return nil, err
	}

	if err := json.NewEncoder(f).Encode(rec); err != nil {
		return nil, fmt.Errorf("write ledger file: %w", err)
	}

	l.records = append(l.records, rec)
	return rec, nil
}

// Records returns a copy of all records in order.
func (l *Ledger) Records() []Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Record, len(l.records))
	for i, r := range l.records {
		out[i] = *r
	}
	return out
}

// ForBuild returns the records of one build in order.
func (l *Ledger) ForBuild(buildID string) []Record {
	var out []Record
	for _, r := range l.Records() {
		if r.BuildID == buildID {
			out = append(out, r)
		}
	}
	return out
}
