// Package jsonlsink writes crawl output as one JSON object per line into
// a per-run directory, alongside a manifest describing the run.
package jsonlsink

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// RunManifest summarizes one crawl invocation for later auditing.
type RunManifest struct {
	RunID       string    `json:"run_id"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at,omitempty"`
	Accounts    int       `json:"accounts"`
	Keywords    int       `json:"keywords"`
	RecordCount int       `json:"record_count"`
	ErrorCount  int       `json:"error_count"`
}

// Sink writes records to <outputDir>/<run-timestamp>/data.jsonl, one JSON
// object per line, and tracks a manifest written on Close.
type Sink struct {
	mu       sync.Mutex
	file     *os.File
	runDir   string
	manifest RunManifest
}

// Open creates a new run directory under outputDir (named after the
// current instant, passed in by the caller since this package never
// calls time.Now itself in a way that would break determinism in
// tests) and opens data.jsonl for writing.
func Open(outputDir string, startedAt time.Time, accounts, keywords int) (*Sink, error) {
	runName := startedAt.Format("2006-01-02_150405")
	runDir := filepath.Join(outputDir, runName)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return nil, fmt.Errorf("create run directory: %w", err)
	}

	f, err := os.Create(filepath.Join(runDir, "data.jsonl"))
	if err != nil {
		return nil, fmt.Errorf("create data.jsonl: %w", err)
	}

	return &Sink{
		file:   f,
		runDir: runDir,
		manifest: RunManifest{
			RunID:     uuid.NewString(),
			StartedAt: startedAt,
			Accounts:  accounts,
			Keywords:  keywords,
		},
	}, nil
}

// Write appends one record as a JSON line, flushing immediately so a
// killed process loses at most the in-flight record.
func (s *Sink) Write(record any, isError bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	line, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	if _, err := s.file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	if err := s.file.Sync(); err != nil {
		return fmt.Errorf("flush record: %w", err)
	}

	s.manifest.RecordCount++
	if isError {
		s.manifest.ErrorCount++
	}
	return nil
}

// Close closes data.jsonl and writes manifest.json alongside it.
func (s *Sink) Close(finishedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.file.Close(); err != nil {
		return fmt.Errorf("close data.jsonl: %w", err)
	}

	s.manifest.FinishedAt = finishedAt
	data, err := json.MarshalIndent(s.manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.runDir, "manifest.json"), data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// RunDir returns the directory this sink is writing into.
func (s *Sink) RunDir() string { return s.runDir }
