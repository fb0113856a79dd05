// Package store persists finalized job results. Results live in memory for
// fast fetches and are mirrored to <dir>/<job_id>.json so they survive
// restarts.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Result is the finalized snapshot of one job.
type Result struct {
	JobID            string           `json:"job_id"`
	Results          []map[string]any `json:"results"`
	Screenshots      []string         `json:"screenshots"`
	ExecutionSummary []string         `json:"execution_summary"`
	Error            string           `json:"error,omitempty"`
}

// Store holds job results keyed by job id. Safe for concurrent writers from
// independent jobs.
type Store struct {
	dir     string
	mu      sync.RWMutex
	results map[string]Result
}

// NewStore creates a store writing result files under dir.
func NewStore(dir string) *Store {
	return &Store{
		dir:     dir,
		results: make(map[string]Result),
	}
}

// Persist records the result in memory and writes it to disk. The in-memory
// copy is kept even when the disk write fails, so fetches still succeed.
func (s *Store) Persist(result Result) error {
	s.mu.Lock()
	s.results[result.JobID] = result
	s.mu.Unlock()

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}

	path := filepath.Join(s.dir, result.JobID+".json")
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write result file: %w", err)
	}
	return nil
}

// Fetch returns the result for jobID. Falls back to the result file when the
// in-memory entry is missing (for example after a restart). The second
// return value reports whether a result exists; fetching a completed job is
// idempotent.
func (s *Store) Fetch(jobID string) (Result, bool, error) {
	s.mu.RLock()
	result, ok := s.results[jobID]
	s.mu.RUnlock()
	if ok {
		return result, true, nil
	}

	path := filepath.Join(s.dir, jobID+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{}, false, nil
		}
		return Result{}, false, fmt.Errorf("failed to read result file: %w", err)
	}

	if err := json.Unmarshal(data, &result); err != nil {
		return Result{}, false, fmt.Errorf("failed to decode result file: %w", err)
	}

	s.mu.Lock()
	s.results[jobID] = result
	s.mu.Unlock()
	return result, true, nil
}
