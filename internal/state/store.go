package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/cruciblehq/hoist/internal/paths"
)

// Persists a run context between phase invocations.
type Store struct {
	path string // State file of the run.
}

// Creates a store backed by the file at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Returns the path of the state file.
func (s *Store) Path() string {
	return s.path
}

// Reads the run context, or returns a fresh one if the run has no state yet.
func (s *Store) Load(runID string) (*RunContext, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Debug("starting new run", "run", runID, "state", s.path)
		return New(runID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStore, err)
	}

	var rc RunContext
	if err := json.Unmarshal(data, &rc); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrStore, s.path, err)
	}
	if rc.RunID != runID {
		return nil, fmt.Errorf("%w: %s belongs to run %q, not %q", ErrStore, s.path, rc.RunID, runID)
	}

	slog.Debug("resumed run", "run", runID, "containers", len(rc.Containers), "images", len(rc.Images), "errors", len(rc.Errors))
	return &rc, nil
}

// Writes the run context atomically.
func (s *Store) Save(rc *RunContext) error {
	data, err := json.MarshalIndent(rc, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStore, err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), paths.DefaultDirMode); err != nil {
		return fmt.Errorf("%w: %w", ErrStore, err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, paths.DefaultFileMode); err != nil {
		return fmt.Errorf("%w: %w", ErrStore, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%w: %w", ErrStore, err)
	}
	return nil
}

// Deletes the state file. Removing a run without state is not an error.
func (s *Store) Remove() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %w", ErrStore, err)
	}
	return nil
}
