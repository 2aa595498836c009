// Package credstore persists the opaque credential blob used by the microblog
// client. The blob arrives from an external refresh job through the ingestion
// endpoint; consumers re-read it on every use rather than caching it at
// process start, so a refresh takes effect without a restart.
package credstore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Store is a file-backed credential blob.
type Store struct {
	mu   sync.Mutex
	path string
}

// New creates a store at path, creating the parent directory if needed.
func New(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("credstore: path must not be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("credstore: %w", err)
	}
	return &Store{path: path}, nil
}

// Current returns the stored blob, or "" when none has been saved yet.
func (s *Store) Current() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("credstore: read: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Save replaces the stored blob atomically (write-then-rename), so a reader
// never observes a torn write.
func (s *Store) Save(blob string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(blob), 0o600); err != nil {
		return fmt.Errorf("credstore: write: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("credstore: rename: %w", err)
	}
	return nil
}

// Seed writes blob only when no credential exists yet. Used to bootstrap from
// the environment on first start without clobbering a refreshed credential.
func (s *Store) Seed(blob string) error {
	if blob == "" {
		return nil
	}
	cur, err := s.Current()
	if err != nil {
		return err
	}
	if cur != "" {
		return nil
	}
	return s.Save(blob)
}
