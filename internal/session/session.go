// Package session persists harvest progress between runs: the current
// target blog URL, the last fully-processed listing page, and the set of
// already-archived post identifiers.
package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// State is the serialized session document.
type State struct {
	BaseURL  string          `json:"base_url"`
	LastPage string          `json:"last_page,omitempty"`
	Archived map[string]bool `json:"archived"`
}

// Store owns a State and its backing file. The harvest pipeline's consuming
// goroutine is the only writer during a run, but the menu shell also touches
// the store between runs, so access stays guarded.
type Store struct {
	path  string
	mu    sync.Mutex
	state State
}

// Load reads the session file at path. A missing file yields an empty
// session, not an error.
func Load(path string) (*Store, error) {
	s := &Store{
		path:  path,
		state: State{Archived: make(map[string]bool)},
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("read session %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, &s.state); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", path, err)
	}
	if s.state.Archived == nil {
		s.state.Archived = make(map[string]bool)
	}
	return s, nil
}

// BaseURL returns the current target blog URL.
func (s *Store) BaseURL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.BaseURL
}

// SetBaseURL switches the target blog. Changing to a different URL resets
// the archived set and page cursor: post identifiers are only unique within
// one blog.
func (s *Store) SetBaseURL(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if url == s.state.BaseURL {
		return
	}
	s.state.BaseURL = url
	s.state.LastPage = ""
	s.state.Archived = make(map[string]bool)
}

// SetLastPage records the most recent fully-processed listing page.
func (s *Store) SetLastPage(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.LastPage = url
}

// IsArchived reports whether the post identifier was archived by a prior or
// current run.
func (s *Store) IsArchived(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Archived[id]
}

// MarkArchived records post identifiers as durably archived.
func (s *Store) MarkArchived(ids ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		if id != "" {
			s.state.Archived[id] = true
		}
	}
}

// Seed merges identifiers recovered from the archive index, covering the
// case where the session file was lost but the index survived.
func (s *Store) Seed(ids map[string]bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, ok := range ids {
		if ok {
			s.state.Archived[id] = true
		}
	}
}

// ArchivedCount returns the size of the archived set.
func (s *Store) ArchivedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.state.Archived)
}

// Save persists the session atomically via write-to-temp-then-rename.
func (s *Store) Save() error {
	s.mu.Lock()
	payload, err := json.MarshalIndent(s.state, "", "  ")
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create session dir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create session temp: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write session: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close session temp: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename session into place: %w", err)
	}
	return nil
}
