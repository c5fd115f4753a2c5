package settings

import (
	"context"
	"fmt"
	"sync"
)

// Backend reads and writes the server-held copy.
type Backend interface {
	FetchSettings(ctx context.Context) (Settings, error)
	SaveSettings(ctx context.Context, s Settings) error
}

// SaveError reports a rejected save, either by local validation or by the
// service's {"success": false} reply. The draft is kept in both cases.
type SaveError struct {
	Reason string
	Err    error
}

func (e *SaveError) Error() string {
	if e.Reason == "" && e.Err != nil {
		return fmt.Sprintf("save settings: %v", e.Err)
	}
	return "save settings: " + e.Reason
}

func (e *SaveError) Unwrap() error {
	return e.Err
}

// Store keeps the last server-confirmed settings and the locally edited draft.
// Invariant: after a successful Load or Save, remote and draft are equal.
type Store struct {
	backend Backend

	mu        sync.RWMutex
	remote    Settings
	hasRemote bool
	draft     Settings
}

// NewStore returns a store whose draft starts at Defaults.
func NewStore(backend Backend) *Store {
	return &Store{backend: backend, draft: Defaults()}
}

// Load fetches the server copy and replaces both remote and draft with it.
// On failure both copies are left unchanged.
func (s *Store) Load(ctx context.Context) (Settings, error) {
	if s == nil || s.backend == nil {
		return Settings{}, fmt.Errorf("settings backend not configured")
	}
	fetched, err := s.backend.FetchSettings(ctx)
	if err != nil {
		return Settings{}, err
	}
	s.mu.Lock()
	s.remote = fetched
	s.hasRemote = true
	s.draft = fetched
	s.mu.Unlock()
	return fetched, nil
}

// Save validates draft and submits it. On success remote and draft both
// become draft; on rejection the stored draft becomes the submitted one and
// remote is unchanged.
func (s *Store) Save(ctx context.Context, draft Settings) error {
	if s == nil || s.backend == nil {
		return fmt.Errorf("settings backend not configured")
	}
	s.mu.Lock()
	s.draft = draft
	s.mu.Unlock()

	if err := draft.Validate(); err != nil {
		return &SaveError{Reason: err.Error(), Err: err}
	}
	if err := s.backend.SaveSettings(ctx, draft); err != nil {
		return err
	}

	s.mu.Lock()
	s.remote = draft
	s.hasRemote = true
	s.draft = draft
	s.mu.Unlock()
	return nil
}

// ResetToDefaults replaces the draft only. Nothing is sent until Save.
func (s *Store) ResetToDefaults() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = Defaults()
	return s.draft
}

// Cancel discards local edits. The draft returns to the remote copy, or to
// Defaults when nothing was ever loaded.
func (s *Store) Cancel() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hasRemote {
		s.draft = s.remote
	} else {
		s.draft = Defaults()
	}
	return s.draft
}

// Draft returns the locally edited copy.
func (s *Store) Draft() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.draft
}

// Remote returns the last server-confirmed copy and whether one exists.
func (s *Store) Remote() (Settings, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.remote, s.hasRemote
}
