// Package session persists authenticated browser state across runs.
//
// Two tiers back the store: a local JSON file (fast, preferred on read)
// and a Firestore document (survives container restarts). Writes go to
// both; a failure on one side is logged and does not block the other.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/rbarros/linkedin-engage-bot/internal/models"
)

// Store loads and saves a serialized browser session. Load returns
// (nil, nil) when no session is available; callers must then fall back
// to interactive login.
type Store interface {
	Load(ctx context.Context) (*models.Session, error)
	Save(ctx context.Context, session *models.Session) error
}

// FileStore keeps the session in a local JSON file.
type FileStore struct {
	Path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

func (s *FileStore) Load(_ context.Context) (*models.Session, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read session file %s: %w", s.Path, err)
	}

	var session models.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to parse session file %s: %w", s.Path, err)
	}
	if len(session.Cookies) == 0 {
		return nil, nil
	}
	return &session, nil
}

func (s *FileStore) Save(_ context.Context, session *models.Session) error {
	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	// Cookies are credentials; keep the file private.
	if err := os.WriteFile(s.Path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write session file %s: %w", s.Path, err)
	}
	return nil
}

// RemoteBackend is the durable tier, satisfied by the Firestore client.
type RemoteBackend interface {
	LoadSession(ctx context.Context) (*models.Session, error)
	SaveSession(ctx context.Context, session *models.Session) error
}

// RemoteStore adapts a RemoteBackend to the Store interface.
type RemoteStore struct {
	backend RemoteBackend
}

func NewRemoteStore(backend RemoteBackend) *RemoteStore {
	return &RemoteStore{backend: backend}
}

func (s *RemoteStore) Load(ctx context.Context) (*models.Session, error) {
	return s.backend.LoadSession(ctx)
}

func (s *RemoteStore) Save(ctx context.Context, session *models.Session) error {
	return s.backend.SaveSession(ctx, session)
}

// DualStore composes an ordered list of stores with a prefer-first-available
// read policy and a best-effort-both write policy.
type DualStore struct {
	stores []Store
}

func NewDualStore(stores ...Store) *DualStore {
	return &DualStore{stores: stores}
}

func (s *DualStore) Load(ctx context.Context) (*models.Session, error) {
	for _, store := range s.stores {
		session, err := store.Load(ctx)
		if err != nil {
			slog.Warn("Session tier failed to load, trying next", "error", err)
			continue
		}
		if session != nil {
			return session, nil
		}
	}
	return nil, nil
}

func (s *DualStore) Save(ctx context.Context, session *models.Session) error {
	var failures int
	for _, store := range s.stores {
		if err := store.Save(ctx, session); err != nil {
			slog.Warn("Session tier failed to save", "error", err)
			failures++
		}
	}
	if failures == len(s.stores) {
		return fmt.Errorf("all %d session tiers failed to save", failures)
	}
	return nil
}
