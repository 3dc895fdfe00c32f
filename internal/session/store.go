// Package session holds the opaque backend credential for the current user.
// The credential is created at login, destroyed at logout or when the backend
// rejects it; no expiry check is performed locally.
package session

import (
	"errors"
	"sync"

	"golang.org/x/oauth2"
)

// ErrNoCredential is returned when no token is stored.
var ErrNoCredential = errors.New("session: no credential stored")

// Store is the credential storage the controller and API client depend on.
// Implementations must be safe for concurrent use.
type Store interface {
	// Token returns the stored credential, or ErrNoCredential.
	Token() (*oauth2.Token, error)
	// SetToken replaces the stored credential.
	SetToken(tok *oauth2.Token) error
	// Clear removes the stored credential. Clearing an empty store is a no-op.
	Clear() error
}

// MemoryStore keeps the credential in process memory only. Used by tests and
// as a fallback when no token path is configured.
type MemoryStore struct {
	mu  sync.Mutex
	tok *oauth2.Token
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (s *MemoryStore) Token() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tok == nil {
		return nil, ErrNoCredential
	}
	return s.tok, nil
}

func (s *MemoryStore) SetToken(tok *oauth2.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tok = tok
	return nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tok = nil
	return nil
}
