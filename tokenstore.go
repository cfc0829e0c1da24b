package pollbase

import "sync"

// TokenStore persists the session's access token. Implementations must be
// safe for concurrent use. The SDK ships MemoryTokenStore; pkg/credstore
// provides a file-backed store for CLI sessions that survive the process.
type TokenStore interface {
	// Load returns the stored token, or "" when none is stored.
	Load() (string, error)

	// Save stores the token, replacing any previous one.
	Save(token string) error

	// Clear removes the stored token.
	Clear() error
}

// MemoryTokenStore keeps the token in process memory. This is the default
// store and the right choice for server-side use of the SDK.
type MemoryTokenStore struct {
	mu    sync.RWMutex
	token string
}

// NewMemoryTokenStore creates an empty in-memory token store.
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{}
}

// Load returns the stored token.
func (s *MemoryTokenStore) Load() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, nil
}

// Save stores the token.
func (s *MemoryTokenStore) Save(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

// Clear removes the stored token.
func (s *MemoryTokenStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	return nil
}

// Compile-time interface verification.
var _ TokenStore = (*MemoryTokenStore)(nil)
