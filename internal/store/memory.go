package store

import (
	"context"
	"sync"

	"github.com/abelikov/skillsim/internal/domain"
)

// MemoryStore keeps sessions in a process-local map. Session lifetime is the
// process lifetime; records are never evicted.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session
}

// NewMemory creates an empty in-memory session store.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*domain.Session),
	}
}

// Get retrieves a session, or (nil, nil) if it does not exist.
func (m *MemoryStore) Get(_ context.Context, id string) (*domain.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[id], nil
}

// Save creates or updates a session record.
func (m *MemoryStore) Save(_ context.Context, session *domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[session.ID] = session
	return nil
}

// Count returns the number of stored sessions.
func (m *MemoryStore) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions), nil
}

// Ping always succeeds for the in-memory store.
func (m *MemoryStore) Ping(_ context.Context) error {
	return nil
}

// Close is a no-op for the in-memory store.
func (m *MemoryStore) Close() error {
	return nil
}
