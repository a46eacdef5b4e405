// Package store provides session persistence interfaces and implementations.
package store

import (
	"context"

	"github.com/abelikov/skillsim/internal/domain"
)

// Store defines the interface for keeping conversation sessions. Get returns
// (nil, nil) when the session does not exist; callers create sessions lazily.
// Implementations do not serialize same-session access; the conversation
// controller owns that.
type Store interface {
	// Get retrieves a session by its identifier.
	Get(ctx context.Context, id string) (*domain.Session, error)

	// Save creates or updates a session record.
	Save(ctx context.Context, session *domain.Session) error

	// Count returns the number of stored sessions.
	Count(ctx context.Context) (int, error)

	// Ping verifies the backing store is reachable.
	Ping(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}
