package storage

import (
	"context"

	"github.com/google/uuid"
	"github.com/jwebster45206/simulation-suite/pkg/state"
)

// Storage defines the persistence operations for simulation sessions.
// Saving a session is the commit boundary of a round.
type Storage interface {
	// Health and lifecycle
	Ping(ctx context.Context) error
	Close() error

	// Session operations. LoadSession returns nil, nil when the session
	// does not exist.
	SaveSession(ctx context.Context, s *state.Session) error
	LoadSession(ctx context.Context, id uuid.UUID) (*state.Session, error)
	DeleteSession(ctx context.Context, id uuid.UUID) error
	ListSessions(ctx context.Context) ([]uuid.UUID, error)
}
