package lock

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MockLocker is an in-memory Locker for testing.
type MockLocker struct {
	mu       sync.Mutex
	held     map[uuid.UUID]bool
	Err      error
	Acquired int
	Released int
}

var _ Locker = (*MockLocker)(nil)

// NewMockLocker creates an empty mock locker.
func NewMockLocker() *MockLocker {
	return &MockLocker{held: make(map[uuid.UUID]bool)}
}

// Hold marks the session as locked by someone else.
func (m *MockLocker) Hold(sessionID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.held[sessionID] = true
}

// IsHeld reports whether the session is locked.
func (m *MockLocker) IsHeld(sessionID uuid.UUID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.held[sessionID]
}

// Acquire mocks taking the session lock
func (m *MockLocker) Acquire(ctx context.Context, sessionID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return false, m.Err
	}
	if m.held[sessionID] {
		return false, nil
	}
	m.held[sessionID] = true
	m.Acquired++
	return true, nil
}

// Release mocks releasing the session lock
func (m *MockLocker) Release(ctx context.Context, sessionID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.held, sessionID)
	m.Released++
	return nil
}
