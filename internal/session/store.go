package session

import (
	"context"
	"errors"
	"sync"
)

// ErrSessionNotFound is returned when loading a session id the store has
// never seen or has since deleted.
var ErrSessionNotFound = errors.New("session not found")

// Store persists session state between turns, keyed by session id. The
// state round-trips through the document mapping, so any document-shaped
// backend can implement it.
type Store interface {
	Save(ctx context.Context, state *State) error
	Load(ctx context.Context, sessionID string) (*State, error)
	Delete(ctx context.Context, sessionID string) error
}

// MemoryStore is an in-process Store for tests and the terminal harness.
// Documents are deep-copied through the boundary mapping, so callers never
// share matrix memory with the store.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]map[string]any
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]map[string]any)}
}

// Save implements Store.
func (m *MemoryStore) Save(_ context.Context, state *State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[state.SessionID] = ToDocument(state)
	return nil
}

// Load implements Store.
func (m *MemoryStore) Load(_ context.Context, sessionID string) (*State, error) {
	m.mu.RLock()
	doc, ok := m.docs[sessionID]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return FromDocument(doc)
}

// Delete implements Store.
func (m *MemoryStore) Delete(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, sessionID)
	return nil
}
