// Package memory provides an in-memory implementation of the storage.Store
// interface, used for tests and for running the server without a database.
package memory

import (
	"context"
	"sync"

	"github.com/powerpay/backend/internal/models"
	"github.com/powerpay/backend/internal/storage"
)

// Ensure Store implements storage.Store
var _ storage.Store = (*Store)(nil)

// Store keeps channel records in a map guarded by a mutex.
// Records are deep-copied on the way in and out so callers never share
// memory with the stored state.
type Store struct {
	mu       sync.RWMutex
	channels map[string]*models.Channel
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{channels: make(map[string]*models.Channel)}
}

// GetChannel returns a copy of the stored channel, or (nil, nil) if absent.
func (s *Store) GetChannel(_ context.Context, channelID string) (*models.Channel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ch, ok := s.channels[channelID]
	if !ok {
		return nil, nil
	}
	return ch.Clone(), nil
}

// PutChannel stores a copy of the channel under its id.
func (s *Store) PutChannel(_ context.Context, channel *models.Channel) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.channels[channel.ID] = channel.Clone()
	return nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}
