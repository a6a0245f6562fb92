// Package redis provides a Redis-backed implementation of the storage.Store
// interface. Each channel is stored as one self-describing JSON document, so
// a write of the record plus its transaction-log tail is a single SET.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/powerpay/backend/internal/models"
	"github.com/powerpay/backend/internal/storage"
)

const keyPrefix = "channel:"

// Ensure Store implements storage.Store
var _ storage.Store = (*Store)(nil)

// Store implements storage.Store using a Redis client.
type Store struct {
	rdb *redis.Client
}

// New connects to Redis at the given address and verifies the connection.
func New(addr, password string, db int) (*Store, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}

	return &Store{rdb: rdb}, nil
}

// GetChannel loads and decodes the channel document, or returns (nil, nil)
// if the key does not exist.
func (s *Store) GetChannel(ctx context.Context, channelID string) (*models.Channel, error) {
	data, err := s.rdb.Get(ctx, keyPrefix+channelID).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get channel: %w", err)
	}

	channel := &models.Channel{}
	if err := json.Unmarshal(data, channel); err != nil {
		return nil, fmt.Errorf("failed to decode channel document: %w", err)
	}
	return channel, nil
}

// PutChannel encodes and writes the full channel document. Channel records
// never expire; the channel lifecycle is owned by the ledger, not the cache.
func (s *Store) PutChannel(ctx context.Context, channel *models.Channel) error {
	data, err := json.Marshal(channel)
	if err != nil {
		return fmt.Errorf("failed to encode channel document: %w", err)
	}
	if err := s.rdb.Set(ctx, keyPrefix+channel.ID, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to put channel: %w", err)
	}
	return nil
}

// Close closes the underlying Redis client.
func (s *Store) Close() error {
	return s.rdb.Close()
}
