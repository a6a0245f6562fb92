// Package storage provides abstractions for persistent channel storage.
package storage

import (
	"context"

	"github.com/powerpay/backend/internal/models"
)

// Store defines the interface for channel record storage.
// This abstraction allows swapping storage backends (in-memory, SQLite,
// Redis, ...) without changing the ledger.
//
// The ledger serializes all read-modify-write cycles per channel id, so
// implementations only need per-call atomicity: PutChannel must commit the
// record fields and the transaction-log tail together or not at all.
type Store interface {
	// GetChannel retrieves a channel by id.
	// Returns (nil, nil) if no channel with that id exists.
	GetChannel(ctx context.Context, channelID string) (*models.Channel, error)

	// PutChannel persists the full channel record, creating or replacing it.
	// Transaction records are append-only; implementations must preserve
	// their order.
	PutChannel(ctx context.Context, channel *models.Channel) error

	// Close releases any resources held by the store.
	Close() error
}
