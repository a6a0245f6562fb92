// Package sqlite provides a SQLite-backed implementation of the storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/powerpay/backend/internal/models"
	"github.com/powerpay/backend/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Open database with pure Go driver
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// Run migrations
	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// PutChannel persists the channel record and appends any transaction records
// not yet stored, all within one SQL transaction. Records already persisted
// are never rewritten.
func (s *SQLiteStore) PutChannel(ctx context.Context, channel *models.Channel) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO channels (id, payer, payee, total_amount, paid_amount, accumulated_intent, expiry_timestamp, status, created_at, closed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   paid_amount = excluded.paid_amount,
		   accumulated_intent = excluded.accumulated_intent,
		   status = excluded.status,
		   closed_at = excluded.closed_at`,
		channel.ID, channel.Payer, channel.Payee,
		int64(channel.TotalAmount), int64(channel.PaidAmount), int64(channel.AccumulatedIntent),
		int64(channel.ExpiryTimestamp), string(channel.Status), channel.CreatedAt, channel.ClosedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert channel: %w", err)
	}

	// Append only the log tail; stored records are immutable.
	var stored int
	if err := tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM channel_transactions WHERE channel_id = ?",
		channel.ID,
	).Scan(&stored); err != nil {
		return fmt.Errorf("failed to count transactions: %w", err)
	}
	if stored > len(channel.Transactions) {
		return fmt.Errorf("transaction log shrank for channel %s: stored %d, given %d",
			channel.ID, stored, len(channel.Transactions))
	}

	for seq := stored; seq < len(channel.Transactions); seq++ {
		rec := channel.Transactions[seq]
		_, err = tx.ExecContext(ctx,
			`INSERT INTO channel_transactions
			   (channel_id, seq, kind, amount, pending_amount, remaining_intent, random_seed, random_value, threshold, iteration, timestamp, reference)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			channel.ID, seq, string(rec.Kind),
			int64(rec.Amount), int64(rec.PendingAmount), int64(rec.RemainingIntent),
			nullableUint(rec.RandomSeed), nullableUint(rec.RandomValue), nullableUint(rec.Threshold),
			rec.Iteration, rec.Timestamp, rec.Reference,
		)
		if err != nil {
			return fmt.Errorf("failed to insert transaction record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetChannel retrieves a channel by id, including its full transaction log
// in append order. Returns (nil, nil) if the channel does not exist.
func (s *SQLiteStore) GetChannel(ctx context.Context, channelID string) (*models.Channel, error) {
	channel := &models.Channel{}
	var (
		total, paid, accumulated, expiry int64
		status                           string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, payer, payee, total_amount, paid_amount, accumulated_intent, expiry_timestamp, status, created_at, closed_at
		 FROM channels WHERE id = ?`,
		channelID,
	).Scan(&channel.ID, &channel.Payer, &channel.Payee,
		&total, &paid, &accumulated, &expiry, &status,
		&channel.CreatedAt, &channel.ClosedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get channel: %w", err)
	}
	channel.TotalAmount = uint64(total)
	channel.PaidAmount = uint64(paid)
	channel.AccumulatedIntent = uint64(accumulated)
	channel.ExpiryTimestamp = uint64(expiry)
	channel.Status = models.Status(status)

	rows, err := s.db.QueryContext(ctx,
		`SELECT kind, amount, pending_amount, remaining_intent, random_seed, random_value, threshold, iteration, timestamp, reference
		 FROM channel_transactions WHERE channel_id = ? ORDER BY seq`,
		channelID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			rec                      models.TransactionRecord
			kind                     string
			amount, pending, remains int64
			seed, value, threshold   sql.NullInt64
		)
		if err := rows.Scan(&kind, &amount, &pending, &remains,
			&seed, &value, &threshold, &rec.Iteration, &rec.Timestamp, &rec.Reference); err != nil {
			return nil, fmt.Errorf("failed to scan transaction record: %w", err)
		}
		rec.Kind = models.TransactionKind(kind)
		rec.Amount = uint64(amount)
		rec.PendingAmount = uint64(pending)
		rec.RemainingIntent = uint64(remains)
		rec.RandomSeed = uintPtr(seed)
		rec.RandomValue = uintPtr(value)
		rec.Threshold = uintPtr(threshold)
		channel.Transactions = append(channel.Transactions, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}

	return channel, nil
}

func nullableUint(v *uint64) interface{} {
	if v == nil {
		return nil
	}
	return int64(*v)
}

func uintPtr(v sql.NullInt64) *uint64 {
	if !v.Valid {
		return nil
	}
	u := uint64(v.Int64)
	return &u
}
