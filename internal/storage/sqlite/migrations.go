package sqlite

import "database/sql"

// migrations contains the SQL statements to set up the database schema.
// These run on startup to ensure tables exist.
// The transaction log is append-only: rows in channel_transactions are only
// ever inserted with the next sequence number, never updated or deleted.
const schema = `
CREATE TABLE IF NOT EXISTS channels (
    id TEXT PRIMARY KEY,
    payer TEXT NOT NULL,
    payee TEXT NOT NULL,
    total_amount INTEGER NOT NULL,
    paid_amount INTEGER NOT NULL,
    accumulated_intent INTEGER NOT NULL,
    expiry_timestamp INTEGER NOT NULL,
    status TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    closed_at INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS channel_transactions (
    channel_id TEXT NOT NULL,
    seq INTEGER NOT NULL,
    kind TEXT NOT NULL,
    amount INTEGER NOT NULL DEFAULT 0,
    pending_amount INTEGER NOT NULL DEFAULT 0,
    remaining_intent INTEGER NOT NULL DEFAULT 0,
    random_seed INTEGER,
    random_value INTEGER,
    threshold INTEGER,
    iteration INTEGER NOT NULL DEFAULT 0,
    timestamp INTEGER NOT NULL,
    reference TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (channel_id, seq),
    FOREIGN KEY (channel_id) REFERENCES channels(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_channel_transactions_channel_id ON channel_transactions(channel_id);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
