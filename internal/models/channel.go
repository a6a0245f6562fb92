// Package models defines the core domain models for the payment channel ledger.
//
// A Channel is a bilateral escrow-like record: the payer locks a total amount,
// micropayment intents accumulate off-chain, and periodic probabilistic
// settlements either pay the full accumulated intent or leave it pending.
// All amounts are unsigned integers in the smallest currency unit.
package models

// Status is the lifecycle state of a channel.
type Status string

const (
	// StatusActive means the channel accepts intents and settlements.
	StatusActive Status = "active"

	// StatusClosed is terminal; a closed channel is read-only.
	StatusClosed Status = "closed"
)

// TransactionKind identifies the state transition a TransactionRecord summarizes.
type TransactionKind string

const (
	KindCreate          TransactionKind = "create"
	KindIntent          TransactionKind = "intent"
	KindPaymentExecuted TransactionKind = "payment_executed"
	KindPaymentSkipped  TransactionKind = "payment_skipped"
	KindClose           TransactionKind = "close"

	// Distribution-harness records. Only written by the test-only
	// distribution run, never by production settlement.
	KindTestPaymentExecuted TransactionKind = "test_payment_executed"
	KindTestPaymentSkipped  TransactionKind = "test_payment_skipped"
)

// TransactionRecord is one immutable entry in a channel's transaction log.
// The log is append-only: records are never reordered or deleted.
//
// Which fields are set depends on Kind:
//   - create: Amount (the channel total)
//   - intent: Amount (the intent added)
//   - payment_executed: Amount (intent paid out) + randomness fields
//   - payment_skipped: PendingAmount (intent left pending) + randomness fields
//   - close: RemainingIntent (intent folded into paid on close)
type TransactionRecord struct {
	Kind            TransactionKind `json:"kind"`
	Amount          uint64          `json:"amount,omitempty"`
	PendingAmount   uint64          `json:"pending_amount,omitempty"`
	RemainingIntent uint64          `json:"remaining_intent,omitempty"`

	// Randomness used for settlement decisions. Nil for non-settlement records.
	RandomSeed  *uint64 `json:"random_seed,omitempty"`
	RandomValue *uint64 `json:"random_value,omitempty"`
	Threshold   *uint64 `json:"threshold,omitempty"`

	// Iteration is set only on distribution-harness records (1-based).
	Iteration int `json:"iteration,omitempty"`

	// Timestamp is the Unix timestamp when the transition was applied.
	Timestamp int64 `json:"timestamp"`

	// Reference is an opaque settlement signature placeholder.
	Reference string `json:"reference,omitempty"`
}

// Channel is the authoritative per-channel ledger record.
//
// Invariants, enforced by the ledger after every mutation:
//   - paid_amount + accumulated_intent <= total_amount
//   - once Status is closed, accumulated_intent is zero and the record is immutable
//   - the transaction log only grows
type Channel struct {
	// ID is the unique channel identifier (UUID format).
	ID string `json:"channel_id"`

	// Payer and Payee are opaque address identifiers; distinct by invariant.
	Payer string `json:"payer"`
	Payee string `json:"payee"`

	// TotalAmount is the locked value, fixed at creation. Always >= 1.
	TotalAmount uint64 `json:"total_amount"`

	// PaidAmount is the settled payout so far. Monotonically non-decreasing.
	PaidAmount uint64 `json:"paid_amount"`

	// AccumulatedIntent is the pending, not-yet-settled amount.
	AccumulatedIntent uint64 `json:"accumulated_intent"`

	// ExpiryTimestamp in Unix seconds; 0 means the channel never expires.
	// Expiry only blocks new intents, it never gates existing balances.
	ExpiryTimestamp uint64 `json:"expiry_timestamp"`

	Status Status `json:"status"`

	// CreatedAt and ClosedAt are Unix timestamps; ClosedAt is zero while active.
	CreatedAt int64 `json:"created_at"`
	ClosedAt  int64 `json:"closed_at,omitempty"`

	// Transactions is the append-only transition log, in append order.
	Transactions []TransactionRecord `json:"transactions"`
}

// Remaining returns the capacity left for new intents.
func (c *Channel) Remaining() uint64 {
	return c.TotalAmount - c.PaidAmount - c.AccumulatedIntent
}

// Clone returns a deep copy so callers can hand out snapshots without
// exposing the stored record to mutation.
func (c *Channel) Clone() *Channel {
	cp := *c
	cp.Transactions = make([]TransactionRecord, len(c.Transactions))
	copy(cp.Transactions, c.Transactions)
	return &cp
}
