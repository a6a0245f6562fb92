// Package ledger owns the payment channel state machine: creation, intent
// accumulation, probabilistic settlement, and closing.
//
// Every state-changing operation is a read-modify-write of one channel
// record, serialized per channel id through a keyed mutex. Operations on
// different channels never contend. Mutations are validated against the
// channel invariants before anything is persisted, so an error never leaves
// a partially updated record behind.
package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/powerpay/backend/internal/models"
	"github.com/powerpay/backend/internal/random"
	"github.com/powerpay/backend/internal/settlement"
	"github.com/powerpay/backend/internal/storage"
)

// MaxDistributionIterations bounds a single distribution run.
const MaxDistributionIterations = 10000

// Ledger enforces legal state transitions over channel records.
type Ledger struct {
	store storage.Store
	seeds random.Source
	nowFn func() time.Time

	// Per-channel-id mutexes. Entries are never evicted: channels are
	// long-lived and an entry costs one pointer per id.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock overrides the time source, for expiry and timestamp tests.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.nowFn = now }
}

// New creates a Ledger over the given store and seed source.
func New(store storage.Store, seeds random.Source, opts ...Option) *Ledger {
	l := &Ledger{
		store: store,
		seeds: seeds,
		nowFn: time.Now,
		locks: make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// lockChannel acquires the per-id critical section and returns the unlock.
func (l *Ledger) lockChannel(channelID string) func() {
	l.mu.Lock()
	m, ok := l.locks[channelID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[channelID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// load fetches a channel, translating store failures and absence into the
// ledger error taxonomy.
func (l *Ledger) load(ctx context.Context, channelID string) (*models.Channel, error) {
	ch, err := l.store.GetChannel(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if ch == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, channelID)
	}
	return ch, nil
}

// save persists the mutated record; the transaction-log tail commits with it.
func (l *Ledger) save(ctx context.Context, ch *models.Channel) error {
	if err := l.store.PutChannel(ctx, ch); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// reference builds the opaque settlement signature placeholder.
func reference(now time.Time) string {
	return fmt.Sprintf("sig-%d", now.UnixMilli())
}

// Create allocates a new channel between payer and payee with the given
// locked total. expiryTimestamp is Unix seconds; 0 means never expires.
// Returns the fresh channel id.
func (l *Ledger) Create(ctx context.Context, payer, payee string, totalAmount, expiryTimestamp uint64) (string, error) {
	if payer == "" || payee == "" {
		return "", fmt.Errorf("%w: payer and payee are required", ErrInvalidParameters)
	}
	if payer == payee {
		return "", fmt.Errorf("%w: payer and payee must be distinct", ErrInvalidParameters)
	}
	if totalAmount < 1 {
		return "", fmt.Errorf("%w: total amount must be at least 1", ErrInvalidParameters)
	}

	now := l.nowFn()
	ch := &models.Channel{
		ID:              uuid.NewString(),
		Payer:           payer,
		Payee:           payee,
		TotalAmount:     totalAmount,
		ExpiryTimestamp: expiryTimestamp,
		Status:          models.StatusActive,
		CreatedAt:       now.Unix(),
		Transactions: []models.TransactionRecord{{
			Kind:      models.KindCreate,
			Amount:    totalAmount,
			Timestamp: now.Unix(),
			Reference: reference(now),
		}},
	}

	if err := l.save(ctx, ch); err != nil {
		return "", err
	}
	return ch.ID, nil
}

// AddIntent adds a micropayment intent to an active, unexpired channel and
// returns the new accumulated intent.
func (l *Ledger) AddIntent(ctx context.Context, channelID string, amount uint64) (uint64, error) {
	if amount < 1 {
		return 0, fmt.Errorf("%w: intent amount must be at least 1", ErrInvalidParameters)
	}

	unlock := l.lockChannel(channelID)
	defer unlock()

	ch, err := l.load(ctx, channelID)
	if err != nil {
		return 0, err
	}
	if ch.Status == models.StatusClosed {
		return 0, ErrChannelClosed
	}
	now := l.nowFn()
	if ch.ExpiryTimestamp > 0 && uint64(now.Unix()) > ch.ExpiryTimestamp {
		return 0, ErrChannelExpired
	}
	if amount > ch.Remaining() {
		return 0, ErrInsufficientCapacity
	}

	ch.AccumulatedIntent += amount
	ch.Transactions = append(ch.Transactions, models.TransactionRecord{
		Kind:      models.KindIntent,
		Amount:    amount,
		Timestamp: now.Unix(),
		Reference: reference(now),
	})

	if err := l.save(ctx, ch); err != nil {
		return 0, err
	}
	return ch.AccumulatedIntent, nil
}

// SettleParams carries the deterministic-testing overrides for Settle.
// Both are nil in production: the seed then comes from the injected random
// source and the threshold defaults to settlement.DefaultThreshold. The
// overrides must never be reachable from a production trust boundary.
type SettleParams struct {
	SeedOverride      *uint64
	ThresholdOverride *uint64
}

// SettlementResult reports one settlement attempt. Amount is the intent paid
// out when executed, or the intent still pending when skipped.
type SettlementResult struct {
	Executed    bool
	Amount      uint64
	RandomSeed  uint64
	RandomValue uint64
	Threshold   uint64
	PaidAmount  uint64
}

// Settle runs one probabilistic settlement attempt: the accumulated intent
// is either paid in full or left fully pending, decided by the weighted coin
// flip in the settlement package. The channel status never changes here.
func (l *Ledger) Settle(ctx context.Context, channelID string, params SettleParams) (*SettlementResult, error) {
	unlock := l.lockChannel(channelID)
	defer unlock()

	ch, err := l.load(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if ch.Status == models.StatusClosed {
		return nil, ErrChannelClosed
	}
	if ch.AccumulatedIntent < 1 {
		return nil, ErrNoAccumulatedIntent
	}

	seed, err := l.drawSeed(params.SeedOverride)
	if err != nil {
		return nil, err
	}
	threshold := uint64(settlement.DefaultThreshold)
	if params.ThresholdOverride != nil {
		threshold = *params.ThresholdOverride
	}

	outcome := settlement.Evaluate(seed, threshold)
	now := l.nowFn()
	rec := models.TransactionRecord{
		RandomSeed:  &seed,
		RandomValue: &outcome.RandomValue,
		Threshold:   &threshold,
		Timestamp:   now.Unix(),
		Reference:   reference(now),
	}

	result := &SettlementResult{
		Executed:    outcome.Executed,
		RandomSeed:  seed,
		RandomValue: outcome.RandomValue,
		Threshold:   threshold,
	}

	if outcome.Executed {
		processed := ch.AccumulatedIntent
		ch.PaidAmount += processed
		ch.AccumulatedIntent = 0
		rec.Kind = models.KindPaymentExecuted
		rec.Amount = processed
		result.Amount = processed
	} else {
		rec.Kind = models.KindPaymentSkipped
		rec.PendingAmount = ch.AccumulatedIntent
		result.Amount = ch.AccumulatedIntent
	}
	ch.Transactions = append(ch.Transactions, rec)
	result.PaidAmount = ch.PaidAmount

	if err := l.save(ctx, ch); err != nil {
		return nil, err
	}
	return result, nil
}

// Close settles any remaining intent into the paid amount unconditionally
// (no probabilistic step), marks the channel closed, and returns the final
// paid amount. Closed is terminal.
func (l *Ledger) Close(ctx context.Context, channelID string) (uint64, error) {
	unlock := l.lockChannel(channelID)
	defer unlock()

	ch, err := l.load(ctx, channelID)
	if err != nil {
		return 0, err
	}
	if ch.Status == models.StatusClosed {
		return 0, ErrAlreadyClosed
	}

	now := l.nowFn()
	remaining := ch.AccumulatedIntent
	ch.PaidAmount += remaining
	ch.AccumulatedIntent = 0
	ch.Status = models.StatusClosed
	ch.ClosedAt = now.Unix()
	ch.Transactions = append(ch.Transactions, models.TransactionRecord{
		Kind:            models.KindClose,
		RemainingIntent: remaining,
		Timestamp:       now.Unix(),
		Reference:       reference(now),
	})

	if err := l.save(ctx, ch); err != nil {
		return 0, err
	}
	return ch.PaidAmount, nil
}

// Get returns a read-only snapshot of the channel. It never mutates state
// or appends transaction records.
func (l *Ledger) Get(ctx context.Context, channelID string) (*models.Channel, error) {
	return l.load(ctx, channelID)
}

func (l *Ledger) drawSeed(override *uint64) (uint64, error) {
	if override != nil {
		return *override, nil
	}
	seed, err := l.seeds.NextSeed()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRandomSourceUnavailable, err)
	}
	return seed, nil
}
