package ledger

import "errors"

// Typed error taxonomy returned by ledger operations. The service layer maps
// these to wire-level status codes; the ledger itself never embeds failure
// flags in a successful result.
var (
	// ErrInvalidParameters means the caller supplied malformed or missing
	// input. Not retryable.
	ErrInvalidParameters = errors.New("invalid parameters")

	// ErrNotFound means no channel exists with the given id.
	ErrNotFound = errors.New("payment channel not found")

	// ErrChannelClosed is returned by intent and settlement operations on a
	// closed channel.
	ErrChannelClosed = errors.New("channel is closed")

	// ErrAlreadyClosed is returned by a second close.
	ErrAlreadyClosed = errors.New("channel is already closed")

	// ErrChannelExpired means the expiry timestamp has passed; new intents
	// are blocked but existing balances are untouched.
	ErrChannelExpired = errors.New("channel has expired")

	// ErrInsufficientCapacity means the intent would push paid + accumulated
	// past the channel total.
	ErrInsufficientCapacity = errors.New("insufficient funds in channel")

	// ErrNoAccumulatedIntent means settle was called with nothing pending.
	ErrNoAccumulatedIntent = errors.New("no accumulated payment intent to process")

	// ErrStoreUnavailable wraps transient storage failures. Retryable by the
	// caller with backoff; the ledger never retries on its own, to avoid
	// double-appending transaction records.
	ErrStoreUnavailable = errors.New("channel store unavailable")

	// ErrRandomSourceUnavailable wraps transient randomness failures.
	// Retryable, same policy as ErrStoreUnavailable.
	ErrRandomSourceUnavailable = errors.New("random source unavailable")
)
