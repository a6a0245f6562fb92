// Package random supplies settlement seeds.
//
// The source is injected into the ledger so tests can script exact seeds
// instead of depending on ambient global randomness.
package random

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"sync"
)

// Source yields one unsigned seed per settlement attempt.
type Source interface {
	// NextSeed returns a non-negative seed in [0, 2^63).
	NextSeed() (uint64, error)
}

// CryptoSource draws seeds from crypto/rand.
type CryptoSource struct{}

// NewCryptoSource returns the production seed source.
func NewCryptoSource() *CryptoSource {
	return &CryptoSource{}
}

// NextSeed reads 8 bytes of system entropy and masks the sign bit so the
// seed stays within the safely-representable signed range.
func (*CryptoSource) NextSeed() (uint64, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0, fmt.Errorf("failed to read entropy: %w", err)
	}
	return binary.BigEndian.Uint64(buf[:]) &^ (1 << 63), nil
}

// Fixed replays a scripted seed sequence, cycling when exhausted.
// For tests only.
type Fixed struct {
	mu    sync.Mutex
	seeds []uint64
	next  int
}

// NewFixed builds a Fixed source over the given seeds.
// At least one seed is required.
func NewFixed(seeds ...uint64) *Fixed {
	if len(seeds) == 0 {
		panic("random: NewFixed requires at least one seed")
	}
	return &Fixed{seeds: seeds}
}

// NextSeed returns the next scripted seed.
func (f *Fixed) NextSeed() (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seed := f.seeds[f.next]
	f.next = (f.next + 1) % len(f.seeds)
	return seed, nil
}
